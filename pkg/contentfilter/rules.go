package contentfilter

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Rules is the externally loadable rule set. Lists replace the defaults
// wholesale; merging is left to the caller.
type Rules struct {
	Profanity         []string `yaml:"profanity"`
	SuspiciousDomains []string `yaml:"suspicious_domains"`
}

// ErrInvalidRules is returned when a rules document cannot be decoded.
var ErrInvalidRules = errors.New("contentfilter: invalid rules document")

// LoadRules decodes a YAML rules document, e.g.:
//
//	profanity:
//	  - scamcoin
//	suspicious_domains:
//	  - bit.ly
func LoadRules(r io.Reader) (Rules, error) {
	var rules Rules
	if err := yaml.NewDecoder(r).Decode(&rules); err != nil {
		return Rules{}, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	return rules, nil
}

// defaultProfanity seeds the inappropriate-language matcher. Deployments
// extend this list through moderation tooling.
var defaultProfanity = []string{
	"asshole",
	"bastard",
	"bitch",
	"cunt",
	"dickhead",
	"fuck",
	"motherfucker",
	"shit",
	"slut",
	"whore",
}

// defaultSuspiciousDomains covers link shorteners and hosting patterns that
// show up in phishing reports against the platform.
var defaultSuspiciousDomains = []string{
	"bit.ly",
	"buff.ly",
	"cutt.ly",
	"goo.gl",
	"is.gd",
	"ow.ly",
	"rb.gy",
	"shorturl.at",
	"t.ly",
	"tinyurl.com",
}
