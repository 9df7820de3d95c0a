package contentfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Result reports one classification pass over a piece of content.
type Result struct {
	Valid      bool
	Sanitized  string
	Risk       Risk
	Violations []string
}

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=\s*("[^"]*"|'[^']*')`)
	jsProtocolRe   = regexp.MustCompile(`(?i)javascript\s*:`)
	htmlTagRe      = regexp.MustCompile(`(?s)<[^>]+>`)
	controlRe      = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	ipLinkRe       = regexp.MustCompile(`(?i)\bhttps?://\d{1,3}(?:\.\d{1,3}){3}`)
	punycodeRe     = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"']*\bxn--`)
)

// Filter checks notification text against the configured rule sets.
// Safe for concurrent use; all state is immutable after New.
type Filter struct {
	profanity *regexp.Regexp
	domains   *regexp.Regexp
	maxLength int
}

type settings struct {
	profanity []string
	domains   []string
	maxLength int
}

// Option configures a Filter.
type Option func(*settings)

// WithProfanity replaces the default inappropriate-language list.
func WithProfanity(terms ...string) Option {
	return func(s *settings) { s.profanity = terms }
}

// WithSuspiciousDomains replaces the default suspicious-domain list.
func WithSuspiciousDomains(domains ...string) Option {
	return func(s *settings) { s.domains = domains }
}

// WithRules applies a loaded rule set. Empty lists keep the defaults.
func WithRules(r Rules) Option {
	return func(s *settings) {
		if len(r.Profanity) > 0 {
			s.profanity = r.Profanity
		}
		if len(r.SuspiciousDomains) > 0 {
			s.domains = r.SuspiciousDomains
		}
	}
}

// WithMaxLength truncates sanitized output to n bytes. Zero disables.
func WithMaxLength(n int) Option {
	return func(s *settings) { s.maxLength = n }
}

// New compiles the rule sets into a ready-to-use Filter.
func New(opts ...Option) *Filter {
	s := settings{
		profanity: defaultProfanity,
		domains:   defaultSuspiciousDomains,
	}
	for _, opt := range opts {
		opt(&s)
	}

	return &Filter{
		profanity: compileTerms(s.profanity),
		domains:   compileDomains(s.domains),
		maxLength: s.maxLength,
	}
}

// Check sanitizes text and scores its risk. Markup is always removed;
// flagged words are reported, never rewritten. Clean input comes back
// byte-identical at RiskLow.
func (f *Filter) Check(text string) Result {
	res := Result{Valid: true, Risk: RiskLow, Sanitized: text}
	if text == "" {
		return res
	}

	sanitized := text

	if scriptBlockRe.MatchString(sanitized) || eventHandlerRe.MatchString(sanitized) || jsProtocolRe.MatchString(sanitized) {
		res.Violations = append(res.Violations, "embedded script content")
		res.Risk = res.Risk.escalate(RiskHigh)
		res.Valid = false

		sanitized = scriptBlockRe.ReplaceAllString(sanitized, "")
		sanitized = eventHandlerRe.ReplaceAllString(sanitized, "")
		sanitized = jsProtocolRe.ReplaceAllString(sanitized, "")
	}

	if htmlTagRe.MatchString(sanitized) {
		sanitized = htmlTagRe.ReplaceAllString(sanitized, "")
		res.Violations = append(res.Violations, "markup removed")
		res.Risk = res.Risk.escalate(RiskMedium)
	}

	sanitized = controlRe.ReplaceAllString(sanitized, "")
	if f.maxLength > 0 {
		if runes := []rune(sanitized); len(runes) > f.maxLength {
			sanitized = string(runes[:f.maxLength])
		}
	}
	res.Sanitized = sanitized

	// Rules match against a normalized lowercase shadow; the sanitized
	// output above stays untouched.
	shadow := strings.ToLower(norm.NFKC.String(sanitized))

	if f.profanity != nil {
		if terms := dedupe(f.profanity.FindAllString(shadow, -1)); len(terms) > 0 {
			for _, term := range terms {
				res.Violations = append(res.Violations, "inappropriate language: "+term)
			}
			res.Risk = res.Risk.escalate(RiskHigh)
			res.Valid = false
		}
	}

	suspicious := false
	if f.domains != nil {
		if m := f.domains.FindStringSubmatch(shadow); m != nil {
			res.Violations = append(res.Violations, "suspicious link: "+m[1])
			suspicious = true
		}
	}
	if m := ipLinkRe.FindString(shadow); m != "" {
		res.Violations = append(res.Violations, "suspicious link: "+m)
		suspicious = true
	}
	if punycodeRe.MatchString(shadow) {
		res.Violations = append(res.Violations, "suspicious link: punycode host")
		suspicious = true
	}
	if suspicious {
		res.Risk = RiskCritical
		res.Valid = false
	}

	return res
}

func compileTerms(terms []string) *regexp.Regexp {
	if len(terms) == 0 {
		return nil
	}
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = regexp.QuoteMeta(strings.ToLower(t))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(escaped, "|") + `)\b`)
}

func compileDomains(domains []string) *regexp.Regexp {
	if len(domains) == 0 {
		return nil
	}
	escaped := make([]string, len(domains))
	for i, d := range domains {
		escaped[i] = regexp.QuoteMeta(strings.ToLower(d))
	}
	// Matches both scheme-ful and bare mentions: https://bit.ly/x, bit.ly/x,
	// with trailing punctuation as a boundary. RE2 has no lookbehind, so the
	// left guard consumes one char; only group 1 is ever read.
	return regexp.MustCompile(`(?:^|[^a-z0-9.-])(?:https?://)?(?:www\.)?(` + strings.Join(escaped, "|") + `)(?:[/\s.,;:!?)\]'"]|$)`)
}

func dedupe(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
