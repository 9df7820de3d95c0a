package contentfilter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify/pkg/contentfilter"
)

func TestCheckCleanContent(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	tests := []string{
		"Alice mentioned you in a post",
		"Your video finished processing",
		"New follower: @bob",
		"", // empty input is clean
	}

	for _, input := range tests {
		res := filter.Check(input)
		assert.True(t, res.Valid, "input %q", input)
		assert.Equal(t, contentfilter.RiskLow, res.Risk, "input %q", input)
		assert.Equal(t, input, res.Sanitized, "input %q", input)
		assert.Empty(t, res.Violations, "input %q", input)
	}
}

func TestCheckProfanity(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	res := filter.Check("you absolute bastard")
	assert.False(t, res.Valid)
	assert.Equal(t, contentfilter.RiskHigh, res.Risk)
	assert.Contains(t, res.Violations, "inappropriate language: bastard")
	// Sanitization never rewrites flagged words.
	assert.Equal(t, "you absolute bastard", res.Sanitized)
}

func TestCheckProfanityNormalizedEvasion(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	// Fullwidth compatibility characters normalize to ASCII under NFKC.
	res := filter.Check("ｆｕｃｋ this")
	assert.False(t, res.Valid)
	assert.Equal(t, contentfilter.RiskHigh, res.Risk)
}

func TestCheckSuspiciousLinks(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	tests := []struct {
		name  string
		input string
	}{
		{"shortener with scheme", "click https://bit.ly/2xk now"},
		{"bare shortener", "click tinyurl.com/abc now"},
		{"shortener at sentence end", "see ow.ly."},
		{"raw ip", "login at http://203.0.113.9/verify"},
		{"punycode host", "visit https://xn--pple-43d.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := filter.Check(tt.input)
			assert.False(t, res.Valid)
			assert.Equal(t, contentfilter.RiskCritical, res.Risk)
			require.NotEmpty(t, res.Violations)
			assert.Contains(t, res.Violations[0], "suspicious link")
		})
	}
}

func TestCheckScriptStripping(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	res := filter.Check(`hello <script>alert("x")</script>world`)
	assert.False(t, res.Valid)
	assert.Equal(t, contentfilter.RiskHigh, res.Risk)
	assert.Equal(t, "hello world", res.Sanitized)
	assert.Contains(t, res.Violations, "embedded script content")
}

func TestCheckBenignMarkup(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	// Plain markup is stripped and noted but does not invalidate.
	res := filter.Check("a <b>bold</b> claim")
	assert.True(t, res.Valid)
	assert.Equal(t, contentfilter.RiskMedium, res.Risk)
	assert.Equal(t, "a bold claim", res.Sanitized)
	assert.Contains(t, res.Violations, "markup removed")
}

func TestCheckControlSequencesRemoved(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	res := filter.Check("ping\x00\x1b[31m pong")
	assert.Equal(t, "ping[31m pong", res.Sanitized)
}

func TestCheckProfanityEscalatesOverMarkup(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	res := filter.Check("<i>shit</i> happens")
	assert.False(t, res.Valid)
	assert.Equal(t, contentfilter.RiskHigh, res.Risk)
}

func TestCheckSuspiciousLinkOutranksProfanity(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New()

	res := filter.Check("shit, see bit.ly/x")
	assert.Equal(t, contentfilter.RiskCritical, res.Risk)
}

func TestCustomRules(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New(
		contentfilter.WithProfanity("scamcoin"),
		contentfilter.WithSuspiciousDomains("evil.example"),
	)

	assert.False(t, filter.Check("buy scamcoin today").Valid)
	assert.False(t, filter.Check("visit evil.example/offer").Valid)
	// The defaults were replaced.
	assert.True(t, filter.Check("bastard").Valid)
	assert.True(t, filter.Check("bit.ly/x").Valid)
}

func TestWithMaxLength(t *testing.T) {
	t.Parallel()

	filter := contentfilter.New(contentfilter.WithMaxLength(5))

	res := filter.Check("ünlimited")
	assert.Equal(t, "ünlim", res.Sanitized)
}

func TestLoadRules(t *testing.T) {
	t.Parallel()

	doc := `
profanity:
  - scamcoin
suspicious_domains:
  - evil.example
`
	rules, err := contentfilter.LoadRules(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"scamcoin"}, rules.Profanity)
	assert.Equal(t, []string{"evil.example"}, rules.SuspiciousDomains)

	filter := contentfilter.New(contentfilter.WithRules(rules))
	assert.False(t, filter.Check("scamcoin").Valid)
}

func TestLoadRulesInvalid(t *testing.T) {
	t.Parallel()

	_, err := contentfilter.LoadRules(strings.NewReader("[not: a map"))
	assert.ErrorIs(t, err, contentfilter.ErrInvalidRules)
}
