package slug

import (
	"crypto/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Option configures Make.
type Option func(*config)

type config struct {
	maxLength    int
	separator    string
	suffixLength int
}

// MaxLength caps the slug at n runes, suffix included. Zero means no limit.
func MaxLength(n int) Option {
	return func(c *config) { c.maxLength = n }
}

// Separator replaces the default "-".
func Separator(s string) Option {
	return func(c *config) {
		if s != "" {
			c.separator = s
		}
	}
}

// WithSuffix appends n random lowercase alphanumerics, e.g. "acme-x7g3k2".
func WithSuffix(n int) Option {
	return func(c *config) { c.suffixLength = n }
}

// Letters that do not decompose under NFD.
var fold = map[rune]string{
	'ł': "l", 'ø': "o", 'ß': "ss", 'æ': "ae", 'œ': "oe", 'đ': "d", 'ı': "i",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make converts s into a lowercase ASCII slug. Accents are stripped, runs of
// anything else collapse into one separator.
func Make(s string, opts ...Option) string {
	cfg := &config{separator: "-"}
	for _, opt := range opts {
		opt(cfg)
	}

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}

	limit := cfg.maxLength
	if cfg.suffixLength > 0 && limit > 0 {
		limit -= cfg.suffixLength + len(cfg.separator)
		if limit < 0 {
			limit = 0
		}
	}

	var b strings.Builder
	pendingSep := false
	write := func(part string) bool {
		if pendingSep && b.Len() > 0 {
			if limit > 0 && b.Len()+len(cfg.separator)+len(part) > limit {
				return false
			}
			b.WriteString(cfg.separator)
		}
		pendingSep = false
		if limit > 0 && b.Len()+len(part) > limit {
			return false
		}
		b.WriteString(part)
		return true
	}

	for _, r := range strings.ToLower(s) {
		var part string
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			part = string(r)
		case fold[r] != "":
			part = fold[r]
		default:
			pendingSep = true
			continue
		}
		if !write(part) {
			break
		}
	}

	out := b.String()
	if cfg.suffixLength > 0 {
		suffix := randomSuffix(cfg.suffixLength)
		if out == "" || (cfg.maxLength > 0 && limit == 0) {
			return suffix
		}
		out += cfg.separator + suffix
	}
	return out
}

func randomSuffix(n int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
