package textutil

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

const defaultNameLimit = 120

// NameNormalizer cleans free-text product names before they reach the ticket.
// Markup is stripped, the result is NFC normalised, control characters are dropped and
// runs of whitespace collapse to a single space.
type NameNormalizer struct {
	policy *bluemonday.Policy
	limit  int
}

// NameOption customises a NameNormalizer.
type NameOption func(*NameNormalizer)

// WithNameLimit caps the normalised name at limit runes. Non-positive values keep the default.
func WithNameLimit(limit int) NameOption {
	return func(n *NameNormalizer) {
		if limit > 0 {
			n.limit = limit
		}
	}
}

// NewNameNormalizer builds a normaliser backed by a strict markup policy.
func NewNameNormalizer(opts ...NameOption) *NameNormalizer {
	n := &NameNormalizer{
		policy: bluemonday.StrictPolicy(),
		limit:  defaultNameLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Normalize returns the cleaned form of name. A nil receiver uses the defaults.
func (n *NameNormalizer) Normalize(name string) string {
	if n == nil {
		n = NewNameNormalizer()
	}
	if name == "" {
		return ""
	}

	visible := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	stripped := html.UnescapeString(n.policy.Sanitize(visible))
	collapsed := strings.Join(strings.Fields(norm.NFC.String(stripped)), " ")

	if utf8.RuneCountInString(collapsed) <= n.limit {
		return collapsed
	}
	runes := []rune(collapsed)
	return strings.TrimRightFunc(string(runes[:n.limit]), unicode.IsSpace)
}
