package pipeline

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a headline into its comparison key: the input is
// lowercased and every rune that is not a lowercase ASCII letter, digit, or
// whitespace is removed. Whitespace is kept exactly as produced, never
// collapsed, so identical headlines always yield identical keys.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
