package nutrition

import (
	"strings"
	"unicode"
)

// NormalizeName lowercases s, strips punctuation and collapses whitespace. It is the dedup key
// for ingredients and recipes.
func NormalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeQuery is the coalescing key for provider queries.
func NormalizeQuery(q string) string {
	return NormalizeName(q)
}
