package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Key normalizes a file stem into the identifier used for dataset lookup:
// lowercase ASCII with accents folded away and runs of punctuation or
// whitespace collapsed to single underscores. "Revenue by Country" and
// "revenue_by_country" both map to the same key, which is what plot function
// parameters are matched against.
func Key(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// Decompose, drop nonspacing marks (accents), recompose.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
