package autopick

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTitle folds a display title for alphabetical ordering: diacritics
// stripped, case folded, leading English article removed.
func NormalizeTitle(title string) string {
	folded, _, err := transform.String(deaccent, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	for _, article := range []string{"the ", "an ", "a "} {
		if strings.HasPrefix(folded, article) {
			folded = strings.TrimSpace(strings.TrimPrefix(folded, article))
			break
		}
	}
	return folded
}
