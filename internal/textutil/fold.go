package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics through NFKD decomposition, so "Amélie" becomes
// "Amelie" and ligatures such as "ﬁ" expand to "fi".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// TitleName capitalises each word of a person or character name.
func TitleName(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
