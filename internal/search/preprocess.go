package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics, so "Café Über" folds to
// "cafe uber" and accented queries match unaccented listings and vice
// versa. On a transform failure the lowercased original is returned.
//
// The transform chain is built per call: norm transformers carry internal
// state and are not safe to share between goroutines.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}
