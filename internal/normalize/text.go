// Package normalize holds the locale-biased parsing policies of the
// pipeline: the best-effort numeric value normalizer and the PT/EN date
// normalizer that produces canonical month keys. Both are pure functions.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, trims and strips diacritics, so "Emissão" and "emissao"
// compare equal. Header matching and month-name lookup both go through it.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// ContainsFolded reports whether the folded haystack contains the folded
// needle as a substring.
func ContainsFolded(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
