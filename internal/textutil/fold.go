package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Fold returns a caseless, diacritic-free form of value suitable for
// substring matching. Whitespace runs collapse to single spaces.
func Fold(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, value)
	if err != nil {
		stripped = value
	}
	return CollapseSpaces(folder.String(stripped))
}

// CollapseSpaces trims value and replaces each whitespace run with one space.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
