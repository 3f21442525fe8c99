package textutil

import (
	"regexp"
	"strings"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	emphasisPattern = regexp.MustCompile(`\*\*|__|~~|` + "`")
	listMarker      = regexp.MustCompile(`^\s*(?:[-*+•]|\d+[.)])\s+`)
)

// entityReplacer covers the entities that appear in feed bodies. Numeric
// forms beyond these are left untouched.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#x27;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
	"&#160;", " ",
	"&#x200B;", "",
	"&#8203;", "",
)

// DecodeEntities replaces the fixed entity set in value.
func DecodeEntities(value string) string {
	if !strings.Contains(value, "&") {
		return value
	}
	return entityReplacer.Replace(value)
}

// StripMarkup removes HTML tags, inline markdown emphasis and a leading list
// marker from value.
func StripMarkup(value string) string {
	value = tagPattern.ReplaceAllString(value, "")
	value = emphasisPattern.ReplaceAllString(value, "")
	value = listMarker.ReplaceAllString(value, "")
	return strings.TrimSpace(value)
}
