package parser

import (
	"regexp"
	"strings"

	"pitlane/internal/textutil"
)

var (
	hrefMagnet  = regexp.MustCompile(`(?i)href\s*=\s*["'](magnet:\?[^"']+)["']`)
	plainMagnet = regexp.MustCompile(`(?i)magnet:\?xt=urn:btih:[^\s"'<>\])]+`)
)

// ExtractDownloadReference returns the first magnet link in text. Anchor
// href attributes win over bare links in the text.
func ExtractDownloadReference(text string) (string, bool) {
	body := normalizeBody(text)
	if m := hrefMagnet.FindStringSubmatch(body); m != nil {
		return cleanReference(m[1])
	}
	if m := plainMagnet.FindString(body); m != "" {
		return cleanReference(m)
	}
	// Markdown anchors only exist as hrefs once rendered.
	if hrefs := magnetHrefs(body); len(hrefs) > 0 {
		return cleanReference(hrefs[0])
	}
	return "", false
}

func cleanReference(ref string) (string, bool) {
	ref = textutil.DecodeEntities(strings.TrimSpace(ref))
	ref = strings.TrimRight(ref, ".,;*_")
	if !strings.HasPrefix(strings.ToLower(ref), "magnet:?") {
		return "", false
	}
	return ref, true
}
