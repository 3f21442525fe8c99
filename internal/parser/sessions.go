package parser

import (
	"regexp"
	"strings"

	"pitlane/internal/sessions"
	"pitlane/internal/textutil"
)

const (
	minSectionLength = 20
	minLineLength    = 10
)

// SessionInfo is one session line recovered from a post body.
type SessionInfo struct {
	Category sessions.Category
	RawName  string
	Date     string
	Duration string
}

var (
	labelPattern = regexp.MustCompile(`(?i)\b(?:contains|contents)\s*:`)
	// Bounded by a blank line or a line starting with a capital letter.
	sectionByLine = regexp.MustCompile(`(?s)(?i:\bcontains|\bcontents)\s*:(.*?)(?:\n[ \t]*\n|\n[A-Z])`)
	// Bounded by a magnet token or the next known label, or the end of text.
	sectionByLabel = regexp.MustCompile(`(?s)(?i:\bcontains|\bcontents)\s*:(.*?)(?:(?i:magnet:)|(?i:quality|container|video|audio)\s*:|\z)`)
	breakPattern   = regexp.MustCompile(`(?i)<br\s*/?>|</li>|</p>`)
	sessionLine    = regexp.MustCompile(`^([^()]+?)\s*\(([^()]+)\)\s*\(([^()]+)\)$`)
)

var nonSessionLabels = []string{"quality", "container", "video", "audio", "contains", "contents"}

// ExtractSessions returns the sessions listed in the body's contents
// section in order of appearance. Duplicate categories are kept.
func ExtractSessions(text string) []SessionInfo {
	section := contentsSection(text)
	if section == "" {
		return nil
	}
	var out []SessionInfo
	for _, line := range candidateLines(section) {
		info, ok := parseSessionLine(line)
		if ok {
			out = append(out, info)
		}
	}
	return out
}

func contentsSection(text string) string {
	text = normalizeBody(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if m := sectionByLine.FindStringSubmatch(text); m != nil && len(strings.TrimSpace(m[1])) >= minSectionLength {
		return m[1]
	}
	if m := sectionByLabel.FindStringSubmatch(text); m != nil && len(strings.TrimSpace(m[1])) >= minSectionLength {
		return m[1]
	}
	items := listAfterLabel(text)
	joined := strings.Join(items, "\n")
	if len(strings.TrimSpace(joined)) >= minSectionLength {
		return joined
	}
	return ""
}

func candidateLines(section string) []string {
	section = breakPattern.ReplaceAllString(section, "\n")
	var out []string
	for _, raw := range strings.Split(section, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isLabelLine(strings.ToLower(textutil.StripMarkup(line))) {
			continue
		}
		if !strings.Contains(line, "(") || len(line) <= minLineLength {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isLabelLine(lowered string) bool {
	if strings.Contains(lowered, "magnet:") {
		return true
	}
	for _, label := range nonSessionLabels {
		if strings.HasPrefix(lowered, label) && strings.Contains(lowered, ":") {
			return true
		}
	}
	return false
}

func parseSessionLine(line string) (SessionInfo, bool) {
	cleaned := textutil.CollapseSpaces(textutil.DecodeEntities(textutil.StripMarkup(line)))
	m := sessionLine.FindStringSubmatch(cleaned)
	if m == nil {
		return SessionInfo{}, false
	}
	name := strings.TrimSpace(m[1])
	category, ok := sessions.Classify(name)
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{
		Category: category,
		RawName:  name,
		Date:     strings.TrimSpace(m[2]),
		Duration: strings.TrimSpace(m[3]),
	}, true
}
