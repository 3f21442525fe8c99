package parser

import (
	"regexp"
	"strconv"
	"strings"

	"pitlane/internal/textutil"
)

// EventRef identifies the weekend a post title names.
type EventRef struct {
	Name    string
	Round   int
	Country string
}

var (
	roundPattern = regexp.MustCompile(`(?i)\bR(\d{1,2})\b`)
	yearPattern  = regexp.MustCompile(`\b(20\d{2})\b`)
)

// ExtractEventFromTitle matches title against the season roster. An explicit
// "R<digits>" token overrides the roster's round.
func ExtractEventFromTitle(title string) (EventRef, bool) {
	folded := textutil.Fold(title)
	if folded == "" {
		return EventRef{}, false
	}
	for _, entry := range roster {
		if !entryMatches(entry, folded) {
			continue
		}
		ref := EventRef{Name: entry.Name, Round: entry.Round, Country: entry.Country}
		if round, ok := titleRound(title); ok {
			ref.Round = round
		}
		return ref, true
	}
	return EventRef{}, false
}

func entryMatches(entry RosterEntry, folded string) bool {
	if strings.Contains(folded, textutil.Fold(entry.Name)) {
		return true
	}
	for _, alias := range entry.Aliases {
		if strings.Contains(folded, textutil.Fold(alias)) {
			return true
		}
	}
	return false
}

func titleRound(title string) (int, bool) {
	m := roundPattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// TitleYear returns the first four-digit 20xx year in title.
func TitleYear(title string) (int, bool) {
	m := yearPattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// MatchesVocabulary reports whether title contains any vocabulary term,
// ignoring case and diacritics. An empty vocabulary matches everything.
func MatchesVocabulary(title string, vocabulary []string) bool {
	if len(vocabulary) == 0 {
		return true
	}
	folded := textutil.Fold(title)
	for _, term := range vocabulary {
		term = textutil.Fold(term)
		if term != "" && strings.Contains(folded, term) {
			return true
		}
	}
	return false
}
