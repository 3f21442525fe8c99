package sessions

import (
	"path/filepath"
	"regexp"
	"strings"

	"pitlane/internal/textutil"
)

// Rule maps folded session names to a category.
type Rule struct {
	Category Category
	Match    func(folded string) bool
}

// blocklist holds programming that airs around sessions but is not one.
var blocklist = []string{
	"pre-race",
	"pre race",
	"post-race",
	"post race",
	"show",
	"build-up",
	"build up",
	"buildup",
	"highlights",
	"press conference",
	"ted's",
	"teds",
	"paddock",
	"grid",
	"analysis",
	"warm up",
	"warm-up",
	"notebook",
	"chequered flag",
	"weekend warm",
}

var rules = []Rule{
	{PracticeOne, containsAny("practice one", "practice 1", "fp1", "first practice")},
	{PracticeTwo, containsAny("practice two", "practice 2", "fp2", "second practice")},
	{PracticeThree, containsAny("practice three", "practice 3", "fp3", "third practice")},
	{SprintQualifying, func(s string) bool {
		return strings.Contains(s, "sprint") && (strings.Contains(s, "qualifying") || strings.Contains(s, "shootout"))
	}},
	{Sprint, func(s string) bool {
		return strings.Contains(s, "sprint") && !strings.Contains(s, "qualifying") && !strings.Contains(s, "race")
	}},
	{Qualifying, func(s string) bool {
		return strings.Contains(s, "qualifying") && !strings.Contains(s, "sprint")
	}},
	{Race, func(s string) bool {
		return strings.Contains(s, "race") && !strings.Contains(s, "sprint")
	}},
}

// Rules returns the ordered rule table. The first matching rule wins.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// IsBlocked reports whether name is non-session programming.
func IsBlocked(name string) bool {
	folded := textutil.Fold(name)
	for _, term := range blocklist {
		if strings.Contains(folded, term) {
			return true
		}
	}
	return false
}

// Classify maps a session name to its category. Blocklisted names and
// names that match no rule return false.
func Classify(name string) (Category, bool) {
	if c, ok := ParseCategory(strings.TrimSpace(name)); ok {
		return c, true
	}
	if IsBlocked(name) {
		return "", false
	}
	folded := textutil.Fold(name)
	if folded == "" {
		return "", false
	}
	for _, rule := range rules {
		if rule.Match(folded) {
			return rule.Category, true
		}
	}
	return "", false
}

var (
	filenameSeparators = strings.NewReplacer(".", " ", "_", " ", "-", " ")
	leadingIndex       = regexp.MustCompile(`^\d{1,3}\s+`)
)

// ClassifyFilename classifies a media filename such as
// "Formula1.2025.R12.British.Grand.Prix.Qualifying.1080p.mkv".
func ClassifyFilename(name string) (Category, bool) {
	base := filepath.Base(strings.TrimSpace(name))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = textutil.CollapseSpaces(filenameSeparators.Replace(base))
	base = leadingIndex.ReplaceAllString(base, "")
	return Classify(base)
}

func containsAny(terms ...string) func(string) bool {
	return func(s string) bool {
		for _, term := range terms {
			if strings.Contains(s, term) {
				return true
			}
		}
		return false
	}
}
