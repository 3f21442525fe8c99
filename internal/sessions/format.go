package sessions

// Format identifies the weekend schedule.
type Format string

const (
	FormatConventional Format = "conventional"
	FormatSprint       Format = "sprint"
)

var required = map[Format][]Category{
	FormatConventional: {PracticeOne, PracticeTwo, PracticeThree, Qualifying, Race},
	FormatSprint:       {PracticeOne, SprintQualifying, Sprint, Qualifying, Race},
}

// CategoriesOf classifies names and returns the distinct categories found,
// in first-seen order.
func CategoriesOf(names []string) []Category {
	seen := make(map[Category]bool, len(names))
	out := make([]Category, 0, len(names))
	for _, name := range names {
		c, ok := Classify(name)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FormatOf detects the weekend format from the session names present. A
// weekend with both sprint sessions is a sprint weekend; anything else,
// including a partial list, is treated as conventional.
func FormatOf(names []string) Format {
	present := categorySet(names)
	if present[SprintQualifying] && present[Sprint] {
		return FormatSprint
	}
	return FormatConventional
}

// RequiredFor returns the categories a complete weekend of format f has.
func RequiredFor(f Format) []Category {
	req, ok := required[f]
	if !ok {
		req = required[FormatConventional]
	}
	out := make([]Category, len(req))
	copy(out, req)
	return out
}

// HasRequired reports whether names cover every category required by the
// detected format.
func HasRequired(names []string) bool {
	return len(Missing(names)) == 0
}

// Missing returns the required categories absent from names.
func Missing(names []string) []Category {
	present := categorySet(names)
	var missing []Category
	for _, c := range RequiredFor(FormatOf(names)) {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func categorySet(names []string) map[Category]bool {
	present := make(map[Category]bool, len(names))
	for _, c := range CategoriesOf(names) {
		present[c] = true
	}
	return present
}
