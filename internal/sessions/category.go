package sessions

// Category is the canonical name of a weekend session.
type Category string

const (
	PracticeOne      Category = "PracticeOne"
	PracticeTwo      Category = "PracticeTwo"
	PracticeThree    Category = "PracticeThree"
	SprintQualifying Category = "SprintQualifying"
	Sprint           Category = "Sprint"
	Qualifying       Category = "Qualifying"
	Race             Category = "Race"
)

var allCategories = []Category{
	PracticeOne,
	PracticeTwo,
	PracticeThree,
	SprintQualifying,
	Sprint,
	Qualifying,
	Race,
}

// Categories returns every category in weekend order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory reports whether value is exactly a canonical category name.
func ParseCategory(value string) (Category, bool) {
	for _, c := range allCategories {
		if string(c) == value {
			return c, true
		}
	}
	return "", false
}

// Label returns a human readable label for c.
func (c Category) Label() string {
	switch c {
	case PracticeOne:
		return "Practice 1"
	case PracticeTwo:
		return "Practice 2"
	case PracticeThree:
		return "Practice 3"
	case SprintQualifying:
		return "Sprint Qualifying"
	case Sprint:
		return "Sprint"
	case Qualifying:
		return "Qualifying"
	case Race:
		return "Race"
	default:
		return string(c)
	}
}
