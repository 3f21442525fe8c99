package parser

import "strings"

// Quality is the video tier a post advertises.
type Quality string

const (
	QualityUnknown Quality = ""
	QualityFourK   Quality = "4K"
	QualityFullHD  Quality = "1080p"
)

// ParseQuality maps a tier name or one of its spellings ("2160p", "uhd")
// to a Quality, ignoring case.
func ParseQuality(value string) Quality {
	lowered := strings.ToLower(strings.TrimSpace(value))
	for _, tier := range qualityTiers {
		if lowered == strings.ToLower(string(tier.quality)) {
			return tier.quality
		}
		for _, term := range tier.terms {
			if lowered == term {
				return tier.quality
			}
		}
	}
	return QualityUnknown
}

var qualityTiers = []struct {
	quality Quality
	terms   []string
}{
	{QualityFourK, []string{"2160p", "4k", "uhd"}},
	{QualityFullHD, []string{"1080p", "fhd"}},
}

// ClassifyQuality returns the first tier whose vocabulary appears in title.
// 4K is checked first so a title mentioning both tiers is treated as 4K.
func ClassifyQuality(title string) Quality {
	lowered := strings.ToLower(title)
	for _, tier := range qualityTiers {
		for _, term := range tier.terms {
			if strings.Contains(lowered, term) {
				return tier.quality
			}
		}
	}
	return QualityUnknown
}
