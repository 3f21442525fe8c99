package resolver

import (
	"encoding/base32"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
)

var btihPattern = regexp.MustCompile(`(?i)urn:btih:([a-z0-9]+)`)

// InfoHash returns the lowercase hex info-hash of a magnet reference, or ""
// when the reference carries none. Base32 hashes are converted to hex.
func InfoHash(magnet string) string {
	match := btihPattern.FindStringSubmatch(magnet)
	if match == nil {
		return ""
	}
	hash := match[1]
	switch len(hash) {
	case 40:
		return strings.ToLower(hash)
	case 32:
		raw, err := base32.StdEncoding.DecodeString(strings.ToUpper(hash))
		if err != nil {
			return ""
		}
		return hex.EncodeToString(raw)
	default:
		return ""
	}
}

var videoExtensions = map[string]bool{
	".mkv":  true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".m4v":  true,
	".ts":   true,
	".webm": true,
}

// IsVideoFile reports whether name has a playable video extension.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(path.Ext(name))]
}
