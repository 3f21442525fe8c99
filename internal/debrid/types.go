package debrid

import "strings"

// Status is the lifecycle state Real-Debrid reports for a torrent.
type Status string

const (
	StatusMagnetError           Status = "magnet_error"
	StatusMagnetConversion      Status = "magnet_conversion"
	StatusWaitingFilesSelection Status = "waiting_files_selection"
	StatusQueued                Status = "queued"
	StatusDownloading           Status = "downloading"
	StatusDownloaded            Status = "downloaded"
	StatusError                 Status = "error"
	StatusVirus                 Status = "virus"
	StatusCompressing           Status = "compressing"
	StatusUploading             Status = "uploading"
	StatusDead                  Status = "dead"
)

// IsFinished reports whether links are ready to unrestrict.
func (s Status) IsFinished() bool {
	return s == StatusDownloaded
}

// IsFailed reports whether the torrent can never finish.
func (s Status) IsFailed() bool {
	switch s {
	case StatusError, StatusDead, StatusVirus, StatusMagnetError:
		return true
	}
	return false
}

// IsInProgress reports whether the torrent is still moving.
func (s Status) IsInProgress() bool {
	return s != "" && !s.IsFinished() && !s.IsFailed()
}

// Torrent is a torrent as listed by /torrents and /torrents/info.
type Torrent struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Hash     string   `json:"hash"`
	Bytes    int64    `json:"bytes"`
	Host     string   `json:"host"`
	Progress float64  `json:"progress"`
	Status   Status   `json:"status"`
	Added    string   `json:"added"`
	Ended    string   `json:"ended,omitempty"`
	Links    []string `json:"links"`
	Files    []File   `json:"files,omitempty"`
}

// MatchesHash reports whether the torrent carries the given info-hash.
func (t Torrent) MatchesHash(hash string) bool {
	return hash != "" && strings.EqualFold(t.Hash, hash)
}

// File is one file inside a torrent.
type File struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected int    `json:"selected"`
}

// AddMagnetResponse is returned by /torrents/addMagnet.
type AddMagnetResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

// UnrestrictedLink is a direct download for a hoster link.
type UnrestrictedLink struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mimeType"`
	Filesize   int64  `json:"filesize"`
	Link       string `json:"link"`
	Host       string `json:"host"`
	Download   string `json:"download"`
	Streamable int    `json:"streamable"`
}

// User is the account behind an API token.
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Type       string `json:"type"`
	Premium    int    `json:"premium"`
	Expiration string `json:"expiration"`
}

// IsPremium reports whether the account can unrestrict links.
func (u User) IsPremium() bool {
	return u.Type == "premium" && u.Premium > 0
}
