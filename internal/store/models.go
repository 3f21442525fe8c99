package store

import "time"

// Event is one race weekend identified by (Name, Round).
type Event struct {
	ID        int64
	Name      string
	Round     int
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session is one canonical session of an event. Name holds the canonical
// category; DisplayName keeps the text the post used.
type Session struct {
	ID          int64
	EventID     int64
	Name        string
	DisplayName string
	Date        string
	Duration    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StreamLink is a playable URL for a session at one quality.
type StreamLink struct {
	ID        int64
	SessionID int64
	Quality   string
	URL       string
	Filename  string
	Size      int64
	Source    string
	CreatedAt time.Time
}

// LedgerEntry records the processing state of one (post, quality) pair.
type LedgerEntry struct {
	PostID         string
	Quality        string
	PostURL        string
	Title          string
	EventName      string
	EventRound     int
	CreatedUTC     time.Time
	ProcessedAt    time.Time
	FullyProcessed bool
	Reference      string
	JobID          string
	JobStatus      string
	JobLastChecked *time.Time
}

// SessionGraph is a session with its stream links.
type SessionGraph struct {
	Session
	Links []StreamLink
}

// EventGraph is an event with its sessions and their links.
type EventGraph struct {
	Event
	Sessions []SessionGraph
}

// EventSummary is an event with aggregate counts for listings.
type EventSummary struct {
	Event
	SessionCount int
	LinkCount    int
}

// QualityStatus summarizes the ledger for one quality of an event.
type QualityStatus struct {
	Quality        string
	Posts          int
	FullyProcessed int
	LatestPost     time.Time
	JobStatus      string
}

// Completion summarizes an event's ledger across qualities.
type Completion struct {
	EventName  string
	EventRound int
	Qualities  []QualityStatus
}

// Complete reports whether every quality in qualities has a fully
// processed post.
func (c Completion) Complete(qualities []string) bool {
	if len(qualities) == 0 {
		return false
	}
	done := make(map[string]bool, len(c.Qualities))
	for _, q := range c.Qualities {
		if q.FullyProcessed > 0 {
			done[q.Quality] = true
		}
	}
	for _, q := range qualities {
		if !done[q] {
			return false
		}
	}
	return true
}

// Health summarizes table sizes and resolver backlog.
type Health struct {
	Path           string
	SchemaVersion  int
	Events         int
	Sessions       int
	StreamLinks    int
	LedgerEntries  int
	FullyProcessed int
	PendingJobs    int
}
