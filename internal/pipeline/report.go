package pipeline

import (
	"fmt"
	"time"
)

// PassReport summarizes one ingestion pass.
type PassReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	// Pages counts listing pages read; Fetched counts posts that passed
	// the vocabulary and lookback filters.
	Pages     int
	Fetched   int
	Groups    int
	Ignored   int
	Processed int
	Skipped   int
	Deferred  int
	Failed    int
	// CompletedEvents lists "Name (Rn) quality" for every ledger entry
	// marked fully processed during the pass.
	CompletedEvents []string
	StoppedEarly    bool
	StopReason      string
}

// Duration returns how long the pass ran.
func (r *PassReport) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *PassReport) tally(res *PostResult) {
	switch res.Outcome {
	case PostIgnored:
		r.Ignored++
	case PostSkipped:
		r.Skipped++
	case PostDeferred:
		r.Processed++
		r.Deferred++
	case PostFailed:
		r.Processed++
		r.Failed++
	case PostStored:
		r.Processed++
	case PostCompleted:
		r.Processed++
		r.CompletedEvents = append(r.CompletedEvents, fmt.Sprintf("%s (R%d) %s", res.EventName, res.Round, res.Quality))
	}
}

// PostOutcome is what processing did with one post.
type PostOutcome int

const (
	// PostIgnored means the post lacked an event, quality, sessions, or a
	// reference. Nothing was written.
	PostIgnored PostOutcome = iota
	// PostSkipped means the ledger said there was nothing to do.
	PostSkipped
	// PostDeferred means the resolver job is still running.
	PostDeferred
	// PostFailed means the resolver reported a terminal failure.
	PostFailed
	// PostStored means links were saved but the event is not complete at
	// this quality yet.
	PostStored
	// PostCompleted means the ledger entry was marked fully processed.
	PostCompleted
)

func (o PostOutcome) String() string {
	switch o {
	case PostIgnored:
		return "ignored"
	case PostSkipped:
		return "skipped"
	case PostDeferred:
		return "deferred"
	case PostFailed:
		return "failed"
	case PostStored:
		return "stored"
	case PostCompleted:
		return "completed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// PostResult describes how one post was handled.
type PostResult struct {
	Outcome    PostOutcome
	Reason     string
	EventName  string
	Round      int
	Quality    string
	LinksAdded int
}
