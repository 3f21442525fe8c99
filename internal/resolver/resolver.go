package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pitlane/internal/clock"
	"pitlane/internal/debrid"
	"pitlane/internal/logging"
)

// API is the subset of the debrid client the resolver drives.
type API interface {
	ListTorrents(ctx context.Context, page, limit int) ([]debrid.Torrent, error)
	AddMagnet(ctx context.Context, magnet string) (*debrid.AddMagnetResponse, error)
	SelectFiles(ctx context.Context, id string) error
	TorrentInfo(ctx context.Context, id string) (*debrid.Torrent, error)
	Unrestrict(ctx context.Context, link string) (*debrid.UnrestrictedLink, error)
}

// ProgressRecorder persists job progress for a reference.
type ProgressRecorder interface {
	RecordProgress(ctx context.Context, reference, jobID, status string, at time.Time) error
}

// StatusSubmitted is recorded right after a magnet is accepted.
const StatusSubmitted = "submitted"

const (
	jobPageSize = 100
	maxJobPages = 50
)

// Outcome is the terminal state of one Resolve call.
type Outcome int

const (
	// OutcomeReady means the job finished and streams were unrestricted.
	OutcomeReady Outcome = iota
	// OutcomeDeferred means the job is still running after every poll.
	OutcomeDeferred
	// OutcomeFailed means the service reported a terminal failure.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReady:
		return "ready"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Stream is a direct playable URL produced from a finished job.
type Stream struct {
	URL      string
	Filename string
	Size     int64
	Source   string
}

// Result describes how a reference resolved.
type Result struct {
	Outcome  Outcome
	JobID    string
	Status   string
	Progress float64
	Streams  []Stream
	// Attempts counts status polls, including the listing that found an
	// already finished job.
	Attempts int
	Reused   bool
}

// Options controls polling.
type Options struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	SourceLabel     string
}

// Resolver drives references through the debrid service.
type Resolver struct {
	api      API
	recorder ProgressRecorder
	clock    clock.Clock
	logger   *slog.Logger
	opts     Options
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the clock used for poll waits and check times.
func WithClock(c clock.Clock) Option {
	return func(r *Resolver) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver. A nil recorder discards progress.
func New(api API, recorder ProgressRecorder, opts Options, options ...Option) *Resolver {
	if opts.MaxPollAttempts <= 0 {
		opts.MaxPollAttempts = 1
	}
	r := &Resolver{
		api:      api,
		recorder: recorder,
		clock:    clock.Real(),
		logger:   logging.NewNop(),
		opts:     opts,
	}
	for _, option := range options {
		option(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "resolver")
	return r
}

// Resolve resolves reference. jobID is the job a previous pass recorded for
// the reference, if any; it is looked up before the account's job list.
// API and recorder failures are returned as errors; service-side failure
// states come back as OutcomeFailed.
func (r *Resolver) Resolve(ctx context.Context, reference, jobID string) (*Result, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("resolve: empty reference")
	}
	jobID = strings.TrimSpace(jobID)
	logger := logging.WithContext(ctx, r.logger)

	existing, err := r.findExisting(ctx, reference, jobID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if existing != nil {
		jobID = existing.ID
		result.Reused = true
		logger.Debug("reusing existing job",
			logging.String("job_id", jobID),
			logging.String("job_status", string(existing.Status)),
		)
		if existing.Status.IsFinished() && len(existing.Links) > 0 {
			result.Attempts = 1
			if err := r.record(ctx, reference, existing); err != nil {
				return nil, err
			}
			return r.finish(ctx, logger, result, existing), nil
		}
	} else {
		if jobID != "" {
			logger.Info("recorded job no longer exists; resubmitting", logging.String("job_id", jobID))
		}
		added, err := r.api.AddMagnet(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("submit reference: %w", err)
		}
		jobID = added.ID
		if err := r.api.SelectFiles(ctx, jobID); err != nil {
			return nil, fmt.Errorf("select files: %w", err)
		}
		if err := r.recordStatus(ctx, reference, jobID, StatusSubmitted); err != nil {
			return nil, err
		}
		logger.Info("reference submitted", logging.String("job_id", jobID))
	}
	result.JobID = jobID

	for attempt := 1; attempt <= r.opts.MaxPollAttempts; attempt++ {
		if attempt > 1 {
			if err := clock.Sleep(ctx, r.clock, r.opts.PollInterval); err != nil {
				return nil, err
			}
		}
		result.Attempts = attempt

		info, err := r.api.TorrentInfo(ctx, jobID)
		if err != nil {
			if debrid.IsRetriable(err) {
				logging.WarnWithContext(logger, "job poll failed; retrying", "resolver_poll_retry",
					logging.String("job_id", jobID),
					logging.Int("attempt", attempt),
					logging.Error(err),
					logging.String(logging.FieldImpact, "one poll attempt spent"),
				)
				continue
			}
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}
		if err := r.record(ctx, reference, info); err != nil {
			return nil, err
		}
		result.Status = string(info.Status)
		result.Progress = info.Progress

		switch {
		case info.Status.IsFinished():
			return r.finish(ctx, logger, result, info), nil
		case info.Status.IsFailed():
			result.Outcome = OutcomeFailed
			logging.WarnWithContext(logger, "job failed at the debrid service", "resolver_job_failed",
				logging.String("job_id", jobID),
				logging.String("job_status", result.Status),
				logging.String(logging.FieldErrorHint, "reset the ledger entry once a healthy source exists"),
				logging.String(logging.FieldImpact, "post skipped until reset"),
			)
			return result, nil
		case info.Status == debrid.StatusWaitingFilesSelection:
			if err := r.api.SelectFiles(ctx, jobID); err != nil {
				return nil, fmt.Errorf("select files: %w", err)
			}
		}
	}

	result.Outcome = OutcomeDeferred
	logger.Info("job still in progress; deferring",
		logging.String("job_id", jobID),
		logging.String("job_status", result.Status),
		logging.Float64("progress", result.Progress),
		logging.Int("attempts", result.Attempts),
	)
	return result, nil
}

// findExisting returns the job already holding reference: the recorded
// jobID when the service still knows it, else a match by info-hash across
// the account's job pages.
func (r *Resolver) findExisting(ctx context.Context, reference, jobID string) (*debrid.Torrent, error) {
	hash := InfoHash(reference)
	if jobID != "" {
		job, err := r.api.TorrentInfo(ctx, jobID)
		if err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("look up job %s: %w", jobID, err)
		}
		if err == nil && (hash == "" || job.Hash == "" || job.MatchesHash(hash)) {
			return job, nil
		}
	}
	if hash == "" {
		return nil, nil
	}
	for page := 1; page <= maxJobPages; page++ {
		torrents, err := r.api.ListTorrents(ctx, page, jobPageSize)
		if err != nil {
			return nil, fmt.Errorf("list jobs page %d: %w", page, err)
		}
		for i := range torrents {
			if torrents[i].MatchesHash(hash) {
				return &torrents[i], nil
			}
		}
		if len(torrents) < jobPageSize {
			break
		}
	}
	return nil, nil
}

func isNotFound(err error) bool {
	var apiErr *debrid.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// finish unrestricts every link of a finished job. A link that fails to
// unrestrict is logged and skipped.
func (r *Resolver) finish(ctx context.Context, logger *slog.Logger, result *Result, job *debrid.Torrent) *Result {
	result.Outcome = OutcomeReady
	result.JobID = job.ID
	result.Status = string(job.Status)
	result.Progress = job.Progress
	for _, link := range job.Links {
		unrestricted, err := r.api.Unrestrict(ctx, link)
		if err != nil {
			logging.WarnWithContext(logger, "unrestrict failed; skipping link", "resolver_unrestrict_failed",
				logging.String("url", link),
				logging.Error(err),
				logging.String(logging.FieldImpact, "one file missing from this post"),
			)
			continue
		}
		if !IsVideoFile(unrestricted.Filename) {
			logger.Debug("skipping non-video file", logging.String("filename", unrestricted.Filename))
			continue
		}
		url := unrestricted.Download
		if url == "" {
			url = unrestricted.Link
		}
		result.Streams = append(result.Streams, Stream{
			URL:      url,
			Filename: unrestricted.Filename,
			Size:     unrestricted.Filesize,
			Source:   r.opts.SourceLabel,
		})
	}
	logger.Info("job ready",
		logging.String("job_id", job.ID),
		logging.Int("streams", len(result.Streams)),
		logging.Int("links", len(job.Links)),
	)
	return result
}

func (r *Resolver) record(ctx context.Context, reference string, job *debrid.Torrent) error {
	return r.recordStatus(ctx, reference, job.ID, string(job.Status))
}

func (r *Resolver) recordStatus(ctx context.Context, reference, jobID, status string) error {
	if r.recorder == nil {
		return nil
	}
	if err := r.recorder.RecordProgress(ctx, reference, jobID, status, r.clock.Now()); err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}
