package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"pitlane/internal/clock"
	"pitlane/internal/feed"
	"pitlane/internal/logging"
	"pitlane/internal/notifications"
	"pitlane/internal/parser"
	"pitlane/internal/resolver"
	"pitlane/internal/store"
)

var (
	// ErrPassInProgress is returned when another pass holds the lock.
	ErrPassInProgress = errors.New("pipeline: pass already in progress")
	// ErrAuthExpired is returned when the feed rejects a refreshed
	// credential.
	ErrAuthExpired = errors.New("pipeline: feed authorization expired")
)

// Feed is the listing the orchestrator pages through.
type Feed interface {
	ListPage(ctx context.Context, after string) (*feed.Page, error)
	RefreshCredentials(ctx context.Context) error
}

// Resolver turns a download reference into playable streams. jobID is the
// job already recorded for the reference, or empty.
type Resolver interface {
	Resolve(ctx context.Context, reference, jobID string) (*resolver.Result, error)
}

// Orchestrator runs ingestion passes.
type Orchestrator struct {
	feed     Feed
	resolver Resolver
	store    *store.Store
	notifier notifications.Service
	clock    clock.Clock
	logger   *slog.Logger
	opts     Options

	mu sync.Mutex
}

// New constructs an Orchestrator.
func New(f Feed, r Resolver, st *store.Store, opts Options, options ...Option) *Orchestrator {
	if opts.MaxEmptyPages <= 0 {
		opts.MaxEmptyPages = defaultMaxEmptyPages
	}
	o := &Orchestrator{
		feed:     f,
		resolver: r,
		store:    st,
		notifier: notifications.NewService(nil),
		clock:    clock.Real(),
		logger:   logging.NewNop(),
		opts:     opts,
	}
	for _, option := range options {
		option(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "pipeline")
	return o
}

// Run executes one pass. The report is returned alongside any error so
// callers can log partial progress.
func (o *Orchestrator) Run(ctx context.Context) (*PassReport, error) {
	if !o.mu.TryLock() {
		return nil, ErrPassInProgress
	}
	defer o.mu.Unlock()

	if o.opts.LockPath != "" {
		lock := flock.New(o.opts.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire pass lock: %w", err)
		}
		if !ok {
			return nil, ErrPassInProgress
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				o.logger.Warn("failed to release pass lock", logging.Error(err))
			}
		}()
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)
	report := &PassReport{RunID: runID, StartedAt: o.clock.Now()}
	logger.Info("ingestion pass started")

	err := o.run(ctx, logger, report)
	report.FinishedAt = o.clock.Now()
	if err != nil {
		logging.ErrorWithContext(logger, "ingestion pass aborted", "pass_aborted",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, abortHint(err)),
		)
		if nerr := o.notifier.NotifyError(ctx, err, "ingestion pass"); nerr != nil {
			logger.Debug("error notification failed", logging.Error(nerr))
		}
		return report, err
	}

	logger.Info("ingestion pass finished",
		logging.Int("pages", report.Pages),
		logging.Int("fetched", report.Fetched),
		logging.Int("groups", report.Groups),
		logging.Int("processed", report.Processed),
		logging.Int("skipped", report.Skipped),
		logging.Int("deferred", report.Deferred),
		logging.Int("failed", report.Failed),
		logging.Int("completed", len(report.CompletedEvents)),
		logging.Bool("stopped_early", report.StoppedEarly),
		logging.Duration("duration", report.Duration()),
	)
	if report.Processed > 0 {
		if nerr := o.notifier.NotifyPassCompleted(ctx, report.Processed, len(report.CompletedEvents), report.Failed, report.Duration()); nerr != nil {
			logger.Debug("pass notification failed", logging.Error(nerr))
		}
	}
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, report *PassReport) error {
	posts, err := o.fetch(ctx, logger, report)
	if err != nil {
		return err
	}

	groups, ignored := groupPosts(posts)
	report.Groups = len(groups)
	report.Ignored += ignored

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		complete, err := o.store.IsEventComplete(ctx, g.Name, g.Round, g.Year, o.opts.Qualities)
		if err != nil {
			return fmt.Errorf("check completeness of %s R%d: %w", g.Name, g.Round, err)
		}
		if complete {
			report.StoppedEarly = true
			report.StopReason = fmt.Sprintf("%s R%d already complete", g.Name, g.Round)
			logger.Info("newest pending group already complete; stopping",
				logging.String(logging.FieldEvent, g.Name),
				logging.Int(logging.FieldRound, g.Round),
				logging.Int("year", g.Year),
			)
			return nil
		}

		for _, post := range g.Posts {
			res, err := o.ProcessPost(ctx, post)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				report.Processed++
				report.Failed++
				logging.WarnWithContext(logger, "post processing failed", "post_failed",
					logging.String(logging.FieldPostID, post.ID),
					logging.String(logging.FieldEvent, g.Name),
					logging.Int(logging.FieldRound, g.Round),
					logging.Error(err),
					logging.String(logging.FieldImpact, "post retried on the next pass"),
				)
				continue
			}
			report.tally(res)
		}
	}
	return nil
}

func abortHint(err error) string {
	switch {
	case errors.Is(err, ErrAuthExpired):
		return "check the feed client id, secret, username, and password"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "pass was interrupted; the next pass resumes from the ledger"
	default:
		return "check the database file and its directory permissions"
	}
}

// group is the set of posts for one (name, round).
type group struct {
	Name  string
	Round int
	Year  int
	Posts []feed.Post
}

// groupPosts buckets posts by event and orders the buckets by round
// descending. Feed order is preserved within a bucket; the first post
// decides the season year. Posts naming no roster event are counted and
// dropped.
func groupPosts(posts []feed.Post) ([]group, int) {
	type key struct {
		name  string
		round int
	}
	index := make(map[key]int)
	var (
		groups  []group
		ignored int
	)
	for _, post := range posts {
		ref, ok := parser.ExtractEventFromTitle(post.Title)
		if !ok {
			ignored++
			continue
		}
		k := key{ref.Name, ref.Round}
		i, seen := index[k]
		if !seen {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{Name: ref.Name, Round: ref.Round, Year: postYear(post)})
		}
		groups[i].Posts = append(groups[i].Posts, post)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Round != groups[b].Round {
			return groups[a].Round > groups[b].Round
		}
		return groups[a].Year > groups[b].Year
	})
	return groups, ignored
}

// postYear is the season a post belongs to: the year in its title, or the
// year it was created.
func postYear(post feed.Post) int {
	if year, ok := parser.TitleYear(post.Title); ok {
		return year
	}
	return post.CreatedUTC.UTC().Year()
}
