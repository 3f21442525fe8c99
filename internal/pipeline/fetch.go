package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pitlane/internal/clock"
	"pitlane/internal/feed"
	"pitlane/internal/logging"
	"pitlane/internal/parser"
)

// fetch pages through the feed and returns the posts matching the
// vocabulary inside the lookback window, newest first. It stops after
// MaxEmptyPages consecutive pages without a match, at the end of the
// cursor, or at the first post older than the lookback boundary. A page
// that keeps failing ends the fetch with what was collected.
func (o *Orchestrator) fetch(ctx context.Context, logger *slog.Logger, report *PassReport) ([]feed.Post, error) {
	var cutoff time.Time
	if o.opts.Lookback > 0 {
		cutoff = o.clock.Now().Add(-o.opts.Lookback)
	}

	var (
		posts  []feed.Post
		after  string
		empty  int
		reason string
	)
	for page := 0; ; page++ {
		if page > 0 {
			if err := clock.Sleep(ctx, o.clock, o.opts.PageDelay); err != nil {
				return nil, err
			}
		}

		listing, err := o.fetchPage(ctx, logger, after)
		if err != nil {
			if errors.Is(err, ErrAuthExpired) || ctx.Err() != nil {
				return nil, err
			}
			logging.WarnWithContext(logger, "feed page unavailable; ending fetch", "feed_page_failed",
				logging.String("cursor", after),
				logging.Int("page", page+1),
				logging.Error(err),
				logging.String(logging.FieldImpact, "older posts wait for the next pass"),
			)
			reason = "page failed"
			break
		}
		report.Pages++

		matched := 0
		crossed := false
		for _, post := range listing.Posts {
			if !cutoff.IsZero() && post.CreatedUTC.Before(cutoff) {
				crossed = true
				break
			}
			if !parser.MatchesVocabulary(post.Title, o.opts.Vocabulary) {
				continue
			}
			matched++
			posts = append(posts, post)
		}
		logger.Debug("feed page read",
			logging.Int("page", page+1),
			logging.Int("posts", len(listing.Posts)),
			logging.Int("matched", matched),
		)

		if crossed {
			reason = "lookback boundary"
			break
		}
		if matched == 0 {
			empty++
			if empty >= o.opts.MaxEmptyPages {
				reason = "empty pages"
				break
			}
		} else {
			empty = 0
		}
		if listing.After == "" {
			reason = "end of feed"
			break
		}
		after = listing.After
	}

	report.Fetched = len(posts)
	logger.Info("feed fetch finished",
		logging.Int("pages", report.Pages),
		logging.Int("posts", len(posts)),
		logging.String("reason", reason),
	)
	return posts, nil
}

// fetchPage reads one page. Retriable errors back off exponentially from
// RetryBackoff up to FetchRetries times. An unauthorized response refreshes
// the credential once; a second one is ErrAuthExpired.
func (o *Orchestrator) fetchPage(ctx context.Context, logger *slog.Logger, after string) (*feed.Page, error) {
	refreshed := false
	retries := 0
	for {
		page, err := o.feed.ListPage(ctx, after)
		if err == nil {
			return page, nil
		}

		if errors.Is(err, feed.ErrUnauthorized) {
			if refreshed {
				return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
			}
			refreshed = true
			logger.Info("feed credential rejected; refreshing")
			if rerr := o.feed.RefreshCredentials(ctx); rerr != nil {
				return nil, fmt.Errorf("%w: refresh: %v", ErrAuthExpired, rerr)
			}
			continue
		}

		if !feed.IsRetriable(err) || retries >= o.opts.FetchRetries {
			return nil, err
		}
		retries++
		backoff := o.opts.RetryBackoff << (retries - 1)
		logging.WarnWithContext(logger, "feed page failed; retrying", "feed_page_retry",
			logging.String("cursor", after),
			logging.Int("attempt", retries),
			logging.Duration("backoff", backoff),
			logging.Error(err),
			logging.String(logging.FieldImpact, "pass slowed by the retry"),
		)
		if err := clock.Sleep(ctx, o.clock, backoff); err != nil {
			return nil, err
		}
	}
}
