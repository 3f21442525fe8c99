package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pitlane/internal/debrid"
	"pitlane/internal/feed"
	"pitlane/internal/logging"
	"pitlane/internal/parser"
	"pitlane/internal/resolver"
	"pitlane/internal/sessions"
	"pitlane/internal/store"
)

// extraction is everything processing needs from one post.
type extraction struct {
	event     parser.EventRef
	quality   string
	year      int
	sessions  []parser.SessionInfo
	reference string
}

// ProcessPost drives one post through extraction, rollover, the ledger
// skip policy, resolution, and persistence. A returned error means the post
// was abandoned mid-way and will be retried by a later pass.
func (o *Orchestrator) ProcessPost(ctx context.Context, post feed.Post) (*PostResult, error) {
	ctx = logging.WithPostID(ctx, post.ID)
	logger := logging.WithContext(ctx, o.logger)

	ex, reason := o.extract(post)
	if reason != "" {
		logger.Debug("post ignored", logging.String("reason", reason), logging.String("title", post.Title))
		return &PostResult{Outcome: PostIgnored, Reason: reason}, nil
	}
	logger = logger.With(
		logging.String(logging.FieldEvent, ex.event.Name),
		logging.Int(logging.FieldRound, ex.event.Round),
		logging.String(logging.FieldQuality, ex.quality),
	)
	result := &PostResult{EventName: ex.event.Name, Round: ex.event.Round, Quality: ex.quality}

	if err := o.rollover(ctx, logger, ex.event.Name, ex.year); err != nil {
		return nil, err
	}

	entry, err := o.store.LedgerEntry(ctx, post.ID, ex.quality)
	if err != nil {
		return nil, err
	}
	skip, err := o.skipReason(ctx, entry, ex.reference)
	if err != nil {
		return nil, err
	}
	if skip != "" {
		logger.Debug("post skipped", logging.String("reason", skip))
		result.Outcome = PostSkipped
		result.Reason = skip
		return result, nil
	}

	ledger := store.LedgerEntry{
		PostID:     post.ID,
		Quality:    ex.quality,
		PostURL:    post.Permalink,
		Title:      post.Title,
		EventName:  ex.event.Name,
		EventRound: ex.event.Round,
		CreatedUTC: post.CreatedUTC,
		Reference:  ex.reference,
	}
	if entry != nil && entry.Reference == ex.reference {
		ledger.JobID = entry.JobID
		ledger.JobStatus = entry.JobStatus
		ledger.JobLastChecked = entry.JobLastChecked
	}
	if err := o.store.UpsertLedger(ctx, ledger); err != nil {
		return nil, err
	}

	jobID, err := o.recordedJob(ctx, ledger)
	if err != nil {
		return nil, err
	}
	resolution, err := o.resolver.Resolve(ctx, ex.reference, jobID)
	if err != nil {
		return nil, fmt.Errorf("resolve reference: %w", err)
	}
	switch resolution.Outcome {
	case resolver.OutcomeDeferred:
		result.Outcome = PostDeferred
		result.Reason = "job " + resolution.Status
		return result, nil
	case resolver.OutcomeFailed:
		result.Outcome = PostFailed
		result.Reason = "job " + resolution.Status
		return result, nil
	}

	eventID, added, err := o.persist(ctx, logger, ex, resolution.Streams)
	if err != nil {
		return nil, err
	}
	result.LinksAdded = added

	complete, err := o.eventComplete(ctx, eventID, ex.quality)
	if err != nil {
		return nil, err
	}
	if !complete {
		result.Outcome = PostStored
		logger.Info("post stored; event incomplete at this quality",
			logging.Int("links_added", added),
			logging.Int("streams", len(resolution.Streams)),
		)
		return result, nil
	}

	if err := o.store.MarkFullyProcessed(ctx, post.ID, ex.quality); err != nil {
		return nil, err
	}
	result.Outcome = PostCompleted
	logger.Info("event complete at this quality", logging.Int("links_added", added))
	if err := o.notifier.NotifyEventReady(ctx, ex.event.Name, ex.event.Round, ex.quality); err != nil {
		logger.Debug("ready notification failed", logging.Error(err))
	}
	return result, nil
}

// extract returns the post's parts, or the reason it has none worth
// processing.
func (o *Orchestrator) extract(post feed.Post) (extraction, string) {
	var ex extraction
	ref, ok := parser.ExtractEventFromTitle(post.Title)
	if !ok {
		return ex, "no event in title"
	}
	quality := string(parser.ClassifyQuality(post.Title))
	if quality == "" {
		return ex, "unknown quality"
	}
	if !o.tracksQuality(quality) {
		return ex, "untracked quality " + quality
	}

	found := parser.ExtractSessions(post.Text())
	if len(found) == 0 && post.BodyHTML != "" {
		found = parser.ExtractSessions(post.Body)
	}
	if len(found) == 0 {
		return ex, "no sessions"
	}
	reference, ok := parser.ExtractDownloadReference(post.Text())
	if !ok && post.BodyHTML != "" {
		reference, ok = parser.ExtractDownloadReference(post.Body)
	}
	if !ok {
		return ex, "no download reference"
	}

	ex.event = ref
	ex.quality = quality
	ex.year = postYear(post)
	ex.sessions = found
	ex.reference = reference
	return ex, ""
}

func (o *Orchestrator) tracksQuality(quality string) bool {
	if len(o.opts.Qualities) == 0 {
		return true
	}
	for _, q := range o.opts.Qualities {
		if strings.EqualFold(q, quality) {
			return true
		}
	}
	return false
}

// rollover deletes a stored event of the same name from exactly the season
// before year, along with its ledger rows, once posts for a new season
// arrive. Events from the same season or older ones are kept.
func (o *Orchestrator) rollover(ctx context.Context, logger *slog.Logger, name string, year int) error {
	current := o.clock.Now().UTC().Year()
	if year != current && year != current+1 {
		return nil
	}
	events, err := o.store.EventsByName(ctx, name)
	if err != nil {
		return err
	}
	for _, ev := range events {
		stored, ok, err := o.store.InferEventYear(ctx, ev.Name, ev.Round)
		if err != nil {
			return err
		}
		if !ok || stored != year-1 {
			continue
		}
		var removed int64
		err = o.store.InTx(ctx, func(tx *store.Store) error {
			if err := tx.DeleteEvent(ctx, ev.ID); err != nil {
				return err
			}
			n, err := tx.DeleteLedgerForEvent(ctx, ev.Name, ev.Round)
			removed = n
			return err
		})
		if err != nil {
			return fmt.Errorf("roll over %s R%d: %w", ev.Name, ev.Round, err)
		}
		logger.Info("previous season removed",
			logging.Int("previous_round", ev.Round),
			logging.Int("previous_year", stored),
			logging.Int64("ledger_rows", removed),
		)
	}
	return nil
}

// skipReason applies the ledger skip policy: a fully processed or failed
// (post, quality) entry, or a job for the same reference that was seen in
// progress within the cool-down.
func (o *Orchestrator) skipReason(ctx context.Context, entry *store.LedgerEntry, reference string) (string, error) {
	if entry != nil {
		if entry.FullyProcessed {
			return "already fully processed", nil
		}
		if debrid.Status(entry.JobStatus).IsFailed() && entry.Reference == reference {
			return "resolver job failed; reset required", nil
		}
	}
	if o.opts.Cooldown <= 0 {
		return "", nil
	}
	siblings, err := o.store.LedgerByReference(ctx, reference)
	if err != nil {
		return "", err
	}
	now := o.clock.Now()
	for _, sibling := range siblings {
		if !debrid.Status(sibling.JobStatus).IsInProgress() || sibling.JobLastChecked == nil {
			continue
		}
		if now.Sub(*sibling.JobLastChecked) < o.opts.Cooldown {
			return "job in progress within cool-down", nil
		}
	}
	return "", nil
}

// recordedJob returns the resolver job already tracked for the entry's
// reference, either on the entry itself or on a sibling post sharing it.
func (o *Orchestrator) recordedJob(ctx context.Context, entry store.LedgerEntry) (string, error) {
	if entry.JobID != "" {
		return entry.JobID, nil
	}
	siblings, err := o.store.LedgerByReference(ctx, entry.Reference)
	if err != nil {
		return "", err
	}
	for _, sibling := range siblings {
		if sibling.JobID != "" {
			return sibling.JobID, nil
		}
	}
	return "", nil
}

// persist writes the event, its sessions, and this post's stream links in
// one transaction. It returns the event id and the number of new links.
func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, ex extraction, streams []resolver.Stream) (int64, int, error) {
	byCategory := make(map[sessions.Category][]resolver.Stream)
	for _, stream := range streams {
		category, ok := sessions.ClassifyFilename(stream.Filename)
		if !ok {
			logger.Debug("stream matches no session", logging.String("filename", stream.Filename))
			continue
		}
		byCategory[category] = append(byCategory[category], stream)
	}

	var (
		eventID int64
		added   int
	)
	err := o.store.InTx(ctx, func(tx *store.Store) error {
		id, err := tx.SaveEvent(ctx, store.Event{
			Name:    ex.event.Name,
			Round:   ex.event.Round,
			Country: ex.event.Country,
		})
		if err != nil {
			return err
		}
		eventID = id

		seen := make(map[sessions.Category]bool, len(ex.sessions))
		for _, info := range ex.sessions {
			if seen[info.Category] {
				continue
			}
			seen[info.Category] = true
			sessionID, err := tx.SaveSession(ctx, store.Session{
				EventID:     eventID,
				Name:        string(info.Category),
				DisplayName: info.RawName,
				Date:        info.Date,
				Duration:    info.Duration,
			})
			if err != nil {
				return err
			}
			for _, stream := range byCategory[info.Category] {
				inserted, err := tx.SaveStreamLink(ctx, store.StreamLink{
					SessionID: sessionID,
					Quality:   ex.quality,
					URL:       stream.URL,
					Filename:  stream.Filename,
					Size:      stream.Size,
					Source:    stream.Source,
				})
				if err != nil {
					return err
				}
				if inserted {
					added++
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("persist event: %w", err)
	}
	return eventID, added, nil
}
