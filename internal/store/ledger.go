package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// UpsertLedger replaces the ledger entry keyed by (PostID, Quality).
func (s *Store) UpsertLedger(ctx context.Context, entry LedgerEntry) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(entry.PostID) == "" || strings.TrimSpace(entry.Quality) == "" {
		return errors.New("upsert ledger: post id and quality are required")
	}
	processedAt := entry.ProcessedAt
	if processedAt.IsZero() {
		processedAt = s.now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO processed_posts (`+ledgerColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (post_id, quality) DO UPDATE SET
             post_url = excluded.post_url,
             title = excluded.title,
             event_name = excluded.event_name,
             event_round = excluded.event_round,
             created_utc = excluded.created_utc,
             processed_at = excluded.processed_at,
             is_fully_processed = excluded.is_fully_processed,
             reference = excluded.reference,
             job_id = excluded.job_id,
             job_status = excluded.job_status,
             job_last_checked = excluded.job_last_checked`,
		entry.PostID,
		entry.Quality,
		nullableString(entry.PostURL),
		nullableString(entry.Title),
		nullableString(entry.EventName),
		entry.EventRound,
		entry.CreatedUTC.Unix(),
		formatTime(processedAt),
		boolToInt(entry.FullyProcessed),
		nullableString(entry.Reference),
		nullableString(entry.JobID),
		nullableString(entry.JobStatus),
		nullableTime(entry.JobLastChecked),
	)
	if err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}
	return nil
}

// LedgerEntry returns the entry for (postID, quality), or nil.
func (s *Store) LedgerEntry(ctx context.Context, postID, quality string) (*LedgerEntry, error) {
	ctx = ensureContext(ctx)
	row := s.q.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM processed_posts WHERE post_id = ? AND quality = ?`, postID, quality)
	entry, err := scanLedger(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return entry, nil
}

// LedgerByReference returns every entry sharing a download reference.
func (s *Store) LedgerByReference(ctx context.Context, reference string) ([]LedgerEntry, error) {
	return s.queryLedger(ctx, `SELECT `+ledgerColumns+` FROM processed_posts WHERE reference = ? ORDER BY id`, reference)
}

// LedgerForEvent returns the entries recorded for an event, newest post first.
func (s *Store) LedgerForEvent(ctx context.Context, name string, round int) ([]LedgerEntry, error) {
	return s.queryLedger(ctx,
		`SELECT `+ledgerColumns+` FROM processed_posts WHERE event_name = ? AND event_round = ? ORDER BY created_utc DESC, id`,
		name, round)
}

func (s *Store) queryLedger(ctx context.Context, query string, args ...any) ([]LedgerEntry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		entry, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return out, nil
}

// RecordProgress stores resolver job progress on every entry carrying
// reference.
func (s *Store) RecordProgress(ctx context.Context, reference, jobID, status string, at time.Time) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(reference) == "" {
		return nil
	}
	checked := at.UTC()
	_, err := s.execWithRetry(ctx,
		`UPDATE processed_posts
         SET job_id = COALESCE(?, job_id), job_status = ?, job_last_checked = ?
         WHERE reference = ?`,
		nullableString(jobID), nullableString(status), nullableTime(&checked), reference,
	)
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

// MarkFullyProcessed flags the (postID, quality) entry as complete.
func (s *Store) MarkFullyProcessed(ctx context.Context, postID, quality string) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		`UPDATE processed_posts SET is_fully_processed = 1, processed_at = ? WHERE post_id = ? AND quality = ?`,
		formatTime(s.now()), postID, quality,
	)
	if err != nil {
		return fmt.Errorf("mark fully processed: %w", err)
	}
	return nil
}

// ResetLedgerEntry removes every entry for postID so the next pass treats
// the post as new. It returns the number of entries removed.
func (s *Store) ResetLedgerEntry(ctx context.Context, postID string) (int64, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx, `DELETE FROM processed_posts WHERE post_id = ?`, postID)
	if err != nil {
		return 0, fmt.Errorf("reset ledger entry: %w", err)
	}
	return res.RowsAffected()
}

// DeleteLedgerForEvent removes every entry recorded against an event.
func (s *Store) DeleteLedgerForEvent(ctx context.Context, name string, round int) (int64, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx, `DELETE FROM processed_posts WHERE event_name = ? AND event_round = ?`, name, round)
	if err != nil {
		return 0, fmt.Errorf("delete ledger for event: %w", err)
	}
	return res.RowsAffected()
}

// IsEventComplete reports whether every quality in qualities has at least
// one fully processed post for the event. A positive year restricts the
// check to posts created in that year.
func (s *Store) IsEventComplete(ctx context.Context, name string, round, year int, qualities []string) (bool, error) {
	if len(qualities) == 0 {
		return false, nil
	}
	completion, err := s.completion(ctx, name, round, year)
	if err != nil {
		return false, err
	}
	return completion.Complete(qualities), nil
}

// CompletionStatus summarizes the ledger for an event across qualities.
func (s *Store) CompletionStatus(ctx context.Context, name string, round int) (*Completion, error) {
	return s.completion(ctx, name, round, 0)
}

func (s *Store) completion(ctx context.Context, name string, round, year int) (*Completion, error) {
	ctx = ensureContext(ctx)
	query := `SELECT quality, COUNT(*), SUM(is_fully_processed), MAX(created_utc),
                     (SELECT p2.job_status FROM processed_posts p2
                      WHERE p2.event_name = p.event_name AND p2.event_round = p.event_round AND p2.quality = p.quality
                      ORDER BY p2.created_utc DESC LIMIT 1)
              FROM processed_posts p
              WHERE event_name = ? AND event_round = ?`
	args := []any{name, round}
	if year > 0 {
		query += ` AND CAST(strftime('%Y', created_utc, 'unixepoch') AS INTEGER) = ?`
		args = append(args, year)
	}
	query += ` GROUP BY quality ORDER BY quality`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query completion: %w", err)
	}
	defer rows.Close()

	out := &Completion{EventName: name, EventRound: round}
	for rows.Next() {
		var (
			status    QualityStatus
			fully     sql.NullInt64
			latest    sql.NullInt64
			jobStatus sql.NullString
		)
		if err := rows.Scan(&status.Quality, &status.Posts, &fully, &latest, &jobStatus); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		status.FullyProcessed = int(fully.Int64)
		if latest.Valid {
			status.LatestPost = time.Unix(latest.Int64, 0).UTC()
		}
		status.JobStatus = jobStatus.String
		out.Qualities = append(out.Qualities, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion: %w", err)
	}
	return out, nil
}

// LatestPostTime returns the newest post creation time recorded for an
// event. The boolean is false when the event has no ledger entries.
func (s *Store) LatestPostTime(ctx context.Context, name string, round int) (time.Time, bool, error) {
	ctx = ensureContext(ctx)
	var latest sql.NullInt64
	err := s.q.QueryRowContext(ctx,
		`SELECT MAX(created_utc) FROM processed_posts WHERE event_name = ? AND event_round = ?`, name, round,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest post time: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(latest.Int64, 0).UTC(), true, nil
}

// InferEventYear returns the season an event belongs to by majority vote
// over the creation years of its ledger entries. Ties go to the later year.
// The boolean is false when the event has no ledger entries.
func (s *Store) InferEventYear(ctx context.Context, name string, round int) (int, bool, error) {
	ctx = ensureContext(ctx)
	rows, err := s.q.QueryContext(ctx,
		`SELECT created_utc FROM processed_posts WHERE event_name = ? AND event_round = ?`, name, round)
	if err != nil {
		return 0, false, fmt.Errorf("query event years: %w", err)
	}
	defer rows.Close()

	votes := make(map[int]int)
	for rows.Next() {
		var created int64
		if err := rows.Scan(&created); err != nil {
			return 0, false, fmt.Errorf("scan event year: %w", err)
		}
		votes[time.Unix(created, 0).UTC().Year()]++
	}
	if err := rows.Err(); err != nil {
		return 0, false, fmt.Errorf("iterate event years: %w", err)
	}
	if len(votes) == 0 {
		return 0, false, nil
	}

	years := make([]int, 0, len(votes))
	for year := range votes {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	best := years[0]
	for _, year := range years[1:] {
		if votes[year] > votes[best] {
			best = year
		}
	}
	return best, true, nil
}
