package store

import (
	"context"
	"fmt"
)

// pendingStatuses are resolver statuses that mean a job is still moving.
var pendingStatuses = []any{"submitted", "magnet_conversion", "waiting_files_selection", "queued", "downloading", "compressing", "uploading"}

// CheckHealth verifies the database answers queries and reports table sizes.
func (s *Store) CheckHealth(ctx context.Context) (Health, error) {
	ctx = ensureContext(ctx)
	health := Health{Path: s.path}

	if err := s.q.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&health.SchemaVersion); err != nil {
		return health, fmt.Errorf("read schema version: %w", err)
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM events`, &health.Events},
		{`SELECT COUNT(*) FROM sessions`, &health.Sessions},
		{`SELECT COUNT(*) FROM stream_links`, &health.StreamLinks},
		{`SELECT COUNT(*) FROM processed_posts`, &health.LedgerEntries},
		{`SELECT COUNT(*) FROM processed_posts WHERE is_fully_processed = 1`, &health.FullyProcessed},
	}
	for _, c := range counts {
		if err := s.q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return health, fmt.Errorf("count rows: %w", err)
		}
	}

	query := `SELECT COUNT(DISTINCT reference) FROM processed_posts WHERE is_fully_processed = 0 AND job_status IN (` +
		makePlaceholders(len(pendingStatuses)) + `)`
	if err := s.q.QueryRowContext(ctx, query, pendingStatuses...).Scan(&health.PendingJobs); err != nil {
		return health, fmt.Errorf("count pending jobs: %w", err)
	}
	return health, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
