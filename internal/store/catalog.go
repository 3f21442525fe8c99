package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SaveEvent stores an event keyed by (Name, Round). An existing row is
// updated in place and keeps its id.
func (s *Store) SaveEvent(ctx context.Context, event Event) (int64, error) {
	ctx = ensureContext(ctx)
	name := strings.TrimSpace(event.Name)
	if name == "" || event.Round <= 0 {
		return 0, fmt.Errorf("save event: name and round are required (got %q, %d)", event.Name, event.Round)
	}
	now := formatTime(s.now())

	var id int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM events WHERE name = ? AND round = ?`, name, event.Round).Scan(&id)
	switch {
	case err == nil:
		if _, err := s.execWithRetry(ctx,
			`UPDATE events SET country = COALESCE(?, country), updated_at = ? WHERE id = ?`,
			nullableString(event.Country), now, id,
		); err != nil {
			return 0, fmt.Errorf("update event: %w", err)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("lookup event: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO events (name, round, country, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, event.Round, nullableString(event.Country), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SaveSession stores a session keyed by (EventID, Name). An existing row is
// updated in place and keeps its id.
func (s *Store) SaveSession(ctx context.Context, session Session) (int64, error) {
	ctx = ensureContext(ctx)
	name := strings.TrimSpace(session.Name)
	if session.EventID <= 0 || name == "" {
		return 0, fmt.Errorf("save session: event id and name are required")
	}
	now := formatTime(s.now())

	var id int64
	err := s.q.QueryRowContext(ctx, `SELECT id FROM sessions WHERE event_id = ? AND name = ?`, session.EventID, name).Scan(&id)
	switch {
	case err == nil:
		if _, err := s.execWithRetry(ctx,
			`UPDATE sessions SET display_name = ?, date = ?, duration = ?, updated_at = ? WHERE id = ?`,
			nullableString(session.DisplayName), nullableString(session.Date), nullableString(session.Duration), now, id,
		); err != nil {
			return 0, fmt.Errorf("update session: %w", err)
		}
		return id, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return 0, fmt.Errorf("lookup session: %w", err)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO sessions (event_id, name, display_name, date, duration, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.EventID, name, nullableString(session.DisplayName), nullableString(session.Date),
		nullableString(session.Duration), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// SaveStreamLink inserts a link unless (SessionID, Quality, URL) already
// exists. It reports whether a row was inserted.
func (s *Store) SaveStreamLink(ctx context.Context, link StreamLink) (bool, error) {
	ctx = ensureContext(ctx)
	if link.SessionID <= 0 || link.Quality == "" || link.URL == "" {
		return false, fmt.Errorf("save stream link: session id, quality and url are required")
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO stream_links (session_id, quality, url, filename, size, source, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (session_id, quality, url) DO NOTHING`,
		link.SessionID, link.Quality, link.URL, nullableString(link.Filename),
		nullableInt(link.Size), nullableString(link.Source), formatTime(s.now()),
	)
	if err != nil {
		return false, fmt.Errorf("insert stream link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteEvent removes an event. Its sessions and links cascade.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	if _, err := s.execWithRetry(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// EventByKey returns the event with the given natural key, or nil.
func (s *Store) EventByKey(ctx context.Context, name string, round int) (*Event, error) {
	ctx = ensureContext(ctx)
	row := s.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE name = ? AND round = ?`, name, round)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// EventsByName returns every stored event with name, any round.
func (s *Store) EventsByName(ctx context.Context, name string) ([]Event, error) {
	ctx = ensureContext(ctx)
	rows, err := s.q.QueryContext(ctx, `SELECT `+eventColumns+` FROM events WHERE name = ? ORDER BY round`, name)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ListEvents returns every event with session and link counts, latest
// round first.
func (s *Store) ListEvents(ctx context.Context) ([]EventSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.q.QueryContext(ctx, `
        SELECT e.id, e.name, e.round, e.country, e.created_at, e.updated_at,
               (SELECT COUNT(*) FROM sessions s WHERE s.event_id = e.id),
               (SELECT COUNT(*) FROM stream_links l JOIN sessions s ON s.id = l.session_id WHERE s.event_id = e.id)
        FROM events e
        ORDER BY e.round DESC, e.name`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventSummary
	for rows.Next() {
		var (
			summary    EventSummary
			country    sql.NullString
			createdRaw sql.NullString
			updatedRaw sql.NullString
		)
		if err := rows.Scan(
			&summary.ID, &summary.Name, &summary.Round, &country, &createdRaw, &updatedRaw,
			&summary.SessionCount, &summary.LinkCount,
		); err != nil {
			return nil, fmt.Errorf("scan event summary: %w", err)
		}
		summary.Country = country.String
		if t, err := parseTimeString(createdRaw.String); err == nil {
			summary.CreatedAt = t
		}
		if t, err := parseTimeString(updatedRaw.String); err == nil {
			summary.UpdatedAt = t
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event summaries: %w", err)
	}
	return out, nil
}

// EventGraph returns the most recently updated event named name with its
// sessions and links, or nil when no such event exists.
func (s *Store) EventGraph(ctx context.Context, name string) (*EventGraph, error) {
	ctx = ensureContext(ctx)
	var id int64
	err := s.q.QueryRowContext(ctx,
		`SELECT id FROM events WHERE name = ? ORDER BY updated_at DESC, id DESC LIMIT 1`, name,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup event graph: %w", err)
	}
	return s.EventGraphByID(ctx, id)
}

// EventGraphByID returns an event with its sessions and links, or nil.
func (s *Store) EventGraphByID(ctx context.Context, id int64) (*EventGraph, error) {
	ctx = ensureContext(ctx)
	event, err := scanEvent(s.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	graph := &EventGraph{Event: *event}

	sessions, err := s.sessionsForEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.linksForEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	bySession := make(map[int64][]StreamLink, len(sessions))
	for _, link := range links {
		bySession[link.SessionID] = append(bySession[link.SessionID], link)
	}
	for _, session := range sessions {
		graph.Sessions = append(graph.Sessions, SessionGraph{Session: session, Links: bySession[session.ID]})
	}
	return graph, nil
}

func (s *Store) sessionsForEvent(ctx context.Context, eventID int64) ([]Session, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE event_id = ? ORDER BY id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *Store) linksForEvent(ctx context.Context, eventID int64) ([]StreamLink, error) {
	rows, err := s.q.QueryContext(ctx, `
        SELECT l.id, l.session_id, l.quality, l.url, l.filename, l.size, l.source, l.created_at
        FROM stream_links l
        JOIN sessions s ON s.id = l.session_id
        WHERE s.event_id = ?
        ORDER BY l.id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query stream links: %w", err)
	}
	defer rows.Close()

	var out []StreamLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stream link: %w", err)
		}
		out = append(out, *link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stream links: %w", err)
	}
	return out, nil
}
