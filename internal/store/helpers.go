package store

import (
	"database/sql"
	"errors"
	"time"
)

type scanner interface{ Scan(dest ...any) error }

const eventColumns = "id, name, round, country, created_at, updated_at"

func scanEvent(row scanner) (*Event, error) {
	var (
		e          Event
		country    sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Round, &country, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	e.Country = country.String
	if t, err := parseTimeString(createdRaw.String); err == nil {
		e.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw.String); err == nil {
		e.UpdatedAt = t
	}
	return &e, nil
}

const sessionColumns = "id, event_id, name, display_name, date, duration, created_at, updated_at"

func scanSession(row scanner) (*Session, error) {
	var (
		s          Session
		display    sql.NullString
		date       sql.NullString
		duration   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := row.Scan(&s.ID, &s.EventID, &s.Name, &display, &date, &duration, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	s.DisplayName = display.String
	s.Date = date.String
	s.Duration = duration.String
	if t, err := parseTimeString(createdRaw.String); err == nil {
		s.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw.String); err == nil {
		s.UpdatedAt = t
	}
	return &s, nil
}

func scanLink(row scanner) (*StreamLink, error) {
	var (
		l          StreamLink
		filename   sql.NullString
		size       sql.NullInt64
		source     sql.NullString
		createdRaw sql.NullString
	)
	if err := row.Scan(&l.ID, &l.SessionID, &l.Quality, &l.URL, &filename, &size, &source, &createdRaw); err != nil {
		return nil, err
	}
	l.Filename = filename.String
	l.Size = size.Int64
	l.Source = source.String
	if t, err := parseTimeString(createdRaw.String); err == nil {
		l.CreatedAt = t
	}
	return &l, nil
}

const ledgerColumns = "post_id, quality, post_url, title, event_name, event_round, created_utc, processed_at, is_fully_processed, reference, job_id, job_status, job_last_checked"

func scanLedger(row scanner) (*LedgerEntry, error) {
	var (
		e            LedgerEntry
		postURL      sql.NullString
		title        sql.NullString
		eventName    sql.NullString
		eventRound   sql.NullInt64
		createdUTC   int64
		processedRaw sql.NullString
		fully        int
		reference    sql.NullString
		jobID        sql.NullString
		jobStatus    sql.NullString
		checkedRaw   sql.NullString
	)
	if err := row.Scan(
		&e.PostID,
		&e.Quality,
		&postURL,
		&title,
		&eventName,
		&eventRound,
		&createdUTC,
		&processedRaw,
		&fully,
		&reference,
		&jobID,
		&jobStatus,
		&checkedRaw,
	); err != nil {
		return nil, err
	}
	e.PostURL = postURL.String
	e.Title = title.String
	e.EventName = eventName.String
	e.EventRound = int(eventRound.Int64)
	e.CreatedUTC = time.Unix(createdUTC, 0).UTC()
	e.FullyProcessed = fully != 0
	e.Reference = reference.String
	e.JobID = jobID.String
	e.JobStatus = jobStatus.String
	if t, err := parseTimeString(processedRaw.String); err == nil {
		e.ProcessedAt = t
	}
	if checkedRaw.Valid {
		if t, err := parseTimeString(checkedRaw.String); err == nil {
			e.JobLastChecked = &t
		}
	}
	return &e, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
