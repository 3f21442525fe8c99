package testsupport

import (
	"context"
	"testing"
	"time"

	"pitlane/internal/config"
	"pitlane/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedLedger writes a ledger entry for an event with the given post time.
func SeedLedger(t testing.TB, st *store.Store, postID, quality, event string, round int, created time.Time, fully bool) {
	t.Helper()

	err := st.UpsertLedger(context.Background(), store.LedgerEntry{
		PostID:         postID,
		Quality:        quality,
		Title:          event,
		EventName:      event,
		EventRound:     round,
		CreatedUTC:     created,
		FullyProcessed: fully,
	})
	if err != nil {
		t.Fatalf("store.UpsertLedger: %v", err)
	}
}

// SaveEvent stores an event and returns its id.
func SaveEvent(t testing.TB, st *store.Store, name string, round int) int64 {
	t.Helper()

	id, err := st.SaveEvent(context.Background(), store.Event{Name: name, Round: round})
	if err != nil {
		t.Fatalf("store.SaveEvent: %v", err)
	}
	return id
}
