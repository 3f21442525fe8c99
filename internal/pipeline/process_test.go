package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pitlane/internal/feed"
	"pitlane/internal/resolver"
	"pitlane/internal/store"
	"pitlane/internal/testsupport"
)

const britishTitle = "Formula 1 2025 British Grand Prix R12 - Full Event SkyF1HD 1080p"

func TestProcessPostCompletesConventionalWeekend(t *testing.T) {
	h := newHarness(t, july2025)
	ctx := context.Background()
	ref := magnet("aaaa1111")
	h.ready(ref, conventionalFiles(12, "1080p")...)

	res, err := h.orch.ProcessPost(ctx, weekendPost("p1", britishTitle, ref, july2025.Add(-time.Hour)))
	if err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}
	if res.Outcome != PostCompleted || res.LinksAdded != 5 {
		t.Fatalf("result = %+v, want completed with 5 links", res)
	}

	entry, err := h.store.LedgerEntry(ctx, "p1", "1080p")
	if err != nil || entry == nil {
		t.Fatalf("LedgerEntry = %v, %v", entry, err)
	}
	if !entry.FullyProcessed || entry.Reference != ref || entry.JobStatus != "downloaded" {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}

	event, err := h.store.EventByKey(ctx, "British Grand Prix", 12)
	if err != nil || event == nil {
		t.Fatalf("EventByKey = %v, %v", event, err)
	}
	if event.Country != "United Kingdom" {
		t.Fatalf("country = %q", event.Country)
	}
	graph, err := h.store.EventGraphByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("EventGraphByID: %v", err)
	}
	if len(graph.Sessions) != 5 {
		t.Fatalf("sessions = %d, want 5", len(graph.Sessions))
	}
	for _, s := range graph.Sessions {
		if len(s.Links) != 1 {
			t.Fatalf("session %s has %d links", s.Name, len(s.Links))
		}
	}
	if graph.Sessions[0].DisplayName != "Free Practice One" || graph.Sessions[0].Date != "04.07.2025" {
		t.Fatalf("first session = %+v", graph.Sessions[0].Session)
	}
	if len(h.notifier.ready) != 1 || h.notifier.ready[0] != "British Grand Prix R12 1080p" {
		t.Fatalf("ready notifications = %v", h.notifier.ready)
	}
}

func TestProcessPostStoresPartialWeekend(t *testing.T) {
	h := newHarness(t, july2025)
	ctx := context.Background()
	ref := magnet("bbbb2222")
	h.ready(ref, "Formula1.2025.R12.Race.1080p.mkv", "Formula1.2025.R12.Notes.txt")

	res, err := h.orch.ProcessPost(ctx, weekendPost("p1", britishTitle, ref, july2025))
	if err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}
	if res.Outcome != PostStored || res.LinksAdded != 1 {
		t.Fatalf("result = %+v, want stored with 1 link", res)
	}
	entry, _ := h.store.LedgerEntry(ctx, "p1", "1080p")
	if entry == nil || entry.FullyProcessed {
		t.Fatalf("entry should exist and stay incomplete: %+v", entry)
	}
	if len(h.notifier.ready) != 0 {
		t.Fatalf("unexpected notifications: %v", h.notifier.ready)
	}
}

func TestProcessPostIgnoresPostsMissingParts(t *testing.T) {
	ref := magnet("cccc3333")
	tests := []struct {
		name string
		post feed.Post
	}{
		{"no event", weekendPost("p1", "Formula 1 2025 Testing Day 1080p", ref, july2025)},
		{"unknown quality", weekendPost("p2", "Formula 1 2025 British Grand Prix R12 720p", ref, july2025)},
		{"no sessions", feed.Post{ID: "p3", Title: britishTitle, CreatedUTC: july2025, Body: "Enjoy\n\n" + ref}},
		{"no reference", feed.Post{ID: "p4", Title: britishTitle, CreatedUTC: july2025, Body: weekendBody(conventionalSessions, "no link yet")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, july2025)
			res, err := h.orch.ProcessPost(context.Background(), tt.post)
			if err != nil {
				t.Fatalf("ProcessPost: %v", err)
			}
			if res.Outcome != PostIgnored || res.Reason == "" {
				t.Fatalf("result = %+v, want ignored with a reason", res)
			}
			if h.resolver.callCount() != 0 {
				t.Fatalf("resolver called %d times", h.resolver.callCount())
			}
			for _, quality := range []string{"1080p", "4K"} {
				if entry, _ := h.store.LedgerEntry(context.Background(), tt.post.ID, quality); entry != nil {
					t.Fatalf("unexpected ledger entry: %+v", entry)
				}
			}
		})
	}
}

func TestProcessPostSkipsFullyProcessedEntry(t *testing.T) {
	h := newHarness(t, july2025)
	ctx := context.Background()
	testsupport.SeedLedger(t, h.store, "p1", "1080p", "British Grand Prix", 12, july2025.Add(-time.Hour), true)

	res, err := h.orch.ProcessPost(ctx, weekendPost("p1", britishTitle, magnet("dddd4444"), july2025))
	if err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}
	if res.Outcome != PostSkipped {
		t.Fatalf("outcome = %v, want skipped", res.Outcome)
	}
	if h.resolver.callCount() != 0 {
		t.Fatalf("resolver called %d times", h.resolver.callCount())
	}
	entry, _ := h.store.LedgerEntry(ctx, "p1", "1080p")
	if entry.Reference != "" {
		t.Fatalf("ledger was rewritten: %+v", entry)
	}
	if event, _ := h.store.EventByKey(ctx, "British Grand Prix", 12); event != nil {
		t.Fatalf("event written for a skipped post: %+v", event)
	}
}

func TestDeferredReferenceIsNotResubmittedWithinCooldown(t *testing.T) {
	h := newHarness(t, july2025)
	ctx := context.Background()
	ref := magnet("eeee5555")
	post := weekendPost("p1", britishTitle, ref, july2025)

	res, err := h.orch.ProcessPost(ctx, post)
	if err != nil {
		t.Fatalf("ProcessPost: %v", err)
	}
	if res.Outcome != PostDeferred {
		t.Fatalf("outcome = %v, want deferred", res.Outcome)
	}
	entry, _ := h.store.LedgerEntry(ctx, "p1", "1080p")
	if entry == nil || entry.JobStatus != "downloading" || entry.JobLastChecked == nil {
		t.Fatalf("deferral not recorded: %+v", entry)
	}
	if event, _ := h.store.EventByKey(ctx, "British Grand Prix", 12); event != nil {
		t.Fatal("deferred post must not write the event")
	}

	h.clock.Advance(10 * time.Minute)
	res, err = h.orch.ProcessPost(ctx, post)
	if err != nil {
		t.Fatalf("ProcessPost repeat: %v", err)
	}
	if res.Outcome != PostSkipped || h.resolver.callCount() != 1 {
		t.Fatalf("repeat = %+v with %d resolver calls, want skipped with 1", res, h.resolver.callCount())
	}

	sibling := weekendPost("p2", strings.Replace(britishTitle, "1080p", "2160p", 1), ref, july2025)
	res, err = h.orch.ProcessPost(ctx, sibling)
	if err != nil {
		t.Fatalf("ProcessPost sibling: %v", err)
	}
	if res.Outcome != PostSkipped || h.resolver.callCount() != 1 {
		t.Fatalf("sibling = %+v with %d resolver calls", res, h.resolver.callCount())
	}

	h.clock.Advance(25 * time.Minute)
	if _, err := h.orch.ProcessPost(ctx, post); err != nil {
		t.Fatalf("ProcessPost after cool-down: %v", err)
	}
	if h.resolver.callCount() != 2 {
		t.Fatalf("resolver calls = %d, want 2 after the cool-down", h.resolver.callCount())
	}
	job := "job-" + hashOf(ref)
	if h.resolver.jobIDs[0] != "" || h.resolver.jobIDs[1] != job {
		t.Fatalf("job ids passed to resolver = %v, want recorded %q on the repeat", h.resolver.jobIDs, job)
	}

	h.clock.Advance(35 * time.Minute)
	if _, err := h.orch.ProcessPost(ctx, sibling); err != nil {
		t.Fatalf("ProcessPost sibling after cool-down: %v", err)
	}
	if h.resolver.callCount() != 3 || h.resolver.jobIDs[2] != job {
		t.Fatalf("sibling must reuse the recorded job: ids=%v", h.resolver.jobIDs)
	}
}

func TestFailedJobSkipsUntilReset(t *testing.T) {
	h := newHarness(t, july2025)
	ctx := context.Background()
	ref := magnet("ffff6666")
	h.resolver.results[ref] = &resolver.Result{Outcome: resolver.OutcomeFailed, JobID: "job-dead", Status: "dead"}
	post := weekendPost("p1", britishTitle, ref, july2025)

	res, err := h.orch.ProcessPost(ctx, post)
	if err != nil || res.Outcome != PostFailed {
		t.Fatalf("first = %+v, %v; want failed", res, err)
	}
	h.clock.Advance(2 * time.Hour)
	res, err = h.orch.ProcessPost(ctx, post)
	if err != nil || res.Outcome != PostSkipped {
		t.Fatalf("second = %+v, %v; want skipped", res, err)
	}
	if h.resolver.callCount() != 1 {
		t.Fatalf("resolver calls = %d, want 1", h.resolver.callCount())
	}

	if n, err := h.store.ResetLedgerEntry(ctx, "p1"); err != nil || n != 1 {
		t.Fatalf("ResetLedgerEntry = %d, %v", n, err)
	}
	if _, err := h.orch.ProcessPost(ctx, post); err != nil {
		t.Fatalf("ProcessPost after reset: %v", err)
	}
	if h.resolver.callCount() != 2 {
		t.Fatalf("resolver calls = %d, want 2 after reset", h.resolver.callCount())
	}
}

func TestProcessPostReturnsResolverErrors(t *testing.T) {
	h := newHarness(t, july2025)
	h.resolver.err = errors.New("debrid offline")

	_, err := h.orch.ProcessPost(context.Background(), weekendPost("p1", britishTitle, magnet("abab7777"), july2025))
	if err == nil || !strings.Contains(err.Error(), "debrid offline") {
		t.Fatalf("err = %v, want resolver error", err)
	}
	entry, _ := h.store.LedgerEntry(context.Background(), "p1", "1080p")
	if entry == nil || entry.FullyProcessed {
		t.Fatalf("ledger entry should exist and stay open: %+v", entry)
	}
}

func seedSeason(t *testing.T, st *store.Store, postID string, created time.Time) {
	t.Helper()
	ctx := context.Background()
	eventID := testsupport.SaveEvent(t, st, "British Grand Prix", 12)
	sessionID, err := st.SaveSession(ctx, store.Session{EventID: eventID, Name: "Race", DisplayName: "Race"})
	if err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if _, err := st.SaveStreamLink(ctx, store.StreamLink{SessionID: sessionID, Quality: "1080p", URL: "https://old.example/race.mkv"}); err != nil {
		t.Fatalf("SaveStreamLink: %v", err)
	}
	testsupport.SeedLedger(t, st, postID, "1080p", "British Grand Prix", 12, created, true)
}

func TestRolloverReplacesPreviousSeason(t *testing.T) {
	now := time.Date(2026, 7, 6, 18, 0, 0, 0, time.UTC)
	title := "Formula 1 2026 British Grand Prix R12 - Full Event 1080p"
	tests := []struct {
		name       string
		seeded     time.Time
		wantRemove bool
	}{
		{"previous season", time.Date(2025, 7, 6, 18, 0, 0, 0, time.UTC), true},
		{"same season", time.Date(2026, 7, 5, 18, 0, 0, 0, time.UTC), false},
		{"older season", time.Date(2024, 7, 7, 18, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, now)
			ctx := context.Background()
			seedSeason(t, h.store, "old-post", tt.seeded)
			ref := magnet("baba8888")
			h.ready(ref, "Formula1.2026.R12.Race.1080p.mkv")

			if _, err := h.orch.ProcessPost(ctx, weekendPost("new-post", title, ref, now)); err != nil {
				t.Fatalf("ProcessPost: %v", err)
			}

			event, err := h.store.EventByKey(ctx, "British Grand Prix", 12)
			if err != nil || event == nil {
				t.Fatalf("EventByKey = %v, %v", event, err)
			}
			graph, err := h.store.EventGraphByID(ctx, event.ID)
			if err != nil {
				t.Fatalf("EventGraphByID: %v", err)
			}
			urls := linkURLs(graph)
			if !containsURL(urls, "baba8888") {
				t.Fatalf("new season link missing: %v", urls)
			}
			oldLink := containsURL(urls, "old.example")
			oldEntry, _ := h.store.LedgerEntry(ctx, "old-post", "1080p")
			if tt.wantRemove {
				if oldLink || oldEntry != nil {
					t.Fatalf("previous season kept: links=%v entry=%+v", urls, oldEntry)
				}
				return
			}
			if !oldLink || oldEntry == nil {
				t.Fatalf("event removed unexpectedly: links=%v entry=%+v", urls, oldEntry)
			}
		})
	}
}

func TestCompleteAtFollowsWeekendFormat(t *testing.T) {
	link := func(q string) []store.StreamLink { return []store.StreamLink{{Quality: q, URL: "u-" + q}} }
	sprint := &store.EventGraph{Sessions: []store.SessionGraph{
		{Session: store.Session{Name: "PracticeOne"}, Links: link("4K")},
		{Session: store.Session{Name: "SprintQualifying"}, Links: link("4K")},
		{Session: store.Session{Name: "Sprint"}, Links: link("4K")},
		{Session: store.Session{Name: "Qualifying"}, Links: link("4K")},
		{Session: store.Session{Name: "Race"}, Links: append(link("4K"), link("1080p")...)},
	}}
	if !CompleteAt(sprint, "4K") {
		t.Fatal("sprint weekend should be complete at 4K")
	}
	if CompleteAt(sprint, "1080p") {
		t.Fatal("sprint weekend should be incomplete at 1080p")
	}

	partial := &store.EventGraph{Sessions: []store.SessionGraph{
		{Session: store.Session{Name: "PracticeOne"}, Links: link("4K")},
		{Session: store.Session{Name: "Qualifying"}, Links: link("4K")},
		{Session: store.Session{Name: "Race"}, Links: link("4K")},
	}}
	if CompleteAt(partial, "4K") {
		t.Fatal("conventional weekend without FP2/FP3 must be incomplete")
	}
	if CompleteAt(nil, "4K") {
		t.Fatal("nil graph must be incomplete")
	}
}
