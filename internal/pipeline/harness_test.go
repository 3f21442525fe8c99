package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"pitlane/internal/clock"
	"pitlane/internal/config"
	"pitlane/internal/feed"
	"pitlane/internal/resolver"
	"pitlane/internal/store"
	"pitlane/internal/testsupport"
)

var july2025 = time.Date(2025, 7, 7, 12, 0, 0, 0, time.UTC)

type fakeFeed struct {
	mu        sync.Mutex
	pages     map[string]*feed.Page
	errs      map[string][]error
	calls     []string
	refreshes int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{pages: map[string]*feed.Page{}, errs: map[string][]error{}}
}

func (f *fakeFeed) ListPage(_ context.Context, after string) (*feed.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, after)
	if queued := f.errs[after]; len(queued) > 0 {
		f.errs[after] = queued[1:]
		return nil, queued[0]
	}
	if page, ok := f.pages[after]; ok {
		return page, nil
	}
	return &feed.Page{}, nil
}

func (f *fakeFeed) RefreshCredentials(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

// fakeResolver answers from a table keyed by reference and records
// progress the way the real resolver does. Unknown references defer.
type fakeResolver struct {
	mu       sync.Mutex
	recorder resolver.ProgressRecorder
	now      func() time.Time
	results  map[string]*resolver.Result
	err      error
	calls    []string
	jobIDs   []string
}

func (r *fakeResolver) Resolve(ctx context.Context, reference, jobID string) (*resolver.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, reference)
	r.jobIDs = append(r.jobIDs, jobID)
	if r.err != nil {
		return nil, r.err
	}
	res, ok := r.results[reference]
	if !ok {
		res = &resolver.Result{Outcome: resolver.OutcomeDeferred, JobID: "job-" + hashOf(reference), Status: "downloading"}
	}
	if r.recorder != nil {
		if err := r.recorder.RecordProgress(ctx, reference, res.JobID, res.Status, r.now()); err != nil {
			return nil, err
		}
	}
	out := *res
	return &out, nil
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeNotifier struct {
	mu     sync.Mutex
	ready  []string
	passes int
	errors int
}

func (n *fakeNotifier) NotifyEventReady(_ context.Context, event string, round int, quality string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ready = append(n.ready, fmt.Sprintf("%s R%d %s", event, round, quality))
	return nil
}

func (n *fakeNotifier) NotifyPassCompleted(context.Context, int, int, int, time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.passes++
	return nil
}

func (n *fakeNotifier) NotifyError(context.Context, error, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors++
	return nil
}

func (n *fakeNotifier) TestNotification(context.Context) error { return nil }

type harness struct {
	cfg      *config.Config
	store    *store.Store
	clock    *clock.FakeClock
	feed     *fakeFeed
	resolver *fakeResolver
	notifier *fakeNotifier
	orch     *Orchestrator
}

func newHarness(t *testing.T, now time.Time, mutate ...func(*Options)) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	clk := clock.Fake(now)
	h := &harness{
		cfg:      cfg,
		store:    st,
		clock:    clk,
		feed:     newFakeFeed(),
		resolver: &fakeResolver{recorder: st, now: clk.Now, results: map[string]*resolver.Result{}},
		notifier: &fakeNotifier{},
	}
	opts := OptionsFromConfig(cfg)
	for _, fn := range mutate {
		fn(&opts)
	}
	h.orch = New(h.feed, h.resolver, st, opts, WithClock(clk), WithNotifier(h.notifier))
	return h
}

// ready registers a finished job for reference with one stream per
// filename.
func (h *harness) ready(reference string, filenames ...string) {
	res := &resolver.Result{Outcome: resolver.OutcomeReady, JobID: "job-ready", Status: "downloaded"}
	for _, name := range filenames {
		res.Streams = append(res.Streams, resolver.Stream{
			URL:      "https://cdn.example/" + hashOf(reference) + "/" + name,
			Filename: name,
			Size:     1 << 30,
			Source:   "real-debrid",
		})
	}
	h.resolver.results[reference] = res
}

func hashOf(reference string) string {
	hash := strings.TrimPrefix(reference, "magnet:?xt=urn:btih:")
	if i := strings.Index(hash, "&"); i >= 0 {
		hash = hash[:i]
	}
	return hash
}

func magnet(hash string) string {
	return "magnet:?xt=urn:btih:" + hash + "&dn=f1"
}

const conventionalSessions = "Free Practice One (04.07.2025) (1:00:12)\n" +
	"Free Practice Two (04.07.2025) (1:00:30)\n" +
	"Free Practice Three (05.07.2025) (1:00:05)\n" +
	"Qualifying (05.07.2025) (1:10:00)\n" +
	"Race (06.07.2025) (1:45:00)\n"

func weekendBody(sessions, reference string) string {
	return "Full weekend coverage\n\nContains:\n" + sessions + "\n" + reference + "\n"
}

func weekendPost(id, title, reference string, created time.Time) feed.Post {
	return feed.Post{
		ID:         id,
		Title:      title,
		Permalink:  "https://www.reddit.com/r/test/comments/" + id,
		Author:     "test-uploader",
		CreatedUTC: created,
		Body:       weekendBody(conventionalSessions, reference),
	}
}

func conventionalFiles(round int, quality string) []string {
	var out []string
	for _, part := range []string{"FP1", "FP2", "FP3", "Qualifying", "Race"} {
		out = append(out, fmt.Sprintf("Formula1.2025.R%02d.%s.%s.mkv", round, part, quality))
	}
	return out
}

func linkURLs(graph *store.EventGraph) []string {
	var urls []string
	if graph == nil {
		return nil
	}
	for _, s := range graph.Sessions {
		for _, l := range s.Links {
			urls = append(urls, l.URL)
		}
	}
	return urls
}

func containsURL(urls []string, needle string) bool {
	for _, u := range urls {
		if strings.Contains(u, needle) {
			return true
		}
	}
	return false
}
