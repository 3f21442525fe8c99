package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"pitlane/internal/clock"
	"pitlane/internal/debrid"
)

const (
	testMagnet = "magnet:?xt=urn:btih:0123456789ABCDEF0123456789ABCDEF01234567&dn=F1"
	testHash   = "0123456789abcdef0123456789abcdef01234567"
)

type fakeAPI struct {
	torrents     []debrid.Torrent
	listErr      error
	listPages    []int
	added        []string
	selected     []string
	infos        []debrid.Torrent
	infoErrs     []error
	infoCalls    int
	unrestricted map[string]*debrid.UnrestrictedLink
}

func (f *fakeAPI) ListTorrents(_ context.Context, page, limit int) ([]debrid.Torrent, error) {
	f.listPages = append(f.listPages, page)
	if f.listErr != nil {
		return nil, f.listErr
	}
	start := (page - 1) * limit
	if start >= len(f.torrents) {
		return nil, nil
	}
	return f.torrents[start:min(start+limit, len(f.torrents))], nil
}

func (f *fakeAPI) AddMagnet(_ context.Context, magnet string) (*debrid.AddMagnetResponse, error) {
	f.added = append(f.added, magnet)
	return &debrid.AddMagnetResponse{ID: "J1"}, nil
}

func (f *fakeAPI) SelectFiles(_ context.Context, id string) error {
	f.selected = append(f.selected, id)
	return nil
}

func (f *fakeAPI) TorrentInfo(_ context.Context, id string) (*debrid.Torrent, error) {
	idx := f.infoCalls
	f.infoCalls++
	if idx < len(f.infoErrs) && f.infoErrs[idx] != nil {
		return nil, f.infoErrs[idx]
	}
	if idx >= len(f.infos) {
		idx = len(f.infos) - 1
	}
	info := f.infos[idx]
	info.ID = id
	return &info, nil
}

func (f *fakeAPI) Unrestrict(_ context.Context, link string) (*debrid.UnrestrictedLink, error) {
	if u, ok := f.unrestricted[link]; ok {
		return u, nil
	}
	return nil, &debrid.APIError{StatusCode: http.StatusServiceUnavailable, Endpoint: "/unrestrict/link"}
}

type progress struct {
	reference, jobID, status string
	at                       time.Time
}

type fakeRecorder struct {
	entries []progress
	err     error
}

func (f *fakeRecorder) RecordProgress(_ context.Context, reference, jobID, status string, at time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, progress{reference, jobID, status, at})
	return nil
}

func newTestResolver(api API, rec ProgressRecorder, attempts int) (*Resolver, *clock.FakeClock) {
	fake := clock.Fake(time.Date(2025, 7, 6, 15, 0, 0, 0, time.UTC))
	r := New(api, rec, Options{PollInterval: 10 * time.Second, MaxPollAttempts: attempts, SourceLabel: "real-debrid"}, WithClock(fake))
	return r, fake
}

func TestResolveSubmitsAndUnrestricts(t *testing.T) {
	api := &fakeAPI{
		infos: []debrid.Torrent{
			{Status: debrid.StatusQueued},
			{Status: debrid.StatusDownloading, Progress: 50},
			{Status: debrid.StatusDownloaded, Progress: 100, Links: []string{"l/race", "l/broken", "l/nfo"}},
		},
		unrestricted: map[string]*debrid.UnrestrictedLink{
			"l/race": {Filename: "02.Race.mkv", Filesize: 4096, Download: "https://cdn.example/race.mkv"},
			"l/nfo":  {Filename: "release.nfo", Download: "https://cdn.example/release.nfo"},
		},
	}
	rec := &fakeRecorder{}
	r, fake := newTestResolver(api, rec, 5)

	result, err := r.Resolve(context.Background(), testMagnet, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeReady || result.JobID != "J1" || result.Attempts != 3 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(api.added) != 1 || len(api.selected) != 1 {
		t.Fatalf("expected one submission and selection, got %v %v", api.added, api.selected)
	}
	if len(result.Streams) != 1 {
		t.Fatalf("expected one video stream, got %#v", result.Streams)
	}
	stream := result.Streams[0]
	if stream.URL != "https://cdn.example/race.mkv" || stream.Size != 4096 || stream.Source != "real-debrid" {
		t.Fatalf("unexpected stream: %#v", stream)
	}

	wantStatuses := []string{StatusSubmitted, "queued", "downloading", "downloaded"}
	if len(rec.entries) != len(wantStatuses) {
		t.Fatalf("recorded %d entries, want %d", len(rec.entries), len(wantStatuses))
	}
	for i, want := range wantStatuses {
		if rec.entries[i].status != want || rec.entries[i].jobID != "J1" || rec.entries[i].reference != testMagnet {
			t.Fatalf("entry %d = %#v, want status %q", i, rec.entries[i], want)
		}
	}
	if waits := fake.Waits(); len(waits) != 2 || waits[0] != 10*time.Second {
		t.Fatalf("unexpected waits: %v", waits)
	}
	if !rec.entries[3].at.After(rec.entries[1].at) {
		t.Fatal("check times should follow the clock")
	}
}

func TestResolveReusesFinishedJob(t *testing.T) {
	api := &fakeAPI{
		torrents: []debrid.Torrent{
			{ID: "OLD", Hash: "ffff", Status: debrid.StatusDownloaded},
			{ID: "J7", Hash: "0123456789abcdef0123456789abcdef01234567", Status: debrid.StatusDownloaded, Links: []string{"l/race"}},
		},
		unrestricted: map[string]*debrid.UnrestrictedLink{
			"l/race": {Filename: "Race.mp4", Download: "https://cdn.example/race.mp4"},
		},
	}
	rec := &fakeRecorder{}
	r, fake := newTestResolver(api, rec, 5)

	result, err := r.Resolve(context.Background(), testMagnet, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeReady || result.JobID != "J7" || !result.Reused {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(api.added) != 0 || api.infoCalls != 0 {
		t.Fatalf("finished job must skip submit and poll: added=%v polls=%d", api.added, api.infoCalls)
	}
	if len(fake.Waits()) != 0 {
		t.Fatalf("unexpected waits: %v", fake.Waits())
	}
	if len(rec.entries) != 1 || rec.entries[0].status != "downloaded" {
		t.Fatalf("unexpected progress: %#v", rec.entries)
	}
}

func TestResolvePollsUnfinishedJobAndDefers(t *testing.T) {
	api := &fakeAPI{
		torrents: []debrid.Torrent{{ID: "J3", Hash: "0123456789ABCDEF0123456789ABCDEF01234567", Status: debrid.StatusDownloading}},
		infos:    []debrid.Torrent{{Status: debrid.StatusDownloading, Progress: 12}},
	}
	rec := &fakeRecorder{}
	r, fake := newTestResolver(api, rec, 4)

	result, err := r.Resolve(context.Background(), testMagnet, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeDeferred {
		t.Fatalf("outcome = %v, want deferred", result.Outcome)
	}
	if len(api.added) != 0 {
		t.Fatal("unfinished existing job must not be resubmitted")
	}
	if result.Attempts != 4 || api.infoCalls != 4 || len(rec.entries) != 4 {
		t.Fatalf("attempts=%d polls=%d records=%d", result.Attempts, api.infoCalls, len(rec.entries))
	}
	if len(fake.Waits()) != 3 {
		t.Fatalf("waits = %v, want 3", fake.Waits())
	}
	if result.Progress != 12 || result.Status != "downloading" {
		t.Fatalf("unexpected progress: %#v", result)
	}
}

func TestResolveTerminalFailure(t *testing.T) {
	api := &fakeAPI{infos: []debrid.Torrent{{Status: debrid.StatusQueued}, {Status: debrid.StatusDead}}}
	rec := &fakeRecorder{}
	r, _ := newTestResolver(api, rec, 10)

	result, err := r.Resolve(context.Background(), testMagnet, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeFailed || result.Status != "dead" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if last := rec.entries[len(rec.entries)-1]; last.status != "dead" {
		t.Fatalf("failure status not recorded: %#v", last)
	}
	if api.infoCalls != 2 {
		t.Fatalf("polls = %d, want 2", api.infoCalls)
	}
}

func TestResolveReselectsFiles(t *testing.T) {
	api := &fakeAPI{
		infos: []debrid.Torrent{
			{Status: debrid.StatusWaitingFilesSelection},
			{Status: debrid.StatusDownloaded},
		},
	}
	r, _ := newTestResolver(api, nil, 3)

	result, err := r.Resolve(context.Background(), "magnet:?dn=no-hash", "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeReady || len(result.Streams) != 0 {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(api.selected) != 2 {
		t.Fatalf("expected re-selection, got %v", api.selected)
	}
}

func TestResolveRetriesTransientPollError(t *testing.T) {
	api := &fakeAPI{
		infoErrs: []error{&debrid.APIError{StatusCode: http.StatusBadGateway}},
		infos:    []debrid.Torrent{{}, {Status: debrid.StatusDownloaded}},
	}
	r, _ := newTestResolver(api, &fakeRecorder{}, 3)

	result, err := r.Resolve(context.Background(), testMagnet, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeReady || result.Attempts != 2 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestResolveSurfacesErrors(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("connection refused")}
	r, _ := newTestResolver(api, nil, 3)
	if _, err := r.Resolve(context.Background(), testMagnet, ""); err == nil {
		t.Fatal("expected list error")
	}

	api = &fakeAPI{infoErrs: []error{&debrid.APIError{StatusCode: http.StatusForbidden}}}
	r, _ = newTestResolver(api, nil, 3)
	if _, err := r.Resolve(context.Background(), testMagnet, ""); err == nil {
		t.Fatal("expected permanent poll error")
	}

	api = &fakeAPI{infos: []debrid.Torrent{{Status: debrid.StatusQueued}}}
	r, _ = newTestResolver(api, &fakeRecorder{err: errors.New("disk full")}, 3)
	if _, err := r.Resolve(context.Background(), testMagnet, ""); err == nil {
		t.Fatal("expected recorder error")
	}

	if _, err := r.Resolve(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestResolvePollsRecordedJobWithoutResubmitting(t *testing.T) {
	api := &fakeAPI{
		infos: []debrid.Torrent{{Hash: testHash, Status: debrid.StatusDownloading, Progress: 30}},
	}
	rec := &fakeRecorder{}
	r, _ := newTestResolver(api, rec, 2)

	result, err := r.Resolve(context.Background(), testMagnet, "J9")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeDeferred || result.JobID != "J9" || !result.Reused {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(api.added) != 0 || len(api.listPages) != 0 {
		t.Fatalf("recorded job must be polled directly: added=%v listed=%v", api.added, api.listPages)
	}
	if api.infoCalls != 3 {
		t.Fatalf("info calls = %d, want lookup plus 2 polls", api.infoCalls)
	}
	for _, entry := range rec.entries {
		if entry.jobID != "J9" {
			t.Fatalf("progress recorded against %q", entry.jobID)
		}
	}
}

func TestResolveCompletesRecordedFinishedJob(t *testing.T) {
	api := &fakeAPI{
		infos: []debrid.Torrent{{Hash: testHash, Status: debrid.StatusDownloaded, Links: []string{"l/race"}}},
		unrestricted: map[string]*debrid.UnrestrictedLink{
			"l/race": {Filename: "Race.mkv", Download: "https://cdn.example/race.mkv"},
		},
	}
	r, _ := newTestResolver(api, &fakeRecorder{}, 5)

	result, err := r.Resolve(context.Background(), testMagnet, "J9")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeReady || len(result.Streams) != 1 || api.infoCalls != 1 {
		t.Fatalf("result=%#v infoCalls=%d", result, api.infoCalls)
	}
	if len(api.added) != 0 {
		t.Fatalf("unexpected submission: %v", api.added)
	}
}

func TestResolveResubmitsWhenRecordedJobIsGone(t *testing.T) {
	api := &fakeAPI{
		infoErrs: []error{&debrid.APIError{StatusCode: http.StatusNotFound, Endpoint: "/torrents/info/J9"}},
		infos:    []debrid.Torrent{{}, {Status: debrid.StatusDownloaded}},
	}
	r, _ := newTestResolver(api, &fakeRecorder{}, 3)

	result, err := r.Resolve(context.Background(), testMagnet, "J9")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.Outcome != OutcomeReady || result.JobID != "J1" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if len(api.listPages) != 1 || len(api.added) != 1 {
		t.Fatalf("listed=%v added=%v", api.listPages, api.added)
	}

	api = &fakeAPI{infoErrs: []error{&debrid.APIError{StatusCode: http.StatusBadGateway}}}
	r, _ = newTestResolver(api, nil, 3)
	if _, err := r.Resolve(context.Background(), testMagnet, "J9"); err == nil {
		t.Fatal("expected lookup error when the recorded job cannot be read")
	}
	if len(api.added) != 0 {
		t.Fatalf("must not resubmit on a transient lookup error: %v", api.added)
	}
}

func TestResolveSearchesEveryJobPage(t *testing.T) {
	api := &fakeAPI{infos: []debrid.Torrent{{Status: debrid.StatusDownloading}}}
	for i := 0; i < 150; i++ {
		api.torrents = append(api.torrents, debrid.Torrent{ID: "other", Hash: "ffff", Status: debrid.StatusDownloaded})
	}
	api.torrents[130] = debrid.Torrent{ID: "J5", Hash: testHash, Status: debrid.StatusDownloading}
	r, _ := newTestResolver(api, &fakeRecorder{}, 1)

	result, err := r.Resolve(context.Background(), testMagnet, "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.JobID != "J5" || len(api.added) != 0 {
		t.Fatalf("job on the second page must be reused: result=%#v added=%v", result, api.added)
	}
	if len(api.listPages) != 2 || api.listPages[1] != 2 {
		t.Fatalf("listed pages = %v", api.listPages)
	}
}

func TestInfoHash(t *testing.T) {
	cases := map[string]string{
		testMagnet: "0123456789abcdef0123456789abcdef01234567",
		"magnet:?xt=urn:btih:AEBAGBAFAYDQQCIKBMGA2DQPCAIREEYU&dn=x": "0102030405060708090a0b0c0d0e0f1011121314",
		"magnet:?xt=urn:btmh:1220abcd":                              "",
		"https://example.com/file.torrent":                          "",
	}
	for magnet, want := range cases {
		if got := InfoHash(magnet); got != want {
			t.Errorf("InfoHash(%q) = %q, want %q", magnet, got, want)
		}
	}
}

func TestIsVideoFile(t *testing.T) {
	for _, name := range []string{"a.mkv", "B.MP4", "c.ts", "d.webm", "e.m4v", "f.mov", "g.avi"} {
		if !IsVideoFile(name) {
			t.Errorf("%s should be video", name)
		}
	}
	for _, name := range []string{"a.nfo", "b.srt", "c", "d.mkv.part"} {
		if IsVideoFile(name) {
			t.Errorf("%s should not be video", name)
		}
	}
}
