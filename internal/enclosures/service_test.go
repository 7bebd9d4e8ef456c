package enclosures

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"podkeep/internal/metadata"
)

type stubProber struct {
	seconds int
	err     error
	calls   int
}

func (p *stubProber) Duration(context.Context, string) (int, error) {
	p.calls++
	return p.seconds, p.err
}

// testFixture wires a metadata store holding one episode whose enclosure
// is served by the returned test server.
type testFixture struct {
	store   *metadata.Store
	server  *httptest.Server
	dir     string
	feedURL string

	enclosureHits atomic.Int64
	enclosure     []byte
	blockBody     chan struct{}
}

func newFixture(t *testing.T, withDuration bool) *testFixture {
	t.Helper()
	f := &testFixture{enclosure: []byte("fake audio bytes")}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) {
		duration := ""
		if withDuration {
			duration = "<itunes:duration>600</itunes:duration>"
		}
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"><channel>
<title>Show</title>
<item><guid>ep-1</guid><title>One</title>%s<enclosure url="%s/media/ep1.ogg" type="audio/ogg" length="16"/></item>
</channel></rss>`, duration, f.server.URL)
	})
	mux.HandleFunc("/media/ep1.ogg", func(w http.ResponseWriter, r *http.Request) {
		f.enclosureHits.Add(1)
		if f.blockBody != nil {
			w.Header().Set("Content-Length", "1000000")
			w.WriteHeader(http.StatusOK)
			w.Write(f.enclosure)
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
			select {
			case <-f.blockBody:
			case <-r.Context().Done():
			}
			return
		}
		w.Write(f.enclosure)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	f.feedURL = f.server.URL + "/feed"

	base := t.TempDir()
	f.dir = filepath.Join(base, "enclosures")
	f.store = metadata.New(
		filepath.Join(base, "local.json"),
		filepath.Join(base, "roaming.json"),
		f.dir,
		metadata.Options{Client: f.server.Client()},
	)
	if err := f.store.Load(metadata.SectionBoth); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.UpdatePodcast(context.Background(), f.feedURL); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	return f
}

func (f *testFixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFetchDownloadsAndRegisters(t *testing.T) {
	f := newFixture(t, false)
	prober := &stubProber{seconds: 432}
	svc := New(f.store, f.server.Client(), f.dir, prober)

	var lastFraction float64
	path, err := svc.Fetch(context.Background(), f.feedURL, "ep-1", func(fraction float64) {
		lastFraction = fraction
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading download: %v", err)
	}
	if string(data) != string(f.enclosure) {
		t.Error("downloaded bytes differ from served bytes")
	}
	if !strings.HasSuffix(path, ".ogg") {
		t.Errorf("extension not taken from URL path: %s", path)
	}
	if !f.store.IsEpisodeDownloaded(f.feedURL, "ep-1") {
		t.Error("download not registered")
	}
	if lastFraction != 1.0 {
		t.Errorf("final progress = %v, want 1.0", lastFraction)
	}
	if prober.calls != 1 {
		t.Errorf("prober calls = %d, want 1", prober.calls)
	}
	if seconds, ok := f.store.EpisodeDuration(f.feedURL, "ep-1"); !ok || seconds != 432 {
		t.Errorf("probed duration = %d/%v, want 432", seconds, ok)
	}
}

func TestFetchSkipsProbeWhenFeedHasDuration(t *testing.T) {
	f := newFixture(t, true)
	prober := &stubProber{seconds: 999}
	svc := New(f.store, f.server.Client(), f.dir, prober)

	if _, err := svc.Fetch(context.Background(), f.feedURL, "ep-1", nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if prober.calls != 0 {
		t.Errorf("prober must not run for feed-declared durations, calls = %d", prober.calls)
	}
	if seconds, _ := f.store.EpisodeDuration(f.feedURL, "ep-1"); seconds != 600 {
		t.Errorf("duration = %d, want feed value 600", seconds)
	}
}

func TestFetchReusesExistingDownload(t *testing.T) {
	f := newFixture(t, true)
	svc := New(f.store, f.server.Client(), f.dir, nil)
	ctx := context.Background()

	first, err := svc.Fetch(ctx, f.feedURL, "ep-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Fetch(ctx, f.feedURL, "ep-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if got := f.enclosureHits.Load(); got != 1 {
		t.Errorf("enclosure fetched %d times, want 1", got)
	}
}

func TestFetchCancellationLeavesNothing(t *testing.T) {
	f := newFixture(t, true)
	f.blockBody = make(chan struct{})
	defer close(f.blockBody)

	svc := New(f.store, f.server.Client(), f.dir, nil)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := svc.Fetch(ctx, f.feedURL, "ep-1", func(float64) {
		// First bytes arrived; abort mid-download.
		cancel()
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if f.store.IsEpisodeDownloaded(f.feedURL, "ep-1") {
		t.Error("cancelled download must not be registered")
	}
	if files := f.files(t); len(files) != 0 {
		t.Errorf("partial files left behind: %v", files)
	}
}

func TestFetchUnknownEpisode(t *testing.T) {
	f := newFixture(t, true)
	svc := New(f.store, f.server.Client(), f.dir, nil)

	if _, err := svc.Fetch(context.Background(), f.feedURL, "no-such", nil); !errors.Is(err, metadata.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesFileAndRecord(t *testing.T) {
	f := newFixture(t, true)
	svc := New(f.store, f.server.Client(), f.dir, nil)
	ctx := context.Background()

	path, err := svc.Fetch(ctx, f.feedURL, "ep-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(f.feedURL, "ep-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.store.IsEpisodeDownloaded(f.feedURL, "ep-1") {
		t.Error("record must be gone after delete")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file must be gone after delete")
	}

	// Deleting again is a no-op.
	if err := svc.Delete(f.feedURL, "ep-1"); err != nil {
		t.Errorf("repeated delete: %v", err)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/b/episode.ogg", ".ogg"},
		{"https://example.com/episode.MP3", ".mp3"},
		{"https://example.com/episode.m4a?auth=token", ".m4a"},
		{"https://example.com/stream", ".mp3"},
		{"https://example.com/file.something-long", ".mp3"},
	}
	for _, tc := range cases {
		if got := extensionFor(tc.url); got != tc.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
