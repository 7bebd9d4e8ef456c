package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podkeep/internal/config"
	"podkeep/internal/enclosures"
	"podkeep/internal/itunes"
	"podkeep/internal/metadata"
	"podkeep/internal/player"
)

type fixture struct {
	app     *App
	store   *metadata.Store
	feedURL string
}

func newTestApp(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}

	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd"><channel>
<title>Test Show</title><description>desc</description><link>https://example.com</link>
<item><guid>e1</guid><title>Older Episode</title><pubDate>Mon, 02 Jan 2023 10:00:00 +0000</pubDate><itunes:duration>600</itunes:duration><enclosure url="%s/media/e1.mp3" type="audio/mpeg" length="9"/></item>
<item><guid>e2</guid><title>Newer Episode</title><pubDate>Tue, 03 Jan 2023 10:00:00 +0000</pubDate><itunes:duration>300</itunes:duration><enclosure url="%s/media/e2.mp3" type="audio/mpeg" length="9"/></item>
</channel></rss>`, serverURL, serverURL)
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("bytes"))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"results":[{"collectionId":7,"collectionName":"Test Show","artistName":"Author","feedUrl":"%s/feed"}]}`, serverURL)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	serverURL = server.URL
	f.feedURL = server.URL + "/feed"

	dir := t.TempDir()
	enclosuresDir := filepath.Join(dir, "enclosures")
	f.store = metadata.New(
		filepath.Join(dir, "local.json"),
		filepath.Join(dir, "roaming.json"),
		enclosuresDir,
		metadata.Options{Client: server.Client()},
	)
	if err := f.store.Load(metadata.SectionBoth); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults(dir)
	cfg.EnclosuresDir = enclosuresDir
	f.app = NewWithDependencies(cfg, filepath.Join(dir, "config.yaml"), Dependencies{
		HTTPClient: server.Client(),
		ITunes:     itunes.NewClient(server.Client(), server.URL),
		Store:      f.store,
		Enclosures: enclosures.New(f.store, server.Client(), enclosuresDir, nil),
		Player:     player.New(`sh -c "echo 'AV: 00:09:45 / 00:10:00'"`),
	})
	return f
}

func run(t *testing.T, f *fixture, input string) CommandResult {
	t.Helper()
	result, err := f.app.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute(%q) error = %v", input, err)
	}
	return result
}

func TestExitCommandSetsQuit(t *testing.T) {
	f := newTestApp(t)
	if !run(t, f, "quit").Quit {
		t.Fatal("expected quit result")
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newTestApp(t)
	result := run(t, f, "frobnicate")
	if !strings.Contains(result.Message, "unknown command") {
		t.Fatalf("unexpected response: %s", result.Message)
	}
}

func TestHelpListsKeyCommands(t *testing.T) {
	f := newTestApp(t)
	result := run(t, f, "help")
	for _, expected := range []string{"search <query>", "episodes <n|url>", "config [show]"} {
		if !strings.Contains(result.Message, expected) {
			t.Errorf("help output missing %q\n%s", expected, result.Message)
		}
	}
}

func TestConfigShowRendersYaml(t *testing.T) {
	f := newTestApp(t)
	result := run(t, f, "config show")
	if !strings.Contains(result.Message, "enclosures_dir:") {
		t.Fatalf("expected enclosures_dir in config output: %s", result.Message)
	}
}

func TestSearchThenStarByNumber(t *testing.T) {
	f := newTestApp(t)

	result := run(t, f, "search test show")
	if len(result.Podcasts) != 1 {
		t.Fatalf("podcasts = %+v, want one result", result.Podcasts)
	}
	if result.Podcasts[0].Index != 1 || result.Podcasts[0].Title != "Test Show" {
		t.Fatalf("unexpected first row: %+v", result.Podcasts[0])
	}
	if result.Podcasts[0].Starred {
		t.Fatal("result must not be starred yet")
	}

	starResult := run(t, f, "star 1")
	if !strings.Contains(starResult.Message, "Starred") {
		t.Fatalf("star response: %s", starResult.Message)
	}
	if !f.store.IsStarredPodcast(f.feedURL) {
		t.Fatal("podcast not starred in store")
	}
}

func TestListShowsStarredPodcasts(t *testing.T) {
	f := newTestApp(t)
	if err := f.store.StarPodcast(f.feedURL, true); err != nil {
		t.Fatal(err)
	}

	result := run(t, f, "list")
	if len(result.Podcasts) != 1 {
		t.Fatalf("podcasts = %+v", result.Podcasts)
	}
	row := result.Podcasts[0]
	if row.Title != "Test Show" || row.EpisodeCount != 2 || !row.Starred {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestListWithoutStars(t *testing.T) {
	f := newTestApp(t)
	result := run(t, f, "list")
	if !strings.Contains(result.Message, "No starred podcasts") {
		t.Fatalf("unexpected response: %s", result.Message)
	}
}

func TestEpisodesNewestFirst(t *testing.T) {
	f := newTestApp(t)

	result := run(t, f, "episodes "+f.feedURL)
	if len(result.Episodes) != 2 {
		t.Fatalf("episodes = %+v", result.Episodes)
	}
	if result.Episodes[0].Title != "Newer Episode" || result.Episodes[0].Index != 1 {
		t.Fatalf("first row = %+v, want the newer episode", result.Episodes[0])
	}
	if result.Episodes[1].Title != "Older Episode" {
		t.Fatalf("second row = %+v", result.Episodes[1])
	}
}

func TestDownloadAndDeleteByNumber(t *testing.T) {
	f := newTestApp(t)
	run(t, f, "episodes "+f.feedURL)

	result := run(t, f, "download 1")
	if !strings.Contains(result.Message, "Downloaded Newer Episode") {
		t.Fatalf("download response: %s", result.Message)
	}
	if !f.store.IsEpisodeDownloaded(f.feedURL, "e2") {
		t.Fatal("download not registered")
	}

	again := run(t, f, "download 1")
	if !strings.Contains(again.Message, "already downloaded") {
		t.Fatalf("repeat download response: %s", again.Message)
	}

	deleted := run(t, f, "delete 1")
	if !strings.Contains(deleted.Message, "Deleted download") {
		t.Fatalf("delete response: %s", deleted.Message)
	}
	if f.store.IsEpisodeDownloaded(f.feedURL, "e2") {
		t.Fatal("record survived delete")
	}
}

func TestPlayRecordsListeningStatus(t *testing.T) {
	f := newTestApp(t)
	run(t, f, "episodes "+f.feedURL)

	// The fake player reports 9:45 of 10:00, which counts as finished.
	result := run(t, f, "play 1")
	if !strings.Contains(result.Message, "Finished") {
		t.Fatalf("play response: %s", result.Message)
	}

	view, err := f.store.GetEpisode(f.feedURL, "e2")
	if err != nil {
		t.Fatal(err)
	}
	if view.Roaming == nil || !view.Roaming.Completed {
		t.Fatal("completion not stored")
	}
}

func TestEpisodeNumberOutOfRange(t *testing.T) {
	f := newTestApp(t)
	run(t, f, "episodes "+f.feedURL)

	result := run(t, f, "download 9")
	if !strings.Contains(result.Message, "no episode numbered 9") {
		t.Fatalf("unexpected response: %s", result.Message)
	}
}

func TestUpdateAllStarred(t *testing.T) {
	f := newTestApp(t)
	if err := f.store.StarPodcast(f.feedURL, true); err != nil {
		t.Fatal(err)
	}

	result := run(t, f, "update")
	if !strings.Contains(result.Message, "Updated 1 podcasts") {
		t.Fatalf("update response: %s", result.Message)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	f := newTestApp(t)
	if err := f.store.StarPodcast(f.feedURL, true); err != nil {
		t.Fatal(err)
	}
	run(t, f, "list")

	path := filepath.Join(t.TempDir(), "subs.opml")
	result := run(t, f, "export "+path)
	if !strings.Contains(result.Message, "Exported 1") {
		t.Fatalf("export response: %s", result.Message)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	// Import into a fresh app backed by a fresh store.
	g := newTestApp(t)
	imported := run(t, g, "import "+path)
	if !strings.Contains(imported.Message, "Imported 1") {
		t.Fatalf("import response: %s", imported.Message)
	}
	urls := g.store.StarredPodcastURLs()
	if len(urls) != 1 || urls[0] != f.feedURL {
		t.Fatalf("starred after import = %v", urls)
	}
}
