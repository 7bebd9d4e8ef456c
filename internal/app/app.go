package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"podkeep/internal/config"
	"podkeep/internal/domain"
	"podkeep/internal/enclosures"
	"podkeep/internal/fuzzy"
	"podkeep/internal/itunes"
	"podkeep/internal/metadata"
	"podkeep/internal/opml"
	"podkeep/internal/player"
)

type commandHandler func(context.Context, []string) (CommandResult, error)

type command struct {
	usage   string
	summary string
	handler commandHandler
}

// CommandResult is what a command hands back to the UI: a message, a
// podcast listing, or an episode listing. Listings renumber the session's
// reference indices.
type CommandResult struct {
	Message       string
	Quit          bool
	Podcasts      []PodcastItem
	PodcastsTitle string
	Episodes      []EpisodeItem
	EpisodesTitle string
}

// PodcastItem is one row of a podcast listing. Index is the session-local
// reference number accepted by commands like "episodes 2".
type PodcastItem struct {
	Index        int
	FeedURL      string
	Title        string
	Author       string
	Description  string
	Starred      bool
	EpisodeCount int
}

// EpisodeItem is one row of an episode listing.
type EpisodeItem struct {
	Index           int
	FeedURL         string
	GUID            string
	Title           string
	Description     string
	DurationSeconds int
	PublishedAt     time.Time
	Downloaded      bool
	Completed       bool
	PositionSeconds int
	Explicit        bool
}

type episodeRef struct {
	feedURL string
	guid    string
	title   string
}

// App owns the command surface of the REPL. It resolves numbered
// references against the most recent listing, so "download 3" means the
// third row the user last saw.
type App struct {
	config     config.Config
	configPath string
	httpClient *http.Client
	itunes     *itunes.Client
	store      *metadata.Store
	enclosures *enclosures.Service
	player     *player.Player
	commands   map[string]*command

	mu           sync.Mutex
	lastPodcasts []PodcastItem
	lastEpisodes []episodeRef
	downloading  bool
}

// Dependencies allows tests to inject fakes.
type Dependencies struct {
	HTTPClient *http.Client
	ITunes     *itunes.Client
	Store      *metadata.Store
	Enclosures *enclosures.Service
	Player     *player.Player
}

// listFetchParallelism bounds how many feeds a list command refreshes at
// once.
const listFetchParallelism = 4

func New(cfg config.Config, configPath string) *App {
	return NewWithDependencies(cfg, configPath, Dependencies{})
}

func NewWithDependencies(cfg config.Config, configPath string, deps Dependencies) *App {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
		}
		if proxyURL := strings.TrimSpace(cfg.Proxy); proxyURL != "" {
			if parsed, err := url.Parse(proxyURL); err == nil {
				transport.Proxy = http.ProxyURL(parsed)
			}
		}
		httpClient = &http.Client{Timeout: 30 * time.Second, Transport: transport}
	}

	itunesClient := deps.ITunes
	if itunesClient == nil {
		itunesClient = itunes.NewClient(httpClient, "")
	}

	application := &App{
		config:     cfg,
		configPath: configPath,
		httpClient: httpClient,
		itunes:     itunesClient,
		store:      deps.Store,
		enclosures: deps.Enclosures,
		player:     deps.Player,
		commands:   make(map[string]*command),
	}
	if application.player == nil {
		application.player = player.New(cfg.PlayerCommand)
	}
	application.registerCommands()
	return application
}

func (a *App) Config() config.Config {
	return a.config
}

// Store exposes the metadata store for the UI's watcher callback.
func (a *App) Store() *metadata.Store {
	return a.store
}

func (a *App) CommandNames() []string {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *App) Execute(ctx context.Context, input string) (CommandResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return CommandResult{}, nil
	}

	args, err := shellquote.Split(input)
	if err != nil {
		return CommandResult{}, err
	}
	if len(args) == 0 {
		return CommandResult{}, nil
	}

	cmdName := strings.ToLower(args[0])
	cmd, ok := a.commands[cmdName]
	if !ok {
		return CommandResult{Message: fmt.Sprintf("unknown command: %s", args[0])}, nil
	}

	return cmd.handler(ctx, args[1:])
}

func (a *App) registerCommands() {
	a.registerCommand("search", "search <query>", "Search the podcast directory", a.searchCommand, "s")
	a.registerCommand("star", "star <n|url>", "Star a podcast so it roams and is never purged", a.starCommand)
	a.registerCommand("unstar", "unstar <n|url>", "Remove a podcast's star", a.unstarCommand)
	a.registerCommand("list", "list [filter]", "List starred podcasts", a.listCommand, "ls")
	a.registerCommand("episodes", "episodes <n|url>", "List a podcast's episodes", a.episodesCommand, "e")
	a.registerCommand("play", "play <n>", "Play an episode, resuming where you left off", a.playCommand, "p")
	a.registerCommand("download", "download <n>", "Download an episode's audio file", a.downloadCommand, "d")
	a.registerCommand("delete", "delete <n>", "Delete an episode's downloaded file", a.deleteCommand)
	a.registerCommand("update", "update [n|url]", "Refresh feeds, bypassing the cache", a.updateCommand, "u")
	a.registerCommand("import", "import <file>", "Star all podcasts from an OPML file", a.importCommand)
	a.registerCommand("export", "export <file>", "Export starred podcasts to an OPML file", a.exportCommand)
	a.registerCommand("config", "config [show]", "View or edit application configuration", a.configCommand)
	a.registerCommand("help", "help", "List available commands", a.helpCommand, "h", "?")
	a.registerCommand("exit", "exit", "Exit the application", a.exitCommand, "quit")
}

func (a *App) registerCommand(name, usage, summary string, handler commandHandler, aliases ...string) {
	cmd := &command{usage: usage, summary: summary, handler: handler}
	names := append([]string{name}, aliases...)
	for _, alias := range names {
		a.commands[alias] = cmd
	}
}

func (a *App) rememberPodcasts(items []PodcastItem) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastPodcasts = items
}

func (a *App) rememberEpisodes(refs []episodeRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastEpisodes = refs
}

// resolveFeedURL turns a command argument into a feed URL: either a
// reference number into the last podcast listing or a literal URL.
func (a *App) resolveFeedURL(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if n, err := strconv.Atoi(arg); err == nil {
		a.mu.Lock()
		defer a.mu.Unlock()
		if n < 1 || n > len(a.lastPodcasts) {
			return "", fmt.Errorf("no podcast numbered %d in the last listing", n)
		}
		return a.lastPodcasts[n-1].FeedURL, nil
	}
	if strings.Contains(arg, "://") {
		return arg, nil
	}
	return "", fmt.Errorf("%q is neither a listing number nor a feed URL", arg)
}

func (a *App) resolveEpisode(arg string) (episodeRef, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return episodeRef{}, fmt.Errorf("%q is not an episode number", arg)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 1 || n > len(a.lastEpisodes) {
		return episodeRef{}, fmt.Errorf("no episode numbered %d in the last listing", n)
	}
	return a.lastEpisodes[n-1], nil
}

func (a *App) searchCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) == 0 {
		return CommandResult{Message: "Usage: search <query>"}, nil
	}
	term := strings.Join(args, " ")

	results, err := a.itunes.Search(ctx, term, 25)
	if err != nil {
		return CommandResult{}, err
	}
	if len(results) == 0 {
		return CommandResult{Message: "No podcasts found."}, nil
	}

	type scoredResult struct {
		podcast itunes.Podcast
		score   float64
	}
	scored := make([]scoredResult, 0, len(results))
	for _, r := range results {
		titleScore := fuzzy.Score(r.Title, term)
		authorScore := fuzzy.Score(r.Author, term) * 0.5
		best := titleScore
		if authorScore > best {
			best = authorScore
		}
		if best > 0.3 {
			scored = append(scored, scoredResult{podcast: r, score: best})
		}
	}
	if len(scored) == 0 {
		return CommandResult{Message: "No podcasts found."}, nil
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > 10 {
		scored = scored[:10]
	}

	items := make([]PodcastItem, 0, len(scored))
	for i, s := range scored {
		items = append(items, PodcastItem{
			Index:       i + 1,
			FeedURL:     s.podcast.FeedURL,
			Title:       s.podcast.Title,
			Author:      s.podcast.Author,
			Description: s.podcast.Description,
			Starred:     a.store.IsStarredPodcast(s.podcast.FeedURL),
		})
	}
	a.rememberPodcasts(items)

	return CommandResult{Podcasts: items, PodcastsTitle: "Search Results"}, nil
}

func (a *App) starCommand(ctx context.Context, args []string) (CommandResult, error) {
	return a.setStar(ctx, args, true)
}

func (a *App) unstarCommand(ctx context.Context, args []string) (CommandResult, error) {
	return a.setStar(ctx, args, false)
}

func (a *App) setStar(ctx context.Context, args []string, starred bool) (CommandResult, error) {
	if len(args) != 1 {
		verb := "star"
		if !starred {
			verb = "unstar"
		}
		return CommandResult{Message: fmt.Sprintf("Usage: %s <n|url>", verb)}, nil
	}
	feedURL, err := a.resolveFeedURL(args[0])
	if err != nil {
		return CommandResult{Message: err.Error()}, nil
	}
	if err := a.store.StarPodcast(feedURL, starred); err != nil {
		return CommandResult{}, err
	}

	if starred {
		// Warm the cache so the next list doesn't block on this feed.
		// Failures are not fatal: the star itself already succeeded.
		if _, err := a.store.FetchPodcast(ctx, feedURL, a.listMaxAge()); err != nil {
			log.Printf("warming cache for %s: %v", feedURL, err)
			return CommandResult{Message: fmt.Sprintf("Starred %s (feed not reachable right now).", feedURL)}, nil
		}
		title := feedURL
		if view, ok := a.store.GetPodcast(feedURL); ok && view.Local != nil {
			title = view.Local.Title
		}
		return CommandResult{Message: fmt.Sprintf("Starred %s.", title)}, nil
	}
	return CommandResult{Message: "Star removed."}, nil
}

func (a *App) listCommand(ctx context.Context, args []string) (CommandResult, error) {
	urls := a.store.StarredPodcastURLs()
	if len(urls) == 0 {
		return CommandResult{Message: "No starred podcasts yet. Try: search <query>"}, nil
	}

	// Refresh stale feeds in parallel; a single unreachable feed must not
	// take the whole listing down.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(listFetchParallelism)
	for _, feedURL := range urls {
		feedURL := feedURL
		group.Go(func() error {
			if _, err := a.store.FetchPodcast(groupCtx, feedURL, a.listMaxAge()); err != nil {
				log.Printf("refreshing %s for listing: %v", feedURL, err)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return CommandResult{}, err
	}

	filter := strings.Join(args, " ")
	items := make([]PodcastItem, 0, len(urls))
	for _, feedURL := range urls {
		view, ok := a.store.GetPodcast(feedURL)
		if !ok {
			continue
		}
		item := PodcastItem{
			FeedURL: feedURL,
			Title:   feedURL,
			Starred: true,
		}
		if view.Local != nil {
			item.Title = view.Local.Title
			item.Description = view.Local.Description
			item.EpisodeCount = len(view.Local.Episodes)
		}
		if filter != "" && !fuzzy.Match(item.Title, filter) {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return CommandResult{Message: fmt.Sprintf("No starred podcasts matching %q.", filter)}, nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	})
	for i := range items {
		items[i].Index = i + 1
	}
	a.rememberPodcasts(items)

	return CommandResult{Podcasts: items, PodcastsTitle: "Starred Podcasts"}, nil
}

func (a *App) episodesCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: episodes <n|url>"}, nil
	}
	feedURL, err := a.resolveFeedURL(args[0])
	if err != nil {
		return CommandResult{Message: err.Error()}, nil
	}

	view, err := a.store.FetchPodcast(ctx, feedURL, a.episodeMaxAge())
	if err != nil {
		return CommandResult{}, err
	}
	if view.Local == nil || len(view.Local.Episodes) == 0 {
		return CommandResult{Message: "No episodes in this feed."}, nil
	}

	items := a.episodeListing(view)
	refs := make([]episodeRef, len(items))
	for i, item := range items {
		refs[i] = episodeRef{feedURL: item.FeedURL, guid: item.GUID, title: item.Title}
	}
	a.rememberEpisodes(refs)

	return CommandResult{Episodes: items, EpisodesTitle: view.Local.Title}, nil
}

// episodeListing flattens a podcast view into display rows, newest first.
func (a *App) episodeListing(view domain.PodcastView) []EpisodeItem {
	items := make([]EpisodeItem, 0, len(view.Local.Episodes))
	for guid, ep := range view.Local.Episodes {
		item := EpisodeItem{
			FeedURL:         view.FeedURL,
			GUID:            guid,
			Title:           ep.Title,
			Description:     ep.Description,
			DurationSeconds: ep.DurationSeconds,
			Downloaded:      a.store.IsEpisodeDownloaded(view.FeedURL, guid),
			Explicit:        ep.Explicit,
		}
		if ep.PublishedAt > 0 {
			item.PublishedAt = time.UnixMilli(ep.PublishedAt)
		}
		if view.Roaming != nil {
			if status, ok := view.Roaming.Episodes[guid]; ok {
				item.Completed = status.Completed
				item.PositionSeconds = status.LastPositionSeconds
			}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].Title < items[j].Title
	})
	for i := range items {
		items[i].Index = i + 1
	}
	return items
}

func (a *App) playCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: play <n>"}, nil
	}
	ref, err := a.resolveEpisode(args[0])
	if err != nil {
		return CommandResult{Message: err.Error()}, nil
	}

	// Playing an episode downloads it first when needed.
	path, result, err := a.fetchEnclosure(ctx, ref)
	if err != nil {
		return result, err
	}
	if result.Message != "" {
		return result, nil
	}

	start := a.store.LastListeningPosition(ref.feedURL, ref.guid)
	playback, err := a.player.Play(ctx, path, start)

	// Whatever the player did before failing still counts as listening
	// progress.
	if storeErr := a.store.StoreListeningStatus(ref.feedURL, ref.guid, playback.Completed, playback.PositionSeconds); storeErr != nil {
		log.Printf("storing listening status for %s: %v", ref.guid, storeErr)
	}
	if err != nil {
		return CommandResult{}, err
	}

	if playback.Completed {
		return CommandResult{Message: fmt.Sprintf("Finished %s.", ref.title)}, nil
	}
	return CommandResult{Message: fmt.Sprintf("Stopped %s at %s.", ref.title, formatDuration(playback.PositionSeconds))}, nil
}

func (a *App) downloadCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: download <n>"}, nil
	}
	ref, err := a.resolveEpisode(args[0])
	if err != nil {
		return CommandResult{Message: err.Error()}, nil
	}

	if a.store.IsEpisodeDownloaded(ref.feedURL, ref.guid) {
		return CommandResult{Message: fmt.Sprintf("%s is already downloaded.", ref.title)}, nil
	}

	path, result, err := a.fetchEnclosure(ctx, ref)
	if err != nil {
		return result, err
	}
	if result.Message != "" {
		return result, nil
	}
	return CommandResult{Message: fmt.Sprintf("Downloaded %s to %s.", ref.title, path)}, nil
}

// fetchEnclosure downloads an episode under the one-at-a-time policy. A
// non-empty Message in the result means the download did not happen and
// the message explains why.
func (a *App) fetchEnclosure(ctx context.Context, ref episodeRef) (string, CommandResult, error) {
	if existing, ok := a.store.DownloadedFilename(ref.feedURL, ref.guid); ok {
		return a.store.EnclosurePath(existing), CommandResult{}, nil
	}

	a.mu.Lock()
	if a.downloading {
		a.mu.Unlock()
		return "", CommandResult{Message: "Another download is already running."}, nil
	}
	a.downloading = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.downloading = false
		a.mu.Unlock()
	}()

	path, err := a.enclosures.Fetch(ctx, ref.feedURL, ref.guid, nil)
	if err != nil {
		if errors.Is(err, enclosures.ErrCancelled) {
			return "", CommandResult{Message: "Download cancelled."}, nil
		}
		return "", CommandResult{}, err
	}
	return path, CommandResult{}, nil
}

func (a *App) deleteCommand(_ context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: delete <n>"}, nil
	}
	ref, err := a.resolveEpisode(args[0])
	if err != nil {
		return CommandResult{Message: err.Error()}, nil
	}
	if !a.store.IsEpisodeDownloaded(ref.feedURL, ref.guid) {
		return CommandResult{Message: fmt.Sprintf("%s is not downloaded.", ref.title)}, nil
	}
	if err := a.enclosures.Delete(ref.feedURL, ref.guid); err != nil {
		return CommandResult{}, err
	}
	return CommandResult{Message: fmt.Sprintf("Deleted download of %s.", ref.title)}, nil
}

func (a *App) updateCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) > 1 {
		return CommandResult{Message: "Usage: update [n|url]"}, nil
	}

	if len(args) == 1 {
		feedURL, err := a.resolveFeedURL(args[0])
		if err != nil {
			return CommandResult{Message: err.Error()}, nil
		}
		view, err := a.store.UpdatePodcast(ctx, feedURL)
		if err != nil {
			return CommandResult{}, err
		}
		title := feedURL
		if view.Local != nil {
			title = view.Local.Title
		}
		return CommandResult{Message: fmt.Sprintf("Updated %s.", title)}, nil
	}

	urls := a.store.StarredPodcastURLs()
	if len(urls) == 0 {
		return CommandResult{Message: "No starred podcasts to update."}, nil
	}

	var failed atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(listFetchParallelism)
	for _, feedURL := range urls {
		feedURL := feedURL
		group.Go(func() error {
			if _, err := a.store.UpdatePodcast(groupCtx, feedURL); err != nil {
				log.Printf("updating %s: %v", feedURL, err)
				failed.Add(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return CommandResult{}, err
	}

	if n := int(failed.Load()); n > 0 {
		return CommandResult{Message: fmt.Sprintf("Updated %d podcasts, %d failed (see log).", len(urls)-n, n)}, nil
	}
	return CommandResult{Message: fmt.Sprintf("Updated %d podcasts.", len(urls))}, nil
}

func (a *App) importCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: import <file>"}, nil
	}

	file, err := os.Open(args[0])
	if err != nil {
		return CommandResult{}, err
	}
	defer file.Close()

	subs, err := opml.Import(file)
	if err != nil {
		return CommandResult{}, err
	}
	if len(subs) == 0 {
		return CommandResult{Message: "No subscriptions in that file."}, nil
	}

	imported, skipped := 0, 0
	for _, sub := range subs {
		if a.store.IsStarredPodcast(sub.FeedURL) {
			skipped++
			continue
		}
		if err := a.store.StarPodcast(sub.FeedURL, true); err != nil {
			return CommandResult{}, err
		}
		if _, err := a.store.FetchPodcast(ctx, sub.FeedURL, a.listMaxAge()); err != nil {
			log.Printf("importing %s: %v", sub.FeedURL, err)
		}
		imported++
	}

	msg := fmt.Sprintf("Imported %d subscriptions", imported)
	if skipped > 0 {
		msg += fmt.Sprintf(", skipped %d already starred", skipped)
	}
	return CommandResult{Message: msg + "."}, nil
}

func (a *App) exportCommand(_ context.Context, args []string) (CommandResult, error) {
	if len(args) != 1 {
		return CommandResult{Message: "Usage: export <file>"}, nil
	}

	urls := a.store.StarredPodcastURLs()
	if len(urls) == 0 {
		return CommandResult{Message: "No starred podcasts to export."}, nil
	}

	subs := make([]opml.Subscription, 0, len(urls))
	for _, feedURL := range urls {
		title := feedURL
		if view, ok := a.store.GetPodcast(feedURL); ok && view.Local != nil && view.Local.Title != "" {
			title = view.Local.Title
		}
		subs = append(subs, opml.Subscription{Title: title, FeedURL: feedURL})
	}

	file, err := os.Create(args[0])
	if err != nil {
		return CommandResult{}, err
	}
	defer file.Close()

	if err := opml.Export(file, subs); err != nil {
		return CommandResult{}, err
	}
	return CommandResult{Message: fmt.Sprintf("Exported %d subscriptions.", len(subs))}, nil
}

// ImportOPML and ExportOPML expose the OPML commands for one-shot CLI
// invocations.
func (a *App) ImportOPML(ctx context.Context, path string) (CommandResult, error) {
	return a.importCommand(ctx, []string{path})
}

func (a *App) ExportOPML(ctx context.Context, path string) (CommandResult, error) {
	return a.exportCommand(ctx, []string{path})
}

func (a *App) configCommand(ctx context.Context, args []string) (CommandResult, error) {
	if len(args) == 0 {
		return CommandResult{Message: "Usage: config [show]"}, nil
	}
	switch strings.ToLower(args[0]) {
	case "show":
		data, err := yaml.Marshal(a.config)
		if err != nil {
			return CommandResult{}, err
		}
		return CommandResult{Message: string(data)}, nil
	default:
		return a.editConfig(ctx)
	}
}

func (a *App) editConfig(ctx context.Context) (CommandResult, error) {
	updated, err := config.EditInteractive(ctx, a.config)
	if err != nil {
		return CommandResult{}, err
	}
	if err := config.Save(a.configPath, updated); err != nil {
		return CommandResult{}, err
	}
	a.config = updated
	log.Println("configuration updated")
	return CommandResult{Message: "Configuration saved. Restart to apply storage paths."}, nil
}

func (a *App) helpCommand(_ context.Context, _ []string) (CommandResult, error) {
	seen := make(map[*command]struct{})
	lines := make([]string, 0, len(a.commands))
	for _, name := range a.CommandNames() {
		cmd := a.commands[name]
		if _, ok := seen[cmd]; ok {
			continue
		}
		seen[cmd] = struct{}{}
		lines = append(lines, fmt.Sprintf("%-24s %s", cmd.usage, cmd.summary))
	}
	return CommandResult{Message: strings.Join(lines, "\n")}, nil
}

func (a *App) exitCommand(_ context.Context, _ []string) (CommandResult, error) {
	return CommandResult{Quit: true}, nil
}

func (a *App) listMaxAge() time.Duration {
	return time.Duration(a.config.ListMaxAgeMinutes) * time.Minute
}

func (a *App) episodeMaxAge() time.Duration {
	return time.Duration(a.config.EpisodeMaxAgeMinutes) * time.Minute
}

func formatDuration(seconds int) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
