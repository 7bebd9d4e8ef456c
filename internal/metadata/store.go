package metadata

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"podkeep/internal/clock"
	"podkeep/internal/domain"
	"podkeep/internal/feeds"
)

// ErrNotFound is returned for reads of podcasts or episodes neither store
// knows anything about.
var ErrNotFound = errors.New("podcast not known")

const defaultPurgeAfter = 30 * 24 * time.Hour

// Store owns the two persisted podcast mappings. The local side is a
// disposable per-device cache of feed contents and download records; the
// roaming side is durable user intent (stars, listening progress) living
// in a possibly cloud-synced file. All mutation goes through store
// methods and every mutation persists the touched side.
type Store struct {
	localPath     string
	roamingPath   string
	enclosuresDir string
	client        *http.Client
	clk           clock.Clock
	purgeAfter    time.Duration

	// refreshes collapses concurrent UpdatePodcast calls for the same
	// URL into a single in-flight fetch.
	refreshes singleflight.Group

	mu              sync.RWMutex
	local           map[string]*domain.LocalPodcast
	roaming         map[string]*domain.RoamingPodcast
	lastRoamingSave time.Time
}

// Options carries optional store dependencies; zero values select the
// defaults (shared HTTP client, system clock, 30 day purge age).
type Options struct {
	Client     *http.Client
	Clock      clock.Clock
	PurgeAfter time.Duration
}

// New creates a store over the two metadata files and the enclosures
// directory. Call Load before first use.
func New(localPath, roamingPath, enclosuresDir string, opts Options) *Store {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	purgeAfter := opts.PurgeAfter
	if purgeAfter <= 0 {
		purgeAfter = defaultPurgeAfter
	}
	return &Store{
		localPath:     localPath,
		roamingPath:   roamingPath,
		enclosuresDir: enclosuresDir,
		client:        client,
		clk:           clk,
		purgeAfter:    purgeAfter,
		local:         make(map[string]*domain.LocalPodcast),
		roaming:       make(map[string]*domain.RoamingPodcast),
	}
}

// FetchPodcast is a read-through cache lookup. The cached entry is
// returned as long as it is younger than maxAge; maxAge <= 0 accepts any
// cached copy. A miss or a stale entry triggers a full refresh.
func (s *Store) FetchPodcast(ctx context.Context, url string, maxAge time.Duration) (domain.PodcastView, error) {
	s.mu.RLock()
	cached := s.local[url]
	fresh := cached != nil &&
		(maxAge <= 0 || s.clk.Now().UnixMilli()-cached.LastRefreshedAt <= maxAge.Milliseconds())
	s.mu.RUnlock()

	if fresh {
		view, _ := s.GetPodcast(url)
		return view, nil
	}
	return s.UpdatePodcast(ctx, url)
}

// UpdatePodcast unconditionally refreshes a feed, following next-page
// links until a page overlaps episodes already seen. Concurrent calls for
// the same URL share one refresh. A first-page failure leaves the cached
// entry untouched.
func (s *Store) UpdatePodcast(ctx context.Context, url string) (domain.PodcastView, error) {
	_, err, _ := s.refreshes.Do(url, func() (interface{}, error) {
		return nil, s.refresh(ctx, url)
	})
	if err != nil {
		return domain.PodcastView{}, err
	}
	view, _ := s.GetPodcast(url)
	return view, nil
}

func (s *Store) refresh(ctx context.Context, url string) error {
	s.mu.RLock()
	old := s.local[url].Clone()
	s.mu.RUnlock()

	acc := newAccumulator()
	visited := make(map[string]struct{})
	pageURL := url
	for pageURL != "" {
		if _, ok := visited[pageURL]; ok {
			log.Printf("feed %s: pagination loop at %s, stopping", url, pageURL)
			break
		}
		visited[pageURL] = struct{}{}

		firstPage := len(visited) == 1
		data, err := feeds.Fetch(ctx, s.client, pageURL)
		if err != nil {
			if firstPage {
				return err
			}
			log.Printf("feed %s: page %s failed, treating as end of pagination: %v", url, pageURL, err)
			break
		}
		page, err := feeds.Parse(data)
		if err != nil {
			if firstPage {
				return err
			}
			log.Printf("feed %s: page %s unparsable, treating as end of pagination: %v", url, pageURL, err)
			break
		}

		if overlap := acc.add(page); overlap {
			// This page repeats episodes from an earlier page, so it is
			// the last page carrying anything new. Whatever lies beyond
			// it is already covered by the previous snapshot.
			break
		}
		pageURL = feeds.NextPageURL(data)
	}

	now := s.clk.Now().UnixMilli()
	merged := mergeSnapshots(old, acc, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Orphan sweep: downloads whose episode vanished from the feed lose
	// both file and record. Deletion failures must not block the persist.
	for guid, rec := range merged.Downloaded {
		if _, ok := merged.Episodes[guid]; ok {
			continue
		}
		path := filepath.Join(s.enclosuresDir, rec.Filename)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("feed %s: removing orphaned enclosure %s: %v", url, rec.Filename, err)
		}
		delete(merged.Downloaded, guid)
	}

	s.local[url] = merged
	return s.saveLocalLocked()
}

// GetPodcast is a pure read; it never fetches. The boolean reports
// whether either side knows the URL.
func (s *Store) GetPodcast(url string) (domain.PodcastView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := domain.PodcastView{
		FeedURL: url,
		Local:   s.local[url].Clone(),
		Roaming: s.roaming[url].Clone(),
	}
	return view, view.Local != nil || view.Roaming != nil
}

// GetEpisode joins both stores for one episode. ErrNotFound means neither
// store has any trace of it.
func (s *Store) GetEpisode(feedURL, guid string) (domain.EpisodeView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := domain.EpisodeView{FeedURL: feedURL, GUID: guid}
	if local := s.local[feedURL]; local != nil {
		if ep, ok := local.Episodes[guid]; ok {
			view.Local = &ep
		}
	}
	if roaming := s.roaming[feedURL]; roaming != nil {
		if ep, ok := roaming.Episodes[guid]; ok {
			view.Roaming = &ep
		}
	}
	if view.Local == nil && view.Roaming == nil {
		return view, ErrNotFound
	}
	return view, nil
}

// StarPodcast records the star in the roaming store, creating the entry
// on demand. Starring never requires the feed to have been fetched.
func (s *Store) StarPodcast(url string, starred bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.roaming[url]
	if entry == nil {
		entry = &domain.RoamingPodcast{}
		s.roaming[url] = entry
	}
	entry.Starred = starred
	return s.saveRoamingLocked()
}

// IsStarredPodcast reports the roaming star state for a feed URL.
func (s *Store) IsStarredPodcast(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry := s.roaming[url]
	return entry != nil && entry.Starred
}

// StarredPodcastURLs returns the sorted list of starred feed URLs.
func (s *Store) StarredPodcastURLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	urls := make([]string, 0, len(s.roaming))
	for url, entry := range s.roaming {
		if entry.Starred {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)
	return urls
}

// StoreListeningStatus records playback progress for an episode, creating
// the roaming records on demand. It works even when the local cache for
// the feed has been purged.
func (s *Store) StoreListeningStatus(feedURL, guid string, completed bool, positionSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	podcast := s.roaming[feedURL]
	if podcast == nil {
		podcast = &domain.RoamingPodcast{}
		s.roaming[feedURL] = podcast
	}
	if podcast.Episodes == nil {
		podcast.Episodes = make(map[string]domain.RoamingEpisode)
	}

	ep := podcast.Episodes[guid]
	ep.Completed = completed
	if positionSeconds >= 0 {
		ep.LastPositionSeconds = positionSeconds
	}
	ep.LastPlayedAt = s.clk.Now().UnixMilli()
	podcast.Episodes[guid] = ep

	return s.saveRoamingLocked()
}

// LastListeningPosition returns the stored resume position in seconds, or
// zero when nothing is recorded.
func (s *Store) LastListeningPosition(feedURL, guid string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if podcast := s.roaming[feedURL]; podcast != nil {
		if ep, ok := podcast.Episodes[guid]; ok {
			return ep.LastPositionSeconds
		}
	}
	return 0
}

// EpisodeDuration reports the episode duration in seconds when known.
func (s *Store) EpisodeDuration(feedURL, guid string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if podcast := s.local[feedURL]; podcast != nil {
		if ep, ok := podcast.Episodes[guid]; ok && ep.DurationSeconds > 0 {
			return ep.DurationSeconds, true
		}
	}
	return 0, false
}

// IsEpisodeDownloaded reports whether a download record exists.
func (s *Store) IsEpisodeDownloaded(feedURL, guid string) bool {
	_, ok := s.DownloadedFilename(feedURL, guid)
	return ok
}

// DownloadedFilename returns the opaque enclosure filename for a
// downloaded episode.
func (s *Store) DownloadedFilename(feedURL, guid string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if podcast := s.local[feedURL]; podcast != nil {
		if rec, ok := podcast.Downloaded[guid]; ok {
			return rec.Filename, true
		}
	}
	return "", false
}

// RegisterDownload commits a download record for an episode that must
// already exist in the local cache.
func (s *Store) RegisterDownload(feedURL, guid, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	podcast := s.local[feedURL]
	if podcast == nil {
		return ErrNotFound
	}
	if _, ok := podcast.Episodes[guid]; !ok {
		return ErrNotFound
	}
	if podcast.Downloaded == nil {
		podcast.Downloaded = make(map[string]domain.DownloadRecord)
	}
	podcast.Downloaded[guid] = domain.DownloadRecord{Filename: filename}
	return s.saveLocalLocked()
}

// DropDownload removes a download record and returns the filename it
// pointed at, so the caller can remove the file.
func (s *Store) DropDownload(feedURL, guid string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	podcast := s.local[feedURL]
	if podcast == nil {
		return "", false, nil
	}
	rec, ok := podcast.Downloaded[guid]
	if !ok {
		return "", false, nil
	}
	delete(podcast.Downloaded, guid)
	return rec.Filename, true, s.saveLocalLocked()
}

// SetEpisodeDuration patches a probed duration into the local cache, used
// when the feed itself declared none.
func (s *Store) SetEpisodeDuration(feedURL, guid string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	podcast := s.local[feedURL]
	if podcast == nil {
		return ErrNotFound
	}
	ep, ok := podcast.Episodes[guid]
	if !ok {
		return ErrNotFound
	}
	ep.DurationSeconds = seconds
	podcast.Episodes[guid] = ep
	return s.saveLocalLocked()
}

// EnclosurePath resolves a downloaded episode's file path.
func (s *Store) EnclosurePath(filename string) string {
	return filepath.Join(s.enclosuresDir, filename)
}
