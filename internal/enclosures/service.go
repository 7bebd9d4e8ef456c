package enclosures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"podkeep/internal/metadata"
)

var (
	// ErrCancelled is returned when a download is aborted through its
	// context; the partial file is gone by the time the caller sees it.
	ErrCancelled = errors.New("download cancelled")
	// ErrInFlight is returned when the same episode is already being
	// downloaded.
	ErrInFlight = errors.New("download already in progress")
)

// ProgressFunc receives download progress as a fraction in [0, 1]. It is
// only called when the server announces a content length.
type ProgressFunc func(fraction float64)

type episodeKey struct {
	feedURL string
	guid    string
}

// Service downloads episode enclosures into the enclosures directory and
// keeps the download records in the metadata store consistent with the
// files on disk.
type Service struct {
	store  *metadata.Store
	client *http.Client
	dir    string
	prober DurationProber

	mu       sync.Mutex
	inflight map[episodeKey]struct{}
}

// New creates a download service over the metadata store. A nil prober
// disables duration probing.
func New(store *metadata.Store, client *http.Client, dir string, prober DurationProber) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		store:    store,
		client:   client,
		dir:      dir,
		prober:   prober,
		inflight: make(map[episodeKey]struct{}),
	}
}

// Fetch downloads an episode's enclosure and registers it in the
// metadata store. An already-downloaded episode returns its existing file
// without touching the network. When the feed declared no duration, the
// finished file is probed and the result patched into the store.
func (s *Service) Fetch(ctx context.Context, feedURL, guid string, progress ProgressFunc) (string, error) {
	if filename, ok := s.store.DownloadedFilename(feedURL, guid); ok {
		return filepath.Join(s.dir, filename), nil
	}

	view, err := s.store.GetEpisode(feedURL, guid)
	if err != nil {
		return "", err
	}
	if view.Local == nil || view.Local.EnclosureURL == "" {
		return "", fmt.Errorf("episode %s has no enclosure on record", guid)
	}

	key := episodeKey{feedURL: feedURL, guid: guid}
	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return "", ErrInFlight
	}
	s.inflight[key] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()

	filename, err := s.download(ctx, view.Local.EnclosureURL, progress)
	if err != nil {
		return "", err
	}
	if err := s.store.RegisterDownload(feedURL, guid, filename); err != nil {
		os.Remove(filepath.Join(s.dir, filename))
		return "", err
	}

	target := filepath.Join(s.dir, filename)
	if _, known := s.store.EpisodeDuration(feedURL, guid); !known && s.prober != nil {
		seconds, err := s.prober.Duration(ctx, target)
		if err != nil {
			log.Printf("probing duration of %s: %v", filename, err)
		} else if err := s.store.SetEpisodeDuration(feedURL, guid, seconds); err != nil {
			log.Printf("storing probed duration for %s: %v", guid, err)
		}
	}
	return target, nil
}

func (s *Service) download(ctx context.Context, enclosureURL string, progress ProgressFunc) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, enclosureURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: %s", enclosureURL, resp.Status)
	}

	filename, err := s.newFilename(extensionFor(enclosureURL))
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filename)
	file, err := os.Create(target)
	if err != nil {
		return "", err
	}

	reader := io.Reader(resp.Body)
	if progress != nil && resp.ContentLength > 0 {
		reader = &progressReader{
			inner:    resp.Body,
			total:    resp.ContentLength,
			progress: progress,
		}
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(target)
		if ctx.Err() != nil {
			return "", ErrCancelled
		}
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(target)
		return "", err
	}
	return filename, nil
}

// Delete removes an episode's download record and enclosure file. A
// missing file is not an error; the record is authoritative.
func (s *Service) Delete(feedURL, guid string) error {
	filename, ok, err := s.store.DropDownload(feedURL, guid)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// newFilename draws random names until one is free. Names are opaque on
// purpose: episode titles make terrible filenames.
func (s *Service) newFilename(ext string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		filename := hex.EncodeToString(buf) + ext
		if _, err := os.Stat(filepath.Join(s.dir, filename)); errors.Is(err, os.ErrNotExist) {
			return filename, nil
		}
	}
}

// extensionFor derives the file extension from the enclosure URL's path,
// defaulting to ".mp3". The MIME type is deliberately not consulted;
// podcast servers routinely misreport it.
func extensionFor(enclosureURL string) string {
	parsed, err := url.Parse(enclosureURL)
	if err != nil {
		return ".mp3"
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" || len(ext) > 5 {
		return ".mp3"
	}
	return ext
}

type progressReader struct {
	inner    io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.read += int64(n)
		r.progress(float64(r.read) / float64(r.total))
	}
	return n, err
}
