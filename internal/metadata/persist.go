package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"podkeep/internal/domain"
)

// Section selects which of the two metadata files an operation touches.
type Section uint8

const (
	SectionLocal Section = 1 << iota
	SectionRoaming

	SectionBoth = SectionLocal | SectionRoaming
)

type localFile struct {
	Podcasts map[string]*domain.LocalPodcast `json:"podcasts"`
}

type roamingFile struct {
	Podcasts map[string]*domain.RoamingPodcast `json:"podcasts"`
}

// Load reads the selected metadata files into memory. Missing files are
// an empty store, not an error.
func (s *Store) Load(section Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if section&SectionLocal != 0 {
		var file localFile
		if err := readJSONFile(s.localPath, &file); err != nil {
			return fmt.Errorf("load local metadata: %w", err)
		}
		s.local = file.Podcasts
		if s.local == nil {
			s.local = make(map[string]*domain.LocalPodcast)
		}
	}
	if section&SectionRoaming != 0 {
		var file roamingFile
		if err := readJSONFile(s.roamingPath, &file); err != nil {
			return fmt.Errorf("load roaming metadata: %w", err)
		}
		s.roaming = file.Podcasts
		if s.roaming == nil {
			s.roaming = make(map[string]*domain.RoamingPodcast)
		}
	}
	return nil
}

// Save persists the selected sections. Mutating store methods persist on
// their own; Save exists for shutdown and for tests.
func (s *Store) Save(section Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if section&SectionLocal != 0 {
		if err := s.saveLocalLocked(); err != nil {
			return err
		}
	}
	if section&SectionRoaming != 0 {
		if err := s.saveRoamingLocked(); err != nil {
			return err
		}
	}
	return nil
}

// PurgeOldMetadata drops local cache entries that nothing anchors: no
// downloads, no roaming star, and a last refresh older than the purge
// age. The purge also runs implicitly before every local persist.
func (s *Store) PurgeOldMetadata() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocalLocked()
}

func (s *Store) purgeLocked() {
	cutoff := s.clk.Now().Add(-s.purgeAfter).UnixMilli()
	for url, podcast := range s.local {
		if len(podcast.Downloaded) > 0 {
			continue
		}
		if entry := s.roaming[url]; entry != nil && entry.Starred {
			continue
		}
		if podcast.LastRefreshedAt >= cutoff {
			continue
		}
		log.Printf("purging stale cache entry for %s", url)
		delete(s.local, url)
	}
}

func (s *Store) saveLocalLocked() error {
	s.purgeLocked()
	if err := writeJSONFile(s.localPath, localFile{Podcasts: s.local}); err != nil {
		return fmt.Errorf("save local metadata: %w", err)
	}
	return nil
}

func (s *Store) saveRoamingLocked() error {
	if err := writeJSONFile(s.roamingPath, roamingFile{Podcasts: s.roaming}); err != nil {
		return fmt.Errorf("save roaming metadata: %w", err)
	}
	s.lastRoamingSave = s.clk.Now()
	return nil
}

func readJSONFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// writeJSONFile writes pretty-printed JSON via a sibling temp file and a
// rename, so cloud sync agents and the change watcher never observe a
// half-written file.
func writeJSONFile(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
