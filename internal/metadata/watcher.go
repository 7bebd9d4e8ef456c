package metadata

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// selfWriteGrace suppresses watcher events caused by our own saves.
	selfWriteGrace = 5 * time.Second
	// reloadDebounce coalesces the event bursts cloud sync agents produce.
	reloadDebounce = 500 * time.Millisecond
)

// Watch observes the roaming metadata file for external changes (cloud
// sync writing an update from another device) and reloads the roaming
// section when one lands, then invokes onChange. It blocks until ctx is
// cancelled; run it in its own goroutine.
//
// The watch is on the directory, not the file: sync agents typically
// replace the file via rename, which would silently detach a file-level
// watch.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.roamingPath)); err != nil {
		return err
	}

	var reload <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.roamingPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if s.withinSelfWriteGrace() {
				continue
			}
			reload = s.clk.After(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("roaming watcher: %v", err)

		case <-reload:
			reload = nil
			if err := s.Load(SectionRoaming); err != nil {
				log.Printf("reloading roaming metadata: %v", err)
				continue
			}
			log.Printf("roaming metadata reloaded after external change")
			if onChange != nil {
				onChange()
			}
		}
	}
}

func (s *Store) withinSelfWriteGrace() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clk.Now().Sub(s.lastRoamingSave) < selfWriteGrace
}
