package metadata

import (
	"podkeep/internal/domain"
	"podkeep/internal/feeds"
)

// accumulator collects the pages of one refresh walk in order, tracking
// which GUIDs it has already seen so the walk can stop at the first page
// that overlaps an earlier one.
type accumulator struct {
	header   *feeds.Feed
	episodes []feeds.Episode
	seen     map[string]struct{}
	partial  bool
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[string]struct{})}
}

// add folds one page into the walk and reports whether the page repeated
// any episode from an earlier page. Unseen episodes of an overlapping
// page are still taken: a page boundary may shift between refreshes, so
// the overlapping page can carry episodes no earlier page had.
func (a *accumulator) add(page *feeds.Feed) bool {
	if a.header == nil {
		a.header = page
	}
	overlap := false
	for _, ep := range page.Episodes {
		if _, ok := a.seen[ep.GUID]; ok {
			overlap = true
			continue
		}
		a.seen[ep.GUID] = struct{}{}
		a.episodes = append(a.episodes, ep)
	}
	if overlap {
		a.partial = true
	}
	return overlap
}

// mergeSnapshots combines a refresh walk with the previously cached
// snapshot into the new local entry.
//
// A complete walk (pagination exhausted) replaces the episode set
// wholesale; episodes the feed stopped listing disappear. Durations are
// the one exception: a stored duration survives when the fresh item
// declares none, since probed durations never reappear in the feed.
//
// A partial walk (stopped on overlap) saw only the newest pages, so the
// old snapshot stands in for everything beyond the overlap: fresh
// episodes are layered over the old set, and for a GUID present on both
// sides the stored episode is kept.
//
// Download records are carried over verbatim either way; the caller
// sweeps the ones whose episode vanished.
func mergeSnapshots(old *domain.LocalPodcast, acc *accumulator, now int64) *domain.LocalPodcast {
	merged := &domain.LocalPodcast{
		Title:           acc.header.Title,
		Description:     acc.header.Description,
		HomepageURL:     acc.header.HomepageURL,
		Categories:      append([]string(nil), acc.header.Categories...),
		Episodes:        make(map[string]domain.LocalEpisode, len(acc.episodes)),
		LastRefreshedAt: now,
	}

	if acc.partial && old != nil {
		for guid, ep := range old.Episodes {
			merged.Episodes[guid] = ep
		}
	}
	for _, ep := range acc.episodes {
		if _, ok := merged.Episodes[ep.GUID]; ok {
			continue
		}
		local := domain.LocalEpisode{
			Title:           ep.Title,
			Description:     ep.Description,
			HomepageURL:     ep.HomepageURL,
			DurationSeconds: ep.DurationSeconds,
			EnclosureURL:    ep.EnclosureURL,
			Explicit:        ep.Explicit,
		}
		if !ep.PublishedAt.IsZero() {
			local.PublishedAt = ep.PublishedAt.UnixMilli()
		}
		if local.DurationSeconds == 0 && old != nil {
			if prev, ok := old.Episodes[ep.GUID]; ok {
				local.DurationSeconds = prev.DurationSeconds
			}
		}
		merged.Episodes[ep.GUID] = local
	}

	if old != nil && old.Downloaded != nil {
		merged.Downloaded = make(map[string]domain.DownloadRecord, len(old.Downloaded))
		for guid, rec := range old.Downloaded {
			merged.Downloaded[guid] = rec
		}
	}

	return merged
}
