package domain

// LocalPodcast is the device-local cached snapshot of a feed. Entries are
// disposable: anything purged can be refetched from the feed URL. The
// Downloaded map is the exception and is carried across refreshes.
type LocalPodcast struct {
	Title           string                    `json:"title"`
	Description     string                    `json:"description,omitempty"`
	HomepageURL     string                    `json:"homepageUrl,omitempty"`
	Categories      []string                  `json:"categories,omitempty"`
	Episodes        map[string]LocalEpisode   `json:"episodes"`
	Downloaded      map[string]DownloadRecord `json:"downloaded,omitempty"`
	LastRefreshedAt int64                     `json:"lastRefreshedAtMs"`
}

// LocalEpisode is a single feed entry keyed by its GUID, or by its
// enclosure URL when the feed declares no GUID.
type LocalEpisode struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	HomepageURL     string `json:"homepageUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	PublishedAt     int64  `json:"publishedAtMs,omitempty"`
	EnclosureURL    string `json:"enclosureUrl"`
	Explicit        bool   `json:"explicit,omitempty"`
}

// DownloadRecord maps an episode to its enclosure file. Filenames are
// opaque random identifiers inside the enclosures directory.
type DownloadRecord struct {
	Filename string `json:"localFilename"`
}

// RoamingPodcast is the durable, sync-friendly record of user intent for
// one feed. It may exist without any LocalPodcast and is never purged.
type RoamingPodcast struct {
	Starred  bool                      `json:"starred,omitempty"`
	Episodes map[string]RoamingEpisode `json:"episodes,omitempty"`
}

// RoamingEpisode records listening progress for one episode.
type RoamingEpisode struct {
	Completed           bool  `json:"completed,omitempty"`
	LastPositionSeconds int   `json:"lastPositionSeconds,omitempty"`
	LastPlayedAt        int64 `json:"lastPlayedAtMs,omitempty"`
}

// PodcastView is the read-side join of the two stores for one feed URL.
// Both sides are deep copies; mutating a view never touches the store.
type PodcastView struct {
	FeedURL string
	Local   *LocalPodcast
	Roaming *RoamingPodcast
}

// EpisodeView joins the two stores for a single episode.
type EpisodeView struct {
	FeedURL string
	GUID    string
	Local   *LocalEpisode
	Roaming *RoamingEpisode
}

// Clone returns a deep copy.
func (p *LocalPodcast) Clone() *LocalPodcast {
	if p == nil {
		return nil
	}
	out := *p
	out.Categories = append([]string(nil), p.Categories...)
	out.Episodes = make(map[string]LocalEpisode, len(p.Episodes))
	for guid, ep := range p.Episodes {
		out.Episodes[guid] = ep
	}
	out.Downloaded = make(map[string]DownloadRecord, len(p.Downloaded))
	for guid, rec := range p.Downloaded {
		out.Downloaded[guid] = rec
	}
	return &out
}

// Clone returns a deep copy.
func (p *RoamingPodcast) Clone() *RoamingPodcast {
	if p == nil {
		return nil
	}
	out := *p
	out.Episodes = make(map[string]RoamingEpisode, len(p.Episodes))
	for guid, ep := range p.Episodes {
		out.Episodes[guid] = ep
	}
	return &out
}
