package feeds

import (
	"encoding/xml"
	"log"
	"strconv"
	"strings"
	"time"
)

// Feed is the parsed view of one feed document (one page of a paged feed).
type Feed struct {
	Title       string
	Description string
	HomepageURL string
	Categories  []string
	Episodes    []Episode
}

// Episode is a single parsed feed entry. GUID is always non-empty: it is
// the feed's stated GUID, falling back to the enclosure URL, so it stays
// stable across refreshes of the same feed.
type Episode struct {
	GUID            string
	Title           string
	Description     string
	HomepageURL     string
	DurationSeconds int
	PublishedAt     time.Time
	EnclosureURL    string
	EnclosureType   string
	EnclosureLength int64
	Explicit        bool
}

// Parse decodes an RSS document with podcast extensions. Items without a
// playable enclosure are not episodes in this model; they are dropped and
// logged, never fatal.
func Parse(data []byte) (*Feed, error) {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	ch := doc.Channel
	feed := &Feed{
		Title:       strings.TrimSpace(ch.Title),
		Description: strings.TrimSpace(ch.Description),
		HomepageURL: homepageLink(ch.Links),
		Categories:  flattenCategories(ch.Categories),
	}

	feed.Episodes = make([]Episode, 0, len(ch.Items))
	for _, item := range ch.Items {
		enclosure := strings.TrimSpace(item.Enclosure.URL)
		if enclosure == "" {
			log.Printf("feed %q: dropping item %q without enclosure", feed.Title, strings.TrimSpace(item.Title))
			continue
		}

		guid := strings.TrimSpace(item.GUID.Value)
		if guid == "" {
			guid = enclosure
		}

		published, _ := parseTime(item.PubDate)
		length, _ := strconv.ParseInt(strings.TrimSpace(item.Enclosure.Length), 10, 64)

		feed.Episodes = append(feed.Episodes, Episode{
			GUID:            guid,
			Title:           strings.TrimSpace(item.Title),
			Description:     firstNonEmpty(item.Summary, item.Description),
			HomepageURL:     homepageLink(item.Links),
			DurationSeconds: ParseDuration(item.Duration),
			PublishedAt:     published,
			EnclosureURL:    enclosure,
			EnclosureType:   strings.TrimSpace(item.Enclosure.Type),
			EnclosureLength: length,
			Explicit:        isExplicit(item.Explicit),
		})
	}

	return feed, nil
}

// NextPageURL extracts the "next" page link of a paged feed. Any failure
// means "no more pages": it is logged and never surfaced as an error.
func NextPageURL(data []byte) string {
	var doc rssDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		log.Printf("resolve next page: %v", err)
		return ""
	}
	for _, l := range doc.Channel.Links {
		if strings.EqualFold(strings.TrimSpace(l.Rel), "next") {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

// ParseDuration converts a feed duration to whole seconds. Accepts plain
// seconds ("3793", "3793.5") and positional formats ("1:03:13", "5:30"),
// where each colon-separated value weighs 60^position-from-right.
func ParseDuration(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if !strings.Contains(value, ":") {
		if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
			return int(secs)
		}
		return 0
	}
	total := 0
	for _, part := range strings.Split(value, ":") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	if total < 0 {
		return 0
	}
	return total
}

// flattenCategories joins nested category elements into increasingly
// specific strings ("Arts/Design"). When a category shares its top-level
// name with the previously recorded one, the shorter entry is replaced by
// the more specific one; the final list is deduplicated.
func flattenCategories(cats []rssCategory) []string {
	var out []string
	record := func(path string) {
		if n := len(out); n > 0 && topCategory(out[n-1]) == topCategory(path) {
			if len(path) > len(out[n-1]) {
				out[n-1] = path
			}
			return
		}
		out = append(out, path)
	}
	var walk func(prefix string, cat rssCategory)
	walk = func(prefix string, cat rssCategory) {
		name := strings.TrimSpace(cat.Text)
		if name == "" {
			return
		}
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}
		record(path)
		for _, sub := range cat.Sub {
			walk(path, sub)
		}
	}
	for _, cat := range cats {
		walk("", cat)
	}

	seen := make(map[string]struct{}, len(out))
	deduped := out[:0]
	for _, path := range out {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		deduped = append(deduped, path)
	}
	if len(deduped) == 0 {
		return nil
	}
	return deduped
}

func topCategory(path string) string {
	if i := strings.Index(path, "/"); i >= 0 {
		return path[:i]
	}
	return path
}

// homepageLink picks the first plain link carrying a URL as character
// data, skipping attribute-only (atom pagination) links.
func homepageLink(links []rssLink) string {
	for _, l := range links {
		if strings.TrimSpace(l.Rel) != "" {
			continue
		}
		if v := strings.TrimSpace(l.Value); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func isExplicit(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "true", "explicit":
		return true
	}
	return false
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC3339,
		"Mon, 2 Jan 2006 15:04:05 -0700",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string        `xml:"title"`
	Description string        `xml:"description"`
	Links       []rssLink     `xml:"link"`
	Categories  []rssCategory `xml:"category"`
	Items       []rssItem     `xml:"item"`
}

// rssLink matches both plain <link>text</link> elements and attribute-only
// <atom:link rel="next" href="..."/> pagination links.
type rssLink struct {
	Rel   string `xml:"rel,attr"`
	Href  string `xml:"href,attr"`
	Value string `xml:",chardata"`
}

type rssCategory struct {
	Text string        `xml:"text,attr"`
	Sub  []rssCategory `xml:"category"`
}

type rssItem struct {
	GUID        rssGUID      `xml:"guid"`
	Title       string       `xml:"title"`
	Summary     string       `xml:"summary"`
	Description string       `xml:"description"`
	Links       []rssLink    `xml:"link"`
	PubDate     string       `xml:"pubDate"`
	Duration    string       `xml:"duration"`
	Explicit    string       `xml:"explicit"`
	Enclosure   rssEnclosure `xml:"enclosure"`
}

type rssGUID struct {
	Value string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}
