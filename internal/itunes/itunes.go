package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client interacts with the iTunes Search API, the discovery source for
// new subscriptions.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client using the provided HTTP client. The baseURL
// can be overridden for testing; if empty the public API endpoint is used.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://itunes.apple.com"
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

// Podcast is a search result. FeedURL is the part that matters: it is the
// identity every other package keys on.
type Podcast struct {
	ID          string
	Title       string
	Author      string
	FeedURL     string
	Genre       string
	Description string
}

// Search queries the API for podcasts matching the supplied term.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]Podcast, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("search term cannot be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, err
	}
	q := endpoint.Query()
	q.Set("media", "podcast")
	q.Set("term", term)
	q.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes search failed: %s", resp.Status)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]Podcast, 0, len(payload.Results))
	for _, item := range payload.Results {
		if strings.TrimSpace(item.FeedURL) == "" {
			// A result without a feed URL cannot be subscribed to.
			continue
		}
		results = append(results, Podcast{
			ID:          strconv.FormatInt(item.CollectionID, 10),
			Title:       item.CollectionName,
			Author:      item.ArtistName,
			FeedURL:     item.FeedURL,
			Genre:       item.PrimaryGenreName,
			Description: item.Description,
		})
	}
	return results, nil
}

type searchResponse struct {
	Results []podcastResult `json:"results"`
}

type podcastResult struct {
	CollectionID     int64  `json:"collectionId"`
	CollectionName   string `json:"collectionName"`
	ArtistName       string `json:"artistName"`
	FeedURL          string `json:"feedUrl"`
	PrimaryGenreName string `json:"primaryGenreName"`
	Description      string `json:"description"`
}
