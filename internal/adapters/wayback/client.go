package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"playsarchiver/internal/core/domain"
)

// DefaultAPIURL is the Wayback Machine availability endpoint.
const DefaultAPIURL = "https://archive.org/wayback/available"

// Client implements ports.ArchiveLookup using the Wayback availability API.
type Client struct {
	apiURL    string
	client    *http.Client
	userAgent string
}

// NewClient creates a new Client. An empty apiURL uses DefaultAPIURL.
func NewClient(apiURL string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: apiURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "plays-archiver/1.0",
	}
}

type availabilityResponse struct {
	URL               string `json:"url"`
	ArchivedSnapshots struct {
		Closest *domain.Snapshot `json:"closest"`
	} `json:"archived_snapshots"`
}

// Closest queries the archive for the snapshot closest to now.
func (c *Client) Closest(ctx context.Context, pageURL string) (*domain.Snapshot, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid archive api url %q: %w", c.apiURL, err)
	}
	q := u.Query()
	q.Set("url", pageURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive lookup for %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("archive lookup for %s: status %d, body: %s", pageURL, resp.StatusCode, string(body))
	}

	var result availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode archive lookup for %s: %w", pageURL, err)
	}

	closest := result.ArchivedSnapshots.Closest
	if closest == nil || !closest.Available || closest.URL == "" {
		return nil, nil
	}
	return closest, nil
}
