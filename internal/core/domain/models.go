package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Snapshot is the closest archived copy of a URL as reported by the lookup service.
type Snapshot struct {
	Status    int       `json:"status"`
	Available bool      `json:"available"`
	URL       string    `json:"url"`
	Timestamp Timestamp `json:"timestamp"`
}

// UnmarshalJSON accepts the status code as a JSON string or number.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status    json.Number `json:"status"`
		Available bool        `json:"available"`
		URL       string      `json:"url"`
		Timestamp Timestamp   `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := 0
	if raw.Status != "" {
		v, err := strconv.Atoi(raw.Status.String())
		if err != nil {
			return fmt.Errorf("invalid snapshot status %q: %w", raw.Status, err)
		}
		status = v
	}
	*s = Snapshot{Status: status, Available: raw.Available, URL: raw.URL, Timestamp: raw.Timestamp}
	return nil
}

// Timestamp is a 14-digit wayback timestamp (YYYYMMDDhhmmss).
// The lookup service sends it as a string, older mirrors as a number.
type Timestamp int64

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid snapshot timestamp %s: %w", data, err)
	}
	v, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snapshot timestamp %s: %w", data, err)
	}
	*t = Timestamp(v)
	return nil
}

// Time converts the timestamp to UTC. Returns the zero time if it is malformed.
func (t Timestamp) Time() time.Time {
	ts, err := time.Parse("20060102150405", strconv.FormatInt(int64(t), 10))
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Quality is a vertical video resolution.
type Quality int

const (
	Quality1080 Quality = 1080
	Quality720  Quality = 720
	Quality480  Quality = 480
)

// DefaultQuality is the quality scraped entries start with.
const DefaultQuality = Quality720

// Qualities lists every known quality, best first.
var Qualities = []Quality{Quality1080, Quality720, Quality480}

func (q Quality) String() string {
	return strconv.Itoa(int(q)) + "p"
}

// VideoRecord is the plain data scraped for one video item of a profile page.
type VideoRecord struct {
	Title     string `json:"title"`
	DateLabel string `json:"date_label"`
	PosterURL string `json:"poster_url"`
}

// Outcome describes what happened to one video during a run.
type Outcome string

const (
	OutcomeDownloaded        Outcome = "downloaded"
	OutcomeAlreadyDownloaded Outcome = "already_downloaded"
	OutcomeNotArchived       Outcome = "not_archived"
	OutcomeFailed            Outcome = "failed"
	OutcomeListed            Outcome = "listed"
)

// VideoOutcome is the per-video entry of a run manifest.
type VideoOutcome struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Date    string  `json:"date"`
	Outcome Outcome `json:"outcome"`
	Quality Quality `json:"quality,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Run represents a single archiving run for one user.
type Run struct {
	ID        string    `json:"run_id"`
	Username  string    `json:"username"`
	OutputDir string    `json:"output_dir"`
	CreatedAt time.Time `json:"created_at"`
}

// RunResult holds the outcome of a completed run.
type RunResult struct {
	Run            Run            `json:"run"`
	SnapshotURL    string         `json:"snapshot_url"`
	TotalVideos    int            `json:"total_videos"`
	AuthorVideos   int            `json:"author_videos"`
	FeaturedVideos int            `json:"featured_videos"`
	Visible        int            `json:"visible"`
	Videos         []VideoOutcome `json:"videos"`
	ManifestPath   string         `json:"-"`
	CompletedAt    time.Time      `json:"completed_at"`
}

// Count returns how many videos ended with the given outcome.
func (r *RunResult) Count(o Outcome) int {
	n := 0
	for _, v := range r.Videos {
		if v.Outcome == o {
			n++
		}
	}
	return n
}
