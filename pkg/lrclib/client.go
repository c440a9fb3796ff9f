package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the LRCLIB public lyrics API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	maxRetries     int
}

// trackResult is one entry of the /api/search response.
type trackResult struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// NewClient builds a client against the given base URL. An empty URL
// selects the public lrclib.net instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://lrclib.net/api"
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL:        strings.TrimRight(baseURL, "/"),
		requestTimeout: 5 * time.Second,
		maxRetries:     3,
	}
}

func (c *Client) Name() string {
	return "lrclib"
}

// Search returns time-tagged LRC text for the track, or "" when the
// best match carries no synced lyrics.
func (c *Client) Search(ctx context.Context, title, artist string, durationSec float64) (string, error) {
	best, err := c.search(ctx, title, artist, durationSec)
	if err != nil {
		return "", err
	}
	if best == nil {
		return "", nil
	}
	return best.SyncedLyrics, nil
}

// SearchPlain returns unsynchronized lyric text for the track, letting
// the same service also serve as a plain-text fallback.
func (c *Client) SearchPlain(ctx context.Context, title, artist string) (string, error) {
	best, err := c.search(ctx, title, artist, 0)
	if err != nil {
		return "", err
	}
	if best == nil {
		return "", nil
	}
	return best.PlainLyrics, nil
}

func (c *Client) search(ctx context.Context, title, artist string, durationSec float64) (*trackResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("track_name", title)
	params.Set("artist_name", artist)
	searchURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("INFO: [lrclib] Retrying request (attempt %d/%d)", attempt, c.maxRetries)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
		}

		req, reqErr := http.NewRequestWithContext(timeoutCtx, "GET", searchURL, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("User-Agent", "lyricpip/1.0")

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if err != nil {
			log.Printf("WARN: [lrclib] Request failed: %v (attempt %d/%d)", err, attempt+1, c.maxRetries)
		} else {
			log.Printf("WARN: [lrclib] Request returned status %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries)
			resp.Body.Close()
		}

		if attempt == c.maxRetries {
			if err != nil {
				return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			return nil, fmt.Errorf("request failed after %d attempts with status %d", attempt+1, resp.StatusCode)
		}
	}
	defer resp.Body.Close()

	var results []trackResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return findBestMatch(results, title, artist, durationSec), nil
}

// findBestMatch narrows search results by title and artist, then picks
// the entry whose duration is closest to the playing track.
func findBestMatch(results []trackResult, targetTitle, targetArtist string, targetDuration float64) *trackResult {
	var exactMatches []*trackResult
	var titleMatches []*trackResult

	for i := range results {
		r := &results[i]
		if containsIgnoreCase(r.TrackName, targetTitle) && containsIgnoreCase(r.ArtistName, targetArtist) {
			exactMatches = append(exactMatches, r)
		} else if containsIgnoreCase(r.TrackName, targetTitle) {
			titleMatches = append(titleMatches, r)
		}
	}

	matchPool := exactMatches
	if len(matchPool) == 0 {
		matchPool = titleMatches
	}
	if len(matchPool) == 0 {
		matchPool = make([]*trackResult, len(results))
		for i := range results {
			matchPool[i] = &results[i]
		}
	}

	if targetDuration > 0 {
		const maxDurationDiff = 3.0
		best := matchPool[0]
		minDiff := absFloat(best.Duration - targetDuration)
		for _, m := range matchPool {
			diff := absFloat(m.Duration - targetDuration)
			if diff <= maxDurationDiff {
				return m
			}
			if diff < minDiff {
				minDiff = diff
				best = m
			}
		}
		return best
	}
	return matchPool[0]
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
