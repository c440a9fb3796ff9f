package netease

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// searchResponse is the web search API payload.
type searchResponse struct {
	Result struct {
		Songs []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"songs"`
	} `json:"result"`
}

// lyricResponse is the lyric API payload.
type lyricResponse struct {
	Lrc struct {
		Lyric string `json:"lyric"`
	} `json:"lrc"`
}

// Client talks to the NetEase Cloud Music web API. Some regions gate
// the API behind a login cookie, read from NETEASE_COOKIE.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	cookie         string
	maxRetries     int
	requestTimeout time.Duration
}

func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		baseURL:        "https://music.163.com/api",
		cookie:         os.Getenv("NETEASE_COOKIE"),
		maxRetries:     2,
		requestTimeout: 5 * time.Second,
	}
}

func (c *Client) Name() string {
	return "netease"
}

// Search finds the best matching song and returns its LRC lyric text,
// or "" when nothing matches.
func (c *Client) Search(ctx context.Context, title, artist string, durationSec float64) (string, error) {
	songID, err := c.searchSong(ctx, title, artist)
	if err != nil {
		return "", err
	}
	if songID == 0 {
		return "", nil
	}
	return c.getLyrics(ctx, songID)
}

func (c *Client) searchSong(ctx context.Context, title, artist string) (int, error) {
	searchURL := fmt.Sprintf("%s/search/get/web?csrf_token=hlpretag&hlposttag=&s=%s&type=1&limit=100",
		c.baseURL, url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create search request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return 0, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(sr.Result.Songs) == 0 {
		return 0, nil
	}
	return findBestMatch(sr, artist, title), nil
}

func (c *Client) getLyrics(ctx context.Context, songID int) (string, error) {
	lyricURL := fmt.Sprintf("%s/song/lyric?os=pc&id=%s&lv=-1&kv=-1&tv=-1", c.baseURL, strconv.Itoa(songID))

	req, err := http.NewRequestWithContext(ctx, "GET", lyricURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create lyric request: %w", err)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return "", fmt.Errorf("lyric request failed: %w", err)
	}
	defer resp.Body.Close()

	var lr lyricResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("failed to decode lyric response: %w", err)
	}
	return lr.Lrc.Lyric, nil
}

// doRequestWithRetry retries transient failures with a linear backoff.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("INFO: [netease] Retrying request (attempt %d/%d)", attempt, c.maxRetries)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
		}

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			return resp, nil
		}
		if err != nil {
			log.Printf("WARN: [netease] Request failed: %v (attempt %d/%d)", err, attempt+1, c.maxRetries)
		} else {
			log.Printf("WARN: [netease] Request returned status %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries)
			resp.Body.Close()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, err)
	}
	return nil, fmt.Errorf("request failed after %d attempts with status %d", c.maxRetries+1, resp.StatusCode)
}

// findBestMatch prefers a song matching both title and artist, then
// falls back to the first title match.
func findBestMatch(resp searchResponse, targetArtist, targetTitle string) int {
	for _, song := range resp.Result.Songs {
		if !containsIgnoreCase(song.Name, targetTitle) {
			continue
		}
		for _, a := range song.Artists {
			if containsIgnoreCase(a.Name, targetArtist) {
				return song.ID
			}
		}
	}
	if len(resp.Result.Songs) > 0 && containsIgnoreCase(resp.Result.Songs[0].Name, targetTitle) {
		return resp.Result.Songs[0].ID
	}
	return 0
}

func normalizeString(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// containsIgnoreCase checks containment either way, ignoring case and
// spaces. Track names across providers disagree on both.
func containsIgnoreCase(s1, s2 string) bool {
	norm1, norm2 := normalizeString(s1), normalizeString(s2)
	return strings.Contains(norm1, norm2) || strings.Contains(norm2, norm1)
}
