package genius

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Client searches the Genius API and scrapes lyric text from the song
// page, since the API itself does not serve lyrics.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// searchResponse is the Genius /search payload.
type searchResponse struct {
	Meta struct {
		Status int `json:"status"`
	} `json:"meta"`
	Response struct {
		Hits []struct {
			Result struct {
				ID            int    `json:"id"`
				Title         string `json:"title"`
				URL           string `json:"url"`
				PrimaryArtist struct {
					Name string `json:"name"`
				} `json:"primary_artist"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

var (
	lyricsContainerRe = regexp.MustCompile(`(?s)<div[^>]+data-lyrics-container="true"[^>]*>(.*?)</div>`)
	brTagRe           = regexp.MustCompile(`<br\s*/?>`)
	htmlTagRe         = regexp.MustCompile(`<[^>]+>`)
)

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.genius.com",
	}
}

func (c *Client) Name() string {
	return "genius"
}

// Search finds the best song page and returns its plain lyric text, or
// "" when the track is unknown to Genius.
func (c *Client) Search(ctx context.Context, title, artist string) (string, error) {
	pageURL, err := c.searchSongURL(ctx, title, artist)
	if err != nil {
		return "", err
	}
	if pageURL == "" {
		return "", nil
	}
	return c.scrapeLyrics(ctx, pageURL)
}

func (c *Client) searchSongURL(ctx context.Context, title, artist string) (string, error) {
	query := fmt.Sprintf("%s %s", artist, title)
	searchURL := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", "lyricpip/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius API returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}
	if len(sr.Response.Hits) == 0 {
		return "", nil
	}

	// Prefer a hit whose primary artist matches; the first hit is often
	// a cover or a translated page.
	for _, h := range sr.Response.Hits {
		if containsIgnoreCase(h.Result.PrimaryArtist.Name, artist) {
			return h.Result.URL, nil
		}
	}
	return sr.Response.Hits[0].Result.URL, nil
}

func (c *Client) scrapeLyrics(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "lyricpip/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("genius song page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return extractLyrics(string(body)), nil
}

// extractLyrics pulls text out of the data-lyrics-container divs of a
// Genius song page.
func extractLyrics(page string) string {
	containers := lyricsContainerRe.FindAllStringSubmatch(page, -1)
	if len(containers) == 0 {
		return ""
	}

	var b strings.Builder
	for _, m := range containers {
		fragment := brTagRe.ReplaceAllString(m[1], "\n")
		fragment = htmlTagRe.ReplaceAllString(fragment, "")
		b.WriteString(html.UnescapeString(fragment))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
