package genius

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtractLyrics(t *testing.T) {
	page := `<html><body>
<div data-lyrics-container="true" class="Lyrics__Container">First line<br/>Second line<br><i>Third</i> line</div>
<div data-lyrics-container="true">Fourth &amp; fifth</div>
</body></html>`

	got := extractLyrics(page)
	want := "First line\nSecond line\nThird line\nFourth & fifth"
	if got != want {
		t.Errorf("extractLyrics = %q, want %q", got, want)
	}
}

func TestExtractLyricsNoContainer(t *testing.T) {
	if got := extractLyrics("<html><body>nothing here</body></html>"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestSearchScrapesSongPage(t *testing.T) {
	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}
		w.Write([]byte(`{"meta":{"status":200},"response":{"hits":[
			{"result":{"id":1,"title":"Song (Cover)","url":"` + server.URL + `/cover","primary_artist":{"name":"Cover Band"}}},
			{"result":{"id":2,"title":"Song","url":"` + server.URL + `/song","primary_artist":{"name":"Real Artist"}}}
		]}}`))
	})
	mux.HandleFunc("/song", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div data-lyrics-container="true">hello world</div>`))
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	client := NewClient("token")
	client.baseURL = server.URL

	got, err := client.Search(context.Background(), "Song", "Real Artist")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got != "hello world" {
		t.Errorf("expected scraped lyrics, got %q", got)
	}
}
