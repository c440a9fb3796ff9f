package netease

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoRequestWithRetry(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"result":{"songs":[{"id":123,"name":"Test Song","artists":[{"name":"Test Artist"}]}]}}`))
	}))
	defer server.Close()

	client := &Client{
		httpClient:     &http.Client{Timeout: 1 * time.Second},
		maxRetries:     3,
		requestTimeout: 2 * time.Second,
	}

	req, err := http.NewRequest("GET", server.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := client.doRequestWithRetry(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if requestCount != 3 {
		t.Errorf("expected 3 attempts, got %d", requestCount)
	}
}

func TestSearchAgainstMockServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/get/web", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"songs":[
			{"id":1,"name":"Wrong Song","artists":[{"name":"Someone"}]},
			{"id":2,"name":"Right Song","artists":[{"name":"Right Artist"}]}
		]}}`))
	})
	mux.HandleFunc("/song/lyric", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "2" {
			t.Errorf("unexpected song id %s", r.URL.Query().Get("id"))
		}
		w.Write([]byte(`{"lrc":{"lyric":"[00:10.00] hello\n"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient()
	client.baseURL = server.URL

	lrc, err := client.Search(context.Background(), "Right Song", "Right Artist", 180)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if lrc != "[00:10.00] hello\n" {
		t.Errorf("unexpected lyrics %q", lrc)
	}
}

func TestFindBestMatchFallsBackToTitle(t *testing.T) {
	var resp searchResponse
	resp.Result.Songs = []struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	}{
		{ID: 7, Name: "Song Title (Live)"},
	}

	if got := findBestMatch(resp, "Unknown Artist", "Song Title"); got != 7 {
		t.Errorf("expected fallback to first title match, got %d", got)
	}
}
