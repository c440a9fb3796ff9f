package source

import (
	"context"
	"errors"
	"testing"

	"lyricpip/internal/lyrics"
)

type fakeSynced struct {
	name  string
	raw   string
	err   error
	calls int
}

func (f *fakeSynced) Name() string { return f.name }

func (f *fakeSynced) Search(ctx context.Context, title, artist string, durationSec float64) (string, error) {
	f.calls++
	return f.raw, f.err
}

type fakePlain struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakePlain) Name() string { return f.name }

func (f *fakePlain) Search(ctx context.Context, title, artist string) (string, error) {
	f.calls++
	return f.text, f.err
}

const goodLRC = "[00:10.00] line one\n[00:15.00] line two\n[00:20.00] line three\n[00:25.00] line four\n[00:30.00] line five\n"

func TestWaterfallStopsAtFirstSyncedHit(t *testing.T) {
	first := &fakeSynced{name: "first", raw: goodLRC}
	second := &fakeSynced{name: "second", raw: goodLRC}
	plain := &fakePlain{name: "plain", text: "some lyrics"}
	e := NewEngine([]SyncedProvider{first, second}, []PlainProvider{plain}, nil)

	d := e.Fetch(context.Background(), "Song", "Artist", 200)
	if !d.Quality.Synced() {
		t.Fatalf("expected synced quality, got %s", d.Quality)
	}
	if d.Source != "first" {
		t.Errorf("expected source first, got %s", d.Source)
	}
	if second.calls != 0 || plain.calls != 0 {
		t.Errorf("lower tiers were consulted: second=%d plain=%d", second.calls, plain.calls)
	}
	if d.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9 for high quality, got %v", d.Confidence)
	}
}

func TestWaterfallDegradesOnProviderError(t *testing.T) {
	broken := &fakeSynced{name: "broken", err: errors.New("connection refused")}
	working := &fakeSynced{name: "working", raw: goodLRC}
	e := NewEngine([]SyncedProvider{broken, working}, nil, nil)

	d := e.Fetch(context.Background(), "Song", "Artist", 200)
	if !d.Quality.Synced() {
		t.Fatalf("expected synced result from fallback provider, got %s", d.Quality)
	}
	if d.Source != "working" {
		t.Errorf("expected source working, got %s", d.Source)
	}
}

func TestWaterfallFallsThroughToPlainText(t *testing.T) {
	synced := &fakeSynced{name: "synced", raw: ""}
	plain := &fakePlain{name: "plain", text: "12 Contributors\nreal lyric line\nanother line\nEmbed"}
	e := NewEngine([]SyncedProvider{synced}, []PlainProvider{plain}, nil)

	d := e.Fetch(context.Background(), "Song", "Artist", 200)
	if d.Quality != lyrics.QualityPlainText {
		t.Fatalf("expected plain_text, got %s", d.Quality)
	}
	if d.RawText != "real lyric line\nanother line" {
		t.Errorf("metadata lines not stripped: %q", d.RawText)
	}
	if d.Confidence != 0.7 {
		t.Errorf("expected confidence 0.7, got %v", d.Confidence)
	}
}

func TestPlainContentDetectedAsInstrumental(t *testing.T) {
	plain := &fakePlain{name: "plain", text: "la la la la la la"}
	e := NewEngine(nil, []PlainProvider{plain}, nil)

	d := e.Fetch(context.Background(), "Song", "Artist", 200)
	if d.Quality != lyrics.QualityInstrumental {
		t.Fatalf("expected instrumental, got %s", d.Quality)
	}
	if d.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", d.Confidence)
	}
	if d.Source != "content_analysis" {
		t.Errorf("expected source content_analysis, got %s", d.Source)
	}
}

func TestInstrumentalTitleWhenAllProvidersEmpty(t *testing.T) {
	synced := &fakeSynced{name: "synced", raw: ""}
	plain := &fakePlain{name: "plain", text: ""}
	e := NewEngine([]SyncedProvider{synced}, []PlainProvider{plain}, nil)

	d := e.Fetch(context.Background(), "Moonlight Sonata (Instrumental)", "Beethoven", 300)
	if d.Quality != lyrics.QualityInstrumental {
		t.Fatalf("expected instrumental from title, got %s", d.Quality)
	}
	if d.Confidence != 1.0 {
		t.Errorf("expected confidence 1.0, got %v", d.Confidence)
	}
}

func TestNotFoundWhenEverythingMisses(t *testing.T) {
	synced := &fakeSynced{name: "synced", err: errors.New("timeout")}
	plain := &fakePlain{name: "plain", err: errors.New("timeout")}
	e := NewEngine([]SyncedProvider{synced}, []PlainProvider{plain}, nil)

	d := e.Fetch(context.Background(), "Obscure Song", "Nobody", 200)
	if d.Quality != lyrics.QualityNotFound {
		t.Fatalf("expected not_found, got %s", d.Quality)
	}
	if d.Message == "" {
		t.Error("expected a human readable message")
	}
}

func TestNoProvidersIsAnError(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	d := e.Fetch(context.Background(), "Song", "Artist", 200)
	if d.Quality != lyrics.QualityError {
		t.Fatalf("expected error quality, got %s", d.Quality)
	}
}

func TestFetchCachesPerTrack(t *testing.T) {
	synced := &fakeSynced{name: "synced", raw: goodLRC}
	e := NewEngine([]SyncedProvider{synced}, nil, nil)

	ctx := context.Background()
	e.Fetch(ctx, "Song", "Artist", 200)
	e.Fetch(ctx, "  SONG ", " artist", 200)
	if synced.calls != 1 {
		t.Errorf("expected a single provider hit for the same track key, got %d", synced.calls)
	}

	if d := e.Cached(ctx, "Song", "Artist"); d == nil || !d.Quality.Synced() {
		t.Error("expected cached result to be retrievable")
	}
}

func TestRefreshBypassesCache(t *testing.T) {
	synced := &fakeSynced{name: "synced", raw: goodLRC}
	e := NewEngine([]SyncedProvider{synced}, nil, nil)

	ctx := context.Background()
	e.Fetch(ctx, "Song", "Artist", 200)
	e.Refresh(ctx, "Song", "Artist", 200)
	if synced.calls != 2 {
		t.Errorf("expected refresh to hit the provider again, got %d calls", synced.calls)
	}
}

func TestErrorResultsAreNotCached(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	ctx := context.Background()
	e.Fetch(ctx, "Song", "Artist", 200)
	if d := e.Cached(ctx, "Song", "Artist"); d != nil {
		t.Errorf("error result should not be cached, got %s", d.Quality)
	}
}

func TestSyncedResultIsInterpolated(t *testing.T) {
	// A 15s gap stretches the first verse instead of inserting a
	// marker, and interpolation then splits the long block.
	raw := "[00:10.00] opener\n[00:25.00] closer\n"
	synced := &fakeSynced{name: "synced", raw: raw}
	e := NewEngine([]SyncedProvider{synced}, nil, nil)

	d := e.Fetch(context.Background(), "Song", "Artist", 200)
	for _, b := range d.Blocks {
		if b.DurationMs() > lyrics.MaxBlockMs {
			t.Errorf("block %q spans %dms, above the interpolation cap", b.Text, b.DurationMs())
		}
	}
}
