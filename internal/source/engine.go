package source

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lyricpip/internal/lyrics"
)

var logger = log.With().Str("component", "source").Logger()

const providerTimeout = 5 * time.Second

// SyncedProvider searches a service for time-tagged lyrics and returns
// the raw LRC text, or "" when the track is unknown to it.
type SyncedProvider interface {
	Name() string
	Search(ctx context.Context, title, artist string, durationSec float64) (string, error)
}

// PlainProvider searches a service for unsynchronized lyric text.
type PlainProvider interface {
	Name() string
	Search(ctx context.Context, title, artist string) (string, error)
}

// Engine resolves lyrics for a track by walking its providers in order
// of decreasing quality. Every track gets exactly one result per fetch;
// provider failures degrade to the next tier instead of propagating.
type Engine struct {
	synced []SyncedProvider
	plain  []PlainProvider
	cache  *Cache
}

func NewEngine(synced []SyncedProvider, plain []PlainProvider, cache *Cache) *Engine {
	if cache == nil {
		cache = NewCache(nil)
	}
	return &Engine{synced: synced, plain: plain, cache: cache}
}

// Cached returns the stored result for a track without touching providers.
func (e *Engine) Cached(ctx context.Context, title, artist string) *lyrics.Data {
	return e.cache.Get(ctx, lyrics.TrackKey(artist, title))
}

// Fetch resolves lyrics for a track, serving from cache when possible.
func (e *Engine) Fetch(ctx context.Context, title, artist string, durationSec float64) *lyrics.Data {
	key := lyrics.TrackKey(artist, title)
	if d := e.cache.Get(ctx, key); d != nil {
		return d
	}
	d := e.search(ctx, title, artist, durationSec)
	if d.Quality != lyrics.QualityError {
		e.cache.Put(ctx, key, d)
	}
	return d
}

// Refresh drops the cached result for a track and resolves it again.
func (e *Engine) Refresh(ctx context.Context, title, artist string, durationSec float64) *lyrics.Data {
	e.cache.Forget(ctx, lyrics.TrackKey(artist, title))
	return e.Fetch(ctx, title, artist, durationSec)
}

func (e *Engine) search(ctx context.Context, title, artist string, durationSec float64) *lyrics.Data {
	if len(e.synced) == 0 && len(e.plain) == 0 {
		return &lyrics.Data{
			Quality: lyrics.QualityError,
			Message: "no lyric providers configured",
		}
	}

	for _, p := range e.synced {
		d := e.trySynced(ctx, p, title, artist, durationSec)
		if d != nil {
			return d
		}
	}

	for _, p := range e.plain {
		d := e.tryPlain(ctx, p, title, artist)
		if d != nil {
			return d
		}
	}

	if lyrics.IsInstrumentalTitle(title) {
		logger.Info().Str("title", title).Msg("title suggests an instrumental track")
		return &lyrics.Data{
			Quality:    lyrics.QualityInstrumental,
			Confidence: 1.0,
			Source:     "title_analysis",
			Message:    "Instrumental track",
		}
	}

	logger.Info().Str("title", title).Str("artist", artist).Msg("no lyrics found on any provider")
	return &lyrics.Data{
		Quality: lyrics.QualityNotFound,
		Source:  "waterfall",
		Message: fmt.Sprintf("No lyrics found for %s - %s", artist, title),
	}
}

func (e *Engine) trySynced(ctx context.Context, p SyncedProvider, title, artist string, durationSec float64) *lyrics.Data {
	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	raw, err := p.Search(pctx, title, artist, durationSec)
	if err != nil {
		logger.Warn().Err(err).Str("provider", p.Name()).Msg("synced lyrics search failed")
		return nil
	}
	blocks := lyrics.ParseLRC(raw)
	if len(blocks) == 0 {
		return nil
	}

	quality := lyrics.AnalyzeSyncQuality(blocks)
	blocks = lyrics.Interpolate(blocks, lyrics.MaxBlockMs)

	confidence := 0.6
	if quality == lyrics.QualitySyncedHigh {
		confidence = 0.9
	}
	logger.Info().
		Str("provider", p.Name()).
		Str("quality", string(quality)).
		Int("blocks", len(blocks)).
		Msg("resolved synced lyrics")
	return &lyrics.Data{
		Quality:    quality,
		Blocks:     blocks,
		RawText:    raw,
		Confidence: confidence,
		Source:     p.Name(),
	}
}

func (e *Engine) tryPlain(ctx context.Context, p PlainProvider, title, artist string) *lyrics.Data {
	pctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	text, err := p.Search(pctx, title, artist)
	if err != nil {
		logger.Warn().Err(err).Str("provider", p.Name()).Msg("plain lyrics search failed")
		return nil
	}
	clean := lyrics.CleanPlainText(text)
	if clean == "" {
		return nil
	}

	if lyrics.IsInstrumentalContent(clean) {
		logger.Info().Str("provider", p.Name()).Msg("lyrics content looks instrumental")
		return &lyrics.Data{
			Quality:    lyrics.QualityInstrumental,
			Confidence: 0.8,
			Source:     "content_analysis",
			Message:    "Instrumental track",
		}
	}

	logger.Info().Str("provider", p.Name()).Msg("resolved plain lyrics")
	return &lyrics.Data{
		Quality:    lyrics.QualityPlainText,
		RawText:    clean,
		Confidence: 0.7,
		Source:     p.Name(),
	}
}
