package lyrics

import (
	"strings"
)

// Quality tags the kind of lyric data a search produced.
type Quality string

const (
	QualitySyncedHigh   Quality = "synced_high"
	QualitySyncedLow    Quality = "synced_low"
	QualityPlainText    Quality = "plain_text"
	QualityInstrumental Quality = "instrumental"
	QualityNotFound     Quality = "not_found"
	QualityError        Quality = "error"
	QualitySearching    Quality = "searching"
)

// Synced reports whether the quality carries usable timestamps.
func (q Quality) Synced() bool {
	return q == QualitySyncedHigh || q == QualitySyncedLow
}

// Block is one displayed line's active time window.
// Sequences are sorted ascending by StartMs and never overlap.
type Block struct {
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// DurationMs returns the block length in milliseconds.
func (b Block) DurationMs() int64 {
	return b.EndMs - b.StartMs
}

// Instrumental reports whether the block is a synthetic non-vocal gap marker.
func (b Block) Instrumental() bool {
	return b.Text == InstrumentalText
}

// Data is the result of a lyric search for one track.
type Data struct {
	Quality    Quality `json:"quality"`
	Blocks     []Block `json:"blocks,omitempty"`
	RawText    string  `json:"raw_text,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Message    string  `json:"message"`
}

// TrackKey builds the normalized identity used across the lyric cache,
// the offset cache and the section-offset cache. Lookups for the same
// logical song must collapse to one entry regardless of case or
// surrounding whitespace.
func TrackKey(artist, title string) string {
	return strings.ToLower(strings.TrimSpace(artist)) + " - " + strings.ToLower(strings.TrimSpace(title))
}
