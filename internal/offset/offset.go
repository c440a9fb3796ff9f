package offset

import (
	"encoding/json"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"lyricpip/internal/lyrics"
	"lyricpip/pkg/fileutil"
)

var logger = log.With().Str("component", "offset-store").Logger()

// State is the per-track time correction. The displayed position is
// raw playback progress plus Total().
type State struct {
	BaseOffset int64   `json:"base_offset"`
	UserOffset int64   `json:"user_offset"`
	AutoOffset int64   `json:"auto_offset"`
	Locked     bool    `json:"is_locked"`
	Confidence float64 `json:"confidence"`
}

// Total is the additive correction applied before verse lookup.
func (s State) Total() int64 {
	return s.BaseOffset + s.UserOffset + s.AutoOffset
}

// fileFormat is the on-disk shape: track states plus a parallel map of
// per-verse deltas, both keyed by normalized track key. Section indices
// are stringified for JSON object keys.
type fileFormat struct {
	TrackOffsets   map[string]State            `json:"track_offsets"`
	SectionOffsets map[string]map[string]int64 `json:"section_offsets"`
}

// Store owns all offset state. Every mutation is flushed to disk before
// returning, so a crash loses at most the in-flight adjustment. All
// mutation is funneled through this type; callers on other goroutines
// must queue adjustments onto the core loop rather than share the Store.
type Store struct {
	mu       sync.Mutex
	path     string
	tracks   map[string]*State
	sections map[string]map[int]int64
	current  string
}

// NewStore loads persisted offsets from path. A missing file is a normal
// first run; a corrupt file is logged and replaced by empty state.
func NewStore(path string) *Store {
	s := &Store{
		path:     path,
		tracks:   make(map[string]*State),
		sections: make(map[string]map[int]int64),
	}
	s.load()
	return s
}

func (s *Store) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read offset cache, starting empty")
		}
		return
	}

	var ff fileFormat
	if err := json.Unmarshal(raw, &ff); err != nil {
		logger.Warn().Err(err).Str("path", s.path).Msg("Offset cache is corrupt, starting empty")
		return
	}

	for key, st := range ff.TrackOffsets {
		copied := st
		s.tracks[key] = &copied
	}
	for key, secs := range ff.SectionOffsets {
		m := make(map[int]int64, len(secs))
		for idxStr, delta := range secs {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				continue
			}
			m[idx] = delta
		}
		if len(m) > 0 {
			s.sections[key] = m
		}
	}
	logger.Info().Int("tracks", len(s.tracks)).Str("path", s.path).Msg("Loaded offset cache")
}

// save must be called with s.mu held. A write failure is logged and the
// in-memory state stays authoritative; the next mutation retries.
func (s *Store) save() {
	ff := fileFormat{
		TrackOffsets:   make(map[string]State, len(s.tracks)),
		SectionOffsets: make(map[string]map[string]int64, len(s.sections)),
	}
	for key, st := range s.tracks {
		ff.TrackOffsets[key] = *st
	}
	for key, secs := range s.sections {
		if len(secs) == 0 {
			continue
		}
		m := make(map[string]int64, len(secs))
		for idx, delta := range secs {
			m[strconv.Itoa(idx)] = delta
		}
		ff.SectionOffsets[key] = m
	}

	raw, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to encode offset cache")
		return
	}
	if err := fileutil.WriteFileAtomic(s.path, raw, 0644); err != nil {
		logger.Error().Err(err).Str("path", s.path).Msg("Failed to persist offset cache, keeping in-memory state")
	}
}

// Bind makes the given track current, creating fresh unlocked state on
// first encounter and reusing persisted state (possibly locked) otherwise.
// Returns the normalized track key.
func (s *Store) Bind(artist, title string) string {
	key := lyrics.TrackKey(artist, title)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = key
	if _, ok := s.tracks[key]; !ok {
		s.tracks[key] = &State{Confidence: 1.0}
	}
	return key
}

// CurrentKey returns the key of the currently bound track, or "".
func (s *Store) CurrentKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentState returns a copy of the bound track's state.
func (s *Store) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.tracks[s.current]; ok {
		return *st
	}
	return State{}
}

// TotalOffset returns the effective correction for the bound track. When
// verseIndex is >= 0 and a section delta exists for it, that delta is
// layered on top of the track-level total.
func (s *Store) TotalOffset(verseIndex int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[s.current]
	if !ok {
		return 0
	}
	total := st.Total()
	if verseIndex >= 0 {
		total += s.sections[s.current][verseIndex]
	}
	return total
}

// Adjust applies a manual track-level nudge. The track locks, which
// protects the user's correction from automatic re-anchoring, and the
// state is persisted before returning. Returns the new track-level total.
func (s *Store) Adjust(deltaMs int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[s.current]
	if !ok {
		return 0
	}
	st.UserOffset += deltaMs
	st.Locked = true
	s.save()

	logger.Info().
		Str("track", s.current).
		Int64("delta_ms", deltaMs).
		Int64("user_offset_ms", st.UserOffset).
		Msg("Manual offset adjustment")
	return st.Total()
}

// AdjustAtIndex applies a manual nudge scoped to one verse. The section
// entry is created lazily on first adjustment; verses never adjusted
// never get one. Counts as an explicit user action, so the track locks.
func (s *Store) AdjustAtIndex(verseIndex int, deltaMs int64) {
	if verseIndex < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[s.current]
	if !ok {
		return
	}
	if s.sections[s.current] == nil {
		s.sections[s.current] = make(map[int]int64)
	}
	s.sections[s.current][verseIndex] += deltaMs
	st.Locked = true
	s.save()

	logger.Info().
		Str("track", s.current).
		Int("verse", verseIndex).
		Int64("delta_ms", deltaMs).
		Int64("section_total_ms", s.sections[s.current][verseIndex]).
		Msg("Manual section offset adjustment")
}

// HasSections reports whether the bound track carries any per-verse deltas.
func (s *Store) HasSections() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sections[s.current]) > 0
}

// Reset zeroes every offset component of the bound track, clears its
// section deltas and unlocks it, restoring susceptibility to automatic
// re-anchoring. Idempotent.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[s.current]
	if !ok {
		return
	}
	st.BaseOffset = 0
	st.UserOffset = 0
	st.AutoOffset = 0
	st.Locked = false
	st.Confidence = 1.0
	delete(s.sections, s.current)
	s.save()

	logger.Info().Str("track", s.current).Msg("Offsets reset")
}

// Locked reports whether the bound track's offset is protected from
// automatic overwriting.
func (s *Store) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.tracks[s.current]; ok {
		return st.Locked
	}
	return false
}

// Reanchor compensates for a lyric reload whose timestamps shifted.
// prevStartMs is the start of the verse active just before the block
// sequence was replaced, rawProgressMs the uncorrected position at the
// moment of the swap. The new block closest to prevStartMs becomes the
// anchor and the user offset absorbs the difference, so the same verse
// stays visible without a jump. Section deltas are dropped when the
// block count changed, since verse indices no longer line up.
//
// Locked tracks are never re-anchored. Callers invoke this exactly once
// per reload event. Returns the applied delta and whether anything changed.
func (s *Store) Reanchor(newBlocks []lyrics.Block, oldCount int, prevStartMs, rawProgressMs int64) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tracks[s.current]
	if !ok || st.Locked || len(newBlocks) == 0 {
		return 0, false
	}

	if oldCount != len(newBlocks) {
		delete(s.sections, s.current)
	}

	best := newBlocks[0].StartMs
	bestDiff := absInt64(best - prevStartMs)
	for _, b := range newBlocks[1:] {
		if diff := absInt64(b.StartMs - prevStartMs); diff < bestDiff {
			best = b.StartMs
			bestDiff = diff
		}
	}

	delta := best - rawProgressMs - st.Total()
	if delta == 0 {
		return 0, false
	}
	st.UserOffset += delta
	s.save()

	logger.Info().
		Str("track", s.current).
		Int64("anchor_start_ms", best).
		Int64("delta_ms", delta).
		Msg("Re-anchored after lyric reload")
	return delta, true
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
