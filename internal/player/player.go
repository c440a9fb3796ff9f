package player

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "player").Logger()

// ErrNoPlayer reports that no media player is currently reachable.
var ErrNoPlayer = errors.New("no active media player")

// ErrSessionExpired reports that the connection to the player is gone
// for good and polling should stop until the daemon is restarted.
var ErrSessionExpired = errors.New("player session expired")

// Playback is one observation of the player state.
type Playback struct {
	Title      string
	Artist     string
	Album      string
	TrackID    string
	ProgressMs int64
	DurationMs int64
	Playing    bool
}

// Provider reads the current playback state from a media player.
type Provider interface {
	Name() string
	CurrentPlayback(ctx context.Context) (*Playback, error)
}
