package player

import (
	"context"
	"errors"
	"time"
)

// Poller samples a Provider on a fixed interval and publishes each
// observation on a channel. Read errors are logged and skipped so a
// briefly unreachable player does not tear the loop down.
type Poller struct {
	provider Provider
	interval time.Duration
	samples  chan *Playback
}

func NewPoller(provider Provider, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Poller{
		provider: provider,
		interval: interval,
		samples:  make(chan *Playback, 1),
	}
}

// Samples delivers playback observations. The channel closes when Run
// returns.
func (p *Poller) Samples() <-chan *Playback {
	return p.samples
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	defer close(p.samples)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pb, err := p.provider.CurrentPlayback(ctx)
		if err != nil {
			if errors.Is(err, ErrSessionExpired) {
				logger.Error().Str("backend", p.provider.Name()).Msg("player session expired, stopping poll loop")
				return
			}
			if !errors.Is(err, ErrNoPlayer) {
				logger.Debug().Err(err).Str("backend", p.provider.Name()).Msg("playback read failed")
			}
			continue
		}

		select {
		case p.samples <- pb:
		default:
			// Consumer is behind; the next tick carries fresher state.
		}
	}
}
