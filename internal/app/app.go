package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricpip/internal/config"
	"lyricpip/internal/ipc"
	"lyricpip/internal/lyrics"
	"lyricpip/internal/offset"
	"lyricpip/internal/player"
	"lyricpip/internal/source"
	"lyricpip/pkg/genius"
	"lyricpip/pkg/lrclib"
	"lyricpip/pkg/netease"
	"lyricpip/pkg/redis"
)

type fetchResult struct {
	key  string
	data *lyrics.Data
}

// App wires the player poller, the lyric source engine, the offset
// store and the IPC server into one event loop. All mutable state is
// owned by that loop, so no locking happens here.
type App struct {
	cfg       *config.Config
	ipcServer *ipc.Server
	engine    *source.Engine
	offsets   *offset.Store
	backend   player.Provider

	currentKey string
	sample     *player.Playback
	data       *lyrics.Data
	lastIndex  int

	fetchResults chan fetchResult
}

func New(cfg *config.Config) *App {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	backend := buildPlayerBackend(cfg)

	var rdb *redis.Client
	if cfg.Redis.Enable {
		var err error
		rdb, err = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, lyrics cache is memory only")
			rdb = nil
		}
	}

	return &App{
		cfg:          cfg,
		ipcServer:    ipc.NewServer(cfg.App.SocketPath),
		engine:       source.NewEngine(buildSyncedProviders(cfg), buildPlainProviders(cfg), source.NewCache(rdb)),
		offsets:      offset.NewStore(cfg.App.OffsetFile),
		backend:      backend,
		lastIndex:    -1,
		fetchResults: make(chan fetchResult, 4),
	}
}

func buildPlayerBackend(cfg *config.Config) player.Provider {
	if cfg.Player.Backend == "playerctl" {
		return player.NewPlayerctl()
	}
	mpris, err := player.NewMPRIS(cfg.Player.MprisService)
	if err != nil {
		log.Warn().Err(err).Msg("mpris unavailable, falling back to playerctl")
		return player.NewPlayerctl()
	}
	return mpris
}

func buildSyncedProviders(cfg *config.Config) []source.SyncedProvider {
	providers := []source.SyncedProvider{lrclib.NewClient(cfg.Providers.LrclibURL)}
	if cfg.Providers.NeteaseEnable {
		providers = append(providers, netease.NewClient())
	}
	return providers
}

func buildPlainProviders(cfg *config.Config) []source.PlainProvider {
	providers := []source.PlainProvider{plainAdapter{lrclib.NewClient(cfg.Providers.LrclibURL)}}
	if cfg.Providers.GeniusToken != "" {
		providers = append(providers, genius.NewClient(cfg.Providers.GeniusToken))
	}
	return providers
}

// plainAdapter exposes the lrclib client's plain lyrics lookup under
// the PlainProvider shape.
type plainAdapter struct {
	c *lrclib.Client
}

func (a plainAdapter) Name() string { return a.c.Name() }

func (a plainAdapter) Search(ctx context.Context, title, artist string) (string, error) {
	return a.c.SearchPlain(ctx, title, artist)
}

// Run drives the daemon until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.App.CacheDir, 0755); err != nil {
		return err
	}
	if err := a.ipcServer.Start(); err != nil {
		return err
	}
	defer a.ipcServer.Close()

	poller := player.NewPoller(a.backend, a.cfg.App.PollInterval)
	go poller.Run(ctx)

	log.Info().
		Str("backend", a.backend.Name()).
		Str("socket", a.cfg.App.SocketPath).
		Msg("daemon started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case pb, ok := <-poller.Samples():
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				// Poller stopped on its own, which only happens when
				// the player session is gone for good.
				a.ipcServer.Broadcast(ipc.Update{
					Quality: lyrics.QualityError,
					Index:   -1,
					Message: "Player session expired, restart the daemon",
				})
				return nil
			}
			a.handleSample(pb)
		case cmd := <-a.ipcServer.Commands():
			a.handleCommand(cmd)
		case r := <-a.fetchResults:
			a.handleFetchResult(r)
		}
	}
}

func (a *App) handleSample(pb *player.Playback) {
	key := lyrics.TrackKey(pb.Artist, pb.Title)
	a.sample = pb

	if key != a.currentKey {
		log.Info().Str("track", key).Msg("new track detected")
		a.currentKey = key
		a.lastIndex = -1
		a.offsets.Bind(pb.Artist, pb.Title)

		if cached := a.engine.Cached(context.Background(), pb.Title, pb.Artist); cached != nil {
			a.data = cached
			a.recomputeIndex()
			a.broadcast(true)
			return
		}

		a.data = &lyrics.Data{Quality: lyrics.QualitySearching, Message: "Searching for lyrics..."}
		a.broadcast(true)
		a.spawnFetch(pb, false)
		return
	}

	if a.data == nil || !a.data.Quality.Synced() {
		return
	}
	if a.recomputeIndex() {
		a.broadcast(false)
	}
}

func (a *App) handleFetchResult(r fetchResult) {
	if r.key != a.currentKey {
		log.Debug().Str("track", r.key).Msg("dropping stale lyrics result")
		return
	}

	// When fresh blocks replace an already displayed set, shift the
	// user offset once so the verse on screen stays the active one.
	if a.data != nil && len(a.data.Blocks) > 0 && len(r.data.Blocks) > 0 &&
		a.sample != nil && a.lastIndex >= 0 && a.lastIndex < len(a.data.Blocks) {
		prevStart := a.data.Blocks[a.lastIndex].StartMs
		delta, changed := a.offsets.Reanchor(r.data.Blocks, len(a.data.Blocks), prevStart, a.sample.ProgressMs)
		if changed {
			log.Info().Int64("delta_ms", delta).Msg("re-anchored offset after lyrics reload")
		}
	}

	a.data = r.data
	a.lastIndex = -1
	a.recomputeIndex()
	a.broadcast(true)
}

func (a *App) handleCommand(cmd ipc.Command) {
	switch cmd.Name {
	case "offset":
		total := a.offsets.Adjust(cmd.DeltaMs)
		log.Info().Int64("delta_ms", cmd.DeltaMs).Int64("total_ms", total).Msg("offset adjusted")
		a.recomputeIndex()
		a.broadcast(false)
	case "offset_at":
		idx := cmd.Index
		if idx < 0 {
			idx = a.lastIndex
		}
		if idx >= 0 {
			a.offsets.AdjustAtIndex(idx, cmd.DeltaMs)
			log.Info().Int("index", idx).Int64("delta_ms", cmd.DeltaMs).Msg("section offset adjusted")
		}
		a.recomputeIndex()
		a.broadcast(false)
	case "reset":
		a.offsets.Reset()
		log.Info().Msg("offsets reset")
		a.recomputeIndex()
		a.broadcast(false)
	case "refresh":
		if a.sample == nil {
			return
		}
		log.Info().Str("track", a.currentKey).Msg("refreshing lyrics")
		a.spawnFetch(a.sample, true)
	case "status":
		a.broadcast(true)
	default:
		log.Warn().Str("command", cmd.Name).Msg("unknown command")
	}
}

func (a *App) spawnFetch(pb *player.Playback, bypassCache bool) {
	key := lyrics.TrackKey(pb.Artist, pb.Title)
	title, artist := pb.Title, pb.Artist
	durationSec := float64(pb.DurationMs) / 1000

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var d *lyrics.Data
		if bypassCache {
			d = a.engine.Refresh(ctx, title, artist, durationSec)
		} else {
			d = a.engine.Fetch(ctx, title, artist, durationSec)
		}
		a.fetchResults <- fetchResult{key: key, data: d}
	}()
}

// recomputeIndex maps the latest playback position onto a verse and
// reports whether the active verse changed.
func (a *App) recomputeIndex() bool {
	if a.data == nil || len(a.data.Blocks) == 0 || a.sample == nil {
		changed := a.lastIndex != -1
		a.lastIndex = -1
		return changed
	}
	idx := lyrics.IndexAt(a.data.Blocks, a.sample.ProgressMs, a.offsets.TotalOffset(a.lastIndex))
	if idx == a.lastIndex {
		return false
	}
	a.lastIndex = idx
	return true
}

// broadcast pushes the current state to clients. full includes the
// block list and raw text, used on track and lyric changes.
func (a *App) broadcast(full bool) {
	u := ipc.Update{
		Index:         a.lastIndex,
		TotalOffsetMs: a.offsets.TotalOffset(a.lastIndex),
		Track:         a.currentKey,
	}
	if a.data != nil {
		u.Quality = a.data.Quality
		u.Message = a.data.Message
		if full {
			u.Blocks = a.data.Blocks
			u.RawText = a.data.RawText
		}
	}
	a.ipcServer.Broadcast(u)
}
