package player

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
)

// MPRIS reads playback state over the session bus from an MPRIS
// compliant player such as Spotify or mpv.
type MPRIS struct {
	bus     *dbus.Conn
	service string
}

// NewMPRIS connects to the session bus and targets the given service
// name, e.g. "org.mpris.MediaPlayer2.spotify".
func NewMPRIS(service string) (*MPRIS, error) {
	if service == "" {
		return nil, fmt.Errorf("empty mpris service name")
	}
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &MPRIS{bus: bus, service: service}, nil
}

func (m *MPRIS) Name() string {
	return "mpris"
}

func (m *MPRIS) Close() error {
	return m.bus.Close()
}

func (m *MPRIS) CurrentPlayback(ctx context.Context) (*Playback, error) {
	if !m.bus.Connected() {
		return nil, ErrSessionExpired
	}
	obj := m.bus.Object(m.service, mprisPath)

	metaProp, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	metadata, ok := metaProp.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", metaProp.Value())
	}

	pb := &Playback{
		Title:      extractString(metadata, "xesam:title"),
		Artist:     extractArtist(metadata, "xesam:artist"),
		Album:      extractString(metadata, "xesam:album"),
		TrackID:    extractString(metadata, "mpris:trackid"),
		DurationMs: extractMicrosAsMs(metadata, "mpris:length"),
	}
	if pb.Title == "" || pb.Artist == "" {
		return nil, fmt.Errorf("missing title or artist in metadata (title=%q, artist=%q)", pb.Title, pb.Artist)
	}

	posProp, err := obj.GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return nil, fmt.Errorf("failed to get position property: %w", err)
	}
	if micros, ok := posProp.Value().(int64); ok && micros > 0 {
		pb.ProgressMs = micros / 1_000
	}

	statusProp, err := obj.GetProperty(mprisPlayerIface + ".PlaybackStatus")
	if err == nil {
		if status, ok := statusProp.Value().(string); ok {
			pb.Playing = status == "Playing"
		}
	}
	return pb, nil
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	if text, ok := variant.Value().(string); ok {
		return text
	}
	return ""
}

// extractArtist handles both the standard []string shape and the bare
// string some players emit instead.
func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractMicrosAsMs(metadata map[string]dbus.Variant, key string) int64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}
	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return typed / 1_000
	case uint64:
		return int64(typed / 1_000)
	default:
		return 0
	}
}
