package player

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Playerctl shells out to the playerctl binary. It is the fallback
// backend for players without a stable MPRIS service name.
type Playerctl struct{}

func NewPlayerctl() *Playerctl {
	return &Playerctl{}
}

func (p *Playerctl) Name() string {
	return "playerctl"
}

func (p *Playerctl) CurrentPlayback(ctx context.Context) (*Playback, error) {
	meta, err := exec.CommandContext(ctx, "playerctl", "metadata", "--format",
		`{{artist}}|{{title}}|{{album}}|{{mpris:length}}|{{status}}`).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPlayer, err)
	}
	pb, err := parsePlayerctlMetadata(strings.TrimSpace(string(meta)))
	if err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, "playerctl", "position").Output()
	if err == nil {
		if seconds, perr := strconv.ParseFloat(strings.TrimSpace(string(out)), 64); perr == nil && seconds > 0 {
			pb.ProgressMs = int64(seconds * 1000)
		}
	}
	return pb, nil
}

func parsePlayerctlMetadata(line string) (*Playback, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 5 {
		return nil, fmt.Errorf("unexpected playerctl output: %q", line)
	}
	pb := &Playback{
		Artist:  strings.TrimSpace(parts[0]),
		Title:   strings.TrimSpace(parts[1]),
		Album:   strings.TrimSpace(parts[2]),
		Playing: strings.TrimSpace(parts[4]) == "Playing",
	}
	if micros, err := strconv.ParseInt(strings.TrimSpace(parts[3]), 10, 64); err == nil && micros > 0 {
		pb.DurationMs = micros / 1_000
	}
	if pb.Title == "" || pb.Artist == "" {
		return nil, fmt.Errorf("missing title or artist in playerctl output: %q", line)
	}
	return pb, nil
}
