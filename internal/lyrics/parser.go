package lyrics

import (
	"bufio"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// InstrumentalText marks a synthetic block covering a non-vocal gap.
	InstrumentalText = "[Instrumental]"

	// DefaultTailMs caps how long a single verse is assumed to stay on
	// screen when the source gives no end timestamp.
	DefaultTailMs int64 = 10000

	// instrumentalGapMs is the silence between a verse's assumed end and
	// the next verse's start that gets filled with an instrumental marker.
	instrumentalGapMs int64 = 8000

	// MaxBlockMs bounds block duration after interpolation so the offset
	// engine has fine-grained anchor points.
	MaxBlockMs int64 = 6000
)

// Line is a single timed lyric entry before block construction.
type Line struct {
	TimeMs int64
	Text   string
}

var lrcLineRe = regexp.MustCompile(`\[(\d{2}):(\d{2})\.(\d{2,3})\]\s*(.*)`)

// ParseLRC converts LRC-formatted text into verse blocks.
// Timestamps are [mm:ss.hh] with a 2- or 3-digit fractional part;
// 2-digit fractions are hundredths and get padded to milliseconds.
func ParseLRC(raw string) []Block {
	return BuildBlocks(ParseLRCLines(raw))
}

// ParseLRCLines extracts the ordered (timestamp, text) pairs from LRC text,
// discarding entries whose text is empty after trimming.
func ParseLRCLines(raw string) []Line {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		m := lrcLineRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		frac := m[3]
		if len(frac) == 2 {
			frac += "0"
		}
		ms, _ := strconv.Atoi(frac)
		text := strings.TrimSpace(m[4])
		if text == "" {
			continue
		}
		lines = append(lines, Line{
			TimeMs: int64(min)*60000 + int64(sec)*1000 + int64(ms),
			Text:   text,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].TimeMs < lines[j].TimeMs })
	return lines
}

// BuildBlocks turns timed lines into an ordered, non-overlapping block
// sequence. A verse's natural end is the next line's start, capped at
// DefaultTailMs; when the capped end leaves a silence longer than
// instrumentalGapMs before the next verse, a synthetic instrumental block
// fills it. No marker is inserted between two identical lines, which is a
// source artifact rather than a real gap. Immediately repeated verse text
// is collapsed, including a repeat on both sides of an inserted
// instrumental block.
func BuildBlocks(lines []Line) []Block {
	if len(lines) == 0 {
		return nil
	}

	var blocks []Block
	for i, ln := range lines {
		end := ln.TimeMs + DefaultTailMs
		if i+1 < len(lines) {
			next := lines[i+1].TimeMs
			gap := next - end
			switch {
			case gap <= 0:
				end = next
			case gap > instrumentalGapMs && ln.Text != lines[i+1].Text:
				blocks = append(blocks, Block{StartMs: ln.TimeMs, EndMs: end, Text: ln.Text})
				blocks = append(blocks, Block{StartMs: end, EndMs: next, Text: InstrumentalText})
				continue
			default:
				// small silence: stretch the verse instead of
				// flashing an instrumental marker
				end = next
			}
		}
		blocks = append(blocks, Block{StartMs: ln.TimeMs, EndMs: end, Text: ln.Text})
	}

	return dedupBlocks(blocks)
}

// dedupBlocks drops a vocal block whose text equals the previous surviving
// vocal block, either directly adjacent or across one instrumental marker.
func dedupBlocks(blocks []Block) []Block {
	out := blocks[:0]
	lastVocal := ""
	for _, b := range blocks {
		if !b.Instrumental() {
			if b.Text == lastVocal {
				continue
			}
			lastVocal = b.Text
		}
		out = append(out, b)
	}
	return out
}

// Interpolate splits vocal blocks longer than maxMs into successive
// sub-blocks of maxMs with the same text; the final remainder keeps the
// true end time. Bracketed markers such as [Instrumental] pass through
// untouched. maxMs <= 0 selects MaxBlockMs.
func Interpolate(blocks []Block, maxMs int64) []Block {
	if maxMs <= 0 {
		maxMs = MaxBlockMs
	}
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.DurationMs() <= maxMs || strings.HasPrefix(b.Text, "[") {
			out = append(out, b)
			continue
		}
		t := b.StartMs
		for t+maxMs < b.EndMs {
			out = append(out, Block{StartMs: t, EndMs: t + maxMs, Text: b.Text})
			t += maxMs
		}
		if t < b.EndMs {
			out = append(out, Block{StartMs: t, EndMs: b.EndMs, Text: b.Text})
		}
	}
	return out
}
