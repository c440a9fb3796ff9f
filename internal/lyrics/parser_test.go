package lyrics

import (
	"reflect"
	"testing"
)

func TestParseLRCLines(t *testing.T) {
	t.Run("BasicTimestamps", func(t *testing.T) {
		lines := ParseLRCLines("[00:10.00]Hello\n[00:25.00]World")
		want := []Line{
			{TimeMs: 10000, Text: "Hello"},
			{TimeMs: 25000, Text: "World"},
		}
		if !reflect.DeepEqual(lines, want) {
			t.Errorf("got %v, want %v", lines, want)
		}
	})

	t.Run("FractionalDigits", func(t *testing.T) {
		// two-digit fractions are hundredths, three-digit are milliseconds
		lines := ParseLRCLines("[01:02.49]a\n[01:03.490]b")
		if lines[0].TimeMs != 62490 {
			t.Errorf("two-digit fraction: got %d, want 62490", lines[0].TimeMs)
		}
		if lines[1].TimeMs != 63490 {
			t.Errorf("three-digit fraction: got %d, want 63490", lines[1].TimeMs)
		}
	})

	t.Run("DropsEmptyText", func(t *testing.T) {
		lines := ParseLRCLines("[00:10.00]   \n[00:20.00]Real line")
		if len(lines) != 1 || lines[0].Text != "Real line" {
			t.Errorf("expected only the non-empty entry, got %v", lines)
		}
	})

	t.Run("SortsUnorderedInput", func(t *testing.T) {
		lines := ParseLRCLines("[00:30.00]later\n[00:10.00]earlier")
		if lines[0].Text != "earlier" || lines[1].Text != "later" {
			t.Errorf("expected defensive sort, got %v", lines)
		}
	})

	t.Run("IgnoresGarbage", func(t *testing.T) {
		if lines := ParseLRCLines("no timestamps here\n\n"); lines != nil {
			t.Errorf("expected nil, got %v", lines)
		}
	})
}

func TestBuildBlocks(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if got := BuildBlocks(nil); got != nil {
			t.Errorf("expected nil for empty input, got %v", got)
		}
	})

	t.Run("SingleLineDefaultTail", func(t *testing.T) {
		blocks := BuildBlocks([]Line{{TimeMs: 5000, Text: "only"}})
		want := []Block{{StartMs: 5000, EndMs: 15000, Text: "only"}}
		if !reflect.DeepEqual(blocks, want) {
			t.Errorf("got %v, want %v", blocks, want)
		}
	})

	t.Run("SmallGapStretchesVerse", func(t *testing.T) {
		// 15s apart: the 5s silence after the 10s tail is below the
		// instrumental threshold, so the first verse extends to fill it
		blocks := ParseLRC("[00:10.00]Hello\n[00:25.00]World")
		want := []Block{
			{StartMs: 10000, EndMs: 25000, Text: "Hello"},
			{StartMs: 25000, EndMs: 35000, Text: "World"},
		}
		if !reflect.DeepEqual(blocks, want) {
			t.Errorf("got %v, want %v", blocks, want)
		}
	})

	t.Run("LargeGapInsertsInstrumental", func(t *testing.T) {
		blocks := ParseLRC("[00:10.00]Hello\n[00:30.00]World")
		want := []Block{
			{StartMs: 10000, EndMs: 20000, Text: "Hello"},
			{StartMs: 20000, EndMs: 30000, Text: InstrumentalText},
			{StartMs: 30000, EndMs: 40000, Text: "World"},
		}
		if !reflect.DeepEqual(blocks, want) {
			t.Errorf("got %v, want %v", blocks, want)
		}
	})

	t.Run("GapFillExactlyOneMarker", func(t *testing.T) {
		blocks := ParseLRC("[00:00.00]A\n[00:40.00]B")
		markers := 0
		for _, b := range blocks {
			if b.Instrumental() {
				markers++
				if b.StartMs != 10000 || b.EndMs != 40000 {
					t.Errorf("marker spans %d-%d, want 10000-40000", b.StartMs, b.EndMs)
				}
			}
		}
		if markers != 1 {
			t.Errorf("got %d instrumental markers, want 1", markers)
		}
	})

	t.Run("NoMarkerBetweenIdenticalLines", func(t *testing.T) {
		// a repeated line split by the source is noise, not a real gap
		blocks := ParseLRC("[00:10.00]same\n[00:30.00]same")
		for _, b := range blocks {
			if b.Instrumental() {
				t.Fatalf("unexpected instrumental marker in %v", blocks)
			}
		}
	})

	t.Run("CollapsesAdjacentDuplicates", func(t *testing.T) {
		blocks := BuildBlocks([]Line{
			{TimeMs: 0, Text: "chorus"},
			{TimeMs: 3000, Text: "chorus"},
			{TimeMs: 6000, Text: "verse"},
		})
		if len(blocks) != 2 || blocks[0].Text != "chorus" || blocks[1].Text != "verse" {
			t.Errorf("expected duplicate collapse, got %v", blocks)
		}
	})

	t.Run("CollapsesDuplicateAcrossInstrumental", func(t *testing.T) {
		blocks := BuildBlocks([]Line{
			{TimeMs: 0, Text: "hook"},
			{TimeMs: 30000, Text: "hook"},
			{TimeMs: 35000, Text: "bridge"},
		})
		// identical texts suppress the gap marker, and the repeat itself
		// collapses; only the distinct lines survive
		var texts []string
		for _, b := range blocks {
			texts = append(texts, b.Text)
		}
		if !reflect.DeepEqual(texts, []string{"hook", "bridge"}) {
			t.Errorf("got %v", texts)
		}
	})

	t.Run("SortedNonOverlapping", func(t *testing.T) {
		blocks := ParseLRC("[00:05.00]a\n[00:01.00]b\n[00:50.00]c\n[00:12.00]d")
		for i := 1; i < len(blocks); i++ {
			if blocks[i].StartMs < blocks[i-1].StartMs {
				t.Errorf("blocks not sorted at %d: %v", i, blocks)
			}
			if blocks[i].StartMs < blocks[i-1].EndMs {
				t.Errorf("blocks overlap at %d: %v", i, blocks)
			}
		}
	})
}

func TestInterpolate(t *testing.T) {
	t.Run("SplitsLongBlocks", func(t *testing.T) {
		in := []Block{{StartMs: 0, EndMs: 15000, Text: "long"}}
		got := Interpolate(in, 6000)
		want := []Block{
			{StartMs: 0, EndMs: 6000, Text: "long"},
			{StartMs: 6000, EndMs: 12000, Text: "long"},
			{StartMs: 12000, EndMs: 15000, Text: "long"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("KeepsShortBlocks", func(t *testing.T) {
		in := []Block{{StartMs: 0, EndMs: 4000, Text: "short"}}
		if got := Interpolate(in, 6000); !reflect.DeepEqual(got, in) {
			t.Errorf("got %v, want unchanged", got)
		}
	})

	t.Run("SkipsInstrumentalMarkers", func(t *testing.T) {
		in := []Block{{StartMs: 0, EndMs: 30000, Text: InstrumentalText}}
		if got := Interpolate(in, 6000); len(got) != 1 {
			t.Errorf("instrumental block was split: %v", got)
		}
	})
}

func TestTrackKey(t *testing.T) {
	a := TrackKey("  Neutral Milk Hotel ", "In the Aeroplane Over the Sea")
	b := TrackKey("neutral milk hotel", "IN THE AEROPLANE OVER THE SEA  ")
	if a != b {
		t.Errorf("normalization not deterministic: %q vs %q", a, b)
	}
	if a != "neutral milk hotel - in the aeroplane over the sea" {
		t.Errorf("unexpected key %q", a)
	}
}
