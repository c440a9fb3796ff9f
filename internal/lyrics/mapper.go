package lyrics

// IndexAt maps a playback position to the active verse index under an
// applied offset. It is pure: all temporal memory (offsets, re-anchor
// state) lives in the offset engine, never here.
//
// Returns -1 only for an empty sequence. A position before the first
// block selects index 0 so the window shows the opening verse instead of
// a blank state. A position falling into a boundary gap selects the last
// block already started; when several blocks match, the last one in
// iteration order wins, which keeps a real verse ahead of an
// instrumental marker sharing the same boundary instant.
func IndexAt(blocks []Block, rawProgressMs, totalOffsetMs int64) int {
	if len(blocks) == 0 {
		return -1
	}

	effective := rawProgressMs + totalOffsetMs
	if effective < blocks[0].StartMs {
		return 0
	}

	contained := -1
	lastStarted := -1
	for i, b := range blocks {
		if b.StartMs > effective {
			continue
		}
		lastStarted = i
		if effective < b.EndMs {
			contained = i
		}
	}

	if contained >= 0 {
		return contained
	}
	if lastStarted >= 0 {
		return lastStarted
	}
	return len(blocks) - 1
}
