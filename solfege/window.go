package solfege

import (
	"sort"

	"maze.io/x/math32"
)

// Window is a read-only view over the degrees of a scale, with a restricted
// floating range that follows the current register of the player.
// Windows are values: Recenter returns a new window.
type Window struct {
	degrees []Note
	size    int
	lo, hi  int
}

// Voice is one note of a chord. OK is false when the chord degree falls
// outside the known degrees; the voice should then stay silent.
type Voice struct {
	Note float32
	OK   bool
}

// NewWindow builds a window over ascending, duplicate-free degrees.
// size is the number of degrees of the floating range; size <= 0 or size
// covering every degree disables the restriction.
func NewWindow(degrees []Note, size int) Window {
	w := Window{degrees: degrees, hi: len(degrees) - 1}
	if size > 0 && size < len(degrees) {
		if size < 2 {
			size = 2
		}
		w.size = size
		w.hi = size - 1
	}
	return w
}

// Degrees returns every degree of the window.
func (w Window) Degrees() []Note {
	return w.degrees
}

// Restricted returns the degrees of the floating range.
func (w Window) Restricted() []Note {
	if len(w.degrees) == 0 {
		return nil
	}
	return w.degrees[w.lo : w.hi+1]
}

// Recenter moves the floating range so that pitch falls in one of its inner
// intervals. The window is returned unchanged when it already does, or when
// the window is unrestricted.
func (w Window) Recenter(pitch float32) Window {
	if w.size == 0 || len(w.degrees) < 2 {
		return w
	}
	i := w.intervalIndex(pitch)
	last := len(w.degrees) - 1
	if i >= w.lo && i+1 <= w.hi && (i > w.lo || w.lo == 0) && (i+1 < w.hi || w.hi == last) {
		return w
	}

	lo := i - (w.size-2)/2
	if lo > len(w.degrees)-w.size {
		lo = len(w.degrees) - w.size
	}
	if lo < 0 {
		lo = 0
	}
	w.lo = lo
	w.hi = lo + w.size - 1
	return w
}

// Autotune pulls raw toward the nearest degree of the floating range.
// strength is the number of smooth step iterations; a pitch outside the
// floating range is returned unchanged.
func (w Window) Autotune(raw float32, strength int) float32 {
	return Smoothstairs(raw, strength, Intervals(w.Restricted()))
}

// Autochord builds a chord from the degree nearest to root. Offsets are in
// scale degrees, not semitones: [0, 2, 4] is a triad. Each voice keeps the
// root's deviation from its degree so an unquantized root glides the whole
// chord. Voices past either end of the degrees are silenced.
func (w Window) Autochord(root float32, offsets []int) []Voice {
	voices := make([]Voice, len(offsets))
	if len(w.degrees) == 0 {
		return voices
	}
	idx := w.nearestIndex(root)
	deviation := root - float32(w.degrees[idx])
	for i, off := range offsets {
		j := idx + off
		if j < 0 || j >= len(w.degrees) {
			continue
		}
		voices[i] = Voice{Note: float32(w.degrees[j]) + deviation, OK: true}
	}
	return voices
}

// nearestIndex returns the index of the degree closest to pitch.
func (w Window) nearestIndex(pitch float32) int {
	j := sort.Search(len(w.degrees), func(k int) bool { return float32(w.degrees[k]) >= pitch })
	if j == 0 {
		return 0
	}
	if j == len(w.degrees) {
		return len(w.degrees) - 1
	}
	below := pitch - float32(w.degrees[j-1])
	above := float32(w.degrees[j]) - pitch
	if math32.Abs(below) <= math32.Abs(above) {
		return j - 1
	}
	return j
}

// intervalIndex returns i such that degrees[i] <= pitch <= degrees[i+1],
// clamped to the first or last interval.
func (w Window) intervalIndex(pitch float32) int {
	j := sort.Search(len(w.degrees), func(k int) bool { return float32(w.degrees[k]) > pitch })
	i := j - 1
	if i < 0 {
		i = 0
	}
	if i > len(w.degrees)-2 {
		i = len(w.degrees) - 2
	}
	return i
}
