package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// NoteToFreq converts a fractional MIDI note to Hz.
func NoteToFreq(note float32) float32 {
	const a4Freq = 440.0
	const a4Note = 69
	return a4Freq * pow2Approx((note-a4Note)/12.0)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

// dbToGain converts decibels to a linear factor.
func dbToGain(db float32) float32 {
	const ln10Over20 = 0.11512925464970228
	return approx.FastExp(db * ln10Over20)
}

func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
