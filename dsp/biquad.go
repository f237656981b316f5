package dsp

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"maze.io/x/math32"
)

// Biquad implements a second-order IIR filter (no heap allocations in Process)
type Biquad struct {
	// Coefficients
	b0, b1, b2 float32
	a1, a2     float32

	// State (previous samples)
	x1, x2 float32 // input history
	y1, y2 float32 // output history
}

// NewBiquad creates a new biquad filter with the given coefficients
func NewBiquad(b0, b1, b2, a1, a2 float32) *Biquad {
	return &Biquad{
		b0: b0,
		b1: b1,
		b2: b2,
		a1: a1,
		a2: a2,
	}
}

// NewLowpass creates a lowpass biquad filter
func NewLowpass(cutoff, sampleRate, q float32) *Biquad {
	b := &Biquad{}
	b.SetLowpass(cutoff, sampleRate, q)
	return b
}

// Process processes one sample through the biquad filter
func (b *Biquad) Process(input float32) float32 {
	// Direct Form I implementation
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	output = float32(dspcore.FlushDenormals(float64(output)))

	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output

	return output
}

// SetLowpass recomputes the coefficients in place, keeping the filter
// history so the cutoff can move every block without clicks.
// The cutoff is kept below Nyquist.
func (b *Biquad) SetLowpass(cutoff, sampleRate, q float32) {
	if q < 0.1 {
		q = 0.1
	}
	nyquist := 0.49 * sampleRate
	if cutoff > nyquist {
		cutoff = nyquist
	}
	if cutoff < 10 {
		cutoff = 10
	}
	w0 := 2.0 * math32.Pi * cutoff / sampleRate
	alpha := math32.Sin(w0) / (2.0 * q)
	cosw0 := math32.Cos(w0)

	a0 := 1.0 + alpha
	b.b0 = (1.0 - cosw0) / 2.0 / a0
	b.b1 = (1.0 - cosw0) / a0
	b.b2 = (1.0 - cosw0) / 2.0 / a0
	b.a1 = -2.0 * cosw0 / a0
	b.a2 = (1.0 - alpha) / a0
}

// Reset clears the filter state
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}
