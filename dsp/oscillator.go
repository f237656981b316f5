package dsp

import "maze.io/x/math32"

// Phasor is a normalized phase accumulator in [0, 1).
type Phasor struct {
	phase float32
	inc   float32
}

// SetFrequency sets the increment for freq Hz at sampleRate.
func (p *Phasor) SetFrequency(freq, sampleRate float32) {
	p.inc = freq / sampleRate
	if p.inc < 0 {
		p.inc = 0
	}
	if p.inc > 0.5 {
		p.inc = 0.5
	}
}

// Reset moves the phase to phase (wrapped into [0, 1)).
func (p *Phasor) Reset(phase float32) {
	p.phase = phase - math32.Floor(phase)
}

// Phase returns the current phase.
func (p *Phasor) Phase() float32 {
	return p.phase
}

// Advance steps the phase by one sample.
func (p *Phasor) Advance() {
	p.phase += p.inc
	if p.phase >= 1 {
		p.phase -= 1
	}
}

// Saw returns a band-limited sawtooth sample (PolyBLEP) and advances.
func (p *Phasor) Saw() float32 {
	v := 2*p.phase - 1 - polyBLEP(p.phase, p.inc)
	p.Advance()
	return v
}

// Square returns a band-limited square sample (PolyBLEP) and advances.
func (p *Phasor) Square() float32 {
	v := float32(1)
	if p.phase >= 0.5 {
		v = -1
	}
	half := p.phase + 0.5
	if half >= 1 {
		half -= 1
	}
	v += polyBLEP(p.phase, p.inc) - polyBLEP(half, p.inc)
	p.Advance()
	return v
}

// Sine returns a sine sample and advances.
func (p *Phasor) Sine() float32 {
	v := math32.Sin(2 * math32.Pi * p.phase)
	p.Advance()
	return v
}

// polyBLEP is the two-sample polynomial correction around a discontinuity at
// phase 0.
func polyBLEP(t, dt float32) float32 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
