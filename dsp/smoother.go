package dsp

import "maze.io/x/math32"

// Smoother is a one-pole parameter smoother that removes zipper noise from
// block-rate parameter changes.
type Smoother struct {
	current float32
	target  float32
	coeff   float32
}

// NewSmoother creates a smoother reaching ~63% of a step in timeConstant
// seconds.
func NewSmoother(timeConstant, sampleRate float32) *Smoother {
	s := &Smoother{}
	if timeConstant <= 0 || sampleRate <= 0 {
		s.coeff = 1
		return s
	}
	s.coeff = 1 - math32.Exp(-1/(timeConstant*sampleRate))
	return s
}

// SetTarget sets the value to glide to.
func (s *Smoother) SetTarget(v float32) {
	s.target = v
}

// SetImmediate jumps to v.
func (s *Smoother) SetImmediate(v float32) {
	s.current = v
	s.target = v
}

// Process returns the next smoothed value.
func (s *Smoother) Process() float32 {
	s.current += (s.target - s.current) * s.coeff
	return s.current
}

// Current returns the value without advancing.
func (s *Smoother) Current() float32 {
	return s.current
}
