package synth

import dspcore "github.com/cwbudde/algo-dsp/dsp/core"

// StringWaveguide is a plucked-string digital waveguide whose pitch can be
// changed between plucks without reallocating its delay line.
type StringWaveguide struct {
	sampleRate  float32
	frequency   float32
	delayLength float32
	delayLine   []float32
	writePos    int

	reflection       float32
	baseReflection   float32
	damperReflection float32
	damperEngaged    bool

	lowpassCoeff float32
	loopState    float32
}

// NewStringWaveguide allocates a string able to play down to minFreq Hz.
func NewStringWaveguide(sampleRate int, minFreq float32) *StringWaveguide {
	if minFreq < 10 {
		minFreq = 10
	}
	s := &StringWaveguide{
		sampleRate:       float32(sampleRate),
		reflection:       0.996,
		baseReflection:   0.996,
		damperReflection: 0.9,
		lowpassCoeff:     0.2,
	}
	maxDelay := int(s.sampleRate/minFreq) + 4
	s.delayLine = make([]float32, maxDelay)
	s.SetFrequency(minFreq)
	return s
}

// SetFrequency retunes the string, clamped to the range the delay line holds.
func (s *StringWaveguide) SetFrequency(freq float32) {
	if freq <= 0 {
		return
	}
	s.frequency = freq
	s.retune()
}

// retune sets the delay so the loop, including the phase delay of the loss
// filter at low frequencies, matches the frequency.
func (s *StringWaveguide) retune() {
	d := s.sampleRate/s.frequency - s.lowpassCoeff/(1-s.lowpassCoeff)
	if d < 2 {
		d = 2
	}
	if limit := float32(len(s.delayLine) - 2); d > limit {
		d = limit
	}
	s.delayLength = d
}

// Frequency returns the current tuning in Hz.
func (s *StringWaveguide) Frequency() float32 {
	return s.frequency
}

// Process renders one sample from the string and advances the simulation.
func (s *StringWaveguide) Process() float32 {
	delayed := s.readDelayFractional(s.delayLength)
	s.delayLine[s.writePos] = s.processLoopLoss(delayed)
	s.writePos = (s.writePos + 1) % len(s.delayLine)
	return delayed
}

// Pluck injects a zero-mean triangular displacement peaking at a fractional
// position [0,1] of the current string length.
func (s *StringWaveguide) Pluck(force float32, position float32) {
	if position < 0.01 {
		position = 0.01
	}
	if position > 0.99 {
		position = 0.99
	}
	length := int(s.delayLength)
	if length < 2 {
		return
	}
	peak := int(float32(length) * position)
	for i := range length {
		var amp float32
		if i <= peak {
			amp = float32(i) / float32(max(peak, 1))
		} else {
			amp = float32(length-i) / float32(max(length-peak, 1))
		}
		pos := (s.writePos - length + i + len(s.delayLine)) % len(s.delayLine)
		s.delayLine[pos] += force * (amp - 0.5)
	}
}

// SetLoopLoss configures loop loss.
func (s *StringWaveguide) SetLoopLoss(gain float32, highFreqDamping float32) {
	if gain <= 0 {
		gain = 0.0001
	}
	if gain > 1.0 {
		gain = 1.0
	}
	if highFreqDamping < 0.0 {
		highFreqDamping = 0.0
	}
	if highFreqDamping > 0.99 {
		highFreqDamping = 0.99
	}
	s.baseReflection = gain
	s.reflection = gain
	if s.damperEngaged {
		s.reflection = s.damperReflection
	}
	s.lowpassCoeff = highFreqDamping
	s.retune()
}

// SetDamper toggles aggressive damping for muting.
func (s *StringWaveguide) SetDamper(engaged bool) {
	s.damperEngaged = engaged
	if engaged {
		s.reflection = s.damperReflection
		return
	}
	s.reflection = s.baseReflection
}

func (s *StringWaveguide) processLoopLoss(input float32) float32 {
	lp := (1.0-s.lowpassCoeff)*input + s.lowpassCoeff*s.loopState
	lp = float32(dspcore.FlushDenormals(float64(lp)))
	s.loopState = lp
	return float32(dspcore.FlushDenormals(float64(lp * s.reflection)))
}

func (s *StringWaveguide) readDelayFractional(delay float32) float32 {
	intDelay := int(delay)
	frac := delay - float32(intDelay)
	readPos1 := (s.writePos - intDelay + len(s.delayLine)) % len(s.delayLine)
	readPos2 := (s.writePos - intDelay - 1 + len(s.delayLine)) % len(s.delayLine)
	sample1 := s.delayLine[readPos1]
	sample2 := s.delayLine[readPos2]
	return sample1*(1.0-frac) + sample2*frac
}
