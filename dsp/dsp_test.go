package dsp

import (
	"math"
	"testing"
)

func rms(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func sine(freq float64, sampleRate float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func TestLowpassAttenuatesAboveCutoff(t *testing.T) {
	const sampleRate = 48000
	tests := []struct {
		freq    float64
		minGain float64
		maxGain float64
	}{
		{100, 0.9, 1.1},
		{8000, 0, 0.1},
	}
	for _, tt := range tests {
		lp := NewLowpass(1000, sampleRate, 0.707)
		in := sine(tt.freq, sampleRate, 9600)
		out := make([]float32, len(in))
		for i, x := range in {
			out[i] = lp.Process(x)
		}
		gain := rms(out[4800:]) / rms(in[4800:])
		if gain < tt.minGain || gain > tt.maxGain {
			t.Fatalf("%.0f Hz: gain %.3f outside [%.2f, %.2f]", tt.freq, gain, tt.minGain, tt.maxGain)
		}
	}
}

func TestSetLowpassKeepsStableAtExtremes(t *testing.T) {
	lp := NewLowpass(1e6, 48000, 40)
	lp.SetLowpass(0, 48000, 0)
	for i := range 48000 {
		x := float32(1)
		if i%2 == 1 {
			x = -1
		}
		y := lp.Process(x)
		if math.IsNaN(float64(y)) || math.IsInf(float64(y), 0) {
			t.Fatalf("non-finite output at %d", i)
		}
	}
}

func TestSmootherConverges(t *testing.T) {
	s := NewSmoother(0.005, 48000)
	s.SetImmediate(0)
	s.SetTarget(1)
	for range 4800 {
		s.Process()
	}
	if math.Abs(float64(s.Current()-1)) > 1e-3 {
		t.Fatalf("smoother did not converge: %v", s.Current())
	}
}

func TestSmootherWithoutTimeConstantJumps(t *testing.T) {
	s := NewSmoother(0, 48000)
	s.SetTarget(3)
	if got := s.Process(); got != 3 {
		t.Fatalf("expected immediate jump, got %v", got)
	}
}

func TestOscillatorsStayBounded(t *testing.T) {
	var saw, square, sin Phasor
	for _, p := range []*Phasor{&saw, &square, &sin} {
		p.SetFrequency(440, 48000)
	}
	var squareSum float64
	for i := range 48000 {
		s := saw.Saw()
		q := square.Square()
		n := sin.Sine()
		squareSum += float64(q)
		for _, v := range []float32{s, q, n} {
			if v < -1.5 || v > 1.5 {
				t.Fatalf("sample %d out of bounds: %v", i, v)
			}
		}
	}
	if mean := squareSum / 48000; math.Abs(mean) > 0.05 {
		t.Fatalf("square wave has DC offset %v", mean)
	}
}

func TestPhasorResetWraps(t *testing.T) {
	var p Phasor
	p.Reset(2.25)
	if math.Abs(float64(p.Phase()-0.25)) > 1e-6 {
		t.Fatalf("phase = %v, want 0.25", p.Phase())
	}
}
