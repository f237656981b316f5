package synth

import (
	"math"
	"testing"

	"github.com/cwbudde/theremotion/internal/wavio"
)

func measureFundamentalFreq(samples []float32, sampleRate float32) float32 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 {
		return 0
	}
	duration := float32(len(samples)-startIdx) / sampleRate
	return float32(crossings) / (2.0 * duration)
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func allFinite(samples []float32) bool {
	for _, s := range samples {
		if !isFinite(s) {
			return false
		}
	}
	return true
}

func newTestInstrument(t *testing.T) (*Instrument, *State) {
	t.Helper()
	state := NewState(DefaultParams())
	return NewInstrument(48000, state), state
}

func mustSet(t *testing.T, s *State, path string, v float32) {
	t.Helper()
	if err := s.Set(path, v); err != nil {
		t.Fatalf("set %s: %v", path, err)
	}
}

func writeTempIRWav(t *testing.T, samples []float32, sampleRate int) string {
	t.Helper()
	path := t.TempDir() + "/ir.wav"
	if err := wavio.WriteMono(path, samples, sampleRate); err != nil {
		t.Fatalf("write ir: %v", err)
	}
	return path
}
