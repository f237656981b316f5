package irsynth

import (
	"math"
	"testing"
)

func TestGenerateShapeAndPeak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NormalizePeak = 0.8

	l, r, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := int(math.Round(cfg.DurationS * float64(cfg.SampleRate)))
	if len(l) != want || len(r) != want {
		t.Fatalf("lengths L=%d R=%d, want %d", len(l), len(r), want)
	}

	peak := 0.0
	energy := 0.0
	for i := range l {
		for _, v := range []float32{l[i], r[i]} {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Fatalf("non-finite sample at %d", i)
			}
			peak = math.Max(peak, math.Abs(f))
			energy += f * f
		}
	}
	if energy <= 1e-8 {
		t.Fatalf("expected non-zero energy")
	}
	if math.Abs(peak-0.8) > 1e-4 {
		t.Fatalf("peak = %.6f, want 0.8", peak)
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 32000
	cfg.Seed = 99

	l1, r1, err := Generate(cfg)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	l2, r2, err := Generate(cfg)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	for i := range l1 {
		if l1[i] != l2[i] || r1[i] != r2[i] {
			t.Fatalf("sample %d differs between runs", i)
		}
	}

	cfg.Seed = 100
	l3, _, err := Generate(cfg)
	if err != nil {
		t.Fatalf("third Generate: %v", err)
	}
	same := true
	for i := range l1 {
		if l1[i] != l3[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected a different IR for a different seed")
	}
}

func TestGenerateMonoWhenWidthIsZero(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StereoWidth = 0

	l, r, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("channels differ at %d: %v vs %v", i, l[i], r[i])
		}
	}
}

func TestGenerateHelmholtzDominatesLowEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Modes = 0
	cfg.DirectLevel = 0
	cfg.FadeOutS = 0

	l, _, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	at := func(hz float64) float64 {
		var re, im float64
		for i, v := range l {
			w := 2 * math.Pi * hz * float64(i) / float64(cfg.SampleRate)
			re += float64(v) * math.Cos(w)
			im -= float64(v) * math.Sin(w)
		}
		return math.Hypot(re, im)
	}
	if at(cfg.HelmholtzHz) < 10*at(3*cfg.HelmholtzHz) {
		t.Fatalf("expected a resonance at %.0f Hz", cfg.HelmholtzHz)
	}
}

func TestPlateModesAscendingAndBounded(t *testing.T) {
	freqs := plateModes(190, 20000, 40, 1.3, 12)
	if len(freqs) != 40 {
		t.Fatalf("got %d modes, want 40", len(freqs))
	}
	if math.Abs(freqs[0]-190) > 1e-9 {
		t.Fatalf("first mode = %.3f, want f11", freqs[0])
	}
	for i := 1; i < len(freqs); i++ {
		if freqs[i] < freqs[i-1] || freqs[i] > 20000 {
			t.Fatalf("mode %d = %.3f out of order or range", i, freqs[i])
		}
	}
	if got := plateModes(190, 20000, 0, 1.3, 12); got != nil {
		t.Fatalf("expected no modes, got %d", len(got))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"sample rate", func(c *Config) { c.SampleRate = 4000 }},
		{"duration", func(c *Config) { c.DurationS = 0 }},
		{"helmholtz", func(c *Config) { c.HelmholtzHz = 30000 }},
		{"width", func(c *Config) { c.StereoWidth = 1.5 }},
		{"decay", func(c *Config) { c.HighDecayS = 0 }},
		{"peak", func(c *Config) { c.NormalizePeak = 0 }},
	}
	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.mod(&cfg)
		if _, _, err := Generate(cfg); err == nil {
			t.Fatalf("%s: expected an error", tc.name)
		}
	}
}

func TestInterleave(t *testing.T) {
	got := Interleave([]float32{1, 2, 3}, []float32{-1, -2})
	want := []float32{1, -1, 2, -2}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
