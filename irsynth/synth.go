// Package irsynth synthesizes stereo body impulse responses for the plucked
// chord strings: an air cavity resonance, a set of top plate modes and a short
// direct impulse.
package irsynth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Config controls body IR generation.
//
// Plate mode frequencies follow a simply-supported orthotropic rectangular
// plate:
//
//	f_mn/f_11 = sqrt(S·m⁴ + 2·√S·m²n²R² + n⁴R⁴) / sqrt(S + 2·√S·R² + R⁴)
//
// with S = StiffnessRatio (Dx/Dy) and R = PlateRatio (Lx/Ly). Modes below
// CrossoverHz ring for LowDecayS, modes above for HighDecayS.
type Config struct {
	SampleRate int
	DurationS  float64
	Seed       int64

	// Air cavity (Helmholtz) resonance. It radiates as a monopole, so it is
	// identical in both channels.
	HelmholtzHz    float64
	HelmholtzLevel float64
	HelmholtzDecay float64

	TopHz          float64 // lowest plate mode f_11
	Modes          int
	PlateRatio     float64
	StiffnessRatio float64
	Brightness     float64

	DirectLevel float64
	LowDecayS   float64
	HighDecayS  float64
	CrossoverHz float64
	StereoWidth float64
	FadeOutS    float64

	NormalizePeak float64
}

// DefaultConfig returns a small acoustic guitar body.
func DefaultConfig() Config {
	return Config{
		SampleRate:     48000,
		DurationS:      0.12,
		Seed:           1,
		HelmholtzHz:    102,
		HelmholtzLevel: 0.8,
		HelmholtzDecay: 0.06,
		TopHz:          190,
		Modes:          48,
		PlateRatio:     1.3,
		StiffnessRatio: 12,
		Brightness:     1.0,
		DirectLevel:    0.5,
		LowDecayS:      0.08,
		HighDecayS:     0.015,
		CrossoverHz:    900,
		StereoWidth:    0.5,
		FadeOutS:       0.01,
		NormalizePeak:  0.9,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.DurationS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if c.Modes < 0 {
		return fmt.Errorf("modes must be >= 0")
	}
	if c.TopHz <= 0 || c.HelmholtzHz <= 0 {
		return fmt.Errorf("resonance frequencies must be > 0")
	}
	if 2*c.HelmholtzHz >= float64(c.SampleRate) {
		return fmt.Errorf("helmholtz frequency %.1f Hz above Nyquist", c.HelmholtzHz)
	}
	if c.PlateRatio <= 0 || c.StiffnessRatio <= 0 {
		return fmt.Errorf("plate and stiffness ratios must be > 0")
	}
	if c.Brightness <= 0 {
		return fmt.Errorf("brightness must be > 0")
	}
	if c.DirectLevel < 0 || c.HelmholtzLevel < 0 {
		return fmt.Errorf("levels must be >= 0")
	}
	if c.LowDecayS <= 0 || c.HighDecayS <= 0 || c.HelmholtzDecay <= 0 {
		return fmt.Errorf("decay seconds must be > 0")
	}
	if c.CrossoverHz <= 0 {
		return fmt.Errorf("crossover Hz must be > 0")
	}
	if c.StereoWidth < 0 || c.StereoWidth > 1 {
		return fmt.Errorf("stereo width must be in [0, 1]")
	}
	if c.FadeOutS < 0 {
		return fmt.Errorf("fade-out must be >= 0")
	}
	if c.NormalizePeak <= 0 {
		return fmt.Errorf("normalize peak must be > 0")
	}
	return nil
}

// Samples is the IR length in frames.
func (c *Config) Samples() int {
	return max(1, int(math.Round(c.DurationS*float64(c.SampleRate))))
}

// Generate synthesizes the left and right body IR. The same seed always
// yields the same IR.
func Generate(cfg Config) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	n := cfg.Samples()
	left := make([]float64, n)
	right := make([]float64, n)
	rng := rand.New(rand.NewSource(cfg.Seed))
	sr := float64(cfg.SampleRate)

	left[0] += cfg.DirectLevel
	right[0] += cfg.DirectLevel

	air := math.Exp(-1.0 / (cfg.HelmholtzDecay * sr))
	addMode(left, cfg.HelmholtzLevel, cfg.HelmholtzHz, 0, air, sr)
	addMode(right, cfg.HelmholtzLevel, cfg.HelmholtzHz, 0, air, sr)

	maxF := 0.45 * sr
	logCrossover := math.Log(cfg.CrossoverHz)
	tilt := 0.6 + 0.9*cfg.Brightness
	for _, f := range plateModes(cfg.TopHz, maxF, cfg.Modes, cfg.PlateRatio, cfg.StiffnessRatio) {
		amp := 0.8 / math.Pow(1.0+(f-cfg.TopHz)/250.0, tilt)
		amp *= 0.6 + 0.8*rng.Float64()

		blend := 1.0 / (1.0 + math.Exp(-3.0*(math.Log(f)-logCrossover)))
		tau := cfg.LowDecayS*(1.0-blend) + cfg.HighDecayS*blend
		decay := math.Exp(-1.0 / (tau * sr))

		// Each plate mode radiates with its own direction and phase in the
		// two channels.
		pan := cfg.StereoWidth * (2*rng.Float64() - 1)
		phi := rng.Float64() * 2 * math.Pi
		spread := cfg.StereoWidth * (rng.Float64() - 0.5) * math.Pi
		addMode(left, amp*(1+pan), f, phi, decay, sr)
		addMode(right, amp*(1-pan), f, phi+spread, decay, sr)
	}

	for _, ch := range [][]float64{left, right} {
		highpassDC(ch, 0.995)
		fadeOut(ch, cfg.FadeOutS, cfg.SampleRate)
	}

	peak := math.Max(maxAbs(left), maxAbs(right))
	if peak < 1e-12 {
		peak = 1e-12
	}
	s := cfg.NormalizePeak / peak
	outL := make([]float32, n)
	outR := make([]float32, n)
	for i := range n {
		outL[i] = float32(left[i] * s)
		outR[i] = float32(right[i] * s)
	}
	return outL, outR, nil
}

// Interleave packs two channels into stereo frames.
func Interleave(left, right []float32) []float32 {
	n := min(len(left), len(right))
	out := make([]float32, 2*n)
	for i := range n {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}

// plateModes returns up to maxModes plate eigenfrequencies in [f11, maxF],
// ascending.
func plateModes(f11, maxF float64, maxModes int, R, S float64) []float64 {
	if maxModes == 0 {
		return nil
	}
	sqrtS := math.Sqrt(S)
	R2 := R * R
	R4 := R2 * R2
	denom := math.Sqrt(S + 2*sqrtS*R2 + R4)

	mMax := int(math.Sqrt(maxF/f11*denom/sqrtS)) + 2
	nMax := int(math.Sqrt(maxF/f11*denom)/R) + 2

	freqs := make([]float64, 0, mMax*nMax)
	for m := 1; m <= mMax; m++ {
		m2 := float64(m * m)
		for n := 1; n <= nMax; n++ {
			n2 := float64(n * n)
			f := f11 * math.Sqrt(S*m2*m2+2*sqrtS*m2*n2*R2+n2*n2*R4) / denom
			if f > maxF {
				break
			}
			freqs = append(freqs, f)
		}
	}
	sort.Float64s(freqs)
	if len(freqs) > maxModes {
		freqs = freqs[:maxModes]
	}
	return freqs
}

// addMode adds an exponentially decaying sinusoid, computed with the
// Chebyshev recurrence.
func addMode(out []float64, amp, freq, phase, decay, sampleRate float64) {
	if len(out) == 0 || amp == 0 {
		return
	}
	w := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w)
	x0 := math.Cos(phase)
	x1 := math.Cos(phase + w)
	env := amp
	out[0] += env * x0
	if len(out) == 1 {
		return
	}
	env *= decay
	out[1] += env * x1
	for i := 2; i < len(out); i++ {
		x0, x1 = x1, 2*cw*x1-x0
		env *= decay
		out[i] += env * x1
	}
}

func highpassDC(x []float64, r float64) {
	prevIn, prevOut := 0.0, 0.0
	for i, v := range x {
		y := v - prevIn + r*prevOut
		prevIn, prevOut = v, y
		x[i] = y
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// fadeOut applies a raised-cosine fade to the last fadeS seconds of buf.
func fadeOut(buf []float64, fadeS float64, sampleRate int) {
	if fadeS <= 0 || len(buf) == 0 {
		return
	}
	n := min(len(buf), int(math.Round(fadeS*float64(sampleRate))))
	start := len(buf) - n
	for i := range n {
		t := float64(i) / float64(n)
		buf[start+i] *= 0.5 * (1 + math.Cos(t*math.Pi))
	}
}
