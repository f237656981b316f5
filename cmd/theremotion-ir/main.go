// Command theremotion-ir writes a synthesized body impulse response as a
// stereo WAV file, usable with theremotion -ir.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/theremotion/internal/wavio"
	"github.com/cwbudde/theremotion/irsynth"
)

func main() {
	cfg := irsynth.DefaultConfig()

	output := flag.String("output", "body.wav", "Output WAV path")
	flag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "Output sample rate")
	flag.Float64Var(&cfg.DurationS, "duration", cfg.DurationS, "IR length in seconds")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	flag.Float64Var(&cfg.HelmholtzHz, "air", cfg.HelmholtzHz, "Air cavity resonance (Hz)")
	flag.Float64Var(&cfg.HelmholtzLevel, "air-level", cfg.HelmholtzLevel, "Air cavity level")
	flag.Float64Var(&cfg.TopHz, "top", cfg.TopHz, "Lowest top plate mode (Hz)")
	flag.IntVar(&cfg.Modes, "modes", cfg.Modes, "Number of plate modes")
	flag.Float64Var(&cfg.PlateRatio, "plate-ratio", cfg.PlateRatio, "Top plate aspect ratio Lx/Ly")
	flag.Float64Var(&cfg.StiffnessRatio, "stiffness-ratio", cfg.StiffnessRatio, "Top plate stiffness ratio Dx/Dy")
	flag.Float64Var(&cfg.Brightness, "brightness", cfg.Brightness, "Spectral brightness control (>0)")
	flag.Float64Var(&cfg.DirectLevel, "direct", cfg.DirectLevel, "Direct impulse level")
	flag.Float64Var(&cfg.LowDecayS, "low-decay", cfg.LowDecayS, "Decay of modes below the crossover (s)")
	flag.Float64Var(&cfg.HighDecayS, "high-decay", cfg.HighDecayS, "Decay of modes above the crossover (s)")
	flag.Float64Var(&cfg.CrossoverHz, "crossover", cfg.CrossoverHz, "Decay crossover (Hz)")
	flag.Float64Var(&cfg.StereoWidth, "stereo-width", cfg.StereoWidth, "Stereo width 0..1")
	flag.Float64Var(&cfg.NormalizePeak, "normalize", cfg.NormalizePeak, "Peak normalization target")
	flag.Parse()

	left, right, err := irsynth.Generate(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "theremotion-ir error: %v\n", err)
		os.Exit(1)
	}
	if err := wavio.WriteStereo(*output, irsynth.Interleave(left, right), cfg.SampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "wav write error: %v\n", err)
		os.Exit(1)
	}

	peak, rms := stats(left, right)
	fmt.Printf("Wrote %s\n", *output)
	fmt.Printf("SampleRate: %d Hz, Duration: %.3f s, Samples: %d\n", cfg.SampleRate, cfg.DurationS, len(left))
	fmt.Printf("Peak: %.6f, RMS: %.6f\n", peak, rms)
}

func stats(left, right []float32) (peak, rms float64) {
	n := min(len(left), len(right))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for i := range n {
		l, r := float64(left[i]), float64(right[i])
		peak = math.Max(peak, math.Max(math.Abs(l), math.Abs(r)))
		sum += l*l + r*r
	}
	return peak, math.Sqrt(sum / float64(2*n))
}
