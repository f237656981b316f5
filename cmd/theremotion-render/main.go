package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/theremotion/conductor"
	"github.com/cwbudde/theremotion/internal/logging"
	"github.com/cwbudde/theremotion/internal/wavio"
	"github.com/cwbudde/theremotion/irsynth"
	"github.com/cwbudde/theremotion/settings"
	"github.com/cwbudde/theremotion/synth"
	"github.com/cwbudde/theremotion/tracking"
)

func main() {
	replayPath := flag.String("replay", "", "Recording to render (synthetic gestures when empty)")
	duration := flag.Float64("duration", 8.0, "Duration of synthetic gestures in seconds")
	frameRate := flag.Int("frame-rate", 60, "Synthetic tracking frame rate")
	tail := flag.Float64("tail", 1.0, "Seconds rendered after the last frame")
	settingsPath := flag.String("settings", "", "Settings file (.json, .yaml or .yml)")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	body := flag.Bool("body", true, "Route the strings through a synthesized guitar body")
	irPath := flag.String("ir", "", "Impulse response WAV applied to the whole mix (optional)")
	irMix := flag.Float64("ir-mix", 0.3, "Wet level of -ir, 0..1")
	output := flag.String("output", "output.wav", "Output WAV file path")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := logging.Init(*verbose)

	s := settings.Default()
	if *settingsPath != "" {
		var err error
		if s, err = settings.Load(*settingsPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading settings %q: %v\n", *settingsPath, err)
			os.Exit(1)
		}
	}

	var frames []tracking.Frame
	var err error
	if *replayPath != "" {
		frames, err = replayFrames(*replayPath)
	} else {
		frames, err = syntheticFrames(*duration, *frameRate)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading gestures: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Rendering %d frames at %d Hz (preset: %s)...\n", len(frames), *sampleRate, s.Preset.Name)
	start := time.Now()
	samples, err := render(frames, s, *sampleRate, *tail, *body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}
	log.Debug("rendered", "frames", len(samples)/2, "elapsed", time.Since(start))

	if *irPath != "" {
		irL, irR, rate, err := wavio.ReadStereo(*irPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading IR %q: %v\n", *irPath, err)
			os.Exit(1)
		}
		if rate != *sampleRate {
			log.Warn("IR sample rate differs from the render rate", "ir", rate, "render", *sampleRate)
		}
		if samples, err = applyIR(samples, irL, irR, float32(*irMix)); err != nil {
			fmt.Fprintf(os.Stderr, "Error applying IR: %v\n", err)
			os.Exit(1)
		}
	}

	if err := wavio.WriteStereo(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames, peak %.1f dBFS)\n", *output, len(samples)/2, peakDBFS(samples))
}

func replayFrames(path string) ([]tracking.Frame, error) {
	rec, err := tracking.LoadRecording(path)
	if err != nil {
		return nil, err
	}
	if len(rec.Frames) == 0 {
		return nil, errors.New("recording has no frames")
	}
	t0 := rec.Frames[0].T
	frames := make([]tracking.Frame, len(rec.Frames))
	for i, f := range rec.Frames {
		frames[i] = tracking.Frame{T: f.T - t0, Event: f.Event}
	}
	return frames, nil
}

func syntheticFrames(duration float64, rate int) ([]tracking.Frame, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %d", rate)
	}
	n := int(duration * float64(rate))
	conn, err := (&tracking.Synthetic{Rate: float32(rate), Frames: n}).Connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	frames := make([]tracking.Frame, 0, n)
	for i := 0; ; i++ {
		ev, err := conn.Poll(time.Second)
		if errors.Is(err, tracking.ErrExhausted) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, tracking.Frame{T: float64(i) / float64(rate), Event: ev})
	}
}

// render plays frames through a conductor into a fresh instrument. Audio up
// to each frame's time is rendered before the frame is applied.
func render(frames []tracking.Frame, s settings.Settings, sampleRate int, tail float64, body bool) ([]float32, error) {
	state := synth.NewState(synth.DefaultParams())
	inst := synth.NewInstrument(sampleRate, state)
	if body {
		cfg := irsynth.DefaultConfig()
		cfg.SampleRate = sampleRate
		l, r, err := irsynth.Generate(cfg)
		if err != nil {
			return nil, err
		}
		inst.SetBodyIR(l, r)
	}
	cond := conductor.New(state, conductor.DefaultConfig(), nil)
	cond.ApplySettings(s)

	var out []float32
	rendered := 0
	advance := func(to int) {
		if to > rendered {
			out = append(out, inst.Process(to-rendered)...)
			rendered = to
		}
	}
	for _, f := range frames {
		advance(int(math.Round(f.T * float64(sampleRate))))
		if f.Event.Kind == tracking.EventTracking {
			for _, m := range tracking.Messages(f.Event, s.System.Handedness) {
				cond.Handle(m)
			}
		}
		cond.Handle(conductor.TrackingStatus{})
	}
	advance(rendered + int(tail*float64(sampleRate)))
	return out, nil
}

// applyIR mixes the stereo mix convolved with the IR into the dry signal and
// scales the result to the dry peak.
func applyIR(interleaved, irL, irR []float32, mix float32) ([]float32, error) {
	frames := len(interleaved) / 2
	if frames == 0 || len(irL) == 0 {
		return interleaved, nil
	}
	if mix < 0 {
		mix = 0
	}
	if mix > 1 {
		mix = 1
	}

	wet := [2][]float32{}
	for ch, ir := range [][]float32{irL, irR} {
		dry := make([]float32, frames)
		for i := range dry {
			dry[i] = interleaved[2*i+ch]
		}
		conv := make([]float32, frames+len(ir)-1)
		if err := algofft.ConvolveReal(conv, dry, ir); err != nil {
			return nil, err
		}
		wet[ch] = conv[:frames]
	}

	dryPeak := peak(interleaved)
	out := make([]float32, len(interleaved))
	for i := range frames {
		for ch := range 2 {
			out[2*i+ch] = (1-mix)*interleaved[2*i+ch] + mix*wet[ch][i]
		}
	}
	if p := peak(out); p > 0 && dryPeak > 0 {
		g := dryPeak / p
		for i := range out {
			out[i] *= g
		}
	}
	return out, nil
}

func peak(x []float32) float32 {
	var p float32
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		if v > p {
			p = v
		}
	}
	return p
}

func peakDBFS(x []float32) float64 {
	p := peak(x)
	if p == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(float64(p))
}
