package synth

import (
	"testing"

	"github.com/cwbudde/theremotion/controls"
)

func TestInstrumentSilentAtInitialValues(t *testing.T) {
	in, _ := newTestInstrument(t)
	out := in.Process(4800)
	if peak := windowRMS(out); peak > 1e-6 {
		t.Fatalf("expected silence, rms=%.8f", peak)
	}
}

func TestInstrumentRendersFiniteLead(t *testing.T) {
	in, state := newTestInstrument(t)
	mustSet(t, state, controls.PathVolume, -6)
	mustSet(t, state, controls.PathResonance, 12)
	mustSet(t, state, controls.PathCutoffNote, 48)
	mustSet(t, state, controls.PathSupersaw, 1)
	mustSet(t, state, controls.PathBend, 2)
	state.Flush()

	out := in.Process(24000)
	if len(out) != 48000 {
		t.Fatalf("expected 48000 interleaved samples, got %d", len(out))
	}
	if !allFinite(out) {
		t.Fatal("non-finite output")
	}
	if rms := windowRMS(out[24000:]); rms < 0.01 {
		t.Fatalf("lead too quiet: rms=%.6f", rms)
	}
	for i := 0; i < len(out); i += 2 {
		if out[i] != out[i+1] {
			t.Fatalf("frame %d: channels differ without body IR", i/2)
		}
	}
}

func TestInstrumentMuteSilencesLead(t *testing.T) {
	in, state := newTestInstrument(t)
	mustSet(t, state, controls.PathVolume, 0)
	mustSet(t, state, controls.PathMute, 1)
	state.Flush()

	out := in.Process(9600)
	if rms := windowRMS(out[9600:]); rms > 1e-4 {
		t.Fatalf("muted lead audible: rms=%.6f", rms)
	}
}

func TestInstrumentDroneFollowsVolume(t *testing.T) {
	in, state := newTestInstrument(t)
	mustSet(t, state, controls.PathDroneVolume, 1)
	state.Flush()

	out := in.Process(24000)
	if rms := windowRMS(out[24000:]); rms < 0.05 {
		t.Fatalf("drone too quiet: rms=%.6f", rms)
	}
}

func TestInstrumentPlucksOnRisingGate(t *testing.T) {
	in, state := newTestInstrument(t)
	in.Process(blockSize)

	mustSet(t, state, controls.VoiceNotePath(1), 57)
	mustSet(t, state, controls.VoicePluckPath(1), 1)
	state.Flush()
	out := in.Process(4800)
	plucked := windowRMS(out)
	if plucked < 0.005 {
		t.Fatalf("no pluck after rising gate: rms=%.6f", plucked)
	}
	if got := in.strings[1].Frequency(); got < 219 || got > 221 {
		t.Fatalf("voice 1 tuned to %.2f Hz, want 220", got)
	}

	// Falling gate: the string keeps ringing.
	mustSet(t, state, controls.VoicePluckPath(1), 0)
	state.Flush()
	released := windowRMS(in.Process(4800))
	if released < plucked*0.3 {
		t.Fatalf("falling gate damped the string: %.6f -> %.6f", plucked, released)
	}
}

func TestInstrumentHeldGateDoesNotRetrigger(t *testing.T) {
	in, state := newTestInstrument(t)
	mustSet(t, state, controls.VoicePluckPath(0), 1)
	state.Flush()
	first := windowRMS(in.Process(4800))

	var last float64
	for range 10 {
		last = windowRMS(in.Process(4800))
	}
	if last >= first {
		t.Fatalf("held gate retriggered: first=%.6f last=%.6f", first, last)
	}
}

func TestInstrumentMuteDampsStrings(t *testing.T) {
	render := func(mute bool) float64 {
		in, state := newTestInstrument(t)
		mustSet(t, state, controls.VoicePluckPath(0), 1)
		state.Flush()
		in.Process(blockSize)
		if mute {
			mustSet(t, state, controls.PathMute, 1)
			state.Flush()
		}
		in.Process(4800)
		return windowRMS(in.Process(4800))
	}
	free, muted := render(false), render(true)
	if muted >= free*0.1 {
		t.Fatalf("mute did not damp: free=%.6f muted=%.6f", free, muted)
	}
}

func TestInstrumentOutputIndependentOfCallbackSize(t *testing.T) {
	state := NewState(DefaultParams())
	mustSet(t, state, controls.PathVolume, -3)
	mustSet(t, state, controls.VoicePluckPath(3), 1)
	state.Flush()

	whole := NewInstrument(48000, state).Process(1000)

	chunked := NewInstrument(48000, state)
	var got []float32
	for len(got) < len(whole) {
		frames := min(37, (len(whole)-len(got))/2)
		got = append(got, chunked.Process(frames)...)
	}
	for i := range whole {
		if whole[i] != got[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, whole[i], got[i])
		}
	}
}

func TestInstrumentBodyIR(t *testing.T) {
	ir := make([]float32, 512)
	ir[0] = 1
	ir[100] = -0.5
	path := writeTempIRWav(t, ir, 44100)

	in, state := newTestInstrument(t)
	if err := in.SetBodyIRFromWAV(path); err != nil {
		t.Fatalf("load ir: %v", err)
	}
	mustSet(t, state, controls.VoicePluckPath(0), 1)
	state.Flush()

	out := in.Process(9600)
	if !allFinite(out) {
		t.Fatal("non-finite output")
	}
	if rms := windowRMS(out); rms < 0.001 {
		t.Fatalf("body output silent: rms=%.6f", rms)
	}
}

func TestInstrumentBodyIRMissingFile(t *testing.T) {
	in, _ := newTestInstrument(t)
	if err := in.SetBodyIRFromWAV(t.TempDir() + "/missing.wav"); err == nil {
		t.Fatal("expected error")
	}
	if in.body != nil {
		t.Fatal("failed load must keep the dry path")
	}
}

func TestInstrumentSetBodyIRSplitsChannels(t *testing.T) {
	in, state := newTestInstrument(t)
	in.SetBodyIR([]float32{1}, []float32{0.25})
	mustSet(t, state, controls.VoicePluckPath(0), 1)
	state.Flush()

	out := in.Process(4800)
	differ := false
	for i := 0; i < len(out); i += 2 {
		if out[i] != out[i+1] {
			differ = true
			break
		}
	}
	if !differ {
		t.Fatal("expected the body IR to give distinct channels")
	}
}
