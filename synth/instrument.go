package synth

import (
	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/dsp"
)

const (
	// blockSize is the control rate of the instrument: parameters are loaded
	// once per block. It matches the body convolver partition.
	blockSize = 128
	// filterUpdateInterval is how often the smoothed cutoff reaches the filter.
	filterUpdateInterval = 16

	minVolumeDB = -59.9
	pluckForce  = 0.6
	leadLevel   = 0.5
	droneLevel  = 0.3
	stringLevel = 0.35
)

// Detune factors of the supersaw oscillators, in units of the detune
// parameter.
var supersawSpread = [...]float32{-1, -0.55, -0.2, 0.2, 0.55, 1}

// paramIndex caches snapshot positions so the audio path never looks up paths.
type paramIndex struct {
	note, bend, volume, cutoff, res int
	supersaw, detune, sub, mute     int
	droneNote, droneVolume          int
	pluckPosition, pluckDamping     int
	voiceNote, voicePluck           [controls.NumVoices]int
}

func newParamIndex(s *State) paramIndex {
	idx := paramIndex{
		note:          s.MustIndex(controls.PathNote),
		bend:          s.MustIndex(controls.PathBend),
		volume:        s.MustIndex(controls.PathVolume),
		cutoff:        s.MustIndex(controls.PathCutoffNote),
		res:           s.MustIndex(controls.PathResonance),
		supersaw:      s.MustIndex(controls.PathSupersaw),
		detune:        s.MustIndex(controls.PathDetune),
		sub:           s.MustIndex(controls.PathSubVolume),
		mute:          s.MustIndex(controls.PathMute),
		droneNote:     s.MustIndex(controls.PathDroneNote),
		droneVolume:   s.MustIndex(controls.PathDroneVolume),
		pluckPosition: s.MustIndex(controls.PathPluckPosition),
		pluckDamping:  s.MustIndex(controls.PathPluckDamping),
	}
	for i := range controls.NumVoices {
		idx.voiceNote[i] = s.MustIndex(controls.VoiceNotePath(i))
		idx.voicePluck[i] = s.MustIndex(controls.VoicePluckPath(i))
	}
	return idx
}

// Instrument renders the lead synth, the drone and the plucked chord strings
// from the parameters published on a State.
type Instrument struct {
	sampleRate float32
	state      *State
	idx        paramIndex

	saw    dsp.Phasor
	super  [len(supersawSpread)]dsp.Phasor
	sub    dsp.Phasor
	drone  dsp.Phasor
	filter *dsp.Biquad

	gain      *dsp.Smoother
	cutoff    *dsp.Smoother
	droneGain *dsp.Smoother

	strings [controls.NumVoices]*StringWaveguide
	gates   [controls.NumVoices]bool
	damped  bool

	body *BodyConvolver

	// One rendered block, stereo interleaved, and the read position in frames.
	block    []float32
	pluckBus []float32
	pos      int
}

// NewInstrument creates an instrument reading its parameters from state.
// The state must declare DefaultParams.
func NewInstrument(sampleRate int, state *State) *Instrument {
	sr := float32(sampleRate)
	in := &Instrument{
		sampleRate: sr,
		state:      state,
		idx:        newParamIndex(state),
		filter:     dsp.NewLowpass(1000, sr, 0.7),
		gain:       dsp.NewSmoother(0.01, sr),
		cutoff:     dsp.NewSmoother(0.02, sr),
		droneGain:  dsp.NewSmoother(0.05, sr),
		block:      make([]float32, blockSize*2),
		pluckBus:   make([]float32, blockSize),
		pos:        blockSize,
	}
	for i := range in.super {
		in.super[i].Reset(float32(i) / float32(len(in.super)))
	}
	for i := range in.strings {
		in.strings[i] = NewStringWaveguide(sampleRate, 20)
	}
	snap := state.Snapshot()
	in.cutoff.SetImmediate(snap.Value(in.idx.cutoff))
	return in
}

// SampleRate returns the output rate in Hz.
func (in *Instrument) SampleRate() int {
	return int(in.sampleRate)
}

// State returns the parameter table the instrument renders from.
func (in *Instrument) State() *State {
	return in.state
}

// SetBodyIRFromWAV routes the strings through a body impulse response. Call
// before audio starts.
func (in *Instrument) SetBodyIRFromWAV(path string) error {
	body := NewBodyConvolver(int(in.sampleRate))
	if err := body.SetIRFromWAV(path); err != nil {
		return err
	}
	in.body = body
	return nil
}

// SetBodyIR routes the strings through the given body impulse response,
// taken at the engine rate. Call before audio starts.
func (in *Instrument) SetBodyIR(left, right []float32) {
	body := NewBodyConvolver(int(in.sampleRate))
	body.SetIR(left, right)
	in.body = body
}

// Process renders frames of stereo interleaved audio.
func (in *Instrument) Process(frames int) []float32 {
	out := make([]float32, frames*2)
	in.ProcessTo(out)
	return out
}

// ProcessTo fills dst with stereo interleaved audio. It does not allocate and
// is safe to call from the audio callback.
func (in *Instrument) ProcessTo(dst []float32) {
	dst = dst[:len(dst)/2*2]
	for len(dst) > 0 {
		if in.pos == blockSize {
			in.renderBlock()
			in.pos = 0
		}
		n := copy(dst, in.block[in.pos*2:])
		dst = dst[n:]
		in.pos += n / 2
	}
}

func (in *Instrument) renderBlock() {
	snap := in.state.Snapshot()
	idx := &in.idx
	sr := in.sampleRate

	note := snap.Value(idx.note) + snap.Value(idx.bend)
	freq := NoteToFreq(note)
	detune := snap.Value(idx.detune)
	in.saw.SetFrequency(freq, sr)
	for i, spread := range supersawSpread {
		in.super[i].SetFrequency(NoteToFreq(note+spread*detune), sr)
	}
	in.sub.SetFrequency(freq*0.5, sr)
	mix := snap.Value(idx.supersaw)
	subVolume := snap.Value(idx.sub)
	q := snap.Value(idx.res)

	mute := snap.Bool(idx.mute)
	var target float32
	if vol := snap.Value(idx.volume); !mute && vol > minVolumeDB {
		target = dbToGain(vol)
	}
	in.gain.SetTarget(target)
	in.cutoff.SetTarget(snap.Value(idx.cutoff))

	in.drone.SetFrequency(NoteToFreq(snap.Value(idx.droneNote)), sr)
	in.droneGain.SetTarget(snap.Value(idx.droneVolume))

	in.updateStrings(snap, mute)

	for i := range blockSize {
		cutoff := in.cutoff.Process()
		if i%filterUpdateInterval == 0 {
			in.filter.SetLowpass(NoteToFreq(note+cutoff), sr, q)
		}

		var super float32
		for j := range in.super {
			super += in.super[j].Saw()
		}
		super /= float32(len(in.super))
		osc := in.saw.Saw()*(1-mix) + super*mix + in.sub.Square()*subVolume*0.5

		lead := in.filter.Process(osc*leadLevel) * in.gain.Process()
		if !isFinite(lead) {
			in.filter.Reset()
			lead = 0
		}
		drone := in.drone.Sine() * in.droneGain.Process() * droneLevel

		var pluck float32
		for _, s := range in.strings {
			pluck += s.Process()
		}
		in.pluckBus[i] = pluck * stringLevel

		in.block[2*i] = lead + drone
		in.block[2*i+1] = lead + drone
	}

	if in.body != nil {
		in.body.ProcessTo(in.block, in.pluckBus)
		return
	}
	for i, v := range in.pluckBus {
		in.block[2*i] += v
		in.block[2*i+1] += v
	}
}

// updateStrings plucks every voice whose gate rose since the previous block.
// A falling gate lets the string ring; mute engages the dampers.
func (in *Instrument) updateStrings(snap *Snapshot, mute bool) {
	position := snap.Value(in.idx.pluckPosition)
	damping := snap.Value(in.idx.pluckDamping)
	loopGain := 0.9995 - 0.012*damping
	highDamping := 0.05 + 0.6*damping

	for i, s := range in.strings {
		s.SetLoopLoss(loopGain, highDamping)
		if mute != in.damped {
			s.SetDamper(mute)
		}
		gate := snap.Bool(in.idx.voicePluck[i])
		if gate && !in.gates[i] && !mute {
			s.SetFrequency(NoteToFreq(snap.Value(in.idx.voiceNote[i])))
			s.Pluck(pluckForce, position)
		}
		in.gates[i] = gate
	}
	in.damped = mute
}
