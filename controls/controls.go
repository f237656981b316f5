package controls

import "fmt"

// Engine parameter paths.
const (
	PathNote             = "note"
	PathRawNote          = "raw_note"
	PathAutotuneStrength = "autotune_strength"
	PathVolume           = "volume"
	PathCutoffNote       = "cutoff_note"
	PathResonance        = "res"
	PathSupersaw         = "supersaw"
	PathDetune           = "detune"
	PathSubVolume        = "sub_volume"
	PathBend             = "bend"
	PathMute             = "mute"
	PathDroneNote        = "drone_note"
	PathDroneVolume      = "drone_volume"
	PathPluckPosition    = "pluck_position"
	PathPluckDamping     = "pluck_damping"
)

// NumVoices is the number of chord voices of the engine.
const NumVoices = 4

// VoiceNotePath returns the note path of chord voice i.
func VoiceNotePath(i int) string {
	return fmt.Sprintf("voice%d_note", i)
}

// VoicePluckPath returns the pluck gate path of chord voice i.
func VoicePluckPath(i int) string {
	return fmt.Sprintf("voice%d_pluck", i)
}

// VoiceControl is one chord voice: its note and its pluck gate.
type VoiceControl struct {
	Note  Control
	Pluck BoolControl
}

// Controls is the full control set of the instrument. It holds only values:
// assigning a Controls copies it.
type Controls struct {
	// Lead note, MIDI 0-127.
	Note NoteControl
	// Lead volume, dB.
	Volume Control
	// Filter cutoff relative to the note, semitones.
	CutoffNote Control
	// Filter resonance (Q).
	Resonance Control
	// Supersaw mix.
	Supersaw Control
	// Supersaw detune, semitones.
	Detune Control
	// Sub oscillator volume.
	SubVolume Control
	// Pitch bend, semitones.
	Bend Control
	// Mutes the lead and damps the strings.
	Mute BoolControl

	DroneNote   Control
	DroneVolume Control

	// Excitation position along the strings.
	PluckPosition Control
	// String damping.
	PluckDamping Control

	Voices [NumVoices]VoiceControl
}

// New builds the control set from the engine's declared parameters.
// It panics when a parameter is missing.
func New(d Declared) Controls {
	c := Controls{
		Note: NewNoteControl(
			MustLookup(d, PathNote),
			MustLookup(d, PathRawNote),
			MustLookup(d, PathAutotuneStrength),
		),
		Volume:        NewControl(MustLookup(d, PathVolume)),
		CutoffNote:    NewControl(MustLookup(d, PathCutoffNote)),
		Resonance:     NewControl(MustLookup(d, PathResonance)),
		Supersaw:      NewControl(MustLookup(d, PathSupersaw)),
		Detune:        NewControl(MustLookup(d, PathDetune)),
		SubVolume:     NewControl(MustLookup(d, PathSubVolume)),
		Bend:          NewControl(MustLookup(d, PathBend)),
		Mute:          NewBoolControl(MustLookup(d, PathMute)),
		DroneNote:     NewControl(MustLookup(d, PathDroneNote)),
		DroneVolume:   NewControl(MustLookup(d, PathDroneVolume)),
		PluckPosition: NewControl(MustLookup(d, PathPluckPosition)),
		PluckDamping:  NewControl(MustLookup(d, PathPluckDamping)),
	}
	for i := range c.Voices {
		c.Voices[i] = VoiceControl{
			Note:  NewControl(MustLookup(d, VoiceNotePath(i))),
			Pluck: NewBoolControl(MustLookup(d, VoicePluckPath(i))),
		}
	}
	return c
}

// All returns every control, in a fixed order.
func (c *Controls) All() []Controllable {
	all := []Controllable{
		&c.Note, &c.Volume, &c.CutoffNote, &c.Resonance, &c.Supersaw, &c.Detune,
		&c.SubVolume, &c.Bend, &c.Mute, &c.DroneNote, &c.DroneVolume,
		&c.PluckPosition, &c.PluckDamping,
	}
	for i := range c.Voices {
		all = append(all, &c.Voices[i].Note, &c.Voices[i].Pluck)
	}
	return all
}

// Receive reads every control from the engine.
func (c *Controls) Receive(state State) error {
	for _, ctl := range c.All() {
		if err := ctl.Receive(state); err != nil {
			return err
		}
	}
	return nil
}

// Send stages every control and flushes the batch. A failed write discards
// what was staged, so a later Flush does not publish half of this batch.
func (c *Controls) Send(state State) error {
	for _, ctl := range c.All() {
		if err := ctl.Send(state); err != nil {
			state.Discard()
			return err
		}
	}
	state.Flush()
	return nil
}

// SetByPath assigns a continuous or boolean control by engine path. The value
// is clamped to the declared range; booleans use the 0.5 threshold.
func (c *Controls) SetByPath(path string, v float32) error {
	for _, ctl := range c.All() {
		switch ctl := ctl.(type) {
		case *Control:
			if ctl.Path == path {
				ctl.Set(v)
				return nil
			}
		case *BoolControl:
			if ctl.Path == path {
				ctl.Value = v > 0.5
				return nil
			}
		case *NoteControl:
			if ctl.Path == path {
				ctl.Value = ctl.rng.Clamp(v)
				return nil
			}
			if ctl.Autotune.Path == path {
				ctl.Autotune.Set(v)
				return nil
			}
		}
	}
	return fmt.Errorf("unknown control %q", path)
}

// PluckedVoices counts the voices whose pluck gate is up.
func (c *Controls) PluckedVoices() int {
	n := 0
	for _, v := range c.Voices {
		if v.Pluck.Value {
			n++
		}
	}
	return n
}

// Clone returns an independent copy for publication to other goroutines.
func (c *Controls) Clone() Controls {
	return *c
}
