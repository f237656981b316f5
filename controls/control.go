package controls

import (
	"github.com/cwbudde/theremotion/solfege"
)

// Controllable is a typed view over one or more engine parameters.
type Controllable interface {
	// Receive pulls the engine's current values.
	Receive(state State) error
	// Send stages the local values; the caller flushes.
	Send(state State) error
}

// Control is a continuous parameter.
type Control struct {
	// Current value, always within Range.
	Value float32
	// Range declared by the engine.
	Range solfege.Range
	// Engine path.
	Path string
}

// NewControl builds a control at the parameter's initial value.
func NewControl(p Param) Control {
	r := p.Range()
	return Control{Value: r.Clamp(p.Init), Range: r, Path: p.Path}
}

func (c *Control) Receive(state State) error {
	v, err := state.Get(c.Path)
	if err != nil {
		return err
	}
	c.Value = c.Range.Clamp(v)
	return nil
}

func (c *Control) Send(state State) error {
	return state.Set(c.Path, c.Value)
}

// Set assigns v clamped to the declared range.
func (c *Control) Set(v float32) {
	c.Value = c.Range.Clamp(v)
}

// SetScaled maps v from the input range onto the declared range.
func (c *Control) SetScaled(v float32, in solfege.Range) {
	c.Value = solfege.ConvertRange(v, in, c.Range)
}

// BoolControl is an on/off parameter stored by the engine as 0 or 1.
type BoolControl struct {
	Value bool
	Path  string
}

// NewBoolControl builds a boolean control at the parameter's initial value.
func NewBoolControl(p Param) BoolControl {
	return BoolControl{Value: p.Init > 0.5, Path: p.Path}
}

func (c *BoolControl) Receive(state State) error {
	v, err := state.Get(c.Path)
	if err != nil {
		return err
	}
	c.Value = v > 0.5
	return nil
}

func (c *BoolControl) Send(state State) error {
	v := float32(0)
	if c.Value {
		v = 1
	}
	return state.Set(c.Path, v)
}

// NoteControl is a pitch with its pre-quantization value and the autotune
// strength used to derive one from the other.
type NoteControl struct {
	// Quantized note sent to the engine.
	Value float32
	Path  string

	// Unquantized note, kept for display.
	RawValue float32
	RawPath  string

	// Autotune strength, in smooth step iterations.
	Autotune Control

	rng solfege.Range
}

// NewNoteControl builds a note control from the note, raw note and autotune
// strength parameters.
func NewNoteControl(note Param, raw Param, autotune Param) NoteControl {
	return NoteControl{
		Value:    note.Range().Clamp(note.Init),
		Path:     note.Path,
		RawValue: raw.Range().Clamp(raw.Init),
		RawPath:  raw.Path,
		Autotune: NewControl(autotune),
		rng:      note.Range(),
	}
}

func (c *NoteControl) Receive(state State) error {
	v, err := state.Get(c.Path)
	if err != nil {
		return err
	}
	raw, err := state.Get(c.RawPath)
	if err != nil {
		return err
	}
	if err := c.Autotune.Receive(state); err != nil {
		return err
	}
	c.Value = v
	c.RawValue = raw
	return nil
}

func (c *NoteControl) Send(state State) error {
	if err := state.Set(c.Path, c.Value); err != nil {
		return err
	}
	if err := state.Set(c.RawPath, c.RawValue); err != nil {
		return err
	}
	return c.Autotune.Send(state)
}

// Strength returns the autotune strength as an iteration count.
func (c *NoteControl) Strength() int {
	return int(c.Autotune.Value)
}

// SetScaled maps v from the input range onto the pitch range, derives the
// autotune strength from a and quantizes the result with the window.
func (c *NoteControl) SetScaled(v float32, in solfege.Range, a float32, autotuneIn solfege.Range, pitch solfege.Range, w solfege.Window) {
	c.RawValue = c.rng.Clamp(solfege.ConvertRange(v, in, pitch))
	c.Autotune.SetScaled(a, autotuneIn)
	c.Requantize(w)
}

// Requantize recomputes Value from RawValue, Autotune and the window.
func (c *NoteControl) Requantize(w solfege.Window) {
	c.Value = c.rng.Clamp(w.Autotune(c.RawValue, c.Strength()))
}
