package controls

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cwbudde/theremotion/solfege"
)

// mapState is an in-memory engine recording writes and flushes.
type mapState struct {
	params  []Param
	values  map[string]float32
	staged  map[string]float32
	flushes int
	failOn  string
}

func newMapState() *mapState {
	s := &mapState{values: map[string]float32{}, staged: map[string]float32{}}
	add := func(path string, lo, hi, init float32) {
		s.params = append(s.params, Param{Path: path, Min: lo, Max: hi, Init: init})
		s.values[path] = init
	}
	add(PathNote, 0, 127, 60)
	add(PathRawNote, 0, 127, 60)
	add(PathAutotuneStrength, 0, 5, 0)
	add(PathVolume, -60, 0, -60)
	add(PathCutoffNote, -24, 48, 12)
	add(PathResonance, 0.5, 12, 0.7)
	add(PathSupersaw, 0, 1, 0)
	add(PathDetune, 0, 0.5, 0)
	add(PathSubVolume, 0, 1, 0)
	add(PathBend, -2, 2, 0)
	add(PathMute, 0, 1, 0)
	add(PathDroneNote, 0, 127, 36)
	add(PathDroneVolume, 0, 1, 0)
	add(PathPluckPosition, 0.05, 0.95, 0.2)
	add(PathPluckDamping, 0, 1, 0.2)
	for i := range NumVoices {
		add(VoiceNotePath(i), 0, 127, 60)
		add(VoicePluckPath(i), 0, 1, 0)
	}
	return s
}

func (s *mapState) Params() []Param { return s.params }

func (s *mapState) Get(path string) (float32, error) {
	v, ok := s.values[path]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", path)
	}
	return v, nil
}

func (s *mapState) Set(path string, v float32) error {
	if path == s.failOn {
		return errors.New("write refused")
	}
	if _, ok := s.values[path]; !ok {
		return fmt.Errorf("unknown parameter %q", path)
	}
	s.staged[path] = v
	return nil
}

func (s *mapState) Flush() {
	for k, v := range s.staged {
		s.values[k] = v
	}
	clear(s.staged)
	s.flushes++
}

func (s *mapState) Discard() { clear(s.staged) }

func TestSendWritesEveryControlAndFlushesOnce(t *testing.T) {
	s := newMapState()
	c := New(s)
	c.Volume.Set(-10)
	c.Note.RawValue = 61.3
	c.Note.Value = 62
	c.Voices[3].Pluck.Value = true

	if err := c.Send(s); err != nil {
		t.Fatal(err)
	}
	if s.flushes != 1 {
		t.Fatalf("flushes = %d, want 1", s.flushes)
	}
	want := map[string]float32{
		PathVolume:        -10,
		PathNote:          62,
		PathRawNote:       61.3,
		VoicePluckPath(3): 1,
		VoicePluckPath(0): 0,
	}
	for path, v := range want {
		if s.values[path] != v {
			t.Fatalf("%s = %v, want %v", path, s.values[path], v)
		}
	}
}

func TestSendDoesNotFlushAfterFailedWrite(t *testing.T) {
	s := newMapState()
	s.failOn = PathDetune
	c := New(s)
	c.Volume.Set(-3)

	if err := c.Send(s); err == nil {
		t.Fatal("expected error")
	}
	if s.flushes != 0 {
		t.Fatalf("flushed %d times after a failed write", s.flushes)
	}
	if s.values[PathVolume] != -60 {
		t.Fatalf("partial update visible: volume=%v", s.values[PathVolume])
	}
	s.Flush()
	if s.values[PathVolume] != -60 {
		t.Fatalf("flush after a failed send published volume=%v", s.values[PathVolume])
	}
}

func TestReceiveClampsEngineValues(t *testing.T) {
	s := newMapState()
	s.values[PathCutoffNote] = 100
	s.values[PathMute] = 0.7
	s.values[PathAutotuneStrength] = 3

	c := New(s)
	if err := c.Receive(s); err != nil {
		t.Fatal(err)
	}
	if c.CutoffNote.Value != 48 {
		t.Fatalf("cutoff = %v, want 48", c.CutoffNote.Value)
	}
	if !c.Mute.Value {
		t.Fatal("0.7 should read as true")
	}
	if c.Note.Strength() != 3 {
		t.Fatalf("strength = %d, want 3", c.Note.Strength())
	}
}

func TestControlSetScaled(t *testing.T) {
	c := NewControl(Param{Path: "x", Min: -60, Max: 0})
	tests := []struct {
		in   float32
		want float32
	}{
		{0, -60},
		{0.5, -30},
		{1, 0},
		{2, 0},
		{-1, -60},
	}
	for _, tt := range tests {
		c.SetScaled(tt.in, solfege.R(0, 1))
		if c.Value != tt.want {
			t.Fatalf("SetScaled(%v) = %v, want %v", tt.in, c.Value, tt.want)
		}
	}
}

func TestNoteControlZeroStrengthKeepsRawPitch(t *testing.T) {
	s := newMapState()
	c := New(s)
	major, err := solfege.LookupScale("major")
	if err != nil {
		t.Fatal(err)
	}
	w := solfege.NewWindow(major.Notes(0, 48, 84), 0)

	c.Note.SetScaled(0.37, solfege.R(0, 1), 0, solfege.R(0, 1), solfege.R(48, 84), w)
	if c.Note.Strength() != 0 {
		t.Fatalf("strength = %d", c.Note.Strength())
	}
	if c.Note.Value != c.Note.RawValue {
		t.Fatalf("value %v != raw %v at strength 0", c.Note.Value, c.Note.RawValue)
	}

	c.Note.SetScaled(0.37, solfege.R(0, 1), 1, solfege.R(0, 1), solfege.R(48, 84), w)
	if c.Note.Strength() != 5 {
		t.Fatalf("strength = %d, want 5", c.Note.Strength())
	}
	if c.Note.Value == c.Note.RawValue {
		t.Fatal("full strength should move the pitch toward a degree")
	}
}

func TestSetByPath(t *testing.T) {
	c := New(newMapState())
	if err := c.SetByPath(PathVolume, 10); err != nil {
		t.Fatal(err)
	}
	if c.Volume.Value != 0 {
		t.Fatalf("volume = %v, want clamped 0", c.Volume.Value)
	}
	if err := c.SetByPath(VoicePluckPath(1), 1); err != nil {
		t.Fatal(err)
	}
	if !c.Voices[1].Pluck.Value {
		t.Fatal("voice 1 gate not set")
	}
	if err := c.SetByPath(PathAutotuneStrength, 4); err != nil {
		t.Fatal(err)
	}
	if c.Note.Strength() != 4 {
		t.Fatalf("strength = %d, want 4", c.Note.Strength())
	}
	if err := c.SetByPath("bogus", 1); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c := New(newMapState())
	snap := c.Clone()
	c.Voices[0].Note.Set(70)
	if snap.Voices[0].Note.Value == 70 {
		t.Fatal("clone shares voice storage")
	}
}

func TestMustLookupPanicsOnMissingPath(t *testing.T) {
	s := newMapState()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustLookup(s, "absent")
}
