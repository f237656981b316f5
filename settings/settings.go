// Package settings holds the user settings: the system options and the
// musical preset currently played.
package settings

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cwbudde/theremotion/solfege"
)

// MaxChordVoices is the number of chord voices the instrument can play.
const MaxChordVoices = 4

// Handedness selects which hand plays the pitch.
type Handedness int

const (
	// RightHanded plays the pitch with the right hand.
	RightHanded Handedness = iota
	// LeftHanded plays the pitch with the left hand.
	LeftHanded
)

func (h Handedness) String() string {
	if h == LeftHanded {
		return "left"
	}
	return "right"
}

// Toggle returns the other handedness.
func (h Handedness) Toggle() Handedness {
	if h == LeftHanded {
		return RightHanded
	}
	return LeftHanded
}

func (h Handedness) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Handedness) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "right", "right-handed", "righthanded":
		*h = RightHanded
	case "left", "left-handed", "lefthanded":
		*h = LeftHanded
	default:
		return fmt.Errorf("invalid handedness %q (expected left or right)", b)
	}
	return nil
}

// System holds the options that are not musical.
type System struct {
	Handedness   Handedness `json:"handedness" yaml:"handedness"`
	Fullscreen   bool       `json:"fullscreen" yaml:"fullscreen"`
	HighPriority bool       `json:"high_priority" yaml:"high_priority"`
}

// Preset is a playable configuration: scale, range, chord and drone.
type Preset struct {
	Name string `json:"name" yaml:"name"`
	// Pitch class of the scale root, 0 = C.
	Root  int          `json:"root" yaml:"root"`
	Scale string       `json:"scale" yaml:"scale"`
	Low   solfege.Note `json:"low" yaml:"low"`
	High  solfege.Note `json:"high" yaml:"high"`
	// Chord offsets in scale degrees from the played note.
	Chord []int `json:"chord" yaml:"chord"`
	// Number of degrees the autotune considers around the played note;
	// 0 means the whole range.
	WindowSize int           `json:"window" yaml:"window"`
	Drone      *solfege.Note `json:"drone,omitempty" yaml:"drone,omitempty"`
	SubVolume  float32       `json:"sub_volume" yaml:"sub_volume"`
	Supersaw   float32       `json:"supersaw" yaml:"supersaw"`
}

// Settings is the full settings value. It is sent by value between
// goroutines and replaced wholesale; use Clone before sharing.
type Settings struct {
	System System `json:"system" yaml:"system"`
	Preset Preset `json:"preset" yaml:"preset"`
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	s.Preset = s.Preset.Clone()
	return s
}

// Clone returns a deep copy.
func (p Preset) Clone() Preset {
	p.Chord = slices.Clone(p.Chord)
	if p.Drone != nil {
		d := *p.Drone
		p.Drone = &d
	}
	return p
}

// String formats the preset for display.
func (p Preset) String() string {
	return fmt.Sprintf("%s (%s %s, %s-%s)", p.Name, solfege.PitchClassName(p.Root), p.Scale, p.Low, p.High)
}

// Notes returns the scale degrees between Low and High.
func (p Preset) Notes() []solfege.Note {
	scale, err := solfege.LookupScale(p.Scale)
	if err != nil {
		return nil
	}
	return scale.Notes(p.Root, p.Low, p.High)
}

// Window builds the autotune window of the preset.
func (p Preset) Window() solfege.Window {
	return solfege.NewWindow(p.Notes(), p.WindowSize)
}

// PitchRange is the playable pitch range.
func (p Preset) PitchRange() solfege.Range {
	return solfege.R(float32(p.Low), float32(p.High))
}

// Validate checks the preset is playable.
func (p Preset) Validate() error {
	if p.Root < 0 || p.Root > 11 {
		return fmt.Errorf("root must be a pitch class 0..11, got %d", p.Root)
	}
	if _, err := solfege.LookupScale(p.Scale); err != nil {
		return err
	}
	if p.Low >= p.High {
		return fmt.Errorf("low (%s) must be below high (%s)", p.Low, p.High)
	}
	if p.High > solfege.MaxNote {
		return fmt.Errorf("high must be <= %d", solfege.MaxNote)
	}
	if len(p.Notes()) < 2 {
		return fmt.Errorf("range %s-%s holds fewer than 2 scale degrees", p.Low, p.High)
	}
	if len(p.Chord) > MaxChordVoices {
		return fmt.Errorf("chord has %d voices, at most %d are playable", len(p.Chord), MaxChordVoices)
	}
	if p.WindowSize < 0 {
		return fmt.Errorf("window must be >= 0")
	}
	if p.SubVolume < 0 || p.SubVolume > 1 {
		return fmt.Errorf("sub_volume must be in [0,1]")
	}
	if p.Supersaw < 0 || p.Supersaw > 1 {
		return fmt.Errorf("supersaw must be in [0,1]")
	}
	return nil
}

func note(n solfege.Note) *solfege.Note {
	return &n
}

// Presets returns the built-in presets.
func Presets() []Preset {
	return []Preset{
		{
			Name:       "Open pentatonic",
			Root:       9,
			Scale:      "pentatonic-minor",
			Low:        45,
			High:       81,
			Chord:      []int{0, 2, 4},
			WindowSize: 6,
			Drone:      note(33),
			SubVolume:  0.3,
			Supersaw:   0.2,
		},
		{
			Name:       "Major triads",
			Root:       0,
			Scale:      "major",
			Low:        48,
			High:       84,
			Chord:      []int{0, 2, 4, 7},
			WindowSize: 8,
			SubVolume:  0.4,
			Supersaw:   0.3,
		},
		{
			Name:       "Dorian drone",
			Root:       2,
			Scale:      "dorian",
			Low:        50,
			High:       86,
			Chord:      []int{0, 4},
			WindowSize: 7,
			Drone:      note(38),
			SubVolume:  0.2,
			Supersaw:   0.5,
		},
		{
			Name:       "Blues",
			Root:       4,
			Scale:      "blues",
			Low:        40,
			High:       76,
			Chord:      []int{0, 3},
			WindowSize: 0,
			SubVolume:  0.5,
			Supersaw:   0.1,
		},
		{
			Name:      "Chromatic lead",
			Root:      0,
			Scale:     "chromatic",
			Low:       48,
			High:      84,
			Chord:     []int{0},
			SubVolume: 0.3,
			Supersaw:  0.3,
		},
	}
}

// LookupPreset finds a built-in preset by name, case-insensitively.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range Presets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// Default returns the settings used when no file is given.
func Default() Settings {
	return Settings{
		System: System{Handedness: RightHanded},
		Preset: Presets()[0],
	}
}

// CyclePreset returns the built-in preset offset positions away from the one
// named name, wrapping around.
func CyclePreset(name string, offset int) Preset {
	all := Presets()
	i := slices.IndexFunc(all, func(p Preset) bool { return strings.EqualFold(p.Name, name) })
	if i < 0 {
		i = 0
		if offset > 0 {
			offset--
		}
	}
	n := len(all)
	return all[((i+offset)%n+n)%n]
}
