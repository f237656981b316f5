// Package ui holds the control surfaces: an ebiten panel and an HTTP API,
// both driving the same Model.
package ui

import (
	"fmt"
	"strings"

	"maze.io/x/math32"

	"github.com/cwbudde/theremotion/conductor"
	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/settings"
	"github.com/cwbudde/theremotion/solfege"
)

// VoiceView is one chord voice as displayed.
type VoiceView struct {
	Note    float32 `json:"note"`
	Name    string  `json:"name"`
	Plucked bool    `json:"plucked"`
}

// View is the display form of a snapshot.
type View struct {
	Preset     string  `json:"preset"`
	Handedness string  `json:"handedness"`
	Note       float32 `json:"note"`
	NoteName   string  `json:"note_name"`
	RawNote    float32 `json:"raw_note"`
	Autotune   int     `json:"autotune"`
	Volume     float32 `json:"volume_db"`
	Cutoff     float32 `json:"cutoff"`
	Resonance  float32 `json:"resonance"`
	Supersaw   float32 `json:"supersaw"`
	Mute       bool    `json:"mute"`
	Drone      string  `json:"drone,omitempty"`

	Voices      []VoiceView `json:"voices"`
	ArmedVoices int         `json:"armed_voices"`

	PitchHandVisible  bool   `json:"pitch_hand_visible"`
	VolumeHandVisible bool   `json:"volume_hand_visible"`
	Warning           string `json:"warning,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Model is the state of one surface. It is owned by the goroutine running
// that surface: snapshots arrive on its own queue, registered as a conductor
// sink, and settings edits leave as messages.
type Model struct {
	snaps    *queue.Unbounded[conductor.Snapshot]
	snap     conductor.Snapshot
	hasSnap  bool
	settings settings.Settings
	// Settings version of the latest snapshot seen; a local edit is kept
	// until the conductor applies newer settings.
	seen   uint64
	notice string

	conductor queue.Sender[conductor.Message]
	outs      []queue.Sender[settings.Settings]
}

// NewModel starts from s and reads snapshots from snaps. Overrides go to
// msgs; settings edits go to every out, such as the conductor's
// SettingsSender and the tracking reader.
func NewModel(s settings.Settings, snaps *queue.Unbounded[conductor.Snapshot], msgs queue.Sender[conductor.Message], outs ...queue.Sender[settings.Settings]) *Model {
	return &Model{settings: s.Clone(), snaps: snaps, conductor: msgs, outs: outs}
}

// Refresh takes the newest pending snapshot and reports whether one arrived.
func (m *Model) Refresh() bool {
	s, ok := m.snaps.TryLatest()
	if !ok {
		return false
	}
	m.snap = s
	m.hasSnap = true
	if s.SettingsVersion != m.seen {
		m.seen = s.SettingsVersion
		m.settings = s.Settings.Clone()
	}
	return true
}

// Updates is signalled when a snapshot is queued; call Refresh to take it.
func (m *Model) Updates() <-chan struct{} {
	return m.snaps.Ready()
}

// Close detaches the model: the conductor drops it on its next publish.
func (m *Model) Close() {
	m.snaps.Drop()
}

// Snapshot returns the latest refreshed snapshot, if any arrived.
func (m *Model) Snapshot() (conductor.Snapshot, bool) {
	return m.snap, m.hasSnap
}

// Settings returns the settings last applied from this surface or, once
// the conductor applied newer ones, the conductor's.
func (m *Model) Settings() settings.Settings {
	return m.settings.Clone()
}

// Notice is a transient status text, such as a clipboard result.
func (m *Model) Notice() string {
	return m.notice
}

func (m *Model) SetNotice(s string) {
	m.notice = s
}

// SetSettings validates s and sends it on.
func (m *Model) SetSettings(s settings.Settings) error {
	if err := s.Preset.Validate(); err != nil {
		return err
	}
	return m.apply(s.Clone())
}

func (m *Model) apply(s settings.Settings) error {
	for _, out := range m.outs {
		if err := out.Send(s.Clone()); err != nil {
			return err
		}
	}
	m.settings = s
	return nil
}

func (m *Model) update(f func(s *settings.Settings)) error {
	s := m.settings.Clone()
	f(&s)
	return m.apply(s)
}

// CyclePreset switches to the built-in preset offset positions away,
// keeping the system settings.
func (m *Model) CyclePreset(offset int) error {
	return m.update(func(s *settings.Settings) {
		s.Preset = settings.CyclePreset(s.Preset.Name, offset)
	})
}

// ToggleHandedness swaps the pitch and volume hands.
func (m *Model) ToggleHandedness() error {
	return m.update(func(s *settings.Settings) {
		s.System.Handedness = s.System.Handedness.Toggle()
	})
}

// ToggleDrone removes the drone, or adds one on the preset root an octave
// below the playable range.
func (m *Model) ToggleDrone() error {
	return m.update(func(s *settings.Settings) {
		if s.Preset.Drone != nil {
			s.Preset.Drone = nil
			return
		}
		d := DroneFor(s.Preset)
		s.Preset.Drone = &d
	})
}

// DroneFor returns the highest root note at least an octave below p.Low.
func DroneFor(p settings.Preset) solfege.Note {
	n := int(p.Low) - 12
	n -= ((n-p.Root)%12 + 12) % 12
	for n < 0 {
		n += 12
	}
	return solfege.Note(n)
}

// SetControl overrides one engine control.
func (m *Model) SetControl(path string, v float32) error {
	if m.hasSnap {
		ctl := m.snap.Controls.Clone()
		if err := ctl.SetByPath(path, v); err != nil {
			return err
		}
	}
	return m.conductor.Send(conductor.Override{Path: path, Value: v})
}

// NudgeVolume moves the lead volume by db from the latest snapshot.
func (m *Model) NudgeVolume(db float32) error {
	s, ok := m.Snapshot()
	if !ok {
		return nil
	}
	return m.SetControl(controls.PathVolume, s.Controls.Volume.Value+db)
}

// SettingsText is the YAML form of the current settings.
func (m *Model) SettingsText() (string, error) {
	b, err := settings.Marshal(m.Settings())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ApplySettingsText parses YAML or JSON settings and applies them.
func (m *Model) ApplySettingsText(text string) error {
	s, err := settings.Parse([]byte(text))
	if err != nil {
		return err
	}
	return m.SetSettings(s)
}

func noteName(v float32) string {
	n := math32.Floor(v + 0.5)
	if n < 0 {
		n = 0
	}
	if n > float32(solfege.MaxNote) {
		n = float32(solfege.MaxNote)
	}
	return solfege.Note(n).String()
}

// View returns the display form of the latest snapshot.
func (m *Model) View() (View, bool) {
	s, ok := m.Snapshot()
	if !ok {
		return View{}, false
	}
	return NewView(s), true
}

// NewView builds the display form of s.
func NewView(s conductor.Snapshot) View {
	c := s.Controls
	v := View{
		Preset:            s.Settings.Preset.String(),
		Handedness:        s.Settings.System.Handedness.String(),
		Note:              c.Note.Value,
		NoteName:          noteName(c.Note.Value),
		RawNote:           c.Note.RawValue,
		Autotune:          c.Note.Strength(),
		Volume:            c.Volume.Value,
		Cutoff:            c.CutoffNote.Value,
		Resonance:         c.Resonance.Value,
		Supersaw:          c.Supersaw.Value,
		Mute:              c.Mute.Value,
		ArmedVoices:       s.ArmedVoices,
		PitchHandVisible:  s.PitchHandVisible,
		VolumeHandVisible: s.VolumeHandVisible,
		Warning:           s.Warning,
		Error:             s.Error,
	}
	if c.DroneVolume.Value > 0 {
		v.Drone = noteName(c.DroneNote.Value)
	}
	for i := range min(len(s.Settings.Preset.Chord), len(c.Voices)) {
		voice := c.Voices[i]
		v.Voices = append(v.Voices, VoiceView{
			Note:    voice.Note.Value,
			Name:    noteName(voice.Note.Value),
			Plucked: voice.Pluck.Value,
		})
	}
	return v
}

// Lines formats the view as status text, one line per group.
func (v View) Lines() []string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	seen := func(b bool) string {
		if b {
			return "seen"
		}
		return "-"
	}

	lines := []string{
		fmt.Sprintf("%s  [%s-handed]", v.Preset, v.Handedness),
		fmt.Sprintf("note %s %.2f (raw %.2f, autotune %d)", v.NoteName, v.Note, v.RawNote, v.Autotune),
		fmt.Sprintf("volume %.1f dB  cutoff %+.1f  res %.2f  saw %.2f  mute %s",
			v.Volume, v.Cutoff, v.Resonance, v.Supersaw, onOff(v.Mute)),
	}

	var chord strings.Builder
	chord.WriteString("chord")
	for i, voice := range v.Voices {
		chord.WriteString(" " + voice.Name)
		if voice.Plucked {
			chord.WriteString("*")
		}
		if i < v.ArmedVoices {
			chord.WriteString("^")
		}
	}
	lines = append(lines, chord.String())

	drone := "drone off"
	if v.Drone != "" {
		drone = "drone " + v.Drone
	}
	lines = append(lines, drone, fmt.Sprintf("pitch hand %s  volume hand %s", seen(v.PitchHandVisible), seen(v.VolumeHandVisible)))
	if v.Warning != "" {
		lines = append(lines, "warning: "+v.Warning)
	}
	if v.Error != "" {
		lines = append(lines, "error: "+v.Error)
	}
	return lines
}
