package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/theremotion/conductor"
	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/settings"
	"github.com/cwbudde/theremotion/solfege"
	"github.com/cwbudde/theremotion/synth"
)

type fixture struct {
	model     *Model
	snaps     *queue.Unbounded[conductor.Snapshot]
	conductor *queue.Unbounded[conductor.Message]
	pending   *queue.Unbounded[settings.Settings]
	tracker   *queue.Unbounded[settings.Settings]
}

func newFixture() fixture {
	f := fixture{
		snaps:     queue.New[conductor.Snapshot](),
		conductor: queue.New[conductor.Message](),
		pending:   queue.New[settings.Settings](),
		tracker:   queue.New[settings.Settings](),
	}
	toConductor := conductor.SettingsSender{Settings: f.pending, Messages: f.conductor}
	f.model = NewModel(settings.Default(), f.snaps, f.conductor, toConductor, f.tracker)
	return f
}

// feed queues s and refreshes the model.
func (f fixture) feed(t *testing.T, s conductor.Snapshot) {
	t.Helper()
	if err := f.snaps.Send(s); err != nil {
		t.Fatal(err)
	}
	if !f.model.Refresh() {
		t.Fatal("snapshot not taken")
	}
}

func testSnapshot() conductor.Snapshot {
	ctl := controls.New(synth.NewState(synth.DefaultParams()))
	ctl.Volume.Set(-30)
	ctl.Note.Value = 60
	ctl.Note.RawValue = 60.4
	ctl.Voices[0].Note.Set(60)
	ctl.Voices[1].Note.Set(64)
	ctl.Voices[2].Note.Set(69)
	ctl.Voices[0].Pluck.Value = true
	ctl.DroneNote.Set(33)
	ctl.DroneVolume.Set(0.2)
	return conductor.Snapshot{
		Controls:         ctl,
		Settings:         settings.Default(),
		PitchHandVisible: true,
		ArmedVoices:      2,
	}
}

func (f fixture) lastSettings(t *testing.T) settings.Settings {
	t.Helper()
	m, ok := f.conductor.TryLatest()
	if !ok {
		t.Fatal("nothing sent to the conductor")
	}
	if _, ok := m.(conductor.SettingsChanged); !ok {
		t.Fatalf("sent %#v, want SettingsChanged", m)
	}
	s, ok := f.pending.TryLatest()
	if !ok {
		t.Fatal("no settings queued for the conductor")
	}
	tr, ok := f.tracker.TryLatest()
	if !ok {
		t.Fatal("nothing sent to the tracker")
	}
	if tr.Preset.Name != s.Preset.Name || tr.System != s.System {
		t.Fatal("conductor and tracker got different settings")
	}
	return s
}

func TestCyclePreset(t *testing.T) {
	f := newFixture()
	if err := f.model.CyclePreset(1); err != nil {
		t.Fatal(err)
	}
	if got := f.lastSettings(t).Preset.Name; got != "Major triads" {
		t.Fatalf("preset = %q", got)
	}
	if err := f.model.CyclePreset(-2); err != nil {
		t.Fatal(err)
	}
	want := settings.Presets()[len(settings.Presets())-1].Name
	if got := f.model.Settings().Preset.Name; got != want {
		t.Fatalf("preset = %q, want %q", got, want)
	}
}

func TestToggleHandednessKeepsPreset(t *testing.T) {
	f := newFixture()
	if err := f.model.ToggleHandedness(); err != nil {
		t.Fatal(err)
	}
	s := f.lastSettings(t)
	if s.System.Handedness != settings.LeftHanded || s.Preset.Name != settings.Default().Preset.Name {
		t.Fatalf("got %+v", s)
	}
}

func TestToggleDrone(t *testing.T) {
	f := newFixture()
	if err := f.model.ToggleDrone(); err != nil {
		t.Fatal(err)
	}
	if d := f.lastSettings(t).Preset.Drone; d != nil {
		t.Fatalf("drone = %v, want none", *d)
	}
	if err := f.model.ToggleDrone(); err != nil {
		t.Fatal(err)
	}
	d := f.lastSettings(t).Preset.Drone
	if d == nil || *d != 33 {
		t.Fatalf("drone = %v, want A1", d)
	}
}

func TestDroneFor(t *testing.T) {
	tests := []struct {
		root int
		low  solfege.Note
		want solfege.Note
	}{
		{9, 45, 33},
		{0, 48, 36},
		{4, 45, 28},
		{11, 50, 35},
		{0, 5, 0},
	}
	for _, tt := range tests {
		got := DroneFor(settings.Preset{Root: tt.root, Low: tt.low})
		if got != tt.want {
			t.Fatalf("root %d low %d: drone %d, want %d", tt.root, tt.low, got, tt.want)
		}
	}
}

func TestSetSettingsRejectsInvalid(t *testing.T) {
	f := newFixture()
	s := settings.Default()
	s.Preset.Low, s.Preset.High = 80, 40
	if err := f.model.SetSettings(s); err == nil {
		t.Fatal("expected error")
	}
	if f.conductor.Len() != 0 {
		t.Fatal("invalid settings were sent")
	}
}

func TestSetSettingsAfterConductorGone(t *testing.T) {
	f := newFixture()
	f.conductor.Drop()
	err := f.model.CyclePreset(1)
	if !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if f.model.Settings().Preset.Name != settings.Default().Preset.Name {
		t.Fatal("settings changed although the send failed")
	}
}

func TestNudgeVolume(t *testing.T) {
	f := newFixture()
	if err := f.model.NudgeVolume(3); err != nil {
		t.Fatal(err)
	}
	if f.conductor.Len() != 0 {
		t.Fatal("override sent before any snapshot")
	}

	f.feed(t, testSnapshot())
	if err := f.model.NudgeVolume(3); err != nil {
		t.Fatal(err)
	}
	m, _ := f.conductor.TryRecv()
	o, ok := m.(conductor.Override)
	if !ok || o.Path != controls.PathVolume || o.Value != -27 {
		t.Fatalf("sent %#v", m)
	}
}

func TestSetControlRejectsUnknownPath(t *testing.T) {
	f := newFixture()
	f.feed(t, testSnapshot())
	if err := f.model.SetControl("wobble", 1); err == nil {
		t.Fatal("expected error")
	}
	if f.conductor.Len() != 0 {
		t.Fatal("unknown override was sent")
	}
}

func TestClosedModelDropsSnapshots(t *testing.T) {
	f := newFixture()
	f.feed(t, testSnapshot())
	f.model.Close()
	if err := f.snaps.Send(testSnapshot()); !errors.Is(err, queue.ErrClosed) {
		t.Fatalf("err = %v", err)
	}
	if f.model.Refresh() {
		t.Fatal("closed model took a snapshot")
	}
}

func TestRefreshTakesNewestSnapshot(t *testing.T) {
	f := newFixture()
	if f.model.Refresh() {
		t.Fatal("refresh without a snapshot")
	}
	for _, db := range []float32{-40, -20, -10} {
		s := testSnapshot()
		s.Controls.Volume.Set(db)
		_ = f.snaps.Send(s)
	}
	if !f.model.Refresh() {
		t.Fatal("snapshot not taken")
	}
	if v, _ := f.model.View(); v.Volume != -10 {
		t.Fatalf("volume = %.1f, want the newest -10", v.Volume)
	}
	if f.snaps.Len() != 0 {
		t.Fatal("older snapshots left queued")
	}
}

func TestLocalEditKeptUntilConductorApplies(t *testing.T) {
	f := newFixture()
	base := testSnapshot()
	base.SettingsVersion = 2
	f.feed(t, base)

	if err := f.model.ToggleHandedness(); err != nil {
		t.Fatal(err)
	}
	// A poll published before the edit was applied.
	f.feed(t, base)
	if f.model.Settings().System.Handedness != settings.LeftHanded {
		t.Fatal("stale snapshot reverted the local edit")
	}

	applied := testSnapshot()
	applied.SettingsVersion = 3
	applied.Settings.Preset, _ = settings.LookupPreset("Blues")
	f.feed(t, applied)
	if got := f.model.Settings().Preset.Name; got != "Blues" {
		t.Fatalf("preset = %q, want the conductor's Blues", got)
	}
}

func TestSettingsTextRoundTrip(t *testing.T) {
	f := newFixture()
	text, err := f.model.SettingsText()
	if err != nil {
		t.Fatal(err)
	}
	text = strings.Replace(text, "handedness: right", "handedness: left", 1)
	if err := f.model.ApplySettingsText(text); err != nil {
		t.Fatalf("ApplySettingsText: %v\n%s", err, text)
	}
	if f.lastSettings(t).System.Handedness != settings.LeftHanded {
		t.Fatal("pasted handedness not applied")
	}
	if err := f.model.ApplySettingsText("low: [1"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestViewLines(t *testing.T) {
	s := testSnapshot()
	s.Warning = conductor.NoHandWarning
	s.Error = "Sensor unplugged"
	v := NewView(s)

	if v.NoteName != "C4" || v.Drone != "A1" || len(v.Voices) != 3 {
		t.Fatalf("view %+v", v)
	}
	lines := strings.Join(v.Lines(), "\n")
	for _, want := range []string{
		"chord C4*^ E4^ A4",
		"volume -30.0 dB",
		"drone A1",
		"pitch hand seen  volume hand -",
		"warning: No hand in view",
		"error: Sensor unplugged",
	} {
		if !strings.Contains(lines, want) {
			t.Fatalf("lines missing %q:\n%s", want, lines)
		}
	}
}
