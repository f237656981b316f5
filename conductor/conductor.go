// Package conductor maps hand poses onto the instrument controls: it owns the
// live control set, quantizes the pitch with the preset's scale window,
// builds the chord, sends every batch to the engine and publishes snapshots.
package conductor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Southclaws/fault/fmsg"
	"maze.io/x/math32"

	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/internal/logging"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/settings"
	"github.com/cwbudde/theremotion/solfege"
)

// NoHandWarning is shown when the sensor sees no hand.
const NoHandWarning = "No hand in view"

// Engine is the parameter table the conductor drives.
type Engine interface {
	controls.State
	controls.Declared
}

// Conductor consumes Messages. It is not safe for concurrent use: one
// goroutine runs it.
type Conductor struct {
	cfg    Config
	engine Engine
	sinks  []queue.Sender[Snapshot]
	log    *slog.Logger

	controls controls.Controls
	settings settings.Settings
	version  uint64
	window   solfege.Window
	pending  *queue.Unbounded[settings.Settings]

	visible VisibleHands
	pitch   *HandMessage
	volume  *HandMessage
	armed   [controls.NumVoices]bool

	pitchVisible  bool
	volumeVisible bool
	warning       string
	err           string
	lastErr       string
}

// New builds a conductor on engine with the default settings. It panics when
// the engine lacks a control parameter.
func New(engine Engine, cfg Config, logger *slog.Logger) *Conductor {
	c := &Conductor{
		cfg:      cfg,
		engine:   engine,
		log:      logging.OrDefault(logger),
		controls: controls.New(engine),
	}
	c.applySettings(settings.Default())
	return c
}

// AddSink registers a snapshot receiver.
func (c *Conductor) AddSink(s queue.Sender[Snapshot]) {
	c.sinks = append(c.sinks, s)
}

// Controls returns a copy of the live controls.
func (c *Conductor) Controls() controls.Controls {
	return c.controls.Clone()
}

// Settings returns the active settings.
func (c *Conductor) Settings() settings.Settings {
	return c.settings.Clone()
}

// Run sends the initial controls, then handles messages from in until it is
// closed, ctx is done or every sink has gone away. Settings queued on
// pending, which may be nil, are drained latest wins before every update.
// On return both queues are dropped, so senders stop on their next send.
func (c *Conductor) Run(ctx context.Context, in *queue.Unbounded[Message], pending *queue.Unbounded[settings.Settings]) error {
	defer in.Drop()
	if pending != nil {
		c.pending = pending
		defer func() {
			pending.Drop()
			c.pending = nil
		}()
	}
	c.log.Info("conductor started", "preset", c.settings.Preset.Name)
	defer c.log.Info("conductor stopped")

	if !c.update("") {
		return nil
	}
	for {
		m, err := in.Recv(ctx)
		if errors.Is(err, queue.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if !c.Handle(m) {
			return nil
		}
	}
}

// Handle applies one message and reports whether any sink is left. Tracking
// status, settings and override messages trigger an update. A failed poll
// forgets the hands: the sensor no longer knows where they are.
func (c *Conductor) Handle(m Message) bool {
	switch m := m.(type) {
	case VisibleHands:
		c.visible = m
		c.pitch = nil
		c.volume = nil
		return true
	case PitchHand:
		h := m.HandMessage
		c.pitch = &h
		return true
	case VolumeHand:
		h := m.HandMessage
		c.volume = &h
		return true
	case TrackingStatus:
		if m.Err != nil {
			c.visible = VisibleHands{}
			c.pitch = nil
			c.volume = nil
			for i := range c.controls.Voices {
				c.controls.Voices[i].Pluck.Value = false
			}
		}
		return c.update(errorText(m.Err))
	case SettingsChanged:
		if !c.drainSettings() {
			return true
		}
		return c.update(c.err)
	case Override:
		if err := c.controls.SetByPath(m.Path, m.Value); err != nil {
			c.log.Warn("override", "path", m.Path, "err", err)
		}
		return c.update(c.err)
	}
	return true
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}

// ApplySettings replaces the settings and runs an update, for callers
// driving the conductor through Handle.
func (c *Conductor) ApplySettings(s settings.Settings) bool {
	c.applySettings(s)
	return c.update(c.err)
}

func (c *Conductor) drainSettings() bool {
	if c.pending == nil {
		return false
	}
	s, ok := c.pending.TryLatest()
	if ok {
		c.applySettings(s)
	}
	return ok
}

func (c *Conductor) applySettings(s settings.Settings) {
	c.settings = s.Clone()
	c.version++
	p := c.settings.Preset
	c.window = p.Window()

	if p.Drone != nil {
		c.controls.DroneNote.Set(float32(*p.Drone))
		c.controls.DroneVolume.Set(c.cfg.DroneVolume)
	} else {
		c.controls.DroneVolume.Set(0)
	}
	c.controls.SubVolume.Set(p.SubVolume)
	c.controls.Supersaw.Set(p.Supersaw)
	c.controls.Note.Requantize(c.window)
	c.log.Info("settings applied", "preset", p.String(), "handedness", c.settings.System.Handedness)
}

// update maps the latest hands, sends the controls and publishes a snapshot.
func (c *Conductor) update(errText string) bool {
	c.drainSettings()
	c.warning = ""
	c.err = errText
	if c.err != c.lastErr {
		if c.err != "" {
			c.log.Warn("tracking", "err", c.err)
		}
		c.lastErr = c.err
	}

	if c.settings.System.Handedness == settings.LeftHanded {
		c.pitchVisible, c.volumeVisible = c.visible.Left, c.visible.Right
	} else {
		c.pitchVisible, c.volumeVisible = c.visible.Right, c.visible.Left
	}

	if c.pitchVisible && c.pitch != nil {
		c.applyPitchHand(*c.pitch)
	} else {
		c.armed = [controls.NumVoices]bool{}
	}
	if c.volumeVisible && c.volume != nil {
		c.applyVolumeHand(*c.volume)
	}
	if !c.visible.Left && !c.visible.Right {
		c.warning = NoHandWarning
	}

	if err := c.controls.Send(c.engine); err != nil {
		c.log.Error("send controls", "err", err)
	}
	return c.publish()
}

func (c *Conductor) applyPitchHand(h HandMessage) {
	cfg := &c.cfg
	p := c.settings.Preset
	pitchRange := p.PitchRange()

	dx := h.Position.X() - cfg.PitchReference.X()
	dz := h.Position.Z() - cfg.PitchReference.Z()
	distance := math32.Sqrt(dx*dx + dz*dz)

	raw := solfege.ConvertRange(distance, cfg.PitchDistance, pitchRange)
	c.window = c.window.Recenter(raw)
	c.controls.Note.SetScaled(distance, cfg.PitchDistance, h.Pinch, cfg.PinchAutotune, pitchRange, c.window)

	chord := c.window.Autochord(c.controls.Note.Value, p.Chord)
	count := int(math32.Floor(solfege.ConvertRange(h.Position.Y(), cfg.ArmHeight, solfege.R(0, float32(len(chord))))))
	for i := range c.controls.Voices {
		ok := i < len(chord) && chord[i].OK
		if ok {
			c.controls.Voices[i].Note.Set(chord[i].Note)
		}
		c.armed[i] = ok && i < count
	}

	c.controls.Bend.SetScaled(h.Velocity.X()+h.Velocity.Z(), cfg.BendVelocity)
	grab := solfege.ConvertRange(h.Grab, cfg.SupersawGrab, solfege.R(0, 1))
	c.controls.Supersaw.Set(p.Supersaw + grab*(1-p.Supersaw))
	if h.HasRotation {
		c.controls.Detune.SetScaled(h.Rotation, cfg.DetuneRotation)
	}
}

func (c *Conductor) applyVolumeHand(h HandMessage) {
	cfg := &c.cfg
	c.controls.CutoffNote.SetScaled(h.Position.Y(), cfg.CutoffHeight)
	c.controls.Volume.SetScaled(h.Position.X(), cfg.VolumeOutward)
	if h.HasRotation {
		c.controls.Resonance.SetScaled(h.Rotation, cfg.ResonanceRotation)
	}
	c.controls.PluckPosition.SetScaled(h.Position.Z(), cfg.PluckDepth)
	c.controls.PluckDamping.SetScaled(h.Grab, cfg.DampingGrab)
	c.controls.Mute.Value = h.Grab > cfg.MuteGrab

	switch {
	case h.Pinch > cfg.PluckOn:
		for i := range c.controls.Voices {
			c.controls.Voices[i].Pluck.Value = c.armed[i]
		}
	case h.Pinch < cfg.PluckOff:
		for i := range c.controls.Voices {
			c.controls.Voices[i].Pluck.Value = false
		}
	}
}

func (c *Conductor) snapshot() Snapshot {
	armed := 0
	for _, a := range c.armed {
		if a {
			armed++
		}
	}
	return Snapshot{
		Controls:          c.controls.Clone(),
		Settings:          c.settings.Clone(),
		SettingsVersion:   c.version,
		PitchHandVisible:  c.pitchVisible,
		VolumeHandVisible: c.volumeVisible,
		ArmedVoices:       armed,
		Warning:           c.warning,
		Error:             c.err,
	}
}

// publish sends a snapshot to every sink, removing the ones that fail.
func (c *Conductor) publish() bool {
	if len(c.sinks) == 0 {
		return true
	}
	snap := c.snapshot()
	kept := c.sinks[:0]
	for _, s := range c.sinks {
		if err := s.Send(snap); err != nil {
			c.log.Debug("snapshot sink gone", "err", err)
			continue
		}
		kept = append(kept, s)
	}
	clear(c.sinks[len(kept):])
	c.sinks = kept
	return len(c.sinks) > 0
}
