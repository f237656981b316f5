package conductor

import (
	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/internal/queue"
	"github.com/cwbudde/theremotion/settings"
)

// Vec3 is a body-frame vector: x points away from the body, y up, z toward
// the player.
type Vec3 [3]float32

func (v Vec3) X() float32 { return v[0] }
func (v Vec3) Y() float32 { return v[1] }
func (v Vec3) Z() float32 { return v[2] }

// HandMessage is one hand pose, normalized to the body frame.
type HandMessage struct {
	// -1 for the left hand, 1 for the right one.
	XFactor float32
	// Palm position in millimeters.
	Position Vec3
	// Palm velocity in millimeters per second.
	Velocity Vec3
	// Forearm twist in radians, valid when HasRotation.
	Rotation    float32
	HasRotation bool
	Pinch       float32
	Grab        float32
}

// Message is anything the conductor consumes.
type Message interface {
	conductorMessage()
}

// VisibleHands lists the hands seen in the latest tracking frame.
type VisibleHands struct {
	Left, Right bool
}

// PitchHand carries the pose of the hand playing the pitch.
type PitchHand struct {
	HandMessage
}

// VolumeHand carries the pose of the hand playing volume and articulation.
type VolumeHand struct {
	HandMessage
}

// TrackingStatus ends every poll of the tracking reader. Err is set when the
// poll or the connection failed.
type TrackingStatus struct {
	Err error
}

// SettingsChanged wakes a running conductor after settings were queued with
// a SettingsSender. Only the newest queued settings are applied.
type SettingsChanged struct{}

// Override sets one engine control by path, for example from the panel.
type Override struct {
	Path  string
	Value float32
}

func (VisibleHands) conductorMessage()    {}
func (PitchHand) conductorMessage()       {}
func (VolumeHand) conductorMessage()      {}
func (TrackingStatus) conductorMessage()  {}
func (SettingsChanged) conductorMessage() {}
func (Override) conductorMessage()        {}

// SettingsSender delivers settings to a running conductor: the value goes on
// the settings queue, then SettingsChanged on the message queue.
type SettingsSender struct {
	Settings queue.Sender[settings.Settings]
	Messages queue.Sender[Message]
}

func (s SettingsSender) Send(v settings.Settings) error {
	if err := s.Settings.Send(v); err != nil {
		return err
	}
	return s.Messages.Send(SettingsChanged{})
}

// Snapshot is the published state after one update, owned by its receiver.
type Snapshot struct {
	Controls controls.Controls
	Settings settings.Settings
	// SettingsVersion counts the settings the conductor has applied.
	SettingsVersion uint64

	PitchHandVisible  bool
	VolumeHandVisible bool
	// Voices armed by the pitch hand height.
	ArmedVoices int

	Warning string
	Error   string
}
