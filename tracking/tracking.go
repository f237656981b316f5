// Package tracking reads hand poses from a tracking device and turns them into
// conductor messages.
package tracking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"maze.io/x/math32"

	"github.com/cwbudde/theremotion/conductor"
)

var (
	// ErrDisconnected is returned by Poll when the connection is lost; the
	// reader reconnects.
	ErrDisconnected = errors.New("tracking device disconnected")
	// ErrExhausted is returned by Poll when a finite source has no more frames.
	ErrExhausted = errors.New("tracking source exhausted")
	// ErrTimeout is returned by Poll when no event arrived in time.
	ErrTimeout = errors.New("tracking poll timed out")
)

// Device opens connections to a tracking sensor.
type Device interface {
	Connect() (Connection, error)
}

// Connection is an open sensor stream.
type Connection interface {
	// Poll waits at most timeout for the next event.
	Poll(timeout time.Duration) (Event, error)
	Close() error
}

// HandType tells left and right hands apart.
type HandType int

const (
	Left HandType = iota
	Right
)

func (h HandType) String() string {
	if h == Left {
		return "left"
	}
	return "right"
}

func (h HandType) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HandType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "left":
		*h = Left
	case "right":
		*h = Right
	default:
		return fmt.Errorf("invalid hand type %q", b)
	}
	return nil
}

// EventKind classifies device events.
type EventKind int

const (
	// EventTracking carries a frame of hands.
	EventTracking EventKind = iota
	// EventConnection reports a service connection change.
	EventConnection
	// EventDevice reports a sensor plugged or unplugged.
	EventDevice
	// EventPolicy reports a change of service policy.
	EventPolicy
)

var eventKindNames = []string{"tracking", "connection", "device", "policy"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("event(%d)", int(k))
	}
	return eventKindNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	for i, name := range eventKindNames {
		if strings.EqualFold(name, string(b)) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid event kind %q", b)
}

// Vector is a sensor-frame vector in millimeters, y up.
type Vector [3]float32

// Quaternion is a rotation.
type Quaternion struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// Yaw returns the rotation around the z axis, in radians.
func (q Quaternion) Yaw() float32 {
	return math32.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

// Palm is the palm pose.
type Palm struct {
	Position Vector `json:"position"`
	Velocity Vector `json:"velocity"`
	Normal   Vector `json:"normal"`
}

// Hand is one tracked hand.
type Hand struct {
	Type HandType `json:"type"`
	Palm Palm     `json:"palm"`

	// Tip of each finger, thumb first.
	Fingertips  [5]Vector  `json:"fingertips"`
	Pinch       float32    `json:"pinch"`
	Grab        float32    `json:"grab"`
	ArmRotation Quaternion `json:"arm_rotation"`
}

// Event is one message of the device.
type Event struct {
	Kind  EventKind `json:"kind"`
	Frame uint64    `json:"frame,omitempty"`
	Hands []Hand    `json:"hands,omitempty"`
}

// Find returns the first hand of type t.
func (e Event) Find(t HandType) (Hand, bool) {
	for _, h := range e.Hands {
		if h.Type == t {
			return h, true
		}
	}
	return Hand{}, false
}

// Has reports whether a hand of type t is visible.
func (e Event) Has(t HandType) bool {
	_, ok := e.Find(t)
	return ok
}

// XFactor normalizes x so that positive values point away from the body:
// the left hand moves outward along negative x.
func (h Hand) XFactor() float32 {
	if h.Type == Left {
		return -1
	}
	return 1
}

// PositionFromBody is the palm position with x mirrored for the left hand.
func (h Hand) PositionFromBody() conductor.Vec3 {
	p := h.Palm.Position
	return conductor.Vec3{h.XFactor() * p[0], p[1], p[2]}
}

// VelocityFromBody is the palm velocity with x mirrored for the left hand.
func (h Hand) VelocityFromBody() conductor.Vec3 {
	v := h.Palm.Velocity
	return conductor.Vec3{h.XFactor() * v[0], v[1], v[2]}
}

// RotationFromBody is the forearm twist, positive when the palm turns
// outward. Angles outside (-π/2, π) are rejected.
func (h Hand) RotationFromBody() (float32, bool) {
	angle := -h.ArmRotation.Yaw() * h.XFactor()
	if angle < math32.Pi && angle > -math32.Pi/2 {
		return angle, true
	}
	return 0, false
}

// Message converts the hand to its body-frame message.
func (h Hand) Message() conductor.HandMessage {
	rot, ok := h.RotationFromBody()
	return conductor.HandMessage{
		XFactor:     h.XFactor(),
		Position:    h.PositionFromBody(),
		Velocity:    h.VelocityFromBody(),
		Rotation:    rot,
		HasRotation: ok,
		Pinch:       h.Pinch,
		Grab:        h.Grab,
	}
}
