package tracking

import (
	"time"

	"maze.io/x/math32"
)

// Synthetic is a device generating slow, deterministic two-hand gestures.
// It needs no hardware and drives demos and offline renders.
type Synthetic struct {
	// Frames per second, 60 when zero.
	Rate float32
	// Realtime paces frames on the wall clock.
	Realtime bool
	// Frames ends the stream after that many frames; 0 is endless.
	Frames int
	// Hands lists the generated hands; both when empty.
	Hands []HandType
}

// Connect starts the gesture clock.
func (s *Synthetic) Connect() (Connection, error) {
	cfg := *s
	if cfg.Rate <= 0 {
		cfg.Rate = 60
	}
	if len(cfg.Hands) == 0 {
		cfg.Hands = []HandType{Left, Right}
	}
	return &syntheticConn{cfg: cfg, start: time.Now()}, nil
}

type syntheticConn struct {
	cfg   Synthetic
	frame uint64
	start time.Time
}

func (c *syntheticConn) Poll(timeout time.Duration) (Event, error) {
	if c.cfg.Frames > 0 && c.frame >= uint64(c.cfg.Frames) {
		return Event{}, ErrExhausted
	}
	if c.cfg.Realtime {
		due := c.start.Add(time.Duration(float64(c.frame) / float64(c.cfg.Rate) * float64(time.Second)))
		wait := time.Until(due)
		if wait > timeout {
			time.Sleep(timeout)
			return Event{}, ErrTimeout
		}
		if wait > 0 {
			time.Sleep(wait)
		}
	}
	t := float32(c.frame) / c.cfg.Rate
	c.frame++

	ev := Event{Kind: EventTracking, Frame: c.frame}
	for _, h := range c.cfg.Hands {
		ev.Hands = append(ev.Hands, SyntheticHand(h, t))
	}
	return ev, nil
}

func (c *syntheticConn) Close() error {
	return nil
}

// oscillation is a + b·sin(2πft) with its time derivative.
func oscillation(a, b, f, t float32) (float32, float32) {
	w := 2 * math32.Pi * f
	return a + b*math32.Sin(w*t), b * w * math32.Cos(w*t)
}

// SyntheticHand is the generated pose of hand h at t seconds, in sensor
// coordinates. The right hand sweeps its distance to the sensor and opens
// and closes its pinch; the left hand rises and falls and pinches faster.
func SyntheticHand(h HandType, t float32) Hand {
	var x, vx, y, vy, z, vz, pinch, twist float32
	if h == Right {
		x, vx = oscillation(150, 100, 0.12, t)
		y, vy = oscillation(270, 120, 0.05, t)
		z, vz = oscillation(0, 40, 0.2, t)
		pinch, _ = oscillation(0.5, 0.5, 0.35, t)
		twist, _ = oscillation(0.4, 0.3, 0.1, t)
	} else {
		x, vx = oscillation(-110, 70, 0.08, t)
		y, vy = oscillation(260, 110, 0.15, t)
		z, vz = oscillation(0, 60, 0.11, t)
		pinch, _ = oscillation(0.5, 0.5, 0.7, t)
		twist, _ = oscillation(0.6, 0.4, 0.07, t)
	}
	grab, _ := oscillation(0.25, 0.2, 0.03, t)

	// The forearm twist, seen from the body, is -yaw·xFactor.
	yaw := -twist
	if h == Left {
		yaw = twist
	}
	hand := Hand{
		Type: h,
		Palm: Palm{
			Position: Vector{x, y, z},
			Velocity: Vector{vx, vy, vz},
			Normal:   Vector{0, -1, 0},
		},
		Pinch:       pinch,
		Grab:        grab,
		ArmRotation: Quaternion{Z: math32.Sin(yaw / 2), W: math32.Cos(yaw / 2)},
	}
	for i := range hand.Fingertips {
		hand.Fingertips[i] = Vector{x + float32(i-2)*20, y, z - 60}
	}
	return hand
}
