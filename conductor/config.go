package conductor

import (
	"maze.io/x/math32"

	"github.com/cwbudde/theremotion/solfege"
)

// Config holds the gesture input ranges. Positions are body-frame
// millimeters, velocities millimeters per second, rotations radians. A range
// may be reversed: the pitch distance range maps a closer hand to a higher
// note.
type Config struct {
	// Point the pitch hand distance is measured from, in the x/z plane.
	PitchReference Vec3
	PitchDistance  solfege.Range
	// Pinch range mapped onto the autotune strength.
	PinchAutotune solfege.Range
	// Pitch hand height mapped onto the number of armed chord voices.
	ArmHeight      solfege.Range
	BendVelocity   solfege.Range
	SupersawGrab   solfege.Range
	DetuneRotation solfege.Range

	CutoffHeight      solfege.Range
	VolumeOutward     solfege.Range
	ResonanceRotation solfege.Range
	PluckDepth        solfege.Range
	DampingGrab       solfege.Range

	// Grab above which the instrument is muted.
	MuteGrab float32
	// Pinch hysteresis of the pluck latch.
	PluckOn  float32
	PluckOff float32
	// Drone volume when the preset has a drone.
	DroneVolume float32
}

// DefaultConfig returns ranges suited to a sensor lying on a desk between
// the hands.
func DefaultConfig() Config {
	return Config{
		PitchReference: Vec3{-50, 0, 0},
		PitchDistance:  solfege.R(350, 60),
		PinchAutotune:  solfege.R(0, 1),
		ArmHeight:      solfege.R(120, 420),
		BendVelocity:   solfege.R(-4000, 4000),
		SupersawGrab:   solfege.R(0, 1),
		DetuneRotation: solfege.R(0, math32.Pi/2),

		CutoffHeight:      solfege.R(100, 450),
		VolumeOutward:     solfege.R(20, 220),
		ResonanceRotation: solfege.R(0, math32.Pi/2),
		PluckDepth:        solfege.R(-120, 120),
		DampingGrab:       solfege.R(0, 1),

		MuteGrab:    0.95,
		PluckOn:     0.9,
		PluckOff:    0.5,
		DroneVolume: 0.2,
	}
}
