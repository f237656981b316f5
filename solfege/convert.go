package solfege

// Range is a closed interval. Start may be greater than End for input ranges
// that map in the reverse direction (e.g. a depth axis pointing to the user).
type Range struct {
	Start float32
	End   float32
}

// R builds a Range.
func R(start, end float32) Range {
	return Range{Start: start, End: end}
}

// Width returns End-Start.
func (r Range) Width() float32 {
	return r.End - r.Start
}

// Contains reports whether x lies inside the interval, bounds included.
func (r Range) Contains(x float32) bool {
	lo, hi := r.bounds()
	return x >= lo && x <= hi
}

// Clamp restricts x to the interval.
func (r Range) Clamp(x float32) float32 {
	lo, hi := r.bounds()
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func (r Range) bounds() (float32, float32) {
	if r.Start > r.End {
		return r.End, r.Start
	}
	return r.Start, r.End
}

// ConvertRange maps value from the input range to the output range and clamps
// the result to the output range, whatever the input.
// The input range must not be degenerate.
func ConvertRange(value float32, in Range, out Range) float32 {
	mapped := (value-in.Start)*out.Width()/in.Width() + out.Start
	return out.Clamp(mapped)
}

// Smoothstep normalizes x over the interval and applies 3x²-2x³.
// x is assumed to lie inside the interval.
func Smoothstep(interval Range, x float32) float32 {
	x = (x - interval.Start) / interval.Width()
	return x * x * (3.0 - 2.0*x)
}

// Smoothstairs pulls value toward the closest edge of the first interval that
// contains it, applying the smooth step iterations times. Zero iterations is
// the identity; a value outside every interval is returned unchanged.
func Smoothstairs(value float32, iterations int, intervals []Range) float32 {
	for _, interval := range intervals {
		if !interval.Contains(value) {
			continue
		}
		for range iterations {
			value = interval.Start + Smoothstep(interval, value)*interval.Width()
		}
		return value
	}
	return value
}

// Intervals returns the degree-to-degree intervals of an ascending note list.
func Intervals(notes []Note) []Range {
	if len(notes) < 2 {
		return nil
	}
	out := make([]Range, 0, len(notes)-1)
	for i := 1; i < len(notes); i++ {
		out = append(out, R(float32(notes[i-1]), float32(notes[i])))
	}
	return out
}
