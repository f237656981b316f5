package solfege

import (
	"fmt"
	"sort"
	"strings"
)

// Scale is a set of semitone offsets from the root, ascending, within one octave.
type Scale struct {
	Name  string
	Steps []int
}

var scales = []Scale{
	{Name: "major", Steps: []int{0, 2, 4, 5, 7, 9, 11}},
	{Name: "minor", Steps: []int{0, 2, 3, 5, 7, 8, 10}},
	{Name: "harmonic-minor", Steps: []int{0, 2, 3, 5, 7, 8, 11}},
	{Name: "dorian", Steps: []int{0, 2, 3, 5, 7, 9, 10}},
	{Name: "mixolydian", Steps: []int{0, 2, 4, 5, 7, 9, 10}},
	{Name: "pentatonic-major", Steps: []int{0, 2, 4, 7, 9}},
	{Name: "pentatonic-minor", Steps: []int{0, 3, 5, 7, 10}},
	{Name: "blues", Steps: []int{0, 3, 5, 6, 7, 10}},
	{Name: "chromatic", Steps: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
}

// Scales lists the known scale names.
func Scales() []string {
	names := make([]string, len(scales))
	for i, s := range scales {
		names[i] = s.Name
	}
	return names
}

// LookupScale finds a scale by name (case-insensitive).
func LookupScale(name string) (Scale, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range scales {
		if s.Name == name {
			return s, nil
		}
	}
	return Scale{}, fmt.Errorf("unknown scale %q (known: %s)", name, strings.Join(Scales(), ", "))
}

// Notes returns every note of the scale rooted at pitch class root that lies
// in [low, high], ascending and without duplicates.
func (s Scale) Notes(root int, low Note, high Note) []Note {
	if low > high {
		low, high = high, low
	}
	seen := make(map[Note]bool)
	var out []Note
	for octave := -1; octave <= 10; octave++ {
		for _, step := range s.Steps {
			n := (octave+1)*12 + root%12 + step
			if n < int(low) || n > int(high) {
				continue
			}
			if !seen[Note(n)] {
				seen[Note(n)] = true
				out = append(out, Note(n))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
