package solfege

import (
	"fmt"
	"strconv"
	"strings"
)

// Note is a MIDI note number, 0-127. Octave 4 starts at 60 (C4 = middle C).
type Note uint8

// MaxNote is the highest MIDI note.
const MaxNote Note = 127

var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClassByName = map[string]int{
	"C": 0, "C#": 1, "DB": 1, "D": 2, "D#": 3, "EB": 3, "E": 4, "F": 5,
	"F#": 6, "GB": 6, "G": 7, "G#": 8, "AB": 8, "A": 9, "A#": 10, "BB": 10, "B": 11,
}

// PitchClass returns the note's position in the octave, 0 = C.
func (n Note) PitchClass() int {
	return int(n) % 12
}

// Octave returns the scientific pitch octave (C4 = 60).
func (n Note) Octave() int {
	return int(n)/12 - 1
}

func (n Note) String() string {
	return pitchClassNames[n.PitchClass()] + strconv.Itoa(n.Octave())
}

// PitchClassName returns the sharp spelling of pitch class pc.
func PitchClassName(pc int) string {
	return pitchClassNames[((pc%12)+12)%12]
}

// ParsePitchClass parses "C", "F#", "Bb" (case-insensitive) into 0-11.
func ParsePitchClass(s string) (int, error) {
	pc, ok := pitchClassByName[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid pitch class %q", s)
	}
	return pc, nil
}

// ParseNote parses a note name with octave ("A4", "C#3", "Eb-1") or a plain
// MIDI number ("69").
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty note")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > int(MaxNote) {
			return 0, fmt.Errorf("note %d out of range 0..127", n)
		}
		return Note(n), nil
	}

	split := 1
	if len(s) > 1 && (s[1] == '#' || s[1] == 'b' || s[1] == 'B') {
		split = 2
	}
	pc, err := ParsePitchClass(s[:split])
	if err != nil {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	octave, err := strconv.Atoi(s[split:])
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note %q", s)
	}
	n := (octave+1)*12 + pc
	if n < 0 || n > int(MaxNote) {
		return 0, fmt.Errorf("note %q out of range 0..127", s)
	}
	return Note(n), nil
}

// MarshalText encodes the note by name.
func (n Note) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText accepts the same forms as ParseNote.
func (n *Note) UnmarshalText(b []byte) error {
	v, err := ParseNote(string(b))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
