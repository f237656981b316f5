package synth

import (
	"fmt"
	"sync/atomic"

	"github.com/cwbudde/theremotion/controls"
	"github.com/cwbudde/theremotion/solfege"
)

// State is the parameter table shared by one control goroutine and the audio
// callback. Set and Flush belong to the control goroutine; Flush publishes an
// immutable copy of the staged values through an atomic pointer, which the
// audio callback loads once per block without locking.
type State struct {
	params []controls.Param
	ranges []solfege.Range
	index  map[string]int

	staged  []float32
	seq     uint64
	current atomic.Pointer[Snapshot]
}

// Snapshot is one published batch of parameter values. It is never modified
// after publication.
type Snapshot struct {
	Seq    uint64
	values []float32
}

// Value returns the value of parameter i.
func (s *Snapshot) Value(i int) float32 {
	return s.values[i]
}

// Bool returns parameter i read with the 0.5 threshold.
func (s *Snapshot) Bool(i int) bool {
	return s.values[i] > 0.5
}

// NewState builds a state holding every parameter at its initial value.
func NewState(params []controls.Param) *State {
	s := &State{
		params: append([]controls.Param(nil), params...),
		ranges: make([]solfege.Range, len(params)),
		index:  make(map[string]int, len(params)),
		staged: make([]float32, len(params)),
	}
	for i, p := range params {
		if _, dup := s.index[p.Path]; dup {
			panic(fmt.Sprintf("synth: duplicate parameter %q", p.Path))
		}
		s.index[p.Path] = i
		s.ranges[i] = p.Range()
		s.staged[i] = s.ranges[i].Clamp(p.Init)
	}
	s.Flush()
	return s
}

// Params returns the declared parameters.
func (s *State) Params() []controls.Param {
	return append([]controls.Param(nil), s.params...)
}

// Index returns the position of path in snapshots.
func (s *State) Index(path string) (int, bool) {
	i, ok := s.index[path]
	return i, ok
}

// MustIndex is Index for paths the caller declared itself.
func (s *State) MustIndex(path string) int {
	i, ok := s.index[path]
	if !ok {
		panic(fmt.Sprintf("synth: unknown parameter %q", path))
	}
	return i
}

// Get returns the last flushed value of path.
func (s *State) Get(path string) (float32, error) {
	i, ok := s.index[path]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", path)
	}
	return s.current.Load().values[i], nil
}

// Set stages a value, clamped to the declared range.
func (s *State) Set(path string, value float32) error {
	i, ok := s.index[path]
	if !ok {
		return fmt.Errorf("unknown parameter %q", path)
	}
	s.staged[i] = s.ranges[i].Clamp(value)
	return nil
}

// Flush publishes every staged value at once.
func (s *State) Flush() {
	s.seq++
	snap := &Snapshot{Seq: s.seq, values: append([]float32(nil), s.staged...)}
	s.current.Store(snap)
}

// Discard resets the staged values to the last flushed batch.
func (s *State) Discard() {
	copy(s.staged, s.current.Load().values)
}

// Snapshot returns the latest published batch. Safe from any goroutine.
func (s *State) Snapshot() *Snapshot {
	return s.current.Load()
}
