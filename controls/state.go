// Package controls mirrors the engine's named parameters as typed values owned
// by the conductor goroutine.
package controls

import (
	"fmt"

	"github.com/cwbudde/theremotion/solfege"
)

// State is the engine's flat parameter namespace. Set calls are staged and
// become visible to the engine atomically on Flush.
type State interface {
	Get(path string) (float32, error)
	Set(path string, value float32) error
	Flush()
	// Discard drops values staged since the last Flush.
	Discard()
}

// Param is the metadata the engine declares for one parameter.
type Param struct {
	Path string
	Min  float32
	Max  float32
	Init float32
}

// Range returns the declared range.
func (p Param) Range() solfege.Range {
	return solfege.R(p.Min, p.Max)
}

// Declared is implemented by engines that publish their parameter metadata.
type Declared interface {
	Params() []Param
}

// MustLookup returns the parameter declared under path and panics when it is
// missing: the control model and the engine are built together, a missing
// path is a programming error.
func MustLookup(d Declared, path string) Param {
	for _, p := range d.Params() {
		if p.Path == path {
			return p
		}
	}
	panic(fmt.Sprintf("controls: engine does not declare parameter %q", path))
}
