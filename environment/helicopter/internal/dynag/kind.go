// Package dynag binds the DynaG helicopter dynamics shared library.
// The binding is only compiled with the dynag build tag; without it
// New always fails with ErrUnavailable.
package dynag

import "errors"

// Kind selects the family of vectors a lookup reads
type Kind int

const (
	Observation Kind = iota
	State
	StateDot
	Action
)

// ErrUnavailable is returned by New when the binary was built without
// the dynamics library
var ErrUnavailable = errors.New("dynag: built without the dynag tag")
