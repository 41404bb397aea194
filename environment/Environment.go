// Package environment outlines the interfaces and structs needed to
// implement concrete episodic environments around an external
// simulator.
package environment

import (
	"github.com/dynag/heligym/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether a timestep ends its episode. If so, End
// marks the timestep with timestep.SetEnd and returns true.
type Ender interface {
	End(t *timestep.TimeStep) bool
}

// Environment implements a simulated environment, which includes a
// task to complete. Environments start ready to use.
type Environment interface {
	Reset() (timestep.TimeStep, error) // Resets between episodes
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	CurrentTimeStep() timestep.TimeStep
	RewardSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

// allEnders evaluates every Ender it holds on each timestep, so that
// all ending conditions are recorded on the timestep even if an
// earlier one already ended the episode.
type allEnders []Ender

// NewAllEnders returns an Ender which ends an episode when any of the
// argument Enders does. Unlike checking the Enders one after another,
// every Ender is always evaluated.
func NewAllEnders(enders ...Ender) Ender {
	return allEnders(enders)
}

// End evaluates all Enders on the timestep
func (a allEnders) End(t *timestep.TimeStep) bool {
	done := false
	for _, ender := range a {
		if ender.End(t) {
			done = true
		}
	}
	return done
}
