package helicopter

import (
	"math"

	"github.com/dynag/heligym/environment"
	"github.com/dynag/heligym/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Safe operating envelope, in normalized engine units
const (
	// GroundProximity is the ground altitude under which the vehicle is
	// considered to be on or about to touch the ground
	GroundProximity = 0.0015

	// MaxAttitude bounds roll and pitch near the ground
	MaxAttitude = 0.33

	// MaxBodySpeed bounds the body-frame speed near the ground
	MaxBodySpeed = 0.1

	// HorizontalEnvelope bounds the north and east positions
	HorizontalEnvelope = 1.0
)

// Termination decides the end of helicopter episodes. Every predicate
// is evaluated on every step, so the timestep's Info records all of
// the predicates which held, not only the first.
type Termination struct {
	environment.Ender

	schema    Schema
	timeLimit *environment.TimeLimit
}

// NewTermination returns a Termination over observations of the given
// schema. The ready function reports whether the engine is in a valid
// numerical state. The success duration is a quarter of maxTime.
func NewTermination(s Schema, ready func() bool,
	maxTime float64) *Termination {
	t := &Termination{
		schema:    s,
		timeLimit: environment.NewTimeLimit(maxTime),
	}

	envelope := r1.Interval{Min: -HorizontalEnvelope, Max: HorizontalEnvelope}
	horizontal := environment.NewIntervalLimit(
		[]r1.Interval{envelope, envelope},
		[]int{s.Index(XYZ, 0), s.Index(XYZ, 1)},
		timestep.Failed,
	)

	crashed := environment.NewFunctionEnder(func(step *timestep.TimeStep) bool {
		return step.State != nil && t.crashed(step.State)
	}, timestep.Failed)

	simError := environment.NewFunctionEnder(func(*timestep.TimeStep) bool {
		return !ready()
	}, timestep.SimError)

	succeeded := environment.NewFunctionEnder(func(step *timestep.TimeStep) bool {
		return step.SuccessTime >= t.SuccessDuration()
	}, timestep.Succeeded)

	t.Ender = environment.NewAllEnders(crashed, horizontal, simError,
		succeeded, t.timeLimit)

	return t
}

// crashed returns whether the vehicle is near the ground with an unsafe
// attitude or speed
func (t *Termination) crashed(state mat.Vector) bool {
	if state.AtVec(t.schema.Index(GroundAltitude, 0)) >= GroundProximity {
		return false
	}

	euler := t.schema.Slice(state, EulerAngles)
	uvw := t.schema.Slice(state, UVW)

	return math.Abs(euler[0]) > MaxAttitude ||
		math.Abs(euler[1]) > MaxAttitude ||
		floats.Norm(uvw, 2) > MaxBodySpeed
}

// MaxTime returns the episode time limit
func (t *Termination) MaxTime() float64 {
	return t.timeLimit.MaxTime()
}

// SuccessDuration returns how long the success predicate must hold
// for an episode to succeed
func (t *Termination) SuccessDuration() float64 {
	return t.timeLimit.MaxTime() / 4
}
