package helicopter

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Kind selects which family of named vectors an engine lookup reads
type Kind int

const (
	ObservationKind Kind = iota
	StateKind
	StateDotKind
	ActionKind
)

func (k Kind) String() string {
	switch k {
	case ObservationKind:
		return "observation"
	case StateKind:
		return "state"
	case StateDotKind:
		return "statedot"
	case ActionKind:
		return "action"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Action is one control input: collective, longitudinal cyclic,
// lateral cyclic and pedal.
type Action [ActionLen]float64

// Indices into an Action
const (
	Collective = iota
	LongitudinalCyclic
	LateralCyclic
	Pedal

	ActionLen
)

// ActionFromVec converts a vector of length ActionLen into an Action
func ActionFromVec(v mat.Vector) (Action, error) {
	var a Action
	if v == nil || v.Len() != ActionLen {
		have := 0
		if v != nil {
			have = v.Len()
		}
		return a, fmt.Errorf("actionFromVec: %w \n\twant(%v) \n\thave(%v)",
			ErrInvalidAction, ActionLen, have)
	}
	for i := range a {
		a[i] = v.AtVec(i)
	}
	return a, nil
}

// Vec returns the Action as a vector
func (a Action) Vec() *mat.VecDense {
	return mat.NewVecDense(ActionLen, a[:])
}

// Configuration nodes and keys of the engine's persistent helicopter
// parameter file used by this package.
const (
	TrimNode = "TRIM"
	HeliNode = "HELI"

	GroundAltitudeKey = "GR_ALT"
	NorthKey          = "N_POS"
	EastKey           = "E_POS"

	WeightKey         = "WT"
	LongitudinalCGKey = "FS_CG"
	LateralCGKey      = "WL_CG"
)

// Engine is the contract of the external flight-dynamics engine. All
// calls are synchronous and delegate to the engine; nothing is cached
// and nothing is retried.
//
// A false Ready means the simulation is in an invalid numerical state.
// The environment reports that as a simulation error and ends the
// episode, it does not try to recover the engine.
type Engine interface {
	Ready() bool

	// Reset reinitializes the engine from its configured trim
	// conditions.
	Reset() error

	// Step advances the engine by exactly one fixed timestep under
	// the given control input.
	Step(a Action) error

	// Get returns the named vector of the given kind, raw or normalized
	// to the engine's bounds.
	Get(k Kind, name string, normalized bool) ([]float64, error)

	// All returns every vector of the given kind concatenated in the
	// engine's order.
	All(k Kind, normalized bool) ([]float64, error)

	ConfigValue(node, key string) (float64, error)
	SetConfigValue(node, key string, value float64) error

	NumberOfObservations() int

	Close() error
}
