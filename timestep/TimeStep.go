// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended. More than one EndType may hold
// on the same timestep.
type EndType int

const (
	// Failed means the vehicle left its safe operating envelope
	Failed EndType = iota

	// SimError means the dynamics engine reported an invalid
	// numerical state
	SimError

	// Succeeded means the task's success predicate held for long enough
	Succeeded

	// TimeUp means the episode time budget was exceeded
	TimeUp

	// DegenerateReward means the reward could not be computed (NaN)
	DegenerateReward
)

func (e EndType) String() string {
	switch e {
	case Failed:
		return "Failed"
	case SimError:
		return "SimError"
	case Succeeded:
		return "Succeeded"
	case TimeUp:
		return "TimeUp"
	case DegenerateReward:
		return "DegenerateReward"
	default:
		return fmt.Sprintf("EndType(%d)", int(e))
	}
}

// Info reports which termination predicates held on a timestep
type Info struct {
	Failed    bool `json:"failed" yaml:"failed"`
	SimError  bool `json:"sim_error" yaml:"sim_error"`
	Successed bool `json:"successed" yaml:"successed"`
	TimeUp    bool `json:"time_up" yaml:"time_up"`
}

// Any returns whether any termination predicate held
func (i Info) Any() bool {
	return i.Failed || i.SimError || i.Successed || i.TimeUp
}

// TimeStep packages together a single timestep in an environment.
//
// Observation is the observation handed to the agent. State is the
// full normalized engine observation the step was scored on, which
// termination predicates read.
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Observation *mat.VecDense
	State       *mat.VecDense
	Number      int

	// Time is the elapsed episode time and SuccessTime the accumulated
	// time the task's success predicate has held, both before this
	// step's success update is applied.
	Time        float64
	SuccessTime float64

	Info Info

	degenerate bool
}

// New returns a new TimeStep
func New(t StepType, r float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd marks the TimeStep as the last in its episode and records
// why the episode ended.
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last

	switch e {
	case Failed:
		t.Info.Failed = true
	case SimError:
		t.Info.SimError = true
	case Succeeded:
		t.Info.Successed = true
	case TimeUp:
		t.Info.TimeUp = true
	case DegenerateReward:
		t.degenerate = true
	}
}

// EndTypes returns every reason the episode ended on this TimeStep.
// The result is empty if the TimeStep is not the last in its episode.
func (t *TimeStep) EndTypes() []EndType {
	if !t.Last() {
		return nil
	}

	var ends []EndType
	if t.Info.Failed {
		ends = append(ends, Failed)
	}
	if t.Info.SimError {
		ends = append(ends, SimError)
	}
	if t.Info.Successed {
		ends = append(ends, Succeeded)
	}
	if t.Info.TimeUp {
		ends = append(ends, TimeUp)
	}
	if t.degenerate {
		ends = append(ends, DegenerateReward)
	}
	return ends
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.4f  |  Time: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Time, t.Number)
}
