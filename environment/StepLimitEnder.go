package environment

import "github.com/dynag/heligym/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) *StepLimit {
	return &StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that it is the
// last and its Info records a TimeUp ending.
func (s *StepLimit) End(t *timestep.TimeStep) bool {
	if s.episodeSteps > 0 && t.Number >= s.episodeSteps {
		t.SetEnd(timestep.TimeUp)
		return true
	}
	return false
}

// TimeLimit implements the Ender interface to end episodes once their
// elapsed simulated time exceeds a limit
type TimeLimit struct {
	maxTime float64
}

// NewTimeLimit creates and returns a new time limit
func NewTimeLimit(maxTime float64) *TimeLimit {
	return &TimeLimit{maxTime}
}

// End ends the episode when the timestep's elapsed time is strictly
// greater than the limit.
func (l *TimeLimit) End(t *timestep.TimeStep) bool {
	if t.Time > l.maxTime {
		t.SetEnd(timestep.TimeUp)
		return true
	}
	return false
}

// MaxTime returns the time limit
func (l *TimeLimit) MaxTime() float64 {
	return l.maxTime
}
