package environment

import (
	"fmt"

	"github.com/dynag/heligym/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature of the timestep's engine state leaves some
// interval. Values on the interval bounds are inside.
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
	endType   timestep.EndType
}

// NewIntervalLimit creates and returns a new inteval limit. The endType
// argument determines what the episode end should be considered as.
func NewIntervalLimit(limits []r1.Interval, stateIndices []int,
	endType timestep.EndType) *IntervalLimit {
	if len(limits) != len(stateIndices) {
		panic(fmt.Sprintf("newIntervalLimit: %v limits given for %v "+
			"state indices", len(limits), len(stateIndices)))
	}

	return &IntervalLimit{limits, stateIndices, endType}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will mark the timestep as the last with the
// appropriate ending type.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	if t.State == nil {
		return false
	}

	for index := range i.indices {
		featureIndex := i.indices[index]
		interval := i.intervals[index]

		if t.State.AtVec(featureIndex) > interval.Max ||
			t.State.AtVec(featureIndex) < interval.Min {
			t.SetEnd(i.endType)
			return true
		}
	}
	return false
}
