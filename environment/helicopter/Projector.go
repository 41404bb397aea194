package helicopter

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Projector turns a full normalized engine observation into the
// observation handed to the agent: the task target is subtracted from
// its channel, then the selected indices are kept in order.
type Projector struct {
	schema  Schema
	indices []int
}

// NewProjector returns a Projector over s keeping the given indices.
// With no indices every element is kept. NewProjector panics if an
// index is outside the schema.
func NewProjector(s Schema, indices ...int) Projector {
	for _, i := range indices {
		if i < 0 || i >= s.Len() {
			panic(fmt.Sprintf("newProjector: index %v out of range "+
				"[0, %v)", i, s.Len()))
		}
	}
	return Projector{schema: s, indices: append([]int(nil), indices...)}
}

// NewRangeProjector returns a Projector keeping indices [from, to)
func NewRangeProjector(s Schema, from, to int) Projector {
	indices := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		indices = append(indices, i)
	}
	return NewProjector(s, indices...)
}

// Len returns the length of projected observations
func (p Projector) Len() int {
	if len(p.indices) == 0 {
		return p.schema.Len()
	}
	return len(p.indices)
}

// Project returns the goal-relative observation of state. The target
// must be valid for the Projector's schema.
func (p Projector) Project(state mat.Vector, target Target) *mat.VecDense {
	relative := mat.VecDenseCopyOf(state)

	if !target.Empty() {
		c, ok := p.schema.Channel(target.Channel)
		if !ok {
			panic(fmt.Sprintf("project: no such target channel %v",
				target.Channel))
		}
		for i, v := range target.Values {
			relative.SetVec(c.Offset+i, relative.AtVec(c.Offset+i)-v)
		}
	}

	if len(p.indices) == 0 {
		return relative
	}

	obs := mat.NewVecDense(len(p.indices), nil)
	for i, index := range p.indices {
		obs.SetVec(i, relative.AtVec(index))
	}
	return obs
}
