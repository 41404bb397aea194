package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples vectors whose elements are each drawn
// uniformly from an interval.
type UniformStarter struct {
	features int
	rand     *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter drawing from src. Passing
// the same source to several starters keeps all of their draws on one
// reproducible stream.
func NewUniformStarter(bounds []r1.Interval, src rand.Source) UniformStarter {
	rand := distmv.NewUniform(bounds, src)

	return UniformStarter{len(bounds), rand}
}

// Start returns a new sample
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
