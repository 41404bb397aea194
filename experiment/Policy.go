package experiment

import (
	"fmt"

	"github.com/dynag/heligym/environment"
	ts "github.com/dynag/heligym/timestep"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// Policy selects the action to take on a timestep
type Policy interface {
	SelectAction(t ts.TimeStep) (*mat.VecDense, error)
}

// PolicyName stores the name of the policies that can be configured
type PolicyName string

// Available policies
const (
	TrimPolicy   PolicyName = "trim"
	ZeroPolicy   PolicyName = "zero"
	RandomPolicy PolicyName = "random"
)

// Trimmer is an environment reporting the action which trims the
// vehicle in its current initial conditions
type Trimmer interface {
	TrimAction() (*mat.VecDense, error)
}

// Trim holds the trim action of each episode. The trim action is
// queried from the environment on the first timestep of each episode.
type Trim struct {
	env    Trimmer
	action *mat.VecDense
}

// NewTrim returns a new Trim policy for env
func NewTrim(env Trimmer) *Trim {
	return &Trim{env: env}
}

// SelectAction implements the Policy interface
func (p *Trim) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	if t.First() || p.action == nil {
		a, err := p.env.TrimAction()
		if err != nil {
			return nil, fmt.Errorf("selectAction: %w", err)
		}
		p.action = a
	}
	return mat.VecDenseCopyOf(p.action), nil
}

// Zero always selects the zero action
type Zero struct {
	length int
}

// NewZero returns a new Zero policy for the action specification
func NewZero(spec environment.Spec) *Zero {
	return &Zero{length: spec.Shape.Len()}
}

// SelectAction implements the Policy interface
func (p *Zero) SelectAction(ts.TimeStep) (*mat.VecDense, error) {
	return mat.NewVecDense(p.length, nil), nil
}

// Random selects actions uniformly at random within the bounds of an
// action specification
type Random struct {
	dist *distmv.Uniform
}

// NewRandom returns a new Random policy for the action specification
func NewRandom(spec environment.Spec, seed uint64) *Random {
	bounds := make([]r1.Interval, spec.Shape.Len())
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: spec.LowerBound.AtVec(i),
			Max: spec.UpperBound.AtVec(i),
		}
	}
	return &Random{distmv.NewUniform(bounds, rand.NewSource(seed))}
}

// SelectAction implements the Policy interface
func (p *Random) SelectAction(ts.TimeStep) (*mat.VecDense, error) {
	return mat.NewVecDense(p.dist.Dim(), p.dist.Rand(nil)), nil
}
