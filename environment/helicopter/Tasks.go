package helicopter

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Task is a strategy plugged into the Helicopter environment. It draws
// the scenario and target of each episode, shapes the reward and
// chooses which part of the engine observation the agent sees.
type Task interface {
	// Name returns the registered name of the Task
	Name() string

	// DefaultMaxTime returns the episode time limit used when the
	// environment configuration does not set one
	DefaultMaxTime() float64

	// Start draws the initial conditions of an episode. A nil Scenario
	// keeps the engine's configured initial conditions.
	Start(r *Randomizer, maxTime float64) (*Scenario, Target)

	// Reward returns the unclamped reward for the full normalized
	// observation state, and whether the success predicate held on
	// this step.
	Reward(state mat.Vector, target Target, failed bool,
		dt float64) (float64, bool)

	// Projector returns the projector of observations handed to the
	// agent
	Projector() Projector
}

// Registered task names
const (
	BaseName  = "Base"
	HoverName = "Hover"
)

// Base is the task-less helicopter environment. Its reward is always
// 0 and episodes end only by failure, simulation error or time limit.
// The agent observes the full normalized engine observation.
type Base struct {
	projector Projector
}

// NewBase returns a new Base task
func NewBase() *Base {
	return &Base{projector: NewProjector(HelicopterSchema)}
}

// Name implements the Task interface
func (b *Base) Name() string { return BaseName }

// DefaultMaxTime implements the Task interface
func (b *Base) DefaultMaxTime() float64 { return 40 }

// Start implements the Task interface. The Base task does not
// randomize initial conditions and sets no target.
func (b *Base) Start(*Randomizer, float64) (*Scenario, Target) {
	return nil, Target{}
}

// Reward implements the Task interface
func (b *Base) Reward(mat.Vector, Target, bool, float64) (float64, bool) {
	return 0, false
}

// Projector implements the Task interface
func (b *Base) Projector() Projector { return b.projector }

// Hover reward calibration, in normalized engine units
const (
	HoverPositionWeight = 0.03 / 0.5
	HoverVelocityWeight = 0.0419 / 0.4
	HoverRateWeight     = 8.592e-3 / 0.05
	HoverSwashWeight    = 0.0124 / 0.05

	// HoverTerminalSpeed is the closing speed towards the target which
	// zeroes the position cost
	HoverTerminalSpeed = 0.0419

	// HoverFailCost is charged on every failed step
	HoverFailCost = 2.0
)

// Hover observation window: nedvel, eulerangles, pqr, xyz, gralt and
// swashdef
const (
	hoverObsFrom = 10
	hoverObsTo   = 27
)

// Hover implements the hover task. At the start of each episode the
// helicopter is placed at a random point with a random weight and
// centre of gravity, and must fly to and hold a random target position
// which is reachable within half of the episode.
//
// The reward per step is
//
//	(1 - position - lateral - rate - control - fail) * dt
//
// where, with err the vector from the helicopter to the target and e
// its direction:
//
//	position = min(‖err‖ / 0.06, |1 - (e·nedvel) / 0.0419|)
//	lateral  = ‖nedvel - e(e·nedvel)‖ / 0.10475
//	rate     = ‖pqr‖ / 0.17184
//	control  = ‖swashrate‖ / 0.248
//	fail     = 2 on failure, otherwise 0
//
// Hover never signals success, so episodes end by failure, simulation
// error or time limit.
//
// Agents observe entries 10 through 26 of the engine observation, with
// the target subtracted from the position.
type Hover struct {
	params    StartParams
	projector Projector
}

// NewHover returns a new Hover task. Zero altitude bounds select the
// default start band of 100 to 4000 ft.
func NewHover(p StartParams) *Hover {
	if p.AltLow == 0 && p.AltHigh == 0 {
		p.AltLow, p.AltHigh = 100, 4000
	}
	if p.Deviation == 0 {
		p.Deviation = DefaultStartDeviation
	}

	return &Hover{
		params:    p,
		projector: NewRangeProjector(HelicopterSchema, hoverObsFrom, hoverObsTo),
	}
}

// Name implements the Task interface
func (h *Hover) Name() string { return HoverName }

// DefaultMaxTime implements the Task interface
func (h *Hover) DefaultMaxTime() float64 { return 60 }

// StartParams returns the start point configuration of the task
func (h *Hover) StartParams() StartParams { return h.params }

// Start implements the Task interface. Draws are made in the order
// start point, target, weight and centre of gravity.
func (h *Hover) Start(r *Randomizer, maxTime float64) (*Scenario, Target) {
	groundAlt, north, east := r.StartPoint(h.params)
	target := r.TargetPoint(groundAlt, maxTime)
	weight, longitudinalCG, lateralCG := r.WeightAndCG()

	return &Scenario{
		GroundAltitude: groundAlt,
		North:          north,
		East:           east,
		Weight:         weight,
		LongitudinalCG: longitudinalCG,
		LateralCG:      lateralCG,
	}, target
}

// Reward implements the Task interface. The reward is NaN when the
// helicopter is exactly at the target.
func (h *Hover) Reward(state mat.Vector, target Target, failed bool,
	dt float64) (float64, bool) {
	xyz := HelicopterSchema.Slice(state, XYZ)
	nedvel := HelicopterSchema.Slice(state, NEDVel)
	pqr := HelicopterSchema.Slice(state, PQR)
	swashrate := HelicopterSchema.Slice(state, SwashRate)

	errVec := make([]float64, len(xyz))
	floats.SubTo(errVec, target.Values, xyz)
	distance := floats.Norm(errVec, 2)

	direction := make([]float64, len(errVec))
	floats.ScaleTo(direction, 1/distance, errVec)
	closing := floats.Dot(direction, nedvel)

	position := math.Min(distance/HoverPositionWeight,
		math.Abs(1-closing/HoverTerminalSpeed))

	lateralVel := make([]float64, len(nedvel))
	floats.AddScaledTo(lateralVel, nedvel, -closing, direction)
	lateral := floats.Norm(lateralVel, 2) / HoverVelocityWeight

	rate := floats.Norm(pqr, 2) / HoverRateWeight
	control := floats.Norm(swashrate, 2) / HoverSwashWeight

	var fail float64
	if failed {
		fail = HoverFailCost
	}

	return (1 - position - lateral - rate - control - fail) * dt, false
}

// Projector implements the Task interface
func (h *Hover) Projector() Projector { return h.projector }

// OverlayTitle implements the Annotator interface
func (h *Hover) OverlayTitle() string { return "Hover" }

// OverlayLines implements the Annotator interface
func (h *Hover) OverlayLines() []string {
	return []string{
		"Weight : %.2f lb",
		"FS_CG : %.2f in",
		"WL_CG : %.2f in",
		"",
		"Reward : %.4f",
		"Score : %.4f",
		"",
		"Start N : %.2f ft",
		"Start E : %.2f ft",
		"Start GR_ALT : %.2f ft",
		"",
		"Target N : %.2f ft",
		"Target E : %.2f ft",
		"Target D : %.2f ft",
		"",
		"Remaining Time : %.2f s",
	}
}

// OverlayValues implements the Annotator interface
func (h *Hover) OverlayValues(ep Episode, reward, maxTime float64) []float64 {
	s := ep.Scenario
	target := make([]float64, 3)
	if len(ep.Target.Values) == 3 {
		floats.ScaleTo(target, TargetNormalizer, ep.Target.Values)
	}

	return []float64{
		s.Weight, s.LongitudinalCG, s.LateralCG, 0,
		reward, ep.Score, 0,
		s.North, s.East, s.GroundAltitude, 0,
		target[0], target[1], target[2], 0,
		maxTime - ep.Time,
	}
}
