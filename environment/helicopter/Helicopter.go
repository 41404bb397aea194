// Package helicopter implements episodic helicopter flight tasks
// around an external flight-dynamics engine. The engine integrates the
// flight physics; this package decides how episodes start, how steps
// are rewarded and when episodes end.
package helicopter

import (
	"fmt"
	"math"

	"github.com/dynag/heligym/environment"
	ts "github.com/dynag/heligym/timestep"
	"github.com/dynag/heligym/utils/floatutils"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

const (
	// FPS is the default simulation rate
	FPS = 50

	// DefaultDt is the default engine timestep, in seconds
	DefaultDt = 1.0 / FPS

	// Rewards are clamped to [MinReward, MaxReward]
	MinReward = -10.0
	MaxReward = 10.0
)

// Config configures a Helicopter environment
type Config struct {
	// HeliName names the helicopter parameter file and render models
	HeliName string

	// Dt is the engine timestep. Zero selects DefaultDt.
	Dt float64

	// MaxTime is the episode time limit. Zero selects the task default.
	MaxTime float64

	// Seed seeds the scenario randomizer
	Seed uint64
}

// Option configures optional parts of a Helicopter environment
type Option func(*Helicopter)

// WithLogger sets the logger of the environment
func WithLogger(l zerolog.Logger) Option {
	return func(h *Helicopter) {
		h.log = l
	}
}

// WithRenderer sets the renderer used by Render
func WithRenderer(r Renderer) Option {
	return func(h *Helicopter) {
		h.renderer = r
	}
}

// Episode is the bookkeeping of the current episode
type Episode struct {
	// Time is the elapsed simulated time
	Time float64

	// SuccessTime is the accumulated time the task's success predicate
	// has held
	SuccessTime float64

	// Score is the sum of clamped rewards
	Score float64

	Steps    int
	Scenario Scenario
	Target   Target
}

// Helicopter is an episodic environment around a helicopter dynamics
// engine. A Task decides the scenario, target, reward and observation
// of each episode. The environment owns the engine it is given and
// closes it on Close.
//
// Episode time starts at 0 on Reset and advances by dt before the
// engine is stepped, so the first step of an episode is scored at
// time dt. An episode ends when the vehicle fails, the engine reports
// an invalid numerical state, the task's success predicate has held
// for a quarter of the time limit, the time limit is exceeded, or the
// reward is NaN. A NaN reward is returned unchanged so that the agent
// can see it.
//
// Stepping after the end of an episode is not prevented: the engine
// keeps integrating and every step reports the end again until the
// environment is Reset.
//
// Helicopter satisfies the environment.Environment interface.
type Helicopter struct {
	engine      Engine
	task        Task
	randomizer  *Randomizer
	termination *Termination
	projector   Projector

	heliName string
	dt       float64
	maxTime  float64

	episode         Episode
	currentTimeStep ts.TimeStep

	log      zerolog.Logger
	renderer Renderer
	scene    *scene
	reward   float64
}

// New returns a new Helicopter environment and the first timestep of
// its first episode
func New(engine Engine, task Task, c Config,
	opts ...Option) (*Helicopter, ts.TimeStep, error) {
	if engine == nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w: nil engine",
			ErrEngineUnavailable)
	}
	if task == nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: task must not be nil")
	}

	if n := engine.NumberOfObservations(); n != HelicopterSchema.Len() {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w \n\twant(%v) "+
			"\n\thave(%v)", ErrSchemaMismatch, HelicopterSchema.Len(), n)
	}

	dt := c.Dt
	if dt == 0 {
		dt = DefaultDt
	}
	if dt < 0 || !floatutils.AllFinite(dt) {
		return nil, ts.TimeStep{}, fmt.Errorf("new: dt must be positive "+
			"\n\thave(%v)", dt)
	}

	maxTime := c.MaxTime
	if maxTime == 0 {
		maxTime = task.DefaultMaxTime()
	}
	if maxTime < 0 || !floatutils.AllFinite(maxTime) {
		return nil, ts.TimeStep{}, fmt.Errorf("new: max time must be "+
			"positive \n\thave(%v)", maxTime)
	}

	h := &Helicopter{
		engine:     engine,
		task:       task,
		randomizer: NewSeededRandomizer(c.Seed),
		projector:  task.Projector(),
		heliName:   c.HeliName,
		dt:         dt,
		maxTime:    maxTime,
		log:        zerolog.Nop(),
	}
	h.termination = NewTermination(HelicopterSchema, engine.Ready, maxTime)

	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With().Str("task", task.Name()).Logger()

	if h.renderer != nil {
		s, err := newScene(h.renderer, h.heliName)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
		}
		h.scene = s
	}

	firstStep, err := h.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return h, firstStep, nil
}

// Reset resets the environment to begin a new episode. The task draws
// the initial conditions, which are written to the engine
// configuration before the engine is reset.
func (h *Helicopter) Reset() (ts.TimeStep, error) {
	scenario, target := h.task.Start(h.randomizer, h.maxTime)

	if err := target.Validate(HelicopterSchema); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: task %v: %w",
			h.task.Name(), err)
	}

	if scenario != nil {
		if err := scenario.Apply(h.engine); err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
		}
	} else {
		s, err := ReadScenario(h.engine)
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
		}
		scenario = &s
	}

	if err := h.engine.Reset(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"engine: %w", err)
	}

	state, err := h.state()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	h.episode = Episode{Scenario: *scenario, Target: target.Copy()}
	h.reward = 0

	firstStep := ts.New(ts.First, 0, h.projector.Project(state, target), 0)
	firstStep.State = state
	h.currentTimeStep = firstStep

	h.log.Debug().
		Float64("gr_alt", scenario.GroundAltitude).
		Float64("n_pos", scenario.North).
		Float64("e_pos", scenario.East).
		Float64("weight", scenario.Weight).
		Float64("fs_cg", scenario.LongitudinalCG).
		Float64("wl_cg", scenario.LateralCG).
		Floats64("target", target.Values).
		Msg("episode reset")

	return firstStep, nil
}

// Step takes one environmental step given an action of length 4. The
// returned boolean reports whether the episode has ended. Errors are
// returned only for malformed actions and engine failures, never for
// the normal end of an episode.
func (h *Helicopter) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	a, err := ActionFromVec(action)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}

	h.episode.Time += h.dt
	if err := h.engine.Step(a); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"engine: %w", err)
	}

	state, err := h.state()
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}

	t := ts.New(ts.Mid, 0, nil, h.currentTimeStep.Number+1)
	t.State = state
	t.Time = h.episode.Time
	t.SuccessTime = h.episode.SuccessTime
	done := h.termination.End(&t)

	reward, successStep := h.task.Reward(state, h.episode.Target,
		t.Info.Failed, h.dt)
	reward = floatutils.Clip(reward, MinReward, MaxReward)
	if math.IsNaN(reward) {
		t.SetEnd(ts.DegenerateReward)
		done = true
	} else {
		h.episode.Score += reward
	}
	t.Reward = reward

	if successStep {
		h.episode.SuccessTime += h.dt
	}
	h.episode.Steps = t.Number
	h.reward = reward

	t.Observation = h.projector.Project(state, h.episode.Target)
	h.currentTimeStep = t

	if t.Info.SimError {
		h.log.Warn().Int("step", t.Number).Float64("time", t.Time).
			Msg("engine not ready")
	}
	if done {
		h.log.Info().
			Int("steps", t.Number).
			Float64("time", t.Time).
			Float64("score", h.episode.Score).
			Bool("failed", t.Info.Failed).
			Bool("sim_error", t.Info.SimError).
			Bool("successed", t.Info.Successed).
			Bool("time_up", t.Info.TimeUp).
			Bool("nan_reward", math.IsNaN(reward)).
			Msg("episode done")
	}

	return t, done, nil
}

// state returns the full normalized engine observation
func (h *Helicopter) state() (*mat.VecDense, error) {
	obs, err := h.engine.All(ObservationKind, true)
	if err != nil {
		return nil, fmt.Errorf("could not get observation: %w", err)
	}
	if len(obs) != HelicopterSchema.Len() {
		return nil, fmt.Errorf("%w \n\twant(%v) \n\thave(%v)",
			ErrSchemaMismatch, HelicopterSchema.Len(), len(obs))
	}
	return mat.NewVecDense(len(obs), obs), nil
}

// CurrentTimeStep returns the current timestep
func (h *Helicopter) CurrentTimeStep() ts.TimeStep {
	return h.currentTimeStep
}

// Episode returns the bookkeeping of the current episode
func (h *Helicopter) Episode() Episode {
	ep := h.episode
	ep.Target = ep.Target.Copy()
	return ep
}

// Target returns a copy of the current episode's target
func (h *Helicopter) Target() Target {
	return h.episode.Target.Copy()
}

// Task returns the environment's task
func (h *Helicopter) Task() Task {
	return h.task
}

// Dt returns the engine timestep
func (h *Helicopter) Dt() float64 {
	return h.dt
}

// MaxTime returns the episode time limit
func (h *Helicopter) MaxTime() float64 {
	return h.maxTime
}

// SuccessDuration returns how long the task's success predicate must
// hold for an episode to succeed
func (h *Helicopter) SuccessDuration() float64 {
	return h.termination.SuccessDuration()
}

// TrimAction returns the engine's current raw action. Right after a
// Reset this is the trim action of the configured initial conditions.
func (h *Helicopter) TrimAction() (*mat.VecDense, error) {
	a, err := h.engine.All(ActionKind, false)
	if err != nil {
		return nil, fmt.Errorf("trimAction: %w", err)
	}
	if len(a) != ActionLen {
		return nil, fmt.Errorf("trimAction: %w \n\twant(%v) \n\thave(%v)",
			ErrInvalidAction, ActionLen, len(a))
	}
	return mat.NewVecDense(ActionLen, a), nil
}

// ObservationSpec returns the observation specification of the
// environment
func (h *Helicopter) ObservationSpec() environment.Spec {
	return environment.NewUnboundedSpec(h.projector.Len(),
		environment.Observation)
}

// ActionSpec returns the action specification of the environment
func (h *Helicopter) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(ActionLen, environment.Action, -1, 1)
}

// RewardSpec returns the reward specification of the environment
func (h *Helicopter) RewardSpec() environment.Spec {
	return environment.NewBoxSpec(1, environment.Reward, MinReward,
		MaxReward)
}

// Render draws the current state of the environment
func (h *Helicopter) Render() error {
	if h.scene == nil {
		return fmt.Errorf("render: %w", ErrNoRenderer)
	}
	h.scene.createOverlays(h.task)

	obs, err := h.engine.All(ObservationKind, false)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	xyz, err := h.engine.Get(StateKind, XYZ, false)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	euler, err := h.engine.Get(ObservationKind, EulerAngles, false)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if h.scene.annotator != nil {
		h.scene.renderer.SetOverlayValues(h.scene.task,
			h.scene.annotator.OverlayValues(h.Episode(), h.reward,
				h.maxTime))
	}

	if err := h.scene.frame(obs, xyz, euler); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Close closes the renderer, if any, and the engine
func (h *Helicopter) Close() error {
	if h.renderer != nil {
		if err := h.renderer.Close(); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	if err := h.engine.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
