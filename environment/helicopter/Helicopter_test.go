package helicopter

import (
	"bytes"
	"math"
	"testing"

	"github.com/dynag/heligym/timestep"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// drift moves the vehicle with a velocity set by the cyclic inputs and
// rolls it with the lateral cyclic
func drift(obs []float64, a Action, dt float64) {
	nedvel := HelicopterSchema.Index(NEDVel, 0)
	xyz := HelicopterSchema.Index(XYZ, 0)
	roll := HelicopterSchema.Index(EulerAngles, 0)

	obs[nedvel] = 0.01 * a[LongitudinalCyclic]
	obs[nedvel+1] = 0.01 * a[LateralCyclic]
	obs[nedvel+2] = -0.01 * (a[Collective] - 0.5)
	for i := 0; i < 3; i++ {
		obs[xyz+i] += obs[nedvel+i] * dt
	}
	obs[HelicopterSchema.Index(GroundAltitude, 0)] -= obs[nedvel+2] * dt
	obs[roll] = 0.1 * a[LateralCyclic]
}

func newHover(t *testing.T, seed uint64, opts ...Option) (*Helicopter,
	*MemoryEngine) {
	t.Helper()
	engine := NewMemoryEngine(DefaultDt)
	engine.StepFunc = drift

	env, first, err := New(engine, NewHover(StartParams{}),
		Config{HeliName: "aw109", Seed: seed}, opts...)
	require.NoError(t, err)
	require.True(t, first.First())
	return env, engine
}

// expectedHoverReward recomputes the hover reward from scratch
func expectedHoverReward(state mat.Vector, target Target, failed bool,
	dt float64) float64 {
	at := func(name string, i int) float64 {
		return state.AtVec(HelicopterSchema.Index(name, i))
	}
	norm := func(v [3]float64) float64 {
		return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}

	var diff, vel, pqr [3]float64
	for i := 0; i < 3; i++ {
		diff[i] = target.Values[i] - at(XYZ, i)
		vel[i] = at(NEDVel, i)
		pqr[i] = at(PQR, i)
	}
	d := norm(diff)
	closing := (diff[0]*vel[0] + diff[1]*vel[1] + diff[2]*vel[2]) / d

	var lateral [3]float64
	for i := 0; i < 3; i++ {
		lateral[i] = vel[i] - diff[i]/d*closing
	}

	var swash float64
	for i := 0; i < 4; i++ {
		swash += at(SwashRate, i) * at(SwashRate, i)
	}

	cost := math.Min(d/0.06, math.Abs(1-closing/0.0419)) +
		norm(lateral)/0.10475 + norm(pqr)/0.17184 + math.Sqrt(swash)/0.248
	if failed {
		cost += 2
	}
	return math.Max(-10, math.Min(10, (1-cost)*dt))
}

func TestNewValidates(t *testing.T) {
	_, _, err := New(nil, NewBase(), Config{})
	assert.ErrorIs(t, err, ErrEngineUnavailable)

	_, _, err = New(shortEngine{NewMemoryEngine(DefaultDt)}, NewBase(), Config{})
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, _, err = New(NewMemoryEngine(DefaultDt), NewBase(), Config{Dt: -1})
	assert.Error(t, err)

	_, _, err = New(NewMemoryEngine(DefaultDt), NewBase(), Config{MaxTime: -1})
	assert.Error(t, err)

	env, _, err := New(NewMemoryEngine(DefaultDt), NewBase(), Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultDt, env.Dt())
	assert.Equal(t, 40.0, env.MaxTime())
	assert.Equal(t, 10.0, env.SuccessDuration())
}

type shortEngine struct {
	*MemoryEngine
}

func (shortEngine) NumberOfObservations() int { return 30 }

func TestSpecs(t *testing.T) {
	env, _ := newHover(t, 1)

	assert.Equal(t, 17, env.ObservationSpec().Shape.Len())
	assert.Equal(t, 4, env.ActionSpec().Shape.Len())
	assert.True(t, env.ActionSpec().Contains(mat.NewVecDense(4,
		[]float64{-1, 1, 0, 0.5})))
	assert.Equal(t, MaxReward, env.RewardSpec().UpperBound.AtVec(0))
	assert.Equal(t, MinReward, env.RewardSpec().LowerBound.AtVec(0))
}

func TestResetAppliesScenario(t *testing.T) {
	env, engine := newHover(t, 3)
	ep := env.Episode()

	read, err := ReadScenario(engine)
	require.NoError(t, err)
	assert.Equal(t, ep.Scenario, read)
	assert.GreaterOrEqual(t, ep.Scenario.GroundAltitude, 0.0)

	// The first observation is relative to the target
	first := env.CurrentTimeStep()
	require.Equal(t, 17, first.Observation.Len())
	wantDown := -(ep.Scenario.GroundAltitude+TerrainOffset)/TargetNormalizer -
		ep.Target.Values[2]
	assert.InDelta(t, wantDown, first.Observation.AtVec(11), 1e-12)
}

func TestDoubleResetStartsFreshEpisode(t *testing.T) {
	env, _ := newHover(t, 4)
	action := mat.NewVecDense(4, []float64{0.6, 0.2, 0, 0})

	for i := 0; i < 10; i++ {
		_, _, err := env.Step(action)
		require.NoError(t, err)
	}
	before := env.Episode()
	assert.Equal(t, 10, before.Steps)
	assert.Greater(t, before.Time, 0.0)

	first, err := env.Reset()
	require.NoError(t, err)
	assert.True(t, first.First())
	assert.Equal(t, 0, first.Number)

	after := env.Episode()
	assert.Equal(t, 0.0, after.Time)
	assert.Equal(t, 0.0, after.SuccessTime)
	assert.Equal(t, 0.0, after.Score)
	assert.Equal(t, 0, after.Steps)
	assert.NotEqual(t, before.Scenario, after.Scenario)
	assert.NotEqual(t, before.Target, after.Target)
}

func TestStepRejectsBadAction(t *testing.T) {
	env, _ := newHover(t, 5)

	_, _, err := env.Step(mat.NewVecDense(3, nil))
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, 0.0, env.Episode().Time)
}

func TestSeededEpisodesAreReproducible(t *testing.T) {
	envA, _ := newHover(t, 11)
	envB, _ := newHover(t, 11)
	assert.Equal(t, envA.Episode(), envB.Episode())

	src := rand.NewSource(99)
	rng := rand.New(src)
	for i := 0; i < 200; i++ {
		action := mat.NewVecDense(4, []float64{
			rng.Float64(), 2*rng.Float64() - 1, 2*rng.Float64() - 1, 0,
		})

		a, doneA, err := envA.Step(action)
		require.NoError(t, err)
		b, doneB, err := envB.Step(action)
		require.NoError(t, err)

		require.Equal(t, doneA, doneB)
		require.Equal(t, a.Reward, b.Reward)
		require.Equal(t, a.Info, b.Info)
		require.True(t, mat.Equal(a.Observation, b.Observation))

		if doneA {
			break
		}
	}
}

// TestHoverGoldenStep pins the seeded scenario draw and the first step
// of a Hover episode on a static engine to recorded values.
func TestHoverGoldenStep(t *testing.T) {
	const tol = 1e-12

	env, first, err := New(NewMemoryEngine(DefaultDt), NewHover(StartParams{}),
		Config{Seed: 42})
	require.NoError(t, err)

	scenario := env.Episode().Scenario
	assert.Equal(t, 251.93, scenario.GroundAltitude)
	assert.InDelta(t, 37.08697695651344, scenario.North, tol)
	assert.InDelta(t, -74.89157973779558, scenario.East, tol)
	assert.InDelta(t, 4153.834740598563, scenario.Weight, 1e-9)
	assert.InDelta(t, 133.7885739289266, scenario.LongitudinalCG, 1e-9)
	assert.InDelta(t, 38.69633271598161, scenario.LateralCG, 1e-9)

	target := env.Target()
	assert.Equal(t, XYZ, target.Channel)
	assert.InDeltaSlice(t, []float64{
		-0.010610706487389142,
		-0.02178171184528014,
		-0.5709780420380978,
	}, target.Values, tol)

	relative := []float64{
		0.021057742249787292,
		0.0006854922008306813,
		0.1258456476719006,
	}
	const gralt = 0.07096619718309859

	wantFirst := []float64{
		0, 0, 0, 0, 0, 0, 0, 0, 0,
		relative[0], relative[1], relative[2],
		gralt,
		0.5, 0, 0, 0,
	}
	require.True(t, first.First())
	assert.InDeltaSlice(t, wantFirst, first.Observation.RawVector().Data, tol)

	step, done, err := env.Step(mat.NewVecDense(4, []float64{0, 0, 0, 0}))
	require.NoError(t, err)

	want := []float64{
		0, 0, 0, 0, 0, 0, 0, 0, 0,
		relative[0], relative[1], relative[2],
		gralt,
		0, 0, 0, 0,
	}
	require.Equal(t, len(want), step.Observation.Len())
	assert.InDeltaSlice(t, want, step.Observation.RawVector().Data, tol)
	assert.InDelta(t, -0.05040322580645161, step.Reward, tol)
	assert.False(t, done)
	assert.Equal(t, timestep.Info{}, step.Info)

	ep := env.Episode()
	assert.Equal(t, 1, ep.Steps)
	assert.InDelta(t, DefaultDt, ep.Time, tol)
	assert.InDelta(t, step.Reward, ep.Score, tol)
}

func TestHoverStepReward(t *testing.T) {
	env, _ := newHover(t, 12)
	target := env.Target()
	action := mat.NewVecDense(4, []float64{0.7, 0.3, -0.2, 0})

	score := 0.0
	for i := 1; i <= 100; i++ {
		step, done, err := env.Step(action)
		require.NoError(t, err)
		require.Equal(t, i, step.Number)

		want := expectedHoverReward(step.State, target, step.Info.Failed,
			env.Dt())
		require.InDelta(t, want, step.Reward, 1e-9)
		require.GreaterOrEqual(t, step.Reward, MinReward)
		require.LessOrEqual(t, step.Reward, MaxReward)

		score += step.Reward
		if done {
			break
		}
	}
	assert.InDelta(t, score, env.Episode().Score, 1e-9)
}

func TestRewardIsClamped(t *testing.T) {
	env, engine := newHover(t, 13)
	engine.StepFunc = func(obs []float64, _ Action, _ float64) {
		obs[HelicopterSchema.Index(PQR, 0)] = 1000
	}

	step, _, err := env.Step(mat.NewVecDense(4, []float64{0.5, 0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, MinReward, step.Reward)
}

func TestNaNRewardEndsEpisode(t *testing.T) {
	env, engine := newHover(t, 14)
	engine.StepFunc = nil

	target := env.Target()
	require.NoError(t, engine.SetObservation(XYZ, target.Values...))

	step, done, err := env.Step(mat.NewVecDense(4, []float64{0.5, 0, 0, 0}))
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, step.Last())
	assert.True(t, math.IsNaN(step.Reward))
	assert.Contains(t, step.EndTypes(), timestep.DegenerateReward)
	assert.Equal(t, 0.0, env.Episode().Score)
}

func TestEngineNotReadyEndsEpisode(t *testing.T) {
	env, _, err := New(NewMemoryEngine(DefaultDt), NewBase(), Config{})
	require.NoError(t, err)

	step, done, err := env.Step(mat.NewVecDense(4,
		[]float64{math.NaN(), 0, 0, 0}))
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, step.Info.SimError)
	assert.False(t, step.Info.TimeUp)
}

func TestTimeUpEndsEpisode(t *testing.T) {
	env, _, err := New(NewMemoryEngine(DefaultDt), NewBase(),
		Config{MaxTime: 1})
	require.NoError(t, err)

	trim, err := env.TrimAction()
	require.NoError(t, err)

	var step timestep.TimeStep
	done := false
	for i := 0; i < 60 && !done; i++ {
		step, done, err = env.Step(trim)
		require.NoError(t, err)
		if !done {
			assert.LessOrEqual(t, step.Time, 1.0)
		}
	}

	require.True(t, done)
	assert.True(t, step.Info.TimeUp)
	assert.False(t, step.Info.Failed)
	assert.Greater(t, step.Time, 1.0)
	assert.LessOrEqual(t, step.Number, 51)
	assert.Equal(t, 0.0, step.Reward)
}

// successTask always reports success
type successTask struct {
	*Base
}

func (successTask) Reward(mat.Vector, Target, bool, float64) (float64, bool) {
	return 1, true
}

func TestSuccessEndsEpisode(t *testing.T) {
	env, _, err := New(NewMemoryEngine(DefaultDt), successTask{NewBase()},
		Config{MaxTime: 0.4})
	require.NoError(t, err)

	action := mat.NewVecDense(4, []float64{0.5, 0, 0, 0})
	var step timestep.TimeStep
	done := false
	for i := 0; i < 20 && !done; i++ {
		step, done, err = env.Step(action)
		require.NoError(t, err)
	}

	require.True(t, done)
	assert.True(t, step.Info.Successed)
	assert.False(t, step.Info.TimeUp)

	// Success is judged on the time accumulated before the step
	assert.GreaterOrEqual(t, step.SuccessTime, env.SuccessDuration()-1e-9)
	assert.InDelta(t, step.SuccessTime+env.Dt(), env.Episode().SuccessTime,
		1e-12)
	assert.Equal(t, float64(step.Number), env.Episode().Score)
}

func TestTrimAction(t *testing.T) {
	engine := NewMemoryEngine(DefaultDt)
	engine.Trim = Action{0.4, 0.1, -0.1, 0.2}

	env, _, err := New(engine, NewBase(), Config{})
	require.NoError(t, err)

	trim, err := env.TrimAction()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.4, 0.1, -0.1, 0.2}, trim.RawVector().Data)
}

func TestBaseEpisodeReadsScenario(t *testing.T) {
	engine := NewMemoryEngine(DefaultDt)
	require.NoError(t, engine.SetConfigValue(TrimNode, GroundAltitudeKey, 150))

	env, first, err := New(engine, NewBase(), Config{})
	require.NoError(t, err)
	assert.Equal(t, 150.0, env.Episode().Scenario.GroundAltitude)
	assert.True(t, env.Target().Empty())
	assert.Equal(t, 34, first.Observation.Len())
}

func TestLogsEpisodeEnd(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	env, _, err := New(NewMemoryEngine(DefaultDt), NewBase(),
		Config{MaxTime: 0.1}, WithLogger(logger))
	require.NoError(t, err)

	action := mat.NewVecDense(4, []float64{0.5, 0, 0, 0})
	for done := false; !done; {
		_, done, err = env.Step(action)
		require.NoError(t, err)
	}

	assert.Contains(t, buf.String(), "episode done")
	assert.Contains(t, buf.String(), `"time_up":true`)
	assert.Contains(t, buf.String(), `"task":"Base"`)
}

// recorder is a Renderer recording what it is asked to draw
type recorder struct {
	models    []string
	positions map[ModelID][3]float64
	camera    [3]float64
	overlays  [][]string
	values    map[OverlayID][]float64
	visible   bool
	frames    int
	closed    bool
}

func newRecorder() *recorder {
	return &recorder{
		positions: make(map[ModelID][3]float64),
		values:    make(map[OverlayID][]float64),
	}
}

func (r *recorder) CreateModel(obj, _, _ string) (ModelID, error) {
	r.models = append(r.models, obj)
	return ModelID(len(r.models) - 1), nil
}

func (r *recorder) TranslateModel(m ModelID, x, y, z float64) {
	r.positions[m] = [3]float64{x, y, z}
}

func (r *recorder) RotateModel(ModelID, float64, float64, float64) {}

func (r *recorder) SetCameraPos(x, y, z float64) {
	r.camera = [3]float64{x, y, z}
}

func (r *recorder) CreateOverlay(_ string, _, _ float64,
	lines []string) OverlayID {
	r.overlays = append(r.overlays, lines)
	return OverlayID(len(r.overlays) - 1)
}

func (r *recorder) SetOverlayValues(o OverlayID, values []float64) {
	r.values[o] = values
}

func (r *recorder) FPS() float64 { return 50 }

func (r *recorder) IsVisible() bool { return r.visible }

func (r *recorder) ShowWindow() { r.visible = true }

func (r *recorder) Render() error {
	r.frames++
	return nil
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestRender(t *testing.T) {
	rec := newRecorder()
	env, _ := newHover(t, 21, WithRenderer(rec))

	assert.Equal(t, []string{
		"/resources/models/aw109/aw109.obj",
		"/resources/models/terrain/terrain.obj",
		"/resources/models/sky/sky.obj",
	}, rec.models)

	_, _, err := env.Step(mat.NewVecDense(4, []float64{0.5, 0, 0, 0}))
	require.NoError(t, err)
	require.NoError(t, env.Render())
	require.NoError(t, env.Render())

	assert.Equal(t, 2, rec.frames)
	assert.True(t, rec.visible)

	// Observation and hover panels are created once
	require.Len(t, rec.overlays, 2)
	assert.Len(t, rec.values[0], len(ObservationLines))
	assert.Equal(t, 50.0, rec.values[0][0])
	assert.Len(t, rec.values[1], len(rec.overlays[1]))

	s := env.Episode().Scenario
	heli := rec.positions[0]
	assert.InDelta(t, s.North*FeetToMetres, heli[0], 1e-6)
	assert.InDelta(t, s.East*FeetToMetres, heli[1], 1e-6)
	assert.InDelta(t, heli[1]+30, rec.camera[1], 1e-9)
	assert.InDelta(t, heli[2]+500, rec.positions[2][2], 1e-9)

	require.NoError(t, env.Close())
	assert.True(t, rec.closed)
}

func TestRenderWithoutRenderer(t *testing.T) {
	env, _ := newHover(t, 22)
	assert.ErrorIs(t, env.Render(), ErrNoRenderer)
}
