package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dynag/heligym/environment/envconfig"
	ts "github.com/dynag/heligym/timestep"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
	assert.Equal(t, 5000, c.MaxEpisodeSteps)
}

func TestLoadConfigNestedEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
episodes: 4
policy: random
env:
  task: Base
  seed: 8
`), 0o644))
	t.Setenv("HELIGYM_MAX_EPISODE_STEPS", "200")

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Episodes)
	assert.Equal(t, RandomPolicy, c.Policy)
	assert.Equal(t, 200, c.MaxEpisodeSteps)
	assert.Equal(t, envconfig.Base, c.Env.Task)
	assert.Equal(t, uint64(8), c.Env.Seed)
	assert.Equal(t, "aw109", c.Env.Heli)
	assert.Equal(t, 4000.0, c.Env.Start.AltHigh)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"policy":   "policy: pid\n",
		"episodes": "episodes: 0\n",
		"type":     "type: Offline\n",
		"env":      "env:\n  engine: gpu\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "exp.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	c := DefaultConfig()
	c.Episodes = 2
	c.Policy = ZeroPolicy
	c.Env.Seed = 21

	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, c.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestPolicies(t *testing.T) {
	c := shortConfig(1)
	env, first, err := c.Env.Create(zerolog.Nop())
	require.NoError(t, err)
	defer env.Close()

	c.Policy = TrimPolicy
	trim, err := c.CreatePolicy(env)
	require.NoError(t, err)
	a, err := trim.SelectAction(first)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0, 0, 0}, a.RawVector().Data)

	c.Policy = ZeroPolicy
	zero, err := c.CreatePolicy(env)
	require.NoError(t, err)
	a, err = zero.SelectAction(first)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewVecDense(4, nil), a))

	c.Policy = RandomPolicy
	random, err := c.CreatePolicy(env)
	require.NoError(t, err)
	spec := env.ActionSpec()
	for i := 0; i < 100; i++ {
		a, err = random.SelectAction(ts.TimeStep{})
		require.NoError(t, err)
		assert.True(t, spec.Contains(a))
	}

	c.Policy = "pid"
	_, err = c.CreatePolicy(env)
	assert.Error(t, err)
}

func TestTrimPolicyFollowsEpisodes(t *testing.T) {
	c := shortConfig(1)
	env, first, err := c.Env.Create(zerolog.Nop())
	require.NoError(t, err)
	defer env.Close()

	trim := NewTrim(env)
	a, err := trim.SelectAction(first)
	require.NoError(t, err)

	step, _, err := env.Step(mat.NewVecDense(4, []float64{0.2, 0.1, 0.1, 0.1}))
	require.NoError(t, err)

	held, err := trim.SelectAction(step)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, held))
}
