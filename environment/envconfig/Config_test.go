package envconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dynag/heligym/environment/helicopter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heligym.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFillsMissingKeys(t *testing.T) {
	path := writeConfig(t, `
task: Base
seed: 17
max_time: 20
start:
  alt_high: 500
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Base, c.Task)
	assert.Equal(t, uint64(17), c.Seed)
	assert.Equal(t, 20.0, c.MaxTime)
	assert.Equal(t, 500.0, c.Start.AltHigh)
	assert.Equal(t, 100.0, c.Start.AltLow)
	assert.Equal(t, "aw109", c.Heli)
	assert.Equal(t, Memory, c.Engine)
}

func TestLoadStartPoint(t *testing.T) {
	path := writeConfig(t, `
start:
  point: [10, -20, 300]
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, -20, 300}, c.Start.Point)

	task, err := c.CreateTask()
	require.NoError(t, err)
	hover, ok := task.(*helicopter.Hover)
	require.True(t, ok)
	require.NotNil(t, hover.StartParams().Point)
	assert.Equal(t, [3]float64{10, -20, 300}, *hover.StartParams().Point)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown task", "task: Land\n"},
		{"unknown engine", "engine: gpu\n"},
		{"negative dt", "dt: -0.1\n"},
		{"empty band", "start:\n  alt_low: 10\n  alt_high: 5\n"},
		{"short point", "start:\n  point: [1, 2]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("HELIGYM_SEED", "99")
	t.Setenv("HELIGYM_START_ALT_LOW", "250")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, uint64(99), c.Seed)
	assert.Equal(t, 250.0, c.Start.AltLow)
}

func TestSaveRoundTrip(t *testing.T) {
	c := Default()
	c.Task = Base
	c.Seed = 5
	c.Start.Point = []float64{1, 2, 3}

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestCreate(t *testing.T) {
	c := Default()
	c.Seed = 3

	env, first, err := c.Create(zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, first.First())
	assert.Equal(t, 17, first.Observation.Len())
	assert.Equal(t, 60.0, env.MaxTime())
	assert.Equal(t, helicopter.HoverName, env.Task().Name())
	require.NoError(t, env.Close())
}

func TestCreateWithRenderer(t *testing.T) {
	c := Default()
	c.Render.Enabled = true
	c.Render.Dir = t.TempDir()
	c.Render.Width, c.Render.Height = 64, 48

	env, _, err := c.Create(zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, env.Render())
	require.NoError(t, env.Close())
}

func TestCreateNativeWithoutParameterFile(t *testing.T) {
	c := Default()
	c.Engine = Native
	c.DynagDir = t.TempDir()

	_, _, err := c.Create(zerolog.Nop())
	assert.Error(t, err)
}

func TestGymID(t *testing.T) {
	assert.Equal(t, "HelicopterGym-v0", Base.GymID())
	assert.Equal(t, "Hover-v0", Hover.GymID())
}
