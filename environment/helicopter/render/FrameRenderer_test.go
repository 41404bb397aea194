package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dynag/heligym/environment/helicopter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFrameRendererWritesFrames(t *testing.T) {
	dir := t.TempDir()
	r, err := New(dir, 320, 240)
	require.NoError(t, err)

	engine := helicopter.NewMemoryEngine(helicopter.DefaultDt)
	env, _, err := helicopter.New(engine, helicopter.NewHover(helicopter.StartParams{}),
		helicopter.Config{HeliName: "aw109", Seed: 1}, helicopter.WithRenderer(r))
	require.NoError(t, err)

	action := mat.NewVecDense(4, []float64{0.5, 0, 0, 0})
	for i := 0; i < 3; i++ {
		_, _, err := env.Step(action)
		require.NoError(t, err)
		require.NoError(t, env.Render())
	}

	assert.Equal(t, 3, r.Frames())
	assert.True(t, r.IsVisible())
	for i := 0; i < 3; i++ {
		_, err := os.Stat(filepath.Join(dir, frameName(i)))
		assert.NoError(t, err)
	}

	require.NoError(t, env.Close())
	assert.Error(t, r.Render())
}

func TestFrameRendererOverlays(t *testing.T) {
	r, err := New(t.TempDir(), 100, 100)
	require.NoError(t, err)

	o := r.CreateOverlay("Test", 10, 10, []string{"A : %.1f", "", "B : %.1f"})
	r.SetOverlayValues(o, []float64{1, 0, 2, 3})
	assert.Equal(t, []float64{1, 0, 2}, r.overlays[o].values)

	require.NoError(t, r.Render())
}

func TestNewRejectsEmptyFrame(t *testing.T) {
	_, err := New(t.TempDir(), 0, 100)
	assert.Error(t, err)
}

func TestCreateModelNames(t *testing.T) {
	r, err := New(t.TempDir(), 100, 100)
	require.NoError(t, err)

	m, err := r.CreateModel("/resources/models/aw109/aw109.obj", "", "")
	require.NoError(t, err)
	assert.Equal(t, "aw109", r.models[m].name)

	_, err = r.CreateModel("", "", "")
	assert.Error(t, err)
}
