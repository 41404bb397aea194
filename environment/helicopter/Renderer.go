package helicopter

import (
	"fmt"
	"path"
)

// FeetToMetres converts engine distances to renderer distances
const FeetToMetres = 0.3048

// Scene placement, in renderer metres
const (
	skyHeight      = 500.0
	cameraDistance = 30.0
)

// ModelID is an opaque handle to a model held by a Renderer
type ModelID int

// OverlayID is an opaque handle to a text overlay held by a Renderer
type OverlayID int

// Renderer is the contract of the external renderer. Models and
// overlays are created once and then addressed by handle.
type Renderer interface {
	// CreateModel loads a model from an object file and its vertex and
	// fragment shaders. Empty shader paths select default shaders.
	CreateModel(obj, vertexShader, fragmentShader string) (ModelID, error)
	TranslateModel(m ModelID, x, y, z float64)
	RotateModel(m ModelID, roll, pitch, yaw float64)
	SetCameraPos(x, y, z float64)

	// CreateOverlay creates a text panel at (x, y). Each line is a
	// printf format string taking a single value.
	CreateOverlay(title string, x, y float64, lines []string) OverlayID
	SetOverlayValues(o OverlayID, values []float64)

	FPS() float64
	IsVisible() bool
	ShowWindow()
	Render() error
	Close() error
}

// Annotator is implemented by Tasks which draw their own overlay panel
type Annotator interface {
	OverlayTitle() string
	OverlayLines() []string
	OverlayValues(ep Episode, reward, maxTime float64) []float64
}

// ObservationLines are the overlay lines of the observation panel. The
// first line shows the renderer frame rate and the rest the raw engine
// observation, in engine order.
var ObservationLines = []string{
	"FPS : %3.0f",
	"POWER : %8.2f hp",
	"LON_AIR_VEL : %7.2f ft/s",
	"LAT_AIR_VEL : %7.2f ft/s",
	"DWN_AIR_VEL : %7.2f ft/s",
	"LON_VEL : %7.2f ft/s",
	"LAT_VEL : %7.2f ft/s",
	"DWN_VEL : %7.2f ft/s",
	"LON_ACC : %7.2f ft/s^2",
	"LAT_ACC : %7.2f ft/s^2",
	"DWN_ACC : %7.2f ft/s^2",
	"N_VEL : %7.2f ft/s",
	"E_VEL : %7.2f ft/s",
	"DES_RATE : %7.2f ft/s",
	"ROLL : %5.2f rad",
	"PITCH : %5.2f rad",
	"YAW : %5.2f rad",
	"ROLL_RATE : %5.2f rad/s",
	"PITCH_RATE : %5.2f rad/s",
	"YAW_RATE : %5.2f rad/s",
	"N_POS : %8.2f ft",
	"E_POS : %8.2f ft",
	"D_POS : %8.2f ft",
	"GR_ALT : %8.2f ft",
	"COLL_ANG : %7.4f rad",
	"LON_ANG : %7.4f rad",
	"LAT_ANG : %7.4f rad",
	"PED_ANG : %7.4f rad",
	"COLL_RATE : %7.4f rad/s",
	"LON_RATE : %7.4f rad/s",
	"LAT_RATE : %7.4f rad/s",
	"PED_RATE : %7.4f rad/s",
	"WIND_N_VEL : %7.2f ft/s",
	"WIND_E_VEL : %7.2f ft/s",
	"WIND_D_VEL : %7.2f ft/s",
}

// scene holds the handles of everything the environment draws
type scene struct {
	renderer Renderer

	heli    ModelID
	terrain ModelID
	sky     ModelID

	observations OverlayID
	task         OverlayID
	annotator    Annotator
}

// modelPaths returns the object and shader paths of a named model
// under the renderer's resource root
func modelPaths(name string) (obj, vs, fs string) {
	return path.Join("/resources/models", name, name+".obj"),
		path.Join("/resources/shaders", name+"_vertex.vs"),
		path.Join("/resources/shaders", name+"_frag.fs")
}

// newScene creates the models of the helicopter, terrain and sky. The
// overlays are created lazily on the first frame.
func newScene(r Renderer, heliName string) (*scene, error) {
	s := &scene{renderer: r, observations: -1, task: -1}

	var err error
	obj, vs, fs := modelPaths(heliName)
	if s.heli, err = r.CreateModel(obj, vs, fs); err != nil {
		return nil, fmt.Errorf("newScene: could not create model %v: %w",
			heliName, err)
	}

	obj, vs, fs = modelPaths("terrain")
	if s.terrain, err = r.CreateModel(obj, vs, fs); err != nil {
		return nil, fmt.Errorf("newScene: could not create terrain: %w", err)
	}

	obj, _, _ = modelPaths("sky")
	if s.sky, err = r.CreateModel(obj, "", ""); err != nil {
		return nil, fmt.Errorf("newScene: could not create sky: %w", err)
	}

	return s, nil
}

// createOverlays creates the observation panel and, if the task draws
// one, the task panel
func (s *scene) createOverlays(t Task) {
	if s.observations >= 0 {
		return
	}
	s.observations = s.renderer.CreateOverlay("Observations", 30, 30,
		ObservationLines)

	if a, ok := t.(Annotator); ok {
		s.annotator = a
		s.task = s.renderer.CreateOverlay(a.OverlayTitle(), 400, 30,
			a.OverlayLines())
	}
}

// frame draws one frame given the raw observation and the raw
// position and attitude of the helicopter
func (s *scene) frame(obs, xyz, euler []float64) error {
	values := make([]float64, 0, len(obs)+1)
	values = append(values, s.renderer.FPS())
	values = append(values, obs...)
	s.renderer.SetOverlayValues(s.observations, values)

	x, y, z := xyz[0]*FeetToMetres, xyz[1]*FeetToMetres, xyz[2]*FeetToMetres
	s.renderer.TranslateModel(s.heli, x, y, z)
	s.renderer.RotateModel(s.heli, euler[0], euler[1], euler[2])
	s.renderer.TranslateModel(s.sky, x, y, z+skyHeight)
	s.renderer.SetCameraPos(x, y+cameraDistance, z)

	if !s.renderer.IsVisible() {
		s.renderer.ShowWindow()
	}
	return s.renderer.Render()
}
