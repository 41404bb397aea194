// Package render implements an off-screen renderer for helicopter
// environments. Each frame is drawn with a top view and a side view of
// the scene plus the text overlays and is saved as a PNG file.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dynag/heligym/environment/helicopter"
	"github.com/fogleman/gg"
)

const (
	// Scale is the number of pixels per metre in both views
	Scale = 2.0

	lineHeight = 14.0
	vehicleLen = 12.0
)

var (
	background   = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	divider      = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	vehicleShade = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	terrainShade = color.RGBA{R: 112, G: 84, B: 62, A: 255}
	textShade    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

type model struct {
	name             string
	x, y, z          float64
	roll, pitch, yaw float64
}

type overlay struct {
	title  string
	x, y   float64
	lines  []string
	values []float64
}

// FrameRenderer is a helicopter.Renderer drawing frames into a
// directory. Models named terrain and sky are scenery: the terrain is
// drawn as the ground line of the side view and the sky is not drawn.
type FrameRenderer struct {
	dir           string
	width, height int

	models   []model
	overlays []overlay
	camera   [3]float64

	frame   int
	visible bool
	closed  bool
	fps     float64
	last    time.Time
}

// New returns a FrameRenderer writing width x height frames into dir,
// creating dir if needed
func New(dir string, width, height int) (*FrameRenderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new: frame size must be positive \n\t"+
			"have(%v x %v)", width, height)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("new: could not create frame directory: %w",
			err)
	}

	return &FrameRenderer{dir: dir, width: width, height: height}, nil
}

// CreateModel implements the helicopter.Renderer interface. Only the
// name of the object file is kept.
func (f *FrameRenderer) CreateModel(obj, _, _ string) (helicopter.ModelID,
	error) {
	if obj == "" {
		return -1, fmt.Errorf("createModel: empty object path")
	}
	name := strings.TrimSuffix(filepath.Base(obj), filepath.Ext(obj))
	f.models = append(f.models, model{name: name})
	return helicopter.ModelID(len(f.models) - 1), nil
}

// TranslateModel implements the helicopter.Renderer interface
func (f *FrameRenderer) TranslateModel(m helicopter.ModelID, x, y, z float64) {
	mod := &f.models[m]
	mod.x, mod.y, mod.z = x, y, z
}

// RotateModel implements the helicopter.Renderer interface
func (f *FrameRenderer) RotateModel(m helicopter.ModelID, roll, pitch,
	yaw float64) {
	mod := &f.models[m]
	mod.roll, mod.pitch, mod.yaw = roll, pitch, yaw
}

// SetCameraPos implements the helicopter.Renderer interface
func (f *FrameRenderer) SetCameraPos(x, y, z float64) {
	f.camera = [3]float64{x, y, z}
}

// CreateOverlay implements the helicopter.Renderer interface
func (f *FrameRenderer) CreateOverlay(title string, x, y float64,
	lines []string) helicopter.OverlayID {
	f.overlays = append(f.overlays, overlay{
		title:  title,
		x:      x,
		y:      y,
		lines:  append([]string(nil), lines...),
		values: make([]float64, len(lines)),
	})
	return helicopter.OverlayID(len(f.overlays) - 1)
}

// SetOverlayValues implements the helicopter.Renderer interface. Extra
// values are ignored.
func (f *FrameRenderer) SetOverlayValues(o helicopter.OverlayID,
	values []float64) {
	copy(f.overlays[o].values, values)
}

// FPS implements the helicopter.Renderer interface. It is the rate at
// which frames were last rendered in wall-clock time.
func (f *FrameRenderer) FPS() float64 {
	return f.fps
}

// IsVisible implements the helicopter.Renderer interface
func (f *FrameRenderer) IsVisible() bool {
	return f.visible
}

// ShowWindow implements the helicopter.Renderer interface
func (f *FrameRenderer) ShowWindow() {
	f.visible = true
}

// Frames returns the number of frames rendered
func (f *FrameRenderer) Frames() int {
	return f.frame
}

// Render implements the helicopter.Renderer interface
func (f *FrameRenderer) Render() error {
	if f.closed {
		return fmt.Errorf("render: renderer closed")
	}

	now := time.Now()
	if !f.last.IsZero() {
		if elapsed := now.Sub(f.last).Seconds(); elapsed > 0 {
			f.fps = 1 / elapsed
		}
	}
	f.last = now

	dc := gg.NewContext(f.width, f.height)
	dc.SetColor(background)
	dc.Clear()

	w, h := float64(f.width), float64(f.height)
	dc.SetColor(divider)
	dc.SetLineWidth(1)
	dc.DrawLine(w/2, 0, w/2, h)
	dc.Stroke()

	for _, m := range f.models {
		switch m.name {
		case "sky":
		case "terrain":
			f.drawGround(dc, m)
		default:
			f.drawTop(dc, m)
			f.drawSide(dc, m)
		}
	}

	dc.SetColor(textShade)
	for _, o := range f.overlays {
		drawOverlay(dc, o)
	}

	path := filepath.Join(f.dir, frameName(f.frame))
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("render: could not save frame: %w", err)
	}
	f.frame++
	return nil
}

func frameName(i int) string {
	return fmt.Sprintf("frame%06d.png", i)
}

// topCoord returns the pixel coordinates of a model in the top view,
// north up and east right
func (f *FrameRenderer) topCoord(m model) (float64, float64) {
	w, h := float64(f.width), float64(f.height)
	return w/4 + (m.y-f.camera[1])*Scale, h/2 - (m.x-f.camera[0])*Scale
}

// sideCoord returns the pixel coordinates of a model in the side view,
// north right and down down
func (f *FrameRenderer) sideCoord(m model) (float64, float64) {
	w, h := float64(f.width), float64(f.height)
	return 3*w/4 + (m.x-f.camera[0])*Scale, h/2 + (m.z-f.camera[2])*Scale
}

func (f *FrameRenderer) drawTop(dc *gg.Context, m model) {
	x, y := f.topCoord(m)

	dc.Push()
	dc.Translate(x, y)
	dc.Rotate(m.yaw - math.Pi/2)
	drawArrow(dc)
	dc.Pop()
}

func (f *FrameRenderer) drawSide(dc *gg.Context, m model) {
	x, y := f.sideCoord(m)

	dc.Push()
	dc.Translate(x, y)
	dc.Rotate(-m.pitch)
	drawArrow(dc)
	dc.Pop()
}

// drawGround draws the terrain under the camera as a line in the side
// view. The terrain model sits at the origin, so its height is the
// model's z.
func (f *FrameRenderer) drawGround(dc *gg.Context, m model) {
	_, y := f.sideCoord(m)
	w := float64(f.width)

	dc.SetColor(terrainShade)
	dc.SetLineWidth(3)
	dc.DrawLine(w/2, y, w, y)
	dc.Stroke()
}

// drawArrow draws a vehicle pointing along +x at the origin
func drawArrow(dc *gg.Context) {
	dc.MoveTo(vehicleLen, 0)
	dc.LineTo(-vehicleLen/2, vehicleLen/3)
	dc.LineTo(-vehicleLen/2, -vehicleLen/3)
	dc.ClosePath()
	dc.SetColor(vehicleShade)
	dc.Fill()
}

func drawOverlay(dc *gg.Context, o overlay) {
	dc.SetColor(textShade)
	dc.DrawString(o.title, o.x, o.y)

	for i, line := range o.lines {
		if line == "" {
			continue
		}
		text := fmt.Sprintf(line, o.values[i])
		dc.DrawString(text, o.x, o.y+float64(i+1)*lineHeight)
	}
}

// Close implements the helicopter.Renderer interface
func (f *FrameRenderer) Close() error {
	f.closed = true
	f.visible = false
	return nil
}
