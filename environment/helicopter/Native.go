package helicopter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dynag/heligym/environment/helicopter/internal/dynag"
)

// DirEnv names the environment variable holding the directory of the
// dynamics engine's helicopter parameter files
const DirEnv = "DYNAG_DIR"

// NativeEngine is the Engine backed by the DynaG dynamics library.
// Binaries built without the dynag tag cannot create one.
type NativeEngine struct {
	dyn *dynag.Dynamics
}

// ParameterFile returns the path of the parameter file of the named
// helicopter under dir. If dir is empty, the DYNAG_DIR environment
// variable is used.
func ParameterFile(dir, heliName string) string {
	if dir == "" {
		dir = os.Getenv(DirEnv)
	}
	return filepath.Join(dir, "helis", heliName+".yaml")
}

// NewNativeEngine creates the dynamics of the named helicopter
func NewNativeEngine(dir, heliName string, dt float64) (*NativeEngine, error) {
	path := ParameterFile(dir, heliName)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("newNativeEngine: no parameter file for %v: %w",
			heliName, err)
	}

	dyn, err := dynag.New(path, dt)
	if errors.Is(err, dynag.ErrUnavailable) {
		return nil, fmt.Errorf("newNativeEngine: %w", ErrEngineUnavailable)
	} else if err != nil {
		return nil, fmt.Errorf("newNativeEngine: %w", err)
	}

	return &NativeEngine{dyn: dyn}, nil
}

func dynagKind(k Kind) dynag.Kind {
	switch k {
	case StateKind:
		return dynag.State
	case StateDotKind:
		return dynag.StateDot
	case ActionKind:
		return dynag.Action
	default:
		return dynag.Observation
	}
}

// Ready implements the Engine interface
func (n *NativeEngine) Ready() bool {
	return n.dyn.Ready()
}

// Reset implements the Engine interface
func (n *NativeEngine) Reset() error {
	n.dyn.Reset()
	return nil
}

// Step implements the Engine interface
func (n *NativeEngine) Step(a Action) error {
	n.dyn.Step(a[:])
	return nil
}

// Get implements the Engine interface
func (n *NativeEngine) Get(k Kind, name string, normalized bool) ([]float64,
	error) {
	v := n.dyn.Get(dynagKind(k), name, normalized)
	if len(v) == 0 {
		return nil, fmt.Errorf("get: %w: %v %q", ErrUnknownName, k, name)
	}
	return v, nil
}

// All implements the Engine interface
func (n *NativeEngine) All(k Kind, normalized bool) ([]float64, error) {
	v := n.dyn.All(dynagKind(k), normalized)
	if len(v) == 0 {
		return nil, fmt.Errorf("all: %w: kind %v", ErrUnknownName, k)
	}
	return v, nil
}

// ConfigValue implements the Engine interface
func (n *NativeEngine) ConfigValue(node, key string) (float64, error) {
	return n.dyn.Value(node, key), nil
}

// SetConfigValue implements the Engine interface
func (n *NativeEngine) SetConfigValue(node, key string, value float64) error {
	n.dyn.SetValue(node, key, value)
	return nil
}

// NumberOfObservations implements the Engine interface
func (n *NativeEngine) NumberOfObservations() int {
	return n.dyn.NumberOfObservations()
}

// Close implements the Engine interface
func (n *NativeEngine) Close() error {
	n.dyn.Close()
	return nil
}
