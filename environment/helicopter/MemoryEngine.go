package helicopter

import (
	"fmt"

	"github.com/dynag/heligym/utils/floatutils"
)

// SwashAction is the name of the engine's single action vector
const SwashAction = "swash"

// Normalizers of the observation channels of MemoryEngine, in the
// engine's raw units per normalized unit
var memoryScales = map[string]float64{
	TotalHP:         1260,
	UVWAir:          700,
	UVW:             700,
	Acceleration:    28000,
	NEDVel:          700,
	EulerAngles:     1,
	PQR:             40,
	XYZ:             TargetNormalizer,
	GroundAltitude:  TargetNormalizer,
	SwashDeflection: 1,
	SwashRate:       40,
	Wind:            1,
}

// State vectors MemoryEngine reports, each a view of the observation
// channel of the same name
var memoryStates = []string{UVW, PQR, XYZ, SwashDeflection}

// StepFunc advances the normalized observation of a MemoryEngine by
// one timestep. It is called after the swash channels are updated.
type StepFunc func(obs []float64, a Action, dt float64)

// MemoryEngine is a deterministic in-process Engine with the
// helicopter observation layout. It carries no flight dynamics: the
// vehicle stays where its trim configuration places it unless a
// StepFunc moves it. It backs tests and dry runs of the environment.
type MemoryEngine struct {
	// Trim is the raw action reported after each Reset
	Trim Action

	// StepFunc, if not nil, scripts the motion of the vehicle
	StepFunc StepFunc

	dt     float64
	schema Schema
	config map[string]map[string]float64

	obs    []float64
	action Action
	ready  bool
	closed bool
}

// NewMemoryEngine returns a MemoryEngine stepping by dt with the
// default aw109 trim and weight configuration
func NewMemoryEngine(dt float64) *MemoryEngine {
	m := &MemoryEngine{
		Trim:   Action{0.5, 0, 0, 0},
		dt:     dt,
		schema: HelicopterSchema,
		config: map[string]map[string]float64{
			TrimNode: {
				GroundAltitudeKey: 0,
				NorthKey:          0,
				EastKey:           0,
			},
			HeliNode: {
				WeightKey:         5400,
				LongitudinalCGKey: 132.7,
				LateralCGKey:      38.5,
			},
		},
		obs: make([]float64, HelicopterSchema.Len()),
	}
	m.reset()
	return m
}

// Ready implements the Engine interface
func (m *MemoryEngine) Ready() bool {
	return m.ready
}

// Reset implements the Engine interface
func (m *MemoryEngine) Reset() error {
	if m.closed {
		return fmt.Errorf("reset: engine closed")
	}
	m.reset()
	return nil
}

func (m *MemoryEngine) reset() {
	for i := range m.obs {
		m.obs[i] = 0
	}

	trim := m.config[TrimNode]
	groundAlt := trim[GroundAltitudeKey]
	m.set(XYZ, trim[NorthKey]/TargetNormalizer, trim[EastKey]/TargetNormalizer,
		-(groundAlt+TerrainOffset)/TargetNormalizer)
	m.set(GroundAltitude, groundAlt/TargetNormalizer)

	m.action = m.Trim
	m.set(SwashDeflection, m.action[:]...)
	m.ready = true
}

// Step implements the Engine interface. A non-finite action puts the
// engine in an invalid numerical state until the next Reset.
func (m *MemoryEngine) Step(a Action) error {
	if m.closed {
		return fmt.Errorf("step: engine closed")
	}
	if !floatutils.AllFinite(a[:]...) {
		m.ready = false
	}

	rate := make([]float64, ActionLen)
	for i := range a {
		rate[i] = (a[i] - m.action[i]) / m.dt / memoryScales[SwashRate]
	}
	m.set(SwashDeflection, a[:]...)
	m.set(SwashRate, rate...)
	m.action = a

	if m.StepFunc != nil {
		m.StepFunc(m.obs, a, m.dt)
	}
	return nil
}

// SetObservation overwrites the named normalized observation channel
func (m *MemoryEngine) SetObservation(name string, values ...float64) error {
	c, ok := m.schema.Channel(name)
	if !ok {
		return fmt.Errorf("setObservation: %w: %q", ErrUnknownName, name)
	}
	if len(values) != c.Len {
		return fmt.Errorf("setObservation: channel %v \n\twant(%v) "+
			"\n\thave(%v)", name, c.Len, len(values))
	}
	m.set(name, values...)
	return nil
}

func (m *MemoryEngine) set(name string, values ...float64) {
	c, _ := m.schema.Channel(name)
	copy(m.obs[c.Offset:c.Offset+c.Len], values)
}

// Get implements the Engine interface
func (m *MemoryEngine) Get(k Kind, name string, normalized bool) ([]float64,
	error) {
	switch k {
	case ObservationKind:
		return m.channel(name, normalized)

	case StateKind, StateDotKind:
		for _, s := range memoryStates {
			if s != name {
				continue
			}
			if k == StateDotKind {
				c, _ := m.schema.Channel(name)
				return make([]float64, c.Len), nil
			}
			return m.channel(name, normalized)
		}

	case ActionKind:
		if name == SwashAction {
			return m.actionValues(normalized), nil
		}
	}

	return nil, fmt.Errorf("get: %w: %v %q", ErrUnknownName, k, name)
}

// All implements the Engine interface
func (m *MemoryEngine) All(k Kind, normalized bool) ([]float64, error) {
	switch k {
	case ObservationKind:
		out := make([]float64, 0, len(m.obs))
		for _, c := range m.schema.Channels() {
			v, _ := m.channel(c.Name, normalized)
			out = append(out, v...)
		}
		return out, nil

	case StateKind, StateDotKind:
		var out []float64
		for _, s := range memoryStates {
			v, err := m.Get(k, s, normalized)
			if err != nil {
				return nil, fmt.Errorf("all: %w", err)
			}
			out = append(out, v...)
		}
		return out, nil

	case ActionKind:
		return m.actionValues(normalized), nil
	}

	return nil, fmt.Errorf("all: %w: kind %v", ErrUnknownName, k)
}

func (m *MemoryEngine) channel(name string, normalized bool) ([]float64,
	error) {
	c, ok := m.schema.Channel(name)
	if !ok {
		return nil, fmt.Errorf("%w: observation %q", ErrUnknownName, name)
	}

	out := make([]float64, c.Len)
	copy(out, m.obs[c.Offset:c.Offset+c.Len])
	if !normalized {
		for i := range out {
			out[i] *= memoryScales[name]
		}
	}
	return out, nil
}

// Actions are reported in [-1, 1] normalized and in [0, 1] raw
func (m *MemoryEngine) actionValues(normalized bool) []float64 {
	out := make([]float64, ActionLen)
	for i, a := range m.action {
		if normalized {
			out[i] = 2*a - 1
		} else {
			out[i] = a
		}
	}
	return out
}

// ConfigValue implements the Engine interface
func (m *MemoryEngine) ConfigValue(node, key string) (float64, error) {
	n, ok := m.config[node]
	if !ok {
		return 0, fmt.Errorf("configValue: %w: node %q", ErrUnknownName, node)
	}
	v, ok := n[key]
	if !ok {
		return 0, fmt.Errorf("configValue: %w: key %q of node %v",
			ErrUnknownName, key, node)
	}
	return v, nil
}

// SetConfigValue implements the Engine interface. Only existing keys
// may be set.
func (m *MemoryEngine) SetConfigValue(node, key string, value float64) error {
	if _, err := m.ConfigValue(node, key); err != nil {
		return fmt.Errorf("setConfigValue: %w", err)
	}
	m.config[node][key] = value
	return nil
}

// NumberOfObservations implements the Engine interface
func (m *MemoryEngine) NumberOfObservations() int {
	return len(m.obs)
}

// Close implements the Engine interface
func (m *MemoryEngine) Close() error {
	m.closed = true
	return nil
}
