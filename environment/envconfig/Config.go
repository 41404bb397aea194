// Package envconfig provides configuration structs for configuring
// helicopter environments with default parameters and tasks.
// Environment configurations in this package are YAML serializable and
// are loaded with defaults filled in for every missing key.
package envconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/dynag/heligym/environment/helicopter"
	"github.com/dynag/heligym/environment/helicopter/render"
	ts "github.com/dynag/heligym/timestep"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TaskName stores the name of tasks that can be configured with this
// package
type TaskName string

// Tasks available for configuration
const (
	Base  TaskName = helicopter.BaseName
	Hover TaskName = helicopter.HoverName
)

// GymID returns the Gym registry id of the task
func (t TaskName) GymID() string {
	switch t {
	case Base:
		return "HelicopterGym-v0"
	case Hover:
		return "Hover-v0"
	}
	return ""
}

// EngineName stores the name of dynamics engines that can be configured
type EngineName string

// Engines available for configuration
const (
	// Memory is the in-process engine without flight dynamics
	Memory EngineName = "memory"

	// Native is the DynaG dynamics library
	Native EngineName = "native"
)

// EnvPrefix prefixes environment variables overriding configuration
// keys, e.g. HELIGYM_SEED or HELIGYM_START_ALT_LOW
const EnvPrefix = "HELIGYM"

// StartConfig configures the start point draw of the Hover task
type StartConfig struct {
	AltLow    float64   `yaml:"alt_low" mapstructure:"alt_low"`
	AltHigh   float64   `yaml:"alt_high" mapstructure:"alt_high"`
	Deviation float64   `yaml:"deviation" mapstructure:"deviation"`
	Point     []float64 `yaml:"point,omitempty" mapstructure:"point"`
}

// RenderConfig configures the off-screen renderer
type RenderConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Width   int    `yaml:"width" mapstructure:"width"`
	Height  int    `yaml:"height" mapstructure:"height"`
}

// Config implements a specific configuration of a helicopter
// environment and task
type Config struct {
	Heli     string       `yaml:"heli" mapstructure:"heli"`
	Task     TaskName     `yaml:"task" mapstructure:"task"`
	Engine   EngineName   `yaml:"engine" mapstructure:"engine"`
	DynagDir string       `yaml:"dynag_dir" mapstructure:"dynag_dir"`
	Dt       float64      `yaml:"dt" mapstructure:"dt"`
	MaxTime  float64      `yaml:"max_time" mapstructure:"max_time"`
	Seed     uint64       `yaml:"seed" mapstructure:"seed"`
	Start    StartConfig  `yaml:"start" mapstructure:"start"`
	Render   RenderConfig `yaml:"render" mapstructure:"render"`
}

// Default returns the default configuration: the Hover task on the
// aw109 with the in-process engine
func Default() Config {
	return Config{
		Heli:   "aw109",
		Task:   Hover,
		Engine: Memory,
		Dt:     helicopter.DefaultDt,
		Start: StartConfig{
			AltLow:    100,
			AltHigh:   4000,
			Deviation: helicopter.DefaultStartDeviation,
		},
		Render: RenderConfig{
			Dir:    "frames",
			Width:  1920,
			Height: 1080,
		},
	}
}

// SetDefaults registers the default value of every configuration key
// with v. Keys are nested under prefix if it is not empty.
func SetDefaults(v *viper.Viper, prefix string) {
	key := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}

	d := Default()
	v.SetDefault(key("heli"), d.Heli)
	v.SetDefault(key("task"), string(d.Task))
	v.SetDefault(key("engine"), string(d.Engine))
	v.SetDefault(key("dynag_dir"), d.DynagDir)
	v.SetDefault(key("dt"), d.Dt)
	v.SetDefault(key("max_time"), d.MaxTime)
	v.SetDefault(key("seed"), d.Seed)

	v.SetDefault(key("start.alt_low"), d.Start.AltLow)
	v.SetDefault(key("start.alt_high"), d.Start.AltHigh)
	v.SetDefault(key("start.deviation"), d.Start.Deviation)

	v.SetDefault(key("render.enabled"), d.Render.Enabled)
	v.SetDefault(key("render.dir"), d.Render.Dir)
	v.SetDefault(key("render.width"), d.Render.Width)
	v.SetDefault(key("render.height"), d.Render.Height)
}

// NewViper returns a viper instance reading YAML configuration files
// and HELIGYM_ environment variables
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads a Config from the YAML file at path. Missing keys take
// their default values. An empty path loads the defaults.
func Load(path string) (Config, error) {
	v := NewViper()
	SetDefaults(v, "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("load: could not read config: %w",
				err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("load: could not decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Marshal returns the Config as YAML
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the Config to the YAML file at path
func (c Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Validate checks that the Config describes a constructible
// environment
func (c Config) Validate() error {
	switch c.Task {
	case Base, Hover:
	default:
		return fmt.Errorf("validate: no such task %q", c.Task)
	}

	switch c.Engine {
	case Memory, Native:
	default:
		return fmt.Errorf("validate: no such engine %q", c.Engine)
	}

	if c.Heli == "" {
		return fmt.Errorf("validate: helicopter name must not be empty")
	}
	if c.Dt < 0 {
		return fmt.Errorf("validate: dt must not be negative \n\thave(%v)",
			c.Dt)
	}
	if c.MaxTime < 0 {
		return fmt.Errorf("validate: max time must not be negative "+
			"\n\thave(%v)", c.MaxTime)
	}
	if c.Start.AltHigh < c.Start.AltLow {
		return fmt.Errorf("validate: start altitude band is empty "+
			"\n\thave([%v, %v])", c.Start.AltLow, c.Start.AltHigh)
	}
	if n := len(c.Start.Point); n != 0 && n != 3 {
		return fmt.Errorf("validate: start point must have 3 elements "+
			"(north, east, ground altitude) \n\thave(%v)", n)
	}
	if c.Render.Enabled && (c.Render.Width <= 0 || c.Render.Height <= 0) {
		return fmt.Errorf("validate: render size must be positive "+
			"\n\thave(%v x %v)", c.Render.Width, c.Render.Height)
	}
	return nil
}

// CreateTask returns the task described by the Config
func (c Config) CreateTask() (helicopter.Task, error) {
	switch c.Task {
	case Base:
		return helicopter.NewBase(), nil

	case Hover:
		p := helicopter.StartParams{
			AltLow:    c.Start.AltLow,
			AltHigh:   c.Start.AltHigh,
			Deviation: c.Start.Deviation,
		}
		if len(c.Start.Point) == 3 {
			p.Point = &[3]float64{c.Start.Point[0], c.Start.Point[1],
				c.Start.Point[2]}
		}
		return helicopter.NewHover(p), nil
	}

	return nil, fmt.Errorf("createTask: no such task %q", c.Task)
}

// CreateEngine returns the dynamics engine described by the Config
func (c Config) CreateEngine() (helicopter.Engine, error) {
	dt := c.Dt
	if dt == 0 {
		dt = helicopter.DefaultDt
	}

	switch c.Engine {
	case Memory:
		return helicopter.NewMemoryEngine(dt), nil

	case Native:
		e, err := helicopter.NewNativeEngine(c.DynagDir, c.Heli, dt)
		if err != nil {
			return nil, fmt.Errorf("createEngine: %w", err)
		}
		return e, nil
	}

	return nil, fmt.Errorf("createEngine: no such engine %q", c.Engine)
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(logger zerolog.Logger) (*helicopter.Helicopter,
	ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	task, err := c.CreateTask()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	engine, err := c.CreateEngine()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	opts := []helicopter.Option{helicopter.WithLogger(logger)}
	if c.Render.Enabled {
		r, err := render.New(c.Render.Dir, c.Render.Width, c.Render.Height)
		if err != nil {
			engine.Close()
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
		opts = append(opts, helicopter.WithRenderer(r))
	}

	env, step, err := helicopter.New(engine, task, helicopter.Config{
		HeliName: c.Heli,
		Dt:       c.Dt,
		MaxTime:  c.MaxTime,
		Seed:     c.Seed,
	}, opts...)
	if err != nil {
		engine.Close()
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}
	return env, step, nil
}
