// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"
	"os"

	"github.com/dynag/heligym/environment/envconfig"
	"github.com/dynag/heligym/environment/helicopter"
	"github.com/dynag/heligym/experiment/trackers"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Experiment outlines structs that can run experiments.
// Experiments will track environment TimeSteps, caching each TimeStep
// in RAM to be later saved to disk. The Save() function
// will then take all cached data and save it to disk. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes until the episode limit is reached or ctx is
// cancelled. The RunEpisode() function will run a single episode.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments will
// send each TimeStep to Trackers using the Tracker's Track() method.
// New Trackers can be registered with an Experiment through the
// constructor or through an Experiment's Register() function.
type Experiment interface {
	Run(ctx context.Context) error

	// Returns whether all episodes have been run
	RunEpisode(ctx context.Context) (bool, error)

	// Save all tracked data to disk
	Save() error

	// Adds a new Tracker to the (possibly already running) experiment.
	// Useful if you want to track data only after a specified event.
	Register(t trackers.Tracker)
}

// Type is the type of an experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// DefaultMaxEpisodeSteps is the number of timesteps after which an
// episode is cut off, as registered for the Gym environments
const DefaultMaxEpisodeSteps = 5000

// Config represents a configuration of an experiment.
type Config struct {
	Type            Type             `yaml:"type" mapstructure:"type"`
	Episodes        int              `yaml:"episodes" mapstructure:"episodes"`
	MaxEpisodeSteps int              `yaml:"max_episode_steps" mapstructure:"max_episode_steps"`
	Policy          PolicyName       `yaml:"policy" mapstructure:"policy"`
	OutDir          string           `yaml:"out_dir" mapstructure:"out_dir"`
	Env             envconfig.Config `yaml:"env" mapstructure:"env"`
}

// DefaultConfig returns the default experiment configuration: ten
// episodes of the trim policy on the default environment
func DefaultConfig() Config {
	return Config{
		Type:            OnlineExp,
		Episodes:        10,
		MaxEpisodeSteps: DefaultMaxEpisodeSteps,
		Policy:          TrimPolicy,
		OutDir:          "runs",
		Env:             envconfig.Default(),
	}
}

// LoadConfig reads a Config from the YAML file at path. Missing keys
// take their default values and an empty path loads the defaults.
// Environment variables such as HELIGYM_EPISODES or HELIGYM_ENV_SEED
// override the file.
func LoadConfig(path string) (Config, error) {
	v := envconfig.NewViper()
	envconfig.SetDefaults(v, "env")

	d := DefaultConfig()
	v.SetDefault("type", string(d.Type))
	v.SetDefault("episodes", d.Episodes)
	v.SetDefault("max_episode_steps", d.MaxEpisodeSteps)
	v.SetDefault("policy", string(d.Policy))
	v.SetDefault("out_dir", d.OutDir)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("loadConfig: could not read "+
				"config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not decode "+
			"config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("loadConfig: %w", err)
	}
	return c, nil
}

// Save writes the Config to the YAML file at path
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Validate checks that the Config describes a runnable experiment
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %q", c.Type)
	}
	switch c.Policy {
	case TrimPolicy, ZeroPolicy, RandomPolicy:
	default:
		return fmt.Errorf("validate: no such policy %q", c.Policy)
	}
	if c.Episodes <= 0 {
		return fmt.Errorf("validate: number of episodes must be positive "+
			"\n\thave(%v)", c.Episodes)
	}
	if c.MaxEpisodeSteps <= 0 {
		return fmt.Errorf("validate: maximum episode steps must be "+
			"positive \n\thave(%v)", c.MaxEpisodeSteps)
	}
	return c.Env.Validate()
}

// CreatePolicy returns the policy described by the Config for env
func (c Config) CreatePolicy(env *helicopter.Helicopter) (Policy, error) {
	switch c.Policy {
	case TrimPolicy:
		return NewTrim(env), nil
	case ZeroPolicy:
		return NewZero(env.ActionSpec()), nil
	case RandomPolicy:
		return NewRandom(env.ActionSpec(), c.Env.Seed+1), nil
	}
	return nil, fmt.Errorf("createPolicy: no such policy %q", c.Policy)
}

// CreateExp creates the experiment described by the Config. The
// returned environment must be closed by the caller once the
// experiment is done.
func (c Config) CreateExp(logger zerolog.Logger, t []trackers.Tracker,
	opts ...OnlineOption) (Experiment, *helicopter.Helicopter, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	env, _, err := c.Env.Create(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	policy, err := c.CreatePolicy(env)
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}

	opts = append([]OnlineOption{WithLogger(logger)}, opts...)
	if c.Env.Render.Enabled {
		opts = append(opts, WithRendering())
	}

	exp, err := NewOnline(env, policy, c.Episodes, c.MaxEpisodeSteps, t,
		opts...)
	if err != nil {
		env.Close()
		return nil, nil, fmt.Errorf("createExp: %w", err)
	}
	return exp, env, nil
}
