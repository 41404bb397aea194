package experiment

import (
	"context"
	"fmt"
	"io"

	env "github.com/dynag/heligym/environment"
	"github.com/dynag/heligym/experiment/trackers"
	ts "github.com/dynag/heligym/timestep"
	"github.com/dynag/heligym/utils/progressbar"
	"github.com/rs/zerolog"
)

// renderer is an environment which can draw its current state
type renderer interface {
	Render() error
}

// OnlineOption configures an Online experiment
type OnlineOption func(*Online)

// WithLogger sets the logger of the experiment
func WithLogger(l zerolog.Logger) OnlineOption {
	return func(o *Online) {
		o.log = l
	}
}

// WithRendering renders the environment after every timestep. The
// environment must implement a Render() error method.
func WithRendering() OnlineOption {
	return func(o *Online) {
		o.render = true
	}
}

// WithProgress displays a progress bar of finished episodes on out
func WithProgress(out io.Writer) OnlineOption {
	return func(o *Online) {
		o.progress = out
	}
}

// Online is an Experiment that runs a policy online for a number of
// episodes. Each episode is cut off after a maximum number of
// timesteps if it has not ended by then.
type Online struct {
	env.Environment
	Policy
	episodes       int
	cutoff         env.Ender
	currentEpisode int
	trackers       []trackers.Tracker

	log      zerolog.Logger
	render   bool
	progress io.Writer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given policy. The experiment runs the given
// number of episodes, and t determines what data is saved.
func NewOnline(e env.Environment, p Policy, episodes, maxEpisodeSteps int,
	t []trackers.Tracker, opts ...OnlineOption) (*Online, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("newOnline: number of episodes must be "+
			"positive \n\thave(%v)", episodes)
	}
	if maxEpisodeSteps <= 0 {
		return nil, fmt.Errorf("newOnline: maximum episode steps must be "+
			"positive \n\thave(%v)", maxEpisodeSteps)
	}

	o := &Online{
		Environment: e,
		Policy:      p,
		episodes:    episodes,
		cutoff:      env.NewStepLimit(maxEpisodeSteps),
		trackers:    t,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if _, ok := e.(renderer); o.render && !ok {
		return nil, fmt.Errorf("newOnline: environment cannot render")
	}
	return o, nil
}

// Register registers a Tracker with the experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Episodes returns the number of episodes finished
func (o *Online) Episodes() int {
	return o.currentEpisode
}

// RunEpisode runs a single episode of the experiment and returns
// whether all episodes of the experiment have been run. An episode
// which reaches the maximum number of steps is tracked as ending with
// timestep.TimeUp.
func (o *Online) RunEpisode(ctx context.Context) (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)
	if err := o.draw(); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}

	for !step.Last() {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		action, err := o.Policy.SelectAction(step)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		if !step.Last() && o.cutoff.End(&step) {
			o.log.Debug().Int("steps", step.Number).
				Msg("episode cut off")
		}

		o.track(step)
		if err := o.draw(); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
	}

	o.currentEpisode++
	o.log.Info().
		Int("episode", o.currentEpisode).
		Int("steps", step.Number).
		Stringer("end", endReasons(step.EndTypes())).
		Msg("episode finished")

	return o.currentEpisode >= o.episodes, nil
}

// Run runs the entire experiment for all episodes. Run stops between
// timesteps when ctx is cancelled.
func (o *Online) Run(ctx context.Context) error {
	var bar *progressbar.ManualProgressBar
	if o.progress != nil {
		bar = progressbar.NewManualProgressBar(o.progress, 40, o.episodes)
		bar.Display()
		defer bar.Close()
	}

	for ended := o.currentEpisode >= o.episodes; !ended; {
		var err error
		if ended, err = o.RunEpisode(ctx); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

func (o *Online) draw() error {
	if !o.render {
		return nil
	}
	return o.Environment.(renderer).Render()
}

type endReasons []ts.EndType

func (e endReasons) String() string {
	if len(e) == 0 {
		return "none"
	}
	str := e[0].String()
	for _, end := range e[1:] {
		str += "|" + end.String()
	}
	return str
}
