// Command heligym runs helicopter environment experiments, draws
// scenarios and prints resolved configurations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/dynag/heligym/environment/helicopter"
	"github.com/dynag/heligym/experiment"
	"github.com/dynag/heligym/experiment/trackers"
	ts "github.com/dynag/heligym/timestep"
	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configFile string
	envFile    string
	logLevel   string

	episodes int
	policy   string
	seed     uint64
	outDir   string
	render   bool
	plot     bool

	draws int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "heligym",
		Short:        "helicopter environments for reinforcement learning",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"experiment config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env",
		"file of HELIGYM_ environment variables")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an experiment",
		Args:  cobra.NoArgs,
		RunE:  runExperiment,
	}
	runCmd.Flags().IntVar(&episodes, "episodes", 0, "number of episodes")
	runCmd.Flags().StringVar(&policy, "policy", "",
		"policy (trim, zero, random)")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().StringVar(&outDir, "out", "", "output directory")
	runCmd.Flags().BoolVar(&render, "render", false, "render frames")
	runCmd.Flags().BoolVar(&plot, "plot", true, "plot episode returns")

	scenarioCmd := &cobra.Command{
		Use:   "scenario",
		Short: "draw Hover scenarios and plot their start altitudes",
		Args:  cobra.NoArgs,
		RunE:  drawScenarios,
	}
	scenarioCmd.Flags().IntVarP(&draws, "draws", "n", 1000, "number of draws")
	scenarioCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the resolved experiment config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := experiment.LoadConfig(configFile)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(c)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	rootCmd.AddCommand(runCmd, scenarioCmd, configCmd)
	return rootCmd
}

// loadEnvFile loads environment variables from path if it exists
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not load %v: %w", path, err)
	}
	return nil
}

func newLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// loadConfig loads the experiment config and applies the flags that
// were set on cmd
func loadConfig(cmd *cobra.Command) (experiment.Config, error) {
	c, err := experiment.LoadConfig(configFile)
	if err != nil {
		return experiment.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("episodes") {
		c.Episodes = episodes
	}
	if flags.Changed("policy") {
		c.Policy = experiment.PolicyName(policy)
	}
	if flags.Changed("seed") {
		c.Env.Seed = seed
	}
	if flags.Changed("out") {
		c.OutDir = outDir
	}
	if flags.Changed("render") {
		c.Env.Render.Enabled = render
	}

	if err := c.Validate(); err != nil {
		return experiment.Config{}, err
	}
	return c, nil
}

func runExperiment(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	c, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	dir := filepath.Join(c.OutDir, fmt.Sprintf("%v-%v", c.Env.Task, runID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create run directory: %w", err)
	}
	if c.Env.Render.Enabled && !filepath.IsAbs(c.Env.Render.Dir) {
		c.Env.Render.Dir = filepath.Join(dir, c.Env.Render.Dir)
	}
	if err := c.Save(filepath.Join(dir, "config.yaml")); err != nil {
		return err
	}

	logger = logger.With().Str("run", runID).Logger()

	returns := trackers.NewReturn(filepath.Join(dir, "return.bin"))
	lengths := trackers.NewEpisodeLength(filepath.Join(dir, "length.bin"))
	outcome := trackers.NewOutcome(filepath.Join(dir, "outcome.bin"))

	exp, env, err := c.CreateExp(logger,
		[]trackers.Tracker{returns, lengths, outcome},
		experiment.WithProgress(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info().
		Str("task", c.Env.Task.GymID()).
		Str("policy", string(c.Policy)).
		Int("episodes", c.Episodes).
		Uint64("seed", c.Env.Seed).
		Msg("starting experiment")

	runErr := exp.Run(ctx)
	if err := exp.Save(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %v saved to %v\n", runID, dir)
	printOutcomes(out, outcome)
	if plot && len(returns.Data()) > 1 {
		fmt.Fprintln(out, asciigraph.Plot(returns.Data(),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("episodic return"),
		))
	}
	return nil
}

func printOutcomes(w io.Writer, o *trackers.Outcome) {
	ends := []ts.EndType{ts.Failed, ts.SimError, ts.Succeeded, ts.TimeUp,
		ts.DegenerateReward}
	for _, e := range ends {
		if n := o.Count(e); n > 0 {
			fmt.Fprintf(w, "%-17v %v\n", e, n)
		}
	}
}

func drawScenarios(cmd *cobra.Command, args []string) error {
	c, err := experiment.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		c.Env.Seed = seed
	}
	if draws <= 0 {
		return fmt.Errorf("number of draws must be positive")
	}

	task, err := c.Env.CreateTask()
	if err != nil {
		return err
	}
	maxTime := c.Env.MaxTime
	if maxTime == 0 {
		maxTime = task.DefaultMaxTime()
	}

	r := helicopter.NewSeededRandomizer(c.Env.Seed)
	altitudes := make([]float64, 0, draws)
	for i := 0; i < draws; i++ {
		s, _ := task.Start(r, maxTime)
		if s == nil {
			return fmt.Errorf("task %v does not draw scenarios", task.Name())
		}
		altitudes = append(altitudes, s.GroundAltitude)
	}

	out := cmd.OutOrStdout()
	sort.Float64s(altitudes)
	fmt.Fprintf(out, "start altitude [ft]: min %.2f  median %.2f  max %.2f\n",
		altitudes[0], altitudes[len(altitudes)/2], altitudes[len(altitudes)-1])
	fmt.Fprintln(out, asciigraph.Plot(altitudes,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("sorted start altitudes [ft]"),
	))
	return nil
}
