package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/san-kum/orbitbake/internal/config"
	"github.com/san-kum/orbitbake/internal/integrators"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir  string
	logLevel string
	logger   *log.Logger

	configFile      string
	presetNames     []string
	format          string
	output          string
	gifDir          string
	svgDir          string
	save            bool
	integrator      string
	frames          int
	subframes       int
	microSteps      int
	cutoff          float64
	keepDC          bool
	maxClosingError float64

	tuneSpan   float64
	tuneSteps  int
	tuneRounds int

	bodyIndex int
	linear    bool
	playRun   string
	raw       bool
	frameRate int
)

// main wires the commands and exits 1 when any of them fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "orbitbake",
		Short:         "bake periodic n-body orbits into frequency tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = log.NewWithOptions(os.Stderr, log.Options{
				Level:           level,
				ReportTimestamp: true,
				Prefix:          "orbitbake",
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitbake", "run storage directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	bakeCmd := &cobra.Command{
		Use:   "bake",
		Short: "simulate, close and compress orbits, then export them",
		Args:  cobra.NoArgs,
		RunE:  runBake,
	}
	bakeCmd.Flags().StringVarP(&configFile, "config", "c", "", "orbit file (yaml)")
	bakeCmd.Flags().StringSliceVarP(&presetNames, "preset", "p", nil, "bake a built-in orbit (repeatable)")
	bakeCmd.Flags().StringVarP(&format, "format", "f", "elm", "export format: elm, json, yaml or sqlite")
	bakeCmd.Flags().StringVarP(&output, "output", "o", "", "export file, or directory to write orbits.<ext> into (default stdout)")
	bakeCmd.Flags().StringVar(&gifDir, "gif", "", "write one animated GIF per orbit into this directory")
	bakeCmd.Flags().StringVar(&svgDir, "svg", "", "write one SVG outline per orbit into this directory")
	bakeCmd.Flags().BoolVar(&save, "save", false, "store each baked orbit as a run")
	addSimulationFlags(bakeCmd)

	playCmd := &cobra.Command{
		Use:   "play [orbit]",
		Short: "bake one orbit and loop it in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}
	playCmd.Flags().StringVarP(&configFile, "config", "c", "", "orbit file (yaml)")
	playCmd.Flags().StringVar(&playRun, "run", "", "replay a stored run instead of baking")
	playCmd.Flags().BoolVar(&raw, "raw", false, "play the closed simulation instead of the compressed orbit")
	playCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	addSimulationFlags(playCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in orbits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("%-14s %d bodies  period %.6f\n", name, len(p.Masses), p.Period)
			}
			return nil
		},
	}

	presetShowCmd := &cobra.Command{
		Use:   "show [name]",
		Short: "print a built-in orbit as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := config.GetPreset(args[0])
			if p == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(p); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file holding every built-in orbit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "orbits.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			cfg := config.DefaultConfig()
			for _, name := range config.ListPresets() {
				cfg.Orbits = append(cfg.Orbits, *config.GetPreset(name))
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			logger.Info("config written", "path", path, "orbits", len(cfg.Orbits))
			return nil
		},
	}
	presetsCmd.AddCommand(presetShowCmd, initCmd)

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "plot the stored frequency components of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotSpectrum,
	}
	spectrumCmd.Flags().IntVar(&bodyIndex, "body", -1, "body to plot (default all)")
	spectrumCmd.Flags().BoolVar(&linear, "linear", false, "linear amplitude axis")

	exportCmd := &cobra.Command{
		Use:   "export [run_id...]",
		Short: "export stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportRuns,
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "elm", "export format: elm, json, yaml or sqlite")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "export file, or directory to write orbits.<ext> into (default stdout)")

	tuneCmd := &cobra.Command{
		Use:   "tune [orbit]",
		Short: "search for the period that closes an orbit best",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVarP(&configFile, "config", "c", "", "orbit file (yaml)")
	tuneCmd.Flags().Float64Var(&tuneSpan, "span", 0.02, "search periods within this fraction of the tagged one")
	tuneCmd.Flags().IntVar(&tuneSteps, "steps", 9, "grid points per round")
	tuneCmd.Flags().IntVar(&tuneRounds, "rounds", 3, "refinement rounds")
	addSimulationFlags(tuneCmd)

	rootCmd.AddCommand(bakeCmd, playCmd, tuneCmd, presetsCmd, runsCmd, spectrumCmd, exportCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger == nil {
			logger = log.New(os.Stderr)
		}
		logger.Error(err)
		stop()
		os.Exit(1)
	}
}

func addSimulationFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().StringVar(&integrator, "integrator", d.Integrator, "integrator: "+strings.Join(integrators.Names(), ", "))
	cmd.Flags().IntVar(&frames, "frames", d.Simulation.Frames, "frames per period")
	cmd.Flags().IntVar(&subframes, "subframes", d.Simulation.Subframes, "samples per frame")
	cmd.Flags().IntVar(&microSteps, "micro-steps", d.Simulation.MicroSteps, "integration steps per sample")
	cmd.Flags().Float64Var(&cutoff, "cutoff", d.Analysis.Cutoff, "drop components with amplitude at or below this")
	cmd.Flags().BoolVar(&keepDC, "keep-dc", d.Analysis.KeepDC, "always keep the zero-frequency component")
	cmd.Flags().Float64Var(&maxClosingError, "max-closing-error", d.MaxClosingError, "largest accepted forward/backward mismatch")
}

// loadConfig reads the config file, if any, and lets explicitly set flags
// override it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("frames") {
		cfg.Simulation.Frames = frames
	}
	if flags.Changed("subframes") {
		cfg.Simulation.Subframes = subframes
	}
	if flags.Changed("micro-steps") {
		cfg.Simulation.MicroSteps = microSteps
	}
	if flags.Changed("cutoff") {
		cfg.Analysis.Cutoff = cutoff
	}
	if flags.Changed("keep-dc") {
		cfg.Analysis.KeepDC = keepDC
	}
	if flags.Changed("max-closing-error") {
		cfg.MaxClosingError = maxClosingError
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
