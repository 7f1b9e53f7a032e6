package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/bake"
	"github.com/san-kum/orbitbake/internal/config"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/export"
	"github.com/san-kum/orbitbake/internal/integrators"
	"github.com/san-kum/orbitbake/internal/optim"
	"github.com/san-kum/orbitbake/internal/sim"
	"github.com/san-kum/orbitbake/internal/storage"
	"github.com/san-kum/orbitbake/internal/viz"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tORBIT\tTIME\tBODIES\tCOMPONENTS\tCLOSING\tINTEG")

	for _, run := range runs {
		before, after := run.Diagnostics.ComponentCounts()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%.2e\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			after, before,
			run.Diagnostics.MaxClosingError(),
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotSpectrum(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	orbit, err := st.LoadOrbit(args[0])
	if err != nil {
		return err
	}
	if bodyIndex >= len(orbit.Bodies) {
		return fmt.Errorf("body %d out of range: run has %d bodies", bodyIndex, len(orbit.Bodies))
	}

	opts := viz.DefaultSpectrumOptions()
	opts.Log = !linear

	fmt.Println(viz.Title.Render(orbit.Name))
	for i, body := range orbit.Bodies {
		if bodyIndex >= 0 && i != bodyIndex {
			continue
		}
		opts.Caption = fmt.Sprintf("body %d: %d components", i, len(body.Components))
		fmt.Println()
		fmt.Println(viz.SpectrumPlot(body, opts))
	}
	return nil
}

func exportRuns(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if f == export.FormatSQLite && output == "" {
		return fmt.Errorf("sqlite export needs --output")
	}

	st := storage.New(dataDir)
	orbits := make([]bake.BakedOrbit, 0, len(args))
	for _, id := range args {
		o, err := st.LoadOrbit(id)
		if err != nil {
			return fmt.Errorf("run %s: %w", id, err)
		}
		orbits = append(orbits, o)
	}
	return writeExport(cmd.Context(), f, output, orbits)
}

func runPlay(cmd *cobra.Command, args []string) error {
	var (
		name string
		traj dynamo.Trajectory
		info []string
	)

	if playRun != "" {
		st := storage.New(dataDir)
		meta, err := st.Load(playRun)
		if err != nil {
			return err
		}
		orbit, err := st.LoadOrbit(playRun)
		if err != nil {
			return err
		}
		full, err := reconstructOrbit(orbit, meta.Frames*meta.Subframes)
		if err != nil {
			return err
		}
		name = orbit.Name
		traj = everyNth(full, meta.Subframes)
		info = append(info, viz.Metric("run", meta.ID[:8]))
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		orbit, err := pickOrbit(cfg, args)
		if err != nil {
			return err
		}

		baker, err := bake.New(bakeOptions(cfg))
		if err != nil {
			return err
		}
		result, err := baker.Bake(cmd.Context(), orbit)
		if err != nil {
			return err
		}

		full := result.Compressed
		if raw {
			full = result.Closed
		}
		name = orbit.Name
		traj = everyNth(full, cfg.Simulation.Subframes)

		d := result.Diagnostics
		_, after := d.ComponentCounts()
		info = append(info,
			viz.Metric("components", fmt.Sprint(after)),
			viz.Metric("closing", fmt.Sprintf("%.2e", d.MaxClosingError())),
			viz.HealthBar(d.MaxClosingError(), cfg.MaxClosingError, 20),
		)
	}

	player, err := viz.NewPlayer(name, traj, viz.PlayerOptions{FPS: frameRate, Trail: len(traj) / 3})
	if err != nil {
		return err
	}
	player = player.WithInfo(info...)

	p := tea.NewProgram(player, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}

// pickOrbit resolves the named orbit from the config, then the presets. With
// no name it takes the config's first orbit, or the figure eight.
func pickOrbit(cfg *config.Config, args []string) (dynamo.Orbit, error) {
	if len(args) == 0 {
		if len(cfg.Orbits) > 0 {
			return cfg.Orbits[0].ToOrbit()
		}
		args = []string{"figure-eight"}
	}
	if oc := cfg.Orbit(args[0]); oc != nil {
		return oc.ToOrbit()
	}
	if p := config.GetPreset(args[0]); p != nil {
		return p.ToOrbit()
	}
	return dynamo.Orbit{}, fmt.Errorf("unknown orbit: %s (presets: %v)", args[0], config.ListPresets())
}

func reconstructOrbit(orbit bake.BakedOrbit, samples int) (dynamo.Trajectory, error) {
	paths := make([][]dynamo.Vec2, len(orbit.Bodies))
	for i, body := range orbit.Bodies {
		path, err := analysis.Reconstruct(samples, body)
		if err != nil {
			return nil, fmt.Errorf("body %d: %w", i, err)
		}
		paths[i] = path
	}
	return dynamo.FromBodies(paths)
}

// everyNth keeps samples 0, n, 2n, ...
func everyNth(traj dynamo.Trajectory, n int) dynamo.Trajectory {
	if n <= 1 {
		return traj
	}
	out := make(dynamo.Trajectory, 0, (len(traj)+n-1)/n)
	for i := 0; i < len(traj); i += n {
		out = append(out, traj[i])
	}
	return out
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	orbit, err := pickOrbit(cfg, args)
	if err != nil {
		return err
	}
	stepper, err := integrators.Get(cfg.Integrator)
	if err != nil {
		return err
	}

	s := sim.New(stepper)
	s.SetMaxClosingError(cfg.MaxClosingError)
	simCfg := cfg.Simulation.ToDynamo()

	logger.Info("tuning", "orbit", orbit.Name, "period", orbit.Period, "span", tuneSpan,
		"candidates", tuneSteps*tuneRounds)
	start, err := optim.ClosingError(s, simCfg, orbit)(cmd.Context(), orbit.Period)
	if err != nil {
		return err
	}
	best, history, err := optim.TunePeriod(cmd.Context(), s, simCfg, orbit, tuneSpan, tuneSteps, tuneRounds)
	if err != nil {
		return err
	}
	for _, p := range history {
		logger.Debug("candidate", "period", p.X, "closing_error", p.Score)
	}

	fmt.Println(viz.Metric("tagged period", fmt.Sprintf("%.6f", orbit.Period)) + "  " +
		viz.Metric("closing", fmt.Sprintf("%.3e", start)))
	fmt.Println(viz.Metric("best period  ", fmt.Sprintf("%.6f", best.X)) + "  " +
		viz.Metric("closing", fmt.Sprintf("%.3e", best.Score)))
	fmt.Println(viz.HealthBar(best.Score, cfg.MaxClosingError, 40))

	tuned := orbit.Clone()
	tuned.Period = best.X
	oc := config.FromOrbit(tuned)
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode([]config.OrbitConfig{oc}); err != nil {
		return err
	}
	return enc.Close()
}
