package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/orbitbake/internal/bake"
	"github.com/san-kum/orbitbake/internal/config"
	"github.com/san-kum/orbitbake/internal/export"
	"github.com/san-kum/orbitbake/internal/render"
	"github.com/san-kum/orbitbake/internal/storage"
	"github.com/san-kum/orbitbake/internal/viz"
	"github.com/spf13/cobra"
)

func runBake(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmtKind, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if fmtKind == export.FormatSQLite && output == "" {
		return fmt.Errorf("sqlite export needs --output")
	}

	sources, err := collectSources(cfg, presetNames)
	if err != nil {
		return err
	}

	opts := bakeOptions(cfg)
	baker, err := bake.New(opts)
	if err != nil {
		return err
	}

	logger.Info("baking", "orbits", len(sources), "integrator", cfg.Integrator,
		"samples", opts.Simulation.Samples())
	outcomes := baker.Batch(ctx, sources)

	fmt.Fprintln(os.Stderr, viz.SummaryTable(outcomes))

	var baked []bake.BakedOrbit
	for _, o := range outcomes {
		if o.Err == nil {
			baked = append(baked, o.Result.Orbit)
		}
	}

	if err := writeExport(ctx, fmtKind, output, baked); err != nil {
		return err
	}
	if err := writeArtifacts(ctx, outcomes, cfg.Simulation.Subframes); err != nil {
		return err
	}
	if save {
		if err := saveRuns(outcomes, opts); err != nil {
			return err
		}
	}

	if failed := bake.Failed(outcomes); failed > 0 {
		return fmt.Errorf("%d of %d orbits failed", failed, len(outcomes))
	}
	return nil
}

func bakeOptions(cfg *config.Config) bake.Options {
	return bake.Options{
		Simulation:      cfg.Simulation.ToDynamo(),
		Policy:          cfg.Analysis.Policy(),
		Stepper:         cfg.Integrator,
		MaxClosingError: cfg.MaxClosingError,
		Logger:          logger,
	}
}

// collectSources lists the config's orbits followed by the named presets.
// With neither, every preset is baked.
func collectSources(cfg *config.Config, presets []string) ([]bake.Source, error) {
	var sources []bake.Source
	for _, o := range cfg.Orbits {
		sources = append(sources, o)
	}

	if len(presets) == 0 && len(sources) == 0 {
		presets = config.ListPresets()
	}
	for _, name := range presets {
		p := config.GetPreset(name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		sources = append(sources, *p)
	}
	return sources, nil
}

// writeExport renders into memory first so a failed export leaves no
// partial file behind.
// exportPath puts the export inside path when path names a directory.
func exportPath(path string, f export.Format) string {
	if path == "" || path == "-" {
		return path
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, "orbits"+f.Extension())
	}
	return path
}

func writeExport(ctx context.Context, f export.Format, path string, orbits []bake.BakedOrbit) error {
	path = exportPath(path, f)
	if f == export.FormatSQLite {
		db, err := export.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Write(ctx, orbits); err != nil {
			return err
		}
		logger.Info("exported", "format", f, "path", path, "orbits", len(orbits))
		return nil
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, orbits); err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}
	logger.Info("exported", "format", f, "path", path, "orbits", len(orbits))
	return nil
}

func writeArtifacts(ctx context.Context, outcomes []bake.Outcome, subframes int) error {
	for _, dir := range []string{gifDir, svgDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		name := fileName(o.Result.Orbit.Name, o.Index)

		if svgDir != "" {
			path := filepath.Join(svgDir, name+".svg")
			svg := export.TrajectorySVG(o.Result.Compressed, 400, 400)
			if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
				return err
			}
			logger.Debug("svg written", "orbit", o.Name, "path", path)
		}

		if gifDir != "" {
			path := filepath.Join(gifDir, name+".gif")
			if err := writeGIF(ctx, path, o.Result, subframes); err != nil {
				return fmt.Errorf("orbit %s: %w", o.Name, err)
			}
			logger.Info("gif written", "orbit", o.Name, "path", path)
		}
	}
	return nil
}

func writeGIF(ctx context.Context, path string, result *bake.Result, subframes int) error {
	var buf bytes.Buffer
	if err := render.GIF(ctx, &buf, result.Compressed, render.DefaultOptions(subframes)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func saveRuns(outcomes []bake.Outcome, opts bake.Options) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		id, err := st.Save(o.Result, opts)
		if err != nil {
			return fmt.Errorf("orbit %s: %w", o.Name, err)
		}
		logger.Info("run saved", "orbit", o.Name, "id", id)
	}
	return nil
}

func fileName(name string, index int) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" {
		return fmt.Sprintf("orbit-%d", index)
	}
	return name
}
