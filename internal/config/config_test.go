package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/physics"
)

const sample = `
simulation:
  frames: 20
  subframes: 5
analysis:
  cutoff: 0.01
integrator: leapfrog
orbits:
  - name: figure-eight
    period: 6.325897
    energy: -1.287146
    masses: [1, 1, 1]
    positions: [[-1, 0], [1, 0], [0, 0]]
    velocities: [[0.347113, 0.532727], [0.347113, 0.532727], [-0.694226, -1.065454]]
  - name: broken
    period: 1
    masses: [1, 1]
    positions: [[0, 0]]
    velocities: [[0, 0], [0, 0]]
`

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Simulation.Frames != 140 || cfg.Simulation.Subframes != 100 {
		t.Errorf("expected 140x100 frames, got %dx%d", cfg.Simulation.Frames, cfg.Simulation.Subframes)
	}
	if cfg.Simulation.MicroSteps != dynamo.DefaultMicroSteps {
		t.Errorf("expected %d micro steps, got %d", dynamo.DefaultMicroSteps, cfg.Simulation.MicroSteps)
	}
	if cfg.Analysis.Cutoff != 0.001 || !cfg.Analysis.KeepDC {
		t.Errorf("unexpected analysis defaults %+v", cfg.Analysis)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestParse_KeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Simulation.Frames != 20 || cfg.Simulation.Subframes != 5 {
		t.Errorf("frames not read: %+v", cfg.Simulation)
	}
	if cfg.Simulation.MicroSteps != dynamo.DefaultMicroSteps {
		t.Errorf("micro_steps default lost: %d", cfg.Simulation.MicroSteps)
	}
	if !cfg.Analysis.KeepDC {
		t.Error("keep_dc default lost")
	}
	if cfg.Integrator != "leapfrog" {
		t.Errorf("integrator = %q", cfg.Integrator)
	}
	if len(cfg.Orbits) != 2 {
		t.Fatalf("expected 2 orbits, got %d", len(cfg.Orbits))
	}
	if p := cfg.Analysis.Policy(); p.Cutoff != 0.01 || !p.KeepDC {
		t.Errorf("Policy() = %+v", p)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero frames", "simulation: {frames: 0}"},
		{"unknown integrator", "integrator: rk4"},
		{"negative cutoff", "analysis: {cutoff: -1}"},
		{"zero closing error", "max_closing_error: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := Parse([]byte("orbits: {")); err == nil {
		t.Error("expected YAML syntax error")
	}
}

func TestOrbitConfig_ToOrbit(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	orbit, err := cfg.Orbits[0].ToOrbit()
	if err != nil {
		t.Fatalf("figure-eight: %v", err)
	}
	if len(orbit.Bodies) != 3 || orbit.Bodies[2].Velocity.Y != -1.065454 {
		t.Errorf("bodies not built: %+v", orbit.Bodies)
	}
	if orbit.Energy == nil || *orbit.Energy != -1.287146 {
		t.Errorf("energy = %v", orbit.Energy)
	}

	_, err = cfg.Orbit("broken").ToOrbit()
	var cfgErr *dynamo.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Orbit != "broken" || cfgErr.Field != "positions" {
		t.Errorf("error = %+v", cfgErr)
	}
}

func TestOrbitConfig_ToOrbitErrors(t *testing.T) {
	base := func() OrbitConfig {
		return OrbitConfig{
			Name:       "pair",
			Period:     1,
			Masses:     []float64{1, 2},
			Positions:  [][]float64{{0, 0}, {1, 0}},
			Velocities: [][]float64{{0, 0}, {0, 1}},
		}
	}

	tests := []struct {
		name   string
		mutate func(o *OrbitConfig)
		field  string
	}{
		{"no masses", func(o *OrbitConfig) { o.Masses = nil }, "masses"},
		{"short velocities", func(o *OrbitConfig) { o.Velocities = o.Velocities[:1] }, "velocities"},
		{"3d position", func(o *OrbitConfig) { o.Positions[1] = []float64{1, 0, 0} }, "positions[1]"},
		{"1d velocity", func(o *OrbitConfig) { o.Velocities[0] = []float64{1} }, "velocities[0]"},
		{"zero period", func(o *OrbitConfig) { o.Period = 0 }, "period"},
		{"negative mass", func(o *OrbitConfig) { o.Masses[1] = -2 }, "masses[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mutate(&o)
			_, err := o.ToOrbit()
			var cfgErr *dynamo.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestFromOrbit_RoundTrip(t *testing.T) {
	want := *GetPreset("figure-eight")
	orbit, err := want.ToOrbit()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, FromOrbit(orbit)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbits.yaml")

	cfg := DefaultConfig()
	cfg.Integrator = "leapfrog"
	cfg.Orbits = []OrbitConfig{*GetPreset("binary")}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("Load(Save(cfg)) mismatch (-want +got):\n%s", diff)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("figure-eight")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	p.Masses[0] = 99
	if Presets["figure-eight"].Masses[0] != 1 {
		t.Error("GetPreset returned shared storage")
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresets_Valid(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("ListPresets returned %d of %d", len(names), len(Presets))
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			orbit, err := Presets[name].ToOrbit()
			if err != nil {
				t.Fatal(err)
			}
			if orbit.Name != name {
				t.Errorf("preset %q named %q", name, orbit.Name)
			}
			p := physics.Momentum(orbit.Bodies)
			if math.Abs(p.X) > 1e-6 || math.Abs(p.Y) > 1e-6 {
				t.Errorf("net momentum %v, orbit drifts", p)
			}
			if orbit.Energy != nil && math.Abs(*orbit.Energy-physics.Energy(orbit.Bodies)) > 1e-5 {
				t.Errorf("energy tag %v, computed %v", *orbit.Energy, physics.Energy(orbit.Bodies))
			}
		})
	}
}
