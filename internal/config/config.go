package config

import (
	"fmt"
	"os"

	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrames          = 140
	DefaultSubframes       = 100
	DefaultCutoff          = 0.001
	DefaultMaxClosingError = 1e-3
)

type Config struct {
	Simulation      SimulationConfig `yaml:"simulation"`
	Analysis        AnalysisConfig   `yaml:"analysis"`
	Integrator      string           `yaml:"integrator"`
	MaxClosingError float64          `yaml:"max_closing_error"`
	Orbits          []OrbitConfig    `yaml:"orbits"`
}

type SimulationConfig struct {
	Frames     int `yaml:"frames"`
	Subframes  int `yaml:"subframes"`
	MicroSteps int `yaml:"micro_steps"`
}

type AnalysisConfig struct {
	Cutoff float64 `yaml:"cutoff"`
	KeepDC bool    `yaml:"keep_dc"`
}

// OrbitConfig is one orbit as written in the file. Lists are parallel: the
// i-th mass, position and velocity describe body i.
type OrbitConfig struct {
	Name       string      `yaml:"name"`
	Period     float64     `yaml:"period"`
	Energy     *float64    `yaml:"energy,omitempty"`
	Masses     []float64   `yaml:"masses"`
	Positions  [][]float64 `yaml:"positions,flow"`
	Velocities [][]float64 `yaml:"velocities,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Frames:     DefaultFrames,
			Subframes:  DefaultSubframes,
			MicroSteps: dynamo.DefaultMicroSteps,
		},
		Analysis: AnalysisConfig{
			Cutoff: DefaultCutoff,
			KeepDC: true,
		},
		Integrator:      integrators.Default,
		MaxClosingError: DefaultMaxClosingError,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over DefaultConfig, so omitted settings keep their
// defaults. Only file-wide settings are validated here; a bad orbit is
// reported by its own ToOrbit.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.Simulation.ToDynamo().Validate(); err != nil {
		return err
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return &dynamo.ConfigError{Field: "integrator", Reason: err.Error()}
	}
	if c.Analysis.Cutoff < 0 {
		return &dynamo.ConfigError{Field: "analysis.cutoff", Reason: "must not be negative"}
	}
	if c.MaxClosingError <= 0 {
		return &dynamo.ConfigError{Field: "max_closing_error", Reason: "must be positive"}
	}
	return nil
}

func (s SimulationConfig) ToDynamo() dynamo.SimulationConfig {
	return dynamo.SimulationConfig{
		Frames:     s.Frames,
		Subframes:  s.Subframes,
		MicroSteps: s.MicroSteps,
	}
}

func (a AnalysisConfig) Policy() analysis.TruncatePolicy {
	return analysis.TruncatePolicy{Cutoff: a.Cutoff, KeepDC: a.KeepDC}
}

// Orbit returns the named orbit entry, or nil.
func (c *Config) Orbit(name string) *OrbitConfig {
	for i := range c.Orbits {
		if c.Orbits[i].Name == name {
			return &c.Orbits[i]
		}
	}
	return nil
}

// ToOrbit checks the parallel lists and builds the orbit. The returned error
// is a *dynamo.ConfigError naming the first offending field.
func (o OrbitConfig) ToOrbit() (dynamo.Orbit, error) {
	fail := func(field, format string, args ...any) (dynamo.Orbit, error) {
		return dynamo.Orbit{}, &dynamo.ConfigError{Orbit: o.Name, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	n := len(o.Masses)
	if n == 0 {
		return fail("masses", "at least one body is required")
	}
	if len(o.Positions) != n {
		return fail("positions", "%d entries for %d masses", len(o.Positions), n)
	}
	if len(o.Velocities) != n {
		return fail("velocities", "%d entries for %d masses", len(o.Velocities), n)
	}

	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		if len(o.Positions[i]) != 2 {
			return fail(fmt.Sprintf("positions[%d]", i), "expected [x, y], got %d numbers", len(o.Positions[i]))
		}
		if len(o.Velocities[i]) != 2 {
			return fail(fmt.Sprintf("velocities[%d]", i), "expected [x, y], got %d numbers", len(o.Velocities[i]))
		}
		bodies[i] = dynamo.Body{
			Mass:     o.Masses[i],
			Position: dynamo.Vec2{X: o.Positions[i][0], Y: o.Positions[i][1]},
			Velocity: dynamo.Vec2{X: o.Velocities[i][0], Y: o.Velocities[i][1]},
		}
	}

	orbit := dynamo.Orbit{
		Name:   o.Name,
		Bodies: bodies,
		Period: o.Period,
		Energy: o.Energy,
	}.Clone()
	if err := orbit.Validate(); err != nil {
		return dynamo.Orbit{}, err
	}
	return orbit, nil
}

// FromOrbit is the inverse of ToOrbit.
func FromOrbit(o dynamo.Orbit) OrbitConfig {
	oc := OrbitConfig{
		Name:       o.Name,
		Period:     o.Period,
		Masses:     make([]float64, len(o.Bodies)),
		Positions:  make([][]float64, len(o.Bodies)),
		Velocities: make([][]float64, len(o.Bodies)),
	}
	if o.Energy != nil {
		e := *o.Energy
		oc.Energy = &e
	}
	for i, b := range o.Bodies {
		oc.Masses[i] = b.Mass
		oc.Positions[i] = []float64{b.Position.X, b.Position.Y}
		oc.Velocities[i] = []float64{b.Velocity.X, b.Velocity.Y}
	}
	return oc
}
