package bake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/integrators"
	"github.com/san-kum/orbitbake/internal/sim"
)

type Options struct {
	Simulation dynamo.SimulationConfig
	Policy     analysis.TruncatePolicy
	// Stepper names an integrator; empty selects integrators.Default.
	Stepper         string
	MaxClosingError float64
	Logger          *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Simulation:      dynamo.DefaultSimulationConfig(),
		Policy:          analysis.DefaultPolicy,
		Stepper:         integrators.Default,
		MaxClosingError: sim.DefaultMaxClosingError,
	}
}

// BakedOrbit is the exported form of an orbit: its tags plus one truncated
// frequency set per body, in body order.
type BakedOrbit struct {
	Name   string          `json:"name" yaml:"name"`
	Period float64         `json:"period" yaml:"period"`
	Energy *float64        `json:"energy,omitempty" yaml:"energy,omitempty"`
	Bodies []analysis.Body `json:"bodies" yaml:"bodies"`
}

// CheckFinite rejects any NaN or Inf among the numeric fields.
func (b BakedOrbit) CheckFinite() error {
	if bad(b.Period) {
		return fmt.Errorf("orbit %q period: %w", b.Name, dynamo.ErrNonFinite)
	}
	if b.Energy != nil && bad(*b.Energy) {
		return fmt.Errorf("orbit %q energy: %w", b.Name, dynamo.ErrNonFinite)
	}
	for i, body := range b.Bodies {
		for k, c := range body.Components {
			if bad(c.Freq) || bad(c.Amplitude) || bad(c.Phase) {
				return fmt.Errorf("orbit %q body %d component %d: %w", b.Name, i, k, dynamo.ErrNonFinite)
			}
		}
	}
	return nil
}

// Diagnostics describe the numerical quality of one bake. Every field is
// filled even when the bake succeeds.
type Diagnostics struct {
	Forward              sim.RunStats             `json:"forward"`
	Backward             sim.RunStats             `json:"backward"`
	ClosingErrors        []float64                `json:"closing_errors"`
	Components           []analysis.TruncateStats `json:"components"`
	ReconstructionErrors []float64                `json:"reconstruction_errors"`
	Elapsed              time.Duration            `json:"elapsed"`
}

func (d Diagnostics) MaxClosingError() float64 { return maxOf(d.ClosingErrors) }

func (d Diagnostics) MaxReconstructionError() float64 { return maxOf(d.ReconstructionErrors) }

// ComponentCounts sums the before and after counts over all bodies.
func (d Diagnostics) ComponentCounts() (before, after int) {
	for _, s := range d.Components {
		before += s.Before
		after += s.After
	}
	return before, after
}

type Result struct {
	Orbit BakedOrbit
	// Closed is the blended simulation the frequencies were taken from.
	Closed dynamo.Trajectory
	// Compressed is the trajectory rebuilt from the truncated frequencies.
	Compressed  dynamo.Trajectory
	Diagnostics Diagnostics
}

type Baker struct {
	opts      Options
	simulator *sim.Simulator
	logger    *log.Logger
}

func New(opts Options) (*Baker, error) {
	if err := opts.Simulation.Validate(); err != nil {
		return nil, err
	}
	if opts.Policy.Cutoff < 0 || bad(opts.Policy.Cutoff) {
		return nil, &dynamo.ConfigError{Field: "cutoff", Reason: fmt.Sprintf("must be a non-negative number, got %g", opts.Policy.Cutoff)}
	}
	stepper, err := integrators.Get(opts.Stepper)
	if err != nil {
		return nil, &dynamo.ConfigError{Field: "integrator", Reason: err.Error()}
	}

	s := sim.New(stepper)
	s.SetMaxClosingError(opts.MaxClosingError)

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Baker{
		opts:      opts,
		simulator: s,
		logger:    logger.With("integrator", stepper.Name()),
	}, nil
}

func (b *Baker) Options() Options { return b.opts }

// Bake closes, analyzes, truncates and verifies one orbit.
func (b *Baker) Bake(ctx context.Context, orbit dynamo.Orbit) (*Result, error) {
	start := time.Now()
	logger := b.logger.With("orbit", orbit.Name)

	if err := orbit.Validate(); err != nil {
		return nil, err
	}

	closed, stats, err := b.simulator.SimulateClosed(ctx, b.opts.Simulation, orbit)
	diag := Diagnostics{
		Forward:       stats.Forward,
		Backward:      stats.Backward,
		ClosingErrors: stats.BodyErrors,
	}
	if err != nil {
		var inst *dynamo.InstabilityError
		if errors.As(err, &inst) {
			logger.Warn("orbit does not close",
				"body", inst.Body,
				"closing_error", inst.Value,
				"threshold", inst.Threshold,
				"drift_forward", stats.Forward.Drift,
				"drift_backward", stats.Backward.Drift)
		}
		return nil, fmt.Errorf("orbit %q: %w", orbit.Name, err)
	}

	byBody := closed.ByBody()
	spectra, err := analysis.Analyze(byBody)
	if err != nil {
		return nil, fmt.Errorf("orbit %q: analyze: %w", orbit.Name, err)
	}

	n := len(closed)
	bodies := make([]analysis.Body, len(spectra))
	rebuilt := make([][]dynamo.Vec2, len(spectra))
	diag.Components = make([]analysis.TruncateStats, len(spectra))
	diag.ReconstructionErrors = make([]float64, len(spectra))

	for i, spectrum := range spectra {
		kept, ts := spectrum.Truncate(b.opts.Policy)
		path, err := analysis.Reconstruct(n, kept)
		if err != nil {
			return nil, fmt.Errorf("orbit %q: reconstruct body %d: %w", orbit.Name, i, err)
		}
		mse, err := dynamo.MeanSquaredError(byBody[i], path)
		if err != nil {
			return nil, fmt.Errorf("orbit %q: validate body %d: %w", orbit.Name, i, err)
		}

		bodies[i] = kept
		rebuilt[i] = path
		diag.Components[i] = ts
		diag.ReconstructionErrors[i] = mse

		logger.Debug("body baked",
			"body", i,
			"closing_error", diag.ClosingErrors[i],
			"components_before", ts.Before,
			"components_after", ts.After,
			"reconstruction_error", mse)
	}

	compressed, err := dynamo.FromBodies(rebuilt)
	if err != nil {
		return nil, fmt.Errorf("orbit %q: %w", orbit.Name, err)
	}

	baked := BakedOrbit{
		Name:   orbit.Name,
		Period: orbit.Period,
		Energy: orbit.Clone().Energy,
		Bodies: bodies,
	}
	if err := baked.CheckFinite(); err != nil {
		return nil, err
	}

	diag.Elapsed = time.Since(start)
	before, after := diag.ComponentCounts()
	logger.Info("orbit baked",
		"bodies", len(bodies),
		"samples", n,
		"closing_error", diag.MaxClosingError(),
		"energy_drift", diag.Forward.EnergyDrift,
		"min_separation", diag.Forward.MinSeparation,
		"components", fmt.Sprintf("%d/%d", after, before),
		"reconstruction_error", diag.MaxReconstructionError(),
		"elapsed", diag.Elapsed.Round(time.Millisecond))

	return &Result{
		Orbit:       baked,
		Closed:      closed,
		Compressed:  compressed,
		Diagnostics: diag,
	}, nil
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func bad(x float64) bool { return math.IsNaN(x) || math.IsInf(x, 0) }
