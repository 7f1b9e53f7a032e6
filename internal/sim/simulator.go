package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/integrators"
	"github.com/san-kum/orbitbake/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxClosingError is the largest forward/backward mean squared
// mismatch SimulateClosed accepts for any body.
const DefaultMaxClosingError = 1e-3

type Simulator struct {
	stepper         integrators.Stepper
	maxClosingError float64
}

func New(stepper integrators.Stepper) *Simulator {
	if stepper == nil {
		stepper = integrators.NewSymplecticEuler()
	}
	return &Simulator{
		stepper:         stepper,
		maxClosingError: DefaultMaxClosingError,
	}
}

// SetMaxClosingError overrides DefaultMaxClosingError. Non-positive values
// restore the default.
func (s *Simulator) SetMaxClosingError(v float64) {
	if v <= 0 {
		v = DefaultMaxClosingError
	}
	s.maxClosingError = v
}

func (s *Simulator) MaxClosingError() float64 { return s.maxClosingError }

// Simulate integrates one period of the orbit and records Samples()+1
// frames, the first being the initial positions. The orbit itself is never
// mutated.
func (s *Simulator) Simulate(ctx context.Context, cfg dynamo.SimulationConfig, orbit dynamo.Orbit) (dynamo.Trajectory, RunStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, RunStats{}, err
	}
	if err := orbit.Validate(); err != nil {
		return nil, RunStats{}, err
	}

	samples := cfg.Samples()
	timestep := orbit.Period / float64(samples)
	dt := timestep / float64(cfg.MicroSteps)

	bodies := orbit.Clone().Bodies
	history := make(dynamo.Trajectory, 0, samples+1)
	history = append(history, dynamo.Positions(bodies))

	var (
		energy     = metrics.NewEnergyDrift()
		angular    = metrics.NewAngularMomentumDrift()
		momentum   = metrics.NewMomentumDrift()
		separation = metrics.NewMinSeparation()
		monitors   = metrics.Set{energy, angular, momentum, separation}
	)
	monitors.Observe(bodies, 0)
	stats := RunStats{}

	for i := 0; i < samples; i++ {
		select {
		case <-ctx.Done():
			return nil, stats, ctx.Err()
		default:
		}

		for j := 0; j < cfg.MicroSteps; j++ {
			s.stepper.Step(dt, bodies)
		}
		stats.Steps += cfg.MicroSteps

		frame := dynamo.Positions(bodies)
		if !frame.IsValid() {
			return nil, stats, &dynamo.SimulationError{
				Sample:  i + 1,
				Time:    float64(i+1) * timestep,
				Wrapped: dynamo.ErrNonFinite,
			}
		}
		history = append(history, frame)
		monitors.Observe(bodies, float64(i+1)*timestep)
	}

	drift, err := dynamo.MeanSquaredError(history[0], history[len(history)-1])
	if err != nil {
		return nil, stats, fmt.Errorf("start-end drift: %w", err)
	}
	stats.Drift = drift
	stats.EnergyDrift = energy.Value()
	stats.AngularMomentumDrift = angular.Value()
	stats.MomentumDrift = momentum.Value()
	if sep := separation.Value(); !math.IsInf(sep, 1) {
		stats.MinSeparation = sep
	}

	return history, stats, nil
}

// SimulateClosed returns exactly one seam-free period of Samples() frames.
//
// The orbit is simulated forward and, concurrently, forward from the same
// state with negated velocities. The backward run is reversed so both run in
// the same direction, the duplicated end sample of each is dropped, and the
// two are cross-faded from pure forward at the first frame to pure backward
// at the last. Any body whose forward/backward mismatch exceeds the closing
// threshold fails the whole orbit with *dynamo.InstabilityError; the stats
// are still returned so the mismatch can be reported.
func (s *Simulator) SimulateClosed(ctx context.Context, cfg dynamo.SimulationConfig, orbit dynamo.Orbit) (dynamo.Trajectory, ClosedStats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, ClosedStats{}, err
	}
	if err := orbit.Validate(); err != nil {
		return nil, ClosedStats{}, err
	}

	forwardOrbit := orbit.Clone()
	backwardOrbit := orbit.Reversed()

	var (
		forwards, backwards dynamo.Trajectory
		stats               ClosedStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forwards, stats.Forward, err = s.Simulate(gctx, cfg, forwardOrbit)
		if err != nil {
			return fmt.Errorf("forward simulation: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		backwards, stats.Backward, err = s.Simulate(gctx, cfg, backwardOrbit)
		if err != nil {
			return fmt.Errorf("backward simulation: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	backwards.Reverse()

	// both runs end where they started; dropping the last sample divides
	// the period evenly into frame_num intervals
	forwards = forwards[:len(forwards)-1]
	backwards = backwards[:len(backwards)-1]

	fwdByBody := forwards.ByBody()
	bwdByBody := backwards.ByBody()
	stats.BodyErrors = make([]float64, len(fwdByBody))
	for b := range fwdByBody {
		e, err := dynamo.MeanSquaredError(fwdByBody[b], bwdByBody[b])
		if err != nil {
			return nil, stats, fmt.Errorf("closing error for body %d: %w", b, err)
		}
		stats.BodyErrors[b] = e
	}
	if body, worst := stats.MaxBodyError(); worst > s.maxClosingError {
		return nil, stats, &dynamo.InstabilityError{Body: body, Value: worst, Threshold: s.maxClosingError}
	}

	return Blend(forwards, backwards), stats, nil
}

// Blend cross-fades two equally long trajectories frame by frame. The
// weight rises linearly from 0 (all a) at the first frame to 1 (all b) at
// the last.
func Blend(a, b dynamo.Trajectory) dynamo.Trajectory {
	n := len(a)
	out := make(dynamo.Trajectory, n)
	for i := range a {
		w := 0.0
		if n > 1 {
			w = float64(i) / float64(n-1)
		}

		frame := make(dynamo.Frame, len(a[i]))
		for body := range a[i] {
			frame[body] = dynamo.Lerp(a[i][body], b[i][body], w)
		}
		out[i] = frame
	}
	return out
}
