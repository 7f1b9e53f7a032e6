// Package optim searches one-dimensional parameters, used to pin down the
// period of an orbit whose tagged period is slightly off.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/sim"
	"golang.org/x/sync/errgroup"
)

// Objective scores a candidate value; lower is better. An error drops the
// candidate without stopping the search.
type Objective func(ctx context.Context, x float64) (float64, error)

type Point struct {
	X     float64 `json:"x"`
	Score float64 `json:"score"`
}

// GridSearch evaluates Steps evenly spaced values across [Center-Span,
// Center+Span], then repeats Rounds times around the best value with the
// span shrunk to one grid spacing.
type GridSearch struct {
	Center float64
	Span   float64
	Steps  int
	Rounds int
	// Min excludes candidates at or below it.
	Min float64
}

var ErrNoCandidate = errors.New("optim: no candidate could be scored")

// Search returns the best point and every point scored, round by round in
// grid order.
func (g GridSearch) Search(ctx context.Context, obj Objective) (Point, []Point, error) {
	if g.Steps < 2 {
		return Point{}, nil, &dynamo.ConfigError{Field: "steps", Reason: "at least two grid points are required"}
	}
	if g.Span <= 0 {
		return Point{}, nil, &dynamo.ConfigError{Field: "span", Reason: "must be positive"}
	}
	rounds := g.Rounds
	if rounds < 1 {
		rounds = 1
	}

	best := Point{X: math.NaN(), Score: math.Inf(1)}
	var history []Point
	center, span := g.Center, g.Span

	for r := 0; r < rounds; r++ {
		points, err := g.round(ctx, obj, center, span)
		if err != nil {
			return best, history, err
		}
		history = append(history, points...)

		for _, p := range points {
			if p.Score < best.Score {
				best = p
			}
		}
		if math.IsNaN(best.X) {
			return best, history, ErrNoCandidate
		}

		center = best.X
		span = 2 * span / float64(g.Steps-1)
	}
	return best, history, nil
}

func (g GridSearch) round(ctx context.Context, obj Objective, center, span float64) ([]Point, error) {
	step := 2 * span / float64(g.Steps-1)
	scores := make([]float64, g.Steps)

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < g.Steps; i++ {
		x := center - span + float64(i)*step
		scores[i] = math.NaN()
		if x <= g.Min {
			continue
		}
		eg.Go(func() error {
			v, err := obj(ectx, x)
			if ctxErr := ectx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err == nil && !math.IsNaN(v) {
				scores[i] = v
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	points := make([]Point, 0, g.Steps)
	for i, v := range scores {
		if !math.IsNaN(v) {
			points = append(points, Point{X: center - span + float64(i)*step, Score: v})
		}
	}
	return points, nil
}

// ClosingError scores a candidate period by the worst forward/backward
// mismatch of the orbit simulated over it. Orbits beyond the simulator's
// closing threshold still score, so the search can climb out of them.
func ClosingError(s *sim.Simulator, cfg dynamo.SimulationConfig, orbit dynamo.Orbit) Objective {
	return func(ctx context.Context, period float64) (float64, error) {
		o := orbit.Clone()
		o.Period = period
		_, stats, err := s.SimulateClosed(ctx, cfg, o)
		if err != nil && !errors.Is(err, dynamo.ErrUnstable) {
			return 0, err
		}
		if len(stats.BodyErrors) == 0 {
			return 0, fmt.Errorf("period %v: no closing error measured", period)
		}
		_, worst := stats.MaxBodyError()
		return worst, nil
	}
}

// TunePeriod searches periods within ±frac of the orbit's own and returns
// the one that closes best.
func TunePeriod(ctx context.Context, s *sim.Simulator, cfg dynamo.SimulationConfig, orbit dynamo.Orbit, frac float64, steps, rounds int) (Point, []Point, error) {
	if err := orbit.Validate(); err != nil {
		return Point{}, nil, err
	}
	if frac <= 0 || frac >= 1 {
		return Point{}, nil, &dynamo.ConfigError{Orbit: orbit.Name, Field: "span", Reason: "must be a fraction in (0, 1)"}
	}
	g := GridSearch{
		Center: orbit.Period,
		Span:   frac * orbit.Period,
		Steps:  steps,
		Rounds: rounds,
	}
	return g.Search(ctx, ClosingError(s, cfg, orbit))
}
