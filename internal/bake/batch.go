package bake

import (
	"context"
	"errors"
	"runtime"

	"github.com/san-kum/orbitbake/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Source yields one orbit of a batch. Conversion errors are reported in the
// orbit's Outcome like any other failure.
type Source interface {
	ToOrbit() (dynamo.Orbit, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (dynamo.Orbit, error)

func (f SourceFunc) ToOrbit() (dynamo.Orbit, error) { return f() }

// Orbits wraps ready-made orbits as sources.
func Orbits(orbits ...dynamo.Orbit) []Source {
	out := make([]Source, len(orbits))
	for i, o := range orbits {
		out[i] = SourceFunc(func() (dynamo.Orbit, error) { return o.Clone(), nil })
	}
	return out
}

// Outcome is the result of one batch entry. Exactly one of Result and Err
// is set.
type Outcome struct {
	Index  int
	Name   string
	Result *Result
	Err    error
}

// Batch bakes every source concurrently. Outcomes are indexed like sources
// regardless of completion order, and a failing orbit never stops the
// others.
func (b *Baker) Batch(ctx context.Context, sources []Source) []Outcome {
	outcomes := make([]Outcome, len(sources))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, src := range sources {
		g.Go(func() error {
			outcomes[i] = b.bakeOne(ctx, i, src)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (b *Baker) bakeOne(ctx context.Context, i int, src Source) Outcome {
	out := Outcome{Index: i}

	orbit, err := src.ToOrbit()
	if err != nil {
		var cfgErr *dynamo.ConfigError
		if errors.As(err, &cfgErr) {
			out.Name = cfgErr.Orbit
		}
		out.Err = err
		b.logger.Error("orbit rejected", "index", i, "orbit", out.Name, "err", err)
		return out
	}
	out.Name = orbit.Name

	out.Result, out.Err = b.Bake(ctx, orbit)
	if out.Err != nil {
		b.logger.Error("orbit failed", "index", i, "orbit", out.Name, "err", out.Err)
	}
	return out
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
