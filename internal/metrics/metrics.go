// Package metrics observes an N-body system sample by sample and reduces
// what it sees to a single number, such as how far a conserved quantity
// wandered over a run.
package metrics

import (
	"math"

	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

type Metric interface {
	Name() string
	Observe(bodies []dynamo.Body, t float64)
	Value() float64
	Reset()
}

// Set fans every observation out to its members.
type Set []Metric

func (s Set) Observe(bodies []dynamo.Body, t float64) {
	for _, m := range s {
		m.Observe(bodies, t)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// scalarDrift tracks the largest relative departure of a scalar from its
// first observed value.
type scalarDrift struct {
	name     string
	quantity func([]dynamo.Body) float64
	initial  float64
	maxDrift float64
	samples  int
}

func (d *scalarDrift) Name() string { return d.name }

func (d *scalarDrift) Observe(bodies []dynamo.Body, t float64) {
	v := d.quantity(bodies)
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++
	d.maxDrift = math.Max(d.maxDrift, physics.RelativeDrift(d.initial, v))
}

func (d *scalarDrift) Value() float64 { return d.maxDrift }

func (d *scalarDrift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// NewEnergyDrift reports the largest relative change of total energy.
func NewEnergyDrift() Metric {
	return &scalarDrift{name: "energy_drift", quantity: physics.Energy}
}

// NewAngularMomentumDrift reports the largest relative change of angular
// momentum about the origin.
func NewAngularMomentumDrift() Metric {
	return &scalarDrift{name: "angular_momentum_drift", quantity: physics.AngularMomentum}
}

// MomentumDrift reports the largest absolute change of linear momentum,
// which is usually zero to begin with.
type MomentumDrift struct {
	initial  dynamo.Vec2
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(bodies []dynamo.Body, t float64) {
	p := physics.Momentum(bodies)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r2.Norm(r2.Sub(p, m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() { *m = MomentumDrift{} }

// MinSeparation is the closest approach of any two bodies. It stays +Inf
// with fewer than two bodies.
type MinSeparation struct {
	min float64
}

func NewMinSeparation() *MinSeparation { return &MinSeparation{min: math.Inf(1)} }

func (m *MinSeparation) Name() string { return "min_separation" }

func (m *MinSeparation) Observe(bodies []dynamo.Body, t float64) {
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			m.min = math.Min(m.min, r2.Norm(r2.Sub(bodies[i].Position, bodies[j].Position)))
		}
	}
}

func (m *MinSeparation) Value() float64 { return m.min }

func (m *MinSeparation) Reset() { m.min = math.Inf(1) }
