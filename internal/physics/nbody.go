package physics

import (
	"math"

	"github.com/san-kum/orbitbake/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// G is the gravitational constant. Orbits are expressed in units where it
// is one.
const G = 1.0

// ApplyForces kicks every body's velocity by dt worth of pairwise Newtonian
// attraction. Positions are only read, so every pair sees the same snapshot.
// Each pair receives equal and opposite impulses.
//
// Coincident bodies divide by zero; the resulting NaN/Inf is caught by the
// simulator's finite check rather than here.
func ApplyForces(dt float64, bodies []dynamo.Body) {
	n := len(bodies)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			impulse := PairImpulse(dt, bodies[i], bodies[j])
			bodies[i].Velocity = r2.Sub(bodies[i].Velocity, r2.Scale(1/bodies[i].Mass, impulse))
			bodies[j].Velocity = r2.Add(bodies[j].Velocity, r2.Scale(1/bodies[j].Mass, impulse))
		}
	}
}

// PairImpulse returns dt*F along the unit separation a-b, where F is the
// magnitude G*ma*mb/|a-b|². Body a loses it, body b gains it.
func PairImpulse(dt float64, a, b dynamo.Body) dynamo.Vec2 {
	delta := r2.Sub(a.Position, b.Position)
	dist2 := r2.Norm2(delta)
	force := G * a.Mass * b.Mass / dist2
	return r2.Scale(dt*force/math.Sqrt(dist2), delta)
}

// Drift advances every position by its velocity.
func Drift(dt float64, bodies []dynamo.Body) {
	for i := range bodies {
		bodies[i].Position = r2.Add(bodies[i].Position, r2.Scale(dt, bodies[i].Velocity))
	}
}

// Step advances the system by one symplectic Euler step: all forces from
// the current positions, then all positions from the updated velocities.
func Step(dt float64, bodies []dynamo.Body) {
	ApplyForces(dt, bodies)
	Drift(dt, bodies)
}

// Energy returns kinetic plus potential energy.
func Energy(bodies []dynamo.Body) float64 {
	ke := 0.0
	pe := 0.0

	for i, b := range bodies {
		ke += 0.5 * b.Mass * r2.Norm2(b.Velocity)

		for j := i + 1; j < len(bodies); j++ {
			r := r2.Norm(r2.Sub(bodies[j].Position, b.Position))
			pe -= G * b.Mass * bodies[j].Mass / r
		}
	}

	return ke + pe
}

func Momentum(bodies []dynamo.Body) dynamo.Vec2 {
	var p dynamo.Vec2
	for _, b := range bodies {
		p = r2.Add(p, r2.Scale(b.Mass, b.Velocity))
	}
	return p
}

func AngularMomentum(bodies []dynamo.Body) float64 {
	L := 0.0
	for _, b := range bodies {
		L += b.Mass * r2.Cross(b.Position, b.Velocity)
	}
	return L
}

// RelativeDrift is |after-before|/|before|, or the absolute change when
// before is zero.
func RelativeDrift(before, after float64) float64 {
	if before == 0 {
		return math.Abs(after)
	}
	return math.Abs(after-before) / math.Abs(before)
}
