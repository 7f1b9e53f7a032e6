package integrators

import (
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/physics"
)

// Leapfrog is the kick-drift-kick scheme. Unlike SymplecticEuler it is
// exactly time-reversible, which tightens the forward/backward agreement
// when closing an orbit.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Step(dt float64, bodies []dynamo.Body) {
	halfDt := dt * 0.5
	physics.ApplyForces(halfDt, bodies)
	physics.Drift(dt, bodies)
	physics.ApplyForces(halfDt, bodies)
}
