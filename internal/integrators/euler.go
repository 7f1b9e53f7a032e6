package integrators

import (
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/physics"
)

// SymplecticEuler kicks every velocity from one position snapshot, then
// drifts every position with the kicked velocities.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (e *SymplecticEuler) Name() string { return "symplectic" }

func (e *SymplecticEuler) Step(dt float64, bodies []dynamo.Body) {
	physics.Step(dt, bodies)
}
