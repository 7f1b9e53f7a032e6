// Package physics implements planar Newtonian gravity for a handful of
// bodies with G = 1.
//
//   - [ApplyForces]: pairwise kick from a single position snapshot
//   - [Drift]: position update from current velocities
//   - [Step]: kick then drift (symplectic Euler)
//   - [Energy], [Momentum], [AngularMomentum]: conserved quantities, used
//     only as diagnostics
//
// # Energy Conservation
//
// The kick/drift split is symplectic, so energy oscillates around its
// initial value instead of drifting:
//
//	e0 := physics.Energy(bodies)
//	for i := 0; i < n; i++ {
//	    physics.Step(dt, bodies)
//	}
//	drift := physics.RelativeDrift(e0, physics.Energy(bodies))
package physics
