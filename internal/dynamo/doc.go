// Package dynamo provides the value types shared by every stage of the
// orbit pipeline.
//
//   - [Body]: mass, position and velocity of one gravitating body
//   - [Orbit]: initial conditions plus the claimed period
//   - [SimulationConfig]: sampling density of one period
//   - [Trajectory]: frame-major recorded positions
//
// A body's index inside [Orbit.Bodies] is its identity for the whole
// pipeline: simulation, analysis and reconstruction all join on it.
//
// # Thread Safety
//
// Nothing here holds shared state. [Orbit.Clone] must be used before handing
// the same orbit to two concurrent simulations.
package dynamo
