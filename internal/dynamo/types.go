package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMicroSteps is the number of integrator steps taken between two
// recorded samples. It bounds per-sample integration error and is fixed so
// that repeated runs over the same inputs are bit-for-bit reproducible.
const DefaultMicroSteps = 10000

// Vec2 is a position or velocity in the orbital plane.
type Vec2 = r2.Vec

type Body struct {
	Mass     float64
	Position Vec2
	Velocity Vec2
}

func (b Body) IsValid() bool {
	return finite(b.Mass) && VecIsFinite(b.Position) && VecIsFinite(b.Velocity)
}

// Orbit is a set of bodies together with the period after which they are
// claimed to return to their initial state. Energy is an opaque tag carried
// through to export and never used in computation.
type Orbit struct {
	Name   string
	Bodies []Body
	Period float64
	Energy *float64
}

// Clone returns a deep copy so that simulations never alias each other's
// body slices.
func (o Orbit) Clone() Orbit {
	c := o
	c.Bodies = make([]Body, len(o.Bodies))
	copy(c.Bodies, o.Bodies)
	if o.Energy != nil {
		e := *o.Energy
		c.Energy = &e
	}
	return c
}

// Reversed returns a clone with every velocity negated. Integrating it
// forward in time traces the original orbit backwards.
func (o Orbit) Reversed() Orbit {
	c := o.Clone()
	for i := range c.Bodies {
		c.Bodies[i].Velocity = r2.Scale(-1, c.Bodies[i].Velocity)
	}
	return c
}

func (o Orbit) Validate() error {
	if len(o.Bodies) == 0 {
		return &ConfigError{Orbit: o.Name, Field: "bodies", Reason: "at least one body is required"}
	}
	if !finite(o.Period) || o.Period <= 0 {
		return &ConfigError{Orbit: o.Name, Field: "period", Reason: fmt.Sprintf("must be positive, got %g", o.Period)}
	}
	for i, b := range o.Bodies {
		if !b.IsValid() {
			return &ConfigError{Orbit: o.Name, Field: fmt.Sprintf("bodies[%d]", i), Reason: "non-finite value"}
		}
		if b.Mass <= 0 {
			return &ConfigError{Orbit: o.Name, Field: fmt.Sprintf("masses[%d]", i), Reason: fmt.Sprintf("must be positive, got %g", b.Mass)}
		}
	}
	return nil
}

func (o Orbit) Positions() Frame {
	return Positions(o.Bodies)
}

// SimulationConfig controls how finely one period is sampled. Frames and
// Subframes only matter to rendering; their product is the number of
// recorded samples after the initial one.
type SimulationConfig struct {
	Frames     int
	Subframes  int
	MicroSteps int
}

func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Frames:     140,
		Subframes:  100,
		MicroSteps: DefaultMicroSteps,
	}
}

func (c SimulationConfig) Samples() int {
	return c.Frames * c.Subframes
}

func (c SimulationConfig) Validate() error {
	if c.Frames <= 0 {
		return &ConfigError{Field: "frames", Reason: fmt.Sprintf("must be positive, got %d", c.Frames)}
	}
	if c.Subframes <= 0 {
		return &ConfigError{Field: "subframes", Reason: fmt.Sprintf("must be positive, got %d", c.Subframes)}
	}
	if c.MicroSteps <= 0 {
		return &ConfigError{Field: "micro_steps", Reason: fmt.Sprintf("must be positive, got %d", c.MicroSteps)}
	}
	return nil
}

// Frame holds one position per body, indexed like Orbit.Bodies.
type Frame []Vec2

func (f Frame) Clone() Frame {
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

func (f Frame) IsValid() bool {
	for _, p := range f {
		if !VecIsFinite(p) {
			return false
		}
	}
	return true
}

// Trajectory is frame-major: Trajectory[frame][body].
type Trajectory []Frame

// ByBody transposes the trajectory to body-major order: result[body][frame].
func (t Trajectory) ByBody() [][]Vec2 {
	if len(t) == 0 {
		return nil
	}
	out := make([][]Vec2, len(t[0]))
	for b := range out {
		out[b] = make([]Vec2, 0, len(t))
	}
	for _, frame := range t {
		for b := range out {
			out[b] = append(out[b], frame[b])
		}
	}
	return out
}

// FromBodies is the inverse of ByBody. All per-body sequences must have the
// same length.
func FromBodies(byBody [][]Vec2) (Trajectory, error) {
	if len(byBody) == 0 {
		return nil, ErrEmptyTrajectory
	}
	n := len(byBody[0])
	for i, seq := range byBody {
		if len(seq) != n {
			return nil, fmt.Errorf("%w: body %d has %d samples, body 0 has %d", ErrDimensionMismatch, i, len(seq), n)
		}
	}
	out := make(Trajectory, n)
	for f := range out {
		frame := make(Frame, len(byBody))
		for b := range byBody {
			frame[b] = byBody[b][f]
		}
		out[f] = frame
	}
	return out, nil
}

func (t Trajectory) Reverse() {
	for i, j := 0, len(t)-1; i < j; i, j = i+1, j-1 {
		t[i], t[j] = t[j], t[i]
	}
}

func Positions(bodies []Body) Frame {
	f := make(Frame, len(bodies))
	for i, b := range bodies {
		f[i] = b.Position
	}
	return f
}

// Lerp interpolates from a (w=0) to b (w=1).
func Lerp(a, b Vec2, w float64) Vec2 {
	return r2.Add(a, r2.Scale(w, r2.Sub(b, a)))
}

func VecIsFinite(v Vec2) bool {
	return finite(v.X) && finite(v.Y)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
