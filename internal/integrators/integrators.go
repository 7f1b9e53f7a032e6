// Package integrators advances a body list by one fixed time step.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbitbake/internal/dynamo"
)

// Default is the integrator used when none is configured.
const Default = "symplectic"

// Stepper advances bodies in place by exactly one step of dt. Implementations
// hold no state between calls, so one value may be shared by concurrent
// simulations working on distinct body slices.
type Stepper interface {
	Name() string
	Step(dt float64, bodies []dynamo.Body)
}

var registry = map[string]func() Stepper{
	"symplectic": func() Stepper { return NewSymplecticEuler() },
	"leapfrog":   func() Stepper { return NewLeapfrog() },
}

// Get returns the named stepper. An empty name selects Default.
func Get(name string) (Stepper, error) {
	if name == "" {
		name = Default
	}
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
