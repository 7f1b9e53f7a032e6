package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the orbit pipeline.
var (
	// ErrInvalidConfig indicates orbit or simulation parameters that must be
	// rejected before any work starts.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnstable indicates the forward and backward simulations disagree,
	// i.e. the initial conditions are not periodic with the stated period.
	ErrUnstable = errors.New("dynamo: simulation unstable (forward/backward mismatch)")

	// ErrNonFinite indicates NaN or Inf in a position, sample or exported field.
	ErrNonFinite = errors.New("dynamo: non-finite value (NaN or Inf detected)")

	// ErrDimensionMismatch indicates sequences that should line up do not.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrEmptyTrajectory indicates a trajectory with no frames or no bodies.
	ErrEmptyTrajectory = errors.New("dynamo: empty trajectory")
)

// ConfigError names the offending field of an invalid configuration.
type ConfigError struct {
	Orbit  string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Orbit != "" {
		return fmt.Sprintf("orbit %q: %s: %s", e.Orbit, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// InstabilityError reports the closing error that exceeded the threshold.
type InstabilityError struct {
	Body      int
	Value     float64
	Threshold float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("%v: body %d closing error %.3e exceeds %.3e", ErrUnstable, e.Body, e.Value, e.Threshold)
}

func (e *InstabilityError) Unwrap() error {
	return ErrUnstable
}

// SimulationError wraps an error with the sample at which it occurred.
type SimulationError struct {
	Sample  int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("sample %d (t=%.4f): %v", e.Sample, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
