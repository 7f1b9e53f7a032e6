package dynamo

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// MeanSquaredError is the mean over samples of the squared distance between
// paired positions. It is the error measure used both for closing an orbit
// and for validating a reconstruction.
func MeanSquaredError(a, b []Vec2) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d samples", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrEmptyTrajectory
	}

	sum := 0.0
	for i := range a {
		sum += r2.Norm2(r2.Sub(a[i], b[i]))
	}
	mse := sum / float64(len(a))
	if !finite(mse) {
		return 0, ErrNonFinite
	}
	return mse, nil
}
