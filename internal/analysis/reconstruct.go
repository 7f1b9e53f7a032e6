package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/orbitbake/internal/dynamo"
)

// Reconstruct evaluates the body's components at frames evenly spaced
// points of one period, t = i/frames.
func Reconstruct(frames int, b Body) ([]dynamo.Vec2, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("%w: frames must be positive, got %d", dynamo.ErrInvalidConfig, frames)
	}

	out := make([]dynamo.Vec2, frames)
	for i := range out {
		t := float64(i) / float64(frames)
		p := b.Sample(t)
		if !dynamo.VecIsFinite(p) {
			return nil, fmt.Errorf("sample %d: %w", i, dynamo.ErrNonFinite)
		}
		out[i] = p
	}
	return out, nil
}

// ReconstructionError reconstructs b at len(original) samples and returns
// the mean squared distance to original.
func ReconstructionError(original []dynamo.Vec2, b Body) (float64, error) {
	if len(original) == 0 {
		return 0, dynamo.ErrEmptyTrajectory
	}
	rebuilt, err := Reconstruct(len(original), b)
	if err != nil {
		return 0, err
	}
	return dynamo.MeanSquaredError(original, rebuilt)
}

func finiteComponent(c FrequencyComponent) bool {
	for _, v := range []float64{c.Freq, c.Amplitude, c.Phase} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
