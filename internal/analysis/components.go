package analysis

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/orbitbake/internal/dynamo"
)

// FrequencyComponent is one rotating phasor of a body's closed path. Freq is
// in revolutions per period and may be negative (clockwise).
type FrequencyComponent struct {
	Freq      float64 `json:"freq" yaml:"freq"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
	Phase     float64 `json:"phase" yaml:"phase"`
}

// Sample evaluates the component at t in [0, 1).
func (c FrequencyComponent) Sample(t float64) dynamo.Vec2 {
	theta := 2*math.Pi*t*c.Freq + c.Phase
	return dynamo.Vec2{
		X: c.Amplitude * math.Cos(-theta),
		Y: c.Amplitude * math.Sin(-theta),
	}
}

// IsDC reports whether the component is the constant offset.
func (c FrequencyComponent) IsDC() bool { return c.Freq == 0 }

// Body is the frequency decomposition of one body's path.
type Body struct {
	Components []FrequencyComponent `json:"frequencies" yaml:"frequencies"`
}

// Sample evaluates the sum of all components at t.
func (b Body) Sample(t float64) dynamo.Vec2 {
	var p dynamo.Vec2
	for _, c := range b.Components {
		s := c.Sample(t)
		p.X += s.X
		p.Y += s.Y
	}
	return p
}

// BinToComponent converts DFT bin k of an n-point transform. Bins below n/2
// (integer division) map to negative frequencies, the rest fold back to
// positive ones. For even n the components span (-n/2, n/2]; for odd n bin
// n/2 folds to n-n/2, one past the middle. Either way each frequency is an
// alias of its bin at the sample instants, so reconstruction is exact.
func BinToComponent(k int, x complex128, n int) FrequencyComponent {
	var freq float64
	switch {
	case k == 0:
		freq = 0
	case k < n/2:
		freq = -float64(k)
	default:
		freq = float64(n - k)
	}

	phase := math.Atan2(-imag(x), real(x))
	if phase <= -math.Pi {
		phase += 2 * math.Pi
	}

	return FrequencyComponent{
		Freq:      freq,
		Amplitude: cmplx.Abs(x) / float64(n),
		Phase:     phase,
	}
}

// TruncatePolicy selects which components survive truncation.
type TruncatePolicy struct {
	// Cutoff is exclusive: a component is kept only if its amplitude is
	// strictly greater.
	Cutoff float64 `json:"cutoff" yaml:"cutoff"`
	// KeepDC retains the constant offset regardless of its amplitude.
	KeepDC bool `json:"keep_dc" yaml:"keep_dc"`
}

// DefaultPolicy keeps every component above 0.001 and always keeps DC.
var DefaultPolicy = TruncatePolicy{Cutoff: 0.001, KeepDC: true}

type TruncateStats struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Truncate returns a copy of b holding only the components the policy
// keeps, in their original order.
func (b Body) Truncate(p TruncatePolicy) (Body, TruncateStats) {
	kept := make([]FrequencyComponent, 0, len(b.Components))
	for _, c := range b.Components {
		if c.Amplitude > p.Cutoff || (p.KeepDC && c.IsDC()) {
			kept = append(kept, c)
		}
	}
	return Body{Components: kept}, TruncateStats{Before: len(b.Components), After: len(kept)}
}
