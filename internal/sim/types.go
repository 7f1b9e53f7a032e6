package sim

// RunStats are diagnostics of a single forward simulation. None of them
// fails the run; a large Drift means the period and initial conditions do
// not describe a periodic orbit.
type RunStats struct {
	// Drift is the mean squared distance between first and last sample.
	Drift float64 `json:"drift"`
	// EnergyDrift and AngularMomentumDrift are the largest relative changes
	// seen at any sample; MomentumDrift is absolute.
	EnergyDrift          float64 `json:"energy_drift"`
	AngularMomentumDrift float64 `json:"angular_momentum_drift"`
	MomentumDrift        float64 `json:"momentum_drift"`
	// MinSeparation is the closest approach of any two bodies, zero for a
	// single body.
	MinSeparation float64 `json:"min_separation"`
	Steps         int     `json:"steps"`
}

// ClosedStats are diagnostics of SimulateClosed.
type ClosedStats struct {
	Forward  RunStats `json:"forward"`
	Backward RunStats `json:"backward"`
	// BodyErrors holds, per body, the mean squared distance between the
	// forward and the time-reversed backward trajectories before blending.
	BodyErrors []float64 `json:"body_errors"`
}

// MaxBodyError returns the largest closing error and its body index.
func (s ClosedStats) MaxBodyError() (int, float64) {
	idx, max := -1, 0.0
	for i, e := range s.BodyErrors {
		if idx < 0 || e > max {
			idx, max = i, e
		}
	}
	return idx, max
}
