package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func figureEight() Orbit {
	return Orbit{
		Name: "figure-eight",
		Bodies: []Body{
			{Mass: 1, Position: Vec2{X: -1}, Velocity: Vec2{X: 0.347113, Y: 0.532727}},
			{Mass: 1, Position: Vec2{X: 1}, Velocity: Vec2{X: 0.347113, Y: 0.532727}},
			{Mass: 1, Position: Vec2{}, Velocity: Vec2{X: -0.694226, Y: -1.065454}},
		},
		Period: 6.325897,
	}
}

func TestOrbit_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Orbit)
		valid  bool
	}{
		{"figure eight", func(o *Orbit) {}, true},
		{"single body", func(o *Orbit) { o.Bodies = o.Bodies[:1] }, true},
		{"no bodies", func(o *Orbit) { o.Bodies = nil }, false},
		{"zero period", func(o *Orbit) { o.Period = 0 }, false},
		{"negative period", func(o *Orbit) { o.Period = -1 }, false},
		{"inf period", func(o *Orbit) { o.Period = math.Inf(1) }, false},
		{"zero mass", func(o *Orbit) { o.Bodies[1].Mass = 0 }, false},
		{"negative mass", func(o *Orbit) { o.Bodies[2].Mass = -3 }, false},
		{"NaN position", func(o *Orbit) { o.Bodies[0].Position.X = math.NaN() }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := figureEight()
			tt.mutate(&o)
			err := o.Validate()
			if tt.valid && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.valid {
				if err == nil {
					t.Fatal("Validate() = nil, want error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("error %v does not wrap ErrInvalidConfig", err)
				}
			}
		})
	}
}

func TestOrbit_CloneIsIndependent(t *testing.T) {
	energy := -1.28
	o := figureEight()
	o.Energy = &energy

	c := o.Clone()
	c.Bodies[0].Position.X = 42
	*c.Energy = 7

	if o.Bodies[0].Position.X != -1 {
		t.Error("Clone shares body storage with the original")
	}
	if *o.Energy != -1.28 {
		t.Error("Clone shares the energy tag with the original")
	}
}

func TestOrbit_Reversed(t *testing.T) {
	o := figureEight()
	r := o.Reversed()

	for i := range o.Bodies {
		if r.Bodies[i].Velocity.X != -o.Bodies[i].Velocity.X || r.Bodies[i].Velocity.Y != -o.Bodies[i].Velocity.Y {
			t.Errorf("body %d velocity not negated: %v", i, r.Bodies[i].Velocity)
		}
		if r.Bodies[i].Position != o.Bodies[i].Position {
			t.Errorf("body %d position changed", i)
		}
	}
	if o.Bodies[2].Velocity.X != -0.694226 {
		t.Error("Reversed mutated the original orbit")
	}
}

func TestSimulationConfig_Validate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   SimulationConfig
		valid bool
	}{
		{"default", DefaultSimulationConfig(), true},
		{"zero frames", SimulationConfig{Frames: 0, Subframes: 1, MicroSteps: 1}, false},
		{"zero subframes", SimulationConfig{Frames: 1, Subframes: 0, MicroSteps: 1}, false},
		{"zero micro steps", SimulationConfig{Frames: 1, Subframes: 1, MicroSteps: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err == nil) != tt.valid {
				t.Errorf("Validate() = %v, valid %v", err, tt.valid)
			}
		})
	}

	if got := DefaultSimulationConfig().Samples(); got != 14000 {
		t.Errorf("Samples() = %d, want 14000", got)
	}
}

func TestTrajectory_TransposeRoundTrip(t *testing.T) {
	traj := Trajectory{
		{{X: 1, Y: 2}, {X: 3, Y: 4}},
		{{X: 5, Y: 6}, {X: 7, Y: 8}},
		{{X: 9, Y: 10}, {X: 11, Y: 12}},
	}

	byBody := traj.ByBody()
	want := [][]Vec2{
		{{X: 1, Y: 2}, {X: 5, Y: 6}, {X: 9, Y: 10}},
		{{X: 3, Y: 4}, {X: 7, Y: 8}, {X: 11, Y: 12}},
	}
	if diff := cmp.Diff(want, byBody); diff != "" {
		t.Errorf("ByBody() mismatch (-want +got):\n%s", diff)
	}

	back, err := FromBodies(byBody)
	if err != nil {
		t.Fatalf("FromBodies: %v", err)
	}
	if diff := cmp.Diff(traj, back); diff != "" {
		t.Errorf("FromBodies() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromBodies_Errors(t *testing.T) {
	if _, err := FromBodies(nil); !errors.Is(err, ErrEmptyTrajectory) {
		t.Errorf("FromBodies(nil) = %v, want ErrEmptyTrajectory", err)
	}
	_, err := FromBodies([][]Vec2{{{}, {}}, {{}}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("FromBodies(ragged) = %v, want ErrDimensionMismatch", err)
	}
}

func TestTrajectory_Reverse(t *testing.T) {
	traj := Trajectory{{{X: 0}}, {{X: 1}}, {{X: 2}}, {{X: 3}}}
	traj.Reverse()
	for i, f := range traj {
		if f[0].X != float64(3-i) {
			t.Errorf("frame %d = %v, want %d", i, f[0].X, 3-i)
		}
	}
}

func TestLerp(t *testing.T) {
	a := Vec2{X: 0, Y: 2}
	b := Vec2{X: 4, Y: -2}
	if got := Lerp(a, b, 0); got != a {
		t.Errorf("Lerp(0) = %v", got)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Errorf("Lerp(1) = %v", got)
	}
	if got := Lerp(a, b, 0.25); got != (Vec2{X: 1, Y: 1}) {
		t.Errorf("Lerp(0.25) = %v", got)
	}
}

func TestFrame_IsValid(t *testing.T) {
	if !(Frame{{X: 1}, {Y: 2}}).IsValid() {
		t.Error("finite frame reported invalid")
	}
	if (Frame{{X: 1}, {Y: math.Inf(-1)}}).IsValid() {
		t.Error("frame with Inf reported valid")
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		ParallelFor(n, 3, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}

func TestErrorsUnwrap(t *testing.T) {
	err := error(&InstabilityError{Body: 1, Value: 0.5, Threshold: 1e-3})
	if !errors.Is(err, ErrUnstable) {
		t.Error("InstabilityError does not unwrap to ErrUnstable")
	}
	var inst *InstabilityError
	if !errors.As(err, &inst) || inst.Value != 0.5 {
		t.Error("errors.As failed for InstabilityError")
	}

	simErr := error(&SimulationError{Sample: 3, Time: 1.5, Wrapped: ErrNonFinite})
	if !errors.Is(simErr, ErrNonFinite) {
		t.Error("SimulationError does not unwrap")
	}
	if simErr.Error() != "sample 3 (t=1.5000): dynamo: non-finite value (NaN or Inf detected)" {
		t.Errorf("SimulationError.Error() = %q", simErr.Error())
	}
}

func TestMeanSquaredError(t *testing.T) {
	a := []Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}}
	b := []Vec2{{X: 3, Y: 4}, {X: 1, Y: 1}}

	got, err := MeanSquaredError(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got != 12.5 {
		t.Errorf("MeanSquaredError = %v, want 12.5", got)
	}

	if _, err := MeanSquaredError(a, b[:1]); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("length mismatch: got %v", err)
	}
	if _, err := MeanSquaredError(nil, nil); !errors.Is(err, ErrEmptyTrajectory) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := MeanSquaredError([]Vec2{{X: math.NaN()}}, []Vec2{{}}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("NaN: got %v", err)
	}
}
