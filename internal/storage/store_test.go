package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/bake"
	"github.com/san-kum/orbitbake/internal/dynamo"
)

func testResult(name string) *bake.Result {
	energy := -0.5
	return &bake.Result{
		Orbit: bake.BakedOrbit{
			Name:   name,
			Period: 4.442883,
			Energy: &energy,
			Bodies: []analysis.Body{
				{Components: []analysis.FrequencyComponent{
					{Freq: 0, Amplitude: 1e-17, Phase: 0.3},
					{Freq: -1, Amplitude: 0.5, Phase: -math.Pi / 3},
				}},
				{Components: []analysis.FrequencyComponent{
					{Freq: -1, Amplitude: 0.5, Phase: 2 * math.Pi / 3},
				}},
			},
		},
		Diagnostics: bake.Diagnostics{
			ClosingErrors:        []float64{1e-7, 2e-7},
			Components:           []analysis.TruncateStats{{Before: 200, After: 2}, {Before: 200, After: 1}},
			ReconstructionErrors: []float64{3e-9, 4e-9},
			Elapsed:              1500 * time.Millisecond,
		},
	}
}

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(filepath.Join(t.TempDir(), "runs"))
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st
}

func TestStoreSaveLoad(t *testing.T) {
	st := newStore(t)
	opts := bake.DefaultOptions()
	opts.Stepper = ""

	runID, err := st.Save(testResult("binary"), opts)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a uuid", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Name != "binary" || meta.Bodies != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Integrator != "symplectic" {
		t.Errorf("expected default integrator, got %q", meta.Integrator)
	}
	if meta.Frames != 140 || meta.MicroSteps != dynamo.DefaultMicroSteps {
		t.Errorf("simulation settings not stored: %+v", meta)
	}
	if meta.Energy == nil || *meta.Energy != -0.5 {
		t.Errorf("energy = %v", meta.Energy)
	}
	if diff := cmp.Diff(testResult("binary").Diagnostics, meta.Diagnostics); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}

	bodies, err := st.LoadComponents(runID)
	if err != nil {
		t.Fatalf("load components failed: %v", err)
	}
	if diff := cmp.Diff(testResult("binary").Orbit.Bodies, bodies); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}

	orbit, err := st.LoadOrbit(runID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(testResult("binary").Orbit, orbit); diff != "" {
		t.Errorf("orbit mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreLoadOrbit_EmptyBody(t *testing.T) {
	st := newStore(t)
	res := testResult("sparse")
	res.Orbit.Bodies = append(res.Orbit.Bodies, analysis.Body{})

	runID, err := st.Save(res, bake.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	orbit, err := st.LoadOrbit(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(orbit.Bodies) != 3 || len(orbit.Bodies[2].Components) != 0 {
		t.Errorf("trailing empty body lost: %+v", orbit.Bodies)
	}
}

func TestStoreSave_RejectsNonFinite(t *testing.T) {
	st := newStore(t)
	res := testResult("bad")
	res.Orbit.Bodies[1].Components[0].Phase = math.Inf(1)

	if _, err := st.Save(res, bake.DefaultOptions()); !errors.Is(err, dynamo.ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	runs, _ := st.List()
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreList(t *testing.T) {
	st := newStore(t)

	first, err := st.Save(testResult("first"), bake.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := st.Save(testResult("second"), bake.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	// stray entries are ignored
	if err := os.Mkdir(filepath.Join(st.baseDir, "not-a-run"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(st.baseDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("runs not newest first: %s, %s", runs[0].Name, runs[1].Name)
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty list, got %d", len(runs))
	}
}

func TestStoreLoad_Errors(t *testing.T) {
	st := newStore(t)

	if _, err := st.Load("../../etc"); err == nil {
		t.Error("expected error for non-uuid id")
	}
	if _, err := st.Load(uuid.NewString()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist, got %v", err)
	}

	runID, err := st.Save(testResult("corrupt"), bake.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(st.baseDir, runID, componentsFile)
	if err := os.WriteFile(path, []byte("body,index,freq,amplitude,phase\n0,0,x,1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadComponents(runID); err == nil {
		t.Error("expected parse error")
	}
}
