// Package storage keeps baked runs on disk, one directory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/orbitbake/internal/analysis"
	"github.com/san-kum/orbitbake/internal/bake"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"github.com/san-kum/orbitbake/internal/integrators"
)

const (
	metadataFile   = "metadata.json"
	componentsFile = "components.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Timestamp   time.Time               `json:"timestamp"`
	Period      float64                 `json:"period"`
	Energy      *float64                `json:"energy,omitempty"`
	Integrator  string                  `json:"integrator"`
	Frames      int                     `json:"frames"`
	Subframes   int                     `json:"subframes"`
	MicroSteps  int                     `json:"micro_steps"`
	Policy      analysis.TruncatePolicy `json:"policy"`
	Bodies      int                     `json:"bodies"`
	Diagnostics bake.Diagnostics        `json:"diagnostics"`
}

// Save writes the run's metadata and its truncated components under a new
// random ID and returns that ID.
func (s *Store) Save(result *bake.Result, opts bake.Options) (string, error) {
	if err := result.Orbit.CheckFinite(); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	integrator := opts.Stepper
	if integrator == "" {
		integrator = integrators.Default
	}
	meta := RunMetadata{
		ID:          runID,
		Name:        result.Orbit.Name,
		Timestamp:   time.Now(),
		Period:      result.Orbit.Period,
		Energy:      result.Orbit.Energy,
		Integrator:  integrator,
		Frames:      opts.Simulation.Frames,
		Subframes:   opts.Simulation.Subframes,
		MicroSteps:  opts.Simulation.MicroSteps,
		Policy:      opts.Policy,
		Bodies:      len(result.Orbit.Bodies),
		Diagnostics: result.Diagnostics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeComponents(filepath.Join(runDir, componentsFile), result.Orbit.Bodies); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeComponents(path string, bodies []analysis.Body) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"body", "index", "freq", "amplitude", "phase"}); err != nil {
		return err
	}

	for b, body := range bodies {
		for k, c := range body.Components {
			row := []string{
				strconv.Itoa(b),
				strconv.Itoa(k),
				strconv.FormatFloat(c.Freq, 'g', -1, 64),
				strconv.FormatFloat(c.Amplitude, 'g', -1, 64),
				strconv.FormatFloat(c.Phase, 'g', -1, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) runDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadComponents reads back the truncated frequency set of every body.
func (s *Store) LoadComponents(runID string) ([]analysis.Body, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, componentsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var bodies []analysis.Body
	for i := 1; i < len(records); i++ {
		record := records[i]

		body, err := strconv.Atoi(record[0])
		if err != nil || body < 0 {
			return nil, fmt.Errorf("%s line %d: bad body index %q", componentsFile, i+1, record[0])
		}

		var vals [3]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j+2], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", componentsFile, i+1, err)
			}
		}

		for len(bodies) <= body {
			bodies = append(bodies, analysis.Body{})
		}
		bodies[body].Components = append(bodies[body].Components, analysis.FrequencyComponent{
			Freq:      vals[0],
			Amplitude: vals[1],
			Phase:     vals[2],
		})
	}

	return bodies, nil
}

// LoadOrbit rebuilds the baked orbit of a run from its metadata and
// components.
func (s *Store) LoadOrbit(runID string) (bake.BakedOrbit, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return bake.BakedOrbit{}, err
	}
	bodies, err := s.LoadComponents(runID)
	if err != nil {
		return bake.BakedOrbit{}, err
	}
	for len(bodies) < meta.Bodies {
		bodies = append(bodies, analysis.Body{})
	}
	if len(bodies) != meta.Bodies {
		return bake.BakedOrbit{}, fmt.Errorf("run %s: %w: %d bodies in components, %d in metadata",
			runID, dynamo.ErrDimensionMismatch, len(bodies), meta.Bodies)
	}

	return bake.BakedOrbit{
		Name:   meta.Name,
		Period: meta.Period,
		Energy: meta.Energy,
		Bodies: bodies,
	}, nil
}
