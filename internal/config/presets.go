package config

import "sort"

func energy(e float64) *float64 { return &e }

// Presets are well-known periodic orbits in units where G = 1.
var Presets = map[string]OrbitConfig{
	// Chenciner-Montgomery figure-eight choreography.
	"figure-eight": {
		Name:   "figure-eight",
		Period: 6.325897,
		Energy: energy(-1.287146),
		Masses: []float64{1, 1, 1},
		Positions: [][]float64{
			{-1, 0}, {1, 0}, {0, 0},
		},
		Velocities: [][]float64{
			{0.347113, 0.532727}, {0.347113, 0.532727}, {-0.694226, -1.065454},
		},
	},
	// Equal masses on an equilateral triangle of circumradius 1 rotating
	// rigidly. Unstable, so only about one period closes cleanly.
	"lagrange": {
		Name:   "lagrange",
		Period: 8.269137,
		Energy: energy(-0.866025),
		Masses: []float64{1, 1, 1},
		Positions: [][]float64{
			{0, 1}, {-0.866025404, -0.5}, {0.866025404, -0.5},
		},
		Velocities: [][]float64{
			{-0.759835686, 0}, {0.379917843, -0.658037006}, {0.379917843, 0.658037006},
		},
	},
	"binary": {
		Name:   "binary",
		Period: 4.442883,
		Energy: energy(-0.5),
		Masses: []float64{1, 1},
		Positions: [][]float64{
			{-0.5, 0}, {0.5, 0},
		},
		Velocities: [][]float64{
			{0, -0.707106781}, {0, 0.707106781},
		},
	},
	"single": {
		Name:       "single",
		Period:     1,
		Energy:     energy(0),
		Masses:     []float64{1},
		Positions:  [][]float64{{0.5, -0.25}},
		Velocities: [][]float64{{0, 0}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *OrbitConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	orbit, err := p.ToOrbit()
	if err != nil {
		return nil
	}
	c := FromOrbit(orbit)
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
