package viz

import (
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitbake/internal/analysis"
)

// amplitudes below this are plotted at the floor on a log axis
const logFloor = 1e-12

type SpectrumOptions struct {
	Width, Height int
	// Log plots log10 amplitude, which keeps the small harmonics visible
	// next to the dominant ones.
	Log     bool
	Caption string
}

func DefaultSpectrumOptions() SpectrumOptions {
	return SpectrumOptions{Width: 60, Height: 12, Log: true}
}

// SpectrumPlot renders a body's component amplitudes ordered by signed
// frequency.
func SpectrumPlot(body analysis.Body, opts SpectrumOptions) string {
	ps := analysis.PowerSpectrum(body)
	if len(ps) == 0 {
		return Subtle.Render("no components")
	}

	vals := analysis.Amplitudes(ps)
	if opts.Log {
		for i, v := range vals {
			vals[i] = math.Log10(math.Max(v, logFloor))
		}
	}
	// a single point cannot be drawn as a line
	if len(vals) == 1 {
		vals = append(vals, vals[0])
	}

	graphOpts := []asciigraph.Option{asciigraph.Precision(3)}
	if opts.Width > 0 {
		graphOpts = append(graphOpts, asciigraph.Width(opts.Width))
	}
	if opts.Height > 0 {
		graphOpts = append(graphOpts, asciigraph.Height(opts.Height))
	}
	if opts.Caption != "" {
		graphOpts = append(graphOpts, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.Plot(vals, graphOpts...)
}
