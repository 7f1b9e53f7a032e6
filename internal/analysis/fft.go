package analysis

import (
	"fmt"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/orbitbake/internal/dynamo"
)

// Analyze decomposes each body's closed path into one frequency component
// per DFT bin, in bin order. Every body must have the same number of
// samples. Bodies are transformed in parallel.
func Analyze(byBody [][]dynamo.Vec2) ([]Body, error) {
	if len(byBody) == 0 || len(byBody[0]) == 0 {
		return nil, dynamo.ErrEmptyTrajectory
	}
	n := len(byBody[0])
	for b, path := range byBody {
		if len(path) != n {
			return nil, fmt.Errorf("%w: body %d has %d samples, body 0 has %d",
				dynamo.ErrDimensionMismatch, b, len(path), n)
		}
	}

	out := make([]Body, len(byBody))
	dynamo.ParallelFor(len(byBody), 1, func(start, end int) {
		for b := start; b < end; b++ {
			out[b] = analyzePath(byBody[b])
		}
	})

	for b := range out {
		for k, c := range out[b].Components {
			if !finiteComponent(c) {
				return nil, fmt.Errorf("body %d bin %d: %w", b, k, dynamo.ErrNonFinite)
			}
		}
	}
	return out, nil
}

func analyzePath(path []dynamo.Vec2) Body {
	n := len(path)
	signal := make([]complex128, n)
	for i, p := range path {
		signal[i] = complex(p.X, p.Y)
	}

	spectrum := fft.FFT(signal)

	components := make([]FrequencyComponent, n)
	for k, x := range spectrum {
		components[k] = BinToComponent(k, x, n)
	}
	return Body{Components: components}
}

// SpectrumPoint is one bar of a power spectrum.
type SpectrumPoint struct {
	Freq      float64
	Amplitude float64
}

// PowerSpectrum returns the body's component amplitudes ordered by signed
// frequency, lowest first.
func PowerSpectrum(b Body) []SpectrumPoint {
	ps := make([]SpectrumPoint, len(b.Components))
	for i, c := range b.Components {
		ps[i] = SpectrumPoint{Freq: c.Freq, Amplitude: c.Amplitude}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Freq < ps[j].Freq })
	return ps
}

// Amplitudes extracts the amplitude column of a spectrum.
func Amplitudes(ps []SpectrumPoint) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Amplitude
	}
	return out
}
