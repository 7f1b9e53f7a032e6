// Package analysis turns a closed orbit into a truncated Fourier series and
// back.
//
// Each body's path is read as a complex signal x + iy and transformed with
// a discrete Fourier transform of arbitrary length. Every bin becomes a
// [FrequencyComponent], a phasor of fixed amplitude rotating Freq times per
// period:
//
//	bodies, err := analysis.Analyze(trajectory.ByBody())
//	small, stats := bodies[0].Truncate(analysis.DefaultPolicy)
//	path, err := analysis.Reconstruct(len(trajectory), small)
//
// Without truncation the reconstruction reproduces the input samples up to
// rounding. The squared error introduced by truncation equals the summed
// squared amplitude of the dropped components, so it never decreases as the
// cutoff rises.
package analysis
