// Package viz renders baked orbits in the terminal.
//
//   - [Canvas]: braille dot canvas with a world-space [Viewport]
//   - [Player]: Bubble Tea model that loops a closed trajectory
//   - [SpectrumPlot]: asciigraph plot of a body's frequency components
//   - [SummaryTable]: lipgloss table of batch outcomes
//
// # Player keys
//
//	Space - Pause/Resume
//	+/-   - Double/halve playback speed
//	←/→   - Step one frame while paused
//	R     - Restart from the first frame
//	Q     - Quit
package viz
