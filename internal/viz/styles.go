package viz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/orbitbake/internal/bake"
	"github.com/san-kum/orbitbake/internal/dynamo"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// BodyColors matches the red, green, blue order used by the GIF and SVG
// renderers.
var BodyColors = []lipgloss.Color{"#ff5555", "#55ff55", "#5599ff"}

// BodyStyle returns the foreground style for body i.
func BodyStyle(i int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(BodyColors[i%len(BodyColors)])
}

// Metric renders a "label value" pair.
func Metric(label, value string) string {
	return MetricLabel.Render(label+" ") + MetricValue.Render(value)
}

// HealthBar shows how much of the closing budget an error uses. A full
// green bar is a perfect close, an empty red one is at or over threshold.
func HealthBar(value, threshold float64, width int) string {
	health := 1.0
	if threshold > 0 {
		health = 1 - value/threshold
	}
	filled := int(health * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case health > 0.8:
		return barHigh.Render(bar)
	case health > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// SummaryTable renders one row per batch outcome.
func SummaryTable(outcomes []bake.Outcome) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("ORBIT", "STATUS", "BODIES", "COMPONENTS", "CLOSING", "RECONSTRUCTION", "TIME")

	for _, o := range outcomes {
		name := o.Name
		if name == "" {
			name = fmt.Sprintf("#%d", o.Index)
		}
		if o.Err != nil {
			t.Row(name, StatusFailed.Render(failureLabel(o.Err)), "-", "-", "-", "-", "-")
			continue
		}
		d := o.Result.Diagnostics
		before, after := d.ComponentCounts()
		t.Row(
			name,
			StatusRunning.Render("ok"),
			fmt.Sprint(len(o.Result.Orbit.Bodies)),
			fmt.Sprintf("%d/%d", after, before),
			fmt.Sprintf("%.2e", d.MaxClosingError()),
			fmt.Sprintf("%.2e", d.MaxReconstructionError()),
			d.Elapsed.Round(time.Millisecond).String(),
		)
	}
	return t.String()
}

func failureLabel(err error) string {
	switch {
	case errors.Is(err, dynamo.ErrUnstable):
		return "unstable"
	case errors.Is(err, dynamo.ErrInvalidConfig):
		return "invalid"
	case errors.Is(err, dynamo.ErrNonFinite):
		return "non-finite"
	}
	return "failed"
}
