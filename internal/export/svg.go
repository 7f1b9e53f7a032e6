package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/orbitbake/internal/dynamo"
)

// BodyColors cycles per body in vector and raster output.
var BodyColors = []string{"#ff3030", "#30ff30", "#3080ff"}

// TrajectorySVG draws one closed path per body, scaled to fit the frame
// with 10% padding on every side. Both axes share one scale so orbits keep
// their shape.
func TrajectorySVG(traj dynamo.Trajectory, width, height int) string {
	if len(traj) < 2 || len(traj[0]) == 0 {
		return ""
	}

	minX, maxX := traj[0][0].X, traj[0][0].X
	minY, maxY := traj[0][0].Y, traj[0][0].Y
	for _, frame := range traj {
		for _, p := range frame {
			minX = min(minX, p.X)
			maxX = max(maxX, p.X)
			minY = min(minY, p.Y)
			maxY = max(maxY, p.Y)
		}
	}

	span := max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	scale := min(float64(width), float64(height)) / (span * 1.2)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for body := range traj[0] {
		color := BodyColors[body%len(BodyColors)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))

		for i, frame := range traj {
			x := float64(width)/2 + (frame[body].X-cx)*scale
			y := float64(height)/2 - (frame[body].Y-cy)*scale

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(" Z\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
