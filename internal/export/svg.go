// Package export renders recorded data as standalone SVG images.
package export

import (
	"fmt"
	"strings"
)

// SeriesToSVG draws one metric history as a polyline chart with the
// series name as a caption.
func SeriesToSVG(name string, times, samples []float64, width, height int) string {
	if len(samples) < 2 || len(times) != len(samples) {
		return ""
	}

	minV, maxV := samples[0], samples[0]
	for _, v := range samples {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	spanV := maxV - minV
	if spanV == 0 {
		spanV = 1
	}
	spanT := times[len(times)-1] - times[0]
	if spanT == 0 {
		spanT = 1
	}

	const margin = 10.0
	plotW := float64(width) - 2*margin
	plotH := float64(height) - 2*margin - 14

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="#00ff00" stroke-width="1.5" d="M`,
		width, height, width, height))

	for i, v := range samples {
		x := margin + (times[i]-times[0])/spanT*plotW
		y := margin + (1-(v-minV)/spanV)*plotH
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(fmt.Sprintf(`"/>
<text x="%.1f" y="%d" fill="#999999" font-family="monospace" font-size="12">%s</text>
</svg>`, margin, height-6, name))
	return sb.String()
}

// TrajectoryToSVG draws a planar path, such as a body's projected trail.
func TrajectoryToSVG(points []struct{ X, Y float64 }, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
