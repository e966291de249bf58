package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/trajmsd/internal/storage"
)

// Series is one named polyline of a plot.
type Series struct {
	Name  string
	Color string
	X, Y  []float64
}

// CurveSeries turns stored curves into plot series. With logScale the axes
// are log10 and lag 0 is left out.
func CurveSeries(c *storage.Curves, logScale bool) []Series {
	names := []string{"g1", "g2", "g3"}
	colors := []string{"#00ff00", "#00bfff", "#ff8c00"}
	values := [][]float64{c.G1, c.G2, c.G3}

	out := make([]Series, len(names))
	for k := range names {
		s := Series{Name: names[k], Color: colors[k]}
		for i, ts := range c.Timesteps {
			x, y := float64(ts), values[k][i]
			if c.Hits[i] == 0 && i > 0 {
				continue
			}
			if logScale {
				if x <= 0 || y <= 0 {
					continue
				}
				x, y = math.Log10(x), math.Log10(y)
			}
			s.X = append(s.X, x)
			s.Y = append(s.Y, y)
		}
		out[k] = s
	}
	return out
}

// SeriesToSVG draws every series with at least two points on a shared
// scale. It returns "" when nothing can be drawn.
func SeriesToSVG(series []Series, width, height int) string {
	first := true
	var minX, maxX, minY, maxY float64
	for _, s := range series {
		if len(s.X) < 2 {
			continue
		}
		for i := range s.X {
			if first {
				minX, maxX, minY, maxY = s.X[i], s.X[i], s.Y[i], s.Y[i]
				first = false
			}
			minX, maxX = math.Min(minX, s.X[i]), math.Max(maxX, s.X[i])
			minY, maxY = math.Min(minY, s.Y[i]), math.Max(maxY, s.Y[i])
		}
	}
	if first {
		return ""
	}

	// Add padding
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
`, width, height, width, height))

	for k, s := range series {
		if len(s.X) < 2 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Color))
		for i := range s.X {
			x := (s.X[i] - minX) / rangeX * float64(width)
			y := float64(height) - (s.Y[i]-minY)/rangeY*float64(height)

			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
		sb.WriteString(fmt.Sprintf(`<text x="10" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 20+16*k, s.Color, s.Name))
	}

	sb.WriteString("</svg>")
	return sb.String()
}
