package export

import (
	"errors"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/nucleosynth/internal/table"
)

var ErrTooFewPoints = errors.New("export: need at least two points")

type Point struct {
	X, Y float64
}

// ColumnSVG draws column against time as an SVG line chart. With logY the
// column is plotted as log10 and non-positive samples are dropped.
func ColumnSVG(t *table.Table, column string, width, height int, stroke string, logY bool) (string, error) {
	values, err := t.Column(column)
	if err != nil {
		return "", err
	}
	times := t.Times()
	points := make([]Point, 0, len(values))
	for i, v := range values {
		if logY {
			if v <= 0 {
				continue
			}
			v = math.Log10(v)
		}
		points = append(points, Point{X: times[i], Y: v})
	}

	label := column
	if logY {
		label = "log10 " + column
	}
	return PathSVG(points, width, height, stroke, label)
}

// PathSVG renders points as a single stroked path scaled to width x height
// with 10% padding on each axis.
func PathSVG(points []Point, width, height int, stroke, label string) (string, error) {
	if len(points) < 2 {
		return "", ErrTooFewPoints
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
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
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	if label != "" {
		fmt.Fprintf(&sb, `<text x="8" y="16" fill="#aaaaaa" font-family="monospace" font-size="12">%s</text>
`, html.EscapeString(label))
	}
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, html.EscapeString(stroke))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String(), nil
}
