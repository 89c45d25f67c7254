// Package plot renders tracer tables as terminal charts.
package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nucleosynth/internal/analysis"
	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/table"
)

const (
	Log    = "log"
	Linear = "linear"
)

var ErrNoPositive = errors.New("plot: no positive values for a log axis")

type Plotter struct {
	cfg config.PlotConfig
}

func New(cfg config.PlotConfig) *Plotter {
	if cfg.Width <= 0 {
		cfg.Width = config.DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = config.DefaultHeight
	}
	return &Plotter{cfg: cfg}
}

// Scale returns the axis scale configured for a quantity, linear by default.
func (p *Plotter) Scale(quantity string) string {
	if s, ok := p.cfg.Scales[quantity]; ok {
		return s
	}
	return Linear
}

func (p *Plotter) Label(quantity string) string {
	if l, ok := p.cfg.Labels[quantity]; ok {
		return l
	}
	return quantity
}

// Column plots one column of t against time. scaleKey picks the axis scale
// and label; it is the column name for thermo tables and the composition
// kind ("X", "Y") for isotope columns.
func (p *Plotter) Column(t *table.Table, column, scaleKey, title string) (string, error) {
	values, err := t.Column(column)
	if err != nil {
		return "", err
	}
	series, err := analysis.Resample(t.Times(), values, p.cfg.Width)
	if err != nil {
		return "", fmt.Errorf("plot %s: %w", column, err)
	}

	label := p.Label(scaleKey)
	if scaleKey != column {
		label = column + " " + label
	}
	if p.Scale(scaleKey) == Log {
		if series, err = log10(series); err != nil {
			return "", fmt.Errorf("plot %s: %w", column, err)
		}
		label = "log10 " + label
	}

	start, end, _ := t.TimeSpan()
	caption := fmt.Sprintf("%s vs %s, t=%g..%g", label, p.Label(table.Time), start, end)
	if title != "" {
		caption = title + ": " + caption
	}
	return p.render(series, caption), nil
}

// Sums plots a grouped composition table at row i: one point per A or Z
// value, in ascending order.
func (p *Plotter) Sums(sums *table.Table, i int, kind table.CompKind, g network.Group, title string) (string, error) {
	values, err := sumsRow(sums, i)
	if err != nil {
		return "", err
	}
	label := p.Label(string(kind))
	if p.Scale(string(kind)) == Log {
		if values, err = log10(values); err != nil {
			return "", fmt.Errorf("plot sums: %w", err)
		}
		label = "log10 " + label
	}
	names := sums.Names()[1:]
	caption := fmt.Sprintf("%s summed over %s (%s..%s) at t=%g", label, g, names[0], names[len(names)-1], sums.Times()[i])
	if title != "" {
		caption = title + ": " + caption
	}
	return p.render(values, caption), nil
}

// WriteSums prints a grouped composition table at row i as text.
func WriteSums(w io.Writer, sums *table.Table, i int, kind table.CompKind, g network.Group) error {
	values, err := sumsRow(sums, i)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "t = %s s\n", strconv.FormatFloat(sums.Times()[i], 'g', -1, 64))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", g, kind)
	for j, name := range sums.Names()[1:] {
		fmt.Fprintf(tw, "%s\t%.6e\n", name, values[j])
	}
	return tw.Flush()
}

func (p *Plotter) render(series []float64, caption string) string {
	return asciigraph.Plot(series,
		asciigraph.Height(p.cfg.Height),
		asciigraph.Width(p.cfg.Width),
		asciigraph.Caption(caption),
	)
}

func sumsRow(sums *table.Table, i int) ([]float64, error) {
	if i < 0 || i >= sums.Len() {
		return nil, fmt.Errorf("plot: timestep %d out of range [0, %d)", i, sums.Len())
	}
	row := sums.Row(i)
	names := sums.Names()[1:]
	if len(names) == 0 {
		return nil, errors.New("plot: no groups to plot")
	}
	out := make([]float64, len(names))
	for j, name := range names {
		out[j] = row[name]
	}
	return out, nil
}

// log10 maps values onto a log axis. Non-positive values are clamped to the
// smallest positive one.
func log10(values []float64) ([]float64, error) {
	floor := math.Inf(1)
	for _, v := range values {
		if v > 0 && v < floor {
			floor = v
		}
	}
	if math.IsInf(floor, 1) {
		return nil, ErrNoPositive
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Log10(math.Max(v, floor))
	}
	return out, nil
}

// Heading underlines a title for plain-text output.
func Heading(title string) string {
	return title + "\n" + strings.Repeat("-", len(title))
}
