package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/san-kum/nucleosynth/internal/analysis"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/table"
	"github.com/san-kum/nucleosynth/internal/tracer"
)

// Summary renders the info panel for a tracer.
func Summary(tr *tracer.Tracer, theme Theme) string {
	st := theme.styles()
	var rows [][2]string
	add := func(label, value string) { rows = append(rows, [2]string{label, value}) }

	key := tr.Key()
	source := tr.Source().String()
	if tr.Path() != "" {
		source += " " + st.subtle.Render(tr.Path())
	}
	add("source", source)
	if saved := tr.SavedAt(); !saved.IsZero() {
		add("saved", humanize.Time(saved))
	}
	if err := tr.SaveErr(); err != nil {
		add("cache", st.warn.Render(err.Error()))
	}
	add("steps", paths.StepsLabel(key.Steps))
	add("mass", fmt.Sprintf("%g Msun", tr.Mass()))

	for _, kind := range tr.Kinds() {
		add(string(kind), describeTable(tr.Table(kind)))
	}
	if cols := tr.Table(table.Columns); cols != nil {
		if tr.FreeExpansion() {
			add("free expansion", st.ok.Render("yes"))
		} else {
			add("free expansion", st.warn.Render("no, columns do not span stir"))
		}
	}
	if net := tr.Network(); len(net) > 0 {
		add("network", describeNetwork(net))
	}
	if q, err := tr.TotalHeating(); err == nil {
		add("total heating", fmt.Sprintf("%.4e", q))
	}
	if stir := tr.Table(table.Stir); stir != nil && stir.Has("temperature") {
		if peak, at, err := analysis.Peak(stir, "temperature"); err == nil {
			temps, _ := stir.Column("temperature")
			add("peak T", fmt.Sprintf("%.3e K at t=%g  %s", peak, at, SparklineChart(temps, 24)))
		}
	}

	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	var sb strings.Builder
	sb.WriteString(st.title.Render(tr.Title()))
	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(st.label.Render(fmt.Sprintf("%-*s", width, r[0])))
		sb.WriteString("  ")
		sb.WriteString(st.value.Render(r[1]))
	}
	return st.panel.Render(sb.String())
}

func describeTable(t *table.Table) string {
	start, end, ok := t.TimeSpan()
	if !ok {
		return fmt.Sprintf("empty, %d columns", len(t.Names()))
	}
	return fmt.Sprintf("%s rows, %d columns, t=%g..%g s", humanize.Comma(int64(t.Len())), len(t.Names()), start, end)
}

func describeNetwork(net network.Network) string {
	z, a := net.Unique(network.GroupZ), net.Unique(network.GroupA)
	return fmt.Sprintf("%d isotopes, Z=%d..%d, A=%d..%d", len(net), z[0], z[len(z)-1], a[0], a[len(a)-1])
}

// SparklineChart renders a mini sparkline from values
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var result strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		result.WriteRune(chars[idx])
	}
	return result.String()
}
