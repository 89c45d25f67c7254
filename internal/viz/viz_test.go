package viz

import (
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/loadsave"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/plot"
	"github.com/san-kum/nucleosynth/internal/table"
	"github.com/san-kum/nucleosynth/internal/tracer"
)

type fixedObtainer struct {
	res *loadsave.Result
}

func (f fixedObtainer) Obtain(paths.Key, loadsave.CachePolicy, bool) (*loadsave.Result, error) {
	return f.res, nil
}

func testTracer(t *testing.T) *tracer.Tracer {
	t.Helper()
	mk := func(names []string, cols ...[]float64) *table.Table {
		tb, err := table.New(names, cols)
		require.NoError(t, err)
		return tb
	}
	times := []float64{0, 0.5, 1, 2}
	net, err := network.FromZA([]int{1, 2}, []int{1, 4})
	require.NoError(t, err)

	res := &loadsave.Result{
		Key: paths.Key{Model: "traj_s12.0", TracerID: 0, Steps: []int{1, 2}},
		Tables: map[table.Kind]*table.Table{
			table.Stir:    mk([]string{"time", "temperature"}, times, []float64{1e10, 8e9, 5e9, 1e9}),
			table.Columns: mk([]string{"time", "ye", "heatingrate"}, times, []float64{0.5, 0.5, 0.49, 0.48}, []float64{4, 3, 2, 1}),
		},
		Composition: map[table.CompKind]*table.Table{
			table.Y: mk([]string{"time", "h1", "he4"}, times, []float64{0.1, 0.1, 0.1, 0.1}, []float64{0.2, 0.2, 0.2, 0.2}),
			table.X: mk([]string{"time", "h1", "he4"}, times, []float64{0.1, 0.1, 0.1, 0.1}, []float64{0.8, 0.8, 0.8, 0.8}),
		},
		Network: net,
		State:   loadsave.LoadedFromCache,
		Path:    "/cache/traj_s12.0/tracer0_steps1-2.json",
		SavedAt: time.Now().Add(-3 * time.Hour),
	}
	logger := &log.Logger{Handler: discard.New(), Level: log.InfoLevel}
	tr, err := tracer.New(fixedObtainer{res}, "traj_s12.0", 0, []int{1, 2}, tracer.WithLogger(logger))
	require.NoError(t, err)
	return tr
}

func TestSummary(t *testing.T) {
	out := Summary(testTracer(t), ThemeMinimal)
	for _, want := range []string{
		"traj_s12.0, tracer_0",
		"loaded from cache",
		"tracer0_steps1-2.json",
		"3 hours ago",
		"1-2",
		"free expansion",
		"2 isotopes, Z=1..2, A=1..4",
		"total heating",
		"peak T",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSparklineChart(t *testing.T) {
	assert.Equal(t, "▁▃▅█", SparklineChart([]float64{0, 1, 2, 3}, 4))
	assert.Equal(t, "───", SparklineChart(nil, 3))
	assert.Equal(t, "▁▁", SparklineChart([]float64{5, 5}, 2))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserNavigation(t *testing.T) {
	cfg := config.DefaultPlot()
	cfg.Width, cfg.Height = 30, 5
	b := NewBrowser(testTracer(t), plot.New(cfg), ThemeMinimal)

	page, col := b.Selected()
	assert.Equal(t, "stir", page)
	assert.Equal(t, "temperature", col)

	b.Update(key("tab"))
	page, col = b.Selected()
	assert.Equal(t, "columns", page)
	assert.Equal(t, "ye", col)

	b.Update(key("right"))
	_, col = b.Selected()
	assert.Equal(t, "heatingrate", col)

	b.Update(key("left"))
	b.Update(key("left"))
	_, col = b.Selected()
	assert.Equal(t, "zbar", col, "wraps to the last column, derived columns included")

	b.Update(key("tab"))
	page, _ = b.Selected()
	assert.Equal(t, "X", page)
	b.Update(key("tab"))
	b.Update(key("tab"))
	page, _ = b.Selected()
	assert.Equal(t, "stir", page)

	b.Update(key("t"))
	assert.Contains(t, b.View(), "supernova")

	_, cmd := b.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestBrowserView(t *testing.T) {
	b := NewBrowser(testTracer(t), plot.New(config.DefaultPlot()), ThemeCyberpunk)
	view := b.View()
	assert.Contains(t, view, "traj_s12.0, tracer_0")
	assert.Contains(t, view, "column 1/1")
	assert.True(t, strings.Contains(view, "log10 T (K)"))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, ThemeCyberpunk, GetTheme("nope"))
	assert.Equal(t, ThemeMinimal, GetTheme("minimal"))
	assert.Equal(t, ThemeCyberpunk, ThemeSupernova.Next())
	assert.Len(t, ThemeNames(), len(Themes))
}
