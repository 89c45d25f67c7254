package tracer

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/nucleosynth/internal/analysis"
	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/extract"
	"github.com/san-kum/nucleosynth/internal/loadsave"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/storage"
	"github.com/san-kum/nucleosynth/internal/table"
	"github.com/san-kum/nucleosynth/internal/testutil"
)

const model = "traj_s12.0"

var quiet = &log.Logger{Handler: discard.New(), Level: log.DebugLevel}

func newManager(t *testing.T) (*loadsave.Manager, paths.Resolver) {
	t.Helper()
	dir := t.TempDir()
	r := paths.New(filepath.Join(dir, "raw"), filepath.Join(dir, "cache"))
	extr := extract.NewRaw(r, config.DefaultTables(), quiet)
	return loadsave.New(extr, storage.New(r), loadsave.WithLogger(quiet)), r
}

func writeFixture(t *testing.T, r paths.Resolver) {
	t.Helper()
	testutil.WriteTracer(t, r, model, 0,
		testutil.Step{Step: 1, StirTimes: testutil.Times(0, 1, 11), OutputTimes: testutil.Times(0, 1, 11)},
		testutil.Step{Step: 2, StirTimes: testutil.Times(1, 3, 21), OutputTimes: testutil.Times(1, 4, 31)},
	)
}

func TestNewTracer(t *testing.T) {
	m, r := newManager(t)
	writeFixture(t, r)

	tr, err := New(m, model, 0, []int{1, 2}, WithLogger(quiet))
	require.NoError(t, err)

	assert.Equal(t, "traj_s12.0, tracer_0", tr.Title())
	assert.Equal(t, DefaultMass, tr.Mass())
	assert.Equal(t, loadsave.Saved, tr.Source())
	assert.NoError(t, tr.SaveErr())
	assert.NotEmpty(t, tr.Path())
	assert.Equal(t, []table.Kind{table.Stir, table.Columns}, tr.Kinds())
	assert.Equal(t, testutil.Isotopes, tr.Network().Names())
	assert.True(t, tr.FreeExpansion())

	cols := tr.Table(table.Columns)
	require.NotNil(t, cols)
	for _, name := range []string{SumY, Abar, Zbar} {
		assert.True(t, cols.Has(name), "missing derived column %s", name)
	}
	sumy, _ := cols.Column(SumY)
	abar, _ := cols.Column(Abar)
	zbar, _ := cols.Column(Zbar)
	assert.InDelta(t, 0.31, sumy[0], 1e-12)
	assert.InDelta(t, 1/0.31, abar[0], 1e-9)
	assert.InDelta(t, 0.5/0.31, zbar[0], 1e-9)

	cached, err := New(m, model, 0, []int{1, 2}, WithLogger(quiet))
	require.NoError(t, err)
	assert.Equal(t, loadsave.LoadedFromCache, cached.Source())
	assert.True(t, cols.Equal(cached.Table(table.Columns)), "derived columns are recomputed identically")
}

func TestTracerSums(t *testing.T) {
	m, r := newManager(t)
	writeFixture(t, r)
	tr, err := New(m, model, 0, []int{1, 2}, WithSave(false), WithLogger(quiet))
	require.NoError(t, err)
	assert.Equal(t, loadsave.StitchedUnsaved, tr.Source())

	byA, err := tr.Sums(table.Y, network.GroupA)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "1", "4", "56"}, byA.Names())
	a1, _ := byA.Column("1")
	assert.InDelta(t, 0.11, a1[0], 1e-12)

	byZ, err := tr.Sums(table.X, network.GroupZ)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "0", "1", "2", "28"}, byZ.Names())

	x := tr.Composition(table.X)
	total := make([]float64, x.Len())
	for _, iso := range testutil.Isotopes {
		c, _ := x.Column(iso)
		for i, v := range c {
			total[i] += v
		}
	}
	assert.InDelta(t, 0.91, total[0], 1e-12)
}

func TestTracerSelect(t *testing.T) {
	m, r := newManager(t)
	writeFixture(t, r)
	tr, err := New(m, model, 0, []int{1, 2}, WithSave(false), WithLogger(quiet))
	require.NoError(t, err)

	a := 1
	net := tr.SelectNetwork(nil, &a)
	assert.Equal(t, []string{"n1", "h1"}, net.Names())

	z := 28
	ni, err := tr.SelectComposition(table.Y, &z, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "ni56"}, ni.Names())
	assert.Equal(t, tr.Table(table.Columns).Len(), ni.Len())
}

func TestTracerTotalHeating(t *testing.T) {
	m, r := newManager(t)
	writeFixture(t, r)
	tr, err := New(m, model, 0, []int{1, 2}, WithSave(false), WithLogger(quiet))
	require.NoError(t, err)

	q, err := tr.TotalHeating()
	require.NoError(t, err)
	want, err := analysis.TotalHeating(tr.Table(table.Columns))
	require.NoError(t, err)
	assert.Equal(t, want, q)
	assert.InEpsilon(t, 1e18*(1-math.Exp(-4)), q, 1e-2)
}

func TestTracerWithoutOutput(t *testing.T) {
	m, r := newManager(t)
	testutil.WriteTracer(t, r, model, 4, testutil.Step{Step: 1, StirTimes: testutil.Times(0, 1, 5)})

	tr, err := New(m, model, 4, []int{1}, WithLogger(quiet))
	require.NoError(t, err)
	assert.Nil(t, tr.Table(table.Columns))
	assert.Nil(t, tr.Composition(table.Y))
	assert.False(t, tr.FreeExpansion())

	_, err = tr.TotalHeating()
	assert.ErrorIs(t, err, ErrNoOutput)
	_, err = tr.Sums(table.Y, network.GroupA)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestTracerWarnsOnShortOutput(t *testing.T) {
	m, r := newManager(t)
	testutil.WriteTracer(t, r, model, 0,
		testutil.Step{Step: 1, StirTimes: testutil.Times(0, 2, 5), OutputTimes: testutil.Times(0, 1, 5)})

	logs := memory.New()
	tr, err := New(m, model, 0, []int{1}, WithLogger(&log.Logger{Handler: logs, Level: log.InfoLevel}))
	require.NoError(t, err)
	assert.False(t, tr.FreeExpansion())

	require.NotEmpty(t, logs.Entries)
	assert.Equal(t, log.WarnLevel, logs.Entries[0].Level)
}

func TestTracerLateOutputIsQuiet(t *testing.T) {
	m, r := newManager(t)
	testutil.WriteTracer(t, r, model, 0,
		testutil.Step{Step: 1, StirTimes: testutil.Times(0, 2, 5), OutputTimes: testutil.Times(0.5, 3, 6)})

	logs := memory.New()
	tr, err := New(m, model, 0, []int{1}, WithLogger(&log.Logger{Handler: logs, Level: log.InfoLevel}))
	require.NoError(t, err)
	assert.False(t, tr.FreeExpansion())
	assert.Empty(t, logs.Entries)
}

func TestNewValidates(t *testing.T) {
	m, _ := newManager(t)

	tests := []struct {
		name  string
		model string
		id    int
		steps []int
		opts  []Option
		want  error
	}{
		{"no model", "", 0, []int{1}, nil, paths.ErrMissingInput},
		{"negative id", model, -1, []int{1}, nil, paths.ErrMissingInput},
		{"no steps", model, 0, nil, nil, paths.ErrMissingInput},
		{"zero step", model, 0, []int{0}, nil, paths.ErrMissingInput},
		{"bad mass", model, 0, []int{1}, []Option{WithMass(0)}, ErrInvalidMass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(m, tt.model, tt.id, tt.steps, tt.opts...)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestNewPropagatesMissingData(t *testing.T) {
	m, _ := newManager(t)
	_, err := New(m, model, 0, []int{1}, WithLogger(quiet))
	assert.ErrorIs(t, err, extract.ErrMissingData)
}

// staticObtainer hands out one fixed result.
type staticObtainer struct {
	res *loadsave.Result
}

func (s staticObtainer) Obtain(paths.Key, loadsave.CachePolicy, bool) (*loadsave.Result, error) {
	return s.res, nil
}

func TestTracerOwnsItsTables(t *testing.T) {
	stir, err := table.New([]string{"time", "temperature"}, [][]float64{{0, 1}, {5, 4}})
	require.NoError(t, err)
	res := &loadsave.Result{
		Key:    paths.Key{Model: model, TracerID: 1, Steps: []int{1}},
		Tables: map[table.Kind]*table.Table{table.Stir: stir},
	}

	tr, err := New(staticObtainer{res}, model, 1, []int{1}, WithLogger(quiet))
	require.NoError(t, err)

	temp, _ := stir.Column("temperature")
	temp[0] = -1
	got, _ := tr.Table(table.Stir).Column("temperature")
	assert.Equal(t, 5.0, got[0], "tracer must not share the obtained tables")

	got[1] = -1
	again, _ := tr.Table(table.Stir).Column("temperature")
	assert.Equal(t, 4.0, again[1], "accessors return copies")
}

func TestNewRejectsForeignKey(t *testing.T) {
	stir, err := table.New([]string{"time"}, [][]float64{{}})
	require.NoError(t, err)
	res := &loadsave.Result{
		Key:    paths.Key{Model: model, TracerID: 2, Steps: []int{1}},
		Tables: map[table.Kind]*table.Table{table.Stir: stir},
	}
	_, err = New(staticObtainer{res}, model, 1, []int{1}, WithLogger(quiet))
	assert.Error(t, err)
}
