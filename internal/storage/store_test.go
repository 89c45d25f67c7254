package storage

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/nucleosynth/internal/extract"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/table"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	stir, err := table.New([]string{"time", "temperature"}, [][]float64{
		{0, 0.1, 1.0 / 3},
		{1e10, 9.048374180359595e9, math.SmallestNonzeroFloat64},
	})
	require.NoError(t, err)
	cols, err := table.New([]string{"time", "ye"}, [][]float64{{0, 1}, {0.5, 0.49}})
	require.NoError(t, err)
	y, err := table.New([]string{"time", "h1", "he4"}, [][]float64{{0, 1}, {0.1, 0.1}, {0.2, 0.15}})
	require.NoError(t, err)
	x, err := table.New([]string{"time", "h1", "he4"}, [][]float64{{0, 1}, {0.1, 0.1}, {0.8, 0.6}})
	require.NoError(t, err)

	net, err := network.FromZA([]int{1, 2}, []int{1, 4})
	require.NoError(t, err)

	return &Snapshot{
		Key:         paths.Key{Model: "traj_s12.0", TracerID: 7, Steps: []int{1, 2}},
		SavedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Network:     net,
		Tables:      map[table.Kind]*table.Table{table.Stir: stir, table.Columns: cols},
		Composition: map[table.CompKind]*table.Table{table.X: x, table.Y: y},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	dir := t.TempDir()
	st := New(paths.New(filepath.Join(dir, "raw"), filepath.Join(dir, "cache")))
	snap := testSnapshot(t)

	path, size, err := st.Save(snap)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache", "traj_s12.0", "tracer7_steps1-2.json"), path)
	assert.Positive(t, size)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	got, ok, err := st.Load(snap.Key)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, got.Key.Equal(snap.Key))
	assert.True(t, got.SavedAt.Equal(snap.SavedAt))
	assert.True(t, got.Network.Equal(snap.Network))
	for k, want := range snap.Tables {
		assert.True(t, want.Equal(got.Tables[k]), "table %s differs", k)
	}
	for k, want := range snap.Composition {
		assert.True(t, want.Equal(got.Composition[k]), "composition %s differs", k)
	}
	assert.Equal(t, 5, got.Rows())
}

func TestStoreLoadWithoutOutput(t *testing.T) {
	st := New(paths.New("", t.TempDir()))
	key := paths.Key{Model: "traj_s12.0", TracerID: 7, Steps: []int{1, 2}}
	path := mustPath(t, st, key)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(artifactJSON(`"tables":{"stir":`+stirJSON+`}`)), 0644))

	snap, ok, err := st.Load(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, snap.Tables[table.Columns])
	assert.Empty(t, snap.Composition)
}

func TestStoreLoadMiss(t *testing.T) {
	st := New(paths.New("", t.TempDir()))
	snap, ok, err := st.Load(paths.Key{Model: "m", TracerID: 0, Steps: []int{1}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, snap)
}

func TestStoreKeysAreDistinct(t *testing.T) {
	st := New(paths.New("", t.TempDir()))
	snap := testSnapshot(t)
	_, _, err := st.Save(snap)
	require.NoError(t, err)

	_, ok, err := st.Load(paths.Key{Model: snap.Key.Model, TracerID: snap.Key.TracerID, Steps: []int{1}})
	require.NoError(t, err)
	assert.False(t, ok, "a different step list must not hit")
}

func TestStoreOverwrite(t *testing.T) {
	st := New(paths.New("", t.TempDir()))
	snap := testSnapshot(t)
	_, _, err := st.Save(snap)
	require.NoError(t, err)

	snap.SavedAt = snap.SavedAt.Add(time.Hour)
	empty, err := table.New([]string{"time", "temperature"}, [][]float64{{}, {}})
	require.NoError(t, err)
	snap.Tables[table.Stir] = empty
	_, _, err = st.Save(snap)
	require.NoError(t, err)

	got, ok, err := st.Load(snap.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, got.Tables[table.Stir].Len())
	assert.True(t, got.SavedAt.Equal(snap.SavedAt))

	entries, err := os.ReadDir(filepath.Dir(mustPath(t, st, snap.Key)))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

const (
	stirJSON = `{"columns":["time"],"data":[[0,1]]}`
	colsJSON = `{"columns":["time","ye"],"data":[[0,1],[0.5,0.49]]}`
	compJSON = `{"columns":["time","h1","he4"],"data":[[0,1],[0.1,0.1],[0.2,0.1]]}`
	netJSON  = `[{"isotope":"h1","z":1,"a":1},{"isotope":"he4","z":2,"a":4}]`
)

// artifactJSON wraps body in the header of tracer 7, steps 1-2.
func artifactJSON(body string) string {
	return `{"format":"nucleosynth-tracer/1","model":"traj_s12.0","tracer_id":7,"steps":[1,2],` + body + `}`
}

func TestStoreCorruptArtifact(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{"},
		{"wrong format", `{"format":"other/1","model":"traj_s12.0","tracer_id":7,"steps":[1,2],"tables":{"stir":{"columns":["time"],"data":[[0]]}}}`},
		{"wrong key", `{"format":"nucleosynth-tracer/1","model":"traj_s12.0","tracer_id":8,"steps":[1,2],"tables":{"stir":{"columns":["time"],"data":[[0]]}}}`},
		{"no stir", `{"format":"nucleosynth-tracer/1","model":"traj_s12.0","tracer_id":7,"steps":[1,2],"tables":{}}`},
		{"ragged", `{"format":"nucleosynth-tracer/1","model":"traj_s12.0","tracer_id":7,"steps":[1,2],"tables":{"stir":{"columns":["time","x"],"data":[[0,1],[2]]}}}`},
		{"time decreases", `{"format":"nucleosynth-tracer/1","model":"traj_s12.0","tracer_id":7,"steps":[1,2],"tables":{"stir":{"columns":["time"],"data":[[1,0]]}}}`},
		{"columns without composition", artifactJSON(`"tables":{"stir":`+stirJSON+`,"columns":`+colsJSON+`},"network":`+netJSON)},
		{"composition without columns", artifactJSON(`"tables":{"stir":`+stirJSON+`},"network":`+netJSON+`,"composition":{"X":`+compJSON+`,"Y":`+compJSON+`}`)},
		{"missing Y", artifactJSON(`"tables":{"stir":`+stirJSON+`,"columns":`+colsJSON+`},"network":`+netJSON+`,"composition":{"X":`+compJSON+`}`)},
		{"columns without network", artifactJSON(`"tables":{"stir":`+stirJSON+`,"columns":`+colsJSON+`},"composition":{"X":`+compJSON+`,"Y":`+compJSON+`}`)},
		{"composition off network", artifactJSON(`"tables":{"stir":`+stirJSON+`,"columns":`+colsJSON+`},"network":`+netJSON+`,"composition":{"X":`+compJSON+`,"Y":{"columns":["time","h1","li7"],"data":[[0,1],[0.1,0.1],[0.2,0.1]]}}`)},
		{"composition times differ", artifactJSON(`"tables":{"stir":`+stirJSON+`,"columns":`+colsJSON+`},"network":`+netJSON+`,"composition":{"X":`+compJSON+`,"Y":{"columns":["time","h1","he4"],"data":[[0,2],[0.1,0.1],[0.2,0.1]]}}`)},
		{"unknown kind", `{"format":"nucleosynth-tracer/1","model":"traj_s12.0","tracer_id":7,"steps":[1,2],"tables":{"stir":{"columns":["time"],"data":[[0]]},"hydro":{"columns":["time"],"data":[[0]]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := New(paths.New("", t.TempDir()))
			key := paths.Key{Model: "traj_s12.0", TracerID: 7, Steps: []int{1, 2}}
			path := mustPath(t, st, key)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, ok, err := st.Load(key)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, extract.ErrMalformedData), "got %v", err)

			var de *extract.DataError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, path, de.Path)
		})
	}
}

func TestStoreInvalidKey(t *testing.T) {
	st := New(paths.New("", t.TempDir()))
	_, _, err := st.Load(paths.Key{Model: "m"})
	assert.True(t, errors.Is(err, paths.ErrMissingInput))
}

func mustPath(t *testing.T, st *Store, k paths.Key) string {
	t.Helper()
	p, err := st.Path(k)
	require.NoError(t, err)
	return p
}
