package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/san-kum/nucleosynth/internal/extract"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/table"
)

// Format tags every artifact; a file with another tag is malformed.
const Format = "nucleosynth-tracer/1"

// Snapshot is the stitched data of one key, as persisted.
type Snapshot struct {
	Key         paths.Key
	SavedAt     time.Time
	Network     network.Network
	Tables      map[table.Kind]*table.Table
	Composition map[table.CompKind]*table.Table
}

// Rows is the total row count over all tables, used for catalog listings.
func (s *Snapshot) Rows() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Len()
	}
	return n
}

type Store struct {
	resolver paths.Resolver
}

func New(resolver paths.Resolver) *Store {
	return &Store{resolver: resolver}
}

type artifact struct {
	Format      string               `json:"format"`
	Model       string               `json:"model"`
	TracerID    int                  `json:"tracer_id"`
	Steps       []int                `json:"steps"`
	SavedAt     time.Time            `json:"saved_at"`
	Network     network.Network      `json:"network,omitempty"`
	Tables      map[string]tableJSON `json:"tables"`
	Composition map[string]tableJSON `json:"composition,omitempty"`
}

// tableJSON is column-major; encoding/json writes the shortest decimal that
// parses back to the same float64.
type tableJSON struct {
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

// Path returns where the artifact for k lives.
func (s *Store) Path(k paths.Key) (string, error) {
	return s.resolver.KeyPath(k)
}

// Save writes the snapshot atomically (temp file + rename) and returns the
// path and size written.
func (s *Store) Save(snap *Snapshot) (string, int64, error) {
	path, err := s.Path(snap.Key)
	if err != nil {
		return "", 0, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return path, 0, fmt.Errorf("failed to create cache directory: %w", err)
	}

	a := artifact{
		Format:      Format,
		Model:       snap.Key.Model,
		TracerID:    snap.Key.TracerID,
		Steps:       snap.Key.Steps,
		SavedAt:     snap.SavedAt,
		Network:     snap.Network,
		Tables:      make(map[string]tableJSON, len(snap.Tables)),
		Composition: make(map[string]tableJSON, len(snap.Composition)),
	}
	for k, t := range snap.Tables {
		a.Tables[string(k)] = encodeTable(t)
	}
	for k, t := range snap.Composition {
		a.Composition[string(k)] = encodeTable(t)
	}

	tmp, err := os.CreateTemp(dir, ".tracer-*.tmp")
	if err != nil {
		return path, 0, fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return path, 0, fmt.Errorf("failed to set cache file mode: %w", err)
	}
	enc := json.NewEncoder(tmp)
	if err := enc.Encode(a); err != nil {
		tmp.Close()
		return path, 0, fmt.Errorf("failed to encode cache artifact: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return path, 0, err
	}
	if err := tmp.Close(); err != nil {
		return path, 0, fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return path, 0, fmt.Errorf("failed to move cache file into place: %w", err)
	}
	return path, info.Size(), nil
}

// Load reads the artifact for k. A missing file returns ok=false with no
// error; a file that does not decode into a snapshot for k is malformed.
func (s *Store) Load(k paths.Key) (*Snapshot, bool, error) {
	path, err := s.Path(k)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, s.malformed(k, path, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, false, s.malformed(k, path, err)
	}
	snap, err := decodeArtifact(k, &a)
	if err != nil {
		return nil, false, s.malformed(k, path, err)
	}
	return snap, true, nil
}

func (s *Store) malformed(k paths.Key, path string, err error) error {
	return extract.Malformed(k.Model, k.TracerID, 0, path, fmt.Errorf("cache artifact: %w", err))
}

func decodeArtifact(k paths.Key, a *artifact) (*Snapshot, error) {
	if a.Format != Format {
		return nil, fmt.Errorf("format %q, want %q", a.Format, Format)
	}
	got := paths.Key{Model: a.Model, TracerID: a.TracerID, Steps: a.Steps}
	if !got.Equal(k) {
		return nil, fmt.Errorf("artifact holds %s, want %s", got, k)
	}
	if _, ok := a.Tables[string(table.Stir)]; !ok {
		return nil, fmt.Errorf("no %s table", table.Stir)
	}

	snap := &Snapshot{
		Key:         k,
		SavedAt:     a.SavedAt,
		Network:     a.Network,
		Tables:      make(map[table.Kind]*table.Table, len(a.Tables)),
		Composition: make(map[table.CompKind]*table.Table, len(a.Composition)),
	}
	for name, tj := range a.Tables {
		kind, err := table.ParseKind(name)
		if err != nil {
			return nil, err
		}
		t, err := decodeTable(tj)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		snap.Tables[kind] = t
	}
	for name, tj := range a.Composition {
		kind, err := table.ParseCompKind(name)
		if err != nil {
			return nil, err
		}
		t, err := decodeTable(tj)
		if err != nil {
			return nil, fmt.Errorf("composition %s: %w", name, err)
		}
		snap.Composition[kind] = t
	}
	if err := checkOutput(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// checkOutput enforces that SkyNet output is stored whole: the columns table,
// a non-empty network, and X and Y over that network on the columns' times.
func checkOutput(snap *Snapshot) error {
	cols := snap.Tables[table.Columns]
	if cols == nil {
		if len(snap.Network) > 0 || len(snap.Composition) > 0 {
			return fmt.Errorf("composition without a %s table", table.Columns)
		}
		return nil
	}
	if len(snap.Network) == 0 {
		return fmt.Errorf("%s table without a network", table.Columns)
	}

	want := append([]string{table.Time}, snap.Network.Names()...)
	times := cols.Times()
	for _, kind := range table.CompKinds {
		comp := snap.Composition[kind]
		if comp == nil {
			return fmt.Errorf("%s table without composition %s", table.Columns, kind)
		}
		if !slices.Equal(comp.Names(), want) {
			return fmt.Errorf("composition %s columns do not match the network", kind)
		}
		if !slices.Equal(comp.Times(), times) {
			return fmt.Errorf("composition %s times differ from the %s table", kind, table.Columns)
		}
	}
	return nil
}

func encodeTable(t *table.Table) tableJSON {
	names := t.Names()
	tj := tableJSON{Columns: names, Data: make([][]float64, len(names))}
	for i, name := range names {
		col, _ := t.Column(name)
		tj.Data[i] = col
	}
	return tj
}

func decodeTable(tj tableJSON) (*table.Table, error) {
	for i, col := range tj.Data {
		if col == nil {
			tj.Data[i] = []float64{}
		}
	}
	t, err := table.New(tj.Columns, tj.Data)
	if err != nil {
		return nil, err
	}
	if !t.Has(table.Time) {
		return nil, fmt.Errorf("no %s column", table.Time)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if i := t.CheckMonotonic(); i >= 0 {
		return nil, fmt.Errorf("time decreases at row %d", i)
	}
	return t, nil
}
