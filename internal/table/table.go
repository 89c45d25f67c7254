// Package table provides the time-indexed tables that tracer data lives in.
//
// A [Table] is an ordered set of named float64 columns of equal length. One
// row is one time sample; the column named [Time] is the time index.
package table

import (
	"errors"
	"fmt"
	"math"
)

// Time is the name of the time-index column.
const Time = "time"

var (
	ErrNoColumn       = errors.New("table: no such column")
	ErrColumnMismatch = errors.New("table: column sets differ")
	ErrLength         = errors.New("table: column lengths differ")
	ErrNotFinite      = errors.New("table: NaN or Inf value")
	ErrDuplicate      = errors.New("table: duplicate column")
)

type Table struct {
	names []string
	index map[string]int
	cols  [][]float64
}

// New builds a table from column names and column-major data. The slices are
// used as given; callers that keep them must Clone.
func New(names []string, cols [][]float64) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrColumnMismatch, len(names), len(cols))
	}
	t := &Table{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
		cols:  make([][]float64, 0, len(cols)),
	}
	for i, name := range names {
		if err := t.AddColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Len() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.cols[0])
}

func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column. The slice is shared with the table.
func (t *Table) Column(name string) ([]float64, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return t.cols[i], nil
}

// Times returns the time index, or nil when the table has none.
func (t *Table) Times() []float64 {
	c, err := t.Column(Time)
	if err != nil {
		return nil
	}
	return c
}

func (t *Table) AddColumn(name string, values []float64) error {
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	if len(t.cols) > 0 && len(values) != t.Len() {
		return fmt.Errorf("%w: %q has %d rows, table has %d", ErrLength, name, len(values), t.Len())
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, values)
	return nil
}

// Row returns row i keyed by column name.
func (t *Table) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(t.names))
	for j, name := range t.names {
		row[name] = t.cols[j][i]
	}
	return row
}

// Append concatenates other's rows after t's. Both tables must have the same
// columns in the same order.
func (t *Table) Append(other *Table) error {
	if len(t.names) != len(other.names) {
		return fmt.Errorf("%w: %v vs %v", ErrColumnMismatch, t.names, other.names)
	}
	for i, name := range t.names {
		if other.names[i] != name {
			return fmt.Errorf("%w: %v vs %v", ErrColumnMismatch, t.names, other.names)
		}
	}
	for i := range t.cols {
		t.cols[i] = append(t.cols[i], other.cols[i]...)
	}
	return nil
}

func (t *Table) Clone() *Table {
	c := &Table{
		names: t.Names(),
		index: make(map[string]int, len(t.index)),
		cols:  make([][]float64, len(t.cols)),
	}
	for k, v := range t.index {
		c.index[k] = v
	}
	for i, col := range t.cols {
		c.cols[i] = make([]float64, len(col))
		copy(c.cols[i], col)
	}
	return c
}

// Equal reports whether both tables have the same columns, order, and
// bit-identical values.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.names) != len(other.names) || t.Len() != other.Len() {
		return false
	}
	for i, name := range t.names {
		if other.names[i] != name {
			return false
		}
		for j, v := range t.cols[i] {
			if math.Float64bits(v) != math.Float64bits(other.cols[i][j]) {
				return false
			}
		}
	}
	return true
}

// TimeSpan returns the first and last time, ok=false for an empty table.
func (t *Table) TimeSpan() (start, end float64, ok bool) {
	times := t.Times()
	if len(times) == 0 {
		return 0, 0, false
	}
	return times[0], times[len(times)-1], true
}

// CheckMonotonic returns the first row index whose time is lower than the
// previous row's, or -1 when time never decreases.
func (t *Table) CheckMonotonic() int {
	times := t.Times()
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return i
		}
	}
	return -1
}

// Validate checks equal column lengths and finite values.
func (t *Table) Validate() error {
	n := t.Len()
	for i, col := range t.cols {
		if len(col) != n {
			return fmt.Errorf("%w: %q has %d rows, want %d", ErrLength, t.names[i], len(col), n)
		}
		for j, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: column %q row %d", ErrNotFinite, t.names[i], j)
			}
		}
	}
	return nil
}
