// Package export writes tracer tables to CSV and SVG files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/nucleosynth/internal/table"
)

// WriteCSV writes a header row of column names followed by one row per time
// sample. Floats use the shortest representation that parses back exactly.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	names := t.Names()
	if err := cw.Write(names); err != nil {
		return err
	}

	cols := make([][]float64, len(names))
	for i, name := range names {
		c, err := t.Column(name)
		if err != nil {
			return err
		}
		cols[i] = c
	}

	record := make([]string, len(names))
	for row := 0; row < t.Len(); row++ {
		for i := range cols {
			record[i] = strconv.FormatFloat(cols[i][row], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
