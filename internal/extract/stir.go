package extract

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/nucleosynth/internal/table"
)

// lineError locates a parse failure inside a STIR trajectory.
type lineError struct {
	line int
	err  error
}

func (e *lineError) Error() string { return fmt.Sprintf("line %d: %v", e.line, e.err) }
func (e *lineError) Unwrap() error { return e.err }

// ParseStir reads a whitespace-delimited STIR trajectory. Lines starting with
// '#' and blank lines are skipped; every data line must hold one value per
// column. Time must not decrease.
func ParseStir(r io.Reader, columns []string) (*table.Table, error) {
	cols := make([][]float64, len(columns))
	for i := range cols {
		cols[i] = make([]float64, 0, 256)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != len(columns) {
			return nil, &lineError{lineNo, fmt.Errorf("expected %d fields, got %d", len(columns), len(fields))}
		}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &lineError{lineNo, fmt.Errorf("column %s: %w", columns[i], err)}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &lineError{lineNo, fmt.Errorf("column %s: non-finite value %s", columns[i], f)}
			}
			cols[i] = append(cols[i], v)
		}

		if n := len(cols[0]); n > 1 && cols[0][n-1] < cols[0][n-2] {
			return nil, &lineError{lineNo, fmt.Errorf("time decreases from %g to %g", cols[0][n-2], cols[0][n-1])}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(cols[0]) == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	return table.New(columns, cols)
}
