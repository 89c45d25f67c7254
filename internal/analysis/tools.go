package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/nucleosynth/internal/table"
)

// HeatingRate is the columns-table name of the nuclear heating rate.
const HeatingRate = "heatingrate"

var ErrTooFewSamples = errors.New("analysis: need at least two samples")

// Trapezoid integrates y over x with the trapezoidal rule. Fewer than two
// samples integrate to zero.
func Trapezoid(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, fmt.Errorf("analysis: x has %d samples, y has %d", len(x), len(y))
	}
	var sum float64
	for i := 1; i < len(x); i++ {
		sum += 0.5 * (y[i] + y[i-1]) * (x[i] - x[i-1])
	}
	return sum, nil
}

// TotalHeating integrates the heating rate over time.
func TotalHeating(t *table.Table) (float64, error) {
	rate, err := t.Column(HeatingRate)
	if err != nil {
		return 0, err
	}
	return Trapezoid(t.Times(), rate)
}

// Peak returns the maximum of column and the time of its first occurrence.
func Peak(t *table.Table, column string) (value, at float64, err error) {
	col, err := t.Column(column)
	if err != nil {
		return 0, 0, err
	}
	if len(col) == 0 {
		return 0, 0, fmt.Errorf("analysis: column %q is empty", column)
	}
	times := t.Times()
	best := 0
	for i, v := range col {
		if v > col[best] {
			best = i
		}
	}
	if times != nil {
		at = times[best]
	}
	return col[best], at, nil
}

// Resample interpolates y(x) linearly onto n evenly spaced points spanning
// x. x must be non-decreasing. Repeated x values, as at a step boundary, take
// the later sample.
func Resample(x, y []float64, n int) ([]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("analysis: x has %d samples, y has %d", len(x), len(y))
	}
	if len(x) < 2 || n < 2 {
		return nil, ErrTooFewSamples
	}

	lo, hi := x[0], x[len(x)-1]
	out := make([]float64, n)
	for i := range out {
		xi := lo + (hi-lo)*float64(i)/float64(n-1)
		j := sort.Search(len(x), func(k int) bool { return x[k] > xi })
		switch {
		case j == 0:
			out[i] = y[0]
		case j == len(x):
			out[i] = y[len(y)-1]
		default:
			x0, x1 := x[j-1], x[j]
			f := (xi - x0) / (x1 - x0)
			out[i] = y[j-1] + f*(y[j]-y[j-1])
		}
	}
	return out, nil
}

// NearestIndex returns the row whose time is closest to tm.
func NearestIndex(times []float64, tm float64) (int, error) {
	if len(times) == 0 {
		return 0, ErrTooFewSamples
	}
	best := 0
	for i, v := range times {
		if math.Abs(v-tm) < math.Abs(times[best]-tm) {
			best = i
		}
	}
	return best, nil
}
