// Package testutil writes raw tracer fixtures for tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/hdf5"

	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/paths"
)

// Fixture network: free neutrons, protons, alphas, and 56Ni.
var (
	NetworkZ = []int64{0, 1, 2, 28}
	NetworkA = []int64{1, 1, 4, 56}
	Isotopes = []string{"n1", "h1", "he4", "ni56"}
)

// Step describes the raw output of one step. A nil OutputTimes leaves the
// SkyNet file out.
type Step struct {
	Step        int
	StirTimes   []float64
	OutputTimes []float64
}

// Dataset is one HDF5 dataset; exactly one value slice is set, and its
// element type picks the stored HDF5 type.
type Dataset struct {
	Dims    []uint
	Float   []float64
	Float32 []float32
	Int     []int64
	Int32   []int32
	Int16   []int16
}

func (d Dataset) datatype() (*hdf5.Datatype, interface{}) {
	switch {
	case d.Float32 != nil:
		return hdf5.T_NATIVE_FLOAT, &d.Float32
	case d.Int != nil:
		return hdf5.T_NATIVE_INT64, &d.Int
	case d.Int32 != nil:
		return hdf5.T_NATIVE_INT32, &d.Int32
	case d.Int16 != nil:
		return hdf5.T_NATIVE_INT16, &d.Int16
	}
	return hdf5.T_NATIVE_DOUBLE, &d.Float
}

// WriteTracer writes every step's STIR trajectory and SkyNet output under the
// resolver's raw directory.
func WriteTracer(t testing.TB, r paths.Resolver, model string, tracerID int, steps ...Step) {
	t.Helper()
	tc := config.DefaultTables()
	for _, s := range steps {
		stirPath, err := r.StirPath(model, tracerID, s.Step)
		if err != nil {
			t.Fatalf("stir path: %v", err)
		}
		WriteStir(t, stirPath, tc.StirColumns, s.StirTimes)

		if s.OutputTimes == nil {
			continue
		}
		skynetPath, err := r.SkynetPath(model, tracerID, s.Step)
		if err != nil {
			t.Fatalf("skynet path: %v", err)
		}
		WriteHDF5(t, skynetPath, SkynetDatasets(s.OutputTimes))
	}
}

// StirValue is the fixture value of a STIR quantity at time tm.
func StirValue(column string, tm float64) float64 {
	switch column {
	case "time":
		return tm
	case "temperature":
		return 1e10 * math.Exp(-tm)
	case "density":
		return 1e9 * math.Exp(-2*tm)
	case "radius":
		return 1e7 * (1 + tm)
	case "ye":
		return 0.5 - 0.01*tm
	default:
		return 1e51 * (1 + tm)
	}
}

func WriteStir(t testing.TB, path string, columns []string, times []float64) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("# " + strings.Join(columns, " ") + "\n")
	for _, tm := range times {
		fields := make([]string, len(columns))
		for i, c := range columns {
			fields[i] = strconv.FormatFloat(StirValue(c, tm), 'g', -1, 64)
		}
		sb.WriteString(strings.Join(fields, "  ") + "\n")
	}
	WriteFile(t, path, sb.String())
}

// AbundanceAt returns the fixture Y vector at time tm. Alphas burn into 56Ni.
func AbundanceAt(tm float64) []float64 {
	burnt := 1 - math.Exp(-tm)
	return []float64{
		0.01 * math.Exp(-tm),
		0.1,
		0.2 * (1 - burnt),
		0.2 * burnt / 14,
	}
}

// SkynetDatasets builds a well-formed SkyNet output for the given times.
// Temperature is stored in GK as SkyNet does.
func SkynetDatasets(times []float64) map[string]Dataset {
	n := uint(len(times))
	vec := func(f func(float64) float64) Dataset {
		out := make([]float64, len(times))
		for i, tm := range times {
			out[i] = f(tm)
		}
		return Dataset{Dims: []uint{n}, Float: out}
	}

	m := uint(len(NetworkZ))
	y := make([]float64, 0, len(times)*len(NetworkZ))
	for _, tm := range times {
		y = append(y, AbundanceAt(tm)...)
	}

	return map[string]Dataset{
		"Time":        vec(func(tm float64) float64 { return tm }),
		"Density":     vec(func(tm float64) float64 { return StirValue("density", tm) }),
		"Temperature": vec(func(tm float64) float64 { return StirValue("temperature", tm) / 1e9 }),
		"Ye":          vec(func(tm float64) float64 { return StirValue("ye", tm) }),
		"HeatingRate": vec(func(tm float64) float64 { return 1e18 * math.Exp(-tm) }),
		"Entropy":     vec(func(tm float64) float64 { return 20 + tm }),
		"Z":           {Dims: []uint{m}, Int: NetworkZ},
		"A":           {Dims: []uint{m}, Int: NetworkA},
		"Y":           {Dims: []uint{n, m}, Float: y},
	}
}

func WriteHDF5(t testing.TB, path string, datasets map[string]Dataset) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		t.Fatalf("create hdf5 %s: %v", path, err)
	}
	defer f.Close()

	for name, d := range datasets {
		space, err := hdf5.CreateSimpleDataspace(d.Dims, nil)
		if err != nil {
			t.Fatalf("dataspace %s: %v", name, err)
		}
		dtype, data := d.datatype()
		ds, err := f.CreateDataset(name, dtype, space)
		if err != nil {
			t.Fatalf("dataset %s: %v", name, err)
		}
		if err := ds.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		ds.Close()
		space.Close()
	}
}

func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Times returns n evenly spaced samples from start to end inclusive.
func Times(start, end float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	for i := range out {
		out[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	return out
}
