package extract

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/hdf5"

	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/table"
)

// skynetOutput is one SkyNet HDF5 file reshaped into tables.
type skynetOutput struct {
	columns *table.Table
	network network.Network
	y       *table.Table
}

// readSkynet opens a SkyNet output file and pulls the configured scalar
// datasets, the Z/A network, and the n x m abundance matrix Y.
func readSkynet(path string, tc config.TablesConfig) (*skynetOutput, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("failed to open hdf5 file: %w", err)
	}
	defer f.Close()

	names := make([]string, 0, len(tc.Columns))
	cols := make([][]float64, 0, len(tc.Columns))
	var times []float64
	for _, dataset := range tc.Columns {
		vals, err := readVector(f, dataset)
		if err != nil {
			return nil, err
		}
		name := strings.ToLower(dataset)
		if scale, ok := tc.ColumnScales[name]; ok {
			for i := range vals {
				vals[i] *= scale
			}
		}
		if name == table.Time {
			times = vals
		}
		names = append(names, name)
		cols = append(cols, vals)
	}
	columns, err := table.New(names, cols)
	if err != nil {
		return nil, err
	}
	if err := columns.Validate(); err != nil {
		return nil, err
	}
	if i := columns.CheckMonotonic(); i >= 0 {
		return nil, fmt.Errorf("dataset Time decreases at index %d", i)
	}

	z, err := readInts(f, "Z")
	if err != nil {
		return nil, err
	}
	a, err := readInts(f, "A")
	if err != nil {
		return nil, err
	}
	net, err := network.FromZA(z, a)
	if err != nil {
		return nil, err
	}

	y, err := readAbundances(f, times, net)
	if err != nil {
		return nil, err
	}

	return &skynetOutput{columns: columns, network: net, y: y}, nil
}

func readAbundances(f *hdf5.File, times []float64, net network.Network) (*table.Table, error) {
	ds, err := f.OpenDataset("Y")
	if err != nil {
		return nil, fmt.Errorf("dataset Y: %w", err)
	}
	defer ds.Close()

	dims, err := datasetDims(ds)
	if err != nil {
		return nil, fmt.Errorf("dataset Y: %w", err)
	}
	if len(dims) != 2 || int(dims[0]) != len(times) || int(dims[1]) != len(net) {
		return nil, fmt.Errorf("dataset Y: shape %v, want [%d %d]", dims, len(times), len(net))
	}

	n, m := len(times), len(net)
	flat, err := readNumbers(ds, n*m)
	if err != nil {
		return nil, fmt.Errorf("dataset Y: %w", err)
	}

	names := append([]string{table.Time}, net.Names()...)
	cols := make([][]float64, m+1)
	cols[0] = append([]float64(nil), times...)
	for j := 0; j < m; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			v := flat[i*m+j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("dataset Y: non-finite value at [%d %d]", i, j)
			}
			col[i] = v
		}
		cols[j+1] = col
	}
	return table.New(names, cols)
}

func readVector(f *hdf5.File, name string) ([]float64, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	defer ds.Close()

	dims, err := datasetDims(ds)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("dataset %s: expected 1-D, got shape %v", name, dims)
	}

	out, err := readNumbers(ds, int(dims[0]))
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	return out, nil
}

func readInts(f *hdf5.File, name string) ([]int, error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	defer ds.Close()

	dims, err := datasetDims(ds)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("dataset %s: expected 1-D, got shape %v", name, dims)
	}

	raw, err := readNumbers(ds, int(dims[0]))
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	out := make([]int, len(raw))
	for i, v := range raw {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("dataset %s: non-integer value %g at %d", name, v, i)
		}
		out[i] = int(v)
	}
	return out, nil
}

// readNumbers reads n elements of a numeric dataset and widens them to
// float64. Dataset.Read uses the stored type as the memory type, so the
// buffer has to match it: 32 and 64-bit integers and floats are accepted.
func readNumbers(ds *hdf5.Dataset, n int) ([]float64, error) {
	dtype, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	defer dtype.Close()

	out := make([]float64, n)
	class, size := dtype.Class(), dtype.Size()
	switch {
	case class == hdf5.T_FLOAT && size == 8:
		if n > 0 {
			err = ds.Read(&out)
		}
	case class == hdf5.T_FLOAT && size == 4:
		raw := make([]float32, n)
		if n > 0 {
			err = ds.Read(&raw)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case class == hdf5.T_INTEGER && size == 8:
		raw := make([]int64, n)
		if n > 0 {
			err = ds.Read(&raw)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	case class == hdf5.T_INTEGER && size == 4:
		raw := make([]int32, n)
		if n > 0 {
			err = ds.Read(&raw)
		}
		for i, v := range raw {
			out[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported datatype (class %d, %d bytes)", int(class), size)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func datasetDims(ds *hdf5.Dataset) ([]uint, error) {
	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	return dims, err
}
