// Package extract reads raw per-step tracer output from disk.
//
// Each simulation step of a tracer has two sources:
//
//   - a STIR trajectory (ASCII), always required, giving the "stir" table
//   - a SkyNet output file (HDF5), optional, giving the "columns" table,
//     the isotope network, and the X/Y composition tables
//
// A missing STIR trajectory is an [ErrMissingData] error; any file that exists
// but does not parse is [ErrMalformedData]. Nothing is cached here.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/apex/log"

	"github.com/san-kum/nucleosynth/internal/config"
	"github.com/san-kum/nucleosynth/internal/network"
	"github.com/san-kum/nucleosynth/internal/paths"
	"github.com/san-kum/nucleosynth/internal/table"
)

// StepData is the unstitched output of one step.
type StepData struct {
	Step        int
	Tables      map[table.Kind]*table.Table
	Composition map[table.CompKind]*table.Table
	Network     network.Network
}

// HasOutput reports whether SkyNet output was found for the step.
func (s *StepData) HasOutput() bool {
	return s.Tables[table.Columns] != nil
}

type Extractor interface {
	Extract(model string, tracerID, step int) (*StepData, error)
}

// Raw extracts from the on-disk layout described by a paths.Resolver.
type Raw struct {
	resolver paths.Resolver
	tables   config.TablesConfig
	log      log.Interface
}

func NewRaw(resolver paths.Resolver, tables config.TablesConfig, logger log.Interface) *Raw {
	if logger == nil {
		logger = log.Log
	}
	return &Raw{resolver: resolver, tables: tables, log: logger}
}

func (r *Raw) Extract(model string, tracerID, step int) (*StepData, error) {
	stirPath, err := r.resolver.StirPath(model, tracerID, step)
	if err != nil {
		return nil, err
	}
	skynetPath, err := r.resolver.SkynetPath(model, tracerID, step)
	if err != nil {
		return nil, err
	}

	ctx := r.log.WithFields(log.Fields{"model": model, "tracer": tracerID, "step": step})

	data := &StepData{
		Step:        step,
		Tables:      make(map[table.Kind]*table.Table),
		Composition: make(map[table.CompKind]*table.Table),
	}

	ctx.WithField("path", stirPath).Debug("reading stir trajectory")
	stir, err := r.readStir(model, tracerID, step, stirPath)
	if err != nil {
		return nil, err
	}
	data.Tables[table.Stir] = stir

	if _, err := os.Stat(skynetPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			ctx.WithField("path", skynetPath).Debug("no skynet output for step")
			return data, nil
		}
		return nil, Malformed(model, tracerID, step, skynetPath, err)
	}

	ctx.WithField("path", skynetPath).Debug("reading skynet output")
	out, err := readSkynet(skynetPath, r.tables)
	if err != nil {
		return nil, Malformed(model, tracerID, step, skynetPath, err)
	}
	if out.columns.Len() == 0 {
		return nil, Malformed(model, tracerID, step, skynetPath, fmt.Errorf("no time samples"))
	}
	x, err := network.MassFractions(out.y, out.network)
	if err != nil {
		return nil, Malformed(model, tracerID, step, skynetPath, err)
	}

	data.Tables[table.Columns] = out.columns
	data.Composition[table.Y] = out.y
	data.Composition[table.X] = x
	data.Network = out.network
	return data, nil
}

func (r *Raw) readStir(model string, tracerID, step int, path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Missing(model, tracerID, step, path, nil)
		}
		return nil, Malformed(model, tracerID, step, path, err)
	}
	defer f.Close()

	t, err := ParseStir(f, r.tables.StirColumns)
	if err != nil {
		de := Malformed(model, tracerID, step, path, err)
		var le *lineError
		if errors.As(err, &le) {
			de.Line = le.line
			de.Err = le.err
		}
		return nil, de
	}
	return t, nil
}
