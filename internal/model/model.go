// Package model lists the tracers of one core-collapse model's raw output.
package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/san-kum/nucleosynth/internal/extract"
	"github.com/san-kum/nucleosynth/internal/paths"
)

var (
	stepDir  = regexp.MustCompile(`^step([1-9][0-9]*)$`)
	stirFile = regexp.MustCompile(`^stir_tracer([0-9]+)\.dat$`)
)

type Model struct {
	Name     string
	resolver paths.Resolver
}

// Open checks that the model directory exists.
func Open(resolver paths.Resolver, name string) (*Model, error) {
	dir, err := resolver.ModelDir(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, extract.Missing(name, -1, 0, dir, err)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model %s: %s is not a directory", name, dir)
	}
	return &Model{Name: name, resolver: resolver}, nil
}

// Steps returns the step numbers present, ascending.
func (m *Model) Steps() ([]int, error) {
	dir, err := m.resolver.ModelDir(m.Name)
	if err != nil {
		return nil, err
	}
	return scan(dir, stepDir, true)
}

// Tracers returns the ids with a STIR trajectory in step, ascending.
func (m *Model) Tracers(step int) ([]int, error) {
	dir, err := m.resolver.StirDir(m.Name, step)
	if err != nil {
		return nil, err
	}
	ids, err := scan(dir, stirFile, false)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, extract.Missing(m.Name, -1, step, dir, err)
	}
	return ids, err
}

func scan(dir string, re *regexp.Regexp, dirs bool) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []int
	for _, e := range entries {
		if e.IsDir() != dirs {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
