// Package paths maps tracer identifiers to raw-data and cache locations.
package paths

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrMissingInput = errors.New("paths: missing required input")

// Resolver is a pure mapping from (model, tracer, step) to file paths. It
// never touches the filesystem.
type Resolver struct {
	RawDir   string
	CacheDir string
}

func New(rawDir, cacheDir string) Resolver {
	return Resolver{RawDir: rawDir, CacheDir: cacheDir}
}

func (r Resolver) ModelDir(model string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("%w: model", ErrMissingInput)
	}
	return filepath.Join(r.RawDir, model), nil
}

// StepDir is the directory holding every tracer's raw output for one step.
func (r Resolver) StepDir(model string, step int) (string, error) {
	dir, err := r.ModelDir(model)
	if err != nil {
		return "", err
	}
	if step < 1 {
		return "", fmt.Errorf("%w: step must be positive, got %d", ErrMissingInput, step)
	}
	return filepath.Join(dir, "step"+strconv.Itoa(step)), nil
}

// StirDir holds the STIR trajectories of one step.
func (r Resolver) StirDir(model string, step int) (string, error) {
	dir, err := r.StepDir(model, step)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stir"), nil
}

func (r Resolver) StirPath(model string, tracerID, step int) (string, error) {
	if err := checkTracer(tracerID); err != nil {
		return "", err
	}
	dir, err := r.StirDir(model, step)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("stir_tracer%d.dat", tracerID)), nil
}

func (r Resolver) SkynetPath(model string, tracerID, step int) (string, error) {
	if err := checkTracer(tracerID); err != nil {
		return "", err
	}
	dir, err := r.StepDir(model, step)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "skynet", fmt.Sprintf("tracer_%d.h5", tracerID)), nil
}

func (r Resolver) ModelCacheDir(model string) (string, error) {
	if model == "" {
		return "", fmt.Errorf("%w: model", ErrMissingInput)
	}
	return filepath.Join(r.CacheDir, model), nil
}

// CachePath is the artifact location for one (model, tracer, steps) key.
// Different step lists never share a file.
func (r Resolver) CachePath(model string, tracerID int, steps []int) (string, error) {
	if err := checkTracer(tracerID); err != nil {
		return "", err
	}
	if len(steps) == 0 {
		return "", fmt.Errorf("%w: steps", ErrMissingInput)
	}
	dir, err := r.ModelCacheDir(model)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("tracer%d_steps%s.json", tracerID, StepsLabel(steps))), nil
}

func (r Resolver) CatalogPath() string {
	return filepath.Join(r.CacheDir, "catalog.db")
}

// StepsLabel joins steps with dashes: [1 2] -> "1-2".
func StepsLabel(steps []int) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, "-")
}

func checkTracer(id int) error {
	if id < 0 {
		return fmt.Errorf("%w: tracer id must be non-negative, got %d", ErrMissingInput, id)
	}
	return nil
}

// Key identifies one tracer request: a model, a tracer, and the ordered steps
// to stitch.
type Key struct {
	Model    string
	TracerID int
	Steps    []int
}

func (k Key) Validate() error {
	if k.Model == "" {
		return fmt.Errorf("%w: model", ErrMissingInput)
	}
	if err := checkTracer(k.TracerID); err != nil {
		return err
	}
	if len(k.Steps) == 0 {
		return fmt.Errorf("%w: steps", ErrMissingInput)
	}
	for _, s := range k.Steps {
		if s < 1 {
			return fmt.Errorf("%w: step must be positive, got %d", ErrMissingInput, s)
		}
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s/tracer%d/steps%s", k.Model, k.TracerID, StepsLabel(k.Steps))
}

func (k Key) Equal(other Key) bool {
	if k.Model != other.Model || k.TracerID != other.TracerID || len(k.Steps) != len(other.Steps) {
		return false
	}
	for i := range k.Steps {
		if k.Steps[i] != other.Steps[i] {
			return false
		}
	}
	return true
}

// KeyPath is CachePath for a Key.
func (r Resolver) KeyPath(k Key) (string, error) {
	if err := k.Validate(); err != nil {
		return "", err
	}
	return r.CachePath(k.Model, k.TracerID, k.Steps)
}
