package loadsave

import (
	"errors"
	"fmt"

	"github.com/san-kum/nucleosynth/internal/paths"
)

var (
	// ErrStitch indicates per-step tables that cannot be joined into one
	// time-ordered table.
	ErrStitch = errors.New("loadsave: stitch inconsistency")

	// ErrCacheWrite indicates the stitched result could not be persisted.
	ErrCacheWrite = errors.New("loadsave: cache write failed")
)

// StitchError names the step boundary that failed. PrevEnd and Start are the
// last time of PrevStep and the first time of Step when the failure is a time
// overlap.
type StitchError struct {
	Kind     string
	PrevStep int
	Step     int
	PrevEnd  float64
	Start    float64
	Reason   string
}

func (e *StitchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: steps %d and %d: %s", ErrStitch, e.PrevStep, e.Step, e.Reason)
	}
	return fmt.Sprintf("%v: %s table of step %d starts at t=%g, before step %d ends at t=%g",
		ErrStitch, e.Kind, e.Step, e.Start, e.PrevStep, e.PrevEnd)
}

func (e *StitchError) Is(target error) bool {
	return target == ErrStitch
}

// CacheWriteError is a failed save. It never replaces the result it was
// saving; Obtain reports it in Result.SaveErr.
type CacheWriteError struct {
	Key  paths.Key
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%v: %s (%s): %v", ErrCacheWrite, e.Key, e.Path, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrCacheWrite, e.Key, e.Err)
}

func (e *CacheWriteError) Is(target error) bool {
	return target == ErrCacheWrite
}

func (e *CacheWriteError) Unwrap() error {
	return e.Err
}
