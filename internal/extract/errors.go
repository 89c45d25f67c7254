package extract

import (
	"errors"
	"fmt"
)

// Data error classes. A DataError matches exactly one of them with errors.Is.
var (
	// ErrMissingData means the requested source does not exist.
	ErrMissingData = errors.New("extract: missing data")

	// ErrMalformedData means the source exists but cannot be parsed into the
	// expected schema.
	ErrMalformedData = errors.New("extract: malformed data")
)

// DataError carries the identifiers of the data that failed. TracerID is -1
// for failures that concern a whole model or step.
type DataError struct {
	Class    error
	Model    string
	TracerID int
	Step     int
	Path     string
	Line     int
	Err      error
}

func Missing(model string, tracerID, step int, path string, err error) *DataError {
	return &DataError{Class: ErrMissingData, Model: model, TracerID: tracerID, Step: step, Path: path, Err: err}
}

func Malformed(model string, tracerID, step int, path string, err error) *DataError {
	return &DataError{Class: ErrMalformedData, Model: model, TracerID: tracerID, Step: step, Path: path, Err: err}
}

func (e *DataError) Error() string {
	where := "model " + e.Model
	if e.TracerID >= 0 {
		where += fmt.Sprintf(" tracer %d", e.TracerID)
	}
	if e.Step > 0 {
		where += fmt.Sprintf(" step %d", e.Step)
	}
	if e.Path != "" {
		where += " (" + e.Path
		if e.Line > 0 {
			where += fmt.Sprintf(":%d", e.Line)
		}
		where += ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Class, where, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Class, where)
}

func (e *DataError) Is(target error) bool {
	return target == e.Class
}

func (e *DataError) Unwrap() error {
	return e.Err
}
