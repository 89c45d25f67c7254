// Package analysis provides numeric tools over tracer tables.
//
//   - [Trapezoid]: trapezoidal integral of samples
//   - [TotalHeating]: heating rate integrated over the tracer's time range
//   - [Peak]: maximum of a column and the time it occurs
//   - [Resample]: linear interpolation onto a uniform time grid
//   - [NearestIndex]: row closest to a given time
//
// # Total heating
//
// The columns table carries the nuclear heating rate; the energy released
// over the run is its time integral:
//
//	q, err := analysis.TotalHeating(columns)
package analysis
