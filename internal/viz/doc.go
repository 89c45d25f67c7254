// Package viz renders tracers in the terminal.
//
//   - [Summary]: a styled overview of one tracer for the info command
//   - [Browser]: a Bubble Tea model that plots a tracer's columns one at a time
//   - Theme selection with built-in color schemes
//
// # Key Bindings
//
//	←/→ h/l - Previous/next column
//	Tab     - Next table (stir, columns, X, Y)
//	T       - Cycle color themes
//	Q       - Quit
package viz
