// Package viz renders run reports and timing plots for the terminal.
//
//   - [Monitor]: Bubble Tea progress view fed by a driver observer
//   - [PlotTimings], [PlotSeries]: asciigraph charts of step times and metrics
//   - [RunTable], [Report]: lipgloss panels for stored runs and results
//
// # Monitor keys
//
//	q, ctrl+c - cancel the run and quit
//	t         - cycle color themes
//	?         - toggle help
package viz
