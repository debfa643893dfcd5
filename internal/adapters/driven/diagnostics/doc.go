// Package diagnostics provides the per-batch diagnostics sink.
//
// A Collector keeps every diagnostic reported during one conversion or
// receive, in arrival order, and echoes each one to the logger:
//
//   - notes at debug level, shown with --verbose
//   - warnings and errors at their own level
//
// The CLI renders the collected diagnostics after the batch report.
package diagnostics
