// Package logging assembles structured slog loggers and formatting helpers used
// across reelcut.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code tags log lines with the run
// ID, input file, fragment index and stage name automatically. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
