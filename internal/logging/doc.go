// Package logging assembles structured slog loggers and formatting helpers used
// across ffloom.
//
// It owns the console and JSON handlers, level and output plumbing, and the
// context helpers that tag log lines with job IDs, pipeline stages and
// correlation IDs. Each CLI run writes a JSON log file next to the console
// stream; old files are pruned by retention.
//
// Use NewNop in tests and in constructors that receive a nil logger.
package logging
