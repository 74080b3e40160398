// Package main hosts the ffloom CLI entrypoint and command graph.
//
// Each subcommand loads configuration once, builds the engine from the
// internal packages and runs a single job against one input: template
// pipelines, conversions, splits, preview samples and screenshots. Jobs
// are recorded in the history database and guarded by a per-input lock so
// two invocations never write over the same file.
//
// Keep this package thin. New behaviour belongs in internal packages first
// and is surfaced here as flags or commands.
package main
