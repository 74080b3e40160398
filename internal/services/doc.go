// Package services defines shared utilities consumed by the pipeline
// components and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - The typed failure taxonomy (malformed template, process failure,
//     validation failure, cancellation, corrupted source) plus the Wrap
//     helper that keeps stage context on configuration errors.
//   - FailureStatus, which translates a failure into the job history status.
//
// Return these types across package boundaries instead of bare errors so
// callers can branch with errors.Is and surface stderr diagnostics.
package services
