// Package pipeline spawns resolved tool invocations, feeds their progress
// stream to a progress.Monitor, validates the declared outputs and cleans up
// after failures.
//
// One process runs at a time. The executor reads stdout on its own
// goroutine and hands lines to the monitor; both run under an errgroup and
// the read completes before the process is reaped. Stderr is captured in
// full and travels with any ProcessFailure.
//
// CancelToken is the caller's handle for stopping work: cancelling it kills
// the active process through the narrow Terminator interface and every
// later stage or fallback observes the cancellation before starting.
// RunPipeline chains templates so each stage consumes the previous stage's
// first output.
package pipeline
