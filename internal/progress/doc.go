// Package progress turns ffmpeg's machine-readable `-progress` stream into
// processed bytes, processed media time, speed, percent and ETA.
//
// State is the mutable counter set shared between the monitor (writer) and
// whatever renders progress (reader). Monitor consumes newline-delimited
// key=value lines until the stream ends, the caller cancels, or no line
// arrives within the stall timeout. Observation never fails: process
// failures are the executor's concern and are read from the exit status.
//
// Split and multi-step operations call State.Commit after each finished
// segment so later segments report cumulative totals.
package progress
