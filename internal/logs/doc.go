// Package logs reads the JSON run logs ffloom writes into the log directory.
//
// Each CLI invocation writes one ffloom-<timestamp>.log file. This package
// locates those files, tails them with bounded memory and filters records by
// a structured field so a single job's lines can be pulled out of a run.
package logs
