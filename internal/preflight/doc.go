// Package preflight checks that ffloom can run before a job starts: its state
// and log directories are writable, the filesystem receiving outputs has room,
// and the external tools are installed.
//
// The CLI runs RunAll from "ffloom deps" and CheckOutputSpace before every
// operation that writes media next to its input.
package preflight
