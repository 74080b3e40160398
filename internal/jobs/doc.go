// Package jobs persists the history of pipeline runs in SQLite and guards
// inputs against concurrent processing.
//
// Every CLI invocation records a job row when work begins and stamps the
// terminal status (succeeded, failed, cancelled) together with produced
// outputs or the failure message when it ends. The schema is embedded and
// versioned; a mismatch asks the operator to clear the database rather
// than migrating in place.
//
// LockInput takes an advisory flock keyed by the input path so two
// processes never rewrite the same file at once.
package jobs
