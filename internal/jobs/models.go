package jobs

import "time"

// Status tracks the lifecycle of a recorded job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status ends a job.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is a row of the history table.
type Job struct {
	ID           string
	Operation    string
	InputPath    string
	Template     string
	Status       Status
	Outputs      []string
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
	FinishedAt   *time.Time
}

// Duration returns how long the job ran, or zero while it is running.
func (j *Job) Duration() time.Duration {
	if j == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.CreatedAt)
}

// Outcome captures what Finish persists.
type Outcome struct {
	Status       Status
	Outputs      []string
	ErrorMessage string
	Attempts     int
}
