package pipeline

import (
	"context"
	"sync"

	"ffloom/internal/progress"
)

// Terminator stops a running process.
type Terminator interface {
	Terminate() error
}

// CancelToken is shared between the caller that may cancel work and the
// executor that owns the running process.
type CancelToken struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	active Terminator
}

// NewCancelToken derives a token from parent. Cancelling parent cancels the
// token too.
func NewCancelToken(parent context.Context) *CancelToken {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &CancelToken{ctx: ctx, cancel: cancel}
}

// Cancel requests cancellation and terminates the active process, if any.
func (t *CancelToken) Cancel() {
	if t == nil {
		return
	}
	t.cancel()
	t.mu.Lock()
	active := t.active
	t.mu.Unlock()
	if active != nil {
		_ = active.Terminate()
	}
}

// Cancelled reports whether Cancel was called or the parent context ended.
func (t *CancelToken) Cancelled() bool {
	if t == nil {
		return false
	}
	return t.ctx.Err() != nil
}

// Done is closed once the token is cancelled.
func (t *CancelToken) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.ctx.Done()
}

// Context exposes the token as a context.
func (t *CancelToken) Context() context.Context {
	if t == nil {
		return context.Background()
	}
	return t.ctx
}

// attach stores the active process handle; the returned func clears it.
func (t *CancelToken) attach(term Terminator) func() {
	t.mu.Lock()
	t.active = term
	t.mu.Unlock()
	if t.Cancelled() {
		_ = term.Terminate()
	}
	return func() {
		t.mu.Lock()
		if t.active == term {
			t.active = nil
		}
		t.mu.Unlock()
	}
}

// Job bundles the collaborator state borrowed for one operation.
// ExpectedSize, when positive, is the byte target used to blend progress
// estimates.
type Job struct {
	Token        *CancelToken
	Progress     *progress.State
	ExpectedSize int64
}

// NewJob returns a Job with a fresh token derived from ctx and a cleared
// progress state.
func NewJob(ctx context.Context) Job {
	return Job{Token: NewCancelToken(ctx), Progress: progress.NewState()}
}

// Normalize fills nil collaborators so callers can pass a zero Job.
func (j Job) Normalize(ctx context.Context) Job {
	if j.Token == nil {
		j.Token = NewCancelToken(ctx)
	}
	if j.Progress == nil {
		j.Progress = progress.NewState()
	}
	return j
}

// Cancelled reports whether the job or ctx has been cancelled.
func (j Job) Cancelled(ctx context.Context) bool {
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	return j.Token.Cancelled()
}
