package colorize

import (
	"context"
	"image"
	"sync/atomic"
)

// Cancellation signal values. A job leaves signalOpen exactly once.
const (
	signalOpen int32 = iota
	signalCancelled
	signalCommitted
)

// Job is one colorization request running on its own goroutine.
type Job struct {
	ID uint64

	ctx    context.Context
	signal atomic.Int32
	done   chan struct{}

	// Written once before done is closed.
	state State
	img   *image.RGBA
	err   error
}

func newJob(ctx context.Context, id uint64) *Job {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Job{ID: id, ctx: ctx, done: make(chan struct{})}
}

// Cancel raises the cancellation signal. It reports false, with no effect, once
// the job has passed its cancellation point and is decoding or finished.
func (j *Job) Cancel() bool {
	if j.signal.CompareAndSwap(signalOpen, signalCancelled) {
		return true
	}
	return j.signal.Load() == signalCancelled
}

// commit is the single cancellation check. It reports false when the job must
// stop; on true, later Cancel calls are refused.
func (j *Job) commit() bool {
	if j.ctx.Err() != nil {
		j.signal.CompareAndSwap(signalOpen, signalCancelled)
	}
	return j.signal.CompareAndSwap(signalOpen, signalCommitted)
}

// Done is closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result returns the output image or the terminal error. It blocks until the job is done.
func (j *Job) Result() (*image.RGBA, error) {
	<-j.done
	return j.img, j.err
}

// State returns the terminal state. It blocks until the job is done.
func (j *Job) State() State {
	<-j.done
	return j.state
}

// Wait blocks until the job finishes or ctx ends. An ended ctx only stops the
// wait; the job keeps running until its next stage boundary.
func (j *Job) Wait(ctx context.Context) (*image.RGBA, error) {
	select {
	case <-j.done:
		return j.img, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
