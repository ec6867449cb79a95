package download

import (
	"context"
	"slices"
)

// Result tracks one async download within its [Queue].
type Result struct {
	adder  Adder
	done   chan struct{}
	err    error
	cancel context.CancelFunc
	queue  *Queue
}

// failed returns an already finished Result carrying err.
func (q *Queue) failed(adder Adder, err error) *Result {
	done := make(chan struct{})
	close(done)

	return &Result{adder: adder, done: done, err: err, cancel: func() {}, queue: q}
}

// Add queues another download in the same batch. WithBatch is rejected
// here. A download that cannot start is recorded in the queue, so
// checking [Result.Wait] once is enough.
func (r *Result) Add(ctx context.Context, rawURL, destPath string, optFns ...Option) *Result {
	res, err := r.adder(ctx, rawURL, destPath, slices.Concat([]Option{withBatch(r.queue)}, optFns)...)
	if err != nil {
		r.queue.recordErr(err)
		return r.queue.failed(r.adder, err)
	}

	return res
}

// Done is closed when this download finishes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err waits for this download and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Wait waits for the whole batch and returns every error joined.
func (r *Result) Wait() error { return r.queue.Wait() }

// Cancel stops this download.
func (r *Result) Cancel() { r.cancel() }
