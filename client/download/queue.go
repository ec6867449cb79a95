package download

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// WorkFunc is one queued download.
type WorkFunc func(ctx context.Context) error

// Adder starts one more download in the caller's batch. It matches
// client.Client.DownloadAsync.
type Adder func(ctx context.Context, rawURL, destPath string, optFns ...Option) (*Result, error)

// Queue runs a batch of downloads, optionally bounding how many run at
// once, and collects their failures.
type Queue struct {
	wg     sync.WaitGroup
	slots  chan struct{}
	closed atomic.Bool

	mu   sync.Mutex
	errs []error
}

// NewQueue returns a Queue running at most limit downloads at once.
// limit <= 0 means no bound.
func NewQueue(limit int) *Queue {
	q := &Queue{}
	if limit > 0 {
		q.slots = make(chan struct{}, limit)
	}

	return q
}

// Limit reports the concurrency bound, 0 when unbounded.
func (q *Queue) Limit() int { return cap(q.slots) }

// Wait blocks until every started download finishes and returns their
// errors joined.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown stops downloads that have not yet started from running;
// they fail with [ErrQueueShutdown]. Running downloads are unaffected.
func (q *Queue) Shutdown() { q.closed.Store(true) }

// Start runs fn on its own goroutine once a slot is free. adder is
// kept on the returned [Result] so [Result.Add] can join this queue.
func (q *Queue) Start(ctx context.Context, fn WorkFunc, adder Adder) *Result {
	ctx, cancel := context.WithCancel(ctx)
	r := &Result{
		adder:  adder,
		done:   make(chan struct{}),
		cancel: cancel,
		queue:  q,
	}

	q.wg.Go(func() {
		defer close(r.done)
		defer cancel()

		r.err = q.run(ctx, fn)
		if r.err != nil {
			q.recordErr(r.err)
		}
	})

	return r
}

func (q *Queue) run(ctx context.Context, fn WorkFunc) error {
	release, err := q.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if q.closed.Load() {
		return ErrQueueShutdown
	}

	return fn(ctx)
}

// acquire waits for a free slot. An unbounded queue never waits.
func (q *Queue) acquire(ctx context.Context) (func(), error) {
	if q.slots == nil {
		return func() {}, nil
	}

	select {
	case q.slots <- struct{}{}:
		return func() { <-q.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	q.errs = append(q.errs, err)
	q.mu.Unlock()
}
