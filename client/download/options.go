package download

import (
	"errors"
	"hash"
)

// Option configures a single download.
type Option func(*options) error

type options struct {
	checksum     *checksum
	progress     bool
	skipExisting bool
	queue        *Queue
	batchLimit   *int
}

// WithChecksum verifies the body against expected, the hex digest h
// should produce (e.g. sha256.New()). A malformed or wrongly sized
// digest is rejected before anything is written.
func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		c, err := newChecksum(h, expected)
		if err != nil {
			return err
		}
		opts.checksum = c
		return nil
	}
}

// WithProgress logs progress at milestones through the logger passed
// to Handle.
func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting leaves an existing destination alone and reports
// success without fetching anything.
func WithSkipExisting() Option {
	return func(opts *options) error {
		opts.skipExisting = true
		return nil
	}
}

// WithBatch runs an async download in a new queue allowing at most
// maxConcurrent downloads at once; <= 0 means unlimited. It only
// applies to the first download of a batch.
func WithBatch(maxConcurrent int) Option {
	return func(opts *options) error {
		if opts.queue != nil {
			return errors.New("WithBatch cannot be used with Result.Add")
		}
		opts.batchLimit = &maxConcurrent
		return nil
	}
}

// withBatch joins an existing queue. Used by Result.Add.
func withBatch(q *Queue) Option {
	return func(opts *options) error {
		if opts.batchLimit != nil {
			return errors.New("WithBatch cannot be used with Result.Add")
		}
		opts.queue = q
		return nil
	}
}

// Skip reports whether optFns ask to keep an existing destPath and
// one is already there, so the fetch can be avoided altogether.
func Skip(destPath string, optFns ...Option) (bool, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return false, err
	}

	return opts.skipExisting && exists(destPath), nil
}

func applyOptions(optFns []Option) (options, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return options{}, err
		}
	}

	return opts, nil
}

// QueueFor returns the queue an async download with optFns should run
// in: the batch it was added to, a new bounded queue for WithBatch, or
// a new unlimited queue.
func QueueFor(optFns ...Option) (*Queue, error) {
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.queue != nil:
		return opts.queue, nil
	case opts.batchLimit != nil:
		return NewQueue(*opts.batchLimit), nil
	default:
		return NewQueue(0), nil
	}
}
