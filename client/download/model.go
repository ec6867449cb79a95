package download

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrSaveFailed            = errors.New("saving file")
	ErrDownloadCancelled     = errors.New("download cancelled")
	ErrQueueShutdown         = errors.New("download queue shut down")
)

type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// contextReader stops a copy as soon as ctx ends.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.r.Read(p)
}

// saveWriter tags write failures so they can be told apart from
// failures reading the response body.
type saveWriter struct {
	w io.Writer
}

func (sw saveWriter) Write(p []byte) (int, error) {
	n, err := sw.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	return n, nil
}
