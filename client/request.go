package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Request executes ep against the client's base URL and decodes the
// response as an [Envelope] of T, accepting either the wrapped or the
// bare form. Non-2xx responses fail with the classified [*Error] and
// are never decoded.
func Request[T any](ctx context.Context, c *Client, ep Endpoint, optFns ...CallOption) (env Envelope[T], err error) {
	if !ep.Method.valid() {
		return env, newError(ErrInvalidRequest, fmt.Errorf("unsupported method %q", ep.Method))
	}

	u, err := ep.URL(c.baseURL)
	if err != nil {
		return env, err
	}

	body, err := ep.encodeBody()
	if err != nil {
		return env, err
	}

	ctx, span := c.startSpan(ctx, "request", string(ep.Method), u)
	defer func() { endSpan(span, err) }()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := c.newRequest(ctx, string(ep.Method), u, reader, ep.headers(body != nil))
	if err != nil {
		return env, err
	}
	c.logRequest(req, body)

	err = c.exec(req, func(resp *http.Response) error {
		b, err := readBody(resp)
		if err != nil {
			return err
		}
		c.logResponse(req, resp.StatusCode, b)

		env, err = DecodeEnvelope[T](b, optFns...)
		return err
	})

	return env, err
}

// Upload POSTs src as the raw request body and decodes the response
// directly as T.
func Upload[T any](ctx context.Context, c *Client, rawURL string, src Payload, headers map[string]string, optFns ...CallOption) (out T, err error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return out, err
	}

	body, size, contentType, err := src.open()
	if err != nil {
		return out, newError(ErrInvalidRequest, err)
	}
	defer body.Close()

	ctx, span := c.startSpan(ctx, "upload", http.MethodPost, u)
	defer func() { endSpan(span, err) }()

	req, err := c.newRequest(ctx, http.MethodPost, u, body, headers)
	if err != nil {
		return out, err
	}
	setBodyLength(req, size)
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.logRequest(req, src.data)

	err = c.exec(req, func(resp *http.Response) error {
		b, err := readBody(resp)
		if err != nil {
			return err
		}
		c.logResponse(req, resp.StatusCode, b)

		out, err = DecodeBare[T](b, optFns...)
		return err
	})

	return out, err
}

// UploadMultipart POSTs form as multipart/form-data and decodes the
// response directly as T.
func UploadMultipart[T any](ctx context.Context, c *Client, rawURL string, form Form, headers map[string]string, optFns ...CallOption) (T, error) {
	return uploadMultipart[T](ctx, c, rawURL, form, headers, nil, nil, optFns)
}

// UploadMultipartWithProgress is [UploadMultipart] reporting the
// fraction of the body sent, in [0,1] and non-decreasing, through the
// client's progress dispatcher. onProgress is never called when the
// body is empty.
func UploadMultipartWithProgress[T any](ctx context.Context, c *Client, rawURL string, form Form, headers map[string]string, onProgress func(float64), optFns ...CallOption) (T, error) {
	if onProgress == nil {
		var zero T
		return zero, newError(ErrInvalidRequest, fmt.Errorf("progress callback must not be nil"))
	}

	return uploadMultipart[T](ctx, c, rawURL, form, headers, onProgress, c.dispatch, optFns)
}

func uploadMultipart[T any](ctx context.Context, c *Client, rawURL string, form Form, headers map[string]string, onProgress func(float64), dispatch func(func()), optFns []CallOption) (out T, err error) {
	u, err := parseURL(rawURL)
	if err != nil {
		return out, err
	}

	boundary := NewBoundary()
	payload, err := BuildMultipart(boundary, form)
	if err != nil {
		return out, newError(ErrInvalidRequest, err)
	}

	ctx, span := c.startSpan(ctx, "upload_multipart", http.MethodPost, u)
	defer func() { endSpan(span, err) }()

	var body io.Reader = bytes.NewReader(payload)
	if onProgress != nil {
		body = &progressReader{
			r:        body,
			total:    int64(len(payload)),
			report:   onProgress,
			dispatch: dispatch,
		}
	}

	req, err := c.newRequest(ctx, http.MethodPost, u, body, headers)
	if err != nil {
		return out, err
	}
	setBodyLength(req, int64(len(payload)))
	req.Header.Set("Content-Type", MultipartContentType(boundary))
	c.logRequest(req, payload)

	err = c.exec(req, func(resp *http.Response) error {
		b, err := readBody(resp)
		if err != nil {
			return err
		}
		c.logResponse(req, resp.StatusCode, b)

		out, err = DecodeBare[T](b, optFns...)
		return err
	})

	return out, err
}

// UploadTask is a multipart upload running in the background, exposing
// its progress as a stream followed by a final result.
type UploadTask[T any] struct {
	progress chan float64
	done     chan struct{}
	result   T
	err      error

	mu     sync.Mutex
	closed bool
}

// StartUploadMultipart starts [UploadMultipart] on a new goroutine.
// Progress values arrive on [UploadTask.Progress], which is closed once
// the upload finishes. Values are dropped rather than stalling the
// upload when the reader falls behind.
func StartUploadMultipart[T any](ctx context.Context, c *Client, rawURL string, form Form, headers map[string]string, optFns ...CallOption) *UploadTask[T] {
	task := &UploadTask[T]{
		progress: make(chan float64, 16),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(task.done)
		task.result, task.err = uploadMultipart[T](ctx, c, rawURL, form, headers, task.report, func(fn func()) { fn() }, optFns)
		task.closeProgress()
	}()

	return task
}

// report may run after the upload returned, since a transport can
// keep reading the request body; late values are dropped.
func (t *UploadTask[T]) report(frac float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	select {
	case t.progress <- frac:
	default:
	}
}

func (t *UploadTask[T]) closeProgress() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	close(t.progress)
}

// Progress streams upload progress in [0,1].
func (t *UploadTask[T]) Progress() <-chan float64 { return t.progress }

// Done is closed when the upload has finished.
func (t *UploadTask[T]) Done() <-chan struct{} { return t.done }

// Wait blocks until the upload finishes and returns its result.
func (t *UploadTask[T]) Wait() (T, error) {
	<-t.done
	return t.result, t.err
}

// readBody reads a successful response. A body cut short is an
// unusable response unless the request context ended first.
func readBody(resp *http.Response) ([]byte, error) {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("reading body: %w", err)
		if resp.Request != nil && resp.Request.Context().Err() != nil {
			return nil, newError(ErrRequestFailed, err)
		}
		return nil, newError(ErrInvalidResponse, err)
	}

	return b, nil
}

// setBodyLength fixes the request length for bodies net/http cannot
// size on its own.
func setBodyLength(req *http.Request, n int64) {
	if n == 0 {
		req.Body = http.NoBody
		req.GetBody = nil
	}
	req.ContentLength = n
}
