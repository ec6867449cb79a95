package client

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by the client is an [*Error]
// whose Kind is one of these sentinels, so callers can branch with
// errors.Is(err, client.ErrNotFound).
var (
	ErrInvalidURL            = errors.New("invalid url")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidResponse       = errors.New("invalid response")
	ErrDecoding              = errors.New("decoding failed")
	ErrBadRequest            = errors.New("bad request")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrServerError           = errors.New("server error")
	ErrUnhandledStatus       = errors.New("unhandled status code")
	ErrFileSaveFailed        = errors.New("file save failed")
	ErrRequestFailed         = errors.New("request failed")
	ErrTrustEvaluationFailed = errors.New("server trust evaluation failed")
)

// Error is the single error type surfaced by [Client] operations.
//
// StatusCode is set for status-derived kinds. Body holds at most
// maxErrBodySize bytes of the response body for diagnostics; it is
// never decoded. Err is the underlying cause, if any.
type Error struct {
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())

	switch {
	case errors.Is(e.Kind, ErrServerError), errors.Is(e.Kind, ErrUnhandledStatus):
		fmt.Fprintf(&b, ": %d", e.StatusCode)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	if e.Body != "" {
		fmt.Fprintf(&b, ", body: %s", e.Body)
	}

	return b.String()
}

// Unwrap exposes both the kind and the cause, so errors.Is matches
// sentinels like [ErrNotFound] as well as causes like context.Canceled.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func newError(kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// KindOf returns the kind of err when it is, or wraps, an [*Error].
// It returns nil otherwise.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return nil
}
