package client

import (
	"errors"
	"testing"
)

func TestCheckStatus(t *testing.T) {
	for code := 100; code < 600; code++ {
		err := CheckStatus(code)

		var want error
		switch {
		case code >= 200 && code <= 299:
			want = nil
		case code == 400:
			want = ErrBadRequest
		case code == 401:
			want = ErrUnauthorized
		case code == 403:
			want = ErrForbidden
		case code == 404:
			want = ErrNotFound
		case code >= 500:
			want = ErrServerError
		default:
			want = ErrUnhandledStatus
		}

		if want == nil {
			if err != nil {
				t.Errorf("%d: expected nil, got %v", code, err)
			}
			continue
		}

		if !errors.Is(err, want) {
			t.Errorf("%d: expected %v, got %v", code, want, err)
			continue
		}

		var e *Error
		if !errors.As(err, &e) || e.StatusCode != code {
			t.Errorf("%d: status code not preserved: %#v", code, err)
		}
	}
}

func TestError_Message(t *testing.T) {
	testCases := []struct {
		name string
		err  *Error
		exp  string
	}{
		{name: "kind only", err: &Error{Kind: ErrNotFound, StatusCode: 404}, exp: "not found"},
		{name: "server code", err: &Error{Kind: ErrServerError, StatusCode: 503}, exp: "server error: 503"},
		{name: "unhandled code", err: &Error{Kind: ErrUnhandledStatus, StatusCode: 302, Body: "moved"}, exp: "unhandled status code: 302, body: moved"},
		{name: "cause", err: newError(ErrRequestFailed, errors.New("connection refused")), exp: "request failed: connection refused"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.exp {
				t.Errorf("expected %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), &Error{Kind: ErrForbidden})
	if got := KindOf(wrapped); got != ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", got)
	}
	if got := KindOf(errors.New("plain")); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
