package client

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// Backend executes a prepared request. The response body must be
// left unread; the [Client] drains and closes it.
type Backend interface {
	Do(*http.Request) (*http.Response, error)
}

// BackendKind names a built-in [Backend].
type BackendKind string

const (
	BackendNetHTTP BackendKind = "nethttp"
	BackendResty   BackendKind = "resty"
)

// restyBackend drives a resty client that shares the [http.Client] of
// the net/http backend, so both engines see the same transport chain,
// timeout and redirect policy.
type restyBackend struct {
	rc *resty.Client
}

func newRestyBackend(hc *http.Client, logger func() *slog.Logger) *restyBackend {
	rc := resty.NewWithClient(hc)
	rc.SetLogger(restyLogger{logFn: logger})

	return &restyBackend{rc: rc}
}

func (b *restyBackend) Do(req *http.Request) (*http.Response, error) {
	r := b.rc.R().
		SetContext(req.Context()).
		SetDoNotParseResponse(true)
	r.Header = req.Header.Clone()

	if req.Body != nil && req.Body != http.NoBody {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL.String())
	if err != nil {
		return nil, err
	}

	return resp.RawResponse, nil
}

// restyLogger adapts resty's printf-style logger to slog.
type restyLogger struct {
	logFn func() *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logFn().Error("resty", "msg", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logFn().Warn("resty", "msg", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logFn().Debug("resty", "msg", fmt.Sprintf(format, v...))
}
