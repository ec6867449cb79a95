// Package clienttest provides test doubles for code built on the
// client package.
package clienttest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// BackendFunc adapts a function to the client.Backend interface.
type BackendFunc func(*http.Request) (*http.Response, error)

func (f BackendFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

// Recorded is a request seen by a [Backend].
type Recorded struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Backend serves requests in-process with an [http.Handler] and records
// each one. It is safe for concurrent use.
type Backend struct {
	handler http.Handler

	mu       sync.Mutex
	requests []Recorded
}

// NewBackend returns a Backend answering with h.
func NewBackend(h http.Handler) *Backend {
	return &Backend{handler: h}
}

func (b *Backend) Do(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	var body []byte
	if req.Body != nil {
		var err error
		if body, err = io.ReadAll(req.Body); err != nil {
			return nil, err
		}
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	b.mu.Lock()
	b.requests = append(b.requests, Recorded{
		Method: req.Method,
		URL:    req.URL.String(),
		Header: req.Header.Clone(),
		Body:   body,
	})
	b.mu.Unlock()

	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	return rec.Result(), nil
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Recorded, len(b.requests))
	copy(out, b.requests)

	return out
}

// Failing is a backend that returns err for every request.
func Failing(err error) BackendFunc {
	return func(*http.Request) (*http.Response, error) {
		return nil, err
	}
}

// RespondJSON writes data as a JSON response with statusCode.
func RespondJSON(w http.ResponseWriter, statusCode int, data any) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err = w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// RespondEnvelope writes data wrapped in a {status, message, data}
// envelope. An empty message is omitted.
func RespondEnvelope(w http.ResponseWriter, statusCode int, status bool, message string, data any) error {
	env := struct {
		Status  bool    `json:"status"`
		Message *string `json:"message,omitempty"`
		Data    any     `json:"data,omitempty"`
	}{Status: status, Data: data}

	if message != "" {
		env.Message = &message
	}

	return RespondJSON(w, statusCode, env)
}
