package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Method is an HTTP method supported by [Request].
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

func (m Method) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	default:
		return false
	}
}

// QueryParam is a single query string entry. Order is preserved.
type QueryParam struct {
	Name  string
	Value string
}

// Endpoint describes one API call relative to the client's base URL.
// Body, when non-nil, is sent as JSON.
type Endpoint struct {
	Path    string
	Method  Method
	Query   []QueryParam
	Body    any
	Headers map[string]string
}

// URL resolves the endpoint against base by concatenation, then
// appends the query parameters in order. A nil base requires Path to
// be an absolute URL.
func (e Endpoint) URL(base *url.URL) (*url.URL, error) {
	raw := e.Path
	if base != nil {
		raw = strings.TrimSuffix(base.String(), "/") + "/" + strings.TrimPrefix(e.Path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, newError(ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, newError(ErrInvalidURL, fmt.Errorf("%q is not an absolute url", raw))
	}

	if len(e.Query) > 0 {
		pairs := make([]string, 0, len(e.Query))
		for _, q := range e.Query {
			pairs = append(pairs, url.QueryEscape(q.Name)+"="+url.QueryEscape(q.Value))
		}

		encoded := strings.Join(pairs, "&")
		if u.RawQuery != "" {
			encoded = u.RawQuery + "&" + encoded
		}
		u.RawQuery = encoded
	}

	return u, nil
}

func (e Endpoint) encodeBody() ([]byte, error) {
	if e.Body == nil {
		return nil, nil
	}

	b, err := json.Marshal(e.Body)
	if err != nil {
		return nil, newError(ErrInvalidRequest, fmt.Errorf("encoding request payload: %w", err))
	}

	return b, nil
}

// headers merges the JSON content type, when there is a body, with the
// endpoint's own headers, which win.
func (e Endpoint) headers(hasBody bool) map[string]string {
	h := make(map[string]string, len(e.Headers)+1)
	if hasBody {
		h["Content-Type"] = "application/json"
	}
	for k, v := range e.Headers {
		h[http.CanonicalHeaderKey(k)] = v
	}

	return h
}
