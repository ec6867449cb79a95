package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/apiclient/client/pinning"
	"github.com/adamwoolhether/apiclient/client/throttle"
)

// maxErrBodySize caps how much of a failed response is kept on [Error].
const maxErrBodySize = 4 << 10

// Client executes requests against a single API. It is immutable once
// built and safe for concurrent use.
type Client struct {
	hc       *http.Client
	backend  Backend
	baseURL  *url.URL
	logger   *slog.Logger
	tracer   trace.Tracer
	dispatch func(func())
	pinned   bool
}

// Build creates a [Client]. Pinning material is loaded here; any
// failure to load it fails Build, so a pinned client never falls back
// to system trust.
func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("apiclient"),
		dispatch: func(fn func()) { fn() },
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	hc := &http.Client{}
	if opts.client != nil {
		cpy := *opts.client
		hc = &cpy
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.dispatch != nil {
		client.dispatch = opts.dispatch
	}
	client.baseURL = opts.baseURL

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		hc.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}

	if opts.policy != nil || opts.tlsConfig != nil {
		base, ok := transport.(*http.Transport)
		if !ok {
			return nil, fmt.Errorf("tls settings require an *http.Transport, got %T", transport)
		}
		secured := base.Clone()

		tlsCfg := secured.TLSClientConfig
		if opts.tlsConfig != nil {
			tlsCfg = opts.tlsConfig
		}
		if opts.policy != nil {
			var pinOpts []pinning.Option
			if opts.pinnedOnly {
				pinOpts = append(pinOpts, pinning.WithPinnedOnly())
			}
			tlsCfg = pinning.TLSConfig(tlsCfg, opts.policy, pinOpts...)
			client.pinned = true
		}
		secured.TLSClientConfig = tlsCfg

		transport = secured
	}

	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	hc.Transport = transport
	client.hc = hc

	switch {
	case opts.backend != nil:
		client.backend = opts.backend
	case opts.backendKind == BackendResty:
		client.backend = newRestyBackend(hc, func() *slog.Logger { return client.logger })
	default:
		client.backend = hc
	}

	return client, nil
}

// Pinned reports whether a pinning policy guards the transport.
func (c *Client) Pinned() bool { return c.pinned }

// execFn consumes a successful response. The body is drained and
// closed by exec afterwards.
type execFn func(resp *http.Response) error

// exec runs req through the backend, classifies the status and hands
// successful responses to fn. Failed responses keep a capped copy of
// their body on the returned [*Error]; it is never decoded.
func (c *Client) exec(req *http.Request, fn execFn) error {
	resp, err := c.backend.Do(req)
	if err != nil {
		return transportError(err)
	}

	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	trace.SpanFromContext(req.Context()).SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if err := CheckStatus(resp.StatusCode); err != nil {
		var statusErr *Error
		errors.As(err, &statusErr)

		b, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if readErr != nil {
			b = []byte("unable to read body")
		}
		statusErr.Body = string(b)

		c.logResponse(req, resp.StatusCode, b)

		return statusErr
	}

	return fn(resp)
}

// transportError classifies a failure that produced no response.
// Context cancellation stays reachable through errors.Is.
func transportError(err error) error {
	if errors.Is(err, pinning.ErrTrustEvaluation) {
		return newError(ErrTrustEvaluationFailed, err)
	}

	return newError(ErrRequestFailed, err)
}

func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, newError(ErrInvalidRequest, err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.injectTrace(ctx, req)

	return req, nil
}

// parseURL validates an absolute URL passed to upload and download
// operations.
func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, newError(ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, newError(ErrInvalidURL, fmt.Errorf("%q is not an absolute url", raw))
	}

	return u, nil
}
