package client

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/apiclient/client/pinning"
	"github.com/adamwoolhether/apiclient/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error

type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	baseURL           *url.URL
	backendKind       BackendKind
	backend           Backend
	policy            pinning.Policy
	pinnedOnly        bool
	tlsConfig         *tls.Config
	tracer            trace.Tracer
	dispatch          func(func())
}

// WithBaseURL sets the URL that [Endpoint] paths are appended to.
func WithBaseURL(raw string) Option {
	return func(c *options) error {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base url %q must be absolute", raw)
		}
		c.baseURL = u
		return nil
	}
}

// WithClient replaces the default [http.Client] used by the [Client].
// The given client is copied, never mutated.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
// Pinning and [WithTLSConfig] require it to be an [*http.Transport].
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout bounds each call end to end, body read included. Zero
// means no limit beyond the context.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle limits outbound calls to rps per second, allowing
// bursts of up to burst calls.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects hands 3xx responses back to the status
// classifier instead of following them.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger sets the logger for operational and debug output.
// Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithBackend selects the engine that executes requests.
// The default is [BackendNetHTTP].
func WithBackend(kind BackendKind) Option {
	return func(c *options) error {
		switch kind {
		case BackendNetHTTP, BackendResty:
			c.backendKind = kind
			return nil
		default:
			return fmt.Errorf("unknown backend %q", kind)
		}
	}
}

// WithBackendImpl executes every request through b, bypassing the
// transport chain entirely. Intended for tests.
func WithBackendImpl(b Backend) Option {
	return func(c *options) error {
		if b == nil {
			return errors.New("backend must not be nil")
		}
		c.backend = b
		return nil
	}
}

// WithPinning installs p as the TLS trust policy.
func WithPinning(p pinning.Policy) Option {
	return func(c *options) error {
		if p == nil {
			return errors.New("pinning policy must not be nil")
		}
		c.policy = p
		return nil
	}
}

// WithCertificatePinFile pins the DER or PEM certificate at path.
// A missing or invalid file fails [Build].
func WithCertificatePinFile(path string) Option {
	return func(c *options) error {
		p, err := pinning.LoadCertificatePin(path)
		if err != nil {
			return err
		}
		c.policy = p
		return nil
	}
}

// WithPublicKeyPins pins the given base64 SHA-256 public key hashes.
func WithPublicKeyPins(b64Hashes ...string) Option {
	return func(c *options) error {
		p, err := pinning.NewPublicKeyPin(b64Hashes...)
		if err != nil {
			return err
		}
		c.policy = p
		return nil
	}
}

// WithPinnedOnly trusts a pinned server without system chain
// verification. It has no effect unless a pinning policy is set.
func WithPinnedOnly() Option {
	return func(c *options) error {
		c.pinnedOnly = true
		return nil
	}
}

// WithTLSConfig sets the base TLS configuration of the transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *options) error {
		if cfg == nil {
			return errors.New("tls config must not be nil")
		}
		c.tlsConfig = cfg
		return nil
	}
}

// WithTracer records one span per client operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		c.tracer = tracer
		return nil
	}
}

// WithProgressDispatcher sets how upload progress callbacks are
// delivered. dispatch receives each callback and must eventually run it.
// By default callbacks run synchronously on the transport goroutine.
func WithProgressDispatcher(dispatch func(func())) Option {
	return func(c *options) error {
		if dispatch == nil {
			return errors.New("dispatcher must not be nil")
		}
		c.dispatch = dispatch
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// CallOption is a functional option for a single decode.
type CallOption func(options *callOpts) error

type callOpts struct {
	useJSONNum  bool
	requireData bool
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() CallOption {
	return func(opts *callOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// WithRequiredData fails decoding when a successful envelope has no data.
func WithRequiredData() CallOption {
	return func(opts *callOpts) error {
		opts.requireData = true

		return nil
	}
}

func applyCallOptions(optFns []CallOption) (callOpts, error) {
	var settings callOpts
	for _, opt := range optFns {
		if err := opt(&settings); err != nil {
			return callOpts{}, err
		}
	}

	return settings, nil
}
