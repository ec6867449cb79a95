package throttle

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewRoundTripper wraps next with a token bucket refilled at cfg.RPS
// tokens per second and holding at most cfg.Burst. A nil next uses
// [http.DefaultTransport]. logFn is resolved per request so the
// client's logger can be swapped after construction; nil disables
// logging.
func NewRoundTripper(cfg Config, logFn func() *slog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if next == nil {
		next = http.DefaultTransport
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		next:    next,
		logFn:   logFn,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w before reserving a token: %w", ErrContextEnded, err)
	}

	res := t.limiter.Reserve()
	delay := res.Delay()
	if delay == 0 {
		return t.next.RoundTrip(r)
	}

	// Fail now rather than sleep past the caller's deadline.
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		res.Cancel()
		return nil, fmt.Errorf("%w: delay %v exceeds request deadline", ErrWaitingFailed, delay)
	}

	if logger := t.logger(); logger != nil {
		logger.Info("throttling request",
			"delay", delay.Round(time.Millisecond).String(),
			"rps", t.cfg.RPS,
			"burst", t.cfg.Burst,
			"method", r.Method,
			"host", r.URL.Host,
		)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		res.Cancel()
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, ctx.Err())
	}

	return t.next.RoundTrip(r)
}

func (t *throttle) logger() *slog.Logger {
	if t.logFn == nil {
		return nil
	}

	return t.logFn()
}
