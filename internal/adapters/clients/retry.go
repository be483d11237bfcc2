package clients

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jsamuelsen/eda-panel/internal/platform/config"
)

// backoff decides whether and when a request to a dataset source is tried
// again.
type backoff struct {
	attempts int
	initial  time.Duration
	max      time.Duration
	factor   float64
	jitter   float64
	rand     func() float64
}

func newBackoff(cfg config.RetryConfig) backoff {
	b := backoff{
		attempts: max(cfg.MaxAttempts, 1),
		initial:  cfg.InitialInterval,
		max:      cfg.MaxInterval,
		factor:   cfg.Multiplier,
		jitter:   cfg.JitterFactor,
		rand:     rand.Float64, //nolint:gosec // jitter needs no crypto randomness
	}

	if b.factor < 1 {
		b.factor = 1
	}

	if b.max < b.initial {
		b.max = b.initial
	}

	return b
}

// delay returns the pause before retry n (1-based). A Retry-After header in
// seconds overrides the computed value but never exceeds the max interval.
func (b backoff) delay(n int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, b.max)
	}

	d := min(float64(b.initial)*math.Pow(b.factor, float64(n-1)), float64(b.max))
	d += d * b.jitter * (2*b.rand() - 1)

	return time.Duration(d)
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryableStatus reports whether a source answer is worth another attempt:
// rate limiting and server-side failures.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// retryableErr reports whether a transport failure is worth another attempt:
// timeouts of a single attempt and network errors. The caller's own context
// is checked by the retry loop.
func retryableErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var op *net.OpError

	return errors.As(err, &op)
}
