package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/eda-panel/internal/adapters/http/middleware"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "eda-panel"
)

// Config configures a client for one dataset source.
type Config struct {
	// BaseURL prefixes every request path, e.g. "https://data.example.com/files".
	BaseURL string

	// ServiceName names the source in logs, spans, and metrics.
	ServiceName string

	// Timeout bounds one attempt. Retries and backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// Headers are set on every attempt, after the propagated IDs.
	Headers   map[string]string
	UserAgent string
	Logger    *slog.Logger
}

// Client fetches files from a dataset source. Each call passes the circuit
// breaker, then retries transport failures, rate limiting, and 5xx answers
// with jittered exponential backoff. Calls are traced and measured, and
// carry the request and correlation IDs of the caller.
type Client struct {
	http      *http.Client
	baseURL   string
	name      string
	userAgent string
	headers   map[string]string

	retry   backoff
	breaker *CircuitBreaker
	tracer  trace.Tracer
	metrics instruments
	logger  *slog.Logger
}

// New creates a client. ServiceName is required.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	metrics, err := newInstruments()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "dataset-source-client"), slog.String("source", cfg.ServiceName))

	breaker := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("source circuit changed state", slog.String("from", from.String()), slog.String("to", to.String()))
	})

	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: newTransport(cfg.Transport)},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		name:      cfg.ServiceName,
		userAgent: userAgent,
		headers:   cfg.Headers,
		retry:     newBackoff(cfg.Retry),
		breaker:   breaker,
		tracer:    otel.Tracer(instrumentationName),
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Get fetches path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path)
}

// Head asks for the headers of path only.
func (c *Client) Head(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodHead, path)
}

func (c *Client) send(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Do sends req. Requests must be bodiless so attempts can be repeated.
//
// A response is returned for every answer the source gave, including a 4xx
// or a 5xx that survived all retries; the caller closes its body. Errors are
// ErrCircuitOpen, the caller's context error, or ErrMaxRetriesExceeded
// wrapping the last transport failure.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("source", c.name),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.Allow() {
		c.metrics.record(ctx, c.name, req.Method, 0, "circuit_open", time.Since(start))
		logger.WarnContext(ctx, "source circuit open, request rejected")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, req.Method+" "+c.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	c.decorate(ctx, req)

	resp, err := c.attempt(ctx, req, logger)
	took := time.Since(start)

	switch {
	case err != nil && ctx.Err() != nil:
		c.breaker.Release()
		span.SetStatus(codes.Error, err.Error())
		c.metrics.record(ctx, c.name, req.Method, 0, "canceled", took)

		return nil, err
	case err != nil:
		c.breaker.RecordFailure()
		span.SetStatus(codes.Error, err.Error())
		c.metrics.record(ctx, c.name, req.Method, 0, "error", took)
		logger.ErrorContext(ctx, "source request failed", slog.Duration("duration", took), slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	if retryableStatus(resp.StatusCode) {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
	}

	c.metrics.record(ctx, c.name, req.Method, resp.StatusCode, statusClass(resp.StatusCode), took)
	logger.DebugContext(ctx, "source request done", slog.Int("status", resp.StatusCode), slog.Duration("duration", took))

	return resp, nil
}

// attempt runs req until it gets a final answer or attempts run out.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	for n := 1; ; n++ {
		resp, err := c.http.Do(req.WithContext(ctx))

		last := n >= c.retry.attempts
		retryAfter := ""

		switch {
		case err != nil:
			if last || ctx.Err() != nil || !retryableErr(err) {
				return nil, err
			}

			logger.DebugContext(ctx, "retrying after transport error", slog.Int("attempt", n), slog.Any("error", err))
		case retryableStatus(resp.StatusCode) && !last:
			retryAfter = resp.Header.Get("Retry-After")
			_ = resp.Body.Close()

			logger.DebugContext(ctx, "retrying after source status", slog.Int("attempt", n), slog.Int("status", resp.StatusCode))
		default:
			return resp, nil
		}

		if err := wait(ctx, c.retry.delay(n, retryAfter)); err != nil {
			return nil, err
		}
	}
}

// decorate sets the propagated IDs, trace context, user agent, and static
// headers on req.
func (c *Client) decorate(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	req.Header.Set("User-Agent", c.userAgent)

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

// BaseURL returns the base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CircuitState returns the breaker state of the source.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	t.MaxIdleConns = orDefault(cfg.MaxIdleConns, config.DefaultTransportMaxIdleConns)
	t.MaxIdleConnsPerHost = orDefault(cfg.MaxIdleConnsPerHost, config.DefaultTransportMaxIdleConnsPerHost)
	t.IdleConnTimeout = orDefault(cfg.IdleConnTimeout, config.DefaultTransportIdleConnTimeout)

	return t
}

// orDefault returns v, or def when v is not positive.
func orDefault[T int | time.Duration](v, def T) T {
	if v > 0 {
		return v
	}

	return def
}
