package telemetry

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/jsamuelsen/eda-panel/telemetry"

// HeaderTraceID carries the trace ID of the request span back to the caller,
// who can quote it when reporting a failed upload or analysis.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests no route matched, keeping raw paths out of
// metric attributes.
const unmatchedRoute = "unmatched"

type serverInstruments struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newServerInstruments(meter metric.Meter) (*serverInstruments, error) {
	duration, errD := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Time spent answering dataset API requests"),
		metric.WithUnit("s"),
	)
	total, errT := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("Dataset API requests answered"),
	)
	active, errA := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Dataset API requests in flight"),
	)

	if err := errors.Join(errD, errT, errA); err != nil {
		return nil, err
	}

	return &serverInstruments{duration: duration, total: total, active: active}, nil
}

// Tracing returns the otelgin middleware that starts the server span.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// Middleware echoes the trace ID and measures each request by route. It runs
// after Tracing so the server span is already in the request context.
func Middleware() gin.HandlerFunc {
	inst, err := newServerInstruments(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		if inst == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		}

		start := time.Now()

		inst.active.Add(ctx, 1, metric.WithAttributes(attrs...))
		defer inst.active.Add(ctx, -1, metric.WithAttributes(attrs...))

		c.Next()

		done := metric.WithAttributes(append(attrs, attribute.Int("http.status_code", c.Writer.Status()))...)
		inst.duration.Record(ctx, time.Since(start).Seconds(), done)
		inst.total.Add(ctx, 1, done)
	}
}
