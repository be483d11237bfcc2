package clients

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/jsamuelsen/eda-panel/internal/adapters/clients"

// instruments records one measurement per Do call, retries included.
type instruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

func newInstruments() (instruments, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Time spent fetching from a dataset source, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("creating duration histogram: %w", err)
	}

	requests, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Requests sent to dataset sources"),
	)
	if err != nil {
		return instruments{}, fmt.Errorf("creating request counter: %w", err)
	}

	return instruments{duration: duration, requests: requests}, nil
}

// outcome labels a finished call: a status class such as "2xx", or one of
// "circuit_open", "canceled", and "error".
func (in instruments) record(ctx context.Context, source, method string, status int, outcome string, took time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("peer.service", source),
		attribute.String("http.method", method),
		attribute.String("result", outcome),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)
	in.duration.Record(ctx, took.Seconds(), opt)
	in.requests.Add(ctx, 1, opt)
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
