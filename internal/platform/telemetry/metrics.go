package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// AnalysisMetrics counts loaded datasets and rendered charts. Counts go to
// the OTel meter for export and to Prometheus for the /-/metrics scrape.
type AnalysisMetrics struct {
	datasetsLoaded metric.Int64Counter
	chartsRendered metric.Int64Counter

	promDatasets *prometheus.CounterVec
	promCharts   *prometheus.CounterVec
}

// NewAnalysisMetrics creates the counters and registers the Prometheus
// collectors with reg. A nil reg skips Prometheus.
func NewAnalysisMetrics(reg prometheus.Registerer) (*AnalysisMetrics, error) {
	meter := otel.Meter(instrumentationName)

	loaded, err := meter.Int64Counter("eda.datasets.loaded",
		metric.WithDescription("Datasets loaded, by file format"))
	if err != nil {
		return nil, err
	}

	rendered, err := meter.Int64Counter("eda.charts.rendered",
		metric.WithDescription("Charts rendered, by chart kind"))
	if err != nil {
		return nil, err
	}

	m := &AnalysisMetrics{
		datasetsLoaded: loaded,
		chartsRendered: rendered,
		promDatasets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eda",
			Name:      "datasets_loaded_total",
			Help:      "Datasets loaded, by file format.",
		}, []string{"format"}),
		promCharts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eda",
			Name:      "charts_rendered_total",
			Help:      "Charts rendered, by chart kind.",
		}, []string{"kind"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.promDatasets, m.promCharts} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// DatasetLoaded counts one loaded dataset.
func (m *AnalysisMetrics) DatasetLoaded(ctx context.Context, format domain.Format) {
	m.datasetsLoaded.Add(ctx, 1, metric.WithAttributes(attribute.String("format", string(format))))
	m.promDatasets.WithLabelValues(string(format)).Inc()
}

// ChartRendered counts one rendered chart.
func (m *AnalysisMetrics) ChartRendered(ctx context.Context, kind domain.ChartKind) {
	m.chartsRendered.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
	m.promCharts.WithLabelValues(string(kind)).Inc()
}
