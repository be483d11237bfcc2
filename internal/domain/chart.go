package domain

import (
	"slices"
	"strings"
	"time"
)

// ChartKind names a visualization.
type ChartKind string

// Chart kinds.
const (
	ChartHistogram      ChartKind = "histogram"
	ChartBoxplot        ChartKind = "boxplot"
	ChartViolin         ChartKind = "violin"
	ChartOutliers       ChartKind = "outliers"
	ChartTimeSeries     ChartKind = "timeseries"
	ChartMissingBar     ChartKind = "missing-bar"
	ChartMissingHeatmap ChartKind = "missing-heatmap"
)

// ChartKinds lists every chart kind.
var ChartKinds = []ChartKind{
	ChartHistogram, ChartBoxplot, ChartViolin, ChartOutliers,
	ChartTimeSeries, ChartMissingBar, ChartMissingHeatmap,
}

// NeedsColumn reports whether the chart plots a single variable.
func (k ChartKind) NeedsColumn() bool {
	return k != ChartMissingBar && k != ChartMissingHeatmap
}

// ParseChartKind returns the chart kind named by s.
func ParseChartKind(s string) (ChartKind, error) {
	k := ChartKind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(ChartKinds, k) {
		return "", NewValidationErrorWithValue("kind", "unknown chart kind", s)
	}

	return k, nil
}

// ChartStyle is the color theme of a chart.
type ChartStyle string

// Chart styles.
const (
	StyleLight ChartStyle = "light"
	StyleDark  ChartStyle = "dark"
)

// ImageFormat is the encoding of a rendered chart.
type ImageFormat string

// Image formats.
const (
	ImagePNG ImageFormat = "png"
	ImageSVG ImageFormat = "svg"
)

// ContentType returns the MIME type of the format.
func (f ImageFormat) ContentType() string {
	if f == ImageSVG {
		return "image/svg+xml"
	}

	return "image/png"
}

// ChartRequest describes one chart to render.
type ChartRequest struct {
	Kind      ChartKind
	Dataset   *Dataset
	Column    string
	TimeAxis  string
	Style     ChartStyle
	Format    ImageFormat
	IQRFactor float64
}

// RawFile is the undecoded content of a dataset file.
type RawFile struct {
	Name   string
	Path   string
	Format Format
	Data   []byte
}

// ReportInput is everything the report renderers print.
type ReportInput struct {
	Summary     DatasetSummary
	Missing     MissingReport
	Columns     []ColumnInfo
	GeneratedAt time.Time
	MissingBar  []byte
}
