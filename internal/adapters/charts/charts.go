// Package charts renders dataset visualizations with gonum/plot.
package charts

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

const noData = "No data available"

// Options configures the renderer.
type Options struct {
	Style  domain.ChartStyle
	Format domain.ImageFormat
	Width  float64 // inches
	Height float64 // inches
	DPI    int

	MissingBarTop  int
	HeatmapRows    int
	HeatmapColumns int
	SampleSeed     uint64
}

// DefaultOptions returns the chart defaults.
func DefaultOptions() Options {
	return Options{
		Style:          domain.StyleLight,
		Format:         domain.ImagePNG,
		Width:          10,
		Height:         6,
		DPI:            100,
		MissingBarTop:  20,
		HeatmapRows:    100,
		HeatmapColumns: 30,
		SampleSeed:     42,
	}
}

// Renderer draws charts for datasets.
type Renderer struct {
	opts   Options
	engine *analysis.Engine
	logger *slog.Logger
}

// New creates a Renderer. Zero-valued options fall back to the defaults.
func New(opts Options, engine *analysis.Engine, logger *slog.Logger) *Renderer {
	def := DefaultOptions()

	if opts.Style == "" {
		opts.Style = def.Style
	}

	if opts.Format == "" {
		opts.Format = def.Format
	}

	if opts.Width <= 0 {
		opts.Width = def.Width
	}

	if opts.Height <= 0 {
		opts.Height = def.Height
	}

	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}

	if opts.MissingBarTop <= 0 {
		opts.MissingBarTop = def.MissingBarTop
	}

	if opts.HeatmapRows <= 0 {
		opts.HeatmapRows = def.HeatmapRows
	}

	if opts.HeatmapColumns <= 0 {
		opts.HeatmapColumns = def.HeatmapColumns
	}

	if opts.SampleSeed == 0 {
		opts.SampleSeed = def.SampleSeed
	}

	if engine == nil {
		engine = analysis.New(analysis.DefaultOptions(), logger)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Renderer{opts: opts, engine: engine, logger: logger}
}

// Render draws the requested chart and writes the encoded image to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, req domain.ChartRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if req.Dataset == nil {
		return domain.NewValidationError("dataset", "dataset is required")
	}

	if req.Style == "" {
		req.Style = r.opts.Style
	}

	if req.Format == "" {
		req.Format = r.opts.Format
	}

	if req.Format != domain.ImagePNG && req.Format != domain.ImageSVG {
		return domain.NewValidationErrorWithValue("format", "unsupported image format", req.Format)
	}

	if req.Style != domain.StyleLight && req.Style != domain.StyleDark {
		return domain.NewValidationErrorWithValue("style", "unsupported chart style", req.Style)
	}

	p, err := r.build(req)
	if err != nil {
		return err
	}

	r.logger.DebugContext(ctx, "chart rendered",
		slog.String("kind", string(req.Kind)),
		slog.String("column", req.Column),
		slog.String("format", string(req.Format)),
	)

	return r.encode(w, p, req.Format)
}

func (r *Renderer) build(req domain.ChartRequest) (*plot.Plot, error) {
	t := themeFor(req.Style)

	if !req.Kind.NeedsColumn() {
		switch req.Kind {
		case domain.ChartMissingBar:
			return r.missingBar(t, req.Dataset)
		case domain.ChartMissingHeatmap:
			return r.missingHeatmap(t, req.Dataset)
		}
	}

	col, err := numericColumn(req.Dataset, req.Column)
	if err != nil {
		return nil, err
	}

	values, _ := col.Values()
	if len(values) == 0 {
		return placeholder(t, fmt.Sprintf("%s: %s", req.Kind, col.Name), noData)
	}

	switch req.Kind {
	case domain.ChartHistogram:
		return r.histogram(t, col)
	case domain.ChartBoxplot:
		return r.boxplot(t, col, req.IQRFactor)
	case domain.ChartViolin:
		return r.violin(t, col)
	case domain.ChartOutliers:
		return r.outliers(t, col, req.IQRFactor)
	case domain.ChartTimeSeries:
		return r.timeSeries(t, req.Dataset, col, req.TimeAxis, req.IQRFactor)
	default:
		return nil, domain.NewValidationErrorWithValue("kind", "unknown chart kind", req.Kind)
	}
}

func numericColumn(ds *domain.Dataset, name string) (*domain.Column, error) {
	if name == "" {
		return nil, domain.NewValidationError("column", "column is required for this chart")
	}

	col, err := ds.Column(name)
	if err != nil {
		return nil, err
	}

	if col.Kind != domain.KindNumeric {
		return nil, domain.NewValidationErrorWithValue("column", "column is not numeric", name)
	}

	return col, nil
}

func (r *Renderer) encode(w io.Writer, p *plot.Plot, format domain.ImageFormat) error {
	width := vg.Length(r.opts.Width) * vg.Inch
	height := vg.Length(r.opts.Height) * vg.Inch

	var out io.WriterTo

	if format == domain.ImageSVG {
		c := vgsvg.New(width, height)
		p.Draw(draw.New(c))
		out = c
	} else {
		c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(r.opts.DPI))
		p.Draw(draw.New(c))
		out = vgimg.PngCanvas{Canvas: c}
	}

	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("encoding %s chart: %w", format, err)
	}

	return nil
}

// placeholder returns a plot showing only msg in its center.
func placeholder(t theme, title, msg string) (*plot.Plot, error) {
	p := plot.New()
	p.BackgroundColor = t.background
	p.Title.Text = title
	p.Title.TextStyle.Color = t.text
	p.HideAxes()

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{msg},
	})
	if err != nil {
		return nil, fmt.Errorf("placing label: %w", err)
	}

	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = t.text
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(16)
	}

	p.Add(labels)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	return p, nil
}

func line(xys plotter.XYs, c color.Color, width float64, dashes ...vg.Length) (*plotter.Line, error) {
	l, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("building line: %w", err)
	}

	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(width)
	l.LineStyle.Dashes = dashes

	return l, nil
}

func vline(x, y0, y1 float64, c color.Color, width float64, dashes ...vg.Length) (*plotter.Line, error) {
	return line(plotter.XYs{{X: x, Y: y0}, {X: x, Y: y1}}, c, width, dashes...)
}

func hline(y, x0, x1 float64, c color.Color, width float64, dashes ...vg.Length) (*plotter.Line, error) {
	return line(plotter.XYs{{X: x0, Y: y}, {X: x1, Y: y}}, c, width, dashes...)
}

func scatter(xys plotter.XYs, c color.Color, radius float64, shape draw.GlyphDrawer) (*plotter.Scatter, error) {
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("building scatter: %w", err)
	}

	s.GlyphStyle.Color = c
	s.GlyphStyle.Radius = vg.Points(radius)
	s.GlyphStyle.Shape = shape

	return s, nil
}

var (
	dashed = []vg.Length{vg.Points(6), vg.Points(3)}
	dotted = []vg.Length{vg.Points(1.5), vg.Points(2)}
)
