package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/ports"
)

// ChartOptions selects what a chart plots and how. Empty fields use the
// service defaults.
type ChartOptions struct {
	Column   string
	TimeAxis string
	Style    domain.ChartStyle
	Format   domain.ImageFormat
}

// ReportService renders charts and reports for stored datasets.
type ReportService struct {
	repo          ports.DatasetRepository
	engine        *analysis.Engine
	charts        ports.ChartRenderer
	reports       ports.ReportRenderer
	metrics       ports.AnalysisMetrics
	includeCharts bool
	defaults      ChartOptions
	logger        *slog.Logger
	now           func() time.Time
}

// ReportServiceConfig contains the dependencies of a ReportService.
type ReportServiceConfig struct {
	Repo    ports.DatasetRepository
	Engine  *analysis.Engine
	Charts  ports.ChartRenderer
	Reports ports.ReportRenderer
	Metrics ports.AnalysisMetrics

	// IncludeCharts appends the missing-value chart to PDF reports.
	IncludeCharts bool

	// Style and Format are the chart defaults.
	Style  domain.ChartStyle
	Format domain.ImageFormat

	Logger *slog.Logger
}

// NewReportService creates a report service.
func NewReportService(cfg ReportServiceConfig) *ReportService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := cfg.Engine
	if engine == nil {
		engine = analysis.New(analysis.DefaultOptions(), logger)
	}

	defaults := ChartOptions{Style: cfg.Style, Format: cfg.Format}
	if defaults.Style == "" {
		defaults.Style = domain.StyleLight
	}

	if defaults.Format == "" {
		defaults.Format = domain.ImagePNG
	}

	return &ReportService{
		repo:          cfg.Repo,
		engine:        engine,
		charts:        cfg.Charts,
		reports:       cfg.Reports,
		metrics:       cfg.Metrics,
		includeCharts: cfg.IncludeCharts,
		defaults:      defaults,
		logger:        logger,
		now:           time.Now,
	}
}

// Chart draws one chart of dataset id into w and returns the image format used.
func (s *ReportService) Chart(ctx context.Context, w io.Writer, id string, kind domain.ChartKind, opts ChartOptions) (domain.ImageFormat, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	return s.ChartDataset(ctx, w, ds, kind, opts)
}

// ChartDataset draws one chart of ds into w.
func (s *ReportService) ChartDataset(ctx context.Context, w io.Writer, ds *domain.Dataset, kind domain.ChartKind, opts ChartOptions) (domain.ImageFormat, error) {
	if opts.Style == "" {
		opts.Style = s.defaults.Style
	}

	if opts.Format == "" {
		opts.Format = s.defaults.Format
	}

	if kind.NeedsColumn() && opts.Column == "" {
		return "", domain.NewValidationError("column", "is required for "+string(kind)+" charts")
	}

	req := domain.ChartRequest{
		Kind:      kind,
		Dataset:   ds,
		Column:    opts.Column,
		TimeAxis:  opts.TimeAxis,
		Style:     opts.Style,
		Format:    opts.Format,
		IQRFactor: s.engine.Options().IQRMultiplier,
	}

	if err := s.charts.Render(ctx, w, req); err != nil {
		return "", fmt.Errorf("rendering %s chart: %w", kind, err)
	}

	if s.metrics != nil {
		s.metrics.ChartRendered(ctx, kind)
	}

	return opts.Format, nil
}

// PDF writes the full report of dataset id.
func (s *ReportService) PDF(ctx context.Context, w io.Writer, id string) error {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.PDFDataset(ctx, w, ds)
}

// PDFDataset writes the full report of ds.
func (s *ReportService) PDFDataset(ctx context.Context, w io.Writer, ds *domain.Dataset) error {
	in, err := s.reportInput(ctx, ds, s.includeCharts)
	if err != nil {
		return err
	}

	if err := s.reports.PDF(ctx, w, in); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	s.logger.InfoContext(ctx, "report generated", slog.String("dataset_id", ds.ID))

	return nil
}

// TextSummary returns the plain text summary of dataset id.
func (s *ReportService) TextSummary(ctx context.Context, id string) (string, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	return s.TextSummaryDataset(ctx, ds)
}

// TextSummaryDataset returns the plain text summary of ds.
func (s *ReportService) TextSummaryDataset(ctx context.Context, ds *domain.Dataset) (string, error) {
	in, err := s.reportInput(ctx, ds, false)
	if err != nil {
		return "", err
	}

	return s.reports.Text(in), nil
}

func (s *ReportService) reportInput(ctx context.Context, ds *domain.Dataset, withChart bool) (domain.ReportInput, error) {
	var (
		summary domain.DatasetSummary
		missing domain.MissingReport
		chart   []byte
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary = s.engine.Summary(ds)
		return nil
	})

	g.Go(func() error {
		missing = s.engine.DatasetMissing(ds)
		return nil
	})

	if withChart {
		g.Go(func() error {
			var buf bytes.Buffer
			if _, err := s.ChartDataset(gctx, &buf, ds, domain.ChartMissingBar, ChartOptions{Format: domain.ImagePNG}); err != nil {
				return fmt.Errorf("missing bar chart: %w", err)
			}

			chart = buf.Bytes()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.ReportInput{}, err
	}

	return domain.ReportInput{
		Summary:     summary,
		Missing:     missing,
		Columns:     FilterColumns(s.engine, ds, "", ""),
		GeneratedAt: s.now(),
		MissingBar:  chart,
	}, nil
}
