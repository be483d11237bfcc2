package app

import (
	"context"
	"log/slog"

	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/ports"
)

// AnalysisService answers statistical questions about stored datasets.
// Thresholds come from the engine options unless a call overrides them.
type AnalysisService struct {
	repo   ports.DatasetRepository
	engine *analysis.Engine
	logger *slog.Logger
}

// AnalysisServiceConfig contains the dependencies of an AnalysisService.
type AnalysisServiceConfig struct {
	Repo   ports.DatasetRepository
	Engine *analysis.Engine
	Logger *slog.Logger
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(cfg AnalysisServiceConfig) *AnalysisService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := cfg.Engine
	if engine == nil {
		engine = analysis.New(analysis.DefaultOptions(), logger)
	}

	return &AnalysisService{repo: cfg.Repo, engine: engine, logger: logger}
}

// OutlierParams overrides the detection thresholds. Zero keeps the default.
type OutlierParams struct {
	IQRMultiplier   float64
	ZScoreThreshold float64
}

// ColumnAnalysis returns every per-variable result for one column.
func (s *AnalysisService) ColumnAnalysis(ctx context.Context, id, column string) (domain.ColumnAnalysis, error) {
	col, err := s.column(ctx, id, column)
	if err != nil {
		return domain.ColumnAnalysis{}, err
	}

	return s.engine.Analyze(col), nil
}

// Outliers runs both detection methods on one column.
func (s *AnalysisService) Outliers(ctx context.Context, id, column string, p OutlierParams) (domain.OutlierSummary, error) {
	if p.IQRMultiplier < 0 {
		return domain.OutlierSummary{}, domain.NewValidationErrorWithValue("k", "must be positive", p.IQRMultiplier)
	}

	if p.ZScoreThreshold < 0 {
		return domain.OutlierSummary{}, domain.NewValidationErrorWithValue("threshold", "must be positive", p.ZScoreThreshold)
	}

	col, err := s.column(ctx, id, column)
	if err != nil {
		return domain.OutlierSummary{}, err
	}

	opts := s.engine.Options()
	if p.IQRMultiplier == 0 {
		p.IQRMultiplier = opts.IQRMultiplier
	}

	if p.ZScoreThreshold == 0 {
		p.ZScoreThreshold = opts.ZScoreThreshold
	}

	return s.engine.Outliers(col, p.IQRMultiplier, p.ZScoreThreshold), nil
}

// Missing returns the dataset-wide missing value report.
func (s *AnalysisService) Missing(ctx context.Context, id string) (domain.MissingReport, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.MissingReport{}, err
	}

	return s.engine.DatasetMissing(ds), nil
}

// Quality returns the overall data quality assessment.
func (s *AnalysisService) Quality(ctx context.Context, id string) (domain.QualitySummary, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.QualitySummary{}, err
	}

	return s.engine.Quality(ctx, ds)
}

func (s *AnalysisService) column(ctx context.Context, id, name string) (*domain.Column, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return ds.Column(name)
}
