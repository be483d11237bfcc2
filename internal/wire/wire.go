// Package wire builds the application graph from configuration. The HTTP
// service and the CLI share it.
package wire

import (
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/eda-panel/internal/adapters/charts"
	"github.com/jsamuelsen/eda-panel/internal/adapters/clients"
	"github.com/jsamuelsen/eda-panel/internal/adapters/clients/acl"
	"github.com/jsamuelsen/eda-panel/internal/adapters/loader"
	"github.com/jsamuelsen/eda-panel/internal/adapters/memstore"
	"github.com/jsamuelsen/eda-panel/internal/adapters/report"
	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/app"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/ports"
)

// Components is the assembled application.
type Components struct {
	Store    *memstore.Store
	Loader   *loader.Loader
	Engine   *analysis.Engine
	Charts   *charts.Renderer
	Reports  *report.Renderer
	Source   *acl.DatasetSource
	Datasets *app.DatasetService
	Analysis *app.AnalysisService
	Output   *app.ReportService
}

// Build creates every component. Metrics may be nil. The remote source is
// only built when it is enabled.
func Build(cfg *config.Config, logger *slog.Logger, metrics ports.AnalysisMetrics) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Components{
		Store: memstore.New(memstore.Options{
			MaxDatasets: cfg.Data.MaxDatasets,
			EvictOldest: cfg.Data.EvictOldest,
		}),
		Loader: loader.New(loader.Options{
			AllowedExtensions:     cfg.Data.AllowedExtensions,
			MaxFileSize:           cfg.Data.MaxFileSize,
			EncodingSampleBytes:   cfg.Data.EncodingSampleBytes,
			EncodingMinConfidence: cfg.Data.EncodingMinConfidence,
		}, logger),
		Engine: analysis.New(analysis.Options{
			IQRMultiplier:    cfg.Analysis.IQRMultiplier,
			ZScoreThreshold:  cfg.Analysis.ZScoreThreshold,
			ShapiroMaxSample: cfg.Analysis.ShapiroMaxSample,
			NormalityAlpha:   cfg.Analysis.NormalityAlpha,
			OutlierListLimit: cfg.Analysis.OutlierListLimit,
			SampleSeed:       cfg.Analysis.SampleSeed,
		}, logger),
		Reports: report.New(report.Options{
			MaxColumns:    cfg.Report.MaxColumns,
			NameWidth:     cfg.Report.NameWidth,
			IncludeCharts: cfg.Report.IncludeCharts,
		}, logger),
	}

	c.Charts = charts.New(charts.Options{
		Style:      domain.ChartStyle(cfg.Charts.Style),
		Format:     domain.ImageFormat(cfg.Charts.Format),
		Width:      cfg.Charts.Width,
		Height:     cfg.Charts.Height,
		DPI:        cfg.Charts.DPI,
		SampleSeed: cfg.Analysis.SampleSeed,
	}, c.Engine, logger)

	var source ports.DatasetSource

	if cfg.Sources.Remote.Enabled {
		client, err := clients.New(&clients.Config{
			BaseURL:     cfg.Sources.Remote.BaseURL,
			ServiceName: cfg.Sources.Remote.Name,
			Timeout:     cfg.Client.Timeout,
			Retry:       cfg.Client.Retry,
			Circuit:     cfg.Client.CircuitBreaker,
			Transport:   cfg.Client.Transport,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating remote source client: %w", err)
		}

		c.Source = acl.NewDatasetSource(acl.DatasetSourceConfig{
			Client:      client,
			Name:        cfg.Sources.Remote.Name,
			MaxFileSize: cfg.Data.MaxFileSize,
			Logger:      logger,
		})
		source = c.Source
	}

	c.Datasets = app.NewDatasetService(app.DatasetServiceConfig{
		Repo:    c.Store,
		Jobs:    c.Store,
		Loader:  c.Loader,
		Source:  source,
		Engine:  c.Engine,
		Metrics: metrics,
		Logger:  logger,
	})

	c.Analysis = app.NewAnalysisService(app.AnalysisServiceConfig{
		Repo:   c.Store,
		Engine: c.Engine,
		Logger: logger,
	})

	c.Output = app.NewReportService(app.ReportServiceConfig{
		Repo:          c.Store,
		Engine:        c.Engine,
		Charts:        c.Charts,
		Reports:       c.Reports,
		Metrics:       metrics,
		IncludeCharts: cfg.Report.IncludeCharts,
		Style:         domain.ChartStyle(cfg.Charts.Style),
		Format:        domain.ImageFormat(cfg.Charts.Format),
		Logger:        logger,
	})

	return c, nil
}

// RegisterHealth adds the store and, when present, the remote source to the
// health registry.
func (c *Components) RegisterHealth(reg ports.HealthRegistry) error {
	checkers := []ports.HealthChecker{c.Store}
	if c.Source != nil {
		checkers = append(checkers, c.Source)
	}

	for _, checker := range checkers {
		if err := reg.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	return nil
}
