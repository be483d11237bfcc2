// Package main is the entry point for the dataset analysis service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/eda-panel/internal/adapters/http"
	"github.com/jsamuelsen/eda-panel/internal/adapters/http/handlers"
	"github.com/jsamuelsen/eda-panel/internal/adapters/watcher"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
	"github.com/jsamuelsen/eda-panel/internal/platform/telemetry"
	"github.com/jsamuelsen/eda-panel/internal/ports"
	"github.com/jsamuelsen/eda-panel/internal/wire"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

// multipartOverhead covers the form framing around an uploaded file.
const (
	multipartOverhead = 1 << 20

	// healthCheckTimeout bounds each readiness check, the remote HEAD in particular.
	healthCheckTimeout = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Determine profile and workspace from the environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	dir := os.Getenv("APP_WORKSPACE_ROOT")
	if dir == "" {
		dir = "."
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.LoadFrom(dir, profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       resolve(dir, cfg.Log.File.Path),
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	metrics, err := telemetry.NewAnalysisMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	// 5. Build the application graph and its health checks
	components, err := wire.Build(cfg, logger, metrics)
	if err != nil {
		return err
	}

	healthRegistry := ports.NewHealthRegistry(ports.WithCheckTimeout(healthCheckTimeout))

	if err := components.RegisterHealth(healthRegistry); err != nil {
		return err
	}

	// 6. Create the inbox watcher
	var inbox *watcher.Watcher

	if cfg.Watch.Enabled {
		inbox, err = watcher.New(watcher.Options{
			Dir:     resolve(dir, cfg.Watch.Dir),
			Pattern: cfg.Watch.Pattern,
			Settle:  cfg.Watch.Settle,
		}, components.Datasets.Ingest, logger)
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}

		if err := healthRegistry.Register(inbox); err != nil {
			return fmt.Errorf("registering watcher health check: %w", err)
		}
	}

	// 7. Create handlers, server, and router
	buildInfo := handlers.NewBuildInfo(cfg.App.Name, Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo)
	datasetHandler := handlers.NewDatasetHandler(components.Datasets, components.Analysis, components.Output)

	server := http.New(&cfg.Server, logger)

	routerCfg := http.NewDefaultRouterConfig(logger, cfg.Telemetry.ServiceName, healthHandler, datasetHandler)
	routerCfg.Timeout = cfg.Server.RequestTimeout
	routerCfg.MaxUploadSize = cfg.Data.MaxFileSize + multipartOverhead
	http.SetupRouter(server.Engine(), routerCfg)

	server.OnShutdown(components.Datasets.Wait)

	// 8. Run until a signal or a component failure
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Serve(gctx); err != nil {
			return fmt.Errorf("server: %w", err)
		}

		return nil
	})

	if inbox != nil {
		g.Go(func() error {
			if err := inbox.Run(gctx); err != nil {
				return fmt.Errorf("watcher: %w", err)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}
