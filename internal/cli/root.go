// Package cli implements the edapanel command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/platform/config"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
	"github.com/jsamuelsen/eda-panel/internal/wire"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	logLevel  string
	logFormat string
	configDir string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:          "edapanel",
		Short:        "Exploratory data analysis for CSV, Excel, and JSON files",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level: trace|debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format: json|text|pretty")
	cmd.PersistentFlags().StringVar(&g.configDir, "config-dir", ".", "directory holding configs/")

	cmd.AddCommand(
		summaryCmd(&g),
		analyzeCmd(&g),
		reportCmd(&g),
		chartCmd(&g),
		sampleCmd(&g),
	)

	return cmd
}

// env is what one command invocation works with.
type env struct {
	cfg        *config.Config
	logger     *slog.Logger
	components *wire.Components
}

func (g *globalFlags) setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadFrom(g.configDir, "")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.Log.Level = g.logLevel
	cfg.Log.Format = g.logFormat

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "edapanel",
		Version: cfg.App.Version,
	}, cmd.ErrOrStderr())

	components, err := wire.Build(cfg, logger, nil)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, logger: logger, components: components}, nil
}

func (e *env) load(ctx context.Context, path string) (*domain.Dataset, error) {
	ds, err := e.components.Datasets.LoadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return ds, nil
}

// writeFile creates path and hands it to write. A failed write removes the
// partial file.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}

		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return write(f)
}
