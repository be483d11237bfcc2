package acl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jsamuelsen/eda-panel/internal/adapters/clients"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

// DatasetSourceConfig contains configuration for a remote dataset source.
type DatasetSourceConfig struct {
	// Client is the HTTP client to use. Its BaseURL is the source root.
	Client *clients.Client

	// Name identifies the source in errors and health checks.
	Name string

	// MaxFileSize caps the downloaded body.
	MaxFileSize int64

	// Logger is the structured logger.
	Logger *slog.Logger
}

// DatasetSource implements ports.DatasetSource over HTTP.
type DatasetSource struct {
	BaseAdapter

	maxSize int64
	logger  *slog.Logger
}

// NewDatasetSource creates a remote dataset source.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewDatasetSource(cfg DatasetSourceConfig) *DatasetSource {
	if cfg.Client == nil {
		panic("DatasetSource: Client is required")
	}

	if cfg.Name == "" {
		cfg.Name = "remote-source"
	}

	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 100 << 20
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DatasetSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Name),
		maxSize:     cfg.MaxFileSize,
		logger:      logger,
	}
}

// Fetch downloads the file at p relative to the source root.
// Implements ports.DatasetSource.
func (s *DatasetSource) Fetch(ctx context.Context, p string) (*domain.RawFile, error) {
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	s.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", clean))

	resp, err := s.Get(ctx, clean, "fetch dataset")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	name, format, err := resolveFormat(fileName(resp.Header, clean), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	data, err := readLimited(resp.Body, resp.ContentLength, s.maxSize)
	if err != nil {
		if domain.IsValidation(err) {
			return nil, err
		}

		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	s.logger.DebugContext(ctx, "fetched remote dataset",
		slog.String("source", s.ServiceName()),
		slog.String("file", name),
		slog.String("format", string(format)),
		slog.Int("bytes", len(data)),
	)

	return &domain.RawFile{
		Name:   name,
		Path:   s.Client().BaseURL() + clean,
		Format: format,
		Data:   data,
	}, nil
}

// Name returns the health check name for this source.
// Implements ports.HealthChecker.
func (s *DatasetSource) Name() string {
	return s.ServiceName()
}

// Check sends a HEAD request to the source root.
// Implements ports.HealthChecker.
func (s *DatasetSource) Check(ctx context.Context) error {
	resp, err := s.Client().Head(ctx, "/")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s returned status %d", s.ServiceName(), resp.StatusCode)
	}

	return nil
}
