// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
	"github.com/jsamuelsen/eda-panel/internal/ports"
)

// Ingest progress percentages.
const (
	ProgressValidated = 10
	ProgressDecoded   = 30
	ProgressParsed    = 70
	ProgressVerified  = 90
	ProgressStored    = 100
)

// ProgressFunc receives ingest progress.
type ProgressFunc func(percent int, message string)

// LoadRequest is one file to ingest.
type LoadRequest struct {
	File     domain.RawFile
	Progress ProgressFunc
}

// ColumnFilter narrows a column listing. Kind is a column kind or "all".
type ColumnFilter struct {
	Search string
	Kind   string
}

// DatasetService orchestrates dataset ingest and lookup.
type DatasetService struct {
	repo    ports.DatasetRepository
	jobs    ports.JobRepository
	loader  ports.DatasetLoader
	source  ports.DatasetSource
	engine  *analysis.Engine
	metrics ports.AnalysisMetrics
	logger  *slog.Logger
	now     func() time.Time

	background sync.WaitGroup
}

// DatasetServiceConfig contains the dependencies of a DatasetService.
// Source and Metrics are optional.
type DatasetServiceConfig struct {
	Repo    ports.DatasetRepository
	Jobs    ports.JobRepository
	Loader  ports.DatasetLoader
	Source  ports.DatasetSource
	Engine  *analysis.Engine
	Metrics ports.AnalysisMetrics
	Logger  *slog.Logger
}

// NewDatasetService creates a dataset service with the provided dependencies.
func NewDatasetService(cfg DatasetServiceConfig) *DatasetService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := cfg.Engine
	if engine == nil {
		engine = analysis.New(analysis.DefaultOptions(), logger)
	}

	return &DatasetService{
		repo:    cfg.Repo,
		jobs:    cfg.Jobs,
		loader:  cfg.Loader,
		source:  cfg.Source,
		engine:  engine,
		metrics: cfg.Metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Load ingests req.File and returns the stored dataset.
func (s *DatasetService) Load(ctx context.Context, req LoadRequest) (*domain.Dataset, error) {
	progress := req.Progress
	if progress == nil {
		progress = func(int, string) {}
	}

	in := &ingest{file: req.File}
	if err := s.runIngest(ctx, in, progress); err != nil {
		return nil, fmt.Errorf("loading %s: %w", req.File.Name, err)
	}

	ds := in.ds

	if s.metrics != nil {
		s.metrics.DatasetLoaded(ctx, ds.Format)
	}

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("dataset_id", ds.ID),
		slog.String("file", ds.Name),
		slog.Int("rows", ds.Rows()),
		slog.Int("columns", len(ds.Columns)),
	)

	return ds, nil
}

// LoadFile ingests a local file.
func (s *DatasetService) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	file, err := s.loader.Open(path)
	if err != nil {
		return nil, err
	}

	return s.Load(ctx, LoadRequest{File: file})
}

// Ingest loads path and discards the result. It matches the inbox watcher's
// callback signature.
func (s *DatasetService) Ingest(ctx context.Context, path string) error {
	_, err := s.LoadFile(ctx, path)

	return err
}

// LoadAsync starts ingesting req.File in the background and returns the
// pending job. The load outlives ctx cancellation but keeps its values.
func (s *DatasetService) LoadAsync(ctx context.Context, req LoadRequest) (domain.LoadJob, error) {
	if s.jobs == nil {
		return domain.LoadJob{}, domain.NewUnavailableError("job-store", "background loads are not configured")
	}

	if _, err := s.loader.Check(req.File.Name, int64(len(req.File.Data))); err != nil {
		return domain.LoadJob{}, err
	}

	now := s.now().UTC()
	job := domain.LoadJob{
		ID:        uuid.NewString(),
		FileName:  req.File.Name,
		Status:    domain.JobPending,
		Message:   "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return domain.LoadJob{}, fmt.Errorf("saving job: %w", err)
	}

	bg := context.WithoutCancel(ctx)

	s.background.Go(func() {
		s.runJob(bg, job, req)
	})

	return job, nil
}

func (s *DatasetService) runJob(ctx context.Context, job domain.LoadJob, req LoadRequest) {
	var mu sync.Mutex

	update := func(mutate func(j *domain.LoadJob)) {
		mu.Lock()
		defer mu.Unlock()

		mutate(&job)
		job.UpdatedAt = s.now().UTC()

		if err := s.jobs.SaveJob(ctx, job); err != nil {
			s.logger.WarnContext(ctx, "saving job failed", slog.String("job_id", job.ID), slog.Any("error", err))
		}
	}

	update(func(j *domain.LoadJob) {
		j.Status = domain.JobRunning
		j.Message = "loading"
	})

	forward := req.Progress
	req.Progress = func(pct int, msg string) {
		update(func(j *domain.LoadJob) {
			j.Progress = pct
			j.Message = msg
		})

		if forward != nil {
			forward(pct, msg)
		}
	}

	ds, err := s.Load(ctx, req)
	if err != nil {
		s.logger.WarnContext(ctx, "background load failed", slog.String("job_id", job.ID), slog.Any("error", err))
		update(func(j *domain.LoadJob) {
			j.Status = domain.JobFailed
			j.Message = "load failed"
			j.Error = err.Error()
		})

		return
	}

	update(func(j *domain.LoadJob) {
		j.Status = domain.JobSucceeded
		j.Progress = ProgressStored
		j.Message = "dataset stored"
		j.DatasetID = ds.ID
	})
}

// Wait blocks until every background load has finished or ctx is done.
func (s *DatasetService) Wait(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		s.background.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Job returns a background load.
func (s *DatasetService) Job(ctx context.Context, id string) (domain.LoadJob, error) {
	if s.jobs == nil {
		return domain.LoadJob{}, domain.NewNotFoundError("job", id)
	}

	return s.jobs.GetJob(ctx, id)
}

// Import fetches path from the remote source and ingests it.
func (s *DatasetService) Import(ctx context.Context, path string) (*domain.Dataset, error) {
	if s.source == nil {
		return nil, domain.NewUnavailableError("remote-source", "no remote source is configured")
	}

	file, err := s.source.Fetch(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}

	return s.Load(ctx, LoadRequest{File: *file})
}

// Get returns a stored dataset.
func (s *DatasetService) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// List returns every stored dataset in load order.
func (s *DatasetService) List(ctx context.Context) ([]*domain.Dataset, error) {
	return s.repo.List(ctx)
}

// Delete removes a stored dataset.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logging.FromContext(ctx).InfoContext(ctx, "dataset deleted", slog.String("dataset_id", id))

	return nil
}

// Summary returns the overview of a stored dataset.
func (s *DatasetService) Summary(ctx context.Context, id string) (domain.DatasetSummary, error) {
	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.DatasetSummary{}, err
	}

	return s.engine.Summary(ds), nil
}

// Columns lists the columns of a dataset that match filter.
func (s *DatasetService) Columns(ctx context.Context, id string, filter ColumnFilter) ([]domain.ColumnInfo, error) {
	kind, err := parseKindFilter(filter.Kind)
	if err != nil {
		return nil, err
	}

	ds, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return FilterColumns(s.engine, ds, filter.Search, kind), nil
}

// FilterColumns returns the info of the columns whose name contains search,
// case-insensitively, and whose kind is kind. An empty kind matches all.
func FilterColumns(engine *analysis.Engine, ds *domain.Dataset, search string, kind domain.Kind) []domain.ColumnInfo {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.ColumnInfo, 0, len(ds.Columns))

	for _, col := range ds.Columns {
		if kind != "" && col.Kind != kind {
			continue
		}

		if needle != "" && !strings.Contains(strings.ToLower(col.Name), needle) {
			continue
		}

		out = append(out, engine.ColumnInfo(col))
	}

	return out
}

func parseKindFilter(s string) (domain.Kind, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}

	kind, ok := domain.ParseKind(s)
	if !ok {
		allowed := make([]string, 0, len(domain.Kinds)+1)
		allowed = append(allowed, "all")

		for _, k := range domain.Kinds {
			allowed = append(allowed, string(k))
		}

		return "", domain.NewValidationErrorWithValue("kind",
			"must be one of: "+strings.Join(allowed, ", "), s)
	}

	return kind, nil
}
