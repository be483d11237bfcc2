// Package memstore keeps datasets and load jobs in process memory.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

var errCapacity = errors.New("capacity exhausted and eviction disabled")

// Options configures the store.
type Options struct {
	// MaxDatasets caps the number of stored datasets. Zero means unlimited.
	MaxDatasets int

	// EvictOldest drops the oldest dataset when the store is full.
	EvictOldest bool
}

// Store is a concurrency-safe dataset and job repository.
type Store struct {
	opts Options

	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
	jobs     map[string]domain.LoadJob
}

// New creates an empty store.
func New(opts Options) *Store {
	return &Store{
		opts:     opts,
		datasets: make(map[string]*domain.Dataset),
		jobs:     make(map[string]domain.LoadJob),
	}
}

// Save stores ds, evicting the oldest datasets when the store is full.
func (s *Store) Save(ctx context.Context, ds *domain.Dataset) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ds == nil || ds.ID == "" {
		return nil, domain.NewValidationError("dataset", "dataset id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[ds.ID]; exists {
		s.datasets[ds.ID] = ds
		return nil, nil
	}

	var evicted []string

	if s.opts.MaxDatasets > 0 {
		for len(s.datasets) >= s.opts.MaxDatasets {
			if !s.opts.EvictOldest {
				return nil, &domain.ConflictError{Entity: "dataset", Reason: "store is full"}
			}

			oldest := s.sortedLocked()[0]
			delete(s.datasets, oldest.ID)
			evicted = append(evicted, oldest.ID)
		}
	}

	s.datasets[ds.ID] = ds

	return evicted, nil
}

// Get returns the dataset with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, domain.NewNotFoundError("dataset", id)
	}

	return ds, nil
}

// List returns all datasets ordered by load time, then ID.
func (s *Store) List(ctx context.Context) ([]*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedLocked(), nil
}

// Delete removes the dataset with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return domain.NewNotFoundError("dataset", id)
	}

	delete(s.datasets, id)

	return nil
}

// Len returns the number of stored datasets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.datasets)
}

// SaveJob creates or replaces a load job.
func (s *Store) SaveJob(ctx context.Context, job domain.LoadJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if job.ID == "" {
		return domain.NewValidationError("job", "job id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job

	return nil
}

// GetJob returns the load job with the given ID.
func (s *Store) GetJob(ctx context.Context, id string) (domain.LoadJob, error) {
	if err := ctx.Err(); err != nil {
		return domain.LoadJob{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.LoadJob{}, domain.NewNotFoundError("job", id)
	}

	return job, nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "dataset-store"
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.opts.MaxDatasets > 0 && !s.opts.EvictOldest && s.Len() >= s.opts.MaxDatasets {
		return errCapacity
	}

	return nil
}

func (s *Store) sortedLocked() []*domain.Dataset {
	out := make([]*domain.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}

	slices.SortFunc(out, func(a, b *domain.Dataset) int {
		if c := a.LoadedAt.Compare(b.LoadedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.ID, b.ID)
	})

	return out
}
