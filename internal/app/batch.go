package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// FileResult is the outcome of loading one path of a batch.
type FileResult struct {
	Path    string
	Dataset *domain.Dataset
	Err     error
}

// LoadFiles ingests paths with at most limit loads running at once. A failed
// file does not stop the others; results keep the order of paths.
func (s *DatasetService) LoadFiles(ctx context.Context, limit int, paths ...string) []FileResult {
	results := make([]FileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(max(limit, 1))

	for i, p := range paths {
		g.Go(func() error {
			ds, err := s.LoadFile(ctx, p)
			results[i] = FileResult{Path: p, Dataset: ds, Err: err}

			return nil
		})
	}

	_ = g.Wait()

	return results
}
