// Package ports defines the contracts between the application layer and its
// adapters. Ports take a context first, speak domain types, and report
// failures with the domain error types.
package ports

import (
	"context"
	"io"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// DatasetRepository keeps loaded datasets.
//
// Example usage in application layer:
//
//	type DatasetService struct {
//	    repo ports.DatasetRepository
//	}
type DatasetRepository interface {
	// Save stores a dataset and returns the IDs of datasets evicted to make room.
	// Returns domain.ErrConflict when the store is full and eviction is off.
	Save(ctx context.Context, ds *domain.Dataset) (evicted []string, err error)

	// Get returns domain.ErrNotFound if the dataset does not exist.
	Get(ctx context.Context, id string) (*domain.Dataset, error)

	// List returns every dataset ordered by load time, then ID.
	List(ctx context.Context) ([]*domain.Dataset, error)

	// Delete returns domain.ErrNotFound if the dataset does not exist.
	Delete(ctx context.Context, id string) error
}

// JobRepository tracks background loads.
type JobRepository interface {
	SaveJob(ctx context.Context, job domain.LoadJob) error

	// GetJob returns domain.ErrNotFound if the job does not exist.
	GetJob(ctx context.Context, id string) (domain.LoadJob, error)
}

// DatasetSource fetches dataset files from a remote location.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map transport failures to domain.ErrUnavailable
//   - Map missing files to domain.ErrNotFound
type DatasetSource interface {
	// Fetch returns the file with its format resolved.
	Fetch(ctx context.Context, path string) (*domain.RawFile, error)
}

// ChartRenderer draws charts.
type ChartRenderer interface {
	Render(ctx context.Context, w io.Writer, req domain.ChartRequest) error
}

// ReportRenderer writes dataset reports.
type ReportRenderer interface {
	// PDF writes the full report as a PDF document.
	PDF(ctx context.Context, w io.Writer, in domain.ReportInput) error

	// Text returns the plain text summary.
	Text(in domain.ReportInput) string
}

// DatasetLoader decodes uploaded or fetched content into a dataset.
type DatasetLoader interface {
	// Open reads a local file. Returns domain.ErrNotFound if it does not exist.
	Open(path string) (domain.RawFile, error)
	Check(name string, size int64) (domain.Format, error)
	Text(f domain.RawFile) (text, encoding string, err error)
	Parse(ctx context.Context, f domain.RawFile, text, encoding string) (*domain.Dataset, error)
}

// AnalysisMetrics counts the work the application does.
// Implementations must be safe for concurrent use.
type AnalysisMetrics interface {
	DatasetLoaded(ctx context.Context, format domain.Format)
	ChartRendered(ctx context.Context, kind domain.ChartKind)
}
