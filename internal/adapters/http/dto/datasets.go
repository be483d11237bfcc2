package dto

import (
	"time"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// UploadQuery holds the query parameters of POST /datasets.
type UploadQuery struct {
	Async bool `form:"async"`
}

// ImportRequest is the body of POST /datasets/import.
type ImportRequest struct {
	Path string `json:"path" validate:"required,notempty,max=1024"`
}

// ListQuery holds the query parameters of GET /datasets.
type ListQuery struct {
	PageQuery
}

// ColumnsQuery holds the query parameters of GET /datasets/:id/columns.
type ColumnsQuery struct {
	Search string `form:"search" validate:"max=256"`
	Kind   string `form:"kind"   validate:"omitempty,oneof=all numeric categorical datetime boolean other"`
}

// OutliersQuery holds the threshold overrides of the outlier endpoint.
type OutliersQuery struct {
	K         float64 `form:"k"         validate:"omitempty,gt=0,lte=100"`
	Threshold float64 `form:"threshold" validate:"omitempty,gt=0,lte=100"`
}

// ChartQuery holds the query parameters of GET /datasets/:id/charts/:kind.
type ChartQuery struct {
	Column   string `form:"column"`
	TimeAxis string `form:"time_axis"`
	Style    string `form:"style"     validate:"omitempty,oneof=light dark"`
	Format   string `form:"format"    validate:"omitempty,oneof=png svg"`
}

// DatasetResponse is the summary returned for one dataset.
type DatasetResponse struct {
	domain.DatasetSummary

	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// NewDatasetResponse combines a dataset with its summary.
func NewDatasetResponse(ds *domain.Dataset, summary domain.DatasetSummary) DatasetResponse {
	return DatasetResponse{DatasetSummary: summary, Source: ds.Source, LoadedAt: ds.LoadedAt}
}

// DatasetItem is one entry of the dataset listing.
type DatasetItem struct {
	ID       string        `json:"id"`
	FileName string        `json:"file_name"`
	Format   domain.Format `json:"format"`
	Rows     int           `json:"n_rows"`
	Columns  int           `json:"n_columns"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// NewDatasetItem converts a dataset for the listing.
func NewDatasetItem(ds *domain.Dataset) DatasetItem {
	return DatasetItem{
		ID:       ds.ID,
		FileName: ds.Name,
		Format:   ds.Format,
		Rows:     ds.Rows(),
		Columns:  len(ds.Columns),
		LoadedAt: ds.LoadedAt,
	}
}

// DatasetCursor builds the listing cursor of an item.
func DatasetCursor(item DatasetItem) Cursor {
	return Cursor{LoadedAt: item.LoadedAt.UTC(), ID: item.ID}
}

// ColumnsResponse lists column info.
type ColumnsResponse struct {
	Items []domain.ColumnInfo `json:"items"`
	Count int                 `json:"count"`
}

// JobResponse reports a background load. Location points at the job resource.
type JobResponse struct {
	domain.LoadJob

	Location string `json:"location"`
}

// DatasetURI is the :id path parameter.
type DatasetURI struct {
	ID string `uri:"id" validate:"required,uuid"`
}

// ColumnURI is the :id and :column path parameters.
type ColumnURI struct {
	ID     string `uri:"id"     validate:"required,uuid"`
	Column string `uri:"column" validate:"required"`
}
