package analysis

import (
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// Summary returns the overview of a dataset.
func (e *Engine) Summary(ds *domain.Dataset) domain.DatasetSummary {
	counts := make(map[domain.Kind]int, len(domain.Kinds))
	for _, k := range domain.Kinds {
		counts[k] = 0
	}

	for _, c := range ds.Columns {
		counts[c.Kind]++
	}

	total := ds.Size()
	missing := ds.MissingCells()
	mem := ds.MemoryBytes()

	return domain.DatasetSummary{
		ID:           ds.ID,
		FileName:     ds.Name,
		Format:       ds.Format,
		Encoding:     ds.Encoding,
		Rows:         ds.Rows(),
		Columns:      len(ds.Columns),
		MemoryBytes:  mem,
		MemorySize:   domain.FormatMemorySize(mem),
		DTypeCounts:  counts,
		TotalCells:   total,
		MissingCells: missing,
		Completeness: domain.SafeDivide(float64(total-missing), float64(total), 0) * 100,
	}
}

// ColumnInfo describes one column.
func (e *Engine) ColumnInfo(col *domain.Column) domain.ColumnInfo {
	return domain.ColumnInfo{
		Name:         col.Name,
		DType:        col.DType,
		Kind:         col.Kind,
		NonNull:      col.NonNullCount(),
		Null:         col.NullCount(),
		Completeness: col.Completeness(),
		Unique:       col.UniqueCount(),
	}
}

// Analyze bundles the per-column results shown together.
func (e *Engine) Analyze(col *domain.Column) domain.ColumnAnalysis {
	return domain.ColumnAnalysis{
		Column:       e.ColumnInfo(col),
		Basic:        e.Basic(col),
		Distribution: e.Distribution(col),
		Missing:      e.ColumnMissing(col),
		Outliers:     e.OutliersIQR(col, 0),
	}
}
