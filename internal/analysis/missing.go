package analysis

import (
	"cmp"
	"slices"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// A run of consecutive missing cells longer than this share of the rows
// marks the pattern as systematic.
const systematicRunShare = 0.1

var patternText = map[domain.MissingPattern]string{
	domain.PatternNone:       "No missing values",
	domain.PatternComplete:   "All values missing",
	domain.PatternSystematic: "Systematic pattern (consecutive values)",
	domain.PatternRandom:     "Random pattern",
}

// ColumnMissing analyzes the missing cells of a single column.
func (e *Engine) ColumnMissing(col *domain.Column) domain.ColumnMissing {
	total := col.Len()
	missing := col.NullCount()
	missingPct := domain.SafeDivide(float64(missing), float64(total), 0) * 100

	var kind domain.MissingPattern

	switch {
	case missing == 0:
		kind = domain.PatternNone
	case missing == total:
		kind = domain.PatternComplete
	case float64(longestRun(col.Null)) > float64(total)*systematicRunShare:
		kind = domain.PatternSystematic
	default:
		kind = domain.PatternRandom
	}

	return domain.ColumnMissing{
		Total:           total,
		Missing:         missing,
		MissingPct:      missingPct,
		Complete:        total - missing,
		CompletePct:     domain.SafeDivide(float64(total-missing), float64(total), 0) * 100,
		Pattern:         patternText[kind],
		PatternType:     kind,
		Recommendations: missingRecommendations(missingPct),
	}
}

func longestRun(null []bool) int {
	best, run := 0, 0

	for _, isNull := range null {
		if !isNull {
			run = 0
			continue
		}

		run++
		best = max(best, run)
	}

	return best
}

func missingRecommendations(pct float64) []string {
	switch {
	case pct == 0:
		return []string{"✓ No action required"}
	case pct < 5:
		return []string{
			"• Drop rows with missing values",
			"• Impute with mean/median (numeric)",
			"• Impute with mode (categorical)",
		}
	case pct < 20:
		return []string{
			"• Multiple imputation recommended",
			"• Impute with KNN or a predictive model",
			"• Avoid dropping rows",
		}
	case pct < 50:
		return []string{
			"⚠ High share of missing values",
			"• Consider dropping the column",
			"• Add a missing-value indicator variable",
		}
	default:
		return []string{
			"❌ Most values are missing",
			"• Dropping the column is recommended",
			"• Do not use for critical analysis",
		}
	}
}

// DatasetMissing analyzes missing cells across the whole dataset.
// Column details are ordered by missing share, highest first.
func (e *Engine) DatasetMissing(ds *domain.Dataset) domain.MissingReport {
	rows := ds.Rows()
	totalCells := ds.Size()

	details := make([]domain.ColumnMissingDetail, 0, len(ds.Columns))
	totalMissing, withMissing := 0, 0

	for _, c := range ds.Columns {
		n := c.NullCount()
		totalMissing += n

		if n > 0 {
			withMissing++
		}

		details = append(details, domain.ColumnMissingDetail{
			Column:       c.Name,
			MissingCount: n,
			MissingPct:   domain.SafeDivide(float64(n), float64(rows), 0) * 100,
			CompletePct:  domain.SafeDivide(float64(rows-n), float64(rows), 0) * 100,
		})
	}

	slices.SortStableFunc(details, func(a, b domain.ColumnMissingDetail) int {
		return cmp.Compare(b.MissingPct, a.MissingPct)
	})

	rowsWithMissing := 0

	for i := range rows {
		if ds.RowHasMissing(i) {
			rowsWithMissing++
		}
	}

	complete := rows - rowsWithMissing

	return domain.MissingReport{
		TotalCells:         totalCells,
		TotalMissing:       totalMissing,
		TotalMissingPct:    domain.SafeDivide(float64(totalMissing), float64(totalCells), 0) * 100,
		ColumnsWithMissing: withMissing,
		TotalColumns:       len(ds.Columns),
		RowsWithMissing:    rowsWithMissing,
		CompleteRows:       complete,
		CompleteRowsPct:    domain.SafeDivide(float64(complete), float64(rows), 0) * 100,
		ColumnDetails:      details,
	}
}
