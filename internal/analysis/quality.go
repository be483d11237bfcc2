package analysis

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// missingIssuePct is the missing share above which an issue is reported.
const missingIssuePct = 5

// Quality grades the dataset by completeness and counts IQR outliers in the
// numeric columns. Column scans run concurrently and stop when ctx is done.
func (e *Engine) Quality(ctx context.Context, ds *domain.Dataset) (domain.QualitySummary, error) {
	missing := e.DatasetMissing(ds)
	completeness := 100 - missing.TotalMissingPct
	grade := domain.QualityLabelFor(completeness)

	numeric := make([]*domain.Column, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if c.Kind == domain.KindNumeric {
			numeric = append(numeric, c)
		}
	}

	counts := make([]int, len(numeric))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, c := range numeric {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			counts[i] = e.OutliersIQR(c, 0).Count

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.QualitySummary{}, fmt.Errorf("scanning outliers: %w", err)
	}

	totalOutliers, outlierColumns := 0, 0

	for _, n := range counts {
		if n > 0 {
			totalOutliers += n
			outlierColumns++
		}
	}

	issues := []string{}

	if missing.TotalMissingPct > missingIssuePct {
		issues = append(issues, fmt.Sprintf("Missing data: %.1f%%", missing.TotalMissingPct))
	}

	if outlierColumns > 0 {
		issues = append(issues, fmt.Sprintf("Columns with outliers: %d", outlierColumns))
	}

	return domain.QualitySummary{
		Completeness:   completeness,
		Label:          grade.Label,
		Color:          grade.Color,
		Missing:        missing,
		TotalOutliers:  totalOutliers,
		OutlierColumns: outlierColumns,
		Issues:         issues,
		HasIssues:      len(issues) > 0,
	}, nil
}
