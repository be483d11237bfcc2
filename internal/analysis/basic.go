package analysis

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// Basic returns the descriptive statistics of col.
//
// Numeric columns get the full set. Other kinds report counts, the mode,
// and the min and max as text: lexicographic for categorical columns and
// chronological for datetime columns.
func (e *Engine) Basic(col *domain.Column) domain.BasicStats {
	total := col.Len()
	count := col.NonNullCount()

	if count == 0 {
		return domain.BasicStats{}
	}

	out := domain.BasicStats{
		Count:      count,
		CountTotal: total,
		Missing:    total - count,
		MissingPct: domain.SafeDivide(float64(total-count), float64(total), 0) * 100,
		Unique:     col.UniqueCount(),
	}

	if col.Kind == domain.KindNumeric {
		values, _ := col.Values()
		sorted := sortedCopy(values)

		mean, std := stat.MeanStdDev(values, nil)
		out.Mean = domain.Float(mean)
		out.Median = domain.Float(percentile(sorted, 50))

		if len(values) > 1 {
			out.Std = domain.Float(std)
			out.Variance = domain.Float(std * std)
		}

		minV, maxV := sorted[0], sorted[len(sorted)-1]
		out.Min = domain.NumberScalar(minV)
		out.Max = domain.NumberScalar(maxV)
		out.Range = domain.Float(maxV - minV)

		mode, ties := numericMode(sorted)
		out.Mode = domain.NumberScalar(mode)
		out.ModeCount = ties

		return out
	}

	cells := orderedCells(col)
	out.Min = domain.TextScalar(cells[0].text)
	out.Max = domain.TextScalar(cells[len(cells)-1].text)

	mode, ties := cellMode(cells, col.HasNumbers())
	out.Mode = domain.TextScalar(mode)
	out.ModeCount = ties

	return out
}

// numericMode returns the smallest most frequent value of sorted and the
// number of values sharing that frequency.
func numericMode(sorted []float64) (float64, int) {
	var (
		best      float64
		bestCount int
		ties      int
	)

	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}

		switch run := j - i; {
		case run > bestCount:
			best, bestCount, ties = sorted[i], run, 1
		case run == bestCount:
			ties++
		}

		i = j
	}

	return best, ties
}

type cell struct {
	key  float64
	text string
}

// orderedCells returns the present cells of a non-numeric column in value order.
func orderedCells(col *domain.Column) []cell {
	useNum := col.HasNumbers()
	cells := make([]cell, 0, col.NonNullCount())

	for i, raw := range col.Raw {
		if col.Null[i] {
			continue
		}

		c := cell{text: raw}
		if useNum {
			c.key = col.Num[i]
		}

		cells = append(cells, c)
	}

	slices.SortStableFunc(cells, func(a, b cell) int {
		if useNum {
			if r := cmp.Compare(a.key, b.key); r != 0 {
				return r
			}
		}

		return cmp.Compare(a.text, b.text)
	})

	return cells
}

// cellMode is numericMode for ordered cells. Boolean and datetime cells are
// grouped by value, categorical cells by text.
func cellMode(cells []cell, byKey bool) (string, int) {
	var (
		best      string
		bestCount int
		ties      int
	)

	same := func(a, b cell) bool {
		if byKey {
			return a.key == b.key
		}

		return a.text == b.text
	}

	for i := 0; i < len(cells); {
		j := i
		for j < len(cells) && same(cells[j], cells[i]) {
			j++
		}

		switch run := j - i; {
		case run > bestCount:
			best, bestCount, ties = cells[i].text, run, 1
		case run == bestCount:
			ties++
		}

		i = j
	}

	return best, ties
}
