package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// OutliersIQR flags values outside [Q1 - k*IQR, Q3 + k*IQR].
// A non-positive k uses the configured multiplier.
func (e *Engine) OutliersIQR(col *domain.Column, k float64) domain.OutlierResult {
	if k <= 0 {
		k = e.opts.IQRMultiplier
	}

	values, rows := numericValues(col)
	if len(values) == 0 {
		return emptyOutliers()
	}

	q1, q3 := Quartiles(values)
	iqr := q3 - q1
	lower, upper := q1-k*iqr, q3+k*iqr

	out := domain.OutlierResult{
		Method:     method(domain.MethodIQR),
		Q1:         domain.Float(q1),
		Q3:         domain.Float(q3),
		IQR:        domain.Float(iqr),
		LowerBound: domain.Float(lower),
		UpperBound: domain.Float(upper),
		Indices:    []int{},
		Values:     []float64{},
	}

	normalMin, normalMax := math.Inf(1), math.Inf(-1)

	for i, v := range values {
		switch {
		case v < lower:
			out.LowerCount++
		case v > upper:
			out.UpperCount++
		default:
			normalMin = math.Min(normalMin, v)
			normalMax = math.Max(normalMax, v)

			continue
		}

		out.Count++

		if len(out.Indices) < e.opts.OutlierListLimit {
			out.Indices = append(out.Indices, rows[i])
			out.Values = append(out.Values, v)
		}
	}

	out.Pct = domain.SafeDivide(float64(out.Count), float64(len(values)), 0) * 100

	if out.Count < len(values) {
		out.NormalMin = domain.Float(normalMin)
		out.NormalMax = domain.Float(normalMax)
	}

	return out
}

// OutliersZScore flags values whose z-score magnitude exceeds threshold.
// A non-positive threshold uses the configured one. Constant columns yield
// an empty result.
func (e *Engine) OutliersZScore(col *domain.Column, threshold float64) domain.OutlierResult {
	if threshold <= 0 {
		threshold = e.opts.ZScoreThreshold
	}

	values, rows := numericValues(col)
	if len(values) < 2 {
		return emptyOutliers()
	}

	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return emptyOutliers()
	}

	out := domain.OutlierResult{
		Method:     method(domain.MethodZScore),
		Mean:       domain.Float(mean),
		Std:        domain.Float(std),
		Threshold:  domain.Float(threshold),
		LowerBound: domain.Float(mean - threshold*std),
		UpperBound: domain.Float(mean + threshold*std),
		Indices:    []int{},
		Values:     []float64{},
		ZScores:    []float64{},
	}

	normalMin, normalMax := math.Inf(1), math.Inf(-1)

	for i, v := range values {
		z := stat.StdScore(v, mean, std)
		if math.Abs(z) <= threshold {
			normalMin = math.Min(normalMin, v)
			normalMax = math.Max(normalMax, v)

			continue
		}

		out.Count++

		if len(out.Indices) < e.opts.OutlierListLimit {
			out.Indices = append(out.Indices, rows[i])
			out.Values = append(out.Values, v)
			out.ZScores = append(out.ZScores, z)
		}
	}

	out.Pct = domain.SafeDivide(float64(out.Count), float64(len(values)), 0) * 100

	if out.Count < len(values) {
		out.NormalMin = domain.Float(normalMin)
		out.NormalMax = domain.Float(normalMax)
	}

	return out
}

// Outliers runs both detection methods with the given parameters and adds
// handling recommendations.
func (e *Engine) Outliers(col *domain.Column, k, threshold float64) domain.OutlierSummary {
	iqr := e.OutliersIQR(col, k)
	z := e.OutliersZScore(col, threshold)

	var recs []string

	switch {
	case iqr.Pct == 0 && z.Pct == 0:
		recs = []string{"✓ No outliers detected"}
	case iqr.Pct < 5:
		recs = []string{
			"• Moderate outliers, review them individually",
			"• Consider winsorization",
			"• Use robust statistics (median)",
		}
	default:
		recs = []string{
			"⚠ High number of outliers",
			"• Check for data entry errors",
			"• Consider a log transformation",
			"• Apply trimming techniques",
		}
	}

	return domain.OutlierSummary{IQR: iqr, ZScore: z, Recommendations: recs}
}

func numericValues(col *domain.Column) ([]float64, []int) {
	if col.Kind != domain.KindNumeric {
		return nil, nil
	}

	return col.Values()
}

func method(m domain.OutlierMethod) *domain.OutlierMethod {
	return &m
}

func emptyOutliers() domain.OutlierResult {
	return domain.OutlierResult{Indices: []int{}, Values: []float64{}}
}
