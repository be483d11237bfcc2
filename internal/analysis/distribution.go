package analysis

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

// Interpretation labels for skewness and excess kurtosis.
const (
	SkewSymmetric = "Symmetric"
	SkewPositive  = "Positive skew (right tail)"
	SkewNegative  = "Negative skew (left tail)"

	KurtMesokurtic  = "Mesokurtic (normal)"
	KurtLeptokurtic = "Leptokurtic (heavy tails)"
	KurtPlatykurtic = "Platykurtic (light tails)"
)

const shapeThreshold = 0.5

// Distribution returns percentiles, shape, and a normality test for a
// numeric column. Columns with fewer than three values yield an empty result.
func (e *Engine) Distribution(col *domain.Column) domain.DistributionStats {
	if col.Kind != domain.KindNumeric {
		return domain.DistributionStats{}
	}

	values, _ := col.Values()
	if len(values) < 3 {
		return domain.DistributionStats{}
	}

	sorted := sortedCopy(values)
	pct := func(p float64) *float64 { return domain.Float(percentile(sorted, p)) }

	out := domain.DistributionStats{
		Percentiles: domain.Percentiles{
			P10: pct(10),
			P25: pct(25),
			P50: pct(50),
			P75: pct(75),
			P90: pct(90),
			P95: pct(95),
			P99: pct(99),
		},
	}

	if p75, p25 := out.Percentiles.P75, out.Percentiles.P25; p75 != nil && p25 != nil {
		out.IQR = domain.Float(*p75 - *p25)
	}

	skew, kurt := Moments(values)
	if !math.IsNaN(skew) {
		out.Skewness = domain.Float(skew)
		out.SkewInterpretation = interpretSkew(skew)
	}

	if !math.IsNaN(kurt) {
		out.Kurtosis = domain.Float(kurt)
		out.KurtInterpretation = interpretKurtosis(kurt)
	}

	sample := e.normalitySample(values)
	out.ShapiroSampleSize = len(sample)

	w, p, err := ShapiroWilk(sample)
	if err != nil {
		e.logger.Debug("normality test skipped",
			slog.String("column", col.Name),
			slog.Any("error", err),
		)

		return out
	}

	normal := p > e.opts.NormalityAlpha
	out.ShapiroStat = domain.Float(w)
	out.ShapiroPValue = domain.Float(p)
	out.IsNormal = &normal

	return out
}

// Moments returns the biased sample skewness and Fisher excess kurtosis.
// Both are NaN for a constant sample.
func Moments(values []float64) (skew, kurt float64) {
	m2 := stat.Moment(2, values, nil)
	if m2 == 0 {
		return math.NaN(), math.NaN()
	}

	m3 := stat.Moment(3, values, nil)
	m4 := stat.Moment(4, values, nil)

	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

func interpretSkew(s float64) string {
	switch {
	case math.Abs(s) < shapeThreshold:
		return SkewSymmetric
	case s > 0:
		return SkewPositive
	default:
		return SkewNegative
	}
}

func interpretKurtosis(k float64) string {
	switch {
	case math.Abs(k) < shapeThreshold:
		return KurtMesokurtic
	case k > 0:
		return KurtLeptokurtic
	default:
		return KurtPlatykurtic
	}
}

// normalitySample draws at most ShapiroMaxSample values without replacement.
// The draw is seeded so repeated requests agree.
func (e *Engine) normalitySample(values []float64) []float64 {
	limit := e.opts.ShapiroMaxSample
	if len(values) <= limit {
		return values
	}

	rng := rand.New(rand.NewPCG(e.opts.SampleSeed, e.opts.SampleSeed))
	idx := rng.Perm(len(values))[:limit]

	sample := make([]float64, limit)
	for i, j := range idx {
		sample[i] = values[j]
	}

	return sample
}
