package analysis

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/jsamuelsen/eda-panel/internal/domain"
)

var nan = math.NaN()

func newEngine() *Engine {
	return New(DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seq(from, to float64) []float64 {
	var out []float64
	for v := from; v <= to; v++ {
		out = append(out, v)
	}

	return out
}

func TestNew_FillsDefaults(t *testing.T) {
	e := New(Options{}, nil)

	assert.Equal(t, DefaultOptions(), e.Options())
}

func TestNew_KeepsSampleSeed(t *testing.T) {
	e := New(Options{SampleSeed: 7}, nil)

	assert.Equal(t, uint64(7), e.Options().SampleSeed)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 1.75},
		{50, 2.5},
		{90, 3.7},
		{100, 4},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, percentile(sorted, tt.p), 1e-12, "p%v", tt.p)
	}

	assert.True(t, math.IsNaN(percentile(nil, 50)))
	assert.InDelta(t, 7.0, percentile([]float64{7}, 99), 1e-12)
}

func TestBasic_Numeric(t *testing.T) {
	col := domain.NewNumericColumn("x", []float64{1, 2, 2, 3, nan})

	got := newEngine().Basic(col)

	assert.Equal(t, 4, got.Count)
	assert.Equal(t, 5, got.CountTotal)
	assert.Equal(t, 1, got.Missing)
	assert.InDelta(t, 20.0, got.MissingPct, 1e-9)
	assert.InDelta(t, 2.0, *got.Mean, 1e-12)
	assert.InDelta(t, 2.0, *got.Median, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), *got.Std, 1e-12)
	assert.InDelta(t, 2.0/3.0, *got.Variance, 1e-12)
	assert.InDelta(t, 2.0, *got.Range, 1e-12)
	assert.Equal(t, "1", got.Min.String())
	assert.Equal(t, "3", got.Max.String())
	assert.Equal(t, "2", got.Mode.String())
	assert.Equal(t, 1, got.ModeCount)
	assert.Equal(t, 3, got.Unique)
}

func TestBasic_TiedModesPicksSmallest(t *testing.T) {
	col := domain.NewNumericColumn("x", []float64{3, 1, 3, 1, 2})

	got := newEngine().Basic(col)

	assert.Equal(t, "1", got.Mode.String())
	assert.Equal(t, 2, got.ModeCount)
}

func TestBasic_Categorical(t *testing.T) {
	col := domain.NewTextColumn("dept", []string{"b", "a", "b", ""})

	got := newEngine().Basic(col)

	assert.Equal(t, 3, got.Count)
	assert.Nil(t, got.Mean)
	assert.Nil(t, got.Median)
	assert.Nil(t, got.Std)
	assert.Nil(t, got.Range)
	assert.Equal(t, "a", got.Min.String())
	assert.Equal(t, "b", got.Max.String())
	assert.Equal(t, "b", got.Mode.String())
	assert.Equal(t, 1, got.ModeCount)
}

func TestBasic_DatetimeIsChronological(t *testing.T) {
	col := domain.NewDatetimeColumn("hired", []time.Time{
		time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		{},
	})

	got := newEngine().Basic(col)

	assert.Equal(t, "2019-12-31 00:00:00", got.Min.String())
	assert.Equal(t, "2021-05-01 00:00:00", got.Max.String())
}

func TestBasic_AllMissing(t *testing.T) {
	col := domain.NewNumericColumn("x", []float64{nan, nan})

	assert.Equal(t, domain.BasicStats{}, newEngine().Basic(col))
}

func TestMoments(t *testing.T) {
	skew, kurt := Moments([]float64{1, 2, 3})
	assert.InDelta(t, 0.0, skew, 1e-12)
	assert.InDelta(t, -1.5, kurt, 1e-12)

	skew, kurt = Moments([]float64{4, 4, 4})
	assert.True(t, math.IsNaN(skew))
	assert.True(t, math.IsNaN(kurt))
}

func TestInterpretations(t *testing.T) {
	assert.Equal(t, SkewSymmetric, interpretSkew(0.49))
	assert.Equal(t, SkewPositive, interpretSkew(0.5))
	assert.Equal(t, SkewNegative, interpretSkew(-2))
	assert.Equal(t, KurtMesokurtic, interpretKurtosis(-0.2))
	assert.Equal(t, KurtLeptokurtic, interpretKurtosis(3))
	assert.Equal(t, KurtPlatykurtic, interpretKurtosis(-1.5))
}

func TestShapiroWilk(t *testing.T) {
	t.Run("exact fit of three points", func(t *testing.T) {
		w, p, err := ShapiroWilk([]float64{2, 4, 6})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w, 1e-9)
		assert.InDelta(t, 1.0, p, 1e-9)
	})

	t.Run("three points with skew", func(t *testing.T) {
		w, p, err := ShapiroWilk([]float64{4, 1, 2})
		require.NoError(t, err)
		assert.InDelta(t, 0.9643, w, 1e-4)
		assert.InDelta(t, 0.6369, p, 1e-3)
	})

	t.Run("normal scores look normal", func(t *testing.T) {
		x := make([]float64, 100)
		for i := range x {
			x[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / 100)
		}

		w, p, err := ShapiroWilk(x)
		require.NoError(t, err)
		assert.Greater(t, w, 0.98)
		assert.Greater(t, p, 0.05)
	})

	t.Run("cubes are not normal", func(t *testing.T) {
		x := make([]float64, 50)
		for i := range x {
			v := float64(i + 1)
			x[i] = v * v * v
		}

		w, p, err := ShapiroWilk(x)
		require.NoError(t, err)
		assert.Less(t, w, 0.95)
		assert.Less(t, p, 0.05)
	})

	t.Run("small sample in range", func(t *testing.T) {
		w, p, err := ShapiroWilk([]float64{1, 2, 3, 4, 5, 6, 7, 8})
		require.NoError(t, err)
		assert.Greater(t, w, 0.9)
		assert.Greater(t, p, 0.05)
		assert.LessOrEqual(t, p, 1.0)
	})

	t.Run("too few values", func(t *testing.T) {
		_, _, err := ShapiroWilk([]float64{1, 2})
		assert.ErrorIs(t, err, errShapiroTooFew)
	})

	t.Run("constant sample", func(t *testing.T) {
		_, _, err := ShapiroWilk([]float64{5, 5, 5, 5})
		assert.ErrorIs(t, err, errShapiroConstant)
	})
}

func TestDistribution(t *testing.T) {
	e := newEngine()

	t.Run("numeric", func(t *testing.T) {
		got := e.Distribution(domain.NewNumericColumn("x", seq(1, 100)))

		require.NotNil(t, got.Percentiles.P50)
		assert.InDelta(t, 50.5, *got.Percentiles.P50, 1e-9)
		assert.InDelta(t, 49.5, *got.IQR, 1e-9)
		assert.Equal(t, SkewSymmetric, got.SkewInterpretation)
		assert.Equal(t, KurtPlatykurtic, got.KurtInterpretation)
		assert.Equal(t, 100, got.ShapiroSampleSize)
		require.NotNil(t, got.IsNormal)
	})

	t.Run("fewer than three values", func(t *testing.T) {
		got := e.Distribution(domain.NewNumericColumn("x", []float64{1, 2, nan}))
		assert.Equal(t, domain.DistributionStats{}, got)
	})

	t.Run("categorical", func(t *testing.T) {
		got := e.Distribution(domain.NewTextColumn("c", []string{"a", "b", "c"}))
		assert.Equal(t, domain.DistributionStats{}, got)
	})

	t.Run("constant leaves normality null", func(t *testing.T) {
		got := e.Distribution(domain.NewNumericColumn("x", []float64{3, 3, 3, 3}))
		assert.Nil(t, got.ShapiroStat)
		assert.Nil(t, got.IsNormal)
		assert.Nil(t, got.Skewness)
	})

	t.Run("large input is sampled deterministically", func(t *testing.T) {
		small := New(Options{ShapiroMaxSample: 50}, nil)
		col := domain.NewNumericColumn("x", seq(1, 500))

		a := small.Distribution(col)
		b := small.Distribution(col)

		assert.Equal(t, 50, a.ShapiroSampleSize)
		assert.Equal(t, *a.ShapiroStat, *b.ShapiroStat)
	})
}

func TestColumnMissing(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name    string
		values  []float64
		pattern domain.MissingPattern
		firstRc string
	}{
		{"none", []float64{1, 2, 3}, domain.PatternNone, "✓ No action required"},
		{"complete", []float64{nan, nan}, domain.PatternComplete, "❌ Most values are missing"},
		{
			"systematic run",
			append([]float64{1, nan, nan, nan}, seq(5, 20)...),
			domain.PatternSystematic,
			"• Multiple imputation recommended",
		},
		{
			"random gaps",
			append(append([]float64{nan}, seq(1, 9)...), append([]float64{nan}, seq(1, 9)...)...),
			domain.PatternRandom,
			"• Multiple imputation recommended",
		},
		{
			"under five percent",
			append([]float64{nan}, seq(1, 99)...),
			domain.PatternRandom,
			"• Drop rows with missing values",
		},
		{
			"high share",
			[]float64{nan, nan, nan, 1, 2, 3, 4, 5, 6, 7},
			domain.PatternSystematic,
			"⚠ High share of missing values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ColumnMissing(domain.NewNumericColumn("x", tt.values))

			assert.Equal(t, tt.pattern, got.PatternType)
			assert.NotEmpty(t, got.Pattern)
			require.NotEmpty(t, got.Recommendations)
			assert.Equal(t, tt.firstRc, got.Recommendations[0])
			assert.Equal(t, got.Total, got.Missing+got.Complete)
		})
	}
}

func TestDatasetMissing(t *testing.T) {
	ds := &domain.Dataset{Columns: []*domain.Column{
		domain.NewNumericColumn("a", []float64{1, 2, 3, 4}),
		domain.NewNumericColumn("b", []float64{nan, 2, 3, 4}),
		domain.NewTextColumn("c", []string{"", "", "x", "y"}),
	}}

	got := newEngine().DatasetMissing(ds)

	assert.Equal(t, 12, got.TotalCells)
	assert.Equal(t, 3, got.TotalMissing)
	assert.InDelta(t, 25.0, got.TotalMissingPct, 1e-9)
	assert.Equal(t, 2, got.ColumnsWithMissing)
	assert.Equal(t, 3, got.TotalColumns)
	assert.Equal(t, 2, got.RowsWithMissing)
	assert.Equal(t, 2, got.CompleteRows)
	assert.InDelta(t, 50.0, got.CompleteRowsPct, 1e-9)

	require.Len(t, got.ColumnDetails, 3)
	assert.Equal(t, "c", got.ColumnDetails[0].Column)
	assert.Equal(t, "b", got.ColumnDetails[1].Column)
	assert.Equal(t, "a", got.ColumnDetails[2].Column)
}

func TestOutliersIQR(t *testing.T) {
	e := newEngine()
	col := domain.NewNumericColumn("x", append(seq(1, 10), 100))

	got := e.OutliersIQR(col, 1.5)

	require.NotNil(t, got.Method)
	assert.Equal(t, domain.MethodIQR, *got.Method)
	assert.InDelta(t, 3.5, *got.Q1, 1e-9)
	assert.InDelta(t, 8.5, *got.Q3, 1e-9)
	assert.InDelta(t, -4.0, *got.LowerBound, 1e-9)
	assert.InDelta(t, 16.0, *got.UpperBound, 1e-9)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, 1, got.UpperCount)
	assert.Equal(t, 0, got.LowerCount)
	assert.Equal(t, []int{10}, got.Indices)
	assert.Equal(t, []float64{100}, got.Values)
	assert.InDelta(t, 100.0/11, got.Pct, 1e-9)
	assert.InDelta(t, 1.0, *got.NormalMin, 1e-9)
	assert.InDelta(t, 10.0, *got.NormalMax, 1e-9)
}

func TestOutliersIQR_ListLimit(t *testing.T) {
	e := New(Options{OutlierListLimit: 2}, nil)
	col := domain.NewNumericColumn("x", append(seq(1, 20), 500, 600, 700))

	got := e.OutliersIQR(col, 0)

	assert.Equal(t, 3, got.Count)
	assert.Len(t, got.Indices, 2)
}

func TestOutliersIQR_Empty(t *testing.T) {
	e := newEngine()

	for _, col := range []*domain.Column{
		domain.NewTextColumn("c", []string{"a"}),
		domain.NewNumericColumn("x", []float64{nan}),
	} {
		got := e.OutliersIQR(col, 0)
		assert.Nil(t, got.Method)
		assert.Nil(t, got.NormalMin)
		assert.Nil(t, got.LowerBound)
		assert.Zero(t, got.Count)
	}
}

func TestOutliersZScore(t *testing.T) {
	e := newEngine()
	col := domain.NewNumericColumn("x", append(seq(1, 10), 100))

	got := e.OutliersZScore(col, 2)

	require.NotNil(t, got.Method)
	assert.Equal(t, domain.MethodZScore, *got.Method)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, []int{10}, got.Indices)
	require.Len(t, got.ZScores, 1)
	assert.Greater(t, got.ZScores[0], 2.0)
	assert.InDelta(t, 2.0, *got.Threshold, 1e-12)
	mean, std := *got.Mean, *got.Std
	assert.InDelta(t, mean+2*std, *got.UpperBound, 1e-9)

	constant := e.OutliersZScore(domain.NewNumericColumn("x", []float64{2, 2, 2}), 3)
	assert.Nil(t, constant.Method)
}

func TestOutliers_Recommendations(t *testing.T) {
	e := newEngine()

	clean := e.Outliers(domain.NewNumericColumn("x", seq(1, 10)), 0, 0)
	assert.Equal(t, []string{"✓ No outliers detected"}, clean.Recommendations)

	heavy := e.Outliers(domain.NewNumericColumn("x", append(seq(1, 10), 100)), 0, 0)
	assert.Equal(t, "⚠ High number of outliers", heavy.Recommendations[0])

	moderate := e.Outliers(domain.NewNumericColumn("x", append(seq(1, 40), 1000)), 0, 0)
	assert.Equal(t, "• Moderate outliers, review them individually", moderate.Recommendations[0])
}

func TestQuality(t *testing.T) {
	ds := &domain.Dataset{Columns: []*domain.Column{
		domain.NewNumericColumn("a", append(seq(1, 10), 100)),
		domain.NewNumericColumn("b", append(seq(1, 9), nan, nan)),
		domain.NewTextColumn("c", []string{"x", "y", "", "", "", "x", "y", "x", "y", "x", "y"}),
	}}

	got, err := newEngine().Quality(context.Background(), ds)

	require.NoError(t, err)
	assert.InDelta(t, 100-5.0/33*100, got.Completeness, 1e-9)
	assert.Equal(t, "Good", got.Label)
	assert.Equal(t, 1, got.OutlierColumns)
	assert.Equal(t, 1, got.TotalOutliers)
	assert.Equal(t, []string{"Missing data: 15.2%", "Columns with outliers: 1"}, got.Issues)
	assert.True(t, got.HasIssues)
}

func TestQuality_CanceledContext(t *testing.T) {
	ds := &domain.Dataset{Columns: []*domain.Column{
		domain.NewNumericColumn("a", seq(1, 10)),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Quality(ctx, ds)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummary(t *testing.T) {
	ds := &domain.Dataset{
		ID:   "id-1",
		Name: "people.csv",
		Columns: []*domain.Column{
			domain.NewNumericColumn("age", []float64{30, nan}),
			domain.NewTextColumn("dept", []string{"HR", "IT"}),
		},
	}

	got := newEngine().Summary(ds)

	assert.Equal(t, 2, got.Rows)
	assert.Equal(t, 2, got.Columns)
	assert.Equal(t, 1, got.MissingCells)
	assert.InDelta(t, 75.0, got.Completeness, 1e-9)
	assert.Len(t, got.DTypeCounts, len(domain.Kinds))
	assert.Equal(t, 1, got.DTypeCounts[domain.KindNumeric])
	assert.Equal(t, 0, got.DTypeCounts[domain.KindBoolean])
	assert.Equal(t, "people.csv", got.FileName)
}

func TestAnalyze(t *testing.T) {
	got := newEngine().Analyze(domain.NewNumericColumn("x", seq(1, 10)))

	assert.Equal(t, "x", got.Column.Name)
	assert.Equal(t, domain.DTypeInt64, got.Column.DType)
	assert.Equal(t, 10, got.Basic.Count)
	assert.NotNil(t, got.Distribution.Skewness)
	assert.Equal(t, domain.PatternNone, got.Missing.PatternType)
	require.NotNil(t, got.Outliers.Method)
	assert.Equal(t, domain.MethodIQR, *got.Outliers.Method)
}
