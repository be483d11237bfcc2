package charts

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
)

const (
	kdePoints = 200
	maxBins   = 100
)

// scottBandwidth returns the Gaussian kernel width n^(-1/5)·σ.
func scottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	_, std := stat.MeanStdDev(values, nil)

	return std * math.Pow(float64(len(values)), -0.2)
}

// kde evaluates a Gaussian kernel density estimate on an even grid over
// [lo, hi]. It returns nil when the bandwidth is zero.
func kde(values []float64, lo, hi float64) plotter.XYs {
	h := scottBandwidth(values)
	if h <= 0 || math.IsNaN(h) || hi <= lo {
		return nil
	}

	norm := 1 / (float64(len(values)) * h)
	step := (hi - lo) / float64(kdePoints-1)
	xys := make(plotter.XYs, kdePoints)

	for i := range xys {
		x := lo + float64(i)*step

		var sum float64
		for _, v := range values {
			sum += distuv.UnitNormal.Prob((x - v) / h)
		}

		xys[i] = plotter.XY{X: x, Y: sum * norm}
	}

	return xys
}

// autoBins picks the larger of the Sturges and Freedman-Diaconis bin counts.
func autoBins(values []float64) int {
	n := len(values)
	if n < 2 {
		return 1
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	span := sorted[n-1] - sorted[0]
	if span == 0 {
		return 1
	}

	sturges := int(math.Ceil(math.Log2(float64(n)))) + 1

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	fd := 0
	if width := 2 * (q3 - q1) / math.Cbrt(float64(n)); width > 0 {
		fd = int(math.Ceil(span / width))
	}

	return min(max(sturges, fd), maxBins)
}

func maxY(xys plotter.XYs) float64 {
	var m float64
	for _, p := range xys {
		m = max(m, p.Y)
	}

	return m
}
