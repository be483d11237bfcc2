package analysis

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

var (
	errShapiroTooFew   = errors.New("shapiro-wilk needs at least 3 values")
	errShapiroConstant = errors.New("shapiro-wilk is undefined for a constant sample")
)

// Royston (1995) polynomial approximations, algorithm AS R94.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

func poly(c []float64, x float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}

	return r
}

// ShapiroWilk returns the W statistic and p-value of the Shapiro-Wilk
// normality test for x. The input is not modified.
func ShapiroWilk(x []float64) (w, p float64, err error) {
	n := len(x)
	if n < 3 {
		return 0, 0, errShapiroTooFew
	}

	sorted := sortedCopy(x)
	if sorted[n-1]-sorted[0] < 1e-19*math.Max(1, math.Abs(sorted[0])) {
		return 0, 0, errShapiroConstant
	}

	a := shapiroCoefficients(n)

	var num float64
	for i, ai := range a {
		num += ai * (sorted[n-1-i] - sorted[i])
	}

	mean := 0.0
	for _, v := range sorted {
		mean += v
	}

	mean /= float64(n)

	var ss float64
	for _, v := range sorted {
		d := v - mean
		ss += d * d
	}

	w = math.Min(num*num/ss, 1)

	return w, shapiroPValue(w, n), nil
}

// shapiroCoefficients returns the first n/2 weights; the rest mirror them
// with opposite sign.
func shapiroCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)

	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}

	an := float64(n)
	m := make([]float64, half)

	var summ2 float64

	for i := range half {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}

	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	a[0] = a1

	first := 1

	var fac float64

	if n > 5 {
		a2 := poly(swC2, rsn) - m[1]/ssumm2
		a[1] = a2
		first = 2
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}

	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}

	return a
}

func shapiroPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Pi/3)
		return math.Max(p, 0)
	}

	an := float64(n)
	y := math.Log(1 - w)

	var m, s float64

	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-99
		}

		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}

	return distuv.UnitNormal.Survival((y - m) / s)
}
