package analysis

import (
	"math"
	"slices"
)

// percentile returns the p-th percentile (0..100) of sorted values using
// linear interpolation between the closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)

	switch n {
	case 0:
		return math.NaN()
	case 1:
		return sorted[0]
	}

	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// sortedCopy returns values sorted ascending without touching the input.
func sortedCopy(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)

	return out
}

// Quartiles returns the first and third quartile of values.
func Quartiles(values []float64) (q1, q3 float64) {
	sorted := sortedCopy(values)
	return percentile(sorted, 25), percentile(sorted, 75)
}
