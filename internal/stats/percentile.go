// Package stats holds small order statistics used by travel summaries.
package stats

import (
	"math"
	"sort"
)

// Percentiles returns the p-th percentiles (0-100) of values, using linear interpolation
// between closest ranks. values is not modified.
func Percentiles(values []float64, ps ...float64) []float64 {
	results := make([]float64, len(ps))
	if len(values) == 0 {
		return results
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	for i, p := range ps {
		results[i] = quantileSorted(sorted, clamp(p, 0, 100)/100.0)
	}
	return results
}

// Percentile returns the p-th percentile (0-100) of values
func Percentile(values []float64, p float64) float64 {
	return Percentiles(values, p)[0]
}

// Median returns the 50th percentile
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

func quantileSorted(sorted []float64, q float64) float64 {
	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
