package table

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sum of xs; 0 for an empty slice
func Sum(xs []float64) float64 {
	return floats.Sum(xs)
}

// Mean of xs; NaN for an empty slice
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// Median averages the two middle values for even lengths
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Std is the sample standard deviation (n-1)
func Std(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return floats.Min(xs)
}

func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return floats.Max(xs)
}
