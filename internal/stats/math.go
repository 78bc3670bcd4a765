package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// MeanStdDev returns the mean and the sample (n-1) standard deviation.
// A single value yields a NaN standard deviation.
func MeanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(values, nil)
}

// MinMax returns the smallest and largest values. An empty slice yields NaN for both.
func MinMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(values), floats.Max(values)
}

// FiniteMinMax is like MinMax but skips NaN and ±Inf. ok is false when no finite value exists.
func FiniteMinMax(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, ok
}
