package simulation

import (
	"math"

	"sigma-mcp/internal/stats"
)

// DefaultBinCount is the number of histogram bins used when the caller sets none.
const DefaultBinCount = 20

// MaxBinCount is the largest bin count NewHistogram produces.
const MaxBinCount = 200

// HistogramBin counts the values falling in [Start, End). The last bin also
// includes its End.
type HistogramBin struct {
	Start float64 `json:"binStart"`
	End   float64 `json:"binEnd"`
	Count int     `json:"count"`
}

// NewHistogram buckets values into binCount equal-width bins spanning the
// finite range of values. When all values are equal the bins are one unit wide
// starting at that value. NaN and ±Inf are not binned. binCount <= 0 selects
// DefaultBinCount and counts above MaxBinCount are capped.
func NewHistogram(values []float64, binCount int) []HistogramBin {
	if binCount <= 0 {
		binCount = DefaultBinCount
	}
	binCount = min(binCount, MaxBinCount)
	lo, hi, ok := stats.FiniteMinMax(values)
	if !ok {
		return []HistogramBin{}
	}

	width := (hi - lo) / float64(binCount)
	if width == 0 {
		width = 1
	}

	bins := make([]HistogramBin, binCount)
	for i := range bins {
		bins[i].Start = lo + float64(i)*width
		bins[i].End = lo + float64(i+1)*width
	}
	// Pin the outer edge so floating error cannot leave max uncovered.
	if hi > lo {
		bins[binCount-1].End = hi
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		idx := int(math.Floor((v - lo) / width))
		if idx >= binCount {
			idx = binCount - 1
		}
		if idx < 0 {
			idx = 0
		}
		bins[idx].Count++
	}
	return bins
}
