package stats

import (
	"math"
	"testing"
)

func TestMeanStdDev(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantStd  float64
	}{
		{"Constant", []float64{10, 10, 10, 10}, 10, 0},
		{"SampleDenominator", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 5, math.Sqrt(32.0 / 7.0)},
		{"Pair", []float64{1, 3}, 2, math.Sqrt2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := MeanStdDev(tt.values)
			if math.Abs(mean-tt.wantMean) > 1e-12 {
				t.Errorf("mean = %v, want %v", mean, tt.wantMean)
			}
			if math.Abs(std-tt.wantStd) > 1e-12 {
				t.Errorf("stdDev = %v, want %v", std, tt.wantStd)
			}
		})
	}
}

func TestMeanStdDev_Degenerate(t *testing.T) {
	mean, std := MeanStdDev([]float64{4})
	if mean != 4 {
		t.Errorf("Expected mean 4, got %v", mean)
	}
	if !math.IsNaN(std) {
		t.Errorf("Expected NaN stdDev for a single value, got %v", std)
	}

	mean, std = MeanStdDev(nil)
	if !math.IsNaN(mean) || !math.IsNaN(std) {
		t.Errorf("Expected NaN for empty input, got %v, %v", mean, std)
	}
	if !math.IsNaN(Mean(nil)) {
		t.Error("Expected NaN mean for empty input")
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{3, -1, 7, 2})
	if lo != -1 || hi != 7 {
		t.Errorf("MinMax = (%v, %v), want (-1, 7)", lo, hi)
	}

	lo, hi, ok := FiniteMinMax([]float64{math.Inf(1), 2, math.NaN(), -3, math.Inf(-1)})
	if !ok || lo != -3 || hi != 2 {
		t.Errorf("FiniteMinMax = (%v, %v, %v), want (-3, 2, true)", lo, hi, ok)
	}

	if _, _, ok := FiniteMinMax([]float64{math.NaN()}); ok {
		t.Error("Expected ok=false when no finite values exist")
	}
}
