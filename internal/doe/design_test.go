package doe

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestGenerate_PressureTemp(t *testing.T) {
	factors := []Factor{
		NewFactor("Pressure", 40, 60),
		NewFactor("Temp", 200, 250),
	}

	runs := Generate(factors)
	if len(runs) != 4 {
		t.Fatalf("Expected 4 runs, got %d", len(runs))
	}

	want := [][2]float64{{40, 200}, {40, 250}, {60, 200}, {60, 250}}
	for i, r := range runs {
		if r.ID != i+1 {
			t.Errorf("Run %d: expected id %d, got %d", i, i+1, r.ID)
		}
		if r.Factors["Pressure"] != want[i][0] || r.Factors["Temp"] != want[i][1] {
			t.Errorf("Run %d: expected (%v, %v), got (%v, %v)",
				r.ID, want[i][0], want[i][1], r.Factors["Pressure"], r.Factors["Temp"])
		}
		if r.Output != nil {
			t.Errorf("Run %d: expected no output, got %v", r.ID, *r.Output)
		}
	}
}

func TestGenerate_CartesianCompleteness(t *testing.T) {
	tests := []struct {
		name   string
		levels [][]float64
	}{
		{"TwoByTwo", [][]float64{{1, 2}, {3, 4}}},
		{"Mixed", [][]float64{{1, 2, 3}, {10, 20}, {0.5, 1.5, 2.5, 3.5}}},
		{"Single", [][]float64{{7, 8, 9}}},
		{"FourFactors", [][]float64{{1, 2}, {1, 2, 3}, {1, 2}, {1, 2, 3, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var factors []Factor
			expected := 1
			for i, lv := range tt.levels {
				factors = append(factors, NewFactor(fmt.Sprintf("F%d", i), lv...))
				expected *= len(lv)
			}

			runs := Generate(factors)
			if len(runs) != expected {
				t.Fatalf("Expected %d runs, got %d", expected, len(runs))
			}
			if RunCount(factors) != expected {
				t.Errorf("RunCount = %d, want %d", RunCount(factors), expected)
			}

			seen := make(map[string]bool)
			for i, r := range runs {
				if r.ID != i+1 {
					t.Errorf("Expected id %d, got %d", i+1, r.ID)
				}
				if len(r.Factors) != len(factors) {
					t.Errorf("Run %d: expected %d settings, got %d", r.ID, len(factors), len(r.Factors))
				}
				key := fmt.Sprint(settingsKey(r, factors))
				if seen[key] {
					t.Errorf("Run %d repeats combination %s", r.ID, key)
				}
				seen[key] = true

				for _, f := range factors {
					if !containsLevel(f.Levels, r.Factors[f.Name]) {
						t.Errorf("Run %d: %s=%v is not a declared level", r.ID, f.Name, r.Factors[f.Name])
					}
				}
			}
		})
	}
}

func TestGenerate_Empty(t *testing.T) {
	runs := Generate(nil)
	if runs == nil || len(runs) != 0 {
		t.Errorf("Expected empty non-nil run list, got %v", runs)
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	factors := []Factor{
		NewFactor("A", 1, 2, 3),
		NewFactor("B", 5, 10),
	}
	first := Generate(factors)
	second := Generate(factors)
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical run lists from identical factors")
	}
}

func TestValidateFactors(t *testing.T) {
	tests := []struct {
		name    string
		factors []Factor
		wantErr bool
	}{
		{"Valid", []Factor{NewFactor("Pressure", 40, 60), NewFactor("Temp_2", 200, 225, 250)}, false},
		{"EmptyName", []Factor{NewFactor("", 1, 2)}, true},
		{"NotIdentifier", []Factor{NewFactor("Flow Rate", 1, 2)}, true},
		{"LeadingDigit", []Factor{NewFactor("2x", 1, 2)}, true},
		{"OneLevel", []Factor{NewFactor("A", 1)}, true},
		{"FiveLevels", []Factor{NewFactor("A", 1, 2, 3, 4, 5)}, true},
		{"CaseCollision", []Factor{NewFactor("temp", 1, 2), NewFactor("Temp", 3, 4)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFactors(tt.factors)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFactors() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFactor) {
				t.Errorf("Expected ErrInvalidFactor, got %v", err)
			}
		})
	}
}

func manyFactors(count int, levels ...float64) []Factor {
	factors := make([]Factor, count)
	for i := range factors {
		factors[i] = NewFactor(fmt.Sprintf("F%d", i), levels...)
	}
	return factors
}

func TestValidateFactors_RunLimit(t *testing.T) {
	tests := []struct {
		name    string
		factors []Factor
		wantErr bool
	}{
		{"AtLimitPowerOfTwo", manyFactors(16, 1, 2), false},
		{"SixteenFourLevel", manyFactors(16, 1, 2, 3, 4), true},
		{"ThirtyTwoFourLevel", manyFactors(32, 1, 2, 3, 4), true},
		{"SixtyFourTwoLevel", manyFactors(64, 1, 2), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFactors(tt.factors)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFactors() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFactor) {
				t.Errorf("Expected ErrInvalidFactor, got %v", err)
			}
			if tt.wantErr && RunCount(tt.factors) != -1 {
				t.Errorf("Expected RunCount -1 above the limit, got %d", RunCount(tt.factors))
			}
		})
	}
}

func TestFactorBounds_Unsorted(t *testing.T) {
	f := NewFactor("A", 30, 10, 20)
	low, high, ok := f.Bounds()
	if !ok || low != 10 || high != 30 {
		t.Errorf("Bounds = (%v, %v, %v), want (10, 30, true)", low, high, ok)
	}
	if f.Levels[0] != 30 {
		t.Error("Bounds must not reorder the factor's levels")
	}
}

func TestNewFactor_UniqueIDs(t *testing.T) {
	a := NewFactor("A", 1, 2)
	b := NewFactor("A", 1, 2)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("Expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
}

func settingsKey(r Run, factors []Factor) []float64 {
	key := make([]float64, len(factors))
	for i, f := range factors {
		key[i] = r.Factors[f.Name]
	}
	return key
}

func containsLevel(levels []float64, v float64) bool {
	for _, l := range levels {
		if l == v {
			return true
		}
	}
	return false
}
