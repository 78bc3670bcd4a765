package simulation

import (
	"context"
	"errors"
	"math"
	"testing"

	"sigma-mcp/internal/formula"
)

func TestSimulate_DegenerateNoDefects(t *testing.T) {
	vars := []InputVariable{{Name: "x", Mean: 10, StdDev: 0}}
	cfg := Config{LSL: 5, USL: 15, Formula: "x", Iterations: 100}

	res, err := Simulate(vars, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if len(res.Data) != 100 {
		t.Fatalf("Expected 100 values, got %d", len(res.Data))
	}
	for i, y := range res.Data {
		if y != 10 {
			t.Fatalf("Value %d: expected 10, got %v", i, y)
		}
	}
	if res.Defects != 0 || res.DPMO != 0 {
		t.Errorf("Expected no defects, got %d (dpmo %v)", res.Defects, res.DPMO)
	}
	if res.StdDev != 0 {
		t.Errorf("Expected zero spread, got %v", res.StdDev)
	}
	if !math.IsInf(res.Cp, 1) || !math.IsInf(res.Cpk, 1) {
		t.Errorf("Expected infinite capability for zero spread, got cp=%v cpk=%v", res.Cp, res.Cpk)
	}
}

func TestSimulate_AllDefects(t *testing.T) {
	vars := []InputVariable{{Name: "x", Mean: 20, StdDev: 0}}
	cfg := Config{LSL: 5, USL: 15, Formula: "x", Iterations: 50}

	res, err := Simulate(vars, cfg)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if res.Defects != 50 || res.DPMO != 1_000_000 {
		t.Errorf("Expected 50 defects and dpmo 1e6, got %d and %v", res.Defects, res.DPMO)
	}
}

func TestSimulate_Statistics(t *testing.T) {
	vars := []InputVariable{
		{Name: "x", Mean: 5, StdDev: 1},
		{Name: "y", Mean: 5, StdDev: 1},
	}
	cfg := Config{LSL: 0, USL: 20, Formula: "x + y", Iterations: 20000}

	res, err := NewEngine(4, 42).Run(context.Background(), vars, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if math.Abs(res.Mean-10) > 0.1 {
		t.Errorf("Expected mean near 10, got %v", res.Mean)
	}
	if math.Abs(res.StdDev-math.Sqrt2) > 0.1 {
		t.Errorf("Expected stdDev near %v, got %v", math.Sqrt2, res.StdDev)
	}
	if res.Min > res.Mean || res.Max < res.Mean {
		t.Errorf("Expected min <= mean <= max, got %v, %v, %v", res.Min, res.Mean, res.Max)
	}

	wantCp := 20 / (6 * res.StdDev)
	if math.Abs(res.Cp-wantCp) > 1e-12 {
		t.Errorf("Expected cp %v, got %v", wantCp, res.Cp)
	}
	if res.Cpk != math.Min(res.Cpu, res.Cpl) {
		t.Errorf("Expected cpk = min(cpu, cpl)")
	}
	if res.SigmaLevel != 3*res.Cpk {
		t.Errorf("Expected sigma level 3*cpk, got %v", res.SigmaLevel)
	}
	if res.Iterations != 20000 || res.Timestamp.IsZero() {
		t.Errorf("Expected iterations and timestamp to be recorded")
	}
}

func TestEngine_SeedReproducible(t *testing.T) {
	vars := []InputVariable{{Name: "a", Mean: 1, StdDev: 0.5}}
	cfg := Config{LSL: math.Inf(-1), USL: 1.5, Formula: "a^2", Iterations: 3000}

	first, err := NewEngine(3, 7).Run(context.Background(), vars, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := NewEngine(3, 7).Run(context.Background(), vars, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i := range first.Data {
		if first.Data[i] != second.Data[i] {
			t.Fatalf("Value %d differs between seeded runs: %v vs %v", i, first.Data[i], second.Data[i])
		}
	}
	if first.Defects != second.Defects {
		t.Errorf("Expected identical defect counts, got %d and %d", first.Defects, second.Defects)
	}
}

func TestEngine_SequentialMatchesDefectCount(t *testing.T) {
	vars := []InputVariable{{Name: "x", Mean: 0, StdDev: 1}}
	cfg := Config{LSL: -1, USL: 1, Formula: "x", Iterations: 1000}

	res, err := NewEngine(1, 99).Run(context.Background(), vars, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	count := 0
	for _, y := range res.Data {
		if y < -1 || y > 1 {
			count++
		}
	}
	if count != res.Defects {
		t.Errorf("Expected %d defects, got %d", count, res.Defects)
	}
}

func TestSimulate_Errors(t *testing.T) {
	vars := []InputVariable{{Name: "x", Mean: 1, StdDev: 1}}

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"UnknownSymbol", Config{LSL: 0, USL: 1, Formula: "x + z", Iterations: 10}, formula.ErrInvalidFormula},
		{"SyntaxError", Config{LSL: 0, USL: 1, Formula: "x +", Iterations: 10}, formula.ErrInvalidFormula},
		{"ZeroIterations", Config{LSL: 0, USL: 1, Formula: "x", Iterations: 0}, ErrInvalidConfig},
		{"NaNLimit", Config{LSL: math.NaN(), USL: 1, Formula: "x", Iterations: 10}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Simulate(vars, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if res != nil {
				t.Error("Expected no result on failure")
			}
		})
	}
}

func TestEngine_MaxIterations(t *testing.T) {
	e := &Engine{Workers: 2, Seed: 1, MaxIterations: 100}
	_, err := e.Run(context.Background(), []InputVariable{{Name: "x"}}, Config{Formula: "x", Iterations: 101, LSL: -1, USL: 1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestEngine_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vars := []InputVariable{{Name: "x", Mean: 0, StdDev: 1}}
	_, err := NewEngine(2, 1).Run(ctx, vars, Config{LSL: -1, USL: 1, Formula: "x", Iterations: 5000})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSimulate_SingleIterationDegenerate(t *testing.T) {
	res, err := Simulate([]InputVariable{{Name: "x", Mean: 3, StdDev: 1}}, Config{LSL: 0, USL: 6, Formula: "x", Iterations: 1})
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !math.IsNaN(res.StdDev) || !math.IsNaN(res.Cp) {
		t.Errorf("Expected NaN spread and cp for one iteration, got %v and %v", res.StdDev, res.Cp)
	}
}

func TestValidateVariables(t *testing.T) {
	if err := ValidateVariables([]InputVariable{{Name: "x", Mean: 1, StdDev: 0.1, Kind: "normal"}}); err != nil {
		t.Errorf("Expected valid variables, got %v", err)
	}
	bad := [][]InputVariable{
		{{Name: "", Mean: 1, StdDev: 1}},
		{{Name: "x", Mean: 1, StdDev: -1}},
		{{Name: "x", Mean: math.Inf(1), StdDev: 1}},
		{{Name: "x", Mean: 1, StdDev: 1, Kind: "uniform"}},
	}
	for i, vars := range bad {
		if err := ValidateVariables(vars); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Case %d: expected ErrInvalidConfig, got %v", i, err)
		}
	}
}

func TestSpecLimits(t *testing.T) {
	lsl := 2.0
	lo, hi := SpecLimits(&lsl, nil)
	if lo != 2 || !math.IsInf(hi, 1) {
		t.Errorf("SpecLimits = (%v, %v), want (2, +Inf)", lo, hi)
	}
	lo, _ = SpecLimits(nil, nil)
	if !math.IsInf(lo, -1) {
		t.Errorf("Expected -Inf lower limit, got %v", lo)
	}
}
