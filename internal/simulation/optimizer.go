package simulation

import (
	"context"
	"errors"
	"math"

	"sigma-mcp/internal/doe"
)

// ErrNoModel is returned by Optimize when no run carries an observed output, so
// no transfer function can be derived.
var ErrNoModel = errors.New("no observed outputs to derive a transfer function from")

// Tolerance is the operating window chosen for one factor. The window is treated
// as a ±3σ band around its midpoint.
type Tolerance struct {
	Target float64 `json:"target" yaml:"target"`
	Lower  float64 `json:"lowerLimit" yaml:"lowerLimit"`
	Upper  float64 `json:"upperLimit" yaml:"upperLimit"`
}

// DefaultTolerances proposes a window of ±10% around the midpoint between each
// factor's first and last level as entered, with limits rounded to whole numbers.
func DefaultTolerances(factors []doe.Factor) map[string]Tolerance {
	out := make(map[string]Tolerance, len(factors))
	for _, f := range factors {
		if len(f.Levels) == 0 {
			continue
		}
		mid := (f.Levels[0] + f.Levels[len(f.Levels)-1]) / 2
		out[f.Name] = Tolerance{
			Target: mid,
			Lower:  roundHalfUp(mid * 0.9),
			Upper:  roundHalfUp(mid * 1.1),
		}
	}
	return out
}

// VariablesFromTolerances maps each factor to a normal input whose mean is the
// centre of its window and whose standard deviation is a sixth of its width.
// Target is not used.
// Factors without a tolerance get a zero mean and zero spread.
func VariablesFromTolerances(factors []doe.Factor, tolerances map[string]Tolerance) []InputVariable {
	vars := make([]InputVariable, 0, len(factors))
	for _, f := range factors {
		t := tolerances[f.Name]
		vars = append(vars, InputVariable{
			ID:     f.ID,
			Name:   f.Name,
			Mean:   (t.Lower + t.Upper) / 2,
			StdDev: (t.Upper - t.Lower) / 6,
			Kind:   "normal",
		})
	}
	return vars
}

// Optimization pairs the fitted transfer function with the capability it yields
// under the chosen tolerances.
type Optimization struct {
	Formula   string          `json:"formula"`
	Variables []InputVariable `json:"variables"`
	Result    *Result         `json:"result"`
}

// Optimize fits the regression formula to the observed runs and simulates it with
// inputs derived from tolerances. Missing tolerances fall back to DefaultTolerances.
func (e *Engine) Optimize(ctx context.Context, runs []doe.Run, factors []doe.Factor, tolerances map[string]Tolerance, lsl, usl float64, iterations int) (*Optimization, error) {
	expr, ok := doe.RegressionFormula(runs, factors)
	if !ok {
		return nil, ErrNoModel
	}

	merged := DefaultTolerances(factors)
	for name, t := range tolerances {
		merged[name] = t
	}
	vars := VariablesFromTolerances(factors, merged)

	res, err := e.Run(ctx, vars, Config{LSL: lsl, USL: usl, Formula: expr, Iterations: iterations})
	if err != nil {
		return nil, err
	}
	return &Optimization{Formula: expr, Variables: vars, Result: res}, nil
}

// roundHalfUp rounds halves toward +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
