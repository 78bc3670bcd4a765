package doe

import (
	"fmt"
	"strings"

	"sigma-mcp/internal/stats"
)

// Term is one linear contribution of a factor to the fitted model.
type Term struct {
	Factor string  `json:"factor"`
	Slope  float64 `json:"slope"`
}

// Model is the additive linear model derived from the main effects.
type Model struct {
	Intercept float64 `json:"intercept"`
	Terms     []Term  `json:"terms"`
}

// Fit derives the additive model from the runs that carry an output. Each
// factor contributes its main-effect slope. The intercept is chosen so the model
// reproduces the mean output at the mean observed factor settings. Factors
// without a computable effect are left out. ok is false when no run has an output.
func Fit(runs []Run, factors []Factor) (Model, bool) {
	valid := ValidRuns(runs)
	if len(valid) == 0 {
		return Model{}, false
	}

	ys := make([]float64, len(valid))
	for i, r := range valid {
		ys[i] = *r.Output
	}
	intercept := stats.Mean(ys)

	terms := make([]Term, 0, len(factors))
	for _, f := range factors {
		e, ok := mainEffect(valid, f)
		if !ok {
			continue
		}
		slope := e.Slope

		xs := make([]float64, 0, len(valid))
		for _, r := range valid {
			if v, ok := r.Factors[f.Name]; ok {
				xs = append(xs, v)
			}
		}
		intercept -= slope * stats.Mean(xs)
		terms = append(terms, Term{Factor: f.Name, Slope: slope})
	}

	return Model{Intercept: intercept, Terms: terms}, true
}

// Formula renders the model as an expression accepted by the formula evaluator,
// e.g. "12.5000 + (1.5000 * Pressure) + (-0.2500 * Temp)". Coefficients carry
// four decimals.
func (m Model) Formula() string {
	var b strings.Builder
	b.WriteString(fixed4(m.Intercept))
	for _, t := range m.Terms {
		fmt.Fprintf(&b, " + (%s * %s)", fixed4(t.Slope), t.Factor)
	}
	return b.String()
}

// Predict evaluates the model at the given factor settings. Missing settings count as zero.
func (m Model) Predict(settings map[string]float64) float64 {
	y := m.Intercept
	for _, t := range m.Terms {
		y += t.Slope * settings[t.Factor]
	}
	return y
}

// RegressionFormula fits the additive model and returns its formula text.
// ok is false when no run has an output.
func RegressionFormula(runs []Run, factors []Factor) (string, bool) {
	m, ok := Fit(runs, factors)
	if !ok {
		return "", false
	}
	return m.Formula(), true
}

func fixed4(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	if s == "-0.0000" {
		return "0.0000"
	}
	return s
}
