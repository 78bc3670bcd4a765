package doe

import (
	"cmp"
	"math"
	"slices"

	"sigma-mcp/internal/stats"
)

// MainEffect is the response of the output to moving one factor from its low to
// its high level.
type MainEffect struct {
	Factor   string  `json:"factor"`
	Effect   float64 `json:"effect"` // |highMean - lowMean|
	Slope    float64 `json:"slope"`  // output change per unit of factor level
	LowMean  float64 `json:"lowMean"`
	HighMean float64 `json:"highMean"`
}

// MainEffects computes the effect of every factor over the runs that carry an
// output, using only the endpoint levels. Intermediate levels do not contribute.
// A factor is omitted when either endpoint has no observed run. The result is
// ordered by descending magnitude; ties keep factor order.
func MainEffects(runs []Run, factors []Factor) []MainEffect {
	valid := ValidRuns(runs)
	effects := make([]MainEffect, 0, len(factors))
	if len(valid) == 0 {
		return effects
	}

	for _, f := range factors {
		if e, ok := mainEffect(valid, f); ok {
			effects = append(effects, e)
		}
	}

	slices.SortStableFunc(effects, func(a, b MainEffect) int {
		return cmp.Compare(b.Effect, a.Effect)
	})
	return effects
}

func mainEffect(valid []Run, f Factor) (MainEffect, bool) {
	low, high, ok := f.Bounds()
	if !ok {
		return MainEffect{}, false
	}

	lowY := outputsAt(valid, f.Name, low)
	highY := outputsAt(valid, f.Name, high)
	if len(lowY) == 0 || len(highY) == 0 {
		return MainEffect{}, false
	}

	lowMean := stats.Mean(lowY)
	highMean := stats.Mean(highY)
	span := high - low
	if span == 0 {
		span = 1
	}
	return MainEffect{
		Factor:   f.Name,
		Effect:   math.Abs(highMean - lowMean),
		Slope:    (highMean - lowMean) / span,
		LowMean:  lowMean,
		HighMean: highMean,
	}, true
}

// outputsAt collects the outputs of runs where the named factor sits exactly at level.
func outputsAt(valid []Run, name string, level float64) []float64 {
	var ys []float64
	for _, r := range valid {
		if v, ok := r.Factors[name]; ok && v == level {
			ys = append(ys, *r.Output)
		}
	}
	return ys
}
