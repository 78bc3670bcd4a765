package doe

import (
	"cmp"
	"math"
	"slices"

	"sigma-mcp/internal/stats"
)

// InteractionEffect is the magnitude of the two-factor interaction between a pair of factors.
type InteractionEffect struct {
	Factor1     string  `json:"factor1"`
	Factor2     string  `json:"factor2"`
	Interaction float64 `json:"interaction"`
}

// CellMeans holds the mean output of the four endpoint combinations of a factor
// pair. The first letter is the level of the first factor, the second letter the
// level of the second factor.
type CellMeans struct {
	Factor1 string  `json:"factor1"`
	Factor2 string  `json:"factor2"`
	Low1    float64 `json:"low1"`
	High1   float64 `json:"high1"`
	Low2    float64 `json:"low2"`
	High2   float64 `json:"high2"`
	LL      float64 `json:"ll"`
	LH      float64 `json:"lh"`
	HL      float64 `json:"hl"`
	HH      float64 `json:"hh"`
}

// Contrast returns half the difference between the effect of the second factor at
// the first factor's high level and its effect at the low level.
func (c CellMeans) Contrast() float64 {
	return ((c.HH - c.HL) - (c.LH - c.LL)) / 2
}

// InteractionCells computes the endpoint cell means for the pair (f1, f2) over
// the runs that carry an output. ok is false when any of the four cells is empty.
func InteractionCells(runs []Run, f1, f2 Factor) (CellMeans, bool) {
	return cellMeans(ValidRuns(runs), f1, f2)
}

// Interactions computes the interaction magnitude for every unordered pair of
// distinct factors. Pairs with an empty endpoint cell are omitted. The result is
// ordered by descending magnitude; ties keep pair enumeration order.
func Interactions(runs []Run, factors []Factor) []InteractionEffect {
	valid := ValidRuns(runs)
	result := make([]InteractionEffect, 0)
	if len(valid) == 0 || len(factors) < 2 {
		return result
	}

	for i := 0; i < len(factors); i++ {
		for j := i + 1; j < len(factors); j++ {
			cells, ok := cellMeans(valid, factors[i], factors[j])
			if !ok {
				continue
			}
			result = append(result, InteractionEffect{
				Factor1:     factors[i].Name,
				Factor2:     factors[j].Name,
				Interaction: math.Abs(cells.Contrast()),
			})
		}
	}

	slices.SortStableFunc(result, func(a, b InteractionEffect) int {
		return cmp.Compare(b.Interaction, a.Interaction)
	})
	return result
}

func cellMeans(valid []Run, f1, f2 Factor) (CellMeans, bool) {
	low1, high1, ok1 := f1.Bounds()
	low2, high2, ok2 := f2.Bounds()
	if !ok1 || !ok2 {
		return CellMeans{}, false
	}

	cell := func(level1, level2 float64) (float64, bool) {
		var ys []float64
		for _, r := range valid {
			v1, ok1 := r.Factors[f1.Name]
			v2, ok2 := r.Factors[f2.Name]
			if ok1 && ok2 && v1 == level1 && v2 == level2 {
				ys = append(ys, *r.Output)
			}
		}
		if len(ys) == 0 {
			return 0, false
		}
		return stats.Mean(ys), true
	}

	c := CellMeans{
		Factor1: f1.Name,
		Factor2: f2.Name,
		Low1:    low1,
		High1:   high1,
		Low2:    low2,
		High2:   high2,
	}
	var okLL, okLH, okHL, okHH bool
	c.LL, okLL = cell(low1, low2)
	c.LH, okLH = cell(low1, high2)
	c.HL, okHL = cell(high1, low2)
	c.HH, okHH = cell(high1, high2)
	return c, okLL && okLH && okHL && okHH
}
