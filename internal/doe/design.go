package doe

// MaxRuns is the largest full-factorial design ValidateFactors accepts.
const MaxRuns = 100_000

// Generate enumerates the full-factorial design: the Cartesian product of every
// factor's levels, in factor order with the last factor varying fastest. Run ids
// start at 1 and follow enumeration order; outputs start unobserved. Factors
// are expected to have passed ValidateFactors; a design above MaxRuns yields no
// runs.
func Generate(factors []Factor) []Run {
	total, ok := runCount(factors)
	if !ok || total == 0 {
		return []Run{}
	}

	runs := make([]Run, 0, total)
	idx := make([]int, len(factors))
	for n := 0; n < total; n++ {
		settings := make(map[string]float64, len(factors))
		for i, f := range factors {
			settings[f.Name] = f.Levels[idx[i]]
		}
		runs = append(runs, Run{ID: n + 1, Factors: settings})

		// Odometer increment, rightmost factor first.
		for i := len(factors) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(factors[i].Levels) {
				break
			}
			idx[i] = 0
		}
	}
	return runs
}

// RunCount returns the number of runs Generate would produce, or -1 when the
// product of level counts exceeds MaxRuns.
func RunCount(factors []Factor) int {
	total, ok := runCount(factors)
	if !ok {
		return -1
	}
	return total
}

// runCount multiplies the level counts, stopping before the product can
// overflow. ok is false past MaxRuns.
func runCount(factors []Factor) (int, bool) {
	if len(factors) == 0 {
		return 0, true
	}
	total := 1
	for _, f := range factors {
		n := len(f.Levels)
		if n == 0 {
			return 0, true
		}
		if total > MaxRuns/n {
			return 0, false
		}
		total *= n
	}
	return total, true
}
