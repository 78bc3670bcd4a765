package simulation

import (
	"math"
	"math/rand/v2"
)

// Uniform is a source of uniform draws in [0, 1). *rand.Rand satisfies it.
type Uniform interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Normal draws one value from N(mean, stdDev²) with the Box-Muller transform.
// Zero uniform draws are rejected so the logarithm stays finite.
func Normal(src Uniform, mean, stdDev float64) float64 {
	u := src.Float64()
	for u == 0 {
		u = src.Float64()
	}
	v := src.Float64()
	for v == 0 {
		v = src.Float64()
	}
	z := math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
	return z*stdDev + mean
}

// NormalRandom is Normal over the shared process-wide source.
func NormalRandom(mean, stdDev float64) float64 {
	return Normal(globalSource{}, mean, stdDev)
}
