// Package engine synthesizes experiment studies with a known transfer
// function so the analysis tools can be exercised against ground truth.
package engine

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/formula"
	"sigma-mcp/internal/scenario"
	"sigma-mcp/internal/simulation"
)

// Scenarios lists the supported generator scenarios.
var Scenarios = []string{"linear", "interaction", "noisy"}

type factorTemplate struct {
	name      string
	low, high float64
	coef      float64
}

var templates = []factorTemplate{
	{"Pressure", 40, 60, 2},
	{"Temp", 200, 250, 0.1},
	{"Speed", 10, 30, -0.5},
	{"Time", 5, 15, 1.2},
	{"Feed", 0.1, 0.3, 25},
	{"Gap", 1, 3, 0},
}

const intercept = 20.0

type GeneratorConfig struct {
	Scenario string
	Factors  int     // 1 to len(templates)
	Levels   int     // 2 to 4
	Noise    float64 // standard deviation of the measurement noise
	Seed     uint64  // 0 seeds from the clock
}

// Generated is a synthetic study together with the function that produced it.
type Generated struct {
	Study      scenario.StudyFile
	Simulation scenario.SimulationFile
	Truth      string
}

// Generate builds the design for cfg and fills every run with the true
// response plus normal noise.
func Generate(cfg GeneratorConfig) (Generated, error) {
	if cfg.Factors < 1 || cfg.Factors > len(templates) {
		return Generated{}, fmt.Errorf("factors must be between 1 and %d, got %d", len(templates), cfg.Factors)
	}
	if cfg.Levels < 2 || cfg.Levels > 4 {
		return Generated{}, fmt.Errorf("levels must be between 2 and 4, got %d", cfg.Levels)
	}
	if cfg.Noise < 0 {
		return Generated{}, fmt.Errorf("noise must not be negative, got %g", cfg.Noise)
	}

	noise := cfg.Noise
	used := templates[:cfg.Factors]
	terms := []string{fmt.Sprintf("%g", intercept)}
	for _, t := range used {
		terms = append(terms, fmt.Sprintf("%g * %s", t.coef, t.name))
	}
	switch cfg.Scenario {
	case "linear":
	case "interaction":
		if cfg.Factors < 2 {
			return Generated{}, fmt.Errorf("the interaction scenario needs at least 2 factors")
		}
		// Centre both factors so the cross term shifts slopes rather than the mean.
		a, b := used[0], used[1]
		terms = append(terms, fmt.Sprintf("0.05 * (%s - %g) * (%s - %g)", a.name, (a.low+a.high)/2, b.name, (b.low+b.high)/2))
	case "noisy":
		noise *= 5
	default:
		return Generated{}, fmt.Errorf("unknown scenario %q (expected one of %s)", cfg.Scenario, strings.Join(Scenarios, ", "))
	}
	truth := strings.Join(terms, " + ")
	prog, err := formula.Compile(truth)
	if err != nil {
		return Generated{}, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.New(rand.NewPCG(seed, 0))

	specs := make([]scenario.FactorSpec, len(used))
	factors := make([]doe.Factor, len(used))
	vars := make([]scenario.VariableSpec, len(used))
	for i, t := range used {
		levels := make([]float64, cfg.Levels)
		step := (t.high - t.low) / float64(cfg.Levels-1)
		for j := range levels {
			levels[j] = t.low + float64(j)*step
		}
		specs[i] = scenario.FactorSpec{Name: t.name, Levels: levels}
		factors[i] = doe.NewFactor(t.name, levels...)
		vars[i] = scenario.VariableSpec{Name: t.name, Mean: (t.low + t.high) / 2, StdDev: (t.high - t.low) / 12}
	}

	runs := doe.Generate(factors)
	outputs := make([]*float64, len(runs))
	var sum float64
	for i, r := range runs {
		y, err := prog.Eval(r.Factors)
		if err != nil {
			return Generated{}, err
		}
		sum += y
		y = simulation.Normal(src, y, noise)
		outputs[i] = &y
	}

	// Specification limits at +/-15% of the mean true response.
	center := sum / float64(len(runs))
	lsl, usl := center*0.85, center*1.15
	if lsl > usl {
		lsl, usl = usl, lsl
	}

	return Generated{
		Study: scenario.StudyFile{
			Name:    fmt.Sprintf("mock %s (%d factors, %d levels)", cfg.Scenario, cfg.Factors, cfg.Levels),
			Factors: specs,
			Outputs: outputs,
		},
		Simulation: scenario.SimulationFile{
			Formula:   truth,
			LSL:       &lsl,
			USL:       &usl,
			Variables: vars,
		},
		Truth: truth,
	}, nil
}

// Save writes <name>.yaml (the study) and <name>_simulation.yaml (the true
// transfer function with operating tolerances) into outDir.
func Save(outDir, name string, g Generated) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := scenario.WriteStudy(filepath.Join(outDir, name+".yaml"), g.Study); err != nil {
		return err
	}
	return scenario.WriteSimulation(filepath.Join(outDir, name+"_simulation.yaml"), g.Simulation)
}
