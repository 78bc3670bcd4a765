package main

import (
	"flag"
	"fmt"
	"os"

	"sigma-mcp/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "linear", "Scenario to generate: linear, interaction, noisy")
	factors := flag.Int("factors", 2, "Number of factors (1-6)")
	levels := flag.Int("levels", 2, "Levels per factor (2-4)")
	noise := flag.Float64("noise", 0.5, "Standard deviation of the measurement noise")
	seed := flag.Uint64("seed", 0, "Random seed (0 uses the clock)")
	outDir := flag.String("out", "./.cache", "Output directory for mock files")
	name := flag.String("name", "study", "Base name of the generated files")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Factors:  *factors,
		Levels:   *levels,
		Noise:    *noise,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Factors: %d, Levels: %d, Noise: %g) to %s...\n", cfg.Scenario, cfg.Factors, cfg.Levels, cfg.Noise, *outDir)

	g, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock study: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Save(*outDir, *name, g); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("True response: Y = %s\n", g.Truth)
	fmt.Println("Done.")
}
