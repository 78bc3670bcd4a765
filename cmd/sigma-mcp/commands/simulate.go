package commands

import (
	"fmt"

	"sigma-mcp/internal/scenario"
	"sigma-mcp/internal/simulation"

	"github.com/spf13/cobra"
)

// NewSimulateCommand creates the Monte Carlo capability command.
func NewSimulateCommand() *cobra.Command {
	var (
		file       string
		iterations int
		bins       int
		seed       uint64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a Monte Carlo capability simulation from a simulation file",
		Long: `Read a simulation file (transfer function, normally distributed inputs and
optional specification limits), draw the configured number of iterations and
print the capability indices and the output distribution.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if bins > simulation.MaxBinCount {
				return fmt.Errorf("--bins must be at most %d, got %d", simulation.MaxBinCount, bins)
			}
			sim, err := scenario.LoadSimulation(file)
			if err != nil {
				return err
			}

			settings := simulationSettings()
			vars := sim.InputVariables()
			if err := simulation.ValidateVariables(vars); err != nil {
				return err
			}
			simCfg := sim.Config(settings.Iterations)
			if iterations > 0 {
				simCfg.Iterations = iterations
			}
			runSeed := seed
			if runSeed == 0 {
				runSeed = settings.Seed
			}
			binCount := bins
			if binCount <= 0 {
				binCount = settings.HistogramBins
			}

			engine := simulation.NewEngine(settings.Workers, runSeed)
			engine.MaxIterations = settings.MaxIterations
			res, err := engine.Run(cmd.Context(), vars, simCfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			renderCapability(out, *res, simCfg)
			fmt.Fprintln(out)
			renderHistogram(out, simulation.NewHistogram(res.Data, binCount))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "simulation file (YAML)")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 0, "override the number of iterations")
	cmd.Flags().IntVar(&bins, "bins", 0, "histogram bins (default from HISTOGRAM_BINS)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible runs (0 uses SIM_SEED or the clock)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
