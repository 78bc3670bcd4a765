package commands

import (
	"fmt"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/scenario"

	"github.com/spf13/cobra"
)

// NewDesignCommand creates the command that prints a full factorial design
// and, once outputs are recorded, its effect analysis.
func NewDesignCommand() *cobra.Command {
	var (
		file     string
		template string
	)

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Generate and analyze a full factorial design from a study file",
		Long: `Read a study file (factors with two to four levels, optionally the observed
outputs in run order) and print the design matrix.

When outputs are present the main effects, the two-factor interactions and the
fitted regression formula are printed as well. --template writes the study back
with one null output per run, ready to be filled in.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			study, err := scenario.LoadStudy(file)
			if err != nil {
				return err
			}

			factors := study.DoeFactors()
			if err := doe.ValidateFactors(factors); err != nil {
				return err
			}
			runs, err := study.Runs(factors)
			if err != nil {
				return err
			}

			if template != "" {
				if len(study.Outputs) == 0 {
					study.Outputs = make([]*float64, len(runs))
				}
				if err := scenario.WriteStudy(template, study); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			renderDesign(out, factors, runs)

			if len(doe.ValidRuns(runs)) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			renderEffects(out, doe.MainEffects(runs, factors), doe.Interactions(runs, factors))
			if formula, ok := doe.RegressionFormula(runs, factors); ok {
				fmt.Fprintf(out, "\nY = %s\n", formula)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "study file (YAML)")
	cmd.Flags().StringVar(&template, "template", "", "write the study with empty outputs to this path")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
