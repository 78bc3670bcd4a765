package commands

import (
	"fmt"
	"strconv"
	"strings"

	"sigma-mcp/internal/formula"

	"github.com/spf13/cobra"
)

// NewEvalCommand creates the command that evaluates a transfer function once.
func NewEvalCommand() *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate a transfer function with fixed variable values",
		Example: `  sigma-mcp eval "12.5 + (1.5 * Pressure) + (-0.25 * Temp)" --var Pressure=60 --var Temp=210
  sigma-mcp eval "sqrt(x^2 + y^2)" --var x=3 --var y=4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings, err := parseBindings(vars)
			if err != nil {
				return err
			}
			v, err := formula.Evaluate(args[0], bindings)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'g', -1, 64))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable binding as name=value (repeatable)")

	return cmd
}

func parseBindings(pairs []string) (map[string]float64, error) {
	bindings := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid binding %q: expected name=value", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		bindings[name] = v
	}
	return bindings, nil
}
