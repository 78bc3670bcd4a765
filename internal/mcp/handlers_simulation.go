package mcp

import (
	"context"

	"sigma-mcp/internal/formula"
	"sigma-mcp/internal/simulation"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// EvaluationResult is the output of evaluate_formula.
type EvaluationResult struct {
	Formula string   `json:"formula"`
	Value   *float64 `json:"value"`
}

func (s *Server) handleEvaluateFormula(_ context.Context, _ *mcpsdk.CallToolRequest, in EvaluateFormulaInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	v, err := formula.Evaluate(in.Formula, in.Bindings)
	if err != nil {
		return errorResult(err)
	}
	n := &numbers{}
	return jsonResult(ToolOutput{
		Data:     EvaluationResult{Formula: in.Formula, Value: n.finite("value", v)},
		Warnings: n.warnings,
	})
}

func (s *Server) handleRunSimulation(ctx context.Context, _ *mcpsdk.CallToolRequest, in RunSimulationInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	vars := in.variables()
	if err := simulation.ValidateVariables(vars); err != nil {
		return errorResult(err)
	}
	bins, err := s.bins(in.Bins)
	if err != nil {
		return errorResult(err)
	}

	iterations := in.Iterations
	if iterations <= 0 {
		iterations = s.settings.Iterations
	}
	lsl, usl := simulation.SpecLimits(in.LSL, in.USL)
	cfg := simulation.Config{LSL: lsl, USL: usl, Formula: in.Formula, Iterations: iterations}

	res, err := s.engine.Run(ctx, vars, cfg)
	if err != nil {
		return errorResult(err)
	}

	view, warnings := newSimulationView(res, cfg, bins, s.settings.IncludeData)
	log.Info().Int("iterations", iterations).Int("defects", res.Defects).Msg("Simulation completed")
	return jsonResult(ToolOutput{Data: view, Warnings: warnings, Guidance: capabilityGuidance(res)})
}
