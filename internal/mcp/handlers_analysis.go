package mcp

import (
	"context"
	"errors"
	"fmt"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/simulation"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// InteractionReport is an interaction magnitude together with the corner means
// needed to draw its interaction plot.
type InteractionReport struct {
	doe.InteractionEffect
	Cells doe.CellMeans `json:"cells"`
}

// FittedRun compares the model prediction of one run with its observed output.
type FittedRun struct {
	RunID     int      `json:"runId"`
	Observed  *float64 `json:"observed"`
	Predicted float64  `json:"predicted"`
	Residual  *float64 `json:"residual"`
}

func fittedRuns(m doe.Model, runs []doe.Run) []FittedRun {
	out := make([]FittedRun, len(runs))
	for i, r := range runs {
		f := FittedRun{RunID: r.ID, Observed: r.Output, Predicted: m.Predict(r.Factors)}
		if r.Output != nil {
			res := *r.Output - f.Predicted
			f.Residual = &res
		}
		out[i] = f
	}
	return out
}

// EffectsReport is the output of analyze_effects.
type EffectsReport struct {
	Runs              int                 `json:"runs"`
	Observed          int                 `json:"observed"`
	MainEffects       []doe.MainEffect    `json:"mainEffects"`
	Interactions      []InteractionReport `json:"interactions"`
	RegressionFormula string              `json:"regressionFormula,omitempty"`
	Model             *doe.Model          `json:"model,omitempty"`
	Fitted            []FittedRun         `json:"fitted,omitempty"`
}

func (s *Server) handleAnalyzeEffects(_ context.Context, _ *mcpsdk.CallToolRequest, in StudyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	st, err := s.store.Get(in.StudyID)
	if err != nil {
		return errorResult(err)
	}

	report := EffectsReport{
		Runs:         len(st.Runs),
		Observed:     len(doe.ValidRuns(st.Runs)),
		MainEffects:  doe.MainEffects(st.Runs, st.Factors),
		Interactions: []InteractionReport{},
	}
	if report.Observed == 0 {
		return jsonResult(ToolOutput{
			Data:     report,
			Guidance: []string{fmt.Sprintf("No run has an output yet. Record results with %s first.", ToolRecordOutputs)},
		})
	}

	byName := make(map[string]doe.Factor, len(st.Factors))
	for _, f := range st.Factors {
		byName[f.Name] = f
	}
	for _, ie := range doe.Interactions(st.Runs, st.Factors) {
		cells, _ := doe.InteractionCells(st.Runs, byName[ie.Factor1], byName[ie.Factor2])
		report.Interactions = append(report.Interactions, InteractionReport{InteractionEffect: ie, Cells: cells})
	}

	if m, ok := doe.Fit(st.Runs, st.Factors); ok {
		report.Model = &m
		report.RegressionFormula = m.Formula()
		report.Fitted = fittedRuns(m, st.Runs)
	}

	var warnings []string
	estimated := make(map[string]bool, len(report.MainEffects))
	for _, e := range report.MainEffects {
		estimated[e.Factor] = true
	}
	for _, f := range st.Factors {
		if !estimated[f.Name] {
			warnings = append(warnings, fmt.Sprintf("No effect for %s: its lowest or highest level has no recorded output.", f.Name))
		}
	}

	var guidance []string
	if len(report.MainEffects) > 0 {
		top := report.MainEffects[0]
		guidance = append(guidance, fmt.Sprintf("%s has the largest effect (%.4g per unit, %.4g across its range).", top.Factor, top.Slope, top.Effect))
	}
	if len(report.Interactions) > 0 && len(report.MainEffects) > 0 && report.Interactions[0].Interaction > 0.5*report.MainEffects[0].Effect {
		ie := report.Interactions[0]
		guidance = append(guidance, fmt.Sprintf("The %s x %s interaction is strong compared with the main effects; the additive regression formula may not describe the process well.", ie.Factor1, ie.Factor2))
	}
	if report.RegressionFormula != "" {
		guidance = append(guidance, fmt.Sprintf("Use %s to simulate the capability of this model under operating tolerances.", ToolOptimizeStudy))
	}

	return jsonResult(ToolOutput{Data: report, Warnings: warnings, Guidance: guidance})
}

// OptimizationReport is the output of optimize_study.
type OptimizationReport struct {
	Formula    string                          `json:"formula"`
	Variables  []simulation.InputVariable      `json:"variables"`
	Tolerances map[string]simulation.Tolerance `json:"tolerances"`
	Simulation SimulationView                  `json:"simulation"`
}

func (s *Server) handleOptimizeStudy(ctx context.Context, _ *mcpsdk.CallToolRequest, in OptimizeStudyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	bins, err := s.bins(in.Bins)
	if err != nil {
		return errorResult(err)
	}
	st, err := s.store.Get(in.StudyID)
	if err != nil {
		return errorResult(err)
	}

	if tol := in.tolerances(); tol != nil {
		if st, err = s.store.SetTolerances(in.StudyID, tol); err != nil {
			return errorResult(err)
		}
	}
	if in.LSL != nil || in.USL != nil {
		lsl, usl := st.LSL, st.USL
		if in.LSL != nil {
			lsl = in.LSL
		}
		if in.USL != nil {
			usl = in.USL
		}
		if st, err = s.store.SetLimits(in.StudyID, lsl, usl); err != nil {
			return errorResult(err)
		}
	}

	iterations := in.Iterations
	if iterations <= 0 {
		iterations = s.settings.Iterations
	}
	lsl, usl := simulation.SpecLimits(st.LSL, st.USL)

	opt, err := s.engine.Optimize(ctx, st.Runs, st.Factors, st.Tolerances, lsl, usl, iterations)
	if err != nil {
		if errors.Is(err, simulation.ErrNoModel) {
			return errorResult(fmt.Errorf("%w: record outputs with %s first", err, ToolRecordOutputs))
		}
		return errorResult(err)
	}

	cfg := simulation.Config{LSL: lsl, USL: usl, Formula: opt.Formula, Iterations: iterations}
	view, warnings := newSimulationView(opt.Result, cfg, bins, s.settings.IncludeData)
	if st.LSL == nil && st.USL == nil {
		warnings = append(warnings, "The study has no specification limits, so capability indices are not meaningful.")
	}

	log.Info().Str("study", st.ID).Int("iterations", iterations).Float64("dpmo", opt.Result.DPMO).Msg("Study optimized")
	return jsonResult(ToolOutput{
		Data: OptimizationReport{
			Formula:    opt.Formula,
			Variables:  opt.Variables,
			Tolerances: st.Tolerances,
			Simulation: view,
		},
		Warnings: warnings,
		Guidance: capabilityGuidance(opt.Result),
	})
}

// bins resolves the histogram bin count of a request.
func (s *Server) bins(requested int) (int, error) {
	if requested > simulation.MaxBinCount {
		return 0, fmt.Errorf("bins must be at most %d, got %d", simulation.MaxBinCount, requested)
	}
	if requested > 0 {
		return requested, nil
	}
	return s.settings.HistogramBins, nil
}
