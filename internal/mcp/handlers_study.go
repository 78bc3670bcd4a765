package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/study"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// StudySummary is the short form of a study used by list_studies.
type StudySummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Factors  []string `json:"factors"`
	Runs     int      `json:"runs"`
	Observed int      `json:"observed"`
}

func summarize(st study.Study) StudySummary {
	names := make([]string, len(st.Factors))
	for i, f := range st.Factors {
		names[i] = f.Name
	}
	return StudySummary{
		ID:       st.ID,
		Name:     st.Name,
		Factors:  names,
		Runs:     len(st.Runs),
		Observed: len(doe.ValidRuns(st.Runs)),
	}
}

func progressGuidance(st study.Study) []string {
	observed := len(doe.ValidRuns(st.Runs))
	switch {
	case observed == 0:
		return []string{fmt.Sprintf("Run the %d experiments in the listed order and record each output with %s.", len(st.Runs), ToolRecordOutputs)}
	case observed < len(st.Runs):
		return []string{fmt.Sprintf("%d of %d runs have outputs. Effects can be estimated already, but missing corner runs drop factors or pairs from the analysis.", observed, len(st.Runs))}
	default:
		return []string{fmt.Sprintf("All runs have outputs. Use %s to rank the factors, then %s to check capability.", ToolAnalyzeEffects, ToolOptimizeStudy)}
	}
}

func (s *Server) handleCreateStudy(_ context.Context, _ *mcpsdk.CallToolRequest, in CreateStudyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(in.Factors) == 0 {
		return errorResult(errors.New("at least one factor is required"))
	}

	st, err := s.store.Create(in.Name, toFactors(in.Factors))
	if err != nil {
		return errorResult(err)
	}
	if in.LSL != nil || in.USL != nil {
		id := st.ID
		if st, err = s.store.SetLimits(id, in.LSL, in.USL); err != nil {
			_ = s.store.Delete(id)
			return errorResult(err)
		}
	}

	log.Info().Str("study", st.ID).Str("name", st.Name).Int("runs", len(st.Runs)).Msg("Study created")
	return jsonResult(ToolOutput{Data: st, Guidance: progressGuidance(st)})
}

func (s *Server) handleListStudies(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListStudiesInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	studies := s.store.List()
	out := make([]StudySummary, len(studies))
	for i, st := range studies {
		out[i] = summarize(st)
	}
	return jsonResult(ToolOutput{Data: out})
}

func (s *Server) handleGetStudy(_ context.Context, _ *mcpsdk.CallToolRequest, in StudyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	st, err := s.store.Get(in.StudyID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(ToolOutput{Data: st, Guidance: progressGuidance(st)})
}

func (s *Server) handleRegenerateDesign(_ context.Context, _ *mcpsdk.CallToolRequest, in RegenerateDesignInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(in.Factors) == 0 {
		return errorResult(errors.New("at least one factor is required"))
	}
	before, err := s.store.Get(in.StudyID)
	if err != nil {
		return errorResult(err)
	}

	st, err := s.store.Regenerate(in.StudyID, toFactors(in.Factors))
	if err != nil {
		return errorResult(err)
	}

	var warnings []string
	if dropped := len(doe.ValidRuns(before.Runs)); dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d recorded outputs were discarded with the previous design.", dropped))
	}
	log.Info().Str("study", st.ID).Int("runs", len(st.Runs)).Msg("Design regenerated")
	return jsonResult(ToolOutput{Data: st, Warnings: warnings, Guidance: progressGuidance(st)})
}

func (s *Server) handleRecordOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, in RecordOutputsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(in.Outputs) == 0 && in.Paste == "" {
		return errorResult(errors.New("provide 'outputs' or 'paste'"))
	}
	current, err := s.store.Get(in.StudyID)
	if err != nil {
		return errorResult(err)
	}

	known := make(map[int]bool, len(current.Runs))
	for _, r := range current.Runs {
		known[r.ID] = true
	}
	for _, o := range in.Outputs {
		if !known[o.RunID] {
			return errorResult(fmt.Errorf("run %d does not exist (study has runs 1-%d)", o.RunID, len(current.Runs)))
		}
	}

	start := in.StartRunID
	if start == 0 {
		start = 1
	}
	var warnings []string
	if in.Paste != "" {
		if !known[start] {
			return errorResult(fmt.Errorf("start run %d does not exist (study has runs 1-%d)", start, len(current.Runs)))
		}
		warnings = pasteWarnings(doe.ParseOutputs(in.Paste), start, len(current.Runs))
	}

	st, err := s.store.UpdateRuns(in.StudyID, func(runs []doe.Run) []doe.Run {
		for _, o := range in.Outputs {
			runs = doe.SetOutput(runs, o.RunID, o.Y)
		}
		if in.Paste != "" {
			runs = doe.PasteOutputs(runs, start, in.Paste)
		}
		return runs
	})
	if err != nil {
		return errorResult(err)
	}

	log.Debug().Str("study", st.ID).Int("observed", len(doe.ValidRuns(st.Runs))).Msg("Outputs recorded")
	return jsonResult(ToolOutput{Data: st, Warnings: warnings, Guidance: progressGuidance(st)})
}

// pasteWarnings reports pasted lines that will not be applied.
func pasteWarnings(values []float64, start, runCount int) []string {
	var warnings []string
	invalid := 0
	for _, v := range values {
		if math.IsNaN(v) {
			invalid++
		}
	}
	if invalid > 0 {
		warnings = append(warnings, fmt.Sprintf("%d pasted lines are not numbers and were skipped.", invalid))
	}
	if overflow := start - 1 + len(values) - runCount; overflow > 0 {
		warnings = append(warnings, fmt.Sprintf("%d pasted values go past the last run and were ignored.", overflow))
	}
	return warnings
}

func (s *Server) handleDeleteStudy(_ context.Context, _ *mcpsdk.CallToolRequest, in StudyInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := s.store.Delete(in.StudyID); err != nil {
		return errorResult(err)
	}
	log.Info().Str("study", in.StudyID).Msg("Study deleted")
	return jsonResult(ToolOutput{Data: map[string]string{"deleted": in.StudyID}})
}
