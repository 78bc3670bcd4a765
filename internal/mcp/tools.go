package mcp

import (
	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/simulation"
)

// Tool name constants.
const (
	ToolCreateStudy      = "create_study"
	ToolListStudies      = "list_studies"
	ToolGetStudy         = "get_study"
	ToolRegenerateDesign = "regenerate_design"
	ToolRecordOutputs    = "record_outputs"
	ToolAnalyzeEffects   = "analyze_effects"
	ToolEvaluateFormula  = "evaluate_formula"
	ToolRunSimulation    = "run_simulation"
	ToolOptimizeStudy    = "optimize_study"
	ToolDeleteStudy      = "delete_study"
)

const (
	createStudyDescription = "Create a Design of Experiments study. Each factor needs an identifier-style name and 2 to 4 numeric levels. " +
		"Returns the full-factorial run matrix (last factor varies fastest) with empty outputs to be filled in with record_outputs."
	listStudiesDescription      = "List the studies of this session with their size and how many runs have observed outputs."
	getStudyDescription         = "Get a study with its factors, runs, recorded outputs, specification limits and optimizer tolerances."
	regenerateDesignDescription = "Replace the factors of a study and regenerate its run matrix. All previously recorded outputs are discarded."
	recordOutputsDescription    = "Record observed outputs for runs of a study. Either pass 'outputs' as run_id/y pairs (y null clears a value), " +
		"or pass 'paste' with one value per line (as copied from a spreadsheet column) written into consecutive runs from 'start_run_id'."
	analyzeEffectsDescription = "Analyze the recorded outputs of a study: main effects ranked by magnitude (Pareto), two-factor interactions " +
		"with their corner means (interaction plot), the additive regression formula usable as a transfer function, " +
		"and the fitted value and residual of every run."
	evaluateFormulaDescription = "Evaluate a transfer function such as '2*x + sqrt(y)' for the given variable values. " +
		"Supports + - * / ^, parentheses and sin cos tan sqrt log exp abs pow. Variable names are case-insensitive."
	runSimulationDescription = "Run a Monte Carlo capability simulation: draw each normally distributed input, evaluate the transfer function " +
		"and compare the output with the specification limits. Returns mean, standard deviation, Cp, Cpk, sigma level, DPMO and a histogram."
	optimizeStudyDescription = "Simulate the capability of a study's regression model under operating tolerances per factor. " +
		"Each tolerance window is treated as +/-3 standard deviations around its centre. Limits and tolerances passed here are saved on the study."
	deleteStudyDescription = "Delete a study from this session."
)

// FactorInput describes one factor of a study.
type FactorInput struct {
	Name   string    `json:"name" jsonschema:"factor name, also used as the variable name in formulas (letters, digits, underscores)"`
	Levels []float64 `json:"levels" jsonschema:"2 to 4 numeric levels to test"`
}

func toFactors(in []FactorInput) []doe.Factor {
	factors := make([]doe.Factor, len(in))
	for i, f := range in {
		factors[i] = doe.NewFactor(f.Name, f.Levels...)
	}
	return factors
}

// CreateStudyInput is the input schema for the create_study tool.
type CreateStudyInput struct {
	Name    string        `json:"name,omitempty" jsonschema:"optional descriptive name"`
	Factors []FactorInput `json:"factors" jsonschema:"controllable inputs of the experiment"`
	LSL     *float64      `json:"lsl,omitempty" jsonschema:"optional lower specification limit of the output"`
	USL     *float64      `json:"usl,omitempty" jsonschema:"optional upper specification limit of the output"`
}

// StudyInput identifies a study.
type StudyInput struct {
	StudyID string `json:"study_id" jsonschema:"id returned by create_study"`
}

// ListStudiesInput is the input schema for the list_studies tool.
type ListStudiesInput struct{}

// RegenerateDesignInput is the input schema for the regenerate_design tool.
type RegenerateDesignInput struct {
	StudyID string        `json:"study_id" jsonschema:"id returned by create_study"`
	Factors []FactorInput `json:"factors" jsonschema:"new factor definitions"`
}

// OutputEntry sets or clears the output of one run.
type OutputEntry struct {
	RunID int      `json:"run_id" jsonschema:"run id from the design matrix"`
	Y     *float64 `json:"y" jsonschema:"observed output, or null to clear"`
}

// RecordOutputsInput is the input schema for the record_outputs tool.
type RecordOutputsInput struct {
	StudyID    string        `json:"study_id" jsonschema:"id returned by create_study"`
	Outputs    []OutputEntry `json:"outputs,omitempty" jsonschema:"outputs per run id"`
	Paste      string        `json:"paste,omitempty" jsonschema:"newline-separated values; blank lines are skipped, non-numeric lines leave their run untouched"`
	StartRunID int           `json:"start_run_id,omitempty" jsonschema:"run id receiving the first pasted value (default 1)"`
}

// EvaluateFormulaInput is the input schema for the evaluate_formula tool.
type EvaluateFormulaInput struct {
	Formula  string             `json:"formula" jsonschema:"transfer function, e.g. 2*pressure + 0.5*temp"`
	Bindings map[string]float64 `json:"bindings,omitempty" jsonschema:"variable values by name"`
}

// VariableInput is a normally distributed simulation input.
type VariableInput struct {
	Name   string  `json:"name" jsonschema:"variable name as used in the formula"`
	Mean   float64 `json:"mean" jsonschema:"mean of the input"`
	StdDev float64 `json:"std_dev" jsonschema:"standard deviation of the input (0 for a fixed value)"`
}

// RunSimulationInput is the input schema for the run_simulation tool.
type RunSimulationInput struct {
	Formula    string          `json:"formula" jsonschema:"transfer function Y = f(X)"`
	Variables  []VariableInput `json:"variables" jsonschema:"inputs of the transfer function"`
	LSL        *float64        `json:"lsl,omitempty" jsonschema:"lower specification limit (omit for none)"`
	USL        *float64        `json:"usl,omitempty" jsonschema:"upper specification limit (omit for none)"`
	Iterations int             `json:"iterations,omitempty" jsonschema:"number of Monte Carlo draws (default 5000)"`
	Bins       int             `json:"bins,omitempty" jsonschema:"histogram bin count (default 20, at most 200)"`
}

func (in RunSimulationInput) variables() []simulation.InputVariable {
	vars := make([]simulation.InputVariable, len(in.Variables))
	for i, v := range in.Variables {
		vars[i] = simulation.InputVariable{Name: v.Name, Mean: v.Mean, StdDev: v.StdDev, Kind: "normal"}
	}
	return vars
}

// ToleranceInput is the operating window of one factor.
type ToleranceInput struct {
	Lower  float64  `json:"lower" jsonschema:"lower operating limit"`
	Upper  float64  `json:"upper" jsonschema:"upper operating limit"`
	Target *float64 `json:"target,omitempty" jsonschema:"informational target setting saved with the window (default: its centre); the simulated input is always centred on the window"`
}

// OptimizeStudyInput is the input schema for the optimize_study tool.
type OptimizeStudyInput struct {
	StudyID    string                    `json:"study_id" jsonschema:"id returned by create_study"`
	LSL        *float64                  `json:"lsl,omitempty" jsonschema:"lower specification limit; saved on the study"`
	USL        *float64                  `json:"usl,omitempty" jsonschema:"upper specification limit; saved on the study"`
	Tolerances map[string]ToleranceInput `json:"tolerances,omitempty" jsonschema:"operating windows by factor name; factors left out keep their saved or default window"`
	Iterations int                       `json:"iterations,omitempty" jsonschema:"number of Monte Carlo draws (default 5000)"`
	Bins       int                       `json:"bins,omitempty" jsonschema:"histogram bin count (default 20, at most 200)"`
}

func (in OptimizeStudyInput) tolerances() map[string]simulation.Tolerance {
	if len(in.Tolerances) == 0 {
		return nil
	}
	out := make(map[string]simulation.Tolerance, len(in.Tolerances))
	for name, t := range in.Tolerances {
		target := (t.Lower + t.Upper) / 2
		if t.Target != nil {
			target = *t.Target
		}
		out[name] = simulation.Tolerance{Target: target, Lower: t.Lower, Upper: t.Upper}
	}
	return out
}
