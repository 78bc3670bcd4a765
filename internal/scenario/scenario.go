// Package scenario reads and writes the YAML files used by the command line:
// study files (factors plus optional observed outputs) and simulation files
// (transfer function, inputs and specification limits).
//
// Files are checked against a JSON Schema inferred from the Go types before
// they are decoded, so unknown keys and wrong types are reported with their
// location instead of being silently ignored.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"sigma-mcp/internal/doe"
	"sigma-mcp/internal/simulation"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidFile is returned when a file does not match its schema.
var ErrInvalidFile = errors.New("invalid scenario file")

// FactorSpec is a factor as written in a study file.
type FactorSpec struct {
	Name   string    `json:"name" yaml:"name"`
	Levels []float64 `json:"levels" yaml:"levels"`
}

// StudyFile describes an experiment. Outputs, when present, are listed in
// design order and may contain nulls for runs not yet performed.
type StudyFile struct {
	Name    string       `json:"name,omitempty" yaml:"name,omitempty"`
	Factors []FactorSpec `json:"factors" yaml:"factors"`
	Outputs []*float64   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// DoeFactors converts the factor specs, assigning fresh ids.
func (f StudyFile) DoeFactors() []doe.Factor {
	factors := make([]doe.Factor, len(f.Factors))
	for i, spec := range f.Factors {
		factors[i] = doe.NewFactor(spec.Name, spec.Levels...)
	}
	return factors
}

// Runs generates the design and fills in the recorded outputs.
func (f StudyFile) Runs(factors []doe.Factor) ([]doe.Run, error) {
	if n := doe.RunCount(factors); len(f.Outputs) > 0 && len(f.Outputs) != n {
		return nil, fmt.Errorf("%w: %d outputs for a design of %d runs", ErrInvalidFile, len(f.Outputs), n)
	}
	runs := doe.Generate(factors)
	for i, y := range f.Outputs {
		runs = doe.SetOutput(runs, runs[i].ID, y)
	}
	return runs, nil
}

// VariableSpec is a normally distributed input as written in a simulation file.
type VariableSpec struct {
	Name   string  `json:"name" yaml:"name"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`
}

// SimulationFile describes one Monte Carlo capability run.
type SimulationFile struct {
	Formula    string         `json:"formula" yaml:"formula"`
	LSL        *float64       `json:"lsl,omitempty" yaml:"lsl,omitempty"`
	USL        *float64       `json:"usl,omitempty" yaml:"usl,omitempty"`
	Iterations int            `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Variables  []VariableSpec `json:"variables" yaml:"variables"`
}

// InputVariables converts the variable specs.
func (f SimulationFile) InputVariables() []simulation.InputVariable {
	vars := make([]simulation.InputVariable, len(f.Variables))
	for i, v := range f.Variables {
		vars[i] = simulation.InputVariable{Name: v.Name, Mean: v.Mean, StdDev: v.StdDev, Kind: "normal"}
	}
	return vars
}

// Config builds the simulation config, using defaultIterations when the file sets none.
func (f SimulationFile) Config(defaultIterations int) simulation.Config {
	iterations := f.Iterations
	if iterations <= 0 {
		iterations = defaultIterations
	}
	lsl, usl := simulation.SpecLimits(f.LSL, f.USL)
	return simulation.Config{LSL: lsl, USL: usl, Formula: f.Formula, Iterations: iterations}
}

// LoadStudy reads and validates a study file.
func LoadStudy(path string) (StudyFile, error) {
	return load[StudyFile](path)
}

// LoadSimulation reads and validates a simulation file.
func LoadSimulation(path string) (SimulationFile, error) {
	return load[SimulationFile](path)
}

// WriteStudy writes a study file as YAML.
func WriteStudy(path string, f StudyFile) error {
	return write(path, "study", f)
}

// WriteSimulation writes a simulation file as YAML.
func WriteSimulation(path string, f SimulationFile) error {
	return write(path, "simulation", f)
}

func write(path, kind string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return os.WriteFile(path, data, 0644)
}

func load[T any](path string) (T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := Decode[T](data)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// Decode validates YAML data against the schema of T and decodes it.
func Decode[T any](data []byte) (T, error) {
	var zero T

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if raw == nil {
		return zero, fmt.Errorf("%w: empty document", ErrInvalidFile)
	}

	// Round-trip through JSON so the instance carries JSON types (float64
	// numbers, map[string]any objects) as the validator expects.
	buf, err := json.Marshal(raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	var instance any
	if err := json.Unmarshal(buf, &instance); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return zero, fmt.Errorf("infer schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return zero, fmt.Errorf("resolve schema: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	var v T
	if err := json.Unmarshal(buf, &v); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return v, nil
}
