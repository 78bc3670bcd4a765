package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"sigma-mcp/internal/simulation"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolOutput is the structured envelope every tool returns.
type ToolOutput struct {
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
	Guidance []string `json:"guidance,omitempty"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with the JSON-encoded envelope as text content.
func jsonResult(out ToolOutput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, out, nil
}

// numbers collects the warnings raised while converting floats for JSON, which
// cannot carry NaN or ±Inf.
type numbers struct {
	warnings []string
}

// finite returns v, or nil with a warning naming field when v is not finite.
func (n *numbers) finite(field string, v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		n.warnings = append(n.warnings, fmt.Sprintf("%s is not a finite number (%v) and is reported as null", field, v))
		return nil
	}
	return &v
}

// SimulationView is the JSON rendering of a simulation result. Non-finite
// statistics, such as the capability indices of a zero-spread output, are null.
type SimulationView struct {
	Mean       *float64                  `json:"mean"`
	StdDev     *float64                  `json:"stdDev"`
	Min        *float64                  `json:"min"`
	Max        *float64                  `json:"max"`
	Cp         *float64                  `json:"cp"`
	Cpk        *float64                  `json:"cpk"`
	Cpu        *float64                  `json:"cpu"`
	Cpl        *float64                  `json:"cpl"`
	SigmaLevel *float64                  `json:"sigmaLevel"`
	DPMO       float64                   `json:"dpmo"`
	Defects    int                       `json:"defects"`
	Iterations int                       `json:"iterations"`
	LSL        *float64                  `json:"lsl"`
	USL        *float64                  `json:"usl"`
	Timestamp  time.Time                 `json:"timestamp"`
	Histogram  []simulation.HistogramBin `json:"histogram"`
	Data       []*float64                `json:"data,omitempty"`
}

func newSimulationView(res *simulation.Result, cfg simulation.Config, bins int, includeData bool) (SimulationView, []string) {
	n := &numbers{}
	v := SimulationView{
		Mean:       n.finite("mean", res.Mean),
		StdDev:     n.finite("stdDev", res.StdDev),
		Min:        n.finite("min", res.Min),
		Max:        n.finite("max", res.Max),
		Cp:         n.finite("cp", res.Cp),
		Cpk:        n.finite("cpk", res.Cpk),
		Cpu:        n.finite("cpu", res.Cpu),
		Cpl:        n.finite("cpl", res.Cpl),
		SigmaLevel: n.finite("sigmaLevel", res.SigmaLevel),
		DPMO:       res.DPMO,
		Defects:    res.Defects,
		Iterations: res.Iterations,
		LSL:        limit(cfg.LSL),
		USL:        limit(cfg.USL),
		Timestamp:  res.Timestamp,
		Histogram:  simulation.NewHistogram(res.Data, bins),
	}

	if includeData {
		v.Data = make([]*float64, len(res.Data))
		skipped := 0
		for i, y := range res.Data {
			if math.IsNaN(y) || math.IsInf(y, 0) {
				skipped++
				continue
			}
			v.Data[i] = &y
		}
		if skipped > 0 {
			n.warnings = append(n.warnings, fmt.Sprintf("%d simulated values are not finite and are reported as null", skipped))
		}
	}
	return v, n.warnings
}

// limit renders an unbounded specification limit as null.
func limit(v float64) *float64 {
	if math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// capabilityGuidance interprets the result for the caller.
func capabilityGuidance(res *simulation.Result) []string {
	var g []string
	switch {
	case math.IsNaN(res.Cpk):
		g = append(g, "Capability indices are undefined: the simulated output has no measurable spread or too few iterations.")
	case math.IsInf(res.Cpk, 1):
		g = append(g, "The simulated output has zero spread. Add variation to the inputs for a meaningful capability estimate.")
	case res.Cpk >= 1.33:
		g = append(g, fmt.Sprintf("Cpk %.2f: the process is capable (Cpk >= 1.33).", res.Cpk))
	case res.Cpk >= 1:
		g = append(g, fmt.Sprintf("Cpk %.2f: marginally capable. Tighten input tolerances or re-centre the process.", res.Cpk))
	default:
		g = append(g, fmt.Sprintf("Cpk %.2f: not capable. Expect about %.0f defects per million.", res.Cpk, res.DPMO))
	}
	if !math.IsNaN(res.Cpu) && !math.IsNaN(res.Cpl) && math.Abs(res.Cpu-res.Cpl) > 0.25*math.Max(math.Abs(res.Cpu), math.Abs(res.Cpl)) {
		side := "upper"
		if res.Cpl < res.Cpu {
			side = "lower"
		}
		g = append(g, fmt.Sprintf("The output is off-centre, closer to the %s specification limit.", side))
	}
	return g
}
