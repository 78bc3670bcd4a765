package doe

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// ParseOutputs splits pasted text into one value per non-blank line. Lines that do
// not hold a finite number are kept as NaN gaps so later lines stay aligned with
// their runs.
func ParseOutputs(text string) []float64 {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	values := make([]float64, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil || math.IsInf(v, 0) {
			v = math.NaN()
		}
		values = append(values, v)
	}
	return values
}

// PasteOutputs writes the values parsed from text into consecutive runs, starting
// at the run with id startID. Gaps and values past the last run are ignored. An
// unknown startID leaves the runs unchanged. The input slice is not modified.
func PasteOutputs(runs []Run, startID int, text string) []Run {
	out := slices.Clone(runs)
	start := slices.IndexFunc(out, func(r Run) bool { return r.ID == startID })
	if start < 0 {
		return out
	}

	for i, v := range ParseOutputs(text) {
		idx := start + i
		if idx >= len(out) {
			break
		}
		if math.IsNaN(v) {
			continue
		}
		out[idx].Output = &v
	}
	return out
}

// SetOutput sets the output of the run with the given id, or clears it when value
// is nil. The input slice is not modified.
func SetOutput(runs []Run, id int, value *float64) []Run {
	out := slices.Clone(runs)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		if value == nil {
			out[i].Output = nil
		} else {
			v := *value
			out[i].Output = &v
		}
	}
	return out
}
