// Package doe implements full-factorial experiment design and the analysis of
// its observed outputs: main effects, two-factor interactions and the additive
// regression formula used as a transfer function for capability simulation.
//
// Every function is pure: inputs are never mutated and results are new values.
package doe

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"sigma-mcp/internal/formula"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrInvalidFactor is returned by ValidateFactors when a factor definition cannot be used.
var ErrInvalidFactor = errors.New("invalid factor")

// Factor is a controllable input with its discrete experimental levels.
type Factor struct {
	ID     string    `json:"id" yaml:"id,omitempty"`
	Name   string    `json:"name" yaml:"name" validate:"required,identifier"`
	Levels []float64 `json:"levels" yaml:"levels" validate:"min=2,max=4,dive,finite"`
}

// NewFactor creates a factor with a fresh stable id.
func NewFactor(name string, levels ...float64) Factor {
	return Factor{
		ID:     uuid.NewString(),
		Name:   name,
		Levels: slices.Clone(levels),
	}
}

// Bounds returns the numerically smallest and largest levels. Levels need not
// be sorted as entered. ok is false for a factor without levels.
func (f Factor) Bounds() (low, high float64, ok bool) {
	if len(f.Levels) == 0 {
		return 0, 0, false
	}
	sorted := slices.Clone(f.Levels)
	slices.Sort(sorted)
	return sorted[0], sorted[len(sorted)-1], true
}

// Run is one row of the design matrix.
type Run struct {
	ID      int                `json:"id"`
	Factors map[string]float64 `json:"factors"`
	Output  *float64           `json:"y"`
}

// HasOutput reports whether an output has been observed for the run.
func (r Run) HasOutput() bool { return r.Output != nil }

// ValidRuns returns the runs that carry an observed output, in order.
func ValidRuns(runs []Run) []Run {
	valid := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.HasOutput() {
			valid = append(valid, r)
		}
	}
	return valid
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return formula.IsIdentifier(fl.Field().String())
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// ValidateFactors checks that the factors can be enumerated and referenced from a
// formula: names are identifiers, unique ignoring case, each factor has 2 to 4
// finite levels and the design has at most MaxRuns runs.
func ValidateFactors(factors []Factor) error {
	seen := make(map[string]string, len(factors))
	for i, f := range factors {
		if err := validate.Struct(f); err != nil {
			return fmt.Errorf("%w: factor %d (%q): %s", ErrInvalidFactor, i+1, f.Name, describe(err))
		}
		key := strings.ToLower(f.Name)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: factor names %q and %q collide", ErrInvalidFactor, prev, f.Name)
		}
		seen[key] = f.Name
	}
	if _, ok := runCount(factors); !ok {
		return fmt.Errorf("%w: the design would have more than %d runs", ErrInvalidFactor, MaxRuns)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "identifier":
			msgs = append(msgs, fmt.Sprintf("%s must start with a letter or underscore and contain only letters, digits and underscores", fe.Field()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must have between 2 and 4 entries", fe.Field()))
		case "finite":
			msgs = append(msgs, fmt.Sprintf("%s must be finite numbers", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
