package simulation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultIterations is the number of Monte Carlo draws used when the caller does not choose one.
const DefaultIterations = 5000

// ErrInvalidConfig is returned when a simulation cannot start because of its configuration.
var ErrInvalidConfig = errors.New("invalid simulation config")

// InputVariable is a normally distributed input of the transfer function.
type InputVariable struct {
	ID     string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string  `json:"name" yaml:"name" validate:"required"`
	Mean   float64 `json:"mean" yaml:"mean" validate:"finite"`
	StdDev float64 `json:"stdDev" yaml:"stdDev" validate:"finite,gte=0"`
	Kind   string  `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=normal"`
}

// Config controls one simulation. LSL and USL may be -Inf and +Inf for a
// one-sided or unbounded specification.
type Config struct {
	LSL        float64
	USL        float64
	Formula    string
	Iterations int
}

// Result is the outcome of one simulation. It is never modified after construction.
type Result struct {
	Data       []float64 `json:"data"`
	Mean       float64   `json:"mean"`
	StdDev     float64   `json:"stdDev"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Cp         float64   `json:"cp"`
	Cpk        float64   `json:"cpk"`
	Cpu        float64   `json:"cpu"`
	Cpl        float64   `json:"cpl"`
	SigmaLevel float64   `json:"sigmaLevel"`
	DPMO       float64   `json:"dpmo"`
	Defects    int       `json:"defects"`
	Iterations int       `json:"iterations"`
	Timestamp  time.Time `json:"timestamp"`
}

// SpecLimits turns optional bounds into the limits used by Config. A missing
// lower bound becomes -Inf and a missing upper bound +Inf.
func SpecLimits(lsl, usl *float64) (float64, float64) {
	lo, hi := math.Inf(-1), math.Inf(1)
	if lsl != nil {
		lo = *lsl
	}
	if usl != nil {
		hi = *usl
	}
	return lo, hi
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// ValidateVariables checks that every variable has a name, a finite mean and a
// finite, non-negative standard deviation.
func ValidateVariables(vars []InputVariable) error {
	for i, v := range vars {
		if err := validate.Struct(v); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return fmt.Errorf("%w: variable %d (%q): %s failed %s", ErrInvalidConfig, i+1, v.Name, verrs[0].Field(), verrs[0].Tag())
			}
			return fmt.Errorf("%w: variable %d (%q): %w", ErrInvalidConfig, i+1, v.Name, err)
		}
	}
	return nil
}
