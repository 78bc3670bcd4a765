package formula

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		bindings map[string]float64
		expected float64
	}{
		{"Simple", "x + y", map[string]float64{"x": 1, "y": 2}, 3},
		{"Grouping", "(x * y) / z", map[string]float64{"x": 2, "y": 3, "z": 4}, 1.5},
		{"Exponent", "x^2", map[string]float64{"x": 3}, 9},
		{"ExponentRightAssoc", "2^3^2", nil, 512},
		{"UnaryMinusBelowPower", "-x^2", map[string]float64{"x": 3}, -9},
		{"Precedence", "1 + 2 * 3 - 4 / 2", nil, 5},
		{"CaseInsensitive", "Pressure * 2 + TEMP", map[string]float64{"pressure": 10, "Temp": 1}, 21},
		{"Functions", "sqrt(x) + abs(-2) + pow(2, 3)", map[string]float64{"x": 16}, 14},
		{"NaturalLog", "log(exp(2))", nil, 2},
		{"Trig", "sin(0) + cos(0) + tan(0)", nil, 1},
		{"DecimalForms", ".5 + 1.5e1 + 2E-1", nil, 15.7},
		{"NegativeCoefficients", "-3.2500 + (1.5000 * A) + (-0.2500 * B)", map[string]float64{"A": 2, "B": 4}, -1.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, tt.bindings)
			if err != nil {
				t.Fatalf("Evaluate(%q) returned error: %v", tt.expr, err)
			}
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.expr, got, tt.expected)
			}
		})
	}
}

func TestEvaluate_InvalidFormula(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		bindings map[string]float64
	}{
		{"UnknownSymbol", "x + z", map[string]float64{"x": 1}},
		{"MissingOperand", "x / ", map[string]float64{"x": 1}},
		{"DanglingOperator", "* x", map[string]float64{"x": 1}},
		{"UnbalancedParen", "(x + 1", map[string]float64{"x": 1}},
		{"ExtraParen", "x + 1)", map[string]float64{"x": 1}},
		{"UnknownFunction", "max(x, 1)", map[string]float64{"x": 1}},
		{"WrongArity", "pow(x)", map[string]float64{"x": 1}},
		{"ImplicitMultiplication", "2x", map[string]float64{"x": 1}},
		{"Empty", "   ", nil},
		{"HostEscape", "process.exit(1)", nil},
		{"StringLiteral", "'a' + x", map[string]float64{"x": 1}},
		{"AmbiguousBindings", "x", map[string]float64{"x": 1, "X": 2}},
		{"BareFunctionName", "sqrt + 1", nil},
		{"DeepParentheses", strings.Repeat("(", 1_000_000) + "x" + strings.Repeat(")", 1_000_000), map[string]float64{"x": 1}},
		{"NestedPastLimit", strings.Repeat("(", 300) + "x" + strings.Repeat(")", 300), map[string]float64{"x": 1}},
		{"RepeatedSigns", strings.Repeat("-", 5000) + "x", map[string]float64{"x": 1}},
		{"NestedCalls", strings.Repeat("sqrt(", 300) + "x" + strings.Repeat(")", 300), map[string]float64{"x": 1}},
		{"PowerTower", "x" + strings.Repeat("^x", 300), map[string]float64{"x": 1}},
		{"TooLong", strings.Repeat("x+", MaxLength/2) + "x", map[string]float64{"x": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, tt.bindings)
			if err == nil {
				t.Fatalf("Evaluate(%q) expected error, got nil", tt.expr)
			}
			if !errors.Is(err, ErrInvalidFormula) {
				t.Errorf("Evaluate(%q) error = %v, want ErrInvalidFormula", tt.expr, err)
			}
		})
	}
}

func TestEvaluate_DivisionByZeroIsNumeric(t *testing.T) {
	got, err := Evaluate("x / y", map[string]float64{"x": 1, "y": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("expected +Inf, got %v", got)
	}

	got, err = Evaluate("x / y", map[string]float64{"x": 0, "y": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("expected NaN, got %v", got)
	}
}

func TestProgram_Reuse(t *testing.T) {
	p, err := Compile("a*10 + B")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	env, err := NewEnvironment(map[string]float64{"A": 0, "b": 0})
	if err != nil {
		t.Fatalf("NewEnvironment failed: %v", err)
	}
	for i := 1; i <= 3; i++ {
		env.Set("a", float64(i))
		env.Set("B", 1)
		got, err := p.EvalIn(env)
		if err != nil {
			t.Fatalf("EvalIn failed: %v", err)
		}
		if want := float64(i*10 + 1); got != want {
			t.Errorf("iteration %d: got %v, want %v", i, got, want)
		}
	}
	if p.String() != "a*10 + B" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Pressure", true},
		{"_x1", true},
		{"temp_2", true},
		{"", false},
		{"1abc", false},
		{"Pressure Drop", false},
		{"a-b", false},
	}
	for _, tt := range tests {
		if got := IsIdentifier(tt.name); got != tt.want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEvaluate_NestingWithinLimit(t *testing.T) {
	expr := strings.Repeat("(", 200) + "-x" + strings.Repeat(")", 200)
	got, err := Evaluate(expr, map[string]float64{"x": 2})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got != -2 {
		t.Errorf("Expected -2, got %v", got)
	}
}
