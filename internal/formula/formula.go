// Package formula evaluates user-authored transfer functions such as
// "2*pressure + sqrt(temp)".
//
// Expressions are tokenized and parsed into a small tree that can only do
// arithmetic (+ - * / ^) and call a fixed whitelist of math functions
// (sin, cos, tan, sqrt, log, exp, pow, abs) over the supplied bindings.
// Variable names are matched case-insensitively.
package formula

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormula is returned when an expression cannot be parsed or references
// a symbol that is neither a binding nor a whitelisted function.
var ErrInvalidFormula = errors.New("invalid transfer function")

// MaxLength is the longest expression Compile accepts, in bytes.
const MaxLength = 10_000

// Program is a compiled transfer function. It is immutable and safe for concurrent use.
type Program struct {
	source string
	root   node
}

// Compile parses expr once so it can be evaluated against many binding sets.
func Compile(expr string) (*Program, error) {
	lowered := strings.ToLower(expr)
	if strings.TrimSpace(lowered) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidFormula)
	}
	if len(expr) > MaxLength {
		return nil, fmt.Errorf("%w: expression is %d bytes long, the limit is %d", ErrInvalidFormula, len(expr), MaxLength)
	}
	root, err := parse(lowered)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormula, err)
	}
	return &Program{source: expr, root: root}, nil
}

// String returns the expression as originally written.
func (p *Program) String() string { return p.source }

// Eval evaluates the program against bindings. Keys are matched case-insensitively.
// Division by zero yields ±Inf or NaN and is not an error.
func (p *Program) Eval(bindings map[string]float64) (float64, error) {
	env, err := normalize(bindings)
	if err != nil {
		return 0, err
	}
	return p.root.eval(env)
}

// Environment is a prepared, lowercased binding set for repeated evaluation.
type Environment struct {
	values map[string]float64
}

// NewEnvironment lowercases the binding keys, rejecting names that collide.
func NewEnvironment(bindings map[string]float64) (*Environment, error) {
	env, err := normalize(bindings)
	if err != nil {
		return nil, err
	}
	return &Environment{values: env}, nil
}

// Set updates the value of an existing or new binding.
func (e *Environment) Set(name string, value float64) {
	e.values[strings.ToLower(name)] = value
}

// EvalIn evaluates the program against a prepared environment.
func (p *Program) EvalIn(env *Environment) (float64, error) {
	return p.root.eval(env.values)
}

// Evaluate compiles and evaluates expr in one step.
func Evaluate(expr string, bindings map[string]float64) (float64, error) {
	p, err := Compile(expr)
	if err != nil {
		return 0, err
	}
	return p.Eval(bindings)
}

func normalize(bindings map[string]float64) (map[string]float64, error) {
	env := make(map[string]float64, len(bindings))
	seen := make(map[string]string, len(bindings))
	for k, v := range bindings {
		lk := strings.ToLower(k)
		if prev, ok := seen[lk]; ok {
			return nil, fmt.Errorf("%w: bindings %q and %q are ambiguous", ErrInvalidFormula, prev, k)
		}
		seen[lk] = k
		env[lk] = v
	}
	return env, nil
}
