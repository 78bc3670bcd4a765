package formula

import (
	"fmt"
	"math"
)

// node is one element of a parsed transfer function.
type node interface {
	eval(env map[string]float64) (float64, error)
}

type numberNode struct {
	value float64
}

func (n numberNode) eval(map[string]float64) (float64, error) { return n.value, nil }

type varNode struct {
	name string
	pos  int
}

func (n varNode) eval(env map[string]float64) (float64, error) {
	v, ok := env[n.name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown symbol %q at position %d", ErrInvalidFormula, n.name, n.pos)
	}
	return v, nil
}

type unaryNode struct {
	op      byte
	operand node
}

func (n unaryNode) eval(env map[string]float64) (float64, error) {
	v, err := n.operand.eval(env)
	if err != nil {
		return 0, err
	}
	if n.op == '-' {
		return -v, nil
	}
	return v, nil
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n binaryNode) eval(env map[string]float64) (float64, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(env)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		return l / r, nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFormula, n.op)
}

type callNode struct {
	fn   function
	args []node
}

func (n callNode) eval(env map[string]float64) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(env)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return n.fn.apply(vals), nil
}

// function is an entry of the fixed math whitelist.
type function struct {
	name  string
	arity int
	apply func(args []float64) float64
}

func unary(name string, f func(float64) float64) function {
	return function{name: name, arity: 1, apply: func(a []float64) float64 { return f(a[0]) }}
}

var functions = map[string]function{
	"sin":  unary("sin", math.Sin),
	"cos":  unary("cos", math.Cos),
	"tan":  unary("tan", math.Tan),
	"sqrt": unary("sqrt", math.Sqrt),
	"log":  unary("log", math.Log),
	"exp":  unary("exp", math.Exp),
	"abs":  unary("abs", math.Abs),
	"pow":  {name: "pow", arity: 2, apply: func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
}
