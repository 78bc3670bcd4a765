package formula

import "fmt"

// parser is a recursive-descent parser over the fixed transfer-function grammar:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/') unary)*
//	unary   := ('+' | '-') unary | power
//	power   := primary ('^' unary)?
//	primary := number | ident | ident '(' expr (',' expr)* ')' | '(' expr ')'
type parser struct {
	tokens []token
	pos    int
	depth  int
}

// maxDepth bounds the nesting of parentheses, calls and prefix signs.
const maxDepth = 256

// enter records one more level of nesting and fails past maxDepth. Callers
// pair it with leave.
func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return fmt.Errorf("expression nested deeper than %d levels at position %d", maxDepth, p.peek().pos)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func parse(src string) (node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s %q at position %d", t.kind, t.text, t.pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOperator(ops string) (byte, bool) {
	t := p.peek()
	if t.kind != tokOperator {
		return 0, false
	}
	for i := 0; i < len(ops); i++ {
		if t.text[0] == ops[i] {
			return ops[i], true
		}
	}
	return 0, false
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOperator("+-")
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOperator("*/")
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	if op, ok := p.isOperator("+-"); ok {
		p.next()
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}
	return p.power()
}

// power binds tighter than unary minus on its left and is right associative,
// so -x^2 is -(x^2) and 2^3^2 is 2^(3^2).
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if _, ok := p.isOperator("^"); !ok {
		return base, nil
	}
	p.next()
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return binaryNode{op: '^', left: base, right: exp}, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberNode{value: t.value}, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		return varNode{name: t.text, pos: t.pos}, nil
	case tokLParen:
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	}
	return nil, fmt.Errorf("unexpected %s %q at position %d", t.kind, t.text, t.pos)
}

func (p *parser) call(name token) (node, error) {
	fn, ok := functions[name.text]
	if !ok {
		return nil, fmt.Errorf("unknown function %q at position %d", name.text, name.pos)
	}
	p.next() // '('
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	if len(args) != fn.arity {
		return nil, fmt.Errorf("function %s expects %d argument(s), got %d", fn.name, fn.arity, len(args))
	}
	return callNode{fn: fn, args: args}, nil
}

func (p *parser) expect(kind tokenKind) error {
	t := p.next()
	if t.kind != kind {
		if t.kind == tokEOF {
			return fmt.Errorf("expected %s, got end of expression", kind)
		}
		return fmt.Errorf("expected %s, got %q at position %d", kind, t.text, t.pos)
	}
	return nil
}
