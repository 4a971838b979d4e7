package tool

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrEmptyExpression = errors.New("expression is empty")
	ErrDivisionByZero  = errors.New("division by zero")
)

// Evaluate parses expression into an AST and evaluates it. Only numeric
// literals, arithmetic operators, the whitelisted constants and functions
// are accepted.
func Evaluate(expression string) (float64, error) {
	node, err := Parse(expression)
	if err != nil {
		return 0, err
	}
	value, err := node.Eval()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) {
		return 0, errors.New("math domain error")
	}
	return value, nil
}

// FormatResult renders value with the shortest exact decimal form.
func FormatResult(value float64) string {
	switch {
	case math.IsInf(value, 1):
		return "inf"
	case math.IsInf(value, -1):
		return "-inf"
	}
	if value == 0 {
		return "0"
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func Parse(expression string) (Node, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, ErrEmptyExpression
	}

	p := &mathParser{input: expression}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.hasNext() {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.peek(), p.pos)
	}
	return node, nil
}

type mathParser struct {
	input string
	pos   int
}

// expr  := term (('+' | '-') term)*
// term  := unary (('*' | '/' | '%') unary)*
// unary := ('+' | '-') unary | power
// power := primary (('^' | '**') unary)?
func (p *mathParser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: OpAdd, Left: left, Right: right}
		case p.match('-'):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: OpSub, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *mathParser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('*'):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: OpMul, Left: left, Right: right}
		case p.match('/'):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: OpDiv, Left: left, Right: right}
		case p.match('%'):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: OpMod, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *mathParser) parsePower() (Node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	p.skipSpaces()
	if p.matchString("**") || p.match('^') {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Binary{Op: OpPow, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *mathParser) parseUnary() (Node, error) {
	p.skipSpaces()
	if p.match('+') {
		return p.parseUnary()
	}
	if p.match('-') {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Negate{Operand: operand}, nil
	}
	return p.parsePower()
}

func (p *mathParser) parsePrimary() (Node, error) {
	p.skipSpaces()
	if p.match('(') {
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if !p.match(')') {
			return nil, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		return node, nil
	}
	if p.hasNext() && isIdentStart(p.peek()) {
		return p.parseIdentifier()
	}
	return p.parseNumber()
}

func (p *mathParser) parseIdentifier() (Node, error) {
	start := p.pos
	for p.hasNext() && isIdentPart(p.peek()) {
		p.pos++
	}
	name := strings.ToLower(p.input[start:p.pos])

	p.skipSpaces()
	if !p.match('(') {
		value, ok := constants[name]
		if !ok {
			return nil, fmt.Errorf("name %q is not defined", name)
		}
		return Number{Value: value}, nil
	}

	fn, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("function %q is not allowed", name)
	}

	var args []Node
	p.skipSpaces()
	if !p.match(')') {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			p.skipSpaces()
			if p.match(',') {
				continue
			}
			if p.match(')') {
				break
			}
			return nil, fmt.Errorf("expected ',' or ')' at position %d", p.pos)
		}
	}

	if err := fn.checkArity(name, len(args)); err != nil {
		return nil, err
	}
	return Call{Name: name, Args: args}, nil
}

func (p *mathParser) parseNumber() (Node, error) {
	p.skipSpaces()
	start := p.pos
	hasDigit := false
	hasDot := false

	for p.hasNext() {
		ch := p.peek()
		switch {
		case ch >= '0' && ch <= '9':
			hasDigit = true
			p.pos++
		case ch == '.':
			if hasDot {
				return nil, fmt.Errorf("invalid number format at position %d", p.pos)
			}
			hasDot = true
			p.pos++
		default:
			goto done
		}
	}

done:
	if !hasDigit {
		if p.hasNext() {
			return nil, fmt.Errorf("unexpected token %q at position %d", p.peek(), start)
		}
		return nil, fmt.Errorf("expected number at position %d", start)
	}

	// optional exponent: 1e3, 2.5E-4
	if p.hasNext() && (p.peek() == 'e' || p.peek() == 'E') {
		save := p.pos
		p.pos++
		if p.hasNext() && (p.peek() == '+' || p.peek() == '-') {
			p.pos++
		}
		digits := 0
		for p.hasNext() && p.peek() >= '0' && p.peek() <= '9' {
			p.pos++
			digits++
		}
		if digits == 0 {
			p.pos = save
		}
	}

	raw := p.input[start:p.pos]
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return Number{Value: value}, nil
}

func (p *mathParser) skipSpaces() {
	for p.hasNext() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *mathParser) hasNext() bool {
	return p.pos < len(p.input)
}

func (p *mathParser) peek() byte {
	return p.input[p.pos]
}

func (p *mathParser) match(expected byte) bool {
	if p.hasNext() && p.peek() == expected {
		p.pos++
		return true
	}
	return false
}

func (p *mathParser) matchString(expected string) bool {
	if strings.HasPrefix(p.input[p.pos:], expected) {
		p.pos += len(expected)
		return true
	}
	return false
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
