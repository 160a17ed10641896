package equation

import (
	"fmt"
	"strconv"
)

// SyntaxError is an expression that does not match the grammar.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid syntax at position %d: %s", e.Pos, e.Msg)
}

// UnclosedError is a '(' that never meets its ')'.
type UnclosedError struct {
	Pos int
}

func (e *UnclosedError) Error() string { return "'(' was never closed" }

type node interface {
	eval(env map[string]float64) (float64, error)
}

type (
	numberNode float64

	nameNode struct {
		name string
		pos  int
	}

	unaryNode struct {
		op byte
		x  node
	}

	binaryNode struct {
		op   tokenKind
		l, r node
	}

	callNode struct {
		name string
		pos  int
		args []node
	}
)

// Expr is a parsed expression.
type Expr struct {
	Source string
	root   node
}

// Parse compiles src. The grammar, lowest precedence first:
//
//	expr    = term { ("+" | "-") term }
//	term    = factor { ("*" | "/") factor }
//	factor  = ("+" | "-") factor | power
//	power   = primary [ "**" factor ]
//	primary = number | name [ "(" [ expr { "," expr } [","] ] ")" ] | "(" expr ")"
func Parse(src string) (*Expr, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return nil, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}
	root, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, unexpected(t)
	}
	return &Expr{Source: src, root: root}, nil
}

type parser struct {
	tokens []token
	pos    int
	// open holds the positions of unmatched '('.
	open []int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func unexpected(t token) error {
	return &SyntaxError{Pos: t.pos, Msg: "unexpected " + t.String()}
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokPlus || k == tokMinus; k = p.peek().kind {
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: k, l: left, r: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	for k := p.peek().kind; k == tokStar || k == tokSlash; k = p.peek().kind {
		p.next()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: k, l: left, r: right}
	}
	return left, nil
}

func (p *parser) factor() (node, error) {
	switch t := p.peek(); t.kind {
	case tokPlus, tokMinus:
		p.next()
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &unaryNode{op: t.text[0], x: x}, nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokPower {
		return base, nil
	}
	p.next()
	exp, err := p.factor()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: tokPower, l: base, r: exp}, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil && !isRange(err) {
			return nil, &SyntaxError{Pos: t.pos, Msg: "invalid number " + t.String()}
		}
		return numberNode(v), nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return &nameNode{name: t.text, pos: t.pos}, nil
		}
		open := p.next()
		args, err := p.args(open)
		if err != nil {
			return nil, err
		}
		return &callNode{name: t.text, pos: t.pos, args: args}, nil
	case tokLParen:
		p.open = append(p.open, t.pos)
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.closeParen(); err != nil {
			return nil, err
		}
		return x, nil
	case tokEOF:
		if n := len(p.open); n > 0 {
			return nil, &UnclosedError{Pos: p.open[n-1]}
		}
	}
	return nil, unexpected(t)
}

func (p *parser) args(open token) ([]node, error) {
	p.open = append(p.open, open.pos)
	var args []node
	for p.peek().kind != tokRParen {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if err := p.closeParen(); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) closeParen() error {
	t := p.next()
	switch t.kind {
	case tokRParen:
		p.open = p.open[:len(p.open)-1]
		return nil
	case tokEOF:
		return &UnclosedError{Pos: p.open[len(p.open)-1]}
	}
	return unexpected(t)
}
