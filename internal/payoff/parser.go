package payoff

import (
	"fmt"

	perrors "option-pricer/internal/errors"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 256

type parser struct {
	expression string
	tokens     []token
	pos        int
	depth      int
}

func parse(expression string) (Node, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, err
	}

	p := &parser{expression: expression, tokens: tokens}
	if p.peek().kind == tokenEOF {
		return nil, perrors.NewParseError(expression, 0, "", "empty expression")
	}

	node, err := p.expr()
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.kind {
	case tokenEOF:
		return node, nil
	case tokenRParen:
		return nil, p.errorAt(tok, "unmatched parenthesis")
	default:
		return nil, p.errorAt(tok, "unexpected trailing token")
	}
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(tok token, message string) error {
	return perrors.NewParseError(p.expression, tok.pos, tok.text, message)
}

// expr := term (("+"|"-") term)*
func (p *parser) expr() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.errorAt(p.peek(), "expression nested too deeply")
	}

	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenPlus && tok.kind != tokenMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text[0], left: left, right: right}
	}
}

// term := power (("*"|"/") power)*
func (p *parser) term() (Node, error) {
	left, err := p.power()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenStar && tok.kind != tokenSlash {
			return left, nil
		}
		p.next()
		right, err := p.power()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: tok.text[0], left: left, right: right}
	}
}

// power := unary ("^" power)?
func (p *parser) power() (Node, error) {
	base, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenCaret {
		return base, nil
	}
	p.next()

	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.errorAt(p.peek(), "expression nested too deeply")
	}

	exp, err := p.power()
	if err != nil {
		return nil, err
	}
	return &binaryNode{op: '^', left: base, right: exp}, nil
}

// unary := "-" unary | primary
func (p *parser) unary() (Node, error) {
	if p.peek().kind != tokenMinus {
		return p.primary()
	}
	p.next()

	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, p.errorAt(p.peek(), "expression nested too deeply")
	}

	operand, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &unaryNode{operand: operand}, nil
}

// primary := number | identifier | identifier "(" arglist? ")" | "(" expr ")"
func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		return numberNode{value: tok.value}, nil
	case tokenIdent:
		return p.identifier(tok)
	case tokenLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.closeParen(tok); err != nil {
			return nil, err
		}
		return inner, nil
	case tokenEOF:
		return nil, p.errorAt(tok, "unexpected end of expression")
	default:
		return nil, p.errorAt(tok, "unexpected token")
	}
}

func (p *parser) identifier(tok token) (Node, error) {
	if variables[tok.text] {
		if p.peek().kind == tokenLParen {
			return nil, p.errorAt(tok, "terminal price is not a function")
		}
		return variableNode{}, nil
	}

	b, ok := builtins[tok.text]
	if !ok {
		return nil, p.errorAt(tok, "unknown identifier")
	}
	if p.peek().kind != tokenLParen {
		return nil, p.errorAt(tok, fmt.Sprintf("function %s must be called", tok.text))
	}
	open := p.next()

	var args []Node
	if p.peek().kind != tokenRParen {
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokenComma {
				break
			}
			p.next()
		}
	}
	if err := p.closeParen(open); err != nil {
		return nil, err
	}

	if len(args) != b.arity {
		return nil, p.errorAt(tok, fmt.Sprintf("%s expects %d argument(s), got %d", tok.text, b.arity, len(args)))
	}
	return &callNode{name: tok.text, fn: b.fn, args: args}, nil
}

// closeParen consumes the ")" matching open.
func (p *parser) closeParen(open token) error {
	switch tok := p.peek(); tok.kind {
	case tokenRParen:
		p.next()
		return nil
	case tokenEOF:
		return p.errorAt(open, "unmatched parenthesis")
	default:
		return p.errorAt(tok, fmt.Sprintf("expected ')' but found %s", tok.kind))
	}
}
