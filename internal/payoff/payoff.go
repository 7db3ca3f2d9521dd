// Package payoff compiles user supplied payoff expressions such as
// "max(s - 100, 0)" into functions of the terminal price.
//
// Expressions are parsed into a small syntax tree over number literals,
// the terminal price (spelled s, S or S_T), the operators + - * / ^ and
// the functions exp, sqrt, log, abs, max and min. Nothing outside that set
// can be named, so an expression can never reach code or data beyond its
// single input.
package payoff

import (
	"strings"
)

// Compiled is a parsed payoff expression. It is immutable and safe for
// concurrent use.
type Compiled struct {
	expression string
	root       Node
}

// Compile parses expression. Failures are *errors.LexError or
// *errors.ParseError and never yield a partial tree.
func Compile(expression string) (*Compiled, error) {
	root, err := parse(expression)
	if err != nil {
		return nil, err
	}
	return &Compiled{expression: expression, root: root}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expression string) *Compiled {
	c, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return c
}

// Evaluate computes the payoff at terminalPrice. The only error is
// *errors.MathDomainError.
func (c *Compiled) Evaluate(terminalPrice float64) (float64, error) {
	return c.root.eval(terminalPrice)
}

// Value implements montecarlo.Payoff.
func (c *Compiled) Value(terminalPrice float64) (float64, error) {
	return c.root.eval(terminalPrice)
}

// Expression returns the source text, trimmed.
func (c *Compiled) Expression() string {
	return strings.TrimSpace(c.expression)
}

// String renders the tree fully parenthesised. The result compiles back to
// an equivalent tree.
func (c *Compiled) String() string {
	return c.root.String()
}

// Func adapts an ordinary function to the payoff capability.
type Func func(terminalPrice float64) (float64, error)

// Value calls f.
func (f Func) Value(terminalPrice float64) (float64, error) {
	return f(terminalPrice)
}
