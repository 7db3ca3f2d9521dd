package payoff

import (
	"math"
	"strconv"
	"strings"

	perrors "option-pricer/internal/errors"
)

// Node is an immutable payoff syntax tree node. Evaluation never mutates
// the tree, so one tree may be evaluated from many goroutines.
type Node interface {
	eval(s float64) (float64, error)
	String() string
}

type numberNode struct {
	value float64
}

func (n numberNode) eval(float64) (float64, error) {
	return n.value, nil
}

func (n numberNode) String() string {
	return strconv.FormatFloat(n.value, 'g', -1, 64)
}

// variableNode is the terminal price, whichever alias the source used.
type variableNode struct{}

func (variableNode) eval(s float64) (float64, error) {
	return s, nil
}

func (variableNode) String() string {
	return "s"
}

type unaryNode struct {
	operand Node
}

func (n *unaryNode) eval(s float64) (float64, error) {
	v, err := n.operand.eval(s)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n *unaryNode) String() string {
	return "(-" + n.operand.String() + ")"
}

type binaryNode struct {
	op          byte
	left, right Node
}

func (n *binaryNode) eval(s float64) (float64, error) {
	l, err := n.left.eval(s)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(s)
	if err != nil {
		return 0, err
	}

	var v float64
	switch n.op {
	case '+':
		v = l + r
	case '-':
		v = l - r
	case '*':
		v = l * r
	case '/':
		if r == 0 {
			return 0, perrors.NewMathDomainError("divide", l, r)
		}
		v = l / r
	case '^':
		return power(l, r)
	}
	if math.IsNaN(v) {
		return 0, perrors.NewMathDomainError(string(n.op), l, r)
	}
	return v, nil
}

func (n *binaryNode) String() string {
	return "(" + n.left.String() + " " + string(n.op) + " " + n.right.String() + ")"
}

// power pins the edge conventions instead of inheriting them from math.Pow:
// 0^0 is 1, 0 raised to a negative power and any NaN result are domain
// errors.
func power(base, exp float64) (float64, error) {
	if base == 0 && exp == 0 {
		return 1, nil
	}
	if base == 0 && exp < 0 {
		return 0, perrors.NewMathDomainError("pow", base, exp)
	}
	v := math.Pow(base, exp)
	if math.IsNaN(v) {
		return 0, perrors.NewMathDomainError("pow", base, exp)
	}
	return v, nil
}

type function int

const (
	fnExp function = iota
	fnSqrt
	fnLog
	fnAbs
	fnMax
	fnMin
)

type builtin struct {
	fn    function
	arity int
}

// builtins is the complete set of callable names.
var builtins = map[string]builtin{
	"exp":  {fnExp, 1},
	"sqrt": {fnSqrt, 1},
	"log":  {fnLog, 1},
	"abs":  {fnAbs, 1},
	"max":  {fnMax, 2},
	"min":  {fnMin, 2},
}

// variables are the accepted spellings of the terminal price.
var variables = map[string]bool{
	"s":   true,
	"S":   true,
	"S_T": true,
}

type callNode struct {
	name string
	fn   function
	args []Node
}

func (n *callNode) eval(s float64) (float64, error) {
	x, err := n.args[0].eval(s)
	if err != nil {
		return 0, err
	}

	switch n.fn {
	case fnExp:
		return math.Exp(x), nil
	case fnSqrt:
		if x < 0 {
			return 0, perrors.NewMathDomainError("sqrt", x)
		}
		return math.Sqrt(x), nil
	case fnLog:
		if x <= 0 {
			return 0, perrors.NewMathDomainError("log", x)
		}
		return math.Log(x), nil
	case fnAbs:
		return math.Abs(x), nil
	}

	y, err := n.args[1].eval(s)
	if err != nil {
		return 0, err
	}
	if n.fn == fnMax {
		if y > x {
			return y, nil
		}
		return x, nil
	}
	if y < x {
		return y, nil
	}
	return x, nil
}

func (n *callNode) String() string {
	parts := make([]string, len(n.args))
	for i, a := range n.args {
		parts[i] = a.String()
	}
	return n.name + "(" + strings.Join(parts, ", ") + ")"
}
