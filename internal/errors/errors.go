// Package errors provides custom error types for pricing and payoff errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrLex           = errors.New("lex error")
	ErrParse         = errors.New("parse error")
	ErrValidation    = errors.New("validation error")
	ErrMathDomain    = errors.New("math domain error")
	ErrConfigInvalid = errors.New("invalid configuration")
)

// Validation reasons. A ValidationError carries one of these as its Reason
// so callers can match with Is.
var (
	ErrNonPositive   = errors.New("must be positive")
	ErrNegative      = errors.New("must not be negative")
	ErrOutOfRange    = errors.New("out of range")
	ErrNotGreater    = errors.New("must exceed the compared value")
	ErrInvalidChoice = errors.New("invalid choice")
	ErrRequired      = errors.New("is required")
)

// LexError reports a character the payoff tokenizer does not recognise.
type LexError struct {
	Expression string
	Position   int
	Char       rune
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at position %d in %q: unexpected character %q", e.Position, e.Expression, e.Char)
}

// Unwrap reports a lex failure as a parse failure as well, since both
// mean the expression did not compile.
func (e *LexError) Unwrap() []error {
	return []error{ErrLex, ErrParse}
}

// NewLexError creates a new LexError.
func NewLexError(expression string, position int, char rune) *LexError {
	return &LexError{
		Expression: expression,
		Position:   position,
		Char:       char,
	}
}

// ParseError represents a grammar violation in a payoff expression.
type ParseError struct {
	Expression string
	Position   int
	Token      string
	Message    string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error at position %d in %q: %s", e.Position, e.Expression, e.Message)
	}
	return fmt.Sprintf("parse error at position %d in %q: %s (near %q)", e.Position, e.Expression, e.Message, e.Token)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// NewParseError creates a new ParseError.
func NewParseError(expression string, position int, token, message string) *ParseError {
	return &ParseError{
		Expression: expression,
		Position:   position,
		Token:      token,
		Message:    message,
	}
}

// ValidationError represents an out-of-domain pricing parameter.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %v", e.Field, e.Value, e.Reason)
}

// Unwrap exposes both the reason and ErrValidation to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Reason}
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, reason error) *ValidationError {
	return &ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// MathDomainError reports a payoff function applied outside its domain.
type MathDomainError struct {
	Operation string
	Input     []float64
}

func (e *MathDomainError) Error() string {
	return fmt.Sprintf("math domain error: %s%v", e.Operation, e.Input)
}

func (e *MathDomainError) Unwrap() error {
	return ErrMathDomain
}

// NewMathDomainError creates a new MathDomainError.
func NewMathDomainError(operation string, input ...float64) *MathDomainError {
	return &MathDomainError{
		Operation: operation,
		Input:     input,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
