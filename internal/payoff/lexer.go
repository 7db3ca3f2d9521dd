package payoff

import (
	"strconv"
	"unicode/utf8"

	perrors "option-pricer/internal/errors"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenCaret
	tokenLParen
	tokenRParen
	tokenComma
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of expression"
	case tokenNumber:
		return "number"
	case tokenIdent:
		return "identifier"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenComma:
		return "','"
	default:
		return "operator"
	}
}

// token is a lexeme with its byte offset in the source expression.
type token struct {
	kind  tokenKind
	text  string
	pos   int
	value float64
}

var punctuation = map[byte]tokenKind{
	'+': tokenPlus,
	'-': tokenMinus,
	'*': tokenStar,
	'/': tokenSlash,
	'^': tokenCaret,
	'(': tokenLParen,
	')': tokenRParen,
	',': tokenComma,
}

// tokenize splits expression into tokens. The returned slice always ends
// with a tokenEOF positioned at len(expression).
func tokenize(expression string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expression) {
		c := expression[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(expression) && isDigit(expression[i+1])):
			tok, next, err := scanNumber(expression, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isIdentStart(c):
			start := i
			for i < len(expression) && isIdentPart(expression[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: expression[start:i], pos: start})
		default:
			kind, ok := punctuation[c]
			if !ok {
				r, _ := utf8.DecodeRuneInString(expression[i:])
				return nil, perrors.NewLexError(expression, i, r)
			}
			tokens = append(tokens, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	return append(tokens, token{kind: tokenEOF, pos: len(expression)}), nil
}

// scanNumber reads digits[.digits][(e|E)[+|-]digits] starting at start.
func scanNumber(expression string, start int) (token, int, error) {
	i := start
	for i < len(expression) && isDigit(expression[i]) {
		i++
	}
	if i < len(expression) && expression[i] == '.' {
		i++
		for i < len(expression) && isDigit(expression[i]) {
			i++
		}
	}
	if i < len(expression) && (expression[i] == 'e' || expression[i] == 'E') {
		j := i + 1
		if j < len(expression) && (expression[j] == '+' || expression[j] == '-') {
			j++
		}
		if j < len(expression) && isDigit(expression[j]) {
			for j < len(expression) && isDigit(expression[j]) {
				j++
			}
			i = j
		}
	}

	text := expression[start:i]
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, perrors.NewParseError(expression, start, text, "invalid number literal")
	}
	return token{kind: tokenNumber, text: text, pos: start, value: value}, i, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
