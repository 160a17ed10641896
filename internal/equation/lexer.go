package equation

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPower
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int // byte offset into the source
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return "'" + t.text + "'"
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

// tokenize splits src into tokens. Whitespace, including line breaks, only
// separates tokens.
func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			end, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokNumber, text: src[start:end], pos: start})
			i = end
		case isIdentStart(c):
			start := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
		case c == '*' && strings.HasPrefix(src[i:], "**"):
			tokens = append(tokens, token{kind: tokPower, text: "**", pos: i})
			i += 2
		default:
			kind, ok := punct[c]
			if !ok {
				return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("invalid character '%c'", c)}
			}
			tokens = append(tokens, token{kind: kind, text: string(c), pos: i})
			i++
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(src)}), nil
}

var punct = map[byte]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
}

// scanNumber accepts 12, 1.5, 1., .5 and an optional exponent.
func scanNumber(src string, i int) (int, error) {
	start := i
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}
	if i < len(src) && (isIdentPart(src[i]) || src[i] == '.') {
		return 0, &SyntaxError{Pos: start, Msg: "invalid decimal literal"}
	}
	return i, nil
}
