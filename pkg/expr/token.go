// Package expr implements the infix-to-postfix translator: a lexer for
// integer arithmetic, the operator table, a bounded operator stack and the
// shunting-yard translator itself, plus a small evaluator used to check
// translations.
package expr

import (
	"strconv"
	"strings"
)

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenNumber   TokenType = iota // integer literal
	TokenOperator                  // + - * / ^
	TokenLParen                    // (
	TokenRParen                    // )
	TokenEOF                       // end of line, end of stream or unrecognized character
)

// EndOfStream is the Stop rune of an EOF token produced by an exhausted
// character source.
const EndOfStream rune = -1

// Token represents a single lexical token. Tokens are plain values.
type Token struct {
	Type   TokenType
	Op     OpKind // for TokenOperator
	IntVal int64  // for TokenNumber
	Pos    int    // rune offset within the line
	Stop   rune   // for TokenEOF: the rune that ended the token stream
}

// NumberToken returns a number token with no position.
func NumberToken(v int64) Token {
	return Token{Type: TokenNumber, IntVal: v}
}

// OperatorToken returns an operator token with no position.
func OperatorToken(op OpKind) Token {
	return Token{Type: TokenOperator, Op: op}
}

// String returns the output form of the token: the decimal value for
// numbers and the symbolic name for operators.
func (t Token) String() string {
	switch t.Type {
	case TokenNumber:
		return strconv.FormatInt(t.IntVal, 10)
	case TokenOperator:
		return t.Op.String()
	default:
		return t.Type.String()
	}
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "NUMBER"
	case TokenOperator:
		return "OPERATOR"
	case TokenLParen:
		return "LPR"
	case TokenRParen:
		return "RPR"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// FormatTokens joins the output forms of tokens with single spaces.
func FormatTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// TokenStrings returns the output form of each token.
func TokenStrings(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}
