// Package types holds the error values shared by the translator, the
// evaluator and the API layers.
package types

import (
	"errors"
	"fmt"
)

// Diagnostic is printed in place of (or after) the postfix output of a
// malformed line.
const Diagnostic = "MALFORMED EQ"

// Error kind constants.
const (
	KindUnbalancedCloseParen  = "UnbalancedCloseParen"
	KindUnbalancedOpenParen   = "UnbalancedOpenParen"
	KindUnrecognizedCharacter = "UnrecognizedCharacter"
	KindCapacityExceeded      = "CapacityExceeded"
	KindNumberOutOfRange      = "NumberOutOfRange"
	KindZeroDivisionError     = "ZeroDivisionError"
	KindValueError            = "ValueError"
	KindMalformedPostfix      = "MalformedPostfix"
)

var knownKinds = map[string]bool{
	KindUnbalancedCloseParen:  true,
	KindUnbalancedOpenParen:   true,
	KindUnrecognizedCharacter: true,
	KindCapacityExceeded:      true,
	KindNumberOutOfRange:      true,
	KindZeroDivisionError:     true,
	KindValueError:            true,
	KindMalformedPostfix:      true,
}

// IsKnownKind reports whether kind names one of the error kinds above.
func IsKnownKind(kind string) bool {
	return knownKinds[kind]
}

// ExprError is a line-local error raised while translating or evaluating an
// expression. Pos is the zero-based rune offset within the line, or -1 when
// the error has no meaningful position.
type ExprError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Pos     int    `json:"position"`
}

// Error implements the error interface.
func (e *ExprError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s at position %d", e.Kind, e.Message, e.Pos)
}

// Malformed reports whether the error describes a structurally malformed
// line, as opposed to a well-formed line whose value cannot be computed.
func (e *ExprError) Malformed() bool {
	switch e.Kind {
	case KindZeroDivisionError, KindValueError:
		return false
	}
	return true
}

// ToMap converts the error into a JSON-friendly map.
func (e *ExprError) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"kind":    e.Kind,
		"message": e.Message,
	}
	if e.Pos >= 0 {
		m["position"] = e.Pos
	}
	return m
}

// AsExprError unwraps err into an *ExprError if it is one.
func AsExprError(err error) (*ExprError, bool) {
	var ee *ExprError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// HasKind returns true if err is an *ExprError of the given kind.
func HasKind(err error, kind string) bool {
	ee, ok := AsExprError(err)
	return ok && ee.Kind == kind
}

// Common error constructors.

// NewUnbalancedCloseParen reports a ')' with no open parenthesis to match.
func NewUnbalancedCloseParen(pos int) *ExprError {
	return &ExprError{Kind: KindUnbalancedCloseParen, Message: "unmatched ')'", Pos: pos}
}

// NewUnbalancedOpenParen reports a '(' still open at the end of the line.
func NewUnbalancedOpenParen(pos int) *ExprError {
	return &ExprError{Kind: KindUnbalancedOpenParen, Message: "unclosed '('", Pos: pos}
}

// NewUnrecognizedCharacter reports a character the lexer has no token for.
func NewUnrecognizedCharacter(ch rune, pos int) *ExprError {
	return &ExprError{Kind: KindUnrecognizedCharacter, Message: fmt.Sprintf("unexpected character %q", ch), Pos: pos}
}

// NewCapacityExceeded reports an operator stack that hit its depth limit.
func NewCapacityExceeded(limit, pos int) *ExprError {
	return &ExprError{
		Kind:    KindCapacityExceeded,
		Message: fmt.Sprintf("operator stack depth limit exceeded (max %d)", limit),
		Pos:     pos,
	}
}

// NewNumberOutOfRange reports an integer literal wider than int64.
func NewNumberOutOfRange(literal string, pos int) *ExprError {
	return &ExprError{Kind: KindNumberOutOfRange, Message: fmt.Sprintf("integer %q out of range", literal), Pos: pos}
}

// NewZeroDivisionError creates a ZeroDivisionError.
func NewZeroDivisionError() *ExprError {
	return &ExprError{Kind: KindZeroDivisionError, Message: "division by zero", Pos: -1}
}

// NewValueError creates a ValueError.
func NewValueError(msg string) *ExprError {
	return &ExprError{Kind: KindValueError, Message: msg, Pos: -1}
}

// NewMalformedPostfix reports a postfix sequence that does not reduce to a
// single value.
func NewMalformedPostfix(msg string) *ExprError {
	return &ExprError{Kind: KindMalformedPostfix, Message: msg, Pos: -1}
}
