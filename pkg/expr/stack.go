package expr

import "errors"

var (
	ErrCapacityExceeded = errors.New("expr: stack capacity exceeded")
	ErrEmptyStack       = errors.New("expr: stack is empty")
)

// DefaultMaxDepth is the operator stack bound used when none is configured.
const DefaultMaxDepth = 1000

// SymbolKind distinguishes the two things an operator stack can hold.
type SymbolKind int

const (
	SymbolOperator SymbolKind = iota
	SymbolLParen
)

// Symbol is an entry of the operator stack: an operator or an open
// parenthesis. Numbers and closing parentheses never appear on the stack.
type Symbol struct {
	Kind SymbolKind
	Op   OpKind
	Pos  int
}

// OperatorSymbol returns a stack symbol for op.
func OperatorSymbol(op OpKind, pos int) Symbol {
	return Symbol{Kind: SymbolOperator, Op: op, Pos: pos}
}

// LParenSymbol returns a stack symbol for an open parenthesis.
func LParenSymbol(pos int) Symbol {
	return Symbol{Kind: SymbolLParen, Pos: pos}
}

// Stack is a last-in-first-out container of pending operators and open
// parentheses with a fixed maximum depth.
type Stack struct {
	items    []Symbol
	maxDepth int
}

// NewStack creates an empty stack holding at most maxDepth symbols.
// A non-positive maxDepth selects DefaultMaxDepth.
func NewStack(maxDepth int) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Stack{maxDepth: maxDepth}
}

// Push adds a symbol on top. It fails with ErrCapacityExceeded when the
// stack is full.
func (s *Stack) Push(sym Symbol) error {
	if len(s.items) >= s.maxDepth {
		return ErrCapacityExceeded
	}
	s.items = append(s.items, sym)
	return nil
}

// Pop removes and returns the top symbol.
func (s *Stack) Pop() (Symbol, error) {
	if len(s.items) == 0 {
		return Symbol{}, ErrEmptyStack
	}
	top := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return top, nil
}

// Peek returns the top symbol without removing it.
func (s *Stack) Peek() (Symbol, bool) {
	if len(s.items) == 0 {
		return Symbol{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack) Len() int      { return len(s.items) }
func (s *Stack) MaxDepth() int { return s.maxDepth }

// Reset empties the stack, keeping its bound.
func (s *Stack) Reset() {
	s.items = s.items[:0]
}
