package expr

import (
	"fmt"
	"strconv"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// Node is the interface for expression tree nodes.
type Node interface {
	nodeType() string
}

// NumberNode is an integer literal.
type NumberNode struct {
	Value int64
}

func (n *NumberNode) nodeType() string { return "Number" }

// BinaryNode is a binary operation.
type BinaryNode struct {
	Op    OpKind
	Left  Node
	Right Node
}

func (n *BinaryNode) nodeType() string { return "Binary" }

// FromPostfix rebuilds an expression tree from a postfix sequence.
func FromPostfix(tokens []Token) (Node, error) {
	var stack []Node
	for i, tok := range tokens {
		switch tok.Type {
		case TokenNumber:
			stack = append(stack, &NumberNode{Value: tok.IntVal})
		case TokenOperator:
			if len(stack) < 2 {
				return nil, types.NewMalformedPostfix(fmt.Sprintf("operator %s at index %d is missing an operand", tok.Op, i))
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, &BinaryNode{Op: tok.Op, Left: left, Right: right})
		default:
			return nil, types.NewMalformedPostfix(fmt.Sprintf("unexpected %s token at index %d", tok.Type, i))
		}
	}
	if len(stack) != 1 {
		return nil, types.NewMalformedPostfix(fmt.Sprintf("sequence reduces to %d values, want 1", len(stack)))
	}
	return stack[0], nil
}

// Postfix flattens a tree into postfix order.
func Postfix(node Node) []Token {
	var out []Token
	var walk func(Node)
	walk = func(n Node) {
		switch n := n.(type) {
		case *NumberNode:
			out = append(out, NumberToken(n.Value))
		case *BinaryNode:
			walk(n.Left)
			walk(n.Right)
			out = append(out, OperatorToken(n.Op))
		}
	}
	walk(node)
	return out
}

// Infix renders a tree as a fully parenthesized infix expression, e.g.
// "(3 + (4 * 5))". A lone number is rendered without parentheses.
func Infix(node Node) string {
	switch n := node.(type) {
	case *NumberNode:
		return strconv.FormatInt(n.Value, 10)
	case *BinaryNode:
		return "(" + Infix(n.Left) + " " + string(n.Op.Symbol()) + " " + Infix(n.Right) + ")"
	default:
		return ""
	}
}
