package expr

import (
	"fmt"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// EvaluatePostfix computes the value of a postfix sequence with a value
// stack.
func EvaluatePostfix(tokens []Token) (int64, error) {
	var stack []int64
	for i, tok := range tokens {
		switch tok.Type {
		case TokenNumber:
			stack = append(stack, tok.IntVal)
		case TokenOperator:
			if len(stack) < 2 {
				return 0, types.NewMalformedPostfix(fmt.Sprintf("operator %s at index %d is missing an operand", tok.Op, i))
			}
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			v, err := apply(tok.Op, a, b)
			if err != nil {
				return 0, err
			}
			stack = append(stack, v)
		default:
			return 0, types.NewMalformedPostfix(fmt.Sprintf("unexpected %s token at index %d", tok.Type, i))
		}
	}
	if len(stack) != 1 {
		return 0, types.NewMalformedPostfix(fmt.Sprintf("sequence reduces to %d values, want 1", len(stack)))
	}
	return stack[0], nil
}

// Evaluate computes the value of an expression tree.
func Evaluate(node Node) (int64, error) {
	switch n := node.(type) {
	case *NumberNode:
		return n.Value, nil
	case *BinaryNode:
		left, err := Evaluate(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := Evaluate(n.Right)
		if err != nil {
			return 0, err
		}
		return apply(n.Op, left, right)
	default:
		return 0, fmt.Errorf("unsupported expression node type: %T", node)
	}
}

func apply(op OpKind, a, b int64) (int64, error) {
	switch op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, types.NewZeroDivisionError()
		}
		return a / b, nil
	case OpPow:
		return ipow(a, b)
	default:
		return 0, fmt.Errorf("unknown operator %d", op)
	}
}

// ipow raises base to a non-negative integer power by squaring. Overflow
// wraps like the other integer operators.
func ipow(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, types.NewValueError(fmt.Sprintf("negative exponent %d", exp))
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result, nil
}
