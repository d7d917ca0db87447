package expr

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// MaxExpressionLength is the maximum allowed length for a single line
// accepted through the APIs.
const MaxExpressionLength = 4096

// CheckLine validates a line received through an API: it must not contain
// a line break and must be at most MaxExpressionLength characters long.
func CheckLine(input string) error {
	if strings.ContainsAny(input, "\r\n") {
		return fmt.Errorf("expression must be a single line")
	}
	if n := utf8.RuneCountInString(input); n > MaxExpressionLength {
		return fmt.Errorf("expression length %d exceeds maximum %d", n, MaxExpressionLength)
	}
	return nil
}

// Parser is a recursive descent parser for the same grammar the translator
// accepts. It builds a tree directly and serves as an independent check of
// the translator's output.
type Parser struct {
	tokens []Token
	pos    int
}

// ParseExpression parses a complete single-line expression.
func ParseExpression(input string) (Node, error) {
	lexer := NewLexer(strings.NewReader(input))
	var tokens []Token
	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, fmt.Errorf("lexer error: %w", err)
		}
		if tok.Type == TokenEOF {
			if tok.Stop != '\n' && tok.Stop != EndOfStream {
				return nil, types.NewUnrecognizedCharacter(tok.Stop, tok.Pos)
			}
			tokens = append(tokens, tok)
			break
		}
		tokens = append(tokens, tok)
	}

	p := &Parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if tok := p.current(); tok.Type != TokenEOF {
		if tok.Type == TokenRParen {
			return nil, types.NewUnbalancedCloseParen(tok.Pos)
		}
		return nil, fmt.Errorf("unexpected token %s at position %d", tok, tok.Pos)
	}

	return node, nil
}

// current returns the current token.
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance consumes the current token and returns it.
func (p *Parser) advance() Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) atOperator(ops ...OpKind) bool {
	tok := p.current()
	if tok.Type != TokenOperator {
		return false
	}
	for _, op := range ops {
		if tok.Op == op {
			return true
		}
	}
	return false
}

// parseExpression handles the lowest precedence operators.
// Precedence (low to high):
//
//	+, -   left
//	*, /   left
//	^      right
func (p *Parser) parseExpression() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.atOperator(OpAdd, OpSub) {
		op := p.advance().Op
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (Node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for p.atOperator(OpMul, OpDiv) {
		op := p.advance().Op
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePower() (Node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.atOperator(OpPow) {
		return base, nil
	}
	p.advance()
	exp, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	return &BinaryNode{Op: OpPow, Left: base, Right: exp}, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.current()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return &NumberNode{Value: tok.IntVal}, nil
	case TokenLParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.current().Type != TokenRParen {
			return nil, types.NewUnbalancedOpenParen(tok.Pos)
		}
		p.advance()
		return inner, nil
	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of expression at position %d", tok.Pos)
	default:
		return nil, fmt.Errorf("unexpected token %s at position %d", tok, tok.Pos)
	}
}
