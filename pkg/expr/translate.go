package expr

import (
	"errors"
	"strings"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// State is a state of the translator's per-line state machine.
type State int

const (
	StateReading State = iota
	StateClosing
	StateDraining
	StateError
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReading:
		return "READING"
	case StateClosing:
		return "CLOSING"
	case StateDraining:
		return "DRAINING"
	case StateError:
		return "ERROR"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of translating one line.
type Result struct {
	// Output is the postfix sequence. For a malformed line it holds the
	// tokens emitted before the error was detected; an error found while
	// draining at end of line retracts the whole output.
	Output []Token
	// Err is non-nil when the line is malformed.
	Err *types.ExprError
	// State is StateDone or StateError.
	State State
	// EndOfStream is set when the character source ran out on this line.
	EndOfStream bool
}

// OK reports whether the line translated cleanly.
func (r Result) OK() bool {
	return r.Err == nil
}

// String formats the line the way the interactive driver prints it,
// without the trailing newline.
func (r Result) String() string {
	out := FormatTokens(r.Output)
	if r.Err == nil {
		return out
	}
	if out == "" {
		return types.Diagnostic
	}
	return out + " " + types.Diagnostic
}

// Option configures a Translator.
type Option func(*Translator)

// WithMaxDepth bounds the operator stack of every translation.
func WithMaxDepth(n int) Option {
	return func(t *Translator) {
		t.maxDepth = n
	}
}

// Translator converts infix lines into postfix order. It holds no
// per-line state and may be shared between goroutines.
type Translator struct {
	maxDepth int
}

// NewTranslator creates a translator.
func NewTranslator(opts ...Option) *Translator {
	t := &Translator{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxDepth <= 0 {
		t.maxDepth = DefaultMaxDepth
	}
	return t
}

// MaxDepth returns the operator stack bound.
func (t *Translator) MaxDepth() int {
	return t.maxDepth
}

// Translate reads one line from lex and translates it. Malformed input is
// reported through Result.Err and the rest of the line is discarded; the
// error return is reserved for failures of the character source itself.
func (t *Translator) Translate(lex *Lexer) (Result, error) {
	run := &translation{
		lex:   lex,
		stack: NewStack(t.maxDepth),
		state: StateReading,
	}
	if err := run.loop(); err != nil {
		return Result{}, err
	}
	return Result{
		Output:      run.out,
		Err:         run.err,
		State:       run.state,
		EndOfStream: lex.AtEndOfStream(),
	}, nil
}

// TranslateString translates a single line held in memory with the
// default translator.
func TranslateString(input string) Result {
	res, _ := NewTranslator().Translate(NewLexer(strings.NewReader(input)))
	return res
}

// translation is the state of one in-flight line.
type translation struct {
	lex   *Lexer
	stack *Stack
	state State
	out   []Token
	err   *types.ExprError
}

func (tr *translation) loop() error {
	for tr.state == StateReading {
		tok, err := tr.lex.Next()
		if err != nil {
			if ee, ok := types.AsExprError(err); ok {
				return tr.fail(ee)
			}
			return err
		}

		switch tok.Type {
		case TokenNumber:
			tr.emit(tok)
		case TokenLParen:
			if err := tr.push(LParenSymbol(tok.Pos)); err != nil {
				return err
			}
		case TokenRParen:
			if err := tr.closeParen(tok); err != nil {
				return err
			}
		case TokenOperator:
			if err := tr.operator(tok); err != nil {
				return err
			}
		case TokenEOF:
			if tok.Stop != '\n' && tok.Stop != EndOfStream {
				return tr.fail(types.NewUnrecognizedCharacter(tok.Stop, tok.Pos))
			}
			tr.drain()
		}
	}
	return nil
}

// closeParen pops operators until the matching open parenthesis.
func (tr *translation) closeParen(tok Token) error {
	tr.state = StateClosing
	for {
		top, ok := tr.stack.Peek()
		if !ok {
			return tr.fail(types.NewUnbalancedCloseParen(tok.Pos))
		}
		tr.stack.Pop()
		if top.Kind == SymbolLParen {
			tr.state = StateReading
			return nil
		}
		tr.emit(OperatorToken(top.Op))
	}
}

// operator pops every stacked operator that binds at least as tightly as
// tok, then pushes tok. Right-associative operators do not pop an equal
// predecessor, so chains like 2 ^ 3 ^ 2 group to the right.
func (tr *translation) operator(tok Token) error {
	prec := Precedence(tok.Op)
	for {
		top, ok := tr.stack.Peek()
		if !ok || top.Kind != SymbolOperator {
			break
		}
		topPrec := Precedence(top.Op)
		if topPrec > prec || (topPrec == prec && Associativity(top.Op) == AssocLeft) {
			tr.stack.Pop()
			tr.emit(OperatorToken(top.Op))
			continue
		}
		break
	}
	return tr.push(OperatorSymbol(tok.Op, tok.Pos))
}

// drain empties the stack at the end of a line.
func (tr *translation) drain() {
	tr.state = StateDraining
	for {
		top, err := tr.stack.Pop()
		if errors.Is(err, ErrEmptyStack) {
			tr.state = StateDone
			return
		}
		if top.Kind == SymbolLParen {
			tr.out = nil
			tr.err = types.NewUnbalancedOpenParen(top.Pos)
			tr.state = StateError
			return
		}
		tr.emit(OperatorToken(top.Op))
	}
}

func (tr *translation) push(sym Symbol) error {
	if err := tr.stack.Push(sym); err != nil {
		return tr.fail(types.NewCapacityExceeded(tr.stack.MaxDepth(), sym.Pos))
	}
	return nil
}

func (tr *translation) emit(tok Token) {
	tok.Pos = 0
	tr.out = append(tr.out, tok)
}

// fail stops the line with err and discards whatever is left of it. The
// returned error is only non-nil if discarding fails.
func (tr *translation) fail(err *types.ExprError) error {
	tr.err = err
	tr.state = StateError
	return tr.lex.Discard()
}
