package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
)

// DefaultPrompt is printed before every line read by a Session.
const DefaultPrompt = "> "

// Session is the interactive line driver: it prints a prompt, translates
// one line at a time and prints the result until the input ends.
type Session struct {
	engine *Engine
	in     *bufio.Reader
	out    io.Writer

	// Prompt is printed before each line.
	Prompt string
	// Evaluate prints "= <value>" after every well-formed line.
	Evaluate bool
	// Infix prints the fully parenthesized form of every well-formed line.
	Infix bool
	// Record stores every line in the engine's store.
	Record bool
}

// NewSession creates a session reading from in and writing to out.
func NewSession(e *Engine, in io.Reader, out io.Writer) *Session {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Session{
		engine: e,
		in:     br,
		out:    out,
		Prompt: DefaultPrompt,
	}
}

// Run processes lines until the input is exhausted. A malformed line is
// reported and the loop continues; only a failure to read or write ends
// the session with an error.
func (s *Session) Run() error {
	for {
		if _, err := fmt.Fprint(s.out, s.Prompt); err != nil {
			return err
		}
		if _, err := s.in.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				_, err = fmt.Fprintln(s.out)
				return err
			}
			return fmt.Errorf("reading input: %w", err)
		}

		lex := expr.NewLexer(s.in)
		res, err := s.engine.Translator().Translate(lex)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if err := s.report(lex.Text(), res); err != nil {
			return err
		}
		if res.EndOfStream {
			return nil
		}
	}
}

func (s *Session) report(input string, res expr.Result) error {
	if _, err := fmt.Fprintln(s.out, res.String()); err != nil {
		return err
	}
	if !s.Evaluate && !s.Infix && !s.Record {
		return nil
	}

	var tr *store.Translation
	if s.Record {
		tr = s.engine.Record(input, res, SourceREPL)
	} else {
		tr = Describe(input, res)
	}

	if s.Infix && tr.Infix != "" {
		if _, err := fmt.Fprintf(s.out, "infix: %s\n", tr.Infix); err != nil {
			return err
		}
	}
	if s.Evaluate {
		switch {
		case tr.Value != nil:
			_, err := fmt.Fprintf(s.out, "= %d\n", *tr.Value)
			return err
		case tr.EvalError != nil:
			_, err := fmt.Fprintf(s.out, "eval error: %s\n", tr.EvalError)
			return err
		}
	}
	return nil
}
