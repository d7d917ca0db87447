package expr

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/shunting-yard/pkg/types"
)

// Lexer tokenizes one line of a character stream. It reads lazily, one
// token per call to Next, and never reads past the newline that ends its
// line. A Lexer must be recreated for every line.
type Lexer struct {
	r     io.RuneScanner
	pos   int
	text  []rune
	eof   *Token
	ended bool
}

// NewLexer creates a lexer reading from r, which must be positioned at the
// start of a line.
func NewLexer(r io.RuneScanner) *Lexer {
	return &Lexer{r: r}
}

// Next returns the next token of the line. Any character that does not
// start a number, operator or parenthesis yields TokenEOF with that
// character in Stop; a newline or an exhausted stream do the same. Once
// TokenEOF has been returned every further call returns it again.
//
// The error return is an *types.ExprError for an out-of-range literal and
// the underlying read error for anything else.
func (l *Lexer) Next() (Token, error) {
	if l.eof != nil {
		return *l.eof, nil
	}

	ch, err := l.skipBlanks()
	if err != nil {
		return Token{}, err
	}
	start := l.pos - 1
	if ch == EndOfStream {
		start = l.pos
	}

	if tok, ok := symbolTable[ch]; ok {
		tok.Pos = start
		return tok, nil
	}

	if isDigit(ch) {
		return l.readNumber(ch, start)
	}

	return l.finish(ch, start), nil
}

// Discard consumes the remainder of the line, including its newline.
func (l *Lexer) Discard() error {
	if l.eof != nil && (l.eof.Stop == '\n' || l.eof.Stop == EndOfStream) {
		return nil
	}
	for {
		ch, err := l.read()
		if err != nil {
			return err
		}
		if ch == '\n' || ch == EndOfStream {
			if l.eof == nil {
				l.finish(ch, l.pos)
			}
			return nil
		}
	}
}

// AtEndOfStream reports whether the underlying stream was exhausted while
// reading this line.
func (l *Lexer) AtEndOfStream() bool {
	return l.ended
}

// Text returns the characters consumed so far on this line, without the
// terminating newline.
func (l *Lexer) Text() string {
	return strings.TrimSuffix(string(l.text), "\r")
}

func (l *Lexer) finish(stop rune, pos int) Token {
	tok := Token{Type: TokenEOF, Pos: pos, Stop: stop}
	l.eof = &tok
	return tok
}

func (l *Lexer) skipBlanks() (rune, error) {
	for {
		ch, err := l.read()
		if err != nil {
			return 0, err
		}
		if !isBlank(ch) {
			return ch, nil
		}
	}
}

// readNumber reads a run of digits starting with first.
func (l *Lexer) readNumber(first rune, start int) (Token, error) {
	digits := []rune{first}
	for {
		ch, err := l.read()
		if err != nil {
			return Token{}, err
		}
		if !isDigit(ch) {
			if err := l.unread(ch); err != nil {
				return Token{}, err
			}
			break
		}
		digits = append(digits, ch)
	}

	raw := string(digits)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Token{}, types.NewNumberOutOfRange(raw, start)
	}
	return Token{Type: TokenNumber, IntVal: v, Pos: start}, nil
}

// read returns the next rune, or EndOfStream once the source is exhausted.
func (l *Lexer) read() (rune, error) {
	ch, _, err := l.r.ReadRune()
	if errors.Is(err, io.EOF) {
		l.ended = true
		return EndOfStream, nil
	}
	if err != nil {
		return 0, err
	}
	l.pos++
	if ch != '\n' {
		l.text = append(l.text, ch)
	}
	return ch, nil
}

// unread pushes ch back so the next read returns it again.
func (l *Lexer) unread(ch rune) error {
	if ch == EndOfStream {
		return nil
	}
	if err := l.r.UnreadRune(); err != nil {
		return err
	}
	l.pos--
	if ch != '\n' {
		l.text = l.text[:len(l.text)-1]
	}
	return nil
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isBlank(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}
