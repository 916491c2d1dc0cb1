// This lexer is based on, and copied from, Rob Pike's excellent talk on Go
// scanners, as reused by vslc's frontend lexer.
// Link to the talk on YouTube: https://www.youtube.com/watch?v=HxaD_trXwRE
// Link to presentation slides: https://talks.golang.org/2011/lex.slide#1
//
// The lexer uses state functions stateFunc to define the lexer state. States
// allow the lexer to treat the same runes differently depending on context.
// State transitions happen within the current state on appearance of key
// runes. The lexer uses Go's native 'rune' type to get UTF-8 support for
// free.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/art-lang/art/internal/token"
)

// stateFunc defines the current state of the lexer.
type stateFunc func(*Lexer) stateFunc

const eof = 0

// Lexer traverses a source stream character by character and emits tokens.
type Lexer struct {
	input       string
	start       int
	pos         int
	width       int
	line        int
	startOnLine int
	state       stateFunc
	items       chan token.Token
}

// New creates a Lexer over src and starts its state machine in a background
// goroutine, just as vslc's newLexer/run pair does.
func New(src string) *Lexer {
	l := &Lexer{
		input:       src,
		line:        1,
		startOnLine: 1,
		state:       lexGlobal,
		items:       make(chan token.Token, 2),
	}
	go l.run()
	return l
}

// run drives the state machine until a state function returns nil.
func (l *Lexer) run() {
	defer close(l.items)
	for state := l.state; state != nil; {
		state = state(l)
	}
}

// Next returns the next scanned Token, blocking until the background
// goroutine has one ready.
func (l *Lexer) Next() token.Token {
	t, ok := <-l.items
	if !ok {
		return token.Token{Kind: token.EOF, Line: l.line, Pos: l.startOnLine}
	}
	return t
}

// emit sends a token of kind k for the pending lexeme back on the items
// channel.
func (l *Lexer) emit(k token.Kind) {
	l.items <- token.Token{
		Kind: k,
		Val:  l.input[l.start:l.pos],
		Line: l.line,
		Pos:  l.startOnLine,
	}
	l.startOnLine += l.pos - l.start
	l.start = l.pos
}

// emitNewline emits a synthetic NEWLINE-shaped token used by the parser as a
// statement terminator. The surface language uses '\n' the way vslc's VSL
// uses no terminator at all; here the terminator is significant, so it must
// survive lexing rather than being thrown away like other whitespace.
func (l *Lexer) emitNewline() {
	l.items <- token.Token{Kind: token.Newline, Val: "\n", Line: l.line, Pos: l.startOnLine}
	l.start = l.pos
	l.line++
	l.startOnLine = 1
}

func (l *Lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

func (l *Lexer) ignore() {
	l.startOnLine += l.pos - l.start
	l.start = l.pos
}

func (l *Lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) errorf(format string, args ...interface{}) stateFunc {
	l.items <- token.Token{Kind: token.Error, Val: fmt.Sprintf(format, args...), Line: l.line, Pos: l.startOnLine}
	return nil
}
