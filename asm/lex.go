package asm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type stateFn func(*lexer) stateFn

const eof = -1

type itemType int

const (
	itemError itemType = iota // Error occurred; value is text of error.
	itemNewline
	itemIdentifier
	itemNumber
	itemComment // Value is the comment text without the leading ';'.
	itemSigil   // Addressing mode prefix other than '*'.
	itemOperator
	itemComma
	itemDot
	itemColon
	itemEOF // End of the input.
)

const (
	identChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_0123456789"
	identStart    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_"
	digitChars    = "0123456789"
	sigilChars    = "#$@{}<>"
	operatorChars = "+-*/%()"
	commentChar   = ';'
)

func (it itemType) String() string {
	switch it {
	case itemError:
		return "<error>"
	case itemNewline:
		return "<newline>"
	case itemIdentifier:
		return "<identifier>"
	case itemNumber:
		return "<number>"
	case itemComment:
		return "<comment>"
	case itemSigil:
		return "<sigil>"
	case itemOperator:
		return "<operator>"
	case itemComma:
		return "<comma>"
	case itemDot:
		return "<dot>"
	case itemColon:
		return "<colon>"
	case itemEOF:
		return "<eof>"
	default:
		return fmt.Sprintf("<unknown token %d>", it)
	}
}

func (it itemType) isEOL() bool {
	return it == itemNewline || it == itemEOF || it == itemComment
}

type item struct {
	typ  itemType // The type of this item.
	pos  int      // The start position, in bytes, of this item in the input string.
	val  string   // The value of this item.
	line int      // The line number at the start of this item.
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.val
	case i.typ == itemNewline:
		return "'\\n'"
	case len(i.val) > 10:
		return fmt.Sprintf("%s %.10q...", i.typ, i.val)
	}
	return fmt.Sprintf("%s %q", i.typ, i.val)
}

// lexer holds the state of the scanner.
type lexer struct {
	input     string // The string being scanned.
	pos       int    // Current position in the input.
	start     int    // Start position of this item.
	atEOF     bool   // We have hit the end of input and returned eof.
	line      int    // 1+number of newlines seen.
	startLine int    // Start line of this item.
	item      item   // Item to return to parser.
}

// errorf returns an error token and terminates the scan by passing
// back a nil pointer that will be the next state, terminating l.nextItem.
func (l *lexer) errorf(format string, args ...any) stateFn {
	l.item = item{itemError, l.start, fmt.Sprintf(format, args...), l.startLine}
	l.start = 0
	l.pos = 0
	l.input = l.input[:0]
	return nil
}

// next returns the next rune in the input.
func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.atEOF = true
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
	}
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune.
func (l *lexer) backup() {
	if !l.atEOF && l.pos > 0 {
		r, w := utf8.DecodeLastRuneInString(l.input[:l.pos])
		l.pos -= w
		if r == '\n' {
			l.line--
		}
	}
}

// thisItem returns the item at the current input point with the specified type
// and advances the input.
func (l *lexer) thisItem(t itemType) item {
	i := item{t, l.start, l.input[l.start:l.pos], l.startLine}
	l.start = l.pos
	l.startLine = l.line
	return i
}

// emit passes the trailing text as an item back to the parser.
func (l *lexer) emit(t itemType) stateFn {
	return l.emitItem(l.thisItem(t))
}

func (l *lexer) emitItem(i item) stateFn {
	l.item = i
	return nil
}

// ignore skips over the pending input before this point. The input must
// have been consumed with l.next so the line count is already right.
func (l *lexer) ignore() {
	l.start = l.pos
	l.startLine = l.line
}

// acceptRun consumes a run of runes from the valid set.
func (l *lexer) acceptRun(valid string) bool {
	accepted := false
	for strings.ContainsRune(valid, l.next()) {
		accepted = true
	}
	l.backup()
	return accepted
}

func lexText(l *lexer) stateFn {
	l.acceptRun(" \t\r")
	if l.atEOF {
		return l.emit(itemEOF)
	}
	l.ignore()
	switch r := l.peek(); {
	case r == '\n':
		// Blank lines collapse into a single newline.
		l.acceptRun(" \t\r\n")
		// Keep the item on the line that ended.
		i := item{itemNewline, l.start, "\n", l.startLine}
		l.ignore()
		return l.emitItem(i)
	case r == commentChar:
		return lexComment
	case r == ',':
		l.next()
		return l.emit(itemComma)
	case r == '.':
		l.next()
		return l.emit(itemDot)
	case r == ':':
		l.next()
		return l.emit(itemColon)
	case strings.ContainsRune(sigilChars, r):
		l.next()
		return l.emit(itemSigil)
	case strings.ContainsRune(operatorChars, r):
		l.next()
		return l.emit(itemOperator)
	case strings.ContainsRune(digitChars, r):
		return lexNumber
	case strings.ContainsRune(identStart, r):
		return lexIdentifier
	default:
		return l.errorf("unexpected character %q", r)
	}
}

func lexNumber(l *lexer) stateFn {
	l.acceptRun(digitChars)
	if r := l.peek(); r != eof && strings.ContainsRune(identStart, r) {
		return l.errorf("bad number %q", l.input[l.start:l.pos+1])
	}
	return l.emit(itemNumber)
}

func lexIdentifier(l *lexer) stateFn {
	l.acceptRun(identChars)
	return l.emit(itemIdentifier)
}

func lexComment(l *lexer) stateFn {
	for {
		r := l.next()
		if r == eof || r == '\n' {
			l.backup()
			break
		}
	}
	i := l.thisItem(itemComment)
	i.val = strings.TrimSpace(i.val[1:])
	return l.emitItem(i)
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	l.item = item{itemEOF, l.pos, "EOF", l.startLine}
	state := lexText
	for {
		state = state(l)
		if state == nil {
			return l.item
		}
	}
}

func newLexer(input string) *lexer {
	return &lexer{
		input:     input,
		line:      1,
		startLine: 1,
	}
}
