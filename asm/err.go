package asm

import (
	"errors"

	"go.creack.net/mars/translate"
)

var f = translate.From

var (
	ErrSyntax          = errors.New(f("syntax error"))
	ErrOpcodeUnknown   = errors.New(f("unknown opcode"))
	ErrModifierUnknown = errors.New(f("unknown modifier"))
	ErrOperandCount    = errors.New(f("bad operand count"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrLabelMissing    = errors.New(f("label missing"))
	ErrEquateSyntax    = errors.New(f("EQU without label"))
	ErrExpression      = errors.New(f("bad expression"))
	ErrEmptyProgram    = errors.New(f("no instruction"))
)

// SyntaxError locates an assembly error in its source.
type SyntaxError struct {
	Name string // Source name.
	Line int
	Err  error
}

func (err *SyntaxError) Error() string {
	return f("%s:%d: %v", err.Name, err.Line, err.Err)
}

func (err *SyntaxError) Unwrap() error { return err.Err }
