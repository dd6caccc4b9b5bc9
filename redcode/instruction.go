// Package redcode holds the Redcode instruction model shared by the
// simulator, the assembler and the hosts.
package redcode

import "fmt"

// Operand is an addressing mode plus a signed field value.
type Operand struct {
	Mode  Mode
	Value int
}

func (o Operand) String() string {
	return fmt.Sprintf("%c%d", o.Mode.Sigil(), o.Value)
}

// Instruction is the content of one memory cell.
type Instruction struct {
	Op  Opcode
	Mod Modifier
	A   Operand
	B   Operand
}

// Empty is the content of a cleared cell.
var Empty = Instruction{Op: DAT, Mod: ModF}

// New is a shorthand used by tests and built-in warriors.
func New(op Opcode, mod Modifier, aMode Mode, a int, bMode Mode, b int) Instruction {
	return Instruction{
		Op:  op,
		Mod: mod,
		A:   Operand{Mode: aMode, Value: a},
		B:   Operand{Mode: bMode, Value: b},
	}
}

// String renders the instruction as canonical Redcode, e.g. `MOV.I $0, $1`.
func (ins Instruction) String() string {
	return fmt.Sprintf("%s.%s %s, %s", ins.Op, ins.Mod, ins.A, ins.B)
}

// Valid reports whether the opcode, the modifier and both modes exist.
func (ins Instruction) Valid() bool {
	return ins.Op.Valid() && ins.Mod.Valid() && ins.A.Mode.Valid() && ins.B.Mode.Valid()
}
