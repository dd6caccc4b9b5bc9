package mars

import (
	"errors"

	"go.creack.net/mars/redcode"
	"go.creack.net/mars/translate"
)

var f = translate.From

var (
	ErrQueueEmpty   = errors.New(f("process queue empty"))
	ErrEmptyWarrior = errors.New(f("warrior has no code"))
	ErrNotRunning   = errors.New(f("core not running"))
	ErrBudgetSpent  = errors.New(f("cycle budget spent"))
)

// PlacementError is returned by LoadWarriors when the warriors could not
// be given non-overlapping footprints.
type PlacementError struct {
	Warrior  string // Title of the warrior that could not be placed.
	Attempts int    // Attempts made, 0 when rejected up front.
	Reason   string
}

func (err *PlacementError) Error() string {
	if err.Attempts == 0 {
		return f("placement of %q: %s", err.Warrior, err.Reason)
	}
	return f("placement of %q: %s after %d attempts", err.Warrior, err.Reason, err.Attempts)
}

func (err *PlacementError) Is(target error) bool {
	_, ok := target.(*PlacementError)
	return ok
}

// InstructionError is returned by LoadWarriors when a warrior holds an
// instruction with an unknown opcode, modifier or mode.
type InstructionError struct {
	Warrior string
	Offset  int // Index in the warrior code.
	Ins     redcode.Instruction
}

func (err *InstructionError) Error() string {
	return f("load %q: invalid instruction at offset %d (op %d, mod %d, modes %d/%d)",
		err.Warrior, err.Offset, err.Ins.Op, err.Ins.Mod, err.Ins.A.Mode, err.Ins.B.Mode)
}

func (err *InstructionError) Is(target error) bool {
	_, ok := target.(*InstructionError)
	return ok
}

// UnsupportedOpcodeError is returned by Step when a process executed an
// opcode the engine does not implement. The process has been killed.
type UnsupportedOpcodeError struct {
	Op      redcode.Opcode
	Warrior int
	Process int
	PC      int
}

func (err *UnsupportedOpcodeError) Error() string {
	return f("unsupported opcode %s at %d (warrior %d, process %d)", err.Op, err.PC, err.Warrior, err.Process)
}

func (err *UnsupportedOpcodeError) Is(target error) bool {
	_, ok := target.(*UnsupportedOpcodeError)
	return ok
}

// ArithmeticError is returned by Step when a DIV or MOD divided by zero.
// The process has been killed and the destination cell is untouched.
type ArithmeticError struct {
	Op      redcode.Opcode
	Warrior int
	Process int
	PC      int
}

func (err *ArithmeticError) Error() string {
	return f("%s by zero at %d (warrior %d, process %d)", err.Op, err.PC, err.Warrior, err.Process)
}

func (err *ArithmeticError) Is(target error) bool {
	_, ok := target.(*ArithmeticError)
	return ok
}

// IndexError is the panic value raised when a raw address outside of the
// arena reaches it. Addresses are always wrapped first, so this is a bug.
type IndexError struct {
	Addr int
	Size int
}

func (err IndexError) Error() string {
	return f("address %d out of arena [0, %d)", err.Addr, err.Size)
}

// IsProcessFault reports whether err killed a single process but left the
// simulation running.
func IsProcessFault(err error) bool {
	var unsupported *UnsupportedOpcodeError
	var arith *ArithmeticError
	return errors.As(err, &unsupported) || errors.As(err, &arith)
}
