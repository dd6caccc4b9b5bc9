package mars

import (
	"fmt"

	"go.creack.net/mars/redcode"
)

// operand is a resolved instruction operand.
type operand struct {
	addr int
	ins  redcode.Instruction // Snapshot taken at resolution time.
}

// cycle holds the state of the instruction being executed.
type cycle struct {
	p        *Process
	pc       int
	ins      redcode.Instruction
	src, dst operand
}

// resolve evaluates one operand of the instruction at pc. Indirect
// pre-decrement and post-increment modes update the pointer cell.
func (c *Core) resolve(p *Process, pc int, op redcode.Operand) operand {
	a := c.arena

	var addr int
	switch op.Mode {
	case redcode.Immediate:
		addr = pc
	case redcode.Direct:
		addr = a.Wrap(pc, op.Value)
	default:
		// Fields are never folded, so the offsets are wrapped one at a time.
		ptrAddr := a.Wrap(pc, op.Value)
		ptr := a.cell(ptrAddr)
		field := &ptr.B.Value
		if op.Mode.UsesAField() {
			field = &ptr.A.Value
		}

		switch op.Mode {
		case redcode.APreDecrement, redcode.BPreDecrement:
			*field--
			a.Touch(ptrAddr, p.Warrior, AccessWrite)
			addr = a.Wrap(ptrAddr, *field)
		case redcode.APostIncrement, redcode.BPostIncrement:
			addr = a.Wrap(ptrAddr, *field)
			*field++
			a.Touch(ptrAddr, p.Warrior, AccessWrite)
		default:
			a.Touch(ptrAddr, p.Warrior, AccessRead)
			addr = a.Wrap(ptrAddr, *field)
		}
	}

	a.Touch(addr, p.Warrior, AccessRead)
	return operand{addr: addr, ins: a.Read(addr)}
}

// field selects the A or B number of an instruction.
type field int

const (
	fieldA field = iota
	fieldB
)

func get(ins redcode.Instruction, fl field) int {
	if fl == fieldA {
		return ins.A.Value
	}
	return ins.B.Value
}

func set(ins *redcode.Instruction, fl field, v int) {
	if fl == fieldA {
		ins.A.Value = v
		return
	}
	ins.B.Value = v
}

// pair maps a source field onto a destination field.
type pair struct{ src, dst field }

var (
	pairsA  = []pair{{fieldA, fieldA}}
	pairsB  = []pair{{fieldB, fieldB}}
	pairsAB = []pair{{fieldA, fieldB}}
	pairsBA = []pair{{fieldB, fieldA}}
	pairsF  = []pair{{fieldA, fieldA}, {fieldB, fieldB}}
	pairsX  = []pair{{fieldA, fieldB}, {fieldB, fieldA}}
)

// pairs returns the field mapping of a modifier. ModI maps like ModF
// for every opcode that doesn't handle whole instructions itself.
func pairs(mod redcode.Modifier) []pair {
	switch mod {
	case redcode.ModA:
		return pairsA
	case redcode.ModB:
		return pairsB
	case redcode.ModAB:
		return pairsAB
	case redcode.ModBA:
		return pairsBA
	case redcode.ModX:
		return pairsX
	default:
		return pairsF
	}
}

// tested returns the fields a conditional jump looks at: the
// destination side of the modifier.
func tested(mod redcode.Modifier) []field {
	ps := pairs(mod)
	out := make([]field, 0, len(ps))
	for _, elem := range ps {
		out = append(out, elem.dst)
	}
	return out
}

// opFunc executes an opcode. It returns the next PC and whether it
// overrides the default PC+1.
type opFunc func(c *Core, cy *cycle) (next int, jump bool, err error)

func opAdd(a, b int) int { return a + b }
func opSub(a, b int) int { return a - b }
func opMul(a, b int) int { return a * b }
func opDiv(a, b int) int { return a / b }
func opMod(a, b int) int { return a % b }

// mathOp returns the op function for arithmetic. The operation gets
// (destination, source). Divisors are checked before anything is written.
func mathOp(operation func(dst, src int) int, divides bool) opFunc {
	return func(c *Core, cy *cycle) (int, bool, error) {
		ps := pairs(cy.ins.Mod)
		if divides {
			for _, elem := range ps {
				if get(cy.src.ins, elem.src) == 0 {
					return 0, false, &ArithmeticError{Op: cy.ins.Op, Warrior: cy.p.Warrior, Process: cy.p.ID, PC: cy.pc}
				}
			}
		}
		target := c.arena.cell(cy.dst.addr)
		for _, elem := range ps {
			set(target, elem.dst, operation(get(cy.dst.ins, elem.dst), get(cy.src.ins, elem.src)))
		}
		c.arena.Touch(cy.dst.addr, cy.p.Warrior, AccessWrite)
		return 0, false, nil
	}
}

// jumpIf returns the op function for JMZ/JMN.
func jumpIf(cond func(v int) bool) opFunc {
	return func(c *Core, cy *cycle) (int, bool, error) {
		for _, fl := range tested(cy.ins.Mod) {
			if !cond(get(cy.src.ins, fl)) {
				return 0, false, nil
			}
		}
		return cy.src.addr, true, nil
	}
}

// equal compares the source and destination per modifier.
func equal(cy *cycle) bool {
	if cy.ins.Mod == redcode.ModI {
		return cy.src.ins == cy.dst.ins
	}
	for _, elem := range pairs(cy.ins.Mod) {
		if get(cy.src.ins, elem.src) != get(cy.dst.ins, elem.dst) {
			return false
		}
	}
	return true
}

func lower(cy *cycle) bool {
	for _, elem := range pairs(cy.ins.Mod) {
		if get(cy.src.ins, elem.src) >= get(cy.dst.ins, elem.dst) {
			return false
		}
	}
	return true
}

// skipIf returns the op function for the skip family. A skip lands on
// the cell after the source operand.
func skipIf(cond func(cy *cycle) bool) opFunc {
	return func(c *Core, cy *cycle) (int, bool, error) {
		if !cond(cy) {
			return 0, false, nil
		}
		return c.arena.Wrap(cy.src.addr, 1), true, nil
	}
}

func unsupported(c *Core, cy *cycle) (int, bool, error) {
	return 0, false, &UnsupportedOpcodeError{Op: cy.ins.Op, Warrior: cy.p.Warrior, Process: cy.p.ID, PC: cy.pc}
}

var ops = func() map[redcode.Opcode]opFunc {
	ops := map[redcode.Opcode]opFunc{}

	// dat. Kills the process.
	ops[redcode.DAT] = func(c *Core, cy *cycle) (int, bool, error) {
		cy.p.Alive = false
		return 0, false, nil
	}

	// mov. Copies the selected field(s), or the whole instruction for .I.
	ops[redcode.MOV] = func(c *Core, cy *cycle) (int, bool, error) {
		target := c.arena.cell(cy.dst.addr)
		if cy.ins.Mod == redcode.ModI {
			*target = cy.src.ins
		} else {
			for _, elem := range pairs(cy.ins.Mod) {
				set(target, elem.dst, get(cy.src.ins, elem.src))
			}
		}
		c.arena.Touch(cy.dst.addr, cy.p.Warrior, AccessWrite)
		return 0, false, nil
	}

	ops[redcode.ADD] = mathOp(opAdd, false)
	ops[redcode.SUB] = mathOp(opSub, false)
	ops[redcode.MUL] = mathOp(opMul, false)
	ops[redcode.DIV] = mathOp(opDiv, true)
	ops[redcode.MOD] = mathOp(opMod, true)

	ops[redcode.JMP] = func(c *Core, cy *cycle) (int, bool, error) {
		return cy.src.addr, true, nil
	}
	ops[redcode.JMZ] = jumpIf(func(v int) bool { return v == 0 })
	ops[redcode.JMN] = jumpIf(func(v int) bool { return v != 0 })

	// djn. Decrements the destination cell, then jumps to the source
	// if every decremented field is non-zero.
	ops[redcode.DJN] = func(c *Core, cy *cycle) (int, bool, error) {
		target := c.arena.cell(cy.dst.addr)
		jump := true
		for _, fl := range tested(cy.ins.Mod) {
			v := get(*target, fl) - 1
			set(target, fl, v)
			if v == 0 {
				jump = false
			}
		}
		c.arena.Touch(cy.dst.addr, cy.p.Warrior, AccessWrite)
		if !jump {
			return 0, false, nil
		}
		return cy.src.addr, true, nil
	}

	ops[redcode.CMP] = skipIf(equal)
	ops[redcode.SEQ] = ops[redcode.CMP]
	ops[redcode.SNE] = skipIf(func(cy *cycle) bool { return !equal(cy) })
	ops[redcode.SLT] = skipIf(lower)

	ops[redcode.NOP] = func(c *Core, cy *cycle) (int, bool, error) { return 0, false, nil }

	ops[redcode.DJZ] = unsupported
	ops[redcode.LDP] = unsupported
	ops[redcode.STP] = unsupported
	ops[redcode.SPL] = unsupported

	return ops
}()

// exec runs the instruction under p's program counter and updates it.
func (c *Core) exec(p *Process) error {
	pc := p.PC
	ins := c.arena.Read(pc)
	c.arena.Touch(pc, p.Warrior, AccessExec)

	cy := &cycle{p: p, pc: pc, ins: ins}
	cy.src = c.resolve(p, pc, ins.A)
	cy.dst = c.resolve(p, pc, ins.B)

	if c.Config.Debug {
		c.message(NewMessage(MsgDebug, p.Warrior, p.ID, fmt.Sprintf("%06d %s", pc, ins)))
	}

	fn, ok := ops[ins.Op]
	if !ok {
		fn = unsupported
	}
	next, jump, err := fn(c, cy)
	if err != nil {
		p.Alive = false
		p.PC = c.arena.Wrap(pc, 1)
		return err
	}
	if jump {
		p.PC = next
	} else {
		p.PC = c.arena.Wrap(pc, 1)
	}
	return nil
}
