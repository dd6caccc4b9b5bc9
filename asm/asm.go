// Package asm assembles Redcode source into warriors.
//
// The accepted dialect is the ICWS'94 one without macros: labels (with
// an optional colon), opcode.modifier, the eight addressing modes,
// integer expressions over labels and EQU constants, ORG, END, and the
// ";name" / ";author" comments.
package asm

import (
	"path/filepath"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"go.creack.net/mars/mars"
	"go.creack.net/mars/redcode"
)

// Program is an assembled warrior.
type Program struct {
	Name   string
	Author string
	Code   []redcode.Instruction
	Entry  int            // Offset of the first instruction to run.
	Labels map[string]int // Label to instruction offset.
}

// Spec returns the loader request for the program.
func (prog *Program) Spec() mars.WarriorSpec {
	return mars.WarriorSpec{
		Title:  prog.Name,
		Author: prog.Author,
		Code:   prog.Code,
		Entry:  prog.Entry,
	}
}

// Assemble parses and assembles src. name is used in errors and as the
// warrior name when the source has no ";name" comment.
func Assemble(name, src string) (*Program, error) {
	p := newParser(name, src)
	if err := p.parse(); err != nil {
		return nil, err
	}
	if len(p.stmts) == 0 {
		return nil, &SyntaxError{Name: name, Line: p.currToken.line, Err: ErrEmptyProgram}
	}

	prog := &Program{
		Name:   p.title,
		Author: p.author,
		Code:   make([]redcode.Instruction, 0, len(p.stmts)),
		Labels: p.labels,
	}
	if prog.Name == "" {
		prog.Name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	for idx, st := range p.stmts {
		ins, err := p.assemble(idx, st)
		if err != nil {
			return nil, err
		}
		prog.Code = append(prog.Code, ins)
	}

	if p.org != nil {
		entry, err := p.eval(0, p.orgLine, p.org)
		if err != nil {
			return nil, err
		}
		prog.Entry = entry
	}
	return prog, nil
}

// Compile assembles src into a loader request.
func Compile(name, src string) (mars.WarriorSpec, error) {
	prog, err := Assemble(name, src)
	if err != nil {
		return mars.WarriorSpec{}, err
	}
	return prog.Spec(), nil
}

// assemble evaluates the statement at index idx.
func (p *parser) assemble(idx int, st statement) (redcode.Instruction, error) {
	ins := redcode.Instruction{Op: st.op}

	values := make([]int, 0, len(st.operands))
	for _, opd := range st.operands {
		v, err := p.eval(idx, st.line, opd.expr)
		if err != nil {
			return ins, err
		}
		values = append(values, v)
	}

	switch {
	case len(st.operands) == 2:
		ins.A = redcode.Operand{Mode: st.operands[0].mode, Value: values[0]}
		ins.B = redcode.Operand{Mode: st.operands[1].mode, Value: values[1]}
	case st.op == redcode.DAT:
		// A lone DAT operand is the B-field.
		ins.A = redcode.Operand{Mode: redcode.Immediate}
		ins.B = redcode.Operand{Mode: st.operands[0].mode, Value: values[0]}
	default:
		ins.A = redcode.Operand{Mode: st.operands[0].mode, Value: values[0]}
		ins.B = redcode.Operand{Mode: redcode.Direct}
	}

	ins.Mod = st.mod
	if !st.hasMod {
		ins.Mod = redcode.DefaultModifier(ins.Op, ins.A.Mode, ins.B.Mode)
	}
	return ins, nil
}

// env returns the values visible from the instruction at idx: labels
// are relative to it, equates are evaluated in definition order.
func (p *parser) env(idx int) (starlark.StringDict, error) {
	pred := starlark.StringDict{}
	for name, at := range p.labels {
		pred[global(name)] = starlark.MakeInt(at - idx)
	}
	for _, elem := range p.equates {
		v, err := p.evalIn(pred, elem.line, elem.expr)
		if err != nil {
			return nil, err
		}
		pred[global(elem.name)] = starlark.MakeInt(v)
	}
	return pred, nil
}

func (p *parser) eval(idx, line int, expr []item) (int, error) {
	pred, err := p.env(idx)
	if err != nil {
		return 0, err
	}
	return p.evalIn(pred, line, expr)
}

// Names as seen by starlark. Labels get a prefix so they can't clash
// with keywords or with the result.
const resultName = "rc"

func global(label string) string { return "l_" + label }

// evalIn runs the expression through starlark. Division truncates
// toward negative infinity.
func (p *parser) evalIn(pred starlark.StringDict, line int, expr []item) (int, error) {
	words := make([]string, 0, len(expr))
	shown := make([]string, 0, len(expr))
	for _, elem := range expr {
		shown = append(shown, elem.val)
		switch {
		case elem.typ == itemIdentifier:
			if _, ok := pred[global(elem.val)]; !ok {
				return 0, p.errorf(line, ErrLabelMissing, "%q", elem.val)
			}
			words = append(words, global(elem.val))
		case elem.typ == itemNumber:
			// Starlark rejects leading zeros.
			n, err := strconv.Atoi(elem.val)
			if err != nil {
				return 0, p.errorf(line, ErrExpression, "%s: %v", elem.val, err)
			}
			words = append(words, strconv.Itoa(n))
		case elem.typ == itemOperator && elem.val == "/":
			words = append(words, "//")
		default:
			words = append(words, elem.val)
		}
	}
	text := strings.Join(shown, " ")

	thread := &starlark.Thread{Name: p.name}
	src := resultName + " = " + strings.Join(words, " ") + "\n"
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, p.name, src, pred)
	if err != nil {
		return 0, p.errorf(line, ErrExpression, "%s: %v", text, err)
	}
	rc, ok := globals[resultName].(starlark.Int)
	if !ok {
		return 0, p.errorf(line, ErrExpression, "%s is not an integer", text)
	}
	v, ok := rc.Int64()
	if !ok {
		return 0, p.errorf(line, ErrExpression, "%s overflows", text)
	}
	return int(v), nil
}
