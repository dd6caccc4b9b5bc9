package redcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeTable(t *testing.T) {
	assert := assert.New(t)

	for i, elem := range OpcodeTable {
		assert.Equal(Opcode(i), elem.Code, elem.Name)
		op, ok := ParseOpcode(elem.Name)
		assert.True(ok)
		assert.Equal(elem.Code, op)
		assert.Equal(elem.Name, op.String())
	}

	op, ok := ParseOpcode("mov")
	assert.True(ok)
	assert.Equal(MOV, op)

	_, ok = ParseOpcode("XYZ")
	assert.False(ok)

	assert.Equal("???", Opcode(200).String())
	assert.False(Opcode(200).Valid())
	assert.True(MOV.Supported())
	assert.False(SPL.Supported())
	assert.False(Opcode(200).Supported())
}

func TestModifiers(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"A", "B", "AB", "BA", "F", "X", "I"} {
		m, ok := ParseModifier(name)
		assert.True(ok, name)
		assert.Equal(name, m.String())
	}
	m, ok := ParseModifier("ba")
	assert.True(ok)
	assert.Equal(ModBA, m)

	_, ok = ParseModifier("Q")
	assert.False(ok)
	assert.Equal("?", Modifier(42).String())
}

func TestDefaultModifier(t *testing.T) {
	table := []struct {
		op     Opcode
		a, b   Mode
		expect Modifier
	}{
		{DAT, Immediate, Immediate, ModF},
		{NOP, Direct, Direct, ModF},
		{MOV, Immediate, Direct, ModAB},
		{MOV, Direct, Immediate, ModB},
		{MOV, Direct, BIndirect, ModI},
		{CMP, Direct, Direct, ModI},
		{SNE, Immediate, Direct, ModAB},
		{ADD, Immediate, Direct, ModAB},
		{ADD, Direct, Immediate, ModB},
		{DIV, Direct, Direct, ModF},
		{SLT, Immediate, Direct, ModAB},
		{SLT, Direct, Direct, ModB},
		{JMP, Direct, Direct, ModB},
		{DJN, Immediate, Direct, ModB},
		{SPL, Direct, Direct, ModB},
	}

	for _, entry := range table {
		assert.Equal(t, entry.expect, DefaultModifier(entry.op, entry.a, entry.b), "%s %c %c", entry.op, entry.a.Sigil(), entry.b.Sigil())
	}
}

func TestModes(t *testing.T) {
	assert := assert.New(t)

	for i, r := range Sigils {
		m, ok := ModeFromSigil(r)
		assert.True(ok)
		assert.Equal(Mode(i), m)
		assert.Equal(byte(r), m.Sigil())
	}
	_, ok := ModeFromSigil('!')
	assert.False(ok)

	assert.False(Immediate.Indirect())
	assert.False(Direct.Indirect())
	assert.True(AIndirect.Indirect())
	assert.True(BPostIncrement.Indirect())
	assert.False(Mode(99).Indirect())

	assert.True(APreDecrement.UsesAField())
	assert.False(BPreDecrement.UsesAField())
	assert.Equal(byte('?'), Mode(99).Sigil())
}

func TestInstructionString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("MOV.I $0, $1", New(MOV, ModI, Direct, 0, Direct, 1).String())
	assert.Equal("JMP.B $-2, $0", New(JMP, ModB, Direct, -2, Direct, 0).String())
	assert.Equal("DAT.F #0, #0", Empty.String())
	assert.Equal("{-3", Operand{Mode: APreDecrement, Value: -3}.String())
}

func TestInstructionValid(t *testing.T) {
	assert := assert.New(t)

	assert.True(Empty.Valid())
	assert.True(New(MOV, ModI, BPostIncrement, 1, APreDecrement, 2).Valid())
	assert.False(Instruction{Op: Opcode(len(OpcodeTable)), Mod: ModF}.Valid())
	assert.False(Instruction{Op: MOV, Mod: Modifier(7)}.Valid())
	assert.False(New(MOV, ModI, Mode(len(Sigils)), 0, Direct, 0).Valid())
	assert.False(New(MOV, ModI, Direct, 0, Mode(99), 0).Valid())
}
