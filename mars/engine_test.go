package mars

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.creack.net/mars/redcode"
)

// runOne loads code at address 0 of a small core and steps once.
func runOne(t *testing.T, code ...redcode.Instruction) (*Core, error) {
	t.Helper()
	c := NewCore(Config{CoreSize: 100, Seed: 1})
	require.NoError(t, c.LoadWarriors([]WarriorSpec{{Title: "test", Code: code, Fixed: true}}))
	return c, c.Step()
}

func pc(c *Core) int { return c.Processes()[0].PC }

func TestImp(t *testing.T) {
	assert := assert.New(t)

	for _, start := range []int{100, 7999} {
		c := NewCore(Config{Seed: 1})
		spec := Imp()
		spec.Start, spec.Fixed = start, true
		require.NoError(t, c.LoadWarriors([]WarriorSpec{spec}))
		original := c.ReadCell(start)

		assert.NoError(c.Step())
		assert.Equal(original, c.ReadCell(Wrap(start, 1, 8000)))
		assert.Equal(Wrap(start, 1, 8000), pc(c))
	}
}

func TestDwarf(t *testing.T) {
	assert := assert.New(t)

	const start = 100
	c := NewCore(Config{Seed: 1})
	spec := Dwarf()
	spec.Start, spec.Fixed = start, true
	require.NoError(t, c.LoadWarriors([]WarriorSpec{spec}))

	for range 4 {
		assert.NoError(c.Step())
	}

	// First bomb lands 4 cells past the DAT, the counter moved on to 8.
	assert.Equal(redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 4), c.ReadCell(start+7))
	assert.Equal(redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 8), c.ReadCell(start+3))
	assert.Equal(start+1, pc(c))
}

func TestFieldOps(t *testing.T) {
	assert := assert.New(t)

	src := redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 3, redcode.Immediate, 4)
	dst := redcode.New(redcode.DAT, redcode.ModF, redcode.Direct, 7, redcode.Direct, 9)
	d := func(a, b int) redcode.Instruction { return redcode.New(redcode.DAT, redcode.ModF, redcode.Direct, a, redcode.Direct, b) }

	table := []struct {
		op     redcode.Opcode
		mod    redcode.Modifier
		expect redcode.Instruction
	}{
		{redcode.MOV, redcode.ModA, d(3, 9)},
		{redcode.MOV, redcode.ModB, d(7, 4)},
		{redcode.MOV, redcode.ModAB, d(7, 3)},
		{redcode.MOV, redcode.ModBA, d(4, 9)},
		{redcode.MOV, redcode.ModF, d(3, 4)},
		{redcode.MOV, redcode.ModX, d(4, 3)},
		{redcode.MOV, redcode.ModI, src},
		{redcode.ADD, redcode.ModA, d(10, 9)},
		{redcode.ADD, redcode.ModB, d(7, 13)},
		{redcode.ADD, redcode.ModAB, d(7, 12)},
		{redcode.ADD, redcode.ModBA, d(11, 9)},
		{redcode.ADD, redcode.ModF, d(10, 13)},
		{redcode.ADD, redcode.ModX, d(11, 12)},
		{redcode.ADD, redcode.ModI, d(10, 13)},
		{redcode.SUB, redcode.ModF, d(4, 5)},
		{redcode.SUB, redcode.ModAB, d(7, 6)},
		{redcode.MUL, redcode.ModF, d(21, 36)},
		{redcode.DIV, redcode.ModF, d(2, 2)},
		{redcode.MOD, redcode.ModF, d(1, 1)},
		{redcode.MOD, redcode.ModX, d(3, 0)},
	}

	for _, entry := range table {
		c, err := runOne(t, redcode.New(entry.op, entry.mod, redcode.Direct, 1, redcode.Direct, 2), src, dst)
		assert.NoError(err, "%s.%s", entry.op, entry.mod)
		assert.Equal(entry.expect, c.ReadCell(2), "%s.%s", entry.op, entry.mod)
		assert.Equal(1, pc(c))
	}
}

func TestDivideByZero(t *testing.T) {
	assert := assert.New(t)

	src := redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 4)
	dst := redcode.New(redcode.DAT, redcode.ModF, redcode.Direct, 7, redcode.Direct, 9)

	for _, op := range []redcode.Opcode{redcode.DIV, redcode.MOD} {
		c, err := runOne(t, redcode.New(op, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), src, dst)
		var aerr *ArithmeticError
		assert.True(errors.As(err, &aerr))
		assert.Equal(op, aerr.Op)
		assert.Equal(dst, c.ReadCell(2), "destination must be untouched")
		assert.False(c.Processes()[0].Alive)
	}

	// Only the selected divisor matters.
	c, err := runOne(t, redcode.New(redcode.DIV, redcode.ModB, redcode.Direct, 1, redcode.Direct, 2), src, dst)
	assert.NoError(err)
	assert.Equal(redcode.New(redcode.DAT, redcode.ModF, redcode.Direct, 7, redcode.Direct, 2), c.ReadCell(2))
}

func TestJumps(t *testing.T) {
	assert := assert.New(t)

	nop := redcode.New(redcode.NOP, redcode.ModF, redcode.Direct, 0, redcode.Direct, 0)
	data := func(a, b int) redcode.Instruction { return redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, a, redcode.Immediate, b) }

	table := []struct {
		name   string
		ins    redcode.Instruction
		cell   redcode.Instruction
		expect int
	}{
		{"jmp", redcode.New(redcode.JMP, redcode.ModB, redcode.Direct, 2, redcode.Direct, 0), data(0, 0), 2},
		{"jmz.f both zero", redcode.New(redcode.JMZ, redcode.ModF, redcode.Direct, 2, redcode.Direct, 0), data(0, 0), 2},
		{"jmz.f one zero", redcode.New(redcode.JMZ, redcode.ModF, redcode.Direct, 2, redcode.Direct, 0), data(0, 1), 1},
		{"jmz.a", redcode.New(redcode.JMZ, redcode.ModA, redcode.Direct, 2, redcode.Direct, 0), data(0, 1), 2},
		{"jmz.b", redcode.New(redcode.JMZ, redcode.ModB, redcode.Direct, 2, redcode.Direct, 0), data(0, 1), 1},
		{"jmz.ba", redcode.New(redcode.JMZ, redcode.ModBA, redcode.Direct, 2, redcode.Direct, 0), data(0, 1), 2},
		{"jmn.f one zero", redcode.New(redcode.JMN, redcode.ModF, redcode.Direct, 2, redcode.Direct, 0), data(0, 1), 1},
		{"jmn.f none zero", redcode.New(redcode.JMN, redcode.ModF, redcode.Direct, 2, redcode.Direct, 0), data(3, 1), 2},
		{"jmn.ab", redcode.New(redcode.JMN, redcode.ModAB, redcode.Direct, 2, redcode.Direct, 0), data(0, 1), 2},
		{"jmp negative", redcode.New(redcode.JMP, redcode.ModB, redcode.Direct, -1, redcode.Direct, 0), data(0, 0), 99},
	}

	for _, entry := range table {
		c, err := runOne(t, entry.ins, nop, entry.cell)
		assert.NoError(err, entry.name)
		assert.Equal(entry.expect, pc(c), entry.name)
	}
}

func TestDJN(t *testing.T) {
	assert := assert.New(t)

	nop := redcode.New(redcode.NOP, redcode.ModF, redcode.Direct, 0, redcode.Direct, 0)
	djn := redcode.New(redcode.DJN, redcode.ModB, redcode.Direct, 2, redcode.Direct, 3)

	c, err := runOne(t, djn, nop, nop, redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 2))
	assert.NoError(err)
	assert.Equal(1, c.ReadCell(3).B.Value)
	assert.Equal(2, pc(c))

	c, err = runOne(t, djn, nop, nop, redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 1))
	assert.NoError(err)
	assert.Equal(0, c.ReadCell(3).B.Value)
	assert.Equal(1, pc(c))

	// DJN is not JMN: a field that is non-zero before the decrement
	// but zero after it does not jump.
	c, err = runOne(t, redcode.New(redcode.DJN, redcode.ModF, redcode.Direct, 2, redcode.Direct, 3), nop, nop, redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 5, redcode.Immediate, 1))
	assert.NoError(err)
	assert.Equal(redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 4, redcode.Immediate, 0), c.ReadCell(3))
	assert.Equal(1, pc(c))
}

func TestSkips(t *testing.T) {
	assert := assert.New(t)

	data := func(a, b int) redcode.Instruction { return redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, a, redcode.Immediate, b) }

	table := []struct {
		name     string
		ins      redcode.Instruction
		src, dst redcode.Instruction
		expect   int
	}{
		{"cmp.f equal", redcode.New(redcode.CMP, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 2), 2},
		{"cmp.f only a equal", redcode.New(redcode.CMP, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 3), 1},
		{"seq.f only a equal", redcode.New(redcode.SEQ, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 3), 1},
		{"seq.a", redcode.New(redcode.SEQ, redcode.ModA, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 3), 2},
		{"seq.x", redcode.New(redcode.SEQ, redcode.ModX, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(2, 1), 2},
		{"seq.i equal", redcode.New(redcode.SEQ, redcode.ModI, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 2), 2},
		{"seq.i modes differ", redcode.New(redcode.SEQ, redcode.ModI, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), redcode.New(redcode.DAT, redcode.ModF, redcode.Direct, 1, redcode.Immediate, 2), 1},
		{"sne.f differ", redcode.New(redcode.SNE, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 3), 2},
		{"sne.f equal", redcode.New(redcode.SNE, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), data(1, 2), 1},
		{"sne.i modes differ", redcode.New(redcode.SNE, redcode.ModI, redcode.Direct, 1, redcode.Direct, 2), data(1, 2), redcode.New(redcode.DAT, redcode.ModF, redcode.Direct, 1, redcode.Immediate, 2), 2},
		{"slt.a lower", redcode.New(redcode.SLT, redcode.ModA, redcode.Direct, 1, redcode.Direct, 2), data(1, 9), data(2, 0), 2},
		{"slt.a equal", redcode.New(redcode.SLT, redcode.ModA, redcode.Direct, 1, redcode.Direct, 2), data(2, 0), data(2, 0), 1},
		{"slt.f one lower", redcode.New(redcode.SLT, redcode.ModF, redcode.Direct, 1, redcode.Direct, 2), data(1, 5), data(2, 5), 1},
	}

	for _, entry := range table {
		c, err := runOne(t, entry.ins, entry.src, entry.dst)
		assert.NoError(err, entry.name)
		assert.Equal(entry.expect, pc(c), entry.name)
	}
}

func TestIncrementModes(t *testing.T) {
	assert := assert.New(t)

	// A post-increment: target uses the old A-field, then bumps it.
	c, err := runOne(t, redcode.New(redcode.MOV, redcode.ModAB, redcode.Immediate, 5, redcode.APostIncrement, 1), redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 2, redcode.Immediate, 0))
	assert.NoError(err)
	assert.Equal(3, c.ReadCell(1).A.Value)
	assert.Equal(5, c.ReadCell(3).B.Value)

	// B pre-decrement: the pointer is decremented before use.
	c, err = runOne(t, redcode.New(redcode.MOV, redcode.ModAB, redcode.Immediate, 5, redcode.BPreDecrement, 1), redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, 3))
	assert.NoError(err)
	assert.Equal(2, c.ReadCell(1).B.Value)
	assert.Equal(5, c.ReadCell(3).B.Value)

	// A-indirect reads without mutating.
	c, err = runOne(t, redcode.New(redcode.MOV, redcode.ModAB, redcode.Immediate, 5, redcode.AIndirect, 1), redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 2, redcode.Immediate, 0))
	assert.NoError(err)
	assert.Equal(2, c.ReadCell(1).A.Value)
	assert.Equal(5, c.ReadCell(3).B.Value)
}

func TestHugePointers(t *testing.T) {
	assert := assert.New(t)

	for _, entry := range []struct {
		name string
		mode redcode.Mode
		ptr  int
	}{
		{"indirect", redcode.BIndirect, math.MaxInt},
		{"post-increment", redcode.BPostIncrement, math.MaxInt},
		{"pre-decrement", redcode.BPreDecrement, math.MinInt},
	} {
		bomb := redcode.New(redcode.DAT, redcode.ModF, redcode.Immediate, 0, redcode.Immediate, entry.ptr)
		c, err := runOne(t, redcode.New(redcode.MOV, redcode.ModI, redcode.Direct, 1, entry.mode, 1), bomb)
		assert.NoError(err, entry.name)

		// MaxInt is 7 past a multiple of 100, so the target is 1+7.
		assert.Equal(redcode.Empty, c.ReadCell(92), entry.name)
		assert.Equal(redcode.DAT, c.ReadCell(8).Op, entry.name)
		assert.Equal(0, c.ReadCell(8).A.Value, entry.name)
	}
}

func TestUnsupported(t *testing.T) {
	assert := assert.New(t)

	for _, op := range []redcode.Opcode{redcode.SPL, redcode.LDP, redcode.STP, redcode.DJZ} {
		c := NewCore(Config{CoreSize: 100, Seed: 1})
		require.NoError(t, c.LoadWarriors([]WarriorSpec{
			{Title: "bad", Code: []redcode.Instruction{redcode.New(op, redcode.ModB, redcode.Direct, 0, redcode.Direct, 0)}, Fixed: true},
			fixed(Imp(), 50),
		}))

		err := c.Step()
		var uerr *UnsupportedOpcodeError
		assert.True(errors.As(err, &uerr), op.String())
		assert.Equal(op, uerr.Op)
		assert.ErrorIs(err, &UnsupportedOpcodeError{})

		assert.NoError(c.Step(), "other warriors keep running")
		procs := c.Processes()
		assert.False(procs[0].Alive)
		assert.False(procs[0].ProgramAlive)
		assert.True(procs[1].Alive)
		assert.Equal(51, procs[1].PC)
	}
}

func TestActivity(t *testing.T) {
	assert := assert.New(t)

	c := NewCore(Config{CoreSize: 100, Seed: 1})
	require.NoError(t, c.LoadWarriors([]WarriorSpec{fixed(Imp(), 10)}))
	assert.Equal([]int{10}, c.PopTouched())

	assert.NoError(c.Step())
	assert.ElementsMatch([]int{10, 11}, c.PopTouched())

	act := c.Activity()
	assert.Len(act, 100)
	assert.Equal(CellActivity{Warrior: 0, Access: AccessWrite}, act[11])
	assert.Equal(CellActivity{Warrior: 0, Access: AccessRead}, act[10])
	assert.Equal(CellActivity{Warrior: -1}, act[12])
}
