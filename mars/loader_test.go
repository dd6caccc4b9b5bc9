package mars

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.creack.net/mars/redcode"
)

func nops(title string, n int) WarriorSpec {
	code := make([]redcode.Instruction, n)
	for i := range code {
		code[i] = redcode.New(redcode.NOP, redcode.ModF, redcode.Direct, 0, redcode.Direct, 0)
	}
	return WarriorSpec{Title: title, Code: code}
}

func fixed(spec WarriorSpec, start int) WarriorSpec {
	spec.Start = start
	spec.Fixed = true
	return spec
}

func TestLoadNoOverlap(t *testing.T) {
	for seed := uint64(1); seed <= 300; seed++ {
		c := NewCore(Config{CoreSize: 20, Seed: seed})
		require.NoError(t, c.LoadWarriors([]WarriorSpec{nops("a", 7), nops("b", 9)}), "seed %d", seed)

		seen := map[int]int{}
		for _, w := range c.Warriors() {
			for _, addr := range footprint(w.Start, len(w.Code), c.Size()) {
				other, dup := seen[addr]
				require.False(t, dup, "seed %d: cell %d used by %d and %d", seed, addr, other, w.ID)
				seen[addr] = w.ID
			}
		}
		require.Len(t, seen, 16)
	}
}

func TestLoadDeterministic(t *testing.T) {
	assert := assert.New(t)

	starts := func() []int {
		c := NewCore(Config{Seed: 42})
		assert.NoError(c.LoadWarriors([]WarriorSpec{Imp(), Dwarf()}))
		var out []int
		for _, w := range c.Warriors() {
			out = append(out, w.Start)
		}
		return out
	}
	assert.Equal(starts(), starts())
}

func TestLoadFixed(t *testing.T) {
	assert := assert.New(t)

	c := NewCore(Config{CoreSize: 100})
	spec := Dwarf()
	spec.Entry = 1
	assert.NoError(c.LoadWarriors([]WarriorSpec{fixed(spec, 98)}))

	w := c.Warriors()[0]
	assert.Equal(98, w.Start)
	assert.Equal(1, w.Tag)
	assert.Equal(spec.Code[0], c.ReadCell(98))
	assert.Equal(spec.Code[2], c.ReadCell(0))
	assert.Equal(spec.Code[3], c.ReadCell(1))

	procs := c.Processes()
	assert.Len(procs, 1)
	assert.Equal(Process{Warrior: 0, ID: 0, ProgramAlive: true, Alive: true, PC: 99}, procs[0])
}

func TestLoadErrors(t *testing.T) {
	assert := assert.New(t)

	// Footprints larger than the arena are rejected up front.
	c := NewCore(Config{CoreSize: 10})
	err := c.LoadWarriors([]WarriorSpec{nops("a", 6), nops("b", 5)})
	var perr *PlacementError
	assert.True(errors.As(err, &perr))
	assert.Equal(0, perr.Attempts)
	assert.Empty(c.Warriors())

	// Fixed overlap.
	c = NewCore(Config{CoreSize: 10})
	err = c.LoadWarriors([]WarriorSpec{fixed(nops("a", 3), 0), fixed(nops("b", 3), 2)})
	assert.ErrorIs(err, &PlacementError{})
	assert.Empty(c.Warriors())

	// Enough free cells, but no run long enough.
	c = NewCore(Config{CoreSize: 10, PlacementRetries: 50})
	assert.NoError(c.LoadWarriors([]WarriorSpec{fixed(nops("a", 3), 0), fixed(nops("b", 3), 5)}))
	err = c.LoadWarriors([]WarriorSpec{nops("c", 3)})
	assert.True(errors.As(err, &perr))
	assert.Equal("c", perr.Warrior)
	assert.Equal(50, perr.Attempts)
	assert.Len(c.Warriors(), 2)

	// Empty code.
	c = NewCore(Config{CoreSize: 10})
	assert.ErrorIs(c.LoadWarriors([]WarriorSpec{{Title: "empty"}}), ErrEmptyWarrior)

	// Out of range opcode, modifier or mode. Nothing gets loaded.
	for _, ins := range []redcode.Instruction{
		{Op: redcode.Opcode(200), Mod: redcode.ModF},
		{Op: redcode.MOV, Mod: redcode.Modifier(7)},
		{Op: redcode.MOV, Mod: redcode.ModI, A: redcode.Operand{Mode: redcode.Mode(8)}},
		{Op: redcode.MOV, Mod: redcode.ModI, B: redcode.Operand{Mode: redcode.Mode(99)}},
	} {
		c = NewCore(Config{CoreSize: 10})
		bad := nops("bad", 3)
		bad.Code[1] = ins
		err = c.LoadWarriors([]WarriorSpec{nops("good", 2), bad})
		var ierr *InstructionError
		if assert.True(errors.As(err, &ierr), "%v", ins) {
			assert.Equal("bad", ierr.Warrior)
			assert.Equal(1, ierr.Offset)
		}
		assert.Empty(c.Warriors())
		assert.Empty(c.PopTouched())
	}
}

func TestLoadAppends(t *testing.T) {
	assert := assert.New(t)

	c := NewCore(Config{CoreSize: 10, Seed: 7})
	assert.NoError(c.LoadWarriors([]WarriorSpec{fixed(nops("a", 5), 0)}))
	assert.NoError(c.LoadWarriors([]WarriorSpec{nops("b", 5)}))

	ws := c.Warriors()
	assert.Len(ws, 2)
	assert.Equal(1, ws[1].ID)
	assert.Equal(5, ws[1].Start)
	assert.Len(c.Processes(), 2)
}
