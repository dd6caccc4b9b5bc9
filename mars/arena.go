package mars

import "go.creack.net/mars/redcode"

// AccessType tells how a cell was last used.
type AccessType int

const (
	AccessNone AccessType = iota
	AccessWrite
	AccessRead
	AccessExec
)

func (at AccessType) String() string {
	switch at {
	case AccessWrite:
		return "write"
	case AccessRead:
		return "read"
	case AccessExec:
		return "exec"
	default:
		return "none"
	}
}

// CellActivity is the visualisation signal of one cell.
type CellActivity struct {
	Warrior int // Who last used the cell, -1 if nobody.
	Access  AccessType
}

var noActivity = CellActivity{Warrior: -1}

// Wrap returns addr+delta folded into [0, size).
func Wrap(addr, delta, size int) int {
	// Reduce both terms first so the sum can't overflow.
	return ((addr%size+delta%size)%size + size) % size
}

// Arena is the circular instruction memory.
type Arena struct {
	cells    []redcode.Instruction
	activity []CellActivity
	touched  []int // Addresses whose activity changed since the last pop.
}

// NewArena allocates an arena of the given size, filled with redcode.Empty.
func NewArena(size int) *Arena {
	if size <= 0 {
		panic(IndexError{Addr: 0, Size: size})
	}
	a := &Arena{
		cells:    make([]redcode.Instruction, size),
		activity: make([]CellActivity, size),
	}
	a.Reset()
	return a
}

func (a *Arena) Size() int { return len(a.cells) }

// Wrap folds addr+delta into the arena.
func (a *Arena) Wrap(addr, delta int) int { return Wrap(addr, delta, len(a.cells)) }

func (a *Arena) check(addr int) {
	if addr < 0 || addr >= len(a.cells) {
		panic(IndexError{Addr: addr, Size: len(a.cells)})
	}
}

// Read returns the instruction at addr, which must already be wrapped.
func (a *Arena) Read(addr int) redcode.Instruction {
	a.check(addr)
	return a.cells[addr]
}

// Write stores ins at addr, which must already be wrapped.
func (a *Arena) Write(addr int, ins redcode.Instruction) {
	a.check(addr)
	a.cells[addr] = ins
}

// cell returns a pointer for in-place field updates.
func (a *Arena) cell(addr int) *redcode.Instruction {
	a.check(addr)
	return &a.cells[addr]
}

// Reset clears every cell and the activity signal.
func (a *Arena) Reset() {
	for i := range a.cells {
		a.cells[i] = redcode.Empty
		a.activity[i] = noActivity
	}
	a.touched = a.touched[:0]
}

// Touch records that warrior used addr.
func (a *Arena) Touch(addr, warrior int, access AccessType) {
	a.check(addr)
	a.activity[addr] = CellActivity{Warrior: warrior, Access: access}
	a.touched = append(a.touched, addr)
}

// Activity returns the activity signal of addr.
func (a *Arena) Activity(addr int) CellActivity {
	a.check(addr)
	return a.activity[addr]
}

// PopTouched returns the addresses touched since the previous call,
// without duplicates, in first-touch order.
func (a *Arena) PopTouched() []int {
	out := make([]int, 0, len(a.touched))
	seen := make(map[int]struct{}, len(a.touched))
	for _, addr := range a.touched {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	a.touched = a.touched[:0]
	return out
}
