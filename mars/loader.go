package mars

import (
	"fmt"
	"slices"

	"go.creack.net/mars/redcode"
)

// WarriorSpec is what a host hands to LoadWarriors.
type WarriorSpec struct {
	Title  string
	Author string
	Code   []redcode.Instruction
	Entry  int // Offset of the first instruction to execute (ORG).
	Tag    int // Display tag, defaults to ID+1.

	Start int  // Start address, only used when Fixed is set.
	Fixed bool // Use Start instead of a random address.
}

// Warrior is a loaded program. Never mutated after loading.
type Warrior struct {
	ID     int
	Title  string
	Author string
	Code   []redcode.Instruction
	Start  int
	Entry  int
	Tag    int
}

// placement is a chosen start address for a spec.
type placement struct {
	spec  WarriorSpec
	start int
}

// footprint returns the wrapped addresses covered by n cells from start.
func footprint(start, n, size int) []int {
	out := make([]int, 0, n)
	for i := range n {
		out = append(out, Wrap(start, i, size))
	}
	return out
}

func overlaps(occupied []bool, cells []int) bool {
	return slices.ContainsFunc(cells, func(addr int) bool { return occupied[addr] })
}

func mark(occupied []bool, cells []int) {
	for _, addr := range cells {
		occupied[addr] = true
	}
}

// place picks non-overlapping start addresses for every spec. The given
// occupancy map is left untouched.
func (c *Core) place(specs []WarriorSpec) ([]placement, error) {
	size := c.arena.Size()

	total := 0
	for _, elem := range c.occupied {
		if elem {
			total++
		}
	}
	for _, spec := range specs {
		if len(spec.Code) == 0 {
			return nil, fmt.Errorf("load %q: %w", spec.Title, ErrEmptyWarrior)
		}
		for i, ins := range spec.Code {
			if !ins.Valid() {
				return nil, &InstructionError{Warrior: spec.Title, Offset: i, Ins: ins}
			}
		}
		total += len(spec.Code)
	}
	if total > size {
		return nil, &PlacementError{
			Warrior: specs[len(specs)-1].Title,
			Reason:  f("footprints need %d cells, arena has %d", total, size),
		}
	}

	occupied := slices.Clone(c.occupied)
	out := make([]placement, 0, len(specs))
	for _, spec := range specs {
		if spec.Fixed {
			start := Wrap(spec.Start, 0, size)
			cells := footprint(start, len(spec.Code), size)
			if overlaps(occupied, cells) {
				return nil, &PlacementError{Warrior: spec.Title, Attempts: 1, Reason: f("fixed start %d overlaps", start)}
			}
			mark(occupied, cells)
			out = append(out, placement{spec: spec, start: start})
			continue
		}

		placed := false
		for range c.Config.PlacementRetries {
			start := c.rng.IntN(size)
			cells := footprint(start, len(spec.Code), size)
			if overlaps(occupied, cells) {
				continue
			}
			mark(occupied, cells)
			out = append(out, placement{spec: spec, start: start})
			placed = true
			break
		}
		if !placed {
			return nil, &PlacementError{Warrior: spec.Title, Attempts: c.Config.PlacementRetries, Reason: f("no free footprint")}
		}
	}
	return out, nil
}

// LoadWarriors places the warriors in the arena and queues one process
// for each. Either every warrior is loaded or none is.
func (c *Core) LoadWarriors(specs []WarriorSpec) error {
	if len(specs) == 0 {
		return nil
	}
	placements, err := c.place(specs)
	if err != nil {
		return err
	}

	size := c.arena.Size()
	for _, pl := range placements {
		w := &Warrior{
			ID:     len(c.warriors),
			Title:  pl.spec.Title,
			Author: pl.spec.Author,
			Code:   slices.Clone(pl.spec.Code),
			Start:  pl.start,
			Entry:  pl.spec.Entry,
			Tag:    pl.spec.Tag,
		}
		if w.Tag == 0 {
			w.Tag = w.ID + 1
		}
		c.warriors = append(c.warriors, w)

		cells := footprint(w.Start, len(w.Code), size)
		mark(c.occupied, cells)
		for i, addr := range cells {
			c.arena.Write(addr, w.Code[i])
			c.arena.Touch(addr, w.ID, AccessWrite)
		}

		c.queue.Append(&Process{
			Warrior:      w.ID,
			ID:           0,
			ProgramAlive: true,
			Alive:        true,
			PC:           Wrap(w.Start, w.Entry, size),
		})
		c.message(NewMessage(MsgLoad, w.ID, 0, f("Warrior %d (%s) loaded at %d", w.ID, w.Title, w.Start)))
	}
	return nil
}
