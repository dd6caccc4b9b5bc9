// Package mars is a Redcode simulator: a circular instruction arena,
// a warrior loader, a round-robin process scheduler and the
// fetch/decode/execute engine driving them.
//
// The core is single threaded. Only the goroutine calling Step or Run
// may touch it, except for SetRunning which can be called from anywhere.
package mars

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"

	"go.creack.net/mars/redcode"
)

// Default settings.
const (
	DefaultCoreSize         = 8000
	DefaultCycleBudget      = 1000
	DefaultPlacementRetries = 1000
)

type Config struct {
	CoreSize         int    // Number of cells in the arena.
	CycleBudget      int    // Steps Run may execute, 0 for no limit.
	PlacementRetries int    // Random start addresses tried per warrior.
	Seed             uint64 // Placement seed, 0 picks one.
	PruneDead        bool   // Drop dead processes from the rotation.
	Debug            bool   // Record a MsgDebug trace of every step.
}

func DefaultConfig() Config {
	return Config{
		CoreSize:         DefaultCoreSize,
		CycleBudget:      DefaultCycleBudget,
		PlacementRetries: DefaultPlacementRetries,
	}
}

type Core struct {
	Config Config

	arena    *Arena
	occupied []bool // Loader occupancy bitmap.
	warriors []*Warrior
	queue    Queue

	seed uint64
	rng  *rand.Rand

	running atomic.Bool
	cycle   int // Steps executed since the last reset.

	messages []Message
}

// NewCore allocates a core. Zero config values are replaced by defaults.
func NewCore(cfg Config) *Core {
	def := DefaultConfig()
	if cfg.CoreSize <= 0 {
		cfg.CoreSize = def.CoreSize
	}
	if cfg.CycleBudget < 0 {
		cfg.CycleBudget = def.CycleBudget
	}
	if cfg.PlacementRetries <= 0 {
		cfg.PlacementRetries = def.PlacementRetries
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	return &Core{
		Config:   cfg,
		arena:    NewArena(cfg.CoreSize),
		occupied: make([]bool, cfg.CoreSize),
		seed:     seed,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (c *Core) message(msg Message) { c.messages = append(c.messages, msg) }

// PopMessages returns and clears the recorded messages.
func (c *Core) PopMessages() []Message {
	out := c.messages
	c.messages = nil
	return out
}

func (c *Core) SetRunning(flag bool) { c.running.Store(flag) }
func (c *Core) Running() bool        { return c.running.Load() }

// SetCycleBudget sets how many steps Run may execute in total, 0 for no limit.
func (c *Core) SetCycleBudget(n int) { c.Config.CycleBudget = max(n, 0) }

func (c *Core) Cycle() int   { return c.cycle }
func (c *Core) Size() int    { return c.arena.Size() }
func (c *Core) Seed() uint64 { return c.seed }

// Reset returns the core to its empty state. The placement sequence
// starts over from the seed.
func (c *Core) Reset() {
	c.arena.Reset()
	clear(c.occupied)
	c.warriors = nil
	c.queue.Reset()
	c.cycle = 0
	c.running.Store(false)
	c.rng = rand.New(rand.NewPCG(c.seed, c.seed^0x9e3779b97f4a7c15))
	c.message(NewMessage(MsgClear, -1, 0, ""))
}

// Step executes one instruction for the process under the cursor and
// advances the cursor. A process killed by a fault is reported through
// the returned *UnsupportedOpcodeError or *ArithmeticError; the
// simulation itself is unaffected.
func (c *Core) Step() error {
	p, err := c.queue.Current()
	if err != nil {
		return err
	}
	c.cycle++

	// Dead entries keep their slot but do nothing.
	if !p.Alive {
		c.queue.Advance()
		return nil
	}

	err = c.exec(p)
	if err != nil {
		c.message(NewMessage(MsgError, p.Warrior, p.ID, err.Error()))
	}
	if !p.Alive {
		c.bury(p)
	}

	if !p.Alive && c.Config.PruneDead {
		c.queue.RemoveCurrent()
	} else {
		c.queue.Advance()
	}
	return err
}

// bury records the death of p and of its warrior if it was the last.
func (c *Core) bury(p *Process) {
	w := c.warriors[p.Warrior]
	c.message(NewMessage(MsgDead, p.Warrior, p.ID, f("Process %d of %s died", p.ID, w.Title)))

	alive := false
	c.queue.Each(func(elem *Process) {
		if elem.Warrior == p.Warrior && elem.Alive {
			alive = true
		}
	})
	if alive {
		return
	}
	c.queue.Each(func(elem *Process) {
		if elem.Warrior == p.Warrior {
			elem.ProgramAlive = false
		}
	})
	c.message(NewMessage(MsgDead, p.Warrior, -1, f("Warrior %d (%s) died", w.ID, w.Title)))
}

// alive returns the IDs of warriors with at least one live process.
func (c *Core) alive() []int {
	var out []int
	c.queue.Each(func(p *Process) {
		if p.Alive && !slices.Contains(out, p.Warrior) {
			out = append(out, p.Warrior)
		}
	})
	return out
}

// GameOver reports whether the battle is decided: nobody is alive, or
// only one of several warriors is.
func (c *Core) GameOver() bool {
	if len(c.warriors) == 0 {
		return false
	}
	n := len(c.alive())
	return n == 0 || (len(c.warriors) > 1 && n == 1)
}

// Winner returns the last warrior standing, if any.
func (c *Core) Winner() (Warrior, bool) {
	ids := c.alive()
	if len(c.warriors) < 2 || len(ids) != 1 {
		return Warrior{}, false
	}
	return *c.warriors[ids[0]], true
}

// Run steps the core while it is running, until the cycle budget is
// spent, the game is over (io.EOF) or ctx is done. It returns the
// number of steps executed.
func (c *Core) Run(ctx context.Context) (int, error) {
	if !c.Running() {
		return 0, ErrNotRunning
	}
	steps := 0
	for c.Running() {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		if err := c.tick(); err != nil {
			return steps, err
		}
		steps++
	}
	return steps, nil
}

// RunSteps is Run for hosts pacing the core themselves: it executes at
// most n steps under the same rules. A game decided by the last step is
// reported right away.
func (c *Core) RunSteps(n int) (int, error) {
	if !c.Running() {
		return 0, ErrNotRunning
	}
	steps := 0
	for range n {
		if !c.Running() {
			return steps, nil
		}
		if err := c.tick(); err != nil {
			return steps, err
		}
		steps++
	}
	if c.Running() && c.GameOver() {
		c.over()
		return steps, io.EOF
	}
	return steps, nil
}

// tick checks the budget and the game state, then steps once. Process
// faults don't stop the core.
func (c *Core) tick() error {
	if c.Config.CycleBudget > 0 && c.cycle >= c.Config.CycleBudget {
		c.SetRunning(false)
		return ErrBudgetSpent
	}
	if c.GameOver() {
		c.over()
		return io.EOF
	}
	if err := c.Step(); err != nil && !IsProcessFault(err) {
		c.SetRunning(false)
		return err
	}
	return nil
}

// over stops the core and records the result.
func (c *Core) over() {
	c.SetRunning(false)
	c.gameOver()
}

func (c *Core) gameOver() {
	if w, ok := c.Winner(); ok {
		c.message(NewMessage(MsgGameOver, w.ID, -1, f("Game over, %s wins", w.Title)))
		return
	}
	c.message(NewMessage(MsgGameOver, -1, -1, f("Game over, no survivor")))
}

// ReadCell returns the instruction at addr, wrapped into the arena.
func (c *Core) ReadCell(addr int) redcode.Instruction {
	return c.arena.Read(c.arena.Wrap(addr, 0))
}

// FormatCell renders the cell at addr for display, e.g.
// `000042    MOV.I     $000000,$000001`.
func (c *Core) FormatCell(addr int) string {
	addr = c.arena.Wrap(addr, 0)
	ins := c.arena.Read(addr)
	return fmt.Sprintf("%06d    %-6s    %c%06d,%c%06d",
		addr,
		ins.Op.String()+"."+ins.Mod.String(),
		ins.A.Mode.Sigil(), ins.A.Value,
		ins.B.Mode.Sigil(), ins.B.Value,
	)
}

// Listing formats n cells starting at from.
func (c *Core) Listing(from, n int) string {
	buf := &strings.Builder{}
	for i := range n {
		fmt.Fprintf(buf, "%s\n", c.FormatCell(from+i))
	}
	return buf.String()
}

// Activity returns a copy of the per-cell activity signal.
func (c *Core) Activity() []CellActivity {
	return slices.Clone(c.arena.activity)
}

// PopTouched returns the addresses touched since the previous call.
func (c *Core) PopTouched() []int { return c.arena.PopTouched() }

// Processes returns a copy of the process queue in rotation order.
func (c *Core) Processes() []Process { return c.queue.Snapshot() }

// Current returns the index of the next process to run.
func (c *Core) Current() int { return c.queue.Cursor() }

// Warriors returns a copy of the loaded warriors.
func (c *Core) Warriors() []Warrior {
	out := make([]Warrior, 0, len(c.warriors))
	for _, w := range c.warriors {
		out = append(out, *w)
	}
	return out
}
