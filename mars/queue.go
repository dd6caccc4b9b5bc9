package mars

// Process is one program counter owned by a warrior.
type Process struct {
	Warrior      int // Warrior ID.
	ID           int // Process ID, unique per warrior.
	ProgramAlive bool
	Alive        bool
	PC           int
}

// Queue is the round-robin process scheduler.
type Queue struct {
	entries []*Process
	cursor  int
}

func (q *Queue) Len() int    { return len(q.entries) }
func (q *Queue) Cursor() int { return q.cursor }

// Append adds p at the end of the rotation.
func (q *Queue) Append(p *Process) { q.entries = append(q.entries, p) }

// Current returns the process to dispatch next.
func (q *Queue) Current() (*Process, error) {
	if len(q.entries) == 0 {
		return nil, ErrQueueEmpty
	}
	return q.entries[q.cursor], nil
}

// Advance moves the cursor to the next entry, wrapping past the last one.
func (q *Queue) Advance() {
	if len(q.entries) == 0 {
		q.cursor = 0
		return
	}
	q.cursor = (q.cursor + 1) % len(q.entries)
}

// RemoveCurrent drops the entry under the cursor. The cursor then points
// at the entry that followed it.
func (q *Queue) RemoveCurrent() {
	if len(q.entries) == 0 {
		return
	}
	q.entries = append(q.entries[:q.cursor], q.entries[q.cursor+1:]...)
	if q.cursor >= len(q.entries) {
		q.cursor = 0
	}
}

// Each calls fn for every entry in rotation order.
func (q *Queue) Each(fn func(p *Process)) {
	for _, p := range q.entries {
		fn(p)
	}
}

// Snapshot returns a copy of the entries.
func (q *Queue) Snapshot() []Process {
	out := make([]Process, 0, len(q.entries))
	for _, p := range q.entries {
		out = append(out, *p)
	}
	return out
}

func (q *Queue) Reset() {
	q.entries = nil
	q.cursor = 0
}
