package machine

import (
	"sort"

	"beat-factory/debug"
)

type entry struct {
	m   Machine
	seq int
	in  map[ID]struct{}
	out map[ID]struct{}
}

// Pool owns every placed machine and the edges between them. Edges run from
// producer to consumer. The pool refuses any edge that would form a cycle,
// so a tick always terminates.
//
// Pool is not safe for concurrent use; it is driven from the frame loop.
type Pool struct {
	entries map[ID]*entry
	nextSeq int

	order      []ID // cached topological order
	orderValid bool

	ticking bool
	doomed  map[ID]struct{} // removed mid-tick, applied when the tick ends
	ticks   int
}

// NewPool creates an empty pool
func NewPool() *Pool {
	return &Pool{
		entries: make(map[ID]*entry),
		doomed:  make(map[ID]struct{}),
	}
}

// Add registers a machine. Machines added during a tick join the next one.
func (p *Pool) Add(m Machine) error {
	if m == nil {
		return invalidf("nil machine")
	}
	id := m.ID()
	if id == "" {
		return invalidf("machine has no id")
	}
	if _, exists := p.entries[id]; exists {
		return invalidf("duplicate machine: %s", id.Short())
	}
	p.entries[id] = &entry{
		m:   m,
		seq: p.nextSeq,
		in:  make(map[ID]struct{}),
		out: make(map[ID]struct{}),
	}
	p.nextSeq++
	p.invalidate()
	debug.Log("graph", "add %s %s", m.Kind(), id.Short())
	return nil
}

// Get returns a machine by ID
func (p *Pool) Get(id ID) (Machine, bool) {
	e, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	if _, gone := p.doomed[id]; gone {
		return nil, false
	}
	return e.m, true
}

// Len returns the number of machines, excluding pending removals
func (p *Pool) Len() int {
	return len(p.entries) - len(p.doomed)
}

// Machines returns a snapshot of all machines in insertion order
func (p *Pool) Machines() []Machine {
	entries := make([]*entry, 0, len(p.entries))
	for id, e := range p.entries {
		if _, gone := p.doomed[id]; gone {
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Machine, len(entries))
	for i, e := range entries {
		out[i] = e.m
	}
	return out
}

// Remove deletes a machine and its edges. During a tick the machine stops
// being ticked at once and is structurally removed when the tick ends.
func (p *Pool) Remove(id ID) bool {
	if _, ok := p.entries[id]; !ok {
		return false
	}
	if p.ticking {
		p.doomed[id] = struct{}{}
		debug.Log("graph", "remove %s deferred to end of tick", id.Short())
		return true
	}
	p.removeNow(id)
	return true
}

func (p *Pool) removeNow(id ID) {
	e := p.entries[id]
	for in := range e.in {
		delete(p.entries[in].out, id)
	}
	for out := range e.out {
		delete(p.entries[out].in, id)
	}
	delete(p.entries, id)
	p.invalidate()
	debug.Log("graph", "removed %s", id.Short())
}

// Connect adds an edge from producer to consumer. It rejects unknown
// machines, self-loops, duplicates and edges that would close a cycle.
func (p *Pool) Connect(from, to ID) error {
	fromEntry, okFrom := p.entries[from]
	toEntry, okTo := p.entries[to]
	if !okFrom {
		return invalidf("edge references unknown machine (from): %s", from.Short())
	}
	if !okTo {
		return invalidf("edge references unknown machine (to): %s", to.Short())
	}
	if from == to {
		return invalidf("self-loop: %s", from.Short())
	}
	if _, exists := fromEntry.out[to]; exists {
		return invalidf("duplicate edge: %s -> %s", from.Short(), to.Short())
	}
	if back := p.pathBetween(to, from); back != nil {
		return cycleError(append([]ID{from}, back...))
	}

	fromEntry.out[to] = struct{}{}
	toEntry.in[from] = struct{}{}
	p.invalidate()
	debug.Log("graph", "connect %s -> %s", from.Short(), to.Short())
	return nil
}

// Disconnect removes an edge if present
func (p *Pool) Disconnect(from, to ID) bool {
	fromEntry, okFrom := p.entries[from]
	toEntry, okTo := p.entries[to]
	if !okFrom || !okTo {
		return false
	}
	if _, exists := fromEntry.out[to]; !exists {
		return false
	}
	delete(fromEntry.out, to)
	delete(toEntry.in, from)
	p.invalidate()
	return true
}

// Inputs returns the producers feeding id, in insertion order
func (p *Pool) Inputs(id ID) []ID {
	e, ok := p.entries[id]
	if !ok {
		return nil
	}
	return p.sortedIDs(e.in)
}

// Outputs returns the consumers fed by id, in insertion order
func (p *Pool) Outputs(id ID) []ID {
	e, ok := p.entries[id]
	if !ok {
		return nil
	}
	return p.sortedIDs(e.out)
}

// NumOutputs returns how many consumers read from id
func (p *Pool) NumOutputs(id ID) int {
	e, ok := p.entries[id]
	if !ok {
		return 0
	}
	return len(e.out)
}

// Terminal reports whether nothing downstream consumes from id
func (p *Pool) Terminal(id ID) bool {
	return p.NumOutputs(id) == 0
}

// Order returns the cached topological order, recomputing it after a
// structural change
func (p *Pool) Order() []ID {
	if !p.orderValid {
		p.order = p.topoOrder()
		p.orderValid = true
	}
	out := make([]ID, len(p.order))
	copy(out, p.order)
	return out
}

// Ticks returns the number of completed graph ticks
func (p *Pool) Ticks() int {
	return p.ticks
}

// Ticking reports whether a tick is in progress
func (p *Pool) Ticking() bool {
	return p.ticking
}

// Tick runs one graph tick: PrepareTick on every active machine, then
// Produce/Tick along the topological order so producers settle before their
// consumers read them.
func (p *Pool) Tick() {
	if p.ticking {
		debug.Log("graph", "re-entrant tick ignored")
		return
	}
	p.ticking = true
	order := p.Order()

	for _, id := range order {
		if m, ok := p.live(id); ok {
			m.PrepareTick()
		}
	}

	for _, id := range order {
		m, ok := p.live(id)
		if !ok {
			continue
		}
		up := upstream{pool: p, id: id}
		if p.Terminal(id) {
			m.Tick(up)
		} else {
			m.Produce(up)
		}
	}

	p.ticking = false
	p.ticks++
	p.flushRemovals()
	debug.LogEvery(64, "graph", "tick %d machines=%d", p.ticks, len(p.entries))
}

// live returns the machine when it exists, is active and not pending removal
func (p *Pool) live(id ID) (Machine, bool) {
	e, ok := p.entries[id]
	if !ok {
		return nil, false
	}
	if _, gone := p.doomed[id]; gone {
		return nil, false
	}
	if !e.m.Active() {
		return nil, false
	}
	return e.m, true
}

func (p *Pool) flushRemovals() {
	if len(p.doomed) == 0 {
		return
	}
	for _, id := range p.sortedIDs(p.doomed) {
		if _, ok := p.entries[id]; ok {
			p.removeNow(id)
		}
	}
	p.doomed = make(map[ID]struct{})
}

func (p *Pool) invalidate() {
	p.orderValid = false
}

func (p *Pool) sortedIDs(set map[ID]struct{}) []ID {
	ids := make([]ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ei, ej := p.entries[ids[i]], p.entries[ids[j]]
		if ei == nil || ej == nil {
			return ids[i] < ids[j]
		}
		return ei.seq < ej.seq
	})
	return ids
}

type upstream struct {
	pool *Pool
	id   ID
}

// Inputs returns the active, not-removed producers of the machine
func (u upstream) Inputs() []Machine {
	var out []Machine
	for _, in := range u.pool.Inputs(u.id) {
		if m, ok := u.pool.live(in); ok {
			out = append(out, m)
		}
	}
	return out
}
