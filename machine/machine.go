package machine

import "github.com/google/uuid"

// ID identifies a machine for the lifetime of the process
type ID string

// NewID returns a fresh random machine ID
func NewID() ID {
	return ID(uuid.NewString())
}

// Short returns the first 8 characters, enough for logs
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Machine is a tickable node in the production graph.
//
// Every active machine gets PrepareTick once per graph tick before anything
// produces. Afterwards, machines that feed others get Produce and terminal
// machines (no outgoing edges) get Tick, always after all of their inputs
// have produced for the same tick.
type Machine interface {
	ID() ID
	Kind() Kind
	Active() bool

	PrepareTick()
	Produce(up Upstream)
	Tick(up Upstream)

	// Output is what downstream machines read from
	Output() *Buffer
}

// Upstream gives a machine access to its settled inputs during a tick
type Upstream interface {
	Inputs() []Machine
}

// Destructible is implemented by machines the player can tear down
type Destructible interface {
	Destructible() bool
	OnDestruct()
}

// Base carries the state shared by every machine kind
type Base struct {
	id       ID
	kind     Kind
	active   bool
	fixed    bool
	out      *Buffer
	produced int // resources pushed since the last PrepareTick
}

// NewBase creates an active, destructible base with an output buffer
func NewBase(kind Kind, capacity int) Base {
	return Base{
		id:     NewID(),
		kind:   kind,
		active: true,
		out:    NewBuffer(capacity),
	}
}

func (b *Base) ID() ID          { return b.id }
func (b *Base) Kind() Kind      { return b.kind }
func (b *Base) Active() bool    { return b.active }
func (b *Base) Output() *Buffer { return b.out }

// SetActive enables or disables the machine; inactive machines are skipped
func (b *Base) SetActive(active bool) {
	b.active = active
}

// SetFixed marks the machine as not destructible by the player
func (b *Base) SetFixed(fixed bool) {
	b.fixed = fixed
}

// Destructible reports whether the player may remove this machine
func (b *Base) Destructible() bool {
	return !b.fixed
}

// OnDestruct deactivates the machine and drops its buffered output
func (b *Base) OnDestruct() {
	b.active = false
	b.out.Clear()
}

// PrepareTick resets per-tick counters
func (b *Base) PrepareTick() {
	b.produced = 0
}

// Produced returns how many resources were pushed in the current tick
func (b *Base) Produced() int {
	return b.produced
}

func (b *Base) push(r Resource) bool {
	if !b.out.Push(r) {
		return false
	}
	b.produced++
	return true
}
