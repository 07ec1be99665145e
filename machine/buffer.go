package machine

// Resource is one unit of material moving along the graph
type Resource struct {
	Kind  ResourceKind
	Price int
}

// ResourceKind names a material
type ResourceKind string

const (
	Ore   ResourceKind = "ore"
	Ingot ResourceKind = "ingot"
)

// Prices is the sale value per resource kind
var Prices = map[ResourceKind]int{
	Ore:   1,
	Ingot: 5,
}

// NewResource returns a resource priced from Prices
func NewResource(kind ResourceKind) Resource {
	return Resource{Kind: kind, Price: Prices[kind]}
}

// DefaultCapacity is the buffer size used by the built-in kinds
const DefaultCapacity = 8

// Buffer is a bounded FIFO of resources
type Buffer struct {
	items    []Resource
	capacity int
}

// NewBuffer creates a buffer; capacity <= 0 means DefaultCapacity
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Len returns the number of buffered resources
func (b *Buffer) Len() int { return len(b.items) }

// Free returns the remaining room
func (b *Buffer) Free() int { return b.capacity - len(b.items) }

// Push appends r, returning false when full
func (b *Buffer) Push(r Resource) bool {
	if len(b.items) >= b.capacity {
		return false
	}
	b.items = append(b.items, r)
	return true
}

// Take removes up to n resources from the front
func (b *Buffer) Take(n int) []Resource {
	if n > len(b.items) {
		n = len(b.items)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Resource, n)
	copy(out, b.items[:n])
	b.items = b.items[n:]
	return out
}

// TakeKind removes up to n resources of the given kind, keeping order of the rest
func (b *Buffer) TakeKind(kind ResourceKind, n int) []Resource {
	var out []Resource
	kept := b.items[:0]
	for _, r := range b.items {
		if r.Kind == kind && len(out) < n {
			out = append(out, r)
			continue
		}
		kept = append(kept, r)
	}
	b.items = kept
	return out
}

// Count returns how many resources of kind are buffered
func (b *Buffer) Count(kind ResourceKind) int {
	n := 0
	for _, r := range b.items {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// Clear drops everything
func (b *Buffer) Clear() {
	b.items = nil
}
