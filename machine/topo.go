package machine

import "container/heap"

type seqHeap []*entry

func (h seqHeap) Len() int           { return len(h) }
func (h seqHeap) Less(i, j int) bool { return h[i].seq < h[j].seq }
func (h seqHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x any)        { *h = append(*h, x.(*entry)) }
func (h *seqHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topoOrder returns a deterministic topological ordering using Kahn's
// algorithm. The ready queue is a min-heap by insertion sequence.
func (p *Pool) topoOrder() []ID {
	indeg := make(map[ID]int, len(p.entries))
	ready := &seqHeap{}
	heap.Init(ready)
	for id, e := range p.entries {
		indeg[id] = len(e.in)
		if len(e.in) == 0 {
			heap.Push(ready, e)
		}
	}

	out := make([]ID, 0, len(p.entries))
	for ready.Len() > 0 {
		e := heap.Pop(ready).(*entry)
		out = append(out, e.m.ID())
		for next := range e.out {
			indeg[next]--
			if indeg[next] == 0 {
				heap.Push(ready, p.entries[next])
			}
		}
	}
	return out
}

// pathBetween returns a path from -> ... -> to along output edges, or nil
func (p *Pool) pathBetween(from, to ID) []ID {
	parent := map[ID]ID{from: ""}
	queue := []ID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			var path []ID
			for at := to; at != ""; at = parent[at] {
				path = append([]ID{at}, path...)
			}
			return path
		}
		for _, next := range p.sortedIDs(p.entries[cur].out) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			queue = append(queue, next)
		}
	}
	return nil
}
