package game

import (
	"errors"
	"fmt"
	"sort"

	"beat-factory/debug"
	"beat-factory/machine"
)

var (
	ErrBlocked   = errors.New("cell is blocked")
	ErrOccupied  = errors.New("cell holds a fixed machine")
	ErrNoMachine = errors.New("no machine at cell")
	ErrNoOre     = errors.New("miners need an ore tile")
)

// maxClearPasses bounds the overlap clearing loop
const maxClearPasses = 8

// Pos is a grid cell
type Pos struct{ X, Y int }

// Dir is a unit step on the grid
type Dir struct{ X, Y int }

var (
	Up    = Dir{0, -1}
	Down  = Dir{0, 1}
	Left  = Dir{-1, 0}
	Right = Dir{1, 0}
)

// Add returns the cell one step in d
func (p Pos) Add(d Dir) Pos { return Pos{p.X + d.X, p.Y + d.Y} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Footprint returns the cells a machine of kind covers when placed at p.
// Smelters are two cells wide.
func Footprint(kind machine.Kind, p Pos) []Pos {
	if kind == machine.KindSmelter {
		return []Pos{p, p.Add(Right)}
	}
	return []Pos{p}
}

// footprintFrom is Footprint for a machine fed from cell from. A wide
// footprint that would cover its feeder extends the other way.
func footprintFrom(kind machine.Kind, p Pos, from *Pos) []Pos {
	cells := Footprint(kind, p)
	if from == nil || len(cells) < 2 {
		return cells
	}
	for _, c := range cells[1:] {
		if c == *from {
			return Footprint(kind, p.Add(Left))
		}
	}
	return cells
}

type placement struct {
	m     machine.Machine
	cells []Pos
	seq   int
}

// World is the bounded grid the player walks on. It maps cells to placed
// machines and keeps the machine pool in step with placements.
type World struct {
	width, height int
	blocked       map[Pos]bool
	ore           map[Pos]bool

	pool   *machine.Pool
	market machine.Market

	cells   map[Pos]machine.ID
	placed  map[machine.ID]placement
	nextSeq int
}

// NewWorld creates an empty width x height world over pool. Sellers credit market.
func NewWorld(width, height int, pool *machine.Pool, market machine.Market) *World {
	return &World{
		width:   width,
		height:  height,
		blocked: make(map[Pos]bool),
		ore:     make(map[Pos]bool),
		pool:    pool,
		market:  market,
		cells:   make(map[Pos]machine.ID),
		placed:  make(map[machine.ID]placement),
	}
}

func (w *World) Width() int  { return w.width }
func (w *World) Height() int { return w.height }

// Block marks a cell as a wall the player cannot enter
func (w *World) Block(p Pos) {
	w.blocked[p] = true
}

// SetOre marks p as an ore tile. Once a world has ore, miners can only be
// placed on it.
func (w *World) SetOre(p Pos) {
	if w.InBounds(p) {
		w.ore[p] = true
	}
}

// IsOre reports whether p is an ore tile
func (w *World) IsOre(p Pos) bool {
	return w.ore[p]
}

// CanMine reports whether a miner may stand on p
func (w *World) CanMine(p Pos) bool {
	return len(w.ore) == 0 || w.ore[p]
}

// InBounds reports whether p lies on the grid
func (w *World) InBounds(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < w.width && p.Y < w.height
}

// CanEnter reports whether the player may step onto p
func (w *World) CanEnter(p Pos) bool {
	return w.InBounds(p) && !w.blocked[p]
}

// MachineAt returns the machine covering p
func (w *World) MachineAt(p Pos) (machine.Machine, bool) {
	id, ok := w.cells[p]
	if !ok {
		return nil, false
	}
	return w.placed[id].m, true
}

// Place puts a new machine of kind at p, destroying whatever overlaps its
// footprint first. When feedFrom holds a machine, it is connected as the
// new machine's input and kept out of the footprint.
func (w *World) Place(kind machine.Kind, p Pos, feedFrom *Pos) (machine.Machine, error) {
	cells := footprintFrom(kind, p, feedFrom)
	for _, c := range cells {
		if !w.CanEnter(c) {
			return nil, fmt.Errorf("place %s at %s: %w", kind, c, ErrBlocked)
		}
	}

	if kind == machine.KindMiner && !w.CanMine(p) {
		return nil, fmt.Errorf("place %s at %s: %w", kind, p, ErrNoOre)
	}

	if w.ClearOverlapping(cells) {
		return nil, fmt.Errorf("place %s at %s: %w", kind, p, ErrOccupied)
	}

	m, err := machine.New(kind, w.market)
	if err != nil {
		return nil, err
	}
	if err := w.pool.Add(m); err != nil {
		return nil, err
	}
	w.placed[m.ID()] = placement{m: m, cells: cells, seq: w.nextSeq}
	w.nextSeq++
	for _, c := range cells {
		w.cells[c] = m.ID()
	}

	if feedFrom != nil {
		if src, ok := w.cells[*feedFrom]; ok && src != m.ID() {
			if err := w.pool.Connect(src, m.ID()); err != nil {
				w.remove(m.ID())
				return nil, fmt.Errorf("place %s at %s: %w", kind, p, err)
			}
		}
	}

	debug.Log("world", "placed %s %s at %s", kind, m.ID().Short(), p)
	return m, nil
}

// Link connects the machine at from to the machine at to
func (w *World) Link(from, to Pos) error {
	src, ok := w.cells[from]
	if !ok {
		return fmt.Errorf("link from %s: %w", from, ErrNoMachine)
	}
	dst, ok := w.cells[to]
	if !ok {
		return fmt.Errorf("link to %s: %w", to, ErrNoMachine)
	}
	return w.pool.Connect(src, dst)
}

// Delete destroys the machine covering p. Fixed machines stay.
func (w *World) Delete(p Pos) bool {
	id, ok := w.cells[p]
	if !ok {
		return false
	}
	return w.destroy(id)
}

// ClearOverlapping destroys every destructible machine covering cells. It
// collects first and applies after, re-checking until nothing destructible
// is left or the pass limit is hit. It reports whether a fixed machine
// still covers one of the cells.
func (w *World) ClearOverlapping(cells []Pos) (blocked bool) {
	for pass := 0; pass < maxClearPasses; pass++ {
		victims, fixed := w.overlapping(cells)
		blocked = fixed
		if len(victims) == 0 {
			return blocked
		}
		for _, id := range victims {
			w.destroy(id)
		}
	}
	debug.Log("world", "overlap clearing hit %d passes", maxClearPasses)
	_, blocked = w.overlapping(cells)
	return blocked
}

func (w *World) overlapping(cells []Pos) (victims []machine.ID, fixed bool) {
	seen := make(map[machine.ID]bool)
	for _, c := range cells {
		id, ok := w.cells[c]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if d, ok := w.placed[id].m.(machine.Destructible); ok && d.Destructible() {
			victims = append(victims, id)
		} else {
			fixed = true
		}
	}
	sort.Slice(victims, func(i, j int) bool {
		return w.placed[victims[i]].seq < w.placed[victims[j]].seq
	})
	return victims, fixed
}

func (w *World) destroy(id machine.ID) bool {
	pl, ok := w.placed[id]
	if !ok {
		return false
	}
	d, ok := pl.m.(machine.Destructible)
	if !ok || !d.Destructible() {
		debug.Log("world", "machine %s is not destructible", id.Short())
		return false
	}
	d.OnDestruct()
	w.remove(id)
	return true
}

func (w *World) remove(id machine.ID) {
	pl := w.placed[id]
	for _, c := range pl.cells {
		if w.cells[c] == id {
			delete(w.cells, c)
		}
	}
	delete(w.placed, id)
	w.pool.Remove(id)
	debug.Log("world", "removed %s", id.Short())
}

// PlaceFixed places a machine the player cannot destroy
func (w *World) PlaceFixed(kind machine.Kind, p Pos) (machine.Machine, error) {
	m, err := w.Place(kind, p, nil)
	if err != nil {
		return nil, err
	}
	if f, ok := m.(interface{ SetFixed(bool) }); ok {
		f.SetFixed(true)
	}
	return m, nil
}

// Placements returns every placed machine with its anchor cell
func (w *World) Placements() map[Pos]machine.Machine {
	out := make(map[Pos]machine.Machine, len(w.placed))
	for _, pl := range w.placed {
		out[pl.cells[0]] = pl.m
	}
	return out
}
