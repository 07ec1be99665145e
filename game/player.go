package game

import (
	"beat-factory/debug"
	"beat-factory/machine"
)

// Mover decides whether a move request lands on the beat
type Mover interface {
	AttemptMove() bool
}

// Combo tracks consecutive on-beat moves
type Combo interface {
	IncrCurCombo()
	SetCurCombo(n int)
}

// Outcome is the result of a move request
type Outcome int

const (
	MoveMissed Outcome = iota // off the beat, nothing moved
	MoveBounced               // on the beat but the target cell is blocked
	Moved
)

func (o Outcome) String() string {
	switch o {
	case MoveMissed:
		return "missed"
	case MoveBounced:
		return "bounced"
	case Moved:
		return "moved"
	}
	return "unknown"
}

// MoveResult describes what one move request did
type MoveResult struct {
	Outcome Outcome
	From    Pos
	To      Pos

	// Placed is set when the move dropped a machine
	Placed machine.Machine
	// Err is a placement error. The move itself still happened.
	Err error
}

// Player walks the world grid one cell per accepted beat
type Player struct {
	world *World
	mover Mover
	combo Combo

	// RhythmLocked makes every move go through the beat gate
	RhythmLocked bool

	pos      Pos
	facing   Dir
	interact bool
	del      bool
	selected int
	lastBeat int
	beats    int

	// OnMove and OnBounce let a view animate the player
	OnMove   func(from, to Pos)
	OnBounce func(from, target Pos)
}

// NewPlayer puts a player at start. combo may be nil.
func NewPlayer(world *World, mover Mover, combo Combo, start Pos) *Player {
	return &Player{
		world:        world,
		mover:        mover,
		combo:        combo,
		RhythmLocked: true,
		pos:          start,
		facing:       Right,
		lastBeat:     -1,
	}
}

func (p *Player) Pos() Pos          { return p.pos }
func (p *Player) Facing() Dir       { return p.facing }
func (p *Player) Interacting() bool { return p.interact }
func (p *Player) Deleting() bool    { return p.del }
func (p *Player) Beats() int        { return p.beats }
func (p *Player) Selected() machine.Kind {
	return machine.Kinds[p.selected]
}

// SetPos moves the player without a beat check, for loading a save
func (p *Player) SetPos(pos Pos) {
	if p.world.CanEnter(pos) {
		p.pos = pos
	}
}

// SelectNext cycles the machine kind placed while interacting
func (p *Player) SelectNext() machine.Kind {
	p.selected = (p.selected + 1) % len(machine.Kinds)
	return p.Selected()
}

// Select picks a machine kind by name. Unknown kinds are ignored.
func (p *Player) Select(kind machine.Kind) bool {
	for i, k := range machine.Kinds {
		if k == kind {
			p.selected = i
			return true
		}
	}
	return false
}

// SetInteract sets the held interact flag. Pressing it places the selected
// kind under the player.
func (p *Player) SetInteract(held bool) {
	pressed := held && !p.interact
	p.interact = held
	if pressed {
		if _, err := p.world.Place(p.Selected(), p.pos, nil); err != nil {
			debug.Log("player", "place on press: %v", err)
		}
	}
}

// SetDelete sets the held delete flag. Pressing it removes what the player
// stands on.
func (p *Player) SetDelete(held bool) {
	pressed := held && !p.del
	p.del = held
	if pressed {
		p.world.Delete(p.pos)
	}
}

// Move asks to step one cell in dir
func (p *Player) Move(dir Dir) MoveResult {
	p.facing = dir
	res := MoveResult{From: p.pos, To: p.pos}

	accepted := true
	if p.RhythmLocked {
		accepted = p.mover.AttemptMove()
	}
	if !accepted {
		if p.combo != nil {
			p.combo.SetCurCombo(0)
		}
		res.Outcome = MoveMissed
		debug.Log("player", "missed move at %s", p.pos)
		return res
	}
	if p.combo != nil {
		p.combo.IncrCurCombo()
	}

	target := p.pos.Add(dir)
	if !p.world.CanEnter(target) {
		res.Outcome = MoveBounced
		if p.OnBounce != nil {
			p.OnBounce(p.pos, target)
		}
		return res
	}

	from := p.pos
	p.pos = target
	res.Outcome = Moved
	res.To = target
	if p.OnMove != nil {
		p.OnMove(from, target)
	}

	switch {
	case p.del:
		p.world.Delete(target)
	case p.interact:
		res.Placed, res.Err = p.world.Place(p.Selected(), target, &from)
		if res.Err != nil {
			debug.Log("player", "place at %s: %v", target, res.Err)
		}
	}
	return res
}

// Tick is a beat listener
func (p *Player) Tick(n int) {
	p.lastBeat = n
	p.beats++
}

// LastBeat is the tick number of the most recent beat seen
func (p *Player) LastBeat() int { return p.lastBeat }
