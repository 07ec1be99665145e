package beat

import (
	"math"

	"beat-factory/debug"
)

// GateState is the input gate's view of the current beat
type GateState int

const (
	Idle  GateState = iota // outside the grace window, or this beat is spent
	Armed                  // inside the grace window and not yet consumed
)

func (s GateState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	default:
		return "unknown"
	}
}

// Gate accepts at most one player action per beat, and only inside the
// grace window.
type Gate struct {
	helper   *Helper
	consumed int
}

// unconsumed is a beat index no song position can produce
const unconsumed = math.MinInt

// NewGate creates a gate reading beat phase from h
func NewGate(h *Helper) *Gate {
	return &Gate{helper: h, consumed: unconsumed}
}

// Reset forgets the consumed beat (song restart)
func (g *Gate) Reset() {
	g.consumed = unconsumed
}

// State reports whether an AttemptMove right now would be accepted
func (g *Gate) State() GateState {
	if g.helper.IsOnBeat() && g.helper.NearestBeat() != g.consumed {
		return Armed
	}
	return Idle
}

// AttemptMove returns true and consumes the current beat when armed.
// A rejection leaves the gate untouched.
func (g *Gate) AttemptMove() bool {
	if g.State() != Armed {
		debug.Log("beat", "move rejected t=%.3f nearest=%d consumed=%d", g.helper.SongTime(), g.helper.NearestBeat(), g.consumed)
		return false
	}
	g.consumed = g.helper.NearestBeat()
	return true
}

// Consumed returns the last beat index an accepted move used
func (g *Gate) Consumed() int {
	return g.consumed
}
