package beat

import "testing"

func TestAttemptMoveOncePerBeat(t *testing.T) {
	h := NewHelper(testClip())
	g := NewGate(h)

	h.UpdateSongPos(0.49)
	if !g.AttemptMove() {
		t.Fatalf("expected first move in window to be accepted")
	}
	if g.AttemptMove() {
		t.Fatalf("expected second move in the same window to be rejected")
	}

	h.UpdateSongPos(0.51)
	if g.AttemptMove() {
		t.Fatalf("expected move just after the consumed boundary to be rejected")
	}

	h.UpdateSongPos(1.01)
	if !g.AttemptMove() {
		t.Fatalf("expected move on the next beat to be accepted")
	}
}

func TestAttemptMoveOffBeatLeavesStateUnchanged(t *testing.T) {
	h := NewHelper(testClip())
	g := NewGate(h)

	h.UpdateSongPos(0.30)
	before := g.Consumed()
	if g.AttemptMove() {
		t.Fatalf("expected off-beat move to be rejected")
	}
	if g.Consumed() != before {
		t.Fatalf("expected rejection to keep consumed=%d, got %d", before, g.Consumed())
	}

	h.UpdateSongPos(0.5)
	if !g.AttemptMove() {
		t.Fatalf("expected on-beat move after a rejection to be accepted")
	}
}

func TestGateStateTransitions(t *testing.T) {
	h := NewHelper(testClip())
	g := NewGate(h)

	h.UpdateSongPos(0.2)
	if g.State() != Idle {
		t.Fatalf("expected idle off-beat, got %s", g.State())
	}
	h.UpdateSongPos(0.5)
	if g.State() != Armed {
		t.Fatalf("expected armed on-beat, got %s", g.State())
	}
	g.AttemptMove()
	if g.State() != Idle {
		t.Fatalf("expected idle after consuming, got %s", g.State())
	}
}

func TestGateReset(t *testing.T) {
	h := NewHelper(testClip())
	g := NewGate(h)

	h.UpdateSongPos(0.01)
	g.AttemptMove()

	h.Reset(testClip())
	g.Reset()
	h.UpdateSongPos(0.02)
	if !g.AttemptMove() {
		t.Fatalf("expected beat 0 to be available again after reset")
	}
}

func TestLeadInOnlyArmsForBeatZero(t *testing.T) {
	// 120 bpm, one second of lead-in: beat 0 at 1.0s, grace 0.05s
	h := NewHelper(NewClip("lead-in", 120, 1.0))
	g := NewGate(h)

	for _, at := range []float64{0.0, 0.5, 0.9} {
		h.UpdateSongPos(at)
		if g.AttemptMove() {
			t.Fatalf("move at %.2fs accepted during lead-in", at)
		}
	}

	h.UpdateSongPos(0.96)
	if h.NearestBeat() != 0 {
		t.Fatalf("nearest beat = %d, want 0", h.NearestBeat())
	}
	if !g.AttemptMove() {
		t.Fatal("move in beat 0's grace window rejected")
	}
	h.UpdateSongPos(1.02)
	if g.AttemptMove() {
		t.Fatal("beat 0 accepted twice")
	}
}
