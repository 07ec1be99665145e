package conductor

import (
	"errors"
	"testing"

	"beat-factory/beat"
	"beat-factory/clock"
	"beat-factory/machine"
)

// fakeSong is a hand-driven playback clock
type fakeSong struct {
	pos     float64
	invalid bool
	stopped bool
	paused  bool
	length  float64
	closed  bool
}

func (s *fakeSong) Position() (float64, bool) { return s.pos, !s.invalid && !s.closed }
func (s *fakeSong) Playing() bool             { return !s.paused && !s.stopped }
func (s *fakeSong) Stopped() bool             { return s.stopped }
func (s *fakeSong) SetPaused(p bool)          { s.paused = p }
func (s *fakeSong) Seek(sec float64) error    { s.pos = sec; return nil }
func (s *fakeSong) Length() float64           { return s.length }
func (s *fakeSong) Close() error              { s.closed = true; return nil }

type fakeDeck struct {
	played   []string
	songs    []*fakeSong
	err      error
	fail     map[string]bool // clip names that never start
	attempts int
}

func (d *fakeDeck) Play(clip beat.Clip) (clock.Source, error) {
	d.attempts++
	if d.err != nil {
		return nil, d.err
	}
	if d.fail[clip.Name] {
		return nil, errors.New("cannot decode " + clip.Name)
	}
	d.played = append(d.played, clip.Name)
	s := &fakeSong{length: 10}
	d.songs = append(d.songs, s)
	return s, nil
}

func (d *fakeDeck) current() *fakeSong {
	return d.songs[len(d.songs)-1]
}

func twoSongs() []beat.Clip {
	return []beat.Clip{
		beat.NewClip("one", 120, 0),
		beat.NewClip("two", 60, 0),
	}
}

func newTestConductor(t *testing.T, opts ...Option) (*Conductor, *fakeDeck, *machine.Pool) {
	t.Helper()
	deck := &fakeDeck{}
	pool := machine.NewPool()
	c, err := New(twoSongs(), deck, pool, opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return c, deck, pool
}

func TestNewFailsFastOnMissingCollaborators(t *testing.T) {
	pool := machine.NewPool()
	deck := &fakeDeck{}

	if _, err := New(twoSongs(), nil, pool); !errors.Is(err, ErrMissingCollaborator) {
		t.Fatalf("expected missing deck error, got %v", err)
	}
	if _, err := New(twoSongs(), deck, nil); !errors.Is(err, ErrMissingCollaborator) {
		t.Fatalf("expected missing pool error, got %v", err)
	}
	if _, err := New(nil, deck, pool); !errors.Is(err, ErrEmptyPlaylist) {
		t.Fatalf("expected empty playlist error, got %v", err)
	}
	bad := []beat.Clip{{Name: "broken", BPM: 0}}
	if _, err := New(bad, deck, pool); !errors.Is(err, beat.ErrInvalidClip) {
		t.Fatalf("expected invalid clip error, got %v", err)
	}
}

func TestUpdateDispatchesOncePerBeat(t *testing.T) {
	var ticks []int
	c, deck, pool := newTestConductor(t, WithRhythmLock(true), WithBeatListener(func(n int) {
		ticks = append(ticks, n)
	}))
	song := deck.current()

	for _, pos := range []float64{0.0, 0.1, 0.2, 0.3, 0.4} {
		song.pos = pos
		c.Update()
	}
	if len(ticks) != 1 || pool.Ticks() != 1 {
		t.Fatalf("expected one beat and one graph tick, got beats=%v graph=%d", ticks, pool.Ticks())
	}

	song.pos = 0.5
	f := c.Update()
	if !f.NewBeat || !f.MachineTicked || f.Tick != 2 {
		t.Fatalf("unexpected frame %+v", f)
	}
	song.pos = 0.6
	c.Update()
	if pool.Ticks() != 2 {
		t.Fatalf("expected graph not to tick twice within a beat, got %d", pool.Ticks())
	}
	if len(ticks) != 2 || ticks[1] != 2 {
		t.Fatalf("expected tick numbers [1 2], got %v", ticks)
	}
}

func TestRhythmLockOffTicksEveryFrame(t *testing.T) {
	beats := 0
	c, deck, pool := newTestConductor(t, WithRhythmLock(false), WithBeatListener(func(int) { beats++ }))
	song := deck.current()

	for _, pos := range []float64{0.0, 0.1, 0.2, 0.6} {
		song.pos = pos
		c.Update()
	}
	if pool.Ticks() != 4 {
		t.Fatalf("expected a graph tick per frame, got %d", pool.Ticks())
	}
	if beats != 2 || c.TickNum() != 2 {
		t.Fatalf("expected beat listeners on beats only, got %d (tick %d)", beats, c.TickNum())
	}
}

func TestInvalidClockIsNoBeat(t *testing.T) {
	beats := 0
	c, deck, pool := newTestConductor(t, WithBeatListener(func(int) { beats++ }))
	song := deck.current()
	song.invalid = true

	song.pos = 1.0
	c.Update()
	if beats != 0 || pool.Ticks() != 0 {
		t.Fatalf("expected nothing on invalid clock, got beats=%d graph=%d", beats, pool.Ticks())
	}
}

func TestPlaylistWrapsAround(t *testing.T) {
	c, deck, _ := newTestConductor(t)

	deck.current().stopped = true
	if f := c.Update(); !f.SongChanged || c.Index() != 1 {
		t.Fatalf("expected advance to index 1, frame=%+v index=%d", f, c.Index())
	}
	deck.current().stopped = true
	c.Update()
	if c.Index() != 0 {
		t.Fatalf("expected wrap to index 0, got %d", c.Index())
	}
	want := []string{"one", "two", "one"}
	for i, name := range want {
		if deck.played[i] != name {
			t.Fatalf("expected play order %v, got %v", want, deck.played)
		}
	}
	if !deck.songs[0].closed || !deck.songs[1].closed {
		t.Fatalf("expected previous songs to be closed")
	}
}

func TestSongChangeResetsTickNum(t *testing.T) {
	c, deck, _ := newTestConductor(t)
	song := deck.current()
	song.pos = 0.1
	c.Update()
	song.pos = 0.6
	c.Update()
	if c.TickNum() != 2 {
		t.Fatalf("expected tick 2, got %d", c.TickNum())
	}

	song.stopped = true
	c.Update()
	if c.TickNum() != 0 {
		t.Fatalf("expected tick reset on song change, got %d", c.TickNum())
	}
	if c.BPM() != 60 {
		t.Fatalf("expected second song bpm, got %v", c.BPM())
	}
}

func TestAttemptMoveBypassAndGate(t *testing.T) {
	c, deck, _ := newTestConductor(t, WithRhythmLock(true))
	song := deck.current()

	song.pos = 0.3
	c.Update()
	if c.AttemptMove() {
		t.Fatalf("expected off-beat move to be rejected under rhythm lock")
	}
	song.pos = 0.5
	c.Update()
	if !c.AttemptMove() || c.AttemptMove() {
		t.Fatalf("expected exactly one accepted move on the beat")
	}

	c.SetRhythmLock(false)
	song.pos = 0.3
	c.Update()
	if !c.AttemptMove() || !c.AttemptMove() {
		t.Fatalf("expected every move to pass without rhythm lock")
	}
}

func TestPausedFramesDoNothing(t *testing.T) {
	beats := 0
	c, deck, pool := newTestConductor(t, WithRhythmLock(false), WithBeatListener(func(int) { beats++ }))
	c.SetPaused(true)
	if !deck.current().paused {
		t.Fatalf("expected song to be paused")
	}

	deck.current().pos = 1.0
	c.Update()
	if beats != 0 || pool.Ticks() != 0 {
		t.Fatalf("expected paused frame to do nothing")
	}

	c.SetPaused(false)
	c.Update()
	if beats != 1 {
		t.Fatalf("expected beat after resume, got %d", beats)
	}
}

func TestProgressAndSeek(t *testing.T) {
	c, deck, _ := newTestConductor(t)
	song := deck.current()
	song.pos = 2.5
	c.Update()
	if p := c.Progress(); p != 0.25 {
		t.Fatalf("expected progress 0.25, got %v", p)
	}

	if err := c.SetProgress(0.5); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if song.pos != 5 {
		t.Fatalf("expected seek to 5s, got %v", song.pos)
	}
	if c.Helper().Beat() != -1 {
		t.Fatalf("expected helper reset after seek")
	}
	if f := c.Update(); !f.NewBeat {
		t.Fatalf("expected the beat under the new position to fire")
	}
}

func TestStartPropagatesDeckError(t *testing.T) {
	deck := &fakeDeck{err: errors.New("no device")}
	c, err := New(twoSongs(), deck, machine.NewPool())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatalf("expected start to fail")
	}
	if f := c.Update(); f.NewBeat {
		t.Fatalf("expected no beat without a song")
	}
}

func TestComboTracking(t *testing.T) {
	c, _, _ := newTestConductor(t)

	c.IncrCurCombo()
	if c.CurCombo() != 0 {
		t.Fatalf("expected combo untouched while disabled")
	}

	c.EnableCombo()
	c.IncrCurCombo()
	c.IncrCurCombo()
	c.IncrCurCombo()
	c.SetCurCombo(0)
	c.IncrCurCombo()
	if c.CurCombo() != 1 || c.MaxCombo() != 3 {
		t.Fatalf("expected cur=1 max=3, got cur=%d max=%d", c.CurCombo(), c.MaxCombo())
	}

	c.DisableCombo()
	c.SetCurCombo(10)
	if c.MaxCombo() != 3 {
		t.Fatalf("expected max to stay while disabled, got %d", c.MaxCombo())
	}
}

func TestSellersCreditCash(t *testing.T) {
	c, deck, pool := newTestConductor(t, WithRhythmLock(true))
	miner := machine.NewMiner()
	seller := machine.NewSeller(c.Sell)
	pool.Add(miner)
	pool.Add(seller)
	if err := pool.Connect(miner.ID(), seller.ID()); err != nil {
		t.Fatal(err)
	}

	song := deck.current()
	for _, pos := range []float64{0.0, 0.5, 1.0} {
		song.pos = pos
		c.Update()
	}
	if c.Cash() != 3*machine.Prices[machine.Ore] {
		t.Fatalf("expected cash from 3 ore, got %d", c.Cash())
	}
}

func TestPlaylistSkipsEntriesThatFailToStart(t *testing.T) {
	deck := &fakeDeck{fail: map[string]bool{"two": true}}
	playlist := append(twoSongs(), beat.NewClip("three", 90, 0))
	c, err := New(playlist, deck, machine.NewPool())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	deck.current().stopped = true
	if f := c.Update(); !f.SongChanged || c.Index() != 2 {
		t.Fatalf("expected skip to index 2, frame=%+v index=%d", f, c.Index())
	}
	if got := deck.played; len(got) != 2 || got[1] != "three" {
		t.Fatalf("played %v, want [one three]", got)
	}
	if f := c.Update(); !f.NewBeat {
		t.Fatal("expected beats to resume on the next song")
	}
}

func TestFailedStartRecoversOnLaterFrame(t *testing.T) {
	deck := &fakeDeck{fail: map[string]bool{"one": true}}
	c, err := New(twoSongs(), deck, machine.NewPool())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Start(); err == nil {
		t.Fatal("expected start to fail")
	}
	if f := c.Update(); !f.SongChanged || c.Clip().Name != "two" {
		t.Fatalf("expected to move on to two, frame=%+v clip=%s", f, c.Clip().Name)
	}
}

func TestAllEntriesFailingIsBoundedPerFrame(t *testing.T) {
	c, deck, _ := newTestConductor(t)
	c.Update()
	deck.current().stopped = true
	deck.err = errors.New("no device")
	deck.attempts = 0

	f := c.Update()
	if f.SongChanged || f.NewBeat {
		t.Fatalf("expected nothing to start, frame=%+v", f)
	}
	if deck.attempts != 2 {
		t.Fatalf("deck tried %d times in one frame, want 2", deck.attempts)
	}

	deck.err = nil
	if f := c.Update(); !f.SongChanged {
		t.Fatal("expected playback to resume once the deck works")
	}
}

func TestRestartClearsScoreAndRewinds(t *testing.T) {
	c, deck, _ := newTestConductor(t, WithCombo(true))
	c.IncrCurCombo()
	c.IncrCurCombo()
	c.Sell(machine.NewResource(machine.Ingot))
	if err := c.NextSong(); err != nil {
		t.Fatal(err)
	}

	if err := c.Restart(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if c.Index() != 0 || c.TickNum() != 0 {
		t.Fatalf("index=%d tick=%d after restart", c.Index(), c.TickNum())
	}
	if c.Cash() != 0 || c.CurCombo() != 0 || c.MaxCombo() != 0 {
		t.Fatalf("cash=%d combo=%d/%d after restart", c.Cash(), c.CurCombo(), c.MaxCombo())
	}
	want := []string{"one", "two", "one"}
	if len(deck.played) != len(want) || deck.played[2] != "one" {
		t.Fatalf("play order %v, want %v", deck.played, want)
	}
	if !deck.songs[1].closed {
		t.Fatal("song playing at restart was not closed")
	}
	if !c.ComboEnabled() {
		t.Fatal("restart turned combo tracking off")
	}
}
