package conductor

import (
	"errors"
	"fmt"

	"beat-factory/beat"
	"beat-factory/clock"
	"beat-factory/debug"
	"beat-factory/machine"
)

var (
	ErrMissingCollaborator = errors.New("missing collaborator")
	ErrEmptyPlaylist       = errors.New("empty playlist")
)

// Deck starts playback of a clip and hands back its clock
type Deck interface {
	Play(clip beat.Clip) (clock.Source, error)
}

// BeatListener is called once per confirmed beat with the tick number
type BeatListener func(tick int)

// Frame reports what one Update did
type Frame struct {
	NewBeat       bool
	MachineTicked bool
	SongChanged   bool
	Tick          int
}

// Conductor owns the playback clock and turns it into beats. On every new
// beat it notifies the beat listeners and, in rhythm-lock mode, ticks the
// machine graph. With rhythm lock off the graph ticks every frame.
//
// Conductor is driven from a single frame loop and is not safe for
// concurrent use.
type Conductor struct {
	playlist []beat.Clip
	index    int

	deck   Deck
	song   clock.Source
	helper *beat.Helper
	gate   *beat.Gate
	pool   *machine.Pool

	listeners  []BeatListener
	started    bool
	rhythmLock bool
	tickNum    int
	paused     bool

	comboEnabled bool
	curCombo     int
	maxCombo     int
	cash         int
}

// Option configures a Conductor
type Option func(*Conductor)

// WithRhythmLock sets whether machines tick only on beats
func WithRhythmLock(on bool) Option {
	return func(c *Conductor) { c.rhythmLock = on }
}

// WithCombo enables combo tracking from the start
func WithCombo(on bool) Option {
	return func(c *Conductor) { c.comboEnabled = on }
}

// WithBeatListener registers a per-beat callback
func WithBeatListener(l BeatListener) Option {
	return func(c *Conductor) { c.OnBeat(l) }
}

// New wires a conductor. It fails instead of starting with a missing
// deck, pool or an unusable playlist.
func New(playlist []beat.Clip, deck Deck, pool *machine.Pool, opts ...Option) (*Conductor, error) {
	if deck == nil {
		return nil, fmt.Errorf("%w: deck", ErrMissingCollaborator)
	}
	if pool == nil {
		return nil, fmt.Errorf("%w: machine pool", ErrMissingCollaborator)
	}
	if len(playlist) == 0 {
		return nil, ErrEmptyPlaylist
	}
	for i, clip := range playlist {
		if err := clip.Validate(); err != nil {
			return nil, fmt.Errorf("playlist entry %d: %w", i, err)
		}
	}

	c := &Conductor{
		playlist:   append([]beat.Clip(nil), playlist...),
		deck:       deck,
		pool:       pool,
		helper:     beat.NewHelper(playlist[0]),
		rhythmLock: true,
	}
	c.gate = beat.NewGate(c.helper)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnBeat registers a listener for every confirmed beat
func (c *Conductor) OnBeat(l BeatListener) {
	if l != nil {
		c.listeners = append(c.listeners, l)
	}
}

// Start plays the current playlist entry
func (c *Conductor) Start() error {
	c.started = true
	return c.startClip(c.Clip())
}

func (c *Conductor) startClip(clip beat.Clip) error {
	c.closeSong()

	c.tickNum = 0
	c.helper.Reset(clip)
	c.gate.Reset()

	song, err := c.deck.Play(clip)
	if err != nil {
		return fmt.Errorf("play %s: %w", clip.Name, err)
	}
	c.song = song
	if c.paused {
		c.song.SetPaused(true)
	}
	debug.Log("conductor", "start [%d/%d] %s", c.index+1, len(c.playlist), clip)
	return nil
}

func (c *Conductor) closeSong() {
	if c.song == nil {
		return
	}
	if err := c.song.Close(); err != nil {
		debug.Log("conductor", "close song: %v", err)
	}
	c.song = nil
}

// NextSong advances the playlist, wrapping at the end
func (c *Conductor) NextSong() error {
	c.index = (c.index + 1) % len(c.playlist)
	return c.Start()
}

// advance moves to the next entry that starts, trying each entry at most
// once per call
func (c *Conductor) advance() bool {
	for range c.playlist {
		err := c.NextSong()
		if err == nil {
			return true
		}
		debug.Log("conductor", "skip [%d] %s: %v", c.index+1, c.Clip().Name, err)
	}
	return false
}

// Update runs one frame: poll the clock, dispatch a new beat, tick the
// graph, and move to the next song when the current one has stopped.
func (c *Conductor) Update() Frame {
	var f Frame
	if c.paused {
		f.Tick = c.tickNum
		return f
	}

	if c.updateSongPos() {
		c.tickNum++
		f.NewBeat = true
		c.trueTick()
		if c.rhythmLock {
			c.MachineTick()
			f.MachineTicked = true
		}
	}

	if !c.rhythmLock {
		c.MachineTick()
		f.MachineTicked = true
	}

	// a song that failed to start counts as stopped
	if c.started && (c.song == nil || c.song.Stopped()) {
		f.SongChanged = c.advance()
	}

	f.Tick = c.tickNum
	return f
}

// updateSongPos treats a missing or invalid clock as "no beat this frame"
func (c *Conductor) updateSongPos() bool {
	if c.song == nil {
		return false
	}
	pos, ok := c.song.Position()
	if !ok {
		return false
	}
	return c.helper.UpdateSongPos(pos)
}

func (c *Conductor) trueTick() {
	for _, l := range c.listeners {
		l(c.tickNum)
	}
}

// MachineTick ticks every machine in the graph once
func (c *Conductor) MachineTick() {
	c.pool.Tick()
}

// AttemptMove gates a player move on the beat. With rhythm lock off every
// move is accepted.
func (c *Conductor) AttemptMove() bool {
	if !c.rhythmLock {
		return true
	}
	return c.gate.AttemptMove()
}

// SongIsOnBeat reports whether the song is inside the grace window
func (c *Conductor) SongIsOnBeat() bool {
	return c.helper.IsOnBeat()
}

// Close stops the current song
func (c *Conductor) Close() {
	c.closeSong()
}

// Accessors

func (c *Conductor) Clip() beat.Clip       { return c.playlist[c.index] }
func (c *Conductor) BPM() float64          { return c.Clip().BPM }
func (c *Conductor) Index() int            { return c.index }
func (c *Conductor) Playlist() []beat.Clip { return append([]beat.Clip(nil), c.playlist...) }
func (c *Conductor) TickNum() int          { return c.tickNum }
func (c *Conductor) Helper() *beat.Helper  { return c.helper }
func (c *Conductor) Gate() *beat.Gate      { return c.gate }
func (c *Conductor) Pool() *machine.Pool   { return c.pool }
func (c *Conductor) RhythmLock() bool      { return c.rhythmLock }

// SetRhythmLock switches between beat-locked and every-frame machine ticks
func (c *Conductor) SetRhythmLock(on bool) {
	c.rhythmLock = on
	debug.Log("conductor", "rhythm lock %v", on)
}
