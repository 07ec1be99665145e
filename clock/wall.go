package clock

import (
	"time"

	"beat-factory/beat"
	"beat-factory/debug"
)

// DefaultLength is used for silent clips that do not declare a length
const DefaultLength = 2 * time.Minute

// Wall is a playback clock driven by the system clock. It stands in for a
// song when there is no audio, and lets tests fake time through Now.
type Wall struct {
	now    func() time.Time
	start  time.Time
	length time.Duration

	paused   bool
	pausedAt time.Time
	closed   bool
}

// NewWall starts a wall clock now. length <= 0 means it never stops.
func NewWall(now func() time.Time, length time.Duration) *Wall {
	if now == nil {
		now = time.Now
	}
	return &Wall{now: now, start: now(), length: length}
}

func (w *Wall) elapsed() time.Duration {
	at := w.now()
	if w.paused {
		at = w.pausedAt
	}
	return at.Sub(w.start)
}

// Position returns elapsed playback seconds
func (w *Wall) Position() (float64, bool) {
	if w.closed {
		return 0, false
	}
	el := w.elapsed()
	if w.length > 0 && el > w.length {
		el = w.length
	}
	return el.Seconds(), true
}

// Playing reports whether time is advancing
func (w *Wall) Playing() bool {
	return !w.paused && !w.Stopped()
}

// Stopped reports whether the clip has run out or the clock was closed
func (w *Wall) Stopped() bool {
	if w.closed {
		return true
	}
	return w.length > 0 && w.elapsed() >= w.length
}

// SetPaused freezes or resumes the clock
func (w *Wall) SetPaused(paused bool) {
	if paused == w.paused {
		return
	}
	if paused {
		w.pausedAt = w.now()
	} else {
		w.start = w.start.Add(w.now().Sub(w.pausedAt))
	}
	w.paused = paused
}

// Seek moves the playhead to sec seconds
func (w *Wall) Seek(sec float64) error {
	at := w.now()
	if w.paused {
		at = w.pausedAt
	}
	w.start = at.Add(-time.Duration(sec * float64(time.Second)))
	return nil
}

// Length returns the clip length in seconds, 0 when unbounded
func (w *Wall) Length() float64 {
	return w.length.Seconds()
}

// Close stops the clock for good
func (w *Wall) Close() error {
	w.closed = true
	return nil
}

// WallDeck starts silent wall clocks for clips
type WallDeck struct {
	Now           func() time.Time
	DefaultLength time.Duration
}

// Play returns a wall clock running for the clip's length
func (d *WallDeck) Play(clip beat.Clip) (Source, error) {
	length := clip.Length
	if length <= 0 {
		length = d.DefaultLength
	}
	debug.Log("clock", "wall play %s length=%s", clip.Name, length)
	return NewWall(d.Now, length), nil
}
