// Package clock provides playback clocks for the conductor: a decoded audio
// song on the speaker, or a silent wall clock.
package clock

// Source is the playback position of one song
type Source interface {
	Position() (float64, bool)
	Playing() bool
	Stopped() bool
	SetPaused(paused bool)
	Seek(sec float64) error
	Length() float64
	Close() error
}
