package beat

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTolerance is the grace half-width as a fraction of one beat
const DefaultTolerance = 0.1

var ErrInvalidClip = errors.New("invalid beat clip")

// Clip describes a song's tempo metadata. Clips are authored up front and
// treated as read-only while a song plays.
type Clip struct {
	Name       string        `yaml:"name" json:"name"`
	BPM        float64       `yaml:"bpm" json:"bpm"`
	BeatOffset float64       `yaml:"offset" json:"offset"`       // seconds of lead-in before beat 0
	Tolerance  float64       `yaml:"tolerance" json:"tolerance"` // fraction of a beat
	Audio      string        `yaml:"audio,omitempty" json:"audio,omitempty"`
	MIDI       string        `yaml:"midi,omitempty" json:"midi,omitempty"`
	Length     time.Duration `yaml:"length,omitempty" json:"length,omitempty"`
}

// NewClip returns a clip with the default tolerance
func NewClip(name string, bpm, offset float64) Clip {
	return Clip{
		Name:       name,
		BPM:        bpm,
		BeatOffset: offset,
		Tolerance:  DefaultTolerance,
	}
}

// SecPerBeat returns the beat length in seconds
func (c Clip) SecPerBeat() float64 {
	return 60 / c.BPM
}

// ValidTime returns the on-beat grace half-width in seconds
func (c Clip) ValidTime() float64 {
	return c.Tolerance * c.SecPerBeat()
}

// Validate checks the clip can drive a Helper
func (c Clip) Validate() error {
	if c.BPM <= 0 {
		return fmt.Errorf("%w: %q bpm must be positive, got %v", ErrInvalidClip, c.Name, c.BPM)
	}
	if c.BeatOffset < 0 {
		return fmt.Errorf("%w: %q offset must not be negative, got %v", ErrInvalidClip, c.Name, c.BeatOffset)
	}
	if c.Tolerance < 0 || c.Tolerance > 0.5 {
		return fmt.Errorf("%w: %q tolerance must be within [0, 0.5], got %v", ErrInvalidClip, c.Name, c.Tolerance)
	}
	return nil
}

func (c Clip) String() string {
	return fmt.Sprintf("%s (%.1f bpm, +%.3fs)", c.Name, c.BPM, c.BeatOffset)
}
