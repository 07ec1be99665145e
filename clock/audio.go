package clock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"beat-factory/beat"
	"beat-factory/debug"
)

// speakerRate is the output rate; every decoded song is resampled to it
const speakerRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/20))
	})
	return speakerErr
}

// Audio is a playback clock backed by a decoded song on the speaker
type Audio struct {
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	done   atomic.Bool
	closed bool
}

// Decode opens and decodes an mp3 or wav file
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		stream, format, err := mp3.Decode(file)
		if err != nil {
			file.Close()
			return nil, beep.Format{}, err
		}
		return stream, format, nil
	case ".wav":
		stream, format, err := wav.Decode(file)
		if err != nil {
			file.Close()
			return nil, beep.Format{}, err
		}
		return stream, format, nil
	default:
		file.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
}

// NewAudio starts stream on the speaker
func NewAudio(stream beep.StreamSeekCloser, format beep.Format) (*Audio, error) {
	if err := initSpeaker(); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	a := &Audio{
		stream: stream,
		format: format,
		ctrl:   &beep.Ctrl{Streamer: stream},
	}

	var out beep.Streamer = a.ctrl
	if format.SampleRate != speakerRate {
		out = beep.Resample(4, format.SampleRate, speakerRate, a.ctrl)
	}
	speaker.Play(beep.Seq(out, beep.Callback(func() {
		a.done.Store(true)
	})))
	return a, nil
}

// Position returns the playhead in seconds
func (a *Audio) Position() (float64, bool) {
	if a.closed {
		return 0, false
	}
	speaker.Lock()
	pos := a.stream.Position()
	speaker.Unlock()
	return a.format.SampleRate.D(pos).Seconds(), true
}

// Playing reports whether audio is being output
func (a *Audio) Playing() bool {
	if a.closed || a.done.Load() {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return !a.ctrl.Paused
}

// Stopped reports whether the song reached its end
func (a *Audio) Stopped() bool {
	return a.closed || a.done.Load()
}

// SetPaused pauses or resumes output
func (a *Audio) SetPaused(paused bool) {
	speaker.Lock()
	a.ctrl.Paused = paused
	speaker.Unlock()
}

// Seek moves the playhead to sec seconds
func (a *Audio) Seek(sec float64) error {
	n := a.format.SampleRate.N(time.Duration(sec * float64(time.Second)))
	if n < 0 {
		n = 0
	}
	if n >= a.stream.Len() {
		n = a.stream.Len() - 1
	}
	speaker.Lock()
	defer speaker.Unlock()
	return a.stream.Seek(n)
}

// Length returns the song length in seconds
func (a *Audio) Length() float64 {
	return a.format.SampleRate.D(a.stream.Len()).Seconds()
}

// Close stops output and releases the decoder
func (a *Audio) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	speaker.Clear()
	return a.stream.Close()
}

// AudioDeck plays a clip's audio file, falling back to a wall clock for clips
// without audio
type AudioDeck struct {
	Fallback *WallDeck
}

// Play decodes and starts the clip's audio
func (d *AudioDeck) Play(clip beat.Clip) (Source, error) {
	if clip.Audio == "" {
		if d.Fallback == nil {
			return nil, fmt.Errorf("clip %q has no audio", clip.Name)
		}
		return d.Fallback.Play(clip)
	}

	stream, format, err := Decode(clip.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", clip.Audio, err)
	}
	a, err := NewAudio(stream, format)
	if err != nil {
		stream.Close()
		return nil, err
	}
	debug.Log("clock", "audio play %s rate=%d len=%.1fs", clip.Name, format.SampleRate, a.Length())
	return a, nil
}
