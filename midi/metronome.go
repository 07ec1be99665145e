package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"beat-factory/config"
	"beat-factory/debug"
)

// Metronome sends a short note on every beat, accenting the downbeat
type Metronome struct {
	send func(msg gomidi.Message) error
	cfg  config.MetronomeConfig

	sounding bool
	lastNote uint8
	clicks   int
}

// NewMetronome opens outPort for sending
func NewMetronome(outPort drivers.Out, cfg config.MetronomeConfig) (*Metronome, error) {
	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	debug.Log("midi", "metronome on %s ch %d", outPort.String(), cfg.Channel)
	return newMetronome(send, cfg), nil
}

func newMetronome(send func(msg gomidi.Message) error, cfg config.MetronomeConfig) *Metronome {
	if cfg.BeatsPerBar <= 0 {
		cfg.BeatsPerBar = 4
	}
	if cfg.Velocity == 0 {
		cfg.Velocity = 100
	}
	return &Metronome{send: send, cfg: cfg}
}

// Beat clicks for beat number tick, counting from 1. It matches the
// conductor's beat listener signature.
func (m *Metronome) Beat(tick int) {
	m.release()

	note := m.cfg.ClickNote
	if (tick-1)%m.cfg.BeatsPerBar == 0 {
		note = m.cfg.AccentNote
	}
	if err := m.send(gomidi.NoteOn(m.cfg.Channel, note, m.cfg.Velocity)); err != nil {
		debug.Log("midi", "metronome send: %v", err)
		return
	}
	m.sounding = true
	m.lastNote = note
	m.clicks++
}

// Clicks returns the number of notes sent
func (m *Metronome) Clicks() int { return m.clicks }

func (m *Metronome) release() {
	if !m.sounding {
		return
	}
	// a lost note off is not retried; the next click replaces it anyway
	if err := m.send(gomidi.NoteOff(m.cfg.Channel, m.lastNote)); err != nil {
		debug.Log("midi", "metronome note off: %v", err)
	}
	m.sounding = false
}

// Close silences a ringing note
func (m *Metronome) Close() error {
	m.release()
	return nil
}
