package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"beat-factory/config"
	"beat-factory/debug"
)

// Action is a player command triggered from a note
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionInteract
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionLeft:
		return "left"
	case ActionRight:
		return "right"
	case ActionInteract:
		return "interact"
	case ActionDelete:
		return "delete"
	}
	return "none"
}

// ActionEvent is sent when a mapped note starts or ends
type ActionEvent struct {
	Action  Action
	Pressed bool
	Note    uint8
	Channel uint8
}

// Mapping resolves notes to actions on one channel, or all channels when
// Channel is negative
type Mapping struct {
	Channel int
	Notes   map[uint8]Action
}

// MappingFromConfig builds a mapping from the noteInput config section
func MappingFromConfig(c config.NoteInputConfig) Mapping {
	return Mapping{
		Channel: c.Channel,
		Notes: map[uint8]Action{
			c.Up:       ActionUp,
			c.Down:     ActionDown,
			c.Left:     ActionLeft,
			c.Right:    ActionRight,
			c.Interact: ActionInteract,
			c.Delete:   ActionDelete,
		},
	}
}

// Lookup returns the action for a note on a channel
func (m Mapping) Lookup(channel, note uint8) (Action, bool) {
	if m.Channel >= 0 && int(channel) != m.Channel {
		return ActionNone, false
	}
	a, ok := m.Notes[note]
	return a, ok && a != ActionNone
}

// NoteInput turns note messages from an input port into action events
type NoteInput struct {
	mapping  Mapping
	inPort   drivers.In
	stopFunc func()

	mu     sync.Mutex // guards events against a late driver callback
	closed bool
	events chan ActionEvent
}

// NewNoteInput listens on inPort. A nil port gives an input that only
// reports what is fed to it directly.
func NewNoteInput(inPort drivers.In, mapping Mapping) (*NoteInput, error) {
	ni := &NoteInput{
		mapping: mapping,
		inPort:  inPort,
		events:  make(chan ActionEvent, 32),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			ni.handle(msg)
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		ni.stopFunc = stop
		debug.Log("midi", "listening on %s", inPort.String())
	}
	return ni, nil
}

// Events returns the action stream. It is closed by Close.
func (ni *NoteInput) Events() <-chan ActionEvent {
	return ni.events
}

func (ni *NoteInput) handle(msg gomidi.Message) {
	var channel, note, velocity uint8
	var ev ActionEvent
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		ev.Pressed = true
	case msg.GetNoteEnd(&channel, &note):
	default:
		return
	}

	action, ok := ni.mapping.Lookup(channel, note)
	if !ok {
		return
	}
	ev.Action, ev.Note, ev.Channel = action, note, channel

	ni.mu.Lock()
	defer ni.mu.Unlock()
	if ni.closed {
		return
	}
	select {
	case ni.events <- ev:
	default:
		debug.Log("midi", "dropped %s event, queue full", action)
	}
}

// Close stops listening and closes the event stream. It is safe to call
// more than once.
func (ni *NoteInput) Close() error {
	if ni.stopFunc != nil {
		ni.stopFunc()
		ni.stopFunc = nil
	}
	ni.mu.Lock()
	defer ni.mu.Unlock()
	if !ni.closed {
		ni.closed = true
		close(ni.events)
	}
	return nil
}
