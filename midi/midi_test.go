package midi

import (
	"errors"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"beat-factory/config"
)

func TestMetronomeAccentsDownbeat(t *testing.T) {
	var sent []gomidi.Message
	m := newMetronome(func(msg gomidi.Message) error {
		sent = append(sent, msg)
		return nil
	}, config.DefaultConfig().Metronome)

	for tick := 1; tick <= 5; tick++ {
		m.Beat(tick)
	}
	m.Close()

	var starts []uint8
	var ends int
	for _, msg := range sent {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			if ch != 9 {
				t.Fatalf("channel = %d, want 9", ch)
			}
			starts = append(starts, key)
		case msg.GetNoteEnd(&ch, &key):
			ends++
		}
	}
	want := []uint8{36, 37, 37, 37, 36}
	if len(starts) != len(want) {
		t.Fatalf("got %d clicks, want %d", len(starts), len(want))
	}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("click %d note = %d, want %d", i, starts[i], want[i])
		}
	}
	if ends != len(want) {
		t.Fatalf("got %d note offs, want %d", ends, len(want))
	}
	if m.Clicks() != 5 {
		t.Fatalf("Clicks() = %d", m.Clicks())
	}
}

func TestMetronomeSendErrorKeepsSilent(t *testing.T) {
	calls := 0
	m := newMetronome(func(msg gomidi.Message) error {
		calls++
		return errors.New("port gone")
	}, config.MetronomeConfig{})

	m.Beat(1)
	m.Close()
	if m.Clicks() != 0 {
		t.Fatalf("Clicks() = %d, want 0", m.Clicks())
	}
	if calls != 1 {
		t.Fatalf("send called %d times, want 1 (no note off for a failed click)", calls)
	}
}

func TestMetronomeNoteOffErrorReleases(t *testing.T) {
	var offs, ons int
	m := newMetronome(func(msg gomidi.Message) error {
		var ch, key, vel uint8
		if msg.GetNoteStart(&ch, &key, &vel) {
			ons++
			return nil
		}
		offs++
		return errors.New("port gone")
	}, config.DefaultConfig().Metronome)

	m.Beat(1)
	m.Beat(2)
	m.Close()
	m.Close()
	if ons != 2 {
		t.Fatalf("note ons = %d, want 2", ons)
	}
	// one note off per click, a failed one is not resent
	if offs != 2 {
		t.Fatalf("note offs = %d, want 2", offs)
	}
	if m.Clicks() != 2 {
		t.Fatalf("Clicks() = %d", m.Clicks())
	}
}

func TestNoteInputMapsNotes(t *testing.T) {
	ni, err := NewNoteInput(nil, MappingFromConfig(config.DefaultConfig().NoteInput))
	if err != nil {
		t.Fatal(err)
	}
	defer ni.Close()

	ni.handle(gomidi.NoteOn(0, 64, 100)) // right
	ni.handle(gomidi.NoteOn(3, 48, 90))  // interact on another channel
	ni.handle(gomidi.NoteOff(3, 48))
	ni.handle(gomidi.NoteOn(0, 100, 100)) // unmapped
	ni.handle(gomidi.ControlChange(0, 1, 10))

	want := []ActionEvent{
		{Action: ActionRight, Pressed: true, Note: 64, Channel: 0},
		{Action: ActionInteract, Pressed: true, Note: 48, Channel: 3},
		{Action: ActionInteract, Pressed: false, Note: 48, Channel: 3},
	}
	for i, w := range want {
		select {
		case got := <-ni.Events():
			if got != w {
				t.Errorf("event %d = %+v, want %+v", i, got, w)
			}
		default:
			t.Fatalf("missing event %d", i)
		}
	}
	select {
	case got := <-ni.Events():
		t.Fatalf("unexpected event %+v", got)
	default:
	}
}

func TestNoteInputIgnoresNotesAfterClose(t *testing.T) {
	ni, err := NewNoteInput(nil, MappingFromConfig(config.DefaultConfig().NoteInput))
	if err != nil {
		t.Fatal(err)
	}
	if err := ni.Close(); err != nil {
		t.Fatal(err)
	}
	// a driver callback racing Close must not send on the closed channel
	ni.handle(gomidi.NoteOn(0, 64, 100))
	if err := ni.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-ni.Events(); ok {
		t.Fatal("Events() delivered after Close")
	}
}

func TestMappingChannelFilter(t *testing.T) {
	m := Mapping{Channel: 2, Notes: map[uint8]Action{60: ActionDown}}
	if _, ok := m.Lookup(1, 60); ok {
		t.Fatal("matched on the wrong channel")
	}
	if a, ok := m.Lookup(2, 60); !ok || a != ActionDown {
		t.Fatalf("Lookup = %s, %v", a, ok)
	}
}

func TestMatchPort(t *testing.T) {
	if !matchPort("Launchpad X LPX MIDI", "lpx midi") {
		t.Fatal("case-insensitive substring not matched")
	}
	if matchPort("IAC Driver Bus 1", "") {
		t.Fatal("empty name matched")
	}
}
