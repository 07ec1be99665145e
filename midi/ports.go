package midi

import (
	"errors"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortTimeout bounds port enumeration. CoreMIDI can hang.
const PortTimeout = 3 * time.Second

var (
	ErrTimeout      = errors.New("midi port scan timed out")
	ErrPortNotFound = errors.New("midi port not found")
)

// Ports is a snapshot of the available MIDI ports
type Ports struct {
	Ins  []drivers.In
	Outs []drivers.Out
}

// ListPorts enumerates ports, giving up after timeout
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{Ins: gomidi.GetInPorts(), Outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, ErrTimeout
	}
}

// In returns the first input whose name contains name, ignoring case
func (p Ports) In(name string) (drivers.In, error) {
	for _, in := range p.Ins {
		if matchPort(in.String(), name) {
			return in, nil
		}
	}
	return nil, ErrPortNotFound
}

// Out returns the first output whose name contains name, ignoring case
func (p Ports) Out(name string) (drivers.Out, error) {
	for _, out := range p.Outs {
		if matchPort(out.String(), name) {
			return out, nil
		}
	}
	return nil, ErrPortNotFound
}

func matchPort(portName, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	return strings.Contains(strings.ToLower(portName), strings.ToLower(want))
}
