package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"beat-factory/beat"
	"beat-factory/clock"
	"beat-factory/config"
	"beat-factory/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "click":
		if len(os.Args) < 4 {
			usage()
			return
		}
		click(os.Args[2], os.Args[3])
	case "notes":
		if len(os.Args) < 3 {
			usage()
			return
		}
		notes(os.Args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  click <port> <bpm> - Send a metronome click to an output")
	fmt.Println("  notes <port>       - Print the player actions an input sends")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.ListPorts(midi.PortTimeout)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ports.Ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range ports.Outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func click(portName, bpmArg string) {
	bpm, err := strconv.ParseFloat(bpmArg, 64)
	if err != nil {
		fmt.Printf("Bad bpm %q: %v\n", bpmArg, err)
		return
	}
	clip := beat.NewClip("click", bpm, 0)
	if err := clip.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	ports, err := midi.ListPorts(midi.PortTimeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	out, err := ports.Out(portName)
	if err != nil {
		fmt.Printf("No output matching %q\n", portName)
		return
	}
	met, err := midi.NewMetronome(out, config.DefaultConfig().Metronome)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer met.Close()

	fmt.Printf("Clicking %s at %.1f bpm. Ctrl+C to exit.\n", out.String(), bpm)

	wall := clock.NewWall(nil, 0)
	helper := beat.NewHelper(clip)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	tick := 0
	for {
		select {
		case <-stop:
			fmt.Printf("\n%d clicks sent\n", met.Clicks())
			return
		case <-ticker.C:
			pos, _ := wall.Position()
			if helper.UpdateSongPos(pos) {
				tick++
				met.Beat(tick)
				fmt.Printf("\rbeat %d", tick)
			}
		}
	}
}

func notes(portName string) {
	ports, err := midi.ListPorts(midi.PortTimeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	in, err := ports.In(portName)
	if err != nil {
		fmt.Printf("No input matching %q\n", portName)
		return
	}
	input, err := midi.NewNoteInput(in, midi.MappingFromConfig(config.DefaultConfig().NoteInput))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer input.Close()

	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.String())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	for {
		select {
		case <-stop:
			return
		case ev := <-input.Events():
			state := "release"
			if ev.Pressed {
				state = "press"
			}
			fmt.Printf("[%s] ch%d note %3d  %-8s %s\n",
				time.Now().Format("15:04:05.000"), ev.Channel, ev.Note, ev.Action, state)
		}
	}
}
