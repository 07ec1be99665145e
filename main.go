package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"beat-factory/beat"
	"beat-factory/clock"
	"beat-factory/conductor"
	"beat-factory/config"
	"beat-factory/debug"
	"beat-factory/game"
	"beat-factory/machine"
	"beat-factory/midi"
	"beat-factory/theme"
	"beat-factory/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if logPath, err := cfg.DebugLogPath(); err == nil && logPath != "" {
		if err := debug.Enable(logPath); err != nil {
			fmt.Printf("debug log disabled: %v\n", err)
		}
		defer debug.Disable()
	}

	clips, err := loadPlaylist(cfg)
	if err != nil {
		return err
	}

	pool := machine.NewPool()
	deck := &clock.AudioDeck{Fallback: &clock.WallDeck{DefaultLength: clock.DefaultLength}}
	c, err := conductor.New(clips, deck, pool,
		conductor.WithRhythmLock(cfg.RhythmLock),
		conductor.WithCombo(cfg.ComboEnabled),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	world := buildWorld(cfg.World, pool, c.Sell)
	player := game.NewPlayer(world, c, c, game.Pos{X: 1, Y: cfg.World.Height / 2})
	c.OnBeat(player.Tick)

	savesDir, err := config.SavesDir()
	if err != nil {
		savesDir = ""
	}
	fresh := world.Layout()
	fresh.Player = player.Pos()
	restoreLatest(savesDir, world, player)

	input, met := openMIDI(cfg, c)
	if input != nil {
		defer input.Close()
	}
	if met != nil {
		defer met.Close()
	}

	if err := c.Start(); err != nil {
		return err
	}

	m := tui.NewModel(c, player, world, input, theme.New(nil), cfg.FrameRate)
	m.SaveDir = savesDir
	m.Initial = fresh
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// loadPlaylist falls back to a silent click track when no playlist exists
func loadPlaylist(cfg *config.Config) ([]beat.Clip, error) {
	path, err := cfg.PlaylistPath()
	if err != nil {
		return nil, err
	}
	clips, err := config.LoadPlaylist(path)
	if errors.Is(err, os.ErrNotExist) {
		debug.Log("config", "no playlist at %s, using a click track", path)
		return []beat.Clip{beat.NewClip("click", 120, 0)}, nil
	}
	return clips, err
}

// buildWorld walls in the floor and puts a fixed seller on the far side
func buildWorld(wc config.WorldConfig, pool *machine.Pool, market machine.Market) *game.World {
	w := game.NewWorld(wc.Width, wc.Height, pool, market)
	for x := 0; x < wc.Width; x++ {
		w.Block(game.Pos{X: x, Y: 0})
		w.Block(game.Pos{X: x, Y: wc.Height - 1})
	}
	for y := 0; y < wc.Height; y++ {
		w.Block(game.Pos{X: 0, Y: y})
		w.Block(game.Pos{X: wc.Width - 1, Y: y})
	}
	for _, r := range wc.Ore {
		for y := r.Y; y < r.Y+r.H; y++ {
			for x := r.X; x < r.X+r.W; x++ {
				w.SetOre(game.Pos{X: x, Y: y})
			}
		}
	}
	if _, err := w.PlaceFixed(machine.KindSeller, game.Pos{X: wc.Width - 2, Y: wc.Height / 2}); err != nil {
		debug.Log("world", "no market: %v", err)
	}
	return w
}

// restoreLatest loads the newest layout save, if any
func restoreLatest(dir string, w *game.World, p *game.Player) {
	if dir == "" {
		return
	}
	l, err := game.LoadLayout(dir, "")
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("could not load save: %v\n", err)
		}
		return
	}
	if l.Width != w.Width() || l.Height != w.Height() {
		debug.Log("world", "save is %dx%d, floor is %dx%d, skipping", l.Width, l.Height, w.Width(), w.Height())
		return
	}
	if err := w.Restore(l); err != nil {
		debug.Log("world", "%v", err)
	}
	p.SetPos(l.Player)
}

// openMIDI attaches the metronome and note input named in the config.
// Missing ports are logged and skipped; either result may be nil.
func openMIDI(cfg *config.Config, c *conductor.Conductor) (input *midi.NoteInput, met *midi.Metronome) {
	if cfg.Metronome.PortName == "" && cfg.NoteInput.PortName == "" {
		return nil, nil
	}
	ports, err := midi.ListPorts(midi.PortTimeout)
	if err != nil {
		fmt.Printf("MIDI unavailable: %v\n", err)
		return nil, nil
	}

	if cfg.Metronome.PortName != "" {
		if out, err := ports.Out(cfg.Metronome.PortName); err == nil {
			if met, err = midi.NewMetronome(out, cfg.Metronome); err == nil {
				c.OnBeat(met.Beat)
			} else {
				met = nil
				debug.Log("midi", "metronome: %v", err)
			}
		} else {
			debug.Log("midi", "metronome port %q: %v", cfg.Metronome.PortName, err)
		}
	}

	if cfg.NoteInput.PortName == "" {
		return nil, met
	}
	in, err := ports.In(cfg.NoteInput.PortName)
	if err != nil {
		debug.Log("midi", "note input port %q: %v", cfg.NoteInput.PortName, err)
		return nil, met
	}
	input, err = midi.NewNoteInput(in, midi.MappingFromConfig(cfg.NoteInput))
	if err != nil {
		debug.Log("midi", "note input: %v", err)
		return nil, met
	}
	return input, met
}
