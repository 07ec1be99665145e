package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"beat-factory/conductor"
	"beat-factory/debug"
	"beat-factory/game"
	"beat-factory/midi"
	"beat-factory/theme"
	"beat-factory/widgets"
)

// seekStep is the progress jump for the seek keys
const seekStep = 0.05

type Model struct {
	Conductor *conductor.Conductor
	Player    *game.Player
	World     *game.World
	Theme     *theme.Theme
	Input     *midi.NoteInput // may be nil
	SaveDir   string          // layout saves, empty disables saving
	Initial   game.Layout     // floor the restart key puts back

	frameRate int
	bar       *widgets.BeatBar
	keys      keyMap
	help      help.Model
	status    string
	quitting  bool
}

// FrameMsg drives one conductor update
type FrameMsg time.Time

// ActionMsg carries a note input event
type ActionMsg midi.ActionEvent

func NewModel(c *conductor.Conductor, p *game.Player, w *game.World, input *midi.NoteInput, th *theme.Theme, frameRate int) Model {
	if frameRate <= 0 {
		frameRate = 60
	}
	bar := widgets.NewBeatBar(w.Width())
	bar.SetClip(c.Clip())
	initial := w.Layout()
	initial.Player = p.Pos()
	return Model{
		Conductor: c,
		Player:    p,
		World:     w,
		Theme:     th,
		Input:     input,
		Initial:   initial,
		frameRate: frameRate,
		bar:       bar,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
}

func frameCmd(frameRate int) tea.Cmd {
	interval := time.Second / time.Duration(frameRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// ListenForActions waits for the next note input event
func ListenForActions(input *midi.NoteInput) tea.Cmd {
	if input == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-input.Events()
		if !ok {
			return nil
		}
		return ActionMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.frameRate),
		ListenForActions(m.Input),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		m.frame()
		return m, frameCmd(m.frameRate)

	case ActionMsg:
		m.action(midi.ActionEvent(msg))
		return m, ListenForActions(m.Input)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.move(game.Up)
		case key.Matches(msg, m.keys.Down):
			m.move(game.Down)
		case key.Matches(msg, m.keys.Left):
			m.move(game.Left)
		case key.Matches(msg, m.keys.Right):
			m.move(game.Right)

		// terminals report no key release, so build and demolish toggle
		case key.Matches(msg, m.keys.Interact):
			m.Player.SetInteract(!m.Player.Interacting())
		case key.Matches(msg, m.keys.Delete):
			m.Player.SetDelete(!m.Player.Deleting())
		case key.Matches(msg, m.keys.NextKind):
			m.status = "building " + string(m.Player.SelectNext())

		case key.Matches(msg, m.keys.Pause):
			m.Conductor.SetPaused(!m.Conductor.Paused())
		case key.Matches(msg, m.keys.Lock):
			m.Conductor.SetRhythmLock(!m.Conductor.RhythmLock())
		case key.Matches(msg, m.keys.Combo):
			if m.Conductor.ComboEnabled() {
				m.Conductor.DisableCombo()
			} else {
				m.Conductor.EnableCombo()
			}
		case key.Matches(msg, m.keys.NextSong):
			if err := m.Conductor.NextSong(); err != nil {
				m.status = err.Error()
			}
			m.bar.SetClip(m.Conductor.Clip())
		case key.Matches(msg, m.keys.SeekBack):
			m.seek(-seekStep)
		case key.Matches(msg, m.keys.SeekFwd):
			m.seek(seekStep)
		case key.Matches(msg, m.keys.Save):
			m.save()
		case key.Matches(msg, m.keys.Restart):
			m.restart()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m *Model) frame() {
	f := m.Conductor.Update()
	now := m.Conductor.Helper().SongTime()
	if f.SongChanged {
		m.bar.SetClip(m.Conductor.Clip())
		m.status = "now playing " + m.Conductor.Clip().Name
	}
	if f.NewBeat {
		m.bar.Tick(now)
	}
	m.bar.Advance(now)
}

func (m *Model) move(d game.Dir) {
	res := m.Player.Move(d)
	switch {
	case res.Err != nil:
		m.status = res.Err.Error()
	case res.Outcome == game.MoveMissed:
		m.status = "off beat"
	default:
		m.status = ""
	}
}

func (m *Model) action(ev midi.ActionEvent) {
	switch ev.Action {
	case midi.ActionUp, midi.ActionDown, midi.ActionLeft, midi.ActionRight:
		if ev.Pressed {
			m.move(actionDirs[ev.Action])
		}
	case midi.ActionInteract:
		m.Player.SetInteract(ev.Pressed)
	case midi.ActionDelete:
		m.Player.SetDelete(ev.Pressed)
	}
}

var actionDirs = map[midi.Action]game.Dir{
	midi.ActionUp:    game.Up,
	midi.ActionDown:  game.Down,
	midi.ActionLeft:  game.Left,
	midi.ActionRight: game.Right,
}

func (m *Model) seek(delta float64) {
	t := m.Conductor.Progress() + delta
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if err := m.Conductor.SetProgress(t); err != nil {
		debug.Log("clock", "seek: %v", err)
		m.status = err.Error()
		return
	}
	m.bar.SetClip(m.Conductor.Clip())
}

// restart puts the starting floor back and replays the playlist
func (m *Model) restart() {
	m.status = "restarted"
	if err := m.World.Restore(m.Initial); err != nil {
		m.status = err.Error()
	}
	m.Player.SetPos(m.Initial.Player)
	if err := m.Conductor.Restart(); err != nil {
		m.status = err.Error()
	}
	m.bar.SetClip(m.Conductor.Clip())
}

func (m *Model) save() {
	if m.SaveDir == "" {
		m.status = "saving disabled"
		return
	}
	l := m.World.Layout()
	l.Player = m.Player.Pos()
	name, err := game.SaveLayout(m.SaveDir, l, time.Now())
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = "saved " + name
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	c := m.Conductor
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	playState := "PLAY"
	if c.Paused() {
		playState = "PAUSE"
	}
	lock := "free"
	if c.RhythmLock() {
		lock = "lock"
	}
	header := headerStyle.Render(fmt.Sprintf("beat-factory  %s  %s  %.0fbpm  tick:%03d  %3.0f%%  %s",
		playState, c.Clip().Name, c.BPM(), c.TickNum(), c.Progress()*100, lock))

	combo := "combo off"
	if c.ComboEnabled() {
		combo = fmt.Sprintf("combo %d (max %d)", c.CurCombo(), c.MaxCombo())
	}
	mode := "walk"
	switch {
	case m.Player.Deleting():
		mode = "demolish"
	case m.Player.Interacting():
		mode = "build " + string(m.Player.Selected())
	}
	stats := fmt.Sprintf("$%d  %s  %s  machines:%d", c.Cash(), combo, mode, c.Pool().Len())

	now := c.Helper().SongTime()

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(dimStyle.Render(stats))
	out.WriteString("\n\n")
	out.WriteString(m.bar.View(now, c.SongIsOnBeat(), m.Theme))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderGrid(m.World, m.Player.Pos(), m.Theme))
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderLegend(m.Player.Selected(), m.Theme))
	out.WriteString("\n\n")
	if m.status != "" {
		out.WriteString(warnStyle.Render(m.status))
	}
	out.WriteString("\n")
	out.WriteString(m.help.View(m.keys))

	return out.String()
}
