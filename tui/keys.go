package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down, Left, Right key.Binding

	Interact key.Binding
	Delete   key.Binding
	NextKind key.Binding

	Pause    key.Binding
	Lock     key.Binding
	Combo    key.Binding
	NextSong key.Binding
	SeekBack key.Binding
	SeekFwd  key.Binding

	Save    key.Binding
	Restart key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func binding(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:    binding("up", "up", "w"),
		Down:  binding("down", "down", "s"),
		Left:  binding("left", "left", "a"),
		Right: binding("right", "right", "d"),

		Interact: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "build")),
		Delete:   binding("demolish", "x"),
		NextKind: binding("machine", "tab"),

		Pause:    binding("pause", "p"),
		Lock:     binding("rhythm lock", "r"),
		Combo:    binding("combo", "c"),
		NextSong: binding("next song", "n"),
		SeekBack: binding("seek -5%", "["),
		SeekFwd:  binding("seek +5%", "]"),

		Save:    binding("save", "ctrl+s"),
		Restart: binding("restart", "esc"),
		Help:    binding("help", "?"),
		Quit:    binding("quit", "q", "ctrl+c"),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Interact, k.Delete, k.NextKind, k.Pause, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Interact, k.Delete, k.NextKind},
		{k.Pause, k.Lock, k.Combo},
		{k.NextSong, k.SeekBack, k.SeekFwd},
		{k.Save, k.Restart, k.Help, k.Quit},
	}
}
