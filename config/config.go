package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/mitchellh/go-homedir"
)

const appName = "beat-factory"

// MetronomeConfig is the MIDI click sent on every beat
type MetronomeConfig struct {
	PortName    string `json:"portName,omitempty"`
	Channel     uint8  `json:"channel"`
	ClickNote   uint8  `json:"clickNote"`
	AccentNote  uint8  `json:"accentNote"`
	Velocity    uint8  `json:"velocity"`
	BeatsPerBar int    `json:"beatsPerBar"`
}

// NoteInputConfig maps pad or keyboard notes to player actions
type NoteInputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channel  int    `json:"channel"` // -1 listens on every channel
	Up       uint8  `json:"up"`
	Down     uint8  `json:"down"`
	Left     uint8  `json:"left"`
	Right    uint8  `json:"right"`
	Interact uint8  `json:"interact"`
	Delete   uint8  `json:"delete"`
}

// Rect is a block of grid cells
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// WorldConfig sizes the factory floor. Ore lists the veins miners must
// stand on; with none, miners go anywhere.
type WorldConfig struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ore    []Rect `json:"ore,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	RhythmLock   bool            `json:"rhythmLock"`
	ComboEnabled bool            `json:"comboEnabled"`
	FrameRate    int             `json:"frameRate"`
	Playlist     string          `json:"playlist,omitempty"`
	DebugLog     string          `json:"debugLog,omitempty"`
	Metronome    MetronomeConfig `json:"metronome"`
	NoteInput    NoteInputConfig `json:"noteInput"`
	World        WorldConfig     `json:"world"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RhythmLock:   true,
		ComboEnabled: true,
		FrameRate:    60,
		Metronome: MetronomeConfig{
			Channel:     9,
			ClickNote:   37, // side stick
			AccentNote:  36, // kick
			Velocity:    100,
			BeatsPerBar: 4,
		},
		NoteInput: NoteInputConfig{
			Channel:  -1,
			Up:       62,
			Down:     60,
			Left:     59,
			Right:    64,
			Interact: 48,
			Delete:   50,
		},
		World: WorldConfig{
			Width:  24,
			Height: 12,
			Ore:    []Rect{{X: 2, Y: 2, W: 3, H: 2}, {X: 2, Y: 8, W: 3, H: 2}},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SavesDir returns the directory holding factory layout saves
func SavesDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "saves"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", "config file "+path+" is not valid JSON"),
			ftag.With(ftag.InvalidArgument))
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultConfig().FrameRate
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PlaylistPath returns the playlist file with ~ expanded. An empty setting
// means playlist.yaml next to config.json.
func (c *Config) PlaylistPath() (string, error) {
	if c.Playlist == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "playlist.yaml"), nil
	}
	return homedir.Expand(c.Playlist)
}

// DebugLogPath returns the debug log path with ~ expanded, or "" when
// logging is off
func (c *Config) DebugLogPath() (string, error) {
	if c.DebugLog == "" {
		return "", nil
	}
	return homedir.Expand(c.DebugLog)
}
