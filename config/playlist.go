package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"gitlab.com/gomidi/midi/v2/smf"
	"gopkg.in/yaml.v3"

	"beat-factory/beat"
	"beat-factory/debug"
)

// playlistFile is the on-disk layout:
//
//	songs:
//	  - name: intro
//	    bpm: 120
//	    offset: 0.25
//	    audio: intro.mp3
//	  - name: groove
//	    midi: groove.mid   # bpm read from the first tempo event
//	    length: 90s
type playlistFile struct {
	Songs []songEntry `yaml:"songs"`
}

type songEntry struct {
	Name      string        `yaml:"name"`
	BPM       float64       `yaml:"bpm"`
	Offset    float64       `yaml:"offset"`
	Tolerance *float64      `yaml:"tolerance"`
	Audio     string        `yaml:"audio"`
	MIDI      string        `yaml:"midi"`
	Length    time.Duration `yaml:"length"`
}

// LoadPlaylist reads a YAML playlist. Relative audio and midi paths are
// resolved against the playlist's directory.
func LoadPlaylist(path string) ([]beat.Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("read playlist", "could not read playlist "+path),
			ftag.With(ftag.NotFound))
	}
	clips, err := ParsePlaylist(data, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	debug.Log("config", "loaded %d songs from %s", len(clips), path)
	return clips, nil
}

// ParsePlaylist decodes playlist YAML. Every clip is validated.
func ParsePlaylist(data []byte, baseDir string) ([]beat.Clip, error) {
	var file playlistFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse playlist"), ftag.With(ftag.InvalidArgument))
	}
	if len(file.Songs) == 0 {
		return nil, fault.New("playlist has no songs", ftag.With(ftag.InvalidArgument))
	}

	clips := make([]beat.Clip, 0, len(file.Songs))
	for i, s := range file.Songs {
		clip, err := s.clip(baseDir)
		if err != nil {
			return nil, fault.Wrap(err,
				fmsg.With(fmt.Sprintf("song %d", i)),
				ftag.With(ftag.InvalidArgument))
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (s songEntry) clip(baseDir string) (beat.Clip, error) {
	c := beat.NewClip(s.Name, s.BPM, s.Offset)
	if s.Tolerance != nil {
		c.Tolerance = *s.Tolerance
	}
	c.Audio = resolve(baseDir, s.Audio)
	c.MIDI = resolve(baseDir, s.MIDI)
	c.Length = s.Length

	if c.BPM == 0 && c.MIDI != "" {
		bpm, err := TempoFromMIDI(c.MIDI)
		if err != nil {
			return c, err
		}
		c.BPM = bpm
	}
	if c.Name == "" {
		c.Name = filepath.Base(firstNonEmpty(c.Audio, c.MIDI, "untitled"))
	}
	return c, c.Validate()
}

// TempoFromMIDI returns the first tempo of a standard MIDI file
func TempoFromMIDI(path string) (float64, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return 0, fault.Wrap(err, fmsg.With("read midi file "+path))
	}
	changes := rd.TempoChanges()
	if len(changes) == 0 {
		return 0, fault.New("no tempo in " + path)
	}
	return changes[0].BPM, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
