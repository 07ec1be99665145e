package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"
	"github.com/mitchellh/go-homedir"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.RhythmLock || cfg.FrameRate != 60 {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"rhythmLock": false, "frameRate": 0}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.RhythmLock {
		t.Error("rhythmLock not read from file")
	}
	if !cfg.ComboEnabled {
		t.Error("comboEnabled lost its default")
	}
	if cfg.FrameRate != 60 {
		t.Errorf("frameRate = %d, want fallback 60", cfg.FrameRate)
	}
	if cfg.Metronome.BeatsPerBar != 4 || cfg.NoteInput.Channel != -1 {
		t.Errorf("nested defaults lost: %+v %+v", cfg.Metronome, cfg.NoteInput)
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{rhythmLock`), 0644)

	_, err := LoadFrom(path)
	if err == nil {
		t.Fatal("expected an error")
	}
	if tag := ftag.Get(err); tag != ftag.InvalidArgument {
		t.Fatalf("tag = %q, want %q", tag, ftag.InvalidArgument)
	}
}

func TestSaveToCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Playlist = "~/songs.yaml"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Playlist != "~/songs.yaml" {
		t.Fatalf("playlist = %q", got.Playlist)
	}
}

func TestPathsExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg := DefaultConfig()
	p, err := cfg.PlaylistPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".config", appName, "playlist.yaml"); p != want {
		t.Fatalf("default playlist = %q, want %q", p, want)
	}

	cfg.Playlist = "~/music/list.yaml"
	p, _ = cfg.PlaylistPath()
	if want := filepath.Join(home, "music", "list.yaml"); p != want {
		t.Fatalf("playlist = %q, want %q", p, want)
	}

	if p, _ := cfg.DebugLogPath(); p != "" {
		t.Fatalf("debug log = %q, want off", p)
	}
}
