package clock

import (
	"os"
	"testing"
	"time"

	"beat-factory/beat"
)

type fakeTime struct {
	t time.Time
}

func (f *fakeTime) now() time.Time { return f.t }

func (f *fakeTime) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestWallPositionAdvances(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	w := NewWall(ft.now, 0)

	ft.advance(1500 * time.Millisecond)
	pos, ok := w.Position()
	if !ok || pos != 1.5 {
		t.Fatalf("expected 1.5s valid, got %v %v", pos, ok)
	}
	if !w.Playing() || w.Stopped() {
		t.Fatalf("expected unbounded clock to keep playing")
	}
}

func TestWallStopsAtLength(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	w := NewWall(ft.now, 2*time.Second)

	ft.advance(1999 * time.Millisecond)
	if w.Stopped() {
		t.Fatalf("expected clock to run until its length")
	}
	ft.advance(5 * time.Second)
	if !w.Stopped() {
		t.Fatalf("expected clock to stop after its length")
	}
	if pos, _ := w.Position(); pos != 2 {
		t.Fatalf("expected position clamped to length, got %v", pos)
	}
}

func TestWallPauseFreezes(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	w := NewWall(ft.now, 0)

	ft.advance(time.Second)
	w.SetPaused(true)
	ft.advance(10 * time.Second)
	if pos, _ := w.Position(); pos != 1 {
		t.Fatalf("expected paused position 1s, got %v", pos)
	}
	if w.Playing() {
		t.Fatalf("expected paused clock not to be playing")
	}

	w.SetPaused(false)
	ft.advance(time.Second)
	if pos, _ := w.Position(); pos != 2 {
		t.Fatalf("expected resumed position 2s, got %v", pos)
	}
}

func TestWallSeekAndClose(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	w := NewWall(ft.now, 0)

	if err := w.Seek(30); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if pos, _ := w.Position(); pos != 30 {
		t.Fatalf("expected 30s after seek, got %v", pos)
	}

	w.Close()
	if _, ok := w.Position(); ok {
		t.Fatalf("expected closed clock position to be invalid")
	}
	if !w.Stopped() {
		t.Fatalf("expected closed clock to be stopped")
	}
}

func TestWallDeckUsesClipLength(t *testing.T) {
	ft := &fakeTime{t: time.Unix(1000, 0)}
	deck := &WallDeck{Now: ft.now, DefaultLength: time.Minute}

	clip := beat.NewClip("short", 120, 0)
	clip.Length = 3 * time.Second
	src, err := deck.Play(clip)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if src.Length() != 3 {
		t.Fatalf("expected clip length 3s, got %v", src.Length())
	}

	src, _ = deck.Play(beat.NewClip("default", 120, 0))
	if src.Length() != 60 {
		t.Fatalf("expected default length 60s, got %v", src.Length())
	}
}

func TestAudioDeckFallsBackWithoutAudio(t *testing.T) {
	deck := &AudioDeck{Fallback: &WallDeck{DefaultLength: time.Second}}
	src, err := deck.Play(beat.NewClip("silent", 100, 0))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if _, ok := src.(*Wall); !ok {
		t.Fatalf("expected wall clock fallback, got %T", src)
	}

	if _, err := (&AudioDeck{}).Play(beat.NewClip("silent", 100, 0)); err == nil {
		t.Fatalf("expected error without audio or fallback")
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	path := t.TempDir() + "/song.ogg"
	if err := os.WriteFile(path, []byte("not audio"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Decode(path); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
