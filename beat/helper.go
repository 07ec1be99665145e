package beat

import (
	"math"

	"beat-factory/debug"
)

// noBeat is the lastBeat sentinel before beat 0 has been crossed
const noBeat = -1

// Helper tracks the beat phase of the current song. It turns a polled
// playback position into an edge-triggered "new beat" signal and a level
// "inside the grace window" signal.
type Helper struct {
	clip     Clip
	lastBeat int
	songTime float64
}

// NewHelper creates a helper reset to the given clip
func NewHelper(clip Clip) *Helper {
	h := &Helper{}
	h.Reset(clip)
	return h
}

// Reset re-initializes the helper for a new or restarted song
func (h *Helper) Reset(clip Clip) {
	h.clip = clip
	h.lastBeat = noBeat
	h.songTime = 0
	debug.Log("beat", "reset clip=%s spb=%.4f valid=%.4f", clip.Name, clip.SecPerBeat(), h.ValidTime())
}

// Clip returns the clip currently being tracked
func (h *Helper) Clip() Clip {
	return h.clip
}

// ValidTime returns the grace half-width in seconds
func (h *Helper) ValidTime() float64 {
	return h.clip.ValidTime()
}

// SongTime returns the last observed playback position
func (h *Helper) SongTime() float64 {
	return h.songTime
}

// Beat returns the last beat boundary crossed, -1 before beat 0
func (h *Helper) Beat() int {
	return h.lastBeat
}

// UpdateSongPos records the playback position and reports whether a beat
// boundary was crossed since the previous call. It fires at most once per
// beat no matter how often it is polled inside one beat.
func (h *Helper) UpdateSongPos(timeSec float64) bool {
	h.songTime = timeSec
	if timeSec < h.clip.BeatOffset {
		return false
	}

	idx := int(math.Floor((timeSec - h.clip.BeatOffset) / h.clip.SecPerBeat()))
	if idx <= h.lastBeat {
		return false
	}
	if skipped := idx - h.lastBeat - 1; skipped > 0 && h.lastBeat != noBeat {
		debug.Log("beat", "skipped %d beats (frame late) at t=%.3f", skipped, timeSec)
	}
	h.lastBeat = idx
	return true
}

// IsOnBeat reports whether the last observed position lies in the grace window
func (h *Helper) IsOnBeat() bool {
	return h.OnBeatAt(h.songTime)
}

// OnBeatAt reports whether timeSec is within ValidTime of the nearest beat.
// Lead-in before the grace window of beat 0 is never on beat.
func (h *Helper) OnBeatAt(timeSec float64) bool {
	if timeSec < h.clip.BeatOffset-h.ValidTime() {
		return false
	}
	return math.Abs(h.offsetAt(timeSec)) <= h.ValidTime()
}

// NearestBeat returns the index of the beat boundary closest to the last
// observed position, never below 0
func (h *Helper) NearestBeat() int {
	idx := int(math.Round((h.songTime - h.clip.BeatOffset) / h.clip.SecPerBeat()))
	if idx < 0 {
		return 0
	}
	return idx
}

// Phase returns how far into the current beat the song is, in [0, 1)
func (h *Helper) Phase() float64 {
	spb := h.clip.SecPerBeat()
	rel := h.songTime - h.clip.BeatOffset
	p := math.Mod(rel, spb) / spb
	if p < 0 {
		p += 1
	}
	return p
}

// offsetAt wraps the position into [-spb/2, spb/2] around the nearest beat
func (h *Helper) offsetAt(timeSec float64) float64 {
	spb := h.clip.SecPerBeat()
	rel := timeSec - h.clip.BeatOffset
	return rel - math.Round(rel/spb)*spb
}
