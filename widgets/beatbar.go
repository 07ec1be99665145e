package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beat-factory/beat"
	"beat-factory/theme"
)

// leadBeats is how many beats a line travels before it reaches the end zone
const leadBeats = 3

// dissolveBeats is how long a line lingers in the end zone, in beats
const dissolveBeats = 0.1

// BeatBar is a lane of beat lines sliding from the right edge into an end
// zone on the left. A line spawned on a beat arrives leadBeats later, so
// the player sees upcoming beats coming.
type BeatBar struct {
	Width int

	travel   float64 // seconds from spawn to the end zone
	dissolve float64
	lines    []float64 // spawn song times, oldest first
}

func NewBeatBar(width int) *BeatBar {
	if width < 2 {
		width = 2
	}
	return &BeatBar{Width: width}
}

// SetClip retimes the bar for a song and clears old lines
func (b *BeatBar) SetClip(c beat.Clip) {
	b.lines = b.lines[:0]
	if c.Validate() != nil {
		b.travel, b.dissolve = 0, 0
		return
	}
	spb := c.SecPerBeat()
	b.travel = leadBeats*spb + c.BeatOffset
	b.dissolve = dissolveBeats * spb
}

// Tick spawns a line at song time now
func (b *BeatBar) Tick(now float64) {
	if b.travel <= 0 {
		return
	}
	b.lines = append(b.lines, now)
}

// Advance drops lines whose dissolve time has passed
func (b *BeatBar) Advance(now float64) {
	keep := b.lines[:0]
	for _, spawn := range b.lines {
		if now-spawn <= b.travel+b.dissolve {
			keep = append(keep, spawn)
		}
	}
	b.lines = keep
}

// Lines returns how many lines are on the bar
func (b *BeatBar) Lines() int { return len(b.lines) }

// Velocity is the line speed in cells per second toward the end zone
func (b *BeatBar) Velocity() float64 {
	if b.travel <= 0 {
		return 0
	}
	start, end := float64(b.Width-1), 0.0
	return (start - end) / b.travel
}

// Columns returns the column of every line at song time now. Lines in the
// end zone sit at column 0.
func (b *BeatBar) Columns(now float64) []int {
	v := b.Velocity()
	cols := make([]int, 0, len(b.lines))
	for _, spawn := range b.lines {
		dt := now - spawn
		if dt < 0 {
			continue
		}
		col := float64(b.Width-1) - v*dt
		if col < 0 {
			col = 0
		}
		cols = append(cols, int(col+0.5))
	}
	return cols
}

// View renders the bar. onBeat lights the end zone.
func (b *BeatBar) View(now float64, onBeat bool, th *theme.Theme) string {
	cells := make([]rune, b.Width)
	for i := range cells {
		cells[i] = th.Symbols.Track
	}
	for _, c := range b.Columns(now) {
		if c > 0 && c < b.Width {
			cells[c] = th.Symbols.BeatLine
		}
	}

	zone := lipgloss.NewStyle().Foreground(th.Muted())
	if onBeat {
		zone = zone.Foreground(th.Success()).Bold(true)
	}
	lane := lipgloss.NewStyle().Foreground(th.Accent())

	var out strings.Builder
	out.WriteString(zone.Render(string(th.Symbols.EndZone)))
	out.WriteString(lane.Render(string(cells[1:])))
	return out.String()
}
