package conductor

import (
	"beat-factory/debug"
	"beat-factory/machine"
)

// Paused reports whether playback is paused
func (c *Conductor) Paused() bool {
	return c.paused
}

// SetPaused pauses or resumes the song. No beats fire while paused.
func (c *Conductor) SetPaused(paused bool) {
	if paused == c.paused {
		return
	}
	c.paused = paused
	if c.song != nil {
		c.song.SetPaused(paused)
	}
}

// Progress returns how far into the song playback is, in [0, 1]
func (c *Conductor) Progress() float64 {
	if c.song == nil {
		return 0
	}
	length := c.song.Length()
	pos, ok := c.song.Position()
	if !ok || length <= 0 {
		return 0
	}
	p := pos / length
	if p > 1 {
		p = 1
	}
	return p
}

// SetProgress seeks to a fraction of the song. Beat tracking restarts from
// the new position.
func (c *Conductor) SetProgress(t float64) error {
	if c.song == nil {
		return nil
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if err := c.song.Seek(t * c.song.Length()); err != nil {
		return err
	}
	c.helper.Reset(c.Clip())
	c.gate.Reset()
	debug.Log("conductor", "seek to %.2f", t)
	return nil
}

// Combo tracking

func (c *Conductor) IncrCurCombo() {
	c.SetCurCombo(c.curCombo + 1)
}

// SetCurCombo sets the combo when tracking is enabled; the max is a high-water mark
func (c *Conductor) SetCurCombo(n int) {
	if !c.comboEnabled {
		return
	}
	c.curCombo = n
	if c.curCombo > c.maxCombo {
		c.maxCombo = c.curCombo
	}
}

func (c *Conductor) EnableCombo()       { c.comboEnabled = true }
func (c *Conductor) DisableCombo()      { c.comboEnabled = false }
func (c *Conductor) ComboEnabled() bool { return c.comboEnabled }
func (c *Conductor) CurCombo() int      { return c.curCombo }
func (c *Conductor) MaxCombo() int      { return c.maxCombo }

// Restart clears combo and cash and plays the playlist from the top
func (c *Conductor) Restart() error {
	c.curCombo, c.maxCombo, c.cash = 0, 0, 0
	c.index = 0
	return c.Start()
}

// Sell credits a sold resource
func (c *Conductor) Sell(r machine.Resource) {
	c.cash += r.Price
}

// Cash returns the money earned so far
func (c *Conductor) Cash() int {
	return c.cash
}
