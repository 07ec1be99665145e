package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"beat-factory/machine"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Floor plan
	Floor  rune // · empty cell
	Wall   rune // █ blocked cell
	Ore    rune // ░ minable cell
	Player rune // @

	// Machines, keyed by kind
	Machines map[machine.Kind]rune

	// Beat bar
	BeatLine rune // │ travelling beat
	EndZone  rune // ┃ hit zone
	Track    rune // ─ empty lane
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Default()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Floor:  '·',
			Wall:   '█',
			Ore:    '░',
			Player: '@',

			Machines: map[machine.Kind]rune{
				machine.KindMiner:    'M',
				machine.KindConveyor: '=',
				machine.KindSmelter:  'S',
				machine.KindSeller:   '$',
			},

			BeatLine: '│',
			EndZone:  '┃',
			Track:    '─',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleSurface = 0.1
	RoleMuted   = 0.25
	RoleFG      = 0.45
	RoleAccent  = 0.55
	RoleActive  = 0.65
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

// kind roles pick a stable colour per machine kind
var kindRoles = map[machine.Kind]float64{
	machine.KindMiner:    0.55,
	machine.KindConveyor: 0.35,
	machine.KindSmelter:  0.85,
	machine.KindSeller:   1.0,
}

func (t *Theme) BG() lipgloss.Color      { return t.Color(RoleBG) }
func (t *Theme) Surface() lipgloss.Color { return t.Color(RoleSurface) }
func (t *Theme) FG() lipgloss.Color      { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.Color(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// MachineColor returns the colour for a machine kind
func (t *Theme) MachineColor(kind machine.Kind) lipgloss.Color {
	if role, ok := kindRoles[kind]; ok {
		return t.Color(role)
	}
	return t.FG()
}

// MachineSymbol returns the glyph for a machine kind
func (t *Theme) MachineSymbol(kind machine.Kind) rune {
	if r, ok := t.Symbols.Machines[kind]; ok {
		return r
	}
	return '?'
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
