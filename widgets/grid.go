package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"beat-factory/game"
	"beat-factory/machine"
	"beat-factory/theme"
)

// RenderGrid renders the factory floor with the player on top (row 0 at top)
func RenderGrid(w *game.World, player game.Pos, th *theme.Theme) string {
	floor := lipgloss.NewStyle().Foreground(th.Muted())
	wall := lipgloss.NewStyle().Foreground(th.Surface())
	ore := lipgloss.NewStyle().Foreground(th.Warning())
	me := lipgloss.NewStyle().Foreground(th.Success()).Bold(true)

	var lines []string
	for y := 0; y < w.Height(); y++ {
		var line strings.Builder
		for x := 0; x < w.Width(); x++ {
			p := game.Pos{X: x, Y: y}
			switch m, ok := w.MachineAt(p); {
			case p == player:
				line.WriteString(me.Render(string(th.Symbols.Player)))
			case ok:
				line.WriteString(renderMachine(m, th))
			case !w.CanEnter(p):
				line.WriteString(wall.Render(string(th.Symbols.Wall)))
			case w.IsOre(p):
				line.WriteString(ore.Render(string(th.Symbols.Ore)))
			default:
				line.WriteString(floor.Render(string(th.Symbols.Floor)))
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

func renderMachine(m machine.Machine, th *theme.Theme) string {
	style := lipgloss.NewStyle().Foreground(th.MachineColor(m.Kind()))
	if !m.Active() {
		style = style.Faint(true)
	}
	return style.Render(string(th.MachineSymbol(m.Kind())))
}

// RenderLegendItem renders a single legend item: "M miner - description"
func RenderLegendItem(kind machine.Kind, desc string, th *theme.Theme) string {
	style := lipgloss.NewStyle().Foreground(th.MachineColor(kind))
	return fmt.Sprintf("  %s %-8s %s", style.Render(string(th.MachineSymbol(kind))), kind, desc)
}

var kindDescs = map[machine.Kind]string{
	machine.KindMiner:    "digs one ore per beat, on ore tiles",
	machine.KindConveyor: "moves what it is fed",
	machine.KindSmelter:  "ore to ingot, two cells wide",
	machine.KindSeller:   "sells everything it receives",
}

// RenderLegend lists every machine kind, marking the selected one
func RenderLegend(selected machine.Kind, th *theme.Theme) string {
	var lines []string
	for _, k := range machine.Kinds {
		item := RenderLegendItem(k, kindDescs[k], th)
		if k == selected {
			item = ">" + item[1:]
		}
		lines = append(lines, item)
	}
	return strings.Join(lines, "\n")
}
