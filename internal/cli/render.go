package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/export"
	"github.com/piwi3910/coursefactory/internal/model"
)

// cellWidth is the character width of one grid column in renderPage.
const cellWidth = 14

// renderPage writes a character drawing of the module page followed by
// the block list. The selected block is marked with '*' and free
// simple-grid cells with '.'.
func renderPage(w io.Writer, m model.Module) {
	cfg := engine.NormalizeConfig(m.ComposerLayout)
	page := engine.PageOf(m.Activities, cfg, m.ComposerExtraRows)

	fmt.Fprintf(w, "%s (%s, %d columns, %d blocks)\n", m.Name, cfg.Mode, page.Columns, len(m.Activities))

	grid := make([][]int, page.Rows)
	for y := range grid {
		grid[y] = make([]int, page.Columns)
		for x := range grid[y] {
			grid[y][x] = -1
		}
	}
	for i, r := range page.Rects {
		for y := r.Y; y < r.Bottom() && y < page.Rows; y++ {
			for x := r.X; x < r.Right() && x < page.Columns; x++ {
				grid[y][x] = i
			}
		}
	}

	free := make(map[engine.Cell]bool, len(page.Slots))
	for _, c := range page.Slots {
		free[c] = true
	}

	border := "+" + strings.Repeat(strings.Repeat("-", cellWidth)+"+", page.Columns)
	fmt.Fprintln(w, border)
	for y, row := range grid {
		var b strings.Builder
		b.WriteString("|")
		for x := 0; x < page.Columns; {
			idx := row[x]
			span := 1
			for idx >= 0 && x+span < page.Columns && row[x+span] == idx {
				span++
			}
			label := ""
			switch {
			case idx < 0:
				if free[engine.Cell{Row: y + 1, Col: x + 1}] {
					label = " ."
				}
			case y == 0 || grid[y-1][x] != idx:
				label = fmt.Sprintf(" #%d %s", idx+1, m.Activities[idx].Type)
			default:
				label = " :"
			}
			b.WriteString(fit(label, span*cellWidth+span-1))
			b.WriteString("|")
			x += span
		}
		fmt.Fprintln(w, b.String())
	}
	fmt.Fprintln(w, border)

	for i, a := range m.Activities {
		marker := " "
		if i == m.ComposerSelectedIndex {
			marker = "*"
		}
		fmt.Fprintf(w, "%s #%-3d %-16s %-24s %s\n", marker, i+1, a.Type, export.PlacementText(a, cfg.Mode), a.Headline())
	}
}

// fit pads or truncates s to exactly width bytes.
func fit(s string, width int) string {
	if len(s) > width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-len(s))
}
