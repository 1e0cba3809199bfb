package engine

import (
	"sort"

	"github.com/piwi3910/coursefactory/internal/model"
)

// Cell is a 1-based simple-grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GridPlacement is the resolved simple-grid position of one activity.
type GridPlacement struct {
	Index   int
	Row     int
	Col     int
	ColSpan int
	Clamped bool // requested span exceeded the column count
}

// Cells returns every cell covered by the placement.
func (p GridPlacement) Cells() []Cell {
	cells := make([]Cell, p.ColSpan)
	for i := range cells {
		cells[i] = Cell{Row: p.Row, Col: p.Col + i}
	}
	return cells
}

// Grid is the output of PackGrid.
type Grid struct {
	Placements []GridPlacement // one per activity, in activity order
	Slots      []Cell          // empty cells in reading order
	MaxRow     int             // highest occupied row, 0 when empty
	Rows       int             // MaxRow plus requested extra rows
}

// At returns the index of the activity covering cell, or -1.
func (g Grid) At(c Cell) int {
	for _, p := range g.Placements {
		if p.Row == c.Row && c.Col >= p.Col && c.Col < p.Col+p.ColSpan {
			return p.Index
		}
	}
	return -1
}

// occupancy tracks taken cells while packing.
type occupancy map[Cell]bool

func (o occupancy) free(row, col, span int) bool {
	for c := col; c < col+span; c++ {
		if o[Cell{Row: row, Col: c}] {
			return false
		}
	}
	return true
}

func (o occupancy) take(row, col, span int) {
	for c := col; c < col+span; c++ {
		o[Cell{Row: row, Col: c}] = true
	}
}

// PackGrid packs activities row by row under maxColumns columns.
//
// Activities are visited in slice order. An explicit (Row, Col) is honoured
// when it lies inside the grid and none of its cells is already taken;
// otherwise the activity flows from the cursor to the first free run of
// ColSpan cells, wrapping to column 1 of the next row when the current row
// has too few columns left. Spans are clamped to [1, maxColumns].
// Rows left empty by explicit placements are then closed up, so the rows
// in use are always 1..MaxRow. The result is a pure function of its inputs.
func PackGrid(activities []model.Activity, maxColumns, extraRows int) Grid {
	if maxColumns < 1 {
		maxColumns = 1
	}
	if extraRows < 0 {
		extraRows = 0
	}

	taken := occupancy{}
	grid := Grid{Placements: make([]GridPlacement, len(activities))}
	row, col := 1, 1

	for i, a := range activities {
		span := a.Layout.ColSpan
		clamped := span > maxColumns
		span = clampInt(span, 1, maxColumns)

		r, c := a.Layout.Row, a.Layout.Col
		explicit := r >= 1 && c >= 1 && c+span-1 <= maxColumns && taken.free(r, c, span)
		if !explicit {
			r, c = row, col
			for {
				if c+span-1 > maxColumns {
					r, c = r+1, 1
					continue
				}
				if taken.free(r, c, span) {
					break
				}
				c++
			}
		}

		taken.take(r, c, span)
		grid.Placements[i] = GridPlacement{Index: i, Row: r, Col: c, ColSpan: span, Clamped: clamped}

		row, col = r, c+span
		if col > maxColumns {
			row, col = row+1, 1
		}
	}

	grid.MaxRow = compactRows(grid.Placements)
	taken = occupancy{}
	for _, p := range grid.Placements {
		taken.take(p.Row, p.Col, p.ColSpan)
	}

	grid.Rows = grid.MaxRow + extraRows
	for r := 1; r <= grid.Rows; r++ {
		for c := 1; c <= maxColumns; c++ {
			if !taken[Cell{Row: r, Col: c}] {
				grid.Slots = append(grid.Slots, Cell{Row: r, Col: c})
			}
		}
	}
	return grid
}

// compactRows renumbers placement rows so that the rows in use run from 1
// without gaps, keeping their order. It returns the highest row.
func compactRows(placements []GridPlacement) int {
	used := map[int]bool{}
	for _, p := range placements {
		used[p.Row] = true
	}
	rows := make([]int, 0, len(used))
	for r := range used {
		rows = append(rows, r)
	}
	sort.Ints(rows)
	rank := make(map[int]int, len(rows))
	for i, r := range rows {
		rank[r] = i + 1
	}
	for i := range placements {
		placements[i].Row = rank[placements[i].Row]
	}
	return len(rows)
}

// ApplyGrid writes the resolved placements back into copies of activities.
func ApplyGrid(activities []model.Activity, grid Grid) []model.Activity {
	out := model.CloneActivities(activities)
	for _, p := range grid.Placements {
		if p.Index < 0 || p.Index >= len(out) {
			continue
		}
		out[p.Index].Layout.Row = p.Row
		out[p.Index].Layout.Col = p.Col
		out[p.Index].Layout.ColSpan = p.ColSpan
	}
	return out
}

// ReadingOrder returns the placements sorted by row, then column.
func (g Grid) ReadingOrder() []GridPlacement {
	sorted := make([]GridPlacement, len(g.Placements))
	copy(sorted, g.Placements)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})
	return sorted
}
