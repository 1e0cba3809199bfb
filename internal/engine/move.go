package engine

import (
	"slices"
	"strings"

	"github.com/piwi3910/coursefactory/internal/model"
)

// Direction is a one-cell nudge.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// ParseDirection parses a direction name, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Left, Right, Up, Down:
		return d, true
	}
	return "", false
}

// Delta returns the (column, row) offset of the direction.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	}
	return 0, 0
}

// MoveResult is the outcome of a move. Changed is false for no-ops, in
// which case Activities is an unmodified copy of the input.
type MoveResult struct {
	Activities []model.Activity
	Changed    bool
}

func unchanged(activities []model.Activity) MoveResult {
	return MoveResult{Activities: model.CloneActivities(activities)}
}

// MoveByDirection nudges activity index one cell in the simple grid.
// Horizontal moves are clamped to the columns that fit its span, up stops
// at row 1 and down is always allowed.
func MoveByDirection(activities []model.Activity, index int, dir Direction, maxColumns int) MoveResult {
	if index < 0 || index >= len(activities) {
		return unchanged(activities)
	}
	dx, dy := dir.Delta()
	if dx == 0 && dy == 0 {
		return unchanged(activities)
	}

	grid := PackGrid(activities, maxColumns, 0)
	p := grid.Placements[index]
	col := clampInt(p.Col+dx, 1, max(maxColumns, 1)-p.ColSpan+1)
	row := max(p.Row+dy, 1)
	return MoveToCell(activities, index, row, col, maxColumns)
}

// MoveToCell places activity index at (row, col) of the simple grid.
//
// The target cells are reserved first; every other activity is then
// revisited in reading order and keeps its cell when free, otherwise it
// moves down its own columns to the next row with room. Row and column
// must be 1-based; anything else returns the input unchanged. A row past
// the end of the grid means the first new row, and rows left empty by the
// move are closed up.
func MoveToCell(activities []model.Activity, index, row, col, maxColumns int) MoveResult {
	if index < 0 || index >= len(activities) || row < 1 || col < 1 {
		return unchanged(activities)
	}
	if maxColumns < 1 {
		maxColumns = 1
	}

	grid := PackGrid(activities, maxColumns, 0)
	cur := grid.Placements[index]
	col = clampInt(col, 1, maxColumns-cur.ColSpan+1)
	row = min(row, grid.MaxRow+1)
	if row == cur.Row && col == cur.Col {
		return unchanged(activities)
	}

	taken := occupancy{}
	taken.take(row, col, cur.ColSpan)
	placements := make([]GridPlacement, len(grid.Placements))
	copy(placements, grid.Placements)
	placements[index] = GridPlacement{Index: index, Row: row, Col: col, ColSpan: cur.ColSpan, Clamped: cur.Clamped}

	for _, p := range grid.ReadingOrder() {
		if p.Index == index {
			continue
		}
		r := p.Row
		for !taken.free(r, p.Col, p.ColSpan) {
			r++
		}
		taken.take(r, p.Col, p.ColSpan)
		p.Row = r
		placements[p.Index] = p
	}
	compactRows(placements)
	if slices.Equal(placements, grid.Placements) {
		return unchanged(activities)
	}

	moved := ApplyGrid(activities, Grid{Placements: placements})
	return MoveResult{Activities: moved, Changed: true}
}

// ReorderByIndex moves the element at from to position to. Out-of-range or
// equal indices return items unchanged. The input slice is not modified.
func ReorderByIndex[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) || from == to {
		return items
	}
	out := make([]T, 0, len(items))
	moving := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	out = append(out[:to], append([]T{moving}, out[to:]...)...)
	return out
}
