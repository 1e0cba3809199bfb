package engine

import (
	"sort"

	"github.com/piwi3910/coursefactory/internal/model"
)

// NormalizeConfig clamps a layout configuration to supported values.
// Unknown modes fall back to simple, a missing column count to the default.
func NormalizeConfig(cfg model.LayoutConfig) model.LayoutConfig {
	def := model.DefaultLayoutConfig()
	if cfg.Mode != model.ModeCanvas {
		cfg.Mode = model.ModeSimple
	}
	if cfg.MaxColumns <= 0 {
		cfg.MaxColumns = def.MaxColumns
	}
	cfg.MaxColumns = clampInt(cfg.MaxColumns, model.MinColumns, model.MaxColumns)
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = def.RowHeight
	}
	cfg.Margin.X = max(cfg.Margin.X, 0)
	cfg.Margin.Y = max(cfg.Margin.Y, 0)
	cfg.ContainerPadding.X = max(cfg.ContainerPadding.X, 0)
	cfg.ContainerPadding.Y = max(cfg.ContainerPadding.Y, 0)
	return cfg
}

// NormalizeActivities returns a copy of activities with every layout
// clamped into a valid placement for cfg.
//
// Simple mode packs the grid and writes back (Row, Col, ColSpan). Canvas
// mode derives missing geometry from the packed grid, clamps each block
// to the columns and moves any block that overlaps an earlier one down to
// the first free row. Normalising already normalised input is a no-op.
func NormalizeActivities(activities []model.Activity, cfg model.LayoutConfig) []model.Activity {
	cfg = NormalizeConfig(cfg)
	if activities == nil {
		return []model.Activity{}
	}
	grid := PackGrid(activities, cfg.MaxColumns, 0)
	if cfg.Mode == model.ModeSimple {
		return ApplyGrid(activities, grid)
	}

	out := model.CloneActivities(activities)
	placed := make([]Rect, 0, len(out))
	for i, a := range out {
		var r Rect
		if a.Layout.HasCanvas() {
			r = RectOf(a)
		} else {
			p := grid.Placements[i]
			r = Rect{
				X: p.Col - 1,
				Y: (p.Row - 1) * model.DefaultBlockHeight,
				W: p.ColSpan,
				H: model.DefaultBlockHeight,
			}
		}
		r = ClampToColumns(r, cfg.MaxColumns)
		for collidesWithAny(r, placed, -1) {
			r.Y++
		}
		placed = append(placed, r)
		out[i] = withRect(a, r)
	}
	return out
}

// ClampedSpans returns the indices of activities whose requested span
// exceeds maxColumns and will be narrowed by the packer.
func ClampedSpans(activities []model.Activity, maxColumns int) []int {
	var idx []int
	for i, a := range activities {
		span := a.Layout.ColSpan
		if a.Layout.HasCanvas() {
			span = a.Layout.W
		}
		if span > maxColumns {
			idx = append(idx, i)
		}
	}
	return idx
}

// ChangeMode switches the composer between simple and canvas placement,
// converting every activity's layout.
func ChangeMode(activities []model.Activity, cfg model.LayoutConfig, mode model.LayoutMode) ([]model.Activity, model.LayoutConfig) {
	cfg = NormalizeConfig(cfg)
	if mode != model.ModeCanvas {
		mode = model.ModeSimple
	}
	if cfg.Mode == mode {
		return NormalizeActivities(activities, cfg), cfg
	}

	converted := model.CloneActivities(activities)
	if mode == model.ModeCanvas {
		for i := range converted {
			l := &converted[i].Layout
			l.X, l.Y, l.W, l.H = 0, 0, 0, 0
		}
	} else {
		rowOf := canvasRowRanks(converted)
		for i := range converted {
			l := &converted[i].Layout
			if !l.HasCanvas() {
				continue
			}
			l.Row = rowOf[l.Y]
			l.Col = l.X + 1
			l.ColSpan = l.W
		}
	}

	cfg.Mode = mode
	return NormalizeActivities(converted, cfg), cfg
}

// canvasRowRanks maps each distinct canvas y to a compact 1-based row.
func canvasRowRanks(activities []model.Activity) map[int]int {
	seen := map[int]bool{}
	var ys []int
	for _, a := range activities {
		if a.Layout.HasCanvas() && !seen[a.Layout.Y] {
			seen[a.Layout.Y] = true
			ys = append(ys, a.Layout.Y)
		}
	}
	sort.Ints(ys)
	ranks := make(map[int]int, len(ys))
	for i, y := range ys {
		ranks[y] = i + 1
	}
	return ranks
}

// ChangeColumns sets the column count and re-clamps every activity.
func ChangeColumns(activities []model.Activity, cfg model.LayoutConfig, columns int) ([]model.Activity, model.LayoutConfig) {
	cfg.MaxColumns = columns
	cfg = NormalizeConfig(cfg)
	return NormalizeActivities(activities, cfg), cfg
}

// SetCanvasMetrics updates the canvas rendering metrics. Placement is not
// affected.
func SetCanvasMetrics(cfg model.LayoutConfig, rowHeight int, margin, padding model.Spacing) model.LayoutConfig {
	cfg.RowHeight = rowHeight
	cfg.Margin = margin
	cfg.ContainerPadding = padding
	return NormalizeConfig(cfg)
}

// CanvasHeight returns the pixel height of a canvas arrangement for the
// given metrics.
func CanvasHeight(activities []model.Activity, cfg model.LayoutConfig) int {
	cfg = NormalizeConfig(cfg)
	rows := 0
	for _, a := range activities {
		rows = max(rows, RectOf(a).Bottom())
	}
	if rows == 0 {
		return 2 * cfg.ContainerPadding.Y
	}
	return rows*cfg.RowHeight + (rows-1)*cfg.Margin.Y + 2*cfg.ContainerPadding.Y
}
