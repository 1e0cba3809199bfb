package engine

import "github.com/piwi3910/coursefactory/internal/model"

// Page is the footprint of a module page in grid units.
type Page struct {
	Columns int
	Rows    int
	Rects   []Rect // one per activity, in activity order
	Slots   []Cell // free simple-grid cells, nil in canvas mode
}

// PageOf returns the footprint of activities under cfg. Simple mode packs
// the grid one unit per row; canvas mode uses the normalised block
// geometry. Extra rows are appended below the lowest block.
func PageOf(activities []model.Activity, cfg model.LayoutConfig, extraRows int) Page {
	cfg = NormalizeConfig(cfg)
	extraRows = max(extraRows, 0)
	page := Page{Columns: cfg.MaxColumns, Rects: make([]Rect, len(activities))}

	if cfg.Mode == model.ModeSimple {
		grid := PackGrid(activities, cfg.MaxColumns, extraRows)
		for _, p := range grid.Placements {
			page.Rects[p.Index] = Rect{X: p.Col - 1, Y: p.Row - 1, W: p.ColSpan, H: 1}
		}
		page.Rows = grid.Rows
		page.Slots = grid.Slots
		return page
	}

	bottom := 0
	for i, a := range NormalizeActivities(activities, cfg) {
		page.Rects[i] = RectOf(a)
		bottom = max(bottom, page.Rects[i].Bottom())
	}
	page.Rows = bottom + extraRows
	return page
}
