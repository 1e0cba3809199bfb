// Package engine computes composer block placements: the simple-grid
// packer, the canvas collision resolver and the layout normalisation rules.
package engine

import "github.com/piwi3910/coursefactory/internal/model"

// Rect is an axis-aligned rectangle in canvas grid units.
type Rect struct {
	X, Y, W, H int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

// Area returns W*H.
func (r Rect) Area() int { return r.W * r.H }

// Overlaps returns true if two rectangles intersect on both axes.
// Rectangles that only touch along an edge do not overlap.
func Overlaps(a, b Rect) bool {
	return !(a.Right() <= b.X || b.Right() <= a.X ||
		a.Bottom() <= b.Y || b.Bottom() <= a.Y)
}

// OverlapArea returns the area of the intersection of a and b.
func OverlapArea(a, b Rect) int {
	w := min(a.Right(), b.Right()) - max(a.X, b.X)
	h := min(a.Bottom(), b.Bottom()) - max(a.Y, b.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// ClampToColumns forces r inside a canvas of maxColumns columns:
// 1 <= W <= maxColumns, 0 <= X <= maxColumns-W, Y >= 0 and H >= 1.
func ClampToColumns(r Rect, maxColumns int) Rect {
	if maxColumns < 1 {
		maxColumns = 1
	}
	r.W = clampInt(r.W, 1, maxColumns)
	r.X = clampInt(r.X, 0, maxColumns-r.W)
	if r.Y < 0 {
		r.Y = 0
	}
	if r.H < 1 {
		r.H = 1
	}
	return r
}

// RectOf returns the canvas rectangle of an activity.
func RectOf(a model.Activity) Rect {
	l := a.Layout
	return Rect{X: l.X, Y: l.Y, W: l.W, H: l.H}
}

// withRect returns a copy of a placed at r with the mirrored simple-grid
// fields kept in sync.
func withRect(a model.Activity, r Rect) model.Activity {
	a.Layout.X = r.X
	a.Layout.Y = r.Y
	a.Layout.W = r.W
	a.Layout.H = r.H
	a.Layout.ColSpan = r.W
	a.Layout.Col = r.X + 1
	a.Layout.Row = r.Y + 1
	return a
}

// rectsOf extracts the canvas rectangles of activities.
func rectsOf(activities []model.Activity) []Rect {
	rects := make([]Rect, len(activities))
	for i, a := range activities {
		rects[i] = RectOf(a)
	}
	return rects
}

// collidesWithAny reports whether r overlaps any rect in others, skipping
// index skip.
func collidesWithAny(r Rect, others []Rect, skip int) bool {
	for i, o := range others {
		if i == skip {
			continue
		}
		if Overlaps(r, o) {
			return true
		}
	}
	return false
}

// allClear reports whether rects are pairwise non-overlapping and inside
// the column bounds.
func allClear(rects []Rect, maxColumns int) bool {
	for i, a := range rects {
		if a.X < 0 || a.Y < 0 || a.W < 1 || a.H < 1 || a.Right() > maxColumns {
			return false
		}
		for j := i + 1; j < len(rects); j++ {
			if Overlaps(a, rects[j]) {
				return false
			}
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
