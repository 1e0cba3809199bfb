package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/coursefactory/internal/model"
)

// SwapThreshold is the share of the smaller rectangle's area a drag must
// cover on another block's base position to trade places with it.
const SwapThreshold = 0.65

// ResolveMode tells the resolver which gesture produced the change.
type ResolveMode int

const (
	ResolveDrag ResolveMode = iota
	ResolveResize
)

func (m ResolveMode) String() string {
	if m == ResolveResize {
		return "resize"
	}
	return "drag"
}

// ResolvePath names the strategy that produced a resolution.
type ResolvePath int

const (
	PathNone     ResolvePath = iota // nothing collided
	PathSwap                        // drag swapped with a single target
	PathPush                        // drag pushed later rows down
	PathWidth                       // width-only resize walked its band
	PathHeight                      // height-only resize cascaded downwards
	PathFallback                    // generic fit near base position
)

func (p ResolvePath) String() string {
	switch p {
	case PathSwap:
		return "swap"
	case PathPush:
		return "push"
	case PathWidth:
		return "width"
	case PathHeight:
		return "height"
	case PathFallback:
		return "fallback"
	default:
		return "none"
	}
}

// ResolveOptions configures ResolveCanvas.
type ResolveOptions struct {
	Mode        ResolveMode
	AllowShrink bool             // other blocks may lose width to make room
	Base        []model.Activity // positions at gesture start; nil means the input
	MaxColumns  int
}

// Resolution is the outcome of ResolveCanvas.
//
// When Valid is false the proposed change must be discarded entirely;
// Activities then holds the base arrangement unchanged.
type Resolution struct {
	Activities []model.Activity
	Valid      bool
	Path       ResolvePath
	PushUnit   int
}

// ResolveCanvas settles a canvas arrangement after the activity at index
// active was dragged or resized to its rectangle in activities.
//
// All other activities are taken at their Base positions. The returned
// arrangement is pairwise non-overlapping and inside the column bounds,
// and no pushed block moves down by more than one push unit (the active
// block's height at gesture start).
func ResolveCanvas(activities []model.Activity, active int, opts ResolveOptions) Resolution {
	base := opts.Base
	if len(base) != len(activities) {
		base = activities
	}
	if active < 0 || active >= len(activities) {
		return Resolution{Activities: model.CloneActivities(base)}
	}

	maxCols := opts.MaxColumns
	if maxCols < 1 {
		maxCols = 1
	}

	baseRects := rectsOf(base)
	moved := ClampToColumns(RectOf(activities[active]), maxCols)
	pushUnit := baseRects[active].H
	if pushUnit < 1 {
		pushUnit = 1
	}

	r := resolver{
		base:     baseRects,
		active:   active,
		maxCols:  maxCols,
		pushUnit: pushUnit,
		shrink:   opts.AllowShrink,
	}

	var rects []Rect
	var path ResolvePath
	var ok bool
	if opts.Mode == ResolveResize {
		rects, path, ok = r.resize(moved)
	} else {
		rects, path, ok = r.drag(moved)
	}

	if ok && !r.withinBottomGuard(rects) {
		ok = false
	}
	if !ok || !allClear(rects, maxCols) {
		return Resolution{Activities: model.CloneActivities(base), Path: path, PushUnit: pushUnit}
	}

	out := model.CloneActivities(activities)
	for i := range out {
		out[i] = withRect(out[i], rects[i])
	}
	return Resolution{Activities: out, Valid: true, Path: path, PushUnit: pushUnit}
}

// resolver holds the fixed inputs of one resolution.
type resolver struct {
	base     []Rect
	active   int
	maxCols  int
	pushUnit int
	shrink   bool
}

// withActive returns a copy of the base rectangles with the active one
// replaced by moved.
func (r resolver) withActive(moved Rect) []Rect {
	rects := make([]Rect, len(r.base))
	copy(rects, r.base)
	rects[r.active] = moved
	return rects
}

func (r resolver) drag(moved Rect) ([]Rect, ResolvePath, bool) {
	if rects, ok := r.swap(moved); ok {
		return rects, PathSwap, true
	}

	rects := r.withActive(moved)
	pushStartY := math.MaxInt
	for j, b := range r.base {
		if j != r.active && Overlaps(moved, b) {
			pushStartY = min(pushStartY, b.Y)
		}
	}
	if pushStartY == math.MaxInt {
		return rects, PathNone, true
	}

	for j, b := range r.base {
		if j != r.active && b.Y >= pushStartY {
			rects[j].Y = b.Y + r.pushUnit
		}
	}
	if !collidesWithAny(moved, rects, r.active) && allClear(rects, r.maxCols) {
		return rects, PathPush, true
	}

	out, ok := r.fallback(rects)
	return out, PathFallback, ok
}

// swap trades positions with the single block whose base position the
// drag covers by at least SwapThreshold of the smaller area.
func (r resolver) swap(moved Rect) ([]Rect, bool) {
	target := -1
	for j, b := range r.base {
		if j == r.active {
			continue
		}
		smaller := min(moved.Area(), b.Area())
		if smaller <= 0 {
			continue
		}
		if float64(OverlapArea(moved, b)) >= SwapThreshold*float64(smaller) {
			if target >= 0 {
				return nil, false
			}
			target = j
		}
	}
	if target < 0 {
		return nil, false
	}

	a, b := r.base[r.active], r.base[target]
	rects := r.withActive(a)
	rects[r.active] = ClampToColumns(Rect{X: b.X, Y: b.Y, W: a.W, H: a.H}, r.maxCols)
	rects[target] = ClampToColumns(Rect{X: a.X, Y: a.Y, W: b.W, H: b.H}, r.maxCols)
	if !allClear(rects, r.maxCols) {
		return nil, false
	}
	return rects, true
}

func (r resolver) resize(resized Rect) ([]Rect, ResolvePath, bool) {
	start := r.base[r.active]
	if resized == start {
		return r.withActive(resized), PathNone, true
	}

	wChanged := resized.W != start.W
	hChanged := resized.H != start.H
	anchored := resized.X == start.X && resized.Y == start.Y

	switch {
	case anchored && wChanged && !hChanged:
		rects, ok := r.resizeWidth(resized)
		return rects, PathWidth, ok
	case anchored && hChanged && !wChanged:
		rects, ok := r.resizeHeight(resized)
		return rects, PathHeight, ok
	}
	rects, ok := r.fallback(r.withActive(resized))
	return rects, PathFallback, ok
}

// resizeWidth walks the blocks sharing rows with the active block, left to
// right, moving each only as far right as needed to clear the blocks
// already settled to its left.
func (r resolver) resizeWidth(resized Rect) ([]Rect, bool) {
	rects := r.withActive(resized)
	start := r.base[r.active]

	var band []int
	for j, b := range r.base {
		if j == r.active {
			continue
		}
		sharesRows := b.Y < resized.Bottom() && resized.Y < b.Bottom()
		if sharesRows && b.X >= start.X {
			band = append(band, j)
		}
	}
	sort.SliceStable(band, func(i, k int) bool {
		bi, bk := r.base[band[i]], r.base[band[k]]
		if bi.X != bk.X {
			return bi.X < bk.X
		}
		return bi.Y < bk.Y
	})

	settled := []Rect{resized}
	for _, j := range band {
		b := rects[j]
		cursor := b.X
		for _, s := range settled {
			if b.Y < s.Bottom() && s.Y < b.Bottom() {
				cursor = max(cursor, s.Right())
			}
		}
		b.X = cursor
		if b.Right() > r.maxCols {
			if !r.shrink {
				return nil, false
			}
			b.W = r.maxCols - b.X
			if b.W < 1 {
				return nil, false
			}
		}
		rects[j] = b
		settled = append(settled, b)
	}
	return rects, allClear(rects, r.maxCols)
}

// resizeHeight pushes blocks below the active block down to its new
// bottom edge, then cascades through the remaining blocks. Every push is
// capped at one push unit from the block's base position.
func (r resolver) resizeHeight(resized Rect) ([]Rect, bool) {
	rects := r.withActive(resized)

	order := make([]int, 0, len(rects)-1)
	for j := range rects {
		if j != r.active {
			order = append(order, j)
		}
	}

	push := func(j, to int) bool {
		if to-r.base[j].Y > r.pushUnit {
			return false
		}
		rects[j].Y = to
		return true
	}

	for changed := true; changed; {
		changed = false
		sort.SliceStable(order, func(i, k int) bool {
			ri, rk := rects[order[i]], rects[order[k]]
			if ri.Y != rk.Y {
				return ri.Y < rk.Y
			}
			return ri.X < rk.X
		})

		for _, j := range order {
			if Overlaps(resized, rects[j]) {
				if !push(j, resized.Bottom()) {
					return nil, false
				}
				changed = true
			}
		}
		for ii, i := range order {
			for _, j := range order[ii+1:] {
				if Overlaps(rects[i], rects[j]) {
					if !push(j, rects[i].Bottom()) {
						return nil, false
					}
					changed = true
				}
			}
		}
	}
	return rects, true
}

// fallback places the active block first, then every other block in slice
// order, keeping its proposed rectangle when free and otherwise fitting it
// near its base position.
func (r resolver) fallback(proposed []Rect) ([]Rect, bool) {
	out := make([]Rect, len(proposed))
	copy(out, proposed)
	placed := []Rect{proposed[r.active]}

	for j, cand := range proposed {
		if j == r.active {
			continue
		}
		inBounds := cand.X >= 0 && cand.Right() <= r.maxCols
		if inBounds && !collidesWithAny(cand, placed, -1) {
			placed = append(placed, cand)
			continue
		}
		fit, ok := r.fitNear(r.base[j], placed)
		if !ok {
			return nil, false
		}
		out[j] = fit
		placed = append(placed, fit)
	}
	return out, true
}

// fitNear tries widths from the base width down (when shrinking is
// allowed) and vertical offsets of zero or one push unit.
func (r resolver) fitNear(b Rect, placed []Rect) (Rect, bool) {
	minW := b.W
	if r.shrink {
		minW = 1
	}
	for w := min(b.W, r.maxCols); w >= minW; w-- {
		for _, off := range []int{0, r.pushUnit} {
			cand := Rect{X: clampInt(b.X, 0, r.maxCols-w), Y: b.Y + off, W: w, H: b.H}
			if !collidesWithAny(cand, placed, -1) {
				return cand, true
			}
		}
	}
	return Rect{}, false
}

// withinBottomGuard rejects any result that grows the occupied bottom of
// the non-active blocks by more than one push unit.
func (r resolver) withinBottomGuard(rects []Rect) bool {
	before, after := 0, 0
	for j := range r.base {
		if j == r.active {
			continue
		}
		before = max(before, r.base[j].Bottom())
		after = max(after, rects[j].Bottom())
	}
	return after-before <= r.pushUnit
}
