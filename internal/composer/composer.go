package composer

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/piwi3910/coursefactory/internal/engine"
	"github.com/piwi3910/coursefactory/internal/model"
)

var (
	ErrIndexOutOfRange = errors.New("activity index out of range")
	ErrGestureActive   = errors.New("a gesture is already in progress")
	ErrNoGesture       = errors.New("no gesture in progress")
	ErrNotCanvas       = errors.New("operation requires canvas mode")
	ErrUnknownProfile  = errors.New("no layout profile for template")
)

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for rejected resolutions and history
// operations.
func WithLogger(l *log.Logger) Option {
	return func(c *Composer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHistoryDepth caps both history stacks at depth entries.
func WithHistoryDepth(depth int) Option {
	return func(c *Composer) { c.history = NewHistoryWithDepth(depth) }
}

// WithAllowShrink lets canvas resolution narrow other blocks to make room.
func WithAllowShrink(allow bool) Option {
	return func(c *Composer) { c.allowShrink = allow }
}

// WithDebounce sets the delay used by DeferData.
func WithDebounce(delay time.Duration) Option {
	return func(c *Composer) { c.debouncer = NewDebouncer(delay) }
}

// WithConfig applies the composer-related settings of an AppConfig.
func WithConfig(cfg model.AppConfig) Option {
	return func(c *Composer) {
		c.history = NewHistoryWithDepth(cfg.HistoryDepth)
		c.allowShrink = cfg.AllowResizeShrink
		c.debouncer = NewDebouncer(time.Duration(cfg.EditDebounceMs) * time.Millisecond)
	}
}

// gesture is an in-progress drag or resize.
type gesture struct {
	index int
	start Snapshot
	base  []model.Activity
}

// Composer owns the single mutable composer state. Every mutating method
// produces at most one history entry; continuous gestures produce one
// entry when they end.
type Composer struct {
	mu          sync.Mutex
	state       State
	history     *History
	logger      *log.Logger
	allowShrink bool
	gesture     *gesture
	debouncer   *Debouncer
	// dataGen counts immediate payload edits. A deferred edit scheduled
	// under an older generation is dropped when it runs.
	dataGen uint64
}

// New creates a Composer starting from initial, which is normalised first.
func New(initial State, opts ...Option) *Composer {
	c := &Composer{
		state:       initial.Normalize(),
		history:     NewHistory(),
		logger:      log.New(io.Discard),
		allowShrink: true,
		debouncer:   NewDebouncer(DefaultDebounce),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, i := range engine.ClampedSpans(initial.Activities, c.state.Layout.MaxColumns) {
		c.logger.Warn("activity span clamped to column count", "index", i, "columns", c.state.Layout.MaxColumns)
	}
	return c
}

// State returns a copy of the current state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// CanUndo reports whether Undo would change anything.
func (c *Composer) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (c *Composer) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanRedo()
}

// mutate applies fn to a copy of the state and commits the result with a
// history entry when it differs from the current state. Callers hold mu.
func (c *Composer) mutate(label string, fn func(s State) (State, bool)) bool {
	if c.gesture != nil {
		c.logger.Debug("mutation ignored during gesture", "op", label)
		return false
	}
	before := MakeSnapshot(c.state, label)
	next, ok := fn(c.state.Clone())
	if !ok {
		return false
	}
	if next.Signature() == before.Signature() {
		return false
	}
	c.history.Push(before)
	c.state = next
	c.logger.Debug("composer mutation", "op", label, "activities", len(next.Activities))
	return true
}

// Add appends a new activity of type t and selects it. It returns the new
// activity's index.
func (c *Composer) Add(t model.ActivityType) int {
	return c.AddActivity(model.NewActivity(t))
}

// AddActivity appends a prepared activity, such as one dropped from a
// template, and selects it. Missing or duplicate IDs are replaced.
func (c *Composer) AddActivity(a model.Activity) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := -1
	c.mutate("Add Activity", func(s State) (State, bool) {
		a = a.Clone()
		if a.ID == "" || s.IndexOf(a.ID) >= 0 {
			a.ID = model.NewID()
		}
		if a.Data == nil {
			a.Data = model.DefaultData(a.Type)
		}
		if s.Layout.Mode == model.ModeCanvas && !a.Layout.HasCanvas() {
			a.Layout = model.Layout{ColSpan: a.Layout.ColSpan}
		}
		s.Activities = append(s.Activities, a)
		s.Activities = engine.NormalizeActivities(s.Activities, s.Layout)
		index = len(s.Activities) - 1
		s.SelectedIndex = index
		return s, true
	})
	return index
}

// AddFromTemplate appends fresh copies of a template's activities as one
// edit and selects the first of them. It returns the index of the first
// added activity, or -1 when the template is empty.
func (c *Composer) AddFromTemplate(t model.ModuleTemplate) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := t.Instantiate()
	if len(added) == 0 {
		return -1
	}
	first := -1
	c.mutate("Add From Template", func(s State) (State, bool) {
		first = len(s.Activities)
		for _, a := range added {
			if s.Layout.Mode == model.ModeCanvas {
				a.Layout = model.Layout{ColSpan: a.Layout.ColSpan}
			} else {
				a.Layout.Row, a.Layout.Col = 0, 0
			}
			s.Activities = append(s.Activities, a)
		}
		s.Activities = engine.NormalizeActivities(s.Activities, s.Layout)
		s.SelectedIndex = first
		return s, true
	})
	return first
}

// NeedsConfirmation reports whether deleting the activity at index would
// discard user-entered content.
func (c *Composer) NeedsConfirmation(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Activities) {
		return false
	}
	return model.ActivityHasUserContent(c.state.Activities[index])
}

// Delete removes the activity at index. The selection is clamped to the
// new last index.
func (c *Composer) Delete(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Activities) {
		return ErrIndexOutOfRange
	}
	c.mutate("Delete Activity", func(s State) (State, bool) {
		s.Activities = append(s.Activities[:index], s.Activities[index+1:]...)
		s.Activities = engine.NormalizeActivities(s.Activities, s.Layout)
		s.SelectedIndex = clampSelection(s.SelectedIndex, len(s.Activities))
		return s, true
	})
	return nil
}

// Duplicate inserts a copy of the activity at index directly after it and
// selects the copy.
func (c *Composer) Duplicate(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Activities) {
		return ErrIndexOutOfRange
	}
	c.mutate("Duplicate Activity", func(s State) (State, bool) {
		dup := s.Activities[index].Clone()
		dup.ID = model.NewID()
		if s.Layout.Mode == model.ModeCanvas {
			dup.Layout.Y = dup.Layout.Y + dup.Layout.H
		} else {
			dup.Layout.Row, dup.Layout.Col = 0, 0
		}
		acts := make([]model.Activity, 0, len(s.Activities)+1)
		acts = append(acts, s.Activities[:index+1]...)
		acts = append(acts, dup)
		acts = append(acts, s.Activities[index+1:]...)
		s.Activities = engine.NormalizeActivities(acts, s.Layout)
		s.SelectedIndex = index + 1
		return s, true
	})
	return nil
}

// Move nudges the activity at index one cell. In canvas mode the nudge is
// resolved like a one-unit drag. It reports whether the layout changed.
func (c *Composer) Move(index int, dir engine.Direction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Activities) {
		return false
	}
	return c.mutate("Move Activity", func(s State) (State, bool) {
		if s.Layout.Mode == model.ModeCanvas {
			dx, dy := dir.Delta()
			r := engine.RectOf(s.Activities[index])
			r.X += dx
			r.Y += dy
			return c.resolveInto(s, index, r, engine.ResolveDrag)
		}
		res := engine.MoveByDirection(s.Activities, index, dir, s.Layout.MaxColumns)
		s.Activities = res.Activities
		return s, res.Changed
	})
}

// MoveToCell places the activity at index on an explicit simple-grid cell.
func (c *Composer) MoveToCell(index, row, col int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Move Activity", func(s State) (State, bool) {
		res := engine.MoveToCell(s.Activities, index, row, col, s.Layout.MaxColumns)
		s.Activities = res.Activities
		return s, res.Changed
	})
}

// Reorder moves the activity at from to position to in the activity list,
// keeping the selection on the same activity.
func (c *Composer) Reorder(from, to int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Reorder Activity", func(s State) (State, bool) {
		var selectedID string
		if sel, ok := s.Selected(); ok {
			selectedID = sel.ID
		}
		acts := engine.ReorderByIndex(s.Activities, from, to)
		if s.Layout.Mode == model.ModeSimple {
			for i := range acts {
				acts[i].Layout.Row, acts[i].Layout.Col = 0, 0
			}
		}
		s.Activities = engine.NormalizeActivities(acts, s.Layout)
		if selectedID != "" {
			s.SelectedIndex = s.IndexOf(selectedID)
		}
		return s, true
	})
}

// Resize changes the size of the activity at index in one step. In simple
// mode only the width is used, as the column span.
func (c *Composer) Resize(index, w, h int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Activities) {
		return false
	}
	return c.mutate("Resize Activity", func(s State) (State, bool) {
		if s.Layout.Mode == model.ModeSimple {
			s.Activities[index].Layout.ColSpan = w
			s.Activities = engine.NormalizeActivities(s.Activities, s.Layout)
			return s, true
		}
		r := engine.RectOf(s.Activities[index])
		r.W, r.H = w, h
		return c.resolveInto(s, index, r, engine.ResolveResize)
	})
}

// Drag moves the activity at index to canvas position (x, y) in one step.
func (c *Composer) Drag(index, x, y int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Activities) || c.state.Layout.Mode != model.ModeCanvas {
		return false
	}
	return c.mutate("Drag Activity", func(s State) (State, bool) {
		r := engine.RectOf(s.Activities[index])
		r.X, r.Y = x, y
		return c.resolveInto(s, index, r, engine.ResolveDrag)
	})
}

// resolveInto proposes rect r for activity index against the activities of
// s and returns the resolved state, or false when the resolver rejects it.
func (c *Composer) resolveInto(s State, index int, r engine.Rect, mode engine.ResolveMode) (State, bool) {
	proposed := model.CloneActivities(s.Activities)
	proposed[index] = withLayoutRect(proposed[index], r)
	res := engine.ResolveCanvas(proposed, index, engine.ResolveOptions{
		Mode:        mode,
		AllowShrink: c.allowShrink,
		Base:        s.Activities,
		MaxColumns:  s.Layout.MaxColumns,
	})
	if !res.Valid {
		c.logger.Debug("canvas change rejected", "mode", mode, "index", index, "path", res.Path)
		return s, false
	}
	s.Activities = res.Activities
	return s, true
}

func withLayoutRect(a model.Activity, r engine.Rect) model.Activity {
	a.Layout.X, a.Layout.Y, a.Layout.W, a.Layout.H = r.X, r.Y, r.W, r.H
	return a
}

// SetColumns changes the column count and re-clamps every activity.
func (c *Composer) SetColumns(columns int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Change Columns", func(s State) (State, bool) {
		for _, i := range engine.ClampedSpans(s.Activities, columns) {
			c.logger.Warn("activity span clamped to column count", "index", i, "columns", columns)
		}
		s.Activities, s.Layout = engine.ChangeColumns(s.Activities, s.Layout, columns)
		return s, true
	})
}

// SetMode switches between simple and canvas placement.
func (c *Composer) SetMode(mode model.LayoutMode) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Change Layout Mode", func(s State) (State, bool) {
		s.Activities, s.Layout = engine.ChangeMode(s.Activities, s.Layout, mode)
		return s, true
	})
}

// SetCanvasMetrics updates row height, margins and container padding.
func (c *Composer) SetCanvasMetrics(rowHeight int, margin, padding model.Spacing) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Change Canvas Metrics", func(s State) (State, bool) {
		s.Layout = engine.SetCanvasMetrics(s.Layout, rowHeight, margin, padding)
		return s, true
	})
}

// SetMatchTallestRow toggles equal-height rows in simple mode.
func (c *Composer) SetMatchTallestRow(match bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Match Tallest Row", func(s State) (State, bool) {
		s.Layout.SimpleMatchTallestRow = match
		return s, true
	})
}

// SetExtraRows sets the number of empty rows offered below the grid.
func (c *Composer) SetExtraRows(rows int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Change Extra Rows", func(s State) (State, bool) {
		s.ExtraRows = max(rows, 0)
		return s, true
	})
}

// Select changes the selected activity. Selection is not an undoable edit.
func (c *Composer) Select(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedIndex = clampSelection(index, len(c.state.Activities))
}

// UpdateData replaces the payload of the activity at index immediately,
// cancelling any deferred update still pending.
func (c *Composer) UpdateData(index int, data map[string]any) bool {
	c.debouncer.Cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataGen++
	return c.updateDataLocked(index, data)
}

func (c *Composer) updateDataLocked(index int, data map[string]any) bool {
	if index < 0 || index >= len(c.state.Activities) {
		return false
	}
	return c.mutate("Edit Activity", func(s State) (State, bool) {
		s.Activities[index].Data = model.Activity{Data: data}.Clone().Data
		return s, true
	})
}

// DeferData schedules a payload update for the activity at index. A later
// DeferData or UpdateData supersedes it.
func (c *Composer) DeferData(index int, data map[string]any) {
	data = model.Activity{Data: data}.Clone().Data
	c.mu.Lock()
	gen := c.dataGen
	c.mu.Unlock()
	c.debouncer.Schedule(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.dataGen {
			c.logger.Debug("deferred edit superseded", "index", index)
			return
		}
		c.updateDataLocked(index, data)
	})
}

// FlushDeferred commits a pending deferred update now.
func (c *Composer) FlushDeferred() bool {
	return c.debouncer.Flush()
}

// Undo restores the state before the last edit.
func (c *Composer) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture != nil {
		return false
	}
	snap, ok := c.history.Undo(MakeSnapshot(c.state, "Undo"))
	if !ok {
		return false
	}
	c.logger.Debug("undo", "op", snap.Label)
	c.applySnapshot(snap)
	return true
}

// Redo re-applies the last undone edit.
func (c *Composer) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture != nil {
		return false
	}
	snap, ok := c.history.Redo(MakeSnapshot(c.state, "Redo"))
	if !ok {
		return false
	}
	c.logger.Debug("redo", "op", snap.Label)
	c.applySnapshot(snap)
	return true
}

// ApplySnapshot replaces the state with a snapshot as an undoable edit.
func (c *Composer) ApplySnapshot(s Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate(s.Label, func(State) (State, bool) {
		return s.State.Normalize(), true
	})
}

// applySnapshot re-normalises a snapshot before committing it, since it
// may predate a change of column count.
func (c *Composer) applySnapshot(s Snapshot) {
	c.state = s.State.Normalize()
}

// CaptureProfile stores the current arrangement as the layout profile of
// template key.
func (c *Composer) CaptureProfile(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutate("Capture Layout Profile", func(s State) (State, bool) {
		if s.TemplateLayoutProfiles == nil {
			s.TemplateLayoutProfiles = model.LayoutProfiles{}
		}
		s.TemplateLayoutProfiles[key] = engine.CaptureProfile(s.Activities, s.Layout)
		return s, true
	})
}

// ApplyProfile lays the activities out with the stored profile of
// template key and makes key the template override.
func (c *Composer) ApplyProfile(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	profile, ok := c.state.TemplateLayoutProfiles[key]
	if !ok {
		return ErrUnknownProfile
	}
	c.mutate("Apply Layout Profile", func(s State) (State, bool) {
		s.Activities, s.Layout = engine.ApplyProfile(s.Activities, profile)
		s.TemplateOverride = key
		return s, true
	})
	return nil
}

// BeginGesture selects the activity at index and starts a drag or resize
// of it. The state at that point becomes the gesture's undo point.
func (c *Composer) BeginGesture(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture != nil {
		return ErrGestureActive
	}
	if c.state.Layout.Mode != model.ModeCanvas {
		return ErrNotCanvas
	}
	if index < 0 || index >= len(c.state.Activities) {
		return ErrIndexOutOfRange
	}
	c.state.SelectedIndex = index
	c.gesture = &gesture{
		index: index,
		start: MakeSnapshot(c.state, "Move Activity"),
		base:  model.CloneActivities(c.state.Activities),
	}
	return nil
}

// UpdateDrag proposes canvas position (x, y) for the gesture's activity.
// Rejected positions leave the last accepted arrangement in place.
func (c *Composer) UpdateDrag(x, y int) (engine.Resolution, error) {
	return c.updateGesture(engine.ResolveDrag, func(r engine.Rect) engine.Rect {
		r.X, r.Y = x, y
		return r
	})
}

// UpdateResize proposes size (w, h) for the gesture's activity.
func (c *Composer) UpdateResize(w, h int) (engine.Resolution, error) {
	return c.updateGesture(engine.ResolveResize, func(r engine.Rect) engine.Rect {
		r.W, r.H = w, h
		return r
	})
}

func (c *Composer) updateGesture(mode engine.ResolveMode, change func(engine.Rect) engine.Rect) (engine.Resolution, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gesture
	if g == nil {
		return engine.Resolution{}, ErrNoGesture
	}
	if mode == engine.ResolveResize {
		g.start.Label = "Resize Activity"
	}

	proposed := model.CloneActivities(g.base)
	r := change(engine.RectOf(proposed[g.index]))
	proposed[g.index] = withLayoutRect(proposed[g.index], r)

	res := engine.ResolveCanvas(proposed, g.index, engine.ResolveOptions{
		Mode:        mode,
		AllowShrink: c.allowShrink,
		Base:        g.base,
		MaxColumns:  c.state.Layout.MaxColumns,
	})
	if res.Valid {
		c.state.Activities = res.Activities
	} else {
		c.logger.Debug("gesture frame rejected", "mode", mode, "index", g.index, "path", res.Path)
	}
	return res, nil
}

// EndGesture finishes the gesture. If the arrangement changed, the state
// captured at BeginGesture becomes one history entry. It reports whether
// the layout changed.
func (c *Composer) EndGesture() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.gesture
	if g == nil {
		return false, ErrNoGesture
	}
	c.gesture = nil
	if c.state.Signature() == g.start.Signature() {
		return false, nil
	}
	c.history.Push(g.start)
	c.logger.Debug("gesture committed", "op", g.start.Label, "index", g.index)
	return true, nil
}

// CancelGesture abandons the gesture and restores the state from its
// start.
func (c *Composer) CancelGesture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gesture == nil {
		return
	}
	c.state = c.gesture.start.State.Clone()
	c.gesture = nil
}
