package composer

const defaultMaxDepth = 120

// Snapshot captures the composer state at a point in time.
type Snapshot struct {
	State State
	Label string // Human-readable description (e.g. "Add Activity")

	sig string
}

// Signature returns the canonical form of the captured state.
func (s *Snapshot) Signature() string {
	if s.sig == "" {
		s.sig = s.State.Signature()
	}
	return s.sig
}

// History manages undo/redo stacks of composer snapshots.
type History struct {
	undoStack []Snapshot
	redoStack []Snapshot
	maxDepth  int
}

// NewHistory creates a History with the default max depth of 120.
func NewHistory() *History {
	return NewHistoryWithDepth(defaultMaxDepth)
}

// NewHistoryWithDepth creates a History keeping at most depth entries per
// stack. Non-positive depths use the default.
func NewHistoryWithDepth(depth int) *History {
	if depth <= 0 {
		depth = defaultMaxDepth
	}
	return &History{maxDepth: depth}
}

// Push saves a snapshot onto the undo stack and clears the redo stack.
// This should be called with the state from before the modification.
// A snapshot structurally equal to the top of the undo stack is dropped
// and Push returns false.
func (h *History) Push(s Snapshot) bool {
	if n := len(h.undoStack); n > 0 && h.undoStack[n-1].Signature() == s.Signature() {
		return false
	}
	h.undoStack = h.capped(append(h.undoStack, s))
	h.redoStack = nil
	return true
}

// Undo pops the most recent snapshot from the undo stack and pushes
// the current state onto the redo stack. Returns the snapshot to restore
// and true, or an empty snapshot and false if nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = h.capped(append(h.redoStack, current))
	return last, true
}

// Redo pops the most recent snapshot from the redo stack and pushes
// the current state onto the undo stack. Returns the snapshot to restore
// and true, or an empty snapshot and false if nothing to redo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redoStack) == 0 {
		return Snapshot{}, false
	}
	last := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = h.capped(append(h.undoStack, current))
	return last, true
}

// capped drops the oldest entries beyond maxDepth.
func (h *History) capped(stack []Snapshot) []Snapshot {
	if len(stack) > h.maxDepth {
		return stack[len(stack)-h.maxDepth:]
	}
	return stack
}

// CanUndo returns true if there is at least one snapshot to undo.
func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

// CanRedo returns true if there is at least one snapshot to redo.
func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

// Len returns the sizes of the undo and redo stacks.
func (h *History) Len() (undo, redo int) {
	return len(h.undoStack), len(h.redoStack)
}

// Clear removes all undo and redo history.
func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}

// MakeSnapshot creates a deep-copied snapshot of state with a label.
func MakeSnapshot(state State, label string) Snapshot {
	return Snapshot{
		State: state.Clone(),
		Label: label,
	}
}
