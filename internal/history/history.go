// Package history keeps a bounded ring of scene snapshots for undo and redo.
package history

import (
	"errors"

	"github.com/example/inkdeck/internal/scene"
)

// DefaultDepth bounds the undo ring when no depth is configured.
const DefaultDepth = 20

// ErrBadDepth reports an unusable history depth. The application treats this
// as fatal at startup: the editor cannot keep its editing contract without an
// undo subsystem.
var ErrBadDepth = errors.New("history: depth must be at least 1")

// History is a bounded stack of committed scene snapshots. The newest entry
// is always the current committed state; exceeding the depth evicts the
// oldest snapshot. Undoing moves snapshots onto a redo stack, which any new
// commit clears.
type History struct {
	depth     int
	snaps     [][]scene.Entity
	redo      [][]scene.Entity
	onRestore func()
}

// New creates a history bounded to depth snapshots.
func New(depth int) (*History, error) {
	if depth < 1 {
		return nil, ErrBadDepth
	}
	return &History{depth: depth}, nil
}

// SetOnRestore registers a hook fired whenever Undo or Redo hands out a
// snapshot. The dispatcher uses it to invalidate in-flight completions.
func (h *History) SetOnRestore(fn func()) { h.onRestore = fn }

// Push records snapshot as the new committed state and clears the redo stack.
func (h *History) Push(snapshot []scene.Entity) {
	h.snaps = append(h.snaps, snapshot)
	if len(h.snaps) > h.depth {
		h.snaps = h.snaps[1:]
	}
	h.redo = nil
}

// Len reports the number of retained snapshots.
func (h *History) Len() int { return len(h.snaps) }

// CanUndo reports whether a prior committed state exists.
func (h *History) CanUndo() bool { return len(h.snaps) > 1 }

// Undo returns the previous committed state. The abandoned state moves to
// the redo stack. Returns false when there is nothing to undo.
func (h *History) Undo() ([]scene.Entity, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	top := h.snaps[len(h.snaps)-1]
	h.snaps = h.snaps[:len(h.snaps)-1]
	h.redo = append(h.redo, top)
	if h.onRestore != nil {
		h.onRestore()
	}
	return h.snaps[len(h.snaps)-1], true
}

// CanRedo reports whether an undone state can be reapplied.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Redo reapplies the most recently undone state. Returns false when the redo
// stack is empty.
func (h *History) Redo() ([]scene.Entity, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.snaps = append(h.snaps, top)
	if len(h.snaps) > h.depth {
		h.snaps = h.snaps[1:]
	}
	if h.onRestore != nil {
		h.onRestore()
	}
	return top, true
}
