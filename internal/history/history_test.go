package history

import (
	"testing"

	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/scene"
)

func snapWith(n int) []scene.Entity {
	st := scene.NewStore()
	for i := 0; i < n; i++ {
		st.Append(scene.NewStroke(geom.Point{X: float64(i)}, 0.5, geom.Point{}))
	}
	return st.Snapshot()
}

func TestNewRejectsBadDepth(t *testing.T) {
	if _, err := New(0); err != ErrBadDepth {
		t.Fatalf("New(0) err = %v, want ErrBadDepth", err)
	}
	if _, err := New(-3); err == nil {
		t.Fatal("New(-3) must fail")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h, err := New(DefaultDepth)
	if err != nil {
		t.Fatal(err)
	}
	h.Push(snapWith(0))
	h.Push(snapWith(1))
	h.Push(snapWith(2))

	snap, ok := h.Undo()
	if !ok || len(snap) != 1 {
		t.Fatalf("Undo = %d entities, ok=%v, want 1 entity", len(snap), ok)
	}
	snap, ok = h.Undo()
	if !ok || len(snap) != 0 {
		t.Fatalf("second Undo = %d entities, want empty scene", len(snap))
	}
	if _, ok := h.Undo(); ok {
		t.Error("Undo past the oldest snapshot must fail")
	}

	snap, ok = h.Redo()
	if !ok || len(snap) != 1 {
		t.Fatalf("Redo = %d entities, want 1", len(snap))
	}
	snap, ok = h.Redo()
	if !ok || len(snap) != 2 {
		t.Fatalf("second Redo = %d entities, want 2", len(snap))
	}
	if _, ok := h.Redo(); ok {
		t.Error("Redo with empty stack must fail")
	}
}

func TestPushClearsRedo(t *testing.T) {
	h, _ := New(DefaultDepth)
	h.Push(snapWith(0))
	h.Push(snapWith(1))
	if _, ok := h.Undo(); !ok {
		t.Fatal("Undo failed")
	}
	h.Push(snapWith(3))
	if h.CanRedo() {
		t.Error("Push must clear the redo stack")
	}
}

func TestBoundedDepthEvictsOldest(t *testing.T) {
	h, _ := New(3)
	for i := 0; i < 6; i++ {
		h.Push(snapWith(i))
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	// Undo twice lands on the oldest retained snapshot (3 entities).
	h.Undo()
	snap, ok := h.Undo()
	if !ok || len(snap) != 3 {
		t.Fatalf("oldest retained snapshot has %d entities, want 3", len(snap))
	}
	if h.CanUndo() {
		t.Error("nothing older than the retained window should remain")
	}
}

func TestOnRestoreFires(t *testing.T) {
	h, _ := New(DefaultDepth)
	fired := 0
	h.SetOnRestore(func() { fired++ })
	h.Push(snapWith(0))
	h.Push(snapWith(1))

	h.Undo()
	h.Redo()
	if fired != 2 {
		t.Errorf("OnRestore fired %d times, want 2", fired)
	}
	h.Undo()
	h.Undo() // no-op, must not fire
	if fired != 3 {
		t.Errorf("OnRestore fired %d times, want 3", fired)
	}
}
