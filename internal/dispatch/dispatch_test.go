package dispatch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/example/inkdeck/internal/genai"
	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/history"
	"github.com/example/inkdeck/internal/render"
	"github.com/example/inkdeck/internal/scene"
)

type fakePlanner struct {
	plan    genai.Plan
	planErr error
	opts    []string
	optsErr error
}

func (f *fakePlanner) Classify(context.Context, []byte) (genai.Plan, error) {
	return f.plan, f.planErr
}

func (f *fakePlanner) EditOptions(context.Context, []byte) ([]string, error) {
	return f.opts, f.optsErr
}

type fakePainter struct {
	genData   []byte
	genErr    error
	editData  []byte
	editErr   error
	gotPrompt string
}

func (f *fakePainter) Generate(_ context.Context, prompt string, _ []byte) ([]byte, error) {
	f.gotPrompt = prompt
	return f.genData, f.genErr
}

func (f *fakePainter) Edit(_ context.Context, _ []byte, prompt string) ([]byte, error) {
	f.gotPrompt = prompt
	return f.editData, f.editErr
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) Notify(msg string, _ []byte) { f.messages = append(f.messages, msg) }

// queue defers spawned work so tests can observe intermediate scene states.
type queue struct {
	fns []func()
}

func (q *queue) run(f func()) { q.fns = append(q.fns, f) }

func (q *queue) step() bool {
	if len(q.fns) == 0 {
		return false
	}
	f := q.fns[0]
	q.fns = q.fns[1:]
	f()
	return true
}

func (q *queue) drain() {
	for q.step() {
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{120, 120, 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	store   *scene.Store
	hist    *history.History
	planner *fakePlanner
	painter *fakePainter
	notes   *fakeNotifier
	q       *queue
	disp    *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   scene.NewStore(),
		planner: &fakePlanner{},
		painter: &fakePainter{},
		notes:   &fakeNotifier{},
		q:       &queue{},
	}
	var err error
	f.hist, err = history.New(history.DefaultDepth)
	if err != nil {
		t.Fatal(err)
	}
	f.hist.Push(f.store.Snapshot())
	f.disp = New(Deps{
		Store:    f.store,
		History:  f.hist,
		Planner:  f.planner,
		Painter:  f.painter,
		Composer: render.NewCompositor(render.DefaultMaxStrokeWidth),
		Notifier: f.notes,
		Post:     func(fn func()) { fn() },
		Spawn:    f.q.run,
		MinSize:  40,
		MaxSize:  512,
	})
	return f
}

func sketch(pts ...geom.Point) *scene.Stroke {
	s := scene.NewStroke(pts[0], 0.8, geom.Point{})
	for _, p := range pts[1:] {
		s.Append(p, 0.8, geom.Point{})
	}
	return s
}

func TestGeneratePlaceholderLifecycle(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{Type: genai.PlanGenerate, Prompt: "a dragon"}
	f.painter.genData = pngBytes(t, 100, 50)

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.hist.Push(f.store.Snapshot())

	f.disp.Dispatch([]scene.Entity{s})

	// First deferred step classifies and installs the placeholder.
	f.q.step()
	if f.store.ByID(s.ID()) != nil {
		t.Error("sketch strokes must be removed immediately")
	}
	var ph *scene.ImageObject
	for _, e := range f.store.All() {
		if img, ok := e.(*scene.ImageObject); ok {
			if ph != nil {
				t.Fatal("more than one placeholder inserted")
			}
			ph = img
		}
	}
	if ph == nil {
		t.Fatal("no placeholder inserted")
	}
	if !ph.Generating || ph.Bytes != nil {
		t.Errorf("placeholder state: generating=%v bytes=%v", ph.Generating, ph.Bytes != nil)
	}

	// Second deferred step completes the generation.
	f.q.drain()
	if ph.Generating {
		t.Error("flag still set after completion")
	}
	if ph.Bytes == nil {
		t.Error("no bytes after completion")
	}
	// 100x50 source: the longer side maps to the maximum extent.
	if ph.Width != 512 || ph.Height != 256 {
		t.Errorf("extent = %vx%v, want 512x256", ph.Width, ph.Height)
	}
	if f.painter.gotPrompt != "a dragon" {
		t.Errorf("prompt = %q", f.painter.gotPrompt)
	}
}

func TestGenerateFailureRemovesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{Type: genai.PlanGenerate, Prompt: "x"}
	f.painter.genErr = errors.New("backend down")

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.disp.Dispatch([]scene.Entity{s})
	f.q.drain()

	if f.store.Len() != 0 {
		t.Errorf("scene has %d entities after failure, want 0", f.store.Len())
	}
	if len(f.notes.messages) == 0 {
		t.Error("failure surfaced no notification")
	}
}

func TestGenerateUndecodableResultIsFailure(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{Type: genai.PlanGenerate}
	f.painter.genData = []byte("not an image")

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.disp.Dispatch([]scene.Entity{s})
	f.q.drain()

	if f.store.Len() != 0 {
		t.Errorf("scene has %d entities, want 0", f.store.Len())
	}
}

func TestStaleCompletionAfterUndoIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{Type: genai.PlanGenerate}
	f.painter.genData = pngBytes(t, 64, 64)

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.hist.Push(f.store.Snapshot())

	f.disp.Dispatch([]scene.Entity{s})
	f.q.step() // placeholder installed

	// The user undoes while the call is in flight.
	snap, ok := f.hist.Undo()
	if !ok {
		t.Fatal("undo unavailable")
	}
	f.store.Restore(snap)

	f.q.drain() // completion must detect itself as superseded
	for _, e := range f.store.All() {
		if img, ok := e.(*scene.ImageObject); ok {
			t.Errorf("stale completion materialized an image: %v", img.ID())
		}
	}
}

func TestEditMenuFlow(t *testing.T) {
	f := newFixture(t)
	f.planner.opts = []string{"paint the roof red", "add a chimney"}
	f.painter.editData = pngBytes(t, 64, 64)

	img := scene.NewImageObject(geom.Point{X: 200, Y: 200}, 100, 100)
	img.Bytes = pngBytes(t, 64, 64)
	s := sketch(geom.Point{X: 190, Y: 190}, geom.Point{X: 210, Y: 210})
	f.store.Append(img)
	f.store.Append(s)

	f.disp.Dispatch([]scene.Entity{s, img})
	f.q.step() // menu surfaces; default chooser picks the first option
	if f.store.ByID(s.ID()) != nil {
		t.Error("instructing ink not removed")
	}
	if !img.Generating {
		t.Error("image not marked busy during edit")
	}

	f.q.drain()
	if img.Generating {
		t.Error("flag still set after edit")
	}
	if f.painter.gotPrompt != "paint the roof red" {
		t.Errorf("prompt = %q, want first menu option", f.painter.gotPrompt)
	}
	if f.store.ByID(img.ID()) == nil {
		t.Error("edited image left the scene")
	}
}

func TestEditMenuCustomChoice(t *testing.T) {
	f := newFixture(t)
	f.planner.opts = []string{"first", "second", "third"}
	f.painter.editData = pngBytes(t, 32, 32)

	var offered []string
	f.disp.chooser = chooserFunc(func(options []string, pick func(string)) {
		offered = options
		pick(options[2])
	})

	img := scene.NewImageObject(geom.Point{X: 200, Y: 200}, 100, 100)
	img.Bytes = pngBytes(t, 32, 32)
	s := sketch(geom.Point{X: 190, Y: 190}, geom.Point{X: 210, Y: 210})
	f.store.Append(img)
	f.store.Append(s)

	f.disp.Dispatch([]scene.Entity{s, img})
	f.q.drain()

	if len(offered) != 3 {
		t.Fatalf("menu offered %d options, want 3", len(offered))
	}
	if f.painter.gotPrompt != "third" {
		t.Errorf("prompt = %q, want the picked option", f.painter.gotPrompt)
	}
}

type chooserFunc func([]string, func(string))

func (c chooserFunc) Choose(options []string, pick func(string)) { c(options, pick) }

func TestEditFailureKeepsImage(t *testing.T) {
	f := newFixture(t)
	f.planner.opts = []string{"anything"}
	f.painter.editErr = errors.New("backend down")

	original := pngBytes(t, 48, 48)
	img := scene.NewImageObject(geom.Point{X: 200, Y: 200}, 100, 100)
	img.Bytes = original
	s := sketch(geom.Point{X: 190, Y: 190}, geom.Point{X: 210, Y: 210})
	f.store.Append(img)
	f.store.Append(s)

	f.disp.Dispatch([]scene.Entity{s, img})
	f.q.drain()

	if img.Generating {
		t.Error("flag not cleared after failed edit")
	}
	if !bytes.Equal(img.Bytes, original) {
		t.Error("failed edit must leave the image untouched")
	}
	if f.store.ByID(s.ID()) != nil {
		t.Error("removed ink must not be restored on failure")
	}
}

func TestExecuteDeletesGroup(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{Type: genai.PlanExecute}

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.disp.Dispatch([]scene.Entity{s})
	f.q.drain()

	if f.store.Len() != 0 {
		t.Errorf("scene has %d entities after execute, want 0", f.store.Len())
	}
}

func TestSmartifySubstitutesGroup(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{
		Type: genai.PlanSmartify, Emoji: "🗑", Behavior: "deletes what is dropped on it", Action: "delete",
	}

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.disp.Dispatch([]scene.Entity{s})
	f.q.drain()

	if f.store.Len() != 1 {
		t.Fatalf("scene has %d entities, want 1", f.store.Len())
	}
	sm, ok := f.store.At(0).(*scene.SmartObject)
	if !ok {
		t.Fatalf("entity is %T, want smart object", f.store.At(0))
	}
	if sm.Emoji != "🗑" || sm.Action != scene.ActionDelete {
		t.Errorf("smart object %q action %v", sm.Emoji, sm.Action)
	}
}

func TestClassifyErrorLeavesSceneUntouched(t *testing.T) {
	f := newFixture(t)
	f.planner.planErr = errors.New("no network")

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.disp.Dispatch([]scene.Entity{s})
	f.q.drain()

	if f.store.ByID(s.ID()) == nil {
		t.Error("classification failure must not mutate the scene")
	}
	if len(f.notes.messages) == 0 {
		t.Error("classification failure surfaced no notification")
	}
}

func TestUndoPastMidFlightCommitLeavesNoPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.planner.plan = genai.Plan{Type: genai.PlanGenerate, Prompt: "a tree"}
	f.painter.genData = pngBytes(t, 64, 64)

	s := sketch(geom.Point{X: 100, Y: 100}, geom.Point{X: 140, Y: 130})
	f.store.Append(s)
	f.hist.Push(f.store.Snapshot())

	f.disp.Dispatch([]scene.Entity{s})
	f.q.step() // placeholder installed

	// The user draws another stroke while the call is in flight; the commit
	// snapshots the scene around the placeholder.
	extra := sketch(geom.Point{X: 300, Y: 300}, geom.Point{X: 320, Y: 300})
	f.store.Append(extra)
	f.hist.Push(f.store.Snapshot())

	snap, ok := f.hist.Undo()
	if !ok {
		t.Fatal("undo unavailable")
	}
	f.store.Restore(snap)

	f.q.drain()
	for _, e := range f.store.All() {
		if img, ok := e.(*scene.ImageObject); ok {
			if img.Generating {
				t.Fatalf("restored scene holds a never-resolving placeholder: %v", img.ID())
			}
			t.Errorf("image materialized after the restore: %v", img.ID())
		}
	}
	if f.store.ByID(extra.ID()) != nil {
		t.Error("undone stroke still present")
	}

	// Redoing lands on the snapshot taken mid-flight; it must not carry the
	// placeholder either.
	redoSnap, ok := f.hist.Redo()
	if !ok {
		t.Fatal("redo unavailable")
	}
	f.store.Restore(redoSnap)
	for _, e := range f.store.All() {
		if img, ok := e.(*scene.ImageObject); ok && img.Generating {
			t.Fatalf("mid-flight snapshot restored a never-resolving placeholder: %v", img.ID())
		}
	}
	if f.store.ByID(extra.ID()) == nil {
		t.Error("redone stroke missing")
	}
}
