// Package input turns pointer events into gestures. A single state machine
// owns every interaction: pen strokes, touch drags with a long-press gate,
// lasso selection, pinch scaling and the two finger undo tap.
package input

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/history"
	"github.com/example/inkdeck/internal/render"
	"github.com/example/inkdeck/internal/scene"
)

// Modality distinguishes the two input roles: pens draw, touches manipulate.
type Modality int

const (
	ModalityPen Modality = iota
	ModalityTouch
)

// Phase is the lifecycle stage of a pointer event.
type Phase int

const (
	PhasePress Phase = iota
	PhaseMove
	PhaseRelease
	PhaseCancel
)

// Pointer is a transport independent input event. The cmd layer translates
// window system mouse and touch events into it.
type Pointer struct {
	ID       int64
	Modality Modality
	Phase    Phase
	Pos      geom.Point
	Pressure float64
	Tilt     geom.Point
	Time     time.Time
}

// State identifies the active gesture.
type State int

const (
	StateIdle State = iota
	StateDrawing
	StateDragging
	StateLasso
	StateLongTapPending
	StateScaling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	case StateLasso:
		return "lasso"
	case StateLongTapPending:
		return "long-tap-pending"
	case StateScaling:
		return "scaling"
	}
	return "unknown"
}

// Dispatcher receives the captured entity group when a gesture requests an
// action (corner drop or long-press expiry).
type Dispatcher interface {
	Dispatch(group []scene.Entity)
}

// Config holds the gesture tunables.
type Config struct {
	HitTolerance  float64       // vertex proximity for hit-testing
	DragTolerance float64       // movement that demotes a pending long-press
	CornerSize    float64       // side of the top-right trigger zone
	MinSize       float64       // smallest image extent under scaling
	MaxSize       float64       // largest image extent under scaling
	RingDelay     time.Duration // press duration before the ring shows
	FireDelay     time.Duration // press duration before dispatch fires
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		HitTolerance:  20,
		DragTolerance: 10,
		CornerSize:    120,
		MinSize:       40,
		MaxSize:       512,
		RingDelay:     2 * time.Second,
		FireDelay:     3 * time.Second,
	}
}

// pinch tracks an active two finger scale gesture.
type pinch struct {
	ids      [2]int64
	initDist float64
	center   geom.Point
	img      *scene.ImageObject
	initW    float64
	initH    float64
	group    []scene.Entity
	last     float64
	moved    bool
	tapUndo  bool // entered from a state where a bare tap means undo
}

// Router is the gesture state machine. It runs on the event loop and is not
// safe for concurrent use. Timing is driven by Step, never by wall-clock
// reads, so gestures are deterministic under test.
type Router struct {
	store *scene.Store
	hist  *history.History
	disp  Dispatcher
	draw  func()
	log   *zap.Logger
	cfg   Config

	state   State
	stroke  *scene.Stroke
	group   []scene.Entity
	dragged bool

	pressPos  geom.Point
	pressTime time.Time
	lastPos   geom.Point
	ringOn    bool

	lasso      []geom.Point
	lassoPhase int

	touches map[int64]geom.Point
	pinch   pinch

	viewW float64
	viewH float64
}

// NewRouter wires the state machine to its collaborators. redraw may be nil;
// a nil logger is replaced with a nop logger.
func NewRouter(store *scene.Store, hist *history.History, disp Dispatcher, redraw func(), log *zap.Logger, cfg Config) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.HitTolerance <= 0 {
		cfg = DefaultConfig()
	}
	return &Router{
		store:   store,
		hist:    hist,
		disp:    disp,
		draw:    redraw,
		log:     log,
		cfg:     cfg,
		touches: map[int64]geom.Point{},
	}
}

// SetViewport tells the router the canvas extent, which anchors the corner
// trigger zone.
func (r *Router) SetViewport(w, h float64) {
	r.viewW = w
	r.viewH = h
}

// State returns the active gesture state.
func (r *Router) State() State { return r.state }

// CornerZone is the top-right drop target that triggers dispatch.
func (r *Router) CornerZone() geom.Bounds {
	return geom.Bounds{MinX: r.viewW - r.cfg.CornerSize, MinY: 0, MaxX: r.viewW, MaxY: r.cfg.CornerSize}
}

// Overlay reports the transient visuals for the current gesture.
func (r *Router) Overlay(now time.Time) render.Overlay {
	ov := render.Overlay{
		Lasso:      r.lasso,
		LassoPhase: r.lassoPhase,
		CornerZone: r.CornerZone(),
		ShowCorner: r.state == StateDragging,
	}
	if r.state == StateLongTapPending && r.ringOn {
		held := now.Sub(r.pressTime)
		frac := float64(held-r.cfg.RingDelay) / float64(r.cfg.FireDelay-r.cfg.RingDelay)
		ov.Ring = render.RingState{Active: true, Center: r.pressPos, Fraction: geom.Clamp(frac, 0, 1)}
	}
	return ov
}

// Step advances time-driven behavior: the long-press ring and its dispatch
// expiry, and the lasso dash crawl. The frame callback calls it once per
// frame with the event clock.
func (r *Router) Step(now time.Time) {
	switch r.state {
	case StateLasso:
		r.lassoPhase++
		r.requestRedraw()
	case StateLongTapPending:
		held := now.Sub(r.pressTime)
		if held >= r.cfg.FireDelay {
			group := r.group
			r.log.Debug("long-press dispatch", zap.Int("group", len(group)))
			r.reset()
			if r.disp != nil && len(group) > 0 {
				r.disp.Dispatch(group)
			}
			r.requestRedraw()
			return
		}
		if held >= r.cfg.RingDelay {
			r.ringOn = true
		}
		if r.ringOn {
			r.requestRedraw()
		}
	}
}

// Handle feeds one pointer event through the state machine. Cancel resolves
// identically to Release in every state, so no gesture can wedge off-Idle.
func (r *Router) Handle(p Pointer) {
	switch p.Phase {
	case PhasePress:
		r.press(p)
	case PhaseMove:
		r.move(p)
	case PhaseRelease, PhaseCancel:
		r.release(p)
	}
}

func (r *Router) press(p Pointer) {
	if p.Modality == ModalityPen {
		if r.state != StateIdle {
			return
		}
		r.stroke = scene.NewStroke(p.Pos, p.Pressure, p.Tilt)
		r.setState(StateDrawing)
		r.requestRedraw()
		return
	}

	// Touch. A second finger during any single-touch gesture becomes a
	// pinch; further fingers are ignored.
	if len(r.touches) >= 2 {
		return
	}
	r.touches[p.ID] = p.Pos
	if len(r.touches) == 2 {
		r.beginScaling(p)
		return
	}

	switch r.state {
	case StateIdle:
		r.pressPos = p.Pos
		r.pressTime = p.Time
		r.lastPos = p.Pos
		if hit := r.store.HitTest(p.Pos, r.cfg.HitTolerance); hit != nil {
			r.group = r.seedGroup(hit)
			r.ringOn = false
			r.setState(StateLongTapPending)
		} else {
			r.store.ClearSelection()
			r.lasso = []geom.Point{p.Pos}
			r.lassoPhase = 0
			r.setState(StateLasso)
			r.requestRedraw()
		}
	default:
		// A stray touch during pen drawing is ignored.
		delete(r.touches, p.ID)
	}
}

// seedGroup picks the entities a touch-down captures: the whole selection
// when the hit entity is already part of one, otherwise the hit entity plus
// its proximity neighbors.
func (r *Router) seedGroup(hit scene.Entity) []scene.Entity {
	if hit.Selected() {
		sel := r.store.Selected()
		if len(sel) > 1 {
			return sel
		}
	}
	return r.store.ExpandToGroup(hit, r.cfg.HitTolerance)
}

func (r *Router) move(p Pointer) {
	if p.Modality == ModalityPen {
		if r.state != StateDrawing || r.stroke == nil {
			return
		}
		r.stroke.Append(p.Pos, p.Pressure, p.Tilt)
		r.requestRedraw()
		return
	}

	if _, ok := r.touches[p.ID]; !ok {
		return
	}
	r.touches[p.ID] = p.Pos

	switch r.state {
	case StateLongTapPending:
		if geom.Distance(p.Pos, r.pressPos) > r.cfg.DragTolerance {
			r.ringOn = false
			r.setState(StateDragging)
			// The drag begins at the current point; the gate movement
			// itself does not displace the group.
			r.lastPos = p.Pos
		}
	case StateDragging:
		r.translateGroup(p.Pos)
	case StateLasso:
		r.lasso = append(r.lasso, p.Pos)
		r.requestRedraw()
	case StateScaling:
		r.stepScaling()
	}
}

func (r *Router) translateGroup(pos geom.Point) {
	delta := pos.Sub(r.lastPos)
	r.lastPos = pos
	if delta.X == 0 && delta.Y == 0 {
		return
	}
	for _, e := range r.group {
		e.Translate(delta)
	}
	r.dragged = true
	r.requestRedraw()
}

func (r *Router) release(p Pointer) {
	if p.Modality == ModalityPen {
		if r.state != StateDrawing || r.stroke == nil {
			return
		}
		r.store.Append(r.stroke)
		r.hist.Push(r.store.Snapshot())
		r.log.Debug("stroke committed", zap.Int("points", len(r.stroke.Points)))
		r.reset()
		r.requestRedraw()
		return
	}

	if _, ok := r.touches[p.ID]; !ok {
		return
	}
	delete(r.touches, p.ID)

	switch r.state {
	case StateScaling:
		r.endScaling()
	case StateLongTapPending:
		// Early release degrades to a tap-drag: drop at the current point.
		r.drop(p.Pos)
	case StateDragging:
		r.drop(p.Pos)
	case StateLasso:
		r.closeLasso()
	}
}

// drop resolves the end of a drag (or degraded tap-drag): corner zone
// dispatches, an actionable smart object under the drop point executes its
// action against the group, anything else commits the group as the new
// multi-selection.
func (r *Router) drop(pos geom.Point) {
	group := r.group
	dragged := r.dragged
	r.reset()

	if len(group) == 0 {
		return
	}

	if r.CornerZone().Contains(pos) {
		r.log.Debug("corner dispatch", zap.Int("group", len(group)))
		if r.disp != nil {
			r.disp.Dispatch(group)
		}
		r.requestRedraw()
		return
	}

	if sm := r.smartAt(pos, group); sm != nil {
		r.applySmartAction(sm, group)
		r.hist.Push(r.store.Snapshot())
		r.requestRedraw()
		return
	}

	for _, e := range group {
		e.SetSelected(true)
	}
	if dragged {
		r.hist.Push(r.store.Snapshot())
	}
	r.requestRedraw()
}

// smartAt finds the topmost actionable smart object under p, skipping
// members of the dropped group.
func (r *Router) smartAt(p geom.Point, exclude []scene.Entity) *scene.SmartObject {
	skip := map[uuid.UUID]bool{}
	for _, e := range exclude {
		skip[e.ID()] = true
	}
	all := r.store.All()
	for i := len(all) - 1; i >= 0; i-- {
		sm, ok := all[i].(*scene.SmartObject)
		if !ok || skip[sm.ID()] || !sm.Actionable() {
			continue
		}
		if geom.Distance(p, sm.Center) <= scene.SmartRadius {
			return sm
		}
	}
	return nil
}

func (r *Router) applySmartAction(sm *scene.SmartObject, group []scene.Entity) {
	r.log.Debug("smart action", zap.Stringer("action", sm.Action), zap.Int("group", len(group)))
	center := groupBounds(group).Center()
	switch sm.Action {
	case scene.ActionDelete:
		for _, e := range group {
			r.store.Remove(e.ID())
		}
	case scene.ActionReflect:
		for _, e := range group {
			reflectHorizontal(e, center.X)
		}
	case scene.ActionEnlarge:
		const factor = 1.5
		for _, e := range group {
			scaleEntity(e, center, factor, r.cfg.MinSize, r.cfg.MaxSize)
		}
	}
	for _, e := range group {
		e.SetSelected(false)
	}
}

func (r *Router) closeLasso() {
	path := r.lasso
	r.reset()
	if len(path) >= 3 {
		caught := r.store.FindInLasso(path)
		for _, e := range caught {
			e.SetSelected(true)
		}
		r.log.Debug("lasso selection", zap.Int("caught", len(caught)))
	}
	r.requestRedraw()
}

func (r *Router) beginScaling(second Pointer) {
	// The pinch can begin from Idle, a pending long-press, a drag or a
	// lasso; a lasso in progress is abandoned. A bare two finger tap means
	// undo, but only when no real gesture was underway. A lasso of fewer
	// than three points counts as not started, so tapping two fingers on
	// empty canvas still undoes.
	tapUndo := r.state == StateIdle ||
		(r.state == StateLongTapPending && !r.dragged) ||
		(r.state == StateLasso && len(r.lasso) < 3)
	r.lasso = nil
	r.ringOn = false

	var ids [2]int64
	i := 0
	for id := range r.touches {
		ids[i] = id
		i++
	}
	a, b := r.touches[ids[0]], r.touches[ids[1]]
	center := geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}

	pn := pinch{
		ids:      ids,
		initDist: geom.Distance(a, b),
		center:   center,
		last:     1,
		tapUndo:  tapUndo,
	}
	if hit := r.store.HitTest(center, r.cfg.HitTolerance); hit != nil {
		if img, ok := hit.(*scene.ImageObject); ok {
			pn.img = img
			pn.initW = img.Width
			pn.initH = img.Height
		} else if hit.Selected() {
			pn.group = r.store.Selected()
		}
	}
	r.pinch = pn
	r.setState(StateScaling)
}

func (r *Router) stepScaling() {
	a, okA := r.touches[r.pinch.ids[0]]
	b, okB := r.touches[r.pinch.ids[1]]
	if !okA || !okB || r.pinch.initDist <= 0 {
		return
	}
	ratio := geom.Distance(a, b) / r.pinch.initDist
	if math.Abs(ratio-1) > 0.05 {
		r.pinch.moved = true
	}
	if !r.pinch.moved {
		return
	}

	if img := r.pinch.img; img != nil {
		img.Resize(r.pinch.initW*ratio, r.pinch.initH*ratio, r.cfg.MinSize, r.cfg.MaxSize)
	} else if len(r.pinch.group) > 0 && r.pinch.last > 0 {
		step := ratio / r.pinch.last
		for _, e := range r.pinch.group {
			scaleEntity(e, r.pinch.center, step, r.cfg.MinSize, r.cfg.MaxSize)
		}
	}
	r.pinch.last = ratio
	r.requestRedraw()
}

func (r *Router) endScaling() {
	moved := r.pinch.moved
	tapUndo := r.pinch.tapUndo
	r.reset()

	if moved {
		r.hist.Push(r.store.Snapshot())
	} else if tapUndo {
		r.Undo()
	}
	r.requestRedraw()
}

// Undo restores the previous committed snapshot, if any.
func (r *Router) Undo() {
	snap, ok := r.hist.Undo()
	if !ok {
		return
	}
	r.store.Restore(snap)
	r.log.Debug("undo", zap.Int("entities", len(snap)))
	r.requestRedraw()
}

// Redo reapplies the most recently undone snapshot, if any.
func (r *Router) Redo() {
	snap, ok := r.hist.Redo()
	if !ok {
		return
	}
	r.store.Restore(snap)
	r.requestRedraw()
}

// reset clears all gesture state back to Idle, keeping the touch registry
// so leftover fingers resolve as no-ops.
func (r *Router) reset() {
	r.setState(StateIdle)
	r.stroke = nil
	r.group = nil
	r.dragged = false
	r.ringOn = false
	r.lasso = nil
	r.pinch = pinch{}
}

func (r *Router) setState(s State) {
	if s == r.state {
		return
	}
	r.log.Debug("state", zap.Stringer("from", r.state), zap.Stringer("to", s))
	r.state = s
}

func (r *Router) requestRedraw() {
	if r.draw != nil {
		r.draw()
	}
}

func reflectHorizontal(e scene.Entity, aboutX float64) {
	switch v := e.(type) {
	case *scene.Stroke:
		for i := range v.Points {
			v.Points[i].X = 2*aboutX - v.Points[i].X
		}
	case *scene.ImageObject:
		v.Center.X = 2*aboutX - v.Center.X
	case *scene.SmartObject:
		v.Center.X = 2*aboutX - v.Center.X
	}
}

func scaleEntity(e scene.Entity, about geom.Point, factor, min, max float64) {
	switch v := e.(type) {
	case *scene.Stroke:
		v.ScaleAbout(about, factor)
	case *scene.ImageObject:
		v.Center = about.Add(v.Center.Sub(about).Scale(factor))
		v.Resize(v.Width*factor, v.Height*factor, min, max)
	case *scene.SmartObject:
		v.Center = about.Add(v.Center.Sub(about).Scale(factor))
	}
}

func groupBounds(group []scene.Entity) geom.Bounds {
	b := group[0].Bounds()
	for _, e := range group[1:] {
		eb := e.Bounds()
		if eb.MinX < b.MinX {
			b.MinX = eb.MinX
		}
		if eb.MinY < b.MinY {
			b.MinY = eb.MinY
		}
		if eb.MaxX > b.MaxX {
			b.MaxX = eb.MaxX
		}
		if eb.MaxY > b.MaxY {
			b.MaxY = eb.MaxY
		}
	}
	return b
}
