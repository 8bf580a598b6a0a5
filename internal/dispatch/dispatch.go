// Package dispatch turns a captured entity group into one of the generative
// outcomes: a brand-new image, an in-place edit, a direct scene mutation or
// a smart-object substitution. It owns the placeholder lifecycle and guards
// every asynchronous completion against a scene that moved on without it.
package dispatch

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/inkdeck/internal/genai"
	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/history"
	"github.com/example/inkdeck/internal/render"
	"github.com/example/inkdeck/internal/scene"
)

// Composer rasterizes a group into the reference PNG the backend consumes.
type Composer interface {
	Compose(group []scene.Entity) ([]byte, error)
}

// Notifier surfaces fire-and-forget user messages, optionally with a
// preview image.
type Notifier interface {
	Notify(message string, preview []byte)
}

// Ticker schedules per-frame animation tasks keyed by entity ID.
type Ticker interface {
	Add(id uuid.UUID, task render.Task)
	Cancel(id uuid.UUID)
}

// OptionChooser surfaces the two-step edit menu and reports the pick. The
// callback runs on the event loop.
type OptionChooser interface {
	Choose(options []string, pick func(choice string))
}

// firstOption is the fallback chooser: it takes the first candidate without
// asking.
type firstOption struct{}

func (firstOption) Choose(options []string, pick func(string)) {
	if len(options) > 0 {
		pick(options[0])
	}
}

// Deps wires the dispatcher to its collaborators. Store, History, Planner,
// Painter, Composer and Post are required; the rest may be nil.
type Deps struct {
	Store    *scene.Store
	History  *history.History
	Planner  genai.Planner
	Painter  genai.Painter
	Composer Composer
	Notifier Notifier
	Anim     Ticker
	Chooser  OptionChooser
	// Post marshals a closure onto the event loop. Completions never touch
	// the scene from another goroutine.
	Post func(func())
	// Spawn runs the blocking backend call. Defaults to a goroutine; tests
	// substitute an inline runner for determinism.
	Spawn   func(func())
	Redraw  func()
	Log     *zap.Logger
	MinSize float64
	MaxSize float64
}

// Dispatcher resolves captured groups asynchronously. All scene access
// happens on the event loop via the injected Post.
type Dispatcher struct {
	store   *scene.Store
	hist    *history.History
	planner genai.Planner
	painter genai.Painter
	compose Composer
	notify  Notifier
	anim    Ticker
	chooser OptionChooser
	post    func(func())
	spawn   func(func())
	redraw  func()
	log     *zap.Logger
	minSize float64
	maxSize float64

	// epoch invalidates in-flight work. It is bumped on every history
	// restore; completions carrying an older epoch discard themselves.
	epoch uint64
}

// New builds a dispatcher and hooks its epoch to history restores.
func New(d Deps) *Dispatcher {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Spawn == nil {
		d.Spawn = func(f func()) { go f() }
	}
	if d.Chooser == nil {
		d.Chooser = firstOption{}
	}
	if d.MinSize <= 0 {
		d.MinSize = 40
	}
	if d.MaxSize <= 0 {
		d.MaxSize = 512
	}
	disp := &Dispatcher{
		store:   d.Store,
		hist:    d.History,
		planner: d.Planner,
		painter: d.Painter,
		compose: d.Composer,
		notify:  d.Notifier,
		anim:    d.Anim,
		chooser: d.Chooser,
		post:    d.Post,
		spawn:   d.Spawn,
		redraw:  d.Redraw,
		log:     d.Log,
		minSize: d.MinSize,
		maxSize: d.MaxSize,
	}
	d.History.SetOnRestore(func() { disp.epoch++ })
	return disp
}

// Dispatch resolves the captured group. It returns immediately; all effects
// land on the event loop later.
func (d *Dispatcher) Dispatch(group []scene.Entity) {
	png, err := d.compose.Compose(group)
	if err != nil {
		d.log.Warn("compose failed", zap.Error(err))
		d.announce("could not capture the selection", nil)
		return
	}
	epoch := d.epoch
	d.log.Info("dispatch", zap.Int("group", len(group)), zap.Int("reference_bytes", len(png)))
	d.spawn(func() { d.resolve(epoch, group, png) })
}

// resolve runs off the event loop: it talks to the backend and posts the
// outcome back.
func (d *Dispatcher) resolve(epoch uint64, group []scene.Entity, refPNG []byte) {
	ctx := context.Background()

	// A group mixing ink with exactly one image goes through the two-step
	// menu: the planner proposes short edit instructions and the user picks
	// one before anything mutates.
	if imgID, ok := editTarget(group); ok {
		opts, err := d.planner.EditOptions(ctx, refPNG)
		if err != nil || len(opts) == 0 {
			d.log.Warn("edit options failed, using defaults", zap.Error(err))
			opts = genai.DefaultEditOptions()
		}
		d.post(func() {
			d.chooser.Choose(opts, func(choice string) {
				d.startEdit(epoch, imgID, group, choice, refPNG)
			})
		})
		return
	}

	plan, err := d.planner.Classify(ctx, refPNG)
	if err != nil {
		d.log.Warn("classify failed", zap.Error(err))
		d.post(func() { d.announce("could not interpret the sketch", nil) })
		return
	}
	d.log.Info("classified", zap.String("plan", string(plan.Type)))

	switch plan.Type {
	case genai.PlanEdit:
		if imgID, ok := singleImage(group); ok {
			d.post(func() { d.startEdit(epoch, imgID, group, plan.Prompt, refPNG) })
			return
		}
		// No image to edit; fall back to generation.
		fallthrough
	case genai.PlanGenerate:
		d.post(func() { d.startGenerate(epoch, group, plan, refPNG) })
	case genai.PlanExecute:
		d.post(func() { d.execute(epoch, group) })
	case genai.PlanSmartify:
		d.post(func() { d.smartify(epoch, group, plan) })
	default:
		d.post(func() { d.startGenerate(epoch, group, plan, refPNG) })
	}
}

// startGenerate runs on the event loop: it removes the sketch, inserts the
// pulsing placeholder and hands the slow call to a worker.
func (d *Dispatcher) startGenerate(epoch uint64, group []scene.Entity, plan genai.Plan, refPNG []byte) {
	if d.stale(epoch, "generate start") {
		return
	}

	b := groupBounds(group)
	center := b.Center()
	w := geom.Clamp(b.Width(), d.minSize, d.maxSize)
	h := geom.Clamp(b.Height(), d.minSize, d.maxSize)

	for _, e := range group {
		if _, ok := e.(*scene.Stroke); ok {
			d.store.Remove(e.ID())
		}
	}
	ph := scene.NewPlaceholder(center, w, h)
	d.store.Append(ph)
	d.pulse(ph.ID())
	d.requestRedraw()

	prompt := plan.Prompt
	if prompt == "" {
		prompt = genai.DefaultPlan().Prompt
	}
	d.spawn(func() {
		data, err := d.painter.Generate(context.Background(), prompt, refPNG)
		d.post(func() { d.completeGenerate(epoch, ph.ID(), data, err) })
	})
}

func (d *Dispatcher) completeGenerate(epoch uint64, phID uuid.UUID, data []byte, err error) {
	if d.stale(epoch, "generate completion") {
		return
	}
	img, ok := d.store.ByID(phID).(*scene.ImageObject)
	if !ok {
		d.log.Info("generate target removed before completion", zap.String("id", phID.String()))
		return
	}

	if err == nil {
		var cfg image.Config
		cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
		if err == nil {
			w, h := fitLongest(cfg.Width, cfg.Height, d.maxSize)
			img.Bytes = data
			img.Resize(w, h, d.minSize, d.maxSize)
			img.Generating = false
			// The snapshot is committed only after decode and resize, so
			// undo never restores placeholder dimensions.
			d.hist.Push(d.store.Snapshot())
			d.announce("image ready", data)
			d.requestRedraw()
			return
		}
	}

	d.log.Warn("generate failed", zap.Error(err))
	d.store.Remove(phID)
	d.announce("image generation failed", nil)
	d.requestRedraw()
}

// startEdit runs on the event loop: it marks the image busy, strips the
// instructing ink and hands the slow call to a worker.
func (d *Dispatcher) startEdit(epoch uint64, imgID uuid.UUID, group []scene.Entity, prompt string, refPNG []byte) {
	if d.stale(epoch, "edit start") {
		return
	}
	img, ok := d.store.ByID(imgID).(*scene.ImageObject)
	if !ok {
		d.log.Info("edit target removed before start", zap.String("id", imgID.String()))
		return
	}

	for _, e := range group {
		if _, ok := e.(*scene.Stroke); ok {
			d.store.Remove(e.ID())
		}
	}
	img.Generating = true
	d.pulse(imgID)
	d.requestRedraw()

	source := img.Bytes
	d.spawn(func() {
		data, err := d.painter.Edit(context.Background(), source, prompt)
		d.post(func() { d.completeEdit(epoch, imgID, data, err) })
	})
}

func (d *Dispatcher) completeEdit(epoch uint64, imgID uuid.UUID, data []byte, err error) {
	if d.stale(epoch, "edit completion") {
		return
	}
	img, ok := d.store.ByID(imgID).(*scene.ImageObject)
	if !ok {
		d.log.Info("edit target removed before completion", zap.String("id", imgID.String()))
		return
	}

	if err != nil {
		// The image keeps its pre-edit bytes; the removed ink is not
		// restored.
		d.log.Warn("edit failed", zap.Error(err))
		img.Generating = false
		d.announce("image edit failed", nil)
		d.requestRedraw()
		return
	}
	img.Bytes = data
	img.Generating = false
	d.hist.Push(d.store.Snapshot())
	d.announce("image updated", data)
	d.requestRedraw()
}

// execute performs the direct scene mutation outcome: the captured group is
// deleted.
func (d *Dispatcher) execute(epoch uint64, group []scene.Entity) {
	if d.stale(epoch, "execute") {
		return
	}
	for _, e := range group {
		d.store.Remove(e.ID())
	}
	d.hist.Push(d.store.Snapshot())
	d.announce("removed", nil)
	d.requestRedraw()
}

// smartify substitutes the group with an iconic smart object.
func (d *Dispatcher) smartify(epoch uint64, group []scene.Entity, plan genai.Plan) {
	if d.stale(epoch, "smartify") {
		return
	}
	center := groupBounds(group).Center()
	for _, e := range group {
		d.store.Remove(e.ID())
	}
	sm := scene.NewSmartObject(center, plan.Emoji, plan.Behavior, scene.ParseAction(plan.Action))
	d.store.Append(sm)
	d.hist.Push(d.store.Snapshot())
	d.announce("tagged as "+plan.Emoji, nil)
	d.requestRedraw()
}

// pulse registers the generating animation for id. The task stops itself
// once the flag clears or the entity leaves the scene.
func (d *Dispatcher) pulse(id uuid.UUID) {
	if d.anim == nil {
		return
	}
	store := d.store
	d.anim.Add(id, func(time.Time) bool {
		img, ok := store.ByID(id).(*scene.ImageObject)
		if !ok || !img.Generating {
			return false
		}
		img.CurrentFrame++
		return true
	})
}

func (d *Dispatcher) stale(epoch uint64, op string) bool {
	if epoch != d.epoch {
		d.log.Info("superseded by history restore", zap.String("op", op))
		return true
	}
	return false
}

func (d *Dispatcher) announce(msg string, preview []byte) {
	if d.notify != nil {
		d.notify.Notify(msg, preview)
	}
}

func (d *Dispatcher) requestRedraw() {
	if d.redraw != nil {
		d.redraw()
	}
}

// editTarget reports the single image of a mixed ink-plus-image group.
func editTarget(group []scene.Entity) (uuid.UUID, bool) {
	strokes := 0
	var imgs []uuid.UUID
	for _, e := range group {
		switch v := e.(type) {
		case *scene.Stroke:
			strokes++
		case *scene.ImageObject:
			imgs = append(imgs, v.ID())
		}
	}
	if strokes > 0 && len(imgs) == 1 {
		return imgs[0], true
	}
	return uuid.UUID{}, false
}

// singleImage reports the group's only image, regardless of ink.
func singleImage(group []scene.Entity) (uuid.UUID, bool) {
	var imgs []uuid.UUID
	for _, e := range group {
		if v, ok := e.(*scene.ImageObject); ok {
			imgs = append(imgs, v.ID())
		}
	}
	if len(imgs) == 1 {
		return imgs[0], true
	}
	return uuid.UUID{}, false
}

// fitLongest scales (w, h) so the longer side equals limit, preserving
// aspect ratio.
func fitLongest(w, h int, limit float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return limit, limit
	}
	fw, fh := float64(w), float64(h)
	var scale float64
	if fw >= fh {
		scale = limit / fw
	} else {
		scale = limit / fh
	}
	return fw * scale, fh * scale
}

func groupBounds(group []scene.Entity) geom.Bounds {
	if len(group) == 0 {
		return geom.Bounds{}
	}
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
