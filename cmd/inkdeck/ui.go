package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"go.uber.org/zap"

	"github.com/example/inkdeck/internal/clipboard"
	"github.com/example/inkdeck/internal/dispatch"
	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/history"
	"github.com/example/inkdeck/internal/input"
	"github.com/example/inkdeck/internal/render"
	"github.com/example/inkdeck/internal/scene"
)

// frameDropThreshold specifies how many consecutive frames can be canceled
// before one is allowed to finish, so a stream of repaint requests cannot
// starve the window of completed frames.
const frameDropThreshold = 10

// tickInterval paces time-driven repaints: the long-press ring, the lasso
// dash crawl and placeholder pulses all advance at this cadence.
const tickInterval = 30 * time.Millisecond

// callbackEvent marshals a closure onto the event loop. Backend completions
// and the edit menu use it so the scene is only ever touched from the loop.
type callbackEvent struct{ fn func() }

// tickEvent asks the loop to decide whether a frame is due.
type tickEvent struct{}

type paintState struct {
	frame *image.RGBA
}

// menuChooser resolves the candidate-instruction menu without a native menu
// widget: the options are logged and the first one is applied.
type menuChooser struct{ log *zap.Logger }

func (m menuChooser) Choose(options []string, pick func(string)) {
	if len(options) == 0 {
		return
	}
	m.log.Info("edit menu", zap.Strings("options", options), zap.String("picked", options[0]))
	pick(options[0])
}

func runUI(r *root) error {
	driver.Main(func(s screen.Screen) { uiMain(s, r) })
	return nil
}

func uiMain(s screen.Screen, r *root) {
	log := r.log
	cfg := r.config

	store := scene.NewStore()
	hist, err := history.New(cfg.Gesture.HistoryDepth)
	if err != nil {
		log.Fatal("undo ring unavailable", zap.Error(err))
	}
	hist.Push(store.Snapshot())

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: r.width, Height: r.height, Title: "InkDeck"})
	if err != nil {
		log.Fatal("new window", zap.Error(err))
	}
	defer w.Release()

	dirty := false
	requestRedraw := func() { dirty = true }

	anim := render.NewAnimator(requestRedraw)
	store.SetOnRemove(func(e scene.Entity) { anim.Cancel(e.ID()) })

	renderer := render.NewRenderer(r.activeTheme, cfg.Gesture.MaxStrokeWidth)
	compositor := render.NewCompositor(cfg.Gesture.MaxStrokeWidth)

	disp := dispatch.New(dispatch.Deps{
		Store:    store,
		History:  hist,
		Planner:  r.planner,
		Painter:  r.painter,
		Composer: compositor,
		Notifier: r.notifier,
		Anim:     anim,
		Chooser:  menuChooser{log: log},
		Post:     func(fn func()) { w.Send(callbackEvent{fn}) },
		Redraw:   requestRedraw,
		Log:      log,
		MinSize:  cfg.Gesture.MinSize,
		MaxSize:  cfg.Gesture.MaxSize,
	})

	fire := time.Duration(cfg.Gesture.LongPressMs) * time.Millisecond
	router := input.NewRouter(store, hist, disp, requestRedraw, log, input.Config{
		HitTolerance:  cfg.Gesture.HitTolerance,
		DragTolerance: cfg.Gesture.DragTolerance,
		CornerSize:    cfg.Gesture.CornerSize,
		MinSize:       cfg.Gesture.MinSize,
		MaxSize:       cfg.Gesture.MaxSize,
		RingDelay:     fire * 2 / 3,
		FireDelay:     fire,
	})
	width, height := r.width, r.height
	router.SetViewport(float64(width), float64(height))

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Send(tickEvent{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			publishFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
		}
	}()

	w.Send(paint.Event{})
	for {
		switch e := w.NextEvent().(type) {
		case callbackEvent:
			e.fn()

		case tickEvent:
			if dirty || router.State() != input.StateIdle || anim.Active() {
				w.Send(paint.Event{})
			}

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}

		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			router.SetViewport(float64(width), float64(height))
			w.Send(paint.Event{})

		case paint.Event:
			dirty = false
			now := time.Now()
			anim.Step(now)
			router.Step(now)
			if width <= 0 || height <= 0 {
				continue
			}
			frame := image.NewRGBA(image.Rect(0, 0, width, height))
			renderer.Render(frame, store, router.Overlay(now))

			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := paintState{frame: frame}
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}

		case mouse.Event:
			p := input.Pointer{
				Modality: input.ModalityPen,
				Pos:      geom.Point{X: float64(e.X), Y: float64(e.Y)},
				Time:     time.Now(),
			}
			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				p.Phase = input.PhasePress
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				p.Phase = input.PhaseRelease
			case e.Direction == mouse.DirNone:
				p.Phase = input.PhaseMove
			default:
				continue
			}
			router.Handle(p)
			dirty = true

		case touch.Event:
			p := input.Pointer{
				ID:       int64(e.Sequence),
				Modality: input.ModalityTouch,
				Pos:      geom.Point{X: float64(e.X), Y: float64(e.Y)},
				Time:     time.Now(),
			}
			switch e.Type {
			case touch.TypeBegin:
				p.Phase = input.PhasePress
			case touch.TypeMove:
				p.Phase = input.PhaseMove
			case touch.TypeEnd:
				p.Phase = input.PhaseRelease
			default:
				continue
			}
			router.Handle(p)
			dirty = true

		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if e.Code == key.CodeEscape {
				return
			}
			switch e.Rune {
			case 'q':
				return
			case 'u':
				router.Undo()
				dirty = true
			case 'y':
				router.Redo()
				dirty = true
			case 'c':
				copyScene(store, compositor, r, log)
			case 's':
				saveScene(store, renderer, width, height, r, log)
			case 'v':
				pasteImage(store, hist, cfg.Gesture.MaxSize, width, height, log)
				dirty = true
			}
		}
	}
}

func publishFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(st.frame.Bounds().Size())
	if err != nil {
		return
	}
	defer b.Release()

	draw.Draw(b.RGBA(), b.Bounds(), st.frame, image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// copyScene puts the selection, or the whole scene when nothing is selected,
// on the clipboard as a PNG.
func copyScene(store *scene.Store, compositor *render.Compositor, r *root, log *zap.Logger) {
	group := store.Selected()
	detail := "selection"
	if len(group) == 0 {
		group = store.All()
		detail = "scene"
	}
	if len(group) == 0 {
		return
	}
	data, err := compositor.Compose(group)
	if err != nil {
		log.Warn("copy failed", zap.Error(err))
		return
	}
	if err := clipboard.WritePNG(data); err != nil {
		log.Warn("clipboard write failed", zap.Error(err))
		return
	}
	r.notifier.Copy(detail)
}

// saveScene writes the rendered canvas to a timestamped PNG under the save
// directory.
func saveScene(store *scene.Store, renderer *render.Renderer, width, height int, r *root, log *zap.Logger) {
	if width <= 0 || height <= 0 {
		return
	}
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	renderer.Render(frame, store, render.Overlay{})

	dir := r.saveDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, fmt.Sprintf("inkdeck-%s.png", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		log.Warn("save failed", zap.Error(err))
		return
	}
	defer f.Close()
	if err := png.Encode(f, frame); err != nil {
		log.Warn("save failed", zap.Error(err))
		return
	}
	r.notifier.Save(path)
}

// pasteImage inserts a clipboard PNG as an image object at the canvas
// center, scaled down so its longer side does not exceed maxSize.
func pasteImage(store *scene.Store, hist *history.History, maxSize float64, width, height int, log *zap.Logger) {
	data, err := clipboard.ReadPNG()
	if err != nil {
		log.Debug("paste unavailable", zap.Error(err))
		return
	}
	cfgImg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Warn("paste failed", zap.Error(err))
		return
	}
	pw, ph := float64(cfgImg.Width), float64(cfgImg.Height)
	longer := pw
	if ph > longer {
		longer = ph
	}
	if longer > maxSize {
		scale := maxSize / longer
		pw *= scale
		ph *= scale
	}
	obj := scene.NewImageObject(geom.Point{X: float64(width) / 2, Y: float64(height) / 2}, pw, ph)
	obj.Bytes = data
	store.Append(obj)
	hist.Push(store.Snapshot())
}
