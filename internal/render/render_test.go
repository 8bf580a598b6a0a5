package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/scene"
	"github.com/example/inkdeck/internal/theme"
)

func encodePNG(t *testing.T, w, h int, col color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, col)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRenderPaintsStrokeOverBackground(t *testing.T) {
	st := scene.NewStore()
	s := scene.NewStroke(geom.Point{X: 10, Y: 10}, 1.0, geom.Point{})
	s.Append(geom.Point{X: 30, Y: 10}, 1.0, geom.Point{})
	st.Append(s)

	r := NewRenderer(theme.Default(), DefaultMaxStrokeWidth)
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r.Render(dst, st, Overlay{})

	if got := dst.RGBAAt(20, 10); got != theme.Default().Ink {
		t.Errorf("pixel on stroke = %+v, want ink color", got)
	}
	if got := dst.RGBAAt(50, 50); got != theme.Default().Background {
		t.Errorf("pixel off stroke = %+v, want background", got)
	}
}

func TestRenderImageBelowInk(t *testing.T) {
	st := scene.NewStore()
	img := scene.NewImageObject(geom.Point{X: 32, Y: 32}, 40, 40)
	img.Bytes = encodePNG(t, 4, 4, color.RGBA{0, 200, 0, 255})
	// Append the stroke first: list order puts it below, but the layer
	// contract still draws the image underneath the ink.
	s := scene.NewStroke(geom.Point{X: 22, Y: 32}, 1.0, geom.Point{})
	s.Append(geom.Point{X: 42, Y: 32}, 1.0, geom.Point{})
	st.Append(s)
	st.Append(img)

	r := NewRenderer(theme.Default(), DefaultMaxStrokeWidth)
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r.Render(dst, st, Overlay{})

	if got := dst.RGBAAt(32, 32); got != theme.Default().Ink {
		t.Errorf("ink must draw over the image layer, got %+v", got)
	}
	if got := dst.RGBAAt(32, 45); got.G < 150 || got.R > 60 {
		t.Errorf("image pixel not painted, got %+v", got)
	}
}

func TestRenderPlaceholderSkipsDecode(t *testing.T) {
	st := scene.NewStore()
	ph := scene.NewPlaceholder(geom.Point{X: 32, Y: 32}, 30, 30)
	st.Append(ph)

	r := NewRenderer(theme.Default(), DefaultMaxStrokeWidth)
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r.Render(dst, st, Overlay{})

	if got := dst.RGBAAt(32, 32); got != theme.Default().PlaceholderFill {
		t.Errorf("placeholder interior = %+v, want placeholder fill", got)
	}
}

func TestRenderProgressRingTopmost(t *testing.T) {
	st := scene.NewStore()
	img := scene.NewImageObject(geom.Point{X: 32, Y: 32}, 50, 50)
	img.Bytes = encodePNG(t, 4, 4, color.RGBA{200, 0, 0, 255})
	st.Append(img)

	r := NewRenderer(theme.Default(), DefaultMaxStrokeWidth)
	dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
	r.Render(dst, st, Overlay{
		Ring: RingState{Active: true, Center: geom.Point{X: 32, Y: 32}, Fraction: 1},
	})

	// Top of the ring, 28px above center.
	if got := dst.RGBAAt(32, 4); got != theme.Default().ProgressRing {
		t.Errorf("ring pixel = %+v, want progress ring color", got)
	}
}

func TestComposeGroupReferenceImage(t *testing.T) {
	s := scene.NewStroke(geom.Point{X: 100, Y: 100}, 0.8, geom.Point{})
	s.Append(geom.Point{X: 140, Y: 100}, 0.8, geom.Point{})

	c := NewCompositor(DefaultMaxStrokeWidth)
	data, err := c.Compose([]scene.Entity{s})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Compose output is not a PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < composeMinSide || b.Dy() < composeMinSide {
		t.Errorf("composed image too small: %v", b)
	}

	// White background in a corner inset from the border, black ink in the
	// middle row.
	rr, gg, bb, _ := img.At(3, 3).RGBA()
	if rr>>8 != 255 || gg>>8 != 255 || bb>>8 != 255 {
		t.Errorf("expected white background, got %v", img.At(3, 3))
	}
	foundInk := false
	for y := b.Min.Y; y < b.Max.Y && !foundInk; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r0, g0, b0, _ := img.At(x, y).RGBA()
			if r0 == 0 && g0 == 0 && b0 == 0 {
				foundInk = true
				break
			}
		}
	}
	if !foundInk {
		t.Error("no ink found in composed image")
	}
}

func TestComposeEmptyGroup(t *testing.T) {
	c := NewCompositor(DefaultMaxStrokeWidth)
	if _, err := c.Compose(nil); err == nil {
		t.Fatal("empty group must error")
	}
}

func TestAnimatorSelfTerminates(t *testing.T) {
	frames := 0
	a := NewAnimator(func() { frames++ })

	id := uuid.New()
	remaining := 3
	a.Add(id, func(time.Time) bool {
		remaining--
		return remaining > 0
	})

	now := time.Now()
	for i := 0; i < 5; i++ {
		a.Step(now)
	}
	if remaining != 0 {
		t.Errorf("task ran %d short", remaining)
	}
	if a.Active() {
		t.Error("animator still active after task finished")
	}
	// One frame requested by Add, plus one per step while the task stayed
	// live (steps 1 and 2 keep it, step 3 removes it).
	if frames != 3 {
		t.Errorf("redraw requested %d times, want 3", frames)
	}
}

func TestAnimatorCancel(t *testing.T) {
	a := NewAnimator(nil)
	id := uuid.New()
	ran := false
	a.Add(id, func(time.Time) bool { ran = true; return true })
	a.Cancel(id)
	a.Step(time.Now())
	if ran {
		t.Error("cancelled task must not run")
	}
	if a.Active() {
		t.Error("animator reports activity after cancel")
	}
}
