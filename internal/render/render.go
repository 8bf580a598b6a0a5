// Package render draws the scene onto RGBA surfaces, composites selection
// groups into reference images for the generative pipeline, and steps the
// cooperative per-frame animations.
package render

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/scene"
	"github.com/example/inkdeck/internal/theme"
)

// DefaultMaxStrokeWidth is the pen width at full pressure, in pixels.
const DefaultMaxStrokeWidth = 8

// RingState describes the long-press progress ring overlay.
type RingState struct {
	Active   bool
	Center   geom.Point
	Fraction float64
}

// Overlay carries the transient gesture visuals drawn above the scene.
type Overlay struct {
	Lasso      []geom.Point
	LassoPhase int
	Ring       RingState
	CornerZone geom.Bounds
	ShowCorner bool
}

// Renderer draws the scene honoring the layer contract: image objects first,
// ink strokes second, smart objects as dedicated glyph circles, then the
// lasso outline, then the progress ring on top of everything.
type Renderer struct {
	theme          *theme.Theme
	maxStrokeWidth float64
	cache          map[uuid.UUID]*scaledImage
}

type scaledImage struct {
	srcLen int
	w, h   int
	img    *image.RGBA
}

// NewRenderer builds a renderer for the given theme. A nil theme falls back
// to the default palette.
func NewRenderer(t *theme.Theme, maxStrokeWidth float64) *Renderer {
	if t == nil {
		t = theme.Default()
	}
	if maxStrokeWidth <= 0 {
		maxStrokeWidth = DefaultMaxStrokeWidth
	}
	return &Renderer{
		theme:          t,
		maxStrokeWidth: maxStrokeWidth,
		cache:          map[uuid.UUID]*scaledImage{},
	}
}

// Render paints the full scene and overlay onto dst.
func (r *Renderer) Render(dst *image.RGBA, store *scene.Store, ov Overlay) {
	fillRect(dst, dst.Bounds(), r.theme.Background)

	if ov.ShowCorner {
		tintRect(dst, boundsToRect(ov.CornerZone), r.theme.CornerZone)
	}

	seen := map[uuid.UUID]bool{}

	// Background layer: image objects.
	for _, e := range store.All() {
		if img, ok := e.(*scene.ImageObject); ok {
			seen[img.ID()] = true
			r.drawImageObject(dst, img)
		}
	}
	// Foreground layer: ink.
	for _, e := range store.All() {
		if s, ok := e.(*scene.Stroke); ok {
			r.drawStroke(dst, s)
		}
	}
	// Smart objects use dedicated glyph circles instead of layering with
	// images.
	for _, e := range store.All() {
		if sm, ok := e.(*scene.SmartObject); ok {
			r.drawSmartObject(dst, sm)
		}
	}

	if len(ov.Lasso) >= 2 {
		r.drawLasso(dst, ov.Lasso, ov.LassoPhase)
	}
	if ov.Ring.Active {
		drawArc(dst, int(ov.Ring.Center.X), int(ov.Ring.Center.Y), 28, r.theme.ProgressRing, 4, ov.Ring.Fraction)
	}

	// Drop cache entries for image objects no longer in the scene.
	for id := range r.cache {
		if !seen[id] {
			delete(r.cache, id)
		}
	}
}

func (r *Renderer) drawStroke(dst *image.RGBA, s *scene.Stroke) {
	if len(s.Points) == 0 {
		return
	}
	if s.Selected() {
		r.drawStrokePath(dst, s, r.theme.SelectionGlow, 4)
	}
	r.drawStrokePath(dst, s, r.theme.Ink, 0)
}

func (r *Renderer) drawStrokePath(dst *image.RGBA, s *scene.Stroke, col color.Color, extra int) {
	if len(s.Points) == 1 {
		w := r.strokeWidth(s.Pressures[0]) + extra
		setThickPixel(dst, int(s.Points[0].X), int(s.Points[0].Y), w, col)
		return
	}
	for i := 1; i < len(s.Points); i++ {
		a, b := s.Points[i-1], s.Points[i]
		w := r.strokeWidth(s.Pressures[i]) + extra
		drawLine(dst, int(a.X), int(a.Y), int(b.X), int(b.Y), col, w)
	}
}

func (r *Renderer) strokeWidth(pressure float64) int {
	w := int(math.Round(pressure * r.maxStrokeWidth))
	if w < 1 {
		w = 1
	}
	return w
}

func (r *Renderer) drawImageObject(dst *image.RGBA, o *scene.ImageObject) {
	rect := image.Rect(
		int(o.Center.X-o.Width/2), int(o.Center.Y-o.Height/2),
		int(o.Center.X+o.Width/2), int(o.Center.Y+o.Height/2))

	if o.Generating || o.Bytes == nil {
		fillRect(dst, rect, r.theme.PlaceholderFill)
		// The pulse crawls with the entity's frame counter.
		drawDashedRect(dst, rect, r.theme.PlaceholderPulse, 2, 6, o.CurrentFrame)
		return
	}

	if scaled := r.scaled(o); scaled != nil {
		drawShadow(dst, rect)
		xdraw.Draw(dst, rect, scaled, image.Point{}, xdraw.Over)
	} else {
		fillRect(dst, rect, r.theme.PlaceholderFill)
	}
	drawRectOutline(dst, rect.Inset(-scene.ImagePadding/2), r.theme.ImageBorder, 1)
}

// scaled returns o's decoded bytes rescaled to its current extent, cached
// until the bytes or extent change.
func (r *Renderer) scaled(o *scene.ImageObject) *image.RGBA {
	w, h := int(o.Width), int(o.Height)
	if w < 1 || h < 1 {
		return nil
	}
	if c, ok := r.cache[o.ID()]; ok && c.srcLen == len(o.Bytes) && c.w == w && c.h == h {
		return c.img
	}
	src, _, err := image.Decode(bytes.NewReader(o.Bytes))
	if err != nil {
		return nil
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	r.cache[o.ID()] = &scaledImage{srcLen: len(o.Bytes), w: w, h: h, img: out}
	return out
}

func (r *Renderer) drawSmartObject(dst *image.RGBA, o *scene.SmartObject) {
	cx, cy := int(o.Center.X), int(o.Center.Y)
	drawFilledCircle(dst, cx, cy, scene.SmartRadius, r.theme.SmartFill)
	ringWidth := 2
	if o.Selected() {
		drawCircle(dst, cx, cy, scene.SmartRadius+3, r.theme.SelectionGlow, 3)
		ringWidth = 3
	}
	drawCircle(dst, cx, cy, scene.SmartRadius, r.theme.SmartRing, ringWidth)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.theme.SmartText),
		Face: basicfont.Face7x13,
	}
	label := o.Emoji
	w := d.MeasureString(label).Ceil()
	d.Dot = fixed.P(cx-w/2, cy+4)
	d.DrawString(label)
}

func (r *Renderer) drawLasso(dst *image.RGBA, path []geom.Point, phase int) {
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		drawDashedLine(dst, int(a.X), int(a.Y), int(b.X), int(b.Y), r.theme.LassoOutline, 1, 5, phase)
	}
}

func fillRect(dst *image.RGBA, rect image.Rectangle, col color.Color) {
	xdraw.Draw(dst, rect, image.NewUniform(col), image.Point{}, xdraw.Src)
}

func tintRect(dst *image.RGBA, rect image.Rectangle, col color.Color) {
	xdraw.Draw(dst, rect, image.NewUniform(col), image.Point{}, xdraw.Over)
}

func boundsToRect(b geom.Bounds) image.Rectangle {
	return image.Rect(int(b.MinX), int(b.MinY), int(b.MaxX), int(b.MaxY))
}
