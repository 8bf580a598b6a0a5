package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/example/inkdeck/internal/geom"
	"github.com/example/inkdeck/internal/scene"
)

// composeMargin is the whitespace kept around the captured group.
const composeMargin = 20

// composeMinSide guards against degenerate single-point captures.
const composeMinSide = 64

// Compositor rasterizes a captured entity group into the single reference
// image the generative backend consumes: white background, image entities as
// the background layer, ink on top at pressure-derived width, and a thin
// border.
type Compositor struct {
	MaxStrokeWidth float64
}

// NewCompositor returns a compositor with the given full-pressure pen width.
func NewCompositor(maxStrokeWidth float64) *Compositor {
	if maxStrokeWidth <= 0 {
		maxStrokeWidth = DefaultMaxStrokeWidth
	}
	return &Compositor{MaxStrokeWidth: maxStrokeWidth}
}

// Compose renders group to an encoded PNG.
func (c *Compositor) Compose(group []scene.Entity) ([]byte, error) {
	if len(group) == 0 {
		return nil, fmt.Errorf("compose: empty group")
	}

	b := groupBounds(group)
	w := int(b.Width()) + 2*composeMargin
	h := int(b.Height()) + 2*composeMargin
	if w < composeMinSide {
		w = composeMinSide
	}
	if h < composeMinSide {
		h = composeMinSide
	}
	offX := -b.MinX + composeMargin
	offY := -b.MinY + composeMargin

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	fillRect(dst, dst.Bounds(), color.White)

	// Background layer: image entities.
	for _, e := range group {
		o, ok := e.(*scene.ImageObject)
		if !ok || o.Bytes == nil {
			continue
		}
		src, _, err := image.Decode(bytes.NewReader(o.Bytes))
		if err != nil {
			continue
		}
		rect := image.Rect(
			int(o.Center.X-o.Width/2+offX), int(o.Center.Y-o.Height/2+offY),
			int(o.Center.X+o.Width/2+offX), int(o.Center.Y+o.Height/2+offY))
		xdraw.ApproxBiLinear.Scale(dst, rect, src, src.Bounds(), xdraw.Over, nil)
	}

	// Ink on top.
	for _, e := range group {
		s, ok := e.(*scene.Stroke)
		if !ok || len(s.Points) == 0 {
			continue
		}
		if len(s.Points) == 1 {
			setThickPixel(dst, int(s.Points[0].X+offX), int(s.Points[0].Y+offY),
				c.inkWidth(s.Pressures[0]), color.Black)
			continue
		}
		for i := 1; i < len(s.Points); i++ {
			a, q := s.Points[i-1], s.Points[i]
			drawLine(dst, int(a.X+offX), int(a.Y+offY), int(q.X+offX), int(q.Y+offY),
				color.Black, c.inkWidth(s.Pressures[i]))
		}
	}

	drawRectOutline(dst, image.Rect(0, 0, w-1, h-1), color.RGBA{60, 60, 60, 255}, 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("compose: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Compositor) inkWidth(pressure float64) int {
	w := int(pressure * c.MaxStrokeWidth)
	if w < 1 {
		w = 1
	}
	return w
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
