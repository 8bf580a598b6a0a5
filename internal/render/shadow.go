package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Shadow tunables for decoded image objects. Placeholders stay flat until
// their bytes arrive.
const (
	shadowRadius  = 8
	shadowOffset  = 5
	shadowOpacity = 0.35
)

// drawShadow paints a soft drop shadow for rect into dst, offset toward the
// bottom right. The mask is a box-blurred rectangle, so the penumbra fades
// over shadowRadius pixels.
func drawShadow(dst *image.RGBA, rect image.Rectangle) {
	if rect.Empty() {
		return
	}
	mask := shadowMask(rect.Dx(), rect.Dy(), shadowRadius)
	origin := rect.Min.Add(image.Pt(shadowOffset-shadowRadius, shadowOffset-shadowRadius))
	alpha := uint8(math.Round(shadowOpacity * 255))
	draw.DrawMask(dst, mask.Bounds().Add(origin),
		image.NewUniform(color.RGBA{A: alpha}), image.Point{},
		mask, mask.Bounds().Min, draw.Over)
}

// shadowMask builds an opaque w by h rectangle padded by radius on every
// side, then blurs it so alpha falls off toward the padded edge.
func shadowMask(w, h, radius int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w+2*radius, h+2*radius))
	for y := 0; y < h; y++ {
		row := (y + radius) * mask.Stride
		for x := 0; x < w; x++ {
			mask.Pix[row+radius+x] = 0xff
		}
	}
	return blurGray(mask, radius)
}

// blurGray applies a separable box blur of the given radius using running
// prefix sums per row and column.
func blurGray(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		out := image.NewGray(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	tmp := image.NewGray(bounds)
	dst := image.NewGray(bounds)

	for y := 0; y < h; y++ {
		rowStart := y * src.Stride
		tmpStart := y * tmp.Stride
		prefix := make([]int, w+1)
		for x := 0; x < w; x++ {
			prefix[x+1] = prefix[x] + int(src.Pix[rowStart+x])
		}
		for x := 0; x < w; x++ {
			x0 := x - radius
			if x0 < 0 {
				x0 = 0
			}
			x1 := x + radius
			if x1 >= w {
				x1 = w - 1
			}
			sum := prefix[x1+1] - prefix[x0]
			tmp.Pix[tmpStart+x] = uint8(sum / (x1 - x0 + 1))
		}
	}

	for x := 0; x < w; x++ {
		prefix := make([]int, h+1)
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0 := y - radius
			if y0 < 0 {
				y0 = 0
			}
			y1 := y + radius
			if y1 >= h {
				y1 = h - 1
			}
			sum := prefix[y1+1] - prefix[y0]
			dst.Pix[y*dst.Stride+x] = uint8(sum / (y1 - y0 + 1))
		}
	}

	return dst
}
