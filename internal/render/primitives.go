package render

import (
	"image"
	"image/color"
	"math"
)

func setThickPixel(img *image.RGBA, x, y, thick int, col color.Color) {
	r := thick / 2
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			px := x + dx
			py := y + dy
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick int) {
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		setThickPixel(img, x0, y0, thick, col)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// drawDashedLine walks the segment like drawLine but only paints alternating
// runs of dashLen pixels. phase offsets the pattern so animated outlines can
// crawl.
func drawDashedLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color, thick, dashLen, phase int) {
	if dashLen < 1 {
		dashLen = 1
	}
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	step := phase
	for {
		if (step/dashLen)%2 == 0 {
			setThickPixel(img, x0, y0, thick, col)
		}
		step++
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawCircleThin(img *image.RGBA, cx, cy, r int, col color.Color) {
	x := r
	y := 0
	err := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			px := cx + p[0]
			py := cy + p[1]
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, col)
			}
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

func drawCircle(img *image.RGBA, cx, cy, r int, col color.Color, thick int) {
	if thick <= 0 {
		drawCircleThin(img, cx, cy, r, col)
		return
	}
	start := -thick / 2
	for i := 0; i < thick; i++ {
		rr := r + start + i
		if rr >= 0 {
			drawCircleThin(img, cx, cy, rr, col)
		}
	}
}

func drawFilledCircle(img *image.RGBA, cx, cy, r int, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				px := cx + dx
				py := cy + dy
				if image.Pt(px, py).In(img.Bounds()) {
					img.Set(px, py, col)
				}
			}
		}
	}
}

// drawArc paints the fraction [0, 1] of a circle clockwise from twelve
// o'clock. The long-press progress ring uses it.
func drawArc(img *image.RGBA, cx, cy, r int, col color.Color, thick int, fraction float64) {
	if fraction <= 0 {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	steps := int(math.Ceil(2 * math.Pi * float64(r)))
	if steps < 16 {
		steps = 16
	}
	end := int(float64(steps) * fraction)
	for i := 0; i <= end; i++ {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(steps)
		x := cx + int(math.Cos(angle)*float64(r))
		y := cy + int(math.Sin(angle)*float64(r))
		setThickPixel(img, x, y, thick, col)
	}
}

func drawRectOutline(img *image.RGBA, rect image.Rectangle, col color.Color, thick int) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, col, thick)
	drawLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, col, thick)
	drawLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, col, thick)
	drawLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, col, thick)
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, col color.Color, thick, dashLen, phase int) {
	drawDashedLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, col, thick, dashLen, phase)
	drawDashedLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, col, thick, dashLen, phase)
	drawDashedLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, col, thick, dashLen, phase)
	drawDashedLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, col, thick, dashLen, phase)
}
