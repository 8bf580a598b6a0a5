// Package geom provides the canvas-space value types and the small set of
// pure geometric queries the editor core is built on.
package geom

import "math"

// Point is a canvas-space coordinate. Value type, no identity.
type Point struct {
	X, Y float64
}

// Add returns p translated by d.
func (p Point) Add(d Point) Point {
	return Point{p.X + d.X, p.Y + d.Y}
}

// Sub returns the delta from q to p.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Scale returns p multiplied componentwise by f.
func (p Point) Scale(f float64) Point {
	return Point{p.X * f, p.Y * f}
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width reports the horizontal extent of b.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height reports the vertical extent of b.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of b.
func (b Bounds) Center() Point {
	return Point{(b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2}
}

// Contains reports whether p lies within b, edges inclusive.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Inset shrinks b by d on every side. Negative d grows it.
func (b Bounds) Inset(d float64) Bounds {
	return Bounds{b.MinX + d, b.MinY + d, b.MaxX - d, b.MaxY - d}
}

// BoundsAround builds a box from a center point and half extents.
func BoundsAround(center Point, halfW, halfH float64) Bounds {
	return Bounds{center.X - halfW, center.Y - halfH, center.X + halfW, center.Y + halfH}
}

// BoundsOfPoints computes the tight bounding box over pts. The zero Bounds is
// returned for an empty slice.
func BoundsOfPoints(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{pts[0].X, pts[0].Y, pts[0].X, pts[0].Y}
	for _, p := range pts[1:] {
		if p.X < b.MinX {
			b.MinX = p.X
		}
		if p.X > b.MaxX {
			b.MaxX = p.X
		}
		if p.Y < b.MinY {
			b.MinY = p.Y
		}
		if p.Y > b.MaxY {
			b.MaxY = p.Y
		}
	}
	return b
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PointInPolygon reports whether p lies inside polygon using even-odd ray
// casting. The polygon is treated as implicitly closed: the last vertex
// connects back to the first. Fewer than three vertices never contain
// anything.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
