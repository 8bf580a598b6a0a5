package scene

import (
	"math"

	"github.com/example/inkdeck/internal/geom"
)

// HitTest resolves a screen point to the topmost entity under it, or nil.
// Strokes hit on vertex proximity within tolerance (not a segment-distance
// test), image objects on their padded rectangle, smart objects on their
// fixed radius.
func (s *Store) HitTest(p geom.Point, tolerance float64) Entity {
	for i := len(s.entities) - 1; i >= 0; i-- {
		if entityHit(s.entities[i], p, tolerance) {
			return s.entities[i]
		}
	}
	return nil
}

func entityHit(e Entity, p geom.Point, tolerance float64) bool {
	switch e := e.(type) {
	case *Stroke:
		for _, v := range e.Points {
			if geom.Distance(p, v) <= tolerance {
				return true
			}
		}
		return false
	case *ImageObject:
		return e.Bounds().Contains(p)
	case *SmartObject:
		return geom.Distance(p, e.Center) <= SmartRadius
	}
	return false
}

// ExpandToGroup grows a single hit into a drag group. The seed is always
// included; every other entity joins when either its bounds center lies
// within tolerance of the seed's, or (ink against ink) any point pair falls
// within tolerance. Pairwise scan; fine for a single sketch session.
func (s *Store) ExpandToGroup(seed Entity, tolerance float64) []Entity {
	if seed == nil {
		return nil
	}
	group := []Entity{seed}
	seedCenter := seed.Bounds().Center()
	seedStroke, seedIsStroke := seed.(*Stroke)
	for _, e := range s.entities {
		if e.ID() == seed.ID() {
			continue
		}
		if geom.Distance(seedCenter, e.Bounds().Center()) <= tolerance {
			group = append(group, e)
			continue
		}
		if other, ok := e.(*Stroke); ok && seedIsStroke {
			if minPointPairDistance(seedStroke.Points, other.Points) <= tolerance {
				group = append(group, e)
			}
		}
	}
	return group
}

// FindInLasso returns every entity captured by the lasso polygon: a stroke
// when any of its points is inside, an image or smart object when its center
// is. Partial overlap counts as full capture.
func (s *Store) FindInLasso(polygon []geom.Point) []Entity {
	if len(polygon) < 3 {
		return nil
	}
	var out []Entity
	for _, e := range s.entities {
		if entityInLasso(e, polygon) {
			out = append(out, e)
		}
	}
	return out
}

func entityInLasso(e Entity, polygon []geom.Point) bool {
	switch e := e.(type) {
	case *Stroke:
		for _, p := range e.Points {
			if geom.PointInPolygon(p, polygon) {
				return true
			}
		}
		return false
	case *ImageObject:
		return geom.PointInPolygon(e.Center, polygon)
	case *SmartObject:
		return geom.PointInPolygon(e.Center, polygon)
	}
	return false
}

func minPointPairDistance(a, b []geom.Point) float64 {
	min := math.Inf(1)
	for _, p := range a {
		for _, q := range b {
			if d := geom.Distance(p, q); d < min {
				min = d
			}
		}
	}
	return min
}
