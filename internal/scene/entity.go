// Package scene holds the ordered collection of drawable entities and the
// selection queries the gesture engine runs against it.
package scene

import (
	"github.com/google/uuid"

	"github.com/example/inkdeck/internal/geom"
)

// Kind discriminates the closed set of entity variants.
type Kind int

const (
	KindStroke Kind = iota
	KindImage
	KindSmart
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStroke:
		return "stroke"
	case KindImage:
		return "image"
	case KindSmart:
		return "smart"
	}
	return "unknown"
}

// Action is a built-in behavior a smart object can carry. Dropping a drag
// group onto a smart object with a non-none action executes it against the
// group.
type Action int

const (
	ActionNone Action = iota
	ActionDelete
	ActionReflect
	ActionEnlarge
)

// String returns the lowercase name of the action.
func (a Action) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	case ActionReflect:
		return "reflect"
	case ActionEnlarge:
		return "enlarge"
	}
	return "none"
}

// ParseAction maps a classification string onto an Action. Unknown values
// default to ActionNone.
func ParseAction(s string) Action {
	switch s {
	case "delete":
		return ActionDelete
	case "reflect":
		return ActionReflect
	case "enlarge":
		return ActionEnlarge
	}
	return ActionNone
}

// Entity is the union of the three drawable kinds. Position in the store's
// list defines z-order; the ID is the stable handle that survives reordering
// and asynchronous completions.
type Entity interface {
	ID() uuid.UUID
	Kind() Kind
	Selected() bool
	SetSelected(bool)
	Bounds() geom.Bounds
	Translate(delta geom.Point)
	Clone() Entity
}

// ImagePadding is the outer border, in canvas units, added around an image
// object's rendered rectangle. Hit-testing and bounds include it.
const ImagePadding = 10

// SmartRadius is the fixed hit radius of a smart object.
const SmartRadius = 40

// DefaultPressure substitutes for missing or out-of-range pressure samples.
const DefaultPressure = 0.5

type meta struct {
	id       uuid.UUID
	selected bool
}

func newMeta() meta { return meta{id: uuid.New()} }

func (m *meta) ID() uuid.UUID      { return m.id }
func (m *meta) Selected() bool     { return m.selected }
func (m *meta) SetSelected(v bool) { m.selected = v }

// Stroke is a single continuous ink path. Points, Pressures and Tilts are
// parallel slices; every mutation path keeps them the same length.
type Stroke struct {
	meta
	Points    []geom.Point
	Pressures []float64
	Tilts     []geom.Point
}

// NewStroke starts a stroke at p.
func NewStroke(p geom.Point, pressure float64, tilt geom.Point) *Stroke {
	s := &Stroke{meta: newMeta()}
	s.Append(p, pressure, tilt)
	return s
}

// Append adds one sample to the stroke. Pressure outside (0, 1] is replaced
// with DefaultPressure so malformed input degrades instead of rejecting.
func (s *Stroke) Append(p geom.Point, pressure float64, tilt geom.Point) {
	if pressure <= 0 || pressure > 1 {
		pressure = DefaultPressure
	}
	s.Points = append(s.Points, p)
	s.Pressures = append(s.Pressures, pressure)
	s.Tilts = append(s.Tilts, tilt)
}

// Kind reports KindStroke.
func (s *Stroke) Kind() Kind { return KindStroke }

// Bounds is the tight box over all stroke points.
func (s *Stroke) Bounds() geom.Bounds { return geom.BoundsOfPoints(s.Points) }

// Translate shifts every point by delta.
func (s *Stroke) Translate(delta geom.Point) {
	for i := range s.Points {
		s.Points[i] = s.Points[i].Add(delta)
	}
}

// ScaleAbout scales every point around center by factor.
func (s *Stroke) ScaleAbout(center geom.Point, factor float64) {
	for i := range s.Points {
		d := s.Points[i].Sub(center)
		s.Points[i] = geom.Point{X: center.X + d.X*factor, Y: center.Y + d.Y*factor}
	}
}

// Clone deep-copies the stroke, keeping its ID.
func (s *Stroke) Clone() Entity {
	c := &Stroke{
		meta:      s.meta,
		Points:    append([]geom.Point(nil), s.Points...),
		Pressures: append([]float64(nil), s.Pressures...),
		Tilts:     append([]geom.Point(nil), s.Tilts...),
	}
	return c
}

// ImageObject is a rectangular raster asset centered at Center. Bytes is nil
// while a generation is pending; Generating gates the placeholder pulse
// animation.
type ImageObject struct {
	meta
	Center       geom.Point
	Width        float64
	Height       float64
	Bytes        []byte
	Generating   bool
	CurrentFrame int
}

// NewImageObject places an image object at center with the given extent.
func NewImageObject(center geom.Point, width, height float64) *ImageObject {
	return &ImageObject{meta: newMeta(), Center: center, Width: width, Height: height}
}

// NewPlaceholder creates a pending image object: no bytes yet, animating.
func NewPlaceholder(center geom.Point, width, height float64) *ImageObject {
	o := NewImageObject(center, width, height)
	o.Generating = true
	return o
}

// Kind reports KindImage.
func (o *ImageObject) Kind() Kind { return KindImage }

// Bounds is the rendered rectangle expanded by the border padding.
func (o *ImageObject) Bounds() geom.Bounds {
	return geom.BoundsAround(o.Center, o.Width/2+ImagePadding, o.Height/2+ImagePadding)
}

// Translate moves the center by delta.
func (o *ImageObject) Translate(delta geom.Point) { o.Center = o.Center.Add(delta) }

// Resize sets the extent, clamping each dimension to [min, max].
func (o *ImageObject) Resize(width, height, min, max float64) {
	o.Width = geom.Clamp(width, min, max)
	o.Height = geom.Clamp(height, min, max)
}

// Clone deep-copies the object, keeping its ID. Bytes are copied so a
// restored snapshot cannot alias a later in-place edit.
func (o *ImageObject) Clone() Entity {
	c := *o
	if o.Bytes != nil {
		c.Bytes = append([]byte(nil), o.Bytes...)
	}
	return &c
}

// SmartObject is a fixed-radius iconic entity substituted for a set of
// strokes after classification.
type SmartObject struct {
	meta
	Center   geom.Point
	Emoji    string
	Behavior string
	Action   Action
}

// NewSmartObject creates a smart object at center.
func NewSmartObject(center geom.Point, emoji, behavior string, action Action) *SmartObject {
	return &SmartObject{meta: newMeta(), Center: center, Emoji: emoji, Behavior: behavior, Action: action}
}

// Kind reports KindSmart.
func (o *SmartObject) Kind() Kind { return KindSmart }

// Bounds is the box around the fixed hit radius.
func (o *SmartObject) Bounds() geom.Bounds {
	return geom.BoundsAround(o.Center, SmartRadius, SmartRadius)
}

// Translate moves the center by delta.
func (o *SmartObject) Translate(delta geom.Point) { o.Center = o.Center.Add(delta) }

// Actionable reports whether dropping a group on this object triggers its
// bound action.
func (o *SmartObject) Actionable() bool { return o.Action != ActionNone }

// Clone copies the object, keeping its ID.
func (o *SmartObject) Clone() Entity {
	c := *o
	return &c
}
