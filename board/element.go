package board

import (
	"fmt"
	"math"
)

// ElementType names the kind of a canvas node. The type decides which
// geometric fields an element may carry.
type ElementType string

const (
	TypeRect    ElementType = "rect"
	TypeEllipse ElementType = "ellipse"
	TypeText    ElementType = "text"
	TypeImage   ElementType = "image"
	TypeGroup   ElementType = "group"
	TypeArrow   ElementType = "arrow"
)

// IsArrowFamily reports whether elements of this type are described by
// points instead of a bounding rectangle.
func (t ElementType) IsArrowFamily() bool {
	return t == TypeArrow
}

// IsContainer reports whether elements of this type may hold children.
func (t ElementType) IsContainer() bool {
	return t == TypeGroup
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Rect is an axis-aligned rectangle in document units.
type Rect struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.Width && o.X <= r.X+r.Width &&
		r.Y <= o.Y+o.Height && o.Y <= r.Y+r.Height
}

func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

type Style struct {
	Fill    string  `yaml:"fill,omitempty"`
	Stroke  string  `yaml:"stroke,omitempty"`
	Opacity float64 `yaml:"opacity,omitempty"`
}

// Binding attaches an arrow endpoint to another element.
type Binding struct {
	ElementID string `yaml:"element_id"`
}

// Element is a node of the canvas tree.
//
// Rectangular types carry Bounds; arrow-family types carry Points (and
// optional endpoint bindings) and never Bounds. Children are only valid on
// container types.
type Element struct {
	ID       string      `yaml:"id"`
	Type     ElementType `yaml:"type"`
	Bounds   *Rect       `yaml:"bounds,omitempty"`
	Points   []Point     `yaml:"points,omitempty"`
	Start    *Binding    `yaml:"start,omitempty"`
	End      *Binding    `yaml:"end,omitempty"`
	Text     string      `yaml:"text,omitempty"`
	Style    Style       `yaml:"style,omitempty"`
	Children []*Element  `yaml:"children,omitempty"`
}

// Clone returns a deep copy of the element and its subtree.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	if e.Bounds != nil {
		b := *e.Bounds
		c.Bounds = &b
	}
	if e.Points != nil {
		c.Points = append([]Point(nil), e.Points...)
	}
	if e.Start != nil {
		s := *e.Start
		c.Start = &s
	}
	if e.End != nil {
		s := *e.End
		c.End = &s
	}
	if e.Children != nil {
		c.Children = cloneElements(e.Children)
	}
	return &c
}

func cloneElements(els []*Element) []*Element {
	if els == nil {
		return nil
	}
	out := make([]*Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return out
}

// BoundingBox returns the element's extent. Arrows report the box around
// their points; the second result is false when the element has no geometry.
func (e *Element) BoundingBox() (Rect, bool) {
	if e.Type.IsArrowFamily() {
		if len(e.Points) == 0 {
			return Rect{}, false
		}
		r := Rect{X: e.Points[0].X, Y: e.Points[0].Y}
		for _, p := range e.Points[1:] {
			r = r.Union(Rect{X: p.X, Y: p.Y})
		}
		return r, true
	}
	if e.Bounds == nil {
		return Rect{}, false
	}
	return *e.Bounds, true
}

// validGeometry checks the type invariant for a single element (not its
// subtree).
func (e *Element) validGeometry() bool {
	if e.Type.IsArrowFamily() {
		return e.Bounds == nil
	}
	if len(e.Points) > 0 || e.Start != nil || e.End != nil {
		return false
	}
	return len(e.Children) == 0 || e.Type.IsContainer()
}

// ValidateTree checks a loaded tree: every element satisfies its type's
// geometry invariant and ids are unique.
func ValidateTree(els []*Element) error {
	seen := map[string]bool{}
	var check func([]*Element) error
	check = func(children []*Element) error {
		for _, el := range children {
			if el == nil || el.ID == "" {
				return fmt.Errorf("%w: element without id", ErrMalformedOperation)
			}
			if !el.validGeometry() {
				return fmt.Errorf("%w: invalid geometry for %s element %s", ErrMalformedOperation, el.Type, el.ID)
			}
			if seen[el.ID] {
				return fmt.Errorf("%w: duplicate id %s", ErrMalformedOperation, el.ID)
			}
			seen[el.ID] = true
			if err := check(el.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return check(els)
}
