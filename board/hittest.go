package board

import "math"

// Hit is the result of a hit test.
type Hit struct {
	Element *Element
	Path    Path
}

// HitTest finds the topmost element under p. Children paint above their
// parent and later siblings above earlier ones, so the last match in paint
// order wins. tolerance widens the hit area of arrows, in document units.
func (b *Board) HitTest(p Point, tolerance float64, exclude ...string) (Hit, bool) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var found Hit
	hit := false
	b.Walk(func(el *Element, path Path) bool {
		if skip[el.ID] {
			return false
		}
		if containsPoint(el, p, tolerance) {
			found = Hit{Element: el, Path: path}
			hit = true
		}
		return true
	})
	return found, hit
}

// HitTestTop is HitTest resolved to the top-level element containing the
// hit, which is what a click on a grouped shape addresses.
func (b *Board) HitTestTop(p Point, tolerance float64, exclude ...string) (Hit, bool) {
	h, ok := b.HitTest(p, tolerance, exclude...)
	if !ok || len(h.Path) == 1 {
		return h, ok
	}
	top, _ := nodeAt(b.doc.children, h.Path[:1])
	return Hit{Element: top, Path: Path{h.Path[0]}}, true
}

// ElementsIn returns the top-level elements whose extent intersects r.
func (b *Board) ElementsIn(r Rect) []*Element {
	var out []*Element
	for _, el := range b.doc.children {
		box, ok := el.BoundingBox()
		if ok && r.Intersects(box) {
			out = append(out, el)
		}
	}
	return out
}

func containsPoint(el *Element, p Point, tolerance float64) bool {
	if el.Type.IsArrowFamily() {
		for i := 0; i+1 < len(el.Points); i++ {
			if distToSegment(p, el.Points[i], el.Points[i+1]) <= tolerance {
				return true
			}
		}
		return false
	}
	if el.Bounds == nil {
		return false
	}
	if el.Type == TypeEllipse {
		return inEllipse(*el.Bounds, p)
	}
	return el.Bounds.Contains(p)
}

func inEllipse(r Rect, p Point) bool {
	if r.IsEmpty() {
		return false
	}
	c := r.Center()
	rx, ry := r.Width/2, r.Height/2
	dx, dy := (p.X-c.X)/rx, (p.Y-c.Y)/ry
	return dx*dx+dy*dy <= 1
}

func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
