package board

import "math"

// Geometry returns the element's current geometric properties: bounds for
// rectangular types, points for arrows.
func Geometry(el *Element) Properties {
	if el.Type.IsArrowFamily() {
		return Properties{Points: append([]Point{}, el.Points...)}
	}
	if el.Bounds == nil {
		return Properties{}
	}
	b := *el.Bounds
	return Properties{Bounds: &b}
}

// Translate returns the geometry of el moved by (dx, dy). Arrows move their
// points; every other type moves its bounds. The result never mixes the two.
func Translate(el *Element, dx, dy float64) Properties {
	if el.Type.IsArrowFamily() {
		pts := make([]Point, len(el.Points))
		for i, p := range el.Points {
			pts[i] = p.Add(dx, dy)
		}
		return Properties{Points: pts}
	}
	if el.Bounds == nil {
		return Properties{}
	}
	r := el.Bounds.Translate(dx, dy)
	return Properties{Bounds: &r}
}

// TranslateOps returns set_node operations that move el, found at path p,
// and its whole subtree by (dx, dy).
func TranslateOps(el *Element, p Path, dx, dy float64) []Operation {
	var ops []Operation
	if next := Translate(el, dx, dy); !next.empty() {
		ops = append(ops, SetNode(p, Geometry(el), next))
	}
	for i, child := range el.Children {
		ops = append(ops, TranslateOps(child, append(p.clone(), i), dx, dy)...)
	}
	return ops
}

// TopmostIDs drops every id that has an ancestor in the same set, so a group
// and its child are never translated twice. Ids not in the tree are dropped.
func TopmostIDs(b *Board, ids []string) []string {
	paths := make([]Path, 0, len(ids))
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		p, ok := pathForID(b.doc.children, id)
		if !ok {
			continue
		}
		paths = append(paths, p)
		kept = append(kept, id)
	}
	var out []string
	for i, p := range paths {
		nested := false
		for j, q := range paths {
			if i != j && q.IsAncestorOf(p) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, kept[i])
		}
	}
	return out
}

// NearestEdgePoint returns the point on r's border closest to p.
func NearestEdgePoint(r Rect, p Point) Point {
	cx := math.Max(r.X, math.Min(p.X, r.X+r.Width))
	cy := math.Max(r.Y, math.Min(p.Y, r.Y+r.Height))

	best := Point{X: r.X, Y: cy}
	minDist := math.Abs(p.X - r.X)
	if d := math.Abs(p.X - (r.X + r.Width)); d < minDist {
		minDist = d
		best = Point{X: r.X + r.Width, Y: cy}
	}
	if d := math.Abs(p.Y - r.Y); d < minDist {
		minDist = d
		best = Point{X: cx, Y: r.Y}
	}
	if d := math.Abs(p.Y - (r.Y + r.Height)); d < minDist {
		best = Point{X: cx, Y: r.Y + r.Height}
	}
	return best
}

// ConnectionPoints returns arrow endpoints between two rectangles, leaving
// from the sides that face each other along the dominant axis.
func ConnectionPoints(from, to Rect) (Point, Point) {
	fc, tc := from.Center(), to.Center()
	if math.Abs(fc.X-tc.X) > math.Abs(fc.Y-tc.Y) {
		if fc.X < tc.X {
			return Point{X: from.X + from.Width, Y: fc.Y}, Point{X: to.X, Y: tc.Y}
		}
		return Point{X: from.X, Y: fc.Y}, Point{X: to.X + to.Width, Y: tc.Y}
	}
	if fc.Y < tc.Y {
		return Point{X: fc.X, Y: from.Y + from.Height}, Point{X: tc.X, Y: to.Y}
	}
	return Point{X: fc.X, Y: from.Y}, Point{X: tc.X, Y: to.Y + to.Height}
}

// BoundArrows returns the arrows with an endpoint bound to id, with their
// paths.
func (b *Board) BoundArrows(id string) []Hit {
	var out []Hit
	b.Walk(func(el *Element, p Path) bool {
		if el.Type.IsArrowFamily() &&
			((el.Start != nil && el.Start.ElementID == id) || (el.End != nil && el.End.ElementID == id)) {
			out = append(out, Hit{Element: el, Path: p})
		}
		return true
	})
	return out
}
