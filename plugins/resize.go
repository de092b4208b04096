package plugins

import (
	"math"

	"flermboard/board"
	"flermboard/refline"
)

// Resize drags the bottom-right corner of a single selected shape. The
// corner snaps to the edges of other shapes, and arrows bound to the shape
// keep their endpoints on its border.
type Resize struct {
	opts Options
	ref  *refline.RefLine
	g    gesture

	path   board.Path
	orig   *board.Element
	arrows []board.Hit
	bounds board.Rect
	guides []refline.GuideLine
}

func NewResize(opts Options) *Resize {
	return &Resize{opts: opts, ref: refline.New()}
}

func (r *Resize) Name() string { return "resize" }

func (r *Resize) Guides() []refline.GuideLine {
	return r.guides
}

func (r *Resize) OnPointerDown(e board.PointerEvent, b *board.Board) bool {
	if b.Tool() != board.ToolSelect || e.Button != board.ButtonLeft {
		return false
	}
	sel := b.Selection()
	if len(sel.IDs) != 1 {
		return false
	}
	el, ok := b.Find(sel.IDs[0])
	if !ok || el.Type.IsArrowFamily() || el.Type.IsContainer() || el.Bounds == nil {
		return false
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return false
	}
	corner := board.Point{X: el.Bounds.X + el.Bounds.Width, Y: el.Bounds.Y + el.Bounds.Height}
	tol := docTolerance(b, r.opts.HitTolerance)
	if math.Abs(p.X-corner.X) > tol || math.Abs(p.Y-corner.Y) > tol {
		return false
	}
	path, _ := board.PathForID(b, el.ID)

	r.g.begin(e, p)
	r.path = path
	r.orig = el.Clone()
	r.bounds = *el.Bounds
	for _, h := range b.BoundArrows(el.ID) {
		r.arrows = append(r.arrows, board.Hit{Element: h.Element.Clone(), Path: h.Path})
	}
	r.ref.SetStaticRects(staticRects(b, map[string]bool{el.ID: true}))
	return true
}

func (r *Resize) OnPointerMove(e board.PointerEvent, b *board.Board) {
	if !r.g.active || !r.g.track(e, r.opts.DragThreshold) {
		return
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return
	}
	r.bounds = r.resized(e, b, p)
	if err := b.Apply(r.ops(b), false); err != nil {
		b.Logger().Warn("resize preview rejected", "error", err)
		return
	}
	b.Emit(board.Event{Name: board.EventElementResize, IDs: []string{r.orig.ID}, Data: r.bounds})
}

// resized returns the shape's bounds with the corner dragged to p, snapped
// and clamped to the minimum size.
func (r *Resize) resized(e board.PointerEvent, b *board.Board, p board.Point) board.Rect {
	start := board.Point{X: r.orig.Bounds.X + r.orig.Bounds.Width, Y: r.orig.Bounds.Y + r.orig.Bounds.Height}
	corner := start.Add(p.X-r.g.start.X, p.Y-r.g.start.Y)

	r.ref.SetScale(b.Viewport().Zoom)
	r.ref.SetCurrentRects([]refline.Rect{{Key: r.orig.ID, X: corner.X, Y: corner.Y}})
	res := r.ref.GetUpdateCurrent(r.opts.Snap && !e.SnapDisabled(), r.opts.SnapTolerance)
	r.guides = res.Lines
	corner = board.Point{X: res.Rects[0].X, Y: res.Rects[0].Y}

	out := *r.orig.Bounds
	out.Width = math.Max(corner.X-out.X, r.opts.MinSize)
	out.Height = math.Max(corner.Y-out.Y, r.opts.MinSize)
	return out
}

func (r *Resize) ops(b *board.Board) []board.Operation {
	return resizeOps(b, r.path, r.orig, r.arrows, r.bounds)
}

// resizeOps sets orig's bounds and keeps the endpoints of arrows bound to it
// on its new border, facing each arrow's other end.
func resizeOps(b *board.Board, path board.Path, orig *board.Element, arrows []board.Hit, bounds board.Rect) []board.Operation {
	ops := []board.Operation{
		board.SetNode(path, board.Geometry(orig), board.Properties{Bounds: &bounds}),
	}
	endpoint := func(other *board.Binding, otherPt board.Point) board.Point {
		if other != nil && other.ElementID != orig.ID {
			if el, ok := b.Find(other.ElementID); ok && el.Bounds != nil {
				otherPt = el.Bounds.Center()
			}
		}
		return board.NearestEdgePoint(bounds, otherPt)
	}
	for _, h := range arrows {
		a := h.Element
		if len(a.Points) < 2 {
			continue
		}
		pts := append([]board.Point(nil), a.Points...)
		if a.Start != nil && a.Start.ElementID == orig.ID {
			pts[0] = endpoint(a.End, pts[len(pts)-1])
		}
		if a.End != nil && a.End.ElementID == orig.ID {
			pts[len(pts)-1] = endpoint(a.Start, pts[0])
		}
		ops = append(ops, board.SetNode(h.Path, board.Geometry(a), board.Properties{Points: pts}))
	}
	return ops
}

func (r *Resize) OnPointerUp(e board.PointerEvent, b *board.Board) {
	id := r.orig.ID
	moved := r.g.dragging
	if moved {
		if err := b.Apply(r.ops(b), true); err != nil {
			b.Logger().Warn("resize commit rejected", "error", err)
			b.CancelPreview()
		}
	}
	r.reset()
	b.Emit(board.Event{Name: board.EventElementResizeEnd, IDs: []string{id}, Commit: moved})
}

func (r *Resize) reset() {
	r.g.reset()
	r.ref.Reset()
	r.path = nil
	r.orig = nil
	r.arrows = nil
	r.bounds = board.Rect{}
	r.guides = nil
}
