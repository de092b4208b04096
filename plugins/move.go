package plugins

import (
	"flermboard/board"
	"flermboard/refline"
)

type moveTarget struct {
	path board.Path
	orig *board.Element
}

// boundArrow is an arrow outside the move set with an endpoint attached to
// a moving element. Only the attached endpoints follow the move.
type boundArrow struct {
	path      board.Path
	orig      *board.Element
	moveStart bool
	moveEnd   bool
}

// Move drags elements. A press on a selected element moves the whole
// selection; a press on any other element moves only that element and hides
// the selection for the duration of the drag.
type Move struct {
	opts Options
	ref  *refline.RefLine
	g    gesture

	hitID             string
	startedOnSelected bool
	targets           []moveTarget
	arrows            []boundArrow
	offset            board.Point
	guides            []refline.GuideLine
}

func NewMove(opts Options) *Move {
	return &Move{opts: opts, ref: refline.New()}
}

func (m *Move) Name() string { return "move" }

// Guides returns the alignment lines of the current drag.
func (m *Move) Guides() []refline.GuideLine {
	return m.guides
}

func (m *Move) OnPointerDown(e board.PointerEvent, b *board.Board) bool {
	if b.Tool() != board.ToolSelect || e.Button != board.ButtonLeft {
		return false
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return false
	}
	hit, ok := b.HitTestTop(p, docTolerance(b, m.opts.HitTolerance))
	if !ok {
		return false
	}

	sel := b.Selection()
	ids := []string{hit.Element.ID}
	onSelected := sel.Contains(hit.Element.ID)
	if onSelected {
		ids = sel.IDs
	}
	ids = board.TopmostIDs(b, ids)

	moving := map[string]bool{}
	targets := make([]moveTarget, 0, len(ids))
	for _, id := range ids {
		path, ok := board.PathForID(b, id)
		if !ok {
			continue
		}
		el, _ := board.NodeAt(b, path)
		targets = append(targets, moveTarget{path: path, orig: el.Clone()})
		markSubtree(el, moving)
	}
	if len(targets) == 0 {
		return false
	}

	m.g.begin(e, p)
	m.hitID = hit.Element.ID
	m.startedOnSelected = onSelected
	m.targets = targets
	m.arrows = boundArrows(b, moving)
	m.ref.SetStaticRects(staticRects(b, moving))
	return true
}

func (m *Move) OnPointerMove(e board.PointerEvent, b *board.Board) {
	if !m.g.active || !m.g.track(e, m.opts.DragThreshold) {
		return
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return
	}
	m.offset = m.snap(e, b, p.Sub(m.g.start))

	ops := m.ops()
	if !m.startedOnSelected {
		ops = append(ops, board.SetSelection(b.Selection(), board.Selection{}))
	}
	if err := b.Apply(ops, false); err != nil {
		b.Logger().Warn("move preview rejected", "error", err)
		return
	}
	b.Emit(board.Event{Name: board.EventElementMove, IDs: m.ids(), Data: m.offset})
}

// snap feeds the translated rectangles to the alignment engine and returns
// the offset corrected by its snap delta.
func (m *Move) snap(e board.PointerEvent, b *board.Board, offset board.Point) board.Point {
	var current []refline.Rect
	for _, t := range m.targets {
		if t.orig.Type.IsArrowFamily() || t.orig.Bounds == nil {
			continue
		}
		current = append(current, toRefRect(t.orig.ID, t.orig.Bounds.Translate(offset.X, offset.Y)))
	}
	m.ref.SetScale(b.Viewport().Zoom)
	m.ref.SetCurrentRects(current)
	res := m.ref.GetUpdateCurrent(m.opts.Snap && !e.SnapDisabled(), m.opts.SnapTolerance)
	m.guides = res.Lines
	if len(current) == 0 {
		return offset
	}
	return board.Point{
		X: offset.X + res.Rects[0].X - current[0].X,
		Y: offset.Y + res.Rects[0].Y - current[0].Y,
	}
}

func (m *Move) OnPointerUp(e board.PointerEvent, b *board.Board) {
	ids := m.ids()
	moved := m.g.dragging
	if moved {
		ops := m.ops()
		if m.startedOnSelected {
			ops = append(ops, board.SetSelection(b.Selection(), board.NewSelection(ids...)))
		} else {
			ops = append(ops, board.SetSelection(b.Selection(), board.Selection{}))
		}
		if err := b.Apply(ops, true); err != nil {
			b.Logger().Warn("move commit rejected", "error", err)
			b.CancelPreview()
		}
	} else {
		m.click(e, b)
	}
	m.reset()
	b.Emit(board.Event{Name: board.EventElementMoveEnd, IDs: ids, Commit: moved})
}

// click selects the pressed element, or toggles it with Shift held.
func (m *Move) click(e board.PointerEvent, b *board.Board) {
	sel := b.Selection()
	next := board.NewSelection(m.hitID)
	if e.Has(board.ModShift) {
		next = sel.Toggle(m.hitID)
	}
	if next.Equal(sel) {
		return
	}
	if err := b.ApplyOne(board.SetSelection(sel, next), true); err != nil {
		b.Logger().Warn("selection rejected", "error", err)
	}
}

func (m *Move) reset() {
	m.g.reset()
	m.ref.Reset()
	m.hitID = ""
	m.startedOnSelected = false
	m.targets = nil
	m.arrows = nil
	m.offset = board.Point{}
	m.guides = nil
}

func (m *Move) ids() []string {
	ids := make([]string, len(m.targets))
	for i, t := range m.targets {
		ids[i] = t.orig.ID
	}
	return ids
}

// ops translates every target from its state at pointer-down, together
// with the endpoints of arrows bound to it.
func (m *Move) ops() []board.Operation {
	return translateOps(m.targets, m.arrows, m.offset.X, m.offset.Y)
}

func translateOps(targets []moveTarget, arrows []boundArrow, dx, dy float64) []board.Operation {
	var ops []board.Operation
	for _, t := range targets {
		ops = append(ops, board.TranslateOps(t.orig, t.path, dx, dy)...)
	}
	for _, a := range arrows {
		pts := append([]board.Point(nil), a.orig.Points...)
		if a.moveStart && len(pts) > 0 {
			pts[0] = pts[0].Add(dx, dy)
		}
		if a.moveEnd && len(pts) > 0 {
			pts[len(pts)-1] = pts[len(pts)-1].Add(dx, dy)
		}
		ops = append(ops, board.SetNode(a.path, board.Geometry(a.orig), board.Properties{Points: pts}))
	}
	return ops
}

func markSubtree(el *board.Element, set map[string]bool) {
	set[el.ID] = true
	for _, c := range el.Children {
		markSubtree(c, set)
	}
}

func boundArrows(b *board.Board, moving map[string]bool) []boundArrow {
	var out []boundArrow
	b.Walk(func(el *board.Element, p board.Path) bool {
		if moving[el.ID] || !el.Type.IsArrowFamily() {
			return !moving[el.ID]
		}
		a := boundArrow{path: p, orig: el.Clone()}
		a.moveStart = el.Start != nil && moving[el.Start.ElementID]
		a.moveEnd = el.End != nil && moving[el.End.ElementID]
		if a.moveStart || a.moveEnd {
			out = append(out, a)
		}
		return true
	})
	return out
}
