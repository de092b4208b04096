package plugins

import "flermboard/board"

// Connect draws an arrow with the arrow tool. An end that lands on a shape
// is bound to it and placed on the shape's border; an end over empty canvas
// stays free.
type Connect struct {
	opts Options
	g    gesture

	id    string
	path  board.Path
	start *board.Element
	arrow *board.Element
}

func NewConnect(opts Options) *Connect {
	return &Connect{opts: opts}
}

func (c *Connect) Name() string { return "connect" }

func (c *Connect) OnPointerDown(e board.PointerEvent, b *board.Board) bool {
	if b.Tool() != board.ToolArrow || e.Button != board.ButtonLeft {
		return false
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return false
	}
	c.g.begin(e, p)
	c.id = b.NewID()
	c.path = board.Path{len(b.Elements())}
	c.start = c.shapeAt(b, p)
	return true
}

// shapeAt returns the top-level shape under p an arrow end can bind to.
func (c *Connect) shapeAt(b *board.Board, p board.Point) *board.Element {
	hit, ok := b.HitTestTop(p, docTolerance(b, c.opts.HitTolerance), c.id)
	if !ok || hit.Element.Type.IsArrowFamily() || hit.Element.Bounds == nil {
		return nil
	}
	return hit.Element.Clone()
}

func (c *Connect) OnPointerMove(e board.PointerEvent, b *board.Board) {
	if !c.g.active || !c.g.track(e, c.opts.DragThreshold) {
		return
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return
	}
	c.arrow = c.build(b, p)
	if err := b.ApplyOne(board.InsertNode(c.path, c.arrow), false); err != nil {
		b.Logger().Warn("connect preview rejected", "error", err)
		return
	}
	b.Emit(board.Event{Name: board.EventElementConnect, IDs: []string{c.id}})
}

// build returns the arrow from the press point to p.
func (c *Connect) build(b *board.Board, p board.Point) *board.Element {
	arrow := &board.Element{ID: c.id, Type: board.TypeArrow}
	from, to := c.g.start, p
	end := c.shapeAt(b, p)
	if end != nil && c.start != nil && end.ID == c.start.ID {
		end = nil
	}
	switch {
	case c.start != nil && end != nil:
		from, to = board.ConnectionPoints(*c.start.Bounds, *end.Bounds)
	case c.start != nil:
		from = board.NearestEdgePoint(*c.start.Bounds, to)
	case end != nil:
		to = board.NearestEdgePoint(*end.Bounds, from)
	}
	if c.start != nil {
		arrow.Start = &board.Binding{ElementID: c.start.ID}
	}
	if end != nil {
		arrow.End = &board.Binding{ElementID: end.ID}
	}
	arrow.Points = []board.Point{from, to}
	return arrow
}

func (c *Connect) OnPointerUp(e board.PointerEvent, b *board.Board) {
	id := c.id
	created := false
	if c.g.dragging {
		if p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY); ok {
			c.arrow = c.build(b, p)
		}
	}
	if c.g.dragging && c.arrow != nil {
		ops := []board.Operation{
			board.InsertNode(c.path, c.arrow),
			board.SetSelection(b.Selection(), board.NewSelection(id)),
		}
		if err := b.Apply(ops, true); err != nil {
			b.Logger().Warn("connect commit rejected", "error", err)
			b.CancelPreview()
		} else {
			created = true
		}
	} else {
		b.CancelPreview()
	}
	c.reset()
	var ids []string
	if created {
		ids = []string{id}
	}
	b.Emit(board.Event{Name: board.EventElementConnectEnd, IDs: ids, Commit: created})
}

func (c *Connect) reset() {
	c.g.reset()
	c.id = ""
	c.path = nil
	c.start = nil
	c.arrow = nil
}
