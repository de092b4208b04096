package plugins

import (
	"math"

	"flermboard/board"
)

var createTypes = map[board.Tool]board.ElementType{
	board.ToolRect:    board.TypeRect,
	board.ToolEllipse: board.TypeEllipse,
	board.ToolText:    board.TypeText,
	board.ToolImage:   board.TypeImage,
}

// Create draws a new shape with the shape tools. The shape spans the press
// and release points, at least MinSize on each side, and is appended on top
// of the tree. A click creates nothing.
type Create struct {
	opts Options
	g    gesture

	kind board.ElementType
	id   string
	path board.Path
	rect board.Rect
}

func NewCreate(opts Options) *Create {
	return &Create{opts: opts}
}

func (c *Create) Name() string { return "create" }

func (c *Create) OnPointerDown(e board.PointerEvent, b *board.Board) bool {
	kind, ok := createTypes[b.Tool()]
	if !ok || e.Button != board.ButtonLeft {
		return false
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return false
	}
	c.g.begin(e, p)
	c.kind = kind
	c.id = b.NewID()
	c.path = board.Path{len(b.Elements())}
	return true
}

func (c *Create) OnPointerMove(e board.PointerEvent, b *board.Board) {
	if !c.g.active || !c.g.track(e, c.opts.DragThreshold) {
		return
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return
	}
	c.rect = board.RectFromPoints(c.g.start, p)
	if err := b.ApplyOne(board.InsertNode(c.path, c.node()), false); err != nil {
		b.Logger().Warn("create preview rejected", "error", err)
		return
	}
	b.Emit(board.Event{Name: board.EventElementCreate, IDs: []string{c.id}, Data: c.rect})
}

func (c *Create) node() *board.Element {
	r := c.rect
	r.Width = math.Max(r.Width, c.opts.MinSize)
	r.Height = math.Max(r.Height, c.opts.MinSize)
	return &board.Element{ID: c.id, Type: c.kind, Bounds: &r}
}

func (c *Create) OnPointerUp(e board.PointerEvent, b *board.Board) {
	id := c.id
	created := c.g.dragging
	if created {
		ops := []board.Operation{
			board.InsertNode(c.path, c.node()),
			board.SetSelection(b.Selection(), board.NewSelection(id)),
		}
		if err := b.Apply(ops, true); err != nil {
			b.Logger().Warn("create commit rejected", "error", err)
			b.CancelPreview()
			created = false
		}
	} else {
		b.CancelPreview()
	}
	c.reset()
	var ids []string
	if created {
		ids = []string{id}
	}
	b.Emit(board.Event{Name: board.EventElementCreateEnd, IDs: ids, Commit: created})
}

func (c *Create) reset() {
	c.g.reset()
	c.kind = ""
	c.id = ""
	c.path = nil
	c.rect = board.Rect{}
}
