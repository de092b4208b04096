package plugins

import "flermboard/board"

// Pan scrolls the viewport with the hand tool or the middle button.
type Pan struct {
	opts Options
	g    gesture
	base board.Viewport
	next board.Viewport
}

func NewPan(opts Options) *Pan {
	return &Pan{opts: opts}
}

func (p *Pan) Name() string { return "pan" }

func (p *Pan) OnPointerDown(e board.PointerEvent, b *board.Board) bool {
	if b.Tool() != board.ToolHand && e.Button != board.ButtonMiddle {
		return false
	}
	pt, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return false
	}
	p.g.begin(e, pt)
	p.base = b.Viewport()
	p.next = p.base
	return true
}

func (p *Pan) OnPointerMove(e board.PointerEvent, b *board.Board) {
	if !p.g.active || !p.g.track(e, p.opts.DragThreshold) {
		return
	}
	zoom := p.base.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	p.next = p.base
	p.next.MinX -= (e.ClientX - p.g.startX) / zoom
	p.next.MinY -= (e.ClientY - p.g.startY) / zoom
	if err := b.ApplyOne(board.SetViewport(p.base, p.next), false); err != nil {
		b.Logger().Warn("pan preview rejected", "error", err)
		return
	}
	b.Emit(board.Event{Name: board.EventViewportPan, Data: p.next})
}

func (p *Pan) OnPointerUp(e board.PointerEvent, b *board.Board) {
	moved := p.g.dragging
	if moved {
		if err := b.ApplyOne(board.SetViewport(p.base, p.next), true); err != nil {
			b.Logger().Warn("pan commit rejected", "error", err)
			b.CancelPreview()
		}
	}
	vp := p.next
	p.g.reset()
	p.base, p.next = board.Viewport{}, board.Viewport{}
	b.Emit(board.Event{Name: board.EventViewportPanEnd, Data: vp, Commit: moved})
}
