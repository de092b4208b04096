package plugins

import "flermboard/board"

// Select draws a marquee over empty canvas and selects the top-level
// elements it touches. Holding Shift adds to the existing selection. A
// click on empty canvas clears the selection.
type Select struct {
	opts  Options
	g     gesture
	prior board.Selection
}

func NewSelect(opts Options) *Select {
	return &Select{opts: opts}
}

func (s *Select) Name() string { return "select" }

func (s *Select) OnPointerDown(e board.PointerEvent, b *board.Board) bool {
	if b.Tool() != board.ToolSelect || e.Button != board.ButtonLeft {
		return false
	}
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return false
	}
	if _, hit := b.HitTest(p, docTolerance(b, s.opts.HitTolerance)); hit {
		return false
	}
	s.g.begin(e, p)
	s.prior = b.Selection()
	return true
}

func (s *Select) OnPointerMove(e board.PointerEvent, b *board.Board) {
	if !s.g.active || !s.g.track(e, s.opts.DragThreshold) {
		return
	}
	next, ok := s.selection(e, b)
	if !ok {
		return
	}
	if err := b.ApplyOne(board.SetSelection(b.Selection(), next), false); err != nil {
		b.Logger().Warn("marquee preview rejected", "error", err)
	}
}

// selection returns the marquee selection for the pointer position.
func (s *Select) selection(e board.PointerEvent, b *board.Board) (board.Selection, bool) {
	p, ok := board.ScreenToViewport(b, e.ClientX, e.ClientY)
	if !ok {
		return board.Selection{}, false
	}
	marquee := board.RectFromPoints(s.g.start, p)
	var ids []string
	if e.Has(board.ModShift) {
		ids = append(ids, s.prior.IDs...)
	}
	for _, el := range b.ElementsIn(marquee) {
		ids = append(ids, el.ID)
	}
	next := board.NewSelection(ids...)
	next.Marquee = &marquee
	return next, true
}

func (s *Select) OnPointerUp(e board.PointerEvent, b *board.Board) {
	defer s.reset()
	var ids []string
	if s.g.dragging {
		next, ok := s.selection(e, b)
		if !ok {
			b.CancelPreview()
			return
		}
		next.Marquee = nil
		ids = next.IDs
		if err := b.ApplyOne(board.SetSelection(b.Selection(), next), true); err != nil {
			b.Logger().Warn("marquee commit rejected", "error", err)
			b.CancelPreview()
		}
	} else if !s.prior.Empty() && !e.Has(board.ModShift) {
		if err := b.ApplyOne(board.SetSelection(s.prior, board.Selection{}), true); err != nil {
			b.Logger().Warn("clear selection rejected", "error", err)
		}
	}
	b.Emit(board.Event{Name: board.EventSelectEnd, IDs: ids, Commit: s.g.dragging})
}

func (s *Select) reset() {
	s.g.reset()
	s.prior = board.Selection{}
}
