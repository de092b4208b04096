package plugins

import (
	"math"

	"flermboard/board"
)

// Nudge moves the selection, or resizes a single selected shape, in steps
// from the keyboard. It captures the elements when it begins, so each step
// previews from the same state and only Commit records history.
type Nudge struct {
	resize  bool
	minSize float64

	targets []moveTarget
	arrows  []boundArrow

	path   board.Path
	orig   *board.Element
	bound  []board.Hit
	offset board.Point
}

// BeginMove starts moving the topmost selected elements. It reports false
// when nothing is selected.
func BeginMove(b *board.Board) (*Nudge, bool) {
	n := &Nudge{}
	moving := map[string]bool{}
	for _, id := range board.TopmostIDs(b, b.Selection().IDs) {
		path, ok := board.PathForID(b, id)
		if !ok {
			continue
		}
		el, _ := board.NodeAt(b, path)
		n.targets = append(n.targets, moveTarget{path: path, orig: el.Clone()})
		markSubtree(el, moving)
	}
	if len(n.targets) == 0 {
		return nil, false
	}
	n.arrows = boundArrows(b, moving)
	return n, true
}

// BeginResize starts resizing the single selected shape from its
// bottom-right corner. Arrows, groups and multi-selections cannot be
// resized.
func BeginResize(b *board.Board, minSize float64) (*Nudge, bool) {
	sel := b.Selection()
	if len(sel.IDs) != 1 {
		return nil, false
	}
	el, ok := b.Find(sel.IDs[0])
	if !ok || el.Type.IsArrowFamily() || el.Type.IsContainer() || el.Bounds == nil {
		return nil, false
	}
	path, _ := board.PathForID(b, el.ID)
	n := &Nudge{resize: true, minSize: minSize, path: path, orig: el.Clone()}
	for _, h := range b.BoundArrows(el.ID) {
		n.bound = append(n.bound, board.Hit{Element: h.Element.Clone(), Path: h.Path})
	}
	return n, true
}

// Resizing reports whether the nudge changes size rather than position.
func (n *Nudge) Resizing() bool { return n.resize }

// Step adds (dx, dy) document units to the nudge and previews the result.
func (n *Nudge) Step(b *board.Board, dx, dy float64) error {
	n.offset = n.offset.Add(dx, dy)
	if err := b.Apply(n.ops(b), false); err != nil {
		return err
	}
	b.Emit(board.Event{Name: n.progressEvent(), IDs: n.IDs(), Data: n.offset})
	return nil
}

// Commit records the nudge as one history entry. A nudge that ended where
// it started only discards its preview.
func (n *Nudge) Commit(b *board.Board) error {
	changed := n.offset != board.Point{}
	if changed {
		if err := b.Apply(n.ops(b), true); err != nil {
			b.CancelPreview()
			return err
		}
	} else {
		b.CancelPreview()
	}
	b.Emit(board.Event{Name: n.endEvent(), IDs: n.IDs(), Commit: changed})
	return nil
}

// Cancel discards the preview.
func (n *Nudge) Cancel(b *board.Board) {
	b.CancelPreview()
	b.Emit(board.Event{Name: n.endEvent(), IDs: n.IDs()})
}

func (n *Nudge) IDs() []string {
	if n.resize {
		return []string{n.orig.ID}
	}
	ids := make([]string, len(n.targets))
	for i, t := range n.targets {
		ids[i] = t.orig.ID
	}
	return ids
}

// Bounds is the resized shape's bounds at the current step.
func (n *Nudge) Bounds() board.Rect {
	r := *n.orig.Bounds
	r.Width = math.Max(r.Width+n.offset.X, n.minSize)
	r.Height = math.Max(r.Height+n.offset.Y, n.minSize)
	return r
}

func (n *Nudge) ops(b *board.Board) []board.Operation {
	if n.resize {
		return resizeOps(b, n.path, n.orig, n.bound, n.Bounds())
	}
	return translateOps(n.targets, n.arrows, n.offset.X, n.offset.Y)
}

func (n *Nudge) progressEvent() string {
	if n.resize {
		return board.EventElementResize
	}
	return board.EventElementMove
}

func (n *Nudge) endEvent() string {
	if n.resize {
		return board.EventElementResizeEnd
	}
	return board.EventElementMoveEnd
}
