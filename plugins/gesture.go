// Package plugins implements the gesture handlers of the board's pointer
// pipeline: panning, creating shapes and arrows, resizing, moving and
// marquee selection.
//
// Every plugin follows the same idle -> claimed -> idle cycle. A plugin
// claims on pointer-down by recording private gesture state, previews with
// Apply(ops, false) while the pointer moves, and commits with
// Apply(ops, true) on pointer-up. Nothing is committed until the pointer has
// travelled past the drag threshold.
package plugins

import (
	"math"

	"flermboard/board"
	"flermboard/refline"
)

// Options tune every plugin in a pipeline. Distances are in screen pixels
// unless noted otherwise.
type Options struct {
	// DragThreshold is the travel below which a gesture is a click.
	DragThreshold float64
	// Snap enables alignment snapping; holding Alt disables it per gesture.
	Snap          bool
	SnapTolerance float64
	// HitTolerance widens arrow hit areas and resize handles.
	HitTolerance float64
	// MinSize is the smallest width or height a shape may be resized or
	// created to, in document units.
	MinSize float64
}

func DefaultOptions() Options {
	return Options{
		DragThreshold: 5,
		Snap:          true,
		SnapTolerance: 6,
		HitTolerance:  4,
		MinSize:       8,
	}
}

// gesture tracks pointer travel for click-vs-drag disambiguation.
type gesture struct {
	active   bool
	start    board.Point
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	travel   float64
	dragging bool
}

func (g *gesture) begin(e board.PointerEvent, p board.Point) {
	*g = gesture{
		active: true,
		start:  p,
		startX: e.ClientX,
		startY: e.ClientY,
		lastX:  e.ClientX,
		lastY:  e.ClientY,
	}
}

// track adds the segment since the last event to the travelled distance
// and reports whether the gesture is now a drag. Once a drag, always a drag.
func (g *gesture) track(e board.PointerEvent, threshold float64) bool {
	g.travel += math.Hypot(e.ClientX-g.lastX, e.ClientY-g.lastY)
	g.lastX, g.lastY = e.ClientX, e.ClientY
	if g.travel > threshold {
		g.dragging = true
	}
	return g.dragging
}

func (g *gesture) reset() {
	*g = gesture{}
}

// docTolerance converts a pixel distance to document units.
func docTolerance(b *board.Board, px float64) float64 {
	zoom := b.Viewport().Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return px / zoom
}

// staticRects returns the alignment candidates for a gesture: every
// rectangular element that is not moving, not inside a moving subtree and
// not an ancestor of a moving element.
func staticRects(b *board.Board, moving map[string]bool) []refline.Rect {
	movingPaths := make([]board.Path, 0, len(moving))
	for id := range moving {
		if p, ok := board.PathForID(b, id); ok {
			movingPaths = append(movingPaths, p)
		}
	}
	var out []refline.Rect
	b.Walk(func(el *board.Element, p board.Path) bool {
		if moving[el.ID] {
			return false
		}
		for _, mp := range movingPaths {
			if p.IsAncestorOf(mp) {
				return true
			}
		}
		if el.Type.IsArrowFamily() || el.Bounds == nil {
			return true
		}
		out = append(out, toRefRect(el.ID, *el.Bounds))
		return true
	})
	return out
}

func toRefRect(key string, r board.Rect) refline.Rect {
	return refline.Rect{Key: key, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Pipeline is the default ordered plugin set. The order is significant:
// earlier plugins get first refusal on every pointer-down.
type Pipeline struct {
	Pan     *Pan
	Create  *Create
	Connect *Connect
	Resize  *Resize
	Move    *Move
	Select  *Select
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		Pan:     NewPan(opts),
		Create:  NewCreate(opts),
		Connect: NewConnect(opts),
		Resize:  NewResize(opts),
		Move:    NewMove(opts),
		Select:  NewSelect(opts),
	}
}

func (p *Pipeline) Plugins() []board.Plugin {
	return []board.Plugin{p.Pan, p.Create, p.Connect, p.Resize, p.Move, p.Select}
}

// Guides returns the alignment lines of the gesture in progress.
func (p *Pipeline) Guides() []refline.GuideLine {
	if lines := p.Move.Guides(); len(lines) > 0 {
		return lines
	}
	return p.Resize.Guides()
}
