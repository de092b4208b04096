// Package refline computes alignment guides and snapped positions for
// rectangles being dragged over a set of static rectangles.
package refline

import (
	"math"
	"sort"
)

// Rect is a rectangle in document units. Key identifies the moving element
// the caller will write the corrected position back to.
type Rect struct {
	Key    string
	X      float64
	Y      float64
	Width  float64
	Height float64
}

type Orientation int

const (
	// Vertical lines have a constant X.
	Vertical Orientation = iota
	// Horizontal lines have a constant Y.
	Horizontal
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// GuideLine is a visual alignment hint. Pos is the X (vertical) or Y
// (horizontal) coordinate; Start and End span the other axis.
type GuideLine struct {
	Orientation Orientation
	Pos         float64
	Start       float64
	End         float64
}

type Result struct {
	Rects []Rect
	Lines []GuideLine
}

const epsilon = 1e-6

// RefLine holds the transient per-gesture alignment state.
type RefLine struct {
	static  []Rect
	current []Rect
	scale   float64
}

func New() *RefLine {
	return &RefLine{scale: 1}
}

// SetStaticRects sets the candidates moving rectangles may align to. Their
// order decides ties.
func (r *RefLine) SetStaticRects(rects []Rect) {
	r.static = append(r.static[:0], rects...)
}

func (r *RefLine) SetCurrentRects(rects []Rect) {
	r.current = append(r.current[:0], rects...)
}

// SetScale sets the zoom factor. Pixel tolerances are divided by it so
// snapping feels the same at every zoom level.
func (r *RefLine) SetScale(zoom float64) {
	if zoom <= 0 {
		zoom = 1
	}
	r.scale = zoom
}

// Reset clears all gesture state.
func (r *RefLine) Reset() {
	r.static = r.static[:0]
	r.current = r.current[:0]
	r.scale = 1
}

// candidate is the best alignment found so far on one axis.
type candidate struct {
	delta  float64
	static int
	found  bool
}

func (c *candidate) offer(delta float64, static int) {
	if !c.found || math.Abs(delta) < math.Abs(c.delta)-epsilon {
		*c = candidate{delta: delta, static: static, found: true}
	}
}

// GetUpdateCurrent snaps the current rectangles to the static ones.
//
// Every edge (start, center, end) of each moving rectangle is compared with
// the same set of edges on every static rectangle. The smallest delta within
// tolerance wins per axis; equal deltas keep the earliest static rectangle.
// The winning delta is applied to all moving rectangles so they keep their
// relative layout.
//
// With snapEnabled false the current rectangles are returned unchanged and
// no lines are produced.
func (r *RefLine) GetUpdateCurrent(snapEnabled bool, pixelTolerance float64) Result {
	out := Result{Rects: append([]Rect(nil), r.current...)}
	if !snapEnabled || len(r.current) == 0 {
		return out
	}
	tol := pixelTolerance / r.scale

	var bestX, bestY candidate
	for si, s := range r.static {
		for _, m := range r.current {
			for _, me := range xEdges(m) {
				for _, se := range xEdges(s) {
					if d := se - me; math.Abs(d) <= tol+epsilon {
						bestX.offer(d, si)
					}
				}
			}
			for _, me := range yEdges(m) {
				for _, se := range yEdges(s) {
					if d := se - me; math.Abs(d) <= tol+epsilon {
						bestY.offer(d, si)
					}
				}
			}
		}
	}

	for i := range out.Rects {
		if bestX.found {
			out.Rects[i].X += bestX.delta
		}
		if bestY.found {
			out.Rects[i].Y += bestY.delta
		}
	}
	if bestX.found {
		out.Lines = append(out.Lines, r.lines(out.Rects, Vertical)...)
	}
	if bestY.found {
		out.Lines = append(out.Lines, r.lines(out.Rects, Horizontal)...)
	}
	return out
}

// lines collects guide lines where a snapped edge coincides with a static
// edge, merging lines at the same position.
func (r *RefLine) lines(snapped []Rect, o Orientation) []GuideLine {
	edges, span := xEdges, ySpan
	if o == Horizontal {
		edges, span = yEdges, xSpan
	}
	var out []GuideLine
	for _, s := range r.static {
		for _, m := range snapped {
			for _, me := range edges(m) {
				for _, se := range edges(s) {
					if math.Abs(se-me) > epsilon {
						continue
					}
					s0, s1 := span(s)
					m0, m1 := span(m)
					out = mergeLine(out, GuideLine{
						Orientation: o,
						Pos:         se,
						Start:       math.Min(s0, m0),
						End:         math.Max(s1, m1),
					})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos < out[j].Pos })
	return out
}

func mergeLine(lines []GuideLine, l GuideLine) []GuideLine {
	for i := range lines {
		if math.Abs(lines[i].Pos-l.Pos) <= epsilon {
			lines[i].Start = math.Min(lines[i].Start, l.Start)
			lines[i].End = math.Max(lines[i].End, l.End)
			return lines
		}
	}
	return append(lines, l)
}

func xEdges(r Rect) [3]float64 {
	return [3]float64{r.X, r.X + r.Width/2, r.X + r.Width}
}

func yEdges(r Rect) [3]float64 {
	return [3]float64{r.Y, r.Y + r.Height/2, r.Y + r.Height}
}

func xSpan(r Rect) (float64, float64) {
	return r.X, r.X + r.Width
}

func ySpan(r Rect) (float64, float64) {
	return r.Y, r.Y + r.Height
}
