package refline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpdateCurrent_SnapsLeftEdges(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{{Key: "s", X: 100, Y: 0, Width: 200, Height: 50}})
	r.SetCurrentRects([]Rect{{Key: "m", X: 103, Y: 200, Width: 20, Height: 20}})

	res := r.GetUpdateCurrent(true, 5)
	require.Len(t, res.Rects, 1)
	assert.Equal(t, 100.0, res.Rects[0].X)
	assert.Equal(t, 200.0, res.Rects[0].Y)

	require.Len(t, res.Lines, 1)
	line := res.Lines[0]
	assert.Equal(t, Vertical, line.Orientation)
	assert.Equal(t, 100.0, line.Pos)
	assert.Equal(t, 0.0, line.Start)
	assert.Equal(t, 220.0, line.End)
}

func TestGetUpdateCurrent_Disabled(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{{X: 100, Width: 50, Height: 50}})
	r.SetCurrentRects([]Rect{{X: 101, Width: 50, Height: 50}})

	res := r.GetUpdateCurrent(false, 5)
	assert.Equal(t, 101.0, res.Rects[0].X)
	assert.Empty(t, res.Lines)
}

func TestGetUpdateCurrent_OutsideTolerance(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{{X: 100, Y: 0, Width: 50, Height: 50}})
	r.SetCurrentRects([]Rect{{X: 170, Y: 300, Width: 50, Height: 50}})

	res := r.GetUpdateCurrent(true, 5)
	assert.Equal(t, 170.0, res.Rects[0].X)
	assert.Equal(t, 300.0, res.Rects[0].Y)
	assert.Empty(t, res.Lines)
}

// Growing the tolerance never drops a snap that a smaller tolerance found.
func TestGetUpdateCurrent_ToleranceMonotonic(t *testing.T) {
	static := []Rect{{X: 0, Y: 0, Width: 40, Height: 40}, {X: 200, Y: 0, Width: 40, Height: 40}}
	for _, x := range []float64{-9, -3, 2, 7, 12, 193, 205} {
		prevSnapped := false
		for tol := 1.0; tol <= 20; tol++ {
			r := New()
			r.SetStaticRects(static)
			r.SetCurrentRects([]Rect{{X: x, Y: 500, Width: 40, Height: 40}})
			res := r.GetUpdateCurrent(true, tol)
			snapped := res.Rects[0].X != x
			if prevSnapped {
				assert.True(t, snapped, "x=%v tol=%v lost its snap", x, tol)
			}
			prevSnapped = snapped
		}
	}
}

func TestGetUpdateCurrent_TieKeepsEarliestStatic(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{
		{Key: "first", X: 97, Y: 0, Width: 1000, Height: 10},
		{Key: "second", X: 103, Y: 0, Width: 1000, Height: 10},
	})
	// Left edge is 3 away from both statics' left edges: 97 and 103.
	r.SetCurrentRects([]Rect{{X: 100, Y: 500, Width: 100, Height: 10}})

	res := r.GetUpdateCurrent(true, 5)
	assert.Equal(t, 97.0, res.Rects[0].X)
}

func TestGetUpdateCurrent_SmallestDeltaWins(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{
		{X: 96, Y: 0, Width: 1000, Height: 10},
		{X: 101, Y: 0, Width: 1000, Height: 10},
	})
	r.SetCurrentRects([]Rect{{X: 100, Y: 500, Width: 100, Height: 10}})

	res := r.GetUpdateCurrent(true, 5)
	assert.Equal(t, 101.0, res.Rects[0].X)
}

func TestGetUpdateCurrent_CenterAndBothAxes(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{{X: 0, Y: 0, Width: 100, Height: 100}})
	// Center x=52 vs static center 50; bottom y=98 vs static bottom 100.
	r.SetCurrentRects([]Rect{{X: 42, Y: 78, Width: 20, Height: 20}})

	res := r.GetUpdateCurrent(true, 3)
	assert.Equal(t, 40.0, res.Rects[0].X)
	assert.Equal(t, 80.0, res.Rects[0].Y)

	var vertical, horizontal int
	for _, l := range res.Lines {
		if l.Orientation == Vertical {
			vertical++
		} else {
			horizontal++
		}
	}
	assert.Equal(t, 1, vertical)
	assert.Equal(t, 1, horizontal)
}

func TestGetUpdateCurrent_OneDeltaForAllMovingRects(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{{X: 100, Y: 0, Width: 10, Height: 10}})
	r.SetCurrentRects([]Rect{
		{Key: "a", X: 102, Y: 300, Width: 10, Height: 10},
		{Key: "b", X: 150, Y: 400, Width: 10, Height: 10},
	})

	res := r.GetUpdateCurrent(true, 5)
	assert.Equal(t, 100.0, res.Rects[0].X)
	assert.Equal(t, 148.0, res.Rects[1].X)
	assert.Equal(t, "b", res.Rects[1].Key)
}

func TestSetScale_TightensToleranceWhenZoomedIn(t *testing.T) {
	r := New()
	r.SetStaticRects([]Rect{{X: 100, Width: 1000, Height: 10}})
	r.SetCurrentRects([]Rect{{X: 104, Y: 500, Width: 100, Height: 10}})

	res := r.GetUpdateCurrent(true, 5)
	assert.Equal(t, 100.0, res.Rects[0].X)

	r.SetScale(2)
	res = r.GetUpdateCurrent(true, 5)
	assert.Equal(t, 104.0, res.Rects[0].X)

	r.Reset()
	assert.Empty(t, r.GetUpdateCurrent(true, 5).Rects)
}
