package board

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestBoard(t *testing.T, opts ...Option) *Board {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	b := New(opts...)
	b.Mount(Surface{Width: 800, Height: 600})
	return b
}

func rectEl(id string, x, y, w, h float64) *Element {
	return &Element{ID: id, Type: TypeRect, Bounds: &Rect{X: x, Y: y, Width: w, Height: h}}
}

func arrowEl(id string, from, to string, pts ...Point) *Element {
	el := &Element{ID: id, Type: TypeArrow, Points: pts}
	if from != "" {
		el.Start = &Binding{ElementID: from}
	}
	if to != "" {
		el.End = &Binding{ElementID: to}
	}
	return el
}

func ids(els []*Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.ID
	}
	return out
}

func TestPathForElement_ReResolvesAfterInsert(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 10, 10), rectEl("b", 20, 0, 10, 10)}))

	el, ok := b.Find("b")
	require.True(t, ok)
	p, ok := PathForElement(b, el)
	require.True(t, ok)
	assert.Equal(t, Path{1}, p)

	require.NoError(t, b.ApplyOne(InsertNode(Path{0}, rectEl("c", 0, 0, 5, 5)), true))

	p, ok = PathForElement(b, el)
	require.True(t, ok)
	assert.Equal(t, Path{2}, p)
}

func TestApply_SkipsStalePathAndAppliesRest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	b := newTestBoard(t, WithMetrics(m), WithElements([]*Element{rectEl("a", 0, 0, 10, 10)}))

	moved := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	ops := []Operation{
		SetNode(Path{7}, Properties{}, Properties{Bounds: &Rect{X: 1}}),
		SetNode(Path{0}, Properties{}, Properties{Bounds: &moved}),
	}
	require.NoError(t, b.Apply(ops, true))

	el, _ := b.Find("a")
	assert.Equal(t, moved, *el.Bounds)
	assert.Equal(t, 1, b.HistoryLen())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsSkipped.WithLabelValues("set_node")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsApplied.WithLabelValues("set_node")))
}

func TestApply_MalformedRejectsWholeBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	b := newTestBoard(t, WithMetrics(m), WithElements([]*Element{
		rectEl("a", 0, 0, 10, 10),
		arrowEl("x", "", "", Point{0, 0}, Point{10, 10}),
	}))

	moved := Rect{X: 50, Width: 10, Height: 10}
	ops := []Operation{
		SetNode(Path{0}, Properties{}, Properties{Bounds: &moved}),
		SetNode(Path{1}, Properties{}, Properties{Bounds: &moved}),
	}
	err := b.Apply(ops, true)
	require.ErrorIs(t, err, ErrMalformedOperation)

	el, _ := b.Find("a")
	assert.Equal(t, float64(0), el.Bounds.X)
	assert.Equal(t, 0, b.HistoryLen())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BatchesRejected))
}

func TestApply_InsertRejectsInvalidNodes(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 10, 10)}))

	tests := []struct {
		name string
		op   Operation
	}{
		{"duplicate id", InsertNode(Path{1}, rectEl("a", 0, 0, 1, 1))},
		{"arrow with bounds", InsertNode(Path{1}, &Element{ID: "x", Type: TypeArrow, Bounds: &Rect{}})},
		{"rect with points", InsertNode(Path{1}, &Element{ID: "y", Type: TypeRect, Bounds: &Rect{}, Points: []Point{{1, 1}}})},
		{"children on rect", InsertNode(Path{1}, &Element{ID: "z", Type: TypeRect, Bounds: &Rect{}, Children: []*Element{rectEl("c", 0, 0, 1, 1)}})},
		{"root path", InsertNode(Path{}, rectEl("w", 0, 0, 1, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.ApplyOne(tt.op, true)
			assert.ErrorIs(t, err, ErrMalformedOperation)
			assert.Equal(t, 1, b.Count())
		})
	}
}

func TestMoveNode_CannotNestIntoItself(t *testing.T) {
	group := &Element{ID: "g", Type: TypeGroup, Bounds: &Rect{Width: 10, Height: 10},
		Children: []*Element{rectEl("c", 0, 0, 5, 5)}}
	b := newTestBoard(t, WithElements([]*Element{group}))

	err := b.ApplyOne(MoveNode(Path{0}, Path{0, 0}), true)
	require.ErrorIs(t, err, ErrIllegalReparent)

	g, _ := b.Find("g")
	require.Len(t, g.Children, 1)
	assert.Equal(t, "c", g.Children[0].ID)
	assert.Equal(t, 0, b.HistoryLen())
}

func TestMoveNode_DestinationResolvedAfterRemoval(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{
		rectEl("a", 0, 0, 1, 1), rectEl("b", 0, 0, 1, 1), rectEl("c", 0, 0, 1, 1),
	}))

	require.NoError(t, b.ApplyOne(MoveNode(Path{0}, Path{2}), true))
	assert.Equal(t, []string{"b", "c", "a"}, ids(b.Elements()))

	require.NoError(t, b.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, ids(b.Elements()))
}

func TestMoveNode_StaleDestinationLeavesTreeIntact(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 1, 1), rectEl("b", 0, 0, 1, 1)}))

	require.NoError(t, b.ApplyOne(MoveNode(Path{0}, Path{5}), true))
	assert.Equal(t, []string{"a", "b"}, ids(b.Elements()))
	assert.Equal(t, 0, b.HistoryLen())
}

func TestPreview_ReplacesPreviousPreview(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 10, 10)}))
	el, _ := b.Find("a")
	orig := el.Clone()

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Apply(TranslateOps(orig, Path{0}, 10, 0), false))
	}
	el, _ = b.Find("a")
	assert.Equal(t, float64(10), el.Bounds.X)
	assert.True(t, b.Previewing())
	assert.Equal(t, 0, b.HistoryLen())

	b.CancelPreview()
	el, _ = b.Find("a")
	assert.Equal(t, float64(0), el.Bounds.X)
	assert.False(t, b.Previewing())
}

func TestCommit_AfterPreviewPushesOneEntry(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 10, 10)}))
	el, _ := b.Find("a")
	orig := el.Clone()

	require.NoError(t, b.Apply(TranslateOps(orig, Path{0}, 3, 0), false))
	require.NoError(t, b.Apply(TranslateOps(orig, Path{0}, 6, 0), false))
	require.NoError(t, b.Apply(TranslateOps(orig, Path{0}, 9, 0), true))

	assert.Equal(t, 1, b.HistoryLen())
	el, _ = b.Find("a")
	assert.Equal(t, float64(9), el.Bounds.X)

	require.NoError(t, b.Undo())
	el, _ = b.Find("a")
	assert.Equal(t, float64(0), el.Bounds.X)

	require.NoError(t, b.Redo())
	el, _ = b.Find("a")
	assert.Equal(t, float64(9), el.Bounds.X)
}

func TestUndo_EmptyHistory(t *testing.T) {
	b := newTestBoard(t)
	assert.ErrorIs(t, b.Undo(), ErrNothingToUndo)
	assert.ErrorIs(t, b.Redo(), ErrNothingToRedo)
}

func TestHistory_ViewportOnlyBatchesAreNotRecorded(t *testing.T) {
	b := newTestBoard(t)
	vp := b.Viewport()
	next := vp
	next.MinX = 40

	require.NoError(t, b.ApplyOne(SetViewport(vp, next), true))
	assert.Equal(t, float64(40), b.Viewport().MinX)
	assert.False(t, b.CanUndo())

	err := b.ApplyOne(SetViewport(vp, Viewport{}), true)
	assert.ErrorIs(t, err, ErrMalformedOperation)
}

func TestHistory_LimitDropsOldestEntries(t *testing.T) {
	b := newTestBoard(t, WithHistoryLimit(2))
	for i := 0; i < 4; i++ {
		require.NoError(t, b.ApplyOne(InsertNode(Path{i}, rectEl(fmt.Sprintf("r%d", i), 0, 0, 1, 1)), true))
	}
	assert.Equal(t, 2, b.HistoryLen())
	require.NoError(t, b.Undo())
	require.NoError(t, b.Undo())
	assert.ErrorIs(t, b.Undo(), ErrNothingToUndo)
	assert.Equal(t, []string{"r0", "r1"}, ids(b.Elements()))
}

func TestNewCommitClearsRedo(t *testing.T) {
	b := newTestBoard(t)
	require.NoError(t, b.ApplyOne(InsertNode(Path{0}, rectEl("a", 0, 0, 1, 1)), true))
	require.NoError(t, b.Undo())
	require.True(t, b.CanRedo())

	require.NoError(t, b.ApplyOne(InsertNode(Path{0}, rectEl("b", 0, 0, 1, 1)), true))
	assert.False(t, b.CanRedo())
}

func TestSelection_PrunedWhenElementRemoved(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 1, 1), rectEl("b", 0, 0, 1, 1)}))
	require.NoError(t, b.ApplyOne(SetSelection(Selection{}, NewSelection("a", "b", "missing")), true))
	assert.Equal(t, []string{"a", "b"}, b.Selection().IDs)

	a, _ := b.Find("a")
	require.NoError(t, b.ApplyOne(RemoveNode(Path{0}, a), true))
	assert.Equal(t, []string{"b"}, b.Selection().IDs)
}

func TestRemoveNode_IDMismatchIsSkipped(t *testing.T) {
	b := newTestBoard(t, WithElements([]*Element{rectEl("a", 0, 0, 1, 1)}))
	require.NoError(t, b.ApplyOne(RemoveNode(Path{0}, rectEl("other", 0, 0, 1, 1)), true))
	assert.Equal(t, 1, b.Count())
}

func TestEvents_EmittedAfterApply(t *testing.T) {
	b := newTestBoard(t)
	var names []string
	unsub := b.Subscribe(AllEvents, func(ev Event) {
		names = append(names, ev.Name)
	})
	var changed []string
	b.Subscribe(EventBoardChange, func(ev Event) {
		changed = append(changed, ev.IDs...)
	})

	ops := []Operation{
		InsertNode(Path{0}, rectEl("a", 0, 0, 1, 1)),
		SetSelection(Selection{}, NewSelection("a")),
	}
	require.NoError(t, b.Apply(ops, true))
	assert.Equal(t, []string{EventSelectionChange, EventBoardChange}, names)
	assert.Equal(t, []string{"a"}, changed)

	unsub()
	require.NoError(t, b.Undo())
	assert.Len(t, names, 2)
}

func TestEvent_IsTerminal(t *testing.T) {
	assert.True(t, Event{Name: EventElementMoveEnd}.IsTerminal())
	assert.True(t, Event{Name: EventUndoEnd}.IsTerminal())
	assert.False(t, Event{Name: EventElementMove}.IsTerminal())
	assert.False(t, Event{Name: EventBoardChange}.IsTerminal())
}

func TestScreenToViewport(t *testing.T) {
	b := New()
	_, ok := ScreenToViewport(b, 10, 10)
	assert.False(t, ok)

	b.Mount(Surface{X: 100, Y: 50, Width: 400, Height: 300})
	require.NoError(t, b.ApplyOne(SetViewport(b.Viewport(), Viewport{Zoom: 2, MinX: 10, MinY: 20}), true))

	p, ok := ScreenToViewport(b, 120, 70)
	require.True(t, ok)
	assert.Equal(t, Point{X: 20, Y: 30}, p)

	x, y, ok := ViewportToScreen(b, p)
	require.True(t, ok)
	assert.Equal(t, 120.0, x)
	assert.Equal(t, 70.0, y)
}

func TestHitTest_TopmostAndArrows(t *testing.T) {
	group := &Element{ID: "g", Type: TypeGroup, Bounds: &Rect{X: 100, Y: 100, Width: 50, Height: 50},
		Children: []*Element{rectEl("child", 110, 110, 10, 10)}}
	b := newTestBoard(t, WithElements([]*Element{
		rectEl("under", 0, 0, 40, 40),
		rectEl("over", 20, 20, 40, 40),
		arrowEl("arrow", "", "", Point{0, 200}, Point{100, 200}),
		group,
	}))

	h, ok := b.HitTest(Point{30, 30}, 0)
	require.True(t, ok)
	assert.Equal(t, "over", h.Element.ID)

	h, ok = b.HitTest(Point{30, 30}, 0, "over")
	require.True(t, ok)
	assert.Equal(t, "under", h.Element.ID)

	h, ok = b.HitTest(Point{50, 203}, 4)
	require.True(t, ok)
	assert.Equal(t, "arrow", h.Element.ID)

	_, ok = b.HitTest(Point{50, 210}, 4)
	assert.False(t, ok)

	h, ok = b.HitTest(Point{115, 115}, 0)
	require.True(t, ok)
	assert.Equal(t, "child", h.Element.ID)

	h, ok = b.HitTestTop(Point{115, 115}, 0)
	require.True(t, ok)
	assert.Equal(t, "g", h.Element.ID)
	assert.Equal(t, Path{3}, h.Path)
}

func TestTopmostIDs(t *testing.T) {
	group := &Element{ID: "g", Type: TypeGroup, Bounds: &Rect{Width: 10, Height: 10},
		Children: []*Element{rectEl("c", 0, 0, 5, 5)}}
	b := newTestBoard(t, WithElements([]*Element{group, rectEl("r", 0, 0, 1, 1)}))
	assert.Equal(t, []string{"g", "r"}, TopmostIDs(b, []string{"c", "g", "r", "gone"}))
}

func TestPointerDispatch_FirstClaimWins(t *testing.T) {
	first := &recordingPlugin{name: "first"}
	second := &recordingPlugin{name: "second", claim: true}
	third := &recordingPlugin{name: "third", claim: true}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	b := newTestBoard(t, WithMetrics(m), WithPlugins(first, second, third))

	assert.Equal(t, "second", b.PointerDown(PointerEvent{}))
	b.PointerMove(PointerEvent{ClientX: 3})
	b.PointerUp(PointerEvent{ClientX: 3})

	assert.Equal(t, []string{"down"}, first.calls)
	assert.Equal(t, []string{"down", "move", "up"}, second.calls)
	assert.Empty(t, third.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Gestures.WithLabelValues("second")))

	_, active := b.ActivePlugin()
	assert.False(t, active)
}

func TestPointerUp_DiscardsLeftoverPreview(t *testing.T) {
	leaky := &recordingPlugin{name: "leaky", claim: true, previewOnUp: true}
	b := newTestBoard(t, WithPlugins(leaky))

	b.PointerDown(PointerEvent{})
	b.PointerUp(PointerEvent{})
	assert.False(t, b.Previewing())
	assert.Equal(t, 0, b.Count())
}

type recordingPlugin struct {
	name        string
	claim       bool
	previewOnUp bool
	calls       []string
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) OnPointerDown(e PointerEvent, b *Board) bool {
	p.calls = append(p.calls, "down")
	return p.claim
}

func (p *recordingPlugin) OnPointerMove(e PointerEvent, b *Board) {
	p.calls = append(p.calls, "move")
}

func (p *recordingPlugin) OnPointerUp(e PointerEvent, b *Board) {
	p.calls = append(p.calls, "up")
	if p.previewOnUp {
		_ = b.ApplyOne(InsertNode(Path{0}, rectEl("tmp", 0, 0, 1, 1)), false)
	}
}
