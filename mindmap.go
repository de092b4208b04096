package main

import (
	"fmt"
	"sort"

	"flermboard/board"
)

// Mind maps are plain rects joined by bound arrows. A node's children are
// the rects its outgoing arrows end on, ordered top to bottom.

// mindMapChildren returns the elements that arrows starting at parentID
// end on, sorted by their vertical position.
func mindMapChildren(b *board.Board, parentID string) []*board.Element {
	var out []*board.Element
	seen := map[string]bool{}
	for _, h := range b.BoundArrows(parentID) {
		a := h.Element
		if a.Start == nil || a.Start.ElementID != parentID || a.End == nil || seen[a.End.ElementID] {
			continue
		}
		if child, ok := b.Find(a.End.ElementID); ok && child.Bounds != nil {
			seen[child.ID] = true
			out = append(out, child)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Bounds.Y < out[j].Bounds.Y })
	return out
}

// mindMapParent returns the element whose arrow ends on childID.
func mindMapParent(b *board.Board, childID string) (*board.Element, bool) {
	for _, h := range b.BoundArrows(childID) {
		a := h.Element
		if a.End != nil && a.End.ElementID == childID && a.Start != nil {
			if p, ok := b.Find(a.Start.ElementID); ok && p.Bounds != nil {
				return p, true
			}
		}
	}
	return nil, false
}

// mindMapChildOps creates a node right of parent, below its last child,
// joined to parent by a bound arrow. The batch also selects the new node.
func mindMapChildOps(b *board.Board, parent *board.Element, cellW, cellH float64) ([]board.Operation, string, error) {
	if parent.Bounds == nil {
		return nil, "", fmt.Errorf("mind map node %s: %w", parent.ID, board.ErrMalformedOperation)
	}
	pr := *parent.Bounds
	r := board.Rect{X: pr.X + pr.Width + mindMapGapX*cellW, Y: pr.Y, Width: pr.Width, Height: pr.Height}
	if kids := mindMapChildren(b, parent.ID); len(kids) > 0 {
		last := *kids[len(kids)-1].Bounds
		r.X = last.X
		r.Y = last.Y + last.Height + mindMapGapY*cellH
	}

	node := &board.Element{ID: b.NewID(), Type: board.TypeRect, Bounds: &r}
	from, to := board.ConnectionPoints(pr, r)
	arrow := &board.Element{
		ID:     b.NewID(),
		Type:   board.TypeArrow,
		Points: []board.Point{from, to},
		Start:  &board.Binding{ElementID: parent.ID},
		End:    &board.Binding{ElementID: node.ID},
	}
	n := len(b.Elements())
	return []board.Operation{
		board.InsertNode(board.Path{n}, node),
		board.InsertNode(board.Path{n + 1}, arrow),
		board.SetSelection(b.Selection(), board.NewSelection(node.ID)),
	}, node.ID, nil
}

func (m *model) selectedNode() (*board.Element, bool) {
	b := m.board()
	sel := b.Selection()
	if len(sel.IDs) != 1 {
		return nil, false
	}
	el, ok := b.Find(sel.IDs[0])
	if !ok || el.Bounds == nil || !editable(el) {
		return nil, false
	}
	return el, true
}

func (m *model) addMindMapChild() {
	parent, ok := m.selectedNode()
	if !ok {
		m.successMessage = "Select one shape to add a child"
		return
	}
	m.addMindMapNode(parent)
}

// addMindMapSibling adds a child to the selected node's parent. A root has
// no parent, so its sibling is a new root below it.
func (m *model) addMindMapSibling() {
	node, ok := m.selectedNode()
	if !ok {
		m.successMessage = "Select one shape to add a sibling"
		return
	}
	if parent, ok := mindMapParent(m.board(), node.ID); ok {
		m.addMindMapNode(parent)
		return
	}
	b := m.board()
	r := node.Bounds.Translate(0, node.Bounds.Height+mindMapGapY*m.term.CellHeight)
	el := &board.Element{ID: b.NewID(), Type: board.TypeRect, Bounds: &r}
	ops := []board.Operation{
		board.InsertNode(board.Path{len(b.Elements())}, el),
		board.SetSelection(b.Selection(), board.NewSelection(el.ID)),
	}
	m.commitNode(ops, el.ID)
}

func (m *model) addMindMapNode(parent *board.Element) {
	ops, id, err := mindMapChildOps(m.board(), parent, m.term.CellWidth, m.term.CellHeight)
	if err != nil {
		m.fail(err)
		return
	}
	m.commitNode(ops, id)
}

// commitNode applies a new node and opens the editor on it.
func (m *model) commitNode(ops []board.Operation, id string) {
	b := m.board()
	if err := b.Apply(ops, true); err != nil {
		m.fail(err)
		return
	}
	b.Emit(board.Event{Name: board.EventElementCreateEnd, IDs: []string{id}, Commit: true})
	if el, ok := b.Find(id); ok {
		m.startEdit(el)
	}
}
