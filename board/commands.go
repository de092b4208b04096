package board

import (
	"fmt"
	"sort"
)

// DeleteSelection removes the selected elements and every arrow bound to
// them, as one committed batch.
func DeleteSelection(b *Board) error {
	ids := TopmostIDs(b, b.doc.selection.IDs)
	if len(ids) == 0 {
		return nil
	}
	doomed := map[string]bool{}
	for _, id := range ids {
		doomed[id] = true
		for _, h := range b.BoundArrows(id) {
			doomed[h.Element.ID] = true
		}
	}
	type target struct {
		path Path
		el   *Element
	}
	var targets []target
	b.Walk(func(el *Element, p Path) bool {
		if doomed[el.ID] {
			targets = append(targets, target{path: p, el: el})
			return false
		}
		return true
	})
	// Remove deepest and last siblings first so earlier paths stay valid.
	sort.SliceStable(targets, func(i, j int) bool {
		return comparePaths(targets[i].path, targets[j].path) > 0
	})
	ops := []Operation{SetSelection(b.doc.selection, Selection{})}
	removed := make([]string, 0, len(targets))
	for _, t := range targets {
		ops = append(ops, RemoveNode(t.path, t.el))
		removed = append(removed, t.el.ID)
	}
	if err := b.Apply(ops, true); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	b.Emit(Event{Name: EventElementRemoveEnd, IDs: removed, Commit: true})
	return nil
}

// GroupSelection wraps the selected top-level elements in a new group
// inserted where the first of them was. It returns the group id.
func GroupSelection(b *Board) (string, error) {
	var members []int
	for _, id := range b.doc.selection.IDs {
		p, ok := pathForID(b.doc.children, id)
		if ok && len(p) == 1 {
			members = append(members, p[0])
		}
	}
	if len(members) < 2 {
		return "", nil
	}
	sort.Ints(members)

	var bounds Rect
	for i, idx := range members {
		box, _ := b.doc.children[idx].BoundingBox()
		if i == 0 {
			bounds = box
		} else {
			bounds = bounds.Union(box)
		}
	}
	group := &Element{ID: b.NewID(), Type: TypeGroup, Bounds: &bounds}

	// Insert the group at the first member's index, then move members in
	// order. Each member sits one index further once the group is in place,
	// and removing it shifts the remaining members back by one.
	at := members[0]
	ops := []Operation{InsertNode(Path{at}, group)}
	for i, idx := range members {
		from := idx + 1 - i
		ops = append(ops, MoveNode(Path{from}, Path{at, i}))
	}
	ops = append(ops, SetSelection(b.doc.selection, NewSelection(group.ID)))
	if err := b.Apply(ops, true); err != nil {
		return "", fmt.Errorf("group selection: %w", err)
	}
	b.Emit(Event{Name: EventElementGroupEnd, IDs: []string{group.ID}, Commit: true})
	return group.ID, nil
}

// UngroupSelection dissolves selected top-level groups, lifting their
// children into the group's place.
func UngroupSelection(b *Board) error {
	var groups []int
	for _, id := range b.doc.selection.IDs {
		p, ok := pathForID(b.doc.children, id)
		if ok && len(p) == 1 && b.doc.children[p[0]].Type == TypeGroup {
			groups = append(groups, p[0])
		}
	}
	if len(groups) == 0 {
		return nil
	}
	// Last group first so indices of earlier groups are unaffected.
	sort.Sort(sort.Reverse(sort.IntSlice(groups)))

	var ops []Operation
	var lifted []string
	for _, gi := range groups {
		g := b.doc.children[gi]
		n := len(g.Children)
		// Move the last child out first to just after the group; each
		// earlier child then lands in front of it.
		for c := n - 1; c >= 0; c-- {
			ops = append(ops, MoveNode(Path{gi, c}, Path{gi + 1}))
			lifted = append(lifted, g.Children[c].ID)
		}
		ops = append(ops, RemoveNode(Path{gi}, &Element{ID: g.ID, Type: g.Type, Bounds: g.Bounds, Style: g.Style, Text: g.Text}))
	}
	ops = append(ops, SetSelection(b.doc.selection, NewSelection(lifted...)))
	if err := b.Apply(ops, true); err != nil {
		return fmt.Errorf("ungroup selection: %w", err)
	}
	b.Emit(Event{Name: EventElementUngroupEnd, IDs: lifted, Commit: true})
	return nil
}

// ZoomAt returns the set_viewport operation that scales the viewport by
// factor while keeping the document point under (clientX, clientY) fixed.
func ZoomAt(b *Board, clientX, clientY, factor float64) (Operation, bool) {
	anchor, ok := ScreenToViewport(b, clientX, clientY)
	if !ok || factor <= 0 {
		return Operation{}, false
	}
	old := b.doc.viewport
	next := old
	next.Zoom = clamp(old.Zoom*factor, minZoom, maxZoom)
	next.MinX = anchor.X - (clientX-b.surface.X)/next.Zoom
	next.MinY = anchor.Y - (clientY-b.surface.Y)/next.Zoom
	next = fitViewport(next, b.surface)
	return SetViewport(old, next), true
}

const (
	minZoom = 0.1
	maxZoom = 8
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// comparePaths orders paths in document order.
func comparePaths(a, b Path) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
