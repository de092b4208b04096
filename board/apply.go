package board

import (
	"errors"
	"fmt"
)

// document is the state owned by a Board: the element tree, the selection
// and the viewport. Apply works on a clone and swaps it in whole.
type document struct {
	children  []*Element
	selection Selection
	viewport  Viewport
}

func (d *document) clone() *document {
	return &document{
		children:  cloneElements(d.children),
		selection: d.selection.clone(),
		viewport:  d.viewport,
	}
}

func (d *document) contains(id string) bool {
	_, ok := pathForID(d.children, id)
	return ok
}

// applyBatch applies ops in order. It returns the operations that took
// effect, normalized so their old state reflects the tree they were applied
// to. Operations with stale paths are reported through skip and left out.
// Any other error aborts the batch; the caller must discard d.
func (d *document) applyBatch(ops []Operation, skip func(Operation, error)) ([]Operation, error) {
	applied := make([]Operation, 0, len(ops))
	for i, op := range ops {
		done, err := d.apply(op)
		if errors.Is(err, ErrInvalidPath) {
			if skip != nil {
				skip(op, err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op, err)
		}
		applied = append(applied, done)
	}
	return applied, nil
}

func (d *document) apply(op Operation) (Operation, error) {
	switch op.Type {
	case OpSetNode:
		return d.setNode(op)
	case OpInsertNode:
		return d.insertNode(op)
	case OpRemoveNode:
		return d.removeNode(op)
	case OpMoveNode:
		return d.moveNode(op)
	case OpSetSelection:
		return d.setSelection(op)
	case OpSetViewport:
		return d.setViewport(op)
	}
	return Operation{}, fmt.Errorf("%w: unknown type %q", ErrMalformedOperation, op.Type)
}

func (d *document) setNode(op Operation) (Operation, error) {
	if op.NewProperties == nil {
		return Operation{}, fmt.Errorf("%w: set_node without properties", ErrMalformedOperation)
	}
	node, ok := nodeAt(d.children, op.Path)
	if !ok {
		return Operation{}, fmt.Errorf("set_node %s: %w", op.Path, ErrInvalidPath)
	}
	p := op.NewProperties
	if node.Type.IsArrowFamily() && p.Bounds != nil {
		return Operation{}, fmt.Errorf("%w: bounds on %s element %s", ErrMalformedOperation, node.Type, node.ID)
	}
	if !node.Type.IsArrowFamily() && (p.Points != nil || p.Start != nil || p.End != nil) {
		return Operation{}, fmt.Errorf("%w: points on %s element %s", ErrMalformedOperation, node.Type, node.ID)
	}
	old := captureProperties(node, *p)
	mergeProperties(node, *p)
	return SetNode(op.Path, old, *p), nil
}

func (d *document) insertNode(op Operation) (Operation, error) {
	if op.Node == nil || op.Node.ID == "" {
		return Operation{}, fmt.Errorf("%w: insert_node without node", ErrMalformedOperation)
	}
	if len(op.Path) == 0 {
		return Operation{}, fmt.Errorf("%w: insert_node at root path", ErrMalformedOperation)
	}
	if err := d.checkInsertable(op.Node, map[string]bool{}); err != nil {
		return Operation{}, err
	}
	parent := op.Path.Parent()
	children, owner, ok := d.childrenAt(parent)
	idx := op.Path.Last()
	if !ok || idx < 0 || idx > len(children) {
		return Operation{}, fmt.Errorf("insert_node %s: %w", op.Path, ErrInvalidPath)
	}
	d.setChildrenAt(parent, owner, insertAt(children, idx, op.Node.Clone()))
	return InsertNode(op.Path, op.Node), nil
}

func (d *document) checkInsertable(el *Element, seen map[string]bool) error {
	if !el.validGeometry() {
		return fmt.Errorf("%w: invalid geometry for %s element %s", ErrMalformedOperation, el.Type, el.ID)
	}
	if seen[el.ID] || d.contains(el.ID) {
		return fmt.Errorf("%w: duplicate id %s", ErrMalformedOperation, el.ID)
	}
	seen[el.ID] = true
	for _, c := range el.Children {
		if err := d.checkInsertable(c, seen); err != nil {
			return err
		}
	}
	return nil
}

func (d *document) removeNode(op Operation) (Operation, error) {
	node, ok := nodeAt(d.children, op.Path)
	if !ok {
		return Operation{}, fmt.Errorf("remove_node %s: %w", op.Path, ErrInvalidPath)
	}
	if op.Node != nil && op.Node.ID != node.ID {
		// The caller meant a different node; the tree moved underneath it.
		return Operation{}, fmt.Errorf("remove_node %s holds %s, want %s: %w", op.Path, node.ID, op.Node.ID, ErrInvalidPath)
	}
	parent := op.Path.Parent()
	children, owner, _ := d.childrenAt(parent)
	d.setChildrenAt(parent, owner, removeAt(children, op.Path.Last()))
	return RemoveNode(op.Path, node), nil
}

func (d *document) moveNode(op Operation) (Operation, error) {
	if len(op.Path) == 0 || len(op.NewPath) == 0 {
		return Operation{}, fmt.Errorf("%w: move_node needs both paths", ErrMalformedOperation)
	}
	if op.Path.IsAncestorOf(op.NewPath) {
		return Operation{}, fmt.Errorf("move_node %s -> %s: %w", op.Path, op.NewPath, ErrIllegalReparent)
	}
	node, ok := nodeAt(d.children, op.Path)
	if !ok {
		return Operation{}, fmt.Errorf("move_node %s: %w", op.Path, ErrInvalidPath)
	}
	from := op.Path.Parent()
	children, owner, _ := d.childrenAt(from)
	d.setChildrenAt(from, owner, removeAt(children, op.Path.Last()))

	// The destination is resolved against the tree without the node.
	to := op.NewPath.Parent()
	dest, destOwner, ok := d.childrenAt(to)
	idx := op.NewPath.Last()
	if !ok || idx < 0 || idx > len(dest) {
		children, owner, _ = d.childrenAt(from)
		d.setChildrenAt(from, owner, insertAt(children, op.Path.Last(), node))
		return Operation{}, fmt.Errorf("move_node target %s: %w", op.NewPath, ErrInvalidPath)
	}
	d.setChildrenAt(to, destOwner, insertAt(dest, idx, node))
	return MoveNode(op.Path, op.NewPath), nil
}

func (d *document) setSelection(op Operation) (Operation, error) {
	if op.NewSelection == nil {
		return Operation{}, fmt.Errorf("%w: set_selection without selection", ErrMalformedOperation)
	}
	old := d.selection.clone()
	next := op.NewSelection.clone()
	next.IDs = next.IDs[:0]
	for _, id := range op.NewSelection.IDs {
		if d.contains(id) && !next.Contains(id) {
			next.IDs = append(next.IDs, id)
		}
	}
	d.selection = next
	return SetSelection(old, next), nil
}

func (d *document) setViewport(op Operation) (Operation, error) {
	if op.NewViewport == nil || op.NewViewport.Zoom <= 0 {
		return Operation{}, fmt.Errorf("%w: set_viewport needs a positive zoom", ErrMalformedOperation)
	}
	old := d.viewport
	d.viewport = *op.NewViewport
	return SetViewport(old, d.viewport), nil
}

// pruneSelection drops ids that are no longer in the tree.
func (d *document) pruneSelection() {
	kept := d.selection.IDs[:0]
	for _, id := range d.selection.IDs {
		if d.contains(id) {
			kept = append(kept, id)
		}
	}
	d.selection.IDs = kept
}

func captureProperties(el *Element, p Properties) Properties {
	var old Properties
	if p.Bounds != nil {
		if el.Bounds != nil {
			b := *el.Bounds
			old.Bounds = &b
		} else {
			old.Bounds = &Rect{}
		}
	}
	if p.Points != nil {
		old.Points = append([]Point{}, el.Points...)
	}
	if p.Start != nil {
		old.Start = captureBinding(el.Start)
	}
	if p.End != nil {
		old.End = captureBinding(el.End)
	}
	if p.Text != nil {
		t := el.Text
		old.Text = &t
	}
	if p.Style != nil {
		s := el.Style
		old.Style = &s
	}
	return old
}

func captureBinding(b *Binding) *Binding {
	if b == nil {
		return &Binding{}
	}
	c := *b
	return &c
}

// mergeProperties shallow-merges the non-nil fields of p onto el.
func mergeProperties(el *Element, p Properties) {
	if p.Bounds != nil {
		b := *p.Bounds
		el.Bounds = &b
	}
	if p.Points != nil {
		el.Points = append([]Point(nil), p.Points...)
	}
	if p.Start != nil {
		el.Start = mergeBinding(p.Start)
	}
	if p.End != nil {
		el.End = mergeBinding(p.End)
	}
	if p.Text != nil {
		el.Text = *p.Text
	}
	if p.Style != nil {
		el.Style = *p.Style
	}
}

func mergeBinding(b *Binding) *Binding {
	if b.ElementID == "" {
		return nil
	}
	c := *b
	return &c
}

func insertAt(s []*Element, idx int, el *Element) []*Element {
	s = append(s, nil)
	copy(s[idx+1:], s[idx:])
	s[idx] = el
	return s
}

func removeAt(s []*Element, idx int) []*Element {
	out := make([]*Element, 0, len(s)-1)
	out = append(out, s[:idx]...)
	return append(out, s[idx+1:]...)
}
