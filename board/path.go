package board

import (
	"fmt"
	"strings"
)

// Path locates an element in the tree by child indices from the root. A
// path is only meaningful for the tree it was computed against; any
// mutation may invalidate it.
type Path []int

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = fmt.Sprint(idx)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether p is a strict prefix of o.
func (p Path) IsAncestorOf(o Path) bool {
	if len(p) >= len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Parent returns the path of the containing node. The root's children have
// an empty parent path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return append(Path(nil), p[:len(p)-1]...)
}

// Last returns the index within the parent's children.
func (p Path) Last() int {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1]
}

func (p Path) clone() Path {
	return append(Path(nil), p...)
}

// PathForElement returns the current path of el inside b. Elements are
// matched by ID so the lookup survives tree clones. The second result is
// false when the element is no longer part of the tree.
func PathForElement(b *Board, el *Element) (Path, bool) {
	if b == nil || el == nil {
		return nil, false
	}
	return pathForID(b.doc.children, el.ID)
}

// PathForID is PathForElement for callers that only hold an id.
func PathForID(b *Board, id string) (Path, bool) {
	if b == nil {
		return nil, false
	}
	return pathForID(b.doc.children, id)
}

// NodeAt resolves a path against the board's current tree.
func NodeAt(b *Board, p Path) (*Element, bool) {
	if b == nil {
		return nil, false
	}
	return nodeAt(b.doc.children, p)
}

func pathForID(children []*Element, id string) (Path, bool) {
	for i, child := range children {
		if child.ID == id {
			return Path{i}, true
		}
		if sub, ok := pathForID(child.Children, id); ok {
			return append(Path{i}, sub...), true
		}
	}
	return nil, false
}

func nodeAt(children []*Element, p Path) (*Element, bool) {
	if len(p) == 0 {
		return nil, false
	}
	var node *Element
	for _, idx := range p {
		if idx < 0 || idx >= len(children) {
			return nil, false
		}
		node = children[idx]
		children = node.Children
	}
	return node, true
}

// childrenAt returns the children slice addressed by a parent path. An empty
// path is the root. ok is false if the parent does not exist or cannot hold
// children.
func (d *document) childrenAt(parent Path) ([]*Element, *Element, bool) {
	if len(parent) == 0 {
		return d.children, nil, true
	}
	node, ok := nodeAt(d.children, parent)
	if !ok || !node.Type.IsContainer() {
		return nil, nil, false
	}
	return node.Children, node, true
}

func (d *document) setChildrenAt(parent Path, owner *Element, children []*Element) {
	if len(parent) == 0 {
		d.children = children
		return
	}
	owner.Children = children
}
