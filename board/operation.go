package board

import "fmt"

// OpType tags the variant carried by an Operation.
type OpType string

const (
	OpSetNode      OpType = "set_node"
	OpInsertNode   OpType = "insert_node"
	OpRemoveNode   OpType = "remove_node"
	OpMoveNode     OpType = "move_node"
	OpSetSelection OpType = "set_selection"
	OpSetViewport  OpType = "set_viewport"
)

func (t OpType) String() string {
	return string(t)
}

// Properties is the mergeable subset of an element's fields. Nil fields are
// left untouched by set_node. A Binding with an empty ElementID clears the
// endpoint binding.
type Properties struct {
	Bounds *Rect    `yaml:"bounds,omitempty"`
	Points []Point  `yaml:"points,omitempty"`
	Start  *Binding `yaml:"start,omitempty"`
	End    *Binding `yaml:"end,omitempty"`
	Text   *string  `yaml:"text,omitempty"`
	Style  *Style   `yaml:"style,omitempty"`
}

func (p *Properties) empty() bool {
	return p == nil || (p.Bounds == nil && p.Points == nil && p.Start == nil &&
		p.End == nil && p.Text == nil && p.Style == nil)
}

// Operation is one serializable state change. Every variant carries both the
// old and the new state so Inverse never needs to consult the board.
type Operation struct {
	Type OpType `yaml:"type"`

	// Node addressing. NewPath is only used by move_node and is interpreted
	// against the tree after the node was removed from Path.
	Path    Path `yaml:"path,omitempty"`
	NewPath Path `yaml:"new_path,omitempty"`

	// insert_node / remove_node payload.
	Node *Element `yaml:"node,omitempty"`

	// set_node
	Properties    *Properties `yaml:"properties,omitempty"`
	NewProperties *Properties `yaml:"new_properties,omitempty"`

	// set_selection
	Selection    *Selection `yaml:"selection,omitempty"`
	NewSelection *Selection `yaml:"new_selection,omitempty"`

	// set_viewport
	Viewport    *Viewport `yaml:"viewport,omitempty"`
	NewViewport *Viewport `yaml:"new_viewport,omitempty"`
}

func SetNode(path Path, old, updated Properties) Operation {
	return Operation{Type: OpSetNode, Path: path.clone(), Properties: &old, NewProperties: &updated}
}

func InsertNode(path Path, node *Element) Operation {
	return Operation{Type: OpInsertNode, Path: path.clone(), Node: node.Clone()}
}

func RemoveNode(path Path, node *Element) Operation {
	return Operation{Type: OpRemoveNode, Path: path.clone(), Node: node.Clone()}
}

func MoveNode(from, to Path) Operation {
	return Operation{Type: OpMoveNode, Path: from.clone(), NewPath: to.clone()}
}

func SetSelection(old, updated Selection) Operation {
	o, n := old.clone(), updated.clone()
	return Operation{Type: OpSetSelection, Selection: &o, NewSelection: &n}
}

func SetViewport(old, updated Viewport) Operation {
	return Operation{Type: OpSetViewport, Viewport: &old, NewViewport: &updated}
}

// Inverse returns the operation that undoes o.
func (o Operation) Inverse() Operation {
	switch o.Type {
	case OpSetNode:
		return Operation{Type: OpSetNode, Path: o.Path.clone(), Properties: o.NewProperties, NewProperties: o.Properties}
	case OpInsertNode:
		return Operation{Type: OpRemoveNode, Path: o.Path.clone(), Node: o.Node}
	case OpRemoveNode:
		return Operation{Type: OpInsertNode, Path: o.Path.clone(), Node: o.Node}
	case OpMoveNode:
		return Operation{Type: OpMoveNode, Path: o.NewPath.clone(), NewPath: o.Path.clone()}
	case OpSetSelection:
		return Operation{Type: OpSetSelection, Selection: o.NewSelection, NewSelection: o.Selection}
	case OpSetViewport:
		return Operation{Type: OpSetViewport, Viewport: o.NewViewport, NewViewport: o.Viewport}
	}
	return o
}

func (o Operation) String() string {
	switch o.Type {
	case OpMoveNode:
		return fmt.Sprintf("%s %s -> %s", o.Type, o.Path, o.NewPath)
	case OpSetSelection, OpSetViewport:
		return o.Type.String()
	}
	return fmt.Sprintf("%s %s", o.Type, o.Path)
}

// invertBatch returns the batch that undoes ops, in reverse order.
func invertBatch(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[len(ops)-1-i] = op.Inverse()
	}
	return out
}

// viewportOnly reports whether a batch only pans or zooms.
func viewportOnly(ops []Operation) bool {
	for _, op := range ops {
		if op.Type != OpSetViewport {
			return false
		}
	}
	return len(ops) > 0
}
