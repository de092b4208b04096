package board

import "errors"

var (
	// ErrInvalidPath marks an operation whose path no longer resolves. Such
	// operations are skipped, not fatal to the batch.
	ErrInvalidPath = errors.New("path does not resolve")

	// ErrIllegalReparent rejects a move_node whose destination lies inside
	// the moved subtree.
	ErrIllegalReparent = errors.New("cannot move a node into its own subtree")

	// ErrMalformedOperation rejects operations that would break a tree
	// invariant (missing payload, duplicate id, wrong geometry for type).
	ErrMalformedOperation = errors.New("malformed operation")

	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrNotFound      = errors.New("element not found")
)
