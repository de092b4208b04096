package board

import (
	"fmt"
	"slices"
)

// Transfer moves the element id from src into dst at path to, as one
// logical operation across both boards. The destination insert happens
// first; the source is only changed once the insert succeeded, and the
// insert is reverted if the removal fails. A reverted insert leaves no
// trace in the destination's history. Either both boards change or neither
// does.
func Transfer(src, dst *Board, id string, to Path) error {
	from, ok := pathForID(src.doc.children, id)
	if !ok {
		return fmt.Errorf("transfer %s: %w", id, ErrNotFound)
	}
	node, _ := nodeAt(src.doc.children, from)
	mark := dst.markHistory()
	if err := dst.ApplyOne(InsertNode(to, node), true); err != nil {
		return fmt.Errorf("transfer %s: insert into destination: %w", id, err)
	}
	if _, landed := dst.Find(id); !landed {
		// The insert was skipped because the destination path is stale.
		dst.restoreHistory(mark)
		return fmt.Errorf("transfer %s to %s: %w", id, to, ErrInvalidPath)
	}

	ops := []Operation{RemoveNode(from, node)}
	if src.doc.selection.Contains(id) {
		ops = append([]Operation{SetSelection(src.doc.selection, src.doc.selection.Toggle(id))}, ops...)
	}
	if err := src.Apply(ops, true); err != nil {
		if rerr := dst.revertTo(mark); rerr != nil {
			dst.log.Error("transfer rollback failed", "id", id, "error", rerr)
		}
		return fmt.Errorf("transfer %s: remove from source: %w", id, err)
	}
	if _, still := src.Find(id); still {
		if rerr := dst.revertTo(mark); rerr != nil {
			dst.log.Error("transfer rollback failed", "id", id, "error", rerr)
		}
		return fmt.Errorf("transfer %s: source removal skipped: %w", id, ErrInvalidPath)
	}
	src.Emit(Event{Name: EventTransferEnd, IDs: []string{id}, Commit: true})
	dst.Emit(Event{Name: EventTransferEnd, IDs: []string{id}, Commit: true})
	return nil
}

// historyMark is a copy of a board's undo and redo stacks.
type historyMark struct {
	undos [][]Operation
	redos [][]Operation
}

func (b *Board) markHistory() historyMark {
	return historyMark{undos: slices.Clone(b.history.undos), redos: slices.Clone(b.history.redos)}
}

func (b *Board) restoreHistory(m historyMark) {
	b.history.undos, b.history.redos = m.undos, m.redos
	b.metrics.historyDepth(len(b.history.undos))
}

// revertTo reverts the batch committed since m was taken and restores both
// history stacks to m, so the reverted batch can not be redone.
func (b *Board) revertTo(m historyMark) error {
	b.CancelPreview()
	batch, ok := b.history.popUndo()
	if !ok {
		return ErrNothingToUndo
	}
	if err := b.replay(invertBatch(batch)); err != nil {
		b.history.undos = append(b.history.undos, batch)
		return err
	}
	b.restoreHistory(m)
	return nil
}
