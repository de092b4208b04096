package main

import (
	"errors"

	"flermboard/board"
)

func (m *model) undo() {
	err := m.board().Undo()
	switch {
	case errors.Is(err, board.ErrNothingToUndo):
		m.successMessage = "Nothing to undo"
	case err != nil:
		m.fail(err)
	default:
		m.successMessage = "Undone"
	}
}

func (m *model) redo() {
	err := m.board().Redo()
	switch {
	case errors.Is(err, board.ErrNothingToRedo):
		m.successMessage = "Nothing to redo"
	case err != nil:
		m.fail(err)
	default:
		m.successMessage = "Redone"
	}
}
