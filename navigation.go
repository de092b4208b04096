package main

import "flermboard/board"

// handlePan scrolls the viewport by speed cells. The document moves with
// the arrow key, so the view moves the opposite way.
func (m *model) handlePan(key string, speed int) {
	b := m.board()
	vp := b.Viewport()
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	dx := float64(speed) * m.term.CellWidth / zoom
	dy := float64(speed) * m.term.CellHeight / zoom

	next := vp
	switch key {
	case "left", "shift+left":
		next.MinX -= dx
	case "right", "shift+right":
		next.MinX += dx
	case "up", "shift+up":
		next.MinY -= dy
	case "down", "shift+down":
		next.MinY += dy
	default:
		return
	}
	if err := b.ApplyOne(board.SetViewport(vp, next), true); err != nil {
		m.fail(err)
		return
	}
	b.Emit(board.Event{Name: board.EventViewportPanEnd, Commit: true})
}

// getMoveSpeed returns how many cells a navigation key pans, or 0 for keys
// that do not navigate.
func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "shift+left", "shift+right", "shift+up", "shift+down":
		return 4
	case "left", "right", "up", "down":
		return 1
	default:
		return 0
	}
}
