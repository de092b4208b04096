package main

import "flermboard/plugins"

// startNudge enters the keyboard move or resize mode for the selection.
func (m *model) startNudge(resize bool) {
	b := m.board()
	var (
		n  *plugins.Nudge
		ok bool
	)
	if resize {
		n, ok = plugins.BeginResize(b, m.cfg.MinSize)
	} else {
		n, ok = plugins.BeginMove(b)
	}
	if !ok {
		if resize {
			m.successMessage = "Select one shape to resize"
		} else {
			m.successMessage = "Nothing selected"
		}
		return
	}
	m.nudge = n
	m.mode = ModeMove
	if resize {
		m.mode = ModeResize
	}
}

// finishNudge commits the keyboard move or resize.
func (m *model) finishNudge() {
	if m.nudge == nil {
		m.mode = ModeNormal
		return
	}
	if err := m.nudge.Commit(m.board()); err != nil {
		m.fail(err)
	}
	m.nudge = nil
	m.mode = ModeNormal
}

// nudgeStep maps a key to a step in cells. Shifted keys step two cells.
func nudgeStep(key string) (int, int, bool) {
	switch key {
	case "h", "left":
		return -1, 0, true
	case "H", "shift+left":
		return -2, 0, true
	case "l", "right":
		return 1, 0, true
	case "L", "shift+right":
		return 2, 0, true
	case "k", "up":
		return 0, -1, true
	case "K", "shift+up":
		return 0, -2, true
	case "j", "down":
		return 0, 1, true
	case "J", "shift+down":
		return 0, 2, true
	}
	return 0, 0, false
}
