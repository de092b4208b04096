package main

import (
	"context"
	"fmt"
	"slices"

	"flermboard/board"
)

// newSession opens arg for a buffer, in the shared database when there is
// one.
func (m *model) newSession(arg string) (*session, error) {
	ctx := context.Background()
	if m.db != nil {
		return openSessionIn(ctx, m.db, m.cfg, arg, m.log, m.metrics)
	}
	return openSession(ctx, m.cfg, arg, m.log, m.metrics)
}

// addBuffer appends s and makes it the current buffer.
func (m *model) addBuffer(s *session) {
	m.buffers = append(m.buffers, s)
	m.switchBuffer(len(m.buffers) - 1)
}

// switchBuffer makes buffer i current, wrapping around at either end.
func (m *model) switchBuffer(i int) {
	n := len(m.buffers)
	if n == 0 {
		return
	}
	m.releasePointer()
	m.current = ((i % n) + n) % n
	m.sess = m.buffers[m.current]
	m.mount()
}

// releasePointer ends a gesture whose release the terminal has not
// reported yet.
func (m *model) releasePointer() {
	if !m.pressed {
		return
	}
	cx, cy := m.client(m.cursorX, m.cursorY)
	m.board().PointerUp(board.PointerEvent{ClientX: cx, ClientY: cy})
	m.pressed = false
}

// closeBuffer closes the current buffer. Closing the last one leaves an
// empty board behind.
func (m *model) closeBuffer() {
	old := m.sess
	if len(m.buffers) == 1 {
		next, err := m.newSession("")
		if err != nil {
			m.fail(err)
			return
		}
		m.releasePointer()
		m.buffers = []*session{next}
		m.current = 0
		m.sess = next
		m.mount()
	} else {
		idx := m.current
		m.releasePointer()
		m.buffers = slices.Delete(m.buffers, idx, idx+1)
		m.switchBuffer(max(idx-1, 0))
	}
	if err := old.close(); err != nil {
		m.log.Warn("closing buffer", "error", err)
	}
	m.successMessage = "Closed buffer"
}

// transferSelection moves the selected elements to the top of the next
// buffer. Each element moves atomically; the first failure stops the rest.
func (m *model) transferSelection() {
	if len(m.buffers) < 2 {
		m.successMessage = "Open another buffer first (N or O)"
		return
	}
	src := m.board()
	ids := board.TopmostIDs(src, src.Selection().IDs)
	if len(ids) == 0 {
		m.successMessage = "Nothing selected"
		return
	}
	next := (m.current + 1) % len(m.buffers)
	dst := m.buffers[next].board

	moved := 0
	for _, id := range ids {
		if err := board.Transfer(src, dst, id, board.Path{len(dst.Elements())}); err != nil {
			m.fail(err)
			break
		}
		moved++
	}
	if moved > 0 && m.errorMessage == "" {
		m.successMessage = fmt.Sprintf("Moved %d element(s) to buffer %d", moved, next+1)
	}
}

// bufferLabel names the current buffer for the status line.
func (m model) bufferLabel() string {
	name := m.sess.name
	if name == "" {
		name = "[unsaved]"
	}
	if len(m.buffers) > 1 {
		name = fmt.Sprintf("%s [%d/%d]", name, m.current+1, len(m.buffers))
	}
	return name
}
