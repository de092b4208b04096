package board

const defaultHistoryLimit = 200

// history keeps committed batches. Each entry is a batch normalized at
// apply time, so undo is its inverse.
type history struct {
	undos [][]Operation
	redos [][]Operation
	limit int
}

func (h *history) push(batch []Operation) {
	h.undos = append(h.undos, batch)
	if h.limit > 0 && len(h.undos) > h.limit {
		h.undos = h.undos[len(h.undos)-h.limit:]
	}
	h.redos = h.redos[:0]
}

func (h *history) popUndo() ([]Operation, bool) {
	if len(h.undos) == 0 {
		return nil, false
	}
	last := len(h.undos) - 1
	batch := h.undos[last]
	h.undos = h.undos[:last]
	return batch, true
}

func (h *history) popRedo() ([]Operation, bool) {
	if len(h.redos) == 0 {
		return nil, false
	}
	last := len(h.redos) - 1
	batch := h.redos[last]
	h.redos = h.redos[:last]
	return batch, true
}
