// Package board holds the whiteboard document engine: the element tree,
// the operation log that mutates it, selection and viewport state, and the
// pointer dispatcher that routes gestures to plugins.
//
// All writes go through Board.Apply. Plugins and commands describe changes
// as Operations; the board applies them atomically, keeps undo history and
// emits events for renderers and persistence.
package board

import (
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Tool is the active pointer mode chosen by the user. Plugins read it to
// decide whether to claim a gesture.
type Tool string

const (
	ToolSelect  Tool = "select"
	ToolHand    Tool = "hand"
	ToolRect    Tool = "rect"
	ToolEllipse Tool = "ellipse"
	ToolText    Tool = "text"
	ToolImage   Tool = "image"
	ToolArrow   Tool = "arrow"
)

type Board struct {
	doc *document

	// previewBase is the committed state underneath an uncommitted preview.
	previewBase *document
	preview     []Operation

	history history
	surface *Surface
	tool    Tool

	plugins []Plugin
	active  Plugin

	events  emitter
	log     *slog.Logger
	metrics *Metrics
	newID   func() string
}

type Option func(*Board)

// WithPlugins sets the ordered plugin pipeline. Earlier plugins get first
// refusal on every pointer-down.
func WithPlugins(plugins ...Plugin) Option {
	return func(b *Board) {
		b.plugins = append([]Plugin(nil), plugins...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Board) {
		b.metrics = m
	}
}

func WithHistoryLimit(n int) Option {
	return func(b *Board) {
		b.history.limit = n
	}
}

// WithElements seeds the tree, e.g. from a loaded snapshot. It bypasses
// history.
func WithElements(els []*Element) Option {
	return func(b *Board) {
		b.doc.children = cloneElements(els)
	}
}

func WithViewport(vp Viewport) Option {
	return func(b *Board) {
		if vp.Zoom > 0 {
			b.doc.viewport = vp
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(b *Board) {
		if fn != nil {
			b.newID = fn
		}
	}
}

func New(opts ...Option) *Board {
	b := &Board{
		doc:     &document{viewport: DefaultViewport()},
		history: history{limit: defaultHistoryLimit},
		tool:    ToolSelect,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mount attaches the board to a drawing surface. Coordinate conversion is
// unavailable until a surface is mounted.
func (b *Board) Mount(s Surface) {
	b.surface = &s
	b.doc.viewport = fitViewport(b.doc.viewport, b.surface)
}

func (b *Board) Unmount() {
	b.surface = nil
}

func (b *Board) Surface() (Surface, bool) {
	if b.surface == nil {
		return Surface{}, false
	}
	return *b.surface, true
}

// Elements returns the top-level elements. Callers must treat the result as
// read-only; it is replaced, not mutated, by the next apply.
func (b *Board) Elements() []*Element {
	return b.doc.children
}

func (b *Board) Selection() Selection {
	return b.doc.selection.clone()
}

func (b *Board) Viewport() Viewport {
	return b.doc.viewport
}

func (b *Board) Tool() Tool {
	return b.tool
}

func (b *Board) SetTool(t Tool) {
	b.tool = t
}

func (b *Board) Logger() *slog.Logger {
	return b.log
}

func (b *Board) Metrics() *Metrics {
	return b.metrics
}

func (b *Board) NewID() string {
	return b.newID()
}

// Find returns the live element with the given id.
func (b *Board) Find(id string) (*Element, bool) {
	p, ok := pathForID(b.doc.children, id)
	if !ok {
		return nil, false
	}
	return nodeAt(b.doc.children, p)
}

// Walk visits every element depth-first in paint order. Returning false
// from fn skips the element's children.
func (b *Board) Walk(fn func(el *Element, p Path) bool) {
	walk(b.doc.children, nil, fn)
}

func walk(children []*Element, prefix Path, fn func(*Element, Path) bool) {
	for i, el := range children {
		p := append(prefix.clone(), i)
		if fn(el, p) {
			walk(el.Children, p, fn)
		}
	}
}

// Count returns the number of elements in the tree, at any depth.
func (b *Board) Count() int {
	n := 0
	b.Walk(func(*Element, Path) bool {
		n++
		return true
	})
	return n
}

func (b *Board) Subscribe(name string, fn Handler) func() {
	return b.events.subscribe(name, fn)
}

func (b *Board) Emit(ev Event) {
	b.events.emit(ev)
}

// ApplyOne is Apply for a single operation.
func (b *Board) ApplyOne(op Operation, commit bool) error {
	return b.Apply([]Operation{op}, commit)
}

// Apply runs a batch of operations as one transaction.
//
// With commit false the batch is a preview: it replaces the previous
// uncommitted preview instead of stacking on it, and nothing is recorded.
// With commit true any preview is discarded, the batch is applied to the
// committed state and recorded as a single undo entry.
//
// Operations whose path no longer resolves are logged and skipped. An
// illegal re-parent or malformed operation rejects the whole batch and
// leaves the board unchanged.
func (b *Board) Apply(ops []Operation, commit bool) error {
	base := b.doc
	if b.previewBase != nil {
		base = b.previewBase
	}
	work := base.clone()
	applied, err := work.applyBatch(ops, b.skip)
	if err != nil {
		b.metrics.rejected()
		b.log.Warn("batch rejected", "ops", len(ops), "commit", commit, "error", err)
		return err
	}
	work.pruneSelection()

	prev := b.doc
	b.doc = work
	if commit {
		b.previewBase = nil
		b.preview = nil
		if len(applied) > 0 && !viewportOnly(applied) {
			b.history.push(applied)
			b.metrics.historyDepth(len(b.history.undos))
		}
	} else {
		b.previewBase = base
		b.preview = applied
	}
	b.metrics.applied(applied, commit)
	b.emitChanges(prev, applied, commit)
	return nil
}

func (b *Board) skip(op Operation, err error) {
	b.metrics.skipped(op)
	b.log.Warn("skipping operation", "op", op.String(), "error", err)
}

// Previewing reports whether an uncommitted preview is applied.
func (b *Board) Previewing() bool {
	return b.previewBase != nil
}

// CancelPreview restores the committed state underneath a preview.
func (b *Board) CancelPreview() {
	if b.previewBase == nil {
		return
	}
	prev := b.doc
	b.doc = b.previewBase
	b.previewBase = nil
	reverted := invertBatch(b.preview)
	b.preview = nil
	b.emitChanges(prev, reverted, false)
}

func (b *Board) CanUndo() bool {
	return len(b.history.undos) > 0
}

func (b *Board) CanRedo() bool {
	return len(b.history.redos) > 0
}

// HistoryLen returns the number of undo entries.
func (b *Board) HistoryLen() int {
	return len(b.history.undos)
}

// Undo reverts the last committed batch.
func (b *Board) Undo() error {
	b.CancelPreview()
	batch, ok := b.history.popUndo()
	if !ok {
		return ErrNothingToUndo
	}
	if err := b.replay(invertBatch(batch)); err != nil {
		b.history.undos = append(b.history.undos, batch)
		return err
	}
	b.history.redos = append(b.history.redos, batch)
	b.metrics.historyDepth(len(b.history.undos))
	b.Emit(Event{Name: EventUndoEnd, IDs: batchIDs(batch), Commit: true})
	return nil
}

// Redo re-applies the last undone batch.
func (b *Board) Redo() error {
	b.CancelPreview()
	batch, ok := b.history.popRedo()
	if !ok {
		return ErrNothingToRedo
	}
	if err := b.replay(batch); err != nil {
		b.history.redos = append(b.history.redos, batch)
		return err
	}
	b.history.undos = append(b.history.undos, batch)
	b.metrics.historyDepth(len(b.history.undos))
	b.Emit(Event{Name: EventRedoEnd, IDs: batchIDs(batch), Commit: true})
	return nil
}

// replay applies a batch outside of history bookkeeping.
func (b *Board) replay(ops []Operation) error {
	work := b.doc.clone()
	var stale error
	applied, err := work.applyBatch(ops, func(op Operation, err error) {
		stale = errors.Join(stale, err)
	})
	if err != nil {
		return err
	}
	if stale != nil {
		// History entries are exact; a stale path means the tree was changed
		// outside of Apply.
		b.log.Error("history replay hit stale paths", "error", stale)
	}
	work.pruneSelection()
	prev := b.doc
	b.doc = work
	b.metrics.applied(applied, true)
	b.emitChanges(prev, applied, true)
	return nil
}

func (b *Board) emitChanges(prev *document, applied []Operation, commit bool) {
	if !prev.selection.Equal(b.doc.selection) {
		b.Emit(Event{Name: EventSelectionChange, IDs: b.doc.selection.IDs, Commit: commit})
	}
	if prev.viewport != b.doc.viewport {
		b.Emit(Event{Name: EventViewportChange, Commit: commit})
	}
	b.Emit(Event{Name: EventBoardChange, IDs: batchIDs(applied), Commit: commit, Data: applied})
}

// batchIDs lists the ids of elements touched by node operations.
func batchIDs(ops []Operation) []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, op := range ops {
		if op.Node != nil {
			add(op.Node.ID)
		}
	}
	return ids
}
