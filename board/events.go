package board

import "strings"

// Event names emitted by the board and its plugins. Names ending in "-end"
// are terminal: they mark the end of a gesture or command and are what
// persistence listens to.
const (
	EventBoardChange     = "board:change"
	EventSelectionChange = "selection:change"
	EventViewportChange  = "viewport:change"

	EventElementMove       = "element:move"
	EventElementMoveEnd    = "element:move-end"
	EventElementResize     = "element:resize"
	EventElementResizeEnd  = "element:resize-end"
	EventElementCreate     = "element:create"
	EventElementCreateEnd  = "element:create-end"
	EventElementConnect    = "element:connect"
	EventElementConnectEnd = "element:connect-end"
	EventElementRemoveEnd  = "element:remove-end"
	EventElementEditEnd    = "element:edit-end"
	EventElementPasteEnd   = "element:paste-end"
	EventElementGroupEnd   = "element:group-end"
	EventElementUngroupEnd = "element:ungroup-end"
	EventTransferEnd       = "element:transfer-end"
	EventSelectEnd         = "selection:select-end"
	EventViewportPan       = "viewport:pan"
	EventViewportPanEnd    = "viewport:pan-end"
	EventUndoEnd           = "history:undo-end"
	EventRedoEnd           = "history:redo-end"

	// AllEvents subscribes a handler to every event.
	AllEvents = "*"
)

// Event is delivered synchronously to subscribers after the state it
// describes has been applied.
type Event struct {
	Name string
	// IDs lists the elements the event is about, when it is about elements.
	IDs []string
	// Commit is true when the triggering apply was committed.
	Commit bool
	Data   any
}

// IsTerminal reports whether the event closes a gesture or command.
func (e Event) IsTerminal() bool {
	return strings.HasSuffix(e.Name, "-end")
}

type Handler func(Event)

type subscription struct {
	id   uint32
	name string
	fn   Handler
}

type emitter struct {
	subs   []subscription
	nextID uint32
}

func (em *emitter) subscribe(name string, fn Handler) func() {
	em.nextID++
	id := em.nextID
	em.subs = append(em.subs, subscription{id: id, name: name, fn: fn})
	return func() {
		for i := range em.subs {
			if em.subs[i].id == id {
				copy(em.subs[i:], em.subs[i+1:])
				em.subs[len(em.subs)-1] = subscription{}
				em.subs = em.subs[:len(em.subs)-1]
				return
			}
		}
	}
}

func (em *emitter) emit(ev Event) {
	// Handlers may unsubscribe while we iterate.
	subs := append([]subscription(nil), em.subs...)
	for _, s := range subs {
		if s.name == AllEvents || s.name == ev.Name {
			s.fn(ev)
		}
	}
}
