package board

// Modifiers is the set of modifier keys held during a pointer event.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is one raw input event in client (screen) coordinates.
type PointerEvent struct {
	ClientX   float64
	ClientY   float64
	Button    Button
	Modifiers Modifiers
}

func (e PointerEvent) Has(m Modifiers) bool {
	return e.Modifiers&m != 0
}

// SnapDisabled reports whether the user holds the key that turns off
// alignment snapping.
func (e PointerEvent) SnapDisabled() bool {
	return e.Has(ModAlt)
}

// Plugin is a gesture handler in the board's pipeline. A plugin implements
// any subset of the pointer hook interfaces below.
type Plugin interface {
	Name() string
}

// PointerDownHandler claims a gesture by returning true. A plugin that
// declines must leave its gesture state cleared.
type PointerDownHandler interface {
	OnPointerDown(e PointerEvent, b *Board) bool
}

// PointerMoveHandler is only called on the plugin that owns the gesture.
type PointerMoveHandler interface {
	OnPointerMove(e PointerEvent, b *Board)
}

// PointerUpHandler is only called on the plugin that owns the gesture. It
// must clear all transient state whether or not it commits.
type PointerUpHandler interface {
	OnPointerUp(e PointerEvent, b *Board)
}

// PointerDown offers the gesture to each plugin in order until one claims
// it. It returns the name of the claiming plugin, or "" if none did.
func (b *Board) PointerDown(e PointerEvent) string {
	if b.active != nil {
		// Lost pointer-up: close the held gesture before starting another.
		b.log.Debug("pointer-down during active gesture", "plugin", b.active.Name())
		b.PointerUp(e)
	}
	for _, p := range b.plugins {
		h, ok := p.(PointerDownHandler)
		if !ok {
			continue
		}
		if h.OnPointerDown(e, b) {
			b.active = p
			b.metrics.gesture(p.Name())
			return p.Name()
		}
	}
	return ""
}

func (b *Board) PointerMove(e PointerEvent) {
	if b.active == nil {
		return
	}
	if h, ok := b.active.(PointerMoveHandler); ok {
		h.OnPointerMove(e, b)
	}
}

func (b *Board) PointerUp(e PointerEvent) {
	p := b.active
	if p == nil {
		return
	}
	b.active = nil
	if h, ok := p.(PointerUpHandler); ok {
		h.OnPointerUp(e, b)
	}
	// A plugin that left a preview behind would corrupt the next gesture.
	if b.previewBase != nil {
		b.log.Warn("plugin left an uncommitted preview", "plugin", p.Name())
		b.CancelPreview()
	}
}

// ActivePlugin returns the plugin holding the current gesture, if any.
func (b *Board) ActivePlugin() (Plugin, bool) {
	return b.active, b.active != nil
}
