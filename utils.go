package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"gopkg.in/yaml.v3"

	"flermboard/board"
)

const clipVersion = 1

// clipContent is what copy puts on the system clipboard.
type clipContent struct {
	Flerm    int              `yaml:"flerm_clip"`
	Elements []*board.Element `yaml:"elements"`
}

func encodeClip(els []*board.Element) (string, error) {
	data, err := yaml.Marshal(clipContent{Flerm: clipVersion, Elements: els})
	if err != nil {
		return "", fmt.Errorf("encode clipboard: %w", err)
	}
	return string(data), nil
}

// decodeClip reports false for anything that is not a flerm clip.
func decodeClip(text string) ([]*board.Element, bool) {
	if !strings.HasPrefix(strings.TrimSpace(text), "flerm_clip:") {
		return nil, false
	}
	var c clipContent
	if err := yaml.Unmarshal([]byte(text), &c); err != nil || c.Flerm != clipVersion || len(c.Elements) == 0 {
		return nil, false
	}
	if board.ValidateTree(c.Elements) != nil {
		return nil, false
	}
	return c.Elements, true
}

func (m *model) copySelection() {
	b := m.board()
	ids := board.TopmostIDs(b, b.Selection().IDs)
	if len(ids) == 0 {
		m.successMessage = "Nothing selected"
		return
	}
	els := make([]*board.Element, 0, len(ids))
	for _, id := range ids {
		if el, ok := b.Find(id); ok {
			els = append(els, el.Clone())
		}
	}
	text, err := encodeClip(els)
	if err == nil {
		err = m.clip.WriteAll(text)
	}
	if err != nil {
		m.fail(err)
		return
	}
	m.successMessage = fmt.Sprintf("Copied %d element(s)", len(els))
}

// paste inserts copied elements with fresh ids, or plain clipboard text as
// a text element under the mouse.
func (m *model) paste() {
	text, err := m.clip.ReadAll()
	if err != nil {
		m.fail(fmt.Errorf("read clipboard: %w", err))
		return
	}
	b := m.board()
	els, ok := decodeClip(text)
	if !ok {
		text = strings.TrimSpace(cleanClipboardText(text))
		if text == "" {
			m.successMessage = "Clipboard is empty"
			return
		}
		els = []*board.Element{m.textElement(text)}
	} else {
		els = rekey(b, els)
		for _, el := range els {
			shift(el, pasteOffset, pasteOffset)
		}
	}

	base := len(b.Elements())
	ops := make([]board.Operation, 0, len(els)+1)
	ids := make([]string, 0, len(els))
	for i, el := range els {
		ops = append(ops, board.InsertNode(board.Path{base + i}, el))
		ids = append(ids, el.ID)
	}
	ops = append(ops, board.SetSelection(b.Selection(), board.NewSelection(ids...)))
	if err := b.Apply(ops, true); err != nil {
		m.fail(fmt.Errorf("paste: %w", err))
		return
	}
	b.Emit(board.Event{Name: board.EventElementPasteEnd, IDs: ids, Commit: true})
	m.successMessage = fmt.Sprintf("Pasted %d element(s)", len(els))
}

// textElement sizes a text element for text at the mouse position.
func (m *model) textElement(text string) *board.Element {
	b := m.board()
	cx, cy := m.client(m.cursorX, m.cursorY)
	at, ok := board.ScreenToViewport(b, cx, cy)
	if !ok {
		at = board.Point{}
	}
	lines := strings.Split(text, "\n")
	w := 1
	for _, l := range lines {
		w = max(w, len([]rune(l)))
	}
	return &board.Element{
		ID:   b.NewID(),
		Type: board.TypeText,
		Text: text,
		Bounds: &board.Rect{
			X:      at.X,
			Y:      at.Y,
			Width:  float64(w) * m.term.CellWidth,
			Height: float64(len(lines)) * m.term.CellHeight,
		},
	}
}

// rekey gives every pasted element a fresh id. Arrow bindings follow their
// target when it was pasted too and are dropped otherwise.
func rekey(b *board.Board, els []*board.Element) []*board.Element {
	ids := map[string]string{}
	var assign func([]*board.Element)
	assign = func(list []*board.Element) {
		for _, el := range list {
			ids[el.ID] = b.NewID()
			assign(el.Children)
		}
	}
	assign(els)

	rebind := func(bd *board.Binding) *board.Binding {
		if bd == nil {
			return nil
		}
		if id, ok := ids[bd.ElementID]; ok {
			return &board.Binding{ElementID: id}
		}
		return nil
	}
	var apply func([]*board.Element) []*board.Element
	apply = func(list []*board.Element) []*board.Element {
		out := make([]*board.Element, len(list))
		for i, el := range list {
			c := el.Clone()
			c.ID = ids[el.ID]
			c.Start = rebind(el.Start)
			c.End = rebind(el.End)
			c.Children = apply(el.Children)
			out[i] = c
		}
		return out
	}
	return apply(els)
}

func shift(el *board.Element, dx, dy float64) {
	if el.Bounds != nil {
		r := el.Bounds.Translate(dx, dy)
		el.Bounds = &r
	}
	for i := range el.Points {
		el.Points[i] = el.Points[i].Add(dx, dy)
	}
	for _, c := range el.Children {
		shift(c, dx, dy)
	}
}

func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if output, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return string(output), nil
		}
	}
	return clipboard.ReadAll()
}

// cleanClipboardText strips RTF markup and control characters and
// normalizes line endings.
func cleanClipboardText(text string) string {
	if text == "" {
		return text
	}
	text = stripRTF(text)
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			result.WriteRune(r)
		}
	}
	normalized := strings.ReplaceAll(result.String(), "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\r", "\n")
}

func stripRTF(text string) string {
	if !strings.HasPrefix(text, "{\\rtf") && !strings.Contains(text, "\\rtf") {
		return text
	}
	var result strings.Builder
	result.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '{' || r == '}' {
			continue
		}
		if r != '\\' {
			result.WriteRune(r)
			continue
		}
		if i+1 >= len(runes) {
			continue
		}
		next := runes[i+1]
		switch {
		case (next >= 'a' && next <= 'z') || (next >= 'A' && next <= 'Z'):
			// Skip the control word and its optional trailing space.
			j := i + 1
			for j < len(runes) && runes[j] != ' ' && runes[j] != '\\' && runes[j] != '{' && runes[j] != '}' {
				j++
			}
			word := string(runes[i+1 : j])
			if word == "par" || word == "line" {
				result.WriteByte('\n')
			}
			if j < len(runes) && runes[j] == ' ' {
				j++
			}
			i = j - 1
		case next == '\\' || next == '{' || next == '}':
			result.WriteRune(next)
			i++
		}
	}
	return result.String()
}
