package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flermboard/board"
	"flermboard/internal/config"
	"flermboard/store"
)

type fakeClip struct {
	text string
}

func (c *fakeClip) ReadAll() (string, error) { return c.text, nil }

func (c *fakeClip) WriteAll(text string) error {
	c.text = text
	return nil
}

func newTestModel(t *testing.T, confirm bool) model {
	t.Helper()
	cfg := config.Default()
	cfg.Confirmations = confirm
	cfg.SaveDirectory = t.TempDir()
	log := slog.New(slog.DiscardHandler)

	sess, err := openSession(context.Background(), cfg, "", log, nil)
	require.NoError(t, err)
	t.Cleanup(func() { sess.close() })

	m := initialModel(cfg, sess, nil, log)
	m.clip = &fakeClip{}
	return update(m, tea.WindowSizeMsg{Width: 80, Height: 25})
}

func update(m model, msg tea.Msg) model {
	next, _ := m.Update(msg)
	return next.(model)
}

func key(s string) tea.KeyMsg {
	special := map[string]tea.KeyType{
		"enter":     tea.KeyEnter,
		"esc":       tea.KeyEsc,
		"tab":       tea.KeyTab,
		"ctrl+r":    tea.KeyCtrlR,
		"left":      tea.KeyLeft,
		"right":     tea.KeyRight,
		"backspace": tea.KeyBackspace,
	}
	if kt, ok := special[s]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func mouse(x, y int, action tea.MouseAction) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft}
}

// drag presses at one cell, moves to another and releases there.
func drag(m model, x0, y0, x1, y1 int) model {
	m = update(m, mouse(x0, y0, tea.MouseActionPress))
	m = update(m, mouse(x1, y1, tea.MouseActionMotion))
	return update(m, mouse(x1, y1, tea.MouseActionRelease))
}

// drawRect draws the rect {20,40,64,64} with the rect tool.
func drawRect(t *testing.T, m model) (model, *board.Element) {
	t.Helper()
	m = update(m, key("r"))
	m = drag(m, 2, 2, 10, 6)
	els := m.board().Elements()
	require.NotEmpty(t, els)
	return m, els[len(els)-1]
}

func TestModel_DrawRectWithMouse(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))

	assert.Equal(t, board.TypeRect, el.Type)
	assert.Equal(t, board.Rect{X: 20, Y: 40, Width: 64, Height: 64}, *el.Bounds)
	assert.Equal(t, []string{el.ID}, m.board().Selection().IDs)
	assert.Equal(t, 1, m.board().HistoryLen())
	assert.False(t, m.pressed)
}

func TestModel_MoveAndUndoRedo(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))
	m = update(m, key("v"))
	m = drag(m, 5, 4, 7, 4)

	moved, ok := m.board().Find(el.ID)
	require.True(t, ok)
	assert.Equal(t, 36.0, moved.Bounds.X)

	m = update(m, key("u"))
	moved, _ = m.board().Find(el.ID)
	assert.Equal(t, 20.0, moved.Bounds.X)
	assert.Equal(t, "Undone", m.successMessage)

	m = update(m, key("ctrl+r"))
	moved, _ = m.board().Find(el.ID)
	assert.Equal(t, 36.0, moved.Bounds.X)

	m = update(m, key("ctrl+r"))
	assert.Equal(t, "Nothing to redo", m.successMessage)
}

func TestModel_ReleaseWithoutPressIsIgnored(t *testing.T) {
	m := newTestModel(t, false)
	m = update(m, mouse(3, 3, tea.MouseActionRelease))
	assert.Zero(t, m.board().HistoryLen())

	m = update(m, mouse(3, 30, tea.MouseActionPress))
	assert.False(t, m.pressed, "presses on the status line do not start gestures")
}

func TestModel_EditText(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))

	m = update(m, key("enter"))
	require.Equal(t, ModeTextInput, m.mode)
	m = update(m, key("h"))
	m = update(m, key("i"))
	cur, _ := m.board().Find(el.ID)
	assert.Equal(t, "hi", cur.Text, "typing previews the text")
	assert.True(t, m.board().Previewing())
	assert.Equal(t, 1, m.board().HistoryLen())

	m = update(m, key("enter"))
	assert.Equal(t, ModeNormal, m.mode)
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, "hi", cur.Text)
	assert.Equal(t, 2, m.board().HistoryLen())

	m = update(m, key("enter"))
	m = update(m, key("backspace"))
	m = update(m, key("esc"))
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, "hi", cur.Text, "esc discards the edit")
	assert.False(t, m.board().Previewing())
	assert.Equal(t, 2, m.board().HistoryLen())
}

func TestModel_CopyPasteSelection(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))
	m = update(m, key("y"))
	assert.Contains(t, m.clip.(*fakeClip).text, "flerm_clip: 1")

	m = update(m, key("p"))
	els := m.board().Elements()
	require.Len(t, els, 2)
	pasted := els[1]
	assert.NotEqual(t, el.ID, pasted.ID)
	assert.Equal(t, board.Rect{X: 36, Y: 56, Width: 64, Height: 64}, *pasted.Bounds)
	assert.Equal(t, []string{pasted.ID}, m.board().Selection().IDs)

	m = update(m, key("u"))
	assert.Len(t, m.board().Elements(), 1)
}

func TestModel_PastePlainText(t *testing.T) {
	m := newTestModel(t, false)
	m.clip.(*fakeClip).text = "{\\rtf1\\ansi hello\\par world}"
	m = update(m, mouse(4, 2, tea.MouseActionMotion))
	m = update(m, key("p"))

	els := m.board().Elements()
	require.Len(t, els, 1)
	assert.Equal(t, board.TypeText, els[0].Type)
	assert.Equal(t, "hello\nworld", els[0].Text)
	assert.Equal(t, board.Rect{X: 36, Y: 40, Width: 40, Height: 32}, *els[0].Bounds)
}

func TestRekey_RebindsPastedTargets(t *testing.T) {
	b := board.New(board.WithIDGenerator(func() func() string {
		n := 0
		return func() string {
			n++
			return "n" + string(rune('0'+n))
		}
	}()))
	els := []*board.Element{
		{ID: "r", Type: board.TypeRect, Bounds: &board.Rect{Width: 10, Height: 10}},
		{ID: "a", Type: board.TypeArrow, Points: []board.Point{{}, {X: 5}},
			Start: &board.Binding{ElementID: "r"}, End: &board.Binding{ElementID: "elsewhere"}},
	}
	out := rekey(b, els)
	assert.Equal(t, "n1", out[0].ID)
	assert.Equal(t, "n2", out[1].ID)
	assert.Equal(t, "n1", out[1].Start.ElementID)
	assert.Nil(t, out[1].End)
	assert.Equal(t, "r", els[0].ID, "originals are untouched")
}

func TestDecodeClip(t *testing.T) {
	_, ok := decodeClip("just some text")
	assert.False(t, ok)
	_, ok = decodeClip("flerm_clip: 1\nelements: []\n")
	assert.False(t, ok)

	text, err := encodeClip([]*board.Element{{ID: "x", Type: board.TypeRect, Bounds: &board.Rect{Width: 1, Height: 1}}})
	require.NoError(t, err)
	els, ok := decodeClip(text)
	require.True(t, ok)
	assert.Equal(t, "x", els[0].ID)
}

func TestModel_MindMap(t *testing.T) {
	m, root := drawRect(t, newTestModel(t, false))

	m = update(m, key("tab"))
	require.Equal(t, ModeTextInput, m.mode)
	m = update(m, key("esc"))
	kids := mindMapChildren(m.board(), root.ID)
	require.Len(t, kids, 1)
	assert.Equal(t, board.Rect{X: 116, Y: 40, Width: 64, Height: 64}, *kids[0].Bounds)

	b := m.board()
	require.NoError(t, b.ApplyOne(board.SetSelection(b.Selection(), board.NewSelection(root.ID)), true))
	m = update(m, key("tab"))
	m = update(m, key("esc"))
	m = update(m, key("n"))
	m = update(m, key("esc"))

	kids = mindMapChildren(m.board(), root.ID)
	require.Len(t, kids, 3)
	assert.Equal(t, 120.0, kids[1].Bounds.Y)
	assert.Equal(t, 200.0, kids[2].Bounds.Y)
	parent, ok := mindMapParent(m.board(), kids[2].ID)
	require.True(t, ok)
	assert.Equal(t, root.ID, parent.ID)
	assert.Equal(t, 7, m.board().Count())
}

func TestModel_DeleteNeedsConfirmation(t *testing.T) {
	m, _ := drawRect(t, newTestModel(t, true))

	m = update(m, key("d"))
	require.Equal(t, ModeConfirm, m.mode)
	m = update(m, key("n"))
	assert.Equal(t, 1, m.board().Count())

	m = update(m, key("d"))
	m = update(m, key("y"))
	assert.Zero(t, m.board().Count())
	assert.Equal(t, ModeNormal, m.mode)
}

func TestModel_QuitConfirmsUnsavedBoard(t *testing.T) {
	m := newTestModel(t, true)
	_, cmd := m.Update(key("q"))
	assert.NotNil(t, cmd, "an empty board quits at once")

	m, _ = drawRect(t, m)
	next, cmd := m.Update(key("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, ModeConfirm, next.(model).mode)
}

func TestModel_PanAndZoom(t *testing.T) {
	m := newTestModel(t, false)
	m = update(m, key("right"))
	assert.Equal(t, 8.0, m.board().Viewport().MinX)
	m = update(m, tea.KeyMsg{Type: tea.KeyShiftDown})
	assert.Equal(t, 64.0, m.board().Viewport().MinY)

	m = update(m, key("+"))
	assert.InDelta(t, 1.25, m.board().Viewport().Zoom, 1e-9)
	assert.Zero(t, m.board().HistoryLen(), "viewport changes are not undoable")
}

func TestModel_SaveAndAutosave(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))
	m = update(m, key("s"))
	require.Equal(t, ModeFileInput, m.mode)
	m = update(m, key("chart"))
	m = update(m, key("enter"))

	assert.Equal(t, "chart", m.sess.name)
	path := filepath.Join(m.cfg.SaveDirectory, "chart"+store.FileExt)
	snap, err := store.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, snap.Elements, 1)
	assert.Equal(t, el.ID, snap.Elements[0].ID)

	m = update(m, key("d"))
	assert.Equal(t, 2, m.sess.persister.Saves())
	snap, err = store.LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, snap.Elements)
}

func TestModel_ExportAndView(t *testing.T) {
	m, _ := drawRect(t, newTestModel(t, false))
	m = update(m, key("T"))
	require.Equal(t, ModeFileInput, m.mode)
	assert.Equal(t, "flerm.txt", m.input)
	m = update(m, key("enter"))

	data, err := os.ReadFile(filepath.Join(m.cfg.SaveDirectory, "flerm.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "  +------+")

	view := m.View()
	assert.Contains(t, view, "Mode: NORMAL")
	assert.Contains(t, view, "Tool: rect")
	assert.Len(t, strings.Split(view, "\n"), 25)
}

func TestOpenSession_ImportsLegacyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.flerm")
	require.NoError(t, os.WriteFile(path, []byte("FLOWCHART\nBOXES:1\n1,1,10,3,Hi\nCONNECTIONS:0\n"), 0644))

	cfg := config.Default()
	sess, err := openSession(context.Background(), cfg, path, slog.New(slog.DiscardHandler), nil)
	require.NoError(t, err)
	defer sess.close()

	assert.True(t, sess.loaded)
	assert.Equal(t, "old", sess.name)
	el, ok := sess.board.Find("box-0")
	require.True(t, ok)
	assert.Equal(t, "Hi", el.Text)
}

func TestPrintTree(t *testing.T) {
	b := board.New(board.WithElements([]*board.Element{
		{ID: "g", Type: board.TypeGroup, Bounds: &board.Rect{Width: 100, Height: 50}, Children: []*board.Element{
			{ID: "r", Type: board.TypeRect, Text: "x", Bounds: &board.Rect{X: 1, Y: 2, Width: 3, Height: 4}},
		}},
	}))
	var buf bytes.Buffer
	require.NoError(t, printTree(&buf, b))
	assert.Equal(t, "[0] group g (0,0 100x50)\n  [0,0] rect r (1,2 3x4) \"x\"\n", buf.String())
}

func TestModel_BuffersAndTransfer(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))

	m = update(m, key("N"))
	require.Len(t, m.buffers, 2)
	assert.Equal(t, 1, m.current)
	assert.Zero(t, m.board().Count())

	m = update(m, key("{"))
	assert.Equal(t, 0, m.current)
	assert.Same(t, m.buffers[0], m.sess)

	m = update(m, key("M"))
	assert.Zero(t, m.board().Count())
	dst := m.buffers[1].board
	_, ok := dst.Find(el.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, dst.HistoryLen())
	assert.Equal(t, "Moved 1 element(s) to buffer 2", m.successMessage)

	m = update(m, key("}"))
	assert.Equal(t, 1, m.current)
	assert.Equal(t, 1, m.board().Count())

	m = update(m, key("x"))
	require.Len(t, m.buffers, 1)
	assert.Equal(t, 0, m.current)
	assert.Same(t, m.buffers[0], m.sess)
}

func TestModel_TransferNeedsSecondBuffer(t *testing.T) {
	m, _ := drawRect(t, newTestModel(t, false))
	m = update(m, key("M"))
	assert.Equal(t, 1, m.board().Count())
	assert.Contains(t, m.successMessage, "Open another buffer")
}

func TestModel_CloseLastBufferLeavesEmptyBoard(t *testing.T) {
	m, _ := drawRect(t, newTestModel(t, false))
	m = update(m, key("x"))
	require.Len(t, m.buffers, 1)
	assert.Zero(t, m.board().Count())
}

func TestModel_KeyboardMoveAndResize(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))

	m = update(m, key("m"))
	require.Equal(t, ModeMove, m.mode)
	m = update(m, key("l"))
	m = update(m, key("L"))
	cur, _ := m.board().Find(el.ID)
	assert.Equal(t, 44.0, cur.Bounds.X, "steps preview from the original position")
	assert.True(t, m.board().Previewing())
	assert.Equal(t, 1, m.board().HistoryLen())

	m = update(m, key("enter"))
	assert.Equal(t, ModeNormal, m.mode)
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, 44.0, cur.Bounds.X)
	assert.Equal(t, 2, m.board().HistoryLen())

	m = update(m, key("R"))
	require.Equal(t, ModeResize, m.mode)
	m = update(m, key("j"))
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, 80.0, cur.Bounds.Height)
	m = update(m, key("esc"))
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, 64.0, cur.Bounds.Height)
	assert.Equal(t, 2, m.board().HistoryLen())

	m = update(m, key("u"))
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, 20.0, cur.Bounds.X)
}

func TestModel_MousePressFinishesTextEdit(t *testing.T) {
	m, el := drawRect(t, newTestModel(t, false))
	m = update(m, key("v"))
	m = update(m, key("enter"))
	m = update(m, key("h"))
	m = update(m, key("i"))

	m = update(m, mouse(40, 20, tea.MouseActionPress))
	m = update(m, mouse(40, 20, tea.MouseActionRelease))

	assert.Equal(t, ModeNormal, m.mode)
	assert.False(t, m.board().Previewing())
	cur, _ := m.board().Find(el.ID)
	assert.Equal(t, "hi", cur.Text)
	require.NoError(t, m.board().Undo())
	cur, _ = m.board().Find(el.ID)
	assert.Equal(t, "hi", cur.Text, "the edit is its own history entry")
}

func TestModel_MouseIgnoredWhilePrompting(t *testing.T) {
	m := newTestModel(t, false)
	m = update(m, key("s"))
	m = update(m, mouse(3, 3, tea.MouseActionPress))
	assert.False(t, m.pressed)
	assert.Equal(t, ModeFileInput, m.mode)
}
