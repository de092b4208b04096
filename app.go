package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"flermboard/board"
	"flermboard/internal/config"
	"flermboard/render"
)

var (
	statusStyle  = lipgloss.NewStyle().Reverse(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return readClipboardText() }

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

func initialModel(cfg *config.Config, sess *session, metrics *board.Metrics, log *slog.Logger) model {
	return model{
		buffers: []*session{sess},
		sess:    sess,
		metrics: metrics,
		term:    render.NewTerminal(cfg.CellWidth, cfg.CellHeight),
		cfg:     cfg,
		log:     log,
		clip:    systemClipboard{},
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) board() *board.Board {
	return m.sess.board
}

// canvasRows is the number of rows left for the board above the status line.
func (m model) canvasRows() int {
	return max(m.height-1, 1)
}

// mount sizes the board's surface to the terminal in screen pixels.
func (m *model) mount() {
	m.board().Mount(board.Surface{
		Width:  float64(max(m.width, 1)) * m.term.CellWidth,
		Height: float64(m.canvasRows()) * m.term.CellHeight,
	})
}

// client maps a terminal cell to the screen pixel at its center.
func (m model) client(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * m.term.CellWidth, (float64(y) + 0.5) * m.term.CellHeight
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.mount()
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case ModeTextInput:
			return m.updateTextInput(msg)
		case ModeFileInput:
			return m.updateFileInput(msg)
		case ModeConfirm:
			return m.updateConfirm(msg)
		case ModeMove, ModeResize:
			return m.updateNudge(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func pointerModifiers(msg tea.MouseMsg) board.Modifiers {
	var mods board.Modifiers
	if msg.Shift {
		mods |= board.ModShift
	}
	if msg.Alt {
		mods |= board.ModAlt
	}
	if msg.Ctrl {
		mods |= board.ModCtrl
	}
	return mods
}

func pointerButton(b tea.MouseButton) board.Button {
	switch b {
	case tea.MouseButtonMiddle:
		return board.ButtonMiddle
	case tea.MouseButtonRight:
		return board.ButtonRight
	}
	return board.ButtonLeft
}

// handleMouse feeds terminal mouse reports into the board's pointer
// pipeline. The wheel zooms around the pointer.
func (m *model) handleMouse(msg tea.MouseMsg) {
	m.cursorX, m.cursorY = msg.X, msg.Y
	cx, cy := m.client(msg.X, msg.Y)
	e := board.PointerEvent{ClientX: cx, ClientY: cy, Button: pointerButton(msg.Button), Modifiers: pointerModifiers(msg)}
	wheel := msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown
	if (wheel || msg.Action == tea.MouseActionPress) && !m.settleMode() {
		return
	}
	b := m.board()

	switch {
	case wheel:
		factor := zoomStep
		if msg.Button == tea.MouseButtonWheelDown {
			factor = 1 / zoomStep
		}
		m.zoom(cx, cy, factor)
	case msg.Action == tea.MouseActionPress:
		if msg.Y >= m.canvasRows() {
			return
		}
		if m.pressed {
			// The terminal lost the release of the previous press.
			b.PointerUp(e)
		}
		m.clearMessages()
		m.pressed = true
		b.PointerDown(e)
	case msg.Action == tea.MouseActionMotion:
		if m.pressed {
			b.PointerMove(e)
		}
	case msg.Action == tea.MouseActionRelease:
		if !m.pressed {
			return
		}
		m.pressed = false
		b.PointerUp(e)
		m.afterGesture()
	}
}

// settleMode ends a keyboard edit, move or resize before the mouse
// changes the board, so its preview is committed rather than lost. It
// reports false while a prompt is open, which the mouse must not touch.
func (m *model) settleMode() bool {
	switch m.mode {
	case ModeTextInput:
		m.finishEdit()
	case ModeMove, ModeResize:
		m.finishNudge()
	case ModeFileInput, ModeConfirm:
		return false
	}
	return true
}

// afterGesture opens the editor on a freshly drawn text element.
func (m *model) afterGesture() {
	b := m.board()
	if b.Tool() != board.ToolText {
		return
	}
	sel := b.Selection()
	if len(sel.IDs) != 1 {
		return
	}
	if el, ok := b.Find(sel.IDs[0]); ok && el.Type == board.TypeText && el.Text == "" {
		m.startEdit(el)
	}
}

func (m *model) zoom(clientX, clientY, factor float64) {
	b := m.board()
	op, ok := board.ZoomAt(b, clientX, clientY, factor)
	if !ok {
		return
	}
	if err := b.ApplyOne(op, true); err != nil {
		m.errorMessage = err.Error()
		return
	}
	b.Emit(board.Event{Name: board.EventViewportPanEnd, Commit: true})
}

func (m *model) clearMessages() {
	m.errorMessage = ""
	m.successMessage = ""
}

func (m *model) fail(err error) {
	m.errorMessage = err.Error()
	m.successMessage = ""
	m.log.Warn("command failed", "error", err)
}

func (m model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	b := m.board()
	m.clearMessages()

	if m.help {
		if key == "?" || key == "esc" || key == "q" {
			m.help = false
		}
		return m, nil
	}
	if tool, ok := toolKeys[key]; ok {
		b.SetTool(tool)
		return m, nil
	}

	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.cfg.Confirmations && m.sess.name == "" && b.Count() > 0 {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case "?":
		m.help = true
	case "esc":
		b.SetTool(board.ToolSelect)
		if !b.Selection().Empty() {
			if err := b.ApplyOne(board.SetSelection(b.Selection(), board.Selection{}), true); err != nil {
				m.fail(err)
			}
		}
	case "u":
		m.undo()
	case "ctrl+r":
		m.redo()
	case "d", "delete":
		if len(b.Selection().IDs) == 0 {
			return m, nil
		}
		if m.cfg.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDelete
			return m, nil
		}
		m.deleteSelection()
	case "g":
		if _, err := board.GroupSelection(b); err != nil {
			m.fail(err)
		}
	case "G":
		if err := board.UngroupSelection(b); err != nil {
			m.fail(err)
		}
	case "+", "=":
		m.zoom(m.centerClient(zoomStep))
	case "-":
		m.zoom(m.centerClient(1 / zoomStep))
	case "y":
		m.copySelection()
	case "p":
		m.paste()
	case "enter":
		sel := b.Selection()
		if len(sel.IDs) == 1 {
			if el, ok := b.Find(sel.IDs[0]); ok && editable(el) {
				m.startEdit(el)
			}
		}
	case "tab":
		m.addMindMapChild()
	case "n":
		m.addMindMapSibling()
	case "s":
		if m.sess.name != "" {
			if err := m.sess.saveAs(m.sess.name); err != nil {
				m.fail(err)
			} else {
				m.successMessage = "Saved " + m.sess.name
			}
			return m, nil
		}
		m.startFileInput(FileOpSave, "")
	case "S":
		m.startFileInput(FileOpSave, m.sess.name)
	case "P":
		m.startFileInput(FileOpSavePNG, m.defaultExportName(".png"))
	case "T":
		m.startFileInput(FileOpSaveVisualTXT, m.defaultExportName(".txt"))
	case "o":
		m.startFileInput(FileOpOpen, "")
	case "O":
		m.startFileInput(FileOpOpenNew, "")
	case "N":
		next, err := m.newSession("")
		if err != nil {
			m.fail(err)
			return m, nil
		}
		m.addBuffer(next)
		m.successMessage = "New buffer"
	case "{":
		m.switchBuffer(m.current - 1)
	case "}":
		m.switchBuffer(m.current + 1)
	case "x":
		if m.cfg.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmCloseBuffer
			return m, nil
		}
		m.closeBuffer()
	case "M":
		m.transferSelection()
	case "m":
		m.startNudge(false)
	case "R":
		m.startNudge(true)
	default:
		if speed := m.getMoveSpeed(key); speed > 0 {
			m.handlePan(key, speed)
		}
	}
	return m, nil
}

func (m model) centerClient(factor float64) (float64, float64, float64) {
	x, y := m.client(m.width/2, m.canvasRows()/2)
	return x, y, factor
}

func (m *model) deleteSelection() {
	n := len(m.board().Selection().IDs)
	if err := board.DeleteSelection(m.board()); err != nil {
		m.fail(err)
		return
	}
	m.successMessage = fmt.Sprintf("Deleted %d element(s)", n)
}

func editable(el *board.Element) bool {
	return !el.Type.IsArrowFamily() && !el.Type.IsContainer()
}

func (m *model) startEdit(el *board.Element) {
	m.mode = ModeTextInput
	m.editID = el.ID
	m.editOrig = el.Text
	m.input = el.Text
}

// setText previews or commits the edited text on the element.
func (m *model) setText(text string, commit bool) error {
	b := m.board()
	path, ok := board.PathForID(b, m.editID)
	if !ok {
		return fmt.Errorf("edit %s: %w", m.editID, board.ErrNotFound)
	}
	old := m.editOrig
	return b.ApplyOne(board.SetNode(path, board.Properties{Text: &old}, board.Properties{Text: &text}), commit)
}

func (m model) updateTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.board()
	switch msg.Type {
	case tea.KeyEsc:
		b.CancelPreview()
		m.mode = ModeNormal
		return m, nil
	case tea.KeyEnter:
		m.finishEdit()
		return m, nil
	case tea.KeyCtrlJ:
		m.input += "\n"
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	default:
		return m, nil
	}
	if err := m.setText(m.input, false); err != nil {
		m.fail(err)
	}
	return m, nil
}

// finishEdit commits the edited text as one history entry.
func (m *model) finishEdit() {
	b := m.board()
	m.mode = ModeNormal
	if m.input == m.editOrig {
		b.CancelPreview()
		return
	}
	if err := m.setText(m.input, true); err != nil {
		m.fail(err)
		return
	}
	b.Emit(board.Event{Name: board.EventElementEditEnd, IDs: []string{m.editID}, Commit: true})
}

func (m model) updateNudge(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	b := m.board()
	switch key := msg.String(); key {
	case "esc":
		m.nudge.Cancel(b)
		m.nudge = nil
		m.mode = ModeNormal
	case "enter":
		m.finishNudge()
	default:
		cols, rows, ok := nudgeStep(key)
		if !ok {
			return m, nil
		}
		zoom := b.Viewport().Zoom
		if zoom <= 0 {
			zoom = 1
		}
		dx := float64(cols) * m.term.CellWidth / zoom
		dy := float64(rows) * m.term.CellHeight / zoom
		if err := m.nudge.Step(b, dx, dy); err != nil {
			m.fail(err)
		}
	}
	return m, nil
}

func (m *model) startFileInput(op FileOperation, initial string) {
	m.mode = ModeFileInput
	m.fileOp = op
	m.input = initial
}

func (m model) updateFileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
	case tea.KeyEnter:
		m.mode = ModeNormal
		name := strings.TrimSpace(m.input)
		if name == "" {
			return m, nil
		}
		m.runFileOp(name)
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m *model) runFileOp(name string) {
	var err error
	switch m.fileOp {
	case FileOpSave:
		if err = m.sess.saveAs(name); err == nil {
			m.successMessage = "Saved " + m.sess.name
		}
	case FileOpSavePNG:
		err = m.exportPNG(name)
	case FileOpSaveVisualTXT:
		err = m.exportVisualTXT(name)
	case FileOpOpen:
		err = m.open(name)
	case FileOpOpenNew:
		var next *session
		if next, err = m.newSession(name); err == nil {
			m.addBuffer(next)
			m.successMessage = "Opened " + next.name
		}
	}
	if err != nil {
		m.fail(err)
	}
}

// open replaces the current buffer. The old session is closed only once
// the new one loaded.
func (m *model) open(name string) error {
	next, err := m.newSession(name)
	if err != nil {
		return err
	}
	m.releasePointer()
	if err := m.sess.close(); err != nil {
		m.log.Warn("closing previous board", "error", err)
	}
	m.buffers[m.current] = next
	m.sess = next
	m.mount()
	m.successMessage = "Opened " + next.name
	return nil
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if key := msg.String(); key != "y" && key != "Y" {
		return m, nil
	}
	switch m.confirmAction {
	case ConfirmDelete:
		m.deleteSelection()
	case ConfirmQuit:
		return m, tea.Quit
	case ConfirmCloseBuffer:
		m.closeBuffer()
	}
	return m, nil
}

func (m model) View() string {
	if m.help {
		return m.helpView()
	}
	b := m.board()
	canvas := m.term.View(b, max(m.width, 1), m.canvasRows(), m.sess.pipe.Guides())
	return canvas + "\n" + m.statusLine()
}

func (m model) modeString() string {
	switch m.mode {
	case ModeNormal:
		return "NORMAL"
	case ModeTextInput:
		return "EDIT"
	case ModeFileInput:
		return "FILE"
	case ModeConfirm:
		return "CONFIRM"
	case ModeMove:
		return "MOVE"
	case ModeResize:
		return "RESIZE"
	default:
		return "UNKNOWN"
	}
}

func (m model) statusLine() string {
	b := m.board()
	switch m.mode {
	case ModeTextInput:
		return statusStyle.Render("EDIT: " + strings.ReplaceAll(m.input, "\n", "⏎") + "_  (enter to apply, esc to cancel)")
	case ModeFileInput:
		return statusStyle.Render(m.filePrompt() + m.input + "_")
	case ModeConfirm:
		switch m.confirmAction {
		case ConfirmQuit:
			return statusStyle.Render("Board is not saved. Quit anyway? (y/n)")
		case ConfirmCloseBuffer:
			return statusStyle.Render("Close this buffer? Unsaved changes will be lost. (y/n)")
		}
		return statusStyle.Render(fmt.Sprintf("Delete %d element(s)? (y/n)", len(b.Selection().IDs)))
	case ModeMove, ModeResize:
		return statusStyle.Render(fmt.Sprintf("Mode: %s | hjkl/arrows by one cell, shift by two | enter to finish, esc to cancel", m.modeString()))
	}

	name := m.bufferLabel()
	status := fmt.Sprintf("Mode: %s | Tool: %s | Zoom: %.0f%% | Selected: %d | %s",
		m.modeString(), b.Tool(), b.Viewport().Zoom*100, len(b.Selection().IDs), name)
	if active, ok := b.ActivePlugin(); ok {
		status += " | " + active.Name()
	}
	line := statusStyle.Render(status)
	switch {
	case m.errorMessage != "":
		line += " " + errorStyle.Render("ERROR: "+m.errorMessage)
	case m.successMessage != "":
		line += " " + successStyle.Render(m.successMessage)
	default:
		line += " ? for help | q to quit"
	}
	return line
}

func (m model) filePrompt() string {
	switch m.fileOp {
	case FileOpSavePNG:
		return "Export PNG: "
	case FileOpSaveVisualTXT:
		return "Export text: "
	case FileOpOpen:
		return "Open: "
	case FileOpOpenNew:
		return "Open in new buffer: "
	}
	return "Save as: "
}

func (m model) helpView() string {
	lines := []string{
		"flerm help",
		"==========",
		"",
		"Tools:    v select  r rect  e ellipse  t text  i image  a arrow  h hand",
		"Mouse:    drag to draw, move, resize (bottom-right corner) or marquee-select",
		"          shift+click toggles selection, alt disables snapping",
		"          middle drag pans, wheel zooms",
		"Edit:     enter edit text  d delete  g group  G ungroup  y copy  p paste",
		"          tab add mind map child  n add mind map sibling",
		"          m move selection  R resize shape (hjkl/arrows, enter, esc)",
		"History:  u undo  ctrl+r redo",
		"View:     arrows pan (shift for faster)  + / - zoom",
		"Files:    s save  S save as  o open  O open in new buffer  P export PNG  T export text",
		"Buffers:  N new  { previous  } next  x close  M move selection to next buffer",
		"",
		"?, esc or q closes this help",
	}
	return strings.Join(lines, "\n")
}
