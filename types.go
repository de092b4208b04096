package main

import (
	"log/slog"

	"flermboard/board"
	"flermboard/internal/config"
	"flermboard/plugins"
	"flermboard/render"
	"flermboard/store"
)

type model struct {
	width  int
	height int

	// cursorX/cursorY is the last cell the mouse was seen in. Keyboard
	// commands that need a position, like pasting text, use it.
	cursorX int
	cursorY int

	// buffers are the open boards; sess is always buffers[current].
	buffers []*session
	current int
	sess    *session
	// db is the store every buffer shares when boards live in badger.
	db      store.Store
	metrics *board.Metrics
	term    *render.Terminal
	cfg     *config.Config
	log     *slog.Logger
	clip    clipboardIO

	mode          Mode
	help          bool
	fileOp        FileOperation
	confirmAction ConfirmAction

	// input is the text typed into the file prompt or the element being
	// edited.
	input    string
	editID   string
	editOrig string

	// nudge is the keyboard move or resize in progress.
	nudge *plugins.Nudge

	// pressed is true between a mouse press and its release.
	pressed bool

	errorMessage   string
	successMessage string
}

// clipboardIO is the system clipboard, swapped out in tests.
type clipboardIO interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}
