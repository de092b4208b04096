package main

import "flermboard/board"

type Mode int

const (
	ModeNormal Mode = iota
	ModeTextInput
	ModeFileInput
	ModeConfirm
	ModeMove
	ModeResize
)

type FileOperation int

const (
	FileOpSave FileOperation = iota
	FileOpSavePNG
	FileOpSaveVisualTXT
	FileOpOpen
	FileOpOpenNew
)

type ConfirmAction int

const (
	ConfirmDelete ConfirmAction = iota
	ConfirmQuit
	ConfirmCloseBuffer
)

// toolKeys selects the active tool.
var toolKeys = map[string]board.Tool{
	"v": board.ToolSelect,
	"r": board.ToolRect,
	"e": board.ToolEllipse,
	"t": board.ToolText,
	"i": board.ToolImage,
	"a": board.ToolArrow,
	"h": board.ToolHand,
}

const (
	zoomStep = 1.25
	// pasteOffset shifts pasted elements so they do not cover the originals.
	pasteOffset = 16.0
	// mindMapGapX and mindMapGapY space mind map nodes, in cells.
	mindMapGapX = 4
	mindMapGapY = 1
)
