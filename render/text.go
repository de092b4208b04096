package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"flermboard/board"
)

// WriteText writes the current view of the board as plain text, exactly as
// the terminal shows it but without styling, selection or guides.
func (t *Terminal) WriteText(w io.Writer, b *board.Board, cols, rows int) error {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	plain := board.New(board.WithElements(b.Elements()), board.WithViewport(b.Viewport()))
	bw := bufio.NewWriter(w)
	for _, line := range t.Lines(plain, cols, rows, nil) {
		if _, err := fmt.Fprintln(bw, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportText writes the whole board to a text file, independent of the
// viewport. The grid is sized to fit every element.
func (t *Terminal) ExportText(b *board.Board, filename string) error {
	ext, ok := Extent(b)
	if !ok {
		return ErrNothingToExport
	}
	vp := board.Viewport{Zoom: 1, MinX: ext.X, MinY: ext.Y}
	cols := int(math.Ceil(ext.Width/t.CellWidth)) + 1
	rows := int(math.Ceil(ext.Height/t.CellHeight)) + 1
	fitted := board.New(board.WithElements(b.Elements()), board.WithViewport(vp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return t.WriteText(file, fitted, cols, rows)
}
