package main

import (
	"fmt"
	"os"
	"path/filepath"

	"flermboard/render"
)

// defaultExportName suggests an export file named after the board.
func (m *model) defaultExportName(ext string) string {
	if m.sess.name == "" {
		return "flerm" + ext
	}
	return m.sess.name + ext
}

// exportVisualTXT writes the board exactly as it is on screen, without
// selection, guides or styling.
func (m *model) exportVisualTXT(filename string) error {
	path := m.cfg.GetSavePath(filename)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := m.term.WriteText(file, m.board(), max(m.width, 1), m.canvasRows()); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	m.successMessage = "Exported " + filepath.Base(path)
	return nil
}

func (m *model) exportPNG(filename string) error {
	path := m.cfg.GetSavePath(filename)
	if err := render.ExportPNG(m.board(), path, render.DefaultPNGOptions()); err != nil {
		return err
	}
	m.successMessage = "Exported " + filepath.Base(path)
	return nil
}
