// Package render draws boards for people: a rune grid for the terminal UI
// and PNG images for export. Renderers only read board state; they are
// driven by board events and never mutate the tree.
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"flermboard/board"
	"flermboard/refline"
)

// cellKind decides how a grid cell is styled.
type cellKind uint8

const (
	kindPlain cellKind = iota
	kindSelected
	kindArrow
	kindGuide
	kindMarquee
)

// Styles colors the terminal grid.
type Styles struct {
	Plain    lipgloss.Style
	Selected lipgloss.Style
	Arrow    lipgloss.Style
	Guide    lipgloss.Style
	Marquee  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Plain:    lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Arrow:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Guide:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		Marquee:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (s Styles) of(k cellKind) lipgloss.Style {
	switch k {
	case kindSelected:
		return s.Selected
	case kindArrow:
		return s.Arrow
	case kindGuide:
		return s.Guide
	case kindMarquee:
		return s.Marquee
	}
	return s.Plain
}

// Terminal rasterizes a board onto a grid of character cells. CellWidth and
// CellHeight are the screen pixels one cell covers; the TUI mounts the board
// on a surface of cols*CellWidth by rows*CellHeight pixels.
type Terminal struct {
	CellWidth  float64
	CellHeight float64
	Styles     Styles
}

func NewTerminal(cellWidth, cellHeight float64) *Terminal {
	if cellWidth <= 0 {
		cellWidth = 8
	}
	if cellHeight <= 0 {
		cellHeight = 16
	}
	return &Terminal{CellWidth: cellWidth, CellHeight: cellHeight, Styles: DefaultStyles()}
}

type grid struct {
	cells [][]rune
	kinds [][]cellKind
}

func newGrid(cols, rows int) *grid {
	g := &grid{cells: make([][]rune, rows), kinds: make([][]cellKind, rows)}
	for y := range g.cells {
		g.cells[y] = []rune(strings.Repeat(" ", cols))
		g.kinds[y] = make([]cellKind, cols)
	}
	return g
}

func (g *grid) set(x, y int, r rune, k cellKind) {
	if y < 0 || y >= len(g.cells) || x < 0 || x >= len(g.cells[y]) {
		return
	}
	g.cells[y][x] = r
	g.kinds[y][x] = k
}

func (g *grid) lines() []string {
	out := make([]string, len(g.cells))
	for y, row := range g.cells {
		out[y] = string(row)
	}
	return out
}

// Lines renders the board as plain text, one string per row.
func (t *Terminal) Lines(b *board.Board, cols, rows int, guides []refline.GuideLine) []string {
	return t.draw(b, cols, rows, guides).lines()
}

// View renders the board with styling applied.
func (t *Terminal) View(b *board.Board, cols, rows int, guides []refline.GuideLine) string {
	g := t.draw(b, cols, rows, guides)
	var sb strings.Builder
	for y, row := range g.cells {
		if y > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && g.kinds[y][x] == g.kinds[y][start] {
				continue
			}
			run := string(row[start:x])
			if k := g.kinds[y][start]; k == kindPlain {
				sb.WriteString(run)
			} else {
				sb.WriteString(t.Styles.of(k).Render(run))
			}
			start = x
		}
	}
	return sb.String()
}

func (t *Terminal) draw(b *board.Board, cols, rows int, guides []refline.GuideLine) *grid {
	g := newGrid(max(cols, 0), max(rows, 0))
	vp := b.Viewport()
	sel := b.Selection()

	selected := map[string]bool{}
	for _, id := range sel.IDs {
		selected[id] = true
	}

	b.Walk(func(el *board.Element, _ board.Path) bool {
		kind := kindPlain
		if selected[el.ID] {
			kind = kindSelected
		}
		switch el.Type {
		case board.TypeArrow:
			if kind == kindPlain {
				kind = kindArrow
			}
			t.drawArrow(g, vp, el.Points, kind)
		case board.TypeText:
			t.drawText(g, vp, el, kind)
		case board.TypeGroup:
			if kind == kindSelected {
				t.drawFrame(g, vp, *el.Bounds, frameGroup, kind)
			}
		case board.TypeEllipse:
			t.drawFrame(g, vp, *el.Bounds, frameEllipse, kind)
			t.drawLabel(g, vp, *el.Bounds, el.Text, kind)
		case board.TypeImage:
			t.drawFrame(g, vp, *el.Bounds, frameBox, kind)
			label := el.Text
			if label == "" {
				label = "[image]"
			}
			t.drawLabel(g, vp, *el.Bounds, label, kind)
		default:
			t.drawFrame(g, vp, *el.Bounds, frameBox, kind)
			t.drawLabel(g, vp, *el.Bounds, el.Text, kind)
		}
		return true
	})

	for _, l := range guides {
		t.drawGuide(g, vp, l)
	}
	if sel.Marquee != nil {
		t.drawFrame(g, vp, *sel.Marquee, frameMarquee, kindMarquee)
	}
	return g
}

// cell maps a document point to a grid cell.
func (t *Terminal) cell(vp board.Viewport, p board.Point) (int, int) {
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	x := (p.X - vp.MinX) * zoom / t.CellWidth
	y := (p.Y - vp.MinY) * zoom / t.CellHeight
	return int(math.Floor(x)), int(math.Floor(y))
}

// cellRect maps a rectangle to the cells it covers, at least one by one.
func (t *Terminal) cellRect(vp board.Viewport, r board.Rect) (x0, y0, x1, y1 int) {
	x0, y0 = t.cell(vp, board.Point{X: r.X, Y: r.Y})
	x1, y1 = t.cell(vp, board.Point{X: r.X + r.Width, Y: r.Y + r.Height})
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1 - 1, y1 - 1
}

type frameRunes struct {
	tl, tr, bl, br, h, v rune
}

var (
	frameBox     = frameRunes{'+', '+', '+', '+', '-', '|'}
	frameEllipse = frameRunes{'.', '.', '\'', '\'', '-', '|'}
	frameGroup   = frameRunes{'+', '+', '+', '+', ' ', ' '}
	frameMarquee = frameRunes{'.', '.', '.', '.', '.', ':'}
	frameChosen  = frameRunes{'#', '#', '#', '#', '#', '#'}
)

func (t *Terminal) drawFrame(g *grid, vp board.Viewport, r board.Rect, f frameRunes, kind cellKind) {
	if kind == kindSelected && f != frameGroup {
		f = frameChosen
	}
	x0, y0, x1, y1 := t.cellRect(vp, r)
	for x := x0; x <= x1; x++ {
		if f.h != ' ' || x == x0 || x == x1 {
			g.set(x, y0, f.h, kind)
			g.set(x, y1, f.h, kind)
		}
	}
	for y := y0; y <= y1; y++ {
		if f.v != ' ' || y == y0 || y == y1 {
			g.set(x0, y, f.v, kind)
			g.set(x1, y, f.v, kind)
		}
	}
	g.set(x0, y0, f.tl, kind)
	g.set(x1, y0, f.tr, kind)
	g.set(x0, y1, f.bl, kind)
	g.set(x1, y1, f.br, kind)
}

// drawLabel writes text inside a frame, one line per row, truncated to the
// inner width.
func (t *Terminal) drawLabel(g *grid, vp board.Viewport, r board.Rect, text string, kind cellKind) {
	if text == "" {
		return
	}
	x0, y0, x1, y1 := t.cellRect(vp, r)
	inner := x1 - x0 - 1
	for i, line := range strings.Split(text, "\n") {
		y := y0 + 1 + i
		if y >= y1 {
			break
		}
		runes := []rune(line)
		if len(runes) > inner {
			runes = runes[:max(inner, 0)]
		}
		for j, ch := range runes {
			g.set(x0+1+j, y, ch, kind)
		}
	}
}

func (t *Terminal) drawText(g *grid, vp board.Viewport, el *board.Element, kind cellKind) {
	x0, y0 := t.cell(vp, board.Point{X: el.Bounds.X, Y: el.Bounds.Y})
	text := el.Text
	if text == "" {
		text = "_"
	}
	for i, line := range strings.Split(text, "\n") {
		for j, ch := range []rune(line) {
			g.set(x0+j, y0+i, ch, kind)
		}
	}
}

// drawArrow draws each segment cell by cell and puts a head on the last
// point pointing along the final segment.
func (t *Terminal) drawArrow(g *grid, vp board.Viewport, pts []board.Point, kind cellKind) {
	if len(pts) < 2 {
		return
	}
	var lastDX, lastDY int
	for i := 0; i+1 < len(pts); i++ {
		ax, ay := t.cell(vp, pts[i])
		bx, by := t.cell(vp, pts[i+1])
		dx, dy := bx-ax, by-ay
		if dx != 0 || dy != 0 {
			lastDX, lastDY = dx, dy
		}
		r := lineRune(dx, dy)
		steps := max(abs(dx), abs(dy))
		for s := 0; s <= steps; s++ {
			x, y := ax, ay
			if steps > 0 {
				x = ax + int(math.Round(float64(dx*s)/float64(steps)))
				y = ay + int(math.Round(float64(dy*s)/float64(steps)))
			}
			g.set(x, y, r, kind)
		}
	}
	hx, hy := t.cell(vp, pts[len(pts)-1])
	g.set(hx, hy, headRune(lastDX, lastDY), kind)
}

func lineRune(dx, dy int) rune {
	switch {
	case dy == 0:
		return '-'
	case dx == 0:
		return '|'
	case abs(dx) > 2*abs(dy):
		return '-'
	case abs(dy) > 2*abs(dx):
		return '|'
	case (dx > 0) == (dy > 0):
		return '\\'
	}
	return '/'
}

func headRune(dx, dy int) rune {
	if abs(dx) >= abs(dy) {
		if dx < 0 {
			return '<'
		}
		return '>'
	}
	if dy < 0 {
		return '^'
	}
	return 'v'
}

func (t *Terminal) drawGuide(g *grid, vp board.Viewport, l refline.GuideLine) {
	if l.Orientation == refline.Vertical {
		x, y0 := t.cell(vp, board.Point{X: l.Pos, Y: l.Start})
		_, y1 := t.cell(vp, board.Point{X: l.Pos, Y: l.End})
		for y := y0; y <= y1; y++ {
			if g.free(x, y) {
				g.set(x, y, ':', kindGuide)
			}
		}
		return
	}
	x0, y := t.cell(vp, board.Point{X: l.Start, Y: l.Pos})
	x1, _ := t.cell(vp, board.Point{X: l.End, Y: l.Pos})
	for x := x0; x <= x1; x++ {
		if g.free(x, y) {
			g.set(x, y, '.', kindGuide)
		}
	}
}

// free reports whether a cell is inside the grid and still blank.
func (g *grid) free(x, y int) bool {
	return y >= 0 && y < len(g.cells) && x >= 0 && x < len(g.cells[y]) && g.cells[y][x] == ' '
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
