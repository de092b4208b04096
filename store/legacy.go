package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flermboard/board"
)

const legacyHeader = "FLOWCHART"

const legacyMinBoxWidth = 8

// CellSize is the size of one terminal cell in document units. Legacy
// files store positions in cells.
type CellSize struct {
	Width  float64
	Height float64
}

func DefaultCellSize() CellSize {
	return CellSize{Width: 8, Height: 16}
}

// IsLegacy reports whether data is in the old FLOWCHART text format.
func IsLegacy(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	return string(bytes.TrimSpace(line)) == legacyHeader
}

// ImportLegacy converts a FLOWCHART file into a snapshot. Boxes become
// rects, connections become arrows bound to their boxes, free texts become
// text elements and the PAN line becomes the viewport origin. Highlights
// have no counterpart and are dropped.
func ImportLegacy(r io.Reader, cell CellSize) (Snapshot, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != legacyHeader {
		return Snapshot{}, fmt.Errorf("%w: missing %s header", ErrInvalidContent, legacyHeader)
	}
	snap := Snapshot{Version: snapshotVersion, Viewport: board.DefaultViewport()}

	boxCount, err := legacyCount(sc, "BOXES:")
	if err != nil {
		return Snapshot{}, err
	}
	boxes := make([]*board.Element, 0, boxCount)
	for i := 0; i < boxCount; i++ {
		if !sc.Scan() {
			return Snapshot{}, fmt.Errorf("%w: missing box data", ErrInvalidContent)
		}
		el, err := legacyBox(sc.Text(), i, cell)
		if err != nil {
			return Snapshot{}, err
		}
		boxes = append(boxes, el)
	}
	snap.Elements = append(snap.Elements, boxes...)

	connCount, err := legacyCount(sc, "CONNECTIONS:")
	if err != nil {
		return Snapshot{}, err
	}
	for i := 0; i < connCount; i++ {
		if !sc.Scan() {
			return Snapshot{}, fmt.Errorf("%w: missing connection data", ErrInvalidContent)
		}
		el, err := legacyConnection(sc.Text(), i, boxes, cell)
		if err != nil {
			return Snapshot{}, err
		}
		if el != nil {
			snap.Elements = append(snap.Elements, el)
		}
	}

	// Texts, highlights and pan are optional trailing sections.
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "TEXTS:"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "TEXTS:"))
			if err != nil {
				continue
			}
			for i := 0; i < n && sc.Scan(); i++ {
				if el, ok := legacyText(sc.Text(), i, cell); ok {
					snap.Elements = append(snap.Elements, el)
				}
			}
		case strings.HasPrefix(line, "HIGHLIGHTS:"):
			n, _ := strconv.Atoi(strings.TrimPrefix(line, "HIGHLIGHTS:"))
			for i := 0; i < n; i++ {
				if !sc.Scan() {
					break
				}
			}
		case strings.HasPrefix(line, "PAN:"):
			parts := strings.Split(strings.TrimPrefix(line, "PAN:"), ",")
			if len(parts) >= 2 {
				x, _ := strconv.Atoi(parts[0])
				y, _ := strconv.Atoi(parts[1])
				snap.Viewport.MinX = float64(x) * cell.Width
				snap.Viewport.MinY = float64(y) * cell.Height
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("read legacy file: %w", err)
	}
	if err := board.ValidateTree(snap.Elements); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return snap, nil
}

func legacyCount(sc *bufio.Scanner, prefix string) (int, error) {
	if !sc.Scan() {
		return 0, fmt.Errorf("%w: missing %s header", ErrInvalidContent, strings.TrimSuffix(prefix, ":"))
	}
	n, err := strconv.Atoi(strings.TrimPrefix(sc.Text(), prefix))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad %s count %q", ErrInvalidContent, strings.TrimSuffix(prefix, ":"), sc.Text())
	}
	return n, nil
}

func decodeLegacyText(s string) string {
	return strings.ReplaceAll(s, "\\n", "\n")
}

// legacyBox parses "X,Y,Width,Height,Text". Older files may carry a color
// field before the text, or only "X,Y,Text" with the size derived from it.
func legacyBox(line string, i int, cell CellSize) (*board.Element, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: bad box %q", ErrInvalidContent, line)
	}
	x, _ := strconv.Atoi(parts[0])
	y, _ := strconv.Atoi(parts[1])

	var w, h int
	var text string
	switch {
	case len(parts) >= 6:
		w, _ = strconv.Atoi(parts[2])
		h, _ = strconv.Atoi(parts[3])
		text = decodeLegacyText(strings.Join(parts[5:], ","))
	case len(parts) >= 5:
		w, _ = strconv.Atoi(parts[2])
		h, _ = strconv.Atoi(parts[3])
		text = decodeLegacyText(strings.Join(parts[4:], ","))
	default:
		text = decodeLegacyText(strings.Join(parts[2:], ","))
		w, h = legacyBoxSize(text)
	}
	if w <= 0 || h <= 0 {
		w, h = legacyBoxSize(text)
	}
	return &board.Element{
		ID:   fmt.Sprintf("box-%d", i),
		Type: board.TypeRect,
		Text: text,
		Bounds: &board.Rect{
			X:      float64(x) * cell.Width,
			Y:      float64(y) * cell.Height,
			Width:  float64(w) * cell.Width,
			Height: float64(h) * cell.Height,
		},
	}, nil
}

// legacyBoxSize fits a box around its lines plus border and padding.
func legacyBoxSize(text string) (int, int) {
	lines := strings.Split(text, "\n")
	w := legacyMinBoxWidth
	for _, l := range lines {
		if len(l)+2 > w {
			w = len(l) + 2
		}
	}
	return w, len(lines) + 2
}

// legacyConnection parses "From,To,FromX,FromY,ToX,ToY,N,Flags|wx:wy,...".
// The oldest files only store "From,To"; the arrow is then routed between
// the box sides that face each other. Connections to unknown boxes are
// dropped.
func legacyConnection(line string, i int, boxes []*board.Element, cell CellSize) (*board.Element, error) {
	head, rest, _ := strings.Cut(line, "|")
	parts := strings.Split(head, ",")
	if len(parts) != 2 && len(parts) < 7 {
		return nil, fmt.Errorf("%w: bad connection %q", ErrInvalidContent, line)
	}
	from, _ := strconv.Atoi(parts[0])
	to, _ := strconv.Atoi(parts[1])
	if from < 0 || from >= len(boxes) || to < 0 || to >= len(boxes) {
		return nil, nil
	}
	arrow := &board.Element{
		ID:    fmt.Sprintf("conn-%d", i),
		Type:  board.TypeArrow,
		Start: &board.Binding{ElementID: boxes[from].ID},
		End:   &board.Binding{ElementID: boxes[to].ID},
	}
	if len(parts) == 2 {
		a, b := board.ConnectionPoints(*boxes[from].Bounds, *boxes[to].Bounds)
		arrow.Points = []board.Point{a, b}
		return arrow, nil
	}

	at := func(xs, ys string) board.Point {
		x, _ := strconv.Atoi(xs)
		y, _ := strconv.Atoi(ys)
		return board.Point{X: float64(x) * cell.Width, Y: float64(y) * cell.Height}
	}
	arrow.Points = append(arrow.Points, at(parts[2], parts[3]))
	n, _ := strconv.Atoi(parts[6])
	if rest != "" && n > 0 {
		for j, wp := range strings.Split(rest, ",") {
			if j >= n {
				break
			}
			if xs, ys, ok := strings.Cut(wp, ":"); ok {
				arrow.Points = append(arrow.Points, at(xs, ys))
			}
		}
	}
	arrow.Points = append(arrow.Points, at(parts[4], parts[5]))
	return arrow, nil
}

// legacyText parses "X,Y,Text", or "X,Y,Color,Text" from older files.
func legacyText(line string, i int, cell CellSize) (*board.Element, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < 3 {
		return nil, false
	}
	x, _ := strconv.Atoi(parts[0])
	y, _ := strconv.Atoi(parts[1])
	start := 2
	if len(parts) >= 4 {
		start = 3
	}
	text := decodeLegacyText(strings.Join(parts[start:], ","))
	lines := strings.Split(text, "\n")
	w := 1
	for _, l := range lines {
		w = max(w, len(l))
	}
	return &board.Element{
		ID:   fmt.Sprintf("text-%d", i),
		Type: board.TypeText,
		Text: text,
		Bounds: &board.Rect{
			X:      float64(x) * cell.Width,
			Y:      float64(y) * cell.Height,
			Width:  float64(w) * cell.Width,
			Height: float64(len(lines)) * cell.Height,
		},
	}, true
}
