package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"flermboard/board"
)

// ErrNothingToExport is returned for boards without drawable elements.
var ErrNothingToExport = errors.New("nothing to export")

const (
	arrowHeadSize  = 6.0
	arrowHeadAngle = 0.5 // radians
)

// PNGOptions controls image export. Padding is in document units around
// the union of all element bounds.
type PNGOptions struct {
	Scale    float64
	Padding  float64
	FontSize float64
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Scale: 1, Padding: 16, FontSize: 12}
}

// WritePNG draws the whole board, independent of the viewport, and encodes
// it to w.
func WritePNG(b *board.Board, w io.Writer, opts PNGOptions) error {
	dc, err := drawPNG(b, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// ExportPNG writes the board to a PNG file.
func ExportPNG(b *board.Board, filename string, opts PNGOptions) error {
	dc, err := drawPNG(b, opts)
	if err != nil {
		return err
	}
	if err := dc.SavePNG(filename); err != nil {
		return fmt.Errorf("export %s: %w", filename, err)
	}
	return nil
}

// Extent returns the union of all element bounds.
func Extent(b *board.Board) (board.Rect, bool) {
	var out board.Rect
	found := false
	b.Walk(func(el *board.Element, _ board.Path) bool {
		r, ok := el.BoundingBox()
		if !ok {
			return true
		}
		if !found {
			out, found = r, true
		} else {
			out = out.Union(r)
		}
		return true
	})
	return out, found
}

func drawPNG(b *board.Board, opts PNGOptions) (*gg.Context, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}
	ext, ok := Extent(b)
	if !ok {
		return nil, ErrNothingToExport
	}
	ext = board.Rect{
		X:      ext.X - opts.Padding,
		Y:      ext.Y - opts.Padding,
		Width:  ext.Width + 2*opts.Padding,
		Height: ext.Height + 2*opts.Padding,
	}
	width := max(int(math.Ceil(ext.Width*opts.Scale)), 1)
	height := max(int(math.Ceil(ext.Height*opts.Scale)), 1)

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    opts.FontSize * opts.Scale,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	p := &painter{dc: dc, origin: board.Point{X: ext.X, Y: ext.Y}, scale: opts.Scale, lineHeight: opts.FontSize * 1.4}

	// Arrows go first so shapes are drawn over them.
	b.Walk(func(el *board.Element, _ board.Path) bool {
		if el.Type == board.TypeArrow {
			p.arrow(el)
		}
		return true
	})
	b.Walk(func(el *board.Element, _ board.Path) bool {
		switch el.Type {
		case board.TypeArrow, board.TypeGroup:
		case board.TypeText:
			p.text(el)
		default:
			p.shape(el)
		}
		return true
	})
	return dc, nil
}

type painter struct {
	dc         *gg.Context
	origin     board.Point
	scale      float64
	lineHeight float64
}

func (p *painter) at(pt board.Point) (float64, float64) {
	return (pt.X - p.origin.X) * p.scale, (pt.Y - p.origin.Y) * p.scale
}

func (p *painter) stroke(s board.Style) {
	p.dc.SetLineWidth(1.0 * p.scale)
	if s.Stroke != "" {
		p.dc.SetHexColor(s.Stroke)
	} else {
		p.dc.SetColor(color.Black)
	}
}

func (p *painter) shape(el *board.Element) {
	r := *el.Bounds
	x, y := p.at(board.Point{X: r.X, Y: r.Y})
	w, h := r.Width*p.scale, r.Height*p.scale

	outline := func() {
		if el.Type == board.TypeEllipse {
			p.dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
		} else {
			p.dc.DrawRectangle(x, y, w, h)
		}
	}
	if el.Style.Fill != "" {
		outline()
		p.dc.SetHexColor(el.Style.Fill)
		p.dc.Fill()
	}
	outline()
	p.stroke(el.Style)
	if el.Type == board.TypeImage {
		p.dc.DrawLine(x, y, x+w, y+h)
		p.dc.DrawLine(x+w, y, x, y+h)
	}
	p.dc.Stroke()

	if el.Text != "" {
		p.dc.SetColor(color.Black)
		p.lines(el.Text, x+8*p.scale, y)
	}
}

func (p *painter) text(el *board.Element) {
	x, y := p.at(board.Point{X: el.Bounds.X, Y: el.Bounds.Y})
	if el.Style.Stroke != "" {
		p.dc.SetHexColor(el.Style.Stroke)
	} else {
		p.dc.SetColor(color.Black)
	}
	p.lines(el.Text, x, y)
}

func (p *painter) lines(text string, x, y float64) {
	lh := p.lineHeight * p.scale
	for i, line := range strings.Split(text, "\n") {
		p.dc.DrawString(line, x, y+lh*float64(i+1))
	}
}

func (p *painter) arrow(el *board.Element) {
	if len(el.Points) < 2 {
		return
	}
	p.stroke(el.Style)
	for i := 0; i+1 < len(el.Points); i++ {
		x1, y1 := p.at(el.Points[i])
		x2, y2 := p.at(el.Points[i+1])
		p.dc.DrawLine(x1, y1, x2, y2)
		p.dc.Stroke()
	}
	n := len(el.Points)
	p.head(el.Points[n-2], el.Points[n-1])
}

// head fills a triangle at to pointing away from from.
func (p *painter) head(from, to board.Point) {
	fx, fy := p.at(from)
	tx, ty := p.at(to)
	dx, dy := tx-fx, ty-fy
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length
	size := arrowHeadSize * p.scale

	p.dc.MoveTo(tx, ty)
	p.dc.LineTo(tx-size*dx+size*dy*arrowHeadAngle, ty-size*dy-size*dx*arrowHeadAngle)
	p.dc.LineTo(tx-size*dx-size*dy*arrowHeadAngle, ty-size*dy+size*dx*arrowHeadAngle)
	p.dc.ClosePath()
	p.dc.Fill()
}
