package board

// Viewport maps document coordinates to the screen. MinX/MinY is the
// document point shown at the surface origin; Width/Height is the visible
// extent in document units.
type Viewport struct {
	Zoom   float64 `yaml:"zoom"`
	MinX   float64 `yaml:"min_x"`
	MinY   float64 `yaml:"min_y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

func DefaultViewport() Viewport {
	return Viewport{Zoom: 1}
}

// Surface is the mounted drawing area in client (screen) pixels.
type Surface struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// ScreenToViewport converts client coordinates to document coordinates. It
// returns false when the board has no mounted surface.
func ScreenToViewport(b *Board, clientX, clientY float64) (Point, bool) {
	if b == nil || b.surface == nil {
		return Point{}, false
	}
	vp := b.doc.viewport
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return Point{
		X: (clientX-b.surface.X)/zoom + vp.MinX,
		Y: (clientY-b.surface.Y)/zoom + vp.MinY,
	}, true
}

// ViewportToScreen is the inverse of ScreenToViewport.
func ViewportToScreen(b *Board, p Point) (float64, float64, bool) {
	if b == nil || b.surface == nil {
		return 0, 0, false
	}
	vp := b.doc.viewport
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return (p.X-vp.MinX)*zoom + b.surface.X, (p.Y-vp.MinY)*zoom + b.surface.Y, true
}

// fitViewport recomputes the visible extent for a surface size.
func fitViewport(vp Viewport, s *Surface) Viewport {
	if s == nil {
		return vp
	}
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	vp.Width = s.Width / zoom
	vp.Height = s.Height / zoom
	return vp
}
