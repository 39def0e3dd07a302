package geometry

import "math"

// kappa places cubic control points for a quarter-circle approximation.
const kappa = 0.5522847498307936

type Point struct{ X, Y float64 }

type Rect struct{ X, Y, W, H float64 }

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// Corners selects which corners of a rounded rectangle keep their radius.
type Corners int

const (
	AllRounded Corners = iota
	SquareTop
	SquareBottom
)

func (c Corners) radii(r float64) (tl, tr, br, bl float64) {
	switch c {
	case SquareTop:
		return 0, 0, r, r
	case SquareBottom:
		return r, r, 0, 0
	default:
		return r, r, r, r
	}
}

// Segment is a line (Cubic false) or a cubic Bézier from the previous end to To.
type Segment struct {
	Cubic  bool
	C1, C2 Point
	To     Point
}

// Contour is a closed path.
type Contour struct {
	Start Point
	Segs  []Segment
}

func (c *Contour) lineTo(p Point) { c.Segs = append(c.Segs, Segment{To: p}) }

func (c *Contour) cubicTo(c1, c2, p Point) {
	c.Segs = append(c.Segs, Segment{Cubic: true, C1: c1, C2: c2, To: p})
}

// Reverse returns the same path traversed in the opposite direction.
func (c Contour) Reverse() Contour {
	if len(c.Segs) == 0 {
		return c
	}
	out := Contour{Start: c.Segs[len(c.Segs)-1].To}
	for i := len(c.Segs) - 1; i >= 0; i-- {
		prev := c.Start
		if i > 0 {
			prev = c.Segs[i-1].To
		}
		s := c.Segs[i]
		if s.Cubic {
			out.cubicTo(s.C2, s.C1, prev)
		} else {
			out.lineTo(prev)
		}
	}
	return out
}

// Bounds returns the control-point bounding box.
func (c Contour) Bounds() Rect {
	minX, minY := c.Start.X, c.Start.Y
	maxX, maxY := minX, minY
	grow := func(p Point) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, s := range c.Segs {
		if s.Cubic {
			grow(s.C1)
			grow(s.C2)
		}
		grow(s.To)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// RoundedRect traces r clockwise with the given corner radius. The radius is
// clamped to half the shorter side.
func RoundedRect(r Rect, radius float64, corners Corners) Contour {
	radius = math.Max(0, math.Min(radius, math.Min(r.W, r.H)/2))
	tl, tr, br, bl := corners.radii(radius)

	x0, y0, x1, y1 := r.X, r.Y, r.Right(), r.Bottom()
	c := Contour{Start: Point{x0 + tl, y0}}

	c.lineTo(Point{x1 - tr, y0})
	if tr > 0 {
		c.cubicTo(Point{x1 - tr + tr*kappa, y0}, Point{x1, y0 + tr - tr*kappa}, Point{x1, y0 + tr})
	}
	c.lineTo(Point{x1, y1 - br})
	if br > 0 {
		c.cubicTo(Point{x1, y1 - br + br*kappa}, Point{x1 - br + br*kappa, y1}, Point{x1 - br, y1})
	}
	c.lineTo(Point{x0 + bl, y1})
	if bl > 0 {
		c.cubicTo(Point{x0 + bl - bl*kappa, y1}, Point{x0, y1 - bl + bl*kappa}, Point{x0, y1 - bl})
	}
	c.lineTo(Point{x0, y0 + tl})
	if tl > 0 {
		c.cubicTo(Point{x0, y0 + tl - tl*kappa}, Point{x0 + tl - tl*kappa, y0}, Point{x0 + tl, y0})
	}
	return c
}

// InsetStroke returns the outline of a stroke of width lineWidth whose centre
// runs inset pixels inside r. The inner contour is reversed so a
// coverage-accumulating rasterizer fills only the ring.
func InsetStroke(r Rect, radius float64, corners Corners, inset, lineWidth float64) []Contour {
	outerOff := inset - lineWidth/2
	innerOff := inset + lineWidth/2
	outer := RoundedRect(r.Inset(outerOff), math.Max(0, radius-outerOff), corners)
	inner := RoundedRect(r.Inset(innerOff), math.Max(0, radius-innerOff), corners)
	return []Contour{outer, inner.Reverse()}
}
