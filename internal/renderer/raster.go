package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/ivlev/postframe/internal/geometry"
)

// fill rasterizes the contours with coverage accumulation and composites src
// over dst. A reversed contour inside another one cuts a hole.
func fill(dst *image.RGBA, src image.Image, contours ...geometry.Contour) {
	if len(contours) == 0 {
		return
	}
	b := contours[0].Bounds()
	for _, c := range contours[1:] {
		cb := c.Bounds()
		x0, y0 := math.Min(b.X, cb.X), math.Min(b.Y, cb.Y)
		x1, y1 := math.Max(b.Right(), cb.Right()), math.Max(b.Bottom(), cb.Bottom())
		b = geometry.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
	}
	area := image.Rect(
		int(math.Floor(b.X)), int(math.Floor(b.Y)),
		int(math.Ceil(b.Right())), int(math.Ceil(b.Bottom())),
	).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	// The rasterizer covers area only. Points are shifted into its space and
	// x is clamped to it; rows outside the area are dropped by the rasterizer.
	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	w := float64(area.Dx())
	pt := func(p geometry.Point) (float32, float32) {
		return float32(geometry.Clamp(p.X-ox, 0, w)), float32(p.Y - oy)
	}
	z := vector.NewRasterizer(area.Dx(), area.Dy())
	z.DrawOp = draw.Over
	for _, c := range contours {
		if len(c.Segs) == 0 {
			continue
		}
		z.MoveTo(pt(c.Start))
		for _, s := range c.Segs {
			tx, ty := pt(s.To)
			if s.Cubic {
				ax, ay := pt(s.C1)
				bx, by := pt(s.C2)
				z.CubeTo(ax, ay, bx, by, tx, ty)
			} else {
				z.LineTo(tx, ty)
			}
		}
		z.ClosePath()
	}
	z.Draw(dst, area, src, area.Min)
}

func fillRect(dst *image.RGBA, r geometry.Rect, c color.Color) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	fill(dst, image.NewUniform(c), geometry.RoundedRect(r, 0, geometry.AllRounded))
}

// dashedRect strokes r with a dash pattern centred on its edges. The pattern
// runs continuously around the corners, clockwise from the top-left.
func dashedRect(dst *image.RGBA, r geometry.Rect, lineWidth float64, pattern []float64, c color.Color) {
	src := image.NewUniform(c)
	corners := []geometry.Point{
		{X: r.X, Y: r.Y}, {X: r.Right(), Y: r.Y}, {X: r.Right(), Y: r.Bottom()}, {X: r.X, Y: r.Bottom()},
	}
	period := 0.0
	for _, p := range pattern {
		period += p
	}
	if period <= 0 {
		return
	}

	half := lineWidth / 2
	var dashes []geometry.Contour
	offset := 0.0 // distance walked along the perimeter
	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		length := math.Hypot(b.X-a.X, b.Y-a.Y)
		if length == 0 {
			continue
		}
		dx, dy := (b.X-a.X)/length, (b.Y-a.Y)/length

		pos := 0.0
		for pos < length {
			phase := math.Mod(offset+pos, period)
			on, remaining := dashAt(pattern, phase)
			end := math.Min(length, pos+remaining)
			if on {
				p0 := geometry.Point{X: a.X + dx*pos, Y: a.Y + dy*pos}
				p1 := geometry.Point{X: a.X + dx*end, Y: a.Y + dy*end}
				dashes = append(dashes, segmentRect(p0, p1, half))
			}
			pos = end
		}
		offset += length
	}
	for _, d := range dashes {
		fill(dst, src, d)
	}
}

// dashAt returns whether phase falls on a dash and the length left in that piece.
func dashAt(pattern []float64, phase float64) (bool, float64) {
	for i, p := range pattern {
		if phase < p {
			return i%2 == 0, p - phase
		}
		phase -= p
	}
	return false, pattern[len(pattern)-1]
}

// segmentRect is the butt-capped rectangle of half-width half around an
// axis-aligned segment.
func segmentRect(p0, p1 geometry.Point, half float64) geometry.Contour {
	x0, x1 := math.Min(p0.X, p1.X), math.Max(p0.X, p1.X)
	y0, y1 := math.Min(p0.Y, p1.Y), math.Max(p0.Y, p1.Y)
	r := geometry.Rect{X: x0, Y: y0 - half, W: x1 - x0, H: 2 * half}
	if x0 == x1 {
		r = geometry.Rect{X: x0 - half, Y: y0, W: 2 * half, H: y1 - y0}
	}
	return geometry.RoundedRect(r, 0, geometry.AllRounded)
}

// verticalGradient interpolates linearly between two colours from y0 to y1
// in destination coordinates.
type verticalGradient struct {
	y0, y1 float64
	from   color.NRGBA
	to     color.NRGBA
}

func (g verticalGradient) ColorModel() color.Model { return color.NRGBAModel }

func (g verticalGradient) Bounds() image.Rectangle {
	return image.Rect(-1e9, -1e9, 1e9, 1e9)
}

func (g verticalGradient) At(_, y int) color.Color {
	t := 0.0
	if g.y1 > g.y0 {
		t = geometry.Clamp((float64(y)+0.5-g.y0)/(g.y1-g.y0), 0, 1)
	}
	lerp := func(a, b uint8) uint8 { return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t)) }
	return color.NRGBA{
		R: lerp(g.from.R, g.to.R),
		G: lerp(g.from.G, g.to.G),
		B: lerp(g.from.B, g.to.B),
		A: lerp(g.from.A, g.to.A),
	}
}
