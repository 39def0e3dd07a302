package geometry

import (
	"image"
	"math"

	"golang.org/x/image/math/f64"
)

// Pose positions a bitmap inside a frame. Offsets are frame pixels, Rotation
// is in degrees and Scale multiplies the crop-to-fill size.
type Pose struct {
	Scale    float64
	OffsetX  float64
	OffsetY  float64
	Rotation float64
}

// CoverSize returns the size of a bw×bh bitmap scaled to fully cover fw×fh
// while keeping its aspect ratio.
func CoverSize(bw, bh, fw, fh float64) (w, h float64) {
	if bw <= 0 || bh <= 0 {
		return fw, fh
	}
	s := math.Max(fw/bw, fh/bh)
	return bw * s, bh * s
}

// ContainScale returns the Pose scale at which a cover-sized draw becomes
// fully visible inside the frame.
func ContainScale(bw, bh, fw, fh float64) float64 {
	if bw <= 0 || bh <= 0 {
		return 1
	}
	return math.Min(fw/bw, fh/bh) / math.Max(fw/bw, fh/bh)
}

// Placement maps source pixels of a bitmap with bounds src onto the frame:
// translate to frame centre plus offset, rotate, scale, then draw the
// cover-sized bitmap centred on the origin.
func Placement(src image.Rectangle, fw, fh float64, p Pose) f64.Aff3 {
	bw, bh := float64(src.Dx()), float64(src.Dy())
	dw, dh := CoverSize(bw, bh, fw, fh)

	sin, cos := math.Sincos(p.Rotation * math.Pi / 180)
	kx := p.Scale * dw / bw
	ky := p.Scale * dh / bh
	ox, oy := -p.Scale*dw/2, -p.Scale*dh/2
	cx, cy := fw/2+p.OffsetX, fh/2+p.OffsetY

	a, b := cos*kx, -sin*ky
	d, e := sin*kx, cos*ky
	c := cos*ox - sin*oy + cx
	f := sin*ox + cos*oy + cy

	mx, my := float64(src.Min.X), float64(src.Min.Y)
	c -= a*mx + b*my
	f -= d*mx + e*my
	return f64.Aff3{a, b, c, d, e, f}
}

// Apply maps (x, y) through m.
func Apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// NormalizeDegrees folds deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
