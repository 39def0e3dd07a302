package composition

import (
	"image"
	"math"

	"github.com/ivlev/postframe/internal/geometry"
)

const (
	MinZoom        = 0.1
	MaxZoom        = 3.0
	MinPinch       = 0.5
	MaxPinch       = 3.0
	PinchSmoothing = 0.8
)

// PhotoTransform is the user placement of a bitmap on the frame.
type PhotoTransform struct {
	Scale    float64 `yaml:"scale" json:"scale"`
	OffsetX  float64 `yaml:"offset_x" json:"offset_x"`
	OffsetY  float64 `yaml:"offset_y" json:"offset_y"`
	Rotation float64 `yaml:"rotation" json:"rotation"`
}

// IdentityTransform is the crop-to-fill placement.
func IdentityTransform() PhotoTransform { return PhotoTransform{Scale: 1} }

func (t PhotoTransform) Pose() geometry.Pose {
	return geometry.Pose{Scale: t.Scale, OffsetX: t.OffsetX, OffsetY: t.OffsetY, Rotation: t.Rotation}
}

func (t PhotoTransform) Pan(dx, dy float64) PhotoTransform {
	t.OffsetX += dx
	t.OffsetY += dy
	return t
}

// Zoom sets the scale, clamped to [MinZoom, MaxZoom].
func (t PhotoTransform) Zoom(scale float64) PhotoTransform {
	t.Scale = geometry.Clamp(scale, MinZoom, MaxZoom)
	return t
}

// Pinch applies a two-finger gesture ratio (new distance / old distance).
func (t PhotoTransform) Pinch(ratio float64) PhotoTransform {
	if ratio <= 0 || math.IsNaN(ratio) {
		return t
	}
	smooth := 1 + (ratio-1)*PinchSmoothing
	t.Scale = geometry.Clamp(t.Scale*smooth, MinPinch, MaxPinch)
	return t
}

// Rotate sets the rotation in degrees, normalized to [0, 360).
func (t PhotoTransform) Rotate(deg float64) PhotoTransform {
	t.Rotation = geometry.NormalizeDegrees(deg)
	return t
}

// Fit makes the whole bitmap visible inside the frame.
func Fit(bounds image.Rectangle, f Frame) PhotoTransform {
	s := geometry.ContainScale(float64(bounds.Dx()), float64(bounds.Dy()), float64(f.Width), float64(f.Height))
	return PhotoTransform{Scale: s}
}

// Crop returns crop-to-fill at scale 1. With a focus rectangle (in bitmap
// pixels) the offset centres it, clamped so the frame stays covered.
func Crop(bounds image.Rectangle, f Frame, focus *image.Rectangle) PhotoTransform {
	t := IdentityTransform()
	if focus == nil || focus.Empty() || bounds.Empty() {
		return t
	}
	bw, bh := float64(bounds.Dx()), float64(bounds.Dy())
	fw, fh := float64(f.Width), float64(f.Height)
	dw, dh := geometry.CoverSize(bw, bh, fw, fh)
	k := dw / bw

	fcx := float64(focus.Min.X+focus.Max.X)/2 - float64(bounds.Min.X)
	fcy := float64(focus.Min.Y+focus.Max.Y)/2 - float64(bounds.Min.Y)

	maxX, maxY := (dw-fw)/2, (dh-fh)/2
	t.OffsetX = geometry.Clamp(-(fcx-bw/2)*k, -maxX, maxX)
	t.OffsetY = geometry.Clamp(-(fcy-bh/2)*k, -maxY, maxY)
	return t
}
