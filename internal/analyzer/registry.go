package analyzer

import (
	"fmt"
	"image"
)

// NewDetector returns the detector for variant. "none" yields a nil
// detector, which Focus treats as "no subject": crop then centres.
func NewDetector(variant string) (Detector, error) {
	switch variant {
	case "contrast", "":
		return NewContrastDetector(), nil
	case "center":
		return CenterDetector{}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown detector variant: %s", variant)
	}
}

// CenterDetector reports the middle third of the photo.
type CenterDetector struct{}

func (CenterDetector) Detect(img image.Image) ([]Block, error) {
	b := img.Bounds()
	w, h := b.Dx()/3, b.Dy()/3
	if w == 0 || h == 0 {
		return nil, nil
	}
	r := image.Rect(b.Min.X+w, b.Min.Y+h, b.Min.X+2*w, b.Min.Y+2*h)
	return []Block{{Rect: r, Density: 1}}, nil
}
