package analyzer

import "image"

// Block is a detected region of interest in source pixel coordinates.
type Block struct {
	Rect image.Rectangle
	// Density is the share of edge pixels inside Rect, 0..1.
	Density float64
}

// Weight ranks blocks: busy regions that are also large win.
func (b Block) Weight() float64 {
	return b.Density * float64(b.Rect.Dx()*b.Rect.Dy())
}

// Detector finds regions of interest in a photo.
type Detector interface {
	Detect(img image.Image) ([]Block, error)
}

// Focus returns the heaviest block found by d, or nil when there is none.
// The crop action centres the frame on it.
func Focus(d Detector, img image.Image) (*image.Rectangle, error) {
	if d == nil || img == nil {
		return nil, nil
	}
	blocks, err := d.Detect(img)
	if err != nil {
		return nil, err
	}
	var best *Block
	for i := range blocks {
		if best == nil || blocks[i].Weight() > best.Weight() {
			best = &blocks[i]
		}
	}
	if best == nil {
		return nil, nil
	}
	r := best.Rect
	return &r, nil
}
