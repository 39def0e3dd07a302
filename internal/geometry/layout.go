package geometry

import "math"

// Text box and banner layout constants, in frame pixels.
const (
	BoxSideInset      = 115
	TextMargin        = 30
	PaddingVertical   = 40
	LineHeightFactor  = 1.2
	BoxRadius         = 50
	StrokeInset       = 1
	StrokeWidth       = 2
	BannerHeight      = 89
	BannerRadius      = 35.5
	BannerTextPadding = 20
	EmojiGap          = 6
	EmojiDropFactor   = 0.1
	DefaultBoxMargin  = 20
	SafeAreaRatio     = 3.0 / 4.0
)

// BoxWidth is the card width for a frame of width fw; 965 on a 1080 frame.
func BoxWidth(fw float64) float64 { return fw - BoxSideInset }

// BoxX centres a card horizontally.
func BoxX(fw float64) float64 { return (fw - BoxWidth(fw)) / 2 }

// ContentWidth is the wrap width inside a card.
func ContentWidth(fw float64) float64 { return BoxWidth(fw) - 2*TextMargin }

func LineHeight(fontSize float64) float64 { return fontSize * LineHeightFactor }

// BoxHeight is the card height for n wrapped lines.
func BoxHeight(lines int, fontSize float64) float64 {
	return float64(lines)*LineHeight(fontSize) + 2*PaddingVertical
}

// Stack places boxes bottom-up. Index 0 is the top-most box and the last index
// sits on the bottom margin. A negative height marks a skipped box: it gets a
// NaN top and consumes neither height nor margin.
func Stack(heights []float64, frameH, bottomMargin, margin float64) []float64 {
	tops := make([]float64, len(heights))
	cursor := frameH - bottomMargin
	for i := len(heights) - 1; i >= 0; i-- {
		h := heights[i]
		if h < 0 {
			tops[i] = math.NaN()
			continue
		}
		tops[i] = cursor - h
		cursor = tops[i] - margin
	}
	return tops
}

// TopMost returns the index of the first placed box, or -1.
func TopMost(tops []float64) int {
	for i, t := range tops {
		if !math.IsNaN(t) {
			return i
		}
	}
	return -1
}

// BannerTop returns the banner's top edge, directly above the top-most placed
// box. ok is false when no box is placed.
func BannerTop(tops []float64) (top float64, ok bool) {
	i := TopMost(tops)
	if i < 0 {
		return 0, false
	}
	return tops[i] - BannerHeight, true
}

// SafeArea returns the largest rectangle of aspect ratio (w/h) centred in the frame.
func SafeArea(fw, fh, ratio float64) Rect {
	w, h := fw, fh
	if fw/fh > ratio {
		w = fh * ratio
	} else {
		h = fw / ratio
	}
	return Rect{X: (fw - w) / 2, Y: (fh - h) / 2, W: w, H: h}
}
