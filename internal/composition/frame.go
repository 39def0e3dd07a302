package composition

import (
	"fmt"
	"strings"
)

// AspectRatio is the closed set of output formats.
type AspectRatio int

const (
	Ratio3x4 AspectRatio = iota
	Ratio4x5
	Ratio1x1
	Ratio9x16
)

// Ratios lists every AspectRatio in display order.
var Ratios = []AspectRatio{Ratio3x4, Ratio4x5, Ratio1x1, Ratio9x16}

// Frame is the output canvas size in pixels.
type Frame struct {
	Width  int
	Height int
}

func (r AspectRatio) String() string {
	switch r {
	case Ratio3x4:
		return "3:4"
	case Ratio4x5:
		return "4:5"
	case Ratio1x1:
		return "1:1"
	case Ratio9x16:
		return "9:16"
	default:
		return fmt.Sprintf("AspectRatio(%d)", int(r))
	}
}

// Label is the human-readable name.
func (r AspectRatio) Label() string {
	switch r {
	case Ratio4x5:
		return "4:5 (Post)"
	case Ratio1x1:
		return "1:1 (Square)"
	case Ratio9x16:
		return "9:16 (Story)"
	default:
		return r.String()
	}
}

// Slug is the ratio with a dash, safe for file names ("4-5").
func (r AspectRatio) Slug() string {
	return strings.ReplaceAll(r.String(), ":", "-")
}

func (r AspectRatio) Frame() Frame {
	switch r {
	case Ratio3x4:
		return Frame{Width: 1080, Height: 1440}
	case Ratio1x1:
		return Frame{Width: 1080, Height: 1080}
	case Ratio9x16:
		return Frame{Width: 1080, Height: 1920}
	default:
		return Frame{Width: 1080, Height: 1350}
	}
}

// BottomMargin is the gap between the bottom-most text box and the frame edge.
func (r AspectRatio) BottomMargin() float64 {
	if r == Ratio9x16 {
		return 100
	}
	return 25
}

func ParseAspectRatio(s string) (AspectRatio, error) {
	switch strings.TrimSpace(s) {
	case "3:4", "3-4":
		return Ratio3x4, nil
	case "4:5", "4-5", "":
		return Ratio4x5, nil
	case "1:1", "1-1":
		return Ratio1x1, nil
	case "9:16", "9-16", "story":
		return Ratio9x16, nil
	default:
		return Ratio4x5, fmt.Errorf("unknown aspect ratio: %q", s)
	}
}

func (r AspectRatio) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *AspectRatio) UnmarshalText(b []byte) error {
	v, err := ParseAspectRatio(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
