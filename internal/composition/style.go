package composition

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/ivlev/postframe/internal/text"
)

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
	AlignJustify
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	case AlignJustify:
		return "justify"
	default:
		return fmt.Sprintf("Align(%d)", int(a))
	}
}

func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right":
		return AlignRight, nil
	case "justify":
		return AlignJustify, nil
	default:
		return AlignLeft, fmt.Errorf("unknown alignment: %q", s)
	}
}

func (a Align) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Align) UnmarshalText(b []byte) error {
	v, err := ParseAlign(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

type FontWeight int

const (
	WeightNormal FontWeight = iota
	WeightBold
)

func (w FontWeight) String() string {
	if w == WeightBold {
		return "bold"
	}
	return "normal"
}

func (w FontWeight) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

func (w *FontWeight) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "normal", "400":
		*w = WeightNormal
	case "bold", "700":
		*w = WeightBold
	default:
		return fmt.Errorf("unknown font weight: %q", b)
	}
	return nil
}

type FontStyle int

const (
	StyleNormal FontStyle = iota
	StyleItalic
)

func (s FontStyle) String() string {
	if s == StyleItalic {
		return "italic"
	}
	return "normal"
}

func (s FontStyle) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *FontStyle) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "normal":
		*s = StyleNormal
	case "italic", "oblique":
		*s = StyleItalic
	default:
		return fmt.Errorf("unknown font style: %q", b)
	}
	return nil
}

// Color is an opaque RGB colour written as #rrggbb.
type Color struct{ R, G, B uint8 }

var (
	White = Color{0xff, 0xff, 0xff}
	Black = Color{}
)

// ParseColor accepts #rgb and #rrggbb, with or without the leading '#'.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid hex colour: %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex colour: %q", s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

func (c Color) String() string { return c.Hex() }

// NRGBA returns c with the given alpha in [0,1].
func (c Color) NRGBA(alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(alpha*255 + 0.5)}
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Style is the formatting applied to a text box.
type Style struct {
	FontSize   Number     `yaml:"font_size" json:"font_size"`
	FontFamily string     `yaml:"font_family" json:"font_family"`
	FontWeight FontWeight `yaml:"font_weight" json:"font_weight"`
	FontStyle  FontStyle  `yaml:"font_style" json:"font_style"`
	TextCase   text.Case  `yaml:"text_case" json:"text_case"`
	Align      Align      `yaml:"align" json:"align"`
	Color      Color      `yaml:"color" json:"color"`
}

// DefaultStyle is the formatting a new box and the global defaults start with.
func DefaultStyle() Style {
	return Style{
		FontSize:   Num(40),
		FontFamily: "Helvetica Neue",
		FontWeight: WeightNormal,
		FontStyle:  StyleNormal,
		TextCase:   text.CaseDefault,
		Align:      AlignLeft,
		Color:      White,
	}
}
