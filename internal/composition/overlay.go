package composition

import (
	"fmt"
	"strings"
)

// OverlayMode picks the decorative overlay set. Only OverlayCustom shows the banner.
type OverlayMode int

const (
	OverlayRegular OverlayMode = iota
	OverlayCustom
)

func (m OverlayMode) String() string {
	if m == OverlayCustom {
		return "custom"
	}
	return "regular"
}

func (m OverlayMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *OverlayMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "regular":
		*m = OverlayRegular
	case "custom":
		*m = OverlayCustom
	default:
		return fmt.Errorf("unknown overlay mode: %q", b)
	}
	return nil
}

type OverlayColor int

const (
	OverlayWhite OverlayColor = iota
	OverlayBlack
)

func (c OverlayColor) String() string {
	if c == OverlayBlack {
		return "black"
	}
	return "white"
}

func (c OverlayColor) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *OverlayColor) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "white":
		*c = OverlayWhite
	case "black":
		*c = OverlayBlack
	default:
		return fmt.Errorf("unknown overlay colour: %q", b)
	}
	return nil
}

// OverlayKey identifies one asset of the overlay catalog. Permanent overlays
// depend on the ratio only.
type OverlayKey struct {
	Permanent bool
	Mode      OverlayMode
	Color     OverlayColor
	Ratio     AspectRatio
}

// FileName is the catalog file for k, e.g. "custom-white-overlay-4-5.png".
func (k OverlayKey) FileName() string {
	if k.Permanent {
		return "overlay-" + k.Ratio.Slug() + ".png"
	}
	return fmt.Sprintf("%s-%s-overlay-%s.png", k.Mode, k.Color, k.Ratio.Slug())
}

// OverlayKeys lists every asset the catalog can hold.
func OverlayKeys() []OverlayKey {
	var keys []OverlayKey
	for _, r := range Ratios {
		keys = append(keys, OverlayKey{Permanent: true, Ratio: r})
		for _, m := range []OverlayMode{OverlayRegular, OverlayCustom} {
			for _, c := range []OverlayColor{OverlayWhite, OverlayBlack} {
				keys = append(keys, OverlayKey{Mode: m, Color: c, Ratio: r})
			}
		}
	}
	return keys
}
