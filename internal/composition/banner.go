package composition

import (
	"fmt"
	"strings"

	"github.com/ivlev/postframe/internal/text"
)

type BannerPreset int

const (
	PresetBreaking BannerPreset = iota
	PresetLive
	PresetUpdate
	PresetExclusive
	PresetDeveloping
	PresetCustom
)

var presetNames = map[BannerPreset]string{
	PresetBreaking:   "breaking",
	PresetLive:       "live",
	PresetUpdate:     "update",
	PresetExclusive:  "exclusive",
	PresetDeveloping: "developing",
	PresetCustom:     "custom",
}

// Presets lists every preset in display order.
var Presets = []BannerPreset{PresetBreaking, PresetLive, PresetUpdate, PresetExclusive, PresetDeveloping, PresetCustom}

// PresetValues are the fields a preset controls.
type PresetValues struct {
	Text          string  `json:"text"`
	LetterSpacing float64 `json:"letter_spacing"`
	Align         Align   `json:"align"`
	Color         Color   `json:"color"`
}

var presetTable = map[BannerPreset]PresetValues{
	PresetBreaking:   {Text: "BREAKING", LetterSpacing: 0.85, Align: AlignCenter, Color: MustColor("#850000")},
	PresetLive:       {Text: "LIVE", LetterSpacing: 0.85, Align: AlignCenter, Color: MustColor("#d10000")},
	PresetUpdate:     {Text: "UPDATE", LetterSpacing: 0.6, Align: AlignCenter, Color: MustColor("#0b4f9c")},
	PresetExclusive:  {Text: "EXCLUSIVE", LetterSpacing: 0.5, Align: AlignCenter, Color: MustColor("#1c1c1c")},
	PresetDeveloping: {Text: "DEVELOPING", LetterSpacing: 0.4, Align: AlignCenter, Color: MustColor("#b35c00")},
}

func (p BannerPreset) String() string {
	if s, ok := presetNames[p]; ok {
		return s
	}
	return fmt.Sprintf("BannerPreset(%d)", int(p))
}

// Values returns the preset's fields. Custom has none.
func (p BannerPreset) Values() (PresetValues, bool) {
	v, ok := presetTable[p]
	return v, ok
}

func ParseBannerPreset(s string) (BannerPreset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PresetBreaking, nil
	}
	for p, name := range presetNames {
		if name == s {
			return p, nil
		}
	}
	return PresetCustom, fmt.Errorf("unknown banner preset: %q", s)
}

func (p BannerPreset) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *BannerPreset) UnmarshalText(b []byte) error {
	v, err := ParseBannerPreset(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Banner is the tag strip above the top-most text box.
type Banner struct {
	Visible       bool         `yaml:"visible" json:"visible"`
	Preset        BannerPreset `yaml:"preset" json:"preset"`
	Text          string       `yaml:"text" json:"text"`
	LetterSpacing Number       `yaml:"letter_spacing" json:"letter_spacing"`
	Color         Color        `yaml:"color" json:"color"`
	Opacity       Number       `yaml:"opacity" json:"opacity"`
	FontSize      Number       `yaml:"font_size" json:"font_size"`
	FontFamily    string       `yaml:"font_family" json:"font_family"`
	FontWeight    FontWeight   `yaml:"font_weight" json:"font_weight"`
	FontStyle     FontStyle    `yaml:"font_style" json:"font_style"`
	Align         Align        `yaml:"align" json:"align"`
	TextCase      text.Case    `yaml:"text_case" json:"text_case"`
}

func DefaultBanner() Banner {
	b := Banner{
		Opacity:    Num(0.6),
		FontSize:   Num(40),
		FontFamily: "Helvetica Neue",
		FontWeight: WeightBold,
		FontStyle:  StyleNormal,
		TextCase:   text.CaseUpper,
	}
	return b.ApplyPreset(PresetBreaking)
}

// ApplyPreset copies the preset's text, spacing, alignment and colour.
// Selecting custom keeps the current values editable.
func (b Banner) ApplyPreset(p BannerPreset) Banner {
	b.Preset = p
	v, ok := p.Values()
	if !ok {
		return b
	}
	b.Text = v.Text
	b.LetterSpacing = Num(v.LetterSpacing)
	b.Align = v.Align
	b.Color = v.Color
	return b
}

// Edits to preset-controlled fields switch the banner to the custom preset.

func (b Banner) WithText(s string) Banner {
	b.Text = s
	b.Preset = PresetCustom
	return b
}

func (b Banner) WithLetterSpacing(n Number) Banner {
	b.LetterSpacing = n
	b.Preset = PresetCustom
	return b
}

func (b Banner) WithAlign(a Align) Banner {
	b.Align = a
	b.Preset = PresetCustom
	return b
}

func (b Banner) WithColor(c Color) Banner {
	b.Color = c
	b.Preset = PresetCustom
	return b
}

// Drawable reports whether every numeric field needed to draw is valid.
func (b Banner) Drawable() bool {
	size, ok := b.FontSize.Float()
	return ok && size > 0 && b.Opacity.Valid() && b.LetterSpacing.Valid()
}
