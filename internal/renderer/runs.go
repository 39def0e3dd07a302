package renderer

import (
	"context"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/geometry"
	"github.com/ivlev/postframe/internal/text"
)

// runStyle is the base face of a box or banner. Span emphasis is OR-ed in.
type runStyle struct {
	family       string
	size         float64
	bold, italic bool
}

func runStyleOf(s composition.Style, size float64) runStyle {
	return runStyle{
		family: s.FontFamily,
		size:   size,
		bold:   s.FontWeight == composition.WeightBold,
		italic: s.FontStyle == composition.StyleItalic,
	}
}

func (r *Renderer) face(rs runStyle, bold, italic bool) font.Face {
	return r.fonts.Face(rs.family, rs.size, rs.bold || bold, rs.italic || italic)
}

// measurer gives text widths that match what drawRun advances: face advance
// for text, size + gap for every emoji.
type measurer struct {
	r  *Renderer
	rs runStyle
}

func (r *Renderer) measurer(rs runStyle) measurer { return measurer{r: r, rs: rs} }

func (m measurer) Measure(s string, bold, italic bool) float64 {
	face := m.r.face(m.rs, bold, italic)
	w := 0.0
	for _, seg := range text.SegmentEmoji(s) {
		if seg.Kind == text.KindEmoji {
			w += emojiAdvance(m.rs.size)
			continue
		}
		w += toFloat(font.MeasureString(face, seg.Content))
	}
	return w
}

func emojiAdvance(size float64) float64 { return size + geometry.EmojiGap }

// measureBanner splits the cased banner text into graphemes and returns each
// width plus the total, which leaves out spacing after the last character.
// The banner has a single style, so emphasis markers are dropped.
func (r *Renderer) measureBanner(bn composition.Banner, rs runStyle) ([]string, []float64, float64) {
	m := r.measurer(rs)
	chars := text.Graphemes(text.StripMarkdown(text.TransformCase(bn.Text, bn.TextCase)))
	widths := make([]float64, len(chars))
	total := 0.0
	for i, ch := range chars {
		if text.IsEmoji(ch) {
			widths[i] = emojiAdvance(rs.size)
		} else {
			widths[i] = m.Measure(ch, false, false)
		}
		total += widths[i]
	}
	if len(chars) > 1 {
		spacing, _ := bn.LetterSpacing.Float()
		total += rs.size * spacing * float64(len(chars)-1)
	}
	return chars, widths, total
}

// drawRun draws s at x and returns the x after it. Emoji are drawn as glyph
// images; when a glyph is unavailable the raw text takes its slot.
func (r *Renderer) drawRun(ctx context.Context, dst *image.RGBA, s string, x, baseline, emojiTop float64, face font.Face, size float64, src image.Image) float64 {
	for _, seg := range text.SegmentEmoji(s) {
		if seg.Kind != text.KindEmoji {
			x += drawText(dst, face, src, seg.Content, x, baseline)
			continue
		}
		if !r.drawEmoji(ctx, dst, seg.CodePoint, x, emojiTop, size) {
			drawText(dst, face, src, seg.Content, x, baseline)
		}
		x += emojiAdvance(size)
	}
	return x
}

func (r *Renderer) drawEmoji(ctx context.Context, dst *image.RGBA, codePoint string, x, top, size float64) bool {
	if r.glyphs == nil {
		return false
	}
	img, err := r.glyphs.Glyph(ctx, codePoint)
	if err != nil || img == nil {
		return false
	}
	rect := image.Rect(
		int(math.Round(x)), int(math.Round(top)),
		int(math.Round(x+size)), int(math.Round(top+size)),
	)
	xdraw.CatmullRom.Scale(dst, rect, img, img.Bounds(), xdraw.Over, nil)
	return true
}

func drawText(dst *image.RGBA, face font.Face, src image.Image, s string, x, baseline float64) float64 {
	if s == "" {
		return 0
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(baseline)},
	}
	d.DrawString(s)
	return toFloat(font.MeasureString(face, s))
}
