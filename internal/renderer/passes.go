package renderer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/geometry"
	"github.com/ivlev/postframe/internal/text"
)

const guideLabel = "3:4 Safe Area"

var (
	white      = image.NewUniform(color.White)
	boxTop     = color.NRGBA{A: 115}
	boxBottom  = color.NRGBA{A: 255}
	guideDim   = color.NRGBA{A: 128}
	guideLine  = color.NRGBA{R: 255, A: 255}
	guidePlate = color.NRGBA{A: 179}
	guideDash  = []float64{10, 5}
)

func clearSurface(dst *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// drawBlur paints the blur source with its own transform into a scratch
// buffer, blurs it and composites the result.
func (r *Renderer) drawBlur(dst *image.RGBA, st composition.State) {
	if !st.Blur.Enabled {
		return
	}
	src := st.Blur.Source(st.Photo)
	if src == nil {
		return
	}
	sigma, ok := st.Blur.Intensity.Float()
	if !ok {
		return
	}

	b := dst.Bounds()
	buf := r.pool.Get(b)
	defer r.pool.Put(buf)

	m := geometry.Placement(src.Bounds(), float64(b.Dx()), float64(b.Dy()), st.Blur.Transform.Pose())
	xdraw.BiLinear.Transform(buf, m, src, src.Bounds(), xdraw.Over, nil)

	var blurred image.Image = buf
	if sigma > 0 {
		blurred = imaging.Blur(buf, sigma)
	}
	draw.Draw(dst, b, blurred, blurred.Bounds().Min, draw.Over)
}

func (r *Renderer) drawPhoto(dst *image.RGBA, st composition.State) {
	if st.Photo == nil {
		return
	}
	b := dst.Bounds()
	m := geometry.Placement(st.Photo.Bounds(), float64(b.Dx()), float64(b.Dy()), st.PhotoTransform.Pose())
	xdraw.BiLinear.Transform(dst, m, st.Photo, st.Photo.Bounds(), xdraw.Over, nil)
}

// drawOverlays stretches the mode overlay, then the permanent one, over the
// whole frame. Assets that are not loaded are skipped.
func (r *Renderer) drawOverlays(dst *image.RGBA, st composition.State) {
	if r.overlays == nil {
		return
	}
	keys := []composition.OverlayKey{
		{Mode: st.Overlay, Color: st.OverlayColor, Ratio: st.Ratio},
		{Permanent: true, Ratio: st.Ratio},
	}
	b := dst.Bounds()
	for _, k := range keys {
		img := r.overlays.Overlay(k)
		if img == nil {
			continue
		}
		if img.Bounds().Size() == b.Size() {
			draw.Draw(dst, b, img, img.Bounds().Min, draw.Over)
			continue
		}
		xdraw.BiLinear.Scale(dst, b, img, img.Bounds(), xdraw.Over, nil)
	}
}

func (r *Renderer) drawBoxes(ctx context.Context, dst *image.RGBA, lay frameLayout) {
	for i, b := range lay.boxes {
		if !b.placed {
			continue
		}
		corners := geometry.AllRounded
		if lay.banner && i == lay.topMost {
			corners = geometry.SquareTop
		}
		grad := verticalGradient{y0: b.rect.Y, y1: b.rect.Bottom(), from: boxTop, to: boxBottom}
		fill(dst, grad, geometry.RoundedRect(b.rect, geometry.BoxRadius, corners))
		fill(dst, white, geometry.InsetStroke(b.rect, geometry.BoxRadius, corners, geometry.StrokeInset, geometry.StrokeWidth)...)
		r.drawLines(ctx, dst, b)
	}
}

// drawLines draws the wrapped lines of a box. Line tops use a top baseline;
// justified lines spread the slack over their spaces except on the last
// line of a paragraph.
func (r *Renderer) drawLines(ctx context.Context, dst *image.RGBA, b boxLayout) {
	rs := runStyleOf(b.style, b.size)
	m := r.measurer(rs)
	col := image.NewUniform(b.style.Color.NRGBA(1))
	ascent := toFloat(r.face(rs, false, false).Metrics().Ascent)
	contentW := b.rect.W - 2*geometry.TextMargin
	lh := geometry.LineHeight(b.size)

	for li, line := range b.lines {
		top := b.rect.Y + geometry.PaddingVertical + float64(li)*lh
		baseline := top + ascent
		emojiTop := top + b.size*geometry.EmojiDropFactor

		x := b.rect.X + geometry.TextMargin
		extra := 0.0
		switch b.style.Align {
		case composition.AlignCenter:
			x = b.rect.X + b.rect.W/2 - line.Width/2
		case composition.AlignRight:
			x = b.rect.Right() - geometry.TextMargin - line.Width
		case composition.AlignJustify:
			if gaps := countSpaces(line.Spans); !line.Last && gaps > 0 && line.Width < contentW {
				extra = (contentW - line.Width) / float64(gaps)
			}
		}

		for _, sp := range line.Spans {
			face := r.face(rs, sp.Bold, sp.Italic)
			if extra == 0 {
				x = r.drawRun(ctx, dst, sp.Text, x, baseline, emojiTop, face, b.size, col)
				continue
			}
			for wi, w := range strings.Split(sp.Text, " ") {
				if wi > 0 {
					x += m.Measure(" ", sp.Bold, sp.Italic) + extra
				}
				x = r.drawRun(ctx, dst, w, x, baseline, emojiTop, face, b.size, col)
			}
		}
	}
}

// drawBanner draws the banner above the top-most box. Characters are laid
// out one grapheme at a time with letter spacing between them.
func (r *Renderer) drawBanner(ctx context.Context, dst *image.RGBA, bn composition.Banner, lay frameLayout) {
	if !lay.banner {
		return
	}
	rect := lay.bannerRect
	opacity, _ := bn.Opacity.Float()
	size, _ := bn.FontSize.Float()
	spacing, _ := bn.LetterSpacing.Float()

	fill(dst, image.NewUniform(bn.Color.NRGBA(opacity)), geometry.RoundedRect(rect, geometry.BannerRadius, geometry.SquareBottom))
	fill(dst, white, geometry.InsetStroke(rect, geometry.BannerRadius, geometry.SquareBottom, geometry.StrokeInset, geometry.StrokeWidth)...)

	rs := runStyle{
		family: bn.FontFamily,
		size:   size,
		bold:   bn.FontWeight == composition.WeightBold,
		italic: bn.FontStyle == composition.StyleItalic,
	}
	face := r.face(rs, false, false)
	chars, widths, total := r.measureBanner(bn, rs)
	gap := size * spacing

	var x float64
	switch bn.Align {
	case composition.AlignCenter:
		x = rect.X + rect.W/2 - total/2
	case composition.AlignRight:
		x = rect.Right() - geometry.BannerTextPadding - total
	default:
		x = rect.X + geometry.BannerTextPadding
	}

	centreY := rect.Y + rect.H/2
	met := face.Metrics()
	baseline := centreY + (toFloat(met.Ascent)-toFloat(met.Descent))/2
	emojiTop := centreY - size/2
	for i, ch := range chars {
		r.drawRun(ctx, dst, ch, x, baseline, emojiTop, face, size, white)
		x += widths[i] + gap
	}
}

// drawGuide dims everything outside the 3:4 safe area, outlines it with a
// dashed red border and labels it.
func (r *Renderer) drawGuide(dst *image.RGBA) {
	b := dst.Bounds()
	fw, fh := float64(b.Dx()), float64(b.Dy())
	area := geometry.SafeArea(fw, fh, geometry.SafeAreaRatio)

	if area.Y > 0 {
		fillRect(dst, geometry.Rect{W: fw, H: area.Y}, guideDim)
	}
	if area.Bottom() < fh {
		fillRect(dst, geometry.Rect{Y: area.Bottom(), W: fw, H: fh - area.Bottom()}, guideDim)
	}
	if area.X > 0 {
		fillRect(dst, geometry.Rect{Y: area.Y, W: area.X, H: area.H}, guideDim)
	}
	if area.Right() < fw {
		fillRect(dst, geometry.Rect{X: area.Right(), Y: area.Y, W: fw - area.Right(), H: area.H}, guideDim)
	}
	dashedRect(dst, area, 3, guideDash, guideLine)

	const labelSize, labelPad = 24.0, 8.0
	face := r.fonts.Face("Arial", labelSize, true, false)
	tw := toFloat(font.MeasureString(face, guideLabel))
	labelY := area.Y + 20
	if area.Y > 30 {
		labelY = area.Y - 20
	}
	fillRect(dst, geometry.Rect{
		X: fw/2 - tw/2 - labelPad,
		Y: labelY - labelSize/2 - labelPad,
		W: tw + 2*labelPad,
		H: labelSize + 2*labelPad,
	}, guidePlate)

	met := face.Metrics()
	drawText(dst, face, white, guideLabel, fw/2-tw/2, labelY+(toFloat(met.Ascent)-toFloat(met.Descent))/2)
}

func countSpaces(spans []text.Span) int {
	n := 0
	for _, sp := range spans {
		n += strings.Count(sp.Text, " ")
	}
	return n
}
