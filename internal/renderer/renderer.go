package renderer

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/geometry"
	"github.com/ivlev/postframe/internal/system"
	"github.com/ivlev/postframe/internal/text"
)

// GlyphSource resolves an emoji code point ("1f534", "1f1fa-1f1f8") to an image.
type GlyphSource interface {
	Glyph(ctx context.Context, codePoint string) (image.Image, error)
}

// OverlaySource returns a loaded overlay asset, or nil when it is not loaded.
type OverlaySource interface {
	Overlay(key composition.OverlayKey) image.Image
}

// Options are per-render flags that are not part of the composition.
type Options struct {
	// Guide draws the safe-area guide. Exports always pass false.
	Guide bool
}

// Renderer runs the drawing passes. Renders are serialized: faces are not
// safe for concurrent use.
type Renderer struct {
	fonts    *FontCache
	glyphs   GlyphSource
	overlays OverlaySource
	pool     *system.ImagePool
	mu       sync.Mutex
}

type Option func(*Renderer)

func WithGlyphs(g GlyphSource) Option { return func(r *Renderer) { r.glyphs = g } }

func WithOverlays(o OverlaySource) Option { return func(r *Renderer) { r.overlays = o } }

func WithPool(p *system.ImagePool) Option { return func(r *Renderer) { r.pool = p } }

// New returns a renderer. A nil font cache uses the embedded Go fonts.
func New(fonts *FontCache, opts ...Option) *Renderer {
	if fonts == nil {
		fonts = NewEmbeddedFontCache()
	}
	r := &Renderer{fonts: fonts}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = system.NewImagePool()
	}
	return r
}

func (r *Renderer) Fonts() *FontCache { return r.fonts }

// Render draws st onto a new surface of the frame's size.
func (r *Renderer) Render(ctx context.Context, st composition.State, opts Options) (*image.RGBA, error) {
	f := st.Frame()
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if err := r.RenderInto(ctx, dst, st, opts); err != nil {
		return nil, err
	}
	return dst, nil
}

// RenderInto runs every pass onto dst, whose bounds must be the frame.
func (r *Renderer) RenderInto(ctx context.Context, dst *image.RGBA, st composition.State, opts Options) error {
	f := st.Frame()
	if dst.Bounds() != image.Rect(0, 0, f.Width, f.Height) {
		return fmt.Errorf("surface %v does not match frame %dx%d", dst.Bounds(), f.Width, f.Height)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lay := r.layout(st)
	passes := []struct {
		name string
		run  func()
	}{
		{"clear", func() { clearSurface(dst) }},
		{"blur", func() { r.drawBlur(dst, st) }},
		{"photo", func() { r.drawPhoto(dst, st) }},
		{"overlays", func() { r.drawOverlays(dst, st) }},
		{"text boxes", func() { r.drawBoxes(ctx, dst, lay) }},
		{"banner", func() { r.drawBanner(ctx, dst, st.Banner, lay) }},
		{"guide", func() {
			if opts.Guide {
				r.drawGuide(dst)
			}
		}},
	}
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("render %s: %w", p.name, err)
		}
		p.run()
	}
	return nil
}

// boxLayout is one text box as placed for this render.
type boxLayout struct {
	style  composition.Style
	size   float64
	lines  []text.Line
	rect   geometry.Rect
	placed bool
}

type frameLayout struct {
	boxes      []boxLayout
	topMost    int
	banner     bool
	bannerRect geometry.Rect
}

// layout wraps every box, stacks them bottom-up and places the banner.
// Heights are derived here on every render and never stored.
func (r *Renderer) layout(st composition.State) frameLayout {
	f := st.Frame()
	fw, fh := float64(f.Width), float64(f.Height)

	lay := frameLayout{boxes: make([]boxLayout, len(st.Boxes))}
	heights := make([]float64, len(st.Boxes))
	for i, b := range st.Boxes {
		style := b.Effective(st.Defaults)
		size, ok := style.FontSize.Float()
		if !ok || size <= 0 {
			heights[i] = -1
			continue
		}
		m := r.measurer(runStyleOf(style, size))
		content := text.TransformCase(b.Text, style.TextCase)
		lines := text.Wrap(content, geometry.ContentWidth(fw), m)
		heights[i] = geometry.BoxHeight(len(lines), size)
		lay.boxes[i] = boxLayout{style: style, size: size, lines: lines}
	}

	tops := geometry.Stack(heights, fh, st.Ratio.BottomMargin(), st.BoxMargin.Or(0))
	for i := range lay.boxes {
		if heights[i] < 0 {
			continue
		}
		lay.boxes[i].placed = true
		lay.boxes[i].rect = geometry.Rect{X: geometry.BoxX(fw), Y: tops[i], W: geometry.BoxWidth(fw), H: heights[i]}
	}

	lay.topMost = geometry.TopMost(tops)
	if top, ok := geometry.BannerTop(tops); ok && st.Banner.Visible && st.Overlay == composition.OverlayCustom && st.Banner.Drawable() {
		lay.banner = true
		lay.bannerRect = geometry.Rect{X: geometry.BoxX(fw), Y: top, W: geometry.BoxWidth(fw), H: geometry.BannerHeight}
	}
	return lay
}
