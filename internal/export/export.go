package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/engine"
	"github.com/ivlev/postframe/internal/renderer"
)

var (
	// ErrCancelled means the user dismissed a share or copy. It is not a failure.
	ErrCancelled       = errors.New("delivery cancelled")
	ErrSurfaceNotReady = errors.New("surface not ready")
)

// Surface is the live preview an export renders through; *engine.Session
// implements it.
type Surface interface {
	State() composition.State
	Render(ctx context.Context, opts renderer.Options) (*image.RGBA, error)
	Refresh(ctx context.Context) error
}

// Deliverer hands a PNG to the user and returns where it went.
type Deliverer interface {
	Deliver(ctx context.Context, name string, png []byte) (string, error)
}

type Method int

const (
	MethodAuto Method = iota
	MethodDownload
	MethodShare
	MethodClipboard
)

func (m Method) String() string {
	switch m {
	case MethodDownload:
		return "download"
	case MethodShare:
		return "share"
	case MethodClipboard:
		return "clipboard"
	default:
		return "auto"
	}
}

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MethodAuto, nil
	case "download":
		return MethodDownload, nil
	case "share":
		return MethodShare, nil
	case "clipboard", "copy":
		return MethodClipboard, nil
	default:
		return MethodAuto, fmt.Errorf("unknown delivery method: %q", s)
	}
}

// Platform describes what the current device can do.
type Platform struct {
	Mobile            bool
	CanShare          bool
	CanClipboardImage bool
}

// Choose resolves auto: share on mobile, clipboard on desktop, otherwise a
// download. Explicit methods are kept.
func (p Platform) Choose(m Method) Method {
	if m != MethodAuto {
		return m
	}
	switch {
	case p.Mobile && p.CanShare:
		return MethodShare
	case !p.Mobile && p.CanClipboardImage:
		return MethodClipboard
	default:
		return MethodDownload
	}
}

// Outcome reports how a delivery ended.
type Outcome struct {
	Method    Method
	Name      string
	Location  string
	Cancelled bool
	// FellBack is set when share or clipboard failed and a download ran instead.
	FellBack bool
}

type Exporter struct {
	surface   Surface
	Product   string
	Download  Deliverer
	Share     Deliverer
	Clipboard Deliverer
	now       func() time.Time
}

func NewExporter(s Surface, product string, download Deliverer) *Exporter {
	if product == "" {
		product = "postframe"
	}
	return &Exporter{surface: s, Product: product, Download: download, now: time.Now}
}

// ExportFrame renders without the guide and encodes the result as PNG. The
// preview is re-rendered afterwards whatever happened, even when ctx is done.
func (e *Exporter) ExportFrame(ctx context.Context) ([]byte, error) {
	data, err := e.encodeFrame(ctx)

	if rerr := e.surface.Refresh(context.WithoutCancel(ctx)); rerr != nil && !errors.Is(rerr, engine.ErrStale) {
		log.Printf("[!] restore preview: %v", rerr)
	}
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return data, nil
}

func (e *Exporter) encodeFrame(ctx context.Context) ([]byte, error) {
	img, err := e.surface.Render(ctx, renderer.Options{Guide: false})
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrSurfaceNotReady
	}
	return EncodePNG(img)
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is <product>-<ratio>-<unix millis>.png with the ratio as "4-5".
func FileName(product string, r composition.AspectRatio, t time.Time) string {
	return fmt.Sprintf("%s-%s-%d.png", product, r.Slug(), t.UnixMilli())
}

// Deliver exports the frame and hands it over by m, resolved against p.
// Share or clipboard errors other than ErrCancelled fall back to a download;
// a cancellation ends quietly.
func (e *Exporter) Deliver(ctx context.Context, m Method, p Platform) (Outcome, error) {
	data, err := e.ExportFrame(ctx)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Method: p.Choose(m), Name: FileName(e.Product, e.surface.State().Ratio, e.now())}
	var primary Deliverer
	switch out.Method {
	case MethodShare:
		primary = e.Share
	case MethodClipboard:
		primary = e.Clipboard
	}

	if out.Method != MethodDownload {
		if primary == nil {
			log.Printf("[!] %s is not available, downloading instead", out.Method)
		} else {
			loc, err := primary.Deliver(ctx, out.Name, data)
			switch {
			case err == nil:
				out.Location = loc
				return out, nil
			case errors.Is(err, ErrCancelled):
				out.Cancelled = true
				return out, nil
			}
			log.Printf("[!] %s failed, downloading instead: %v", out.Method, err)
		}
		out.Method = MethodDownload
		out.FellBack = true
	}

	if e.Download == nil {
		return out, errors.New("download: no target directory configured")
	}
	loc, err := e.Download.Deliver(ctx, out.Name, data)
	if err != nil {
		return out, fmt.Errorf("download: %w", err)
	}
	out.Location = loc
	return out, nil
}
