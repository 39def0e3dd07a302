package source

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the resolution PDF pages are rasterized at.
const DefaultDPI = 150

// Source yields bitmaps for the photo and blur slots. Single images have one
// page; PDFs and directories have one per page or file.
type Source interface {
	PageCount() int
	Dimensions(index int) (width, height int, err error)
	Bitmap(index int) (image.Image, error)
	Close() error
}

// Open picks a source by path: directories and image files decode as
// rasters, .pdf goes through MuPDF.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path, DefaultDPI)
	}
	return NewImageSource(path)
}

// LoadBitmap returns page 0 of path.
func LoadBitmap(ctx context.Context, path string) (image.Image, error) {
	return LoadPage(ctx, path, 0)
}

// LoadPage decodes one page of path. The decode itself cannot be interrupted;
// a cancelled ctx abandons it and returns ctx.Err().
func LoadPage(ctx context.Context, path string, page int) (image.Image, error) {
	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := loadPage(path, page)
		done <- result{img, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.img, r.err
	}
}

func loadPage(path string, page int) (image.Image, error) {
	src, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()
	if page < 0 || page >= src.PageCount() {
		return nil, fmt.Errorf("%s: page %d out of range (%d pages)", path, page, src.PageCount())
	}
	img, err := src.Bitmap(page)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

type FitzPDFSource struct {
	doc *fitz.Document
	dpi float64
}

func NewFitzPDFSource(path string, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzPDFSource{doc: doc, dpi: float64(dpi)}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

// Dimensions reports the page size in pixels at the source DPI.
func (f *FitzPDFSource) Dimensions(index int) (int, int, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	scale := f.dpi / 72
	return int(float64(rect.Dx()) * scale), int(float64(rect.Dy()) * scale), nil
}

func (f *FitzPDFSource) Bitmap(index int) (image.Image, error) {
	return f.doc.ImageDPI(index, f.dpi)
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}
