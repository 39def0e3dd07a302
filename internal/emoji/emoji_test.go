package emoji

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func glyphPNG(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(72, 72, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// cdn serves 1f534.png and 2764.png; everything else is a 404.
func cdn(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	png := glyphPNG(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "1f534.png", "2764.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestHTTPProvider(t *testing.T) {
	srv, _ := cdn(t)
	p := NewHTTPProvider(srv.URL, time.Second)

	img, err := p.Glyph(context.Background(), "1f534")
	if err != nil {
		t.Fatalf("Glyph failed: %v", err)
	}
	if img.Bounds().Dx() != 72 {
		t.Errorf("Expected 72px glyph, got %v", img.Bounds())
	}

	if _, err := p.Glyph(context.Background(), "2764-fe0f"); err != nil {
		t.Errorf("Expected retry without fe0f to succeed, got %v", err)
	}

	if _, err := p.Glyph(context.Background(), "1f600"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCacheMemoizesSuccess(t *testing.T) {
	srv, hits := cdn(t)
	c := NewCache(NewHTTPProvider(srv.URL, time.Second))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Glyph(context.Background(), "1f534"); err != nil {
				t.Errorf("Glyph failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := c.Glyph(context.Background(), "1f534"); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("Expected a single fetch, got %d", n)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 cached glyph, got %d", c.Len())
	}
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	srv, hits := cdn(t)
	c := NewCache(NewHTTPProvider(srv.URL, time.Second))

	for i := 0; i < 2; i++ {
		if _, err := c.Glyph(context.Background(), "1f600"); err == nil {
			t.Fatal("Expected failure")
		}
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("Expected failures to be retried, got %d fetches", n)
	}
}

func TestDirProviderAndChain(t *testing.T) {
	dir := t.TempDir()
	if err := imaging.Save(imaging.New(16, 16, color.Black), filepath.Join(dir, "1f600.png")); err != nil {
		t.Fatal(err)
	}

	d := DirProvider{Dir: dir}
	if _, err := d.Glyph(context.Background(), "1f600"); err != nil {
		t.Errorf("Expected local glyph, got %v", err)
	}
	if _, err := d.Glyph(context.Background(), "1f600-fe0f"); err != nil {
		t.Errorf("Expected local glyph without fe0f, got %v", err)
	}
	if _, err := d.Glyph(context.Background(), "1f601"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	srv, _ := cdn(t)
	chain := Chain{d, NewHTTPProvider(srv.URL, time.Second)}
	for _, cp := range []string{"1f600", "1f534"} {
		if _, err := chain.Glyph(context.Background(), cp); err != nil {
			t.Errorf("Chain(%s) failed: %v", cp, err)
		}
	}
	if _, err := chain.Glyph(context.Background(), "1f601"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected joined ErrNotFound, got %v", err)
	}
}

func TestPreload(t *testing.T) {
	srv, _ := cdn(t)
	c := NewCache(NewHTTPProvider(srv.URL, time.Second))

	err := c.Preload(context.Background(), "\U0001F534 LIVE", "again \U0001F534", "plain")
	if err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 cached glyph, got %d", c.Len())
	}

	if err := c.Preload(context.Background(), "\U0001F600"); err == nil {
		t.Error("Expected preload error for missing glyph")
	}
}
