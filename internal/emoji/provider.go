package emoji

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultBaseURL serves 72x72 twemoji PNGs named by code point.
const DefaultBaseURL = "https://cdn.jsdelivr.net/gh/twitter/twemoji@14.0.2/assets/72x72/"

var ErrNotFound = errors.New("emoji glyph not found")

// Provider loads the glyph image for a code point such as "1f534" or "1f1fa-1f1f8".
type Provider interface {
	Glyph(ctx context.Context, codePoint string) (image.Image, error)
}

// HTTPProvider fetches glyphs from a twemoji-style CDN.
type HTTPProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPProvider{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}
}

// Glyph downloads <base><codePoint>.png. Twemoji drops the VS-16 suffix from
// most file names, so a 404 is retried without it.
func (p *HTTPProvider) Glyph(ctx context.Context, codePoint string) (image.Image, error) {
	img, err := p.fetch(ctx, codePoint)
	if errors.Is(err, ErrNotFound) {
		if short := trimVariation(codePoint); short != codePoint {
			return p.fetch(ctx, short)
		}
	}
	return img, err
}

func (p *HTTPProvider) fetch(ctx context.Context, codePoint string) (image.Image, error) {
	url := p.BaseURL + codePoint + ".png"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", codePoint, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", codePoint, err)
	}
	return img, nil
}

// DirProvider reads <Dir>/<codePoint>.png, for offline use.
type DirProvider struct {
	Dir string
}

func (p DirProvider) Glyph(_ context.Context, codePoint string) (image.Image, error) {
	for _, cp := range []string{codePoint, trimVariation(codePoint)} {
		img, err := imaging.Open(filepath.Join(p.Dir, cp+".png"))
		if err == nil {
			return img, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", codePoint, ErrNotFound)
}

// Chain tries each provider in order and returns the first glyph found.
type Chain []Provider

func (c Chain) Glyph(ctx context.Context, codePoint string) (image.Image, error) {
	var errs []error
	for _, p := range c {
		img, err := p.Glyph(ctx, codePoint)
		if err == nil {
			return img, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%s: %w", codePoint, ErrNotFound)
	}
	return nil, errors.Join(errs...)
}

func trimVariation(codePoint string) string {
	return strings.ReplaceAll(codePoint, "-fe0f", "")
}
