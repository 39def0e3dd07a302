package emoji

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ivlev/postframe/internal/text"
)

// Cache memoizes glyphs from a provider. Concurrent first requests for the
// same code point share one fetch. Failures are not cached.
type Cache struct {
	provider Provider

	mu     sync.RWMutex
	glyphs map[string]image.Image
	group  singleflight.Group
}

func NewCache(p Provider) *Cache {
	return &Cache{provider: p, glyphs: make(map[string]image.Image)}
}

func (c *Cache) Glyph(ctx context.Context, codePoint string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.glyphs[codePoint]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := c.group.Do(codePoint, func() (interface{}, error) {
		img, err := c.provider.Glyph(ctx, codePoint)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.glyphs[codePoint] = img
		c.mu.Unlock()
		return img, nil
	})
	if err != nil {
		log.Printf("[!] emoji %s: %v", codePoint, err)
		return nil, err
	}
	return v.(image.Image), nil
}

// Len reports the number of cached glyphs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.glyphs)
}

// Preload fetches every emoji in texts in parallel so the first render does
// not wait on them one by one. Individual failures do not stop the others.
func (c *Cache) Preload(ctx context.Context, texts ...string) error {
	seen := make(map[string]bool)
	var g errgroup.Group
	g.SetLimit(8)

	failed := 0
	var mu sync.Mutex
	for _, s := range texts {
		for _, seg := range text.SegmentEmoji(s) {
			if seg.Kind != text.KindEmoji || seen[seg.CodePoint] {
				continue
			}
			seen[seg.CodePoint] = true
			cp := seg.CodePoint
			g.Go(func() error {
				if _, err := c.Glyph(ctx, cp); err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	if failed > 0 {
		return fmt.Errorf("%d of %d emoji failed to load", failed, len(seen))
	}
	return nil
}
