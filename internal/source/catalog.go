package source

import (
	"context"
	"image"
	"log"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/postframe/internal/composition"
)

// Catalog holds the overlay assets that loaded. A key that failed to load is
// simply absent and the overlay pass skips it.
type Catalog struct {
	mu     sync.RWMutex
	images map[composition.OverlayKey]image.Image
}

func NewCatalog() *Catalog {
	return &Catalog{images: make(map[composition.OverlayKey]image.Image)}
}

// LoadCatalog reads every overlay file from dir with at most workers decodes
// in flight. Failures are logged per key; only ctx cancellation is returned.
func LoadCatalog(ctx context.Context, dir string, workers int) (*Catalog, error) {
	c := NewCatalog()
	if dir == "" {
		return c, nil
	}
	if workers <= 0 {
		workers = 4
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, key := range composition.OverlayKeys() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, key.FileName())
			img, err := imaging.Open(path)
			if err != nil {
				log.Printf("[!] overlay %s not loaded: %v", key.FileName(), err)
				return nil
			}
			c.Set(key, img)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Catalog) Set(key composition.OverlayKey, img image.Image) {
	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
}

// Overlay returns the asset for key, or nil when it is not loaded.
func (c *Catalog) Overlay(key composition.OverlayKey) image.Image {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.images[key]
}

func (c *Catalog) Loaded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
