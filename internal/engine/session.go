package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/ivlev/postframe/internal/analyzer"
	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/renderer"
	"github.com/ivlev/postframe/internal/source"
)

// ErrStale reports a render or load that a newer one superseded. Its result
// was discarded.
var ErrStale = errors.New("superseded by a newer request")

// Slot names a bitmap input of the composition.
type Slot int

const (
	SlotPhoto Slot = iota
	SlotBlur
)

// Painter renders a composition; *renderer.Renderer is the implementation.
type Painter interface {
	Render(ctx context.Context, st composition.State, opts renderer.Options) (*image.RGBA, error)
}

// Session owns the current composition and the surface showing it. Every
// mutation re-renders; only the newest render started reaches the surface.
type Session struct {
	painter  Painter
	detector analyzer.Detector
	load     func(ctx context.Context, path string, page int) (image.Image, error)

	mu      sync.Mutex
	state   composition.State
	surface *image.RGBA
	shown   uint64

	generation atomic.Uint64
	loads      [2]atomic.Uint64
}

func NewSession(p Painter, st composition.State, detector analyzer.Detector) *Session {
	return &Session{painter: p, state: st, detector: detector, load: source.LoadPage}
}

func (s *Session) State() composition.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Surface returns the last presented frame, or nil before the first render.
// Presented frames are never written again.
func (s *Session) Surface() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Generation is the number of the last presented render.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shown
}

// Apply replaces the state with fn(state) and refreshes the preview.
func (s *Session) Apply(ctx context.Context, fn func(composition.State) composition.State) error {
	s.mu.Lock()
	s.state = fn(s.state)
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh renders the current state with the guide at its state value.
func (s *Session) Refresh(ctx context.Context) error {
	st := s.State()
	_, err := s.Render(ctx, renderer.Options{Guide: st.ShowGuide})
	return err
}

// Render renders the current state with opts and presents the result unless
// a newer render started meanwhile, in which case it returns ErrStale.
func (s *Session) Render(ctx context.Context, opts renderer.Options) (*image.RGBA, error) {
	st := s.State()
	gen := s.generation.Add(1)

	img, err := s.painter.Render(ctx, st, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation.Load() {
		return nil, ErrStale
	}
	s.surface = img
	s.shown = gen
	return img, nil
}

// LoadPhoto decodes path into slot. When another load for the same slot
// starts before this one finishes, this one is dropped with ErrStale. A failed
// load leaves the slot not loaded and returns the load error.
func (s *Session) LoadPhoto(ctx context.Context, slot Slot, path string, page int) error {
	token := s.loads[slot].Add(1)
	img, err := s.load(ctx, path, page)
	if token != s.loads[slot].Load() {
		return ErrStale
	}
	if err != nil {
		if rerr := s.SetPhoto(ctx, slot, nil); rerr != nil && !errors.Is(rerr, ErrStale) {
			return errors.Join(err, rerr)
		}
		return err
	}
	return s.SetPhoto(ctx, slot, img)
}

func (s *Session) SetPhoto(ctx context.Context, slot Slot, img image.Image) error {
	return s.Apply(ctx, func(st composition.State) composition.State {
		if slot == SlotBlur {
			return st.WithBlurPhoto(img)
		}
		return st.WithPhoto(img)
	})
}

// CropPhoto fills the frame with the photo, centred on the subject the
// detector finds, or on the photo centre when it finds none.
func (s *Session) CropPhoto(ctx context.Context) error {
	focus, err := Focus(s.detector, s.State().Photo)
	if err != nil {
		return err
	}
	return s.Apply(ctx, func(st composition.State) composition.State {
		return st.CropPhoto(focus)
	})
}

// Focus runs d on photo. A nil photo or detector has no focus.
func Focus(d analyzer.Detector, photo image.Image) (*image.Rectangle, error) {
	if photo == nil || d == nil {
		return nil, nil
	}
	focus, err := analyzer.Focus(d, photo)
	if err != nil {
		return nil, fmt.Errorf("detect subject: %w", err)
	}
	return focus, nil
}
