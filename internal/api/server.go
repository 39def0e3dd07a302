package api

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/ivlev/postframe/internal/analyzer"
	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/engine"
	"github.com/ivlev/postframe/internal/export"
	"github.com/ivlev/postframe/internal/renderer"
)

// Server renders scenes posted over HTTP. Each request borrows its own
// renderer, so requests render in parallel.
type Server struct {
	Product   string
	Version   string
	PublicURL string
	MaxUpload int64
	Timeout   time.Duration

	detector  analyzer.Detector
	renderers sync.Pool
}

// NewServer builds renderers from clones of fonts with opts applied.
func NewServer(fonts *renderer.FontCache, detector analyzer.Detector, opts ...renderer.Option) *Server {
	if fonts == nil {
		fonts = renderer.NewEmbeddedFontCache()
	}
	s := &Server{
		Product:   "postframe",
		Version:   "dev",
		MaxUpload: 32 << 20,
		Timeout:   30 * time.Second,
		detector:  detector,
	}
	s.renderers.New = func() interface{} {
		return renderer.New(fonts.Clone(), opts...)
	}
	return s
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Version})
}

type presetJSON struct {
	Name string `json:"name"`
	composition.PresetValues
}

type ratioJSON struct {
	Ratio  string `json:"ratio"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) presets(c *gin.Context) {
	var presets []presetJSON
	for _, p := range composition.Presets {
		v, _ := p.Values()
		presets = append(presets, presetJSON{Name: p.String(), PresetValues: v})
	}
	var ratios []ratioJSON
	for _, r := range composition.Ratios {
		f := r.Frame()
		ratios = append(ratios, ratioJSON{Ratio: r.String(), Label: r.Label(), Width: f.Width, Height: f.Height})
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets, "ratios": ratios})
}

// render returns a preview PNG. The guide follows ?guide=, or the scene
// when the parameter is absent.
func (s *Server) render(c *gin.Context) {
	st, err := s.readState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	guide := st.ShowGuide
	if v, ok := c.GetQuery("guide"); ok {
		guide = v == "1" || v == "true"
	}
	data, err := s.renderPNG(c.Request.Context(), st, renderer.Options{Guide: guide})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// export returns the guide-free PNG as a download.
func (s *Server) export(c *gin.Context) {
	st, err := s.readState(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := s.renderPNG(c.Request.Context(), st, renderer.Options{Guide: false})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	name := export.FileName(s.Product, st.Ratio, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) renderPNG(ctx context.Context, st composition.State, opts renderer.Options) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	r := s.renderers.Get().(*renderer.Renderer)
	defer s.renderers.Put(r)

	img, err := r.Render(ctx, st, opts)
	if err != nil {
		return nil, err
	}
	return export.EncodePNG(img)
}

// readState accepts either a multipart form with a "scene" field or file
// plus optional "photo" and "blur_photo" files, or a bare YAML/JSON body.
func (s *Server) readState(c *gin.Context) (composition.State, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, s.MaxUpload))
		if err != nil {
			return composition.State{}, err
		}
		sc, err := composition.ParseScene(body)
		if err != nil {
			return composition.State{}, err
		}
		return sc.Attach(nil, nil, nil), nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return composition.State{}, fmt.Errorf("form: %w", err)
	}
	sceneData, err := sceneField(form)
	if err != nil {
		return composition.State{}, err
	}
	sc, err := composition.ParseScene(sceneData)
	if err != nil {
		return composition.State{}, err
	}

	photo, err := decodeUpload(form, "photo")
	if err != nil {
		return composition.State{}, err
	}
	blur, err := decodeUpload(form, "blur_photo")
	if err != nil {
		return composition.State{}, err
	}

	var focus *image.Rectangle
	if sc.PhotoAction == composition.ActionCrop {
		if focus, err = engine.Focus(s.detector, photo); err != nil {
			return composition.State{}, err
		}
	}
	return sc.Attach(photo, blur, focus), nil
}

func sceneField(form *multipart.Form) ([]byte, error) {
	if v := form.Value["scene"]; len(v) > 0 {
		return []byte(v[0]), nil
	}
	if fh := form.File["scene"]; len(fh) > 0 {
		f, err := fh[0].Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return nil, errors.New(`missing "scene" field`)
}

func decodeUpload(form *multipart.Form, field string) (image.Image, error) {
	fh := form.File[field]
	if len(fh) == 0 {
		return nil, nil
	}
	f, err := fh[0].Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return img, nil
}
