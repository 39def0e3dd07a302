package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/ivlev/postframe/internal/analyzer"
	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/source"
)

// Inputs overrides the bitmaps a scene names. Empty fields keep the scene's
// own paths.
type Inputs struct {
	Photo     string
	BlurPhoto string
	Page      int
}

// LoadScene reads a scene file, loads its bitmaps relative to the file and
// returns the composed state.
func LoadScene(ctx context.Context, path string, in Inputs, d analyzer.Detector) (composition.State, error) {
	sc, err := composition.ReadScene(path)
	if err != nil {
		return composition.State{}, err
	}
	return ComposeScene(ctx, sc, filepath.Dir(path), in, d)
}

// ComposeScene loads the bitmaps of an already decoded scene; relative paths
// resolve against dir. A bitmap that fails to load is left out and its error
// is returned next to a state that still renders.
func ComposeScene(ctx context.Context, sc *composition.Scene, dir string, in Inputs, d analyzer.Detector) (composition.State, error) {
	var errs []error
	load := func(name, path string) image.Image {
		if path == "" {
			return nil
		}
		img, err := source.LoadPage(ctx, path, in.Page)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return nil
		}
		return img
	}

	photo := load("photo", resolve(in.Photo, sc.Photo, dir))
	blur := load("blur photo", resolve(in.BlurPhoto, sc.Blur.Photo, dir))

	var focus *image.Rectangle
	if sc.PhotoAction == composition.ActionCrop {
		f, err := Focus(d, photo)
		if err != nil {
			errs = append(errs, err)
		}
		focus = f
	}
	return sc.Attach(photo, blur, focus), errors.Join(errs...)
}

func resolve(override, scenePath, dir string) string {
	if override != "" {
		return override
	}
	if scenePath != "" && !filepath.IsAbs(scenePath) {
		return filepath.Join(dir, scenePath)
	}
	return scenePath
}
