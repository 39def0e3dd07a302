package composition

import (
	"errors"
	"image"
	"slices"
)

var ErrNoSuchBox = errors.New("text box not found")

const DefaultBlurIntensity = 20

// BlurLayer is the blurred full-frame background behind the photo.
type BlurLayer struct {
	Enabled         bool
	UsePrimaryPhoto bool
	Secondary       image.Image
	Transform       PhotoTransform
	Intensity       Number
}

// Source returns the bitmap to blur, or nil when none is loaded.
func (l BlurLayer) Source(primary image.Image) image.Image {
	if l.UsePrimaryPhoto {
		return primary
	}
	return l.Secondary
}

// State is a complete composition. It is a value: transitions return a new
// State and never modify the receiver or slices it shares.
type State struct {
	Ratio          AspectRatio
	Photo          image.Image
	PhotoTransform PhotoTransform
	Blur           BlurLayer
	Overlay        OverlayMode
	OverlayColor   OverlayColor
	ShowGuide      bool
	Boxes          []TextBox
	Defaults       Style
	BoxMargin      Number
	Banner         Banner
}

// New returns the initial composition: 4:5, no photo, no boxes.
func New() State {
	return State{
		Ratio:          Ratio4x5,
		PhotoTransform: IdentityTransform(),
		Blur: BlurLayer{
			UsePrimaryPhoto: true,
			Transform:       IdentityTransform(),
			Intensity:       Num(DefaultBlurIntensity),
		},
		Defaults:  DefaultStyle(),
		BoxMargin: Num(20),
		Banner:    DefaultBanner(),
	}
}

func (s State) Frame() Frame { return s.Ratio.Frame() }

// WithRatio switches the frame. Box placement is derived at render time, so
// every box reflows on the next render.
func (s State) WithRatio(r AspectRatio) State {
	s.Ratio = r
	return s
}

// WithPhoto replaces the primary bitmap and resets its transform. nil unloads it.
func (s State) WithPhoto(img image.Image) State {
	s.Photo = img
	s.PhotoTransform = IdentityTransform()
	return s
}

func (s State) WithPhotoTransform(t PhotoTransform) State {
	s.PhotoTransform = t
	return s
}

func (s State) PanPhoto(dx, dy float64) State {
	s.PhotoTransform = s.PhotoTransform.Pan(dx, dy)
	return s
}

func (s State) ZoomPhoto(scale float64) State {
	s.PhotoTransform = s.PhotoTransform.Zoom(scale)
	return s
}

func (s State) PinchPhoto(ratio float64) State {
	s.PhotoTransform = s.PhotoTransform.Pinch(ratio)
	return s
}

func (s State) RotatePhoto(deg float64) State {
	s.PhotoTransform = s.PhotoTransform.Rotate(deg)
	return s
}

func (s State) ResetPhoto() State {
	s.PhotoTransform = IdentityTransform()
	return s
}

// FitPhoto makes the whole photo visible. No-op without a photo.
func (s State) FitPhoto() State {
	if s.Photo == nil {
		return s
	}
	s.PhotoTransform = Fit(s.Photo.Bounds(), s.Frame())
	return s
}

// CropPhoto fills the frame, centring focus when given.
func (s State) CropPhoto(focus *image.Rectangle) State {
	if s.Photo == nil {
		return s
	}
	s.PhotoTransform = Crop(s.Photo.Bounds(), s.Frame(), focus)
	return s
}

func (s State) WithBlurEnabled(on bool) State {
	s.Blur.Enabled = on
	return s
}

func (s State) WithBlurUsePrimary(on bool) State {
	s.Blur.UsePrimaryPhoto = on
	return s
}

// WithBlurPhoto loads a secondary blur bitmap, resets its transform and
// switches the layer off the primary photo.
func (s State) WithBlurPhoto(img image.Image) State {
	s.Blur.Secondary = img
	s.Blur.Transform = IdentityTransform()
	if img != nil {
		s.Blur.UsePrimaryPhoto = false
	}
	return s
}

func (s State) WithBlurTransform(t PhotoTransform) State {
	s.Blur.Transform = t
	return s
}

func (s State) WithBlurIntensity(n Number) State {
	s.Blur.Intensity = n
	return s
}

func (s State) WithOverlay(m OverlayMode, c OverlayColor) State {
	s.Overlay = m
	s.OverlayColor = c
	return s
}

func (s State) WithGuide(on bool) State {
	s.ShowGuide = on
	return s
}

func (s State) WithBoxMargin(n Number) State {
	s.BoxMargin = n
	return s
}

// WithDefaults replaces the global formatting. Boxes with custom formatting
// keep their own style.
func (s State) WithDefaults(st Style) State {
	s.Defaults = st
	return s
}

func (s State) WithBanner(b Banner) State {
	s.Banner = b
	return s
}

// UpdateBanner applies fn to a copy of the banner.
func (s State) UpdateBanner(fn func(Banner) Banner) State {
	s.Banner = fn(s.Banner)
	return s
}

// AddTextBox appends a default box at the bottom of the stack and returns its ID.
func (s State) AddTextBox() (State, string) {
	b := NewTextBox()
	return s.AppendTextBox(b), b.ID
}

// AppendTextBox adds b at the bottom of the stack. An empty ID is replaced.
func (s State) AppendTextBox(b TextBox) State {
	if b.ID == "" {
		b.ID = NewTextBox().ID
	}
	s.Boxes = append(slices.Clone(s.Boxes), b)
	return s
}

func (s State) indexOf(id string) int {
	return slices.IndexFunc(s.Boxes, func(b TextBox) bool { return b.ID == id })
}

// TextBox returns the box with the given ID.
func (s State) TextBox(id string) (TextBox, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return TextBox{}, false
	}
	return s.Boxes[i], true
}

// UpdateTextBox applies fn to a copy of the box. The ID cannot change.
func (s State) UpdateTextBox(id string, fn func(*TextBox)) (State, error) {
	i := s.indexOf(id)
	if i < 0 {
		return s, ErrNoSuchBox
	}
	boxes := slices.Clone(s.Boxes)
	fn(&boxes[i])
	boxes[i].ID = id
	s.Boxes = boxes
	return s, nil
}

func (s State) DeleteTextBox(id string) State {
	i := s.indexOf(id)
	if i < 0 {
		return s
	}
	s.Boxes = slices.Delete(slices.Clone(s.Boxes), i, i+1)
	return s
}

// MoveTextBoxUp swaps box i with the one above it (index i-1).
func (s State) MoveTextBoxUp(i int) State {
	if i <= 0 || i >= len(s.Boxes) {
		return s
	}
	boxes := slices.Clone(s.Boxes)
	boxes[i-1], boxes[i] = boxes[i], boxes[i-1]
	s.Boxes = boxes
	return s
}

// MoveTextBoxDown swaps box i with the one below it (index i+1).
func (s State) MoveTextBoxDown(i int) State {
	if i < 0 || i >= len(s.Boxes)-1 {
		return s
	}
	boxes := slices.Clone(s.Boxes)
	boxes[i], boxes[i+1] = boxes[i+1], boxes[i]
	s.Boxes = boxes
	return s
}
