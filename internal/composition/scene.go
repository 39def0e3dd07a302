package composition

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PhotoAction is a programmatic placement applied after a bitmap loads.
type PhotoAction int

const (
	ActionNone PhotoAction = iota
	ActionReset
	ActionFit
	ActionCrop
)

func (a PhotoAction) String() string {
	switch a {
	case ActionReset:
		return "reset"
	case ActionFit:
		return "fit"
	case ActionCrop:
		return "crop"
	default:
		return "none"
	}
}

func (a PhotoAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *PhotoAction) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "none":
		*a = ActionNone
	case "reset":
		*a = ActionReset
	case "fit", "contain":
		*a = ActionFit
	case "crop", "fill":
		*a = ActionCrop
	default:
		return fmt.Errorf("unknown photo action: %q", b)
	}
	return nil
}

// SceneBlur is the blur layer as written in a scene file.
type SceneBlur struct {
	Enabled   bool           `yaml:"enabled"`
	Photo     string         `yaml:"photo,omitempty"`
	Transform PhotoTransform `yaml:"transform"`
	Intensity Number         `yaml:"intensity"`
}

// Scene is the file form of a composition. Bitmaps are referenced by path
// and loaded by the caller.
type Scene struct {
	Ratio          AspectRatio    `yaml:"ratio"`
	Photo          string         `yaml:"photo,omitempty"`
	PhotoAction    PhotoAction    `yaml:"photo_action,omitempty"`
	PhotoTransform PhotoTransform `yaml:"photo_transform"`
	Blur           SceneBlur      `yaml:"blur"`
	Overlay        OverlayMode    `yaml:"overlay"`
	OverlayColor   OverlayColor   `yaml:"overlay_color"`
	Guide          bool           `yaml:"guide"`
	BoxMargin      Number         `yaml:"box_margin"`
	Defaults       Style          `yaml:"defaults"`
	Boxes          []TextBox      `yaml:"boxes"`
	Banner         Banner         `yaml:"banner"`
}

// DefaultScene mirrors New. Fields missing from a scene file keep these values.
func DefaultScene() Scene {
	st := New()
	return Scene{
		Ratio:          st.Ratio,
		PhotoTransform: st.PhotoTransform,
		Blur: SceneBlur{
			Transform: st.Blur.Transform,
			Intensity: st.Blur.Intensity,
		},
		BoxMargin: st.BoxMargin,
		Defaults:  st.Defaults,
		Banner:    st.Banner,
	}
}

// UnmarshalYAML fills unspecified box fields with the defaults of NewTextBox.
func (b *TextBox) UnmarshalYAML(node *yaml.Node) error {
	type plain TextBox
	p := plain(NewTextBox())
	p.ID = ""
	if err := node.Decode(&p); err != nil {
		return err
	}
	*b = TextBox(p)
	return nil
}

// UnmarshalYAML applies a named preset to the preset-controlled fields the
// document leaves out.
func (b *Banner) UnmarshalYAML(node *yaml.Node) error {
	type plain Banner
	p := plain(*b)
	if err := node.Decode(&p); err != nil {
		return err
	}
	decoded := Banner(p)

	given := map[string]bool{}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			given[node.Content[i].Value] = true
		}
	}
	if v, ok := decoded.Preset.Values(); ok && given["preset"] {
		if !given["text"] {
			decoded.Text = v.Text
		}
		if !given["letter_spacing"] {
			decoded.LetterSpacing = Num(v.LetterSpacing)
		}
		if !given["align"] {
			decoded.Align = v.Align
		}
		if !given["color"] {
			decoded.Color = v.Color
		}
	}
	*b = decoded
	return nil
}

// DecodeScene reads a YAML (or JSON) scene from r.
func DecodeScene(r io.Reader) (*Scene, error) {
	sc := DefaultScene()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&sc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &sc, nil
}

// ParseScene decodes a scene from bytes.
func ParseScene(data []byte) (*Scene, error) {
	return DecodeScene(strings.NewReader(string(data)))
}

// ReadScene reads a scene from a YAML file.
func ReadScene(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeScene(f)
}

// WriteScene writes a scene to a YAML file.
func WriteScene(sc *Scene, path string) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// State builds the composition without bitmaps. The caller loads Photo and
// Blur.Photo and applies them with WithPhoto and WithBlurPhoto.
func (sc *Scene) State() State {
	st := New().
		WithRatio(sc.Ratio).
		WithOverlay(sc.Overlay, sc.OverlayColor).
		WithGuide(sc.Guide).
		WithBoxMargin(sc.BoxMargin).
		WithDefaults(sc.Defaults).
		WithBanner(sc.Banner).
		WithPhotoTransform(sc.PhotoTransform.clamped()).
		WithBlurEnabled(sc.Blur.Enabled).
		WithBlurUsePrimary(sc.Blur.Photo == "").
		WithBlurTransform(sc.Blur.Transform.clamped()).
		WithBlurIntensity(sc.Blur.Intensity)
	for _, b := range sc.Boxes {
		st = st.AppendTextBox(b)
	}
	return st
}

// Attach builds the state with loaded bitmaps. The scene's transforms are
// kept and the photo action runs last; focus is only used by ActionCrop.
func (sc *Scene) Attach(photo, blurPhoto image.Image, focus *image.Rectangle) State {
	st := sc.State()
	if blurPhoto != nil {
		st = st.WithBlurPhoto(blurPhoto).WithBlurTransform(sc.Blur.Transform.clamped())
	}
	if photo == nil {
		return st
	}
	st = st.WithPhoto(photo).WithPhotoTransform(sc.PhotoTransform.clamped())
	switch sc.PhotoAction {
	case ActionReset:
		st = st.ResetPhoto()
	case ActionFit:
		st = st.FitPhoto()
	case ActionCrop:
		st = st.CropPhoto(focus)
	case ActionNone:
	}
	return st
}

func (t PhotoTransform) clamped() PhotoTransform {
	return t.Zoom(t.Scale).Rotate(t.Rotation)
}

// SceneFromState captures st. Bitmap paths are left for the caller to fill.
func SceneFromState(st State) *Scene {
	return &Scene{
		Ratio:          st.Ratio,
		PhotoTransform: st.PhotoTransform,
		Blur: SceneBlur{
			Enabled:   st.Blur.Enabled,
			Transform: st.Blur.Transform,
			Intensity: st.Blur.Intensity,
		},
		Overlay:      st.Overlay,
		OverlayColor: st.OverlayColor,
		Guide:        st.ShowGuide,
		BoxMargin:    st.BoxMargin,
		Defaults:     st.Defaults,
		Boxes:        append([]TextBox(nil), st.Boxes...),
		Banner:       st.Banner,
	}
}
