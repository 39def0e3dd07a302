package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// faceKey identifies a face by family, pixel size and emphasis.
type faceKey struct {
	family string
	size   float64
	bold   bool
	italic bool
}

// FontCache loads TrueType/OpenType fonts from disk and caches faces.
// Families it cannot find fall back to the embedded Go fonts, so output is
// deterministic on machines without the requested family.
type FontCache struct {
	mu      sync.RWMutex
	dirs    []string
	fonts   map[string]*opentype.Font
	faces   map[faceKey]font.Face
	scanned bool
}

// NewFontCache searches the OS font directories plus extraDirs.
func NewFontCache(extraDirs ...string) *FontCache {
	return newFontCache(append(systemFontDirs(), extraDirs...))
}

// NewEmbeddedFontCache uses the Go fonts only.
func NewEmbeddedFontCache() *FontCache {
	return newFontCache(nil)
}

func newFontCache(dirs []string) *FontCache {
	return &FontCache{
		dirs:  dirs,
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

var (
	goFontsOnce sync.Once
	goFonts     [4]*opentype.Font // regular, bold, italic, bold italic
)

func fallbackFont(bold, italic bool) *opentype.Font {
	goFontsOnce.Do(func() {
		for i, data := range [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF} {
			f, err := opentype.Parse(data)
			if err != nil {
				panic(fmt.Sprintf("parse embedded go font: %v", err))
			}
			goFonts[i] = f
		}
	})
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return goFonts[i]
}

// Face returns a face of size px for family. Faces are unhinted so measured
// and drawn advances agree.
func (fc *FontCache) Face(family string, size float64, bold, italic bool) font.Face {
	fc.ensureScanned()
	key := faceKey{family: strings.ToLower(family), size: size, bold: bold, italic: italic}

	fc.mu.RLock()
	face, ok := fc.faces[key]
	fc.mu.RUnlock()
	if ok {
		return face
	}

	f := fc.findFont(family, bold, italic)
	if f == nil {
		f = fallbackFont(bold, italic)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		face, _ = opentype.NewFace(fallbackFont(bold, italic), &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	}

	fc.mu.Lock()
	fc.faces[key] = face
	fc.mu.Unlock()
	return face
}

// Ready reports whether family resolves to a loaded font rather than the
// embedded fallback.
func (fc *FontCache) Ready(family string) bool {
	fc.ensureScanned()
	return fc.findFont(family, false, false) != nil
}

// Clone returns a cache sharing the parsed fonts but with its own faces, for
// a renderer on another goroutine.
func (fc *FontCache) Clone() *FontCache {
	fc.ensureScanned()
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	c := newFontCache(fc.dirs)
	c.scanned = true
	for k, f := range fc.fonts {
		c.fonts[k] = f
	}
	return c
}

// LoadFontData registers a font from raw bytes under name and its internal names.
func (fc *FontCache) LoadFontData(name string, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return err
	}
	fc.mu.Lock()
	fc.fonts[strings.ToLower(name)] = f
	fc.registerNames(f)
	fc.mu.Unlock()
	return nil
}

var styleSuffixes = struct{ boldItalic, bold, italic []string }{
	boldItalic: []string{" bold italic", "-bolditalic", " bolditalic", "bi", "z"},
	bold:       []string{" bold", "-bold", "bd", "b"},
	italic:     []string{" italic", "-italic", " oblique", "i"},
}

func (fc *FontCache) findFont(family string, bold, italic bool) *opentype.Font {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	lower := strings.ToLower(strings.TrimSpace(family))
	if lower == "" {
		return nil
	}
	var tries [][]string
	switch {
	case bold && italic:
		tries = [][]string{styleSuffixes.boldItalic, styleSuffixes.bold, styleSuffixes.italic}
	case bold:
		tries = [][]string{styleSuffixes.bold}
	case italic:
		tries = [][]string{styleSuffixes.italic}
	}
	for _, suffixes := range tries {
		for _, sfx := range suffixes {
			if f, ok := fc.fonts[lower+sfx]; ok {
				return f
			}
		}
	}
	return fc.fonts[lower]
}

func (fc *FontCache) ensureScanned() {
	fc.mu.RLock()
	scanned := fc.scanned
	fc.mu.RUnlock()
	if scanned {
		return
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.scanned {
		return
	}
	fc.scanned = true
	for _, dir := range fc.dirs {
		fc.scanDir(dir, 0)
	}
}

const (
	maxFontScanDepth = 3
	maxFontFileSize  = 20 << 20
)

func (fc *FontCache) scanDir(dir string, depth int) {
	if depth > maxFontScanDepth {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			fc.scanDir(filepath.Join(dir, entry.Name()), depth+1)
			continue
		}
		lower := strings.ToLower(entry.Name())
		ext := filepath.Ext(lower)
		if ext != ".ttf" && ext != ".otf" && ext != ".ttc" && ext != ".otc" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() > maxFontFileSize {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		base := strings.TrimSuffix(lower, ext)
		if ext == ".ttc" || ext == ".otc" {
			coll, err := opentype.ParseCollection(data)
			if err != nil {
				continue
			}
			for i := 0; i < coll.NumFonts(); i++ {
				f, err := coll.Font(i)
				if err != nil {
					continue
				}
				if i == 0 {
					fc.fonts[base] = f
				}
				fc.registerNames(f)
			}
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		fc.fonts[base] = f
		fc.registerNames(f)
	}
}

// registerNames indexes f by its family and full names. Caller holds mu.
func (fc *FontCache) registerNames(f *opentype.Font) {
	var buf sfnt.Buffer
	if name, err := f.Name(&buf, sfnt.NameIDFull); err == nil && name != "" {
		fc.fonts[strings.ToLower(name)] = f
	}
	family, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil || family == "" {
		return
	}
	key := strings.ToLower(family)
	// Keep the regular face under the bare family name.
	if sub, err := f.Name(&buf, sfnt.NameIDSubfamily); err == nil {
		if s := strings.ToLower(sub); s != "regular" && s != "" && s != "book" && s != "roman" {
			fc.fonts[key+" "+s] = f
			if _, taken := fc.fonts[key]; taken {
				return
			}
		}
	}
	fc.fonts[key] = f
}

func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	var dirs []string
	switch runtime.GOOS {
	case "windows":
		windir := os.Getenv("WINDIR")
		if windir == "" {
			windir = `C:\Windows`
		}
		dirs = []string{filepath.Join(windir, "Fonts")}
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
	case "darwin":
		dirs = []string{"/System/Library/Fonts", "/Library/Fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	default:
		dirs = []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts"))
		}
	}
	return dirs
}

func toFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func toFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(v * 64) }
