package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/ivlev/postframe/internal/analyzer"
)

func newTestRouter() (*gin.Engine, *Server) {
	gin.SetMode(gin.TestMode)
	s := NewServer(nil, analyzer.CenterDetector{})
	r := gin.New()
	s.RegisterRoutes(r)
	return r, s
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodePNG(t *testing.T, w *httptest.ResponseRecorder) image.Image {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("Expected image/png, got %s", ct)
	}
	img, err := imaging.Decode(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("Invalid PNG: %v", err)
	}
	return img
}

func multipartScene(t *testing.T, scene string, photo image.Image) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("scene", scene); err != nil {
		t.Fatal(err)
	}
	if photo != nil {
		fw, err := mw.CreateFormFile("photo", "photo.png")
		if err != nil {
			t.Fatal(err)
		}
		if err := imaging.Encode(fw, photo, imaging.PNG); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter()
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Unexpected health response %d: %s", w.Code, w.Body.String())
	}
}

func TestPresets(t *testing.T) {
	r, _ := newTestRouter()
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/presets", nil))

	var resp struct {
		Presets []struct {
			Name string `json:"name"`
			Text string `json:"text"`
		} `json:"presets"`
		Ratios []struct {
			Ratio  string `json:"ratio"`
			Height int    `json:"height"`
		} `json:"ratios"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if len(resp.Presets) != 6 || len(resp.Ratios) != 4 {
		t.Errorf("Expected 6 presets and 4 ratios, got %d and %d", len(resp.Presets), len(resp.Ratios))
	}
	if resp.Presets[1].Name != "live" || resp.Presets[1].Text != "LIVE" {
		t.Errorf("Unexpected live preset %+v", resp.Presets[1])
	}
}

func TestRenderRawScene(t *testing.T) {
	r, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("ratio: \"1:1\"\n"))
	req.Header.Set("Content-Type", "application/yaml")

	img := decodePNG(t, do(r, req))
	if b := img.Bounds(); b.Dx() != 1080 || b.Dy() != 1080 {
		t.Errorf("Expected 1080x1080, got %v", b)
	}
}

func TestRenderWithPhotoAndGuide(t *testing.T) {
	r, _ := newTestRouter()
	photo := imaging.New(50, 50, color.NRGBA{R: 255, A: 255})
	body, ct := multipartScene(t, "ratio: \"4:5\"\nphoto_action: crop\n", photo)

	req := httptest.NewRequest(http.MethodPost, "/api/render?guide=1", body)
	req.Header.Set("Content-Type", ct)
	img := decodePNG(t, do(r, req))

	if r, _, _, a := img.At(540, 675).RGBA(); r>>8 != 255 || a>>8 != 255 {
		t.Errorf("Expected red photo in the safe area, got r=%d a=%d", r>>8, a>>8)
	}
	// Guide dims the red photo outside the safe area.
	if r, _, _, _ := img.At(10, 675).RGBA(); r>>8 > 140 {
		t.Errorf("Expected dimmed pixel outside the safe area, got r=%d", r>>8)
	}
}

func TestExportHasNoGuide(t *testing.T) {
	r, s := newTestRouter()
	s.Product = "newsroom"
	body, ct := multipartScene(t, "ratio: \"4:5\"\nguide: true\n", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/export", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)
	img := decodePNG(t, w)

	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, `attachment; filename="newsroom-4-5-`) || !strings.HasSuffix(cd, `.png"`) {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if _, _, _, a := img.At(10, 10).RGBA(); a != 0 {
		t.Errorf("Expected no guide in export, got alpha %d", a)
	}
}

func TestRenderBadScene(t *testing.T) {
	r, _ := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("boxes: [\n"))
	req.Header.Set("Content-Type", "application/yaml")
	if w := do(r, req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=zzz")
	if w := do(r, req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a broken form, got %d", w.Code)
	}
}

func TestQR(t *testing.T) {
	r, s := newTestRouter()
	decodePNG(t, do(r, httptest.NewRequest(http.MethodGet, "/api/qr?text=hello&size=128", nil)))

	if w := do(r, httptest.NewRequest(http.MethodGet, "/api/qr", nil)); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without text, got %d", w.Code)
	}
	s.PublicURL = "http://192.168.1.5:8080"
	decodePNG(t, do(r, httptest.NewRequest(http.MethodGet, "/api/qr", nil)))

	art, err := TerminalQR(s.PublicURL)
	if err != nil || !strings.Contains(art, "\n") {
		t.Errorf("Expected QR art, got %q (%v)", art, err)
	}
}
