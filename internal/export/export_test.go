package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ivlev/postframe/internal/composition"
	"github.com/ivlev/postframe/internal/engine"
	"github.com/ivlev/postframe/internal/renderer"
)

type fakeSurface struct {
	calls     []string
	renderErr error
	img       *image.RGBA
	refreshOK bool
}

func (f *fakeSurface) State() composition.State { return composition.New() }

func (f *fakeSurface) Render(ctx context.Context, opts renderer.Options) (*image.RGBA, error) {
	if opts.Guide {
		f.calls = append(f.calls, "render+guide")
	} else {
		f.calls = append(f.calls, "render")
	}
	return f.img, f.renderErr
}

func (f *fakeSurface) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	f.refreshOK = ctx.Err() == nil
	return nil
}

type fakeDeliverer struct {
	err   error
	names []string
	data  []byte
}

func (f *fakeDeliverer) Deliver(_ context.Context, name string, png []byte) (string, error) {
	f.names = append(f.names, name)
	f.data = png
	if f.err != nil {
		return "", f.err
	}
	return "fake:" + name, nil
}

func TestExportFrameRestoresPreview(t *testing.T) {
	tests := []struct {
		name    string
		img     *image.RGBA
		err     error
		wantErr error
	}{
		{"ok", image.NewRGBA(image.Rect(0, 0, 4, 5)), nil, nil},
		{"render failure", nil, errors.New("boom"), nil},
		{"no surface", nil, nil, ErrSurfaceNotReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSurface{img: tt.img, renderErr: tt.err}
			data, err := NewExporter(s, "", nil).ExportFrame(context.Background())

			if len(s.calls) != 2 || s.calls[0] != "render" || s.calls[1] != "refresh" {
				t.Errorf("Expected guide-less render then refresh, got %v", s.calls)
			}
			if tt.img != nil {
				if err != nil {
					t.Fatalf("ExportFrame failed: %v", err)
				}
				if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
					t.Errorf("Expected valid PNG: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExportRestoresAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeSurface{renderErr: context.Canceled}
	if _, err := NewExporter(s, "", nil).ExportFrame(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if !s.refreshOK {
		t.Error("Expected restore render with a live context")
	}
}

func TestExportParityWithSession(t *testing.T) {
	st := composition.New().WithGuide(true)
	sess := engine.NewSession(renderer.New(nil), st, nil)
	if err := sess.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := NewExporter(sess, "", nil).ExportFrame(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := img.At(10, 10).RGBA(); a != 0 {
		t.Errorf("Expected no guide in export, got alpha %d", a)
	}
	if got := sess.Surface().RGBAAt(10, 10); got.A != 128 {
		t.Errorf("Expected guide restored in preview, got %v", got)
	}
}

func TestDeliver(t *testing.T) {
	failure := errors.New("no handler")
	tests := []struct {
		name         string
		method       Method
		platform     Platform
		shareErr     error
		clipErr      error
		noShare      bool
		wantMethod   Method
		wantFallback bool
		wantCancel   bool
		wantDownload bool
	}{
		{"mobile share", MethodAuto, Platform{Mobile: true, CanShare: true}, nil, nil, false, MethodShare, false, false, false},
		{"share fails", MethodAuto, Platform{Mobile: true, CanShare: true}, failure, nil, false, MethodDownload, true, false, true},
		{"share cancelled", MethodAuto, Platform{Mobile: true, CanShare: true}, ErrCancelled, nil, false, MethodShare, false, true, false},
		{"desktop clipboard", MethodAuto, Platform{CanClipboardImage: true}, nil, nil, false, MethodClipboard, false, false, false},
		{"clipboard fails", MethodAuto, Platform{CanClipboardImage: true}, nil, failure, false, MethodDownload, true, false, true},
		{"no capability", MethodAuto, Platform{Mobile: true}, nil, nil, false, MethodDownload, false, false, true},
		{"explicit download", MethodDownload, Platform{Mobile: true, CanShare: true}, nil, nil, false, MethodDownload, false, false, true},
		{"share missing", MethodShare, Platform{}, nil, nil, true, MethodDownload, true, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSurface{img: image.NewRGBA(image.Rect(0, 0, 2, 2))}
			download := &fakeDeliverer{}
			share := &fakeDeliverer{err: tt.shareErr}
			clip := &fakeDeliverer{err: tt.clipErr}

			e := NewExporter(s, "", download)
			if !tt.noShare {
				e.Share = share
			}
			e.Clipboard = clip
			e.now = func() time.Time { return time.UnixMilli(42) }

			out, err := e.Deliver(context.Background(), tt.method, tt.platform)
			if err != nil {
				t.Fatalf("Deliver failed: %v", err)
			}
			if out.Method != tt.wantMethod || out.FellBack != tt.wantFallback || out.Cancelled != tt.wantCancel {
				t.Errorf("Got %+v", out)
			}
			if got := len(download.names) > 0; got != tt.wantDownload {
				t.Errorf("Download used = %v, want %v", got, tt.wantDownload)
			}
			if out.Name != "postframe-4-5-42.png" {
				t.Errorf("Unexpected name %s", out.Name)
			}
			if s.calls[len(s.calls)-1] != "refresh" {
				t.Errorf("Expected preview restored, calls %v", s.calls)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	got := FileName("newsroom", composition.Ratio9x16, time.UnixMilli(1700000000123))
	if want := "newsroom-9-16-1700000000123.png"; got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]Method{"": MethodAuto, "share": MethodShare, "COPY": MethodClipboard, "download": MethodDownload} {
		got, err := ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMethod("fax"); err == nil {
		t.Error("Expected error for unknown method")
	}
}

func TestFileDownloader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	loc, err := FileDownloader{Dir: dir}.Deliver(context.Background(), "a.png", []byte("png"))
	if err != nil {
		t.Fatal(err)
	}
	if data, err := os.ReadFile(loc); err != nil || string(data) != "png" {
		t.Errorf("Expected written file at %s, got %q (%v)", loc, data, err)
	}
}

func TestCommandDeliverers(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	dir := t.TempDir()
	ctx := context.Background()

	clipFile := filepath.Join(dir, "clip.png")
	clip := CommandClipboard{Command: []string{"sh", "-c", "cat > " + clipFile}}
	if _, err := clip.Deliver(ctx, "x.png", []byte("pixels")); err != nil {
		t.Fatalf("clipboard failed: %v", err)
	}
	if data, _ := os.ReadFile(clipFile); string(data) != "pixels" {
		t.Errorf("Expected piped PNG, got %q", data)
	}

	shared := filepath.Join(dir, "shared.png")
	share := CommandSharer{Command: []string{"sh", "-c", `cp "$0" ` + shared}}
	if _, err := share.Deliver(ctx, "x.png", []byte("pixels")); err != nil {
		t.Fatalf("share failed: %v", err)
	}
	if data, _ := os.ReadFile(shared); string(data) != "pixels" {
		t.Errorf("Expected shared file, got %q", data)
	}

	interrupted := CommandSharer{Command: []string{"sh", "-c", `kill -INT $$`}}
	if _, err := interrupted.Deliver(ctx, "x.png", nil); !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected ErrCancelled for an interrupted share, got %v", err)
	}

	failing := CommandClipboard{Command: []string{"sh", "-c", "echo nope >&2; exit 3"}}
	_, err := failing.Deliver(ctx, "x.png", nil)
	if err == nil || errors.Is(err, ErrCancelled) {
		t.Errorf("Expected a plain failure, got %v", err)
	}
}
