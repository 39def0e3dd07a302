package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "old.jpg"), now.Add(-2*time.Hour))
	touch(t, filepath.Join(dir, "new.PNG"), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, "newest.txt"), now)

	got, err := FindLatestImage(dir)
	if err != nil {
		t.Fatalf("FindLatestImage failed: %v", err)
	}
	if want := filepath.Join(dir, "new.PNG"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	file := filepath.Join(dir, "old.jpg")
	if got, _ := FindLatestImage(file); got != file {
		t.Errorf("Expected file path passed through, got %s", got)
	}

	if _, err := FindLatest(dir, SceneExtensions); err == nil {
		t.Error("Expected error when no scene files exist")
	}
}

func TestImagePoolClearsBuffers(t *testing.T) {
	p := NewImagePool()
	r := image.Rect(0, 0, 4, 4)

	img := p.Get(r)
	img.Pix[0] = 255
	p.Put(img)

	again := p.Get(r)
	if again.Bounds() != r {
		t.Fatalf("Expected bounds %v, got %v", r, again.Bounds())
	}
	for i, v := range again.Pix {
		if v != 0 {
			t.Fatalf("Expected cleared buffer, byte %d = %d", i, v)
		}
	}

	p.Put(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	p.Put(nil)
}

func TestMemoryStats(t *testing.T) {
	s, err := MemoryStats()
	if err != nil {
		t.Skipf("memory stats unavailable: %v", err)
	}
	if s.RSS == 0 {
		t.Error("Expected non-zero RSS")
	}
	t.Logf("%s", s)
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for n, want := range tests {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
