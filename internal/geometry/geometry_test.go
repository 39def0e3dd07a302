package geometry

import (
	"image"
	"math"
	"testing"
)

const eps = 1e-9

func TestStackTwoBoxes(t *testing.T) {
	h := BoxHeight(1, 40)
	if h != 128 {
		t.Fatalf("BoxHeight = %v, want 128", h)
	}
	tops := Stack([]float64{h, h}, 1350, 25, 20)
	wantBottom := 1350.0 - 25 - 128
	if tops[1] != wantBottom {
		t.Errorf("bottom box top = %v, want %v", tops[1], wantBottom)
	}
	if tops[0] != wantBottom-20-128 {
		t.Errorf("top box top = %v, want %v", tops[0], wantBottom-20-128)
	}
}

func TestStackNonOverlap(t *testing.T) {
	tests := []struct {
		name    string
		heights []float64
		margin  float64
	}{
		{"uniform", []float64{128, 128, 128}, 20},
		{"mixed", []float64{176, 128, 320, 80}, 20},
		{"zero margin", []float64{100, 50}, 0},
		{"skipped middle", []float64{128, -1, 200}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tops := Stack(tt.heights, 1920, 100, tt.margin)
			prevTop := math.Inf(1)
			for i := len(tops) - 1; i >= 0; i-- {
				if tt.heights[i] < 0 {
					if !math.IsNaN(tops[i]) {
						t.Errorf("skipped box %d placed at %v", i, tops[i])
					}
					continue
				}
				bottom := tops[i] + tt.heights[i]
				if !math.IsInf(prevTop, 1) && bottom+tt.margin > prevTop+eps {
					t.Errorf("box %d bottom %v overlaps next top %v", i, bottom, prevTop)
				}
				prevTop = tops[i]
			}
		})
	}
}

func TestSkippedBoxConsumesNoSpace(t *testing.T) {
	with := Stack([]float64{128, -1, 128}, 1350, 25, 20)
	without := Stack([]float64{128, 128}, 1350, 25, 20)
	if with[0] != without[0] || with[2] != without[1] {
		t.Errorf("tops %v vs %v", with, without)
	}
}

func TestBannerTop(t *testing.T) {
	tops := Stack([]float64{-1, 128, 128}, 1350, 25, 20)
	top, ok := BannerTop(tops)
	if !ok {
		t.Fatal("expected banner placement")
	}
	if top != tops[1]-BannerHeight {
		t.Errorf("banner top = %v, want %v", top, tops[1]-BannerHeight)
	}
	if _, ok := BannerTop(Stack([]float64{-1}, 1350, 25, 20)); ok {
		t.Error("banner placed with no boxes")
	}
}

func TestCoverSizeCovers(t *testing.T) {
	frames := [][2]float64{{1080, 1440}, {1080, 1350}, {1080, 1080}, {1080, 1920}}
	bitmaps := [][2]float64{{4000, 3000}, {3000, 4000}, {500, 500}, {1, 1000}, {1920, 1080}}
	for _, f := range frames {
		for _, b := range bitmaps {
			w, h := CoverSize(b[0], b[1], f[0], f[1])
			if w < f[0]-eps || h < f[1]-eps {
				t.Errorf("CoverSize(%v, %v) = %vx%v does not cover", b, f, w, h)
			}
			if math.Abs(w/h-b[0]/b[1]) > 1e-6 {
				t.Errorf("aspect changed for %v", b)
			}
			if math.Abs(w-f[0]) > eps && math.Abs(h-f[1]) > eps {
				t.Errorf("neither side matches the frame: %vx%v", w, h)
			}
		}
	}
}

func TestPlacementCoversFrame(t *testing.T) {
	src := image.Rect(10, 20, 4010, 3020)
	m := Placement(src, 1080, 1350, Pose{Scale: 1})

	x0, y0 := Apply(m, float64(src.Min.X), float64(src.Min.Y))
	x1, y1 := Apply(m, float64(src.Max.X), float64(src.Max.Y))
	if x0 > eps || y0 > eps || x1 < 1080-eps || y1 < 1350-eps {
		t.Errorf("placement (%v,%v)-(%v,%v) leaves frame uncovered", x0, y0, x1, y1)
	}
	cx, cy := Apply(m, 2010, 1520)
	if math.Abs(cx-540) > 1e-6 || math.Abs(cy-675) > 1e-6 {
		t.Errorf("centre maps to (%v,%v)", cx, cy)
	}
}

func TestPlacementRotationAndOffset(t *testing.T) {
	src := image.Rect(0, 0, 200, 100)
	m := Placement(src, 100, 100, Pose{Scale: 2, OffsetX: 10, OffsetY: -5, Rotation: 90})
	// Cover size is 200x100 at unit source scale; centre still maps to frame centre + offset.
	cx, cy := Apply(m, 100, 50)
	if math.Abs(cx-60) > 1e-6 || math.Abs(cy-45) > 1e-6 {
		t.Errorf("centre maps to (%v,%v)", cx, cy)
	}
	// One source pixel to the right moves down by scale after a 90° turn.
	x, y := Apply(m, 101, 50)
	if math.Abs(x-cx) > 1e-6 || math.Abs(y-cy-2) > 1e-6 {
		t.Errorf("rotated step = (%v,%v)", x-cx, y-cy)
	}
}

func TestContainScale(t *testing.T) {
	s := ContainScale(2000, 1000, 1000, 1000)
	w, h := CoverSize(2000, 1000, 1000, 1000)
	if w*s > 1000+eps || h*s > 1000+eps {
		t.Errorf("contain draw %vx%v exceeds frame", w*s, h*s)
	}
	if s != 0.5 {
		t.Errorf("ContainScale = %v, want 0.5", s)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := map[float64]float64{0: 0, 360: 0, 370: 10, -90: 270, -720: 0, 359.5: 359.5}
	for in, want := range tests {
		if got := NormalizeDegrees(in); got != want {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRoundedRectCorners(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 200, H: 100}
	tests := []struct {
		corners Corners
		cubics  int
	}{
		{AllRounded, 4},
		{SquareTop, 2},
		{SquareBottom, 2},
	}
	for _, tt := range tests {
		c := RoundedRect(r, 30, tt.corners)
		n := 0
		for _, s := range c.Segs {
			if s.Cubic {
				n++
			}
		}
		if n != tt.cubics {
			t.Errorf("corners %d: %d cubic segments, want %d", tt.corners, n, tt.cubics)
		}
		if b := c.Bounds(); b != r {
			t.Errorf("corners %d: bounds %v, want %v", tt.corners, b, r)
		}
		last := c.Segs[len(c.Segs)-1].To
		if last != c.Start {
			t.Errorf("corners %d: contour not closed", tt.corners)
		}
	}
}

func TestRadiusClamped(t *testing.T) {
	c := RoundedRect(Rect{W: 40, H: 20}, 50, AllRounded)
	if c.Start != (Point{X: 10, Y: 0}) {
		t.Errorf("start = %v, want radius clamped to 10", c.Start)
	}
}

func TestReverse(t *testing.T) {
	c := RoundedRect(Rect{W: 100, H: 60}, 20, SquareBottom)
	r := c.Reverse()
	if len(r.Segs) != len(c.Segs) {
		t.Fatalf("segment count changed")
	}
	if r.Start != c.Start {
		t.Errorf("closed contour should start where it ends: %v vs %v", r.Start, c.Start)
	}
	back := r.Reverse()
	for i := range c.Segs {
		if back.Segs[i] != c.Segs[i] {
			t.Fatalf("double reverse differs at %d", i)
		}
	}
}

func TestInsetStroke(t *testing.T) {
	r := Rect{W: 965, H: 128}
	ring := InsetStroke(r, BoxRadius, AllRounded, StrokeInset, StrokeWidth)
	if len(ring) != 2 {
		t.Fatalf("ring has %d contours", len(ring))
	}
	if b := ring[0].Bounds(); b != r {
		t.Errorf("outer bounds %v, want %v", b, r)
	}
	if b := ring[1].Bounds(); b != r.Inset(2) {
		t.Errorf("inner bounds %v, want %v", b, r.Inset(2))
	}
}

func TestSafeArea(t *testing.T) {
	tests := []struct {
		fw, fh float64
		want   Rect
	}{
		{1080, 1440, Rect{W: 1080, H: 1440}},
		{1080, 1920, Rect{X: 0, Y: 240, W: 1080, H: 1440}},
		{1080, 1080, Rect{X: 135, Y: 0, W: 810, H: 1080}},
	}
	for _, tt := range tests {
		if got := SafeArea(tt.fw, tt.fh, SafeAreaRatio); got != tt.want {
			t.Errorf("SafeArea(%v,%v) = %v, want %v", tt.fw, tt.fh, got, tt.want)
		}
	}
}

func TestBoxWidth(t *testing.T) {
	if BoxWidth(1080) != 965 || ContentWidth(1080) != 905 || BoxX(1080) != 57.5 {
		t.Errorf("box metrics: %v %v %v", BoxWidth(1080), ContentWidth(1080), BoxX(1080))
	}
}
