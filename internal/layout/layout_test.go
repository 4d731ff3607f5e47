package layout

import "testing"

func testLayout() *Layout {
	ys := make([]PixelLoc, 150)
	for i := range ys {
		ys[i] = PixelLoc{X: -10, Y: float32(i) / 60.0}
	}
	ys2 := make([]PixelLoc, 150)
	for i := range ys2 {
		ys2[i] = PixelLoc{X: 10, Y: float32(i) / 60.0}
	}
	return &Layout{Strips: []Strip{{Pixels: ys}, {Pixels: ys2}}}
}

func TestShapeAndTotalPixels(t *testing.T) {
	l := testLayout()
	shape := l.Shape()
	if len(shape) != 2 || shape[0] != 150 || shape[1] != 150 {
		t.Fatalf("unexpected shape: %v", shape)
	}
	if got := l.TotalPixels(); got != 300 {
		t.Fatalf("expected 300 total pixels, got %d", got)
	}
}

func TestNewFrameMatchesLayout(t *testing.T) {
	l := testLayout()
	f := NewFrame(l)
	if !f.MatchesLayout(l) {
		t.Fatalf("expected new frame to match layout shape")
	}
}

func TestFlattenOrderIsStripMajorPixelMinor(t *testing.T) {
	l := &Layout{Strips: []Strip{
		{Pixels: []PixelLoc{{}, {}}},
		{Pixels: []PixelLoc{{}}},
	}}
	f := NewFrame(l)
	f.Strips[0][0] = PixelVal{R: 1}
	f.Strips[0][1] = PixelVal{R: 2}
	f.Strips[1][0] = PixelVal{R: 3}

	flat := f.Flatten()
	want := []uint8{1, 2, 3}
	if len(flat) != len(want) {
		t.Fatalf("expected %d pixels, got %d", len(want), len(flat))
	}
	for i, w := range want {
		if flat[i].R != w {
			t.Fatalf("pixel %d: expected R=%d, got R=%d", i, w, flat[i].R)
		}
	}
}

func TestClearZeroesAllPixels(t *testing.T) {
	l := testLayout()
	f := NewFrame(l)
	for i := range f.Strips {
		for j := range f.Strips[i] {
			f.Strips[i][j] = PixelVal{R: 255, G: 255, B: 255}
		}
	}
	f.Clear()
	for _, v := range f.Flatten() {
		if v != (PixelVal{}) {
			t.Fatalf("expected all-zero pixel after Clear, got %+v", v)
		}
	}
}

func TestZeroStripLayout(t *testing.T) {
	l := &Layout{}
	f := NewFrame(l)
	if !f.MatchesLayout(l) {
		t.Fatalf("expected empty layout to match empty frame")
	}
	if got := len(f.Flatten()); got != 0 {
		t.Fatalf("expected zero flattened pixels, got %d", got)
	}
}
