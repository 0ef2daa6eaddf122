package drm

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

// rowImage encodes the row index of every pixel in its R and G channels.
func rowImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(y), G: uint8(y >> 8), B: uint8(x), A: 255})
		}
	}
	return img
}

func sourceRow(c color.RGBA) int {
	return int(c.R) | int(c.G)<<8
}

func checkRows(t *testing.T, img *image.RGBA, from, to, srcStart int) {
	t.Helper()

	w := img.Bounds().Dx()
	for y := from; y < to; y++ {
		for _, x := range []int{0, w / 2, w - 1} {
			c := img.RGBAAt(x, y)
			if c.A != 255 {
				t.Fatalf("pixel (%d,%d) is blank", x, y)
			}
			if got, want := sourceRow(c), srcStart+(y-from); got != want {
				t.Fatalf("row %d holds source row %d, want %d", y, got, want)
			}
		}
	}
}

func checkBlank(t *testing.T, img *image.RGBA, from, to int) {
	t.Helper()

	for y := from; y < to; y++ {
		if c := img.RGBAAt(0, y); c.A != 0 {
			t.Fatalf("row %d should be untouched, got %v", y, c)
		}
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name      string
		segs      []Segment
		height    int
		want      []Segment
		synthetic int
		overflow  int
	}{
		{"exact", []Segment{{0, 10}, {10, 5}}, 15, []Segment{{0, 10}, {10, 5}}, 0, 0},
		{"shortfall", []Segment{{0, 10}}, 25, []Segment{{0, 10}, {0, 15}}, 15, 0},
		{"overflow", []Segment{{0, 10}, {10, 10}}, 15, []Segment{{0, 10}, {10, 10}}, 0, 5},
		{"empty", nil, 4, []Segment{{0, 4}}, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, syn, over := Reconcile(tt.segs, tt.height)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("segments = %v, want %v", got, tt.want)
			}
			if syn != tt.synthetic || over != tt.overflow {
				t.Errorf("synthetic, overflow = %d, %d, want %d, %d", syn, over, tt.synthetic, tt.overflow)
			}
		})
	}
}

func TestReconcileDoesNotAlias(t *testing.T) {
	backing := make([]Segment, 1, 4)
	backing[0] = Segment{0, 2}

	out, _, _ := Reconcile(backing, 5)
	out[1].Dy = 99

	if backing[:2][1].Dy == 99 {
		t.Fatal("Reconcile wrote into the caller's backing array")
	}
}

func TestReconstructIdentity(t *testing.T) {
	src := rowImage(40, 30)

	out, rep := Reconstruct(src, []Segment{{0, 30}}, 40, 30)
	if out == nil {
		t.Fatal("Reconstruct returned nil")
	}
	if !rep.Clean() {
		t.Errorf("report = %+v, want clean", rep)
	}

	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if out.RGBAAt(x, y) != src.RGBAAt(x, y) {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, out.RGBAAt(x, y), src.RGBAAt(x, y))
			}
		}
	}
}

func TestReconstructVerticalSwap(t *testing.T) {
	src := rowImage(800, 1200)

	out, rep := Reconstruct(src, []Segment{{600, 600}, {0, 600}}, 800, 1200)
	if !rep.Clean() {
		t.Errorf("report = %+v, want clean", rep)
	}

	checkRows(t, out, 0, 600, 600)
	checkRows(t, out, 600, 1200, 0)
}

func TestReconstructSyntheticSegment(t *testing.T) {
	src := rowImage(10, 20)

	out, rep := Reconstruct(src, []Segment{{10, 10}}, 10, 20)
	if rep.Synthetic != 10 {
		t.Fatalf("Synthetic = %d, want 10", rep.Synthetic)
	}

	checkRows(t, out, 10, 20, 0)
	checkRows(t, out, 0, 10, 10)
}

func TestReconstructSkipsOutOfBounds(t *testing.T) {
	src := rowImage(10, 30)

	segs := []Segment{{25, 10}, {-5, 5}, {0, 10}, {10, 5}}
	out, rep := Reconstruct(src, segs, 10, 30)

	if rep.Skipped != 2 {
		t.Fatalf("Skipped = %d, want 2", rep.Skipped)
	}

	// Bands 3 and 4 are read after the two skipped bands advanced the cursor.
	checkRows(t, out, 0, 10, 15)
	checkRows(t, out, 10, 15, 25)
	checkBlank(t, out, 15, 30)
}

func TestReconstructTruncatesShortSource(t *testing.T) {
	src := rowImage(10, 15)

	out, rep := Reconstruct(src, []Segment{{10, 10}, {0, 10}}, 10, 20)
	if !rep.Truncated {
		t.Fatal("expected Truncated")
	}

	checkRows(t, out, 10, 20, 0)
	checkBlank(t, out, 0, 10)
}

func TestReconstructOverflow(t *testing.T) {
	src := rowImage(10, 40)

	out, rep := Reconstruct(src, []Segment{{0, 20}, {20, 20}}, 10, 30)
	if rep.Overflow != 10 {
		t.Fatalf("Overflow = %d, want 10", rep.Overflow)
	}
	if rep.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1", rep.Skipped)
	}
	checkRows(t, out, 0, 20, 0)
}

func TestReconstructInvalidSize(t *testing.T) {
	sizes := []struct{ w, h int }{
		{0, 2},
		{2, -1},
		{1 << 40, 1 << 40},
		{MaxSide + 1, 2},
		{MaxSide, MaxSide},
	}
	for _, sz := range sizes {
		if out, _ := Reconstruct(rowImage(2, 2), []Segment{{0, 2}}, sz.w, sz.h); out != nil {
			t.Errorf("Reconstruct(%dx%d) should return nil", sz.w, sz.h)
		}
	}
}
