package drm

import (
	"image"

	"golang.org/x/image/draw"
)

// Report describes how a reconstruction deviated from a clean one.
type Report struct {
	// Synthetic is the height of the band appended to cover rows the
	// segment list did not describe, or 0.
	Synthetic int
	// Overflow is how many rows the segment list describes beyond the
	// declared height, or 0.
	Overflow int
	// Skipped counts bands whose destination fell outside the output.
	Skipped int
	// Truncated is set when the source image ran out of rows.
	Truncated bool
}

// Clean reports whether every band landed without adjustment.
func (r Report) Clean() bool {
	return r.Synthetic == 0 && r.Overflow == 0 && r.Skipped == 0 && !r.Truncated
}

// Reconcile patches segs so that their heights sum to height. A shortfall
// gets one trailing band at Dy 0; an excess is returned as overflow and the
// list is left alone.
func Reconcile(segs []Segment, height int) (out []Segment, synthetic, overflow int) {
	total := 0
	for _, s := range segs {
		total += s.Height
	}

	out = segs
	switch rem := height - total; {
	case rem > 0:
		out = append(segs[:len(segs):len(segs)], Segment{Dy: 0, Height: rem})
		synthetic = rem
	case rem < 0:
		overflow = -rem
	}

	return out, synthetic, overflow
}

// Reconstruct copies the bands of src, read top to bottom in stored order,
// to their destination rows in a new width x height image. Bands that would
// land outside the output are skipped; processing stops once src has no
// rows left. It returns nil for a non-positive size or one beyond MaxSide
// and MaxPixels.
func Reconstruct(src image.Image, segs []Segment, width, height int) (*image.RGBA, Report) {
	var rep Report
	if !sizeOK(width, height) {
		return nil, rep
	}

	segs, rep.Synthetic, rep.Overflow = Reconcile(segs, height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	b := src.Bounds()
	sy := 0

	for _, s := range segs {
		if sy+s.Height > b.Dy() {
			rep.Truncated = true
			break
		}

		if s.Dy < 0 || s.Dy+s.Height > height {
			rep.Skipped++
			sy += s.Height
			continue
		}

		r := image.Rect(0, s.Dy, width, s.Dy+s.Height)
		draw.Draw(dst, r, src, image.Pt(b.Min.X, b.Min.Y+sy), draw.Src)
		sy += s.Height
	}

	return dst, rep
}
