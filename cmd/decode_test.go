package cmd

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/brogergvhs/cuudl/internal/drm"
)

func TestDecodeCommand(t *testing.T) {
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 20, 100))
	draw.Draw(img, image.Rect(0, 0, 20, 50), &image.Uniform{C: color.RGBA{R: 255, A: 255}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 50, 20, 100), &image.Uniform{C: color.RGBA{B: 255, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	in := filepath.Join(dir, "page.png")
	if err := os.WriteFile(in, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	trailer := drm.XOR([]byte("#v4|dy50-50|dy0-50"), []byte(drm.DefaultKey))
	drmFile := filepath.Join(dir, "page.drm")
	if err := os.WriteFile(drmFile, []byte(base64.StdEncoding.EncodeToString(trailer)), 0644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"decode", in, "--drm", "@" + drmFile})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	out, err := os.ReadFile(filepath.Join(dir, "page.decoded.jpg"))
	if err != nil {
		t.Fatalf("missing output: %v", err)
	}

	got, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}

	r, _, b, _ := got.At(10, 10).RGBA()
	if b < r {
		t.Errorf("top band should be blue, got r=%d b=%d", r>>8, b>>8)
	}
	r, _, b, _ = got.At(10, 90).RGBA()
	if r < b {
		t.Errorf("bottom band should be red, got r=%d b=%d", r>>8, b>>8)
	}
}
