package drm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

func zlibBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func flateBytes(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("flate writer: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("flate write: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("flate close: %v", err)
	}
	return buf.Bytes()
}

func TestInflate(t *testing.T) {
	data := bytes.Repeat([]byte("row band payload "), 400)

	tests := []struct {
		name string
		in   []byte
	}{
		{"zlib", zlibBytes(t, data)},
		{"raw deflate", flateBytes(t, data)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inflate(tt.in)
			if err != nil {
				t.Fatalf("Inflate failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("Inflate returned %d bytes, want %d", len(got), len(data))
			}
		})
	}
}

func TestInflateInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"plaintext", []byte("plain page bytes, not compressed")},
		{"jpeg header", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}},
		{"truncated zlib", zlibBytes(t, bytes.Repeat([]byte("abc"), 100))[:6]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inflate(tt.in)
			if !errors.Is(err, ErrDecompression) {
				t.Fatalf("Inflate error = %v, want ErrDecompression", err)
			}
		})
	}
}
