package drm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

var ErrDecompression = errors.New("decompression failed")

// Inflate decompresses a zlib-wrapped or raw DEFLATE stream. Input that is
// neither yields an error wrapping ErrDecompression; callers usually keep
// the input as-is in that case.
func Inflate(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecompression)
	}

	if hasZlibHeader(data) {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err == nil {
			out, rerr := readAllClose(zr)
			if rerr == nil {
				return out, nil
			}
		}
	}

	out, err := readAllClose(flate.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompression, err)
	}

	return out, nil
}

// hasZlibHeader checks the CMF/FLG pair of RFC 1950.
func hasZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}

	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}

func readAllClose(rc io.ReadCloser) ([]byte, error) {
	defer func() {
		_ = rc.Close()
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
