package drm

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// DefaultKey is the XOR key CuuTruyen uses for page payloads.
const DefaultKey = "3141592653589793"

// Declared page sizes above these limits are rejected before any output
// buffer is allocated.
const (
	MaxSide   = 1 << 16
	MaxPixels = 1 << 27
)

// Kind names a pipeline condition.
type Kind string

const (
	KindDRMData          Kind = "drm_data"
	KindDecompression    Kind = "decompression"
	KindMissingMarker    Kind = "missing_marker"
	KindMalformedSegment Kind = "malformed_segment"
	KindGeometry         Kind = "geometry_mismatch"
	KindImageDecode      Kind = "image_decode"
	KindImageEncode      Kind = "image_encode"
)

var (
	ErrImageDecode = errors.New("image decode failed")
	ErrGeometry    = errors.New("segment geometry does not fit image")
	ErrNoSegments  = errors.New("marker present but no usable segments")
)

// Fallback records a recoverable condition and what the pipeline did
// instead.
type Fallback struct {
	Kind Kind
	Err  error
}

func (f Fallback) String() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return string(f.Kind) + ": " + f.Err.Error()
}

// PageError is returned when a page cannot be recovered.
type PageError struct {
	Kind Kind
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// Input is one page as described by the chapter API.
type Input struct {
	Image   []byte
	DRMData string
	Width   int
	Height  int
}

// Result holds the final page bytes.
type Result struct {
	Data        []byte
	ContentType string
	Descrambled bool
	Segments    []Segment
	Report      Report
	Fallbacks   []Fallback
}

// Has reports whether a fallback of kind k was taken.
func (r *Result) Has(k Kind) bool {
	for _, f := range r.Fallbacks {
		if f.Kind == k {
			return true
		}
	}
	return false
}

func (r *Result) fallback(k Kind, err error) {
	r.Fallbacks = append(r.Fallbacks, Fallback{Kind: k, Err: err})
}

// Options configures a Pipeline. Zero values select the defaults.
type Options struct {
	Key    string
	Marker string
	// Deciphered means image bytes were already XORed and inflated by
	// Transport. DRM data is still deciphered here.
	Deciphered     bool
	StrictGeometry bool
	JPEGQuality    int
}

// Pipeline is safe for concurrent use; it holds configuration only.
type Pipeline struct {
	key        []byte
	marker     []byte
	deciphered bool
	strict     bool
	quality    int
}

// NewPipeline returns a Pipeline with defaults filled in for empty options.
func NewPipeline(opts Options) *Pipeline {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 90
	}

	return &Pipeline{
		key:        []byte(opts.Key),
		marker:     []byte(opts.Marker),
		deciphered: opts.Deciphered,
		strict:     opts.StrictGeometry,
		quality:    opts.JPEGQuality,
	}
}

// Unwrap removes the XOR layer and, when present, the DEFLATE layer.
// Data that does not inflate is returned deciphered with a fallback.
func (p *Pipeline) Unwrap(data []byte, res *Result) []byte {
	plain := XOR(data, p.key)

	out, err := Inflate(plain)
	if err != nil {
		res.fallback(KindDecompression, err)
		return plain
	}

	// Short plaintext trailers can happen to parse as a tiny DEFLATE block.
	if MarkerIndex(out, p.marker) < 0 && MarkerIndex(plain, p.marker) >= 0 {
		res.fallback(KindDecompression, fmt.Errorf("%w: inflated data lost the marker", ErrDecompression))
		return plain
	}

	return out
}

// Process turns a fetched page into viewable image bytes. Recoverable
// conditions are listed in Result.Fallbacks; a *PageError means the page
// should be dropped.
func (p *Pipeline) Process(in Input) (*Result, error) {
	res := &Result{}
	body := in.Image

	var trailer []byte
	if drm := strings.TrimSpace(in.DRMData); drm != "" {
		raw, err := base64.StdEncoding.DecodeString(drm)
		if err != nil {
			return nil, &PageError{Kind: KindDRMData, Err: err}
		}
		trailer = p.Unwrap(raw, res)
	} else {
		// A body the transport could not inflate still carries the cipher.
		if !p.deciphered || (MarkerIndex(body, p.marker) < 0 && !isImage(body)) {
			body = p.Unwrap(body, res)
		}
		if i := MarkerIndex(body, p.marker); i >= 0 {
			body, trailer = body[:i], body[i:]
		}
	}

	if MarkerIndex(trailer, p.marker) < 0 {
		res.fallback(KindMissingMarker, nil)
		res.Data = body
		res.ContentType = http.DetectContentType(body)
		return res, nil
	}

	segs, dropped := parseSegments(trailer, p.marker)
	if dropped > 0 {
		res.fallback(KindMalformedSegment, fmt.Errorf("%d tokens dropped", dropped))
	}
	if segs == nil {
		return nil, &PageError{Kind: KindMalformedSegment, Err: ErrNoSegments}
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(body)); err == nil && !sizeOK(cfg.Width, cfg.Height) {
		return nil, &PageError{Kind: KindImageDecode, Err: fmt.Errorf("%w: source %dx%d too large", ErrImageDecode, cfg.Width, cfg.Height)}
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &PageError{Kind: KindImageDecode, Err: fmt.Errorf("%w: %w", ErrImageDecode, err)}
	}

	w, h := in.Width, in.Height
	if w <= 0 {
		w = img.Bounds().Dx()
	}
	if h <= 0 {
		h = img.Bounds().Dy()
	}

	if !sizeOK(w, h) {
		return nil, &PageError{Kind: KindGeometry, Err: fmt.Errorf("%w: declared size %dx%d too large", ErrGeometry, w, h)}
	}

	if _, _, over := Reconcile(segs, h); over > 0 && p.strict {
		return nil, &PageError{
			Kind: KindGeometry,
			Err:  fmt.Errorf("%w: segments describe %d rows past height %d", ErrGeometry, over, h),
		}
	}

	out, rep := Reconstruct(img, segs, w, h)
	if out == nil {
		return nil, &PageError{Kind: KindGeometry, Err: fmt.Errorf("%w: size %dx%d", ErrGeometry, w, h)}
	}
	if !rep.Clean() {
		res.fallback(KindGeometry, fmt.Errorf("%w: %+v", ErrGeometry, rep))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, &PageError{Kind: KindImageEncode, Err: err}
	}

	res.Data = buf.Bytes()
	res.ContentType = "image/jpeg"
	res.Descrambled = true
	res.Segments = segs
	res.Report = rep

	return res, nil
}

func isImage(b []byte) bool {
	return strings.HasPrefix(http.DetectContentType(b), "image/")
}

func sizeOK(w, h int) bool {
	return w > 0 && h > 0 && w <= MaxSide && h <= MaxSide && w*h <= MaxPixels
}
