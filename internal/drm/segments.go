package drm

import (
	"bytes"
	"strconv"
	"strings"
)

// DefaultMarker introduces the segment trailer in current payloads. Older
// payloads used "#v".
const DefaultMarker = "#v4|"

// Segment is one horizontal row band. Bands are stored top to bottom in
// the scrambled image and belong at rows [Dy, Dy+Height) of the output.
type Segment struct {
	Dy     int
	Height int
}

// ParseSegments reads the trailer that follows the first occurrence of
// marker in payload. It returns nil when the marker is absent or no token
// parses. Tokens without a '-' or with a non-numeric side are dropped.
func ParseSegments(payload, marker []byte) []Segment {
	segs, _ := parseSegments(payload, marker)
	return segs
}

// parseSegments also reports how many tokens were dropped.
func parseSegments(payload, marker []byte) ([]Segment, int) {
	if len(marker) == 0 {
		return nil, 0
	}

	i := bytes.Index(payload, marker)
	if i < 0 {
		return nil, 0
	}

	var (
		out     []Segment
		dropped int
	)

	for tok := range strings.SplitSeq(string(payload[i+len(marker):]), "|") {
		if !strings.Contains(tok, "-") {
			if strings.TrimSpace(tok) != "" {
				dropped++
			}
			continue
		}

		seg, ok := parseToken(tok)
		if !ok {
			dropped++
			continue
		}
		out = append(out, seg)
	}

	if len(out) == 0 {
		return nil, dropped
	}

	return out, dropped
}

func parseToken(tok string) (Segment, bool) {
	left, right, _ := strings.Cut(tok, "-")

	dy, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(left), "dy"))
	if err != nil {
		return Segment{}, false
	}

	h, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil || h < 0 {
		return Segment{}, false
	}

	return Segment{Dy: dy, Height: h}, true
}

// MarkerIndex returns the offset of marker in payload or -1.
func MarkerIndex(payload, marker []byte) int {
	if len(marker) == 0 {
		return -1
	}

	return bytes.Index(payload, marker)
}
