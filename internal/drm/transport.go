package drm

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Transport deciphers response bodies for a set of hosts at the HTTP layer.
// A body that does not inflate after the XOR is passed through untouched.
// JSON responses are never altered.
type Transport struct {
	Base  http.RoundTripper
	Hosts []string
	Key   []byte
	Log   interface {
		Debugf(string, ...any)
	}
}

// RoundTrip sends req through Base and rewrites matching bodies.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}
	if !t.matches(req.URL.Hostname()) || isJSON(resp.Header.Get("Content-Type")) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	key := t.Key
	if len(key) == 0 {
		key = []byte(DefaultKey)
	}

	out := body
	if plain, err := Inflate(XOR(body, key)); err == nil {
		out = plain
	} else if t.Log != nil {
		t.Log.Debugf("drm transport: passthrough %s: %v", req.URL, err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Del("Content-Length")
	resp.Header.Del("Content-Encoding")

	return resp, nil
}

func (t *Transport) matches(host string) bool {
	host = strings.ToLower(host)
	for _, h := range t.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func isJSON(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
