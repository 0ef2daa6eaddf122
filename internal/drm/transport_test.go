package drm

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTransport(t *testing.T) {
	key := []byte(DefaultKey)
	plain := bytes.Repeat([]byte("image"), 50)

	var cipherBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/image", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(cipherBody)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("\xff\xd8not ciphered"))
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cipherBody = XOR(zlibBytes(t, plain), key)

	get := func(t *testing.T, hosts []string, path string) []byte {
		t.Helper()

		client := &http.Client{Transport: &Transport{Hosts: hosts, Key: key}}
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		return b
	}

	t.Run("matching host is deciphered", func(t *testing.T) {
		if got := get(t, []string{"127.0.0.1"}, "/image"); !bytes.Equal(got, plain) {
			t.Errorf("body = %q, want deciphered payload", got)
		}
	})

	t.Run("other host untouched", func(t *testing.T) {
		if got := get(t, []string{"cuutruyen.net"}, "/image"); !bytes.Equal(got, cipherBody) {
			t.Error("body was altered for a foreign host")
		}
	})

	t.Run("json untouched", func(t *testing.T) {
		if got := get(t, []string{"127.0.0.1"}, "/api"); string(got) != `{"data":[]}` {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("non deflate falls back to original", func(t *testing.T) {
		if got := get(t, []string{"127.0.0.1"}, "/plain"); string(got) != "\xff\xd8not ciphered" {
			t.Errorf("body = %q", got)
		}
	})
}

func TestTransportMatches(t *testing.T) {
	tr := &Transport{Hosts: []string{"cuutruyen.net", " nettrom.com "}}

	tests := map[string]bool{
		"cuutruyen.net":         true,
		"storage.cuutruyen.net": true,
		"NETTROM.com":           true,
		"evilcuutruyen.net":     false,
		"example.com":           false,
	}
	for host, want := range tests {
		if got := tr.matches(host); got != want {
			t.Errorf("matches(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestTransportWithDecipheredPipeline(t *testing.T) {
	key := []byte(DefaultKey)
	page := append(bandsPNG(t), swapTrailer...)

	tests := []struct {
		name string
		body []byte
	}{
		{"compressed", XOR(zlibBytes(t, page), key)},
		{"not compressed", XOR(page, key)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			client := &http.Client{Transport: &Transport{Hosts: []string{"127.0.0.1"}, Key: key}}
			resp, err := client.Get(srv.URL)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				t.Fatalf("read body: %v", err)
			}

			res, err := NewPipeline(Options{Deciphered: true}).Process(Input{Image: body, Width: 40, Height: 120})
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			checkSwapped(t, res)
		})
	}
}
