package drm

import (
	"bytes"
	"testing"
)

func TestXOR(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		key  []byte
		want []byte
	}{
		{"empty", []byte{}, []byte{0x01}, []byte{}},
		{"single byte key", []byte{0x00, 0xff, 0x0f}, []byte{0xff}, []byte{0xff, 0x00, 0xf0}},
		{"key repeats", []byte{1, 2, 3, 4, 5}, []byte{1, 2}, []byte{0, 0, 2, 6, 4}},
		{"key longer than data", []byte{0xaa}, []byte{0x55, 0x01, 0x02}, []byte{0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := XOR(tt.data, tt.key)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("XOR(%v, %v) = %v, want %v", tt.data, tt.key, got, tt.want)
			}
		})
	}
}

func TestXORInvolution(t *testing.T) {
	key := []byte(DefaultKey)
	for n := 0; n < 70; n += 7 {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i*31 + n)
		}

		twice := XOR(XOR(data, key), key)
		if !bytes.Equal(twice, data) {
			t.Fatalf("len %d: XOR twice = %v, want %v", n, twice, data)
		}
	}
}

func TestXORDoesNotModifyInput(t *testing.T) {
	data := []byte("page")
	_ = XOR(data, []byte{0x20})
	if string(data) != "page" {
		t.Fatalf("input modified: %q", data)
	}
}
