package drm

// XOR returns data with every byte XORed against key, repeating the key as
// needed. Applying it twice with the same key yields the input again.
// An empty key returns an unmodified copy.
func XOR(data, key []byte) []byte {
	out := make([]byte, len(data))
	if len(key) == 0 {
		copy(out, data)
		return out
	}

	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}

	return out
}
