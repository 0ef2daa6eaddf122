// Package drm recovers viewable page images from the obfuscated payloads
// served by CuuTruyen. A payload goes through a repeating-key XOR, an
// optional DEFLATE layer and a row-band descramble driven by a text trailer
// of "dy<offset>-<height>" segments.
package drm
