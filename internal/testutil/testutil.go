// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"image"
	"image/color"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// BlackFrame returns an opaque all-black RGBA frame, the synthetic
// equivalent of a webcam pointed at a dark room.
func BlackFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}
	return img
}

// SpotFrame returns a black RGBA frame with a white square spot of
// radius r centered at (cx, cy), the synthetic equivalent of an IR
// point source seen by the camera. The spot is clipped at the frame
// edges.
func SpotFrame(w, h, cx, cy, r int) *image.RGBA {
	img := BlackFrame(w, h)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if x < 0 || x >= w || y < 0 || y >= h {
				continue
			}
			img.SetRGBA(x, y, white)
		}
	}
	return img
}
