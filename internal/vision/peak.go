package vision

import "image"

// PeakLocation returns the coordinate of the brightest pixel in the grid,
// taking the first occurrence in row-major order when several pixels tie.
// An all-zero grid therefore reports the origin, which callers treat as
// the no-detection sentinel.
func PeakLocation(grid *image.Gray) FramePoint {
	b := grid.Bounds()
	w, h := b.Dx(), b.Dy()
	var best uint8
	var p FramePoint
	for y := 0; y < h; y++ {
		ri := grid.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			if v := grid.Pix[ri+x]; v > best {
				best = v
				p = FramePoint{X: x, Y: y}
			}
		}
	}
	return p
}
