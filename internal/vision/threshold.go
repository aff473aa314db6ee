package vision

import "image"

// Threshold produces a binary mask from a single plane: pixels inside the
// inclusive [lo,hi] window become 255, everything else 0. An inverted
// window (lo > hi) matches nothing and yields an all-zero mask.
func Threshold(src *image.Gray, lo, hi uint8) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			v := src.Pix[si+x]
			if v >= lo && v <= hi {
				dst.Pix[di+x] = 255
			}
		}
	}
	return dst
}

// ApplyBounds thresholds all three planes of a frame against their
// channel bounds.
func ApplyBounds(f Frame, b Bounds) ChannelMasks {
	return ChannelMasks{
		Hue: Threshold(f.Hue, b.HueMin, b.HueMax),
		Sat: Threshold(f.Sat, b.SatMin, b.SatMax),
		Val: Threshold(f.Val, b.ValMin, b.ValMax),
	}
}
