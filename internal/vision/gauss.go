package vision

import (
	"image"
	"math"
)

// gaussianKernel returns a normalized 1-D Gaussian kernel of the given odd
// size. Sigma is derived from the size the way OpenCV derives it when the
// caller passes none:
//
//	sigma = 0.3*((size-1)*0.5 - 1) + 0.8
//
// which keeps masks tuned against OpenCV tooling behaving the same here.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := make([]float64, size)
	radius := size / 2
	var sum float64
	for i := range k {
		d := float64(i - radius)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// blurGray applies the separable kernel horizontally then vertically,
// reflecting at the borders without repeating the edge pixel.
func blurGray(src *image.Gray, kernel []float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	radius := len(kernel) / 2

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				acc += kv * float64(row[reflect101(x+i-radius, w)])
			}
			tmp[y*w+x] = acc
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range kernel {
				acc += kv * tmp[reflect101(y+i-radius, h)*w+x]
			}
			v := math.Round(acc)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			dst.Pix[di+x] = uint8(v)
		}
	}
	return dst
}

// reflect101 maps an out-of-range index back into [0,n) by mirroring
// around the border pixels. Handles radii larger than the image.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
