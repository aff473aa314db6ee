package vision

import "image"

// SplitHSV converts a color frame into separate hue, saturation and value
// planes using the OpenCV byte scaling: hue is halved into [0,179] so it
// fits a byte, saturation and value span [0,255]. Threshold bounds tuned
// against OpenCV-based tooling therefore carry over unchanged.
func SplitHSV(src *image.RGBA) Frame {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	f := Frame{
		Hue: image.NewGray(image.Rect(0, 0, w, h)),
		Sat: image.NewGray(image.Rect(0, 0, w, h)),
		Val: image.NewGray(image.Rect(0, 0, w, h)),
	}
	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := y * f.Hue.Stride
		for x := 0; x < w; x++ {
			hh, ss, vv := rgbToHSV(src.Pix[si], src.Pix[si+1], src.Pix[si+2])
			f.Hue.Pix[di] = hh
			f.Sat.Pix[di] = ss
			f.Val.Pix[di] = vv
			si += 4
			di++
		}
	}
	return f
}

func rgbToHSV(r, g, b uint8) (h, s, v uint8) {
	maxc := r
	if g > maxc {
		maxc = g
	}
	if b > maxc {
		maxc = b
	}
	minc := r
	if g < minc {
		minc = g
	}
	if b < minc {
		minc = b
	}
	v = maxc
	diff := int(maxc) - int(minc)
	if maxc > 0 {
		s = uint8((diff*255 + int(maxc)/2) / int(maxc))
	}
	if diff == 0 {
		return 0, s, v
	}
	// Hue is computed directly on the halved scale: 30 units per 60
	// degrees of the conventional hue circle.
	var hd int
	switch maxc {
	case r:
		hd = (30 * (int(g) - int(b))) / diff
	case g:
		hd = 60 + (30*(int(b)-int(r)))/diff
	default:
		hd = 120 + (30*(int(r)-int(g)))/diff
	}
	if hd < 0 {
		hd += 180
	}
	return uint8(hd), s, v
}
