package vision

import (
	"image"

	"github.com/disintegration/gift"
)

// CompositorConfig tunes the mask combination stage.
type CompositorConfig struct {
	// MorphKernel is the side of the square structuring element used for
	// the dilate and close passes. Must be odd.
	MorphKernel int
	// BlurKernel is the side of the Gaussian kernel applied after
	// morphology. Must be odd. Large relative to the expected spot size
	// so that scattered noise is flattened well below the true peak.
	BlurKernel int
	// UseSaturation folds the saturation mask into the composite. Off by
	// default: IR spots wash out to near-white on most sensors, which
	// makes saturation an unreliable discriminator.
	UseSaturation bool
}

// DefaultCompositorConfig returns the tuning used by the interactive
// tracker.
func DefaultCompositorConfig() CompositorConfig {
	return CompositorConfig{
		MorphKernel: 5,
		BlurKernel:  55,
	}
}

// Compositor combines per-channel masks into a single detection grid:
// intersect the masks, dilate once, morphologically close, then apply a
// heavy Gaussian blur. The result is a grayscale grid whose brightest
// pixel sits at the center of the largest surviving region.
type Compositor struct {
	cfg    CompositorConfig
	morph  *gift.GIFT
	kernel []float64
}

// NewCompositor builds a compositor for the given tuning. Non-positive or
// even kernel sizes fall back to the defaults.
func NewCompositor(cfg CompositorConfig) *Compositor {
	def := DefaultCompositorConfig()
	if cfg.MorphKernel < 1 || cfg.MorphKernel%2 == 0 {
		cfg.MorphKernel = def.MorphKernel
	}
	if cfg.BlurKernel < 1 || cfg.BlurKernel%2 == 0 {
		cfg.BlurKernel = def.BlurKernel
	}
	return &Compositor{
		cfg: cfg,
		morph: gift.New(
			gift.Maximum(cfg.MorphKernel, false),
			gift.Maximum(cfg.MorphKernel, false),
			gift.Minimum(cfg.MorphKernel, false),
		),
		kernel: gaussianKernel(cfg.BlurKernel),
	}
}

// Composite reduces the channel masks to one detection grid. The value
// and hue masks always participate; saturation joins only when enabled.
// Masks must share dimensions.
func (c *Compositor) Composite(m ChannelMasks) *image.Gray {
	comp := andMasks(m.Val, m.Hue)
	if c.cfg.UseSaturation {
		comp = andMasks(comp, m.Sat)
	}
	cleaned := image.NewGray(c.morph.Bounds(comp.Bounds()))
	c.morph.Draw(cleaned, comp)
	return blurGray(cleaned, c.kernel)
}

func andMasks(a, b *image.Gray) *image.Gray {
	ab := a.Bounds()
	w, h := ab.Dx(), ab.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ai := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		bi := b.PixOffset(b.Bounds().Min.X, b.Bounds().Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < w; x++ {
			dst.Pix[di+x] = a.Pix[ai+x] & b.Pix[bi+x]
		}
	}
	return dst
}
