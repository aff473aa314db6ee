// Package display renders the tracking and tuning windows.
//
// The window layout mirrors the pipeline: one window per threshold mask
// with trackbars for its bounds, the composite, and the tracking view
// with the detected peak circled. The key wait in Render paces the
// tracking loop and is where the operator's Esc press is observed.
package display

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ccoff/ir-mouse/internal/pipeline"
	"github.com/ccoff/ir-mouse/internal/vision"
)

const (
	escKey         = 27
	waitKeyDelayMS = 5

	peakCircleRadius    = 10
	peakCircleThickness = 2
)

// Matches the highlight color the overlay has always used (BGR 128,255,0).
var peakCircleColor = color.RGBA{R: 0, G: 255, B: 128}

// Windows owns the five debug windows and their trackbars.
type Windows struct {
	hue       *gocv.Window
	sat       *gocv.Window
	val       *gocv.Window
	composite *gocv.Window
	tracking  *gocv.Window

	hmin, hmax *gocv.Trackbar
	smin, smax *gocv.Trackbar
	vmin, vmax *gocv.Trackbar
}

var _ pipeline.DebugSink = (*Windows)(nil)
var _ pipeline.BoundsProvider = (*Windows)(nil)

// Open creates the debug windows and seeds the trackbars from the given
// bounds. Trackbar positions are live from then on; Bounds reads them
// each frame.
func Open(initial vision.Bounds) *Windows {
	w := &Windows{
		hue:       gocv.NewWindow("Hue"),
		sat:       gocv.NewWindow("Saturation"),
		val:       gocv.NewWindow("Value"),
		composite: gocv.NewWindow("Composite"),
		tracking:  gocv.NewWindow("Tracking"),
	}

	// Two rows: results on top, channel masks below.
	w.tracking.MoveWindow(0, 0)
	w.composite.MoveWindow(400, 0)
	w.val.MoveWindow(0, 340)
	w.hue.MoveWindow(400, 340)
	w.sat.MoveWindow(800, 340)

	w.hmin = w.hue.CreateTrackbar("hmin", 179)
	w.hmax = w.hue.CreateTrackbar("hmax", 179)
	w.smin = w.sat.CreateTrackbar("smin", 255)
	w.smax = w.sat.CreateTrackbar("smax", 255)
	w.vmin = w.val.CreateTrackbar("vmin", 255)
	w.vmax = w.val.CreateTrackbar("vmax", 255)

	w.hmin.SetPos(int(initial.HueMin))
	w.hmax.SetPos(int(initial.HueMax))
	w.smin.SetPos(int(initial.SatMin))
	w.smax.SetPos(int(initial.SatMax))
	w.vmin.SetPos(int(initial.ValMin))
	w.vmax.SetPos(int(initial.ValMax))

	return w
}

// Bounds returns the current trackbar positions as threshold bounds.
func (w *Windows) Bounds() vision.Bounds {
	return vision.Bounds{
		HueMin: clampByte(w.hmin.GetPos()),
		HueMax: clampByte(w.hmax.GetPos()),
		SatMin: clampByte(w.smin.GetPos()),
		SatMax: clampByte(w.smax.GetPos()),
		ValMin: clampByte(w.vmin.GetPos()),
		ValMax: clampByte(w.vmax.GetPos()),
	}
}

// Render shows the cycle's intermediate images, waits for the UI event
// loop, and reports whether the operator pressed Esc.
func (w *Windows) Render(v pipeline.FrameVisuals) bool {
	showGray(w.hue, v.Masks.Hue)
	showGray(w.sat, v.Masks.Sat)
	showGray(w.val, v.Masks.Val)
	showGray(w.composite, v.Composite)
	w.showTracking(v.Frame, v.Peak)

	key := w.tracking.WaitKey(waitKeyDelayMS)
	return key&0xff == escKey
}

// Close destroys all windows. Trackbars are owned by their windows.
func (w *Windows) Close() error {
	var first error
	for _, win := range []*gocv.Window{w.hue, w.sat, w.val, w.composite, w.tracking} {
		if err := win.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func showGray(win *gocv.Window, img *image.Gray) {
	if img == nil {
		return
	}
	mat, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return
	}
	defer mat.Close()
	win.IMShow(mat)
}

// showTracking draws the peak circle onto the color frame and shows it.
// The circle is drawn every frame, including at the origin when nothing
// is detected, so a tuning operator can see at a glance when the bounds
// match nothing.
func (w *Windows) showTracking(frame *image.RGBA, peak vision.FramePoint) {
	if frame == nil {
		return
	}
	rgba, err := gocv.ImageToMatRGBA(frame)
	if err != nil {
		return
	}
	defer rgba.Close()

	// highgui assumes BGR ordering
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	gocv.Circle(&bgr, image.Point{X: peak.X, Y: peak.Y}, peakCircleRadius, peakCircleColor, peakCircleThickness)
	w.tracking.IMShow(bgr)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
