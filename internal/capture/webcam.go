// Package capture acquires frames from a video device.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"github.com/ccoff/ir-mouse/internal/monitoring"
	"github.com/ccoff/ir-mouse/internal/pipeline"
)

// ErrCaptureFailed is returned when the device stops producing frames.
// The tracking loop treats this as fatal rather than retrying against a
// wedged driver.
var ErrCaptureFailed = errors.New("webcam capture failed")

// Webcam reads frames from a video device via OpenCV. It implements
// pipeline.Source. Not safe for concurrent use; the tracking loop is
// the only caller.
type Webcam struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
}

var _ pipeline.Source = (*Webcam)(nil)

// OpenWebcam opens the capture device at the given index and requests
// the given frame size. Drivers are free to negotiate a different
// size; the negotiated size is logged when it differs from the request.
func OpenWebcam(device, width, height int) (*Webcam, error) {
	cap, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", device, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, float64(width))
	cap.Set(gocv.VideoCaptureFrameHeight, float64(height))

	gotW := int(cap.Get(gocv.VideoCaptureFrameWidth))
	gotH := int(cap.Get(gocv.VideoCaptureFrameHeight))
	if gotW != width || gotH != height {
		monitoring.Logf("[Webcam] device=%d negotiated %dx%d (requested %dx%d)",
			device, gotW, gotH, width, height)
	}

	return &Webcam{cap: cap, mat: gocv.NewMat()}, nil
}

// Read grabs the next frame and converts it to RGBA. A failed grab or
// an empty frame returns ErrCaptureFailed.
func (w *Webcam) Read() (*image.RGBA, error) {
	if ok := w.cap.Read(&w.mat); !ok || w.mat.Empty() {
		return nil, ErrCaptureFailed
	}
	img, err := w.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return toRGBA(img), nil
}

// Close releases the device and the scratch Mat.
func (w *Webcam) Close() error {
	merr := w.mat.Close()
	cerr := w.cap.Close()
	if merr != nil {
		return merr
	}
	return cerr
}

// toRGBA converts an image to RGBA. gocv returns *image.RGBA for the
// common 8UC3 frame type, so this is usually a type assertion with no
// copy.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	return rgba
}
