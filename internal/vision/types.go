// Package vision implements the per-frame image analysis that turns a
// color webcam frame into a single tracked coordinate. The stages mirror
// the physical setup: an infrared emitter shows up on an unfiltered webcam
// as a small, bright, narrowly hued region, so the pipeline splits the
// frame into HSV planes, thresholds each plane, composites the channel
// masks, suppresses noise, and takes the brightest surviving pixel as the
// detection.
//
// All stages operate on plain image.Gray planes so they can run and be
// tested without any camera or GUI runtime attached.
package vision

import "image"

// Frame holds the three HSV planes of one captured frame. Planes share
// dimensions and use the OpenCV byte scaling: hue in [0,179], saturation
// and value in [0,255].
type Frame struct {
	Hue *image.Gray
	Sat *image.Gray
	Val *image.Gray
}

// Bounds is one set of inclusive per-channel threshold limits. Values
// outside a channel's natural range are harmless; the comparison simply
// never matches.
type Bounds struct {
	HueMin, HueMax uint8
	SatMin, SatMax uint8
	ValMin, ValMax uint8
}

// ChannelMasks holds the binary mask of each HSV plane after
// thresholding. Mask pixels are 255 where the plane was inside its
// bounds and 0 elsewhere.
type ChannelMasks struct {
	Hue *image.Gray
	Sat *image.Gray
	Val *image.Gray
}

// FramePoint is a pixel coordinate in captured-frame space, origin at the
// top-left. Frame space is distinct from screen space; conversion between
// the two happens in the pointer package.
type FramePoint struct {
	X int
	Y int
}

// IsOrigin reports whether p is the frame origin. The origin doubles as
// the no-detection sentinel, so a genuine detection at (0,0) is
// indistinguishable from no detection and is deliberately ignored.
func (p FramePoint) IsOrigin() bool {
	return p.X == 0 && p.Y == 0
}
