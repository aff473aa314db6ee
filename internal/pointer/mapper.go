// Package pointer converts tracked motion into absolute on-screen pointer
// positions and abstracts the desktop pointer behind a small device
// interface.
package pointer

import "github.com/ccoff/ir-mouse/internal/track"

// ScreenPoint is an absolute pointer position in screen pixels.
type ScreenPoint struct {
	X int
	Y int
}

// ScreenBounds is the usable screen extent. Positions are clamped to
// [0,Width] and [0,Height] inclusive; whether the far edge is a real
// pixel is left to the windowing system.
type ScreenBounds struct {
	Width  int
	Height int
}

// Device is the pointer sink: one bounds query at startup, then a
// position read and an absolute move per actionable motion.
type Device interface {
	Bounds() (ScreenBounds, error)
	Position() (ScreenPoint, error)
	MoveTo(p ScreenPoint) error
}

// ScaleFactor returns the gain applied to a tracked motion of the given
// distance in frame pixels. Faster hand motion is undersampled between
// frames, so larger jumps get proportionally more gain. Comparisons are
// strict: a distance exactly at a breakpoint takes the smaller factor.
func ScaleFactor(distance float64) float64 {
	switch {
	case distance > 20:
		return 1.7
	case distance > 9:
		return 1.4
	case distance > 6:
		return 1.2
	default:
		return 1.0
	}
}

// Map converts a motion in frame space into the next absolute pointer
// position. The horizontal axis is inverted because the camera faces the
// operator, so a leftward hand motion appears as rightward frame motion.
// Displacements are computed in floating point, truncated toward zero,
// then clamped to the screen.
func Map(m track.Motion, cur ScreenPoint, screen ScreenBounds) ScreenPoint {
	gain := m.Distance * ScaleFactor(m.Distance)
	x := int(float64(cur.X) - float64(m.Delta.DX)*gain)
	y := int(float64(cur.Y) + float64(m.Delta.DY)*gain)
	return ScreenPoint{
		X: clamp(x, screen.Width),
		Y: clamp(y, screen.Height),
	}
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
