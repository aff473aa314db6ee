// Package track maintains the frame-to-frame tracking state and measures
// the motion between consecutive detections.
package track

import (
	"math"

	"github.com/ccoff/ir-mouse/internal/vision"
)

// MinActionableDistance is the jitter floor in frame pixels. Motions at or
// below it are treated as sensor noise and never move the pointer.
const MinActionableDistance = 3.0

// Delta is a signed per-axis displacement in frame pixels.
type Delta struct {
	DX int
	DY int
}

// Motion is one measured displacement between consecutive detections.
type Motion struct {
	Delta    Delta
	Distance float64
}

// Actionable reports whether the motion is large enough to act on. The
// comparison is strict, so a motion of exactly the floor distance is still
// ignored.
func (m Motion) Actionable() bool {
	return m.Distance > MinActionableDistance
}

// State carries the single piece of cross-frame state: the previous
// detection. The zero value holds the origin sentinel, which matches the
// startup condition of having seen nothing yet.
type State struct {
	Previous vision.FramePoint
}

// Advance measures the motion from the stored previous detection to cur
// and returns the state for the next cycle. ok is false when either
// endpoint is the no-detection sentinel; the sentinel still replaces the
// stored detection so that tracking resumes cleanly after a dropout.
func (s State) Advance(cur vision.FramePoint) (m Motion, ok bool, next State) {
	next = State{Previous: cur}
	if cur.IsOrigin() || s.Previous.IsOrigin() {
		return Motion{}, false, next
	}
	d := Delta{DX: cur.X - s.Previous.X, DY: cur.Y - s.Previous.Y}
	return Motion{
		Delta:    d,
		Distance: math.Hypot(float64(d.DX), float64(d.DY)),
	}, true, next
}
