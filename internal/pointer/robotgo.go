package pointer

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// RobotgoDevice drives the desktop pointer through robotgo. The zero
// value is ready to use.
type RobotgoDevice struct{}

var _ Device = RobotgoDevice{}

func (RobotgoDevice) Bounds() (ScreenBounds, error) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return ScreenBounds{}, fmt.Errorf("screen size unavailable: %dx%d", w, h)
	}
	return ScreenBounds{Width: w, Height: h}, nil
}

func (RobotgoDevice) Position() (ScreenPoint, error) {
	x, y := robotgo.GetMousePos()
	return ScreenPoint{X: x, Y: y}, nil
}

func (RobotgoDevice) MoveTo(p ScreenPoint) error {
	robotgo.MoveMouse(p.X, p.Y)
	return nil
}
