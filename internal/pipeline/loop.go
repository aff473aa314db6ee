// Package pipeline composes the tracking stages into the per-frame loop:
// acquire a frame, split it into HSV planes, threshold, composite, locate
// the peak, measure motion against the previous detection, and drive the
// pointer. Collaborators are injected through small interfaces so the
// loop runs identically under a live webcam with debug windows or under
// synthetic frames in tests.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"reflect"
	"time"

	"github.com/ccoff/ir-mouse/internal/pointer"
	"github.com/ccoff/ir-mouse/internal/session"
	"github.com/ccoff/ir-mouse/internal/timeutil"
	"github.com/ccoff/ir-mouse/internal/track"
	"github.com/ccoff/ir-mouse/internal/vision"
)

// LoopState identifies the lifecycle phase of the tracking loop.
type LoopState string

const (
	StateAwaitingFirstFrame LoopState = "awaiting_first_frame" // no detection seen yet
	StateTracking           LoopState = "tracking"             // at least one detection seen
	StateStopped            LoopState = "stopped"              // terminal
)

// Source produces color frames on demand. Read blocks until the next
// frame is available; any error is an acquisition failure and terminates
// the run.
type Source interface {
	Read() (*image.RGBA, error)
}

// BoundsProvider exposes the current threshold bounds. Implementations
// may change the bounds between frames; interactive trackbars do.
type BoundsProvider interface {
	Bounds() vision.Bounds
}

// FixedBounds is a BoundsProvider that always returns the same bounds.
// Used in headless runs where no trackbars exist.
type FixedBounds vision.Bounds

func (b FixedBounds) Bounds() vision.Bounds { return vision.Bounds(b) }

// FrameVisuals carries one cycle's intermediate images for display.
type FrameVisuals struct {
	Frame     *image.RGBA
	Masks     vision.ChannelMasks
	Composite *image.Gray
	Peak      vision.FramePoint
}

// DebugSink renders per-frame intermediates and services the UI event
// loop. Render returns true when the operator has requested a stop. When
// a sink is attached its key wait paces the loop, so no ticker runs.
type DebugSink interface {
	Render(v FrameVisuals) (stop bool)
}

// MotionRecorder receives one record per measured motion. Recording is
// diagnostic; failures are logged and never stop tracking.
type MotionRecorder interface {
	RecordMotion(ev *session.MotionEvent) error
}

// LoopConfig holds the collaborators and tuning for a tracking loop.
// Source, Bounds, Pointer, Compositor and Screen are required; the rest
// are optional.
type LoopConfig struct {
	Source     Source
	Bounds     BoundsProvider
	Pointer    pointer.Device
	Compositor *vision.Compositor

	// Screen is the pointer clamp region, queried once at startup and
	// treated as immutable for the run.
	Screen pointer.ScreenBounds

	Debug    DebugSink
	Recorder MotionRecorder
	Stats    *FrameStats

	// FrameInterval paces the loop when no DebugSink is attached. Zero
	// runs flat out.
	FrameInterval time.Duration

	// Clock defaults to the real clock. Injected by tests.
	Clock timeutil.Clock
}

// Loop runs the tracking cycle and owns the cross-frame state.
type Loop struct {
	cfg   LoopConfig
	clock timeutil.Clock
	state LoopState
}

// NewLoop validates the configuration and builds a loop in the
// awaiting-first-frame state.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if isNilInterface(cfg.Source) {
		return nil, fmt.Errorf("loop config: no frame source")
	}
	if isNilInterface(cfg.Bounds) {
		return nil, fmt.Errorf("loop config: no bounds provider")
	}
	if isNilInterface(cfg.Pointer) {
		return nil, fmt.Errorf("loop config: no pointer device")
	}
	if cfg.Compositor == nil {
		return nil, fmt.Errorf("loop config: no compositor")
	}
	if cfg.Screen.Width <= 0 || cfg.Screen.Height <= 0 {
		return nil, fmt.Errorf("loop config: invalid screen bounds %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}
	if isNilInterface(cfg.Debug) {
		cfg.Debug = nil
	}
	if isNilInterface(cfg.Recorder) {
		cfg.Recorder = nil
	}
	clock := cfg.Clock
	if isNilInterface(clock) {
		clock = timeutil.RealClock{}
	}
	return &Loop{cfg: cfg, clock: clock, state: StateAwaitingFirstFrame}, nil
}

// State returns the loop's lifecycle phase. It is written only by Run, so
// it is meaningful before Run starts and after Run returns.
func (l *Loop) State() LoopState { return l.state }

// Run executes the tracking loop until the context is canceled, the debug
// sink reports an operator stop, or frame acquisition fails. Operator
// stops and cancellation return nil; acquisition failure returns the
// error.
func (l *Loop) Run(ctx context.Context) error {
	diagf("Tracking onto %dx%d screen", l.cfg.Screen.Width, l.cfg.Screen.Height)
	started := l.clock.Now()

	var ticker timeutil.Ticker
	if l.cfg.Debug == nil && l.cfg.FrameInterval > 0 {
		ticker = l.clock.NewTicker(l.cfg.FrameInterval)
		defer ticker.Stop()
	}

	var st track.State
	for {
		select {
		case <-ctx.Done():
			return l.stop(started, nil)
		default:
		}

		frame, err := l.cfg.Source.Read()
		if err != nil {
			opsf("Webcam capture failed!")
			return l.stop(started, fmt.Errorf("frame acquisition: %w", err))
		}
		if l.cfg.Stats != nil {
			l.cfg.Stats.AddFrame()
		}

		planes := vision.SplitHSV(frame)
		masks := vision.ApplyBounds(planes, l.cfg.Bounds.Bounds())
		composite := l.cfg.Compositor.Composite(masks)
		peak := vision.PeakLocation(composite)

		if !peak.IsOrigin() {
			if l.cfg.Stats != nil {
				l.cfg.Stats.AddDetection()
			}
			if l.state == StateAwaitingFirstFrame {
				l.state = StateTracking
			}
		}

		m, ok, next := st.Advance(peak)
		st = next
		if ok {
			tracef("Detection (%d,%d) delta (%d,%d) distance %.2f",
				peak.X, peak.Y, m.Delta.DX, m.Delta.DY, m.Distance)
			l.handleMotion(m, peak)
		}

		if l.cfg.Debug != nil {
			if l.cfg.Debug.Render(FrameVisuals{Frame: frame, Masks: masks, Composite: composite, Peak: peak}) {
				return l.stop(started, nil)
			}
		} else if ticker != nil {
			select {
			case <-ctx.Done():
				return l.stop(started, nil)
			case <-ticker.C():
			}
		}
	}
}

// handleMotion applies an actionable motion to the pointer and records
// the measurement when a recorder is attached.
func (l *Loop) handleMotion(m track.Motion, peak vision.FramePoint) {
	var target pointer.ScreenPoint
	moved := false
	if m.Actionable() {
		if l.cfg.Stats != nil {
			l.cfg.Stats.AddActionable()
		}
		target, moved = l.applyMotion(m)
	}
	if l.cfg.Recorder == nil {
		return
	}
	ev := &session.MotionEvent{
		TSUnixNanos: l.clock.Now().UnixNano(),
		FrameX:      peak.X,
		FrameY:      peak.Y,
		DeltaX:      m.Delta.DX,
		DeltaY:      m.Delta.DY,
		DistancePx:  m.Distance,
		ScaleFactor: pointer.ScaleFactor(m.Distance),
		Moved:       moved,
		PointerX:    target.X,
		PointerY:    target.Y,
	}
	if err := l.cfg.Recorder.RecordMotion(ev); err != nil {
		opsf("Record motion: %v", err)
	}
}

func (l *Loop) applyMotion(m track.Motion) (pointer.ScreenPoint, bool) {
	diagf("IR pointer moved %v", m.Distance)
	cur, err := l.cfg.Pointer.Position()
	if err != nil {
		opsf("Read pointer position: %v", err)
		return pointer.ScreenPoint{}, false
	}
	diagf("\tMouse pointer is currently at (%d, %d)", cur.X, cur.Y)
	target := pointer.Map(m, cur, l.cfg.Screen)
	if err := l.cfg.Pointer.MoveTo(target); err != nil {
		opsf("Move pointer to (%d, %d): %v", target.X, target.Y, err)
		return pointer.ScreenPoint{}, false
	}
	if l.cfg.Stats != nil {
		l.cfg.Stats.AddMove()
	}
	diagf("\tMoved mouse pointer to %d, %d", target.X, target.Y)
	return target, true
}

func (l *Loop) stop(started time.Time, err error) error {
	l.state = StateStopped
	diagf("Tracking loop stopped after %v", l.clock.Since(started))
	return err
}

// isNilInterface checks if an interface value is nil or contains a nil
// pointer. This handles the Go interface nil pitfall where i != nil but
// the underlying value is nil.
func isNilInterface(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
