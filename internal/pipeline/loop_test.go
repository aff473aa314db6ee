package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/ccoff/ir-mouse/internal/pointer"
	"github.com/ccoff/ir-mouse/internal/session"
	"github.com/ccoff/ir-mouse/internal/testutil"
	"github.com/ccoff/ir-mouse/internal/timeutil"
	"github.com/ccoff/ir-mouse/internal/vision"
)

// fakeSource plays back a fixed sequence of frames. Once the sequence is
// exhausted it returns err if set, otherwise it repeats the last frame.
type fakeSource struct {
	frames []*image.RGBA
	err    error
	idx    int
	reads  int
	onRead func()
}

func (f *fakeSource) Read() (*image.RGBA, error) {
	f.reads++
	if f.onRead != nil {
		f.onRead()
	}
	if f.idx < len(f.frames) {
		fr := f.frames[f.idx]
		f.idx++
		return fr, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.frames) > 0 {
		return f.frames[len(f.frames)-1], nil
	}
	return nil, errors.New("fakeSource has no frames")
}

type funcSink struct {
	render func(v FrameVisuals) bool
}

func (s *funcSink) Render(v FrameVisuals) bool { return s.render(v) }

type fakeDevice struct {
	pos   pointer.ScreenPoint
	moves []pointer.ScreenPoint
}

func (d *fakeDevice) Bounds() (pointer.ScreenBounds, error) {
	return pointer.ScreenBounds{Width: 1920, Height: 1080}, nil
}

func (d *fakeDevice) Position() (pointer.ScreenPoint, error) {
	return d.pos, nil
}

func (d *fakeDevice) MoveTo(p pointer.ScreenPoint) error {
	d.pos = p
	d.moves = append(d.moves, p)
	return nil
}

type captureRecorder struct {
	events []*session.MotionEvent
	err    error
}

func (r *captureRecorder) RecordMotion(ev *session.MotionEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

// permissiveBounds passes any bright pixel regardless of hue, which is
// what a white synthetic spot needs.
func permissiveBounds() FixedBounds {
	return FixedBounds(vision.Bounds{
		HueMin: 0, HueMax: 179,
		SatMin: 0, SatMax: 255,
		ValMin: 200, ValMax: 255,
	})
}

func testCompositor(t *testing.T) *vision.Compositor {
	t.Helper()
	// Small blur kernel keeps the synthetic frames cheap to process.
	return vision.NewCompositor(vision.CompositorConfig{MorphKernel: 5, BlurKernel: 15})
}

func baseConfig(t *testing.T, src Source) LoopConfig {
	t.Helper()
	return LoopConfig{
		Source:     src,
		Bounds:     permissiveBounds(),
		Pointer:    &fakeDevice{},
		Compositor: testCompositor(t),
		Screen:     pointer.ScreenBounds{Width: 1920, Height: 1080},
	}
}

func TestNewLoop_Validation(t *testing.T) {
	src := &fakeSource{frames: []*image.RGBA{testutil.BlackFrame(64, 48)}}

	tests := []struct {
		name   string
		mutate func(cfg *LoopConfig)
	}{
		{"missing source", func(cfg *LoopConfig) { cfg.Source = nil }},
		{"missing bounds provider", func(cfg *LoopConfig) { cfg.Bounds = nil }},
		{"missing pointer device", func(cfg *LoopConfig) { cfg.Pointer = nil }},
		{"missing compositor", func(cfg *LoopConfig) { cfg.Compositor = nil }},
		{"zero screen", func(cfg *LoopConfig) { cfg.Screen = pointer.ScreenBounds{} }},
	}
	for _, tt := range tests {
		cfg := baseConfig(t, src)
		tt.mutate(&cfg)
		if _, err := NewLoop(cfg); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}

	lp, err := NewLoop(baseConfig(t, src))
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if lp.State() != StateAwaitingFirstFrame {
		t.Errorf("initial state = %v, want %v", lp.State(), StateAwaitingFirstFrame)
	}
}

func TestNewLoop_NormalizesTypedNilCollaborators(t *testing.T) {
	src := &fakeSource{frames: []*image.RGBA{testutil.BlackFrame(64, 48)}}
	cfg := baseConfig(t, src)

	var sink *funcSink
	var rec *captureRecorder
	cfg.Debug = sink
	cfg.Recorder = rec

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	if lp.cfg.Debug != nil {
		t.Error("typed-nil DebugSink was not normalized to nil")
	}
	if lp.cfg.Recorder != nil {
		t.Error("typed-nil MotionRecorder was not normalized to nil")
	}
}

func TestLoop_TracksAndMovesPointer(t *testing.T) {
	src := &fakeSource{frames: []*image.RGBA{
		testutil.SpotFrame(64, 48, 10, 10, 1),
		testutil.SpotFrame(64, 48, 10, 14, 1),
	}}
	dev := &fakeDevice{pos: pointer.ScreenPoint{X: 500, Y: 500}}
	rec := &captureRecorder{}
	stats := NewFrameStats()
	clock := timeutil.NewMockClock(time.Unix(1700000000, 0))

	var lp *Loop
	var states []LoopState
	var peaks []vision.FramePoint
	sink := &funcSink{render: func(v FrameVisuals) bool {
		states = append(states, lp.State())
		peaks = append(peaks, v.Peak)
		if v.Composite == nil || v.Masks.Val == nil {
			t.Error("render called without composite or masks")
		}
		return len(states) == 2
	}}

	cfg := baseConfig(t, src)
	cfg.Pointer = dev
	cfg.Recorder = rec
	cfg.Stats = stats
	cfg.Debug = sink
	cfg.Clock = clock

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	if err := lp.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// The first detected frame flips the loop into tracking before the
	// render, so both renders see the tracking state.
	if len(states) != 2 || states[0] != StateTracking || states[1] != StateTracking {
		t.Errorf("states seen = %v, want [tracking tracking]", states)
	}
	if lp.State() != StateStopped {
		t.Errorf("final state = %v, want %v", lp.State(), StateStopped)
	}

	if len(peaks) != 2 || peaks[0] != (vision.FramePoint{X: 10, Y: 10}) || peaks[1] != (vision.FramePoint{X: 10, Y: 14}) {
		t.Errorf("peaks = %v, want [(10,10) (10,14)]", peaks)
	}

	// One measurable motion: (10,10) -> (10,14), distance 4, gain 1.0.
	// Pointer at (500,500) moves to (500,516).
	if len(dev.moves) != 1 {
		t.Fatalf("moves = %d, want 1", len(dev.moves))
	}
	if dev.moves[0] != (pointer.ScreenPoint{X: 500, Y: 516}) {
		t.Errorf("move target = %v, want (500,516)", dev.moves[0])
	}

	if len(rec.events) != 1 {
		t.Fatalf("recorded events = %d, want 1", len(rec.events))
	}
	ev := rec.events[0]
	if ev.FrameX != 10 || ev.FrameY != 14 {
		t.Errorf("event frame location = (%d,%d), want (10,14)", ev.FrameX, ev.FrameY)
	}
	if ev.DeltaX != 0 || ev.DeltaY != 4 {
		t.Errorf("event delta = (%d,%d), want (0,4)", ev.DeltaX, ev.DeltaY)
	}
	if ev.DistancePx != 4.0 {
		t.Errorf("event distance = %f, want 4.0", ev.DistancePx)
	}
	if ev.ScaleFactor != 1.0 {
		t.Errorf("event scale factor = %f, want 1.0", ev.ScaleFactor)
	}
	if !ev.Moved || ev.PointerX != 500 || ev.PointerY != 516 {
		t.Errorf("event pointer = moved=%v (%d,%d), want moved=true (500,516)", ev.Moved, ev.PointerX, ev.PointerY)
	}
	if ev.TSUnixNanos != clock.Now().UnixNano() {
		t.Errorf("event ts = %d, want %d", ev.TSUnixNanos, clock.Now().UnixNano())
	}

	frames, detections, actionable, moves := stats.Totals()
	if frames != 2 || detections != 2 || actionable != 1 || moves != 1 {
		t.Errorf("totals = %d/%d/%d/%d, want 2/2/1/1", frames, detections, actionable, moves)
	}
}

func TestLoop_JitterRecordedButNotApplied(t *testing.T) {
	// Distance 2 is below the jitter floor: the motion is recorded but
	// the pointer must not move. A failing recorder must not stop the
	// loop either.
	src := &fakeSource{frames: []*image.RGBA{
		testutil.SpotFrame(64, 48, 10, 10, 1),
		testutil.SpotFrame(64, 48, 12, 10, 1),
	}}
	dev := &fakeDevice{pos: pointer.ScreenPoint{X: 500, Y: 500}}
	rec := &captureRecorder{err: errors.New("db full")}
	stats := NewFrameStats()

	renders := 0
	sink := &funcSink{render: func(v FrameVisuals) bool {
		renders++
		return renders == 2
	}}

	cfg := baseConfig(t, src)
	cfg.Pointer = dev
	cfg.Recorder = rec
	cfg.Stats = stats
	cfg.Debug = sink

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	if err := lp.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(dev.moves) != 0 {
		t.Errorf("moves = %v, want none for sub-threshold motion", dev.moves)
	}
	if len(rec.events) != 1 {
		t.Fatalf("recorded events = %d, want 1", len(rec.events))
	}
	ev := rec.events[0]
	if ev.DistancePx != 2.0 || ev.Moved {
		t.Errorf("event = distance %f moved=%v, want 2.0 moved=false", ev.DistancePx, ev.Moved)
	}

	_, _, actionable, moves := stats.Totals()
	if actionable != 0 || moves != 0 {
		t.Errorf("actionable/moves = %d/%d, want 0/0", actionable, moves)
	}
}

func TestLoop_NoDetectionStaysAwaiting(t *testing.T) {
	src := &fakeSource{frames: []*image.RGBA{
		testutil.BlackFrame(64, 48),
		testutil.BlackFrame(64, 48),
	}}
	stats := NewFrameStats()

	var lp *Loop
	var states []LoopState
	sink := &funcSink{render: func(v FrameVisuals) bool {
		states = append(states, lp.State())
		if !v.Peak.IsOrigin() {
			t.Errorf("peak = %v, want origin for an empty frame", v.Peak)
		}
		return len(states) == 2
	}}

	cfg := baseConfig(t, src)
	cfg.Stats = stats
	cfg.Debug = sink

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	if err := lp.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for i, st := range states {
		if st != StateAwaitingFirstFrame {
			t.Errorf("state after frame %d = %v, want %v", i+1, st, StateAwaitingFirstFrame)
		}
	}
	frames, detections, _, _ := stats.Totals()
	if frames != 2 || detections != 0 {
		t.Errorf("frames/detections = %d/%d, want 2/0", frames, detections)
	}
}

func TestLoop_DetectionGapSuppressesMotion(t *testing.T) {
	// The spot disappears for one frame. Both the transition into the
	// gap and the one out of it involve the no-detection sentinel, so
	// neither may produce motion, even though (10,10) -> (13,14) is far
	// enough to be actionable.
	src := &fakeSource{frames: []*image.RGBA{
		testutil.SpotFrame(64, 48, 10, 10, 1),
		testutil.BlackFrame(64, 48),
		testutil.SpotFrame(64, 48, 13, 14, 1),
	}}
	dev := &fakeDevice{pos: pointer.ScreenPoint{X: 500, Y: 500}}
	rec := &captureRecorder{}
	stats := NewFrameStats()

	renders := 0
	sink := &funcSink{render: func(v FrameVisuals) bool {
		renders++
		return renders == 3
	}}

	cfg := baseConfig(t, src)
	cfg.Pointer = dev
	cfg.Recorder = rec
	cfg.Stats = stats
	cfg.Debug = sink

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}
	if err := lp.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(dev.moves) != 0 {
		t.Errorf("moves = %v, want none across a detection gap", dev.moves)
	}
	if len(rec.events) != 0 {
		t.Errorf("recorded events = %d, want 0", len(rec.events))
	}
	frames, detections, _, _ := stats.Totals()
	if frames != 3 || detections != 2 {
		t.Errorf("frames/detections = %d/%d, want 3/2", frames, detections)
	}
}

func TestLoop_AcquisitionFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{
		frames: []*image.RGBA{testutil.SpotFrame(64, 48, 10, 10, 1)},
		err:    boom,
	}

	cfg := baseConfig(t, src)
	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}

	err = lp.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failed acquisition, got nil")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
	if lp.State() != StateStopped {
		t.Errorf("state = %v, want %v", lp.State(), StateStopped)
	}
	if src.reads != 2 {
		t.Errorf("reads = %d, want 2", src.reads)
	}
}

func TestLoop_CanceledContextStopsBeforeReading(t *testing.T) {
	src := &fakeSource{frames: []*image.RGBA{testutil.BlackFrame(64, 48)}}

	cfg := baseConfig(t, src)
	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := lp.Run(ctx); err != nil {
		t.Errorf("Run returned %v, want nil on cancellation", err)
	}
	if src.reads != 0 {
		t.Errorf("reads = %d, want 0", src.reads)
	}
	if lp.State() != StateStopped {
		t.Errorf("state = %v, want %v", lp.State(), StateStopped)
	}
}

func TestLoop_CancelDuringHeadlessRun(t *testing.T) {
	firstRead := make(chan struct{})
	var once sync.Once
	src := &fakeSource{
		frames: []*image.RGBA{testutil.SpotFrame(64, 48, 10, 10, 1)},
		onRead: func() { once.Do(func() { close(firstRead) }) },
	}

	cfg := baseConfig(t, src)
	// Long interval parks the loop in the ticker wait, where only the
	// context can release it.
	cfg.FrameInterval = time.Hour

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- lp.Run(ctx) }()

	<-firstRead
	cancel()

	if err := <-errCh; err != nil {
		t.Errorf("Run returned %v, want nil on cancellation", err)
	}
	if lp.State() != StateStopped {
		t.Errorf("state = %v, want %v", lp.State(), StateStopped)
	}
}

func TestLoop_HeadlessPacedByTicker(t *testing.T) {
	boom := errors.New("out of frames")
	src := &fakeSource{
		frames: []*image.RGBA{
			testutil.SpotFrame(64, 48, 10, 10, 1),
			testutil.SpotFrame(64, 48, 10, 14, 1),
		},
		err: boom,
	}
	dev := &fakeDevice{pos: pointer.ScreenPoint{X: 500, Y: 500}}
	stats := NewFrameStats()

	cfg := baseConfig(t, src)
	cfg.Pointer = dev
	cfg.Stats = stats
	cfg.FrameInterval = time.Millisecond

	lp, err := NewLoop(cfg)
	if err != nil {
		t.Fatalf("NewLoop failed: %v", err)
	}

	err = lp.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}

	// Both frames were processed through the full pipeline despite no
	// debug sink pacing the loop.
	frames, detections, _, moves := stats.Totals()
	if frames != 2 || detections != 2 {
		t.Errorf("frames/detections = %d/%d, want 2/2", frames, detections)
	}
	if moves != 1 || len(dev.moves) != 1 {
		t.Errorf("moves = %d (%v), want 1", moves, dev.moves)
	}
}

func TestFixedBounds(t *testing.T) {
	b := vision.Bounds{HueMin: 51, HueMax: 62, SatMin: 12, SatMax: 43, ValMin: 250, ValMax: 255}
	fb := FixedBounds(b)
	if fb.Bounds() != b {
		t.Errorf("Bounds() = %v, want %v", fb.Bounds(), b)
	}
}
