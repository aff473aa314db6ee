package pipeline

import (
	"sync"
	"time"
)

// FrameStats accumulates tracking counters for periodic rate logging and
// a whole-run summary. Safe for concurrent use; the loop adds while the
// stats goroutine drains.
type FrameStats struct {
	mu         sync.Mutex
	frames     int64
	detections int64
	actionable int64
	moves      int64
	lastReset  time.Time

	totalFrames     int64
	totalDetections int64
	totalActionable int64
	totalMoves      int64
}

// NewFrameStats returns stats with the rate window starting now.
func NewFrameStats() *FrameStats {
	return &FrameStats{lastReset: time.Now()}
}

// AddFrame counts one captured frame.
func (s *FrameStats) AddFrame() {
	s.mu.Lock()
	s.frames++
	s.totalFrames++
	s.mu.Unlock()
}

// AddDetection counts a frame whose composite produced a non-sentinel
// peak.
func (s *FrameStats) AddDetection() {
	s.mu.Lock()
	s.detections++
	s.totalDetections++
	s.mu.Unlock()
}

// AddActionable counts a measured motion above the jitter floor.
func (s *FrameStats) AddActionable() {
	s.mu.Lock()
	s.actionable++
	s.totalActionable++
	s.mu.Unlock()
}

// AddMove counts a completed pointer move.
func (s *FrameStats) AddMove() {
	s.mu.Lock()
	s.moves++
	s.totalMoves++
	s.mu.Unlock()
}

// GetAndReset returns the counters accumulated since the last call along
// with the elapsed window, then starts a new window.
func (s *FrameStats) GetAndReset() (frames, detections, actionable, moves int64, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames = s.frames
	detections = s.detections
	actionable = s.actionable
	moves = s.moves

	now := time.Now()
	elapsed = now.Sub(s.lastReset)
	s.lastReset = now

	s.frames = 0
	s.detections = 0
	s.actionable = 0
	s.moves = 0
	return frames, detections, actionable, moves, elapsed
}

// Totals returns the whole-run counters, unaffected by window resets.
func (s *FrameStats) Totals() (frames, detections, actionable, moves int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalFrames, s.totalDetections, s.totalActionable, s.totalMoves
}
