package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ccoff/ir-mouse/internal/db"
	"github.com/ccoff/ir-mouse/internal/timeutil"
)

// Totals are the whole-run counters copied into the session row when the
// run ends.
type Totals struct {
	Frames     int64
	Detections int64
	Actionable int64
	Moves      int64
}

// Recorder writes one session row plus a motion event per measurement.
// It is driven from the tracking loop goroutine and is not safe for
// concurrent use.
type Recorder struct {
	db      *db.DB
	clock   timeutil.Clock
	session Session
}

// NewRecorder builds a recorder on an opened, migrated database. A nil
// clock uses the real one.
func NewRecorder(database *db.DB, clock timeutil.Clock) *Recorder {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Recorder{db: database, clock: clock}
}

// Start opens a new session row and returns its ID.
func (r *Recorder) Start(captureWidth, captureHeight, screenWidth, screenHeight int) (string, error) {
	r.session = Session{
		SessionID:        fmt.Sprintf("ses_%s", uuid.NewString()),
		StartedUnixNanos: r.clock.Now().UnixNano(),
		CaptureWidth:     captureWidth,
		CaptureHeight:    captureHeight,
		ScreenWidth:      screenWidth,
		ScreenHeight:     screenHeight,
	}
	if err := InsertSession(r.db.DB, &r.session); err != nil {
		return "", err
	}
	return r.session.SessionID, nil
}

// SessionID returns the active session's ID, empty before Start.
func (r *Recorder) SessionID() string { return r.session.SessionID }

// RecordMotion stamps the event with the session ID, and with the current
// time when the caller left the timestamp unset, then appends it.
func (r *Recorder) RecordMotion(ev *MotionEvent) error {
	if r.session.SessionID == "" {
		return fmt.Errorf("recorder not started")
	}
	ev.SessionID = r.session.SessionID
	if ev.TSUnixNanos == 0 {
		ev.TSUnixNanos = r.clock.Now().UnixNano()
	}
	return InsertMotionEvent(r.db.DB, ev)
}

// Finish seals the session row with the run totals and the distance
// statistics computed over the recorded events.
func (r *Recorder) Finish(totals Totals) error {
	if r.session.SessionID == "" {
		return fmt.Errorf("recorder not started")
	}

	distances, err := SessionDistances(r.db.DB, r.session.SessionID)
	if err != nil {
		return err
	}

	var sum, peak float64
	for _, d := range distances {
		sum += d
		if d > peak {
			peak = d
		}
	}
	if len(distances) > 0 {
		r.session.AvgDistancePx = sum / float64(len(distances))
	}
	r.session.PeakDistancePx = peak
	r.session.P50DistancePx, r.session.P85DistancePx, r.session.P95DistancePx = ComputeDistancePercentiles(distances)

	r.session.EndedUnixNanos = r.clock.Now().UnixNano()
	r.session.FramesTotal = totals.Frames
	r.session.FramesDetected = totals.Detections
	r.session.MotionsActionable = totals.Actionable
	r.session.PointerMoves = totals.Moves

	return InsertSession(r.db.DB, &r.session)
}
