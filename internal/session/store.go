// Package session persists tracking runs for later analysis. A session is
// one run of the tracking loop; every measured motion becomes one event
// row. Recording is strictly diagnostic and the tracker runs identically
// with it disabled.
package session

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
)

// Session summarizes one tracking run.
type Session struct {
	SessionID        string
	StartedUnixNanos int64
	EndedUnixNanos   int64 // zero while the run is still open

	CaptureWidth  int
	CaptureHeight int
	ScreenWidth   int
	ScreenHeight  int

	FramesTotal       int64
	FramesDetected    int64
	MotionsActionable int64
	PointerMoves      int64

	AvgDistancePx  float64
	PeakDistancePx float64
	P50DistancePx  float64
	P85DistancePx  float64
	P95DistancePx  float64
}

// MotionEvent is one measured motion between consecutive detections.
type MotionEvent struct {
	SessionID   string
	TSUnixNanos int64

	FrameX int
	FrameY int
	DeltaX int
	DeltaY int

	DistancePx  float64
	ScaleFactor float64

	// Moved is set when the motion cleared the jitter floor and the
	// pointer move succeeded; PointerX/Y then hold the move target.
	Moved    bool
	PointerX int
	PointerY int
}

// InsertSession writes or refreshes a session row.
func InsertSession(db *sql.DB, s *Session) error {
	// Use ON CONFLICT DO UPDATE to avoid cascade deleting motion events
	// (INSERT OR REPLACE would delete the row first, triggering cascade
	// delete on motion_events)
	query := `
		INSERT INTO sessions (
			session_id, started_unix_nanos, ended_unix_nanos,
			capture_width, capture_height, screen_width, screen_height,
			frames_total, frames_detected, motions_actionable, pointer_moves,
			avg_distance_px, peak_distance_px,
			p50_distance_px, p85_distance_px, p95_distance_px
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			started_unix_nanos = excluded.started_unix_nanos,
			ended_unix_nanos = excluded.ended_unix_nanos,
			capture_width = excluded.capture_width,
			capture_height = excluded.capture_height,
			screen_width = excluded.screen_width,
			screen_height = excluded.screen_height,
			frames_total = excluded.frames_total,
			frames_detected = excluded.frames_detected,
			motions_actionable = excluded.motions_actionable,
			pointer_moves = excluded.pointer_moves,
			avg_distance_px = excluded.avg_distance_px,
			peak_distance_px = excluded.peak_distance_px,
			p50_distance_px = excluded.p50_distance_px,
			p85_distance_px = excluded.p85_distance_px,
			p95_distance_px = excluded.p95_distance_px
	`

	_, err := db.Exec(query,
		s.SessionID,
		s.StartedUnixNanos,
		nullInt64(s.EndedUnixNanos),
		s.CaptureWidth,
		s.CaptureHeight,
		s.ScreenWidth,
		s.ScreenHeight,
		s.FramesTotal,
		s.FramesDetected,
		s.MotionsActionable,
		s.PointerMoves,
		nullFloat64(s.AvgDistancePx),
		nullFloat64(s.PeakDistancePx),
		nullFloat64(s.P50DistancePx),
		nullFloat64(s.P85DistancePx),
		nullFloat64(s.P95DistancePx),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// InsertMotionEvent appends one motion event to its session.
func InsertMotionEvent(db *sql.DB, ev *MotionEvent) error {
	query := `
		INSERT INTO motion_events (
			session_id, ts_unix_nanos,
			frame_x, frame_y, delta_x, delta_y,
			distance_px, scale_factor,
			moved, pointer_x, pointer_y
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var px, py interface{}
	if ev.Moved {
		px, py = ev.PointerX, ev.PointerY
	}

	_, err := db.Exec(query,
		ev.SessionID,
		ev.TSUnixNanos,
		ev.FrameX, ev.FrameY,
		ev.DeltaX, ev.DeltaY,
		ev.DistancePx,
		ev.ScaleFactor,
		ev.Moved,
		px, py,
	)
	if err != nil {
		return fmt.Errorf("insert motion event: %w", err)
	}

	return nil
}

// GetSession loads a single session row.
func GetSession(db *sql.DB, sessionID string) (*Session, error) {
	query := `
		SELECT session_id, started_unix_nanos, ended_unix_nanos,
			capture_width, capture_height, screen_width, screen_height,
			frames_total, frames_detected, motions_actionable, pointer_moves,
			avg_distance_px, peak_distance_px,
			p50_distance_px, p85_distance_px, p95_distance_px
		FROM sessions
		WHERE session_id = ?
	`

	s := &Session{}
	var ended sql.NullInt64
	var avg, peak, p50, p85, p95 sql.NullFloat64

	err := db.QueryRow(query, sessionID).Scan(
		&s.SessionID,
		&s.StartedUnixNanos,
		&ended,
		&s.CaptureWidth,
		&s.CaptureHeight,
		&s.ScreenWidth,
		&s.ScreenHeight,
		&s.FramesTotal,
		&s.FramesDetected,
		&s.MotionsActionable,
		&s.PointerMoves,
		&avg,
		&peak,
		&p50,
		&p85,
		&p95,
	)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if ended.Valid {
		s.EndedUnixNanos = ended.Int64
	}
	if avg.Valid {
		s.AvgDistancePx = avg.Float64
	}
	if peak.Valid {
		s.PeakDistancePx = peak.Float64
	}
	if p50.Valid {
		s.P50DistancePx = p50.Float64
	}
	if p85.Valid {
		s.P85DistancePx = p85.Float64
	}
	if p95.Valid {
		s.P95DistancePx = p95.Float64
	}

	return s, nil
}

// LatestSessionID returns the most recently started session.
func LatestSessionID(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow(`
		SELECT session_id FROM sessions
		ORDER BY started_unix_nanos DESC
		LIMIT 1
	`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("latest session: %w", err)
	}
	return id, nil
}

// GetMotionEvents returns a session's events in time order. A limit of 0
// means no limit.
func GetMotionEvents(db *sql.DB, sessionID string, limit int) ([]*MotionEvent, error) {
	query := `
		SELECT session_id, ts_unix_nanos,
			frame_x, frame_y, delta_x, delta_y,
			distance_px, scale_factor,
			moved, pointer_x, pointer_y
		FROM motion_events
		WHERE session_id = ?
		ORDER BY ts_unix_nanos ASC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query motion events: %w", err)
	}
	defer rows.Close()

	var events []*MotionEvent
	for rows.Next() {
		ev := &MotionEvent{}
		var px, py sql.NullInt64

		err := rows.Scan(
			&ev.SessionID,
			&ev.TSUnixNanos,
			&ev.FrameX,
			&ev.FrameY,
			&ev.DeltaX,
			&ev.DeltaY,
			&ev.DistancePx,
			&ev.ScaleFactor,
			&ev.Moved,
			&px,
			&py,
		)
		if err != nil {
			return nil, fmt.Errorf("scan motion event: %w", err)
		}

		if px.Valid {
			ev.PointerX = int(px.Int64)
		}
		if py.Valid {
			ev.PointerY = int(py.Int64)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate motion events: %w", err)
	}

	return events, nil
}

// SessionDistances returns the per-event distances of a session in time
// order.
func SessionDistances(db *sql.DB, sessionID string) ([]float64, error) {
	rows, err := db.Query(`
		SELECT distance_px FROM motion_events
		WHERE session_id = ?
		ORDER BY ts_unix_nanos ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query distances: %w", err)
	}
	defer rows.Close()

	var distances []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan distance: %w", err)
		}
		distances = append(distances, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distances: %w", err)
	}

	return distances, nil
}

// ComputeDistancePercentiles calculates p50, p85 and p95 from the
// per-event distances. Returns zeros for an empty history.
func ComputeDistancePercentiles(distances []float64) (p50, p85, p95 float64) {
	if len(distances) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(distances))
	copy(sorted, distances)
	sort.Float64s(sorted)

	n := len(sorted)
	p50 = sorted[n/2]

	idx85 := int(math.Floor(float64(n) * 0.85))
	if idx85 >= n {
		idx85 = n - 1
	}
	p85 = sorted[idx85]

	idx95 := int(math.Floor(float64(n) * 0.95))
	if idx95 >= n {
		idx95 = n - 1
	}
	p95 = sorted[idx95]

	return p50, p85, p95
}

// Helper functions for nullable values

func nullInt64(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullFloat64(f float64) interface{} {
	if f == 0 || math.IsNaN(f) {
		return nil
	}
	return f
}
