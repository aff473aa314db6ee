package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reportSession() (*Session, []*MotionEvent) {
	s := &Session{
		SessionID:        "ses_render",
		StartedUnixNanos: 1000,
		EndedUnixNanos:   9000,
		CaptureWidth:     600,
		CaptureHeight:    450,
		ScreenWidth:      1920,
		ScreenHeight:     1080,
		PeakDistancePx:   22,
	}
	events := []*MotionEvent{
		{SessionID: s.SessionID, TSUnixNanos: 2000, FrameX: 100, FrameY: 200, DistancePx: 2, ScaleFactor: 1},
		{SessionID: s.SessionID, TSUnixNanos: 3000, FrameX: 110, FrameY: 210, DeltaX: 10, DeltaY: 10, DistancePx: 14.14, ScaleFactor: 1.4, Moved: true, PointerX: 800, PointerY: 600},
		{SessionID: s.SessionID, TSUnixNanos: 4000, FrameX: 130, FrameY: 195, DeltaX: 20, DeltaY: -15, DistancePx: 22, ScaleFactor: 1.7, Moved: true, PointerX: 300, PointerY: 950},
	}
	return s, events
}

func assertNonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "%s should not be empty", path)
}

func TestWriteTrajectoryPlot(t *testing.T) {
	s, events := reportSession()
	path := filepath.Join(t.TempDir(), "trajectory.png")

	require.NoError(t, WriteTrajectoryPlot(s, events, path))
	assertNonEmptyFile(t, path)
}

func TestWriteDistancePlot(t *testing.T) {
	s, events := reportSession()
	path := filepath.Join(t.TempDir(), "distances.png")

	require.NoError(t, WriteDistancePlot(s, events, path))
	assertNonEmptyFile(t, path)
}

func TestWriteSessionCharts(t *testing.T) {
	s, events := reportSession()
	path := filepath.Join(t.TempDir(), "session.html")

	require.NoError(t, WriteSessionCharts(s, events, path))
	assertNonEmptyFile(t, path)
}

func TestRender_EmptySession(t *testing.T) {
	s := &Session{SessionID: "ses_empty", CaptureWidth: 600, CaptureHeight: 450, ScreenWidth: 1920, ScreenHeight: 1080}
	dir := t.TempDir()

	require.NoError(t, WriteTrajectoryPlot(s, nil, filepath.Join(dir, "trajectory.png")))
	require.NoError(t, WriteDistancePlot(s, nil, filepath.Join(dir, "distances.png")))
	require.NoError(t, WriteSessionCharts(s, nil, filepath.Join(dir, "session.html")))
}
