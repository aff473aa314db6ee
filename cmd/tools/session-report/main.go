// Package main renders a recorded tracking session as a terminal summary
// plus optional plot and chart artifacts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	_ "modernc.org/sqlite"

	"github.com/ccoff/ir-mouse/internal/db"
	"github.com/ccoff/ir-mouse/internal/session"
	"github.com/ccoff/ir-mouse/internal/track"
)

// Config holds configuration for the session report.
type Config struct {
	DBFile    string
	SessionID string
	OutDir    string
	Limit     int
}

// DistanceStats holds the distance distribution of a session's motions,
// recomputed from the raw events so it also works for sessions that were
// never sealed.
type DistanceStats struct {
	Events     int
	Actionable int
	Mean       float64
	StdDev     float64
	P50        float64
	P85        float64
	P95        float64
	Max        float64
}

func main() {
	cfg := parseFlags()

	if cfg.DBFile == "" {
		log.Fatal("Session database is required (-db)")
	}
	if _, err := os.Stat(cfg.DBFile); os.IsNotExist(err) {
		log.Fatalf("Session database not found: %s", cfg.DBFile)
	}

	database, err := db.OpenDB(cfg.DBFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID, err = session.LatestSessionID(database.DB)
		if err != nil {
			log.Fatalf("Failed to find a session: %v", err)
		}
	}

	s, err := session.GetSession(database.DB, sessionID)
	if err != nil {
		log.Fatalf("Failed to load session %s: %v", sessionID, err)
	}
	events, err := session.GetMotionEvents(database.DB, sessionID, cfg.Limit)
	if err != nil {
		log.Fatalf("Failed to load motion events: %v", err)
	}

	printReport(s, computeDistanceStats(events))

	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		writeArtifacts(s, events, cfg.OutDir)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.DBFile, "db", "", "Path to the session database")
	flag.StringVar(&cfg.SessionID, "session", "", "Session ID to report on (empty: latest)")
	flag.StringVar(&cfg.OutDir, "out", "", "Directory for plot artifacts (empty: summary only)")
	flag.IntVar(&cfg.Limit, "limit", 0, "Maximum motion events to load (0: all)")

	flag.Parse()

	return cfg
}

func computeDistanceStats(events []*session.MotionEvent) DistanceStats {
	ds := DistanceStats{Events: len(events)}
	if len(events) == 0 {
		return ds
	}

	distances := make([]float64, 0, len(events))
	for _, ev := range events {
		distances = append(distances, ev.DistancePx)
		if ev.DistancePx > track.MinActionableDistance {
			ds.Actionable++
		}
		if ev.DistancePx > ds.Max {
			ds.Max = ev.DistancePx
		}
	}

	ds.Mean = stat.Mean(distances, nil)
	if len(distances) > 1 {
		ds.StdDev = stat.StdDev(distances, nil)
	}

	sorted := make([]float64, len(distances))
	copy(sorted, distances)
	sort.Float64s(sorted)
	ds.P50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	ds.P85 = stat.Quantile(0.85, stat.Empirical, sorted, nil)
	ds.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)

	return ds
}

func printReport(s *session.Session, ds DistanceStats) {
	started := time.Unix(0, s.StartedUnixNanos)

	fmt.Println("\n=== IR Mouse Session Report ===")
	fmt.Printf("Session: %s\n", s.SessionID)
	fmt.Printf("Started: %s\n", started.Format(time.RFC3339))
	if s.EndedUnixNanos > 0 {
		ended := time.Unix(0, s.EndedUnixNanos)
		fmt.Printf("Ended: %s (ran %s)\n", ended.Format(time.RFC3339), ended.Sub(started).Round(time.Second))
	} else {
		fmt.Println("Ended: still open")
	}
	fmt.Printf("Capture: %dx%d\n", s.CaptureWidth, s.CaptureHeight)
	fmt.Printf("Screen: %dx%d\n", s.ScreenWidth, s.ScreenHeight)

	fmt.Println("\n--- Run Totals ---")
	fmt.Printf("Frames: %d\n", s.FramesTotal)
	fmt.Printf("Detected: %d\n", s.FramesDetected)
	fmt.Printf("Actionable: %d\n", s.MotionsActionable)
	fmt.Printf("Pointer Moves: %d\n", s.PointerMoves)

	fmt.Println("\n--- Motion Distances (px) ---")
	fmt.Printf("Events: %d (%d above the %.0fpx jitter floor)\n",
		ds.Events, ds.Actionable, track.MinActionableDistance)
	if ds.Events > 0 {
		fmt.Printf("Mean: %.2f  StdDev: %.2f\n", ds.Mean, ds.StdDev)
		fmt.Printf("P50: %.2f  P85: %.2f  P95: %.2f  Max: %.2f\n", ds.P50, ds.P85, ds.P95, ds.Max)
	}
}

func writeArtifacts(s *session.Session, events []*session.MotionEvent, dir string) {
	artifacts := []struct {
		name  string
		write func(*session.Session, []*session.MotionEvent, string) error
	}{
		{"trajectory.png", session.WriteTrajectoryPlot},
		{"distance.png", session.WriteDistancePlot},
		{"report.html", session.WriteSessionCharts},
	}

	for _, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := a.write(s, events, path); err != nil {
			log.Printf("Warning: failed to write %s: %v", a.name, err)
			continue
		}
		log.Printf("Wrote %s", path)
	}
}
