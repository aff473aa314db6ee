package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ccoff/ir-mouse/internal/capture"
	"github.com/ccoff/ir-mouse/internal/config"
	"github.com/ccoff/ir-mouse/internal/db"
	"github.com/ccoff/ir-mouse/internal/display"
	"github.com/ccoff/ir-mouse/internal/pipeline"
	"github.com/ccoff/ir-mouse/internal/pointer"
	"github.com/ccoff/ir-mouse/internal/session"
	"github.com/ccoff/ir-mouse/internal/version"
	"github.com/ccoff/ir-mouse/internal/vision"
)

var (
	configPath  = flag.String("config", "", "Path to tuning config JSON (empty: built-in defaults)")
	dbFile      = flag.String("db", "", "Path to the SQLite session database (empty: recording disabled)")
	deviceIndex = flag.Int("device", -1, "Capture device index (-1: use config)")
	headless    = flag.Bool("headless", false, "Run without the debug windows")
	verbose     = flag.Bool("v", false, "Log per-motion diagnostics")
	veryVerbose = flag.Bool("vv", false, "Log per-frame telemetry (implies -v)")
	logInterval = flag.Int("log-interval", 10, "Statistics logging interval in seconds")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// openRecorder opens the session store and starts a recording session.
// Recording is diagnostic: any failure here is logged and tracking runs
// without it.
func openRecorder(path string, captureW, captureH, screenW, screenH int) (*session.Recorder, *db.DB) {
	database, err := db.OpenDB(path)
	if err != nil {
		log.Printf("Session recording disabled: %v", err)
		return nil, nil
	}
	if err := database.MigrateUp(); err != nil {
		log.Printf("Session recording disabled: migrate: %v", err)
		database.Close()
		return nil, nil
	}
	rec := session.NewRecorder(database, nil)
	id, err := rec.Start(captureW, captureH, screenW, screenH)
	if err != nil {
		log.Printf("Session recording disabled: %v", err)
		database.Close()
		return nil, nil
	}
	log.Printf("Recording session %s to %s", id, path)
	return rec, database
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ir-mouse %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	// Failures always go to stderr; the diagnostic streams are opt-in.
	var diagWriter, traceWriter io.Writer
	if *verbose || *veryVerbose {
		diagWriter = os.Stdout
	}
	if *veryVerbose {
		traceWriter = os.Stdout
	}
	pipeline.SetLogWriters(os.Stderr, diagWriter, traceWriter)

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	device := cfg.GetDeviceIndex()
	if *deviceIndex >= 0 {
		device = *deviceIndex
	}

	cam, err := capture.OpenWebcam(device, cfg.GetCaptureWidth(), cfg.GetCaptureHeight())
	if err != nil {
		log.Fatalf("Failed to open capture device: %v", err)
	}
	defer cam.Close()

	dev := pointer.RobotgoDevice{}
	screen, err := dev.Bounds()
	if err != nil {
		log.Fatalf("Failed to query screen size: %v", err)
	}

	bounds := vision.Bounds{
		HueMin: uint8(cfg.GetHueMin()),
		HueMax: uint8(cfg.GetHueMax()),
		SatMin: uint8(cfg.GetSatMin()),
		SatMax: uint8(cfg.GetSatMax()),
		ValMin: uint8(cfg.GetValMin()),
		ValMax: uint8(cfg.GetValMax()),
	}
	compositor := vision.NewCompositor(vision.CompositorConfig{
		MorphKernel:   cfg.GetMorphKernel(),
		BlurKernel:    cfg.GetBlurKernel(),
		UseSaturation: cfg.GetUseSaturation(),
	})

	var boundsProvider pipeline.BoundsProvider = pipeline.FixedBounds(bounds)
	var debugSink pipeline.DebugSink
	if !*headless {
		windows := display.Open(bounds)
		defer windows.Close()
		boundsProvider = windows
		debugSink = windows
	}

	var recorder *session.Recorder
	if *dbFile != "" {
		rec, database := openRecorder(*dbFile, cfg.GetCaptureWidth(), cfg.GetCaptureHeight(), screen.Width, screen.Height)
		if database != nil {
			defer database.Close()
		}
		recorder = rec
	}

	stats := pipeline.NewFrameStats()
	loop, err := pipeline.NewLoop(pipeline.LoopConfig{
		Source:        cam,
		Bounds:        boundsProvider,
		Pointer:       dev,
		Compositor:    compositor,
		Screen:        screen,
		Debug:         debugSink,
		Recorder:      recorder,
		Stats:         stats,
		FrameInterval: cfg.GetFrameInterval(),
	})
	if err != nil {
		log.Fatalf("Failed to build tracking loop: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic rate logging, teardown on cancel.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(*logInterval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				frames, detections, _, moves, duration := stats.GetAndReset()
				if frames > 0 {
					log.Printf("Tracking stats (/sec): %.1f frames, %.1f detections, %d moves",
						float64(frames)/duration.Seconds(),
						float64(detections)/duration.Seconds(),
						moves)
				}
			}
		}
	}()

	if *headless {
		log.Printf("Running, press Ctrl-C to exit...")
	} else {
		log.Printf("Running, press Esc to exit...")
	}

	runErr := loop.Run(ctx)

	stop()
	wg.Wait()

	if recorder != nil {
		frames, detections, actionable, moves := stats.Totals()
		err := recorder.Finish(session.Totals{
			Frames:     frames,
			Detections: detections,
			Actionable: actionable,
			Moves:      moves,
		})
		if err != nil {
			log.Printf("Failed to finalise session: %v", err)
		} else {
			log.Printf("Recorded session %s", recorder.SessionID())
		}
	}

	log.Printf("Exiting...")
	if runErr != nil {
		log.Fatalf("Tracking failed: %v", runErr)
	}
}
