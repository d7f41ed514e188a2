package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/seanbenoit06/dancetrainer/internal/app"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/feedback"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
	"github.com/seanbenoit06/dancetrainer/internal/server"
	"github.com/seanbenoit06/dancetrainer/internal/session"
	"github.com/seanbenoit06/dancetrainer/internal/store"
)

var (
	listen         = flag.String("listen", ":8080", "Listen address")
	dbPath         = flag.String("db", "", "SQLite database path (default ~/.dancetrainer/dancetrainer.db)")
	cameraID       = flag.Int("camera", -1, "Camera device ID, -1 disables live capture")
	pythonPath     = flag.String("python", "", "Python interpreter for the pose bridge")
	coachURL       = flag.String("coach-url", "", "Base URL of a local language model for coaching notes")
	coachModel     = flag.String("coach-model", "", "Coach model name")
	activityThresh = flag.Float64("activity-threshold", 0, "Frame change percentage that counts as activity")
	referenceFPS   = flag.Float64("reference-fps", 10, "Sampling rate for video reference imports")
)

const sweepInterval = time.Minute
const sessionMaxIdle = 30 * time.Minute

func main() {
	flag.Parse()

	fmt.Println("Dance Trainer - Pose Comparison and Scoring")

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	path := *dbPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dataDir := filepath.Join(homeDir, ".dancetrainer")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		path = filepath.Join(dataDir, "dancetrainer.db")
	}

	st, err := store.New(path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// The camera choice survives restarts: an explicit -camera flag is
	// persisted, later runs without the flag reuse it.
	camera := *cameraID
	if setFlags["camera"] {
		if err := st.Settings().Set("camera_id", strconv.Itoa(camera)); err != nil {
			log.Printf("Failed to persist camera setting: %v", err)
		}
	} else if v, err := st.Settings().Get("camera_id"); err == nil {
		if id, err := strconv.Atoi(v); err == nil {
			camera = id
		}
	}

	detCfg := detector.DefaultConfig()
	detCfg.PythonPath = *pythonPath

	sessions := session.NewManager()

	var coach *feedback.Client
	if *coachURL != "" {
		coach = feedback.NewClient(feedback.ClientConfig{
			BaseURL: *coachURL,
			Model:   *coachModel,
		})
	}

	var srv *server.Server

	var (
		cameraApp *app.App
		det       detector.Detector
	)
	if camera >= 0 {
		cameraApp = app.New(app.Config{
			Sessions: sessions,
			Publish: func(sessionID string, payload any) {
				srv.Hub().Publish(sessionID, payload)
			},
			CameraID:       camera,
			ActivityThresh: *activityThresh,
			Detector:       detCfg,
		})
		det = cameraApp.Detector()
	} else if mp, err := detector.NewMediaPipeDetector(detCfg); err == nil {
		det = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v); video import and snapshot scoring disabled", err)
	}

	var proc *reference.Processor
	if det != nil {
		proc = reference.NewProcessor(det, *referenceFPS)
	}

	webDir := findWebDir()
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	cfg := server.Config{
		StaticDir: webDir,
		Store:     st,
		Sessions:  sessions,
		Feedback:  feedback.NewGenerator(coach),
		Processor: proc,
		Detector:  det,
	}
	if cameraApp != nil {
		cfg.Camera = cameraApp.Camera()
		cfg.BindCamera = cameraApp.BindSession
		cfg.UnbindCamera = func(sessionID string) {
			if cameraApp.BoundSession() == sessionID {
				cameraApp.UnbindSession()
			}
		}
	}

	srv = server.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cameraApp != nil {
		if err := cameraApp.Start(); err != nil {
			log.Printf("Failed to start capture pipeline: %v", err)
		}
	}

	// Abandoned sessions hold their reference sequences in memory until
	// someone ends them; sweep the ones nobody is feeding.
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessions.Sweep(sessionMaxIdle); n > 0 {
					log.Printf("Swept %d idle sessions", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: srv,
	}

	go func() {
		fmt.Printf("Starting server on %s\n", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if cameraApp != nil {
		cameraApp.Stop()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.dancetrainer/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".dancetrainer", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
