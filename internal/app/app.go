// Package app runs the live capture pipeline: camera frames in,
// scored results out to the bound practice session.
package app

import (
	"log"
	"sync"

	"github.com/seanbenoit06/dancetrainer/internal/capture"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/session"
)

// IdleTimeoutMs is how long the pipeline keeps the active frame rate
// after the last detected activity.
const IdleTimeoutMs = 2000

// Config holds configuration options for the application.
type Config struct {
	Sessions *session.Manager

	// Publish, when set, receives every scoring result produced from
	// camera frames, keyed by session ID.
	Publish func(sessionID string, payload any)

	// CameraID selects the capture device.
	CameraID int

	// ActivityThresh is the frame-change percentage that counts as
	// activity. Zero or negative means the default.
	ActivityThresh float64

	// Detector configures the MediaPipe bridge.
	Detector detector.Config
}

// App owns the camera and feeds detected poses into whichever session
// is bound to the camera.
type App struct {
	config   Config
	camera   capture.Camera
	activity *capture.ActivityDetector
	detector detector.Detector

	mu      sync.RWMutex
	boundID string
	stopCh  chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	threshold := config.ActivityThresh
	if threshold <= 0 {
		threshold = capture.DefaultActivityThreshold
	}

	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.CameraID),
		activity: capture.NewActivityDetector(threshold),
	}

	// Try MediaPipe first, fall back to the mock detector so the rest
	// of the system stays usable without the Python bridge.
	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe pose detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// BindSession points the camera pipeline at a session. Detected poses
// are scored against it until it ends or another session is bound.
func (a *App) BindSession(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.boundID = id
}

// UnbindSession detaches the camera pipeline from its session.
func (a *App) UnbindSession() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.boundID = ""
}

// BoundSession returns the ID of the session the camera feeds, or ""
// when none is bound.
func (a *App) BoundSession() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.boundID
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// SetCamera replaces the camera. Only valid before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Start opens the camera and begins the capture pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(capture.IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Capture pipeline started")
	return nil
}

// Stop halts the capture pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.activity.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Capture pipeline stopped")
}
