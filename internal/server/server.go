// Package server provides the HTTP and WebSocket surface of the dance
// trainer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/seanbenoit06/dancetrainer/internal/capture"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/feedback"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
	"github.com/seanbenoit06/dancetrainer/internal/server/api"
	"github.com/seanbenoit06/dancetrainer/internal/session"
	"github.com/seanbenoit06/dancetrainer/internal/store"
)

// Config holds the server configuration. Camera, Detector, Processor
// and Feedback are optional; routes that need a missing component are
// either not registered or answer 503.
type Config struct {
	StaticDir string
	Store     *store.Store
	Sessions  *session.Manager
	Feedback  *feedback.Generator
	Processor *reference.Processor
	Detector  detector.Detector
	Camera    capture.Camera

	// BindCamera and UnbindCamera attach and detach the capture
	// pipeline for sessions created with use_camera.
	BindCamera   func(sessionID string)
	UnbindCamera func(sessionID string)
}

// Server routes HTTP requests for the dance trainer application.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *Hub
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewHub(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// Hub returns the live result hub so the capture pipeline can publish
// scoring results to WebSocket subscribers.
func (s *Server) Hub() *Hub {
	return s.hub
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.Handle("/api/presets", api.NewPresetsHandler())

	if s.config.Store != nil {
		refHandler := api.NewReferenceHandler(s.config.Store, s.config.Processor)
		s.mux.Handle("/api/references", refHandler)
		s.mux.Handle("/api/references/", refHandler)
	}

	if s.config.Store != nil && s.config.Sessions != nil {
		sessHandler := api.NewSessionHandler(api.SessionHandlerConfig{
			Store:        s.config.Store,
			Sessions:     s.config.Sessions,
			Feedback:     s.config.Feedback,
			Detector:     s.config.Detector,
			Publish:      s.hub.Publish,
			BindCamera:   s.config.BindCamera,
			UnbindCamera: s.config.UnbindCamera,
		})
		s.mux.Handle("/api/sessions", sessHandler)
		s.mux.Handle("/api/sessions/", sessHandler)

		s.mux.Handle("/ws/live", NewLiveHandler(s.hub, s.config.Sessions))
	}

	// Register camera preview endpoint if a camera is attached
	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
		"components": map[string]bool{
			"store":    s.config.Store != nil,
			"sessions": s.config.Sessions != nil,
			"feedback": s.config.Feedback != nil,
			"detector": s.config.Detector != nil,
			"camera":   s.config.Camera != nil,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}
