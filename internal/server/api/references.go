// Package api provides HTTP API handlers for the dance trainer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/seanbenoit06/dancetrainer/internal/reference"
	"github.com/seanbenoit06/dancetrainer/internal/store"
)

// ReferenceHandler handles HTTP requests for reference dance resources.
type ReferenceHandler struct {
	store     *store.Store
	processor *reference.Processor
}

// NewReferenceHandler creates a ReferenceHandler. processor may be nil
// when no detector is available; video processing then returns 503 and
// only JSON imports are accepted.
func NewReferenceHandler(s *store.Store, p *reference.Processor) *ReferenceHandler {
	return &ReferenceHandler{store: s, processor: p}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ReferenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/references or /api/references/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/references")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createReferenceRequest struct {
	Name string `json:"name"`
	// Source is the path of a video to run through the pose detector.
	Source string `json:"source,omitempty"`
	// Frames imports an already-extracted pose sequence directly.
	Frames []reference.FrameRecord `json:"frames,omitempty"`
}

type referenceResponse struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Source     string                  `json:"source,omitempty"`
	FrameCount int                     `json:"frame_count"`
	DurationMs int64                   `json:"duration_ms"`
	FPS        float64                 `json:"fps"`
	CreatedAt  string                  `json:"created_at"`
	UpdatedAt  string                  `json:"updated_at"`
	Frames     []reference.FrameRecord `json:"frames,omitempty"`
}

type listReferencesResponse struct {
	References []referenceResponse `json:"references"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toReferenceResponse converts a store.Reference to a referenceResponse.
func toReferenceResponse(ref *store.Reference) referenceResponse {
	return referenceResponse{
		ID:         ref.ID,
		Name:       ref.Name,
		Source:     ref.Source,
		FrameCount: ref.FrameCount,
		DurationMs: ref.DurationMs,
		FPS:        ref.FPS,
		CreatedAt:  ref.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  ref.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/references and returns all references.
func (h *ReferenceHandler) list(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.References().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list references")
		return
	}

	response := listReferencesResponse{
		References: make([]referenceResponse, 0, len(refs)),
	}

	for _, ref := range refs {
		response.References = append(response.References, toReferenceResponse(ref))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/references/{id} and returns a single reference.
// With ?frames=true the per-frame pose records are included, which lets
// a sequence round-trip through the API without the source video.
func (h *ReferenceHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	ref, err := h.store.References().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get reference")
		return
	}

	response := toReferenceResponse(ref)

	if r.URL.Query().Get("frames") == "true" {
		frames, err := h.store.References().Frames(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load reference frames")
			return
		}
		response.Frames = frames
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/references. The request either names a video
// to process or carries a frame sequence to import.
func (h *ReferenceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Source == "" && len(req.Frames) == 0 {
		writeError(w, http.StatusBadRequest, "Either source or frames is required")
		return
	}
	if req.Source != "" && len(req.Frames) > 0 {
		writeError(w, http.StatusBadRequest, "Source and frames are mutually exclusive")
		return
	}

	// Reject duplicate names up front for a friendlier error than the
	// UNIQUE constraint failure.
	if _, err := h.store.References().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Reference with this name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check reference name")
		return
	}

	records := req.Frames
	if req.Source != "" {
		if h.processor == nil {
			writeError(w, http.StatusServiceUnavailable, "Video processing not available")
			return
		}
		seq, err := h.processor.ProcessVideo(req.Source, nil)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to process video: "+err.Error())
			return
		}
		records = seq.Records()
	}

	// Build the sequence once to validate the records before persisting.
	seq, err := reference.FromRecords(records)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid frame sequence: "+err.Error())
		return
	}

	ref := &store.Reference{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Source:     req.Source,
		DurationMs: seq.DurationMs(),
		FPS:        sequenceFPS(seq),
	}

	if err := h.store.References().Create(ref, records); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create reference")
		return
	}

	writeJSON(w, http.StatusCreated, toReferenceResponse(ref))
}

// delete handles DELETE /api/references/{id} and removes a reference
// with its frames.
func (h *ReferenceHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.References().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete reference")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sequenceFPS derives the effective frame rate from the sequence span.
func sequenceFPS(seq *reference.Sequence) float64 {
	if seq.Len() < 2 || seq.DurationMs() <= 0 {
		return 0
	}
	return float64(seq.Len()-1) * 1000 / float64(seq.DurationMs())
}
