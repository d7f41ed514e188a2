package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"gocv.io/x/gocv"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/feedback"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
	"github.com/seanbenoit06/dancetrainer/internal/session"
	"github.com/seanbenoit06/dancetrainer/internal/store"
)

// SessionHandlerConfig holds the collaborators of a SessionHandler.
// Everything past Store and Sessions is optional.
type SessionHandlerConfig struct {
	Store    *store.Store
	Sessions *session.Manager
	Feedback *feedback.Generator
	Detector detector.Detector
	// Publish forwards each scoring result to live subscribers.
	Publish func(sessionID string, payload any)
	// BindCamera points the camera pipeline at a session; UnbindCamera
	// releases it when the session ends. Nil means no camera.
	BindCamera   func(sessionID string)
	UnbindCamera func(sessionID string)
}

// SessionHandler handles HTTP requests for practice session resources.
type SessionHandler struct {
	cfg SessionHandlerConfig
}

// NewSessionHandler creates a SessionHandler with the given collaborators.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	return &SessionHandler{cfg: cfg}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id} and
	// /api/sessions/{id}/{poses|end|config}
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
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

	parts := strings.SplitN(path, "/", 2)
	id := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r, id)
		return
	}

	switch parts[1] {
	case "poses":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.poses(w, r, id)
	case "end":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.end(w, r, id)
	case "config":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.updateConfig(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

// Request and response types

type createSessionRequest struct {
	ReferenceID string         `json:"reference_id"`
	Preset      string         `json:"preset,omitempty"`
	Config      *configPayload `json:"config,omitempty"`
	// UseCamera binds the camera pipeline to the new session, so poses
	// come from the webcam instead of POSTs to the poses endpoint.
	UseCamera bool `json:"use_camera,omitempty"`
}

type ingestPoseRequest struct {
	// Landmarks carries one full-body pose directly.
	Landmarks []detector.Point3D `json:"landmarks,omitempty"`
	// Image carries a base64-encoded JPEG snapshot to run through the
	// pose detector instead.
	Image       string `json:"image,omitempty"`
	TimestampMs int64  `json:"timestamp_ms,omitempty"`
}

type updateConfigRequest struct {
	Preset string         `json:"preset,omitempty"`
	Config *configPayload `json:"config,omitempty"`
}

type sessionResponse struct {
	ID          string         `json:"id"`
	ReferenceID string         `json:"reference_id"`
	Preset      string         `json:"preset,omitempty"`
	Ended       bool           `json:"ended"`
	Frames      int            `json:"frames"`
	ElapsedMs   int64          `json:"elapsed_ms"`
	BufferFill  int            `json:"buffer_fill"`
	LastResult  *ResultPayload `json:"last_result,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type endSessionResponse struct {
	Summary  summaryPayload  `json:"summary"`
	Feedback []feedback.Item `json:"feedback"`
}

type summaryPayload struct {
	SessionID   string           `json:"session_id"`
	ReferenceID string           `json:"reference_id"`
	Preset      string           `json:"preset,omitempty"`
	Frames      int              `json:"frames"`
	DurationMs  int64            `json:"duration_ms"`
	AvgScore    float64          `json:"avg_score"`
	MinScore    float64          `json:"min_score"`
	MaxScore    float64          `json:"max_score"`
	ScoreStdDev float64          `json:"score_std_dev"`
	Segments    []segmentPayload `json:"segments,omitempty"`
}

type segmentPayload struct {
	StartMs     int64               `json:"start_ms"`
	EndMs       int64               `json:"end_ms"`
	Frames      int                 `json:"frames"`
	MinScore    float64             `json:"min_score"`
	AvgScore    float64             `json:"avg_score"`
	JointErrors []JointErrorPayload `json:"joint_errors,omitempty"`
}

// ResultPayload is the wire form of one scoring result. The pose ingest
// endpoint returns it and the live WebSocket stream broadcasts it.
type ResultPayload struct {
	SessionID      string                 `json:"session_id"`
	CombinedScore  float64                `json:"combined_score"`
	PoseScore      float64                `json:"pose_score"`
	MotionScore    float64                `json:"motion_score"`
	DTWScore       float64                `json:"dtw_score"`
	BestMatchIndex int                    `json:"best_match_index"`
	MotionActive   bool                   `json:"motion_active"`
	BelowThreshold bool                   `json:"below_threshold"`
	JointErrors    []JointErrorPayload    `json:"joint_errors,omitempty"`
	LandmarkErrors []LandmarkErrorPayload `json:"landmark_errors,omitempty"`
	TimestampMs    int64                  `json:"timestamp_ms"`
}

// JointErrorPayload is the wire form of one joint angle deviation.
type JointErrorPayload struct {
	Joint      string  `json:"joint"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Difference float64 `json:"difference"`
}

// LandmarkErrorPayload is the wire form of one landmark position deviation.
type LandmarkErrorPayload struct {
	Landmark string     `json:"landmark"`
	Expected [3]float64 `json:"expected"`
	Actual   [3]float64 `json:"actual"`
	Distance float64    `json:"distance"`
}

// NewResultPayload converts a scoring result into its wire form.
func NewResultPayload(sessionID string, res compare.Result) ResultPayload {
	payload := ResultPayload{
		SessionID:      sessionID,
		CombinedScore:  res.CombinedScore,
		PoseScore:      res.PoseScore,
		MotionScore:    res.MotionScore,
		DTWScore:       res.DTWScore,
		BestMatchIndex: res.BestMatchIndex,
		MotionActive:   res.MotionActive,
		BelowThreshold: res.BelowThreshold,
		TimestampMs:    res.TimestampMs,
	}

	for _, je := range res.JointErrors {
		payload.JointErrors = append(payload.JointErrors, JointErrorPayload{
			Joint:      je.Joint.String(),
			Expected:   je.Expected,
			Actual:     je.Actual,
			Difference: je.Difference,
		})
	}
	for _, le := range res.LandmarkErrors {
		payload.LandmarkErrors = append(payload.LandmarkErrors, LandmarkErrorPayload{
			Landmark: le.Landmark.String(),
			Expected: le.Expected,
			Actual:   le.Actual,
			Distance: le.Distance,
		})
	}

	return payload
}

func toSessionResponse(st session.Status) sessionResponse {
	resp := sessionResponse{
		ID:          st.SessionID,
		ReferenceID: st.ReferenceID,
		Preset:      st.Preset,
		Ended:       st.Ended,
		Frames:      st.Frames,
		ElapsedMs:   st.ElapsedMs,
		BufferFill:  st.BufferFill,
	}
	if st.Last != nil {
		p := NewResultPayload(st.SessionID, *st.Last)
		resp.LastResult = &p
	}
	return resp
}

func toSummaryPayload(sum session.Summary) summaryPayload {
	payload := summaryPayload{
		SessionID:   sum.SessionID,
		ReferenceID: sum.ReferenceID,
		Preset:      sum.Preset,
		Frames:      sum.Frames,
		DurationMs:  sum.DurationMs,
		AvgScore:    sum.AvgScore,
		MinScore:    sum.MinScore,
		MaxScore:    sum.MaxScore,
		ScoreStdDev: sum.ScoreStdDev,
	}
	for _, seg := range sum.Segments {
		sp := segmentPayload{
			StartMs:  seg.StartMs,
			EndMs:    seg.EndMs,
			Frames:   seg.Frames,
			MinScore: seg.MinScore,
			AvgScore: seg.AvgScore,
		}
		for _, je := range seg.JointErrors {
			sp.JointErrors = append(sp.JointErrors, JointErrorPayload{
				Joint:      je.Joint.String(),
				Expected:   je.Expected,
				Actual:     je.Actual,
				Difference: je.Difference,
			})
		}
		payload.Segments = append(payload.Segments, sp)
	}
	return payload
}

// list handles GET /api/sessions and returns all live sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions := h.cfg.Sessions.List()

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, sess := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(sess.Status()))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id} and returns the session status.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.cfg.Sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess.Status()))
}

// create handles POST /api/sessions and starts a session against a
// stored reference.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.ReferenceID == "" {
		writeError(w, http.StatusBadRequest, "reference_id is required")
		return
	}
	if req.UseCamera && h.cfg.BindCamera == nil {
		writeError(w, http.StatusServiceUnavailable, "Camera not available")
		return
	}

	cfg := compare.DefaultConfig()
	if req.Preset != "" {
		preset, ok := compare.Preset(req.Preset)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown preset")
			return
		}
		cfg = preset
	}
	if req.Config != nil {
		req.Config.apply(&cfg)
	}

	ref, err := h.cfg.Store.References().GetByID(req.ReferenceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Reference not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get reference")
		return
	}

	records, err := h.cfg.Store.References().Frames(ref.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load reference frames")
		return
	}

	seq, err := reference.FromRecords(records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to rebuild reference sequence")
		return
	}

	sess, err := h.cfg.Sessions.Create(ref.ID, req.Preset, seq, cfg)
	if err != nil {
		if errors.Is(err, compare.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	cfgJSON, _ := json.Marshal(toConfigResponse(cfg))
	row := &store.Session{
		ID:          sess.ID,
		ReferenceID: ref.ID,
		Preset:      req.Preset,
		Config:      cfgJSON,
	}
	if err := h.cfg.Store.Sessions().Create(row); err != nil {
		h.cfg.Sessions.End(sess.ID)
		writeError(w, http.StatusInternalServerError, "Failed to persist session")
		return
	}

	if req.UseCamera {
		h.cfg.BindCamera(sess.ID)
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(sess.Status()))
}

// poses handles POST /api/sessions/{id}/poses: one pose in, one scoring
// result out.
func (h *SessionHandler) poses(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.cfg.Sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req ingestPoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var pose detector.Pose
	switch {
	case len(req.Landmarks) > 0:
		if len(req.Landmarks) != detector.NumLandmarks {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Expected %d landmarks, got %d", detector.NumLandmarks, len(req.Landmarks)))
			return
		}
		copy(pose.Points[:], req.Landmarks)

	case req.Image != "":
		detected, ok := h.detectSnapshot(w, req.Image)
		if !ok {
			return
		}
		pose = detected

	default:
		writeError(w, http.StatusBadRequest, "Either landmarks or image is required")
		return
	}

	pose.TimestampMs = req.TimestampMs

	res, err := sess.ProcessPose(pose)
	if err != nil {
		if errors.Is(err, session.ErrSessionEnded) {
			writeError(w, http.StatusConflict, "Session already ended")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to process pose")
		return
	}

	payload := NewResultPayload(id, res)
	if h.cfg.Publish != nil {
		h.cfg.Publish(id, payload)
	}

	writeJSON(w, http.StatusOK, payload)
}

// detectSnapshot decodes a base64 JPEG and runs it through the pose
// detector. It writes the error response itself when something fails.
func (h *SessionHandler) detectSnapshot(w http.ResponseWriter, image string) (detector.Pose, bool) {
	if h.cfg.Detector == nil {
		writeError(w, http.StatusServiceUnavailable, "Pose detection not available")
		return detector.Pose{}, false
	}

	data, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid base64 image")
		return detector.Pose{}, false
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || mat.Empty() {
		writeError(w, http.StatusBadRequest, "Failed to decode image")
		return detector.Pose{}, false
	}
	defer mat.Close()

	poses, err := h.cfg.Detector.Detect(&mat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Pose detection failed")
		return detector.Pose{}, false
	}
	if len(poses) == 0 {
		writeError(w, http.StatusBadRequest, "No pose detected in snapshot")
		return detector.Pose{}, false
	}

	return poses[0], true
}

// end handles POST /api/sessions/{id}/end: closes the session, generates
// feedback and persists both.
func (h *SessionHandler) end(w http.ResponseWriter, r *http.Request, id string) {
	summary, err := h.cfg.Sessions.End(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to end session")
		return
	}

	if h.cfg.UnbindCamera != nil {
		h.cfg.UnbindCamera(id)
	}

	var items []feedback.Item
	if h.cfg.Feedback != nil {
		items = h.cfg.Feedback.Generate(r.Context(), summary)
	}

	// The summary is already final; persistence failures must not eat it.
	if err := h.cfg.Store.Sessions().Finish(id, summary.Frames, summary.AvgScore, summary.MinScore, summary.MaxScore); err != nil {
		log.Printf("failed to persist session %s: %v", id, err)
	}
	if len(items) > 0 {
		rows := make([]store.FeedbackItem, 0, len(items))
		for _, item := range items {
			rows = append(rows, store.FeedbackItem{
				SessionID: id,
				Title:     item.Title,
				Body:      item.Body,
				Severity:  item.Severity,
				StartMs:   item.StartMs,
				EndMs:     item.EndMs,
				Accuracy:  item.Accuracy,
			})
		}
		if err := h.cfg.Store.Sessions().SaveFeedback(id, rows); err != nil {
			log.Printf("failed to persist feedback for session %s: %v", id, err)
		}
	}

	if items == nil {
		items = []feedback.Item{}
	}

	writeJSON(w, http.StatusOK, endSessionResponse{
		Summary:  toSummaryPayload(summary),
		Feedback: items,
	})
}

// updateConfig handles PUT /api/sessions/{id}/config: applies a preset
// or explicit overrides to the running engine. A rejected configuration
// leaves the previous one in effect.
func (h *SessionHandler) updateConfig(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.cfg.Sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cfg := sess.Config()
	if req.Preset != "" {
		preset, ok := compare.Preset(req.Preset)
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown preset")
			return
		}
		cfg = preset
	}
	if req.Config != nil {
		req.Config.apply(&cfg)
	}

	if err := sess.UpdateConfig(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toConfigResponse(sess.Config()))
}
