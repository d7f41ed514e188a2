package api

import (
	"net/http"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
)

// PresetsHandler serves the named engine configuration presets.
type PresetsHandler struct{}

// NewPresetsHandler creates a PresetsHandler.
func NewPresetsHandler() *PresetsHandler {
	return &PresetsHandler{}
}

// ServeHTTP handles GET /api/presets.
func (h *PresetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	presets := compare.Presets()

	response := listPresetsResponse{
		Presets: make(map[string]configResponse, len(presets)),
	}
	for name, cfg := range presets {
		response.Presets[name] = toConfigResponse(cfg)
	}

	writeJSON(w, http.StatusOK, response)
}

type listPresetsResponse struct {
	Presets map[string]configResponse `json:"presets"`
}

// configResponse is the wire form of an engine configuration.
type configResponse struct {
	PoseWeight            float64 `json:"pose_weight"`
	MotionWeight          float64 `json:"motion_weight"`
	DTWEnabled            bool    `json:"dtw_enabled"`
	SmoothingWindow       int     `json:"smoothing_window"`
	DTWWindow             int     `json:"dtw_window"`
	DTWInterval           int     `json:"dtw_interval"`
	BufferSize            int     `json:"buffer_size"`
	MinMotionFrames       int     `json:"min_motion_frames"`
	MinScoreThreshold     float64 `json:"min_score_threshold"`
	AngleDiffThreshold    float64 `json:"angle_diff_threshold"`
	PositionDiffThreshold float64 `json:"position_diff_threshold"`
}

func toConfigResponse(cfg compare.Config) configResponse {
	return configResponse{
		PoseWeight:            cfg.PoseWeight,
		MotionWeight:          cfg.MotionWeight,
		DTWEnabled:            cfg.DTWEnabled,
		SmoothingWindow:       cfg.SmoothingWindow,
		DTWWindow:             cfg.DTWWindow,
		DTWInterval:           cfg.DTWInterval,
		BufferSize:            cfg.BufferSize,
		MinMotionFrames:       cfg.MinMotionFrames,
		MinScoreThreshold:     cfg.MinScoreThreshold,
		AngleDiffThreshold:    cfg.AngleDiffThreshold,
		PositionDiffThreshold: cfg.PositionDiffThreshold,
	}
}

// configPayload carries partial engine configuration overrides. Only
// the fields present in the request are applied.
type configPayload struct {
	PoseWeight            *float64 `json:"pose_weight,omitempty"`
	MotionWeight          *float64 `json:"motion_weight,omitempty"`
	DTWEnabled            *bool    `json:"dtw_enabled,omitempty"`
	SmoothingWindow       *int     `json:"smoothing_window,omitempty"`
	DTWWindow             *int     `json:"dtw_window,omitempty"`
	DTWInterval           *int     `json:"dtw_interval,omitempty"`
	BufferSize            *int     `json:"buffer_size,omitempty"`
	MinMotionFrames       *int     `json:"min_motion_frames,omitempty"`
	MinScoreThreshold     *float64 `json:"min_score_threshold,omitempty"`
	AngleDiffThreshold    *float64 `json:"angle_diff_threshold,omitempty"`
	PositionDiffThreshold *float64 `json:"position_diff_threshold,omitempty"`
}

// apply copies the fields set in the payload onto cfg.
func (p *configPayload) apply(cfg *compare.Config) {
	if p.PoseWeight != nil {
		cfg.PoseWeight = *p.PoseWeight
	}
	if p.MotionWeight != nil {
		cfg.MotionWeight = *p.MotionWeight
	}
	if p.DTWEnabled != nil {
		cfg.DTWEnabled = *p.DTWEnabled
	}
	if p.SmoothingWindow != nil {
		cfg.SmoothingWindow = *p.SmoothingWindow
	}
	if p.DTWWindow != nil {
		cfg.DTWWindow = *p.DTWWindow
	}
	if p.DTWInterval != nil {
		cfg.DTWInterval = *p.DTWInterval
	}
	if p.BufferSize != nil {
		cfg.BufferSize = *p.BufferSize
	}
	if p.MinMotionFrames != nil {
		cfg.MinMotionFrames = *p.MinMotionFrames
	}
	if p.MinScoreThreshold != nil {
		cfg.MinScoreThreshold = *p.MinScoreThreshold
	}
	if p.AngleDiffThreshold != nil {
		cfg.AngleDiffThreshold = *p.AngleDiffThreshold
	}
	if p.PositionDiffThreshold != nil {
		cfg.PositionDiffThreshold = *p.PositionDiffThreshold
	}
}
