package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
)

func TestPresetsHandler(t *testing.T) {
	h := NewPresetsHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/presets", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listPresetsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Presets, len(compare.Presets()))

	balanced, ok := resp.Presets["balanced"]
	require.True(t, ok)
	assert.InDelta(t, 1.0, balanced.PoseWeight+balanced.MotionWeight, 0.001)

	poseOnly, ok := resp.Presets["pose-only"]
	require.True(t, ok)
	assert.False(t, poseOnly.DTWEnabled)
}

func TestPresetsHandler_MethodNotAllowed(t *testing.T) {
	h := NewPresetsHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/presets", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConfigPayload_PartialApply(t *testing.T) {
	cfg := compare.DefaultConfig()

	pose, motion := 0.8, 0.2
	window := 7
	payload := configPayload{
		PoseWeight:      &pose,
		MotionWeight:    &motion,
		SmoothingWindow: &window,
	}
	payload.apply(&cfg)

	assert.InDelta(t, 0.8, cfg.PoseWeight, 0.001)
	assert.InDelta(t, 0.2, cfg.MotionWeight, 0.001)
	assert.Equal(t, 7, cfg.SmoothingWindow)

	// Untouched fields keep their defaults
	defaults := compare.DefaultConfig()
	assert.Equal(t, defaults.DTWWindow, cfg.DTWWindow)
	assert.Equal(t, defaults.BufferSize, cfg.BufferSize)
	assert.Equal(t, defaults.DTWEnabled, cfg.DTWEnabled)
}
