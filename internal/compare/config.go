package compare

import (
	"errors"
	"fmt"
	"math"
)

// WeightTolerance is the allowed deviation of PoseWeight+MotionWeight
// from 1.0.
const WeightTolerance = 1e-3

var (
	// ErrNoReference is returned by Update when no reference sequence
	// has been loaded. The engine instance stays usable.
	ErrNoReference = errors.New("no reference loaded")

	// ErrInvalidConfig marks a configuration rejected by Validate.
	// A rejected configuration is never applied.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config controls how live poses are scored against the reference.
// It is a value object: the engine publishes the active configuration
// through a single pointer swap and never mutates one in place, so an
// in-flight update works from exactly one snapshot.
type Config struct {
	// PoseWeight and MotionWeight blend the static and motion scores
	// into the combined score. They must sum to 1.0 within
	// WeightTolerance.
	PoseWeight   float64
	MotionWeight float64

	// DTWEnabled toggles motion scoring. When false the combined score
	// is pose-only.
	DTWEnabled bool

	// SmoothingWindow is the number of recent pose scores averaged to
	// damp per-frame jitter. 1 disables smoothing.
	SmoothingWindow int

	// DTWWindow is how many consecutive reference frames each
	// alignment searches, centered on the current best match.
	DTWWindow int

	// DTWInterval runs the motion scorer every Nth update; between
	// runs the previous motion score is held.
	DTWInterval int

	// BufferSize caps the live pose buffer.
	BufferSize int

	// MinMotionFrames is the minimum number of buffered poses before
	// the motion scorer produces a score instead of reporting cold
	// start.
	MinMotionFrames int

	// MinScoreThreshold marks an update as a problem frame when the
	// combined score falls below it.
	MinScoreThreshold float64

	// AngleDiffThreshold is the angular deviation in degrees beyond
	// which a joint is reported as a joint error.
	AngleDiffThreshold float64

	// PositionDiffThreshold is the normalized displacement beyond
	// which a key landmark is reported as a position error.
	PositionDiffThreshold float64
}

// DefaultConfig returns the configuration used when a session does not
// choose a preset.
func DefaultConfig() Config {
	return Config{
		PoseWeight:            0.6,
		MotionWeight:          0.4,
		DTWEnabled:            true,
		SmoothingWindow:       5,
		DTWWindow:             45,
		DTWInterval:           10,
		BufferSize:            60,
		MinMotionFrames:       15,
		MinScoreThreshold:     0.7,
		AngleDiffThreshold:    20,
		PositionDiffThreshold: 0.12,
	}
}

// Validate reports whether the configuration is usable. All errors wrap
// ErrInvalidConfig.
func (c Config) Validate() error {
	if c.PoseWeight < 0 || c.MotionWeight < 0 {
		return fmt.Errorf("%w: weights must be non-negative", ErrInvalidConfig)
	}
	if sum := c.PoseWeight + c.MotionWeight; math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: pose and motion weights sum to %.3f, want 1.0", ErrInvalidConfig, sum)
	}
	if c.SmoothingWindow <= 0 {
		return fmt.Errorf("%w: smoothing window must be positive, got %d", ErrInvalidConfig, c.SmoothingWindow)
	}
	if c.DTWWindow <= 0 {
		return fmt.Errorf("%w: dtw window must be positive, got %d", ErrInvalidConfig, c.DTWWindow)
	}
	if c.DTWInterval <= 0 {
		return fmt.Errorf("%w: dtw interval must be positive, got %d", ErrInvalidConfig, c.DTWInterval)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.MinMotionFrames <= 0 {
		return fmt.Errorf("%w: min motion frames must be positive, got %d", ErrInvalidConfig, c.MinMotionFrames)
	}
	if c.MinScoreThreshold < 0 || c.MinScoreThreshold > 1 {
		return fmt.Errorf("%w: min score threshold must be in [0,1], got %f", ErrInvalidConfig, c.MinScoreThreshold)
	}
	if c.AngleDiffThreshold < 0 {
		return fmt.Errorf("%w: angle difference threshold must be non-negative, got %f", ErrInvalidConfig, c.AngleDiffThreshold)
	}
	if c.PositionDiffThreshold < 0 {
		return fmt.Errorf("%w: position difference threshold must be non-negative, got %f", ErrInvalidConfig, c.PositionDiffThreshold)
	}
	return nil
}
