package compare

import (
	"github.com/seanbenoit06/dancetrainer/internal/feature"
)

// JointDiff describes one joint whose live angle deviates from the
// reference beyond the configured threshold. Angles are in degrees.
type JointDiff struct {
	Joint      feature.Joint
	Expected   float64
	Actual     float64
	Difference float64
}

// LandmarkDiff describes one key landmark displaced from its reference
// position beyond the configured threshold. Distance is in normalized
// image coordinates.
type LandmarkDiff struct {
	Landmark feature.KeyLandmark
	Expected [3]float64
	Actual   [3]float64
	Distance float64
}

// Result is the outcome of scoring one live pose against the loaded
// reference sequence.
type Result struct {
	// CombinedScore blends pose and motion scores per the configured
	// weights, in [0,1].
	CombinedScore float64

	// PoseScore is the smoothed static angle similarity against the
	// best-matching reference frame, in [0,1].
	PoseScore float64

	// MotionScore is the DTW similarity contribution to the combined
	// score. Zero whenever MotionActive is false.
	MotionScore float64

	// DTWScore is the raw similarity from the most recent DTW run,
	// held between runs. Zero before the first run completes.
	DTWScore float64

	// BestMatchIndex is the reference frame the live pose was scored
	// against.
	BestMatchIndex int

	// MotionActive reports whether the motion term entered the
	// combined score. False while DTW is disabled or has not yet run.
	MotionActive bool

	// BelowThreshold reports whether the combined score fell under the
	// configured minimum.
	BelowThreshold bool

	// JointErrors lists joints deviating beyond the angle threshold,
	// worst first.
	JointErrors []JointDiff

	// LandmarkErrors lists key landmarks displaced beyond the position
	// threshold, worst first.
	LandmarkErrors []LandmarkDiff

	// TimestampMs is the live pose timestamp the result refers to.
	TimestampMs int64
}
