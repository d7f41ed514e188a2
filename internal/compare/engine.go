// Package compare scores live body poses against a reference dance
// sequence. A static scorer grades joint angles frame by frame while a
// DTW motion scorer periodically realigns the recent pose history
// against the reference timeline; the two blend into a combined score
// under configurable weights.
package compare

import (
	"math"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"

	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/feature"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

// cadence fires once every interval calls to tick.
type cadence struct {
	count int
}

func (c *cadence) tick(interval int) bool {
	c.count++
	return c.count%interval == 0
}

func (c *cadence) reset() {
	c.count = 0
}

// Engine scores live poses against a loaded reference sequence.
//
// Update and LoadReference must be serialized by the caller; a session
// owns its engine and does exactly that. UpdateConfig and Config are
// safe from any goroutine, so tuning can land mid-run without pausing
// the scoring loop.
type Engine struct {
	config atomic.Pointer[Config]

	ref       *reference.Sequence
	buffer    *Buffer
	bestMatch int
	dtwGate   cadence
	dtwRan    bool
	lastDTW   float64
	poseHist  []float64
}

// New creates an engine with the given configuration. The engine holds
// no reference sequence until LoadReference is called.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		buffer:    NewBuffer(cfg.BufferSize),
		bestMatch: -1,
	}
	e.config.Store(&cfg)
	return e, nil
}

// LoadReference replaces the reference sequence and discards all
// per-run state: the live buffer, the best-match position, the
// smoothing history and any previous motion alignment.
func (e *Engine) LoadReference(seq *reference.Sequence) error {
	if seq == nil || seq.Len() == 0 {
		return reference.ErrEmptySequence
	}

	e.ref = seq
	e.buffer.Reset()
	e.bestMatch = -1
	e.dtwGate.reset()
	e.dtwRan = false
	e.lastDTW = 0
	e.poseHist = e.poseHist[:0]
	return nil
}

// UpdateConfig validates and atomically swaps the configuration. On
// validation failure the previous configuration stays in effect.
func (e *Engine) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config.Store(&cfg)
	return nil
}

// Config returns the currently active configuration.
func (e *Engine) Config() Config {
	return *e.config.Load()
}

// Ready reports whether a reference sequence is loaded.
func (e *Engine) Ready() bool {
	return e.ref != nil
}

// Reference returns the loaded reference sequence, or nil.
func (e *Engine) Reference() *reference.Sequence {
	return e.ref
}

// BufferLen returns the number of live poses currently buffered.
func (e *Engine) BufferLen() int {
	return e.buffer.Len()
}

// Update scores one live pose against the reference. Returns
// ErrNoReference, with no state change, when no sequence is loaded.
func (e *Engine) Update(pose detector.Pose) (Result, error) {
	if e.ref == nil {
		return Result{}, ErrNoReference
	}

	cfg := *e.config.Load()
	e.buffer.Recap(cfg.BufferSize)

	coords := feature.Flatten(pose)
	e.buffer.Push(pose, coords)

	angles, landmarks := feature.Extract(pose)

	// Locate the reference frame to score against. The first update
	// searches the whole sequence; after that DTW runs move the match
	// and, with DTW off, a windowed static search tracks it instead.
	if e.bestMatch < 0 {
		e.bestMatch = bestStaticMatch(angles, e.ref, 0, e.ref.Len())
	} else if !cfg.DTWEnabled {
		start, end := e.window(cfg.DTWWindow)
		e.bestMatch = bestStaticMatch(angles, e.ref, start, end)
	}

	// Periodically realign the buffered motion against the reference.
	if cfg.DTWEnabled && e.dtwGate.tick(cfg.DTWInterval) && e.buffer.Len() >= cfg.MinMotionFrames {
		start, end := e.window(cfg.DTWWindow)
		score, idx := alignWindow(e.buffer.CoordSeries(), e.ref, start, end)
		e.lastDTW = score
		e.dtwRan = true
		e.bestMatch = idx
	}

	refFrame := e.ref.Frame(e.bestMatch)

	poseScore := e.smooth(StaticScore(angles, refFrame.Angles), cfg.SmoothingWindow)

	motionActive := cfg.DTWEnabled && e.dtwRan
	motionScore := 0.0
	if motionActive {
		motionScore = e.lastDTW
	}

	combined := combineScores(cfg, poseScore, motionScore, motionActive)

	return Result{
		CombinedScore:  combined,
		PoseScore:      poseScore,
		MotionScore:    motionScore,
		DTWScore:       e.lastDTW,
		BestMatchIndex: e.bestMatch,
		MotionActive:   motionActive,
		BelowThreshold: combined < cfg.MinScoreThreshold,
		JointErrors:    jointErrors(angles, refFrame.Angles, cfg.AngleDiffThreshold),
		LandmarkErrors: landmarkErrors(landmarks, refFrame.Landmarks, cfg.PositionDiffThreshold),
		TimestampMs:    pose.TimestampMs,
	}, nil
}

// window returns the half-open reference range of width w centered on
// the current best match, clamped to the sequence bounds.
func (e *Engine) window(w int) (int, int) {
	n := e.ref.Len()
	if w >= n {
		return 0, n
	}

	start := e.bestMatch - w/2
	if start < 0 {
		start = 0
	}
	end := start + w
	if end > n {
		end = n
		start = end - w
	}
	return start, end
}

// smooth records a raw static score and returns the moving average over
// the most recent window scores.
func (e *Engine) smooth(raw float64, window int) float64 {
	e.poseHist = append(e.poseHist, raw)
	if len(e.poseHist) > window {
		e.poseHist = e.poseHist[len(e.poseHist)-window:]
	}
	return stat.Mean(e.poseHist, nil)
}

// combineScores blends the pose and motion scores per the configured
// weights. While the motion term is inactive its weight shifts onto the
// pose term so the combined score keeps its full scale.
func combineScores(cfg Config, poseScore, motionScore float64, motionActive bool) float64 {
	var combined float64
	if motionActive {
		combined = cfg.PoseWeight*poseScore + cfg.MotionWeight*motionScore
	} else {
		combined = (cfg.PoseWeight + cfg.MotionWeight) * poseScore
	}
	return clamp01(combined)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// jointErrors lists joints measurable in both poses whose angles differ
// by more than threshold degrees, worst first.
func jointErrors(live, ref feature.AngleSet, threshold float64) []JointDiff {
	var diffs []JointDiff
	for j := feature.Joint(0); j < feature.JointCount; j++ {
		liveAngle, ok := live.Angle(j)
		if !ok {
			continue
		}
		refAngle, ok := ref.Angle(j)
		if !ok {
			continue
		}
		d := math.Abs(liveAngle - refAngle)
		if d <= threshold {
			continue
		}
		diffs = append(diffs, JointDiff{
			Joint:      j,
			Expected:   refAngle,
			Actual:     liveAngle,
			Difference: d,
		})
	}
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Difference > diffs[j].Difference
	})
	return diffs
}

// landmarkErrors lists key landmarks visible in both poses displaced by
// more than threshold in normalized coordinates, worst first.
func landmarkErrors(live, ref feature.LandmarkSet, threshold float64) []LandmarkDiff {
	var diffs []LandmarkDiff
	for k := feature.KeyLandmark(0); k < feature.KeyLandmarkCount; k++ {
		livePt, ok := live.Point(k)
		if !ok {
			continue
		}
		refPt, ok := ref.Point(k)
		if !ok {
			continue
		}
		d := detector.Distance(livePt, refPt)
		if d <= threshold {
			continue
		}
		diffs = append(diffs, LandmarkDiff{
			Landmark: k,
			Expected: [3]float64{refPt.X, refPt.Y, refPt.Z},
			Actual:   [3]float64{livePt.X, livePt.Y, livePt.Z},
			Distance: d,
		})
	}
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Distance > diffs[j].Distance
	})
	return diffs
}
