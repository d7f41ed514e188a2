package compare

import (
	"errors"
	"math"
	"testing"

	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

func tposeSequence(t *testing.T, n int) *reference.Sequence {
	t.Helper()
	poses := make([]detector.Pose, n)
	for i := range poses {
		poses[i] = detector.TPoseLandmarks()
		poses[i].TimestampMs = int64(i * 100)
		poses[i].FrameIndex = i
	}
	seq, err := reference.New(poses)
	if err != nil {
		t.Fatalf("failed to build reference sequence: %v", err)
	}
	return seq
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

func TestEngine_NewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MotionWeight = 0.5

	if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestEngine_UpdateWithoutReference(t *testing.T) {
	e := newEngine(t, DefaultConfig())

	_, err := e.Update(detector.TPoseLandmarks())
	if !errors.Is(err, ErrNoReference) {
		t.Fatalf("expected ErrNoReference, got %v", err)
	}

	// The failed update must not touch engine state
	if e.BufferLen() != 0 {
		t.Errorf("expected buffer untouched after rejected update, got %d entries", e.BufferLen())
	}
	if e.Ready() {
		t.Error("expected engine to stay not ready")
	}
}

func TestEngine_SelfSimilarity(t *testing.T) {
	// Scoring a pose against a reference of the same pose gives a
	// perfect score; on the first update the motion term is cold, so
	// its weight shifts onto the pose term.
	e := newEngine(t, DefaultConfig())
	if err := e.LoadReference(tposeSequence(t, 5)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	res, err := e.Update(detector.TPoseLandmarks())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if math.Abs(res.PoseScore-1.0) > 1e-9 {
		t.Errorf("expected pose score 1.0, got %f", res.PoseScore)
	}
	if math.Abs(res.CombinedScore-1.0) > 1e-9 {
		t.Errorf("expected combined score 1.0, got %f", res.CombinedScore)
	}
	if res.MotionActive {
		t.Error("expected motion term inactive on first update")
	}
	if res.DTWScore != 0 {
		t.Errorf("expected dtw score 0 before the first alignment, got %f", res.DTWScore)
	}
	if res.BestMatchIndex != 0 {
		t.Errorf("expected best match 0, got %d", res.BestMatchIndex)
	}
	if len(res.JointErrors) != 0 {
		t.Errorf("expected no joint errors for a perfect pose, got %d", len(res.JointErrors))
	}
}

func TestEngine_MotionActivation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DTWInterval = 2
	cfg.MinMotionFrames = 2

	e := newEngine(t, cfg)
	if err := e.LoadReference(tposeSequence(t, 10)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	// First update: the alignment cadence has not fired yet
	res, err := e.Update(detector.TPoseLandmarks())
	if err != nil {
		t.Fatalf("update 1 failed: %v", err)
	}
	if res.MotionActive {
		t.Error("expected motion inactive before the first alignment run")
	}

	// Second update: cadence fires with enough buffered frames
	res, err = e.Update(detector.TPoseLandmarks())
	if err != nil {
		t.Fatalf("update 2 failed: %v", err)
	}
	if !res.MotionActive {
		t.Fatal("expected motion active once the alignment has run")
	}
	if math.Abs(res.DTWScore-1.0) > 0.0001 {
		t.Errorf("expected perfect motion score for identical motion, got %f", res.DTWScore)
	}
	if math.Abs(res.CombinedScore-1.0) > 0.0001 {
		t.Errorf("expected combined score 1.0, got %f", res.CombinedScore)
	}
}

func TestEngine_MotionScoreHeldBetweenRuns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DTWInterval = 2
	cfg.MinMotionFrames = 2
	cfg.SmoothingWindow = 1

	e := newEngine(t, cfg)
	if err := e.LoadReference(tposeSequence(t, 10)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	// Updates 1-2: second one runs the alignment on identical motion
	e.Update(detector.TPoseLandmarks())
	res2, err := e.Update(detector.TPoseLandmarks())
	if err != nil {
		t.Fatalf("update 2 failed: %v", err)
	}

	// Update 3 is off-cadence: the previous motion score is held even
	// though the live pose changed
	res3, err := e.Update(detector.CrouchLandmarks())
	if err != nil {
		t.Fatalf("update 3 failed: %v", err)
	}
	if !res3.MotionActive {
		t.Error("expected motion to stay active between runs")
	}
	if res3.DTWScore != res2.DTWScore {
		t.Errorf("expected held motion score %f, got %f", res2.DTWScore, res3.DTWScore)
	}

	// Update 4 is on-cadence: the crouch frames drag the score down
	res4, err := e.Update(detector.CrouchLandmarks())
	if err != nil {
		t.Fatalf("update 4 failed: %v", err)
	}
	if res4.DTWScore >= res2.DTWScore {
		t.Errorf("expected realignment to lower the score, got %f (was %f)", res4.DTWScore, res2.DTWScore)
	}
}

func TestEngine_LoadReferenceResets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DTWInterval = 1
	cfg.MinMotionFrames = 1

	e := newEngine(t, cfg)
	if err := e.LoadReference(tposeSequence(t, 5)); err != nil {
		t.Fatalf("failed to load first reference: %v", err)
	}

	// Warm the engine up: motion active, buffer filled
	for i := 0; i < 4; i++ {
		if _, err := e.Update(detector.TPoseLandmarks()); err != nil {
			t.Fatalf("warmup update failed: %v", err)
		}
	}
	if e.BufferLen() == 0 {
		t.Fatal("expected warmed-up buffer")
	}

	if err := e.LoadReference(tposeSequence(t, 3)); err != nil {
		t.Fatalf("failed to load second reference: %v", err)
	}

	if e.BufferLen() != 0 {
		t.Errorf("expected empty buffer after reload, got %d", e.BufferLen())
	}
	if e.Reference().Len() != 3 {
		t.Errorf("expected new reference in place, got %d frames", e.Reference().Len())
	}
}

func TestEngine_LoadReferenceNil(t *testing.T) {
	e := newEngine(t, DefaultConfig())

	if err := e.LoadReference(nil); !errors.Is(err, reference.ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence for nil sequence, got %v", err)
	}
	if e.Ready() {
		t.Error("expected engine to stay not ready")
	}
}

func TestEngine_UpdateConfigRejected(t *testing.T) {
	e := newEngine(t, DefaultConfig())

	bad := DefaultConfig()
	bad.PoseWeight = 0.7
	bad.MotionWeight = 0.4

	err := e.UpdateConfig(bad)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	// The previous configuration stays in effect
	if got := e.Config().PoseWeight; got != 0.6 {
		t.Errorf("expected prior pose weight 0.6 to remain, got %f", got)
	}
}

func TestEngine_UpdateConfigApplied(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	if err := e.LoadReference(tposeSequence(t, 5)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	next := DefaultConfig()
	next.PoseWeight = 0.8
	next.MotionWeight = 0.2
	next.BufferSize = 3

	if err := e.UpdateConfig(next); err != nil {
		t.Fatalf("expected config update to succeed, got %v", err)
	}
	if got := e.Config().PoseWeight; got != 0.8 {
		t.Errorf("expected pose weight 0.8, got %f", got)
	}

	// The shrunk buffer size takes effect on the update path
	for i := 0; i < 6; i++ {
		if _, err := e.Update(detector.TPoseLandmarks()); err != nil {
			t.Fatalf("update failed: %v", err)
		}
	}
	if e.BufferLen() != 3 {
		t.Errorf("expected buffer capped at 3, got %d", e.BufferLen())
	}
}

func TestEngine_BelowThreshold(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	if err := e.LoadReference(tposeSequence(t, 3)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	// No measurable joints means no similarity can be asserted
	res, err := e.Update(invisiblePose())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if res.PoseScore != 0 {
		t.Errorf("expected pose score 0 with no joint overlap, got %f", res.PoseScore)
	}
	if res.CombinedScore != 0 {
		t.Errorf("expected combined score 0, got %f", res.CombinedScore)
	}
	if !res.BelowThreshold {
		t.Error("expected result to be flagged below threshold")
	}
	if len(res.JointErrors) != 0 {
		t.Errorf("expected no joint errors without overlap, got %d", len(res.JointErrors))
	}
}

func TestEngine_JointErrors(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	if err := e.LoadReference(tposeSequence(t, 3)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	// A crouch against a T pose reference bends knees and elbows well
	// past the default angle threshold
	res, err := e.Update(detector.CrouchLandmarks())
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if len(res.JointErrors) == 0 {
		t.Fatal("expected joint errors for a crouch against a T pose")
	}
	for i, je := range res.JointErrors {
		if je.Difference <= e.Config().AngleDiffThreshold {
			t.Errorf("joint error %d: difference %f not above threshold", i, je.Difference)
		}
		if i > 0 && je.Difference > res.JointErrors[i-1].Difference {
			t.Errorf("joint errors not sorted worst first at %d", i)
		}
		if math.Abs(je.Difference-math.Abs(je.Expected-je.Actual)) > 1e-9 {
			t.Errorf("joint error %d: difference inconsistent with expected/actual", i)
		}
	}

	if len(res.LandmarkErrors) == 0 {
		t.Fatal("expected landmark errors for a crouch against a T pose")
	}
	for i, le := range res.LandmarkErrors {
		if le.Distance <= e.Config().PositionDiffThreshold {
			t.Errorf("landmark error %d: distance %f not above threshold", i, le.Distance)
		}
		if i > 0 && le.Distance > res.LandmarkErrors[i-1].Distance {
			t.Errorf("landmark errors not sorted worst first at %d", i)
		}
	}
}

func TestEngine_CombinedScoreInRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DTWInterval = 2
	cfg.MinMotionFrames = 2

	e := newEngine(t, cfg)
	if err := e.LoadReference(tposeSequence(t, 8)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	poses := []detector.Pose{
		detector.TPoseLandmarks(),
		detector.CrouchLandmarks(),
		detector.ArmsRaisedLandmarks(),
		invisiblePose(),
		detector.TPoseLandmarks(),
		detector.CrouchLandmarks(),
	}

	for i, p := range poses {
		res, err := e.Update(p)
		if err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
		if res.CombinedScore < 0 || res.CombinedScore > 1 {
			t.Errorf("update %d: combined score %f out of [0,1]", i, res.CombinedScore)
		}
		if res.PoseScore < 0 || res.PoseScore > 1 {
			t.Errorf("update %d: pose score %f out of [0,1]", i, res.PoseScore)
		}
		if res.DTWScore < 0 || res.DTWScore > 1 {
			t.Errorf("update %d: dtw score %f out of [0,1]", i, res.DTWScore)
		}
	}
}

func TestEngine_Smoothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DTWEnabled = false
	cfg.PoseWeight = 1.0
	cfg.MotionWeight = 0.0
	cfg.SmoothingWindow = 2

	e := newEngine(t, cfg)
	if err := e.LoadReference(tposeSequence(t, 3)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	res1, err := e.Update(detector.CrouchLandmarks())
	if err != nil {
		t.Fatalf("update 1 failed: %v", err)
	}
	res2, err := e.Update(detector.TPoseLandmarks())
	if err != nil {
		t.Fatalf("update 2 failed: %v", err)
	}

	// Window of two: the perfect second frame averages with the first
	expected := (res1.PoseScore + 1.0) / 2
	if math.Abs(res2.PoseScore-expected) > 1e-9 {
		t.Errorf("expected smoothed score %f, got %f", expected, res2.PoseScore)
	}
	if res2.PoseScore >= 1.0 {
		t.Errorf("expected smoothing to hold the score below 1.0, got %f", res2.PoseScore)
	}
}

func TestCombineScores(t *testing.T) {
	cfg := Config{PoseWeight: 0.7, MotionWeight: 0.3}

	// Active motion term: weighted blend
	got := combineScores(cfg, 0.8, 0.4, true)
	if math.Abs(got-0.68) > 1e-9 {
		t.Errorf("expected combined 0.68, got %f", got)
	}

	// Inactive motion term: full weight shifts onto the pose score
	got = combineScores(cfg, 0.8, 0, false)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("expected redistributed combined 0.8, got %f", got)
	}

	// Clamped to [0,1]
	if got = combineScores(cfg, 1.5, 1.5, true); got != 1 {
		t.Errorf("expected clamp to 1, got %f", got)
	}
	if got = combineScores(cfg, -0.5, 0, false); got != 0 {
		t.Errorf("expected clamp to 0, got %f", got)
	}
}

func TestCadence(t *testing.T) {
	var c cadence

	fired := []int{}
	for i := 1; i <= 9; i++ {
		if c.tick(3) {
			fired = append(fired, i)
		}
	}

	want := []int{3, 6, 9}
	if len(fired) != len(want) {
		t.Fatalf("expected fires at %v, got %v", want, fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("expected fires at %v, got %v", want, fired)
		}
	}

	c.reset()
	if c.tick(3) {
		t.Error("expected no fire on first tick after reset")
	}
}

func TestEngine_Window(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	if err := e.LoadReference(tposeSequence(t, 10)); err != nil {
		t.Fatalf("failed to load reference: %v", err)
	}

	tests := []struct {
		name      string
		bestMatch int
		width     int
		wantStart int
		wantEnd   int
	}{
		{"centered", 5, 4, 3, 7},
		{"clamped at start", 0, 4, 0, 4},
		{"clamped at end", 9, 4, 6, 10},
		{"wider than sequence", 5, 20, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.bestMatch = tt.bestMatch
			start, end := e.window(tt.width)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("window(%d) with match %d = [%d,%d), expected [%d,%d)",
					tt.width, tt.bestMatch, start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
