package session

import (
	"sort"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
	"github.com/seanbenoit06/dancetrainer/internal/feature"
)

// Segment is a stretch of consecutive below-threshold frames, the raw
// material for coaching feedback.
type Segment struct {
	StartMs  int64
	EndMs    int64
	Frames   int
	MinScore float64
	AvgScore float64

	// JointErrors holds the worst observed deviation per joint across
	// the segment, worst first.
	JointErrors []compare.JointDiff
}

// segmentTracker folds per-frame results into problem segments. A
// segment opens on the first below-threshold frame and closes on the
// next frame that clears the threshold, or when the session ends.
type segmentTracker struct {
	open     bool
	current  Segment
	scoreSum float64
	worst    map[feature.Joint]compare.JointDiff
	segments []Segment
}

func (t *segmentTracker) observe(res compare.Result) {
	if !res.BelowThreshold {
		t.closeOpen()
		return
	}

	if !t.open {
		t.open = true
		t.current = Segment{
			StartMs:  res.TimestampMs,
			MinScore: res.CombinedScore,
		}
		t.scoreSum = 0
		t.worst = make(map[feature.Joint]compare.JointDiff)
	}

	t.current.EndMs = res.TimestampMs
	t.current.Frames++
	t.scoreSum += res.CombinedScore
	if res.CombinedScore < t.current.MinScore {
		t.current.MinScore = res.CombinedScore
	}

	for _, je := range res.JointErrors {
		if cur, ok := t.worst[je.Joint]; !ok || je.Difference > cur.Difference {
			t.worst[je.Joint] = je
		}
	}
}

func (t *segmentTracker) closeOpen() {
	if !t.open {
		return
	}

	t.current.AvgScore = t.scoreSum / float64(t.current.Frames)

	errs := make([]compare.JointDiff, 0, len(t.worst))
	for _, je := range t.worst {
		errs = append(errs, je)
	}
	sort.Slice(errs, func(i, j int) bool {
		return errs[i].Difference > errs[j].Difference
	})
	t.current.JointErrors = errs

	t.segments = append(t.segments, t.current)
	t.open = false
}

// finish closes any open segment and returns everything collected.
func (t *segmentTracker) finish() []Segment {
	t.closeOpen()
	return t.segments
}
