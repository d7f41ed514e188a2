package compare

import (
	"math"

	"github.com/seanbenoit06/dancetrainer/internal/feature"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

// StaticScore compares one live angle set against one reference angle
// set and returns a similarity in [0,1]. Each jointly present joint
// contributes its angular difference normalized by 180 degrees; joints
// absent on either side are excluded, not penalized. With no jointly
// present joints the score is 0: similarity cannot be asserted from no
// data.
func StaticScore(live, ref feature.AngleSet) float64 {
	var sum float64
	overlap := 0

	for j := feature.Joint(0); j < feature.JointCount; j++ {
		if !live.Present[j] || !ref.Present[j] {
			continue
		}

		diff := math.Abs(live.Angles[j]-ref.Angles[j]) / 180
		if diff > 1 {
			diff = 1
		}
		sum += diff
		overlap++
	}

	if overlap == 0 {
		return 0
	}
	return 1 - sum/float64(overlap)
}

// angleDiffSum returns the summed absolute angular difference in
// degrees over jointly present joints, plus the overlap count.
func angleDiffSum(live, ref feature.AngleSet) (float64, int) {
	var sum float64
	overlap := 0

	for j := feature.Joint(0); j < feature.JointCount; j++ {
		if !live.Present[j] || !ref.Present[j] {
			continue
		}
		sum += math.Abs(live.Angles[j] - ref.Angles[j])
		overlap++
	}

	return sum, overlap
}

// bestStaticMatch returns the index of the reference frame within
// [start, end) that minimizes the summed angular difference to the live
// angle set. Ties break to the lowest frame index. Frames with no
// jointly present joints rank below any frame with overlap; when no
// frame has overlap the window start is returned.
func bestStaticMatch(live feature.AngleSet, seq *reference.Sequence, start, end int) int {
	best := start
	bestSum := math.Inf(1)
	bestOverlap := 0

	for i := start; i < end; i++ {
		sum, overlap := angleDiffSum(live, seq.Frame(i).Angles)
		if overlap == 0 {
			continue
		}
		if bestOverlap == 0 || sum < bestSum {
			best = i
			bestSum = sum
			bestOverlap = overlap
		}
	}

	return best
}
