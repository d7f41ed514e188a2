package compare

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

// dtwCalibration converts a path-normalized alignment cost into a
// similarity: score = max(0, 1 - cost/dtwCalibration). With landmark
// coordinates normalized to [0,1], a per-step cost at or above this
// constant reads as zero similarity.
const dtwCalibration = 2.5

// DTWDistance calculates the Dynamic Time Warping distance between two
// coordinate-vector series. Returns infinity if either series is empty.
// The distance is normalized by the longer series length, the minimum
// possible warping path length.
func DTWDistance(a, b [][]float64) float64 {
	n := len(a)
	m := len(b)

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	dtw := dtwMatrix(a, b)
	return dtw[n][m] / float64(max(n, m))
}

// dtwMatrix fills the (n+1) x (m+1) cumulative cost matrix for the two
// series using the standard three-neighbor recurrence. Cell cost is the
// Euclidean distance between coordinate vectors.
func dtwMatrix(a, b [][]float64) [][]float64 {
	n := len(a)
	m := len(b)

	// Initialize to infinity with the zero-length alignment at 0
	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := floats.Distance(a[i-1], b[j-1], 2)
			dtw[i][j] = cost + min(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return dtw
}

// dtwSimilarity maps a normalized alignment cost to a score in [0,1].
func dtwSimilarity(cost float64) float64 {
	if math.IsInf(cost, 1) {
		return 0
	}
	score := 1 - cost/dtwCalibration
	if score < 0 {
		return 0
	}
	return score
}

// alignWindow aligns the live series against the reference frames in
// [start, end) and returns the similarity plus the absolute index of
// the window frame best aligned with the newest live pose. The
// similarity reads the full-window alignment cost; the best index reads
// the cheapest normalized open-end alignment in the final matrix row,
// ties breaking to the lowest frame index.
func alignWindow(live [][]float64, seq *reference.Sequence, start, end int) (float64, int) {
	if len(live) == 0 || end <= start {
		return 0, start
	}

	window := make([][]float64, 0, end-start)
	for i := start; i < end; i++ {
		window = append(window, seq.Frame(i).Coords)
	}

	n := len(live)
	m := len(window)
	dtw := dtwMatrix(live, window)

	score := dtwSimilarity(dtw[n][m] / float64(max(n, m)))

	bestJ := 1
	bestCost := math.Inf(1)
	for j := 1; j <= m; j++ {
		c := dtw[n][j] / float64(max(n, j))
		if c < bestCost {
			bestCost = c
			bestJ = j
		}
	}

	return score, start + bestJ - 1
}
