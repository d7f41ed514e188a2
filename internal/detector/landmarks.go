// Package detector provides body pose detection interfaces and types for dance scoring.
package detector

import "math"

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// Point3D represents a detected landmark position. Coordinates are
// normalized to [0,1] relative to the frame dimensions; Visibility is
// the detector's confidence in [0,1] that the landmark is present and
// unoccluded.
type Point3D struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Pose represents one detected body configuration: the 33 body landmarks
// of the MediaPipe Pose topology, a capture timestamp in milliseconds,
// and the source frame index where known. The landmark count is fixed;
// a pose never carries a partial point set (low-confidence landmarks
// carry low Visibility instead).
type Pose struct {
	Points      [NumLandmarks]Point3D `json:"points"`
	TimestampMs int64                 `json:"timestamp_ms"`
	FrameIndex  int                   `json:"frame_index"`
}

// Distance calculates the Euclidean distance between two landmark
// positions. Visibility does not contribute.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
