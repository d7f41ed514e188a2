package feature

import "github.com/seanbenoit06/dancetrainer/internal/detector"

// KeyLandmark identifies one semantically named landmark retained for
// position comparison and feedback.
type KeyLandmark int

const (
	KeyNose KeyLandmark = iota
	KeyLeftShoulder
	KeyRightShoulder
	KeyLeftElbow
	KeyRightElbow
	KeyLeftWrist
	KeyRightWrist
	KeyLeftHip
	KeyRightHip
	KeyLeftKnee
	KeyRightKnee
	KeyLeftAnkle
	KeyRightAnkle
	// KeyLandmarkCount is the size of the vocabulary, not a valid KeyLandmark.
	KeyLandmarkCount
)

var keyLandmarkNames = [KeyLandmarkCount]string{
	"nose",
	"left_shoulder",
	"right_shoulder",
	"left_elbow",
	"right_elbow",
	"left_wrist",
	"right_wrist",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
	"left_ankle",
	"right_ankle",
}

// keyLandmarkIndices maps each key landmark to its detector index.
var keyLandmarkIndices = [KeyLandmarkCount]int{
	KeyNose:          detector.Nose,
	KeyLeftShoulder:  detector.LeftShoulder,
	KeyRightShoulder: detector.RightShoulder,
	KeyLeftElbow:     detector.LeftElbow,
	KeyRightElbow:    detector.RightElbow,
	KeyLeftWrist:     detector.LeftWrist,
	KeyRightWrist:    detector.RightWrist,
	KeyLeftHip:       detector.LeftHip,
	KeyRightHip:      detector.RightHip,
	KeyLeftKnee:      detector.LeftKnee,
	KeyRightKnee:     detector.RightKnee,
	KeyLeftAnkle:     detector.LeftAnkle,
	KeyRightAnkle:    detector.RightAnkle,
}

// String returns the snake_case landmark name.
func (k KeyLandmark) String() string {
	if k < 0 || k >= KeyLandmarkCount {
		return "unknown"
	}
	return keyLandmarkNames[k]
}

// LandmarkSet holds the position of every key landmark with explicit
// per-entry presence, mirroring AngleSet.
type LandmarkSet struct {
	Points  [KeyLandmarkCount]detector.Point3D
	Present [KeyLandmarkCount]bool
}

// Point returns the position for k and whether it is present.
func (s LandmarkSet) Point(k KeyLandmark) (detector.Point3D, bool) {
	if k < 0 || k >= KeyLandmarkCount {
		return detector.Point3D{}, false
	}
	return s.Points[k], s.Present[k]
}

// Flatten returns the pose's coordinates as one flat vector
// [x0, y0, z0, x1, y1, z1, ...] for motion distance computations.
// Visibility is not included.
func Flatten(p detector.Pose) []float64 {
	v := make([]float64, 0, 3*detector.NumLandmarks)
	for _, pt := range p.Points {
		v = append(v, pt.X, pt.Y, pt.Z)
	}
	return v
}
