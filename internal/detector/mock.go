package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	poses []Pose
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPoses sets the poses that will be returned by Detect.
func (m *MockDetector) SetPoses(poses []Pose) {
	m.poses = poses
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured poses or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Pose, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.poses, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// TPoseLandmarks returns a preset Pose for a subject standing in a
// T-pose: arms horizontal, legs straight, facing the camera.
func TPoseLandmarks() Pose {
	var p Pose

	// Head
	p.Points[Nose] = Point3D{X: 0.50, Y: 0.14}
	p.Points[LeftEyeInner] = Point3D{X: 0.52, Y: 0.12}
	p.Points[LeftEye] = Point3D{X: 0.53, Y: 0.12}
	p.Points[LeftEyeOuter] = Point3D{X: 0.54, Y: 0.12}
	p.Points[RightEyeInner] = Point3D{X: 0.48, Y: 0.12}
	p.Points[RightEye] = Point3D{X: 0.47, Y: 0.12}
	p.Points[RightEyeOuter] = Point3D{X: 0.46, Y: 0.12}
	p.Points[LeftEar] = Point3D{X: 0.56, Y: 0.13}
	p.Points[RightEar] = Point3D{X: 0.44, Y: 0.13}
	p.Points[MouthLeft] = Point3D{X: 0.52, Y: 0.17}
	p.Points[MouthRight] = Point3D{X: 0.48, Y: 0.17}

	// Arms straight out to the sides
	p.Points[LeftShoulder] = Point3D{X: 0.58, Y: 0.25}
	p.Points[RightShoulder] = Point3D{X: 0.42, Y: 0.25}
	p.Points[LeftElbow] = Point3D{X: 0.70, Y: 0.25}
	p.Points[RightElbow] = Point3D{X: 0.30, Y: 0.25}
	p.Points[LeftWrist] = Point3D{X: 0.82, Y: 0.25}
	p.Points[RightWrist] = Point3D{X: 0.18, Y: 0.25}
	p.Points[LeftPinky] = Point3D{X: 0.85, Y: 0.26}
	p.Points[RightPinky] = Point3D{X: 0.15, Y: 0.26}
	p.Points[LeftIndex] = Point3D{X: 0.85, Y: 0.24}
	p.Points[RightIndex] = Point3D{X: 0.15, Y: 0.24}
	p.Points[LeftThumb] = Point3D{X: 0.84, Y: 0.24}
	p.Points[RightThumb] = Point3D{X: 0.16, Y: 0.24}

	// Torso and legs straight down
	p.Points[LeftHip] = Point3D{X: 0.55, Y: 0.52}
	p.Points[RightHip] = Point3D{X: 0.45, Y: 0.52}
	p.Points[LeftKnee] = Point3D{X: 0.55, Y: 0.70}
	p.Points[RightKnee] = Point3D{X: 0.45, Y: 0.70}
	p.Points[LeftAnkle] = Point3D{X: 0.55, Y: 0.88}
	p.Points[RightAnkle] = Point3D{X: 0.45, Y: 0.88}
	p.Points[LeftHeel] = Point3D{X: 0.55, Y: 0.91}
	p.Points[RightHeel] = Point3D{X: 0.45, Y: 0.91}
	p.Points[LeftFootIndex] = Point3D{X: 0.58, Y: 0.93}
	p.Points[RightFootIndex] = Point3D{X: 0.42, Y: 0.93}

	// All landmarks fully visible in the fixture
	for i := range p.Points {
		p.Points[i].Visibility = 0.98
	}

	return p
}

// ArmsRaisedLandmarks returns a preset Pose with both arms raised
// overhead in a V shape, legs straight.
func ArmsRaisedLandmarks() Pose {
	p := TPoseLandmarks()

	p.Points[LeftElbow] = Point3D{X: 0.66, Y: 0.14, Visibility: 0.98}
	p.Points[RightElbow] = Point3D{X: 0.34, Y: 0.14, Visibility: 0.98}
	p.Points[LeftWrist] = Point3D{X: 0.72, Y: 0.04, Visibility: 0.98}
	p.Points[RightWrist] = Point3D{X: 0.28, Y: 0.04, Visibility: 0.98}
	p.Points[LeftPinky] = Point3D{X: 0.74, Y: 0.02, Visibility: 0.98}
	p.Points[RightPinky] = Point3D{X: 0.26, Y: 0.02, Visibility: 0.98}
	p.Points[LeftIndex] = Point3D{X: 0.73, Y: 0.01, Visibility: 0.98}
	p.Points[RightIndex] = Point3D{X: 0.27, Y: 0.01, Visibility: 0.98}
	p.Points[LeftThumb] = Point3D{X: 0.72, Y: 0.02, Visibility: 0.98}
	p.Points[RightThumb] = Point3D{X: 0.28, Y: 0.02, Visibility: 0.98}

	return p
}

// CrouchLandmarks returns a preset Pose for a crouched subject:
// hips dropped, knees bent forward, arms bent down at the sides.
func CrouchLandmarks() Pose {
	p := TPoseLandmarks()

	// Head and torso sit lower
	for _, i := range []int{
		Nose,
		LeftEyeInner, LeftEye, LeftEyeOuter,
		RightEyeInner, RightEye, RightEyeOuter,
		LeftEar, RightEar, MouthLeft, MouthRight,
	} {
		p.Points[i].Y += 0.06
	}
	p.Points[LeftShoulder] = Point3D{X: 0.58, Y: 0.30, Visibility: 0.98}
	p.Points[RightShoulder] = Point3D{X: 0.42, Y: 0.30, Visibility: 0.98}

	// Arms bent down
	p.Points[LeftElbow] = Point3D{X: 0.62, Y: 0.40, Visibility: 0.98}
	p.Points[RightElbow] = Point3D{X: 0.38, Y: 0.40, Visibility: 0.98}
	p.Points[LeftWrist] = Point3D{X: 0.60, Y: 0.50, Visibility: 0.98}
	p.Points[RightWrist] = Point3D{X: 0.40, Y: 0.50, Visibility: 0.98}
	p.Points[LeftPinky] = Point3D{X: 0.60, Y: 0.53, Visibility: 0.98}
	p.Points[RightPinky] = Point3D{X: 0.40, Y: 0.53, Visibility: 0.98}
	p.Points[LeftIndex] = Point3D{X: 0.59, Y: 0.53, Visibility: 0.98}
	p.Points[RightIndex] = Point3D{X: 0.41, Y: 0.53, Visibility: 0.98}
	p.Points[LeftThumb] = Point3D{X: 0.59, Y: 0.52, Visibility: 0.98}
	p.Points[RightThumb] = Point3D{X: 0.41, Y: 0.52, Visibility: 0.98}

	// Hips dropped, knees bent forward
	p.Points[LeftHip] = Point3D{X: 0.55, Y: 0.62, Visibility: 0.98}
	p.Points[RightHip] = Point3D{X: 0.45, Y: 0.62, Visibility: 0.98}
	p.Points[LeftKnee] = Point3D{X: 0.62, Y: 0.70, Visibility: 0.98}
	p.Points[RightKnee] = Point3D{X: 0.38, Y: 0.70, Visibility: 0.98}
	p.Points[LeftAnkle] = Point3D{X: 0.57, Y: 0.88, Visibility: 0.98}
	p.Points[RightAnkle] = Point3D{X: 0.43, Y: 0.88, Visibility: 0.98}
	p.Points[LeftHeel] = Point3D{X: 0.57, Y: 0.91, Visibility: 0.98}
	p.Points[RightHeel] = Point3D{X: 0.43, Y: 0.91, Visibility: 0.98}
	p.Points[LeftFootIndex] = Point3D{X: 0.60, Y: 0.93, Visibility: 0.98}
	p.Points[RightFootIndex] = Point3D{X: 0.40, Y: 0.93, Visibility: 0.98}

	return p
}
