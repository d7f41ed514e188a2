// Package feature derives joint angles and key landmark positions from
// detected poses. Extraction is pure: it performs no I/O and never
// fails, reporting joints it cannot measure as absent.
package feature

import (
	"math"

	"github.com/seanbenoit06/dancetrainer/internal/detector"
)

// VisibilityThreshold is the minimum landmark visibility required for a
// measurement. A joint whose defining landmarks fall below it is marked
// absent rather than estimated.
const VisibilityThreshold = 0.5

// Joint identifies one named body joint in the closed angle vocabulary.
type Joint int

const (
	LeftElbow Joint = iota
	RightElbow
	LeftShoulder
	RightShoulder
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	// JointCount is the size of the vocabulary, not a valid Joint.
	JointCount
)

var jointNames = [JointCount]string{
	"left_elbow",
	"right_elbow",
	"left_shoulder",
	"right_shoulder",
	"left_hip",
	"right_hip",
	"left_knee",
	"right_knee",
}

var jointDisplayNames = [JointCount]string{
	"Left Elbow",
	"Right Elbow",
	"Left Shoulder",
	"Right Shoulder",
	"Left Hip",
	"Right Hip",
	"Left Knee",
	"Right Knee",
}

// String returns the snake_case joint name used in wire and store formats.
func (j Joint) String() string {
	if j < 0 || j >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// DisplayName returns the human-readable joint name, e.g. "Left Elbow".
func (j Joint) DisplayName() string {
	if j < 0 || j >= JointCount {
		return "Unknown"
	}
	return jointDisplayNames[j]
}

// jointTriples maps each joint to the (proximal, vertex, distal)
// landmark indices whose vertex angle defines it.
var jointTriples = [JointCount][3]int{
	LeftElbow:     {detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist},
	RightElbow:    {detector.RightShoulder, detector.RightElbow, detector.RightWrist},
	LeftShoulder:  {detector.LeftElbow, detector.LeftShoulder, detector.LeftHip},
	RightShoulder: {detector.RightElbow, detector.RightShoulder, detector.RightHip},
	LeftHip:       {detector.LeftShoulder, detector.LeftHip, detector.LeftKnee},
	RightHip:      {detector.RightShoulder, detector.RightHip, detector.RightKnee},
	LeftKnee:      {detector.LeftHip, detector.LeftKnee, detector.LeftAnkle},
	RightKnee:     {detector.RightHip, detector.RightKnee, detector.RightAnkle},
}

// AngleSet holds the angle in degrees for every joint in the
// vocabulary. Presence is tracked explicitly per entry: an absent joint
// (insufficient visibility or degenerate geometry) never reads as zero
// degrees.
type AngleSet struct {
	Angles  [JointCount]float64
	Present [JointCount]bool
}

// Angle returns the angle for j in degrees and whether it is present.
func (s AngleSet) Angle(j Joint) (float64, bool) {
	if j < 0 || j >= JointCount {
		return 0, false
	}
	return s.Angles[j], s.Present[j]
}

// PresentCount returns how many joints in the set have a defined angle.
func (s AngleSet) PresentCount() int {
	n := 0
	for _, p := range s.Present {
		if p {
			n++
		}
	}
	return n
}

// Extract computes the joint angles and key landmark positions for one
// pose. Joints whose landmarks are insufficiently visible, and key
// landmarks below the visibility threshold, are marked absent.
func Extract(p detector.Pose) (AngleSet, LandmarkSet) {
	var angles AngleSet
	for j := Joint(0); j < JointCount; j++ {
		tri := jointTriples[j]
		prox := p.Points[tri[0]]
		vertex := p.Points[tri[1]]
		dist := p.Points[tri[2]]

		if prox.Visibility < VisibilityThreshold ||
			vertex.Visibility < VisibilityThreshold ||
			dist.Visibility < VisibilityThreshold {
			continue
		}

		if deg, ok := vertexAngle(prox, vertex, dist); ok {
			angles.Angles[j] = deg
			angles.Present[j] = true
		}
	}

	var landmarks LandmarkSet
	for k := KeyLandmark(0); k < KeyLandmarkCount; k++ {
		pt := p.Points[keyLandmarkIndices[k]]
		if pt.Visibility < VisibilityThreshold {
			continue
		}
		landmarks.Points[k] = pt
		landmarks.Present[k] = true
	}

	return angles, landmarks
}

// vertexAngle returns the angle in degrees at vertex between the
// vectors toward prox and dist. The cosine argument is clamped to
// [-1, 1] to absorb floating point overshoot. Degenerate geometry
// (a zero-length limb vector) yields ok=false.
func vertexAngle(prox, vertex, dist detector.Point3D) (float64, bool) {
	ux := prox.X - vertex.X
	uy := prox.Y - vertex.Y
	uz := prox.Z - vertex.Z
	vx := dist.X - vertex.X
	vy := dist.Y - vertex.Y
	vz := dist.Z - vertex.Z

	uLen := math.Sqrt(ux*ux + uy*uy + uz*uz)
	vLen := math.Sqrt(vx*vx + vy*vy + vz*vz)
	if uLen < 1e-10 || vLen < 1e-10 {
		return 0, false
	}

	cos := (ux*vx + uy*vy + uz*vz) / (uLen * vLen)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}

	return math.Acos(cos) * 180 / math.Pi, true
}
