package feature

import (
	"math"
	"testing"

	"github.com/seanbenoit06/dancetrainer/internal/detector"
)

const epsilon = 1e-6

func TestVertexAngle(t *testing.T) {
	vis := func(x, y float64) detector.Point3D {
		return detector.Point3D{X: x, Y: y, Visibility: 1.0}
	}

	tests := []struct {
		name   string
		prox   detector.Point3D
		vertex detector.Point3D
		dist   detector.Point3D
		want   float64
		ok     bool
	}{
		{
			name:   "right angle",
			prox:   vis(0.5, 0.3),
			vertex: vis(0.5, 0.5),
			dist:   vis(0.7, 0.5),
			want:   90,
			ok:     true,
		},
		{
			name:   "straight limb",
			prox:   vis(0.3, 0.5),
			vertex: vis(0.5, 0.5),
			dist:   vis(0.7, 0.5),
			want:   180,
			ok:     true,
		},
		{
			name:   "fully folded",
			prox:   vis(0.7, 0.5),
			vertex: vis(0.5, 0.5),
			dist:   vis(0.7, 0.5),
			want:   0,
			ok:     true,
		},
		{
			name:   "forty five degrees",
			prox:   vis(0.5, 0.3),
			vertex: vis(0.5, 0.5),
			dist:   vis(0.6, 0.4),
			want:   45,
			ok:     true,
		},
		{
			name:   "degenerate proximal",
			prox:   vis(0.5, 0.5),
			vertex: vis(0.5, 0.5),
			dist:   vis(0.7, 0.5),
			ok:     false,
		},
		{
			name:   "degenerate distal",
			prox:   vis(0.3, 0.5),
			vertex: vis(0.5, 0.5),
			dist:   vis(0.5, 0.5),
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := vertexAngle(tt.prox, tt.vertex, tt.dist)

			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && math.Abs(got-tt.want) > epsilon {
				t.Errorf("expected angle %f, got %f", tt.want, got)
			}
		})
	}
}

func TestVertexAngle_ClampsCosine(t *testing.T) {
	// Collinear points whose dot product can overshoot |1| in floating
	// point must still produce a defined angle, not NaN.
	prox := detector.Point3D{X: 0.1, Y: 0.1, Z: 0.1, Visibility: 1}
	vertex := detector.Point3D{X: 0.2, Y: 0.2, Z: 0.2, Visibility: 1}
	dist := detector.Point3D{X: 0.3, Y: 0.3, Z: 0.3, Visibility: 1}

	got, ok := vertexAngle(prox, vertex, dist)

	if !ok {
		t.Fatal("expected a defined angle for collinear points")
	}
	if math.IsNaN(got) {
		t.Fatal("angle is NaN, cosine was not clamped")
	}
	if math.Abs(got-180) > epsilon {
		t.Errorf("expected angle 180, got %f", got)
	}
}

func TestExtract(t *testing.T) {
	t.Run("straight limbs in T-pose", func(t *testing.T) {
		angles, _ := Extract(detector.TPoseLandmarks())

		for _, j := range []Joint{LeftElbow, RightElbow, LeftKnee, RightKnee} {
			got, ok := angles.Angle(j)
			if !ok {
				t.Fatalf("expected %s present", j)
			}
			if math.Abs(got-180) > 0.001 {
				t.Errorf("expected %s angle 180, got %f", j, got)
			}
		}
	})

	t.Run("shoulders near right angle in T-pose", func(t *testing.T) {
		angles, _ := Extract(detector.TPoseLandmarks())

		for _, j := range []Joint{LeftShoulder, RightShoulder} {
			got, ok := angles.Angle(j)
			if !ok {
				t.Fatalf("expected %s present", j)
			}
			if got < 85 || got > 105 {
				t.Errorf("expected %s angle near 90, got %f", j, got)
			}
		}
	})

	t.Run("all joints present for a fully visible pose", func(t *testing.T) {
		angles, _ := Extract(detector.TPoseLandmarks())

		if n := angles.PresentCount(); n != int(JointCount) {
			t.Errorf("expected %d joints present, got %d", JointCount, n)
		}
	})

	t.Run("low visibility marks joint absent", func(t *testing.T) {
		pose := detector.TPoseLandmarks()
		pose.Points[detector.LeftWrist].Visibility = 0.3

		angles, _ := Extract(pose)

		if _, ok := angles.Angle(LeftElbow); ok {
			t.Error("expected left elbow absent when wrist is barely visible")
		}
		// Only the joint that depends on the wrist is affected
		if _, ok := angles.Angle(LeftShoulder); !ok {
			t.Error("expected left shoulder still present")
		}
		if n := angles.PresentCount(); n != int(JointCount)-1 {
			t.Errorf("expected %d joints present, got %d", int(JointCount)-1, n)
		}
	})

	t.Run("absent joint never reads as zero degrees", func(t *testing.T) {
		pose := detector.TPoseLandmarks()
		for i := range pose.Points {
			pose.Points[i].Visibility = 0.1
		}

		angles, _ := Extract(pose)

		for j := Joint(0); j < JointCount; j++ {
			if _, ok := angles.Angle(j); ok {
				t.Errorf("expected %s absent for an invisible pose", j)
			}
		}
		if n := angles.PresentCount(); n != 0 {
			t.Errorf("expected 0 joints present, got %d", n)
		}
	})

	t.Run("extraction is deterministic", func(t *testing.T) {
		pose := detector.CrouchLandmarks()

		a1, l1 := Extract(pose)
		a2, l2 := Extract(pose)

		if a1 != a2 {
			t.Error("expected identical angle sets for identical input")
		}
		if l1 != l2 {
			t.Error("expected identical landmark sets for identical input")
		}
	})
}

func TestJointNames(t *testing.T) {
	if got := LeftElbow.String(); got != "left_elbow" {
		t.Errorf("expected left_elbow, got %s", got)
	}
	if got := RightKnee.DisplayName(); got != "Right Knee" {
		t.Errorf("expected Right Knee, got %s", got)
	}
	if got := Joint(99).String(); got != "unknown" {
		t.Errorf("expected unknown for out-of-range joint, got %s", got)
	}
}
