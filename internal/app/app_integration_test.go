package app

import (
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/seanbenoit06/dancetrainer/internal/capture"
	"github.com/seanbenoit06/dancetrainer/internal/compare"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
	"github.com/seanbenoit06/dancetrainer/internal/server/api"
	"github.com/seanbenoit06/dancetrainer/internal/session"
)

func pipelineSequence(t *testing.T, n int) *reference.Sequence {
	t.Helper()

	poses := make([]detector.Pose, n)
	for i := range poses {
		poses[i] = detector.TPoseLandmarks()
		poses[i].TimestampMs = int64(i * 100)
	}

	seq, err := reference.New(poses)
	if err != nil {
		t.Fatalf("reference.New() error = %v", err)
	}
	return seq
}

func waitForFPS(cam capture.Camera, want int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cam.FPS() == want {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cam.FPS() == want
}

func TestApp_SessionBinding(t *testing.T) {
	a := New(Config{Sessions: session.NewManager()})

	if a.BoundSession() != "" {
		t.Errorf("bound session = %q, want empty before binding", a.BoundSession())
	}

	a.BindSession("sess-1")
	if a.BoundSession() != "sess-1" {
		t.Errorf("bound session = %q, want sess-1", a.BoundSession())
	}

	a.UnbindSession()
	if a.BoundSession() != "" {
		t.Errorf("bound session = %q, want empty after unbinding", a.BoundSession())
	}
}

func TestApp_Pipeline_ScoresBoundSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	mgr := session.NewManager()
	sess, err := mgr.Create("ref-1", "", pipelineSequence(t, 5), compare.DefaultConfig())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var mu sync.Mutex
	var published []api.ResultPayload

	a := New(Config{
		Sessions: mgr,
		Publish: func(sessionID string, payload any) {
			mu.Lock()
			defer mu.Unlock()
			if res, ok := payload.(api.ResultPayload); ok {
				published = append(published, res)
			}
		},
	})

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&frame}, true))

	mock := detector.NewMockDetector()
	mock.SetPoses([]detector.Pose{detector.TPoseLandmarks()})
	a.SetDetector(mock)

	a.BindSession(sess.ID)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for {
		mu.Lock()
		n := len(published)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for a published result")
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()

	got := published[0]
	if got.SessionID != sess.ID {
		t.Errorf("session id = %s, want %s", got.SessionID, sess.ID)
	}
	if got.CombinedScore < 0.99 {
		t.Errorf("combined score = %f, want ~1.0 for a matching pose", got.CombinedScore)
	}
	if sess.Status().Frames == 0 {
		t.Error("expected the session to have processed frames")
	}
}

func TestApp_Pipeline_RateSwitching(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	// Alternating frames look like constant activity
	cam := capture.NewMockCamera([]*gocv.Mat{&black, &white}, true)

	a := New(Config{Sessions: session.NewManager()})
	a.SetCamera(cam)
	a.SetDetector(detector.NewMockDetector())

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if !waitForFPS(cam, capture.ActiveFPS, 3*time.Second) {
		t.Fatalf("camera FPS = %d, want %d while active", cam.FPS(), capture.ActiveFPS)
	}

	// Freeze the scene; after the idle timeout the rate drops back
	cam.SetFrames([]*gocv.Mat{&black})
	if !waitForFPS(cam, capture.IdleFPS, 2*IdleTimeoutMs*time.Millisecond+2*time.Second) {
		t.Fatalf("camera FPS = %d, want %d after idle timeout", cam.FPS(), capture.IdleFPS)
	}
}

func TestApp_Pipeline_UnbindsEndedSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	mgr := session.NewManager()
	sess, err := mgr.Create("ref-1", "", pipelineSequence(t, 5), compare.DefaultConfig())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	a := New(Config{Sessions: mgr})

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&frame}, true))

	mock := detector.NewMockDetector()
	mock.SetPoses([]detector.Pose{detector.TPoseLandmarks()})
	a.SetDetector(mock)

	a.BindSession(sess.ID)

	if err := a.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if _, err := mgr.End(sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for a.BoundSession() != "" {
		if time.Now().After(deadline) {
			t.Fatal("pipeline did not unbind the ended session")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
