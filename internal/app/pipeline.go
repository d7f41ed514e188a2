package app

import (
	"errors"
	"log"
	"time"

	"github.com/seanbenoit06/dancetrainer/internal/capture"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/server/api"
	"github.com/seanbenoit06/dancetrainer/internal/session"
)

// runPipeline is the capture loop. It reads frames from the camera,
// watches for activity to pick the frame rate, and scores detected
// poses against the bound session.
//
// Rate switching:
//  1. Start at the idle rate.
//  2. On detected activity, raise to the active rate.
//  3. After IdleTimeoutMs without activity, drop back to idle.
func (a *App) runPipeline(stopCh chan struct{}) {
	activeMode := false
	lastActivity := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(capture.IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			active, _ := a.activity.Detect(frame)
			if active {
				lastActivity = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(capture.ActiveFPS)
					ticker.Reset(time.Second / time.Duration(capture.ActiveFPS))
					log.Println("Switched to active capture rate")
				}
			} else if activeMode {
				if time.Since(lastActivity) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(capture.IdleFPS)
					ticker.Reset(time.Second / time.Duration(capture.IdleFPS))
					log.Println("Switched to idle capture rate")
				}
			}

			// Pose detection only pays off when a session is listening.
			boundID := a.BoundSession()
			det := a.Detector()
			if boundID == "" || det == nil {
				frame.Close()
				continue
			}

			poses, err := det.Detect(frame)
			frame.Close()

			if err != nil {
				log.Printf("Error detecting poses: %v", err)
				continue
			}
			if len(poses) == 0 {
				continue
			}

			a.scorePose(boundID, poses[0])
		}
	}
}

// scorePose feeds one pose into the bound session and publishes the
// result. A vanished or ended session unbinds the camera.
func (a *App) scorePose(id string, pose detector.Pose) {
	sess, err := a.config.Sessions.Get(id)
	if err != nil {
		a.UnbindSession()
		return
	}

	// The session clock owns practice timestamps; the detector stamps
	// wall-clock time, which would skew the segment boundaries.
	pose.TimestampMs = 0

	res, err := sess.ProcessPose(pose)
	if err != nil {
		if errors.Is(err, session.ErrSessionEnded) {
			a.UnbindSession()
		}
		return
	}

	if a.config.Publish != nil {
		a.config.Publish(id, api.NewResultPayload(id, res))
	}
}
