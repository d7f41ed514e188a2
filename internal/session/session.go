// Package session runs live scoring sessions: each session owns a
// comparison engine, accumulates score history and problem segments,
// and produces a summary when it ends.
package session

import (
	"errors"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

var (
	// ErrSessionNotFound is returned when the requested session does
	// not exist or has already ended.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned for operations on an ended session.
	ErrSessionEnded = errors.New("session already ended")
)

// Session scores a live pose stream against one reference sequence.
// All methods are safe for concurrent use.
type Session struct {
	ID          string
	ReferenceID string
	Preset      string

	mu         sync.Mutex
	engine     *compare.Engine
	startedAt  time.Time
	lastActive time.Time
	ended      bool
	frames     int
	scores     []float64
	last       *compare.Result
	tracker    segmentTracker
}

// Status is a point-in-time view of a running session.
type Status struct {
	SessionID   string
	ReferenceID string
	Preset      string
	Ended       bool
	Frames      int
	ElapsedMs   int64
	BufferFill  int

	// Last is the most recent scoring result, nil before the first
	// processed pose.
	Last *compare.Result
}

// Summary is the final account of a finished session.
type Summary struct {
	SessionID   string
	ReferenceID string
	Preset      string
	Frames      int
	DurationMs  int64
	AvgScore    float64
	MinScore    float64
	MaxScore    float64
	ScoreStdDev float64
	Segments    []Segment
}

// New creates a session scoring against the given sequence.
func New(id, referenceID, preset string, seq *reference.Sequence, cfg compare.Config) (*Session, error) {
	engine, err := compare.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := engine.LoadReference(seq); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:          id,
		ReferenceID: referenceID,
		Preset:      preset,
		engine:      engine,
		startedAt:   now,
		lastActive:  now,
	}, nil
}

// ProcessPose scores one live pose and folds the result into the
// session history.
func (s *Session) ProcessPose(pose detector.Pose) (compare.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return compare.Result{}, ErrSessionEnded
	}

	if pose.TimestampMs == 0 {
		pose.TimestampMs = time.Since(s.startedAt).Milliseconds()
	}

	res, err := s.engine.Update(pose)
	if err != nil {
		return compare.Result{}, err
	}

	s.frames++
	s.scores = append(s.scores, res.CombinedScore)
	s.last = &res
	s.tracker.observe(res)
	s.lastActive = time.Now()

	return res, nil
}

// LastActive returns when the session last processed a pose, or its
// start time before the first pose.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Status reports the current state of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		SessionID:   s.ID,
		ReferenceID: s.ReferenceID,
		Preset:      s.Preset,
		Ended:       s.ended,
		Frames:      s.frames,
		ElapsedMs:   time.Since(s.startedAt).Milliseconds(),
		BufferFill:  s.engine.BufferLen(),
		Last:        s.last,
	}
}

// UpdateConfig swaps the engine configuration mid-session. A rejected
// configuration leaves the previous one in effect.
func (s *Session) UpdateConfig(cfg compare.Config) error {
	return s.engine.UpdateConfig(cfg)
}

// Config returns the active engine configuration.
func (s *Session) Config() compare.Config {
	return s.engine.Config()
}

// End closes the session and returns its summary. Ending twice returns
// ErrSessionEnded.
func (s *Session) End() (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return Summary{}, ErrSessionEnded
	}
	s.ended = true

	summary := Summary{
		SessionID:   s.ID,
		ReferenceID: s.ReferenceID,
		Preset:      s.Preset,
		Frames:      s.frames,
		DurationMs:  time.Since(s.startedAt).Milliseconds(),
		Segments:    s.tracker.finish(),
	}

	if len(s.scores) > 0 {
		summary.AvgScore = stat.Mean(s.scores, nil)
		summary.MinScore = floats.Min(s.scores)
		summary.MaxScore = floats.Max(s.scores)
	}
	// StdDev needs at least two samples to be defined
	if len(s.scores) > 1 {
		summary.ScoreStdDev = stat.StdDev(s.scores, nil)
	}

	return summary, nil
}
