// Package reference builds and holds the prerecorded pose sequences
// that live performances are scored against.
package reference

import (
	"errors"
	"fmt"

	"github.com/seanbenoit06/dancetrainer/internal/detector"
	"github.com/seanbenoit06/dancetrainer/internal/feature"
)

// ErrEmptySequence indicates a sequence with no usable frames.
var ErrEmptySequence = errors.New("reference sequence has no frames")

// Frame is one prerecorded reference pose with its features computed
// once at sequence build time.
type Frame struct {
	Pose        detector.Pose
	Angles      feature.AngleSet
	Landmarks   feature.LandmarkSet
	Coords      []float64
	TimestampMs int64
	Index       int
}

// Sequence is an ordered, immutable series of reference frames sorted
// by timestamp ascending. A sequence is never mutated after
// construction, so one instance can safely back any number of
// concurrent scoring sessions; reloading always allocates a new one.
type Sequence struct {
	frames []Frame
}

// New builds a Sequence from poses ordered by capture time, extracting
// angles, key landmarks and flattened coordinates for each frame.
// Fails on an empty input or on timestamps that go backwards; both
// indicate corrupted reference data.
func New(poses []detector.Pose) (*Sequence, error) {
	if len(poses) == 0 {
		return nil, ErrEmptySequence
	}

	frames := make([]Frame, len(poses))
	for i, p := range poses {
		if i > 0 && p.TimestampMs < poses[i-1].TimestampMs {
			return nil, fmt.Errorf("frame %d: timestamp %dms precedes previous frame %dms",
				i, p.TimestampMs, poses[i-1].TimestampMs)
		}

		angles, landmarks := feature.Extract(p)
		frames[i] = Frame{
			Pose:        p,
			Angles:      angles,
			Landmarks:   landmarks,
			Coords:      feature.Flatten(p),
			TimestampMs: p.TimestampMs,
			Index:       i,
		}
	}

	return &Sequence{frames: frames}, nil
}

// Len returns the number of frames in the sequence.
func (s *Sequence) Len() int {
	return len(s.frames)
}

// Frame returns the frame at sequence position i.
func (s *Sequence) Frame(i int) Frame {
	return s.frames[i]
}

// DurationMs returns the time span covered by the sequence.
func (s *Sequence) DurationMs() int64 {
	if len(s.frames) == 0 {
		return 0
	}
	return s.frames[len(s.frames)-1].TimestampMs - s.frames[0].TimestampMs
}

// FrameRecord is the interchange form of one reference frame, shared by
// the HTTP API and the store.
type FrameRecord struct {
	Landmarks   []detector.Point3D `json:"landmarks"`
	TimestampMs int64              `json:"timestamp_ms"`
	FrameIndex  int                `json:"frame_index"`
}

// FromRecords builds a Sequence from interchange records. Every record
// must carry the full fixed landmark count.
func FromRecords(records []FrameRecord) (*Sequence, error) {
	if len(records) == 0 {
		return nil, ErrEmptySequence
	}

	poses := make([]detector.Pose, len(records))
	for i, r := range records {
		if len(r.Landmarks) != detector.NumLandmarks {
			return nil, fmt.Errorf("frame %d has %d landmarks, expected %d",
				i, len(r.Landmarks), detector.NumLandmarks)
		}

		var p detector.Pose
		copy(p.Points[:], r.Landmarks)
		p.TimestampMs = r.TimestampMs
		p.FrameIndex = r.FrameIndex
		poses[i] = p
	}

	return New(poses)
}

// Records returns the sequence's frames in interchange form. The
// returned slices are fresh allocations; callers may modify them
// without affecting the sequence.
func (s *Sequence) Records() []FrameRecord {
	records := make([]FrameRecord, len(s.frames))
	for i, f := range s.frames {
		landmarks := make([]detector.Point3D, detector.NumLandmarks)
		copy(landmarks, f.Pose.Points[:])
		records[i] = FrameRecord{
			Landmarks:   landmarks,
			TimestampMs: f.TimestampMs,
			FrameIndex:  f.Pose.FrameIndex,
		}
	}
	return records
}
