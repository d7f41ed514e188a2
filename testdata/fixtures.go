// Package testdata provides shared fixtures for integration tests.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

//go:embed sequence.json
var sequenceJSON []byte

// ReferenceFrames returns the embedded eight-frame choreography:
// T-pose, arms raised, back to T-pose, then a crouch, 100ms apart.
func ReferenceFrames() ([]reference.FrameRecord, error) {
	var frames []reference.FrameRecord
	if err := json.Unmarshal(sequenceJSON, &frames); err != nil {
		return nil, fmt.Errorf("decode sequence fixture: %w", err)
	}
	return frames, nil
}

// ReferenceSequence returns the embedded choreography as a validated
// sequence.
func ReferenceSequence() (*reference.Sequence, error) {
	frames, err := ReferenceFrames()
	if err != nil {
		return nil, err
	}
	return reference.FromRecords(frames)
}
