package reference

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"

	"github.com/seanbenoit06/dancetrainer/internal/detector"
)

// Progress reports how far video processing has advanced.
type Progress struct {
	FrameIndex  int
	TotalFrames int
	Detected    int
}

// Processor converts a reference video into a pose Sequence by sampling
// frames and running them through a pose detector. Frames in which no
// person is detected are dropped; timestamps come from the source frame
// position so tempo is preserved.
type Processor struct {
	detector  detector.Detector
	targetFPS float64
}

// NewProcessor creates a Processor that samples the source video down
// to targetFPS. A non-positive targetFPS keeps every frame.
func NewProcessor(d detector.Detector, targetFPS float64) *Processor {
	return &Processor{
		detector:  d,
		targetFPS: targetFPS,
	}
}

// ProcessVideo reads the video at path and returns the detected pose
// sequence. onProgress, when non-nil, is invoked once per sampled frame.
func (p *Processor) ProcessVideo(path string, onProgress func(Progress)) (*Sequence, error) {
	video, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	defer video.Close()

	fps := video.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}
	total := int(video.Get(gocv.VideoCaptureFrameCount))

	stride := 1
	if p.targetFPS > 0 && fps > p.targetFPS {
		stride = int(math.Round(fps / p.targetFPS))
		if stride < 1 {
			stride = 1
		}
	}

	img := gocv.NewMat()
	defer img.Close()

	var poses []detector.Pose
	for idx := 0; ; idx++ {
		if ok := video.Read(&img); !ok {
			break
		}
		if img.Empty() || idx%stride != 0 {
			continue
		}

		detected, err := p.detector.Detect(&img)
		if err != nil {
			return nil, fmt.Errorf("detect frame %d: %w", idx, err)
		}
		if len(detected) == 0 {
			continue
		}

		pose := detected[0]
		pose.TimestampMs = int64(float64(idx) / fps * 1000)
		pose.FrameIndex = idx
		poses = append(poses, pose)

		if onProgress != nil {
			onProgress(Progress{
				FrameIndex:  idx,
				TotalFrames: total,
				Detected:    len(poses),
			})
		}
	}

	if len(poses) == 0 {
		return nil, fmt.Errorf("no poses detected in %s", path)
	}

	return New(poses)
}

// SourceFPS returns the effective sampling rate for a source recorded
// at fps, given the processor's target.
func (p *Processor) SourceFPS(fps float64) float64 {
	if fps <= 0 {
		fps = 30
	}
	if p.targetFPS <= 0 || fps <= p.targetFPS {
		return fps
	}
	stride := math.Round(fps / p.targetFPS)
	if stride < 1 {
		stride = 1
	}
	return fps / stride
}
