package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Activity gate tuning.
const (
	// DefaultActivityThreshold is the percentage of changed pixels that
	// counts as someone moving in front of the camera.
	DefaultActivityThreshold = 1.0
	// blurKernel is the Gaussian blur kernel size used to suppress
	// sensor noise before differencing.
	blurKernel = 21
	// pixelDiffThreshold is the per-pixel intensity delta that counts
	// as a changed pixel.
	pixelDiffThreshold = 25
)

// ActivityDetector decides whether anyone is moving in front of the
// camera by differencing consecutive frames. The pipeline uses it to
// drop the capture rate to IdleFPS when the room goes still and raise
// it to ActiveFPS when a dancer steps in.
type ActivityDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewActivityDetector creates an ActivityDetector with the given
// threshold, expressed as the percentage of pixels that must change
// between frames. A threshold of 1.0 means 1% of pixels.
func NewActivityDetector(threshold float64) *ActivityDetector {
	return &ActivityDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares a frame against the previous one and reports whether
// activity was seen along with the percentage of pixels that changed.
// The first frame after construction or Reset establishes the baseline
// and never reports activity.
func (d *ActivityDetector) Detect(frame *gocv.Mat) (bool, float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !d.initialized {
		blurred.CopyTo(&d.prevGray)
		d.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, d.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, pixelDiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&d.prevGray)

	return changePercent > d.threshold, changePercent
}

// Reset clears the detector state so the next frame becomes a fresh
// baseline. Used when the camera reopens or the feed stalls.
func (d *ActivityDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.initialized = false
}

// Close releases resources held by the detector.
func (d *ActivityDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.prevGray.Empty() {
		d.prevGray.Close()
		d.prevGray = gocv.NewMat()
	}
	d.initialized = false
}

// SetThreshold sets the changed-pixel percentage that counts as
// activity. Values less than or equal to 0 are ignored.
func (d *ActivityDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.threshold = threshold
}
