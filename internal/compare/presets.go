package compare

// Presets returns the named configurations exposed by the control
// plane. The map and its values are fresh copies; callers may modify
// them freely.
func Presets() map[string]Config {
	balanced := DefaultConfig()

	poseFocus := DefaultConfig()
	poseFocus.PoseWeight = 0.8
	poseFocus.MotionWeight = 0.2

	motionFocus := DefaultConfig()
	motionFocus.PoseWeight = 0.4
	motionFocus.MotionWeight = 0.6
	motionFocus.DTWInterval = 5

	strict := DefaultConfig()
	strict.MinScoreThreshold = 0.8
	strict.AngleDiffThreshold = 12
	strict.PositionDiffThreshold = 0.08

	relaxed := DefaultConfig()
	relaxed.MinScoreThreshold = 0.55
	relaxed.AngleDiffThreshold = 30
	relaxed.PositionDiffThreshold = 0.2
	relaxed.SmoothingWindow = 10

	poseOnly := DefaultConfig()
	poseOnly.PoseWeight = 1.0
	poseOnly.MotionWeight = 0.0
	poseOnly.DTWEnabled = false

	return map[string]Config{
		"balanced":     balanced,
		"pose-focus":   poseFocus,
		"motion-focus": motionFocus,
		"strict":       strict,
		"relaxed":      relaxed,
		"pose-only":    poseOnly,
	}
}

// Preset looks up a named preset configuration.
func Preset(name string) (Config, bool) {
	cfg, ok := Presets()[name]
	return cfg, ok
}
