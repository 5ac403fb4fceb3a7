package synthesizer

// BuilderOption is a function that modifies the synthesizer options.
type BuilderOption func(*motionSynthesizer)

// WithBlendDuration sets the cross-fade duration used by BlendTo transitions,
// in seconds. Zero makes transitions instantaneous cuts.
//
// Parameters:
//   - seconds: the blend duration
//
// Returns:
//   - BuilderOption: a function that applies the blend duration
func WithBlendDuration(seconds float32) BuilderOption {
	return func(m *motionSynthesizer) {
		m.blendDuration = seconds
	}
}

// WithHistoryCapacity sets the per-record frame capacity of the history log.
//
// Parameters:
//   - frames: the maximum retained frames per record
//
// Returns:
//   - BuilderOption: a function that applies the history capacity
func WithHistoryCapacity(frames int) BuilderOption {
	return func(m *motionSynthesizer) {
		m.historyCapacity = frames
	}
}

// WithHistoryRetention sets how far behind the current playback time history
// frames are retained before pruning, in seconds.
//
// Parameters:
//   - seconds: the retention window
//
// Returns:
//   - BuilderOption: a function that applies the retention window
func WithHistoryRetention(seconds float32) BuilderOption {
	return func(m *motionSynthesizer) {
		m.historyRetention = seconds
	}
}

// WithComputeWorkers sets the number of workers in the task graph's compute
// pool. Defaults to the CPU count minus one.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - BuilderOption: a function that applies the worker count
func WithComputeWorkers(workers int) BuilderOption {
	return func(m *motionSynthesizer) {
		m.computeWorkers = workers
	}
}

// WithTrajectoryWindow sets the number of root samples retained by the
// trajectory model.
//
// Parameters:
//   - samples: the window length
//
// Returns:
//   - BuilderOption: a function that applies the window length
func WithTrajectoryWindow(samples int) BuilderOption {
	return func(m *motionSynthesizer) {
		m.trajectoryWindow = samples
	}
}
