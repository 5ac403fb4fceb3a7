package engine

import (
	"time"

	"github.com/Carmen-Shannon/kinetic-go/engine/synthesizer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithSynthesizer registers a synthesizer under the given key during engine
// construction. Synthesizers are updated in ascending key order each tick.
//
// Parameters:
//   - key: the update-order key (lower updates first)
//   - s: the Synthesizer to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSynthesizer(key int, s synthesizer.Synthesizer) EngineBuilderOption {
	return func(e *engine) {
		e.synthesizers[key] = s
	}
}
