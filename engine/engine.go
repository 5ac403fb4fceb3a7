package engine

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/kinetic-go/engine/profiler"
	"github.com/Carmen-Shannon/kinetic-go/engine/synthesizer"
)

// engine implements the Engine interface.
// Drives registered synthesizers at a fixed tick rate from its own goroutine.
type engine struct {
	mu sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)

	frameCounter int64
	synthesizers map[int]synthesizer.Synthesizer
}

// Engine is the per-frame driver for motion synthesizers. It owns the frame
// counter contract: each tick increments the shared counter, publishes it to
// every registered synthesizer, then updates them with the tick's delta time,
// so each synthesizer processes every frame exactly once.
type Engine interface {
	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// If the engine is running, the change takes effect immediately.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called after the synthesizers
	// have been updated each tick. Use this to consume poses and steer.
	//
	// Parameters:
	//   - callback: function to call each tick, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// AddSynthesizer registers a synthesizer under the given key.
	// Synthesizers are updated in ascending key order each tick.
	//
	// Parameters:
	//   - key: the update-order key (lower updates first)
	//   - s: the Synthesizer to register
	AddSynthesizer(key int, s synthesizer.Synthesizer)

	// RemoveSynthesizer removes the synthesizer at the given key.
	//
	// Parameters:
	//   - key: the key of the synthesizer to remove
	RemoveSynthesizer(key int)

	// Synthesizer retrieves the synthesizer registered at the given key.
	// Returns nil if no synthesizer exists at that key.
	//
	// Parameters:
	//   - key: the key of the synthesizer to retrieve
	//
	// Returns:
	//   - synthesizer.Synthesizer: the synthesizer at the key, or nil if not found
	Synthesizer(key int) synthesizer.Synthesizer

	// Synthesizers returns a copy of all registered synthesizers keyed by
	// update order.
	//
	// Returns:
	//   - map[int]synthesizer.Synthesizer: a copy of the synthesizer map
	Synthesizers() map[int]synthesizer.Synthesizer

	// FrameCount returns the current value of the shared frame counter.
	//
	// Returns:
	//   - int64: the frame counter (-1 before the first tick)
	FrameCount() int64

	// Run starts the tick loop and blocks until Quit is called.
	Run()

	// Start starts the tick loop without blocking; pair with Quit.
	Start()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		synthesizers:     make(map[int]synthesizer.Synthesizer),
		running:          false,
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
		frameCounter:     -1,
	}

	for _, opt := range options {
		opt(e)
	}

	return e
}

func (e *engine) Run() {
	e.Start()
	e.wg.Wait()
}

func (e *engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.wg.Add(2)
	go e.handleTicks()
	go e.handleQuit()
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleTicks runs the fixed-rate tick loop in its own goroutine.
// Each tick advances the frame counter, publishes it to every registered
// synthesizer, updates them in key order, then fires the tick callback.
// Listens for dynamic rate changes via tickRateChannel and exits when the
// quit channel is closed. Recovers from panics so a contract violation in
// one tick shuts the engine down instead of crashing the process.
func (e *engine) handleTicks() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[engine] tick goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if dt <= 0 {
				continue
			}

			e.tick(dt)

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick processes one frame across all registered synthesizers.
func (e *engine) tick(dt float32) {
	e.mu.Lock()
	e.frameCounter++
	frame := e.frameCounter

	keys := make([]int, 0, len(e.synthesizers))
	for k := range e.synthesizers {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	ordered := make([]synthesizer.Synthesizer, 0, len(keys))
	for _, k := range keys {
		ordered = append(ordered, e.synthesizers[k])
	}
	callback := e.tickCallback
	e.mu.Unlock()

	for _, s := range ordered {
		s.SetFrameCount(frame)
		s.Update(dt)
	}

	if callback != nil {
		callback(dt)
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	e.mu.RLock()
	running := e.running
	e.mu.RUnlock()

	if running {
		// Send to channel for immediate update in running tick loop
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			// Channel has a pending update, drain and send new value
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called after each tick's updates.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) AddSynthesizer(key int, s synthesizer.Synthesizer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.synthesizers[key] = s
}

func (e *engine) RemoveSynthesizer(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.synthesizers, key)
}

func (e *engine) Synthesizer(key int) synthesizer.Synthesizer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.synthesizers[key]
}

func (e *engine) Synthesizers() map[int]synthesizer.Synthesizer {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp := make(map[int]synthesizer.Synthesizer, len(e.synthesizers))
	for k, v := range e.synthesizers {
		cp[k] = v
	}
	return cp
}

func (e *engine) FrameCount() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frameCounter
}
