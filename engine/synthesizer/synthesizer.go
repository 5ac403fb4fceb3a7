// Package synthesizer implements the deterministic per-frame motion
// synthesizer: an orchestrator that owns one arena block hosting its own
// state and every subsystem (data tables, trait tables, pose generator,
// trajectory model), advances playback exactly once per externally driven
// frame, and records contributing frames into the animation history log.
package synthesizer

import (
	"fmt"
	"math"
	"runtime"

	"github.com/Carmen-Shannon/kinetic-go/common"
	"github.com/Carmen-Shannon/kinetic-go/engine/asset"
	"github.com/Carmen-Shannon/kinetic-go/engine/history"
	"github.com/Carmen-Shannon/kinetic-go/engine/memory"
)

const (
	defaultBlendDuration    = float32(0.25)
	defaultHistoryCapacity  = 64
	defaultHistoryRetention = float32(1.0)
	defaultTrajectoryWindow = 12
)

// synthState is the arena-resident core state of the synthesizer, placed as
// the first region of the block. Everything mutated per frame lives here so
// steady-state updates touch no heap.
type synthState struct {
	frameCount              int64
	lastProcessedFrameCount int64

	totalTime    float32
	samplingTime float32
	speed        float32
	activeClip   int32
	looping      uint32
	timeValid    uint32

	rootTransform      common.Transform
	rootDeltaTransform common.Transform
}

// frameScratch holds the task graph outputs for the frame being processed.
// Nodes within a level write disjoint fields; the level barrier orders all
// cross-level access.
type frameScratch struct {
	desiredTime float32
	animFrame   int32
	tags        []TagHit
	marker      MarkerHit
	hasMarker   bool
}

// motionSynthesizer is the implementation of the Synthesizer interface.
type motionSynthesizer struct {
	state memory.Ref[synthState]
	block *memory.Block
	asset *asset.Asset

	tables     dataTables
	traits     traitTables
	poseGen    poseGenerator
	trajectory trajectoryModel

	graph   *taskGraph
	log     *history.Log
	scratch frameScratch

	// frameDelta is the delta time of the frame currently being processed,
	// published before graph evaluation and read by graph nodes.
	frameDelta float32

	activeRec   *history.Record
	fadingRec   *history.Record
	fadingFrame int32
	fadingTime  float32
	nextRank    int32

	blendDuration    float32
	historyCapacity  int
	historyRetention float32
	computeWorkers   int
	trajectoryWindow int
}

// Synthesizer is the public-facing interface of the motion synthesizer. One
// instance owns one arena block for its full lifetime; all per-frame state
// lives inside that block. A Synthesizer is driven single-threaded: the
// caller advances the frame counter and calls Update once per frame.
type Synthesizer interface {
	// Update advances the synthesizer by one frame. It runs to completion
	// exactly once per externally signaled frame: if the frame counter is
	// negative (not yet initialized) or unchanged since the last processed
	// frame, Update returns false without mutating any state beyond
	// resetting the root delta to identity. Panics on a non-positive delta
	// time once a new frame is being processed.
	//
	// Parameters:
	//   - deltaTime: elapsed seconds since the previous frame, must be > 0
	//
	// Returns:
	//   - bool: true if a valid new pose was produced this frame
	Update(deltaTime float32) bool

	// SetFrameCount records the external frame counter signaling that a new
	// frame is available. Counters are monotonically increasing; panics when
	// the new value is smaller than the current one. Resetting the timeline
	// requires a new synthesizer.
	//
	// Parameters:
	//   - frame: the external frame counter value
	SetFrameCount(frame int64)

	// Play cuts playback to the given clip immediately and begins a new
	// history record for it.
	//
	// Parameters:
	//   - clip: the clip index within the asset
	//   - looping: whether playback wraps at the clip boundary
	//
	// Returns:
	//   - error: error if the clip index is out of range
	Play(clip int, looping bool) error

	// BlendTo switches playback to the given clip through a cross-fade of
	// the configured blend duration. With no active clip it behaves as Play.
	//
	// Parameters:
	//   - clip: the clip index within the asset
	//   - looping: whether playback wraps at the clip boundary
	//
	// Returns:
	//   - error: error if the clip index is out of range
	BlendTo(clip int, looping bool) error

	// SetSpeed sets the playback speed multiplier. Panics on a non-positive
	// speed; pausing is expressed by not advancing the frame counter.
	//
	// Parameters:
	//   - speed: the playback speed multiplier
	SetSpeed(speed float32)

	// SetDesiredVelocity sets the steering velocity consumed by the
	// trajectory model, in root-local space.
	//
	// Parameters:
	//   - v: the desired velocity in units per second
	SetDesiredVelocity(v [3]float32)

	// SetDesiredTurnRate sets the steering yaw rate consumed by the
	// trajectory model.
	//
	// Parameters:
	//   - radiansPerSecond: the desired yaw rate
	SetDesiredTurnRate(radiansPerSecond float32)

	// RootTransform returns the current root transform.
	RootTransform() common.Transform

	// RootDeltaTransform returns the root-motion delta produced by the most
	// recent Update. Identity when the last Update produced no pose.
	RootDeltaTransform() common.Transform

	// SamplingTime returns the current clip-local sampling time in seconds.
	SamplingTime() float32

	// Time returns the total playback time accumulated across all processed
	// frames. Monotonically non-decreasing.
	Time() float32

	// FrameCount returns the external frame counter value last set.
	FrameCount() int64

	// LastProcessedFrameCount returns the frame counter value of the most
	// recently processed frame.
	LastProcessedFrameCount() int64

	// Pose returns the current joint pose. The slice aliases the arena block
	// and is valid until the next Update or Release; callers must not
	// modify it.
	Pose() []common.Transform

	// MarshalPose flattens the current pose into column-major world-space
	// joint matrices ready for buffer upload.
	//
	// Returns:
	//   - []byte: the packed matrix data
	MarshalPose() []byte

	// CurrentTags returns the tag intervals covering the sampling time of
	// the most recently processed frame. Read-only.
	CurrentTags() []TagHit

	// NextMarker returns the next marker at or after the sampling time of
	// the most recently processed frame.
	//
	// Returns:
	//   - MarkerHit: the marker
	//   - bool: false if no marker lies ahead
	NextMarker() (MarkerHit, bool)

	// TrajectorySample returns the trajectory window sample at index i,
	// where 0 is the oldest retained root and TrajectoryWindowLen()-1 the
	// most recent.
	//
	// Parameters:
	//   - i: the window index
	//
	// Returns:
	//   - common.Transform: the root sample
	TrajectorySample(i int) common.Transform

	// TrajectoryWindowLen returns the fixed length of the trajectory window.
	TrajectoryWindowLen() int

	// History returns the animation history log for semantic queries over
	// recently played content.
	History() *history.Log

	// Asset returns the immutable asset this synthesizer plays from.
	Asset() *asset.Asset

	// BlockSize returns the byte size of the arena block hosting the
	// synthesizer, as composed from all subsystem requirements.
	BlockSize() int

	// Release frees the arena block. Safe to call multiple times; any use of
	// the synthesizer after release panics.
	Release()
}

var _ Synthesizer = &motionSynthesizer{}

// New constructs a motion synthesizer for the named asset, which must already
// be resident in the loader. Construction queries the memory requirement of
// the synthesizer itself and of every subsystem against the asset, performs
// exactly one arena allocation of the composed total, and places each region
// in requirement order. An incomplete block after placement is a
// programming-contract violation and panics.
//
// Parameters:
//   - ldr: the asset loader collaborator
//   - name: the loader cache key of the asset to play
//   - initialRoot: the starting root transform
//   - options: a variadic list of BuilderOption functions to configure the synthesizer
//
// Returns:
//   - Synthesizer: the constructed synthesizer, owning its arena block
//   - error: error if the asset is missing or unplayable
func New(ldr asset.Loader, name string, initialRoot common.Transform, options ...BuilderOption) (Synthesizer, error) {
	a := ldr.Get(name)
	if a == nil {
		return nil, fmt.Errorf("synthesizer: asset %q is not loaded", name)
	}
	if a.NumClips() == 0 {
		return nil, fmt.Errorf("synthesizer: asset %q contains no clips", name)
	}

	m := &motionSynthesizer{
		asset:            a,
		blendDuration:    defaultBlendDuration,
		historyCapacity:  defaultHistoryCapacity,
		historyRetention: defaultHistoryRetention,
		computeWorkers:   max(runtime.NumCPU()-1, 1),
		trajectoryWindow: defaultTrajectoryWindow,
	}
	for _, option := range options {
		option(m)
	}
	if m.blendDuration < 0 {
		panic("synthesizer: blend duration must not be negative")
	}
	if m.trajectoryWindow <= 0 {
		panic("synthesizer: trajectory window must be positive")
	}
	if m.computeWorkers <= 0 {
		panic("synthesizer: compute worker count must be positive")
	}

	var layout memory.Layout
	layout.Reserve(memory.Of[synthState]())
	reserveDataTables(&layout, a)
	reserveTraitTables(&layout, a)
	reservePoseGenerator(&layout, a)
	reserveTrajectoryModel(&layout, m.trajectoryWindow)

	block := memory.Allocate(&layout, memory.PolicyPersistent)
	state := memory.Place[synthState](block)
	m.block = block
	m.state = memory.MakeRef(block, state)
	m.tables = placeDataTables(block, a)
	m.traits = placeTraitTables(block, a)
	m.poseGen = placePoseGenerator(block, a, &m.tables, m.blendDuration)
	m.trajectory = placeTrajectoryModel(block, m.trajectoryWindow, initialRoot)
	if !block.IsComplete() {
		panic("synthesizer: arena block incomplete after construction")
	}

	state.frameCount = -1
	state.lastProcessedFrameCount = -1
	state.speed = 1
	state.activeClip = -1
	state.rootTransform = initialRoot.Normalized()
	state.rootDeltaTransform = common.TransformIdentity()

	m.log = history.NewLog(m.historyCapacity)
	m.graph = newTaskGraph(m.computeWorkers, []graphNode{
		{name: "desired-time", run: m.runDesiredTimeNode},
		{name: "traits", deps: []string{"desired-time"}, run: m.runTraitNode},
		{name: "history", deps: []string{"desired-time"}, run: m.runHistoryNode},
	})

	return m, nil
}

// mustState resolves the arena-resident state, panicking on use after
// release.
func (m *motionSynthesizer) mustState() *synthState {
	st := m.state.Get()
	if st == nil {
		panic("synthesizer: use after release")
	}
	return st
}

func (m *motionSynthesizer) Update(deltaTime float32) bool {
	st := m.mustState()
	st.rootDeltaTransform = common.TransformIdentity()

	if st.frameCount < 0 || st.frameCount == st.lastProcessedFrameCount {
		return false
	}
	st.lastProcessedFrameCount = st.frameCount
	if deltaTime <= 0 {
		panic("synthesizer: Update requires a positive delta time")
	}

	m.frameDelta = deltaTime
	m.graph.evaluate()

	if st.timeValid == 0 {
		return false
	}
	st.samplingTime = m.scratch.desiredTime
	st.totalTime += deltaTime

	delta := m.trajectory.deltaTransform(deltaTime)
	st.rootDeltaTransform = delta
	st.rootTransform = st.rootTransform.Mul(delta)
	st.rootTransform.Rotation = common.QuatNormalize(st.rootTransform.Rotation)
	m.trajectory.update(st.rootTransform, delta, deltaTime)
	m.poseGen.update(st.activeClip, st.samplingTime, deltaTime)

	if m.fadingRec != nil && m.poseGen.state.blending == 0 {
		m.fadingRec.ReleaseRef()
		m.fadingRec = nil
	}
	return true
}

// runDesiredTimeNode computes the next sampling time from the current state
// and the frame's delta time, applying the clip's looping policy.
func (m *motionSynthesizer) runDesiredTimeNode() error {
	st := m.mustState()
	m.scratch.tags = nil
	m.scratch.hasMarker = false

	if st.activeClip < 0 {
		st.timeValid = 0
		return nil
	}

	t := st.samplingTime + m.frameDelta*st.speed
	dur := m.tables.clipDuration(st.activeClip)
	if st.looping == 1 {
		if dur > 0 {
			t = float32(math.Mod(float64(t), float64(dur)))
		}
	} else if t > dur {
		t = dur
	}

	frame, _ := m.tables.frameAt(st.activeClip, t)
	m.scratch.desiredTime = t
	m.scratch.animFrame = frame
	st.timeValid = 1
	return nil
}

// runTraitNode samples the trait tables at the frame's desired sampling time.
func (m *motionSynthesizer) runTraitNode() error {
	st := m.mustState()
	if st.timeValid == 0 {
		return nil
	}
	m.scratch.tags = m.traits.tagsAt(st.activeClip, m.scratch.desiredTime)
	m.scratch.marker, m.scratch.hasMarker = m.traits.nextMarker(st.activeClip, m.scratch.desiredTime)
	return nil
}

// runHistoryNode appends the frame's contributions to the history log and
// prunes entries that have fallen out of the retention window.
func (m *motionSynthesizer) runHistoryNode() error {
	st := m.mustState()
	if st.timeValid == 0 || m.activeRec == nil {
		return nil
	}

	end := st.totalTime + m.frameDelta
	weight := m.poseGen.blendWeight()

	activeEnd := end
	if activeEnd > m.activeRec.EndTime() {
		activeEnd = m.activeRec.EndTime()
	}
	m.log.Append(m.activeRec.ID(), activeEnd, weight, m.scratch.animFrame, m.scratch.desiredTime)

	if m.fadingRec != nil && weight < 1 {
		fadingEnd := end
		if fadingEnd > m.fadingRec.EndTime() {
			fadingEnd = m.fadingRec.EndTime()
		}
		m.log.Append(m.fadingRec.ID(), fadingEnd, 1-weight, m.fadingFrame, m.fadingTime)
	}

	m.log.PruneBefore(end - m.historyRetention)
	return nil
}

func (m *motionSynthesizer) SetFrameCount(frame int64) {
	st := m.mustState()
	if frame < st.frameCount {
		panic(fmt.Sprintf("synthesizer: frame counter must be monotonically increasing, got %d after %d", frame, st.frameCount))
	}
	st.frameCount = frame
}

func (m *motionSynthesizer) Play(clip int, looping bool) error {
	st := m.mustState()
	if clip < 0 || clip >= len(m.tables.clips) {
		return fmt.Errorf("synthesizer: clip index %d out of range [0, %d)", clip, len(m.tables.clips))
	}

	if m.fadingRec != nil {
		m.fadingRec.ReleaseRef()
		m.fadingRec = nil
	}
	if m.activeRec != nil {
		m.activeRec.ReleaseRef()
	}

	st.activeClip = int32(clip)
	st.looping = boolToFlag(looping)
	st.samplingTime = 0
	st.timeValid = 0
	m.activeRec = m.beginRecord(clip, looping)
	return nil
}

func (m *motionSynthesizer) BlendTo(clip int, looping bool) error {
	st := m.mustState()
	if st.activeClip < 0 {
		return m.Play(clip, looping)
	}
	if clip < 0 || clip >= len(m.tables.clips) {
		return fmt.Errorf("synthesizer: clip index %d out of range [0, %d)", clip, len(m.tables.clips))
	}

	// The outgoing clip stops advancing; its history attribution freezes at
	// the playhead the transition started from.
	m.fadingFrame, _ = m.tables.frameAt(st.activeClip, st.samplingTime)
	m.fadingTime = st.samplingTime

	if m.fadingRec != nil {
		m.fadingRec.ReleaseRef()
	}
	m.fadingRec = m.activeRec
	m.poseGen.beginTransition()

	st.activeClip = int32(clip)
	st.looping = boolToFlag(looping)
	st.samplingTime = 0
	m.activeRec = m.beginRecord(clip, looping)
	return nil
}

// beginRecord opens a history record for a new sequence instance of the clip.
// Looping sequences have an unbounded validity window; one-shot sequences end
// when the clip runs out at the current speed.
func (m *motionSynthesizer) beginRecord(clip int, looping bool) *history.Record {
	st := m.mustState()
	c, _ := m.asset.Clip(clip)

	end := float32(math.Inf(1))
	if !looping {
		end = st.totalTime + m.tables.clipDuration(int32(clip))/st.speed
	}

	m.nextRank++
	return m.log.Begin(c.Name, st.totalTime, end, m.nextRank)
}

func (m *motionSynthesizer) SetSpeed(speed float32) {
	if speed <= 0 {
		panic("synthesizer: speed must be positive")
	}
	m.mustState().speed = speed
}

func (m *motionSynthesizer) SetDesiredVelocity(v [3]float32) {
	m.mustState()
	m.trajectory.setDesiredVelocity(v)
}

func (m *motionSynthesizer) SetDesiredTurnRate(radiansPerSecond float32) {
	m.mustState()
	m.trajectory.setDesiredTurnRate(radiansPerSecond)
}

func (m *motionSynthesizer) RootTransform() common.Transform {
	return m.mustState().rootTransform
}

func (m *motionSynthesizer) RootDeltaTransform() common.Transform {
	return m.mustState().rootDeltaTransform
}

func (m *motionSynthesizer) SamplingTime() float32 {
	return m.mustState().samplingTime
}

func (m *motionSynthesizer) Time() float32 {
	return m.mustState().totalTime
}

func (m *motionSynthesizer) FrameCount() int64 {
	return m.mustState().frameCount
}

func (m *motionSynthesizer) LastProcessedFrameCount() int64 {
	return m.mustState().lastProcessedFrameCount
}

func (m *motionSynthesizer) Pose() []common.Transform {
	m.mustState()
	return m.poseGen.pose()
}

func (m *motionSynthesizer) MarshalPose() []byte {
	return m.poseGen.marshalPose(m.mustState().rootTransform)
}

func (m *motionSynthesizer) CurrentTags() []TagHit {
	m.mustState()
	return m.scratch.tags
}

func (m *motionSynthesizer) NextMarker() (MarkerHit, bool) {
	m.mustState()
	return m.scratch.marker, m.scratch.hasMarker
}

func (m *motionSynthesizer) TrajectorySample(i int) common.Transform {
	m.mustState()
	return m.trajectory.sampleAt(i)
}

func (m *motionSynthesizer) TrajectoryWindowLen() int {
	return m.trajectory.windowLen()
}

func (m *motionSynthesizer) History() *history.Log {
	return m.log
}

func (m *motionSynthesizer) Asset() *asset.Asset {
	return m.asset
}

func (m *motionSynthesizer) BlockSize() int {
	return m.block.Size()
}

func (m *motionSynthesizer) Release() {
	m.block.Release()
}

func boolToFlag(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
