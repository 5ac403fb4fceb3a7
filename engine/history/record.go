// Package history tracks which source-animation frames contributed to
// recently synthesized poses. Each active animation sequence instance owns a
// Record holding a bounded, time-ascending window of FrameInfo samples that
// semantic queries read back by tag or marker.
package history

import (
	"sync"

	"github.com/Carmen-Shannon/kinetic-go/common"
	"github.com/google/uuid"
)

// FrameInfo is an immutable sample describing one contribution of a source
// animation to the synthesized pose: the clip frame played, at what local
// time, with what weight, valid up to the given global end timestamp.
type FrameInfo struct {
	EndTime   float32
	Weight    float32
	AnimFrame int32
	AnimTime  float32
}

// Record tracks the contributing frames of one animation sequence instance
// over its [startTime, endTime) validity window. Frames are held oldest-first
// in a bounded ring buffer; when the buffer fills, the oldest frame is
// evicted and startTime advances past it, so the record is always a sliding
// window over the newest content.
//
// Record is safe for concurrent use: the synthesizer's history task appends
// and prunes from worker goroutines while query collaborators read frames
// through the accessors. The identity fields (id, animName, endTime, rank) are
// immutable after construction and read without the lock.
type Record struct {
	mu sync.RWMutex

	id        uuid.UUID
	animName  string
	startTime float32
	endTime   float32
	rank      int32
	frames    *common.RingBuffer[FrameInfo]
	refs      int32
}

// NewRecord creates a Record for one animation sequence instance.
// The record starts with a single reference held by the creator.
//
// Parameters:
//   - animName: the source animation name
//   - startTime: the start of the validity window
//   - endTime: the exclusive end of the validity window
//   - rank: priority rank used to order concurrent sequences
//   - capacity: maximum number of frames retained
//
// Returns:
//   - *Record: the new record
func NewRecord(animName string, startTime, endTime float32, rank int32, capacity int) *Record {
	if endTime < startTime {
		panic("history: record end time precedes start time")
	}
	return &Record{
		id:        uuid.New(),
		animName:  animName,
		startTime: startTime,
		endTime:   endTime,
		rank:      rank,
		frames:    common.NewRingBuffer[FrameInfo](capacity),
		refs:      1,
	}
}

// AppendFrame pushes a new frame sample to the back of the record. Frames
// must be appended in ascending end-time order up to the record's own end
// time; appending past that boundary means the caller mis-tracked sequence
// boundaries and panics. When the buffer is full the oldest frame is evicted
// and startTime advances to the evicted frame's end time.
//
// Parameters:
//   - endTime: the global timestamp this contribution is valid up to
//   - weight: the contribution weight
//   - animFrame: the source animation frame index
//   - animTime: the source animation local time
func (r *Record) AppendFrame(endTime, weight float32, animFrame int32, animTime float32) {
	if endTime > r.endTime {
		panic("history: appended frame end time exceeds record end time")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	info := FrameInfo{
		EndTime:   endTime,
		Weight:    weight,
		AnimFrame: animFrame,
		AnimTime:  animTime,
	}
	if evicted, ok := r.frames.PushEvict(info); ok {
		r.startTime = evicted.EndTime
	}
}

// PruneBefore drops frames from the front of the record whose end time is
// strictly less than the given timestamp. A frame ending exactly at the
// timestamp is kept, since it may still be the most current sample. When at
// least one frame was removed, startTime advances to the timestamp.
//
// Parameters:
//   - timestamp: the query timestamp to prune against
//
// Returns:
//   - int: the number of frames removed
func (r *Record) PruneBefore(timestamp float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for r.frames.Len() > 0 {
		front, _ := r.frames.Front()
		if front.EndTime >= timestamp {
			break
		}
		r.frames.PopFront()
		removed++
	}
	if removed > 0 {
		r.startTime = timestamp
	}
	return removed
}

// Retain adds a reference to the record on behalf of a live pose composition.
func (r *Record) Retain() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs++
}

// ReleaseRef drops one reference. The record is dead once no composition
// references it; the owning Log discards dead records on its next sweep.
//
// Returns:
//   - bool: true if the record is still referenced
func (r *Record) ReleaseRef() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs <= 0 {
		panic("history: release of unreferenced record")
	}
	r.refs--
	return r.refs > 0
}

// ID returns the unique sequence identifier of the record.
func (r *Record) ID() uuid.UUID {
	return r.id
}

// AnimationName returns the source animation name.
func (r *Record) AnimationName() string {
	return r.animName
}

// StartTime returns the start of the record's validity window.
func (r *Record) StartTime() float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.startTime
}

// EndTime returns the exclusive end of the record's validity window.
func (r *Record) EndTime() float32 {
	return r.endTime
}

// Rank returns the priority rank of the record.
func (r *Record) Rank() int32 {
	return r.rank
}

// FrameCount returns the number of frames currently held.
func (r *Record) FrameCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frames.Len()
}

// FrameAt returns the frame at the given index, where index 0 is the oldest
// retained frame. It panics when the index is out of range.
//
// Parameters:
//   - i: the frame index
//
// Returns:
//   - FrameInfo: the frame sample
func (r *Record) FrameAt(i int) FrameInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frames.At(i)
}

func (r *Record) referenced() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs > 0
}
