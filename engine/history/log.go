package history

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Log is the per-synthesizer collection of live history records. Records are
// created when a sequence instance begins contributing to the synthesized
// pose, fed frames every update, pruned against the advancing sampling time,
// and discarded once unreferenced and fully drained.
//
// Log is safe for concurrent use; the synthesizer's history task appends from
// worker goroutines while query collaborators read snapshots.
type Log struct {
	mu sync.RWMutex

	records  map[uuid.UUID]*Record
	capacity int
}

// NewLog creates an empty Log whose records each retain at most capacity
// frames.
//
// Parameters:
//   - capacity: the frame capacity of every record created through Begin
//
// Returns:
//   - *Log: the new log
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		panic("history: NewLog requires a positive capacity")
	}
	return &Log{
		records:  make(map[uuid.UUID]*Record),
		capacity: capacity,
	}
}

// Begin creates and registers a record for a new animation sequence instance.
//
// Parameters:
//   - animName: the source animation name
//   - startTime: the start of the validity window
//   - endTime: the exclusive end of the validity window
//   - rank: priority rank used to order concurrent sequences
//
// Returns:
//   - *Record: the registered record
func (l *Log) Begin(animName string, startTime, endTime float32, rank int32) *Record {
	r := NewRecord(animName, startTime, endTime, rank, l.capacity)

	l.mu.Lock()
	l.records[r.id] = r
	l.mu.Unlock()

	return r
}

// Append routes a frame sample to the record with the given sequence ID.
// Appending to an unknown record panics; the synthesizer only routes frames
// for sequences it began itself.
//
// Parameters:
//   - id: the sequence identifier
//   - endTime: the global timestamp this contribution is valid up to
//   - weight: the contribution weight
//   - animFrame: the source animation frame index
//   - animTime: the source animation local time
func (l *Log) Append(id uuid.UUID, endTime, weight float32, animFrame int32, animTime float32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records[id]
	if !ok {
		panic("history: append to unknown record")
	}
	r.AppendFrame(endTime, weight, animFrame, animTime)
}

// PruneBefore sweeps every record, dropping frames strictly older than the
// timestamp, and discards records that are both unreferenced and drained.
//
// Parameters:
//   - timestamp: the query timestamp to prune against
//
// Returns:
//   - int: the total number of frames removed across all records
func (l *Log) PruneBefore(timestamp float32) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, r := range l.records {
		removed += r.PruneBefore(timestamp)
		if !r.referenced() && r.FrameCount() == 0 {
			delete(l.records, id)
		}
	}
	return removed
}

// Get returns the record with the given sequence ID, or nil if unknown.
//
// Parameters:
//   - id: the sequence identifier
//
// Returns:
//   - *Record: the record or nil
func (l *Log) Get(id uuid.UUID) *Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records[id]
}

// Records returns a snapshot of all live records ordered by descending rank,
// ties broken by ascending start time. Query collaborators iterate the
// snapshot without holding the log lock.
//
// Returns:
//   - []*Record: the rank-ordered record snapshot
func (l *Log) Records() []*Record {
	l.mu.RLock()
	snapshot := make([]*Record, 0, len(l.records))
	for _, r := range l.records {
		snapshot = append(snapshot, r)
	}
	l.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].rank != snapshot[j].rank {
			return snapshot[i].rank > snapshot[j].rank
		}
		return snapshot[i].StartTime() < snapshot[j].StartTime()
	})
	return snapshot
}

// Len returns the number of live records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
