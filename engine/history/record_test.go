package history

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordPruneBeforeEndToEnd(t *testing.T) {
	r := NewRecord("walk", 0, 10.0, 1, 8)
	for _, end := range []float32{2.0, 4.0, 6.0, 8.0} {
		r.AppendFrame(end, 1, 0, 0)
	}
	require.Equal(t, 4, r.FrameCount())

	removed := r.PruneBefore(5.0)
	require.Equal(t, 2, removed)
	require.Equal(t, float32(5.0), r.StartTime())
	require.Equal(t, 2, r.FrameCount())
	require.Equal(t, float32(6.0), r.FrameAt(0).EndTime)
	require.Equal(t, float32(8.0), r.FrameAt(1).EndTime)
}

func TestRecordAppendBoundary(t *testing.T) {
	r := NewRecord("walk", 0, 10.0, 1, 4)

	// Exactly at the record's end time is allowed.
	require.NotPanics(t, func() { r.AppendFrame(10.0, 1, 0, 0) })
	// Past it is a contract violation.
	require.Panics(t, func() { r.AppendFrame(10.001, 1, 0, 0) })
}

func TestRecordPruneKeepsEqualTimestamp(t *testing.T) {
	r := NewRecord("walk", 0, 10.0, 1, 4)
	r.AppendFrame(3.0, 1, 0, 0)
	r.AppendFrame(5.0, 1, 0, 0)

	removed := r.PruneBefore(5.0)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, r.FrameCount())
	require.Equal(t, float32(5.0), r.FrameAt(0).EndTime)
}

func TestRecordPruneMonotonic(t *testing.T) {
	r := NewRecord("walk", 0, 100.0, 1, 16)
	for i := 1; i <= 10; i++ {
		r.AppendFrame(float32(i), 1, int32(i), 0)
	}

	seen := r.FrameCount()
	for _, ts := range []float32{2.5, 4.0, 4.0, 7.5} {
		r.PruneBefore(ts)
		require.LessOrEqual(t, r.FrameCount(), seen)
		seen = r.FrameCount()
		if r.FrameCount() > 0 {
			require.GreaterOrEqual(t, r.FrameAt(0).EndTime, ts)
		}
	}
	require.Equal(t, float32(7.5), r.StartTime())
}

func TestRecordPruneWithoutRemovalKeepsStartTime(t *testing.T) {
	r := NewRecord("walk", 1.0, 10.0, 1, 4)
	r.AppendFrame(5.0, 1, 0, 0)

	removed := r.PruneBefore(2.0)
	require.Equal(t, 0, removed)
	require.Equal(t, float32(1.0), r.StartTime())
}

func TestRecordOverflowEvictsOldest(t *testing.T) {
	r := NewRecord("walk", 0, 100.0, 1, 3)
	for i := 1; i <= 5; i++ {
		r.AppendFrame(float32(i), 1, int32(i), 0)
	}

	require.Equal(t, 3, r.FrameCount())
	require.Equal(t, float32(3), r.FrameAt(0).EndTime)
	require.Equal(t, float32(5), r.FrameAt(2).EndTime)
	// startTime advanced past the last evicted frame.
	require.Equal(t, float32(2), r.StartTime())
}

func TestRecordInvalidWindowPanics(t *testing.T) {
	require.Panics(t, func() { NewRecord("walk", 5.0, 4.0, 1, 4) })
}

func TestRecordRefCounting(t *testing.T) {
	r := NewRecord("walk", 0, 10.0, 1, 4)
	r.Retain()

	require.True(t, r.ReleaseRef())
	require.False(t, r.ReleaseRef())
	require.Panics(t, func() { r.ReleaseRef() })
}
