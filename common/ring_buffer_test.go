package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRingBufferPanicsOnNonPositiveCapacity(t *testing.T) {
	require.Panics(t, func() { NewRingBuffer[int](0) })
	require.Panics(t, func() { NewRingBuffer[int](-1) })
}

func TestRingBufferFIFOOrder(t *testing.T) {
	rb := NewRingBuffer[int](4)
	for i := 1; i <= 3; i++ {
		require.True(t, rb.PushBack(i))
	}
	require.Equal(t, 3, rb.Len())

	for i := 1; i <= 3; i++ {
		v, ok := rb.PopFront()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := rb.PopFront()
	require.False(t, ok)
}

func TestRingBufferPushBackFull(t *testing.T) {
	rb := NewRingBuffer[int](2)
	require.True(t, rb.PushBack(1))
	require.True(t, rb.PushBack(2))
	require.False(t, rb.PushBack(3))
	require.Equal(t, 2, rb.Len())

	front, ok := rb.Front()
	require.True(t, ok)
	require.Equal(t, 1, front)
}

func TestRingBufferPushEvict(t *testing.T) {
	rb := NewRingBuffer[int](2)
	_, evicted := rb.PushEvict(1)
	require.False(t, evicted)
	_, evicted = rb.PushEvict(2)
	require.False(t, evicted)

	old, evicted := rb.PushEvict(3)
	require.True(t, evicted)
	require.Equal(t, 1, old)
	require.Equal(t, 2, rb.Len())
	require.Equal(t, 2, rb.At(0))
	require.Equal(t, 3, rb.At(1))
}

func TestRingBufferIndexingIsFrontRelativeAfterWrap(t *testing.T) {
	rb := NewRingBuffer[int](3)
	rb.PushBack(1)
	rb.PushBack(2)
	rb.PushBack(3)
	rb.PopFront()
	rb.PushBack(4) // storage wraps here

	require.Equal(t, 2, rb.At(0))
	require.Equal(t, 3, rb.At(1))
	require.Equal(t, 4, rb.At(2))
	require.Panics(t, func() { rb.At(3) })
	require.Panics(t, func() { rb.At(-1) })
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer[string](2)
	rb.PushBack("a")
	rb.PushBack("b")
	rb.Clear()

	require.Equal(t, 0, rb.Len())
	require.Equal(t, 2, rb.Cap())
	_, ok := rb.Front()
	require.False(t, ok)
	require.True(t, rb.PushBack("c"))
}
