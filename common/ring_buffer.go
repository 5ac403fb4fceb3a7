package common

// RingBuffer is a bounded, order-preserving FIFO sequence backed by a fixed
// slice and two cursors (head index and element count). Indexing is always
// relative to the current front: index 0 is the oldest element regardless of
// where it sits in the backing store. The buffer never reallocates after
// construction.
//
// RingBuffer is not safe for concurrent use; owners guard it with their own
// synchronization where needed.
type RingBuffer[T any] struct {
	data  []T
	head  int
	count int
}

// NewRingBuffer creates a RingBuffer with the given fixed capacity.
// Panics if capacity is not positive; a zero-capacity ring cannot hold the
// element its owner is about to push and always indicates a sizing bug.
//
// Parameters:
//   - capacity: the maximum number of elements the buffer can hold
//
// Returns:
//   - *RingBuffer[T]: the newly created ring buffer
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic("common: NewRingBuffer requires a positive capacity")
	}
	return &RingBuffer[T]{data: make([]T, capacity)}
}

// Len returns the number of elements currently held.
//
// Returns:
//   - int: the current element count
func (r *RingBuffer[T]) Len() int {
	return r.count
}

// Cap returns the fixed capacity of the buffer.
//
// Returns:
//   - int: the capacity
func (r *RingBuffer[T]) Cap() int {
	return len(r.data)
}

// PushBack appends v to the back of the buffer.
//
// Parameters:
//   - v: the element to append
//
// Returns:
//   - bool: true if the element was stored, false if the buffer is full
func (r *RingBuffer[T]) PushBack(v T) bool {
	if r.count == len(r.data) {
		return false
	}
	r.data[(r.head+r.count)%len(r.data)] = v
	r.count++
	return true
}

// PushEvict appends v to the back of the buffer, evicting the oldest element
// first when the buffer is full.
//
// Parameters:
//   - v: the element to append
//
// Returns:
//   - T: the evicted element (zero value when nothing was evicted)
//   - bool: true if an element was evicted to make room
func (r *RingBuffer[T]) PushEvict(v T) (T, bool) {
	var evicted T
	var didEvict bool
	if r.count == len(r.data) {
		evicted, _ = r.PopFront()
		didEvict = true
	}
	r.data[(r.head+r.count)%len(r.data)] = v
	r.count++
	return evicted, didEvict
}

// PopFront removes and returns the oldest element.
//
// Returns:
//   - T: the removed element (zero value when the buffer is empty)
//   - bool: true if an element was removed
func (r *RingBuffer[T]) PopFront() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	v := r.data[r.head]
	r.data[r.head] = zero
	r.head = (r.head + 1) % len(r.data)
	r.count--
	return v, true
}

// Front returns the oldest element without removing it.
//
// Returns:
//   - T: the oldest element (zero value when the buffer is empty)
//   - bool: true if the buffer is non-empty
func (r *RingBuffer[T]) Front() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.data[r.head], true
}

// At returns the element at index i, where index 0 is the oldest element.
// Panics if i is out of range; indexed reads are only meaningful against the
// live window and an out-of-range index is a caller bug.
//
// Parameters:
//   - i: the index relative to the front (0 = oldest)
//
// Returns:
//   - T: the element at index i
func (r *RingBuffer[T]) At(i int) T {
	if i < 0 || i >= r.count {
		panic("common: RingBuffer index out of range")
	}
	return r.data[(r.head+i)%len(r.data)]
}

// Clear removes all elements, zeroing the backing store so held references
// can be collected. Capacity is unchanged.
func (r *RingBuffer[T]) Clear() {
	var zero T
	for i := 0; i < r.count; i++ {
		r.data[(r.head+i)%len(r.data)] = zero
	}
	r.head = 0
	r.count = 0
}
