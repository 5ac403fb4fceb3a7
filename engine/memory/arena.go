// Package memory provides the arena allocator that hosts the synthesizer and
// its subsystems inside one contiguous block.
//
// The allocation discipline is strict and intentionally unforgiving: callers
// first declare every region they will need by reserving Requirements on a
// Layout, then perform exactly one allocation, then place values into the
// block in the same order the requirements were reserved. Placing out of
// order, with the wrong size, or past the reserved region count is a
// programming-contract violation and panics. Once a block reports complete,
// no further allocation happens for its lifetime.
package memory

import (
	"fmt"
	"unsafe"
)

// Policy tags an arena block with a lifetime discipline.
type Policy int

const (
	// PolicyPersistent marks a block that lives until Release is called
	// explicitly. This is the policy used for synthesizer blocks.
	PolicyPersistent Policy = iota
)

// Layout accumulates an ordered list of region requirements ahead of a single
// block allocation. The zero value is ready to use.
type Layout struct {
	regions []Requirement
}

// Reserve appends a region requirement to the layout. Regions are later
// placed in exactly this order. Panics on a non-positive size or a
// non-power-of-two alignment, both of which indicate a corrupted requirement.
//
// Parameters:
//   - r: the requirement for the region being reserved
//
// Returns:
//   - int: the index of the reserved region
func (l *Layout) Reserve(r Requirement) int {
	if r.Size <= 0 {
		panic(fmt.Sprintf("memory: Reserve requires a positive size, got %d", r.Size))
	}
	if r.Alignment <= 0 || r.Alignment&(r.Alignment-1) != 0 {
		panic(fmt.Sprintf("memory: Reserve requires a power-of-two alignment, got %d", r.Alignment))
	}
	l.regions = append(l.regions, r)
	return len(l.regions) - 1
}

// Total folds the reserved regions into one composed requirement — the exact
// footprint of the block that will host them.
//
// Returns:
//   - Requirement: the composed total requirement
func (l *Layout) Total() Requirement {
	var total Requirement
	total.Alignment = 1
	for _, r := range l.regions {
		total = total.Add(r)
	}
	return total
}

// NumRegions returns the number of regions reserved so far.
//
// Returns:
//   - int: the reserved region count
func (l *Layout) NumRegions() int {
	return len(l.regions)
}

// Block is one contiguous memory region obtained from a single allocation.
// Regions are carved out of it in the order their requirements were reserved
// on the Layout it was allocated from. The Block exclusively owns its bytes;
// Ref handles into it are weak views scoped to the block's lifetime.
type Block struct {
	buf     []byte
	base    int // aligned start offset within buf
	offset  int // next carve position relative to base
	size    int // usable bytes, the layout's composed total
	regions []Requirement
	placed  int
	policy  Policy

	// generation invalidates outstanding Refs when the block is released.
	// Starts at 1 so the zero Ref is never valid.
	generation uint32
	released   bool
}

// Allocate performs exactly one allocation sized to the layout's composed
// total and returns the block hosting it. No further allocation occurs for
// the lifetime of the block. Panics if the layout reserved no regions.
//
// Parameters:
//   - l: the layout describing every region the block will host
//   - policy: the lifetime policy for the block
//
// Returns:
//   - *Block: the newly allocated block, ready for placement
func Allocate(l *Layout, policy Policy) *Block {
	if l.NumRegions() == 0 {
		panic("memory: Allocate requires at least one reserved region")
	}
	total := l.Total()

	// Over-allocate by the alignment slack so the first region can start on
	// a properly aligned address regardless of where the runtime places buf.
	buf := make([]byte, total.Size+total.Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	base := int(alignUp(int(addr), total.Alignment) - int(addr))

	regions := make([]Requirement, len(l.regions))
	copy(regions, l.regions)

	return &Block{
		buf:        buf,
		base:       base,
		size:       total.Size,
		regions:    regions,
		policy:     policy,
		generation: 1,
	}
}

// Place carves the next reserved region out of the block and returns a
// pointer to a zeroed T constructed in place there. The region's reserved
// requirement must match T's requirement exactly; any mismatch, or placing
// past the reserved region count, panics.
//
// Parameters:
//   - b: the block to place into
//
// Returns:
//   - *T: pointer to the in-place value
func Place[T any](b *Block) *T {
	p := carve(b, Of[T]())
	return (*T)(p)
}

// PlaceSlice carves the next reserved region out of the block and returns a
// zeroed []T of length n viewing it. The region must have been reserved with
// OfSlice[T](n); any mismatch panics.
//
// Parameters:
//   - b: the block to place into
//   - n: the element count, matching the reservation
//
// Returns:
//   - []T: the in-place slice
func PlaceSlice[T any](b *Block, n int) []T {
	if n == 0 {
		panic("memory: PlaceSlice requires a non-zero count; empty regions cannot be reserved")
	}
	p := carve(b, OfSlice[T](n))
	return unsafe.Slice((*T)(p), n)
}

// carve validates the next region against req and returns its base pointer.
func carve(b *Block, req Requirement) unsafe.Pointer {
	if b.released {
		panic("memory: placement into a released block")
	}
	if b.placed >= len(b.regions) {
		panic("memory: placement past the reserved region count")
	}
	region := b.regions[b.placed]
	if region != req {
		panic(fmt.Sprintf("memory: placement mismatch at region %d: reserved {size %d, align %d}, placing {size %d, align %d}",
			b.placed, region.Size, region.Alignment, req.Size, req.Alignment))
	}

	start := alignUp(b.offset, req.Alignment)
	end := start + req.Size
	if b.base+end > len(b.buf) {
		panic("memory: placement past block capacity")
	}

	b.offset = end
	b.placed++
	return unsafe.Pointer(&b.buf[b.base+start])
}

// IsComplete reports whether every reserved region has been placed exactly
// once. A released block is never complete.
//
// Returns:
//   - bool: true once the final reserved region has been placed
func (b *Block) IsComplete() bool {
	return !b.released && b.placed == len(b.regions)
}

// Policy returns the lifetime policy the block was allocated with.
//
// Returns:
//   - Policy: the block's lifetime policy
func (b *Block) Policy() Policy {
	return b.policy
}

// Size returns the usable byte size of the block (the layout's composed total).
//
// Returns:
//   - int: the block size in bytes
func (b *Block) Size() int {
	return b.size
}

// Release drops the block's buffer and invalidates all outstanding Refs.
// Safe to call multiple times; subsequent calls are no-ops. After Release no
// placement is permitted and every Ref resolves to nil.
func (b *Block) Release() {
	if b.released {
		return
	}
	b.released = true
	b.generation++
	b.buf = nil
}

// Ref is a non-owning, typed handle to a value placed inside a Block. It
// stores the block and the value's offset rather than a raw pointer so a
// released block can be detected: a stale Ref resolves to nil instead of
// dangling.
type Ref[T any] struct {
	block      *Block
	generation uint32
	offset     int
}

// MakeRef builds a Ref to a value previously placed inside b. Panics if ptr
// does not point into the block's buffer.
//
// Parameters:
//   - b: the block that owns the value
//   - ptr: the in-place value returned by Place
//
// Returns:
//   - Ref[T]: a weak handle scoped to the block's lifetime
func MakeRef[T any](b *Block, ptr *T) Ref[T] {
	if b.released {
		panic("memory: MakeRef on a released block")
	}
	addr := uintptr(unsafe.Pointer(ptr))
	base := uintptr(unsafe.Pointer(&b.buf[0]))
	if addr < base || addr+unsafe.Sizeof(*ptr) > base+uintptr(len(b.buf)) {
		panic("memory: MakeRef target is not inside the block")
	}
	return Ref[T]{block: b, generation: b.generation, offset: int(addr - base)}
}

// Get resolves the handle. Returns nil once the owning block has been
// released.
//
// Returns:
//   - *T: the referenced value, or nil if the block is gone
func (r Ref[T]) Get() *T {
	if r.block == nil || r.block.released || r.block.generation != r.generation {
		return nil
	}
	return (*T)(unsafe.Pointer(&r.block.buf[r.offset]))
}
