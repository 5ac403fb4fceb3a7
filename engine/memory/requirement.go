package memory

import "unsafe"

// Requirement is a semantic {size, alignment} value describing how much space
// a to-be-placed value needs. Requirements compose with Add, which accounts
// for the padding needed to align each component, so a full footprint can be
// computed before any allocation happens.
type Requirement struct {
	// Size is the number of bytes required, including any internal padding
	// accumulated through Add.
	Size int
	// Alignment is the required alignment in bytes. Always a power of two.
	Alignment int
}

// Of returns the Requirement for a single value of type T.
//
// Returns:
//   - Requirement: T's size and alignment as known at compile time
func Of[T any]() Requirement {
	var zero T
	return Requirement{
		Size:      int(unsafe.Sizeof(zero)),
		Alignment: int(unsafe.Alignof(zero)),
	}
}

// OfSlice returns the Requirement for a contiguous run of n values of type T.
// Panics if n is negative.
//
// Parameters:
//   - n: the number of elements
//
// Returns:
//   - Requirement: the requirement for n contiguous T values
func OfSlice[T any](n int) Requirement {
	if n < 0 {
		panic("memory: OfSlice requires a non-negative count")
	}
	var zero T
	return Requirement{
		Size:      int(unsafe.Sizeof(zero)) * n,
		Alignment: int(unsafe.Alignof(zero)),
	}
}

// Add composes two requirements: the result holds r followed by o, with o's
// start padded up to o's alignment. The composed size is therefore always
// greater than or equal to the sum of the components' sizes, and the composed
// alignment is the maximum of the two. Add is associative, so a footprint can
// be folded in any grouping as long as the order is preserved.
//
// Parameters:
//   - o: the requirement appended after r
//
// Returns:
//   - Requirement: the composed requirement
func (r Requirement) Add(o Requirement) Requirement {
	align := r.Alignment
	if o.Alignment > align {
		align = o.Alignment
	}
	size := alignUp(r.Size, o.Alignment) + o.Size
	return Requirement{Size: size, Alignment: align}
}

// alignUp rounds n up to the next multiple of align. align must be a power of
// two; zero is treated as no alignment.
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	mask := align - 1
	return (n + mask) &^ mask
}
