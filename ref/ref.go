// Package ref defines the flat 64-bit address space refcore uses to name
// storage: a Ref is an offset into a virtual region whose low end is a
// memory-mapped read-only file and whose high end is a sequence of
// heap-allocated slabs.
package ref

// Ref is an offset into the storage address space. Ref 0 means "none".
// Every non-zero Ref is 8-byte aligned.
type Ref uint64

// None is the ref that names nothing.
const None Ref = 0

// Align is the alignment, in bytes, that every allocation and every valid
// non-zero Ref must satisfy.
const Align = 8

// IsNull reports whether r is the "none" ref.
func (r Ref) IsNull() bool {
	return r == None
}

// IsAligned reports whether r satisfies the 8-byte alignment invariant.
func (r Ref) IsAligned() bool {
	return uint64(r)%Align == 0
}

// FromInt64 converts a signed offset to a Ref, rejecting exactly the two
// cases the original implementation handled incorrectly: negative values
// and values that are not 8-byte aligned. See spec.md's Open Questions.
func FromInt64(v int64) (Ref, bool) {
	if v < 0 {
		return 0, false
	}
	r := Ref(v)
	if !r.IsAligned() {
		return 0, false
	}
	return r, true
}

// AlignUp rounds size up to the next multiple of Align.
func AlignUp(size int) int {
	if size < 0 {
		return 0
	}
	rem := size % Align
	if rem == 0 {
		return size
	}
	return size + (Align - rem)
}
