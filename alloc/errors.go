package alloc

import (
	"errors"
	"fmt"

	"github.com/obadb/refcore/ref"
)

// ErrDetached is returned by any Allocator method invoked while the
// allocator is in the None state (before an attach_* call or after detach).
var ErrDetached = errors.New("alloc: allocator is detached")

// ErrOutOfMemory is returned by alloc/realloc when no chunk large enough
// exists and growing a new slab would push the ref address space past
// Options.MaxTotalSize.
var ErrOutOfMemory = errors.New("alloc: out of memory")

// ErrFreeSpaceInvalid is returned by any operation that consults free-space
// accounting while the free-space state machine is Invalid. The state is
// sticky: only resetFreeSpaceTracking clears it (spec.md §3).
var ErrFreeSpaceInvalid = errors.New("alloc: free space tracking is invalid")

// ErrReadOnly is returned by alloc/realloc/free when the allocator is
// attached to a read-only mapping (attach_file with ReadOnly set).
var ErrReadOnly = errors.New("alloc: allocator is attached read-only")

// InvalidRef reports that a ref did not resolve to any owned slab or
// mapped file region.
type InvalidRef struct {
	Ref ref.Ref
}

func (e *InvalidRef) Error() string {
	return fmt.Sprintf("alloc: invalid ref %d", uint64(e.Ref))
}

// AllocationError wraps a failed alloc/realloc request with the size that
// could not be satisfied.
type AllocationError struct {
	Size int
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("alloc: cannot allocate %d bytes: %v", e.Size, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}
