package alloc

// State names the allocator's attachment mode (spec.md §3 "Allocator state
// machine").
type State int

const (
	// None is the initial/detached state. Every other state reaches None
	// only through detach.
	None State = iota
	// OwnedBuffer means the allocator owns and will free its in-memory
	// buffer on detach. Reached directly from attach_buffer(own=true) or
	// via ownBuffer from UsersBuffer.
	OwnedBuffer
	// UsersBuffer means the caller retains ownership of the buffer passed
	// to attach_buffer; detach does not free it.
	UsersBuffer
	// SharedFile means the allocator is attached to a file that may be
	// concurrently mapped read-only by other processes.
	SharedFile
	// UnsharedFile means the allocator holds exclusive access to the
	// attached file.
	UnsharedFile
)

func (s State) String() string {
	switch s {
	case None:
		return "None"
	case OwnedBuffer:
		return "OwnedBuffer"
	case UsersBuffer:
		return "UsersBuffer"
	case SharedFile:
		return "SharedFile"
	case UnsharedFile:
		return "UnsharedFile"
	default:
		return "Unknown"
	}
}

// FreeSpaceState names the free-list accounting state machine (spec.md §3).
type FreeSpaceState int

const (
	// Clean means free-list accounting reflects reality.
	Clean FreeSpaceState = iota
	// Dirty means at least one alloc/free has happened since attach or
	// the last reset, but no error has occurred.
	Dirty
	// Invalid is sticky: set by any allocation error, cleared only by
	// resetFreeSpaceTracking.
	Invalid
)

func (s FreeSpaceState) String() string {
	switch s {
	case Clean:
		return "Clean"
	case Dirty:
		return "Dirty"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}
