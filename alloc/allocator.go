// Package alloc implements the slab allocator described in spec.md §4.2: a
// unified ref address space over a memory-mapped read-only file region and
// a sequence of dynamically grown mutable slabs.
package alloc

import (
	"fmt"
	"os"

	"github.com/obadb/refcore/internal/obalog"
	"github.com/obadb/refcore/internal/obametrics"
	"github.com/obadb/refcore/ref"
)

// Options configures an Allocator. The zero value is usable; DefaultOptions
// returns the same values obaconfig.Default wires in for alloc.*.
type Options struct {
	// InitialSlabSize is used for the first slab grown under a miss.
	InitialSlabSize int
	// GrowthFactor multiplies the previous slab size to compute the next
	// slab's minimum size (spec.md §4.2: growth must be exponential to
	// bound allocation count).
	GrowthFactor float64
	// MaxSlabSize caps the per-slab growth; once the geometric size would
	// exceed this the allocator grows slabs linearly by MaxSlabSize
	// instead (supplementing spec.md with a concrete growth ceiling).
	MaxSlabSize int
	// MaxTotalSize caps the total ref address space above baseline (the
	// sum of every slab's size). Zero means unbounded. Alloc returns
	// ErrOutOfMemory rather than grow past it.
	MaxTotalSize int64
	// DisableSyncToDisk skips fsync/msync calls (spec.md §9: "should be
	// an explicit configuration struct threaded through attach, not a
	// module-level mutable").
	DisableSyncToDisk bool

	Logger  obalog.Logger
	Metrics *obametrics.Allocator
}

// DefaultOptions mirrors obaconfig.Default's alloc section.
func DefaultOptions() Options {
	return Options{
		InitialSlabSize: 4096,
		GrowthFactor:    2.0,
		MaxSlabSize:     64 << 20,
		Logger:          obalog.Nop(),
	}
}

// Allocator unifies a memory-mapped read-only file region with a sequence
// of mutable slabs under a single ref address space (spec.md §2, §4.2).
type Allocator struct {
	opts Options

	state    State
	fsState  FreeSpaceState
	baseline ref.Ref
	readOnly bool

	mapping      *mapping
	ownedBuffer  []byte
	usersBuffer  []byte

	slabs        *slabList
	freeSpace    chunkList
	freeReadOnly chunkList

	header         Header
	serverSync     bool
	skipValidate   bool
	lastSlabSize   int
}

// New constructs a detached Allocator.
func New(opts Options) *Allocator {
	if opts.InitialSlabSize <= 0 {
		opts.InitialSlabSize = DefaultOptions().InitialSlabSize
	}
	if opts.GrowthFactor <= 1 {
		opts.GrowthFactor = DefaultOptions().GrowthFactor
	}
	if opts.MaxSlabSize <= 0 {
		opts.MaxSlabSize = DefaultOptions().MaxSlabSize
	}
	if opts.Logger == nil {
		opts.Logger = obalog.Nop()
	}
	return &Allocator{opts: opts, state: None}
}

// State returns the allocator's current attach mode.
func (a *Allocator) State() State { return a.state }

// FreeSpaceState returns the current free-list accounting state.
func (a *Allocator) FreeSpaceState() FreeSpaceState { return a.fsState }

// Baseline returns the boundary ref between the mapped file and the first
// slab.
func (a *Allocator) Baseline() ref.Ref { return a.baseline }

func (a *Allocator) requireAttached() error {
	if a.state == None {
		return ErrDetached
	}
	return nil
}

// AttachEmpty attaches with no file and no buffer, baseline zero
// (spec.md §4.2 attach_empty).
func (a *Allocator) AttachEmpty() {
	a.baseline = 0
	a.slabs = newSlabList(0)
	a.freeSpace = chunkList{}
	a.freeReadOnly = chunkList{}
	a.header = NewEmptyHeader(false)
	a.fsState = Clean
	a.state = UnsharedFile
	a.readOnly = false
	a.opts.Logger.Debug("attach_empty")
}

// AttachBufferOptions configures AttachBuffer.
type AttachBufferOptions struct {
	Own bool
}

// AttachBuffer attaches over an in-memory slice (spec.md §4.2
// attach_buffer). The caller retains ownership unless Own is set or
// OwnBuffer is called later.
func (a *Allocator) AttachBuffer(data []byte, opts AttachBufferOptions) (ref.Ref, error) {
	if a.state != None {
		return 0, fmt.Errorf("alloc: attach precondition violated: allocator is %s", a.state)
	}

	h, err := a.loadOrInitHeader(data)
	if err != nil {
		return 0, err
	}

	a.baseline = ref.Ref(len(data))
	a.slabs = newSlabList(a.baseline)
	a.freeSpace = chunkList{}
	a.freeReadOnly = chunkList{}
	a.header = h
	a.fsState = Clean
	a.readOnly = false

	if opts.Own {
		a.ownedBuffer = data
		a.state = OwnedBuffer
	} else {
		a.usersBuffer = data
		a.state = UsersBuffer
	}

	a.opts.Logger.Debug("attach_buffer", "size", len(data), "own", opts.Own, "top_ref", h.LiveTopRef())
	return ref.Ref(h.LiveTopRef()), nil
}

// OwnBuffer transitions UsersBuffer -> OwnedBuffer (spec.md §4.2
// own_buffer).
func (a *Allocator) OwnBuffer() {
	if a.state != UsersBuffer {
		return
	}
	a.ownedBuffer = a.usersBuffer
	a.usersBuffer = nil
	a.state = OwnedBuffer
}

// AttachFileOptions configures AttachFile (spec.md §4.2 attach_file).
type AttachFileOptions struct {
	IsShared       bool
	ReadOnly       bool
	NoCreate       bool
	SkipValidate   bool
	ServerSyncMode bool
}

// AttachFile opens, maps, and validates a database file, returning its live
// top-ref.
func (a *Allocator) AttachFile(path string, opts AttachFileOptions) (ref.Ref, error) {
	if a.state != None {
		return 0, fmt.Errorf("alloc: attach precondition violated: allocator is %s", a.state)
	}

	flags := os.O_RDWR
	if opts.ReadOnly {
		flags = os.O_RDONLY
	}

	_, statErr := os.Stat(path)
	exists := statErr == nil
	if !exists {
		if opts.NoCreate || opts.ReadOnly {
			return 0, ErrInvalidDatabase
		}
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return 0, err
	}

	var h Header
	var size int64

	if !exists {
		h = NewEmptyHeader(opts.ServerSyncMode)
		buf := h.Encode()
		if _, err := f.WriteAt(buf[:], 0); err != nil {
			f.Close()
			return 0, err
		}
		size = HeaderSize
	} else {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return 0, err
		}
		size = info.Size()
		if size < HeaderSize {
			f.Close()
			return 0, ErrInvalidDatabase
		}

		buf := make([]byte, HeaderSize)
		if _, err := f.ReadAt(buf, 0); err != nil {
			f.Close()
			return 0, err
		}

		decoded, err := DecodeHeader(buf)
		if err != nil {
			f.Close()
			return 0, err
		}
		if !opts.SkipValidate && decoded.ServerSync != opts.ServerSyncMode {
			f.Close()
			return 0, ErrInvalidDatabase
		}
		h = decoded

		// Streaming-form detection is part of header validation; skipping
		// validation means trusting the header's own top-ref slot, which
		// prepare_for_update is what keeps current.
		if !opts.SkipValidate {
			if footer, ok := a.readFooter(f, size); ok {
				h = h.WithLiveTopRef(footer.TopRef)
			}
		}
	}

	m := newMapping()
	if err := m.Map(f, size, opts.ReadOnly); err != nil {
		f.Close()
		return 0, err
	}

	a.mapping = m
	a.baseline = ref.Ref(size)
	a.slabs = newSlabList(a.baseline)
	a.freeSpace = chunkList{}
	a.freeReadOnly = chunkList{}
	a.header = h
	a.serverSync = opts.ServerSyncMode
	a.skipValidate = opts.SkipValidate
	a.fsState = Clean
	a.readOnly = opts.ReadOnly

	if opts.IsShared {
		a.state = SharedFile
	} else {
		a.state = UnsharedFile
	}

	a.opts.Logger.Info("attach_file", "path", path, "size", size, "shared", opts.IsShared, "top_ref", h.LiveTopRef())
	return ref.Ref(h.LiveTopRef()), nil
}

func (a *Allocator) readFooter(f *os.File, size int64) (Footer, bool) {
	if size < FooterSize {
		return Footer{}, false
	}
	buf := make([]byte, FooterSize)
	if _, err := f.ReadAt(buf, size-FooterSize); err != nil {
		return Footer{}, false
	}
	return DecodeFooter(buf)
}

func (a *Allocator) loadOrInitHeader(data []byte) (Header, error) {
	if len(data) == 0 {
		return NewEmptyHeader(false), nil
	}
	if len(data) < HeaderSize {
		return Header{}, ErrInvalidDatabase
	}
	h, err := DecodeHeader(data[:HeaderSize])
	if err != nil {
		return Header{}, err
	}
	if footer, ok := DecodeFooter(data[len(data)-FooterSize:]); ok {
		h = h.WithLiveTopRef(footer.TopRef)
	}
	return h, nil
}

// Detach unmaps, releases any owned buffer, and clears slabs. Idempotent;
// does not reset free lists (spec.md §4.2 detach).
func (a *Allocator) Detach() {
	if a.state == None {
		return
	}
	if a.mapping != nil {
		a.mapping.Close()
		a.mapping = nil
	}
	a.ownedBuffer = nil
	a.usersBuffer = nil
	a.slabs = nil
	a.baseline = 0
	a.state = None
	a.opts.Logger.Debug("detach")
}

// ResetFreeSpaceTracking discards all slabs back to the OS, clears both
// free lists, and returns free-space state to Clean (spec.md §4.2).
func (a *Allocator) ResetFreeSpaceTracking() {
	if a.slabs != nil {
		a.slabs.reset(a.baseline)
	}
	a.freeSpace.clear()
	a.freeReadOnly.clear()
	a.fsState = Clean
	a.lastSlabSize = 0
	a.opts.Logger.Debug("reset_free_space_tracking")
}

// Alloc rounds size up to 8-byte alignment and returns a ref/address pair
// for size bytes of mutable space (spec.md §4.2 alloc).
func (a *Allocator) Alloc(size int) (ref.Ref, []byte, error) {
	if err := a.requireAttached(); err != nil {
		return 0, nil, err
	}
	if a.readOnly {
		return 0, nil, ErrReadOnly
	}
	if a.fsState == Invalid {
		return 0, nil, ErrFreeSpaceInvalid
	}

	size = ref.AlignUp(size)

	if idx, ok := a.freeSpace.firstFit(size); ok {
		r := a.freeSpace.takeAt(idx, size)
		data, ok := a.slabs.translate(r)
		if !ok {
			a.invalidate()
			return 0, nil, &AllocationError{Size: size, Err: &InvalidRef{Ref: r}}
		}
		a.fsState = Dirty
		a.opts.Metrics.IncAlloc()
		return r, data[:size], nil
	}

	slabSize := a.nextSlabSize(size)
	if a.opts.MaxTotalSize > 0 {
		grown := int64(a.slabs.end()-a.baseline) + int64(slabSize)
		if grown > a.opts.MaxTotalSize {
			a.invalidate()
			return 0, nil, &AllocationError{Size: size, Err: ErrOutOfMemory}
		}
	}
	s := a.slabs.append(slabSize)
	a.lastSlabSize = slabSize
	a.opts.Metrics.IncSlabGrowth()

	r := s.RefEnd - ref.Ref(slabSize)
	if slabSize > size {
		a.freeSpace.insert(Chunk{Ref: r + ref.Ref(size), Size: slabSize - size})
	}

	a.fsState = Dirty
	a.opts.Metrics.IncAlloc()
	return r, s.Data[:size], nil
}

// nextSlabSize implements spec.md §4.2's "at least
// max(requested, previous_slab_size × growth_factor)" rule. Once the
// geometric size would exceed MaxSlabSize, the next slab is the previous
// slab's size plus MaxSlabSize, so the per-step increase is capped but the
// size of a single slab is not.
func (a *Allocator) nextSlabSize(requested int) int {
	base := a.opts.InitialSlabSize
	if a.lastSlabSize > 0 {
		grown := int(float64(a.lastSlabSize) * a.opts.GrowthFactor)
		if grown > a.opts.MaxSlabSize {
			grown = a.lastSlabSize + a.opts.MaxSlabSize
		}
		base = grown
	}
	if requested > base {
		base = requested
	}
	return ref.AlignUp(base)
}

// Realloc allocates a new block, copies min(oldSize, newSize) bytes, and
// frees the old block. Never shrinks in place (spec.md §4.2 realloc).
func (a *Allocator) Realloc(oldRef ref.Ref, oldData []byte, oldSize, newSize int) (ref.Ref, []byte, error) {
	if err := a.requireAttached(); err != nil {
		return 0, nil, err
	}
	newRef, newData, err := a.Alloc(newSize)
	if err != nil {
		return 0, nil, err
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	copy(newData, oldData[:n])
	if err := a.Free(oldRef, oldSize); err != nil {
		return 0, nil, err
	}
	a.opts.Metrics.IncRealloc()
	return newRef, newData, nil
}

// Free appends the extent to the appropriate free list and coalesces with
// any adjacent chunk (spec.md §4.2 free).
func (a *Allocator) Free(r ref.Ref, size int) error {
	if err := a.requireAttached(); err != nil {
		return err
	}
	if a.readOnly {
		return ErrReadOnly
	}
	if a.fsState == Invalid {
		return ErrFreeSpaceInvalid
	}

	size = ref.AlignUp(size)
	c := Chunk{Ref: r, Size: size}

	if r < a.baseline {
		a.freeReadOnly.insert(c)
	} else {
		a.freeSpace.insert(c)
	}

	a.fsState = Dirty
	a.opts.Metrics.IncFree()
	return nil
}

func (a *Allocator) invalidate() {
	a.fsState = Invalid
	a.opts.Metrics.IncInvalid()
	a.opts.Logger.Warn("free_space_state -> Invalid")
}

// Translate resolves r to a byte window starting at r, failing with
// InvalidRef if r is not inside the mapped file or any owned slab
// (spec.md §4.1).
func (a *Allocator) Translate(r ref.Ref) ([]byte, error) {
	if err := a.requireAttached(); err != nil {
		return nil, err
	}
	if r < a.baseline {
		return a.translateBelowBaseline(r)
	}
	data, ok := a.slabs.translate(r)
	if !ok {
		return nil, &InvalidRef{Ref: r}
	}
	return data, nil
}

func (a *Allocator) translateBelowBaseline(r ref.Ref) ([]byte, error) {
	switch {
	case a.mapping != nil:
		b := a.mapping.Bytes()
		if int64(r) > int64(len(b)) {
			return nil, &InvalidRef{Ref: r}
		}
		return b[r:], nil
	case a.ownedBuffer != nil:
		if int64(r) > int64(len(a.ownedBuffer)) {
			return nil, &InvalidRef{Ref: r}
		}
		return a.ownedBuffer[r:], nil
	case a.usersBuffer != nil:
		if int64(r) > int64(len(a.usersBuffer)) {
			return nil, &InvalidRef{Ref: r}
		}
		return a.usersBuffer[r:], nil
	default:
		return nil, &InvalidRef{Ref: r}
	}
}

// PrepareForUpdate converts a streaming-form file in place: writes the
// empty-file header with the current top-ref in slot 0 and flags bit 0
// cleared, then msyncs (spec.md §4.2 prepare_for_update). No-op if
// validation was skipped at attach or the file is not in streaming form.
func (a *Allocator) PrepareForUpdate(topRef ref.Ref) error {
	if err := a.requireAttached(); err != nil {
		return err
	}
	if a.skipValidate || a.mapping == nil {
		return nil
	}
	b := a.mapping.Bytes()
	if len(b) < FooterSize {
		return nil
	}
	if _, ok := DecodeFooter(b[len(b)-FooterSize:]); !ok {
		return nil
	}

	h := a.header.WithLiveTopRef(uint64(topRef))
	buf := h.Encode()
	if _, err := a.mapping.WriteAt(buf[:], 0); err != nil {
		return err
	}
	a.header = h

	if a.opts.DisableSyncToDisk {
		return nil
	}
	return a.mapping.Sync()
}

// Remap re-maps the file so the mapped region covers [0, newFileSize),
// shifting baseline and every slab's ref_end upward by the delta, and
// reports whether the host address of byte 0 changed (spec.md §4.2 remap).
func (a *Allocator) Remap(newFileSize int64) (bool, error) {
	if err := a.requireAttached(); err != nil {
		return false, err
	}
	if a.mapping == nil {
		return false, ErrNotMapped
	}

	delta := ref.Ref(newFileSize) - a.baseline

	changed, err := a.mapping.Remap(newFileSize)
	if err != nil {
		return false, err
	}

	a.baseline = ref.Ref(newFileSize)
	if delta != 0 {
		a.slabs.shiftRefEnds(delta)
	}

	return changed, nil
}

// ResizeFile preallocates the file to newSize bytes and fsyncs unless
// DisableSyncToDisk is set (spec.md §4.2 resize_file).
func (a *Allocator) ResizeFile(newSize int64) error {
	if err := a.requireAttached(); err != nil {
		return err
	}
	if a.mapping == nil || a.mapping.file == nil {
		return ErrNotMapped
	}
	if err := a.mapping.file.Truncate(newSize); err != nil {
		return err
	}
	if a.opts.DisableSyncToDisk {
		return nil
	}
	return a.mapping.file.Sync()
}

// ReserveDiskSpace preallocates size bytes beyond the file's current
// length (spec.md §4.2 reserve_disk_space).
func (a *Allocator) ReserveDiskSpace(size int64) error {
	if err := a.requireAttached(); err != nil {
		return err
	}
	if a.mapping == nil || a.mapping.file == nil {
		return ErrNotMapped
	}
	info, err := a.mapping.file.Stat()
	if err != nil {
		return err
	}
	if err := a.mapping.file.Truncate(info.Size() + size); err != nil {
		return err
	}
	if a.opts.DisableSyncToDisk {
		return nil
	}
	return a.mapping.file.Sync()
}

// FreeSpaceStats reports the current size of both free lists, supplementing
// spec.md with a read accessor an operator can poll (see SPEC_FULL.md §4).
type FreeSpaceStats struct {
	FreeSpaceBytes    int
	FreeSpaceChunks   int
	FreeReadOnlyBytes int
	FreeReadOnlyChunks int
	State             FreeSpaceState
}

// FreeSpaceStats returns a snapshot of free-list accounting. Per spec.md §3,
// a read-only-free-list query is itself one of the operations Invalid state
// blocks, so a fsState of Invalid fails the whole call with
// ErrFreeSpaceInvalid rather than returning a stale or partial snapshot.
func (a *Allocator) FreeSpaceStats() (FreeSpaceStats, error) {
	if a.fsState == Invalid {
		return FreeSpaceStats{State: Invalid}, ErrFreeSpaceInvalid
	}
	stats := FreeSpaceStats{
		FreeSpaceBytes:     a.freeSpace.totalBytes(),
		FreeSpaceChunks:    a.freeSpace.count(),
		FreeReadOnlyBytes:  a.freeReadOnly.totalBytes(),
		FreeReadOnlyChunks: a.freeReadOnly.count(),
		State:              a.fsState,
	}
	slabBytes := 0
	slabCount := 0
	if a.slabs != nil {
		slabCount = len(a.slabs.slabs)
		prev := a.baseline
		for _, s := range a.slabs.slabs {
			slabBytes += int(s.RefEnd - prev)
			prev = s.RefEnd
		}
	}
	a.opts.Metrics.SetGauges(stats.FreeSpaceBytes+stats.FreeReadOnlyBytes, slabBytes, slabCount)
	return stats, nil
}
