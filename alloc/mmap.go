package alloc

import (
	"errors"
	"os"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// mmapPageSize is the granularity at which the dirty-page bitmap tracks
// writes into the mapped region; it need not match any on-disk page
// concept, only the kernel's page size for efficient msync batching.
const mmapPageSize = 4096

// ErrNotMapped is returned by any mapping operation performed before a
// successful mapFile.
var ErrNotMapped = errors.New("alloc: file is not memory mapped")

// mapping owns the memory-mapped read-only/read-write file region that
// backs refs below baseline. It tracks which pages have been written since
// the last Sync using a roaring bitmap, so Sync (called by
// prepare_for_update) only needs to msync the pages actually touched
// instead of the whole mapping. Remap does not msync; it clears the set.
type mapping struct {
	mu       sync.RWMutex
	file     *os.File
	data     []byte
	size     int64
	readOnly bool
	dirty    *roaring.Bitmap

	// winHandle holds the Windows file-mapping object handle between
	// mapLocked and unmapLocked; unused on unix builds.
	winHandle uintptr
}

func newMapping() *mapping {
	return &mapping{dirty: roaring.New()}
}

// IsMapped reports whether a region is currently mapped.
func (m *mapping) IsMapped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data != nil
}

// Bytes returns the full mapped region. Callers must not retain the slice
// past the next Remap/Close.
func (m *mapping) Bytes() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data
}

// Size returns the current mapped size.
func (m *mapping) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}

// markDirty records that bytes in [off, off+n) were written, for the next
// Sync's bitmap-guided msync.
func (m *mapping) markDirty(off int64, n int) {
	first := uint32(off / mmapPageSize)
	last := uint32((off + int64(n) - 1) / mmapPageSize)
	m.dirty.AddRange(uint64(first), uint64(last)+1)
}

// Map maps file into memory, sizing the mapping to size bytes (growing the
// file first if necessary and the mapping is writable).
func (m *mapping) Map(file *os.File, size int64, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data != nil {
		return errors.New("alloc: already mapped")
	}

	info, err := file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < size {
		if readOnly {
			return ErrInvalidDatabase
		}
		if err := file.Truncate(size); err != nil {
			return err
		}
	}

	m.file = file
	m.size = size
	m.readOnly = readOnly
	return m.mapLocked()
}

// Remap re-maps the file so the mapped region covers [0, newSize), shifting
// baseline-relative addressing as needed. It reports whether the host
// address of byte 0 changed (spec.md §4.2 remap).
func (m *mapping) Remap(newSize int64) (addrChanged bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return false, ErrNotMapped
	}
	if newSize == m.size {
		return false, nil
	}

	oldPtr := m.basePointer()

	if err := m.unmapLocked(); err != nil {
		return false, err
	}

	info, err := m.file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() < newSize && !m.readOnly {
		if err := m.file.Truncate(newSize); err != nil {
			return false, err
		}
	}

	m.size = newSize
	if err := m.mapLocked(); err != nil {
		return false, err
	}

	m.dirty = roaring.New()
	return m.basePointer() != oldPtr, nil
}

// Sync flushes every page recorded dirty since the last Sync. The dirty
// bitmap is walked as a run of contiguous page ranges so a write touching a
// handful of pages in a large mapping costs a handful of small msyncs
// instead of one over the whole region.
func (m *mapping) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return ErrNotMapped
	}
	if m.dirty.IsEmpty() {
		return nil
	}
	for _, r := range dirtyPageRanges(m.dirty) {
		off := int64(r.first) * mmapPageSize
		end := int64(r.last+1) * mmapPageSize
		if end > m.size {
			end = m.size
		}
		if err := m.syncRangeLocked(off, end-off); err != nil {
			return err
		}
	}
	m.dirty = roaring.New()
	return nil
}

// pageRange is an inclusive [first, last] run of dirty page indices.
type pageRange struct {
	first, last uint32
}

// dirtyPageRanges collapses bm's set bits into contiguous runs, so Sync
// issues one msync/FlushViewOfFile per run instead of per page.
func dirtyPageRanges(bm *roaring.Bitmap) []pageRange {
	it := bm.Iterator()
	if !it.HasNext() {
		return nil
	}
	var ranges []pageRange
	first := it.Next()
	last := first
	for it.HasNext() {
		next := it.Next()
		if next == last+1 {
			last = next
			continue
		}
		ranges = append(ranges, pageRange{first: first, last: last})
		first, last = next, next
	}
	ranges = append(ranges, pageRange{first: first, last: last})
	return ranges
}

// Close unmaps the region.
func (m *mapping) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return m.unmapLocked()
}

// WriteAt writes p into the mapping at off and records the touched pages
// as dirty.
func (m *mapping) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return 0, ErrNotMapped
	}
	if m.readOnly {
		return 0, ErrReadOnly
	}
	if off < 0 || off+int64(len(p)) > m.size {
		return 0, errors.New("alloc: write out of mapped range")
	}
	n := copy(m.data[off:], p)
	m.markDirty(off, n)
	return n, nil
}

// ReadAt reads from the mapping at off.
func (m *mapping) ReadAt(p []byte, off int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.data == nil {
		return 0, ErrNotMapped
	}
	if off < 0 || off >= m.size {
		return 0, errors.New("alloc: read out of mapped range")
	}
	return copy(p, m.data[off:]), nil
}
