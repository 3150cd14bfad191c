package alloc

import (
	"sort"

	"github.com/obadb/refcore/ref"
)

// Slab is a contiguous heap-allocated extent that participates in the ref
// address space. Its ref range is [prevRefEnd, RefEnd), where prevRefEnd is
// the RefEnd of the previous slab (or baseline for the first slab).
type Slab struct {
	RefEnd ref.Ref
	Data   []byte
}

// slabList is the ordered sequence of slabs above baseline. RefEnd values
// strictly increase; the list is kept sorted as a simple invariant of
// append-only growth (slabs are never inserted out of order, only appended
// or truncated wholesale on reset/detach).
type slabList struct {
	baseline ref.Ref
	slabs    []Slab
}

func newSlabList(baseline ref.Ref) *slabList {
	return &slabList{baseline: baseline}
}

// end returns the exclusive upper bound of the whole ref space covered by
// this slab list (baseline if no slabs have been allocated yet).
func (sl *slabList) end() ref.Ref {
	if len(sl.slabs) == 0 {
		return sl.baseline
	}
	return sl.slabs[len(sl.slabs)-1].RefEnd
}

// append adds a new slab of the given size at the current end of the ref
// space and returns it.
func (sl *slabList) append(size int) Slab {
	s := Slab{
		RefEnd: sl.end() + ref.Ref(size),
		Data:   make([]byte, size),
	}
	sl.slabs = append(sl.slabs, s)
	return s
}

// translate performs the hot-path binary search described in spec.md §4.1:
// branch-predictable, allocation-free, returning the byte window starting
// at r and running to the end of its containing slab.
func (sl *slabList) translate(r ref.Ref) ([]byte, bool) {
	if r < sl.baseline {
		return nil, false
	}
	idx := sort.Search(len(sl.slabs), func(i int) bool {
		return sl.slabs[i].RefEnd > r
	})
	if idx == len(sl.slabs) {
		return nil, false
	}
	s := sl.slabs[idx]
	prevEnd := sl.baseline
	if idx > 0 {
		prevEnd = sl.slabs[idx-1].RefEnd
	}
	off := int(r - prevEnd)
	if off < 0 || off > len(s.Data) {
		return nil, false
	}
	return s.Data[off:], true
}

// shiftRefEnds is used by remap: rewrites every slab's RefEnd by delta
// when the baseline shifts upward because the mapped file grew.
func (sl *slabList) shiftRefEnds(delta ref.Ref) {
	for i := range sl.slabs {
		sl.slabs[i].RefEnd += delta
	}
	sl.baseline += delta
}

func (sl *slabList) reset(baseline ref.Ref) {
	sl.baseline = baseline
	sl.slabs = nil
}
