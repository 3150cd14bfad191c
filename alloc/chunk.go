package alloc

import (
	"sort"

	"github.com/obadb/refcore/ref"
)

// Chunk is a free-space extent: size bytes of unused storage starting at
// ref. Two disjoint chunkLists exist in an Allocator: one over slab space,
// one over the read-only file region (spec.md §3).
type Chunk struct {
	Ref  ref.Ref
	Size int
}

// chunkList is a ref-ordered, non-overlapping, gap-coalescing free list.
type chunkList struct {
	chunks []Chunk
}

// firstFit returns the index of the lowest-ref chunk whose size is at
// least size, implementing the ascending-ref first-fit policy of
// spec.md §4.2's alloc algorithm.
func (cl *chunkList) firstFit(size int) (int, bool) {
	for i, c := range cl.chunks {
		if c.Size >= size {
			return i, true
		}
	}
	return 0, false
}

// takeAt consumes size bytes from the front of the chunk at idx, removing
// the chunk entirely if it is now empty, and returns the ref that was
// handed out.
func (cl *chunkList) takeAt(idx int, size int) ref.Ref {
	c := cl.chunks[idx]
	r := c.Ref
	if c.Size == size {
		cl.chunks = append(cl.chunks[:idx], cl.chunks[idx+1:]...)
	} else {
		cl.chunks[idx] = Chunk{Ref: c.Ref + ref.Ref(size), Size: c.Size - size}
	}
	return r
}

// insert adds a free extent to the list in ref order, coalescing with an
// immediately adjacent chunk on either side (spec.md §3: "adjacent chunks
// are coalesced on free").
func (cl *chunkList) insert(c Chunk) {
	pos := sort.Search(len(cl.chunks), func(i int) bool {
		return cl.chunks[i].Ref >= c.Ref
	})

	mergedLeft := false
	if pos > 0 {
		prev := &cl.chunks[pos-1]
		if prev.Ref+ref.Ref(prev.Size) == c.Ref {
			prev.Size += c.Size
			mergedLeft = true
			pos--
		}
	}

	if mergedLeft {
		if pos+1 < len(cl.chunks) {
			cur := &cl.chunks[pos]
			if next := cl.chunks[pos+1]; cur.Ref+ref.Ref(cur.Size) == next.Ref {
				cur.Size += next.Size
				cl.chunks = append(cl.chunks[:pos+1], cl.chunks[pos+2:]...)
			}
		}
		return
	}

	if pos < len(cl.chunks) {
		if next := cl.chunks[pos]; c.Ref+ref.Ref(c.Size) == next.Ref {
			cl.chunks[pos] = Chunk{Ref: c.Ref, Size: c.Size + next.Size}
			return
		}
	}

	cl.chunks = append(cl.chunks, Chunk{})
	copy(cl.chunks[pos+1:], cl.chunks[pos:])
	cl.chunks[pos] = c
}

func (cl *chunkList) totalBytes() int {
	total := 0
	for _, c := range cl.chunks {
		total += c.Size
	}
	return total
}

func (cl *chunkList) count() int {
	return len(cl.chunks)
}

func (cl *chunkList) clear() {
	cl.chunks = nil
}

// snapshot returns a defensive copy of the chunk list, for diagnostics.
func (cl *chunkList) snapshot() []Chunk {
	out := make([]Chunk, len(cl.chunks))
	copy(out, cl.chunks)
	return out
}
