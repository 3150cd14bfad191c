package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/obadb/refcore/ref"
)

func TestChunkListFirstFit(t *testing.T) {
	cl := chunkList{chunks: []Chunk{
		{Ref: 8, Size: 8},
		{Ref: 32, Size: 64},
		{Ref: 128, Size: 16},
	}}

	idx, ok := cl.firstFit(32)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = cl.firstFit(128)
	assert.False(t, ok)
}

func TestChunkListTakeAtExact(t *testing.T) {
	cl := chunkList{chunks: []Chunk{{Ref: 8, Size: 16}}}
	r := cl.takeAt(0, 16)
	assert.Equal(t, ref.Ref(8), r)
	assert.Equal(t, 0, cl.count())
}

func TestChunkListTakeAtSplit(t *testing.T) {
	cl := chunkList{chunks: []Chunk{{Ref: 8, Size: 32}}}
	r := cl.takeAt(0, 16)
	assert.Equal(t, ref.Ref(8), r)
	assert.Equal(t, 1, cl.count())
	assert.Equal(t, Chunk{Ref: 24, Size: 16}, cl.chunks[0])
}

func TestChunkListInsertCoalescesBothSides(t *testing.T) {
	cl := chunkList{}
	cl.insert(Chunk{Ref: 8, Size: 8})
	cl.insert(Chunk{Ref: 32, Size: 8})
	cl.insert(Chunk{Ref: 16, Size: 16}) // bridges the two existing chunks

	assert.Equal(t, 1, cl.count())
	assert.Equal(t, Chunk{Ref: 8, Size: 32}, cl.chunks[0])
}

func TestChunkListInsertNoAdjacency(t *testing.T) {
	cl := chunkList{}
	cl.insert(Chunk{Ref: 8, Size: 8})
	cl.insert(Chunk{Ref: 64, Size: 8})

	assert.Equal(t, 2, cl.count())
	assert.Equal(t, 16, cl.totalBytes())
}

func TestChunkListAllocFreeIsAreaPreserving(t *testing.T) {
	cl := chunkList{}
	cl.insert(Chunk{Ref: 8, Size: 256})
	before := cl.totalBytes()

	idx, ok := cl.firstFit(64)
	assert.True(t, ok)
	r := cl.takeAt(idx, 64)
	cl.insert(Chunk{Ref: r, Size: 64})

	assert.Equal(t, before, cl.totalBytes())
	assert.Equal(t, 1, cl.count())
}
