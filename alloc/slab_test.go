package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obadb/refcore/ref"
)

func TestSlabListTranslate(t *testing.T) {
	sl := newSlabList(ref.Ref(100))
	sl.append(32) // refs [100,132)
	sl.append(16) // refs [132,148)

	data, ok := sl.translate(ref.Ref(100))
	require.True(t, ok)
	assert.Len(t, data, 32)

	data, ok = sl.translate(ref.Ref(140))
	require.True(t, ok)
	assert.Len(t, data, 8) // 148-140

	_, ok = sl.translate(ref.Ref(99))
	assert.False(t, ok)

	_, ok = sl.translate(ref.Ref(148))
	assert.False(t, ok)
}

func TestSlabListWriteReadRoundTrip(t *testing.T) {
	sl := newSlabList(ref.Ref(0))
	sl.append(64)

	data, ok := sl.translate(ref.Ref(8))
	require.True(t, ok)
	data[0] = 0x42

	data2, ok := sl.translate(ref.Ref(8))
	require.True(t, ok)
	assert.Equal(t, byte(0x42), data2[0])
}

func TestSlabListShiftRefEnds(t *testing.T) {
	sl := newSlabList(ref.Ref(0))
	sl.append(32)
	sl.append(16)

	sl.shiftRefEnds(ref.Ref(100))

	assert.Equal(t, ref.Ref(100), sl.baseline)
	assert.Equal(t, ref.Ref(132), sl.slabs[0].RefEnd)
	assert.Equal(t, ref.Ref(148), sl.slabs[1].RefEnd)
}
