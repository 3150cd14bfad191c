package ref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNull(t *testing.T) {
	assert.True(t, None.IsNull())
	assert.False(t, Ref(8).IsNull())
}

func TestIsAligned(t *testing.T) {
	assert.True(t, Ref(0).IsAligned())
	assert.True(t, Ref(8).IsAligned())
	assert.True(t, Ref(16).IsAligned())
	assert.False(t, Ref(1).IsAligned())
	assert.False(t, Ref(9).IsAligned())
}

func TestFromInt64RejectsNegative(t *testing.T) {
	_, ok := FromInt64(-8)
	assert.False(t, ok)
}

func TestFromInt64RejectsUnaligned(t *testing.T) {
	_, ok := FromInt64(9)
	assert.False(t, ok)
}

func TestFromInt64Accepts(t *testing.T) {
	r, ok := FromInt64(16)
	assert.True(t, ok)
	assert.Equal(t, Ref(16), r)
}

func TestAlignUp(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 0},
		{1, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{-1, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, AlignUp(c.in), "AlignUp(%d)", c.in)
	}
}
