package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := NewEmptyHeader(true)
	h = h.WithLiveTopRef(4096)

	buf := h.Encode()
	require.Len(t, buf, HeaderSize)

	decoded, err := DecodeHeader(buf[:])
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), decoded.LiveTopRef())
	assert.True(t, decoded.ServerSync)
}

func TestDecodeHeaderRejectsBadMnemonic(t *testing.T) {
	h := NewEmptyHeader(false)
	buf := h.Encode()
	buf[16] = 'X' // corrupt "T-DB" -> "X-DB"

	_, err := DecodeHeader(buf[:])
	assert.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestFooterRoundTrip(t *testing.T) {
	f := Footer{TopRef: 777}
	buf := f.Encode()

	decoded, ok := DecodeFooter(buf[:])
	require.True(t, ok)
	assert.Equal(t, uint64(777), decoded.TopRef)
}

func TestDecodeFooterRejectsWrongMagic(t *testing.T) {
	buf := make([]byte, FooterSize)
	_, ok := DecodeFooter(buf)
	assert.False(t, ok)
}

func TestLiveSlotSelection(t *testing.T) {
	h := NewEmptyHeader(false)
	assert.Equal(t, 0, h.LiveSlot())

	h2 := h.WithLiveTopRef(8)
	assert.Equal(t, 0, h2.LiveSlot())
	assert.Equal(t, uint64(8), h2.LiveTopRef())
}
