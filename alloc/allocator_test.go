package alloc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachEmptyThenAttachBufferHeaderRoundTrip(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()
	a.Detach()

	buf := make([]byte, HeaderSize+8)
	h := NewEmptyHeader(false)
	enc := h.Encode()
	copy(buf, enc[:])

	b := New(DefaultOptions())
	topRef, err := b.AttachBuffer(buf, AttachBufferOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), uint64(topRef))
}

func TestAttachBufferRejectsCorruptMnemonic(t *testing.T) {
	buf := make([]byte, HeaderSize+8)
	h := NewEmptyHeader(false)
	enc := h.Encode()
	copy(buf, enc[:])
	buf[16] = 'X'

	a := New(DefaultOptions())
	_, err := a.AttachBuffer(buf, AttachBufferOptions{})
	assert.ErrorIs(t, err, ErrInvalidDatabase)
}

func TestAttachFileStreamingFormConversion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.oba")

	h := NewEmptyHeader(false)
	headerBuf := h.Encode()
	footer := Footer{TopRef: 4096}
	footerBuf := footer.Encode()

	body := headerBuf[:]
	body = append(body, footerBuf[:]...)
	require.NoError(t, os.WriteFile(path, body, 0644))

	a := New(DefaultOptions())
	topRef, err := a.AttachFile(path, AttachFileOptions{})
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), uint64(topRef))

	require.NoError(t, a.PrepareForUpdate(topRef))

	b := New(DefaultOptions())
	topRef2, err := b.AttachFile(path, AttachFileOptions{SkipValidate: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), uint64(topRef2))
}

func TestAllocFreeFastPath(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()

	first, _, err := a.Alloc(64)
	require.NoError(t, err)

	_, _, err = a.Alloc(64)
	require.NoError(t, err)

	require.NoError(t, a.Free(first, 64))

	third, _, err := a.Alloc(64)
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestAllocIsEightByteAligned(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()

	r, data, err := a.Alloc(13)
	require.NoError(t, err)
	assert.True(t, r.IsAligned())
	assert.GreaterOrEqual(t, len(data), 13)
}

func TestFreeSpaceStateInvalidIsSticky(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()
	a.invalidate()

	_, _, err := a.Alloc(64)
	assert.ErrorIs(t, err, ErrFreeSpaceInvalid)

	err = a.Free(8, 8)
	assert.ErrorIs(t, err, ErrFreeSpaceInvalid)

	a.ResetFreeSpaceTracking()
	_, _, err = a.Alloc(64)
	assert.NoError(t, err)
}

func TestAllocFreeAreaPreserving(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()

	r1, _, err := a.Alloc(64)
	require.NoError(t, err)
	r2, _, err := a.Alloc(128)
	require.NoError(t, err)

	before, err := a.FreeSpaceStats()
	require.NoError(t, err)

	require.NoError(t, a.Free(r1, 64))
	require.NoError(t, a.Free(r2, 128))

	after, err := a.FreeSpaceStats()
	require.NoError(t, err)
	assert.Equal(t, before.FreeSpaceBytes+64+128, after.FreeSpaceBytes)
}

func TestFreeSpaceStatsFailsWhenInvalid(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()
	a.invalidate()

	_, err := a.FreeSpaceStats()
	assert.ErrorIs(t, err, ErrFreeSpaceInvalid)
}

func TestDetachGuardDetachesUnlessReleased(t *testing.T) {
	a := New(DefaultOptions())
	a.AttachEmpty()

	func() {
		g := NewDetachGuard(a)
		defer g.Close()
	}()
	assert.Equal(t, None, a.State())

	a.AttachEmpty()
	func() {
		g := NewDetachGuard(a)
		defer g.Close()
		g.Release()
	}()
	assert.NotEqual(t, None, a.State())
}
