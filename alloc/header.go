package alloc

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the exact size of the file header in bytes (spec.md §6).
const HeaderSize = 24

// FooterSize is the exact size of the streaming footer in bytes.
const FooterSize = 16

// StreamingMagic is the 8-byte magic cookie that marks a streaming-form
// file (spec.md §3, §6).
const StreamingMagic uint64 = 0x3034125237E526C8

// mnemonic is the 4-byte file-format tag written at header bytes 16-19.
var mnemonic = [4]byte{'T', '-', 'D', 'B'}

// Header format flag bits (byte 23).
const (
	flagTopRefSelect byte = 1 << 0 // selects which of the two top-refs is live
	flagServerSync   byte = 1 << 1 // server-sync-mode persistent logs
)

// formatVersionNoNullStrings is used when the null-in-string feature is not
// supported by the caller; formatVersionNullStrings is the current default.
const (
	formatVersionNoNullStrings uint16 = 2
	formatVersionNullStrings   uint16 = 3
)

// DefaultFormatVersion is written into new files.
const DefaultFormatVersion = formatVersionNullStrings

// Header is the bit-exact, little-endian 24-byte file header described in
// spec.md §3/§6.
type Header struct {
	TopRefs    [2]uint64
	Version    uint16
	Flags      byte
	ServerSync bool
}

// ErrInvalidDatabase reports a structurally invalid file: wrong mnemonic,
// unsupported version, truncated header/body, or a server-sync-mode
// mismatch on reattach.
var ErrInvalidDatabase = errors.New("alloc: invalid database")

// NewEmptyHeader returns the header written for a brand-new file: both
// top-refs zero, top-ref slot 0 live, and the requested server-sync-mode
// flag latched in (spec.md §4.2 attach_file "New file" rule).
func NewEmptyHeader(serverSyncMode bool) Header {
	h := Header{Version: DefaultFormatVersion}
	if serverSyncMode {
		h.Flags |= flagServerSync
		h.ServerSync = true
	}
	return h
}

// LiveSlot returns which top-ref slot (0 or 1) is currently live.
func (h Header) LiveSlot() int {
	if h.Flags&flagTopRefSelect != 0 {
		return 1
	}
	return 0
}

// LiveTopRef returns the top-ref named by the live slot.
func (h Header) LiveTopRef() uint64 {
	return h.TopRefs[h.LiveSlot()]
}

// WithLiveTopRef returns a copy of h with the live slot set to v and the
// select bit pointed at slot 0 (the convention prepare_for_update uses when
// converting a streaming-form file, spec.md §4.2).
func (h Header) WithLiveTopRef(v uint64) Header {
	h.TopRefs[0] = v
	h.Flags &^= flagTopRefSelect
	return h
}

// Encode writes h to a 24-byte buffer.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.TopRefs[0])
	binary.LittleEndian.PutUint64(buf[8:16], h.TopRefs[1])
	copy(buf[16:20], mnemonic[:])
	binary.LittleEndian.PutUint16(buf[20:22], h.Version)
	buf[22] = 0
	buf[23] = h.Flags
	return buf
}

// DecodeHeader parses and validates a 24-byte header buffer.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrInvalidDatabase
	}
	if string(buf[16:20]) != string(mnemonic[:]) {
		return Header{}, ErrInvalidDatabase
	}
	version := binary.LittleEndian.Uint16(buf[20:22])
	if version == 0 || version > formatVersionNullStrings {
		return Header{}, ErrInvalidDatabase
	}
	h := Header{
		TopRefs: [2]uint64{
			binary.LittleEndian.Uint64(buf[0:8]),
			binary.LittleEndian.Uint64(buf[8:16]),
		},
		Version: version,
		Flags:   buf[23],
	}
	h.ServerSync = h.Flags&flagServerSync != 0
	return h, nil
}

// Footer is the 16-byte streaming-form trailer: a live top-ref followed by
// the magic cookie.
type Footer struct {
	TopRef uint64
}

// DecodeFooter reads a trailing 16-byte streaming footer, if the magic
// cookie matches. buf must be exactly the file's last 16 bytes.
func DecodeFooter(buf []byte) (Footer, bool) {
	if len(buf) < FooterSize {
		return Footer{}, false
	}
	magic := binary.LittleEndian.Uint64(buf[8:16])
	if magic != StreamingMagic {
		return Footer{}, false
	}
	return Footer{TopRef: binary.LittleEndian.Uint64(buf[0:8])}, true
}

// Encode writes f to a 16-byte buffer.
func (f Footer) Encode() [FooterSize]byte {
	var buf [FooterSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], f.TopRef)
	binary.LittleEndian.PutUint64(buf[8:16], StreamingMagic)
	return buf
}
