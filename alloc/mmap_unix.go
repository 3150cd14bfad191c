//go:build unix || darwin || linux

package alloc

import (
	"syscall"
	"unsafe"
)

func (m *mapping) mapLocked() error {
	prot := syscall.PROT_READ
	if !m.readOnly {
		prot |= syscall.PROT_WRITE
	}

	data, err := syscall.Mmap(int(m.file.Fd()), 0, int(m.size), prot, syscall.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *mapping) unmapLocked() error {
	if m.data == nil {
		return nil
	}
	err := syscall.Munmap(m.data)
	m.data = nil
	return err
}

// syncRangeLocked msyncs exactly [off, off+length), the portion the dirty
// bitmap says actually changed, instead of the whole mapping.
func (m *mapping) syncRangeLocked(off, length int64) error {
	if m.data == nil {
		return ErrNotMapped
	}
	if length <= 0 {
		return nil
	}
	_, _, errno := syscall.Syscall(syscall.SYS_MSYNC,
		uintptr(unsafe.Pointer(&m.data[off])),
		uintptr(length),
		uintptr(syscall.MS_SYNC))
	if errno != 0 {
		return errno
	}
	return nil
}

func (m *mapping) basePointer() uintptr {
	if len(m.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&m.data[0]))
}
