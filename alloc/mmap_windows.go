//go:build windows

package alloc

import (
	"syscall"
	"unsafe"
)

var (
	modkernel32 = syscall.NewLazyDLL("kernel32.dll")

	procCreateFileMappingW = modkernel32.NewProc("CreateFileMappingW")
	procMapViewOfFile      = modkernel32.NewProc("MapViewOfFile")
	procUnmapViewOfFile    = modkernel32.NewProc("UnmapViewOfFile")
	procFlushViewOfFile    = modkernel32.NewProc("FlushViewOfFile")
	procCloseHandle        = modkernel32.NewProc("CloseHandle")
)

const (
	pageReadonly  = 0x02
	pageReadWrite = 0x04

	fileMapRead  = 0x0004
	fileMapWrite = 0x0002
)

func (m *mapping) mapLocked() error {
	protect := uintptr(pageReadonly)
	access := uintptr(fileMapRead)
	if !m.readOnly {
		protect = pageReadWrite
		access = fileMapRead | fileMapWrite
	}

	sizeHi := uint32(m.size >> 32)
	sizeLo := uint32(m.size & 0xffffffff)

	h, _, err := procCreateFileMappingW.Call(
		uintptr(m.file.Fd()),
		0,
		protect,
		uintptr(sizeHi),
		uintptr(sizeLo),
		0,
	)
	if h == 0 {
		return err
	}
	handle := syscall.Handle(h)

	addr, _, err := procMapViewOfFile.Call(
		uintptr(handle),
		access,
		0,
		0,
		uintptr(m.size),
	)
	if addr == 0 {
		procCloseHandle.Call(uintptr(handle))
		return err
	}

	m.winHandle = uintptr(handle)
	m.data = unsafe.Slice((*byte)(unsafe.Pointer(addr)), m.size)
	return nil
}

func (m *mapping) unmapLocked() error {
	if m.data == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&m.data[0]))
	procUnmapViewOfFile.Call(addr)
	if m.winHandle != 0 {
		procCloseHandle.Call(m.winHandle)
		m.winHandle = 0
	}
	m.data = nil
	return nil
}

// syncRangeLocked flushes exactly [off, off+length), the portion the dirty
// bitmap says actually changed, instead of the whole view.
func (m *mapping) syncRangeLocked(off, length int64) error {
	if m.data == nil {
		return ErrNotMapped
	}
	if length <= 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&m.data[off]))
	ok, _, err := procFlushViewOfFile.Call(addr, uintptr(length))
	if ok == 0 {
		return err
	}
	return nil
}

func (m *mapping) basePointer() uintptr {
	if len(m.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&m.data[0]))
}
