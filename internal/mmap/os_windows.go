//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	base, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	return data, winRelease, nil
}

func osReserve(size int) ([]byte, func([]byte) error, error) {
	base, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(base)), size)
	return data, winRelease, nil
}

func osCommit(seg []byte) error {
	_, err := windows.VirtualAlloc(uintptr(unsafe.Pointer(&seg[0])), uintptr(len(seg)),
		windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func osDecommit(seg []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&seg[0])), uintptr(len(seg)),
		windows.MEM_DECOMMIT)
}

func winRelease(data []byte) error {
	// MEM_RELEASE requires size 0 and the original base address.
	return windows.VirtualFree(uintptr(unsafe.Pointer(&data[0])), 0, windows.MEM_RELEASE)
}
