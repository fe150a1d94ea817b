//go:build unix || linux || darwin || freebsd || openbsd || netbsd

package mmap

import (
	"golang.org/x/sys/unix"
)

func osMapAnon(size int) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_ANON | unix.MAP_PRIVATE

	data, err := unix.Mmap(-1, 0, size, prot, flags)
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}

func osReserve(size int) ([]byte, func([]byte) error, error) {
	// PROT_NONE reserves the address range without committing swap or RAM;
	// pages become accessible only after osCommit flips the protection.
	data, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}

	return data, unix.Munmap, nil
}

func osCommit(seg []byte) error {
	return unix.Mprotect(seg, unix.PROT_READ|unix.PROT_WRITE)
}

func osDecommit(seg []byte) error {
	// Drop the physical pages first, then revoke access so a stray read of
	// a decayed page faults instead of returning zeroes.
	if err := unix.Madvise(seg, unix.MADV_DONTNEED); err != nil && err != unix.EINVAL {
		return err
	}
	return unix.Mprotect(seg, unix.PROT_NONE)
}
