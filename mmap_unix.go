// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

//go:build darwin || dragonfly || freebsd || linux || openbsd || solaris || netbsd

// Modifications (c) 2017 The Memory Authors.
// Further modifications for the bento allocator family.

package bento

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mmapRegion acquires size bytes of anonymous, zero-filled memory
// directly from the OS, bypassing the Go heap so the region is never
// touched by the garbage collector. It backs both PageAllocator's
// 64-chunk buffer and SafeSystemAllocator's per-allocation raw blocks.
func mmapRegion(size uintptr) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %d bytes", size)
	}
	return b, nil
}

// munmapRegion releases a region previously acquired from mmapRegion.
func munmapRegion(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return errors.Wrap(err, "munmap")
	}
	return nil
}

// addressOf returns the raw address of the first byte of b, or nil if b
// is empty.
func addressOf(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
