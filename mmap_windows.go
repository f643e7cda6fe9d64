// Copyright 2011 Evan Shaw. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE-MMAP-GO file.

// Modifications (c) 2017 The Memory Authors.
// Further modifications for the bento allocator family.

package bento

import (
	"os"
	"reflect"
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
)

// mmap on Windows is a two-step process: CreateFileMapping gets a handle,
// MapViewOfFile turns it into an actual pointer into memory.

var (
	handleMapMu sync.Mutex
	handleMap   = map[uintptr]syscall.Handle{}
)

// mmapRegion acquires size bytes of anonymous, zero-filled memory
// directly from the OS. It backs both PageAllocator's 64-chunk buffer and
// SafeSystemAllocator's per-allocation raw blocks.
func mmapRegion(size uintptr) ([]byte, error) {
	flProtect := uint32(syscall.PAGE_READWRITE)
	dwDesiredAccess := uint32(syscall.FILE_MAP_WRITE)

	maxSizeHigh := uint32(uint64(size) >> 32)
	maxSizeLow := uint32(uint64(size) & 0xFFFFFFFF)
	h, errno := syscall.CreateFileMapping(syscall.Handle(^uintptr(0)), nil, flProtect, maxSizeHigh, maxSizeLow, nil)
	if h == 0 {
		return nil, errors.Wrap(os.NewSyscallError("CreateFileMapping", errno), "mmapRegion")
	}

	addr, errno := syscall.MapViewOfFile(h, dwDesiredAccess, 0, 0, size)
	if addr == 0 {
		return nil, errors.Wrap(os.NewSyscallError("MapViewOfFile", errno), "mmapRegion")
	}

	handleMapMu.Lock()
	handleMap[addr] = h
	handleMapMu.Unlock()

	var b []byte
	sh := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sh.Data = addr
	sh.Len = int(size)
	sh.Cap = int(size)
	return b, nil
}

// munmapRegion releases a region previously acquired from mmapRegion.
func munmapRegion(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&b[0]))

	if err := syscall.UnmapViewOfFile(addr); err != nil {
		return errors.Wrap(err, "munmapRegion")
	}

	handleMapMu.Lock()
	handle, ok := handleMap[addr]
	delete(handleMap, addr)
	handleMapMu.Unlock()
	if !ok {
		return errors.New("munmapRegion: unknown base address")
	}

	if err := syscall.CloseHandle(handle); err != nil {
		return errors.Wrap(os.NewSyscallError("CloseHandle", err), "munmapRegion")
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
