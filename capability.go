// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bento implements a family of cooperating user-space memory
// allocators for latency-sensitive code that wants to avoid the system
// allocator on its hot path.
package bento

import "unsafe"

// Allocator is the capability every concrete allocator in this package
// satisfies. A nil return from Allocate is the sole failure signal: no
// panics, no errors, on the hot path.
type Allocator interface {
	// Allocate reserves size bytes aligned to alignment (a power of two)
	// and returns their address, or nil if the allocator cannot serve
	// the request.
	Allocate(size, alignment uintptr) unsafe.Pointer

	// Deallocate releases an address previously returned by Allocate on
	// the same allocator. address must not have been deallocated
	// already; violating that is a programming error this package does
	// not guarantee to detect.
	Deallocate(address unsafe.Pointer)

	// MemoryFootprint reports the bytes this allocator has reserved from
	// its backing source, independent of how many are currently live.
	MemoryFootprint() uintptr
}

// EnableTrace turns on per-call debug logging for every allocator in this
// package. It is a package-level switch rather than a per-instance
// option because it exists purely for development-time diagnosis, never
// for production behaviour.
var EnableTrace = false

// roundup rounds n up to the next multiple of m, which must be a power of
// two. Shared by the header-sizing logic in book_allocator.go and
// safe_system_allocator.go.
func roundup(n, m uintptr) uintptr {
	return (n + m - 1) &^ (m - 1)
}
