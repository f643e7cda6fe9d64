package bento

import (
	"unsafe"

	"github.com/AnisB/bento-tests/internal/tracelog"
)

// safeHeader is the per-allocation prefix SafeSystemAllocator writes
// before the payload. It records the total raw size (header + payload)
// so Deallocate can both munmap the right length and update the
// accounting counters from the payload pointer alone.
type safeHeader struct {
	rawSize uintptr
}

var safeHeaderSize = roundup(unsafe.Sizeof(safeHeader{}), headerAlignment)

// SafeSystemAllocator wraps the OS allocator (mmap/munmap) with a
// header-stamped prefix on every live allocation, maintaining exact,
// live accounting of allocated, freed, and outstanding bytes.
type SafeSystemAllocator struct {
	current uintptr
	total   uintptr
	freed   uintptr
}

// HeaderSize is the constant per-allocation overhead this allocator
// prepends to every live block.
func (s *SafeSystemAllocator) HeaderSize() uintptr { return safeHeaderSize }

// CurrentAllocatedMemory is the live byte count, including headers.
func (s *SafeSystemAllocator) CurrentAllocatedMemory() uintptr { return s.current }

// TotalMemoryAllocated is the cumulative byte count ever allocated,
// including headers. It never decreases.
func (s *SafeSystemAllocator) TotalMemoryAllocated() uintptr { return s.total }

// TotalFreedMemory is the cumulative byte count ever freed, including
// headers. It never decreases.
func (s *SafeSystemAllocator) TotalFreedMemory() uintptr { return s.freed }

// MemoryFootprint reports the allocator's current live usage: it has no
// reserved pool of its own beyond what's outstanding.
func (s *SafeSystemAllocator) MemoryFootprint() uintptr {
	if EnableTrace {
		tracelog.Tracef("safe_system_allocator", "memory_footprint() -> %d", s.current)
	}
	return s.current
}

// Allocate requests size+HeaderSize() bytes from the OS, stamps the
// header, and returns the payload address, or nil if the OS refuses.
func (s *SafeSystemAllocator) Allocate(size, alignment uintptr) unsafe.Pointer {
	rawSize := size + s.HeaderSize()
	buf, err := mmapRegion(rawSize)
	if err != nil {
		if EnableTrace {
			tracelog.Tracef("safe_system_allocator", "allocate(%d, %d) failed: %v", size, alignment, err)
		}
		return nil
	}

	raw := addressOf(buf)
	hdr := (*safeHeader)(raw)
	hdr.rawSize = rawSize

	// Keep the backing slice reachable from the process's address space
	// (it's OS memory, not GC-managed) by recovering it at Deallocate
	// time purely from the raw pointer and the stored size.
	s.current += rawSize
	s.total += rawSize

	if EnableTrace {
		tracelog.Tracef("safe_system_allocator", "allocate(%d, %d) -> %p, current=%d total=%d", size, alignment, raw, s.current, s.total)
	}
	return unsafe.Add(raw, s.HeaderSize())
}

// Deallocate reads the size from the header preceding payloadAddress,
// releases the raw region to the OS, and updates the counters. A nil
// address is a no-op.
func (s *SafeSystemAllocator) Deallocate(payloadAddress unsafe.Pointer) {
	if payloadAddress == nil {
		return
	}
	raw := unsafe.Add(payloadAddress, -int(s.HeaderSize()))
	hdr := (*safeHeader)(raw)
	rawSize := hdr.rawSize

	b := unsafe.Slice((*byte)(raw), rawSize)
	if err := munmapRegion(b); err != nil {
		if EnableTrace {
			tracelog.Tracef("safe_system_allocator", "deallocate(%p) munmap failed: %v", payloadAddress, err)
		}
		return
	}

	s.current -= rawSize
	s.freed += rawSize
	if EnableTrace {
		tracelog.Tracef("safe_system_allocator", "deallocate(%p), current=%d freed=%d", payloadAddress, s.current, s.freed)
	}
}
