package bento

import (
	"math/bits"
	"unsafe"

	"github.com/AnisB/bento-tests/internal/tracelog"
	"github.com/pkg/errors"
)

// pageCapacity is the fixed number of chunks a PageAllocator's buffer
// holds. It never grows: spec.md's non-goals explicitly exclude growing
// a page past its initial 64 chunks.
const pageCapacity = 64

// PageAllocator is a slab holding exactly 64 fixed-size chunks, tracked
// by a 64-bit occupancy bitmap. Its zero value is not ready for use;
// call Initialize first.
type PageAllocator struct {
	chunkSize  uintptr
	buffer     []byte
	usageFlags uint64
}

// Initialize acquires chunkSize*64 contiguous bytes from the OS and
// resets the occupancy bitmap. chunkSize must be positive.
func (p *PageAllocator) Initialize(chunkSize uintptr) error {
	if chunkSize == 0 {
		return errors.New("page_allocator: chunk size must be positive")
	}
	buf, err := mmapRegion(chunkSize * pageCapacity)
	if err != nil {
		return errors.Wrap(err, "page_allocator: initialize")
	}
	p.chunkSize = chunkSize
	p.buffer = buf
	p.usageFlags = 0
	return nil
}

// Close releases the page's backing buffer. Outstanding allocations at
// close time are a programming error; this package does not guard
// against it.
func (p *PageAllocator) Close() error {
	if err := munmapRegion(p.buffer); err != nil {
		return errors.Wrap(err, "page_allocator: close")
	}
	p.buffer = nil
	p.chunkSize = 0
	p.usageFlags = 0
	return nil
}

// ChunkSize reports the fixed chunk size this page was initialized with.
func (p *PageAllocator) ChunkSize() uintptr { return p.chunkSize }

// UsageFlags exposes the raw occupancy bitmap, primarily for tests.
func (p *PageAllocator) UsageFlags() uint64 { return p.usageFlags }

// IsFull reports whether every one of the 64 chunks is live.
func (p *PageAllocator) IsFull() bool { return p.usageFlags == ^uint64(0) }

// MemoryFootprint is constant for the page's lifetime: chunkSize*64.
func (p *PageAllocator) MemoryFootprint() uintptr {
	footprint := p.chunkSize * pageCapacity
	if EnableTrace {
		tracelog.Tracef("page_allocator", "memory_footprint() -> %d", footprint)
	}
	return footprint
}

// Allocate serves size bytes from the lowest-indexed free chunk, or
// returns nil if size exceeds the page's chunk size or the page is full.
// alignment is accepted for capability conformance; a page's chunks are
// only as aligned as the backing mmap region and the chunk size itself
// (see spec.md §9's open question on per-chunk alignment padding).
func (p *PageAllocator) Allocate(size, alignment uintptr) unsafe.Pointer {
	if size > p.chunkSize || p.IsFull() {
		if EnableTrace {
			tracelog.Tracef("page_allocator", "allocate(%d, %d) refused, chunk_size=%d full=%v", size, alignment, p.chunkSize, p.IsFull())
		}
		return nil
	}

	index := bits.TrailingZeros64(^p.usageFlags)
	p.usageFlags |= uint64(1) << uint(index)
	addr := unsafe.Add(addressOf(p.buffer), uintptr(index)*p.chunkSize)
	if EnableTrace {
		tracelog.Tracef("page_allocator", "allocate(%d, %d) -> chunk %d, flags=%#x", size, alignment, index, p.usageFlags)
	}
	return addr
}

// Deallocate clears the chunk address belongs to. A nil address is a
// no-op. address must be a value this page previously returned.
func (p *PageAllocator) Deallocate(address unsafe.Pointer) {
	if address == nil {
		return
	}
	base := addressOf(p.buffer)
	offset := uintptr(address) - uintptr(base)
	index := offset / p.chunkSize
	if index >= pageCapacity || offset%p.chunkSize != 0 {
		panic("page_allocator: deallocate of an address this page did not issue")
	}
	p.usageFlags &^= uint64(1) << index
	if EnableTrace {
		tracelog.Tracef("page_allocator", "deallocate(chunk %d), flags=%#x", index, p.usageFlags)
	}
}
