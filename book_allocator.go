package bento

import (
	"unsafe"

	"github.com/AnisB/bento-tests/internal/tracelog"
	"github.com/pkg/errors"
)

// headerAlignment is the byte boundary every allocation header in this
// package rounds its size up to. A SafeSystemAllocator payload therefore
// starts 8-byte aligned, since its blocks come page-aligned from the OS.
// A BookAllocator payload starts HeaderSize() bytes into its chunk, so its
// alignment also depends on the page's chunk size.
const headerAlignment = 8

// bookHeader is the per-allocation prefix a BookAllocator writes before
// the payload it hands back, recording which page served the address so
// Deallocate is O(1).
type bookHeader struct {
	pageIndex uint32
}

var bookHeaderSize = roundup(unsafe.Sizeof(bookHeader{}), headerAlignment)

// BookAllocator routes allocations across an ordered set of PageAllocators
// with strictly increasing chunk sizes, widening each tier by its header
// overhead so routing metadata never steals from the caller's requested
// size.
type BookAllocator struct {
	pages []PageAllocator
}

// Initialize builds pageCount PageAllocators where page k has chunk size
// (k+1)*chunkStep + HeaderSize().
func (b *BookAllocator) Initialize(pageCount int, chunkStep uintptr) error {
	if pageCount <= 0 {
		return errors.New("book_allocator: page count must be positive")
	}
	if chunkStep == 0 {
		return errors.New("book_allocator: chunk step must be positive")
	}
	pages := make([]PageAllocator, pageCount)
	for k := 0; k < pageCount; k++ {
		chunkSize := uintptr(k+1)*chunkStep + b.HeaderSize()
		if err := pages[k].Initialize(chunkSize); err != nil {
			for j := 0; j < k; j++ {
				_ = pages[j].Close()
			}
			return errors.Wrapf(err, "book_allocator: initialize page %d", k)
		}
	}
	b.pages = pages
	return nil
}

// Close releases every page's backing buffer.
func (b *BookAllocator) Close() error {
	var firstErr error
	for i := range b.pages {
		if err := b.pages[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.pages = nil
	return firstErr
}

// HeaderSize is a constant for the BookAllocator type, independent of
// page count or chunk step.
func (b *BookAllocator) HeaderSize() uintptr { return bookHeaderSize }

// GetPageAllocator exposes the k-th page, primarily for tests.
func (b *BookAllocator) GetPageAllocator(k int) *PageAllocator { return &b.pages[k] }

// PageCount reports how many pages this book holds.
func (b *BookAllocator) PageCount() int { return len(b.pages) }

// MemoryFootprint is the sum of every page's footprint.
func (b *BookAllocator) MemoryFootprint() uintptr {
	var total uintptr
	for i := range b.pages {
		total += b.pages[i].MemoryFootprint()
	}
	if EnableTrace {
		tracelog.Tracef("book_allocator", "memory_footprint() -> %d", total)
	}
	return total
}

// Allocate decorates size with the routing header and serves it from the
// first page (in ascending index) willing to accept it. A request may be
// served by a page whose chunk size strictly exceeds what was needed, if
// every smaller-indexed eligible page is full — that overflow is
// intentional (spec.md §4.4, scenario S5). alignment is passed to the page
// but not otherwise honoured: the payload starts HeaderSize() bytes past a
// chunk start, so it is a multiple of alignment only where the chunk size
// and HeaderSize() make it one (with chunkStep 4, page 0's second payload
// sits 20 bytes into the buffer).
func (b *BookAllocator) Allocate(size, alignment uintptr) unsafe.Pointer {
	needed := size + b.HeaderSize()
	for k := range b.pages {
		if b.pages[k].ChunkSize() < needed {
			continue
		}
		raw := b.pages[k].Allocate(needed, alignment)
		if raw == nil {
			continue
		}
		hdr := (*bookHeader)(raw)
		hdr.pageIndex = uint32(k)
		payload := unsafe.Add(raw, b.HeaderSize())
		if EnableTrace {
			tracelog.Tracef("book_allocator", "allocate(%d, %d) -> page %d", size, alignment, k)
		}
		return payload
	}
	if EnableTrace {
		tracelog.Tracef("book_allocator", "allocate(%d, %d) refused, no page large enough or all full", size, alignment)
	}
	return nil
}

// Deallocate reads the routing header preceding payloadAddress and hands
// the raw address back to the page that served it.
func (b *BookAllocator) Deallocate(payloadAddress unsafe.Pointer) {
	if payloadAddress == nil {
		return
	}
	raw := unsafe.Add(payloadAddress, -int(b.HeaderSize()))
	hdr := (*bookHeader)(raw)
	pageIndex := hdr.pageIndex
	if EnableTrace {
		tracelog.Tracef("book_allocator", "deallocate via page %d", pageIndex)
	}
	b.pages[pageIndex].Deallocate(raw)
}
