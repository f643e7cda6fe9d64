package bento

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

// S1 — single slot: allocate a small object, free it, then try one too
// big for the chunk size.
func TestPageAllocatorSingleSlot(t *testing.T) {
	var page PageAllocator
	require.NoError(t, page.Initialize(16))
	defer page.Close()

	require.EqualValues(t, 16*64, page.MemoryFootprint())

	addr := page.Allocate(4, 4)
	require.NotNil(t, addr)
	require.EqualValues(t, 0x1, page.UsageFlags())

	page.Deallocate(addr)
	require.EqualValues(t, 0x0, page.UsageFlags())

	tooBig := page.Allocate(32, 4)
	require.Nil(t, tooBig)
	require.EqualValues(t, 0x0, page.UsageFlags())
}

// S2 — middle-chunk free and reuse: freeing the second of three live
// chunks must hand that exact address back out next.
func TestPageAllocatorMiddleFreeReuse(t *testing.T) {
	var page PageAllocator
	require.NoError(t, page.Initialize(16))
	defer page.Close()

	c0 := page.Allocate(16, 8)
	require.NotNil(t, c0)
	require.EqualValues(t, 0x1, page.UsageFlags())

	c1 := page.Allocate(16, 8)
	require.NotNil(t, c1)
	require.EqualValues(t, 0x3, page.UsageFlags())

	c2 := page.Allocate(16, 8)
	require.NotNil(t, c2)
	require.EqualValues(t, 0x7, page.UsageFlags())

	page.Deallocate(c1)
	require.EqualValues(t, 0x5, page.UsageFlags())

	c1Again := page.Allocate(16, 8)
	require.NotNil(t, c1Again)
	require.EqualValues(t, 0x7, page.UsageFlags())
	require.Equal(t, c1, c1Again)

	page.Deallocate(c0)
	page.Deallocate(c1Again)
	page.Deallocate(c2)
	require.EqualValues(t, 0x0, page.UsageFlags())
}

// S3 — filling all 64 chunks, refusing a 65th, then freeing every one.
func TestPageAllocatorFull(t *testing.T) {
	var page PageAllocator
	require.NoError(t, page.Initialize(16))
	defer page.Close()

	var addrs [64]unsafe.Pointer
	for i := 0; i < 64; i++ {
		addr := page.Allocate(16, 8)
		require.NotNilf(t, addr, "chunk %d", i)
		addrs[i] = addr
	}
	require.True(t, page.IsFull())

	extra := page.Allocate(16, 8)
	require.Nil(t, extra)
	require.True(t, page.IsFull())

	for i := 63; i >= 0; i-- {
		page.Deallocate(addrs[i])
	}
	require.EqualValues(t, 0, page.UsageFlags())
}

func TestPageAllocatorNilDeallocateIsNoop(t *testing.T) {
	var page PageAllocator
	require.NoError(t, page.Initialize(16))
	defer page.Close()

	page.Deallocate(nil)
	require.EqualValues(t, 0, page.UsageFlags())
}
