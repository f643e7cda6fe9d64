package bento

import (
	"math"
	"unsafe"

	"testing"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

// TestPageAllocatorRandomizedAllocateFreeCycle adapts the teacher's
// test1/test2 randomized-cycle harness: a full-cycle PRNG drives repeated
// allocate/free sequences against a single PageAllocator, checking that
// the occupancy bitmap's popcount always equals the live address count
// and that every freed chunk is reusable.
func TestPageAllocatorRandomizedAllocateFreeCycle(t *testing.T) {
	var page PageAllocator
	require.NoError(t, page.Initialize(32))
	defer page.Close()

	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	require.NoError(t, err)
	rng.Seed(7)

	live := map[unsafe.Pointer]bool{}
	for round := 0; round < 500; round++ {
		if len(live) < 64 && (len(live) == 0 || rng.Next()%2 == 0) {
			addr := page.Allocate(32, 8)
			require.NotNil(t, addr)
			require.False(t, live[addr])
			live[addr] = true
		} else if len(live) > 0 {
			var victim unsafe.Pointer
			skip := rng.Next() % len(live)
			i := 0
			for a := range live {
				if i == skip {
					victim = a
					break
				}
				i++
			}
			page.Deallocate(victim)
			delete(live, victim)
		}

		require.Equal(t, len(live), popcount64(page.UsageFlags()))
	}

	for a := range live {
		page.Deallocate(a)
	}
	require.EqualValues(t, 0, page.UsageFlags())
}

func popcount64(x uint64) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}
